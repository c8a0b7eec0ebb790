package output

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"golang.org/x/image/bmp"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
		err  bool
	}{
		{"jpg", JPEG, false},
		{".JPEG", JPEG, false},
		{"", JPEG, false},
		{"png", PNG, false},
		{".bmp", BMP, false},
		{"avi", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if got != tt.want || (err != nil) != tt.err {
			t.Errorf("ParseFormat(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestEncodeDecodes(t *testing.T) {
	img := imaging.New(6, 4, color.NRGBA{R: 10, G: 200, B: 30, A: 255})
	for _, f := range []Format{JPEG, PNG, BMP} {
		var buf bytes.Buffer
		if err := Encode(&buf, img, f, 0); err != nil {
			t.Fatalf("Encode %s: %v", f, err)
		}
		var (
			got image.Image
			err error
		)
		if f == BMP {
			got, err = bmp.Decode(&buf)
		} else {
			got, err = imaging.Decode(&buf)
		}
		if err != nil {
			t.Fatalf("decode %s: %v", f, err)
		}
		if got.Bounds().Dx() != 6 || got.Bounds().Dy() != 4 {
			t.Errorf("%s bounds = %v", f, got.Bounds())
		}
	}
	if err := Encode(&bytes.Buffer{}, img, Format("gif"), 0); err == nil {
		t.Error("unsupported format accepted")
	}
}

func TestStoreSaveLookup(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(filepath.Join(dir, "out"), PNG, 0)
	if err != nil {
		t.Fatal(err)
	}
	name, path, err := s.Save(imaging.New(3, 3, color.White))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(name, "icon_") || !strings.HasSuffix(name, ".png") {
		t.Errorf("name = %q", name)
	}
	if filepath.Dir(path) != s.Dir() {
		t.Errorf("path %q outside store dir", path)
	}
	got, err := s.Lookup(name)
	if err != nil || got != path {
		t.Errorf("Lookup(%q) = %q, %v", name, got, err)
	}
	if s.Saved() != 1 {
		t.Errorf("Saved = %d", s.Saved())
	}
	if ContentType(name) != "image/png" {
		t.Errorf("ContentType = %q", ContentType(name))
	}

	os.WriteFile(filepath.Join(dir, "secret.txt"), []byte("x"), 0o644)
	for _, bad := range []string{"", "../secret.txt", "..", ".hidden", "missing.png", `a\b.png`} {
		if _, err := s.Lookup(bad); !errors.Is(err, ErrNotFound) {
			t.Errorf("Lookup(%q) err = %v, want ErrNotFound", bad, err)
		}
	}
}

func TestStoreNamesAreUnique(t *testing.T) {
	s, err := NewStore(t.TempDir(), JPEG, 90)
	if err != nil {
		t.Fatal(err)
	}
	seen := make(map[string]bool)
	for i := 0; i < 5; i++ {
		name, _, err := s.Save(imaging.New(2, 2, color.Black))
		if err != nil {
			t.Fatal(err)
		}
		if seen[name] {
			t.Fatalf("duplicate name %q", name)
		}
		seen[name] = true
	}
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "icon.bmp")
	if err := WriteFile(path, imaging.New(2, 2, color.White), 0); err != nil {
		t.Fatal(err)
	}
	if info, err := os.Stat(path); err != nil || info.Size() == 0 {
		t.Errorf("stat = %v, %v", info, err)
	}
	if err := WriteFile(filepath.Join(t.TempDir(), "icon.avi"), imaging.New(1, 1, color.White), 0); err == nil {
		t.Error("unsupported extension accepted")
	}
}
