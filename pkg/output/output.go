// Package output encodes rendered icons and keeps the files the server has
// produced.
//
// All output follows a unified pipeline: render an image.Image first, then
// encode it as JPEG, PNG or BMP by format name or file extension.
package output

import (
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"golang.org/x/image/bmp"
)

// Format is an output encoding.
type Format string

const (
	JPEG Format = "jpg"
	PNG  Format = "png"
	BMP  Format = "bmp"

	DefaultQuality = 95
)

// ParseFormat accepts a format name or extension, with or without a dot.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "jpg", "jpeg", "":
		return JPEG, nil
	case "png":
		return PNG, nil
	case "bmp":
		return BMP, nil
	}
	return "", fmt.Errorf("unsupported format %q: use jpg, png or bmp", s)
}

// Ext returns the file extension for f, including the dot.
func (f Format) Ext() string { return "." + string(f) }

// ContentType returns the MIME type for f.
func (f Format) ContentType() string {
	switch f {
	case PNG:
		return "image/png"
	case BMP:
		return "image/bmp"
	}
	return "image/jpeg"
}

// Encode writes img to w. quality applies to JPEG only; out-of-range values
// use DefaultQuality.
func Encode(w io.Writer, img image.Image, f Format, quality int) error {
	if quality < 1 || quality > 100 {
		quality = DefaultQuality
	}
	var err error
	switch f {
	case JPEG:
		err = imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(quality))
	case PNG:
		err = imaging.Encode(w, img, imaging.PNG)
	case BMP:
		err = bmp.Encode(w, img)
	default:
		return fmt.Errorf("unsupported format %q", f)
	}
	if err != nil {
		return fmt.Errorf("encode %s: %w", f, err)
	}
	return nil
}

// WriteFile encodes img to path, inferring the format from the extension.
func WriteFile(path string, img image.Image, quality int) error {
	f, err := ParseFormat(filepath.Ext(path))
	if err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := Encode(file, img, f, quality); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
