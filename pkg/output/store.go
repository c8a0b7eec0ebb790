// store.go - Directory of rendered icons with safe lookup by file name.
package output

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound means a requested file is not in the store.
var ErrNotFound = errors.New("file not found")

// Store writes rendered icons into a directory and resolves download names
// back to paths.
type Store struct {
	dir     string
	format  Format
	quality int

	mu    sync.RWMutex
	saved map[string]time.Time
	now   func() time.Time
}

// NewStore creates dir if needed.
func NewStore(dir string, f Format, quality int) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &Store{
		dir:     dir,
		format:  f,
		quality: quality,
		saved:   make(map[string]time.Time),
		now:     time.Now,
	}, nil
}

// Dir returns the store directory.
func (s *Store) Dir() string { return s.dir }

// Format returns the store's encoding.
func (s *Store) Format() Format { return s.format }

// Save encodes img as icon_<timestamp>_<id>.<ext> and returns the file name
// and full path.
func (s *Store) Save(img image.Image) (name, path string, err error) {
	ts := s.now()
	name = fmt.Sprintf("icon_%s_%s%s", ts.Format("20060102_150405"), uuid.NewString()[:8], s.format.Ext())
	path = filepath.Join(s.dir, name)

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", "", fmt.Errorf("create %s: %w", name, err)
	}
	if err := Encode(file, img, s.format, s.quality); err != nil {
		file.Close()
		os.Remove(path)
		return "", "", err
	}
	if err := file.Close(); err != nil {
		os.Remove(path)
		return "", "", fmt.Errorf("close %s: %w", name, err)
	}

	s.mu.Lock()
	s.saved[name] = ts
	s.mu.Unlock()
	return name, path, nil
}

// Lookup returns the path of a file in the store. Names with path
// separators or dot segments are rejected.
func (s *Store) Lookup(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	path := filepath.Join(s.dir, name)
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return "", fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return path, nil
}

// Saved reports how many files this store wrote since it was created.
func (s *Store) Saved() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.saved)
}

// ContentType returns the MIME type for a stored file name.
func ContentType(name string) string {
	f, err := ParseFormat(filepath.Ext(name))
	if err != nil {
		return "application/octet-stream"
	}
	return f.ContentType()
}
