// emoji.go - Emoji artwork lookup from a local directory or an HTTP asset set.
package render

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/disintegration/imaging"
)

// DefaultEmojiURL is the twemoji 72x72 asset set. {code} is replaced by the
// emoji's codepoint identifier.
const DefaultEmojiURL = "https://cdn.jsdelivr.net/gh/twitter/twemoji@14.0.2/assets/72x72/{code}.png"

// ErrEmojiNotFound means no source has artwork for the requested code.
var ErrEmojiNotFound = errors.New("emoji artwork not found")

// EmojiSource returns the artwork for an emoji codepoint identifier.
type EmojiSource interface {
	Emoji(ctx context.Context, code string) (image.Image, error)
}

// DirSource reads <Dir>/<code>.png.
type DirSource struct {
	Dir string
}

// Emoji implements EmojiSource.
func (d DirSource) Emoji(_ context.Context, code string) (image.Image, error) {
	if !validCode(code) {
		return nil, fmt.Errorf("%w: %q", ErrEmojiNotFound, code)
	}
	img, err := imaging.Open(filepath.Join(d.Dir, code+".png"))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrEmojiNotFound, code)
	}
	if err != nil {
		return nil, fmt.Errorf("open emoji %s: %w", code, err)
	}
	return img, nil
}

// HTTPSource downloads artwork and caches it in memory.
type HTTPSource struct {
	URLTemplate string
	Client      *http.Client

	mu    sync.Mutex
	cache map[string]image.Image
}

// NewHTTPSource returns a source for urlTemplate, DefaultEmojiURL when empty.
func NewHTTPSource(urlTemplate string, client *http.Client) *HTTPSource {
	if urlTemplate == "" {
		urlTemplate = DefaultEmojiURL
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPSource{URLTemplate: urlTemplate, Client: client, cache: make(map[string]image.Image)}
}

// Emoji implements EmojiSource.
func (h *HTTPSource) Emoji(ctx context.Context, code string) (image.Image, error) {
	if !validCode(code) {
		return nil, fmt.Errorf("%w: %q", ErrEmojiNotFound, code)
	}
	h.mu.Lock()
	img, ok := h.cache[code]
	h.mu.Unlock()
	if ok {
		return img, nil
	}

	url := strings.ReplaceAll(h.URLTemplate, "{code}", code)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("emoji request: %w", err)
	}
	resp, err := h.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch emoji %s: %w", code, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrEmojiNotFound, code)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch emoji %s: %s", code, resp.Status)
	}
	img, err = imaging.Decode(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("decode emoji %s: %w", code, err)
	}

	h.mu.Lock()
	h.cache[code] = img
	h.mu.Unlock()
	return img, nil
}

// ChainSource tries each source in turn.
type ChainSource []EmojiSource

// Emoji implements EmojiSource. The last error is returned when every
// source fails.
func (c ChainSource) Emoji(ctx context.Context, code string) (image.Image, error) {
	err := fmt.Errorf("%w: %s", ErrEmojiNotFound, code)
	for _, s := range c {
		img, e := s.Emoji(ctx, code)
		if e == nil {
			return img, nil
		}
		err = e
	}
	return nil, err
}

// validCode accepts lower-case hex groups joined by '-'. It keeps codes from
// escaping the emoji directory or the URL path.
func validCode(code string) bool {
	if code == "" {
		return false
	}
	for _, r := range code {
		if !(r >= '0' && r <= '9' || r >= 'a' && r <= 'f' || r == '-') {
			return false
		}
	}
	return true
}

// Alpha thresholds for cleaning up emoji artwork.
const (
	backgroundAlphaThreshold  = 32
	transparentAlphaThreshold = 128
)

// prepareEmoji turns artwork into a size x size sprite with hard alpha
// edges: near-transparent pixels become transparent and the rest opaque,
// before and after resampling.
func prepareEmoji(src image.Image, size int) *image.NRGBA {
	img := imaging.Clone(src)
	harden(img, backgroundAlphaThreshold)
	img = imaging.Resize(img, size, size, imaging.Lanczos)
	harden(img, transparentAlphaThreshold)
	return img
}

func harden(img *image.NRGBA, threshold uint8) {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := img.NRGBAAt(x, y)
			if c.A < threshold {
				img.SetNRGBA(x, y, color.NRGBA{})
			} else {
				c.A = 255
				img.SetNRGBA(x, y, c)
			}
		}
	}
}
