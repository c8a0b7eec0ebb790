// assets.go - Decode the raster parts of a Submission.
package submission

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// Assets is a Submission with its images decoded.
type Assets struct {
	*Submission

	// Base is nil when the request carried no base image.
	Base    image.Image
	Drawing image.Image
	// OverlayImages is parallel to Overlays; undecodable entries are nil.
	OverlayImages []image.Image
}

// Decode decodes the base image, drawing and overlay bitmaps. A broken base
// image is an error; a broken drawing or overlay is skipped with a warning.
func (s *Submission) Decode() (*Assets, []string, error) {
	a := &Assets{Submission: s}
	var warnings []string

	if len(s.BaseImage) > 0 {
		img, _, err := image.Decode(bytes.NewReader(s.BaseImage))
		if err != nil {
			return nil, warnings, fmt.Errorf("decode base image %q: %w", s.BaseImageName, err)
		}
		a.Base = img
	}

	if len(s.Drawing) > 0 {
		img, _, err := image.Decode(bytes.NewReader(s.Drawing))
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("drawing ignored: %v", err))
		} else {
			a.Drawing = img
		}
	}

	a.OverlayImages = make([]image.Image, len(s.Overlays))
	for i, o := range s.Overlays {
		img, err := DecodeImageDataURL(o.Data)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("overlay %d ignored: %v", i, err))
			continue
		}
		a.OverlayImages[i] = img
	}
	return a, warnings, nil
}

// DecodeImageDataURL decodes a data URL holding any registered image format.
func DecodeImageDataURL(s string) (image.Image, error) {
	data, _, err := DecodeDataURL(s)
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}
