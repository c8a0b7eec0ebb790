// submit.go - Build render requests from the session and send them.
package editor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"

	"github.com/xob0t/IconStencil/pkg/logging"
	"github.com/xob0t/IconStencil/pkg/submission"
)

// maxResponseBytes caps how much of a backend reply is read.
const maxResponseBytes = 1 << 20

// Submission converts the session into a render request. Positions and sizes
// are scaled from display space to base-image pixels and rounded. It returns
// submission.ErrEmpty when there is nothing to render.
func (s *Session) Submission() (*submission.Submission, error) {
	drawn := s.surface.HasDrawing()

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.scene.HasContent(drawn) {
		return nil, submission.ErrEmpty
	}
	k := s.imageScaleLocked()
	px := func(v float64) int { return int(math.Round(v * k)) }

	sub := &submission.Submission{
		LayerOrder:    s.scene.Order.Strings(),
		BaseImage:     s.baseData,
		BaseImageName: s.baseName,
	}

	if s.scene.HasText() {
		t := s.scene.Text
		sub.Text = &submission.Text{
			Content:  t.Content,
			X:        px(t.Position.X),
			Y:        px(t.Position.Y),
			FontSize: px(t.FontSize),
			Color:    t.Color,
			Rotation: t.Rotation,
		}
	}
	if s.scene.HasEmoji() {
		e := s.scene.Emoji
		sub.Emoji = &submission.Emoji{
			Char:           e.Char,
			Code:           e.Code(),
			X:              px(e.Position.X),
			Y:              px(e.Position.Y),
			Size:           px(e.Size),
			Rotation:       e.Rotation,
			FlipHorizontal: e.FlipHorizontal,
		}
	}
	for _, o := range s.scene.Overlays.All() {
		sub.Overlays = append(sub.Overlays, submission.Overlay{
			Data:             s.overlayData[o.ID],
			X:                px(o.Position.X),
			Y:                px(o.Position.Y),
			Width:            px(o.Width),
			Height:           px(o.Height),
			Opacity:          o.Opacity,
			Rotation:         o.Rotation,
			RemoveBackground: o.RemoveBackground,
			FlipHorizontal:   o.FlipHorizontal,
		})
	}

	if drawn {
		var buf bytes.Buffer
		if err := s.surface.EncodePNG(&buf); err != nil {
			return nil, fmt.Errorf("encode drawing: %w", err)
		}
		sub.Drawing = buf.Bytes()
	}
	return sub, nil
}

// Submit posts the session to the backend's generate endpoint.
func (s *Session) Submit(ctx context.Context, client *http.Client, url string) (*submission.Response, error) {
	sub, err := s.Submission()
	if err != nil {
		return nil, err
	}
	return Post(ctx, client, url, sub)
}

// Post sends sub as a multipart form to url and decodes the reply. A non-200
// reply is returned as an error carrying the backend's detail message.
func Post(ctx context.Context, client *http.Client, url string, sub *submission.Submission) (*submission.Response, error) {
	if client == nil {
		client = http.DefaultClient
	}
	body, contentType, err := sub.Encode()
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	logging.Logger().Debug("submitting render request", "url", url, "bytes", len(body))
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post %s: %w", url, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		var e submission.ErrorResponse
		if json.Unmarshal(data, &e) == nil && e.Detail != "" {
			return nil, fmt.Errorf("render failed (%s): %s", resp.Status, e.Detail)
		}
		return nil, fmt.Errorf("render failed: %s", resp.Status)
	}

	var out submission.Response
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &out, nil
}
