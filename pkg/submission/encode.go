// encode.go - Write a Submission as a multipart/form-data body.
package submission

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"strconv"
)

// Write adds every populated field of s to mw. It does not close mw.
func (s *Submission) Write(mw *multipart.Writer) error {
	fields := make([][2]string, 0, 16)
	add := func(k, v string) { fields = append(fields, [2]string{k, v}) }

	if t := s.Text; t != nil && t.Content != "" {
		add(FieldText, t.Content)
		add(FieldTextX, strconv.Itoa(t.X))
		add(FieldTextY, strconv.Itoa(t.Y))
		add(FieldFontSize, strconv.Itoa(t.FontSize))
		add(FieldTextColor, t.Color)
		add(FieldTextRotation, formatFloat(t.Rotation))
	}
	if e := s.Emoji; e != nil && (e.Char != "" || e.Code != "") {
		add(FieldEmoji, e.Char)
		add(FieldEmojiCode, e.Code)
		add(FieldEmojiX, strconv.Itoa(e.X))
		add(FieldEmojiY, strconv.Itoa(e.Y))
		add(FieldEmojiSize, strconv.Itoa(e.Size))
		add(FieldEmojiRotation, formatFloat(e.Rotation))
		add(FieldEmojiFlipHorizontal, strconv.FormatBool(e.FlipHorizontal))
	}
	if len(s.Overlays) > 0 {
		data, err := json.Marshal(s.Overlays)
		if err != nil {
			return fmt.Errorf("encode overlays: %w", err)
		}
		add(FieldOverlays, string(data))
	}
	order := s.LayerOrder
	if len(order) == 0 {
		order = DefaultLayerOrder
	}
	data, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("encode layer order: %w", err)
	}
	add(FieldLayerOrder, string(data))

	for _, f := range fields {
		if err := mw.WriteField(f[0], f[1]); err != nil {
			return fmt.Errorf("write field %s: %w", f[0], err)
		}
	}

	if len(s.BaseImage) > 0 {
		name := s.BaseImageName
		if name == "" {
			name = "base.png"
		}
		if err := writeFile(mw, FieldBaseImage, name, s.BaseImage); err != nil {
			return err
		}
	}
	if len(s.Drawing) > 0 {
		if err := writeFile(mw, FieldDrawing, DrawingFilename, s.Drawing); err != nil {
			return err
		}
	}
	return nil
}

// Encode returns s as a complete multipart body and its Content-Type.
func (s *Submission) Encode() ([]byte, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := s.Write(mw); err != nil {
		return nil, "", err
	}
	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart: %w", err)
	}
	return buf.Bytes(), mw.FormDataContentType(), nil
}

func writeFile(mw *multipart.Writer, field, name string, data []byte) error {
	fw, err := mw.CreateFormFile(field, name)
	if err != nil {
		return fmt.Errorf("create %s part: %w", field, err)
	}
	if _, err := fw.Write(data); err != nil {
		return fmt.Errorf("write %s part: %w", field, err)
	}
	return nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
