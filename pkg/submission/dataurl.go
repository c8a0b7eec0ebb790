// dataurl.go - base64 data URLs for overlay bitmaps.
package submission

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// EncodeDataURL returns data as a base64 data URL of the given MIME type.
func EncodeDataURL(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// DecodeDataURL returns the payload and MIME type of a base64 data URL. A
// bare base64 string without the data: prefix is accepted as well.
func DecodeDataURL(s string) ([]byte, string, error) {
	mime := ""
	payload := s
	if rest, ok := strings.CutPrefix(s, "data:"); ok {
		header, body, found := strings.Cut(rest, ",")
		if !found {
			return nil, "", fmt.Errorf("data url: missing comma")
		}
		params := strings.Split(header, ";")
		mime = params[0]
		if params[len(params)-1] != "base64" {
			return nil, "", fmt.Errorf("data url: only base64 payloads are supported")
		}
		payload = body
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
	if err != nil {
		// Some encoders drop the padding.
		if data, err2 := base64.RawStdEncoding.DecodeString(strings.TrimRight(strings.TrimSpace(payload), "=")); err2 == nil {
			return data, mime, nil
		}
		return nil, "", fmt.Errorf("data url: %w", err)
	}
	return data, mime, nil
}
