// Package submission defines the render request sent from the editor to the
// rendering backend: layer parameters in natural-resolution pixels, the base
// image, the drawing raster and the overlay bitmaps.
package submission

// ── Request types ──

// Submission is one render request.
type Submission struct {
	Text       *Text     `json:"text,omitempty"`
	Emoji      *Emoji    `json:"emoji,omitempty"`
	Overlays   []Overlay `json:"overlays,omitempty"`
	LayerOrder []string  `json:"layer_order,omitempty"`

	// BaseImage holds the encoded base image. Empty means the backend's default.
	BaseImage     []byte `json:"-"`
	BaseImageName string `json:"-"`

	// Drawing holds the PNG-encoded freehand drawing, sized to the display
	// surface. The backend stretches it over the base image.
	Drawing []byte `json:"-"`
}

// Text is the text layer. X and Y are the center.
type Text struct {
	Content  string  `json:"content"`
	X        int     `json:"x"`
	Y        int     `json:"y"`
	FontSize int     `json:"font_size"`
	Color    string  `json:"color"`
	Rotation float64 `json:"rotation"`
}

// Emoji is the emoji layer. Code is the codepoint identifier used to look up
// the emoji artwork; Char is kept for glyph rendering fallback.
type Emoji struct {
	Char           string  `json:"char"`
	Code           string  `json:"code"`
	X              int     `json:"x"`
	Y              int     `json:"y"`
	Size           int     `json:"size"`
	Rotation       float64 `json:"rotation"`
	FlipHorizontal bool    `json:"flip_horizontal"`
}

// Overlay is one overlay image. Data is a base64 data URL.
type Overlay struct {
	Data             string  `json:"data"`
	X                int     `json:"x"`
	Y                int     `json:"y"`
	Width            int     `json:"width"`
	Height           int     `json:"height"`
	Opacity          float64 `json:"opacity"`
	Rotation         float64 `json:"rotation"`
	RemoveBackground bool    `json:"removeBackground"`
	FlipHorizontal   bool    `json:"flipHorizontal"`
}

// ── Response types ──

// Response is the backend's answer to a successful render.
type Response struct {
	Success     bool   `json:"success"`
	OutputPath  string `json:"output_path"`
	DownloadURL string `json:"download_url"`
}

// ErrorResponse is the body of a failed request.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// DefaultLayerOrder is used when a request carries no layer order.
var DefaultLayerOrder = []string{"text", "emoji", "overlay"}

// Multipart field names.
const (
	FieldText                = "text"
	FieldTextX               = "text_x"
	FieldTextY               = "text_y"
	FieldFontSize            = "font_size"
	FieldTextColor           = "text_color"
	FieldTextRotation        = "text_rotation"
	FieldEmoji               = "emoji"
	FieldEmojiCode           = "emoji_code"
	FieldEmojiX              = "emoji_x"
	FieldEmojiY              = "emoji_y"
	FieldEmojiSize           = "emoji_size"
	FieldEmojiRotation       = "emoji_rotation"
	FieldEmojiFlipHorizontal = "emoji_flip_horizontal"
	FieldBaseImage           = "base_image"
	FieldDrawing             = "drawing_data"
	FieldOverlays            = "overlay_images"
	FieldLayerOrder          = "layer_order"

	DrawingFilename = "drawing.png"
)
