package encode

import (
	"bytes"
	"image"

	"github.com/gen2brain/webp"
)

// WebPEncoder encodes images as WebP using a pure-Go (WASM-based) encoder,
// or a system libwebp via purego when one is available. Quality 100 selects
// lossless mode, which keeps thin sketch lines sharp.
type WebPEncoder struct {
	Quality  int
	Lossless bool
}

func newWebPEncoder(quality int) *WebPEncoder {
	if quality <= 0 {
		quality = 85
	}
	return &WebPEncoder{Quality: quality, Lossless: quality >= 100}
}

func (e *WebPEncoder) Encode(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	opts := webp.Options{
		Lossless: e.Lossless,
		Quality:  e.Quality,
	}
	if err := webp.Encode(&buf, img, opts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (e *WebPEncoder) Format() string        { return "webp" }
func (e *WebPEncoder) ContentType() string   { return "image/webp" }
func (e *WebPEncoder) FileExtension() string { return ".webp" }
