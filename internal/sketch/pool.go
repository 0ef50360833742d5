package sketch

import (
	"image"
	"sync"
)

// canvasPoolKey identifies a pool by image dimensions.
type canvasPoolKey struct {
	w, h int
}

// canvasPools maps (width, height) → *sync.Pool of *image.RGBA. A service
// renders at one or two sizes, so the map stays tiny.
var canvasPools sync.Map

// GetCanvas returns a zeroed *image.RGBA from the pool, or allocates a new one.
func GetCanvas(w, h int) *image.RGBA {
	key := canvasPoolKey{w, h}
	if p, ok := canvasPools.Load(key); ok {
		if v := p.(*sync.Pool).Get(); v != nil {
			img := v.(*image.RGBA)
			clear(img.Pix)
			return img
		}
	}
	return image.NewRGBA(image.Rect(0, 0, w, h))
}

// PutCanvas returns a rendered sketch to the pool once it has been encoded.
// Nil images are silently ignored.
func PutCanvas(img *image.RGBA) {
	if img == nil {
		return
	}
	key := canvasPoolKey{img.Rect.Dx(), img.Rect.Dy()}
	p, _ := canvasPools.LoadOrStore(key, &sync.Pool{})
	p.(*sync.Pool).Put(img)
}
