package cbdt

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
)

// solidPNG returns a PNG image of the given size filled with one color.
func solidPNG(t *testing.T, w, h int) *PNGImage {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 0xE0, G: 0x40, B: 0x10, A: 0xFF})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return &PNGImage{Data: buf.Bytes(), Width: w, Height: h}
}

// solidRaw returns a raw image of the given size filled with argb.
func solidRaw(w, h int, argb uint32) *RawImage {
	p := NewPixmap(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			p.SetARGB(x, y, argb)
		}
	}
	return &RawImage{Pixmap: p}
}

// testFontMetrics are the vertical metrics of a typical 1000 unit font.
var testFontMetrics = FontMetrics{UnitsPerEm: 1000, Ascent: 800, Descent: 200}
