package cbdt

import (
	"encoding/binary"
	"fmt"
)

// PixelFormat describes the layout of one pixel in a Pixmap.
type PixelFormat int

const (
	// PixelARGB32 stores each pixel as a 32-bit word holding premultiplied
	// alpha, red, green and blue, from the most to the least significant
	// byte. The byte order of the word is given by Pixmap.ByteOrder.
	PixelARGB32 PixelFormat = iota

	// PixelRGB24 stores three bytes per pixel without alpha.
	PixelRGB24

	// PixelA8 stores one alpha byte per pixel.
	PixelA8
)

// pixelFormatNames maps PixelFormat to string names.
var pixelFormatNames = [...]string{
	PixelARGB32: "ARGB32",
	PixelRGB24:  "RGB24",
	PixelA8:     "A8",
}

// String returns the string name of the pixel format.
func (f PixelFormat) String() string {
	if f >= 0 && int(f) < len(pixelFormatNames) {
		return pixelFormatNames[f]
	}
	return unknownStr
}

// Pixmap is a decoded raster image as produced by an image decoder.
type Pixmap struct {
	Width  int
	Height int
	Stride int // bytes from the start of one row to the next
	Format PixelFormat

	// ByteOrder is the order of the bytes within each 32-bit pixel word.
	// A nil ByteOrder means binary.NativeEndian.
	ByteOrder binary.ByteOrder

	Pix []byte
}

// NewPixmap allocates a packed little-endian ARGB32 pixmap.
func NewPixmap(width, height int) *Pixmap {
	return &Pixmap{
		Width:     width,
		Height:    height,
		Stride:    width * 4,
		Format:    PixelARGB32,
		ByteOrder: binary.LittleEndian,
		Pix:       make([]byte, width*height*4),
	}
}

// ARGB returns the pixel at (x, y) as a 32-bit premultiplied ARGB word.
// The pixmap must use PixelARGB32.
func (p *Pixmap) ARGB(x, y int) uint32 {
	i := y*p.Stride + x*4
	return p.byteOrder().Uint32(p.Pix[i : i+4])
}

// SetARGB stores a premultiplied ARGB word at (x, y).
// The pixmap must use PixelARGB32.
func (p *Pixmap) SetARGB(x, y int, v uint32) {
	i := y*p.Stride + x*4
	p.byteOrder().PutUint32(p.Pix[i:i+4], v)
}

func (p *Pixmap) byteOrder() binary.ByteOrder {
	if p.ByteOrder == nil {
		return binary.NativeEndian
	}
	return p.ByteOrder
}

// check verifies that the pixel buffer covers the declared geometry.
func (p *Pixmap) check() error {
	if p.Format != PixelARGB32 {
		return fmt.Errorf("%s: %w", p.Format, ErrUnsupportedPixelFormat)
	}
	if p.Width < 0 || p.Height < 0 || p.Stride < p.Width*4 {
		return fmt.Errorf("%dx%d with stride %d: %w", p.Width, p.Height, p.Stride, ErrMalformedPixmap)
	}
	if p.Height > 0 && len(p.Pix) < (p.Height-1)*p.Stride+p.Width*4 {
		return fmt.Errorf("%d bytes for %dx%d: %w", len(p.Pix), p.Width, p.Height, ErrMalformedPixmap)
	}
	return nil
}

// packLE returns the pixels as packed rows of little-endian ARGB words.
func (p *Pixmap) packLE() ([]byte, error) {
	if err := p.check(); err != nil {
		return nil, err
	}

	rowLen := p.Width * 4
	out := make([]byte, rowLen*p.Height)
	if p.ByteOrder == binary.LittleEndian {
		if p.Stride == rowLen {
			copy(out, p.Pix[:len(out)])
			return out, nil
		}
		for y := 0; y < p.Height; y++ {
			copy(out[y*rowLen:(y+1)*rowLen], p.Pix[y*p.Stride:])
		}
		return out, nil
	}

	order := p.byteOrder()
	for y := 0; y < p.Height; y++ {
		src := p.Pix[y*p.Stride : y*p.Stride+rowLen]
		dst := out[y*rowLen : (y+1)*rowLen]
		for x := 0; x < rowLen; x += 4 {
			binary.LittleEndian.PutUint32(dst[x:x+4], order.Uint32(src[x:x+4]))
		}
	}
	return out, nil
}
