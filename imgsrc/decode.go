package imgsrc

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"image/png"
	"os"

	"golang.org/x/image/draw"

	"github.com/gogpu/cbdt"
	"github.com/gogpu/cbdt/pngchunk"
)

// Decode reads a PNG file into a premultiplied ARGB32 pixmap. Pixel words
// are stored big-endian.
func Decode(path string) (*cbdt.Pixmap, error) {
	img, err := decodeFile(path)
	if err != nil {
		return nil, err
	}
	return toPixmap(img), nil
}

func decodeFile(path string) (image.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return img, nil
}

// toRGBA converts any image to premultiplied RGBA with its origin at 0,0.
func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return rgba
}

func toPixmap(img image.Image) *cbdt.Pixmap {
	rgba := toRGBA(img)
	w, h := rgba.Rect.Dx(), rgba.Rect.Dy()
	pm := &cbdt.Pixmap{
		Width:     w,
		Height:    h,
		Stride:    w * 4,
		Format:    cbdt.PixelARGB32,
		ByteOrder: binary.BigEndian,
		Pix:       make([]byte, w*h*4),
	}
	for y := 0; y < h; y++ {
		src := rgba.Pix[y*rgba.Stride : y*rgba.Stride+w*4]
		dst := pm.Pix[y*pm.Stride : (y+1)*pm.Stride]
		for x := 0; x < len(src); x += 4 {
			dst[x+0] = src[x+3] // A
			dst[x+1] = src[x+0] // R
			dst[x+2] = src[x+1] // G
			dst[x+3] = src[x+2] // B
		}
	}
	return pm
}

// ReadDimensions returns the size of a PNG file from its header.
func ReadDimensions(path string) (width, height int, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, 0, err
	}
	width, height, err = pngchunk.Dimensions(data)
	if err != nil {
		return 0, 0, fmt.Errorf("%s: %w", path, err)
	}
	return width, height, nil
}

// FilterChunks returns the PNG file with every ancillary chunk not in
// allowed removed.
func FilterChunks(path string, allowed []string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	out, err := pngchunk.Filter(data, allowed)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return out, nil
}

// Options controls Load.
type Options struct {
	// StripChunks removes ancillary PNG chunks not listed in Allowed.
	StripChunks bool

	// Allowed lists the ancillary chunks kept by StripChunks. Nil means
	// pngchunk.DefaultAllowed.
	Allowed []string

	// Height scales images to this many pixels tall, keeping the aspect
	// ratio. Zero keeps the original size.
	Height int
}

// Load reads the image at path as a glyph image in the given format.
func Load(path string, format cbdt.ImageFormat, opts Options) (cbdt.GlyphImage, error) {
	switch format {
	case cbdt.FormatRaw:
		img, err := decodeFile(path)
		if err != nil {
			return nil, err
		}
		if opts.Height > 0 {
			img = Resize(img, opts.Height)
		}
		return &cbdt.RawImage{Pixmap: toPixmap(img)}, nil

	case cbdt.FormatPNG:
		return loadPNG(path, opts)

	default:
		return nil, fmt.Errorf("imgsrc: image format %s cannot be loaded", format)
	}
}

func loadPNG(path string, opts Options) (cbdt.GlyphImage, error) {
	var data []byte
	if opts.Height > 0 {
		img, err := decodeFile(path)
		if err != nil {
			return nil, err
		}
		var buf bytes.Buffer
		enc := png.Encoder{CompressionLevel: png.BestCompression}
		if err := enc.Encode(&buf, Resize(img, opts.Height)); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		data = buf.Bytes()
	} else {
		var err error
		if data, err = os.ReadFile(path); err != nil {
			return nil, err
		}
	}

	if opts.StripChunks {
		allowed := opts.Allowed
		if allowed == nil {
			allowed = pngchunk.DefaultAllowed
		}
		filtered, err := pngchunk.Filter(data, allowed)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if n := len(data) - len(filtered); n > 0 {
			cbdt.Logger().Debug("png chunks stripped", "file", path, "bytes", n)
		}
		data = filtered
	}

	w, h, err := pngchunk.Dimensions(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &cbdt.PNGImage{Data: data, Width: w, Height: h}, nil
}

// Resize scales img to the given height with Catmull-Rom resampling,
// keeping the aspect ratio. The result is premultiplied RGBA.
func Resize(img image.Image, height int) *image.RGBA {
	b := img.Bounds()
	if b.Dy() == height {
		return toRGBA(img)
	}
	width := max(1, (b.Dx()*height+b.Dy()/2)/max(1, b.Dy()))
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}
