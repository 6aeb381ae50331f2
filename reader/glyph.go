package reader

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"image/png"
)

// unknownStr is the string returned for unknown enum values.
const unknownStr = "Unknown"

// BitmapFormat indicates how BitmapGlyph.Data is encoded.
type BitmapFormat int

const (
	// FormatPNG is a PNG stream.
	FormatPNG BitmapFormat = iota

	// FormatRaw is a byte-aligned bitmap with the strike's bit depth.
	FormatRaw
)

var bitmapFormatNames = [...]string{
	FormatPNG: "PNG",
	FormatRaw: "Raw",
}

// String returns the string name of the bitmap format.
func (f BitmapFormat) String() string {
	if f >= 0 && int(f) < len(bitmapFormatNames) {
		return bitmapFormatNames[f]
	}
	return unknownStr
}

// BitmapGlyph is one glyph image as stored in the image-data table.
type BitmapGlyph struct {
	GlyphID uint16

	// Format indicates how Data is encoded.
	Format BitmapFormat

	// ImageFormat is the format tag of the index sub-table (1, 17, 18, 19).
	ImageFormat uint16

	Width    int
	Height   int
	BearingX int8
	BearingY int8
	Advance  uint8

	// Data is the image without metrics and length fields. It aliases
	// the image-data table.
	Data []byte

	PPEM     uint16
	BitDepth uint8
}

// Decode decodes the bitmap data to an image.Image.
// Raw bitmaps are supported at a bit depth of 32 only.
func (b *BitmapGlyph) Decode() (image.Image, error) {
	switch b.Format {
	case FormatPNG:
		return png.Decode(bytes.NewReader(b.Data))
	case FormatRaw:
		return b.decodeRaw()
	default:
		return nil, ErrUnsupportedImageFormat
	}
}

// decodeRaw converts little-endian premultiplied ARGB words into an RGBA
// image. image.RGBA is premultiplied too, so only the bytes are reordered.
func (b *BitmapGlyph) decodeRaw() (image.Image, error) {
	if b.BitDepth != 32 {
		return nil, fmt.Errorf("%w: raw bitmap with bit depth %d", ErrUnsupportedImageFormat, b.BitDepth)
	}
	if len(b.Data) < b.Width*b.Height*4 {
		return nil, ErrInvalidImageData
	}

	img := image.NewRGBA(image.Rect(0, 0, b.Width, b.Height))
	for y := 0; y < b.Height; y++ {
		src := b.Data[y*b.Width*4 : (y+1)*b.Width*4]
		dst := img.Pix[y*img.Stride : y*img.Stride+b.Width*4]
		for x := 0; x < len(src); x += 4 {
			// bytes in memory: B, G, R, A
			dst[x+0] = src[x+2]
			dst[x+1] = src[x+1]
			dst[x+2] = src[x+0]
			dst[x+3] = src[x+3]
		}
	}
	return img, nil
}

// StrikeStrategy determines how SelectStrike picks a strike.
type StrikeStrategy int

const (
	// StrikeBestFit selects the smallest strike >= requested size, or largest if none.
	StrikeBestFit StrikeStrategy = iota

	// StrikeExact selects only an exact match.
	StrikeExact

	// StrikeLargest always selects the largest available strike.
	StrikeLargest
)

// String returns the string representation of the strike strategy.
func (s StrikeStrategy) String() string {
	switch s {
	case StrikeBestFit:
		return "BestFit"
	case StrikeExact:
		return "Exact"
	case StrikeLargest:
		return "Largest"
	default:
		return unknownStr
	}
}

// SelectStrike returns the index of the strike matching ppem under the
// given strategy, or -1 if there is none.
func (r *Reader) SelectStrike(ppem uint16, strategy StrikeStrategy) int {
	if len(r.strikes) == 0 {
		return -1
	}

	largest := 0
	for i := range r.strikes {
		if r.strikes[i].PPEMY > r.strikes[largest].PPEMY {
			largest = i
		}
	}

	switch strategy {
	case StrikeExact:
		for i := range r.strikes {
			if uint16(r.strikes[i].PPEMY) == ppem {
				return i
			}
		}
		return -1

	case StrikeLargest:
		return largest

	default:
		best := -1
		for i := range r.strikes {
			p := uint16(r.strikes[i].PPEMY)
			if p >= ppem && (best < 0 || p < uint16(r.strikes[best].PPEMY)) {
				best = i
			}
		}
		if best >= 0 {
			return best
		}
		return largest
	}
}

// AvailablePPEMs returns the vertical ppem of every strike.
func (r *Reader) AvailablePPEMs() []uint16 {
	ppems := make([]uint16, len(r.strikes))
	for i := range r.strikes {
		ppems[i] = uint16(r.strikes[i].PPEMY)
	}
	return ppems
}

// HasGlyph reports whether strike i holds a bitmap for gid.
func (r *Reader) HasGlyph(gid uint16, strike int) bool {
	_, err := r.findRun(gid, strike)
	return err == nil
}

func (r *Reader) findRun(gid uint16, strike int) (*Run, error) {
	runs, err := r.Runs(strike)
	if err != nil {
		return nil, err
	}
	s := &r.strikes[strike]
	if gid < s.StartGlyph || gid > s.EndGlyph {
		return nil, ErrGlyphNotInStrike
	}
	for i := range runs {
		if gid >= runs[i].First && gid <= runs[i].Last {
			return &runs[i], nil
		}
	}
	return nil, ErrGlyphNotInStrike
}

// Glyph returns the bitmap of gid in strike i.
func (r *Reader) Glyph(gid uint16, strike int) (*BitmapGlyph, error) {
	run, err := r.findRun(gid, strike)
	if err != nil {
		return nil, err
	}
	offset, size, err := run.locate(gid)
	if err != nil {
		return nil, err
	}
	if size == 0 {
		return nil, ErrGlyphNotInStrike
	}
	if uint64(offset)+uint64(size) > uint64(len(r.imageData)) {
		return nil, ErrInvalidImageData
	}

	s := &r.strikes[strike]
	g := &BitmapGlyph{
		GlyphID:     gid,
		ImageFormat: run.ImageFormat,
		PPEM:        uint16(s.PPEMY),
		BitDepth:    s.BitDepth,
	}
	data := r.imageData[offset : offset+size]

	switch run.ImageFormat {
	case imageFormat1:
		if len(data) < smallMetricsSize {
			return nil, ErrInvalidImageData
		}
		g.setSmallMetrics(data)
		rowBytes := (g.Width*int(s.BitDepth) + 7) / 8
		n := smallMetricsSize + rowBytes*g.Height
		if n > len(data) {
			return nil, ErrInvalidImageData
		}
		g.Data = data[smallMetricsSize:n]
		g.Format = FormatRaw

	case imageFormat17:
		if len(data) < smallMetricsSize+4 {
			return nil, ErrInvalidImageData
		}
		g.setSmallMetrics(data)
		if err := g.setPNG(data[smallMetricsSize:]); err != nil {
			return nil, err
		}

	case imageFormat18:
		if len(data) < bigMetricsSize+4 {
			return nil, ErrInvalidImageData
		}
		g.setBigMetrics(parseBigMetrics(data))
		if err := g.setPNG(data[bigMetricsSize:]); err != nil {
			return nil, err
		}

	case imageFormat19:
		if run.metrics != nil {
			g.setBigMetrics(run.metrics)
		}
		if err := g.setPNG(data); err != nil {
			return nil, err
		}

	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedImageFormat, run.ImageFormat)
	}

	return g, nil
}

func (g *BitmapGlyph) setSmallMetrics(b []byte) {
	g.Height = int(b[0])
	g.Width = int(b[1])
	g.BearingX = int8(b[2])
	g.BearingY = int8(b[3])
	g.Advance = b[4]
}

func (g *BitmapGlyph) setBigMetrics(m *bigMetrics) {
	g.Height = int(m.height)
	g.Width = int(m.width)
	g.BearingX = m.horiBearingX
	g.BearingY = m.horiBearingY
	g.Advance = m.horiAdvance
}

// setPNG reads a length-prefixed PNG stream.
func (g *BitmapGlyph) setPNG(b []byte) error {
	if len(b) < 4 {
		return ErrInvalidImageData
	}
	n := binary.BigEndian.Uint32(b)
	if uint64(n) > uint64(len(b)-4) {
		return ErrInvalidImageData
	}
	g.Data = b[4 : 4+n]
	g.Format = FormatPNG
	return nil
}
