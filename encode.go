package cbdt

import (
	"encoding/binary"
	"fmt"
	"math"
)

// ImageFormat is the image-format tag stored in the index sub-tables.
type ImageFormat uint16

const (
	// FormatNone marks the end-of-data sentinel of a GlyphMap.
	FormatNone ImageFormat = 0

	// FormatRaw is image format 1: small metrics followed by raw pixels.
	FormatRaw ImageFormat = 1

	// FormatPNG is image format 17: small metrics followed by a
	// length-prefixed PNG stream.
	FormatPNG ImageFormat = 17
)

// String returns the string name of the image format.
func (f ImageFormat) String() string {
	switch f {
	case FormatNone:
		return "none"
	case FormatRaw:
		return "raw"
	case FormatPNG:
		return "png"
	default:
		return fmt.Sprintf("format%d", uint16(f))
	}
}

// smallMetricsSize is the encoded size of the small glyph metrics header.
const smallMetricsSize = 5

// GlyphImage is the source image of one glyph.
//
// The set of implementations is closed: *RawImage and *PNGImage.
type GlyphImage interface {
	// Format returns the image-format tag used to store the image.
	Format() ImageFormat

	// Size returns the image dimensions in pixels.
	Size() (width, height int)

	payload() ([]byte, error)
}

// RawImage is stored as image format 1.
type RawImage struct {
	Pixmap *Pixmap
}

// Format implements GlyphImage.
func (*RawImage) Format() ImageFormat { return FormatRaw }

// Size implements GlyphImage.
func (r *RawImage) Size() (width, height int) {
	if r.Pixmap == nil {
		return 0, 0
	}
	return r.Pixmap.Width, r.Pixmap.Height
}

func (r *RawImage) payload() ([]byte, error) {
	if r.Pixmap == nil {
		return nil, ErrMalformedPixmap
	}
	return r.Pixmap.packLE()
}

// PNGImage is stored as image format 17. Data is embedded unchanged; any
// chunk filtering happens before the image reaches the codec.
type PNGImage struct {
	Data   []byte
	Width  int
	Height int
}

// Format implements GlyphImage.
func (*PNGImage) Format() ImageFormat { return FormatPNG }

// Size implements GlyphImage.
func (p *PNGImage) Size() (width, height int) {
	return p.Width, p.Height
}

func (p *PNGImage) payload() ([]byte, error) {
	if uint64(len(p.Data)) > math.MaxUint32 {
		return nil, fmt.Errorf("%d byte PNG stream: %w", len(p.Data), ErrImageTooLarge)
	}
	out := make([]byte, 4+len(p.Data))
	binary.BigEndian.PutUint32(out, uint32(len(p.Data)))
	copy(out[4:], p.Data)
	return out, nil
}

// EncodedGlyph is one glyph's contribution to the image-data table.
type EncodedGlyph struct {
	Header  []byte
	Payload []byte
	Format  ImageFormat
}

// Len returns the number of bytes the glyph occupies in the table.
func (g *EncodedGlyph) Len() int {
	return len(g.Header) + len(g.Payload)
}

// SmallGlyphMetrics is the per-glyph header shared by formats 1 and 17.
type SmallGlyphMetrics struct {
	Height   uint8
	Width    uint8
	BearingX int8
	BearingY int8
	Advance  uint8
}

// Encode returns the 5 byte wire representation.
func (m SmallGlyphMetrics) Encode() []byte {
	return []byte{m.Height, m.Width, byte(m.BearingX), byte(m.BearingY), m.Advance}
}

// GlyphMetrics computes the small glyph metrics for an image of the given
// size: zero horizontal bearing, advance equal to the width, and a vertical
// bearing that centers the image in the font's line box.
func GlyphMetrics(fm FontMetrics, sm StrikeMetrics, width, height int) (SmallGlyphMetrics, error) {
	if width < 0 || height < 0 || width > math.MaxUint8 || height > math.MaxUint8 {
		return SmallGlyphMetrics{}, fmt.Errorf("%dx%d: %w", width, height, ErrImageTooLarge)
	}
	if fm.UnitsPerEm == 0 {
		return SmallGlyphMetrics{}, ErrZeroUnitsPerEm
	}
	bearingY := BearingY(fm, sm, height)
	if bearingY < math.MinInt8 || bearingY > math.MaxInt8 {
		return SmallGlyphMetrics{}, fmt.Errorf("bearingY %d: %w", bearingY, ErrBearingOutOfRange)
	}
	return SmallGlyphMetrics{
		Height:   uint8(height),
		Width:    uint8(width),
		BearingX: 0,
		BearingY: int8(bearingY),
		Advance:  uint8(width),
	}, nil
}

// EncodeGlyph encodes one glyph image for the image-data table.
func EncodeGlyph(img GlyphImage, fm FontMetrics, sm StrikeMetrics) (*EncodedGlyph, error) {
	width, height := img.Size()
	m, err := GlyphMetrics(fm, sm, width, height)
	if err != nil {
		return nil, err
	}
	payload, err := img.payload()
	if err != nil {
		return nil, err
	}
	return &EncodedGlyph{
		Header:  m.Encode(),
		Payload: payload,
		Format:  img.Format(),
	}, nil
}
