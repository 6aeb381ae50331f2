package fontsrc

import (
	"bytes"
	"errors"
	"fmt"
	"math"

	"github.com/go-text/typesetting/font"
)

var errZeroUPEM = errors.New("units per em is zero")

// gotextParser implements Parser using github.com/go-text/typesetting.
type gotextParser struct{}

// Parse implements Parser.Parse.
func (gotextParser) Parse(data []byte) (Font, error) {
	face, err := font.ParseTTF(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("fontsrc: failed to parse font: %w", err)
	}
	if face.Upem() == 0 {
		return nil, fmt.Errorf("fontsrc: %w", errZeroUPEM)
	}

	g := &gotextFont{font: face.Font}
	ext, ok := face.FontHExtents()
	if !ok {
		return nil, errors.New("fontsrc: font has no horizontal extents")
	}
	g.ascent = clampInt16(int(math.Round(float64(ext.Ascender))))
	g.descent = clampInt16(-int(math.Round(float64(ext.Descender))))
	return g, nil
}

// gotextFont implements Font using font.Font. font.Face is not safe for
// concurrent use, so a face is created for each advance lookup.
type gotextFont struct {
	font    *font.Font
	ascent  int16
	descent int16
}

// UnitsPerEm implements Font.UnitsPerEm.
func (f *gotextFont) UnitsPerEm() uint16 { return f.font.Upem() }

// Ascent implements Font.Ascent.
func (f *gotextFont) Ascent() int16 { return f.ascent }

// Descent implements Font.Descent.
func (f *gotextFont) Descent() int16 { return f.descent }

// AdvanceWidth implements Font.AdvanceWidth.
func (f *gotextFont) AdvanceWidth(gid uint16) (uint16, error) {
	adv := font.NewFace(f.font).HorizontalAdvance(font.GID(gid))
	if adv < 0 || adv > math.MaxUint16 {
		return 0, fmt.Errorf("fontsrc: glyph %d: advance %v out of range", gid, adv)
	}
	return uint16(math.Round(float64(adv))), nil
}

// GlyphIndex implements Font.GlyphIndex.
func (f *gotextFont) GlyphIndex(r rune) (uint16, bool) {
	gid, ok := f.font.NominalGlyph(r)
	if !ok || gid == 0 || gid > math.MaxUint16 {
		return 0, false
	}
	return uint16(gid), true
}
