package fontsrc

import (
	"fmt"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

// ximageParser implements Parser using golang.org/x/image/font/opentype.
type ximageParser struct{}

// Parse implements Parser.Parse.
func (ximageParser) Parse(data []byte) (Font, error) {
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("fontsrc: failed to parse font: %w", err)
	}

	x := &ximageFont{font: f, upem: uint16(f.UnitsPerEm())}
	if x.upem == 0 {
		return nil, fmt.Errorf("fontsrc: %w", errZeroUPEM)
	}

	// At a size of upem/64 pixels per em, 26.6 fixed-point values are
	// plain font units.
	var buf sfnt.Buffer
	m, err := f.Metrics(&buf, x.unitScale(), font.HintingNone)
	if err != nil {
		return nil, fmt.Errorf("fontsrc: failed to read metrics: %w", err)
	}
	x.ascent = clampInt16(int(m.Ascent))
	x.descent = clampInt16(int(m.Descent))
	return x, nil
}

// ximageFont implements Font using sfnt.Font. A fresh sfnt.Buffer is used
// for every call, so the font may be shared between goroutines.
type ximageFont struct {
	font    *opentype.Font
	upem    uint16
	ascent  int16
	descent int16
}

func (f *ximageFont) unitScale() fixed.Int26_6 {
	return fixed.Int26_6(f.upem)
}

// UnitsPerEm implements Font.UnitsPerEm.
func (f *ximageFont) UnitsPerEm() uint16 { return f.upem }

// Ascent implements Font.Ascent.
func (f *ximageFont) Ascent() int16 { return f.ascent }

// Descent implements Font.Descent.
func (f *ximageFont) Descent() int16 { return f.descent }

// AdvanceWidth implements Font.AdvanceWidth.
func (f *ximageFont) AdvanceWidth(gid uint16) (uint16, error) {
	var buf sfnt.Buffer
	adv, err := f.font.GlyphAdvance(&buf, sfnt.GlyphIndex(gid), f.unitScale(), font.HintingNone)
	if err != nil {
		return 0, fmt.Errorf("fontsrc: glyph %d: %w", gid, err)
	}
	if adv < 0 || adv > math.MaxUint16 {
		return 0, fmt.Errorf("fontsrc: glyph %d: advance %d out of range", gid, adv)
	}
	return uint16(adv), nil
}

// GlyphIndex implements Font.GlyphIndex.
func (f *ximageFont) GlyphIndex(r rune) (uint16, bool) {
	var buf sfnt.Buffer
	idx, err := f.font.GlyphIndex(&buf, r)
	if err != nil || idx == 0 {
		return 0, false
	}
	return uint16(idx), true
}

func clampInt16(v int) int16 {
	return int16(max(math.MinInt16, min(math.MaxInt16, v)))
}
