package cbdt

import (
	"fmt"
	"math"
)

// GlyphID is a glyph index within a font.
type GlyphID uint16

// FontMetrics holds the font-wide vertical metrics needed by the codec.
type FontMetrics struct {
	UnitsPerEm uint16
	Ascent     int16
	Descent    int16 // distance below the baseline, positive
}

// StrikeMetrics describes one bitmap strike.
type StrikeMetrics struct {
	WidthPx  uint8 // mean image width
	HeightPx uint8 // mean image height
	Advance  int   // mean advance width in font units
	XPpem    uint8
	YPpem    uint8
}

// GlyphSample is the per-glyph input to DeriveStrikeMetrics.
type GlyphSample struct {
	Advance int // font units
	Width   int // pixels
	Height  int // pixels
}

// DeriveStrikeMetrics computes the strike size from the mean advance, width
// and height of the glyphs being embedded.
//
// The means are rounded to the nearest integer, halves away from zero.
// The pixels-per-em value is rejected, not saturated, if it does not fit
// into a byte.
func DeriveStrikeMetrics(fm FontMetrics, samples []GlyphSample) (StrikeMetrics, error) {
	return deriveStrikeMetrics(fm, samples, 0)
}

// deriveStrikeMetrics is DeriveStrikeMetrics with an optional fixed ppem.
func deriveStrikeMetrics(fm FontMetrics, samples []GlyphSample, fixedPPEM uint8) (StrikeMetrics, error) {
	if len(samples) == 0 {
		return StrikeMetrics{}, ErrEmptyGlyphSet
	}
	if fm.UnitsPerEm == 0 {
		return StrikeMetrics{}, ErrZeroUnitsPerEm
	}

	var sumAdvance, sumWidth, sumHeight int
	for _, s := range samples {
		sumAdvance += s.Advance
		sumWidth += s.Width
		sumHeight += s.Height
	}
	n := float64(len(samples))
	advance := int(math.Round(float64(sumAdvance) / n))
	width := int(math.Round(float64(sumWidth) / n))
	height := int(math.Round(float64(sumHeight) / n))

	if width > math.MaxUint8 || height > math.MaxUint8 || width < 0 || height < 0 {
		return StrikeMetrics{}, fmt.Errorf("mean size %dx%d: %w", width, height, ErrImageTooLarge)
	}
	sm := StrikeMetrics{
		WidthPx:  uint8(width),
		HeightPx: uint8(height),
		Advance:  advance,
		XPpem:    fixedPPEM,
		YPpem:    fixedPPEM,
	}
	if fixedPPEM != 0 {
		return sm, nil
	}

	if advance == 0 {
		return StrikeMetrics{}, ErrDegenerateAdvance
	}
	ppem := math.Round(float64(width) * float64(fm.UnitsPerEm) / float64(advance))
	if ppem < 1 || ppem > math.MaxUint8 {
		return StrikeMetrics{}, fmt.Errorf("derived ppem %.0f: %w", ppem, ErrPPEMOutOfRange)
	}
	sm.XPpem = uint8(ppem)
	sm.YPpem = uint8(ppem)
	return sm, nil
}

// lineBox returns the nominal ascent and line height of the font at the
// strike's vertical pixel size.
func lineBox(fm FontMetrics, sm StrikeMetrics) (ascent, height float64) {
	scale := float64(sm.YPpem) / float64(fm.UnitsPerEm)
	ascent = float64(fm.Ascent) * scale
	height = float64(int(fm.Ascent)+int(fm.Descent)) * scale
	return ascent, height
}

// BearingY returns the vertical bearing which centers an image of the given
// height in the font's line box.
func BearingY(fm FontMetrics, sm StrikeMetrics, height int) int {
	ascent, lineHeight := lineBox(fm, sm)
	return int(math.Round(ascent - 0.5*(lineHeight-float64(height))))
}
