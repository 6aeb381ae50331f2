package cbdt

import (
	"errors"
	"fmt"
)

// Input errors. These are detected before or at the boundary of the codec.
var (
	// ErrNoImages is returned when no image files were found.
	ErrNoImages = errors.New("cbdt: no images found")

	// ErrNoCommonGlyphs is returned when none of the images maps to a glyph
	// in the font's character map.
	ErrNoCommonGlyphs = errors.New("cbdt: no common characters between font and images")

	// ErrEmptyGlyphSet is returned when the codec is invoked without glyphs.
	ErrEmptyGlyphSet = errors.New("cbdt: empty glyph set")

	// ErrDuplicateGlyph is returned when two images are given for one glyph.
	ErrDuplicateGlyph = errors.New("cbdt: duplicate glyph id")

	// ErrMissingImage is returned for a glyph without an image.
	ErrMissingImage = errors.New("cbdt: glyph has no image")
)

// Encoding errors.
var (
	// ErrUnsupportedPixelFormat indicates a pixmap that is not 4-channel
	// 8-bit-per-channel.
	ErrUnsupportedPixelFormat = errors.New("cbdt: unsupported pixel format")

	// ErrMalformedPixmap indicates a pixel buffer that is shorter than its
	// declared geometry.
	ErrMalformedPixmap = errors.New("cbdt: malformed pixmap")

	// ErrImageTooLarge indicates an image dimension that does not fit into
	// the single-byte glyph metrics.
	ErrImageTooLarge = errors.New("cbdt: image larger than 255 pixels")

	// ErrZeroUnitsPerEm indicates font metrics without a units-per-em value.
	ErrZeroUnitsPerEm = errors.New("cbdt: units per em is zero")

	// ErrDegenerateAdvance indicates a mean glyph advance of zero.
	ErrDegenerateAdvance = errors.New("cbdt: mean glyph advance is zero")

	// ErrPPEMOutOfRange indicates a pixels-per-em value outside 1..255.
	ErrPPEMOutOfRange = errors.New("cbdt: ppem out of range")

	// ErrBearingOutOfRange indicates a vertical bearing that does not fit
	// into a signed byte.
	ErrBearingOutOfRange = errors.New("cbdt: bearing out of range")

	// ErrEmptyRunSet is returned by the index builder when the glyph map
	// holds nothing but the end-of-data sentinel.
	ErrEmptyRunSet = errors.New("cbdt: no index runs")
)

// Kind classifies errors returned by this module.
type Kind int

const (
	// KindUnknown is any error not produced by the codec (I/O and the like).
	KindUnknown Kind = iota

	// KindInput marks problems with the images or glyph set supplied.
	KindInput

	// KindEncoding marks images or metrics which cannot be represented.
	KindEncoding

	// KindInvariant marks internal inconsistencies. These are defects.
	KindInvariant
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindInput:
		return "input"
	case KindEncoding:
		return "encoding"
	case KindInvariant:
		return "invariant"
	default:
		return unknownStr
	}
}

const unknownStr = "Unknown"

// KindOf reports the kind of err.
func KindOf(err error) Kind {
	var inv *InvariantError
	switch {
	case err == nil:
		return KindUnknown
	case errors.As(err, &inv):
		return KindInvariant
	case errors.Is(err, ErrNoImages),
		errors.Is(err, ErrNoCommonGlyphs),
		errors.Is(err, ErrEmptyGlyphSet),
		errors.Is(err, ErrDuplicateGlyph),
		errors.Is(err, ErrMissingImage):
		return KindInput
	case errors.Is(err, ErrUnsupportedPixelFormat),
		errors.Is(err, ErrMalformedPixmap),
		errors.Is(err, ErrImageTooLarge),
		errors.Is(err, ErrZeroUnitsPerEm),
		errors.Is(err, ErrDegenerateAdvance),
		errors.Is(err, ErrPPEMOutOfRange),
		errors.Is(err, ErrBearingOutOfRange),
		errors.Is(err, ErrEmptyRunSet):
		return KindEncoding
	}
	return KindUnknown
}

// GlyphError reports the glyph and image responsible for a failure.
type GlyphError struct {
	GID    GlyphID
	Source string // file name or other description of the image, may be empty
	Err    error
}

func (e *GlyphError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("glyph %d (%s): %v", e.GID, e.Source, e.Err)
	}
	return fmt.Sprintf("glyph %d: %v", e.GID, e.Err)
}

func (e *GlyphError) Unwrap() error {
	return e.Err
}

// InvariantError is returned when the generated tables are internally
// inconsistent. It always indicates a bug in this package.
type InvariantError struct {
	Op     string
	Detail string
}

func (e *InvariantError) Error() string {
	return "cbdt: invariant violated in " + e.Op + ": " + e.Detail
}

func invariant(op, format string, args ...any) error {
	return &InvariantError{Op: op, Detail: fmt.Sprintf(format, args...)}
}
