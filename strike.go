package cbdt

import (
	"cmp"
	"slices"

	"github.com/gogpu/cbdt/reader"
)

// Glyph associates a glyph with the image embedded for it.
type Glyph struct {
	GID     GlyphID
	Image   GlyphImage
	Advance int    // advance width in font units
	Source  string // reported in errors, usually the image file name
}

// TablePair names the image-data and index tables a strike is stored in.
type TablePair struct {
	Data  string
	Index string
}

// Table pairs understood by rasterizers.
var (
	// ColorTables is the pair used for color bitmaps.
	ColorTables = TablePair{Data: "CBDT", Index: "CBLC"}

	// MonochromeTables is the pair of the original embedded-bitmap
	// specification.
	MonochromeTables = TablePair{Data: "EBDT", Index: "EBLC"}
)

// Strike is the result of Build.
type Strike struct {
	ImageData []byte
	Index     []byte
	Metrics   StrikeMetrics
	Glyphs    GlyphMap
	Runs      []IndexRun
}

// Tables returns both tables keyed by their tag in pair.
func (s *Strike) Tables(pair TablePair) map[string][]byte {
	return map[string][]byte{
		pair.Data:  s.ImageData,
		pair.Index: s.Index,
	}
}

// Build encodes glyphs into an image-data table and its index table.
//
// The glyphs may be given in any order but every GID must be unique.
// The strike size is derived from the mean advance and image width unless
// WithPPEM fixes it. Any failure aborts the whole build.
func Build(fm FontMetrics, glyphs []Glyph, opts ...Option) (*Strike, error) {
	cfg := newConfig(opts)

	if len(glyphs) == 0 {
		return nil, ErrEmptyGlyphSet
	}
	if fm.UnitsPerEm == 0 {
		return nil, ErrZeroUnitsPerEm
	}

	sorted := slices.Clone(glyphs)
	slices.SortStableFunc(sorted, func(a, b Glyph) int {
		return cmp.Compare(a.GID, b.GID)
	})

	samples := make([]GlyphSample, len(sorted))
	for i, g := range sorted {
		if i > 0 && g.GID == sorted[i-1].GID {
			return nil, &GlyphError{GID: g.GID, Source: g.Source, Err: ErrDuplicateGlyph}
		}
		if g.Image == nil {
			return nil, &GlyphError{GID: g.GID, Source: g.Source, Err: ErrMissingImage}
		}
		w, h := g.Image.Size()
		samples[i] = GlyphSample{Advance: g.Advance, Width: w, Height: h}
	}

	sm, err := deriveStrikeMetrics(fm, samples, cfg.ppem)
	if err != nil {
		return nil, err
	}

	img, err := buildImageTable(sorted, fm, sm, cfg)
	if err != nil {
		return nil, err
	}
	idx, err := buildIndexTable(img.Map, fm, sm, cfg)
	if err != nil {
		return nil, err
	}

	s := &Strike{
		ImageData: img.Data,
		Index:     idx.Data,
		Metrics:   sm,
		Glyphs:    img.Map,
		Runs:      idx.Runs,
	}

	if cfg.verify {
		if err := verify(s, sorted); err != nil {
			return nil, err
		}
	}

	Logger().Info("bitmap strike built",
		"glyphs", len(sorted),
		"runs", len(s.Runs),
		"ppem", sm.YPpem,
		"image_bytes", len(s.ImageData),
		"index_bytes", len(s.Index))

	return s, nil
}

// verify decodes the generated tables and compares every glyph with its
// source image.
func verify(s *Strike, glyphs []Glyph) error {
	const op = "verify"

	r, err := reader.New(s.ImageData, s.Index)
	if err != nil {
		return invariant(op, "tables do not parse: %v", err)
	}
	if n := r.NumStrikes(); n != 1 {
		return invariant(op, "%d strikes, want 1", n)
	}
	runs, err := r.Runs(0)
	if err != nil {
		return invariant(op, "index sub-tables do not parse: %v", err)
	}
	if len(runs) != len(s.Runs) {
		return invariant(op, "%d index sub-tables, want %d", len(runs), len(s.Runs))
	}

	for _, g := range glyphs {
		bg, err := r.Glyph(uint16(g.GID), 0)
		if err != nil {
			return invariant(op, "glyph %d: %v", g.GID, err)
		}
		w, h := g.Image.Size()
		if bg.Width != w || bg.Height != h {
			return invariant(op, "glyph %d decodes as %dx%d, want %dx%d", g.GID, bg.Width, bg.Height, w, h)
		}
		if ImageFormat(bg.ImageFormat) != g.Image.Format() {
			return invariant(op, "glyph %d stored as format %d, want %s", g.GID, bg.ImageFormat, g.Image.Format())
		}
		if want := payloadLen(g.Image); len(bg.Data) != want {
			return invariant(op, "glyph %d has %d bytes of image data, want %d", g.GID, len(bg.Data), want)
		}
	}
	return nil
}

// payloadLen returns the number of image bytes a reader should find for img,
// without the small metrics and length fields.
func payloadLen(img GlyphImage) int {
	switch img := img.(type) {
	case *PNGImage:
		return len(img.Data)
	case *RawImage:
		w, h := img.Size()
		return w * h * 4
	default:
		p, _ := img.payload()
		return len(p)
	}
}
