package cbdt

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/cbdt/internal/parallel"
)

// GlyphLocation records where one glyph was written in the image-data table.
type GlyphLocation struct {
	GID     GlyphID
	Offset  uint32 // from the start of the image-data table
	Format  ImageFormat
	Advance uint8
}

// IsSentinel reports whether the location is the end-of-data marker.
func (l GlyphLocation) IsSentinel() bool {
	return l.Format == FormatNone
}

// GlyphMap lists the encoded glyphs in ascending GID order, followed by
// exactly one sentinel holding the end offset of the last glyph.
type GlyphMap []GlyphLocation

// Glyphs returns the map without its sentinel.
func (m GlyphMap) Glyphs() []GlyphLocation {
	if len(m) == 0 {
		return nil
	}
	return m[:len(m)-1]
}

// End returns the offset one past the last glyph's data.
func (m GlyphMap) End() uint32 {
	if len(m) == 0 {
		return 0
	}
	return m[len(m)-1].Offset
}

// ImageTable is the generated image-data table and the location of every
// glyph within it.
type ImageTable struct {
	Data []byte
	Map  GlyphMap
}

// imageTableWriter is the append-only buffer of the image-data table.
type imageTableWriter struct {
	buf []byte
}

func (w *imageTableWriter) offset() (uint32, error) {
	if uint64(len(w.buf)) > math.MaxUint32 {
		return 0, fmt.Errorf("image-data table exceeds 4 GiB: %w", ErrImageTooLarge)
	}
	return uint32(len(w.buf)), nil
}

func (w *imageTableWriter) putUint32(v uint32) {
	w.buf = binary.BigEndian.AppendUint32(w.buf, v)
}

func (w *imageTableWriter) write(p ...[]byte) {
	for _, b := range p {
		w.buf = append(w.buf, b...)
	}
}

// BuildImageTable encodes the glyphs into an image-data table. The glyphs
// must be sorted by GID and unique; Build takes care of this.
func BuildImageTable(glyphs []Glyph, fm FontMetrics, sm StrikeMetrics, opts ...Option) (*ImageTable, error) {
	cfg := newConfig(opts)
	return buildImageTable(glyphs, fm, sm, cfg)
}

func buildImageTable(glyphs []Glyph, fm FontMetrics, sm StrikeMetrics, cfg config) (*ImageTable, error) {
	if len(glyphs) == 0 {
		return nil, ErrEmptyGlyphSet
	}

	encoded, err := encodeAll(glyphs, fm, sm, cfg.workers)
	if err != nil {
		return nil, err
	}

	size := 4
	for _, e := range encoded {
		size += e.Len()
	}
	w := &imageTableWriter{buf: make([]byte, 0, size)}
	w.putUint32(cfg.version)

	log := Logger()
	gmap := make(GlyphMap, 0, len(glyphs)+1)
	for i, e := range encoded {
		off, err := w.offset()
		if err != nil {
			return nil, err
		}
		gmap = append(gmap, GlyphLocation{
			GID:     glyphs[i].GID,
			Offset:  off,
			Format:  e.Format,
			Advance: e.Header[4],
		})
		w.write(e.Header, e.Payload)
		log.Debug("glyph encoded",
			"gid", glyphs[i].GID,
			"offset", off,
			"len", e.Len(),
			"format", e.Format)
	}

	end, err := w.offset()
	if err != nil {
		return nil, err
	}
	gmap = append(gmap, GlyphLocation{Offset: end, Format: FormatNone})

	return &ImageTable{Data: w.buf, Map: gmap}, nil
}

// encodeAll encodes every glyph, on a worker pool if more than one worker
// is requested. The result slice is indexed like glyphs. The first failure
// in GID order is returned.
func encodeAll(glyphs []Glyph, fm FontMetrics, sm StrikeMetrics, workers int) ([]*EncodedGlyph, error) {
	encoded := make([]*EncodedGlyph, len(glyphs))
	errs := make([]error, len(glyphs))

	encodeOne := func(i int) {
		g := glyphs[i]
		if g.Image == nil {
			errs[i] = &GlyphError{GID: g.GID, Source: g.Source, Err: ErrMissingImage}
			return
		}
		e, err := EncodeGlyph(g.Image, fm, sm)
		if err != nil {
			errs[i] = &GlyphError{GID: g.GID, Source: g.Source, Err: err}
			return
		}
		encoded[i] = e
	}

	if workers > 1 && len(glyphs) > 1 {
		pool := parallel.NewWorkerPool(min(workers, len(glyphs)))
		defer pool.Close()

		work := make([]func(), len(glyphs))
		for i := range work {
			work[i] = func() { encodeOne(i) }
		}
		pool.ExecuteAll(work)
	} else {
		for i := range glyphs {
			encodeOne(i)
			if errs[i] != nil {
				break
			}
		}
	}

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return encoded, nil
}
