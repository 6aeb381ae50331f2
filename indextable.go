package cbdt

import (
	"encoding/binary"
	"math"
)

// Layout constants of the index table.
const (
	indexHeaderSize     = 8  // version + numSizes
	bitmapSizeSize      = 48 // one bitmapSize record
	lineMetricsSize     = 12 // one sbitLineMetrics record
	subTableHeaderSize  = 8  // firstGlyph, lastGlyph, additionalOffset
	strikeBitDepth      = 32
	flagHorizontal      = 0x01
	indexSubTableFormat = 1
)

// IndexRun is a maximal range of consecutive glyph IDs sharing one image
// format. Each run becomes one index sub-table.
type IndexRun struct {
	First          GlyphID
	Last           GlyphID
	Format         ImageFormat
	SubTableOffset uint32 // from the start of the index sub-table array

	start, end int // entries of the glyph map covered, end exclusive
}

// Len returns the number of glyphs in the run.
func (r IndexRun) Len() int {
	return int(r.Last) - int(r.First) + 1
}

// IndexTable is the generated index table.
type IndexTable struct {
	Data []byte
	Runs []IndexRun
}

// partitionRuns splits the glyph map into runs in one left-to-right pass.
// A glyph joins the current run iff its GID follows the previous one and
// it uses the same image format.
func partitionRuns(gmap GlyphMap) []IndexRun {
	glyphs := gmap.Glyphs()
	var runs []IndexRun
	for i, g := range glyphs {
		if n := len(runs); n > 0 {
			cur := &runs[n-1]
			if int(g.GID) == int(cur.Last)+1 && g.Format == cur.Format {
				cur.Last = g.GID
				cur.end = i + 1
				continue
			}
		}
		runs = append(runs, IndexRun{
			First:  g.GID,
			Last:   g.GID,
			Format: g.Format,
			start:  i,
			end:    i + 1,
		})
	}
	return runs
}

// checkGlyphMap verifies the shape of a glyph map: ascending unique GIDs,
// strictly increasing offsets and a single trailing sentinel.
func checkGlyphMap(gmap GlyphMap) error {
	const op = "BuildIndexTable"
	if len(gmap) == 0 || !gmap[len(gmap)-1].IsSentinel() {
		return invariant(op, "glyph map does not end with a sentinel")
	}
	glyphs := gmap.Glyphs()
	for i, g := range glyphs {
		if g.IsSentinel() {
			return invariant(op, "sentinel at position %d of %d", i, len(gmap))
		}
		next := gmap[i+1]
		if next.Offset <= g.Offset {
			return invariant(op, "offset of glyph %d (%d) not below next offset %d", g.GID, g.Offset, next.Offset)
		}
		if i > 0 && g.GID <= glyphs[i-1].GID {
			return invariant(op, "glyph %d follows glyph %d", g.GID, glyphs[i-1].GID)
		}
	}
	return nil
}

// checkRuns verifies that the runs partition the glyph map exactly.
func checkRuns(gmap GlyphMap, runs []IndexRun) error {
	const op = "partitionRuns"
	next := 0
	for _, r := range runs {
		if r.start != next {
			return invariant(op, "run %d..%d starts at entry %d, want %d", r.First, r.Last, r.start, next)
		}
		if r.end-r.start != r.Len() {
			return invariant(op, "run %d..%d covers %d entries", r.First, r.Last, r.end-r.start)
		}
		for _, g := range gmap[r.start:r.end] {
			if g.Format != r.Format {
				return invariant(op, "glyph %d has format %s in a %s run", g.GID, g.Format, r.Format)
			}
		}
		next = r.end
	}
	if next != len(gmap)-1 {
		return invariant(op, "runs cover %d of %d glyphs", next, len(gmap)-1)
	}
	return nil
}

// saturateInt8 clamps v to the int8 range, logging when it had to.
func saturateInt8(field string, v int) int8 {
	if v < math.MinInt8 || v > math.MaxInt8 {
		Logger().Warn("line metric saturated", "field", field, "value", v)
		if v < 0 {
			return math.MinInt8
		}
		return math.MaxInt8
	}
	return int8(v)
}

// sbitLineMetrics encodes the line metrics of the strike. Caret and
// bearing fields are reserved and written as zero.
func sbitLineMetrics(fm FontMetrics, sm StrikeMetrics, widthMax uint8) []byte {
	scale := float64(sm.YPpem) / float64(fm.UnitsPerEm)
	ascender := saturateInt8("ascender", int(math.Round(float64(fm.Ascent)*scale)))
	descender := saturateInt8("descender", -int(math.Round(float64(fm.Descent)*scale)))

	b := make([]byte, lineMetricsSize)
	b[0] = byte(ascender)
	b[1] = byte(descender)
	b[2] = widthMax
	return b
}

// BuildIndexTable generates the index table for a glyph map produced by
// BuildImageTable.
func BuildIndexTable(gmap GlyphMap, fm FontMetrics, sm StrikeMetrics, opts ...Option) (*IndexTable, error) {
	cfg := newConfig(opts)
	return buildIndexTable(gmap, fm, sm, cfg)
}

func buildIndexTable(gmap GlyphMap, fm FontMetrics, sm StrikeMetrics, cfg config) (*IndexTable, error) {
	if len(gmap) <= 1 {
		return nil, ErrEmptyRunSet
	}
	if fm.UnitsPerEm == 0 {
		return nil, ErrZeroUnitsPerEm
	}
	if err := checkGlyphMap(gmap); err != nil {
		return nil, err
	}

	runs := partitionRuns(gmap)
	if err := checkRuns(gmap, runs); err != nil {
		return nil, err
	}

	headersLen := len(runs) * subTableHeaderSize
	headers := make([]byte, 0, headersLen)
	var subtables []byte
	for i := range runs {
		r := &runs[i]
		r.SubTableOffset = uint32(headersLen + len(subtables))
		headers = binary.BigEndian.AppendUint16(headers, uint16(r.First))
		headers = binary.BigEndian.AppendUint16(headers, uint16(r.Last))
		headers = binary.BigEndian.AppendUint32(headers, r.SubTableOffset)

		base := gmap[r.start].Offset
		subtables = binary.BigEndian.AppendUint16(subtables, indexSubTableFormat)
		subtables = binary.BigEndian.AppendUint16(subtables, uint16(r.Format))
		subtables = binary.BigEndian.AppendUint32(subtables, base)
		// gmap[r.end] is the next run's first glyph or the sentinel.
		for _, g := range gmap[r.start : r.end+1] {
			subtables = binary.BigEndian.AppendUint32(subtables, g.Offset-base)
		}
	}

	var widthMax uint8
	for _, g := range gmap.Glyphs() {
		widthMax = max(widthMax, g.Advance)
	}
	lm := sbitLineMetrics(fm, sm, widthMax)

	size := indexHeaderSize + bitmapSizeSize + len(headers) + len(subtables)
	out := make([]byte, 0, size)
	out = binary.BigEndian.AppendUint32(out, cfg.version)
	out = binary.BigEndian.AppendUint32(out, 1)

	out = binary.BigEndian.AppendUint32(out, uint32(len(out)+bitmapSizeSize))
	out = binary.BigEndian.AppendUint32(out, uint32(len(headers)+len(subtables)))
	out = binary.BigEndian.AppendUint32(out, uint32(len(runs)))
	out = binary.BigEndian.AppendUint32(out, 0) // colorRef
	out = append(out, lm...)                    // hori
	out = append(out, lm...)                    // vert
	out = binary.BigEndian.AppendUint16(out, uint16(runs[0].First))
	out = binary.BigEndian.AppendUint16(out, uint16(runs[len(runs)-1].Last))
	out = append(out, sm.XPpem, sm.YPpem, strikeBitDepth, flagHorizontal)

	out = append(out, headers...)
	out = append(out, subtables...)

	if len(out) != size {
		return nil, invariant("BuildIndexTable", "wrote %d bytes, want %d", len(out), size)
	}

	Logger().Debug("index table built",
		"runs", len(runs),
		"first", runs[0].First,
		"last", runs[len(runs)-1].Last,
		"bytes", len(out))

	return &IndexTable{Data: out, Runs: runs}, nil
}
