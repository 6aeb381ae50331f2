package cbdt

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/gogpu/cbdt/reader"
)

// span is the comparable part of an IndexRun.
type span struct {
	First, Last GlyphID
	Format      ImageFormat
}

func spans(runs []IndexRun) []span {
	out := make([]span, len(runs))
	for i, r := range runs {
		out[i] = span{r.First, r.Last, r.Format}
	}
	return out
}

func gmapOf(entries ...GlyphLocation) GlyphMap {
	off := uint32(4)
	m := make(GlyphMap, 0, len(entries)+1)
	for _, e := range entries {
		e.Offset = off
		m = append(m, e)
		off += 20
	}
	return append(m, GlyphLocation{Offset: off})
}

func TestPartitionRuns(t *testing.T) {
	tests := []struct {
		name string
		gmap GlyphMap
		want []span
	}{
		{
			name: "contiguous",
			gmap: gmapOf(
				GlyphLocation{GID: 0x41, Format: FormatRaw},
				GlyphLocation{GID: 0x42, Format: FormatRaw},
			),
			want: []span{{0x41, 0x42, FormatRaw}},
		},
		{
			name: "gap",
			gmap: gmapOf(
				GlyphLocation{GID: 5, Format: FormatPNG},
				GlyphLocation{GID: 6, Format: FormatPNG},
				GlyphLocation{GID: 9, Format: FormatPNG},
			),
			want: []span{{5, 6, FormatPNG}, {9, 9, FormatPNG}},
		},
		{
			name: "format change",
			gmap: gmapOf(
				GlyphLocation{GID: 5, Format: FormatRaw},
				GlyphLocation{GID: 6, Format: FormatPNG},
			),
			want: []span{{5, 5, FormatRaw}, {6, 6, FormatPNG}},
		},
		{
			name: "format change back",
			gmap: gmapOf(
				GlyphLocation{GID: 1, Format: FormatPNG},
				GlyphLocation{GID: 2, Format: FormatRaw},
				GlyphLocation{GID: 3, Format: FormatRaw},
				GlyphLocation{GID: 4, Format: FormatPNG},
				GlyphLocation{GID: 6, Format: FormatPNG},
			),
			want: []span{{1, 1, FormatPNG}, {2, 3, FormatRaw}, {4, 4, FormatPNG}, {6, 6, FormatPNG}},
		},
		{
			name: "single",
			gmap: gmapOf(GlyphLocation{GID: 65535, Format: FormatPNG}),
			want: []span{{65535, 65535, FormatPNG}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runs := partitionRuns(tt.gmap)
			if diff := cmp.Diff(tt.want, spans(runs)); diff != "" {
				t.Errorf("partitionRuns() mismatch (-want +got):\n%s", diff)
			}
			if err := checkRuns(tt.gmap, runs); err != nil {
				t.Errorf("checkRuns() = %v", err)
			}
		})
	}
}

func TestBuildIndexTableLayout(t *testing.T) {
	sm := StrikeMetrics{XPpem: 10, YPpem: 10}
	gmap := GlyphMap{
		{GID: 5, Offset: 4, Format: FormatPNG, Advance: 8},
		{GID: 6, Offset: 30, Format: FormatPNG, Advance: 9},
		{GID: 9, Offset: 50, Format: FormatRaw, Advance: 7},
		{Offset: 70},
	}
	idx, err := BuildIndexTable(gmap, testFontMetrics, sm)
	if err != nil {
		t.Fatal(err)
	}

	be := binary.BigEndian
	var want []byte
	want = be.AppendUint32(want, Version2)
	want = be.AppendUint32(want, 1)
	// bitmapSize
	want = be.AppendUint32(want, 56)
	want = be.AppendUint32(want, 16+20+16)
	want = be.AppendUint32(want, 2)
	want = be.AppendUint32(want, 0)
	lm := []byte{8, 0xFE, 9, 0, 0, 0, 0, 0, 0, 0, 0, 0} // ascender 8, descender -2
	want = append(want, lm...)
	want = append(want, lm...)
	want = be.AppendUint16(want, 5)
	want = be.AppendUint16(want, 9)
	want = append(want, 10, 10, 32, 1)
	// sub-table headers
	want = be.AppendUint16(want, 5)
	want = be.AppendUint16(want, 6)
	want = be.AppendUint32(want, 16)
	want = be.AppendUint16(want, 9)
	want = be.AppendUint16(want, 9)
	want = be.AppendUint32(want, 16+20)
	// run 5..6
	want = be.AppendUint16(want, 1)
	want = be.AppendUint16(want, 17)
	want = be.AppendUint32(want, 4)
	want = be.AppendUint32(want, 0)
	want = be.AppendUint32(want, 26)
	want = be.AppendUint32(want, 46)
	// run 9
	want = be.AppendUint16(want, 1)
	want = be.AppendUint16(want, 1)
	want = be.AppendUint32(want, 50)
	want = be.AppendUint32(want, 0)
	want = be.AppendUint32(want, 20)

	if !bytes.Equal(idx.Data, want) {
		t.Errorf("index table =\n% x\nwant\n% x", idx.Data, want)
	}

	wantRuns := []IndexRun{
		{First: 5, Last: 6, Format: FormatPNG, SubTableOffset: 16},
		{First: 9, Last: 9, Format: FormatRaw, SubTableOffset: 36},
	}
	if diff := cmp.Diff(wantRuns, idx.Runs, cmpopts.IgnoreUnexported(IndexRun{})); diff != "" {
		t.Errorf("Runs mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildIndexTableErrors(t *testing.T) {
	sm := StrikeMetrics{XPpem: 10, YPpem: 10}

	tests := []struct {
		name string
		fm   FontMetrics
		gmap GlyphMap
		want error
	}{
		{"nil", testFontMetrics, nil, ErrEmptyRunSet},
		{"sentinel only", testFontMetrics, GlyphMap{{Offset: 4}}, ErrEmptyRunSet},
		{"zero upem", FontMetrics{}, gmapOf(GlyphLocation{GID: 1, Format: FormatRaw}), ErrZeroUnitsPerEm},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildIndexTable(tt.gmap, tt.fm, sm)
			if !errors.Is(err, tt.want) {
				t.Errorf("BuildIndexTable() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestBuildIndexTableInvariants(t *testing.T) {
	sm := StrikeMetrics{XPpem: 10, YPpem: 10}

	tests := []struct {
		name string
		gmap GlyphMap
	}{
		{"no sentinel", GlyphMap{{GID: 1, Offset: 4, Format: FormatRaw}, {GID: 2, Offset: 9, Format: FormatRaw}}},
		{"unsorted", GlyphMap{
			{GID: 2, Offset: 4, Format: FormatRaw},
			{GID: 1, Offset: 9, Format: FormatRaw},
			{Offset: 14},
		}},
		{"duplicate", GlyphMap{
			{GID: 2, Offset: 4, Format: FormatRaw},
			{GID: 2, Offset: 9, Format: FormatRaw},
			{Offset: 14},
		}},
		{"offsets decrease", GlyphMap{
			{GID: 1, Offset: 9, Format: FormatRaw},
			{GID: 2, Offset: 4, Format: FormatRaw},
			{Offset: 14},
		}},
		{"empty glyph", GlyphMap{
			{GID: 1, Offset: 4, Format: FormatRaw},
			{Offset: 4},
		}},
		{"two sentinels", GlyphMap{
			{GID: 1, Offset: 4, Format: FormatRaw},
			{Offset: 9},
			{Offset: 14},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildIndexTable(tt.gmap, testFontMetrics, sm)
			var inv *InvariantError
			if !errors.As(err, &inv) {
				t.Fatalf("BuildIndexTable() error = %v, want *InvariantError", err)
			}
			if KindOf(err) != KindInvariant {
				t.Errorf("KindOf() = %v, want invariant", KindOf(err))
			}
		})
	}
}

func TestSbitLineMetricsSaturate(t *testing.T) {
	fm := FontMetrics{UnitsPerEm: 100, Ascent: 1000, Descent: 1000}
	lm := sbitLineMetrics(fm, StrikeMetrics{YPpem: 100}, 200)
	if int8(lm[0]) != 127 || int8(lm[1]) != -128 || lm[2] != 200 {
		t.Errorf("sbitLineMetrics() = %v, want saturated ascender/descender", lm[:3])
	}
}

// The offsets stored in the index must locate every glyph's image in the
// image-data table.
func TestIndexRoundTrip(t *testing.T) {
	sm := StrikeMetrics{XPpem: 16, YPpem: 16}
	var glyphs []Glyph
	gids := []GlyphID{3, 4, 5, 6, 10, 11, 40, 41, 42, 43, 44, 200}
	for i, gid := range gids {
		var img GlyphImage = solidRaw(1+i%6, 2+i%5, 0xFF00FF00)
		if i%4 == 1 {
			img = solidPNG(t, 4+i, 5)
		}
		glyphs = append(glyphs, Glyph{GID: gid, Image: img})
	}

	tbl, err := BuildImageTable(glyphs, testFontMetrics, sm)
	if err != nil {
		t.Fatal(err)
	}
	idx, err := BuildIndexTable(tbl.Map, testFontMetrics, sm)
	if err != nil {
		t.Fatal(err)
	}

	r, err := reader.New(tbl.Data, idx.Data)
	if err != nil {
		t.Fatal(err)
	}
	runs, err := r.Runs(0)
	if err != nil {
		t.Fatal(err)
	}

	// partition completeness
	var covered []GlyphID
	for _, run := range runs {
		for gid := run.First; ; gid++ {
			covered = append(covered, GlyphID(gid))
			if gid == run.Last {
				break
			}
		}
	}
	if diff := cmp.Diff(gids, covered); diff != "" {
		t.Errorf("runs cover (-want +got):\n%s", diff)
	}

	// offset law
	for _, run := range runs {
		offs := run.Offsets()
		for k := 0; k < len(offs)-1; k++ {
			gid := GlyphID(int(run.First) + k)
			start := run.ImageDataOffset + offs[k]
			end := run.ImageDataOffset + offs[k+1]
			if end <= start {
				t.Fatalf("glyph %d: empty range %d..%d", gid, start, end)
			}
			h, w := tbl.Data[start], tbl.Data[start+1]
			var src Glyph
			for _, g := range glyphs {
				if g.GID == gid {
					src = g
				}
			}
			sw, sh := src.Image.Size()
			if int(w) != sw || int(h) != sh {
				t.Errorf("glyph %d header = %dx%d, want %dx%d", gid, w, h, sw, sh)
			}
			if uint16(src.Image.Format()) != run.ImageFormat {
				t.Errorf("glyph %d in run of format %d, image format %d", gid, run.ImageFormat, src.Image.Format())
			}
		}
	}

	// last run ends at the sentinel
	last := runs[len(runs)-1]
	if end := last.ImageDataOffset + last.Offsets()[len(last.Offsets())-1]; end != uint32(len(tbl.Data)) {
		t.Errorf("last run ends at %d, table is %d bytes", end, len(tbl.Data))
	}
}
