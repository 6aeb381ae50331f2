package cbdt

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/gogpu/cbdt/reader"
)

func TestBuildScenarioPPEMRejected(t *testing.T) {
	glyphs := []Glyph{
		{GID: 0x41, Advance: 10, Image: solidRaw(8, 8, 0xFFFFFFFF)},
		{GID: 0x42, Advance: 10, Image: solidRaw(8, 8, 0xFFFFFFFF)},
	}

	_, err := Build(testFontMetrics, glyphs)
	if !errors.Is(err, ErrPPEMOutOfRange) {
		t.Fatalf("Build() error = %v, want ErrPPEMOutOfRange", err)
	}
	if KindOf(err) != KindEncoding {
		t.Errorf("KindOf() = %v, want encoding", KindOf(err))
	}

	s, err := Build(testFontMetrics, glyphs, WithPPEM(8))
	if err != nil {
		t.Fatal(err)
	}
	if len(s.Runs) != 1 || s.Runs[0].First != 0x41 || s.Runs[0].Last != 0x42 {
		t.Errorf("Runs = %+v, want one run 0x41..0x42", s.Runs)
	}
	if s.Metrics.XPpem != 8 || s.Metrics.YPpem != 8 {
		t.Errorf("ppem = %d/%d, want 8", s.Metrics.XPpem, s.Metrics.YPpem)
	}
}

func TestBuildScenarios(t *testing.T) {
	tests := []struct {
		name   string
		glyphs []Glyph
		want   []span
	}{
		{
			name: "gap",
			glyphs: []Glyph{
				{GID: 9, Advance: 1000, Image: solidRaw(16, 16, 0)},
				{GID: 5, Advance: 1000, Image: solidRaw(16, 16, 0)},
				{GID: 6, Advance: 1000, Image: solidRaw(16, 16, 0)},
			},
			want: []span{{5, 6, FormatRaw}, {9, 9, FormatRaw}},
		},
		{
			name: "mixed formats",
			glyphs: []Glyph{
				{GID: 5, Advance: 1000, Image: solidRaw(16, 16, 0)},
				{GID: 6, Advance: 1000, Image: solidPNG(t, 16, 16)},
			},
			want: []span{{5, 5, FormatRaw}, {6, 6, FormatPNG}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Build(testFontMetrics, tt.glyphs, WithVerify(true))
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.want, spans(s.Runs)); diff != "" {
				t.Errorf("runs mismatch (-want +got):\n%s", diff)
			}
			if s.Metrics.YPpem != 16 {
				t.Errorf("YPpem = %d, want 16", s.Metrics.YPpem)
			}
		})
	}
}

func TestBuildEmpty(t *testing.T) {
	s, err := Build(testFontMetrics, nil)
	if !errors.Is(err, ErrEmptyGlyphSet) {
		t.Errorf("Build(nil) error = %v, want ErrEmptyGlyphSet", err)
	}
	if s != nil {
		t.Error("Build(nil) returned a strike")
	}
	if KindOf(err) != KindInput {
		t.Errorf("KindOf() = %v, want input", KindOf(err))
	}
}

func TestBuildInputErrors(t *testing.T) {
	tests := []struct {
		name   string
		glyphs []Glyph
		gid    GlyphID
		want   error
	}{
		{
			name: "duplicate",
			glyphs: []Glyph{
				{GID: 7, Advance: 1000, Image: solidRaw(4, 4, 0), Source: "a.png"},
				{GID: 3, Advance: 1000, Image: solidRaw(4, 4, 0)},
				{GID: 7, Advance: 1000, Image: solidRaw(4, 4, 0), Source: "b.png"},
			},
			gid:  7,
			want: ErrDuplicateGlyph,
		},
		{
			name: "missing image",
			glyphs: []Glyph{
				{GID: 1, Advance: 1000, Image: solidRaw(4, 4, 0)},
				{GID: 2, Advance: 1000},
			},
			gid:  2,
			want: ErrMissingImage,
		},
		{
			name: "oversized glyph",
			glyphs: []Glyph{
				{GID: 1, Advance: 1000, Image: solidRaw(4, 4, 0)},
				{GID: 2, Advance: 1000, Image: solidRaw(4, 256, 0)},
			},
			gid:  2,
			want: ErrImageTooLarge,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(testFontMetrics, tt.glyphs)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Build() error = %v, want %v", err, tt.want)
			}
			var gerr *GlyphError
			if !errors.As(err, &gerr) {
				t.Fatalf("Build() error = %v, want *GlyphError", err)
			}
			if gerr.GID != tt.gid {
				t.Errorf("GlyphError.GID = %d, want %d", gerr.GID, tt.gid)
			}
		})
	}
}

func TestBuildZeroUnitsPerEm(t *testing.T) {
	_, err := Build(FontMetrics{}, []Glyph{{GID: 1, Advance: 10, Image: solidRaw(1, 1, 0)}})
	if !errors.Is(err, ErrZeroUnitsPerEm) {
		t.Errorf("Build() error = %v, want ErrZeroUnitsPerEm", err)
	}
}

func TestBuildDoesNotReorderInput(t *testing.T) {
	glyphs := []Glyph{
		{GID: 9, Advance: 1000, Image: solidRaw(16, 16, 0)},
		{GID: 5, Advance: 1000, Image: solidRaw(16, 16, 0)},
	}
	if _, err := Build(testFontMetrics, glyphs); err != nil {
		t.Fatal(err)
	}
	if glyphs[0].GID != 9 || glyphs[1].GID != 5 {
		t.Error("Build() modified the caller's slice")
	}
}

func TestBuildVersionAndTables(t *testing.T) {
	glyphs := []Glyph{{GID: 3, Advance: 1000, Image: solidPNG(t, 16, 16)}}
	s, err := Build(testFontMetrics, glyphs, WithVersion(Version3), WithVerify(true))
	if err != nil {
		t.Fatal(err)
	}
	if v := binary.BigEndian.Uint32(s.ImageData); v != Version3 {
		t.Errorf("image data version = %#x", v)
	}
	if v := binary.BigEndian.Uint32(s.Index); v != Version3 {
		t.Errorf("index version = %#x", v)
	}

	for _, pair := range []TablePair{ColorTables, MonochromeTables} {
		tables := s.Tables(pair)
		if len(tables) != 2 {
			t.Fatalf("Tables(%v) has %d entries", pair, len(tables))
		}
		if &tables[pair.Data][0] != &s.ImageData[0] || &tables[pair.Index][0] != &s.Index[0] {
			t.Errorf("Tables(%v) does not return the strike's tables", pair)
		}
	}
}

func TestBuildCentersGlyphs(t *testing.T) {
	fm := FontMetrics{UnitsPerEm: 2048, Ascent: 1900, Descent: 500}
	glyphs := []Glyph{
		{GID: 10, Advance: 2550, Image: solidPNG(t, 136, 128)},
		{GID: 11, Advance: 2550, Image: solidPNG(t, 136, 100)},
		{GID: 12, Advance: 2550, Image: solidRaw(136, 136, 0xFF123456)},
	}
	s, err := Build(fm, glyphs, WithWorkers(3), WithVerify(true))
	if err != nil {
		t.Fatal(err)
	}
	if s.Metrics.YPpem != 109 {
		t.Fatalf("YPpem = %d, want 109", s.Metrics.YPpem)
	}

	r, err := reader.New(s.ImageData, s.Index)
	if err != nil {
		t.Fatal(err)
	}
	for _, g := range glyphs {
		bg, err := r.Glyph(uint16(g.GID), 0)
		if err != nil {
			t.Fatal(err)
		}
		_, h := g.Image.Size()
		if want := BearingY(fm, s.Metrics, h); int(bg.BearingY) != want {
			t.Errorf("glyph %d BearingY = %d, want %d", g.GID, bg.BearingY, want)
		}
		if bg.BearingX != 0 || int(bg.Advance) != bg.Width {
			t.Errorf("glyph %d bearingX/advance = %d/%d", g.GID, bg.BearingX, bg.Advance)
		}
	}

	info, err := r.Strike(0)
	if err != nil {
		t.Fatal(err)
	}
	// round(1900*109/2048) = 101, round(500*109/2048) = 27
	if info.Hori.Ascender != 101 || info.Hori.Descender != -27 || info.Hori.WidthMax != 136 {
		t.Errorf("line metrics = %+v", info.Hori)
	}
	if info.Vert != info.Hori {
		t.Errorf("vertical line metrics %+v differ from horizontal %+v", info.Vert, info.Hori)
	}
	if info.BitDepth != 32 || info.Flags != 1 || info.StartGlyph != 10 || info.EndGlyph != 12 {
		t.Errorf("strike record = %+v", info)
	}
}

func TestVerifyDetectsMismatch(t *testing.T) {
	glyphs := []Glyph{{GID: 3, Advance: 1000, Image: solidRaw(4, 4, 0)}}
	s, err := Build(testFontMetrics, glyphs, WithPPEM(16))
	if err != nil {
		t.Fatal(err)
	}
	// corrupt the stored width of glyph 3
	s.ImageData[s.Glyphs[0].Offset+1] = 5

	err = verify(s, glyphs)
	if KindOf(err) != KindInvariant {
		t.Errorf("verify() error = %v, want invariant violation", err)
	}
}
