// Package reader decodes embedded-bitmap table pairs (CBDT/CBLC and
// EBDT/EBLC): bitmap size records, index sub-tables and glyph images.
package reader

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Table format errors.
var (
	// ErrNoImageData indicates an empty image-data table.
	ErrNoImageData = errors.New("reader: no image-data table")

	// ErrNoIndex indicates an empty index table.
	ErrNoIndex = errors.New("reader: no index table")

	// ErrInvalidIndex indicates the index table is malformed.
	ErrInvalidIndex = errors.New("reader: invalid index table")

	// ErrInvalidImageData indicates the image-data table is malformed.
	ErrInvalidImageData = errors.New("reader: invalid image-data table")

	// ErrUnsupportedVersion indicates a table version other than 2 or 3.
	ErrUnsupportedVersion = errors.New("reader: unsupported table version")

	// ErrUnsupportedIndexFormat indicates an unsupported index sub-table format.
	ErrUnsupportedIndexFormat = errors.New("reader: unsupported index sub-table format")

	// ErrUnsupportedImageFormat indicates an unsupported image format.
	ErrUnsupportedImageFormat = errors.New("reader: unsupported image format")

	// ErrNoStrike indicates a strike index out of range.
	ErrNoStrike = errors.New("reader: no such strike")

	// ErrGlyphNotInStrike indicates the glyph has no bitmap in the strike.
	ErrGlyphNotInStrike = errors.New("reader: glyph not in strike")
)

// Layout of the index table.
const (
	headerSize         = 8
	bitmapSizeSize     = 48
	subTableRecordSize = 8
	subTableHeaderSize = 8
	bigMetricsSize     = 8
	smallMetricsSize   = 5
)

// Index sub-table formats.
const (
	indexFormat1 = 1 // variable metrics, 32-bit offsets
	indexFormat2 = 2 // constant metrics, no offset array
	indexFormat3 = 3 // variable metrics, 16-bit offsets
)

// Image formats.
const (
	imageFormat1  = 1  // small metrics, byte-aligned bitmap
	imageFormat17 = 17 // small metrics, PNG
	imageFormat18 = 18 // big metrics, PNG
	imageFormat19 = 19 // metrics in the index, PNG
)

// LineMetrics is one sbitLineMetrics record.
type LineMetrics struct {
	Ascender              int8
	Descender             int8
	WidthMax              uint8
	CaretSlopeNumerator   int8
	CaretSlopeDenominator int8
	CaretOffset           int8
	MinOriginSB           int8
	MinAdvanceSB          int8
	MaxBeforeBL           int8
	MinAfterBL            int8
}

func parseLineMetrics(b []byte) LineMetrics {
	return LineMetrics{
		Ascender:              int8(b[0]),
		Descender:             int8(b[1]),
		WidthMax:              b[2],
		CaretSlopeNumerator:   int8(b[3]),
		CaretSlopeDenominator: int8(b[4]),
		CaretOffset:           int8(b[5]),
		MinOriginSB:           int8(b[6]),
		MinAdvanceSB:          int8(b[7]),
		MaxBeforeBL:           int8(b[8]),
		MinAfterBL:            int8(b[9]),
	}
}

// StrikeInfo is one bitmap size record.
type StrikeInfo struct {
	SubTableArrayOffset uint32
	IndexTablesSize     uint32
	NumSubTables        uint32
	Hori                LineMetrics
	Vert                LineMetrics
	StartGlyph          uint16
	EndGlyph            uint16
	PPEMX               uint8
	PPEMY               uint8
	BitDepth            uint8
	Flags               int8
}

// Run is one parsed index sub-table.
type Run struct {
	First       uint16
	Last        uint16
	IndexFormat uint16
	ImageFormat uint16

	// ImageDataOffset is the start of the run's data in the image table.
	ImageDataOffset uint32

	offsets   []uint32 // formats 1 and 3, relative to ImageDataOffset
	imageSize uint32   // format 2
	metrics   *bigMetrics
}

// Offsets returns the glyph offsets of the run relative to
// ImageDataOffset, including the trailing end offset. It is nil for
// constant-size sub-tables.
func (r *Run) Offsets() []uint32 {
	return r.offsets
}

type bigMetrics struct {
	height       uint8
	width        uint8
	horiBearingX int8
	horiBearingY int8
	horiAdvance  uint8
}

func parseBigMetrics(b []byte) *bigMetrics {
	return &bigMetrics{
		height:       b[0],
		width:        b[1],
		horiBearingX: int8(b[2]),
		horiBearingY: int8(b[3]),
		horiAdvance:  b[4],
	}
}

// Reader gives access to the glyphs of a table pair.
//
// Reader is not safe for concurrent use: index sub-tables are parsed lazily.
type Reader struct {
	imageData []byte
	index     []byte

	majorVersion uint16
	minorVersion uint16
	strikes      []StrikeInfo
	runs         [][]Run
}

// New parses the index table header and bitmap size records.
func New(imageData, index []byte) (*Reader, error) {
	if len(imageData) == 0 {
		return nil, ErrNoImageData
	}
	if len(index) == 0 {
		return nil, ErrNoIndex
	}

	r := &Reader{imageData: imageData, index: index}
	if err := r.parseIndexHeader(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Reader) parseIndexHeader() error {
	data := r.index
	if len(data) < headerSize || len(r.imageData) < 4 {
		return ErrInvalidIndex
	}

	r.majorVersion = binary.BigEndian.Uint16(data[0:2])
	r.minorVersion = binary.BigEndian.Uint16(data[2:4])
	if r.majorVersion != 2 && r.majorVersion != 3 {
		return fmt.Errorf("%w: %d.%d", ErrUnsupportedVersion, r.majorVersion, r.minorVersion)
	}
	if dataMajor := binary.BigEndian.Uint16(r.imageData[0:2]); dataMajor != r.majorVersion {
		return fmt.Errorf("%w: image-data version %d, index version %d",
			ErrUnsupportedVersion, dataMajor, r.majorVersion)
	}

	numSizes := binary.BigEndian.Uint32(data[4:8])
	if uint64(headerSize)+uint64(numSizes)*bitmapSizeSize > uint64(len(data)) {
		return ErrInvalidIndex
	}

	r.strikes = make([]StrikeInfo, numSizes)
	r.runs = make([][]Run, numSizes)
	for i := range r.strikes {
		off := headerSize + i*bitmapSizeSize
		r.strikes[i] = parseBitmapSize(data[off : off+bitmapSizeSize])
	}
	return nil
}

func parseBitmapSize(b []byte) StrikeInfo {
	return StrikeInfo{
		SubTableArrayOffset: binary.BigEndian.Uint32(b[0:4]),
		IndexTablesSize:     binary.BigEndian.Uint32(b[4:8]),
		NumSubTables:        binary.BigEndian.Uint32(b[8:12]),
		// colorRef at 12..16 is unused.
		Hori:       parseLineMetrics(b[16:28]),
		Vert:       parseLineMetrics(b[28:40]),
		StartGlyph: binary.BigEndian.Uint16(b[40:42]),
		EndGlyph:   binary.BigEndian.Uint16(b[42:44]),
		PPEMX:      b[44],
		PPEMY:      b[45],
		BitDepth:   b[46],
		Flags:      int8(b[47]),
	}
}

// Version returns the major and minor version of the index table.
func (r *Reader) Version() (major, minor uint16) {
	return r.majorVersion, r.minorVersion
}

// NumStrikes returns the number of bitmap strikes.
func (r *Reader) NumStrikes() int {
	return len(r.strikes)
}

// Strike returns the bitmap size record of strike i.
func (r *Reader) Strike(i int) (StrikeInfo, error) {
	if i < 0 || i >= len(r.strikes) {
		return StrikeInfo{}, ErrNoStrike
	}
	return r.strikes[i], nil
}

// Runs returns the index sub-tables of strike i.
func (r *Reader) Runs(i int) ([]Run, error) {
	if i < 0 || i >= len(r.strikes) {
		return nil, ErrNoStrike
	}
	if r.runs[i] != nil {
		return r.runs[i], nil
	}

	s := &r.strikes[i]
	data := r.index
	base := int(s.SubTableArrayOffset)
	if uint64(base)+uint64(s.NumSubTables)*subTableRecordSize > uint64(len(data)) {
		return nil, ErrInvalidIndex
	}

	runs := make([]Run, s.NumSubTables)
	for k := range runs {
		rec := base + k*subTableRecordSize
		run := &runs[k]
		run.First = binary.BigEndian.Uint16(data[rec : rec+2])
		run.Last = binary.BigEndian.Uint16(data[rec+2 : rec+4])
		if run.Last < run.First {
			return nil, ErrInvalidIndex
		}
		additional := binary.BigEndian.Uint32(data[rec+4 : rec+8])
		if err := r.parseSubTable(base+int(additional), run); err != nil {
			return nil, err
		}
	}
	r.runs[i] = runs
	return runs, nil
}

func (r *Reader) parseSubTable(offset int, run *Run) error {
	data := r.index
	if offset < 0 || offset+subTableHeaderSize > len(data) {
		return ErrInvalidIndex
	}

	run.IndexFormat = binary.BigEndian.Uint16(data[offset : offset+2])
	run.ImageFormat = binary.BigEndian.Uint16(data[offset+2 : offset+4])
	run.ImageDataOffset = binary.BigEndian.Uint32(data[offset+4 : offset+8])

	pos := offset + subTableHeaderSize
	n := int(run.Last) - int(run.First) + 2

	switch run.IndexFormat {
	case indexFormat1:
		if pos+n*4 > len(data) {
			return ErrInvalidIndex
		}
		run.offsets = make([]uint32, n)
		for i := range run.offsets {
			run.offsets[i] = binary.BigEndian.Uint32(data[pos+i*4:])
		}

	case indexFormat2:
		if pos+4+bigMetricsSize > len(data) {
			return ErrInvalidIndex
		}
		run.imageSize = binary.BigEndian.Uint32(data[pos : pos+4])
		run.metrics = parseBigMetrics(data[pos+4 : pos+4+bigMetricsSize])

	case indexFormat3:
		if pos+n*2 > len(data) {
			return ErrInvalidIndex
		}
		run.offsets = make([]uint32, n)
		for i := range run.offsets {
			run.offsets[i] = uint32(binary.BigEndian.Uint16(data[pos+i*2:]))
		}

	default:
		return fmt.Errorf("%w: %d", ErrUnsupportedIndexFormat, run.IndexFormat)
	}

	return nil
}

// locate returns where glyph gid is stored in the image-data table.
func (run *Run) locate(gid uint16) (offset, size uint32, err error) {
	i := uint32(gid - run.First)
	if run.offsets == nil {
		return run.ImageDataOffset + i*run.imageSize, run.imageSize, nil
	}
	start, end := run.offsets[i], run.offsets[i+1]
	if end < start {
		return 0, 0, ErrInvalidIndex
	}
	return run.ImageDataOffset + start, end - start, nil
}
