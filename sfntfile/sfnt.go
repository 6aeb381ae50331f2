// Package sfntfile edits the table set of an OpenType or TrueType font
// file.
//
// A File holds every table as an opaque blob. Tables can be replaced,
// added or dropped and the file written back. Reading and writing the
// table directory, including checksums and head.checkSumAdjustment, is
// done by seehuhn.de/go/sfnt/header.
package sfntfile

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"seehuhn.de/go/sfnt/header"
	"seehuhn.de/go/sfnt/maxp"
)

var (
	// ErrNotSFNT is returned for data without a recognised sfnt header.
	ErrNotSFNT = errors.New("sfntfile: not an sfnt font")

	// ErrCollection is returned for TrueType collections.
	ErrCollection = errors.New("sfntfile: font collections are not supported")

	// ErrMalformed is returned when the table directory cannot be read or
	// points outside the file.
	ErrMalformed = errors.New("sfntfile: malformed table directory")

	// ErrBadTag is returned by Install for a tag that is not four printable
	// ASCII characters.
	ErrBadTag = errors.New("sfntfile: invalid table tag")
)

// Scaler types.
const (
	ScalerTrueType uint32 = 0x00010000
	ScalerOpenType uint32 = 0x4F54544F // "OTTO"
	scalerApple    uint32 = 0x74727565 // "true"
	scalerTTC      uint32 = 0x74746366 // "ttcf"
)

// headMinLen covers the head fields up to checkSumAdjustment, which the
// writer patches.
const headMinLen = 12

// File is a parsed font file.
type File struct {
	ScalerType uint32
	tables     map[string][]byte
}

// Parse reads the table directory of data and copies out every table.
func Parse(data []byte) (*File, error) {
	if len(data) < 12 {
		return nil, ErrNotSFNT
	}
	switch scaler := binary.BigEndian.Uint32(data); scaler {
	case ScalerTrueType, ScalerOpenType, scalerApple:
	case scalerTTC:
		return nil, ErrCollection
	default:
		return nil, fmt.Errorf("%w: scaler type %08x", ErrNotSFNT, scaler)
	}

	r := bytes.NewReader(data)
	info, err := header.Read(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	f := &File{ScalerType: info.ScalerType, tables: make(map[string][]byte, len(info.Toc))}
	for tag, rec := range info.Toc {
		if uint64(rec.Offset)+uint64(rec.Length) > uint64(len(data)) {
			return nil, fmt.Errorf("%w: table %q extends past end of file", ErrMalformed, tag)
		}
		body, err := info.ReadTableBytes(r, tag)
		if err != nil {
			return nil, fmt.Errorf("%w: table %q: %v", ErrMalformed, tag, err)
		}
		f.tables[tag] = body
	}
	return f, nil
}

// Open reads and parses the font file at path.
func Open(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Table returns the contents of the table tag, or nil.
func (f *File) Table(tag string) []byte {
	return f.tables[tag]
}

// Has reports whether all of the tags are present.
func (f *File) Has(tags ...string) bool {
	for _, tag := range tags {
		if _, ok := f.tables[tag]; !ok {
			return false
		}
	}
	return true
}

// Tags returns the tags of all tables, sorted by name.
func (f *File) Tags() []string {
	tags := make([]string, 0, len(f.tables))
	for tag := range f.tables {
		tags = append(tags, tag)
	}
	slices.Sort(tags)
	return tags
}

// Install adds the table tag, replacing an existing table of that name.
func (f *File) Install(tag string, data []byte) error {
	if !validTag(tag) {
		return fmt.Errorf("%w: %q", ErrBadTag, tag)
	}
	if data == nil {
		data = []byte{}
	}
	f.tables[tag] = data
	return nil
}

// Drop removes the given tables. Missing tables are ignored.
func (f *File) Drop(tags ...string) {
	for _, tag := range tags {
		delete(f.tables, tag)
	}
}

// NumGlyphs returns the glyph count from the maxp table, or 0 if there is
// no valid one.
func (f *File) NumGlyphs() int {
	data, ok := f.tables["maxp"]
	if !ok {
		return 0
	}
	info, err := maxp.Read(bytes.NewReader(data))
	if err != nil {
		return 0
	}
	return info.NumGlyphs
}

func validTag(tag string) bool {
	if len(tag) != 4 {
		return false
	}
	for i := 0; i < 4; i++ {
		if tag[i] < 0x20 || tag[i] > 0x7E {
			return false
		}
	}
	return true
}

// WriteTo writes the font to w. The DSIG table is left out since any
// change to the file invalidates it.
func (f *File) WriteTo(w io.Writer) (int64, error) {
	tables := make(map[string][]byte, len(f.tables))
	for tag, data := range f.tables {
		if tag == "DSIG" {
			continue
		}
		tables[tag] = data
	}
	// The writer patches head in place.
	if head, ok := tables["head"]; ok {
		if len(head) < headMinLen {
			return 0, fmt.Errorf("%w: head table of %d bytes", ErrMalformed, len(head))
		}
		tables["head"] = slices.Clone(head)
	}
	return header.Write(w, f.ScalerType, tables)
}

// Bytes returns the encoded font.
func (f *File) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Save writes the font to path and returns the number of bytes written.
func (f *File) Save(path string) (int64, error) {
	data, err := f.Bytes()
	if err != nil {
		return 0, err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return 0, err
	}
	return int64(len(data)), nil
}
