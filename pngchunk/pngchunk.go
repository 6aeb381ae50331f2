// Package pngchunk walks and filters the chunks of a PNG stream.
//
// Glyph images embedded in a font are stored as complete PNG streams, so
// every byte of metadata ends up in the font. Filter drops the chunks a
// rasterizer never looks at.
package pngchunk

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"slices"
)

// Signature is the 8-byte header of every PNG stream.
var Signature = []byte("\x89PNG\r\n\x1a\n")

var (
	// ErrNotPNG indicates data that does not start with the PNG signature.
	ErrNotPNG = errors.New("pngchunk: not a PNG stream")

	// ErrTruncated indicates a chunk extending past the end of the data.
	ErrTruncated = errors.New("pngchunk: truncated chunk")

	// ErrChecksum indicates a chunk whose CRC does not match its contents.
	ErrChecksum = errors.New("pngchunk: chunk checksum mismatch")

	// ErrStructure indicates a stream without IHDR first or IEND last.
	ErrStructure = errors.New("pngchunk: invalid chunk order")
)

// DefaultAllowed lists the chunks kept by default: those needed to
// decode the pixels and the color-space information.
var DefaultAllowed = []string{
	"IHDR", "PLTE", "tRNS", "IDAT", "IEND",
	"iCCP", "sRGB", "gAMA", "cHRM",
}

// Chunk is one chunk of a PNG stream. Data aliases the input.
type Chunk struct {
	Type string
	Data []byte

	raw []byte // length, type, data and CRC
}

// Critical reports whether the chunk is required to decode the image.
// Critical chunks have an upper-case first letter.
func (c Chunk) Critical() bool {
	return c.Type[0]&0x20 == 0
}

// Chunks splits a PNG stream into its chunks, checking every CRC and that
// the stream begins with IHDR and ends with IEND. Data after IEND is
// ignored.
func Chunks(data []byte) ([]Chunk, error) {
	if !bytes.HasPrefix(data, Signature) {
		return nil, ErrNotPNG
	}

	var chunks []Chunk
	pos := len(Signature)
	for {
		if len(data)-pos < 12 {
			return nil, ErrTruncated
		}
		n := binary.BigEndian.Uint32(data[pos:])
		if uint64(n) > uint64(len(data)-pos-12) {
			return nil, ErrTruncated
		}
		end := pos + 12 + int(n)
		body := data[pos+4 : end-4]
		if crc32.ChecksumIEEE(body) != binary.BigEndian.Uint32(data[end-4:]) {
			return nil, fmt.Errorf("%w: %q", ErrChecksum, body[:4])
		}

		c := Chunk{Type: string(body[:4]), Data: body[4:], raw: data[pos:end]}
		if len(chunks) == 0 && c.Type != "IHDR" {
			return nil, fmt.Errorf("%w: first chunk is %q", ErrStructure, c.Type)
		}
		chunks = append(chunks, c)
		pos = end

		if c.Type == "IEND" {
			return chunks, nil
		}
	}
}

// Dimensions returns the image size recorded in the IHDR chunk.
func Dimensions(data []byte) (width, height int, err error) {
	if !bytes.HasPrefix(data, Signature) {
		return 0, 0, ErrNotPNG
	}
	// signature, IHDR length and type, width, height
	if len(data) < len(Signature)+16 {
		return 0, 0, ErrTruncated
	}
	ihdr := data[len(Signature):]
	if string(ihdr[4:8]) != "IHDR" {
		return 0, 0, fmt.Errorf("%w: first chunk is %q", ErrStructure, ihdr[4:8])
	}
	w := binary.BigEndian.Uint32(ihdr[8:])
	h := binary.BigEndian.Uint32(ihdr[12:])
	return int(w), int(h), nil
}

// Filter returns a copy of the PNG stream holding only the critical
// chunks and the ancillary chunks listed in allowed.
func Filter(data []byte, allowed []string) ([]byte, error) {
	chunks, err := Chunks(data)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(data))
	out = append(out, Signature...)
	for _, c := range chunks {
		if c.Critical() || slices.Contains(allowed, c.Type) {
			out = append(out, c.raw...)
		}
	}
	return out, nil
}

// Encode appends a chunk with the given type and data to dst.
func Encode(dst []byte, typ string, data []byte) []byte {
	dst = binary.BigEndian.AppendUint32(dst, uint32(len(data)))
	start := len(dst)
	dst = append(dst, typ...)
	dst = append(dst, data...)
	return binary.BigEndian.AppendUint32(dst, crc32.ChecksumIEEE(dst[start:]))
}
