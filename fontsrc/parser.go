// Package fontsrc reads the font-wide metrics and character mapping the
// codec needs from an OpenType or TrueType font.
//
// Parsing is done by a pluggable backend. Two are registered: "ximage"
// (golang.org/x/image/font/sfnt, the default) and "gotext"
// (github.com/go-text/typesetting).
package fontsrc

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"sync"

	"github.com/gogpu/cbdt"
)

// ErrUnknownParser is returned for a backend name that is not registered.
var ErrUnknownParser = errors.New("fontsrc: unknown parser")

// Font is the read-only view of a font used to place glyph images.
// Implementations are safe for concurrent use.
type Font interface {
	// UnitsPerEm returns the size of the em square in font units.
	UnitsPerEm() uint16

	// Ascent returns the distance from the baseline to the top of the
	// line, in font units.
	Ascent() int16

	// Descent returns the distance from the baseline to the bottom of the
	// line, in font units. It is positive for lines extending below the
	// baseline.
	Descent() int16

	// AdvanceWidth returns the horizontal advance of a glyph in font units.
	AdvanceWidth(gid uint16) (uint16, error)

	// GlyphIndex returns the glyph mapped to r by the font's character map.
	GlyphIndex(r rune) (uint16, bool)
}

// Parser is a font parsing backend.
type Parser interface {
	// Parse parses font data (TTF or OTF).
	Parse(data []byte) (Font, error)
}

// DefaultParser is the name of the backend used when none is given.
const DefaultParser = "ximage"

var (
	registryMu sync.RWMutex
	registry   = map[string]Parser{
		"ximage": ximageParser{},
		"gotext": gotextParser{},
	}
)

// RegisterParser makes a backend available under name, replacing any
// backend registered under the same name.
func RegisterParser(name string, p Parser) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = p
}

// Parsers returns the names of all registered backends, sorted.
func Parsers() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func getParser(name string) (Parser, error) {
	if name == "" {
		name = DefaultParser
	}
	registryMu.RLock()
	defer registryMu.RUnlock()
	p, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownParser, name)
	}
	return p, nil
}

// Parse parses font data with the named backend. An empty name selects
// DefaultParser.
func Parse(data []byte, parser string) (Font, error) {
	p, err := getParser(parser)
	if err != nil {
		return nil, err
	}
	return p.Parse(data)
}

// Open reads and parses the font file at path.
func Open(path, parser string) (Font, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f, err := Parse(data, parser)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Metrics returns the font-wide metrics of f in the form used by the codec.
func Metrics(f Font) cbdt.FontMetrics {
	return cbdt.FontMetrics{
		UnitsPerEm: f.UnitsPerEm(),
		Ascent:     f.Ascent(),
		Descent:    f.Descent(),
	}
}
