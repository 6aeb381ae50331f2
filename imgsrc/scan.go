// Package imgsrc finds glyph images on disk and turns them into images the
// codec can embed.
package imgsrc

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/gogpu/cbdt"
)

// stemPrefixes are the file name prefixes accepted in front of the hex
// code point, longest first.
var stemPrefixes = []string{"emoji_u", "uni", "u", ""}

// ParseStem returns the code point named by an image file stem such as
// "1F4A9", "u1F4A9", "uni1F4A9" or "emoji_u1f4a9". Stems naming a
// sequence of code points ("emoji_u1f1fa_1f1f8") are not single
// characters and are rejected.
func ParseStem(stem string) (rune, bool) {
	lower := strings.ToLower(stem)
	for _, prefix := range stemPrefixes {
		hex, ok := strings.CutPrefix(lower, prefix)
		if !ok || hex == "" || len(hex) > 6 {
			continue
		}
		v, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			continue
		}
		r := rune(v)
		if !utf8.ValidRune(r) {
			return 0, false
		}
		return r, true
	}
	return 0, false
}

// ScanDir maps every PNG file in dir whose name is a code point to its
// path. Other files are skipped and logged at debug level.
func ScanDir(dir string) (map[rune]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	log := cbdt.Logger()
	images := make(map[rune]string)
	for _, e := range entries {
		name := e.Name()
		ext := filepath.Ext(name)
		if e.IsDir() || !strings.EqualFold(ext, ".png") {
			continue
		}
		r, ok := ParseStem(strings.TrimSuffix(name, ext))
		if !ok {
			log.Debug("image skipped", "file", name, "reason", "not a single code point")
			continue
		}
		if prev, dup := images[r]; dup {
			log.Debug("image skipped", "file", name, "reason", "duplicate of "+filepath.Base(prev))
			continue
		}
		images[r] = filepath.Join(dir, name)
	}

	if len(images) == 0 {
		return nil, fmt.Errorf("%s/*.png: %w", dir, cbdt.ErrNoImages)
	}
	return images, nil
}
