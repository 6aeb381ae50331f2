package fontsrc

import (
	"errors"
	"fmt"
	"os"

	"github.com/flopp/go-findfont"

	"github.com/gogpu/cbdt"
)

// ErrFontNotFound is returned by Resolve when nameOrPath is neither an
// existing file nor an installed font.
var ErrFontNotFound = errors.New("fontsrc: font not found")

// findFont is swapped out in tests.
var findFont = findfont.Find

// Resolve returns nameOrPath if it names an existing file, and otherwise
// looks it up among the fonts installed on the system ("NotoColorEmoji.ttf",
// "DejaVuSans").
func Resolve(nameOrPath string) (string, error) {
	if fi, err := os.Stat(nameOrPath); err == nil && !fi.IsDir() {
		return nameOrPath, nil
	}
	path, err := findFont(nameOrPath)
	if err != nil || path == "" {
		return "", fmt.Errorf("%w: %s", ErrFontNotFound, nameOrPath)
	}
	cbdt.Logger().Debug("font resolved as system font", "name", nameOrPath, "path", path)
	return path, nil
}
