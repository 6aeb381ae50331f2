package cbdt

import (
	"log/slog"
	"sync/atomic"
)

var logger atomic.Pointer[slog.Logger]

func init() {
	SetLogger(nil)
}

// SetLogger routes the diagnostics of the table builders and of the
// fontbuild, fontsrc and imgsrc packages to l. Nil discards them, which is
// also the state before the first call.
//
// What is logged at each level:
//   - [slog.LevelDebug]: "glyph encoded" with the image-data offset of each
//     glyph, "index table built" with the run count, and the per-file
//     decisions of the builder ("image skipped", "no glyph for image",
//     "png chunks stripped", "font resolved as system font").
//   - [slog.LevelInfo]: "bitmap strike built" with the ppem and table
//     sizes, and the fontbuild steps "images found", "font loaded" and
//     "font written".
//   - [slog.LevelWarn]: "line metric saturated", when the scaled ascender
//     or descender of a strike does not fit the signed byte of the
//     sbitLineMetrics record and is clamped to -128 or 127.
//
// The emoji-builder command installs a text handler on stderr and lowers
// the level to Debug with -v:
//
//	cbdt.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(slog.DiscardHandler)
	}
	logger.Store(l)
}

// Logger returns the logger set by SetLogger. It is safe to call from the
// encoder workers.
func Logger() *slog.Logger {
	return logger.Load()
}
