// Command emoji-builder embeds a directory of PNG images into a font as a
// color bitmap strike.
//
// Usage:
//
//	emoji-builder [flags] img-dir font out-font
//
// Images are named after the character they depict, e.g. 1F4A9.png,
// u1F4A9.png or emoji_u1f4a9.png. font is a path or the name of an
// installed font.
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/gogpu/cbdt"
	"github.com/gogpu/cbdt/fontbuild"
	"github.com/gogpu/cbdt/fontsrc"
)

func main() {
	var (
		format  = flag.String("format", "png", "image format: png (17) or raw (1)")
		strip   = flag.Bool("strip", false, "remove ancillary PNG chunks")
		keep    = flag.String("keep", "", "comma-separated PNG chunks kept by -strip (default: color and transparency chunks)")
		ppem    = flag.Uint("ppem", 0, "fix the strike size in pixels per em (default: derived)")
		resize  = flag.Int("resize", 0, "scale images to this height in pixels")
		tables  = flag.String("tables", "cbdt", "table pair: cbdt (CBDT/CBLC) or ebdt (EBDT/EBLC)")
		parser  = flag.String("parser", fontsrc.DefaultParser, "font parser: "+strings.Join(fontsrc.Parsers(), ", "))
		workers = flag.Int("workers", 0, "goroutines loading images (default: one per CPU)")
		verify  = flag.Bool("verify", false, "decode the generated tables and check every glyph")
		version = flag.Uint("version", 2, "table version: 2 or 3")
		drop    = flag.String("drop", "", "comma-separated tables to remove from the font")
		verbose = flag.Bool("v", false, "log every image")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] img-dir font out-font\n\n", os.Args[0])
		fmt.Fprintln(flag.CommandLine.Output(), "In the image dir you should have files named like 1F4A9.png.")
		fmt.Fprintln(flag.CommandLine.Output())
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 3 {
		flag.Usage()
		os.Exit(2)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	cbdt.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	cfg := fontbuild.Config{
		ImageDir:    flag.Arg(0),
		FontPath:    flag.Arg(1),
		OutPath:     flag.Arg(2),
		StripChunks: *strip,
		Resize:      *resize,
		Parser:      *parser,
		Workers:     *workers,
		Verify:      *verify,
	}

	var err error
	if cfg.Format, err = parseFormat(*format); err != nil {
		fatal(err)
	}
	if cfg.Tables, err = parseTables(*tables); err != nil {
		fatal(err)
	}
	switch *version {
	case 2:
		cfg.Version = cbdt.Version2
	case 3:
		cfg.Version = cbdt.Version3
	default:
		fatal(fmt.Errorf("-version must be 2 or 3, not %d", *version))
	}
	if *ppem > 255 {
		fatal(fmt.Errorf("-ppem must be at most 255, not %d", *ppem))
	}
	cfg.PPEM = uint8(*ppem)
	cfg.AllowedChunks = splitList(*keep)
	cfg.DropTables = splitList(*drop)

	rep, err := fontbuild.Run(cfg)
	if err != nil {
		fatal(err)
	}

	printReport(os.Stdout, cfg, rep)
}

func printReport(w io.Writer, cfg fontbuild.Config, rep *fontbuild.Report) {
	fmt.Fprintf(w, "Found images for %d characters in '%s'.\n", rep.Images, cfg.ImageDir)
	if rep.Skipped > 0 {
		fmt.Fprintf(w, "Skipped %d images without a glyph in the font:\n", rep.Skipped)
		for _, c := range rep.SkippedChars {
			fmt.Fprintf(w, "  %s\n", c)
		}
	}
	fmt.Fprintf(w, "Embedding images for %d glyphs in %d runs at %d ppem.\n", rep.Glyphs, rep.Runs, rep.PPEM)
	fmt.Fprintf(w, "%s table synthesized: %d bytes.\n", cfg.Tables.Data, rep.ImageDataBytes)
	fmt.Fprintf(w, "%s table synthesized: %d bytes.\n", cfg.Tables.Index, rep.IndexBytes)
	fmt.Fprintf(w, "Output font '%s' generated: %d bytes.\n", cfg.OutPath, rep.OutputBytes)
}

func parseFormat(s string) (cbdt.ImageFormat, error) {
	switch strings.ToLower(s) {
	case "png", "17":
		return cbdt.FormatPNG, nil
	case "raw", "1":
		return cbdt.FormatRaw, nil
	}
	return cbdt.FormatNone, fmt.Errorf("unknown image format %q", s)
}

func parseTables(s string) (cbdt.TablePair, error) {
	switch strings.ToLower(s) {
	case "cbdt", "cblc":
		return cbdt.ColorTables, nil
	case "ebdt", "eblc":
		return cbdt.MonochromeTables, nil
	}
	return cbdt.TablePair{}, fmt.Errorf("unknown table pair %q", s)
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "emoji-builder: %v\n", err)
	if cbdt.KindOf(err) == cbdt.KindInvariant {
		os.Exit(3)
	}
	os.Exit(1)
}
