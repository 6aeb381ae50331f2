// Command cbdt-dump prints the bitmap strikes embedded in a font.
//
// Usage:
//
//	cbdt-dump [-glyphs] [-extract dir] font
//
// Both the color (CBDT/CBLC) and the original (EBDT/EBLC) table pairs
// are listed when present.
package main

import (
	"errors"
	"flag"
	"fmt"
	"image/png"
	"io"
	"os"
	"path/filepath"

	"github.com/gogpu/cbdt"
	"github.com/gogpu/cbdt/reader"
	"github.com/gogpu/cbdt/sfntfile"
)

var errNoBitmaps = errors.New("font has no bitmap tables")

type options struct {
	glyphs  bool
	extract string
}

func main() {
	var opts options
	flag.BoolVar(&opts.glyphs, "glyphs", false, "list every glyph")
	flag.StringVar(&opts.extract, "extract", "", "write every glyph image to this directory as PNG")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] font\n\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	f, err := sfntfile.Open(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "cbdt-dump: %v\n", err)
		os.Exit(1)
	}
	if err := dump(os.Stdout, f, opts); err != nil {
		fmt.Fprintf(os.Stderr, "cbdt-dump: %v\n", err)
		os.Exit(1)
	}
}

func dump(w io.Writer, f *sfntfile.File, opts options) error {
	found := false
	for _, pair := range []cbdt.TablePair{cbdt.ColorTables, cbdt.MonochromeTables} {
		if !f.Has(pair.Data, pair.Index) {
			continue
		}
		found = true
		if err := dumpPair(w, f, pair, opts); err != nil {
			return fmt.Errorf("%s/%s: %w", pair.Data, pair.Index, err)
		}
	}
	if !found {
		return errNoBitmaps
	}
	return nil
}

func dumpPair(w io.Writer, f *sfntfile.File, pair cbdt.TablePair, opts options) error {
	r, err := reader.New(f.Table(pair.Data), f.Table(pair.Index))
	if err != nil {
		return err
	}
	major, minor := r.Version()
	fmt.Fprintf(w, "%s/%s version %d.%d, %d bytes/%d bytes, %d strike(s)\n",
		pair.Data, pair.Index, major, minor,
		len(f.Table(pair.Data)), len(f.Table(pair.Index)), r.NumStrikes())

	for i := 0; i < r.NumStrikes(); i++ {
		s, err := r.Strike(i)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "strike %d: ppem %dx%d, bit depth %d, glyphs %d-%d, ascender %d, descender %d, width max %d\n",
			i, s.PPEMX, s.PPEMY, s.BitDepth, s.StartGlyph, s.EndGlyph,
			s.Hori.Ascender, s.Hori.Descender, s.Hori.WidthMax)

		runs, err := r.Runs(i)
		if err != nil {
			return err
		}
		for _, run := range runs {
			fmt.Fprintf(w, "  run %d-%d: index format %d, image format %d, data at %d\n",
				run.First, run.Last, run.IndexFormat, run.ImageFormat, run.ImageDataOffset)
			if !opts.glyphs && opts.extract == "" {
				continue
			}
			for gid := int(run.First); gid <= int(run.Last); gid++ {
				if err := dumpGlyph(w, r, uint16(gid), i, opts); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func dumpGlyph(w io.Writer, r *reader.Reader, gid uint16, strike int, opts options) error {
	g, err := r.Glyph(gid, strike)
	if errors.Is(err, reader.ErrGlyphNotInStrike) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("glyph %d: %w", gid, err)
	}
	if opts.glyphs {
		fmt.Fprintf(w, "    glyph %d: %s %dx%d, bearing %d,%d, advance %d, %d bytes\n",
			gid, g.Format, g.Width, g.Height, g.BearingX, g.BearingY, g.Advance, len(g.Data))
	}
	if opts.extract != "" {
		return extract(g, filepath.Join(opts.extract, fmt.Sprintf("%d-%d.png", g.PPEM, gid)))
	}
	return nil
}

func extract(g *reader.BitmapGlyph, path string) error {
	if g.Format == reader.FormatPNG {
		return os.WriteFile(path, g.Data, 0o644)
	}
	img, err := g.Decode()
	if err != nil {
		return fmt.Errorf("glyph %d: %w", g.GlyphID, err)
	}
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(out, img); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
