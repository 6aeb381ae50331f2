// Package fontbuild embeds a directory of glyph images into a font file.
//
// Run performs the whole pipeline: scan the image directory, map each
// image to a glyph through the font's character map, load the images,
// build the strike and write a copy of the font with the two bitmap
// tables installed.
package fontbuild

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"golang.org/x/text/unicode/runenames"

	"github.com/gogpu/cbdt"
	"github.com/gogpu/cbdt/fontsrc"
	"github.com/gogpu/cbdt/imgsrc"
	"github.com/gogpu/cbdt/internal/parallel"
	"github.com/gogpu/cbdt/sfntfile"
)

// ErrMissingPath is returned when one of the three paths is not set.
var ErrMissingPath = errors.New("fontbuild: image directory, font and output path are required")

// Config describes one build.
type Config struct {
	ImageDir string
	FontPath string // file path or the name of an installed font
	OutPath  string

	// Format selects raw pixels or embedded PNG streams. Zero means PNG.
	Format cbdt.ImageFormat

	// StripChunks removes ancillary PNG chunks not in AllowedChunks
	// (pngchunk.DefaultAllowed when nil).
	StripChunks   bool
	AllowedChunks []string

	// PPEM fixes the strike size. Zero derives it from the advances.
	PPEM uint8

	// Resize scales every image to this height in pixels. Zero keeps the
	// original sizes.
	Resize int

	// Tables names the table pair written. Zero means cbdt.ColorTables.
	Tables cbdt.TablePair

	// Parser is the fontsrc backend. Empty means fontsrc.DefaultParser.
	Parser string

	// Workers is the number of goroutines loading and encoding images.
	// Values below 1 use one per CPU.
	Workers int

	Verify  bool
	Version uint32 // zero means cbdt.Version2

	// DropTables are removed from the font before saving.
	DropTables []string
}

// Report summarizes a finished build.
type Report struct {
	Images         int      // image files found
	Glyphs         int      // glyphs embedded
	Skipped        int      // images without a glyph in the font
	SkippedChars   []string // "U+263A WHITE SMILING FACE (smile.png)" per skipped image
	ImageDataBytes int
	IndexBytes     int
	Runs           int
	PPEM           uint8
	OutputBytes    int64
}

type job struct {
	r    rune
	gid  uint16
	path string
}

// Run executes the build described by cfg.
func Run(cfg Config) (*Report, error) {
	if cfg.ImageDir == "" || cfg.FontPath == "" || cfg.OutPath == "" {
		return nil, ErrMissingPath
	}
	if cfg.Format == cbdt.FormatNone {
		cfg.Format = cbdt.FormatPNG
	}
	if cfg.Tables == (cbdt.TablePair{}) {
		cfg.Tables = cbdt.ColorTables
	}
	if cfg.Parser == "" {
		cfg.Parser = fontsrc.DefaultParser
	}
	if cfg.Version == 0 {
		cfg.Version = cbdt.Version2
	}
	log := cbdt.Logger()

	images, err := imgsrc.ScanDir(cfg.ImageDir)
	if err != nil {
		return nil, err
	}
	log.Info("images found", "count", len(images), "dir", cfg.ImageDir)

	fontPath, err := fontsrc.Resolve(cfg.FontPath)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(fontPath)
	if err != nil {
		return nil, err
	}
	file, err := sfntfile.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fontPath, err)
	}
	font, err := fontsrc.Parse(data, cfg.Parser)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fontPath, err)
	}
	log.Info("font loaded", "path", fontPath, "parser", cfg.Parser, "glyphs", file.NumGlyphs())

	rep := &Report{Images: len(images)}
	jobs := mapImages(font, images, rep)
	if len(jobs) == 0 {
		return nil, fmt.Errorf("%s and %s: %w", cfg.ImageDir, fontPath, cbdt.ErrNoCommonGlyphs)
	}

	glyphs, err := loadGlyphs(font, jobs, cfg)
	if err != nil {
		return nil, err
	}

	strike, err := cbdt.Build(fontsrc.Metrics(font), glyphs,
		cbdt.WithVersion(cfg.Version),
		cbdt.WithWorkers(workers(cfg.Workers)),
		cbdt.WithPPEM(cfg.PPEM),
		cbdt.WithVerify(cfg.Verify))
	if err != nil {
		return nil, err
	}

	for tag, table := range strike.Tables(cfg.Tables) {
		if err := file.Install(tag, table); err != nil {
			return nil, err
		}
	}
	file.Drop(cfg.DropTables...)

	n, err := file.Save(cfg.OutPath)
	if err != nil {
		return nil, err
	}
	log.Info("font written", "path", cfg.OutPath, "bytes", n)

	rep.Glyphs = len(glyphs)
	rep.ImageDataBytes = len(strike.ImageData)
	rep.IndexBytes = len(strike.Index)
	rep.Runs = len(strike.Runs)
	rep.PPEM = strike.Metrics.YPpem
	rep.OutputBytes = n
	return rep, nil
}

// mapImages resolves every image to a glyph, in code point order. Images
// without a glyph, or naming a glyph another image already claimed, are
// counted as skipped.
func mapImages(font fontsrc.Font, images map[rune]string, rep *Report) []job {
	log := cbdt.Logger()
	runes := make([]rune, 0, len(images))
	for r := range images {
		runes = append(runes, r)
	}
	slices.Sort(runes)

	claimed := make(map[uint16]rune, len(runes))
	jobs := make([]job, 0, len(runes))
	for _, r := range runes {
		gid, ok := font.GlyphIndex(r)
		if !ok || gid == 0 {
			log.Debug("no glyph for image", "char", charLabel(r), "file", images[r])
			rep.skip(r, images[r])
			continue
		}
		if prev, dup := claimed[gid]; dup {
			log.Debug("glyph already has an image", "char", charLabel(r),
				"gid", gid, "first", charLabel(prev), "file", images[r])
			rep.skip(r, images[r])
			continue
		}
		claimed[gid] = r
		jobs = append(jobs, job{r: r, gid: gid, path: images[r]})
	}
	return jobs
}

// loadGlyphs reads all images on a worker pool. The first failure in code
// point order is returned.
func loadGlyphs(font fontsrc.Font, jobs []job, cfg Config) ([]cbdt.Glyph, error) {
	opts := imgsrc.Options{
		StripChunks: cfg.StripChunks,
		Allowed:     cfg.AllowedChunks,
		Height:      cfg.Resize,
	}
	glyphs := make([]cbdt.Glyph, len(jobs))
	errs := make([]error, len(jobs))

	load := func(i int) {
		j := jobs[i]
		g := cbdt.Glyph{GID: cbdt.GlyphID(j.gid), Source: j.path}
		source := j.path + ", " + charLabel(j.r)
		adv, err := font.AdvanceWidth(j.gid)
		if err != nil {
			errs[i] = &cbdt.GlyphError{GID: g.GID, Source: source, Err: err}
			return
		}
		g.Advance = int(adv)
		if g.Image, err = imgsrc.Load(j.path, cfg.Format, opts); err != nil {
			errs[i] = &cbdt.GlyphError{GID: g.GID, Source: source, Err: err}
			return
		}
		glyphs[i] = g
	}

	pool := parallel.NewWorkerPool(min(workers(cfg.Workers), len(jobs)))
	defer pool.Close()
	work := make([]func(), len(jobs))
	for i := range jobs {
		work[i] = func() { load(i) }
	}
	pool.ExecuteAll(work)

	for i, err := range errs {
		if err != nil {
			return nil, err
		}
		cbdt.Logger().Debug("image loaded",
			"char", charLabel(jobs[i].r),
			"gid", jobs[i].gid,
			"file", jobs[i].path)
	}
	return glyphs, nil
}

func (rep *Report) skip(r rune, path string) {
	rep.Skipped++
	rep.SkippedChars = append(rep.SkippedChars, fmt.Sprintf("%s (%s)", charLabel(r), filepath.Base(path)))
}

// charLabel formats r as "U+1F4A9 PILE OF POO". Unassigned code points
// and placeholders such as "<Private Use>" get the number only.
func charLabel(r rune) string {
	if name := runenames.Name(r); name != "" && !strings.HasPrefix(name, "<") {
		return fmt.Sprintf("U+%04X %s", r, name)
	}
	return fmt.Sprintf("U+%04X", r)
}

func workers(n int) int {
	if n < 1 {
		return runtime.GOMAXPROCS(0)
	}
	return n
}
