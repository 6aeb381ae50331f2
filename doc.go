// Package cbdt builds embedded-bitmap strike tables for OpenType fonts.
//
// # Overview
//
// A strike is the set of bitmaps a font carries for one pixel size. It is
// stored in two tables: an image-data table (CBDT or EBDT) holding every
// glyph's image behind a small metrics header, and an index table (CBLC or
// EBLC) describing the strike and locating each glyph's bytes through
// index sub-tables, one per run of consecutive glyph IDs sharing an image
// format.
//
// The package is the codec only. It never reads fonts or image files;
// callers supply font-wide metrics and already decoded images, and get the
// two table blobs back. The sub-packages provide the rest of the tool
// chain:
//   - fontsrc: font metrics and character mapping
//   - imgsrc: image directory scanning and decoding
//   - pngchunk: PNG chunk filtering
//   - sfntfile: installing tables into a font file
//   - reader: decoding table pairs
//   - fontbuild: the end-to-end pipeline used by cmd/emoji-builder
//
// # Quick Start
//
//	fm := cbdt.FontMetrics{UnitsPerEm: 2048, Ascent: 1900, Descent: 500}
//	strike, err := cbdt.Build(fm, []cbdt.Glyph{
//	    {GID: 1234, Advance: 2550, Image: &cbdt.PNGImage{Data: data, Width: 136, Height: 128}},
//	})
//	if err != nil {
//	    return err
//	}
//	for tag, data := range strike.Tables(cbdt.ColorTables) {
//	    font.Install(tag, data)
//	}
//
// # Image Formats
//
// Two image formats are written: format 1 stores premultiplied ARGB pixels
// as little-endian 32-bit words (see RawImage), format 17 embeds a PNG
// stream unchanged (see PNGImage). Every glyph gets small glyph metrics
// with a zero horizontal bearing, an advance equal to its width and a
// vertical bearing that centers it in the font's line box.
//
// # Strike Size
//
// The pixels-per-em of the strike is derived from the mean image width and
// mean advance of the glyphs. A value outside 1..255 is an error;
// WithPPEM fixes the size instead.
//
// # Errors
//
// Build fails as a whole, never with partial tables. KindOf classifies the
// returned errors. Failures tied to one glyph are wrapped in *GlyphError.
package cbdt
