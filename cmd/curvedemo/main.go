// Command curvedemo renders a line of text to a PNG using the analytic
// curve coverage rasterizer.
package main

import (
	"flag"
	"image"
	"image/draw"
	"image/png"
	"log"
	"os"

	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/sfnt"

	"github.com/gogpu/curvetext"
)

func main() {
	var (
		text        = flag.String("text", "curvetext", "text to render")
		size        = flag.Float64("size", 96, "glyph size in pixels per em")
		output      = flag.String("output", "text.png", "output file")
		window      = flag.Float64("window", 1.0, "anti-aliasing window multiplier")
		supersample = flag.Bool("supersample", true, "enable the rotated refinement pass")
	)
	flag.Parse()

	f, err := sfnt.Parse(goregular.TTF)
	if err != nil {
		log.Fatalf("parse font: %v", err)
	}

	extractor := curvetext.NewCurveExtractor()
	builder := curvetext.NewFontTableBuilder()

	var buf sfnt.Buffer
	var ids []curvetext.GlyphID
	for _, r := range *text {
		gi, err := f.GlyphIndex(&buf, r)
		if err != nil {
			log.Fatalf("glyph index for %q: %v", r, err)
		}
		id, err := extractor.AppendGlyph(builder, f, gi, float32(*size))
		if err != nil {
			log.Fatalf("extract %q: %v", r, err)
		}
		ids = append(ids, id)
	}

	font, err := builder.Build()
	if err != nil {
		log.Fatalf("build font table: %v", err)
	}

	cfg := curvetext.Config{
		WindowSize:  float32(*window),
		Supersample: *supersample,
	}
	comp, err := curvetext.NewCompositor(font, cfg)
	if err != nil {
		log.Fatalf("compositor: %v", err)
	}
	raster := curvetext.NewRasterizer(comp)

	img := composeLine(font, raster, ids)
	if err := savePNG(*output, img); err != nil {
		log.Fatalf("save: %v", err)
	}
	log.Printf("rendered %q to %s (%dx%d)", *text, *output, img.Rect.Dx(), img.Rect.Dy())
}

// composeLine rasterizes each glyph and places the results on a shared
// baseline with a small gap between glyphs.
func composeLine(font *curvetext.FontTable, raster *curvetext.Rasterizer, ids []curvetext.GlyphID) *image.RGBA {
	const pad = 4
	const gap = 6

	// Shared vertical extent across the line.
	var ascent, descent float32
	for _, id := range ids {
		b := font.Bounds(id)
		if b.IsEmpty() {
			continue
		}
		if b.MaxY > ascent {
			ascent = b.MaxY
		}
		if b.MinY < descent {
			descent = b.MinY
		}
	}

	type placed struct {
		img *image.Alpha
		top int
	}
	var glyphs []placed
	width := pad
	for _, id := range ids {
		b := font.Bounds(id)
		if b.IsEmpty() {
			// No outline (e.g. space): advance by a fraction of the line height.
			width += int((ascent - descent) / 3)
			continue
		}
		a := raster.Rasterize(id, 1, pad)
		glyphs = append(glyphs, placed{img: a, top: int(ascent - b.MaxY)})
		width += a.Rect.Dx() - 2*pad + gap
	}
	height := int(ascent-descent) + 2*pad

	dst := image.NewRGBA(image.Rect(0, 0, width+pad, height))
	draw.Draw(dst, dst.Rect, image.White, image.Point{}, draw.Src)

	x := pad
	for _, g := range glyphs {
		r := image.Rect(x-pad, g.top, x-pad+g.img.Rect.Dx(), g.top+g.img.Rect.Dy())
		draw.DrawMask(dst, r, image.Black, image.Point{}, g.img, image.Point{}, draw.Over)
		x += g.img.Rect.Dx() - 2*pad + gap
	}
	return dst
}

func savePNG(path string, img image.Image) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()
	return png.Encode(out, img)
}
