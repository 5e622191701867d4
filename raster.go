package curvetext

import (
	"image"
	"sync"

	"github.com/chewxy/math32"
)

// Rasterizer renders glyphs to alpha images on the CPU using the analytic
// coverage evaluator. It is the reference implementation of the massively
// parallel per-pixel model: each pixel's coverage is independent, so rows
// are mapped over a small worker set with no shared mutable state.
//
// The GPU path in internal/gpu evaluates the same function per fragment;
// the rasterizer exists for testing, tooling, and machines without a
// usable GPU.
type Rasterizer struct {
	comp *Compositor

	// workers is the number of row-processing goroutines per Rasterize call.
	workers int
}

// NewRasterizer creates a rasterizer over the given compositor.
func NewRasterizer(comp *Compositor) *Rasterizer {
	return &Rasterizer{
		comp:    comp,
		workers: 4,
	}
}

// SetWorkers overrides the number of row workers. Values below 1 are
// ignored.
func (r *Rasterizer) SetWorkers(n int) {
	if n >= 1 {
		r.workers = n
	}
}

// Rasterize renders one glyph at the given scale (image pixels per
// glyph-local unit) with pad transparent pixels on every side, and returns
// the coverage as an 8-bit alpha image.
//
// The image's y axis points down while glyph outlines keep the font's
// y-up orientation, so rows are mirrored: row 0 shows the top of the
// glyph. Output is deterministic: pixels are independent and each pixel's
// curve fold runs in strict table order.
func (r *Rasterizer) Rasterize(id GlyphID, scale float32, pad int) *image.Alpha {
	bounds := r.comp.Font().Bounds(id)
	w := int(math32.Ceil(bounds.Width()*scale)) + 2*pad
	h := int(math32.Ceil(bounds.Height()*scale)) + 2*pad
	if w < 2*pad+1 {
		w = 2*pad + 1
	}
	if h < 2*pad+1 {
		h = 2*pad + 1
	}
	img := image.NewAlpha(image.Rect(0, 0, w, h))

	// Each screen pixel advances 1/scale glyph-local units on both axes.
	footprint := Point{X: 1 / scale, Y: 1 / scale}

	var wg sync.WaitGroup
	rowsPerWorker := (h + r.workers - 1) / r.workers
	for w0 := 0; w0 < r.workers; w0++ {
		startRow := w0 * rowsPerWorker
		endRow := min(startRow+rowsPerWorker, h)
		if startRow >= endRow {
			continue
		}
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			r.processRows(img, id, bounds, scale, pad, footprint, start, end)
		}(startRow, endRow)
	}
	wg.Wait()

	return img
}

// processRows evaluates coverage for a contiguous range of image rows.
func (r *Rasterizer) processRows(img *image.Alpha, id GlyphID, bounds Rect, scale float32, pad int, footprint Point, startRow, endRow int) {
	w := img.Rect.Dx()
	for y := startRow; y < endRow; y++ {
		// Mirror rows: image y grows down, glyph y grows up.
		ly := bounds.MaxY - (float32(y)+0.5-float32(pad))/scale
		row := img.Pix[y*img.Stride : y*img.Stride+w]
		for x := 0; x < w; x++ {
			lx := bounds.MinX + (float32(x)+0.5-float32(pad))/scale
			alpha := r.comp.Coverage(id, Point{X: lx, Y: ly}, footprint)
			row[x] = uint8(alpha*255 + 0.5)
		}
	}
}
