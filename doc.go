// Package curvetext renders vector glyph outlines directly on the GPU
// using per-pixel analytic coverage, with no intermediate bitmap atlas.
//
// # Overview
//
// Each glyph is stored as a contiguous range of quadratic Bezier curves in a
// shared, read-only curve table. For every covered pixel, the coverage
// evaluator intersects the glyph's curves with the horizontal line through
// the pixel, accumulates signed crossing contributions (winding), and
// resolves the sum into an anti-aliased alpha value. Because the test is
// analytic, the result is resolution independent: the same curve data
// renders crisply at any scale or rotation.
//
// # Pipeline
//
//	Font file -> CurveExtractor -> FontTable (curves + glyph index)
//	FontTable + Config -> Compositor -> per-pixel Coverage()
//	Coverage -> blend weight against the glyph fill color
//
// The per-pixel evaluation is embarrassingly parallel and read-only over the
// FontTable. The CPU reference path (Rasterizer) maps pixel rows over a
// small worker set; the GPU path (internal/gpu) dispatches the same
// evaluation as a WGSL compute shader via gogpu/wgpu.
//
// # Quick Start
//
//	f, _ := sfnt.Parse(fontBytes)
//	b := curvetext.NewFontTableBuilder()
//	ex := curvetext.NewCurveExtractor()
//	id, _ := ex.AppendGlyph(b, f, glyphIndex, 64)
//	table, _ := b.Build()
//
//	comp, _ := curvetext.NewCompositor(table, curvetext.DefaultConfig())
//	alpha := comp.Coverage(id, uv, footprint)
//
// # Anti-Aliasing
//
// Coverage near an edge is resolved with a linear ramp whose width is the
// screen-space footprint of the pixel scaled by Config.WindowSize. An
// optional supersampling refinement re-evaluates the curves in a frame
// rotated 90 degrees, catching edges nearly parallel to the scanline that
// the primary pass under-samples. It roughly doubles per-pixel cost and is
// enabled by default.
//
// # Scope
//
// curvetext handles quadratic curves only; cubic outline segments are
// approximated by quadratic splines at extraction time. Glyph caching,
// subpixel color filtering, and text shaping/layout are out of scope.
package curvetext
