package curvetext

import (
	"fmt"
)

// FontTable holds the shared curve store and the glyph index for one loaded
// font. Curves for all glyphs live in a single flat slice; each glyph names
// a contiguous (start, count) range of it.
//
// A FontTable is immutable after construction and safe for concurrent use:
// every evaluation pass is read-only. The only lifecycle is bulk load
// (Build or NewFontTable) and bulk discard (dropping the table); individual
// curves are never added or removed.
type FontTable struct {
	curves []Curve
	glyphs []Glyph
	bounds []Rect
}

// NewFontTable builds a table from prepared curve and glyph slices,
// validating every glyph range against the curve store. The slices are
// retained, not copied; the caller must not mutate them afterwards.
func NewFontTable(curves []Curve, glyphs []Glyph) (*FontTable, error) {
	n := uint32(len(curves))
	bounds := make([]Rect, len(glyphs))
	for i, g := range glyphs {
		if g.Start > n || g.Count > n-g.Start {
			return nil, &RangeError{Glyph: GlyphID(i), Start: g.Start, Count: g.Count, Curves: len(curves)}
		}
		bounds[i] = glyphBounds(curves[g.Start : g.Start+g.Count])
	}
	return &FontTable{
		curves: curves,
		glyphs: glyphs,
		bounds: bounds,
	}, nil
}

// glyphBounds returns the union of the control-point bounds of a curve run.
func glyphBounds(curves []Curve) Rect {
	if len(curves) == 0 {
		return Rect{}
	}
	b := curves[0].Bounds()
	for _, c := range curves[1:] {
		b = b.Union(c.Bounds())
	}
	return b
}

// NumGlyphs returns the number of glyphs in the table.
func (t *FontTable) NumGlyphs() int {
	return len(t.glyphs)
}

// NumCurves returns the total number of curves in the shared store.
func (t *FontTable) NumCurves() int {
	return len(t.curves)
}

// Glyph returns the curve range for a glyph.
// Returns false if the id is out of range.
func (t *FontTable) Glyph(id GlyphID) (Glyph, bool) {
	if int(id) >= len(t.glyphs) {
		return Glyph{}, false
	}
	return t.glyphs[id], true
}

// Curves returns the curve run for a glyph. The returned slice aliases the
// shared store and must be treated as read-only. Returns nil if the id is
// out of range.
func (t *FontTable) Curves(id GlyphID) []Curve {
	g, ok := t.Glyph(id)
	if !ok {
		return nil
	}
	return t.curves[g.Start : g.Start+g.Count]
}

// Bounds returns the control-point bounding box of a glyph in glyph-local
// coordinates. Returns the zero Rect if the id is out of range.
func (t *FontTable) Bounds(id GlyphID) Rect {
	if int(id) >= len(t.bounds) {
		return Rect{}
	}
	return t.bounds[id]
}

// RawCurves returns the full curve store in table order, for buffer upload.
// Read-only.
func (t *FontTable) RawCurves() []Curve {
	return t.curves
}

// RawGlyphs returns the full glyph index in table order, for buffer upload.
// Read-only.
func (t *FontTable) RawGlyphs() []Glyph {
	return t.glyphs
}

// RangeError reports a glyph whose curve range does not fit the curve store.
// It is surfaced at load time; evaluation assumes validated tables and does
// not re-check ranges per pixel.
type RangeError struct {
	Glyph  GlyphID
	Start  uint32
	Count  uint32
	Curves int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("curvetext: glyph %d range [%d, %d) exceeds curve store of %d",
		e.Glyph, e.Start, e.Start+e.Count, e.Curves)
}

// FontTableBuilder accumulates glyph curve ranges and produces a FontTable.
// It is the load-time half of the bulk load / bulk discard lifecycle: append
// each glyph's curves in order, then Build once.
type FontTableBuilder struct {
	curves []Curve
	glyphs []Glyph
}

// NewFontTableBuilder creates an empty builder.
func NewFontTableBuilder() *FontTableBuilder {
	return &FontTableBuilder{}
}

// AddGlyph appends a glyph whose outline is the given curve run and returns
// its id. The curves are copied into the shared store; they must form
// closed contour loops for winding accumulation to be well defined.
func (b *FontTableBuilder) AddGlyph(curves []Curve) GlyphID {
	id := GlyphID(len(b.glyphs))
	b.glyphs = append(b.glyphs, Glyph{
		Start: uint32(len(b.curves)),
		Count: uint32(len(curves)),
	})
	b.curves = append(b.curves, curves...)
	return id
}

// NumGlyphs returns the number of glyphs added so far.
func (b *FontTableBuilder) NumGlyphs() int {
	return len(b.glyphs)
}

// Build validates the accumulated data and returns the immutable table.
// The builder must not be reused afterwards.
func (b *FontTableBuilder) Build() (*FontTable, error) {
	return NewFontTable(b.curves, b.glyphs)
}
