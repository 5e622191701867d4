package curvetext

import (
	"fmt"

	"github.com/chewxy/math32"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

// defaultQuadTolerance is the maximum distance, in the same units as the
// extracted outline, between a cubic outline segment and its quadratic
// spline approximation.
const defaultQuadTolerance = 0.1

// CurveExtractor converts glyph outlines from a parsed font into the flat
// quadratic-curve form the coverage evaluator consumes. It reuses an
// internal sfnt buffer across calls and is not safe for concurrent use;
// create one extractor per loading goroutine.
//
// Every contour is closed on extraction: straight segments become
// degenerate quadratics (control point at the midpoint), cubic segments
// are approximated by quadratic splines, and an open contour gets an
// explicit closing segment back to its start. Closure is a hard
// requirement of the winding accumulation downstream.
type CurveExtractor struct {
	buf sfnt.Buffer

	// tolerance bounds the cubic-to-quadratic approximation error.
	tolerance float32
}

// NewCurveExtractor creates an extractor with the default approximation
// tolerance.
func NewCurveExtractor() *CurveExtractor {
	return &CurveExtractor{tolerance: defaultQuadTolerance}
}

// SetTolerance overrides the cubic approximation tolerance. Values that are
// not positive are ignored.
func (e *CurveExtractor) SetTolerance(tol float32) {
	if tol > 0 {
		e.tolerance = tol
	}
}

// AppendGlyph loads one glyph's outline at the given size (pixels per em),
// converts it to quadratic curves, and appends it to the builder. It
// returns the id the glyph will have in the built table.
//
// Glyphs with no outline (such as a space) are appended with an empty
// curve range; they composite to zero coverage everywhere.
func (e *CurveExtractor) AppendGlyph(b *FontTableBuilder, f *sfnt.Font, gi sfnt.GlyphIndex, ppem float32) (GlyphID, error) {
	segments, err := f.LoadGlyph(&e.buf, gi, fixed.Int26_6(ppem*64), nil)
	if err != nil {
		return 0, fmt.Errorf("curvetext: load glyph %d: %w", gi, err)
	}
	curves, err := segmentsToCurves(segments, e.tolerance)
	if err != nil {
		return 0, fmt.Errorf("curvetext: glyph %d: %w", gi, err)
	}
	return b.AddGlyph(curves), nil
}

// segmentsToCurves converts a glyph's path segments into closed runs of
// quadratic curves.
func segmentsToCurves(segments sfnt.Segments, tolerance float32) ([]Curve, error) {
	var (
		curves []Curve
		start  Point
		pos    Point
		open   bool
	)

	closeContour := func() {
		if open && pos != start {
			curves = append(curves, lineCurve(pos, start))
		}
		open = false
	}

	for _, seg := range segments {
		switch seg.Op {
		case sfnt.SegmentOpMoveTo:
			closeContour()
			start = fixedPoint(seg.Args[0])
			pos = start
			open = true

		case sfnt.SegmentOpLineTo:
			if !open {
				return nil, fmt.Errorf("line segment before move")
			}
			end := fixedPoint(seg.Args[0])
			if end != pos {
				curves = append(curves, lineCurve(pos, end))
			}
			pos = end

		case sfnt.SegmentOpQuadTo:
			if !open {
				return nil, fmt.Errorf("quad segment before move")
			}
			end := fixedPoint(seg.Args[1])
			curves = append(curves, Curve{
				P0: pos,
				P1: fixedPoint(seg.Args[0]),
				P2: end,
			})
			pos = end

		case sfnt.SegmentOpCubeTo:
			if !open {
				return nil, fmt.Errorf("cubic segment before move")
			}
			c1 := fixedPoint(seg.Args[0])
			c2 := fixedPoint(seg.Args[1])
			end := fixedPoint(seg.Args[2])
			curves = appendCubic(curves, pos, c1, c2, end, tolerance)
			pos = end
		}
	}
	closeContour()

	return curves, nil
}

// lineCurve returns a degenerate quadratic along the segment from a to b.
// The midpoint control keeps the curve exactly on the line, and the
// evaluator's linear branch handles the vanishing leading coefficient.
func lineCurve(a, b Point) Curve {
	return Curve{P0: a, P1: a.Lerp(b, 0.5), P2: b}
}

// appendCubic approximates the cubic (p0, c1, c2, p3) by a quadratic
// spline and appends the pieces.
//
// A single midpoint quadratic (control (3*c1 - p0 + 3*c2 - p3) / 4)
// deviates from the cubic by at most sqrt(3)/36 * |p3 - 3*c2 + 3*c1 - p0|.
// That bound falls off with the cube of the subdivision count, which gives
// the piece count directly from the tolerance.
func appendCubic(curves []Curve, p0, c1, c2, p3 Point, tolerance float32) []Curve {
	d := p3.Sub(c2.Mul(3)).Add(c1.Mul(3)).Sub(p0)
	err := math32.Sqrt(3) / 36 * d.Length()

	n := 1
	if err > tolerance {
		n = int(math32.Ceil(math32.Cbrt(err / tolerance)))
	}
	if n > 16 {
		n = 16
	}

	for i := 0; i < n; i++ {
		t0 := float32(i) / float32(n)
		t1 := float32(i+1) / float32(n)
		q0, qc, q1 := cubicPiece(p0, c1, c2, p3, t0, t1)
		curves = append(curves, Curve{P0: q0, P1: qc, P2: q1})
	}
	return curves
}

// cubicPiece extracts the [t0, t1] sub-segment of a cubic and returns its
// midpoint quadratic approximation: the endpoints exactly, and the control
// point (3*c1 - p0 + 3*c2 - p3) / 4 of the sub-segment.
func cubicPiece(p0, c1, c2, p3 Point, t0, t1 float32) (Point, Point, Point) {
	sub0, sub1, sub2, sub3 := cubicSubsegment(p0, c1, c2, p3, t0, t1)
	ctrl := sub1.Mul(3).Sub(sub0).Add(sub2.Mul(3)).Sub(sub3).Mul(0.25)
	return sub0, ctrl, sub3
}

// cubicSubsegment returns the control points of the cubic restricted to
// [t0, t1], by de Casteljau splitting.
func cubicSubsegment(p0, c1, c2, p3 Point, t0, t1 float32) (Point, Point, Point, Point) {
	// Split off [t0, 1], then take the leading [0, u] of the remainder.
	q0, q1, q2, q3 := cubicSplitAfter(p0, c1, c2, p3, t0)
	u := (t1 - t0) / (1 - t0)
	return cubicSplitBefore(q0, q1, q2, q3, u)
}

// cubicSplitAfter returns the cubic restricted to [t, 1].
func cubicSplitAfter(p0, c1, c2, p3 Point, t float32) (Point, Point, Point, Point) {
	if t == 0 {
		return p0, c1, c2, p3
	}
	ab := p0.Lerp(c1, t)
	bc := c1.Lerp(c2, t)
	cd := c2.Lerp(p3, t)
	abc := ab.Lerp(bc, t)
	bcd := bc.Lerp(cd, t)
	abcd := abc.Lerp(bcd, t)
	return abcd, bcd, cd, p3
}

// cubicSplitBefore returns the cubic restricted to [0, t].
func cubicSplitBefore(p0, c1, c2, p3 Point, t float32) (Point, Point, Point, Point) {
	if t == 1 {
		return p0, c1, c2, p3
	}
	ab := p0.Lerp(c1, t)
	bc := c1.Lerp(c2, t)
	cd := c2.Lerp(p3, t)
	abc := ab.Lerp(bc, t)
	bcd := bc.Lerp(cd, t)
	abcd := abc.Lerp(bcd, t)
	return p0, ab, abc, abcd
}

// fixedPoint converts a fixed.Point26_6 to a Point. sfnt segments are
// y-down (y grows toward the descender); the evaluator's winding convention
// is y-up, so the y axis is flipped here. Without the flip every
// consistently wound contour sums to a negative winding count and the final
// clamp drives the whole glyph to zero.
func fixedPoint(p fixed.Point26_6) Point {
	return Point{
		X: float32(p.X) / 64,
		Y: -float32(p.Y) / 64,
	}
}
