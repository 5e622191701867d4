package curvetext

import (
	"github.com/chewxy/math32"
)

// linearYThreshold is the fixed cutoff below which the quadratic's leading
// y-coefficient is treated as zero and the crossing is solved linearly.
// The threshold is absolute, not normalized against curve extent, which is
// a known precision limit for extremely large coordinate magnitudes.
const linearYThreshold = 1e-5

// CurveCoverage computes the signed coverage contribution of a single curve
// to one pixel, tested against the horizontal line y=0.
//
// The curve must already be pixel-relative: the caller subtracts the pixel's
// glyph-local position from every control point, so the pixel sits at the
// origin and its scanline is y=0. invDiameter is the reciprocal of the
// anti-aliasing window width in the same units (1 / (WindowSize *
// footprint)); it converts the signed horizontal offset of a crossing into
// a coverage fraction via a linear ramp centered on the exact edge.
//
// The result is a signed, unclamped delta. A crossing traversed
// left-to-right contributes positively, right-to-left negatively, so closed
// contours wound consistently sum to a winding count rather than an
// even/odd parity. Clamping to [0, 1] happens once per pixel, after all of
// a glyph's curves are summed; intermediate sums may legitimately leave
// that range for self-overlapping or multi-contour glyphs.
//
// CurveCoverage is a pure function: identical inputs yield bit-identical
// results.
func CurveCoverage(c Curve, invDiameter float32) float32 {
	// Curves entirely above or below the scanline cannot cross it.
	if c.P0.Y > 0 && c.P1.Y > 0 && c.P2.Y > 0 {
		return 0
	}
	if c.P0.Y < 0 && c.P1.Y < 0 && c.P2.Y < 0 {
		return 0
	}

	// Simplified abc form: y(t) = a.y*t^2 - 2*b.y*t + c.y.
	a := c.P0.Sub(c.P1.Mul(2)).Add(c.P2)
	b := c.P0.Sub(c.P1)
	cc := c.P0

	var t0, t1 float32
	if math32.Abs(a.Y) >= linearYThreshold {
		// Quadratic case.
		radicand := b.Y*b.Y - a.Y*cc.Y
		if radicand <= 0 {
			// Tangency (radicand == 0) counts as no crossing; a tangent
			// curve contributes zero rather than a singular ramp.
			return 0
		}
		s := math32.Sqrt(radicand)
		t0 = (b.Y - s) / a.Y
		t1 = (b.Y + s) / a.Y
	} else {
		// Near-zero leading coefficient: the curve is locally linear in y.
		// Solve the line through p0 and p2 directly and sentinel the other
		// root at -1 so it fails the range test below.
		t := c.P0.Y / (c.P0.Y - c.P2.Y)
		if c.P0.Y < c.P2.Y {
			t0 = -1
			t1 = t
		} else {
			t0 = t
			t1 = -1
		}
	}

	// Roots in [0, 1) are crossings of this segment. t=1 is excluded so a
	// crossing exactly at a segment join is counted by exactly one of the
	// two adjoining curves.
	var alpha float32
	if t0 >= 0 && t0 < 1 {
		x := (a.X*t0-2*b.X)*t0 + cc.X
		alpha += clamp01(x*invDiameter + 0.5)
	}
	if t1 >= 0 && t1 < 1 {
		x := (a.X*t1-2*b.X)*t1 + cc.X
		alpha -= clamp01(x*invDiameter + 0.5)
	}
	return alpha
}

// coverageDelta evaluates one pixel-relative curve under the given
// configuration: the primary horizontal pass, plus the rotated refinement
// pass when supersampling is enabled. invDiameter carries the reciprocal
// anti-aliasing window for the primary (X) and rotated (Y) passes.
//
// The rotated pass re-runs the full evaluation, including root finding, in
// the frame rotated by (x, y) -> (y, -x): its crossings come from the
// curve's x-extrema, which is exactly what catches edges nearly parallel
// to the primary scanline.
func coverageDelta(c Curve, invDiameter Point, supersample bool) float32 {
	alpha := CurveCoverage(c, invDiameter.X)
	if supersample {
		alpha += CurveCoverage(c.rot90(), invDiameter.Y)
	}
	return alpha
}

// clamp01 clamps v to [0, 1].
func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
