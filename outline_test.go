package curvetext

import (
	"math"
	"testing"

	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

// fp builds a y-down sfnt point from y-up coordinates, mirroring how font
// files store outlines. Extraction flips them back, so expected values in
// the tests below read in the evaluator's y-up frame.
func fp(x, y float32) fixed.Point26_6 {
	return fixed.Point26_6{X: fixed.Int26_6(x * 64), Y: fixed.Int26_6(-y * 64)}
}

func moveTo(p fixed.Point26_6) sfnt.Segment {
	return sfnt.Segment{Op: sfnt.SegmentOpMoveTo, Args: [3]fixed.Point26_6{p}}
}

func lineTo(p fixed.Point26_6) sfnt.Segment {
	return sfnt.Segment{Op: sfnt.SegmentOpLineTo, Args: [3]fixed.Point26_6{p}}
}

func quadTo(c, p fixed.Point26_6) sfnt.Segment {
	return sfnt.Segment{Op: sfnt.SegmentOpQuadTo, Args: [3]fixed.Point26_6{c, p}}
}

func cubeTo(c1, c2, p fixed.Point26_6) sfnt.Segment {
	return sfnt.Segment{Op: sfnt.SegmentOpCubeTo, Args: [3]fixed.Point26_6{c1, c2, p}}
}

// assertClosed checks that the curves form closed loops: every curve starts
// where the previous one ended and the run returns to its start.
func assertClosed(t *testing.T, curves []Curve) {
	t.Helper()
	if len(curves) == 0 {
		return
	}
	loopStart := curves[0].P0
	pos := loopStart
	for i, c := range curves {
		if c.P0 != pos {
			// New loop: the previous one must have closed.
			if pos != loopStart {
				t.Fatalf("loop broken before curve %d: at %v, started %v", i, pos, loopStart)
			}
			loopStart = c.P0
		}
		pos = c.P2
	}
	if pos != loopStart {
		t.Fatalf("final loop open: at %v, started %v", pos, loopStart)
	}
}

func TestSegmentsToCurves_Square(t *testing.T) {
	segments := sfnt.Segments{
		moveTo(fp(0, 0)),
		lineTo(fp(1, 0)),
		lineTo(fp(1, 1)),
		lineTo(fp(0, 1)),
	}

	curves, err := segmentsToCurves(segments, defaultQuadTolerance)
	if err != nil {
		t.Fatalf("segmentsToCurves: %v", err)
	}
	// Three explicit edges plus the implicit closing edge.
	if len(curves) != 4 {
		t.Fatalf("got %d curves, want 4", len(curves))
	}
	assertClosed(t, curves)

	// Straight edges carry their control point at the midpoint, so the
	// degenerate quadratic stays exactly on the line.
	for i, c := range curves {
		mid := c.P0.Lerp(c.P2, 0.5)
		if c.P1 != mid {
			t.Errorf("curve %d control %v, want midpoint %v", i, c.P1, mid)
		}
	}
}

func TestSegmentsToCurves_QuadPassthrough(t *testing.T) {
	segments := sfnt.Segments{
		moveTo(fp(0, 0)),
		quadTo(fp(0.5, 1), fp(1, 0)),
	}

	curves, err := segmentsToCurves(segments, defaultQuadTolerance)
	if err != nil {
		t.Fatalf("segmentsToCurves: %v", err)
	}
	if len(curves) != 2 {
		t.Fatalf("got %d curves, want quad + closing edge", len(curves))
	}
	want := Curve{P0: Pt(0, 0), P1: Pt(0.5, 1), P2: Pt(1, 0)}
	if curves[0] != want {
		t.Errorf("quad = %+v, want %+v", curves[0], want)
	}
	assertClosed(t, curves)
}

func TestSegmentsToCurves_CubicApproximation(t *testing.T) {
	p0, c1 := fp(0, 0), fp(0, 2)
	c2, p3 := fp(3, 2), fp(3, 0)
	segments := sfnt.Segments{
		moveTo(p0),
		cubeTo(c1, c2, p3),
	}

	const tol = 0.05
	curves, err := segmentsToCurves(segments, tol)
	if err != nil {
		t.Fatalf("segmentsToCurves: %v", err)
	}
	if len(curves) < 2 {
		t.Fatalf("got %d curves", len(curves))
	}
	assertClosed(t, curves)

	// All pieces but the closing edge approximate the cubic. Endpoints are
	// exact and interior samples stay within tolerance.
	pieces := curves[:len(curves)-1]
	if pieces[0].P0 != Pt(0, 0) || pieces[len(pieces)-1].P2 != Pt(3, 0) {
		t.Fatalf("spline endpoints %v .. %v", pieces[0].P0, pieces[len(pieces)-1].P2)
	}

	cubicAt := func(t float32) Point {
		u := 1 - t
		a := Pt(0, 0).Mul(u * u * u)
		b := Pt(0, 2).Mul(3 * u * u * t)
		c := Pt(3, 2).Mul(3 * u * t * t)
		d := Pt(3, 0).Mul(t * t * t)
		return a.Add(b).Add(c).Add(d)
	}

	n := len(pieces)
	for i, piece := range pieces {
		for _, s := range []float32{0.25, 0.5, 0.75} {
			global := (float32(i) + s) / float32(n)
			got := piece.At(s)
			want := cubicAt(global)
			dist := got.Sub(want).Length()
			if float64(dist) > 2*tol {
				t.Errorf("piece %d t=%v: %v vs cubic %v (dist %v)", i, s, got, want, dist)
			}
		}
	}
}

func TestSegmentsToCurves_MultipleContours(t *testing.T) {
	segments := sfnt.Segments{
		moveTo(fp(0, 0)),
		lineTo(fp(2, 0)),
		lineTo(fp(1, 2)),
		moveTo(fp(0.8, 0.4)),
		lineTo(fp(1.2, 0.4)),
		lineTo(fp(1, 0.9)),
	}

	curves, err := segmentsToCurves(segments, defaultQuadTolerance)
	if err != nil {
		t.Fatalf("segmentsToCurves: %v", err)
	}
	if len(curves) != 6 {
		t.Fatalf("got %d curves, want 6", len(curves))
	}
	assertClosed(t, curves)
}

func TestSegmentsToCurves_SegmentBeforeMove(t *testing.T) {
	for _, segments := range []sfnt.Segments{
		{lineTo(fp(1, 0))},
		{quadTo(fp(0.5, 1), fp(1, 0))},
		{cubeTo(fp(0, 1), fp(1, 1), fp(1, 0))},
	} {
		if _, err := segmentsToCurves(segments, defaultQuadTolerance); err == nil {
			t.Errorf("op %v before move accepted", segments[0].Op)
		}
	}
}

func TestSegmentsToCurves_DegenerateInput(t *testing.T) {
	// Zero-length line segments and lone moves produce no curves.
	segments := sfnt.Segments{
		moveTo(fp(1, 1)),
		lineTo(fp(1, 1)),
		moveTo(fp(2, 2)),
	}
	curves, err := segmentsToCurves(segments, defaultQuadTolerance)
	if err != nil {
		t.Fatalf("segmentsToCurves: %v", err)
	}
	if len(curves) != 0 {
		t.Errorf("got %d curves, want 0", len(curves))
	}
}

func TestCurveExtractor_GoRegular(t *testing.T) {
	f, err := sfnt.Parse(goregular.TTF)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	e := NewCurveExtractor()
	b := NewFontTableBuilder()

	var buf sfnt.Buffer
	ids := make(map[rune]GlyphID)
	for _, r := range "Hello" {
		gi, err := f.GlyphIndex(&buf, r)
		if err != nil {
			t.Fatalf("GlyphIndex(%q): %v", r, err)
		}
		id, err := e.AppendGlyph(b, f, gi, 64)
		if err != nil {
			t.Fatalf("AppendGlyph(%q): %v", r, err)
		}
		ids[r] = id
	}

	font, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	for r, id := range ids {
		curves := font.Curves(id)
		if len(curves) == 0 {
			t.Errorf("glyph %q has no curves", r)
			continue
		}
		assertClosed(t, curves)
		if font.Bounds(id).IsEmpty() {
			t.Errorf("glyph %q has empty bounds", r)
		}
	}
}

func TestCurveExtractor_UprightGlyph(t *testing.T) {
	// Font files store outlines y-down; extraction flips them into the
	// evaluator's y-up frame. If the flip went missing, every contour's
	// winding would invert and the interior would composite to zero.
	f, err := sfnt.Parse(goregular.TTF)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	var buf sfnt.Buffer
	gi, err := f.GlyphIndex(&buf, 'H')
	if err != nil {
		t.Fatalf("GlyphIndex: %v", err)
	}

	e := NewCurveExtractor()
	b := NewFontTableBuilder()
	id, err := e.AppendGlyph(b, f, gi, 64)
	if err != nil {
		t.Fatalf("AppendGlyph: %v", err)
	}
	font, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	// At 64 pixels per em the cap sits tens of units above the baseline.
	bounds := font.Bounds(id)
	if bounds.MaxY <= 10 {
		t.Fatalf("MaxY = %v, want the cap well above the baseline", bounds.MaxY)
	}
	if bounds.MinY < -2 {
		t.Fatalf("MinY = %v, want the stems to rest on the baseline", bounds.MinY)
	}

	comp, err := NewCompositor(font, DefaultConfig())
	if err != nil {
		t.Fatalf("NewCompositor: %v", err)
	}
	img := NewRasterizer(comp).Rasterize(id, 1, 2)

	solid := 0
	for _, a := range img.Pix {
		if a >= 200 {
			solid++
		}
	}
	if solid < 100 {
		t.Fatalf("%d solid pixels, want a filled interior", solid)
	}
}

func TestAppendCubic_StraightCubic(t *testing.T) {
	// A cubic whose control points lie on the chord is exactly linear and
	// needs a single piece.
	curves := appendCubic(nil, Pt(0, 0), Pt(1, 1), Pt(2, 2), Pt(3, 3), defaultQuadTolerance)
	if len(curves) != 1 {
		t.Fatalf("got %d pieces, want 1", len(curves))
	}
	c := curves[0]
	if c.P0 != Pt(0, 0) || c.P2 != Pt(3, 3) {
		t.Errorf("endpoints %v .. %v", c.P0, c.P2)
	}
	if off := math.Abs(float64(c.P1.X - c.P1.Y)); off > 1e-5 {
		t.Errorf("control %v off the diagonal", c.P1)
	}
}

func TestSetTolerance(t *testing.T) {
	e := NewCurveExtractor()
	e.SetTolerance(0.5)
	if e.tolerance != 0.5 {
		t.Errorf("tolerance = %v", e.tolerance)
	}
	e.SetTolerance(0)
	if e.tolerance != 0.5 {
		t.Errorf("non-positive tolerance accepted: %v", e.tolerance)
	}
	e.SetTolerance(-1)
	if e.tolerance != 0.5 {
		t.Errorf("negative tolerance accepted: %v", e.tolerance)
	}
}
