package curvetext

import (
	"github.com/chewxy/math32"
)

// Point is a 2D point or vector in glyph-local coordinates.
// The evaluator works in float32 to match GPU precision exactly.
type Point struct {
	X, Y float32
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float32) Point {
	return Point{X: x, Y: y}
}

// Add returns p + q.
func (p Point) Add(q Point) Point {
	return Point{p.X + q.X, p.Y + q.Y}
}

// Sub returns p - q.
func (p Point) Sub(q Point) Point {
	return Point{p.X - q.X, p.Y - q.Y}
}

// Mul returns p * s.
func (p Point) Mul(s float32) Point {
	return Point{p.X * s, p.Y * s}
}

// Dot returns the dot product of p and q.
func (p Point) Dot(q Point) float32 {
	return p.X*q.X + p.Y*q.Y
}

// Cross returns the 2D cross product (z-component of the 3D cross).
func (p Point) Cross(q Point) float32 {
	return p.X*q.Y - p.Y*q.X
}

// Length returns the Euclidean length of the vector.
func (p Point) Length() float32 {
	return math32.Hypot(p.X, p.Y)
}

// Lerp returns linear interpolation between p and q: p + t*(q-p).
func (p Point) Lerp(q Point, t float32) Point {
	return Point{
		p.X + t*(q.X-p.X),
		p.Y + t*(q.Y-p.Y),
	}
}

// rot90 rotates the point 90 degrees: (x, y) -> (y, -x).
// The supersampling refinement evaluates curves in this rotated frame.
func (p Point) rot90() Point {
	return Point{p.Y, -p.X}
}

// Curve is a quadratic Bezier segment defined by three control points.
// Curves are immutable once loaded into a FontTable and are referenced by
// index, never copied into per-glyph storage.
type Curve struct {
	P0, P1, P2 Point
}

// At evaluates the curve at parameter t in [0, 1].
func (c Curve) At(t float32) Point {
	u := 1 - t
	return Point{
		u*u*c.P0.X + 2*u*t*c.P1.X + t*t*c.P2.X,
		u*u*c.P0.Y + 2*u*t*c.P1.Y + t*t*c.P2.Y,
	}
}

// Translated returns the curve with d added to every control point.
func (c Curve) Translated(d Point) Curve {
	return Curve{
		P0: c.P0.Add(d),
		P1: c.P1.Add(d),
		P2: c.P2.Add(d),
	}
}

// rot90 rotates every control point 90 degrees: (x, y) -> (y, -x).
func (c Curve) rot90() Curve {
	return Curve{
		P0: c.P0.rot90(),
		P1: c.P1.rot90(),
		P2: c.P2.rot90(),
	}
}

// Bounds returns the axis-aligned bounding box of the control points.
// The curve always lies inside its control polygon, so this is a
// conservative bound without solving for extrema.
func (c Curve) Bounds() Rect {
	return Rect{
		MinX: min(c.P0.X, c.P1.X, c.P2.X),
		MinY: min(c.P0.Y, c.P1.Y, c.P2.Y),
		MaxX: max(c.P0.X, c.P1.X, c.P2.X),
		MaxY: max(c.P0.Y, c.P1.Y, c.P2.Y),
	}
}

// GlyphID identifies a glyph in a FontTable.
type GlyphID uint32

// Glyph is a contiguous range of curves in the shared curve table.
// The range holds one or more closed contour loops; closure is what makes
// the winding accumulation across the range well defined.
type Glyph struct {
	// Start is the index of the glyph's first curve in the curve table.
	Start uint32

	// Count is the number of curves in the glyph's range.
	Count uint32
}

// Rect is an axis-aligned rectangle in glyph-local coordinates.
type Rect struct {
	MinX, MinY float32
	MaxX, MaxY float32
}

// Width returns the width of the rectangle.
func (r Rect) Width() float32 {
	return r.MaxX - r.MinX
}

// Height returns the height of the rectangle.
func (r Rect) Height() float32 {
	return r.MaxY - r.MinY
}

// IsEmpty returns true if the rectangle has zero or negative area.
func (r Rect) IsEmpty() bool {
	return r.MinX >= r.MaxX || r.MinY >= r.MaxY
}

// Union returns the smallest rectangle containing both r and s.
func (r Rect) Union(s Rect) Rect {
	return Rect{
		MinX: min(r.MinX, s.MinX),
		MinY: min(r.MinY, s.MinY),
		MaxX: max(r.MaxX, s.MaxX),
		MaxY: max(r.MaxY, s.MaxY),
	}
}

// Contains returns true if the point is inside the rectangle.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.MinX && p.X <= r.MaxX && p.Y >= r.MinY && p.Y <= r.MaxY
}

// Expand returns a rectangle grown by the given margin on all sides.
func (r Rect) Expand(margin float32) Rect {
	return Rect{
		MinX: r.MinX - margin,
		MinY: r.MinY - margin,
		MaxX: r.MaxX + margin,
		MaxY: r.MaxY + margin,
	}
}
