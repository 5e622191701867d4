package curvetext

// Compositor evaluates per-pixel glyph coverage over a FontTable.
//
// Coverage is a pure fold: every curve in the glyph's range contributes a
// signed delta, the deltas are summed in strict table order, and the sum is
// clamped to [0, 1] exactly once at the end. No state persists between
// pixels, so a Compositor is safe for concurrent use from any number of
// goroutines.
type Compositor struct {
	font *FontTable
	cfg  Config
}

// NewCompositor creates a compositor for the given table and configuration.
func NewCompositor(font *FontTable, cfg Config) (*Compositor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Compositor{font: font, cfg: cfg}, nil
}

// Font returns the table the compositor evaluates over.
func (c *Compositor) Font() *FontTable {
	return c.font
}

// Config returns the compositor's configuration.
func (c *Compositor) Config() Config {
	return c.cfg
}

// Coverage returns the composited alpha in [0, 1] for one pixel of one
// glyph.
//
// uv is the pixel's position in the glyph's local coordinate frame; mapping
// from screen space (scale, rotation, translation) is the caller's
// responsibility. footprint is the screen-space derivative of uv — how far
// uv moves per one-pixel step along each screen axis — and sets the width
// of the anti-aliasing ramp. Both components must be positive and finite;
// per the load-time-only validation contract this is not re-checked here.
//
// Curve contributions are summed in strict table order. Exact arithmetic
// would make the order irrelevant, but float32 addition is not associative,
// so the fixed order is what makes results bit-reproducible across runs.
func (c *Compositor) Coverage(id GlyphID, uv, footprint Point) float32 {
	curves := c.font.Curves(id)
	if len(curves) == 0 {
		return 0
	}
	inv := Point{
		X: 1 / (c.cfg.WindowSize * footprint.X),
		Y: 1 / (c.cfg.WindowSize * footprint.Y),
	}
	neg := Point{-uv.X, -uv.Y}
	var alpha float32
	for _, cv := range curves {
		alpha += coverageDelta(cv.Translated(neg), inv, c.cfg.Supersample)
	}
	return clamp01(alpha)
}
