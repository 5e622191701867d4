package gpu

import _ "embed"

// coverageShaderWGSL is the compute shader evaluating per-pixel glyph
// coverage. Its Params, Curve and Glyph struct layouts must match the
// packing in pack.go.
//
//go:embed shaders/coverage.wgsl
var coverageShaderWGSL string
