package gpu

import (
	"encoding/binary"
	"math"

	"github.com/gogpu/curvetext"
)

// GPU buffer layouts. Sizes and field order must match the WGSL structs in
// shaders/coverage.wgsl; WGSL vec2<f32> has 8-byte alignment, which these
// layouts satisfy without interior padding.
const (
	curveStride = 24 // 3 x vec2<f32>
	glyphStride = 8  // 2 x u32
	paramsSize  = 48 // uniform Params block, a multiple of the 16-byte uniform alignment
)

func putFloat32(b []byte, v float32) {
	binary.LittleEndian.PutUint32(b, math.Float32bits(v))
}

// packCurves serializes the curve table for storage buffer upload.
func packCurves(curves []curvetext.Curve) []byte {
	out := make([]byte, curveStride*len(curves))
	for i, c := range curves {
		b := out[i*curveStride:]
		putFloat32(b[0:], c.P0.X)
		putFloat32(b[4:], c.P0.Y)
		putFloat32(b[8:], c.P1.X)
		putFloat32(b[12:], c.P1.Y)
		putFloat32(b[16:], c.P2.X)
		putFloat32(b[20:], c.P2.Y)
	}
	return out
}

// packGlyphs serializes the glyph index for storage buffer upload.
func packGlyphs(glyphs []curvetext.Glyph) []byte {
	out := make([]byte, glyphStride*len(glyphs))
	for i, g := range glyphs {
		b := out[i*glyphStride:]
		binary.LittleEndian.PutUint32(b[0:], g.Start)
		binary.LittleEndian.PutUint32(b[4:], g.Count)
	}
	return out
}

// supersampleFlag is bit 0 of Params.flags.
const supersampleFlag = 1

// dispatchParams is the CPU mirror of the shader's uniform Params block.
type dispatchParams struct {
	origin curvetext.Point
	du     curvetext.Point
	dv     curvetext.Point
	width  uint32
	height uint32
	glyph  uint32
	flags  uint32
	window float32
}

// bytes serializes the uniform block, including the trailing padding that
// rounds the WGSL struct up to paramsSize.
func (p *dispatchParams) bytes() []byte {
	out := make([]byte, paramsSize)
	putFloat32(out[0:], p.origin.X)
	putFloat32(out[4:], p.origin.Y)
	putFloat32(out[8:], p.du.X)
	putFloat32(out[12:], p.du.Y)
	putFloat32(out[16:], p.dv.X)
	putFloat32(out[20:], p.dv.Y)
	binary.LittleEndian.PutUint32(out[24:], p.width)
	binary.LittleEndian.PutUint32(out[28:], p.height)
	binary.LittleEndian.PutUint32(out[32:], p.glyph)
	binary.LittleEndian.PutUint32(out[36:], p.flags)
	putFloat32(out[40:], p.window)
	return out
}

// unpackCoverage deserializes the readback of the coverage storage buffer.
func unpackCoverage(raw []byte, pixels int) []float32 {
	out := make([]float32, pixels)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	return out
}
