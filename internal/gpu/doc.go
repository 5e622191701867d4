// Package gpu dispatches analytic glyph coverage evaluation to a compute
// device through wgpu/hal.
//
// The package owns the GPU side of the pipeline: uploading the curve and
// glyph tables as storage buffers, binding a per-dispatch uniform block
// describing the pixel grid, running the coverage compute shader, and
// reading the per-pixel alpha values back. The shader mirrors the CPU
// evaluator in the root package; when no usable device is available every
// dispatch falls back to the CPU compositor transparently.
package gpu
