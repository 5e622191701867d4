//go:build !nogpu

package gpu

import (
	"fmt"
	"sync"
	"time"
	"unsafe"

	"github.com/gogpu/curvetext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

// Viewport describes the pixel grid of one coverage dispatch in glyph-local
// coordinates. Origin is the position of pixel (0, 0); Du and Dv are the
// steps per +x and +y pixel, so any screen-to-glyph transform (scale,
// rotation, translation) folds into the three vectors.
type Viewport struct {
	Width  int
	Height int
	Origin curvetext.Point
	Du     curvetext.Point
	Dv     curvetext.Point
}

func (v Viewport) validate() error {
	if v.Width <= 0 || v.Height <= 0 {
		return fmt.Errorf("curvetext/gpu: viewport %dx%d is empty", v.Width, v.Height)
	}
	if v.Du.Length() == 0 || v.Dv.Length() == 0 {
		return fmt.Errorf("curvetext/gpu: viewport has a zero pixel step")
	}
	return nil
}

// CoverageRenderer evaluates glyph coverage on a compute device.
//
// The font's curve and glyph tables are uploaded once as storage buffers;
// each Coverage call then binds a small uniform block describing the pixel
// grid and dispatches one compute invocation per pixel. Until Init (or
// SetDeviceProvider) succeeds, and whenever no GPU is usable, Coverage runs
// on the CPU compositor instead and returns identical-shaped results.
type CoverageRenderer struct {
	mu sync.Mutex

	font *curvetext.FontTable
	cfg  curvetext.Config
	comp *curvetext.Compositor

	instance hal.Instance
	device   hal.Device
	queue    hal.Queue

	shader     hal.ShaderModule
	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	pipeline   hal.ComputePipeline

	curveBuf  hal.Buffer
	glyphBuf  hal.Buffer
	curveSize uint64
	glyphSize uint64

	gpuReady       bool
	externalDevice bool // true when using shared device (don't destroy on Close)
}

// New creates a renderer over the given table and configuration. No GPU
// resources are touched until Init.
func New(font *curvetext.FontTable, cfg curvetext.Config) (*CoverageRenderer, error) {
	comp, err := curvetext.NewCompositor(font, cfg)
	if err != nil {
		return nil, err
	}
	return &CoverageRenderer{
		font: font,
		cfg:  cfg,
		comp: comp,
	}, nil
}

// Init creates the GPU device, pipeline, and font buffers. A missing or
// failing GPU is not an error: the renderer logs the cause and serves all
// coverage requests from the CPU fallback.
func (r *CoverageRenderer) Init() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.initGPU(); err != nil {
		curvetext.Logger().Warn("gpu init failed, using CPU fallback", "error", err)
	}
	return nil
}

// Close releases all GPU resources. The renderer remains usable afterwards
// through the CPU fallback.
func (r *CoverageRenderer) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.destroyFontBuffers()
	r.destroyPipeline()
	if !r.externalDevice {
		if r.device != nil {
			r.device.Destroy()
		}
		if r.instance != nil {
			r.instance.Destroy()
		}
	}
	r.device = nil
	r.instance = nil
	r.queue = nil
	r.gpuReady = false
	r.externalDevice = false
}

// SetDeviceProvider switches the renderer to a shared GPU device from an
// external provider. The provider must implement HalDevice() any and
// HalQueue() any returning hal.Device and hal.Queue.
func (r *CoverageRenderer) SetDeviceProvider(provider any) error {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return fmt.Errorf("curvetext/gpu: provider does not expose HAL types")
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return fmt.Errorf("curvetext/gpu: provider HalDevice is not hal.Device")
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return fmt.Errorf("curvetext/gpu: provider HalQueue is not hal.Queue")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Drop resources we own before adopting the shared device.
	r.destroyFontBuffers()
	r.destroyPipeline()
	if !r.externalDevice && r.device != nil {
		r.device.Destroy()
	}
	if r.instance != nil {
		r.instance.Destroy()
		r.instance = nil
	}

	r.device = device
	r.queue = queue
	r.externalDevice = true

	if err := r.createPipeline(); err != nil {
		r.gpuReady = false
		return fmt.Errorf("curvetext/gpu: create pipeline with shared device: %w", err)
	}
	if err := r.createFontBuffers(); err != nil {
		r.destroyPipeline()
		r.gpuReady = false
		return fmt.Errorf("curvetext/gpu: upload font with shared device: %w", err)
	}
	r.gpuReady = true
	curvetext.Logger().Info("switched to shared GPU device")
	return nil
}

// GPUReady reports whether dispatches run on the GPU.
func (r *CoverageRenderer) GPUReady() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gpuReady
}

// Coverage evaluates per-pixel alpha for one glyph over the viewport and
// returns Width*Height values in row-major order.
func (r *CoverageRenderer) Coverage(id curvetext.GlyphID, vp Viewport) ([]float32, error) {
	if err := vp.validate(); err != nil {
		return nil, err
	}
	if _, ok := r.font.Glyph(id); !ok {
		return nil, fmt.Errorf("curvetext/gpu: glyph %d out of range", id)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.gpuReady {
		return r.cpuCoverage(id, vp), nil
	}
	out, err := r.dispatch(id, vp)
	if err != nil {
		return nil, fmt.Errorf("curvetext/gpu: dispatch: %w", err)
	}
	return out, nil
}

// cpuCoverage is the fallback path: the same fold the shader runs, evaluated
// by the CPU compositor.
func (r *CoverageRenderer) cpuCoverage(id curvetext.GlyphID, vp Viewport) []float32 {
	footprint := curvetext.Point{X: vp.Du.Length(), Y: vp.Dv.Length()}
	out := make([]float32, vp.Width*vp.Height)
	for y := 0; y < vp.Height; y++ {
		rowBase := vp.Origin.Add(vp.Dv.Mul(float32(y)))
		for x := 0; x < vp.Width; x++ {
			uv := rowBase.Add(vp.Du.Mul(float32(x)))
			out[y*vp.Width+x] = r.comp.Coverage(id, uv, footprint)
		}
	}
	return out
}

func (r *CoverageRenderer) dispatch(id curvetext.GlyphID, vp Viewport) ([]float32, error) {
	w, h := uint32(vp.Width), uint32(vp.Height)
	coverageSize := uint64(w) * uint64(h) * 4

	flags := uint32(0)
	if r.cfg.Supersample {
		flags |= supersampleFlag
	}
	params := dispatchParams{
		origin: vp.Origin,
		du:     vp.Du,
		dv:     vp.Dv,
		width:  w,
		height: h,
		glyph:  uint32(id),
		flags:  flags,
		window: r.cfg.WindowSize,
	}
	paramsBytes := params.bytes()

	paramsBuf, err := r.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "coverage_params", Size: uint64(len(paramsBytes)),
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create params buffer: %w", err)
	}
	defer r.device.DestroyBuffer(paramsBuf)

	coverageBuf, err := r.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "coverage_out", Size: coverageSize,
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopySrc,
	})
	if err != nil {
		return nil, fmt.Errorf("create coverage buffer: %w", err)
	}
	defer r.device.DestroyBuffer(coverageBuf)

	stagingBuf, err := r.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "coverage_staging", Size: coverageSize,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create staging buffer: %w", err)
	}
	defer r.device.DestroyBuffer(stagingBuf)

	if err := r.queue.WriteBuffer(paramsBuf, 0, paramsBytes); err != nil {
		return nil, fmt.Errorf("write params: %w", err)
	}

	bindGroup, err := r.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label: "coverage_bind", Layout: r.bindLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{Buffer: paramsBuf.NativeHandle(), Offset: 0, Size: uint64(len(paramsBytes))}},
			{Binding: 1, Resource: gputypes.BufferBinding{Buffer: r.curveBuf.NativeHandle(), Offset: 0, Size: r.curveSize}},
			{Binding: 2, Resource: gputypes.BufferBinding{Buffer: r.glyphBuf.NativeHandle(), Offset: 0, Size: r.glyphSize}},
			{Binding: 3, Resource: gputypes.BufferBinding{Buffer: coverageBuf.NativeHandle(), Offset: 0, Size: coverageSize}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create bind group: %w", err)
	}
	defer r.device.DestroyBindGroup(bindGroup)

	encoder, err := r.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "coverage_encoder"})
	if err != nil {
		return nil, fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("coverage"); err != nil {
		return nil, fmt.Errorf("begin encoding: %w", err)
	}

	pass := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: "coverage_pass"})
	pass.SetPipeline(r.pipeline)
	pass.SetBindGroup(0, bindGroup, nil)
	pass.Dispatch((w+7)/8, (h+7)/8, 1)
	pass.End()

	encoder.CopyBufferToBuffer(coverageBuf, stagingBuf, []hal.BufferCopy{
		{SrcOffset: 0, DstOffset: 0, Size: coverageSize},
	})
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return nil, fmt.Errorf("end encoding: %w", err)
	}
	defer r.device.FreeCommandBuffer(cmdBuf)

	submission, err := r.queue.Submit([]hal.CommandBuffer{cmdBuf})
	if err != nil {
		return nil, fmt.Errorf("submit: %w", err)
	}
	if err := r.waitSubmission(submission, 5*time.Second); err != nil {
		return nil, err
	}

	mapping, err := r.device.MapBuffer(stagingBuf, 0, coverageSize)
	if err != nil {
		return nil, fmt.Errorf("map staging buffer: %w", err)
	}
	readback := make([]byte, coverageSize)
	copy(readback, unsafe.Slice((*byte)(mapping.Ptr), coverageSize))
	if err := r.device.UnmapBuffer(stagingBuf); err != nil {
		return nil, fmt.Errorf("unmap staging buffer: %w", err)
	}
	return unpackCoverage(readback, vp.Width*vp.Height), nil
}

// waitSubmission blocks until the queue reports the submission complete or
// the timeout expires.
func (r *CoverageRenderer) waitSubmission(submission uint64, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for r.queue.PollCompleted() < submission {
		if time.Now().After(deadline) {
			return fmt.Errorf("wait for GPU: submission %d incomplete after %v", submission, timeout)
		}
		time.Sleep(100 * time.Microsecond)
	}
	return nil
}

func (r *CoverageRenderer) initGPU() error {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return fmt.Errorf("vulkan backend not available")
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return fmt.Errorf("create instance: %w", err)
	}
	r.instance = instance
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		return fmt.Errorf("no GPU adapters found")
	}
	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}
	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		return fmt.Errorf("open device: %w", err)
	}
	r.device = openDev.Device
	r.queue = openDev.Queue
	if err := r.createPipeline(); err != nil {
		r.device.Destroy()
		r.device = nil
		r.queue = nil
		return fmt.Errorf("create pipeline: %w", err)
	}
	if err := r.createFontBuffers(); err != nil {
		r.destroyPipeline()
		r.device.Destroy()
		r.device = nil
		r.queue = nil
		return fmt.Errorf("upload font: %w", err)
	}
	r.gpuReady = true
	curvetext.Logger().Info("GPU coverage renderer initialized", "adapter", selected.Info.Name)
	return nil
}

func (r *CoverageRenderer) createPipeline() error {
	spirvBytes, err := naga.Compile(coverageShaderWGSL)
	if err != nil {
		return fmt.Errorf("compile coverage shader: %w", err)
	}
	spirv := make([]uint32, len(spirvBytes)/4)
	for i := range spirv {
		spirv[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}

	shader, err := r.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "coverage",
		Source: hal.ShaderSource{SPIRV: spirv},
	})
	if err != nil {
		return fmt.Errorf("create shader module: %w", err)
	}
	r.shader = shader

	bindLayout, err := r.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "coverage_bind_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{Binding: 0, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform}},
			{Binding: 1, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage}},
			{Binding: 2, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage}},
			{Binding: 3, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeStorage}},
		},
	})
	if err != nil {
		return fmt.Errorf("create bind group layout: %w", err)
	}
	r.bindLayout = bindLayout

	pipeLayout, err := r.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label: "coverage_pipe_layout", BindGroupLayouts: []hal.BindGroupLayout{r.bindLayout},
	})
	if err != nil {
		return fmt.Errorf("create pipeline layout: %w", err)
	}
	r.pipeLayout = pipeLayout

	pipeline, err := r.device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label: "coverage_pipeline", Layout: r.pipeLayout,
		Compute: hal.ComputeState{Module: r.shader, EntryPoint: "main"},
	})
	if err != nil {
		return fmt.Errorf("create compute pipeline: %w", err)
	}
	r.pipeline = pipeline

	return nil
}

// createFontBuffers uploads the immutable curve and glyph tables. An empty
// table is padded to one stride: zero-size bindings are not valid.
func (r *CoverageRenderer) createFontBuffers() error {
	curveBytes := packCurves(r.font.RawCurves())
	if len(curveBytes) == 0 {
		curveBytes = make([]byte, curveStride)
	}
	glyphBytes := packGlyphs(r.font.RawGlyphs())
	if len(glyphBytes) == 0 {
		glyphBytes = make([]byte, glyphStride)
	}

	curveBuf, err := r.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "coverage_curves", Size: uint64(len(curveBytes)),
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create curve buffer: %w", err)
	}
	glyphBuf, err := r.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "coverage_glyphs", Size: uint64(len(glyphBytes)),
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		r.device.DestroyBuffer(curveBuf)
		return fmt.Errorf("create glyph buffer: %w", err)
	}
	if err := r.queue.WriteBuffer(curveBuf, 0, curveBytes); err != nil {
		r.device.DestroyBuffer(curveBuf)
		r.device.DestroyBuffer(glyphBuf)
		return fmt.Errorf("write curve buffer: %w", err)
	}
	if err := r.queue.WriteBuffer(glyphBuf, 0, glyphBytes); err != nil {
		r.device.DestroyBuffer(curveBuf)
		r.device.DestroyBuffer(glyphBuf)
		return fmt.Errorf("write glyph buffer: %w", err)
	}

	r.curveBuf = curveBuf
	r.glyphBuf = glyphBuf
	r.curveSize = uint64(len(curveBytes))
	r.glyphSize = uint64(len(glyphBytes))
	return nil
}

func (r *CoverageRenderer) destroyFontBuffers() {
	if r.device == nil {
		return
	}
	if r.curveBuf != nil {
		r.device.DestroyBuffer(r.curveBuf)
		r.curveBuf = nil
	}
	if r.glyphBuf != nil {
		r.device.DestroyBuffer(r.glyphBuf)
		r.glyphBuf = nil
	}
}

func (r *CoverageRenderer) destroyPipeline() {
	if r.device == nil {
		return
	}
	if r.pipeline != nil {
		r.device.DestroyComputePipeline(r.pipeline)
		r.pipeline = nil
	}
	if r.pipeLayout != nil {
		r.device.DestroyPipelineLayout(r.pipeLayout)
		r.pipeLayout = nil
	}
	if r.bindLayout != nil {
		r.device.DestroyBindGroupLayout(r.bindLayout)
		r.bindLayout = nil
	}
	if r.shader != nil {
		r.device.DestroyShaderModule(r.shader)
		r.shader = nil
	}
}
