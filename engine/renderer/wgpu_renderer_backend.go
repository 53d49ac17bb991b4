package renderer

import (
	"fmt"
	"runtime"
	"slices"
	"sync"

	"github.com/Carmen-Shannon/oxy-ecs/common"
	"github.com/Carmen-Shannon/oxy-ecs/engine/logger"
	"github.com/Carmen-Shannon/oxy-ecs/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-ecs/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-ecs/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-ecs/engine/window"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Bind group indices shared by the built-in programs.
const (
	groupCamera   = 0
	groupModel    = 1
	groupLighting = 2
	groupJoints   = 3
)

type wgpuRendererBackend struct {
	mu       sync.Mutex
	settings BackendSettings

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	surface  *wgpu.Surface
	device   *wgpu.Device
	queue    *wgpu.Queue

	surfaceFormat wgpu.TextureFormat
	alphaMode     wgpu.CompositeAlphaMode
	presentMode   wgpu.PresentMode
	sampleCount   uint32
	alignment     uint32

	width, height        int
	msaaTexture          *wgpu.Texture
	msaaTextureView      *wgpu.TextureView
	depthTexture         *wgpu.Texture
	depthTextureView     *wgpu.TextureView
	renderPassDescriptor *wgpu.RenderPassDescriptor

	// layouts are shared by both pipelines and every provider of the same group.
	layouts     map[int]*wgpu.BindGroupLayout
	descriptors map[int]wgpu.BindGroupLayoutDescriptor

	staticPipeline  pipeline.Pipeline
	skinnedPipeline pipeline.Pipeline

	camera   bind_group_provider.BindGroupProvider
	lighting bind_group_provider.BindGroupProvider
	models   bind_group_provider.BindGroupProvider
	joints   bind_group_provider.BindGroupProvider

	geometries map[common.GeometryID]bind_group_provider.BindGroupProvider

	// Frame state between BeginFrame and EndFrame.
	frameEncoder  *wgpu.CommandEncoder
	framePass     *wgpu.RenderPassEncoder
	frameSurface  *wgpu.Texture
	frameView     *wgpu.TextureView
	framePipeline pipeline.Pipeline

	released bool
}

var _ RendererBackend = &wgpuRendererBackend{}

// newWGPURendererBackend acquires an adapter and device for the window's surface and builds
// both render pipelines and the shared uniform buffers.
//
// Parameters:
//   - win: the window to present to; must be created with window.ClientAPINone
//   - settings: presentation settings
//
// Returns:
//   - RendererBackend: the backend
//   - error: ErrNoAdapter when no adapter or device is available
func newWGPURendererBackend(win window.Window, settings BackendSettings) (RendererBackend, error) {
	if win == nil {
		return nil, eris.New("wgpu backend requires a window")
	}
	descriptor := win.SurfaceDescriptor()
	if descriptor == nil {
		return nil, eris.New("window has no surface")
	}

	runtime.LockOSThread()
	b := &wgpuRendererBackend{
		settings:    settings,
		instance:    wgpu.CreateInstance(nil),
		sampleCount: uint32(common.Coalesce(settings.MSAA, MSAAOff)),
		layouts:     make(map[int]*wgpu.BindGroupLayout),
		geometries:  make(map[common.GeometryID]bind_group_provider.BindGroupProvider),
	}
	b.surface = b.instance.CreateSurface(descriptor)

	adapter, err := b.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: settings.ForceSoftware,
		CompatibleSurface:    b.surface,
	})
	if err != nil {
		b.Release()
		return nil, eris.Wrap(ErrNoAdapter, err.Error())
	}
	b.adapter = adapter

	// The skinned program binds four groups, the WebGPU default limit.
	limits := wgpu.DefaultLimits()
	limits.MaxBindGroups = 4
	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Main Device",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: limits,
		},
	})
	if err != nil {
		b.Release()
		return nil, eris.Wrap(ErrNoAdapter, err.Error())
	}
	b.device = device
	b.queue = device.GetQueue()
	b.alignment = adapter.GetLimits().Limits.MinUniformBufferOffsetAlignment

	capabilities := b.surface.GetCapabilities(adapter)
	if len(capabilities.Formats) == 0 {
		b.Release()
		return nil, eris.Wrap(ErrNoAdapter, "surface reports no formats")
	}
	b.surfaceFormat = capabilities.Formats[0]
	b.alphaMode = capabilities.AlphaModes[0]
	b.presentMode = choosePresentMode(settings.PresentMode, capabilities.PresentModes)

	if err := b.buildPipelines(); err != nil {
		b.Release()
		return nil, err
	}
	if err := b.buildSharedUniforms(); err != nil {
		b.Release()
		return nil, err
	}

	logger.Info("wgpu backend ready",
		zap.Bool("software", settings.ForceSoftware),
		zap.Uint32("alignment", b.alignment),
		zap.Uint32("msaa", b.sampleCount),
	)
	return b, nil
}

// choosePresentMode maps the engine present mode onto one the surface supports.
// Fifo is always available.
func choosePresentMode(mode PresentMode, supported []wgpu.PresentMode) wgpu.PresentMode {
	if mode == PresentModeUncapped {
		for _, m := range []wgpu.PresentMode{wgpu.PresentModeImmediate, wgpu.PresentModeMailbox} {
			if slices.Contains(supported, m) {
				return m
			}
		}
	}
	return wgpu.PresentModeFifo
}

// buildPipelines creates the bind group layouts from the skinned program's declarations and
// both render pipelines on top of them.
func (b *wgpuRendererBackend) buildPipelines() error {
	skinned, err := pipeline.NewPipeline("skinned", shader.ProgramSkinned, shader.LanguageWGSL)
	if err != nil {
		return err
	}
	static, err := pipeline.NewPipeline("static", shader.ProgramStatic, shader.LanguageWGSL)
	if err != nil {
		return err
	}

	b.descriptors = skinned.BindGroupLayoutDescriptors()
	for g, desc := range b.descriptors {
		desc.Label = "Group Layout"
		layout, err := b.device.CreateBindGroupLayout(&desc)
		if err != nil {
			return eris.Wrapf(err, "create bind group layout for group %d", g)
		}
		b.layouts[g] = layout
	}

	for _, p := range []pipeline.Pipeline{static, skinned} {
		if err := b.registerRenderPipeline(p); err != nil {
			return err
		}
	}
	b.staticPipeline, b.skinnedPipeline = static, skinned
	return nil
}

func (b *wgpuRendererBackend) registerRenderPipeline(p pipeline.Pipeline) error {
	vertexShader := p.Shader(shader.ShaderTypeVertex)
	fragmentShader := p.Shader(shader.ShaderTypeFragment)

	vs, err := b.device.CreateShaderModule(vertexShader.Module())
	if err != nil {
		return eris.Wrapf(err, "create vertex module %s", vertexShader.Key())
	}
	defer vs.Release()
	fs, err := b.device.CreateShaderModule(fragmentShader.Module())
	if err != nil {
		return eris.Wrapf(err, "create fragment module %s", fragmentShader.Key())
	}
	defer fs.Release()

	bindGroupLayouts := make([]*wgpu.BindGroupLayout, len(p.BindGroupLayoutDescriptors()))
	for g := range bindGroupLayouts {
		layout, ok := b.layouts[g]
		if !ok {
			return eris.Errorf("pipeline %s uses unknown group %d", p.PipelineKey(), g)
		}
		bindGroupLayouts[g] = layout
	}

	pipelineLayout, err := b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            p.PipelineKey(),
		BindGroupLayouts: bindGroupLayouts,
	})
	if err != nil {
		return eris.Wrapf(err, "create layout for pipeline %s", p.PipelineKey())
	}
	defer pipelineLayout.Release()

	colorTarget := wgpu.ColorTargetState{
		Format:    b.surfaceFormat,
		WriteMask: p.WriteMask(),
	}
	if p.BlendEnabled() {
		colorTarget.Blend = p.BlendState()
	}
	depthCompare := wgpu.CompareFunctionLess
	if !p.DepthTestEnabled() {
		depthCompare = wgpu.CompareFunctionAlways
	}

	created, err := b.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  p.PipelineKey() + " Render Pipeline",
		Layout: pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     vs,
			EntryPoint: vertexShader.EntryPoint(),
			Buffers:    p.VertexLayouts(),
		},
		Fragment: &wgpu.FragmentState{
			Module:     fs,
			EntryPoint: fragmentShader.EntryPoint(),
			Targets:    []wgpu.ColorTargetState{colorTarget},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  p.Topology(),
			FrontFace: p.FrontFace(),
			CullMode:  p.CullMode(),
		},
		Multisample: wgpu.MultisampleState{
			Count: b.sampleCount,
			Mask:  0xFFFFFFFF,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            wgpu.TextureFormatDepth24Plus,
			DepthWriteEnabled: p.DepthWriteEnabled(),
			DepthCompare:      depthCompare,
			StencilFront:      wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
			StencilBack:       wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
		},
	})
	if err != nil {
		return eris.Wrapf(err, "create pipeline %s", p.PipelineKey())
	}
	p.SetPipeline(created)
	return nil
}

// buildSharedUniforms creates the camera and lighting buffers. Model and joint buffers are
// created on the first write, once the slot size is known.
func (b *wgpuRendererBackend) buildSharedUniforms() error {
	var err error
	if b.camera, err = b.createUniformProvider("Camera", groupCamera, 0, 0); err != nil {
		return err
	}
	b.lighting, err = b.createUniformProvider("Lighting", groupLighting, 0, 0)
	return err
}

// createUniformProvider creates a uniform buffer and its bind group for a group with a single
// binding. A capacity above zero makes it a dynamic-offset buffer of capacity slots.
func (b *wgpuRendererBackend) createUniformProvider(label string, group int, slotSize uint64, capacity int) (bind_group_provider.BindGroupProvider, error) {
	desc, ok := b.descriptors[group]
	if !ok || len(desc.Entries) == 0 {
		return nil, eris.Errorf("no layout for group %d", group)
	}
	entry := desc.Entries[0]
	bindingSize := entry.Buffer.MinBindingSize

	opts := []bind_group_provider.BindGroupProviderOption{
		bind_group_provider.WithGroup(group),
		bind_group_provider.WithBindGroupLayout(b.layouts[group]),
	}
	bufferSize := bindingSize
	if capacity > 0 {
		opts = append(opts, bind_group_provider.WithDynamicSlots(slotSize, capacity))
		bufferSize = slotSize * uint64(capacity)
	}
	provider := bind_group_provider.NewBindGroupProvider(label, opts...)

	buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label + " Buffer",
		Size:  bufferSize,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, eris.Wrapf(err, "create %s buffer", label)
	}
	provider.SetBuffer(int(entry.Binding), buf)

	// A dynamic binding addresses one slot at a time.
	bindGroup, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  label + " Bind Group",
		Layout: provider.BindGroupLayout(),
		Entries: []wgpu.BindGroupEntry{{
			Binding: entry.Binding,
			Buffer:  buf,
			Offset:  0,
			Size:    bindingSize,
		}},
	})
	if err != nil {
		provider.Release()
		return nil, eris.Wrapf(err, "create %s bind group", label)
	}
	provider.SetBindGroup(bindGroup)
	return provider, nil
}

func (b *wgpuRendererBackend) Type() RendererBackendType {
	return BackendTypeWGPU
}

func (b *wgpuRendererBackend) Limits() BackendLimits {
	return BackendLimits{MinUniformOffsetAlignment: b.alignment}
}

func (b *wgpuRendererBackend) CreateGeometry(id common.GeometryID, upload GeometryUpload) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.released {
		return eris.Wrap(ErrReleased, "create geometry")
	}

	provider := bind_group_provider.NewBindGroupProvider(geometryLabel(id))
	create := func(suffix string, data []byte, usage wgpu.BufferUsage) (*wgpu.Buffer, error) {
		buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: provider.Label() + suffix,
			Size:  uint64(len(data)),
			Usage: usage | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			return nil, eris.Wrapf(err, "create%s", suffix)
		}
		b.queue.WriteBuffer(buf, 0, data)
		return buf, nil
	}

	vertexBuffer, err := create(" Vertex Buffer", upload.Vertices, wgpu.BufferUsageVertex)
	if err != nil {
		return err
	}
	provider.SetVertexBuffer(vertexBuffer)
	if upload.Skinned() {
		skinBuffer, err := create(" Skin Buffer", upload.Skin, wgpu.BufferUsageVertex)
		if err != nil {
			provider.Release()
			return err
		}
		provider.SetSkinBuffer(skinBuffer)
	}
	indexBuffer, err := create(" Index Buffer", upload.Indices, wgpu.BufferUsageIndex)
	if err != nil {
		provider.Release()
		return err
	}
	provider.SetIndexBuffer(indexBuffer)
	provider.SetIndexCount(upload.IndexCount)
	provider.SetIndexFormat(wgpuIndexFormat(upload.IndexFormat))

	b.geometries[id] = provider
	return nil
}

func geometryLabel(id common.GeometryID) string {
	return fmt.Sprintf("Geometry %d", id)
}

func wgpuIndexFormat(f common.IndexFormat) wgpu.IndexFormat {
	if f == common.IndexFormatUint16 {
		return wgpu.IndexFormatUint16
	}
	return wgpu.IndexFormatUint32
}

func (b *wgpuRendererBackend) ReleaseGeometry(id common.GeometryID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if provider, ok := b.geometries[id]; ok {
		provider.Release()
		delete(b.geometries, id)
	}
}

// ResizeTarget reconfigures the surface and recreates the depth and MSAA attachments.
func (b *wgpuRendererBackend) ResizeTarget(width, height int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.released {
		return eris.Wrap(ErrReleased, "resize target")
	}

	b.surface.Configure(b.adapter, b.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      b.surfaceFormat,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: b.presentMode,
		AlphaMode:   b.alphaMode,
	})
	b.releaseTargets()

	size := wgpu.Extent3D{Width: uint32(width), Height: uint32(height), DepthOrArrayLayers: 1}
	msaaEnabled := b.sampleCount > 1
	if msaaEnabled {
		// The pass draws into the MSAA texture and resolves into the swapchain view.
		texture, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
			Label:         "MSAA Texture",
			Size:          size,
			MipLevelCount: 1,
			SampleCount:   b.sampleCount,
			Dimension:     wgpu.TextureDimension2D,
			Format:        b.surfaceFormat,
			Usage:         wgpu.TextureUsageRenderAttachment,
		})
		if err != nil {
			return eris.Wrap(err, "create msaa texture")
		}
		b.msaaTexture = texture
		if b.msaaTextureView, err = texture.CreateView(nil); err != nil {
			return eris.Wrap(err, "create msaa view")
		}
	}

	// Depth sample count must match the color attachment.
	depthTexture, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         "Depth Texture",
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   b.sampleCount,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatDepth24Plus,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		return eris.Wrap(err, "create depth texture")
	}
	b.depthTexture = depthTexture
	if b.depthTextureView, err = depthTexture.CreateView(nil); err != nil {
		return eris.Wrap(err, "create depth view")
	}

	storeOp := wgpu.StoreOpStore
	if msaaEnabled {
		storeOp = wgpu.StoreOpDiscard
	}
	clear := b.settings.ClearColor
	b.renderPassDescriptor = &wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:    b.msaaTextureView, // nil without MSAA; set in BeginFrame
			LoadOp:  wgpu.LoadOpClear,
			StoreOp: storeOp,
			ClearValue: wgpu.Color{
				R: float64(clear[0]), G: float64(clear[1]), B: float64(clear[2]), A: 1.0,
			},
		}},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            b.depthTextureView,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpDiscard,
			DepthClearValue: 1.0,
		},
	}
	b.width, b.height = width, height
	return nil
}

func (b *wgpuRendererBackend) releaseTargets() {
	if b.msaaTextureView != nil {
		b.msaaTextureView.Release()
		b.msaaTextureView = nil
	}
	if b.msaaTexture != nil {
		b.msaaTexture.Release()
		b.msaaTexture = nil
	}
	if b.depthTextureView != nil {
		b.depthTextureView.Release()
		b.depthTextureView = nil
	}
	if b.depthTexture != nil {
		b.depthTexture.Release()
		b.depthTexture = nil
	}
	b.renderPassDescriptor = nil
}

func (b *wgpuRendererBackend) WriteCamera(data []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.camera != nil {
		b.writeBuffers([]bind_group_provider.BufferWrite{{Provider: b.camera, Data: data}})
	}
}

func (b *wgpuRendererBackend) WriteLighting(data []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.lighting != nil {
		b.writeBuffers([]bind_group_provider.BufferWrite{{Provider: b.lighting, Data: data}})
	}
}

func (b *wgpuRendererBackend) WriteModels(slotSize uint32, slotCount int, writes []SlotWrite) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.released {
		return eris.Wrap(ErrReleased, "write models")
	}
	return b.writeSlots(&b.models, "Model", groupModel, slotSize, slotCount, writes)
}

func (b *wgpuRendererBackend) WriteJoints(slotSize uint32, slotCount int, writes []SlotWrite) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.released {
		return eris.Wrap(ErrReleased, "write joints")
	}
	return b.writeSlots(&b.joints, "Joints", groupJoints, slotSize, slotCount, writes)
}

// writeSlots grows the dynamic buffer held in *target when it cannot address slotCount slots
// and queues the slot writes. The old buffer and bind group are released on growth.
func (b *wgpuRendererBackend) writeSlots(target *bind_group_provider.BindGroupProvider, label string, group int, slotSize uint32, slotCount int, writes []SlotWrite) error {
	current := *target
	if current == nil || current.SlotSize() != uint64(slotSize) || slotCount > current.SlotCapacity() {
		capacity := minSlotCapacity
		if current != nil && current.SlotSize() == uint64(slotSize) {
			capacity = current.SlotCapacity()
		}
		capacity = growCapacity(capacity, slotCount)

		grown, err := b.createUniformProvider(label, group, uint64(slotSize), capacity)
		if err != nil {
			return err
		}
		if current != nil {
			current.Release()
			logger.Debug("grew uniform buffer",
				zap.String("buffer", label),
				zap.Int("slots", capacity),
			)
		}
		*target = grown
		current = grown
	}

	bufferWrites := make([]bind_group_provider.BufferWrite, len(writes))
	for i, w := range writes {
		bufferWrites[i] = bind_group_provider.BufferWrite{
			Provider: current,
			Offset:   uint64(w.Offset),
			Data:     w.Data,
		}
	}
	b.writeBuffers(bufferWrites)
	return nil
}

func (b *wgpuRendererBackend) writeBuffers(writes []bind_group_provider.BufferWrite) {
	for _, w := range writes {
		buf := w.Provider.Buffer(w.Binding)
		if buf == nil {
			continue
		}
		b.queue.WriteBuffer(buf, w.Offset, w.Data)
	}
}

func (b *wgpuRendererBackend) BeginFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.released {
		return eris.Wrap(ErrReleased, "begin frame")
	}
	if b.renderPassDescriptor == nil {
		return eris.New("render target not configured")
	}
	// Acquiring a second surface image before presenting the first is a validation error.
	if b.frameSurface != nil {
		return eris.New("previous frame surface not yet presented")
	}

	surfaceTexture, err := b.surface.GetCurrentTexture()
	if err != nil {
		return eris.Wrap(err, "acquire surface texture")
	}
	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		return eris.Wrap(err, "create surface view")
	}
	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		view.Release()
		surfaceTexture.Release()
		return eris.Wrap(err, "create command encoder")
	}

	if b.sampleCount > 1 {
		b.renderPassDescriptor.ColorAttachments[0].ResolveTarget = view
	} else {
		b.renderPassDescriptor.ColorAttachments[0].View = view
	}

	b.frameEncoder = encoder
	b.framePass = encoder.BeginRenderPass(b.renderPassDescriptor)
	b.frameSurface = surfaceTexture
	b.frameView = view
	b.framePipeline = nil
	return nil
}

// bindFrame sets p and its shared bind groups when p is not already bound.
func (b *wgpuRendererBackend) bindFrame(p pipeline.Pipeline) {
	if b.framePipeline == p {
		return
	}
	b.framePass.SetPipeline(p.Pipeline().(*wgpu.RenderPipeline))
	b.framePass.SetBindGroup(groupCamera, b.camera.BindGroup(), nil)
	b.framePass.SetBindGroup(groupLighting, b.lighting.BindGroup(), nil)
	b.framePipeline = p
}

func (b *wgpuRendererBackend) drawGeometry(geometry bind_group_provider.BindGroupProvider) {
	b.framePass.SetVertexBuffer(0, geometry.VertexBuffer(), 0, wgpu.WholeSize)
	if skin := geometry.SkinBuffer(); skin != nil {
		b.framePass.SetVertexBuffer(1, skin, 0, wgpu.WholeSize)
	}
	b.framePass.SetIndexBuffer(geometry.IndexBuffer(), geometry.IndexFormat(), 0, wgpu.WholeSize)
	b.framePass.DrawIndexed(uint32(geometry.IndexCount()), 1, 0, 0, 0)
}

func (b *wgpuRendererBackend) DrawStatic(id common.GeometryID, modelOffset uint32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	geometry, ok := b.geometries[id]
	if !ok || b.framePass == nil || b.models == nil {
		return
	}
	b.bindFrame(b.staticPipeline)
	b.framePass.SetBindGroup(groupModel, b.models.BindGroup(), []uint32{modelOffset})
	b.drawGeometry(geometry)
}

func (b *wgpuRendererBackend) DrawSkinned(id common.GeometryID, modelOffset, jointOffset uint32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	geometry, ok := b.geometries[id]
	if !ok || b.framePass == nil || b.models == nil || b.joints == nil {
		return
	}
	b.bindFrame(b.skinnedPipeline)
	b.framePass.SetBindGroup(groupModel, b.models.BindGroup(), []uint32{modelOffset})
	b.framePass.SetBindGroup(groupJoints, b.joints.BindGroup(), []uint32{jointOffset})
	b.drawGeometry(geometry)
}

// EndFrame submits the frame's commands and presents the surface image.
func (b *wgpuRendererBackend) EndFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.framePass == nil {
		return eris.New("no frame in progress")
	}

	b.framePass.End()
	b.framePass.Release()
	b.framePass = nil

	commandBuffer, err := b.frameEncoder.Finish(nil)
	b.frameEncoder.Release()
	b.frameEncoder = nil
	if err != nil {
		b.releaseFrameSurface()
		return eris.Wrap(err, "finish command encoder")
	}

	b.queue.Submit(commandBuffer)
	commandBuffer.Release()

	b.surface.Present()
	b.releaseFrameSurface()
	return nil
}

func (b *wgpuRendererBackend) releaseFrameSurface() {
	if b.frameView != nil {
		b.frameView.Release()
		b.frameView = nil
	}
	if b.frameSurface != nil {
		b.frameSurface.Release()
		b.frameSurface = nil
	}
}

// Release frees every device resource in reverse order of creation. Safe to call twice.
func (b *wgpuRendererBackend) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.released {
		return
	}
	b.released = true

	if b.framePass != nil {
		b.framePass.End()
		b.framePass.Release()
		b.framePass = nil
	}
	if b.frameEncoder != nil {
		b.frameEncoder.Release()
		b.frameEncoder = nil
	}
	b.releaseFrameSurface()

	for id, provider := range b.geometries {
		provider.Release()
		delete(b.geometries, id)
	}
	for _, provider := range []bind_group_provider.BindGroupProvider{b.camera, b.lighting, b.models, b.joints} {
		if provider != nil {
			provider.Release()
		}
	}
	b.camera, b.lighting, b.models, b.joints = nil, nil, nil, nil

	for _, p := range []pipeline.Pipeline{b.staticPipeline, b.skinnedPipeline} {
		if p == nil {
			continue
		}
		if rp, ok := p.Pipeline().(*wgpu.RenderPipeline); ok && rp != nil {
			rp.Release()
		}
		p.SetPipeline(nil)
	}
	for g, layout := range b.layouts {
		layout.Release()
		delete(b.layouts, g)
	}
	b.releaseTargets()

	if b.queue != nil {
		b.queue.Release()
		b.queue = nil
	}
	if b.device != nil {
		b.device.Release()
		b.device = nil
	}
	if b.adapter != nil {
		b.adapter.Release()
		b.adapter = nil
	}
	if b.surface != nil {
		b.surface.Release()
		b.surface = nil
	}
	if b.instance != nil {
		b.instance.Release()
		b.instance = nil
	}
}
