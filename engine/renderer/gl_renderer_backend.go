package renderer

import (
	"runtime"
	"sync"

	"github.com/Carmen-Shannon/oxy-ecs/common"
	"github.com/Carmen-Shannon/oxy-ecs/engine/logger"
	"github.com/Carmen-Shannon/oxy-ecs/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-ecs/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-ecs/engine/window"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// glGeometry holds the vertex array and buffers of one registered geometry.
type glGeometry struct {
	vao, vbo, skin, ebo uint32
	indexCount          int32
	indexType           uint32
}

// glSlotBuffer is a uniform buffer addressed by BindBufferRange at slot offsets.
type glSlotBuffer struct {
	buffer   uint32
	slotSize uint32
	capacity int
}

type glRendererBackend struct {
	mu       sync.Mutex
	win      window.Window
	settings BackendSettings

	alignment uint32
	samples   int32

	staticPipeline  pipeline.Pipeline
	skinnedPipeline pipeline.Pipeline

	// bindingSizes holds the block size of every uniform group.
	bindingSizes map[int]int

	cameraUBO   uint32
	lightingUBO uint32
	models      glSlotBuffer
	joints      glSlotBuffer

	geometries map[common.GeometryID]*glGeometry

	// The frame is drawn into an offscreen framebuffer and blitted to the window, which
	// resolves MSAA in the same step.
	width, height int
	fbo           uint32
	colorRB       uint32
	depthRB       uint32

	framePipeline pipeline.Pipeline
	inFrame       bool
	released      bool
}

var _ RendererBackend = &glRendererBackend{}

// newGLRendererBackend loads OpenGL 4.1 core entry points for the window's context and
// builds both programs and the shared uniform buffers.
//
// Parameters:
//   - win: the window to present to; must be created with window.ClientAPIOpenGL
//   - settings: presentation settings
//
// Returns:
//   - RendererBackend: the backend
//   - error: ErrNoAdapter when the context cannot be initialised
func newGLRendererBackend(win window.Window, settings BackendSettings) (RendererBackend, error) {
	if win == nil {
		return nil, eris.New("opengl backend requires a window")
	}
	if win.ClientAPI() != window.ClientAPIOpenGL {
		return nil, eris.Errorf("window client api is %s, want %s", win.ClientAPI(), window.ClientAPIOpenGL)
	}

	runtime.LockOSThread()
	win.MakeContextCurrent()
	if err := gl.Init(); err != nil {
		return nil, eris.Wrap(ErrNoAdapter, err.Error())
	}

	b := &glRendererBackend{
		win:          win,
		settings:     settings,
		bindingSizes: make(map[int]int),
		geometries:   make(map[common.GeometryID]*glGeometry),
	}

	if settings.PresentMode == PresentModeVSync {
		win.SetSwapInterval(1)
	} else {
		win.SetSwapInterval(0)
	}

	var alignment, maxSamples int32
	gl.GetIntegerv(gl.UNIFORM_BUFFER_OFFSET_ALIGNMENT, &alignment)
	gl.GetIntegerv(gl.MAX_SAMPLES, &maxSamples)
	b.alignment = uint32(alignment)
	b.samples = min(int32(common.Coalesce(settings.MSAA, MSAAOff)), max(maxSamples, 1))
	if b.samples <= 1 {
		// Zero samples allocates single-sampled renderbuffers.
		b.samples = 0
	}

	if err := b.buildPipelines(); err != nil {
		b.Release()
		return nil, err
	}

	b.cameraUBO = b.createUniformBuffer(b.bindingSizes[groupCamera])
	b.lightingUBO = b.createUniformBuffer(b.bindingSizes[groupLighting])

	logger.Info("opengl backend ready",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
		zap.Uint32("alignment", b.alignment),
		zap.Int32("msaa", b.samples),
	)
	return b, nil
}

func (b *glRendererBackend) buildPipelines() error {
	static, err := pipeline.NewPipeline("static", shader.ProgramStatic, shader.LanguageGLSL)
	if err != nil {
		return err
	}
	skinned, err := pipeline.NewPipeline("skinned", shader.ProgramSkinned, shader.LanguageGLSL)
	if err != nil {
		return err
	}
	for g, desc := range skinned.BindGroupLayoutDescriptors() {
		if len(desc.Entries) > 0 {
			b.bindingSizes[g] = int(desc.Entries[0].Buffer.MinBindingSize)
		}
	}
	for _, p := range []pipeline.Pipeline{static, skinned} {
		program, err := linkProgram(p)
		if err != nil {
			return err
		}
		p.SetPipeline(program)
	}
	b.staticPipeline, b.skinnedPipeline = static, skinned
	return nil
}

// linkProgram compiles and links both stages of p and binds every uniform block to the
// binding point equal to its group index.
func linkProgram(p pipeline.Pipeline) (uint32, error) {
	vertexShader := p.Shader(shader.ShaderTypeVertex)
	fragmentShader := p.Shader(shader.ShaderTypeFragment)

	vs, err := compileShader(vertexShader.Source(), gl.VERTEX_SHADER)
	if err != nil {
		return 0, eris.Wrapf(err, "vertex shader %s", vertexShader.Key())
	}
	defer gl.DeleteShader(vs)
	fs, err := compileShader(fragmentShader.Source(), gl.FRAGMENT_SHADER)
	if err != nil {
		return 0, eris.Wrapf(err, "fragment shader %s", fragmentShader.Key())
	}
	defer gl.DeleteShader(fs)

	program := gl.CreateProgram()
	gl.AttachShader(program, vs)
	gl.AttachShader(program, fs)
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)
		log := make([]byte, max(logLength, 1))
		gl.GetProgramInfoLog(program, logLength, nil, &log[0])
		gl.DeleteProgram(program)
		return 0, eris.Errorf("link program %s: %s", p.PipelineKey(), string(log))
	}

	for _, s := range []shader.Shader{vertexShader, fragmentShader} {
		for _, d := range s.Declarations() {
			index := gl.GetUniformBlockIndex(program, gl.Str(shader.BlockName(d.VarName())+"\x00"))
			if index == gl.INVALID_INDEX {
				continue
			}
			gl.UniformBlockBinding(program, index, uint32(*d.Group))
		}
	}
	return program, nil
}

func compileShader(source string, shaderType uint32) (uint32, error) {
	s := gl.CreateShader(shaderType)
	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(s, 1, csources, nil)
	free()
	gl.CompileShader(s)

	var status int32
	gl.GetShaderiv(s, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(s, gl.INFO_LOG_LENGTH, &logLength)
		log := make([]byte, max(logLength, 1))
		gl.GetShaderInfoLog(s, logLength, nil, &log[0])
		gl.DeleteShader(s)
		return 0, eris.Errorf("compile: %s", string(log))
	}
	return s, nil
}

func (b *glRendererBackend) createUniformBuffer(size int) uint32 {
	var ubo uint32
	gl.GenBuffers(1, &ubo)
	gl.BindBuffer(gl.UNIFORM_BUFFER, ubo)
	gl.BufferData(gl.UNIFORM_BUFFER, size, nil, gl.DYNAMIC_DRAW)
	gl.BindBuffer(gl.UNIFORM_BUFFER, 0)
	return ubo
}

func (b *glRendererBackend) Type() RendererBackendType {
	return BackendTypeOpenGL
}

func (b *glRendererBackend) Limits() BackendLimits {
	return BackendLimits{MinUniformOffsetAlignment: b.alignment}
}

func (b *glRendererBackend) CreateGeometry(id common.GeometryID, upload GeometryUpload) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.released {
		return eris.Wrap(ErrReleased, "create geometry")
	}

	p := b.staticPipeline
	if upload.Skinned() {
		p = b.skinnedPipeline
	}
	layouts := p.VertexLayouts()

	g := &glGeometry{indexCount: int32(upload.IndexCount), indexType: glIndexType(upload.IndexFormat)}
	gl.GenVertexArrays(1, &g.vao)
	gl.BindVertexArray(g.vao)

	streams := [][]byte{upload.Vertices, upload.Skin}
	handles := []*uint32{&g.vbo, &g.skin}
	for slot, layout := range layouts {
		data := streams[slot]
		gl.GenBuffers(1, handles[slot])
		gl.BindBuffer(gl.ARRAY_BUFFER, *handles[slot])
		gl.BufferData(gl.ARRAY_BUFFER, len(data), gl.Ptr(data), gl.STATIC_DRAW)
		if err := applyVertexLayout(layout); err != nil {
			gl.BindVertexArray(0)
			b.deleteGeometry(g)
			return eris.Wrapf(err, "geometry %d", id)
		}
	}

	gl.GenBuffers(1, &g.ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, g.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(upload.Indices), gl.Ptr(upload.Indices), gl.STATIC_DRAW)

	gl.BindVertexArray(0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)

	b.geometries[id] = g
	return nil
}

// applyVertexLayout points the attributes of one vertex stream at the bound array buffer.
func applyVertexLayout(layout wgpu.VertexBufferLayout) error {
	stride := int32(layout.ArrayStride)
	for _, attr := range layout.Attributes {
		size, xtype, integer, err := glVertexFormat(attr.Format)
		if err != nil {
			return err
		}
		if integer {
			gl.VertexAttribIPointerWithOffset(attr.ShaderLocation, size, xtype, stride, uintptr(attr.Offset))
		} else {
			gl.VertexAttribPointerWithOffset(attr.ShaderLocation, size, xtype, false, stride, uintptr(attr.Offset))
		}
		gl.EnableVertexAttribArray(attr.ShaderLocation)
	}
	return nil
}

func glVertexFormat(f wgpu.VertexFormat) (size int32, xtype uint32, integer bool, err error) {
	switch f {
	case wgpu.VertexFormatFloat32x3:
		return 3, gl.FLOAT, false, nil
	case wgpu.VertexFormatFloat32x4:
		return 4, gl.FLOAT, false, nil
	case wgpu.VertexFormatUint8x4:
		return 4, gl.UNSIGNED_BYTE, true, nil
	default:
		return 0, 0, false, eris.Errorf("unsupported vertex format %d", f)
	}
}

func glIndexType(f common.IndexFormat) uint32 {
	if f == common.IndexFormatUint16 {
		return gl.UNSIGNED_SHORT
	}
	return gl.UNSIGNED_INT
}

func (b *glRendererBackend) ReleaseGeometry(id common.GeometryID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if g, ok := b.geometries[id]; ok {
		b.deleteGeometry(g)
		delete(b.geometries, id)
	}
}

func (b *glRendererBackend) deleteGeometry(g *glGeometry) {
	for _, buf := range []uint32{g.vbo, g.skin, g.ebo} {
		if buf != 0 {
			gl.DeleteBuffers(1, &buf)
		}
	}
	if g.vao != 0 {
		gl.DeleteVertexArrays(1, &g.vao)
	}
}

// ResizeTarget recreates the offscreen color and depth renderbuffers.
func (b *glRendererBackend) ResizeTarget(width, height int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.released {
		return eris.Wrap(ErrReleased, "resize target")
	}
	b.deleteTarget()

	w, h := int32(width), int32(height)
	gl.GenRenderbuffers(1, &b.colorRB)
	gl.BindRenderbuffer(gl.RENDERBUFFER, b.colorRB)
	gl.RenderbufferStorageMultisample(gl.RENDERBUFFER, b.samples, gl.RGBA8, w, h)

	gl.GenRenderbuffers(1, &b.depthRB)
	gl.BindRenderbuffer(gl.RENDERBUFFER, b.depthRB)
	gl.RenderbufferStorageMultisample(gl.RENDERBUFFER, b.samples, gl.DEPTH_COMPONENT24, w, h)
	gl.BindRenderbuffer(gl.RENDERBUFFER, 0)

	gl.GenFramebuffers(1, &b.fbo)
	gl.BindFramebuffer(gl.FRAMEBUFFER, b.fbo)
	gl.FramebufferRenderbuffer(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.RENDERBUFFER, b.colorRB)
	gl.FramebufferRenderbuffer(gl.FRAMEBUFFER, gl.DEPTH_ATTACHMENT, gl.RENDERBUFFER, b.depthRB)
	status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	if status != gl.FRAMEBUFFER_COMPLETE {
		b.deleteTarget()
		return eris.Errorf("framebuffer incomplete: 0x%x", status)
	}

	b.width, b.height = width, height
	return nil
}

func (b *glRendererBackend) deleteTarget() {
	if b.fbo != 0 {
		gl.DeleteFramebuffers(1, &b.fbo)
		b.fbo = 0
	}
	if b.colorRB != 0 {
		gl.DeleteRenderbuffers(1, &b.colorRB)
		b.colorRB = 0
	}
	if b.depthRB != 0 {
		gl.DeleteRenderbuffers(1, &b.depthRB)
		b.depthRB = 0
	}
}

func (b *glRendererBackend) WriteCamera(data []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.cameraUBO != 0 {
		writeUniform(b.cameraUBO, 0, data)
	}
}

func (b *glRendererBackend) WriteLighting(data []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.lightingUBO != 0 {
		writeUniform(b.lightingUBO, 0, data)
	}
}

func writeUniform(ubo uint32, offset int, data []byte) {
	if len(data) == 0 {
		return
	}
	gl.BindBuffer(gl.UNIFORM_BUFFER, ubo)
	gl.BufferSubData(gl.UNIFORM_BUFFER, offset, len(data), gl.Ptr(data))
	gl.BindBuffer(gl.UNIFORM_BUFFER, 0)
}

func (b *glRendererBackend) WriteModels(slotSize uint32, slotCount int, writes []SlotWrite) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.released {
		return eris.Wrap(ErrReleased, "write models")
	}
	b.writeSlots(&b.models, "model", slotSize, slotCount, writes)
	return nil
}

func (b *glRendererBackend) WriteJoints(slotSize uint32, slotCount int, writes []SlotWrite) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.released {
		return eris.Wrap(ErrReleased, "write joints")
	}
	b.writeSlots(&b.joints, "joints", slotSize, slotCount, writes)
	return nil
}

// writeSlots reallocates target when it cannot address slotCount slots, then uploads writes.
func (b *glRendererBackend) writeSlots(target *glSlotBuffer, label string, slotSize uint32, slotCount int, writes []SlotWrite) {
	if target.buffer == 0 || target.slotSize != slotSize || slotCount > target.capacity {
		capacity := minSlotCapacity
		if target.buffer != 0 && target.slotSize == slotSize {
			capacity = target.capacity
		}
		capacity = growCapacity(capacity, slotCount)
		if target.buffer != 0 {
			gl.DeleteBuffers(1, &target.buffer)
			logger.Debug("grew uniform buffer", zap.String("buffer", label), zap.Int("slots", capacity))
		}
		*target = glSlotBuffer{
			buffer:   b.createUniformBuffer(int(slotSize) * capacity),
			slotSize: slotSize,
			capacity: capacity,
		}
	}
	gl.BindBuffer(gl.UNIFORM_BUFFER, target.buffer)
	for _, w := range writes {
		if len(w.Data) > 0 {
			gl.BufferSubData(gl.UNIFORM_BUFFER, int(w.Offset), len(w.Data), gl.Ptr(w.Data))
		}
	}
	gl.BindBuffer(gl.UNIFORM_BUFFER, 0)
}

func (b *glRendererBackend) BeginFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.released {
		return eris.Wrap(ErrReleased, "begin frame")
	}
	if b.fbo == 0 {
		return eris.New("render target not configured")
	}
	if b.inFrame {
		return eris.New("previous frame not ended")
	}

	gl.BindFramebuffer(gl.FRAMEBUFFER, b.fbo)
	gl.Viewport(0, 0, int32(b.width), int32(b.height))
	gl.DepthMask(true)
	clear := b.settings.ClearColor
	gl.ClearColor(clear[0], clear[1], clear[2], 1)
	gl.ClearDepth(1)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

	gl.BindBufferBase(gl.UNIFORM_BUFFER, groupCamera, b.cameraUBO)
	gl.BindBufferBase(gl.UNIFORM_BUFFER, groupLighting, b.lightingUBO)

	b.framePipeline = nil
	b.inFrame = true
	return nil
}

// bindFrame switches to p's program and render state when p is not already bound.
func (b *glRendererBackend) bindFrame(p pipeline.Pipeline) {
	if b.framePipeline == p {
		return
	}
	gl.UseProgram(p.Pipeline().(uint32))

	if p.DepthTestEnabled() {
		gl.Enable(gl.DEPTH_TEST)
		gl.DepthFunc(gl.LESS)
	} else {
		gl.Disable(gl.DEPTH_TEST)
	}
	gl.DepthMask(p.DepthWriteEnabled())

	if p.BlendEnabled() {
		gl.Enable(gl.BLEND)
		gl.BlendFuncSeparate(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA, gl.ONE, gl.ONE_MINUS_SRC_ALPHA)
	} else {
		gl.Disable(gl.BLEND)
	}

	switch p.CullMode() {
	case wgpu.CullModeBack:
		gl.Enable(gl.CULL_FACE)
		gl.CullFace(gl.BACK)
	case wgpu.CullModeFront:
		gl.Enable(gl.CULL_FACE)
		gl.CullFace(gl.FRONT)
	default:
		gl.Disable(gl.CULL_FACE)
	}
	if p.FrontFace() == wgpu.FrontFaceCW {
		gl.FrontFace(gl.CW)
	} else {
		gl.FrontFace(gl.CCW)
	}
	b.framePipeline = p
}

func (b *glRendererBackend) drawGeometry(g *glGeometry) {
	gl.BindVertexArray(g.vao)
	gl.DrawElements(gl.TRIANGLES, g.indexCount, g.indexType, nil)
}

func (b *glRendererBackend) DrawStatic(id common.GeometryID, modelOffset uint32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	g, ok := b.geometries[id]
	if !ok || !b.inFrame || b.models.buffer == 0 {
		return
	}
	b.bindFrame(b.staticPipeline)
	gl.BindBufferRange(gl.UNIFORM_BUFFER, groupModel, b.models.buffer, int(modelOffset), b.bindingSizes[groupModel])
	b.drawGeometry(g)
}

func (b *glRendererBackend) DrawSkinned(id common.GeometryID, modelOffset, jointOffset uint32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	g, ok := b.geometries[id]
	if !ok || !b.inFrame || b.models.buffer == 0 || b.joints.buffer == 0 {
		return
	}
	b.bindFrame(b.skinnedPipeline)
	gl.BindBufferRange(gl.UNIFORM_BUFFER, groupModel, b.models.buffer, int(modelOffset), b.bindingSizes[groupModel])
	gl.BindBufferRange(gl.UNIFORM_BUFFER, groupJoints, b.joints.buffer, int(jointOffset), b.bindingSizes[groupJoints])
	b.drawGeometry(g)
}

// EndFrame resolves the offscreen target into the window framebuffer and swaps.
func (b *glRendererBackend) EndFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.inFrame {
		return eris.New("no frame in progress")
	}
	b.inFrame = false

	gl.BindVertexArray(0)
	w, h := int32(b.width), int32(b.height)
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, b.fbo)
	gl.BindFramebuffer(gl.DRAW_FRAMEBUFFER, 0)
	gl.BlitFramebuffer(0, 0, w, h, 0, 0, w, h, gl.COLOR_BUFFER_BIT, gl.NEAREST)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)

	b.win.SwapBuffers()

	if code := gl.GetError(); code != gl.NO_ERROR {
		return eris.Errorf("opengl error 0x%x", code)
	}
	return nil
}

// Release deletes every GL object. The context itself belongs to the window.
func (b *glRendererBackend) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.released {
		return
	}
	b.released = true
	b.inFrame = false

	for id, g := range b.geometries {
		b.deleteGeometry(g)
		delete(b.geometries, id)
	}
	for _, ubo := range []*uint32{&b.cameraUBO, &b.lightingUBO, &b.models.buffer, &b.joints.buffer} {
		if *ubo != 0 {
			gl.DeleteBuffers(1, ubo)
			*ubo = 0
		}
	}
	for _, p := range []pipeline.Pipeline{b.staticPipeline, b.skinnedPipeline} {
		if p == nil {
			continue
		}
		if program, ok := p.Pipeline().(uint32); ok && program != 0 {
			gl.DeleteProgram(program)
		}
		p.SetPipeline(nil)
	}
	b.deleteTarget()
}
