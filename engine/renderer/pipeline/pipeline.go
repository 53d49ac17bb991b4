package pipeline

import (
	"github.com/Carmen-Shannon/oxy-ecs/common"
	"github.com/Carmen-Shannon/oxy-ecs/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/rotisserie/eris"
)

// pipeline is the implementation of the Pipeline interface.
type pipeline struct {
	pipelineKey string
	program     shader.Program

	vertexShader, fragmentShader shader.Shader

	// handle is the backend object built from this description: *wgpu.RenderPipeline or a GL program id.
	handle any

	depthTestEnabled  bool
	depthWriteEnabled bool
	blendEnabled      bool
	cullMode          wgpu.CullMode
	topology          wgpu.PrimitiveTopology
	frontFace         wgpu.FrontFace
	writeMask         wgpu.ColorWriteMask
	blendState        *wgpu.BlendState
}

// Pipeline describes the render state of one of the built-in programs. Backends build their
// native pipeline object from it and store it with SetPipeline. The state is expressed in
// wgpu terms; the OpenGL backend translates what it needs.
type Pipeline interface {
	// PipelineKey returns the unique key associated with this pipeline.
	//
	// Returns:
	//   - string: the unique key for this pipeline
	PipelineKey() string

	// Program returns the built-in program the pipeline draws with.
	//
	// Returns:
	//   - shader.Program: ProgramStatic or ProgramSkinned
	Program() shader.Program

	// Shader retrieves the shader of the given stage.
	//
	// Parameters:
	//   - shaderType: the stage
	//
	// Returns:
	//   - shader.Shader: the stage's shader
	Shader(shaderType shader.ShaderType) shader.Shader

	// VertexLayouts returns the vertex buffer layouts in slot order: the 36-byte vertex
	// stream, then for skinned pipelines the 20-byte skin stream.
	//
	// Returns:
	//   - []wgpu.VertexBufferLayout: the layouts
	VertexLayouts() []wgpu.VertexBufferLayout

	// BindGroupLayoutDescriptors returns the uniform layout of every bind group used by the shaders.
	//
	// Returns:
	//   - map[int]wgpu.BindGroupLayoutDescriptor: descriptors keyed by group index
	BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor

	// Pipeline returns the backend object stored with SetPipeline, or nil.
	//
	// Returns:
	//   - any: the backend pipeline object
	Pipeline() any

	// SetPipeline stores the backend object built from this description.
	//
	// Parameters:
	//   - handle: the backend pipeline object
	SetPipeline(handle any)

	// DepthTestEnabled returns whether depth testing is enabled for this pipeline.
	DepthTestEnabled() bool

	// DepthWriteEnabled returns whether depth writing is enabled for this pipeline.
	DepthWriteEnabled() bool

	// BlendEnabled returns whether alpha blending is enabled for this pipeline.
	BlendEnabled() bool

	// CullMode returns the face culling mode.
	CullMode() wgpu.CullMode

	// Topology returns the primitive topology.
	Topology() wgpu.PrimitiveTopology

	// FrontFace returns the front face winding order.
	FrontFace() wgpu.FrontFace

	// WriteMask returns the color write mask.
	WriteMask() wgpu.ColorWriteMask

	// BlendState returns the blend state, or nil when blending is disabled.
	//
	// Returns:
	//   - *wgpu.BlendState: the blend state
	BlendState() *wgpu.BlendState
}

var _ Pipeline = &pipeline{}

// NewPipeline builds the shaders of program in language and applies the options.
//
// Parameters:
//   - pipelineKey: the unique key for this pipeline
//   - program: the built-in program to draw with
//   - language: the shading language of the target backend
//   - opts: a variadic list of PipelineBuilderOption functions to configure the pipeline
//
// Returns:
//   - Pipeline: the pipeline description
//   - error: a shader build error
func NewPipeline(pipelineKey string, program shader.Program, language shader.Language, opts ...PipelineBuilderOption) (Pipeline, error) {
	vs, fs, err := shader.NewProgram(program, language)
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline %s", pipelineKey)
	}
	p := &pipeline{
		pipelineKey:       pipelineKey,
		program:           program,
		vertexShader:      vs,
		fragmentShader:    fs,
		depthTestEnabled:  true,
		depthWriteEnabled: true,
		blendEnabled:      true,
		cullMode:          wgpu.CullModeNone,
		topology:          wgpu.PrimitiveTopologyTriangleList,
		frontFace:         wgpu.FrontFaceCCW,
		writeMask:         wgpu.ColorWriteMaskAll,
		blendState: &wgpu.BlendState{
			Color: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorSrcAlpha,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
				Operation: wgpu.BlendOperationAdd,
			},
			Alpha: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorOne,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
				Operation: wgpu.BlendOperationAdd,
			},
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

func (p *pipeline) PipelineKey() string {
	return p.pipelineKey
}

func (p *pipeline) Program() shader.Program {
	return p.program
}

func (p *pipeline) Shader(shaderType shader.ShaderType) shader.Shader {
	if shaderType == shader.ShaderTypeFragment {
		return p.fragmentShader
	}
	return p.vertexShader
}

func (p *pipeline) VertexLayouts() []wgpu.VertexBufferLayout {
	layouts := []wgpu.VertexBufferLayout{{
		ArrayStride: common.VertexStride,
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes: []wgpu.VertexAttribute{
			{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
			{Format: wgpu.VertexFormatFloat32x3, Offset: 12, ShaderLocation: 1},
			{Format: wgpu.VertexFormatFloat32x3, Offset: 24, ShaderLocation: 2},
		},
	}}
	if p.program == shader.ProgramSkinned {
		layouts = append(layouts, wgpu.VertexBufferLayout{
			ArrayStride: common.SkinStride,
			StepMode:    wgpu.VertexStepModeVertex,
			Attributes: []wgpu.VertexAttribute{
				{Format: wgpu.VertexFormatUint8x4, Offset: 0, ShaderLocation: 3},
				{Format: wgpu.VertexFormatFloat32x4, Offset: 4, ShaderLocation: 4},
			},
		})
	}
	return layouts
}

func (p *pipeline) BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor {
	return shader.BindGroupLayoutDescriptors(p.vertexShader, p.fragmentShader)
}

func (p *pipeline) Pipeline() any {
	return p.handle
}

func (p *pipeline) SetPipeline(handle any) {
	p.handle = handle
}

func (p *pipeline) DepthTestEnabled() bool {
	return p.depthTestEnabled
}

func (p *pipeline) DepthWriteEnabled() bool {
	return p.depthWriteEnabled
}

func (p *pipeline) BlendEnabled() bool {
	return p.blendEnabled
}

func (p *pipeline) CullMode() wgpu.CullMode {
	return p.cullMode
}

func (p *pipeline) Topology() wgpu.PrimitiveTopology {
	return p.topology
}

func (p *pipeline) FrontFace() wgpu.FrontFace {
	return p.frontFace
}

func (p *pipeline) WriteMask() wgpu.ColorWriteMask {
	return p.writeMask
}

func (p *pipeline) BlendState() *wgpu.BlendState {
	if !p.blendEnabled {
		return nil
	}
	return p.blendState
}
