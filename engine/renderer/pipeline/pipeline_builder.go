package pipeline

import "github.com/cogentcore/webgpu/wgpu"

// PipelineBuilderOption is a functional option used to configure a Pipeline during construction.
type PipelineBuilderOption func(*pipeline)

// WithDepth sets the depth test and depth write state of the pipeline. Both default to enabled.
//
// Parameters:
//   - test: whether fragments are depth tested
//   - write: whether passing fragments write depth
//
// Returns:
//   - PipelineBuilderOption: a function that applies the depth state to a pipeline
func WithDepth(test, write bool) PipelineBuilderOption {
	return func(p *pipeline) {
		p.depthTestEnabled = test
		p.depthWriteEnabled = write
	}
}

// WithBlendState replaces the default alpha blend state. A nil state disables blending.
//
// Parameters:
//   - blendState: the blend state, or nil
//
// Returns:
//   - PipelineBuilderOption: a function that applies the blend state to a pipeline
func WithBlendState(blendState *wgpu.BlendState) PipelineBuilderOption {
	return func(p *pipeline) {
		p.blendEnabled = blendState != nil
		if blendState != nil {
			p.blendState = blendState
		}
	}
}

// WithCullMode sets the face culling mode. Defaults to wgpu.CullModeNone.
func WithCullMode(mode wgpu.CullMode) PipelineBuilderOption {
	return func(p *pipeline) {
		p.cullMode = mode
	}
}

// WithFrontFace sets the winding order of front faces. Defaults to wgpu.FrontFaceCCW.
func WithFrontFace(frontFace wgpu.FrontFace) PipelineBuilderOption {
	return func(p *pipeline) {
		p.frontFace = frontFace
	}
}

// WithTopology sets the primitive topology. Defaults to triangle lists.
func WithTopology(topology wgpu.PrimitiveTopology) PipelineBuilderOption {
	return func(p *pipeline) {
		p.topology = topology
	}
}

// WithWriteMask sets the color write mask. Defaults to wgpu.ColorWriteMaskAll.
func WithWriteMask(writeMask wgpu.ColorWriteMask) PipelineBuilderOption {
	return func(p *pipeline) {
		p.writeMask = writeMask
	}
}
