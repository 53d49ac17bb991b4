package pipeline

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-ecs/common"
	"github.com/Carmen-Shannon/oxy-ecs/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticPipelineDefaults(t *testing.T) {
	p, err := NewPipeline("static", shader.ProgramStatic, shader.LanguageWGSL)
	require.NoError(t, err)

	assert.True(t, p.DepthTestEnabled())
	assert.True(t, p.DepthWriteEnabled())
	assert.Equal(t, wgpu.CullModeNone, p.CullMode())
	assert.NotNil(t, p.BlendState())
	assert.Nil(t, p.Pipeline())

	layouts := p.VertexLayouts()
	require.Len(t, layouts, 1)
	assert.Equal(t, uint64(common.VertexStride), layouts[0].ArrayStride)
	assert.Len(t, p.BindGroupLayoutDescriptors(), 3)
	assert.Equal(t, "fs_main", p.Shader(shader.ShaderTypeFragment).EntryPoint())
}

func TestSkinnedPipelineLayouts(t *testing.T) {
	p, err := NewPipeline("skinned", shader.ProgramSkinned, shader.LanguageWGSL,
		WithDepth(true, false), WithBlendState(nil), WithCullMode(wgpu.CullModeBack))
	require.NoError(t, err)

	assert.False(t, p.DepthWriteEnabled())
	assert.Nil(t, p.BlendState())
	assert.Equal(t, wgpu.CullModeBack, p.CullMode())

	layouts := p.VertexLayouts()
	require.Len(t, layouts, 2)
	assert.Equal(t, uint64(common.SkinStride), layouts[1].ArrayStride)
	assert.Equal(t, wgpu.VertexFormatUint8x4, layouts[1].Attributes[0].Format)
	assert.Equal(t, uint64(4), layouts[1].Attributes[1].Offset)
	assert.Len(t, p.BindGroupLayoutDescriptors(), 4)

	p.SetPipeline(uint32(7))
	assert.Equal(t, uint32(7), p.Pipeline())
}
