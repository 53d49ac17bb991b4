package shader

import (
	"strings"
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAnnotation(t *testing.T) {
	a, err := parseAnnotation("   // plain comment", 1)
	require.NoError(t, err)
	assert.Nil(t, a)

	a, err = parseAnnotation("//@oxy:group 3 0 storage_uniform_dynamic palette joints", 7)
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.Equal(t, 3, *a.Group)
	assert.Equal(t, 0, *a.Binding)
	assert.Equal(t, "palette", a.VarName())
	assert.Equal(t, AnnotationArgJoints, a.StructType())
	assert.True(t, a.Dynamic())
	assert.Equal(t, 7, a.Line)
}

func TestParseAnnotationErrors(t *testing.T) {
	lines := []string{
		"//@oxy:",
		"//@oxy:include",
		"//@oxy:include texture",
		"//@oxy:group 0 0 storage_uniform camera",
		"//@oxy:group x 0 storage_uniform camera camera",
		"//@oxy:group 0 -1 storage_uniform camera camera",
		"//@oxy:group 0 0 storage_read camera camera",
		"//@oxy:group 0 0 storage_uniform v vertex",
		"//@oxy:provider 0 0 material",
	}
	for _, line := range lines {
		t.Run(line, func(t *testing.T) {
			_, err := parseAnnotation(line, 1)
			assert.ErrorIs(t, ErrMalformedAnnotation, eris.Cause(err))
		})
	}
}

func TestProcessWGSL(t *testing.T) {
	pp := NewPreProcessor(LanguageWGSL)
	out, err := pp.Process("//@oxy:include camera\n//@oxy:group 0 0 storage_uniform camera camera\nfn f() {}")
	require.NoError(t, err)
	assert.Contains(t, out, "struct CameraUniform")
	assert.Contains(t, out, "@group(0) @binding(0) var<uniform> camera: CameraUniform;")
	assert.NotContains(t, out, annotationPrefix)
	require.Len(t, pp.Declarations(), 1)

	_, err = pp.Process("fn f() {}")
	require.NoError(t, err)
	assert.Empty(t, pp.Declarations(), "declarations reset per call")
}

func TestProcessGLSL(t *testing.T) {
	pp := NewPreProcessor(LanguageGLSL)
	out, err := pp.Process("#version 410 core\n//@oxy:include model\n//@oxy:group 1 0 storage_uniform_dynamic entity model")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "#version 410 core\n"))
	assert.Contains(t, out, "mat4 model;")
	assert.Contains(t, out, "layout(std140) uniform entity_block { ModelUniform entity; };")
}

func TestProcessRejectsDuplicateBinding(t *testing.T) {
	pp := NewPreProcessor(LanguageWGSL)
	_, err := pp.Process("//@oxy:group 0 0 storage_uniform a camera\n//@oxy:group 0 0 storage_uniform b lighting")
	assert.ErrorIs(t, ErrMalformedAnnotation, eris.Cause(err))
}

func TestNewShaderEntryPoints(t *testing.T) {
	vs, fs, err := NewProgram(ProgramSkinned, LanguageWGSL)
	require.NoError(t, err)
	assert.Equal(t, "vs_main", vs.EntryPoint())
	assert.Equal(t, "fs_main", fs.EntryPoint())
	require.NotNil(t, vs.Module())
	assert.Equal(t, "skinned_wgsl_vs", vs.Module().Label)
	assert.Len(t, vs.Declarations(), 4)

	_, err = NewShader("broken", LanguageWGSL, ShaderTypeVertex, "fn nothing() {}")
	assert.ErrorIs(t, ErrMissingEntryPoint, eris.Cause(err))
}

func TestNewProgramGLSL(t *testing.T) {
	for _, p := range []Program{ProgramStatic, ProgramSkinned} {
		vs, fs, err := NewProgram(p, LanguageGLSL)
		require.NoError(t, err, p.String())
		assert.Equal(t, "main", vs.EntryPoint())
		assert.Nil(t, vs.Module())
		assert.NotContains(t, vs.Source(), annotationPrefix)
		assert.NotContains(t, fs.Source(), annotationPrefix)
		require.Len(t, fs.Declarations(), 1)
		assert.Equal(t, "lighting", fs.Declarations()[0].VarName())
	}
}

func TestBindGroupLayoutDescriptors(t *testing.T) {
	vs, fs, err := NewProgram(ProgramSkinned, LanguageWGSL)
	require.NoError(t, err)

	layouts := BindGroupLayoutDescriptors(vs, fs)
	require.Len(t, layouts, 4)

	model := layouts[1].Entries[0]
	assert.True(t, model.Buffer.HasDynamicOffset)
	assert.Equal(t, uint64(80), model.Buffer.MinBindingSize)
	assert.Equal(t, wgpu.ShaderStageVertex|wgpu.ShaderStageFragment, model.Visibility)

	camera := layouts[0].Entries[0]
	assert.False(t, camera.Buffer.HasDynamicOffset)
	assert.Equal(t, uint64(144), camera.Buffer.MinBindingSize)

	assert.Equal(t, uint64(4096), layouts[3].Entries[0].Buffer.MinBindingSize)
	assert.Equal(t, uint64(48), layouts[2].Entries[0].Buffer.MinBindingSize)
}
