package shader

import (
	_ "embed"
	"fmt"
)

//go:embed assets/static.wgsl
var staticWGSLSource string

//go:embed assets/skinned.wgsl
var skinnedWGSLSource string

//go:embed assets/static.vert
var staticVertexGLSLSource string

//go:embed assets/skinned.vert
var skinnedVertexGLSLSource string

//go:embed assets/lit.frag
var litFragmentGLSLSource string

// Program identifies one of the engine's built-in vertex/fragment shader pairs.
type Program int

const (
	// ProgramStatic draws rigid meshes with camera, model and lighting uniforms.
	ProgramStatic Program = iota

	// ProgramSkinned additionally blends vertices by the joint palette.
	ProgramSkinned
)

// String returns the program name.
func (p Program) String() string {
	if p == ProgramSkinned {
		return "skinned"
	}
	return "static"
}

// NewProgram builds the vertex and fragment stages of a built-in program.
//
// Parameters:
//   - program: the program to build
//   - language: the backend's shading language
//
// Returns:
//   - Shader: the vertex stage
//   - Shader: the fragment stage
//   - error: a pre-processing error
func NewProgram(program Program, language Language) (Shader, Shader, error) {
	vsSource, fsSource := staticWGSLSource, staticWGSLSource
	switch {
	case language == LanguageWGSL && program == ProgramSkinned:
		vsSource, fsSource = skinnedWGSLSource, skinnedWGSLSource
	case language == LanguageGLSL && program == ProgramStatic:
		vsSource, fsSource = staticVertexGLSLSource, litFragmentGLSLSource
	case language == LanguageGLSL && program == ProgramSkinned:
		vsSource, fsSource = skinnedVertexGLSLSource, litFragmentGLSLSource
	}

	vs, err := NewShader(fmt.Sprintf("%s_%s_vs", program, language), language, ShaderTypeVertex, vsSource)
	if err != nil {
		return nil, nil, err
	}
	fs, err := NewShader(fmt.Sprintf("%s_%s_fs", program, language), language, ShaderTypeFragment, fsSource)
	if err != nil {
		return nil, nil, err
	}
	return vs, fs, nil
}
