// pre_processor.go implements the Oxy shader pre-processor. It scans shader source for
// @oxy: annotations, replaces them with injected struct source or generated uniform
// declarations in the target Language, and collects the group declarations that the
// renderer backends use to build bind group layouts (wgpu) or bind uniform blocks (OpenGL).
package shader

import (
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/oxy-ecs/engine/camera"
	"github.com/Carmen-Shannon/oxy-ecs/engine/light"
	"github.com/Carmen-Shannon/oxy-ecs/engine/model"
	"github.com/Carmen-Shannon/oxy-ecs/engine/renderer/animator"
	"github.com/rotisserie/eris"
)

// Language selects the shading language a PreProcessor emits.
type Language int

const (
	// LanguageWGSL targets the wgpu backend.
	LanguageWGSL Language = iota

	// LanguageGLSL targets the OpenGL 4.1 core backend.
	LanguageGLSL
)

// String returns the language name.
func (l Language) String() string {
	if l == LanguageGLSL {
		return "glsl"
	}
	return "wgsl"
}

// registryEntry pairs the struct sources of a registered GPU type with its type name and size.
type registryEntry struct {
	// WGSL is the WGSL struct definition injected by @oxy:include.
	WGSL string

	// GLSL is the GLSL struct definition injected by @oxy:include.
	GLSL string

	// Type is the struct type name emitted in group declarations.
	Type string

	// Size is the byte size of one bound struct, used as the binding's minimum size.
	Size uint64
}

// preProcessor is the implementation of the PreProcessor interface.
type preProcessor struct {
	language       Language
	structRegistry map[AnnotationArg]registryEntry
	declarations   []Annotation
}

// PreProcessor processes raw shader source containing @oxy: annotations.
type PreProcessor interface {
	// Process replaces @oxy: annotations with their output in the pre-processor's language.
	// The declarations list is reset at the start of each call.
	//
	// Parameters:
	//   - source: the raw shader source
	//
	// Returns:
	//   - string: the processed source
	//   - error: a wrapped ErrMalformedAnnotation for bad annotations
	Process(source string) (string, error)

	// Declarations returns the group annotations collected by the most recent Process call,
	// in source order.
	//
	// Returns:
	//   - []Annotation: the declarations
	Declarations() []Annotation

	// Language returns the language the pre-processor emits.
	//
	// Returns:
	//   - Language: the target language
	Language() Language
}

var _ PreProcessor = &preProcessor{}

// NewPreProcessor creates a new PreProcessor emitting the given language, with every
// engine GPU type registered.
//
// Parameters:
//   - language: the output language
//
// Returns:
//   - PreProcessor: a ready-to-use pre-processor instance
func NewPreProcessor(language Language) PreProcessor {
	return &preProcessor{
		language:       language,
		structRegistry: structRegistry,
	}
}

// structRegistry maps struct type keys to the engine's GPU types.
var structRegistry = map[AnnotationArg]registryEntry{
	AnnotationArgCamera:        {WGSL: camera.GPUCameraUniformSource, GLSL: camera.GPUCameraUniformGLSLSource, Type: "CameraUniform", Size: uint64((&camera.GPUCameraUniform{}).Size())},
	AnnotationArgLighting:      {WGSL: light.GPULightingSource, GLSL: light.GPULightingGLSLSource, Type: "Lighting", Size: uint64((&light.GPULightingUniform{}).Size())},
	AnnotationArgModel:         {WGSL: model.GPUModelUniformSource, GLSL: model.GPUModelUniformGLSLSource, Type: "ModelUniform", Size: uint64((&model.GPUModelUniform{}).Size())},
	AnnotationArgJoints:        {WGSL: animator.GPUJointPaletteSource, GLSL: animator.GPUJointPaletteGLSLSource, Type: "JointPalette", Size: animator.JointPaletteSize},
	annotationArgVertex:        {WGSL: model.GPUVertexSource, GLSL: model.GPUVertexGLSLSource, Type: "VertexInput"},
	annotationArgSkinnedVertex: {WGSL: model.GPUSkinnedVertexSource, GLSL: model.GPUSkinnedVertexGLSLSource, Type: "VertexInput"},
}

func (p *preProcessor) Language() Language {
	return p.language
}

func (p *preProcessor) Process(source string) (string, error) {
	p.declarations = p.declarations[:0]

	lines := strings.Split(source, "\n")
	out := make([]string, 0, len(lines))

	for i, line := range lines {
		a, err := parseAnnotation(line, i+1)
		if err != nil {
			return "", err
		}
		if a == nil {
			out = append(out, line)
			continue
		}

		entry := p.structRegistry[a.StructType()]
		switch a.Type {
		case annotationTypeInclude:
			if p.language == LanguageGLSL {
				out = append(out, entry.GLSL)
			} else {
				out = append(out, entry.WGSL)
			}
		case AnnotationTypeBindingGroup:
			for _, d := range p.declarations {
				if *d.Group == *a.Group && *d.Binding == *a.Binding {
					return "", eris.Wrapf(ErrMalformedAnnotation, "line %d: group %d binding %d already declared on line %d", a.Line, *a.Group, *a.Binding, d.Line)
				}
			}
			if p.language == LanguageGLSL {
				out = append(out, fmt.Sprintf("layout(std140) uniform %s { %s %s; };", BlockName(a.VarName()), entry.Type, a.VarName()))
			} else {
				out = append(out, fmt.Sprintf("@group(%d) @binding(%d) var<uniform> %s: %s;", *a.Group, *a.Binding, a.VarName(), entry.Type))
			}
			p.declarations = append(p.declarations, *a)
		}
	}
	return strings.Join(out, "\n"), nil
}

func (p *preProcessor) Declarations() []Annotation {
	return p.declarations
}

// BindingSize returns the byte size of a registered uniform struct type.
//
// Parameters:
//   - structType: the struct type key
//
// Returns:
//   - uint64: the size in bytes, 0 for unknown or non-uniform types
func BindingSize(structType AnnotationArg) uint64 {
	return structRegistry[structType].Size
}

// BlockName returns the GLSL uniform block name generated for a group declaration variable.
//
// Parameters:
//   - varName: the declared variable name
//
// Returns:
//   - string: the block name
func BlockName(varName string) string {
	return varName + "_block"
}
