package shader

import (
	"errors"
	"regexp"
	"sort"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/rotisserie/eris"
)

// ErrMissingEntryPoint is returned when a WGSL source has no entry point for the requested stage.
var ErrMissingEntryPoint = errors.New("shader has no entry point for stage")

// ShaderType identifies the pipeline stage a shader is built for.
type ShaderType int

const (
	// ShaderTypeVertex is the vertex shader type.
	ShaderTypeVertex ShaderType = iota

	// ShaderTypeFragment is the fragment shader type, used in pair with a vertex shader.
	ShaderTypeFragment
)

var (
	vertexEntryRegex   = regexp.MustCompile(`(?s)@vertex\b.*?\bfn\s+(\w+)`)
	fragmentEntryRegex = regexp.MustCompile(`(?s)@fragment\b.*?\bfn\s+(\w+)`)
)

// shader is the implementation of the Shader interface.
type shader struct {
	key          string
	source       string
	language     Language
	shaderType   ShaderType
	entryPoint   string
	module       *wgpu.ShaderModuleDescriptor
	declarations []Annotation
}

// Shader is a pre-processed shader stage ready for pipeline creation.
type Shader interface {
	// Key retrieves the unique identifier for this shader.
	//
	// Returns:
	//   - string: the shader's unique key
	Key() string

	// Source retrieves the pre-processed source code.
	//
	// Returns:
	//   - string: the processed source
	Source() string

	// Language returns the shading language of Source.
	//
	// Returns:
	//   - Language: the language
	Language() Language

	// ShaderType returns the pipeline stage of the shader.
	//
	// Returns:
	//   - ShaderType: ShaderTypeVertex or ShaderTypeFragment
	ShaderType() ShaderType

	// EntryPoint returns the entry point name for this shader. GLSL shaders always use "main".
	//
	// Returns:
	//   - string: the entry point name
	EntryPoint() string

	// Module returns the wgpu shader module descriptor, or nil for GLSL shaders.
	//
	// Returns:
	//   - *wgpu.ShaderModuleDescriptor: the module descriptor
	Module() *wgpu.ShaderModuleDescriptor

	// Declarations returns the uniform group declarations found in the source.
	//
	// Returns:
	//   - []Annotation: the group annotations in source order
	Declarations() []Annotation
}

var _ Shader = &shader{}

// NewShader pre-processes source and builds a Shader for one stage.
//
// Parameters:
//   - key: a unique identifier for the shader, used as the module label
//   - language: the language of source
//   - shaderType: the stage to build
//   - source: the raw source containing @oxy: annotations
//
// Returns:
//   - Shader: the processed shader
//   - error: a wrapped ErrMalformedAnnotation or ErrMissingEntryPoint
func NewShader(key string, language Language, shaderType ShaderType, source string) (Shader, error) {
	pp := NewPreProcessor(language)
	processed, err := pp.Process(source)
	if err != nil {
		return nil, eris.Wrapf(err, "shader %s", key)
	}

	s := &shader{
		key:          key,
		source:       processed,
		language:     language,
		shaderType:   shaderType,
		entryPoint:   "main",
		declarations: append([]Annotation(nil), pp.Declarations()...),
	}
	if language == LanguageWGSL {
		re := vertexEntryRegex
		if shaderType == ShaderTypeFragment {
			re = fragmentEntryRegex
		}
		m := re.FindStringSubmatch(processed)
		if m == nil {
			return nil, eris.Wrapf(ErrMissingEntryPoint, "shader %s", key)
		}
		s.entryPoint = m[1]
		s.module = &wgpu.ShaderModuleDescriptor{
			Label:          key,
			WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: processed},
		}
	}
	return s, nil
}

func (s *shader) Key() string {
	return s.key
}

func (s *shader) Source() string {
	return s.source
}

func (s *shader) Language() Language {
	return s.language
}

func (s *shader) ShaderType() ShaderType {
	return s.shaderType
}

func (s *shader) EntryPoint() string {
	return s.entryPoint
}

func (s *shader) Module() *wgpu.ShaderModuleDescriptor {
	return s.module
}

func (s *shader) Declarations() []Annotation {
	return s.declarations
}

// BindGroupLayoutDescriptors builds one layout per group from the declarations of the given
// stages. A binding declared by several stages is visible to all of them.
//
// Parameters:
//   - shaders: the stages of one pipeline
//
// Returns:
//   - map[int]wgpu.BindGroupLayoutDescriptor: layout descriptors keyed by group index
func BindGroupLayoutDescriptors(shaders ...Shader) map[int]wgpu.BindGroupLayoutDescriptor {
	type key struct{ group, binding int }
	entries := make(map[key]wgpu.BindGroupLayoutEntry)

	for _, s := range shaders {
		visibility := wgpu.ShaderStageVertex
		if s.ShaderType() == ShaderTypeFragment {
			visibility = wgpu.ShaderStageFragment
		}
		for _, d := range s.Declarations() {
			k := key{*d.Group, *d.Binding}
			e, ok := entries[k]
			if !ok {
				e = wgpu.BindGroupLayoutEntry{
					Binding: uint32(*d.Binding),
					Buffer: wgpu.BufferBindingLayout{
						Type:             wgpu.BufferBindingTypeUniform,
						HasDynamicOffset: d.Dynamic(),
						MinBindingSize:   BindingSize(d.StructType()),
					},
				}
			}
			e.Visibility |= visibility
			entries[k] = e
		}
	}

	grouped := make(map[int][]wgpu.BindGroupLayoutEntry)
	for k, e := range entries {
		grouped[k.group] = append(grouped[k.group], e)
	}
	result := make(map[int]wgpu.BindGroupLayoutDescriptor, len(grouped))
	for g, list := range grouped {
		sort.Slice(list, func(i, j int) bool { return list[i].Binding < list[j].Binding })
		result[g] = wgpu.BindGroupLayoutDescriptor{Entries: list}
	}
	return result
}
