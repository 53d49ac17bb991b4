// annotations.go defines the annotation types, argument constants, and parser for the
// Oxy shader pre-processor. Annotations are single-line comments prefixed with @oxy:
// that drive struct injection and uniform block declaration. They are written the same
// way in WGSL and GLSL sources; the PreProcessor emits the syntax of its Language.
package shader

import (
	"errors"
	"slices"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// annotationPrefix is the marker that identifies an Oxy annotation within a comment line.
const annotationPrefix = "@oxy:"

// ErrMalformedAnnotation is returned for an @oxy: line with bad syntax or unknown arguments.
var ErrMalformedAnnotation = errors.New("malformed @oxy annotation")

// AnnotationType identifies the kind of annotation parsed from a comment line.
type AnnotationType string

const (
	// annotationTypeInclude injects the source of a registered struct definition at the
	// annotation site. It is consumed entirely during pre-processing.
	//
	// Syntax: //@oxy:include <struct_type>
	//
	// Example: //@oxy:include camera
	annotationTypeInclude AnnotationType = "include"

	// AnnotationTypeBindingGroup generates a uniform declaration for a registered struct
	// and records an Annotation in the PreProcessor's declarations list. WGSL output is a
	// @group/@binding var; GLSL output is an std140 uniform block named BlockName(var).
	//
	// Syntax: //@oxy:group <group> <binding> <address_space> <var_name> <type>
	//
	// Example: //@oxy:group 1 0 storage_uniform_dynamic entity model
	AnnotationTypeBindingGroup AnnotationType = "group"
)

// Annotation represents a single parsed @oxy: annotation.
type Annotation struct {
	// Type identifies which annotation was parsed.
	Type AnnotationType

	// Args holds the annotation's arguments. The contents depend on Type:
	//   - include: [0] = struct type key
	//   - group:   [0] = address space, [1] = var name, [2] = struct type key
	Args []AnnotationArg

	// Line is the 1-based line number in the original source, used for error reporting.
	Line int

	// Group is the group index for group annotations. Nil for include annotations.
	Group *int

	// Binding is the binding index for group annotations. Nil for include annotations.
	Binding *int
}

// VarName returns the declared variable name of a group annotation.
func (a Annotation) VarName() string {
	if len(a.Args) < 2 {
		return ""
	}
	return string(a.Args[1])
}

// StructType returns the struct type key of the annotation.
func (a Annotation) StructType() AnnotationArg {
	if a.Type == annotationTypeInclude {
		return a.Args[0]
	}
	return a.Args[2]
}

// Dynamic reports whether a group annotation declares a dynamic-offset uniform.
func (a Annotation) Dynamic() bool {
	return a.Type == AnnotationTypeBindingGroup && a.Args[0] == AnnotationArgStorageTypeDynamicUniform
}

// AnnotationArg is a typed string constant used as an argument in annotations.
type AnnotationArg string

// ── Struct type arguments ──────────────────────────────────────────────────────
// Each maps to a Go GPU type with embedded .wgsl and .glsl asset files.

const (
	// AnnotationArgCamera identifies the CameraUniform struct.
	// Source: engine/camera/assets/camera_uniform.{wgsl,glsl}
	AnnotationArgCamera AnnotationArg = "camera"

	// AnnotationArgLighting identifies the Lighting struct.
	// Source: engine/light/assets/lighting.{wgsl,glsl}
	AnnotationArgLighting AnnotationArg = "lighting"

	// AnnotationArgModel identifies the per-entity ModelUniform struct.
	// Source: engine/model/assets/model_uniform.{wgsl,glsl}
	AnnotationArgModel AnnotationArg = "model"

	// AnnotationArgJoints identifies the JointPalette struct of skinning matrices.
	// Source: engine/renderer/animator/assets/joint_palette.{wgsl,glsl}
	AnnotationArgJoints AnnotationArg = "joints"

	// annotationArgVertex identifies the vertex inputs for static meshes.
	// Source: engine/model/assets/vertex.{wgsl,glsl}
	annotationArgVertex AnnotationArg = "vertex"

	// annotationArgSkinnedVertex identifies the vertex inputs for skinned meshes.
	// Source: engine/model/assets/skinned_vertex.{wgsl,glsl}
	annotationArgSkinnedVertex AnnotationArg = "skinned_vertex"
)

// ── Address space arguments ────────────────────────────────────────────────────

const (
	// annotationArgStorageTypeUniform maps to var<uniform> in WGSL and a plain std140 block in GLSL.
	annotationArgStorageTypeUniform AnnotationArg = "storage_uniform"

	// AnnotationArgStorageTypeDynamicUniform is a uniform bound with a per-draw dynamic offset.
	// The declaration is identical to storage_uniform; the flag drives the bind group layout.
	AnnotationArgStorageTypeDynamicUniform AnnotationArg = "storage_uniform_dynamic"
)

// validStructTypes lists every struct type accepted by include annotations.
var validStructTypes = []AnnotationArg{
	AnnotationArgCamera,
	AnnotationArgLighting,
	AnnotationArgModel,
	AnnotationArgJoints,
	annotationArgVertex,
	annotationArgSkinnedVertex,
}

// validUniformTypes lists the struct types that may be bound by group annotations.
var validUniformTypes = []AnnotationArg{
	AnnotationArgCamera,
	AnnotationArgLighting,
	AnnotationArgModel,
	AnnotationArgJoints,
}

// validAddressSpaces lists the accepted address space arguments of group annotations.
var validAddressSpaces = []AnnotationArg{
	annotationArgStorageTypeUniform,
	AnnotationArgStorageTypeDynamicUniform,
}

// parseAnnotation attempts to parse a single source line as an @oxy: annotation.
// Returns nil with no error for lines that do not contain the annotation prefix.
//
// Parameters:
//   - line: the raw source line to parse
//   - lineNum: the 1-based line number for error reporting
//
// Returns:
//   - *Annotation: the parsed annotation, or nil if the line is not an annotation
//   - error: ErrMalformedAnnotation wrapped with the line and reason
func parseAnnotation(line string, lineNum int) (*Annotation, error) {
	trimmed := strings.TrimSpace(line)
	_, after, ok := strings.Cut(trimmed, annotationPrefix)
	if !ok {
		return nil, nil
	}

	args := strings.Fields(after)
	if len(args) == 0 {
		return nil, eris.Wrapf(ErrMalformedAnnotation, "line %d: empty annotation", lineNum)
	}

	switch args[0] {
	case string(annotationTypeInclude):
		if len(args) != 2 {
			return nil, eris.Wrapf(ErrMalformedAnnotation, "line %d: include requires exactly one argument", lineNum)
		}
		if !slices.Contains(validStructTypes, AnnotationArg(args[1])) {
			return nil, eris.Wrapf(ErrMalformedAnnotation, "line %d: unknown struct type %q", lineNum, args[1])
		}
		return &Annotation{
			Type: annotationTypeInclude,
			Args: []AnnotationArg{AnnotationArg(args[1])},
			Line: lineNum,
		}, nil
	case string(AnnotationTypeBindingGroup):
		if len(args) != 6 {
			return nil, eris.Wrapf(ErrMalformedAnnotation, "line %d: group requires group, binding, address space, var name and struct type", lineNum)
		}
		groupInt, err := strconv.Atoi(args[1])
		if err != nil || groupInt < 0 {
			return nil, eris.Wrapf(ErrMalformedAnnotation, "line %d: invalid group number %q", lineNum, args[1])
		}
		bindingInt, err := strconv.Atoi(args[2])
		if err != nil || bindingInt < 0 {
			return nil, eris.Wrapf(ErrMalformedAnnotation, "line %d: invalid binding number %q", lineNum, args[2])
		}
		if !slices.Contains(validAddressSpaces, AnnotationArg(args[3])) {
			return nil, eris.Wrapf(ErrMalformedAnnotation, "line %d: unknown address space %q", lineNum, args[3])
		}
		if !slices.Contains(validUniformTypes, AnnotationArg(args[5])) {
			return nil, eris.Wrapf(ErrMalformedAnnotation, "line %d: %q cannot be bound as a uniform", lineNum, args[5])
		}
		return &Annotation{
			Type:    AnnotationTypeBindingGroup,
			Args:    []AnnotationArg{AnnotationArg(args[3]), AnnotationArg(args[4]), AnnotationArg(args[5])},
			Line:    lineNum,
			Group:   &groupInt,
			Binding: &bindingInt,
		}, nil
	default:
		return nil, eris.Wrapf(ErrMalformedAnnotation, "line %d: unknown annotation type %q", lineNum, args[0])
	}
}
