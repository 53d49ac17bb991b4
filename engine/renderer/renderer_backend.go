package renderer

import (
	"errors"

	"github.com/Carmen-Shannon/oxy-ecs/common"
	"github.com/Carmen-Shannon/oxy-ecs/engine/window"
	"github.com/rotisserie/eris"
)

// ErrUnknownBackend is returned when a backend name or type is not recognised.
var ErrUnknownBackend = errors.New("unknown renderer backend")

// RendererBackendType identifies the GPU backend implementation used by the Renderer.
type RendererBackendType int

const (
	// BackendTypeWGPU selects the WebGPU-based rendering backend.
	BackendTypeWGPU RendererBackendType = iota

	// BackendTypeOpenGL selects the OpenGL 4.1 core rendering backend.
	BackendTypeOpenGL

	// BackendTypeHeadless selects the recording backend that owns no device.
	BackendTypeHeadless
)

// String returns the configuration name of the backend type.
func (t RendererBackendType) String() string {
	switch t {
	case BackendTypeWGPU:
		return "wgpu"
	case BackendTypeOpenGL:
		return "opengl"
	case BackendTypeHeadless:
		return "headless"
	default:
		return "unknown"
	}
}

// ParseBackendType maps a configuration name to its backend type.
//
// Parameters:
//   - name: "wgpu", "opengl" or "headless"
//
// Returns:
//   - RendererBackendType: the backend type
//   - error: ErrUnknownBackend for any other name
func ParseBackendType(name string) (RendererBackendType, error) {
	for _, t := range []RendererBackendType{BackendTypeWGPU, BackendTypeOpenGL, BackendTypeHeadless} {
		if t.String() == name {
			return t, nil
		}
	}
	return 0, eris.Wrapf(ErrUnknownBackend, "backend %q", name)
}

// PresentMode controls how rendered frames are presented to the display surface.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting, capping frame rate
	// to the monitor's refresh rate. Eliminates tearing.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents frames immediately without waiting for vertical blank.
	// May cause screen tearing but provides the lowest latency.
	PresentModeUncapped
)

// MSAASampleCount controls the number of samples used for multisample anti-aliasing (MSAA).
// WebGPU guarantees support for 1 (off) and 4; higher values are adapter-dependent.
type MSAASampleCount uint32

const (
	// MSAAOff disables multisample anti-aliasing (sample count 1).
	MSAAOff MSAASampleCount = 1

	// MSAA4x enables 4× multisample anti-aliasing. This is the default.
	MSAA4x MSAASampleCount = 4

	// MSAA8x enables 8× multisample anti-aliasing. Adapter-dependent.
	MSAA8x MSAASampleCount = 8

	// MSAA16x enables 16× multisample anti-aliasing. Adapter-dependent.
	MSAA16x MSAASampleCount = 16
)

// BackendSettings configures backend creation.
type BackendSettings struct {
	PresentMode PresentMode
	MSAA        MSAASampleCount

	// ForceSoftware requests a CPU fallback adapter from WGPU.
	ForceSoftware bool

	// ClearColor is the linear RGB color the frame target is cleared to.
	ClearColor [3]float32
}

// DefaultBackendSettings returns VSync presentation with 4× MSAA and a dark grey clear color.
func DefaultBackendSettings() BackendSettings {
	return BackendSettings{
		PresentMode: PresentModeVSync,
		MSAA:        MSAA4x,
		ClearColor:  [3]float32{0.1, 0.1, 0.1},
	}
}

// NewBackend creates a backend of the given type presenting to win.
//
// Parameters:
//   - backendType: the backend to create
//   - win: the window to present to; ignored by the headless backend
//   - settings: presentation settings
//
// Returns:
//   - RendererBackend: the backend
//   - error: ErrNoAdapter, ErrUnknownBackend or another initialisation error
func NewBackend(backendType RendererBackendType, win window.Window, settings BackendSettings) (RendererBackend, error) {
	switch backendType {
	case BackendTypeWGPU:
		return newWGPURendererBackend(win, settings)
	case BackendTypeOpenGL:
		return newGLRendererBackend(win, settings)
	case BackendTypeHeadless:
		return NewHeadlessRendererBackend(), nil
	default:
		return nil, eris.Wrapf(ErrUnknownBackend, "backend type %d", int(backendType))
	}
}

// BackendLimits reports the device limits the shared frame algorithm depends on.
type BackendLimits struct {
	// MinUniformOffsetAlignment is the required alignment of every dynamic uniform offset.
	MinUniformOffsetAlignment uint32
}

// GeometryUpload is the packed, validated form of one geometry handed to a backend.
type GeometryUpload struct {
	// Vertices holds VertexStride bytes per vertex.
	Vertices []byte

	// Skin holds SkinStride bytes per vertex, or nil for static geometry.
	Skin []byte

	// Indices holds the packed index buffer in IndexFormat, padded to 4 bytes.
	Indices []byte

	IndexCount  int
	IndexFormat common.IndexFormat
}

// Skinned reports whether the upload carries a skin stream.
func (g GeometryUpload) Skinned() bool {
	return len(g.Skin) > 0
}

// SlotWrite is one write into a dynamic-offset uniform buffer.
type SlotWrite struct {
	// Offset is the byte offset of the slot, a multiple of the slot size.
	Offset uint32

	// Data is the slot contents. It is only valid for the duration of the call.
	Data []byte
}

// RendererBackend is the device-level contract every GPU API implements. The per-frame
// algorithm (culling, slot assignment, pass ordering) lives in the Renderer, so a backend
// only owns resources and records commands.
//
// A frame is driven as: WriteCamera, WriteLighting, WriteModels, WriteJoints, BeginFrame,
// DrawStatic for every static draw, DrawSkinned for every skinned draw, EndFrame.
type RendererBackend interface {
	// Type returns the backend type.
	Type() RendererBackendType

	// Limits returns the device limits.
	//
	// Returns:
	//   - BackendLimits: the limits
	Limits() BackendLimits

	// CreateGeometry uploads a geometry under id.
	//
	// Parameters:
	//   - id: the geometry id; the caller releases any previous geometry with this id first
	//   - upload: the packed buffers
	//
	// Returns:
	//   - error: an error if a device buffer could not be created
	CreateGeometry(id common.GeometryID, upload GeometryUpload) error

	// ReleaseGeometry frees the device buffers of a geometry. Unknown ids are ignored.
	//
	// Parameters:
	//   - id: the geometry id
	ReleaseGeometry(id common.GeometryID)

	// ResizeTarget releases the current depth (and multisample) attachment and creates one
	// matching the new size.
	//
	// Parameters:
	//   - width: the new width in pixels
	//   - height: the new height in pixels
	//
	// Returns:
	//   - error: an error if the attachment could not be created
	ResizeTarget(width, height int) error

	// WriteCamera uploads the camera block.
	WriteCamera(data []byte)

	// WriteLighting uploads the lighting block.
	WriteLighting(data []byte)

	// WriteModels uploads per-entity model slots. The model buffer is recreated larger when
	// slotCount exceeds its capacity.
	//
	// Parameters:
	//   - slotSize: the stride between slots
	//   - slotCount: the number of slots the buffer must address
	//   - writes: the slots to upload
	//
	// Returns:
	//   - error: an error if the buffer could not be grown
	WriteModels(slotSize uint32, slotCount int, writes []SlotWrite) error

	// WriteJoints uploads per-draw joint palette slots, growing like WriteModels.
	//
	// Parameters:
	//   - slotSize: the stride between slots
	//   - slotCount: the number of slots the buffer must address
	//   - writes: the slots to upload
	//
	// Returns:
	//   - error: an error if the buffer could not be grown
	WriteJoints(slotSize uint32, slotCount int, writes []SlotWrite) error

	// BeginFrame acquires the frame target and opens the render pass.
	//
	// Returns:
	//   - error: an error if the frame target could not be acquired
	BeginFrame() error

	// DrawStatic records a draw of a static geometry.
	//
	// Parameters:
	//   - id: the geometry id
	//   - modelOffset: the dynamic offset of the entity's model slot
	DrawStatic(id common.GeometryID, modelOffset uint32)

	// DrawSkinned records a draw of a skinned geometry.
	//
	// Parameters:
	//   - id: the geometry id
	//   - modelOffset: the dynamic offset of the entity's model slot
	//   - jointOffset: the dynamic offset of the draw's joint slot
	DrawSkinned(id common.GeometryID, modelOffset, jointOffset uint32)

	// EndFrame closes the pass, submits and presents.
	//
	// Returns:
	//   - error: an error if submission failed
	EndFrame() error

	// Release frees every device resource the backend owns. Calling it twice is a no-op.
	Release()
}

// growCapacity returns the slot capacity a buffer needs to hold needed slots: the current
// capacity when it suffices, otherwise the next power of two of at least minSlotCapacity.
func growCapacity(current, needed int) int {
	if needed <= current {
		return current
	}
	c := max(current, minSlotCapacity)
	for c < needed {
		c *= 2
	}
	return c
}

// minSlotCapacity is the smallest dynamic uniform buffer, in slots.
const minSlotCapacity = 64
