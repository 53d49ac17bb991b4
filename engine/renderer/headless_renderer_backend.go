package renderer

import (
	"maps"
	"slices"
	"sync"

	"github.com/Carmen-Shannon/oxy-ecs/common"
	"github.com/rotisserie/eris"
)

// HeadlessAlignment is the uniform offset alignment the headless backend reports. It matches
// the common desktop GPU value so slot offsets look the same as on a real device.
const HeadlessAlignment = 256

// HeadlessDraw is one draw recorded by the headless backend.
type HeadlessDraw struct {
	Geometry    common.GeometryID
	Skinned     bool
	ModelOffset uint32
	JointOffset uint32
}

// HeadlessResources counts the device objects a headless backend holds.
type HeadlessResources struct {
	// Geometries is the number of registered geometries.
	Geometries int

	// Buffers counts vertex, skin, index and uniform buffers.
	Buffers int

	// DepthTargets counts depth attachments.
	DepthTargets int
}

// Total returns the number of live objects of every kind.
func (h HeadlessResources) Total() int {
	return h.Buffers + h.DepthTargets
}

// HeadlessRendererBackend is a RendererBackend without a device. It keeps the uploaded bytes
// and the draws of the last frame, and accounts every object a GPU backend would own, so the
// shared frame algorithm and resource lifetimes can be tested without a GPU.
type HeadlessRendererBackend struct {
	mu *sync.Mutex

	alignment uint32
	released  bool

	geometries map[common.GeometryID]GeometryUpload

	width, height int
	hasTarget     bool

	// Camera and lighting buffers always exist, model and joint buffers once written.
	camera, lighting []byte
	modelCapacity    int
	jointCapacity    int
	models, joints   map[uint32][]byte

	inFrame bool
	frame   []HeadlessDraw
	draws   []HeadlessDraw
	frames  int

	live     HeadlessResources
	created  HeadlessResources
	releases HeadlessResources
}

var _ RendererBackend = &HeadlessRendererBackend{}

// NewHeadlessRendererBackend creates a headless backend with HeadlessAlignment.
//
// Returns:
//   - *HeadlessRendererBackend: the backend
func NewHeadlessRendererBackend() *HeadlessRendererBackend {
	return NewHeadlessRendererBackendWithAlignment(HeadlessAlignment)
}

// NewHeadlessRendererBackendWithAlignment creates a headless backend reporting the given
// uniform offset alignment.
//
// Parameters:
//   - alignment: the reported MinUniformOffsetAlignment
//
// Returns:
//   - *HeadlessRendererBackend: the backend
func NewHeadlessRendererBackendWithAlignment(alignment uint32) *HeadlessRendererBackend {
	b := &HeadlessRendererBackend{
		mu:         &sync.Mutex{},
		alignment:  alignment,
		geometries: make(map[common.GeometryID]GeometryUpload),
		models:     make(map[uint32][]byte),
		joints:     make(map[uint32][]byte),
	}
	// camera and lighting buffers
	b.createBuffers(2)
	return b
}

func (b *HeadlessRendererBackend) Type() RendererBackendType {
	return BackendTypeHeadless
}

func (b *HeadlessRendererBackend) Limits() BackendLimits {
	return BackendLimits{MinUniformOffsetAlignment: b.alignment}
}

func (b *HeadlessRendererBackend) createBuffers(n int) {
	b.live.Buffers += n
	b.created.Buffers += n
}

func (b *HeadlessRendererBackend) releaseBuffers(n int) {
	b.live.Buffers -= n
	b.releases.Buffers += n
}

// geometryBuffers is the number of device buffers an upload occupies.
func geometryBuffers(upload GeometryUpload) int {
	if upload.Skinned() {
		return 3
	}
	return 2
}

func (b *HeadlessRendererBackend) CreateGeometry(id common.GeometryID, upload GeometryUpload) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.released {
		return eris.Wrapf(ErrReleased, "create geometry %d", id)
	}
	if _, exists := b.geometries[id]; exists {
		return eris.Errorf("geometry %d already exists", id)
	}
	b.geometries[id] = upload
	b.live.Geometries++
	b.created.Geometries++
	b.createBuffers(geometryBuffers(upload))
	return nil
}

func (b *HeadlessRendererBackend) ReleaseGeometry(id common.GeometryID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	upload, exists := b.geometries[id]
	if !exists {
		return
	}
	delete(b.geometries, id)
	b.live.Geometries--
	b.releases.Geometries++
	b.releaseBuffers(geometryBuffers(upload))
}

func (b *HeadlessRendererBackend) ResizeTarget(width, height int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.released {
		return eris.Wrap(ErrReleased, "resize target")
	}
	if b.hasTarget {
		b.live.DepthTargets--
		b.releases.DepthTargets++
	}
	b.width, b.height = width, height
	b.hasTarget = true
	b.live.DepthTargets++
	b.created.DepthTargets++
	return nil
}

func (b *HeadlessRendererBackend) WriteCamera(data []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.camera = slices.Clone(data)
}

func (b *HeadlessRendererBackend) WriteLighting(data []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lighting = slices.Clone(data)
}

// writeSlots grows a slot buffer when needed and records the writes, replacing the
// previous frame's contents.
func (b *HeadlessRendererBackend) writeSlots(capacity *int, slots map[uint32][]byte, slotCount int, writes []SlotWrite) {
	if grown := growCapacity(*capacity, slotCount); grown != *capacity {
		if *capacity > 0 {
			b.releaseBuffers(1)
		}
		b.createBuffers(1)
		*capacity = grown
	}
	clear(slots)
	for _, w := range writes {
		slots[w.Offset] = slices.Clone(w.Data)
	}
}

func (b *HeadlessRendererBackend) WriteModels(slotSize uint32, slotCount int, writes []SlotWrite) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.released {
		return eris.Wrap(ErrReleased, "write models")
	}
	b.writeSlots(&b.modelCapacity, b.models, slotCount, writes)
	return nil
}

func (b *HeadlessRendererBackend) WriteJoints(slotSize uint32, slotCount int, writes []SlotWrite) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.released {
		return eris.Wrap(ErrReleased, "write joints")
	}
	b.writeSlots(&b.jointCapacity, b.joints, slotCount, writes)
	return nil
}

func (b *HeadlessRendererBackend) BeginFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.released {
		return eris.Wrap(ErrReleased, "begin frame")
	}
	if b.inFrame {
		return eris.New("previous frame not ended")
	}
	b.inFrame = true
	b.frame = b.frame[:0]
	return nil
}

func (b *HeadlessRendererBackend) DrawStatic(id common.GeometryID, modelOffset uint32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.frame = append(b.frame, HeadlessDraw{Geometry: id, ModelOffset: modelOffset})
}

func (b *HeadlessRendererBackend) DrawSkinned(id common.GeometryID, modelOffset, jointOffset uint32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.frame = append(b.frame, HeadlessDraw{Geometry: id, Skinned: true, ModelOffset: modelOffset, JointOffset: jointOffset})
}

func (b *HeadlessRendererBackend) EndFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.inFrame {
		return eris.New("frame not begun")
	}
	b.inFrame = false
	b.draws = append(b.draws[:0], b.frame...)
	b.frames++
	return nil
}

func (b *HeadlessRendererBackend) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.released {
		return
	}
	for id, upload := range b.geometries {
		delete(b.geometries, id)
		b.live.Geometries--
		b.releases.Geometries++
		b.releaseBuffers(geometryBuffers(upload))
	}
	if b.hasTarget {
		b.hasTarget = false
		b.live.DepthTargets--
		b.releases.DepthTargets++
	}
	n := 2
	if b.modelCapacity > 0 {
		n++
	}
	if b.jointCapacity > 0 {
		n++
	}
	b.releaseBuffers(n)
	b.modelCapacity, b.jointCapacity = 0, 0
	b.released = true
}

// Released reports whether Release has been called.
func (b *HeadlessRendererBackend) Released() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.released
}

// Draws returns the draws of the last completed frame in submission order.
func (b *HeadlessRendererBackend) Draws() []HeadlessDraw {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.draws)
}

// Frames returns the number of completed frames.
func (b *HeadlessRendererBackend) Frames() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.frames
}

// Camera returns the last uploaded camera block.
func (b *HeadlessRendererBackend) Camera() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.camera)
}

// Lighting returns the last uploaded lighting block.
func (b *HeadlessRendererBackend) Lighting() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.lighting)
}

// ModelSlot returns the bytes written to the model slot at offset during the last frame.
//
// Parameters:
//   - offset: the slot's byte offset
//
// Returns:
//   - []byte: the slot contents
//   - bool: false if the slot was not written
func (b *HeadlessRendererBackend) ModelSlot(offset uint32) ([]byte, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.models[offset]
	return data, ok
}

// ModelOffsets returns the sorted offsets of every model slot written during the last frame.
func (b *HeadlessRendererBackend) ModelOffsets() []uint32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Sorted(maps.Keys(b.models))
}

// JointSlot returns the bytes written to the joint slot at offset during the last frame.
//
// Parameters:
//   - offset: the slot's byte offset
//
// Returns:
//   - []byte: the slot contents
//   - bool: false if the slot was not written
func (b *HeadlessRendererBackend) JointSlot(offset uint32) ([]byte, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.joints[offset]
	return data, ok
}

// ModelCapacity returns the number of slots the model buffer holds.
func (b *HeadlessRendererBackend) ModelCapacity() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.modelCapacity
}

// JointCapacity returns the number of slots the joint buffer holds.
func (b *HeadlessRendererBackend) JointCapacity() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.jointCapacity
}

// Geometry returns the upload stored under id.
//
// Parameters:
//   - id: the geometry id
//
// Returns:
//   - GeometryUpload: the packed buffers
//   - bool: false if id is not live
func (b *HeadlessRendererBackend) Geometry(id common.GeometryID) (GeometryUpload, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	g, ok := b.geometries[id]
	return g, ok
}

// TargetSize returns the size of the current depth attachment.
func (b *HeadlessRendererBackend) TargetSize() (int, int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.width, b.height
}

// Live returns the objects currently held.
func (b *HeadlessRendererBackend) Live() HeadlessResources {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.live
}

// Created returns the number of objects ever created, by kind.
func (b *HeadlessRendererBackend) Created() HeadlessResources {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.created
}

// Releases returns the number of objects ever released, by kind.
func (b *HeadlessRendererBackend) Releases() HeadlessResources {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.releases
}
