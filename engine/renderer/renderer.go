package renderer

import (
	"errors"
	"sync"

	"github.com/Carmen-Shannon/oxy-ecs/common"
	"github.com/Carmen-Shannon/oxy-ecs/engine/logger"
	"github.com/Carmen-Shannon/oxy-ecs/engine/model"
	"github.com/Carmen-Shannon/oxy-ecs/engine/renderer/animator"
	"github.com/Carmen-Shannon/oxy-ecs/engine/window"
	"github.com/Carmen-Shannon/oxy-ecs/engine/world"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

var (
	// ErrNoAdapter is returned when no GPU adapter or device could be acquired.
	ErrNoAdapter = errors.New("no suitable gpu adapter")

	// ErrReleased is returned when a released renderer is used.
	ErrReleased = errors.New("renderer released")

	// Malformed geometry errors raised at registration.
	ErrEmptyIndices      = model.ErrEmptyIndices
	ErrInvalidVertexData = model.ErrInvalidVertexData
	ErrIndexOutOfRange   = model.ErrIndexOutOfRange
	ErrSkinDataMismatch  = model.ErrSkinDataMismatch
	ErrJointOutOfRange   = model.ErrJointOutOfRange
)

// modelSlotBytes is the size of one model uniform: mat4x4 followed by color.rgb and alpha.
var modelSlotBytes = uint32((&model.GPUModelUniform{}).Size())

// GeometryInfo describes a registered geometry.
type GeometryInfo struct {
	VertexCount int
	IndexCount  int
	IndexFormat common.IndexFormat

	// Radius is the bounding sphere radius around the local origin.
	Radius float32

	Skinned bool
}

// FrameStats counts what the last Render call did.
type FrameStats struct {
	// DrawCalls is the number of draws issued, StaticDraws + SkinnedDraws.
	DrawCalls int

	// Visible is the number of entities that passed the frustum test.
	Visible int

	// Culled is the number of entities rejected by the frustum test.
	Culled int

	// Skipped is the number of entities that could not be drawn: unknown geometry, a
	// geometry of the wrong kind, or an invalid skin instance.
	Skipped int

	StaticDraws  int
	SkinnedDraws int
}

// GeometrySource enumerates the authoritative copy of every geometry. A backend swap
// re-registers everything it yields.
type GeometrySource interface {
	// EachGeometry calls fn for every geometry in ascending id order, stopping at the first error.
	EachGeometry(fn func(id common.GeometryID, m model.Model) error) error
}

// drawCmd is one draw recorded during culling and replayed inside the pass.
type drawCmd struct {
	id          common.GeometryID
	modelOffset uint32
	jointOffset uint32
}

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	backend    RendererBackend
	geometries map[common.GeometryID]GeometryInfo

	width, height int
	released      bool

	// Slot strides derived from the backend's uniform offset alignment.
	modelSlotSize uint32
	jointSlotSize uint32

	// Per-frame scratch, reused across frames.
	modelData    []byte
	jointData    []byte
	modelWrites  []SlotWrite
	jointWrites  []SlotWrite
	staticDraws  []drawCmd
	skinnedDraws []drawCmd
	jointInsts   []*animator.SkinInstance

	stats FrameStats

	// Pre-creation config collected from builder options
	settings BackendSettings
}

// Renderer draws a World each frame through a RendererBackend.
//
// The Renderer owns the registered geometry table and the frame algorithm: camera and lighting
// upload, frustum culling, per-entity model slots, per-draw joint slots and the static then
// skinned draw order. Every backend therefore follows the same culling policy.
type Renderer interface {
	// RegisterGeometry validates and uploads a static geometry under id, replacing any
	// previous geometry with that id.
	//
	// Parameters:
	//   - id: the geometry id MeshInstances refer to
	//   - vertices: interleaved position, normal and color, 9 floats per vertex
	//   - indices: triangle list indices
	//
	// Returns:
	//   - error: ErrEmptyIndices, ErrInvalidVertexData, ErrIndexOutOfRange, or a backend error
	RegisterGeometry(id common.GeometryID, vertices []float32, indices []uint32) error

	// RegisterSkinnedGeometry validates and uploads a skinned geometry under id, replacing any
	// previous geometry with that id.
	//
	// Parameters:
	//   - id: the geometry id MeshInstances refer to
	//   - vertices: interleaved position, normal and color, 9 floats per vertex
	//   - indices: triangle list indices
	//   - joints: 4 joint indices per vertex
	//   - weights: 4 weights per vertex
	//
	// Returns:
	//   - error: any RegisterGeometry error, ErrSkinDataMismatch, ErrJointOutOfRange, or a backend error
	RegisterSkinnedGeometry(id common.GeometryID, vertices []float32, indices []uint32, joints []uint8, weights []float32) error

	// Geometry returns the description of a registered geometry.
	//
	// Parameters:
	//   - id: the geometry id
	//
	// Returns:
	//   - GeometryInfo: the geometry description
	//   - bool: false if id is not registered
	Geometry(id common.GeometryID) (GeometryInfo, bool)

	// Resize recreates the depth attachment for a new surface size. A zero size, as reported
	// for a minimised window, keeps the current attachment.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	Resize(width, height int)

	// Render draws one frame of w. Without an active camera the frame is a no-op.
	//
	// Parameters:
	//   - w: the world to draw
	//   - skins: the skin instances Skinned components index into
	//
	// Returns:
	//   - error: an error if the backend failed to grow a buffer or submit the frame
	Render(w *world.World, skins []*animator.SkinInstance) error

	// DrawCalls returns the number of draws issued by the last Render.
	DrawCalls() int

	// Stats returns the counters of the last Render.
	Stats() FrameStats

	// SwapBackend releases every resource of the current backend, then registers every
	// geometry of source with the new backend under its original id.
	//
	// Parameters:
	//   - backend: the backend to render with from now on
	//   - source: the authoritative geometry set
	//
	// Returns:
	//   - error: the first registration error; the renderer keeps the new backend regardless
	SwapBackend(backend RendererBackend, source GeometrySource) error

	// Backend returns the current backend, or nil after Release.
	Backend() RendererBackend

	// Release frees every backend resource. The renderer accepts a new backend through SwapBackend.
	Release()
}

var _ Renderer = &renderer{}

// NewRenderer creates a Renderer drawing through a backend of the given type.
//
// Parameters:
//   - backendType: the backend to create, ignored when WithBackend is supplied
//   - win: the window to present to; may be nil for the headless backend
//   - options: variadic list of RendererBuilderOption functions to configure the Renderer
//
// Returns:
//   - Renderer: the renderer
//   - error: ErrNoAdapter or another fatal backend initialisation error
func NewRenderer(backendType RendererBackendType, win window.Window, options ...RendererBuilderOption) (Renderer, error) {
	r := &renderer{
		mu:         &sync.Mutex{},
		geometries: make(map[common.GeometryID]GeometryInfo),
		settings:   DefaultBackendSettings(),
	}
	if win != nil {
		r.width, r.height = win.Width(), win.Height()
	}

	// Apply options first so settings (e.g. ForceSoftware) are
	// available before the backend requests a GPU adapter.
	for _, opt := range options {
		opt(r)
	}

	if r.backend == nil {
		b, err := NewBackend(backendType, win, r.settings)
		if err != nil {
			return nil, err
		}
		r.backend = b
	}
	if err := r.attach(r.backend); err != nil {
		r.backend.Release()
		return nil, err
	}

	logger.Info("renderer ready",
		zap.Stringer("backend", r.backend.Type()),
		zap.Uint32("model_slot", r.modelSlotSize),
		zap.Uint32("joint_slot", r.jointSlotSize),
	)
	return r, nil
}

// attach adopts b as the current backend: slot strides follow its alignment and its
// render target is sized to the last known surface size.
func (r *renderer) attach(b RendererBackend) error {
	r.backend = b
	r.released = false
	align := b.Limits().MinUniformOffsetAlignment
	r.modelSlotSize = common.AlignUp(modelSlotBytes, align)
	r.jointSlotSize = common.AlignUp(animator.JointPaletteSize, align)
	if r.width > 0 && r.height > 0 {
		if err := b.ResizeTarget(r.width, r.height); err != nil {
			return eris.Wrapf(err, "size %s target", b.Type())
		}
	}
	return nil
}

func (r *renderer) RegisterGeometry(id common.GeometryID, vertices []float32, indices []uint32) error {
	if err := model.ValidateGeometry(vertices, indices); err != nil {
		return eris.Wrapf(err, "register geometry %d", id)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.register(id, vertices, indices, nil, nil)
}

func (r *renderer) RegisterSkinnedGeometry(id common.GeometryID, vertices []float32, indices []uint32, joints []uint8, weights []float32) error {
	if err := model.ValidateSkinnedGeometry(vertices, indices, joints, weights); err != nil {
		return eris.Wrapf(err, "register skinned geometry %d", id)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.register(id, vertices, indices, joints, weights)
}

// register uploads already validated geometry. The caller holds mu.
func (r *renderer) register(id common.GeometryID, vertices []float32, indices []uint32, joints []uint8, weights []float32) error {
	if r.released {
		return eris.Wrapf(ErrReleased, "register geometry %d", id)
	}
	if _, exists := r.geometries[id]; exists {
		r.backend.ReleaseGeometry(id)
		delete(r.geometries, id)
	}

	vertexCount := len(vertices) / common.FloatsPerVertex
	format := indexFormatFor(len(indices), vertexCount)
	upload := GeometryUpload{
		Vertices:    model.PackVertices(vertices),
		Indices:     model.PackIndices(indices, format),
		IndexCount:  len(indices),
		IndexFormat: format,
	}
	if joints != nil {
		upload.Skin = model.PackSkin(joints, weights)
	}
	if err := r.backend.CreateGeometry(id, upload); err != nil {
		return eris.Wrapf(err, "upload geometry %d", id)
	}

	r.geometries[id] = GeometryInfo{
		VertexCount: vertexCount,
		IndexCount:  len(indices),
		IndexFormat: format,
		Radius:      model.BoundingRadius(vertices),
		Skinned:     upload.Skinned(),
	}
	logger.Debug("geometry registered",
		zap.Uint32("id", uint32(id)),
		zap.Int("vertices", vertexCount),
		zap.Int("indices", len(indices)),
		zap.Stringer("format", format),
		zap.Bool("skinned", upload.Skinned()),
	)
	return nil
}

// indexFormatFor picks 16-bit indices when both the index count and every index value fit.
func indexFormatFor(indexCount, vertexCount int) common.IndexFormat {
	if vertexCount > common.MaxIndexUint16+1 {
		return common.IndexFormatUint32
	}
	return common.IndexFormatFor(indexCount)
}

func (r *renderer) Geometry(id common.GeometryID) (GeometryInfo, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	info, ok := r.geometries[id]
	return info, ok
}

func (r *renderer) Resize(width, height int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if width <= 0 || height <= 0 {
		return
	}
	r.width, r.height = width, height
	if r.released {
		return
	}
	if err := r.backend.ResizeTarget(width, height); err != nil {
		logger.Error("resize render target", zap.Int("width", width), zap.Int("height", height), zap.Error(err))
	}
}

func (r *renderer) Render(w *world.World, skins []*animator.SkinInstance) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.stats = FrameStats{}
	if r.released {
		return eris.Wrap(ErrReleased, "render")
	}

	camEntity, ok := w.ActiveCamera()
	if !ok {
		logger.Debug("no active camera, frame skipped")
		return nil
	}
	cam, _ := w.Camera(camEntity)
	camUniform := cam.Uniform()
	lightUniform := w.FrameLighting().Uniform()

	vp := cam.ViewProjectionMatrix()
	frustum := common.ExtractFrustumFromMatrix(vp[:])

	r.cull(w, skins, &frustum)

	r.backend.WriteCamera(camUniform.Marshal())
	r.backend.WriteLighting(lightUniform.Marshal())
	if err := r.backend.WriteModels(r.modelSlotSize, w.EntityCount(), r.modelWrites); err != nil {
		return eris.Wrap(err, "write model slots")
	}
	if err := r.backend.WriteJoints(r.jointSlotSize, len(r.skinnedDraws), r.jointWrites); err != nil {
		return eris.Wrap(err, "write joint slots")
	}

	if err := r.backend.BeginFrame(); err != nil {
		return eris.Wrap(err, "begin frame")
	}
	for _, d := range r.staticDraws {
		r.backend.DrawStatic(d.id, d.modelOffset)
	}
	for _, d := range r.skinnedDraws {
		r.backend.DrawSkinned(d.id, d.modelOffset, d.jointOffset)
	}
	if err := r.backend.EndFrame(); err != nil {
		return eris.Wrap(err, "end frame")
	}

	r.stats.StaticDraws = len(r.staticDraws)
	r.stats.SkinnedDraws = len(r.skinnedDraws)
	r.stats.DrawCalls = r.stats.StaticDraws + r.stats.SkinnedDraws
	return nil
}

// cull walks every drawable entity, fills the model and joint slots of the visible ones and
// records their draws. Culled entities get neither a slot write nor a draw.
func (r *renderer) cull(w *world.World, skins []*animator.SkinInstance, frustum *common.Frustum) {
	r.staticDraws = r.staticDraws[:0]
	r.skinnedDraws = r.skinnedDraws[:0]
	r.modelWrites = r.modelWrites[:0]
	r.jointWrites = r.jointWrites[:0]
	r.jointInsts = r.jointInsts[:0]

	modelSize := int(r.modelSlotSize) * w.EntityCount()
	if cap(r.modelData) < modelSize {
		r.modelData = make([]byte, modelSize)
	}
	r.modelData = r.modelData[:modelSize]

	w.Each(world.MaskTransform|world.MaskMeshInstance, func(e world.Entity) {
		mesh, _ := w.MeshInstance(e)
		skinned := w.Has(e, world.MaskSkinned)

		info, ok := r.geometries[mesh.Geometry]
		if !ok || info.Skinned != skinned {
			r.stats.Skipped++
			return
		}

		matrix, _ := w.WorldMatrix(e)
		center := [3]float32{matrix[12], matrix[13], matrix[14]}
		radius := info.Radius * common.MatrixMaxScale(matrix[:])
		if !frustum.IntersectsSphere(center, radius) {
			r.stats.Culled++
			return
		}

		var inst *animator.SkinInstance
		if skinned {
			s, _ := w.Skinned(e)
			if s.Instance < 0 || s.Instance >= len(skins) || skins[s.Instance] == nil ||
				skins[s.Instance].JointCount() > common.MaxJoints {
				r.stats.Skipped++
				return
			}
			inst = skins[s.Instance]
		}
		r.stats.Visible++

		modelOffset := uint32(e) * r.modelSlotSize
		slot := r.modelData[modelOffset : modelOffset+modelSlotBytes]
		u := model.GPUModelUniform{
			Model: matrix,
			Color: [4]float32{mesh.Color[0], mesh.Color[1], mesh.Color[2], mesh.Alpha},
		}
		u.MarshalInto(slot)
		r.modelWrites = append(r.modelWrites, SlotWrite{Offset: modelOffset, Data: slot})

		if inst == nil {
			r.staticDraws = append(r.staticDraws, drawCmd{id: mesh.Geometry, modelOffset: modelOffset})
			return
		}

		jointOffset := uint32(len(r.skinnedDraws)) * r.jointSlotSize
		r.jointInsts = append(r.jointInsts, inst)
		r.skinnedDraws = append(r.skinnedDraws, drawCmd{id: mesh.Geometry, modelOffset: modelOffset, jointOffset: jointOffset})
	})

	jointSize := int(r.jointSlotSize) * len(r.jointInsts)
	if cap(r.jointData) < jointSize {
		r.jointData = make([]byte, jointSize)
	}
	r.jointData = r.jointData[:jointSize]
	for i, inst := range r.jointInsts {
		off := uint32(i) * r.jointSlotSize
		slot := r.jointData[off : off+animator.JointPaletteSize]
		animator.MarshalJointPalette(slot, inst)
		r.jointWrites = append(r.jointWrites, SlotWrite{Offset: off, Data: slot})
	}
}

func (r *renderer) DrawCalls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats.DrawCalls
}

func (r *renderer) Stats() FrameStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

func (r *renderer) SwapBackend(backend RendererBackend, source GeometrySource) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	old := "none"
	if !r.released && r.backend != nil {
		old = r.backend.Type().String()
		r.teardown()
	}
	if err := r.attach(backend); err != nil {
		return err
	}

	count := 0
	var err error
	if source != nil {
		err = source.EachGeometry(func(id common.GeometryID, m model.Model) error {
			count++
			if m.Skinned() {
				return r.register(id, m.Vertices(), m.Indices(), m.Joints(), m.Weights())
			}
			return r.register(id, m.Vertices(), m.Indices(), nil, nil)
		})
	}

	logger.Info("renderer backend swapped",
		zap.String("from", old),
		zap.Stringer("to", backend.Type()),
		zap.Int("geometries", count),
	)
	if err != nil {
		return eris.Wrapf(err, "re-register geometry on %s", backend.Type())
	}
	return nil
}

// teardown releases every geometry and the backend itself. The caller holds mu.
func (r *renderer) teardown() {
	for id := range r.geometries {
		r.backend.ReleaseGeometry(id)
	}
	clear(r.geometries)
	r.backend.Release()
	r.released = true
	r.stats = FrameStats{}
}

func (r *renderer) Backend() RendererBackend {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.released {
		return nil
	}
	return r.backend
}

func (r *renderer) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.released {
		return
	}
	r.teardown()
}
