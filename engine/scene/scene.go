package scene

import (
	"errors"
	"sync"

	"github.com/Carmen-Shannon/oxy-ecs/common"
	"github.com/Carmen-Shannon/oxy-ecs/engine/camera"
	"github.com/Carmen-Shannon/oxy-ecs/engine/logger"
	"github.com/Carmen-Shannon/oxy-ecs/engine/model"
	"github.com/Carmen-Shannon/oxy-ecs/engine/renderer"
	"github.com/Carmen-Shannon/oxy-ecs/engine/renderer/animator"
	"github.com/Carmen-Shannon/oxy-ecs/engine/world"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

var (
	// ErrUnknownMesh is returned when spawning a geometry id that is not in the mesh library.
	ErrUnknownMesh = errors.New("unknown mesh")

	// ErrNotSkinned is returned when a skinned spawn or bone attachment targets something without a skeleton.
	ErrNotSkinned = errors.New("not skinned")

	// ErrUnknownClip is returned for clip indices or names outside the clip table.
	ErrUnknownClip = errors.New("unknown clip")

	// ErrUnknownBone is returned when a bone name is not part of the parent's skeleton.
	ErrUnknownBone = errors.New("unknown bone")
)

// scene is the implementation of the Scene interface.
type scene struct {
	mu sync.RWMutex

	name   string
	active bool

	world    *world.World
	animator animator.Animator
	meshes   *model.Library
	renderer renderer.Renderer

	clips     []animator.AnimationClip
	clipIndex map[string]int

	worldCapacity int
	workers       int
}

// Scene ties together the entity world, the skin instances that animate it, the clip table
// those instances index, and the mesh library the renderer registers geometry from.
//
// Update runs the animation and attachment phases of a frame. It is not safe to call Update
// concurrently with rendering the scene's world.
type Scene interface {
	// Name returns the scene's identifier.
	Name() string

	// SetName sets the scene's identifier.
	SetName(name string)

	// Active returns whether this scene is currently updated and rendered.
	Active() bool

	// SetActive sets whether this scene is updated and rendered.
	SetActive(active bool)

	// World returns the scene's entity store.
	World() *world.World

	// Animator returns the scene's skin instance set.
	Animator() animator.Animator

	// Meshes returns the mesh library. It is the source a backend swap re-registers from.
	Meshes() *model.Library

	// Renderer returns the renderer meshes are registered with, or nil.
	Renderer() renderer.Renderer

	// SetRenderer attaches r and registers every mesh of the library with it.
	//
	// Parameters:
	//   - r: the renderer, or nil to detach
	//
	// Returns:
	//   - error: the first registration error
	SetRenderer(r renderer.Renderer) error

	// Clips returns the clip table skin instances index into.
	//
	// Returns:
	//   - []animator.AnimationClip: the clips in index order
	Clips() []animator.AnimationClip

	// AddClip appends a clip to the clip table. A named clip can later be found with ClipIndex;
	// a second clip with the same name shadows the first.
	//
	// Parameters:
	//   - clip: the clip
	//
	// Returns:
	//   - int: the clip index
	AddClip(clip animator.AnimationClip) int

	// ClipIndex looks a clip up by name.
	//
	// Parameters:
	//   - name: the clip name
	//
	// Returns:
	//   - int: the clip index
	//   - bool: false if no clip has that name
	ClipIndex(name string) (int, bool)

	// AddMesh validates m, stores it in the library under id and registers it with the
	// renderer when one is attached. Clips bundled with m are appended to the clip table
	// unless a clip of the same name already exists.
	//
	// Parameters:
	//   - id: the geometry id
	//   - m: the mesh source data
	//
	// Returns:
	//   - error: a validation or registration error
	AddMesh(id common.GeometryID, m model.Model) error

	// SpawnCamera adds a camera entity and makes it active when no camera is.
	//
	// Parameters:
	//   - cam: the camera
	//
	// Returns:
	//   - world.Entity: the camera entity
	SpawnCamera(cam camera.Camera) world.Entity

	// SpawnMesh adds a static mesh entity.
	//
	// Parameters:
	//   - id: a geometry id present in the library
	//   - t: the entity's transform
	//   - options: mesh instance settings
	//
	// Returns:
	//   - world.Entity: the new entity
	//   - error: ErrUnknownMesh
	SpawnMesh(id common.GeometryID, t world.Transform, options ...SpawnOption) (world.Entity, error)

	// SpawnSkinned adds a skinned mesh entity with a new skin instance playing clip.
	//
	// Parameters:
	//   - id: a skinned geometry id present in the library
	//   - t: the entity's transform
	//   - clip: the initial clip index
	//   - options: mesh instance settings
	//
	// Returns:
	//   - world.Entity: the new entity
	//   - int: the skin instance index
	//   - error: ErrUnknownMesh, ErrNotSkinned or ErrUnknownClip
	SpawnSkinned(id common.GeometryID, t world.Transform, clip int, options ...SpawnOption) (world.Entity, int, error)

	// AttachToBone makes the mesh entity child follow the named bone of the skinned entity parent.
	//
	// Parameters:
	//   - child: a mesh entity
	//   - parent: a skinned entity
	//   - boneName: the joint name in the parent's skeleton
	//
	// Returns:
	//   - error: ErrNotSkinned, ErrUnknownBone or a world attachment error
	AttachToBone(child, parent world.Entity, boneName string) error

	// Update advances every skin instance by dt, then resolves world transforms so attached
	// entities follow their bones.
	//
	// Parameters:
	//   - dt: elapsed time in seconds
	//
	// Returns:
	//   - int: the number of blends that collapsed
	Update(dt float32) int

	// Render draws the scene's world with the attached renderer. Without a renderer it does nothing.
	//
	// Returns:
	//   - error: the renderer error
	Render() error

	// Close stops the animation workers. The scene stays usable; a later Update restarts them.
	Close()
}

var _ Scene = &scene{}

// NewScene creates an empty, active Scene.
//
// Parameters:
//   - options: functional options to configure the scene
//
// Returns:
//   - Scene: the new scene
func NewScene(options ...SceneBuilderOption) Scene {
	s := &scene{
		name:          "scene",
		active:        true,
		meshes:        model.NewLibrary(),
		clipIndex:     make(map[string]int),
		worldCapacity: 256,
	}
	for _, opt := range options {
		opt(s)
	}
	if s.world == nil {
		s.world = world.NewWorld(s.worldCapacity)
	}
	if s.animator == nil {
		s.animator = animator.NewAnimator(animator.WithWorkers(s.workers))
	}
	return s
}

func (s *scene) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.name
}

func (s *scene) SetName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.name = name
}

func (s *scene) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

func (s *scene) SetActive(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = active
}

func (s *scene) World() *world.World {
	return s.world
}

func (s *scene) Animator() animator.Animator {
	return s.animator
}

func (s *scene) Meshes() *model.Library {
	return s.meshes
}

func (s *scene) Renderer() renderer.Renderer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.renderer
}

func (s *scene) SetRenderer(r renderer.Renderer) error {
	s.mu.Lock()
	s.renderer = r
	s.mu.Unlock()
	if r == nil {
		return nil
	}
	return s.meshes.EachGeometry(func(id common.GeometryID, m model.Model) error {
		return registerModel(r, id, m)
	})
}

func registerModel(r renderer.Renderer, id common.GeometryID, m model.Model) error {
	if m.Skinned() {
		return r.RegisterSkinnedGeometry(id, m.Vertices(), m.Indices(), m.Joints(), m.Weights())
	}
	return r.RegisterGeometry(id, m.Vertices(), m.Indices())
}

func (s *scene) Clips() []animator.AnimationClip {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.clips
}

func (s *scene) AddClip(clip animator.AnimationClip) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addClipLocked(clip)
}

func (s *scene) addClipLocked(clip animator.AnimationClip) int {
	s.clips = append(s.clips, clip)
	i := len(s.clips) - 1
	if clip.Name != "" {
		s.clipIndex[clip.Name] = i
	}
	return i
}

func (s *scene) ClipIndex(name string) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.clipIndex[name]
	return i, ok
}

func (s *scene) AddMesh(id common.GeometryID, m model.Model) error {
	if err := s.meshes.Add(id, m); err != nil {
		return err
	}

	s.mu.Lock()
	for _, clip := range m.Animations() {
		if _, exists := s.clipIndex[clip.Name]; exists && clip.Name != "" {
			continue
		}
		s.addClipLocked(clip)
	}
	r := s.renderer
	s.mu.Unlock()

	if r != nil {
		if err := registerModel(r, id, m); err != nil {
			return err
		}
	}
	logger.Debug("mesh added",
		zap.String("scene", s.Name()),
		zap.String("mesh", m.Name()),
		zap.Uint32("geometry", uint32(id)),
		zap.Bool("skinned", m.Skinned()),
	)
	return nil
}

func (s *scene) SpawnCamera(cam camera.Camera) world.Entity {
	e := s.world.AddEntity(world.MaskCamera)
	_ = s.world.SetCamera(e, cam)
	if _, ok := s.world.ActiveCamera(); !ok {
		_ = s.world.SetActiveCamera(e)
	}
	return e
}

func (s *scene) SpawnMesh(id common.GeometryID, t world.Transform, options ...SpawnOption) (world.Entity, error) {
	if _, ok := s.meshes.Get(id); !ok {
		return world.NoEntity, eris.Wrapf(ErrUnknownMesh, "geometry %d", id)
	}
	e := s.world.AddEntity(world.MaskTransform | world.MaskMeshInstance)
	s.place(e, id, t, options)
	return e, nil
}

func (s *scene) SpawnSkinned(id common.GeometryID, t world.Transform, clip int, options ...SpawnOption) (world.Entity, int, error) {
	m, ok := s.meshes.Get(id)
	if !ok {
		return world.NoEntity, -1, eris.Wrapf(ErrUnknownMesh, "geometry %d", id)
	}
	if !m.Skinned() || m.Skeleton() == nil {
		return world.NoEntity, -1, eris.Wrapf(ErrNotSkinned, "geometry %d", id)
	}
	if clipCount := len(s.Clips()); clip < 0 || clip >= clipCount {
		return world.NoEntity, -1, eris.Wrapf(ErrUnknownClip, "clip %d of %d", clip, clipCount)
	}

	instance := s.animator.Add(animator.CreateSkinInstance(m.Skeleton(), clip))
	e := s.world.AddEntity(world.MaskTransform | world.MaskMeshInstance | world.MaskSkinned)
	s.place(e, id, t, options)
	_ = s.world.SetSkinned(e, world.Skinned{Instance: instance})
	return e, instance, nil
}

// place sets the transform and mesh instance of a freshly added mesh entity.
func (s *scene) place(e world.Entity, id common.GeometryID, t world.Transform, options []SpawnOption) {
	mi, _ := s.world.MeshInstance(e)
	mi.Geometry = id
	for _, opt := range options {
		opt(&mi)
	}
	_ = s.world.SetMeshInstance(e, mi)
	_ = s.world.SetTransform(e, t)
}

func (s *scene) AttachToBone(child, parent world.Entity, boneName string) error {
	skinned, ok := s.world.Skinned(parent)
	if !ok {
		return eris.Wrapf(ErrNotSkinned, "entity %d", parent)
	}
	inst := s.animator.Instance(skinned.Instance)
	if inst == nil {
		return eris.Wrapf(ErrNotSkinned, "entity %d has no skin instance %d", parent, skinned.Instance)
	}
	joint, ok := inst.Skeleton().JointIndex(boneName)
	if !ok {
		return eris.Wrapf(ErrUnknownBone, "bone %q", boneName)
	}
	return s.world.Attach(child, parent, joint)
}

func (s *scene) Update(dt float32) int {
	collapsed := s.animator.Update(s.Clips(), dt)
	s.world.ResolveTransforms(s.animator)
	return collapsed
}

func (s *scene) Render() error {
	r := s.Renderer()
	if r == nil {
		return nil
	}
	return r.Render(s.world, s.animator.Instances())
}

func (s *scene) Close() {
	s.animator.Stop()
}
