package world

import (
	"github.com/Carmen-Shannon/oxy-ecs/common"
	"github.com/Carmen-Shannon/oxy-ecs/engine/camera"
	"github.com/Carmen-Shannon/oxy-ecs/engine/light"
)

var identityMatrix = common.IdentityMatrix()

// Transform is the local placement of an entity. The world matrix derived from it is
// only recomputed by ResolveTransforms, never by the setters.
type Transform struct {
	// Position is the translation.
	Position [3]float32

	// Rotation is a unit quaternion (x, y, z, w).
	Rotation [4]float32

	// Scale is the per-axis scale.
	Scale [3]float32
}

// IdentityTransform returns a transform at the origin with no rotation and unit scale.
func IdentityTransform() Transform {
	return Transform{
		Rotation: common.QuatIdentity(),
		Scale:    [3]float32{1, 1, 1},
	}
}

// Matrix composes the transform into a column-major TRS matrix.
func (t Transform) Matrix() [16]float32 {
	var m [16]float32
	common.ComposeTRS(m[:], t.Position, t.Rotation, t.Scale)
	return m
}

// MeshInstance references a registered geometry and carries its per-entity draw settings.
// Bloom, outline and occlusion settings are carried for the renderer's configuration only.
type MeshInstance struct {
	Geometry         common.GeometryID
	Color            [3]float32
	Alpha            float32
	Bloom            float32
	Outline          bool
	OutlineWidth     float32
	OcclusionTexture int // -1 = none
}

// Skinned references the skin instance that drives an entity's skinned geometry.
type Skinned struct {
	// Instance is the index into the scene's skin instance list.
	Instance int
}

// Transform returns the local transform of e.
func (w *World) Transform(e Entity) (Transform, bool) {
	if !w.Has(e, MaskTransform) {
		return Transform{}, false
	}
	return w.transforms[e], true
}

// SetTransform replaces the local transform of e.
//
// Parameters:
//   - e: the entity
//   - t: the new transform
//
// Returns:
//   - error: ErrEntityNotFound or ErrMissingComponent
func (w *World) SetTransform(e Entity, t Transform) error {
	if err := w.require(e, MaskTransform); err != nil {
		return err
	}
	w.transforms[e] = t
	return nil
}

// SetPosition sets the translation of e.
func (w *World) SetPosition(e Entity, p [3]float32) error {
	if err := w.require(e, MaskTransform); err != nil {
		return err
	}
	w.transforms[e].Position = p
	return nil
}

// SetRotation sets the rotation quaternion (x, y, z, w) of e.
func (w *World) SetRotation(e Entity, q [4]float32) error {
	if err := w.require(e, MaskTransform); err != nil {
		return err
	}
	w.transforms[e].Rotation = q
	return nil
}

// SetScale sets the per-axis scale of e.
func (w *World) SetScale(e Entity, s [3]float32) error {
	if err := w.require(e, MaskTransform); err != nil {
		return err
	}
	w.transforms[e].Scale = s
	return nil
}

// WorldMatrix returns the world matrix of e as of the last ResolveTransforms.
func (w *World) WorldMatrix(e Entity) ([16]float32, bool) {
	if !w.Has(e, MaskTransform) {
		return [16]float32{}, false
	}
	return w.worlds[e], true
}

// Position returns the world-space position of e as of the last ResolveTransforms.
func (w *World) Position(e Entity) ([3]float32, bool) {
	if !w.Has(e, MaskTransform) {
		return [3]float32{}, false
	}
	m := &w.worlds[e]
	return [3]float32{m[12], m[13], m[14]}, true
}

// MeshInstance returns the mesh component of e.
func (w *World) MeshInstance(e Entity) (MeshInstance, bool) {
	if !w.Has(e, MaskMeshInstance) {
		return MeshInstance{}, false
	}
	return w.meshes[e], true
}

// SetMeshInstance replaces the mesh component of e.
func (w *World) SetMeshInstance(e Entity, m MeshInstance) error {
	if err := w.require(e, MaskMeshInstance); err != nil {
		return err
	}
	w.meshes[e] = m
	return nil
}

// Skinned returns the skin reference of e.
func (w *World) Skinned(e Entity) (Skinned, bool) {
	if !w.Has(e, MaskSkinned) {
		return Skinned{}, false
	}
	return w.skins[e], true
}

// SetSkinned replaces the skin reference of e.
func (w *World) SetSkinned(e Entity, s Skinned) error {
	if err := w.require(e, MaskSkinned); err != nil {
		return err
	}
	w.skins[e] = s
	return nil
}

// Camera returns the camera component of e.
func (w *World) Camera(e Entity) (camera.Camera, bool) {
	if !w.Has(e, MaskCamera) {
		return camera.Camera{}, false
	}
	return w.cameras[e], true
}

// SetCamera replaces the camera component of e.
func (w *World) SetCamera(e Entity, c camera.Camera) error {
	if err := w.require(e, MaskCamera); err != nil {
		return err
	}
	w.cameras[e] = c
	return nil
}

// Light returns the lighting override carried by e.
func (w *World) Light(e Entity) (light.Lighting, bool) {
	if !w.Has(e, MaskLight) {
		return light.Lighting{}, false
	}
	return w.lights[e], true
}

// SetLight replaces the lighting override carried by e.
func (w *World) SetLight(e Entity, l light.Lighting) error {
	if err := w.require(e, MaskLight); err != nil {
		return err
	}
	w.lights[e] = l
	return nil
}
