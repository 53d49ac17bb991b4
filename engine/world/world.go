// Package world is the entity store: a structure of arrays indexed by a dense
// integer entity id, with a bitmask per entity recording which component arrays
// are valid for it.
//
// A World has exactly one writer per frame (the update phases) and one reader (the
// render phase), which never overlap, so it carries no locks.
package world

import (
	"errors"

	"github.com/Carmen-Shannon/oxy-ecs/engine/camera"
	"github.com/Carmen-Shannon/oxy-ecs/engine/light"
	"github.com/rotisserie/eris"
)

var (
	// ErrEntityNotFound is returned for entity ids outside the live range or already removed.
	ErrEntityNotFound = errors.New("entity not found")

	// ErrMissingComponent is returned when setting a component the entity does not carry.
	ErrMissingComponent = errors.New("entity is missing component")

	// ErrInvalidAttachment is returned when a bone attachment violates the attachment rules.
	ErrInvalidAttachment = errors.New("invalid attachment")
)

// Entity is an index into the world's parallel component arrays.
type Entity int

// NoEntity is the sentinel for "no entity".
const NoEntity Entity = -1

// Mask is the component bitset of one entity.
type Mask uint8

const (
	// MaskTransform marks a valid Transform and world matrix.
	MaskTransform Mask = 1 << iota
	// MaskMeshInstance marks a valid MeshInstance.
	MaskMeshInstance
	// MaskSkinned marks a valid Skinned reference.
	MaskSkinned
	// MaskCamera marks a valid camera.Camera.
	MaskCamera
	// MaskLight marks a valid light.Lighting override.
	MaskLight
	// MaskAlive is set on every live entity and cleared when it is removed.
	MaskAlive
)

// componentBits is every bit a caller may toggle.
const componentBits = MaskTransform | MaskMeshInstance | MaskSkinned | MaskCamera | MaskLight

// World holds every entity's component data as flat arrays.
type World struct {
	masks       []Mask
	transforms  []Transform
	worlds      [][16]float32
	meshes      []MeshInstance
	skins       []Skinned
	cameras     []camera.Camera
	lights      []light.Lighting
	attachments []attachment

	activeCamera Entity
	lighting     light.Lighting
}

// NewWorld creates an empty world with room for capacity entities before its arrays grow.
//
// Parameters:
//   - capacity: the number of entities to pre-allocate
//
// Returns:
//   - *World: the new world
func NewWorld(capacity int) *World {
	capacity = max(capacity, 0)
	return &World{
		masks:        make([]Mask, 0, capacity),
		transforms:   make([]Transform, 0, capacity),
		worlds:       make([][16]float32, 0, capacity),
		meshes:       make([]MeshInstance, 0, capacity),
		skins:        make([]Skinned, 0, capacity),
		cameras:      make([]camera.Camera, 0, capacity),
		lights:       make([]light.Lighting, 0, capacity),
		attachments:  make([]attachment, 0, capacity),
		activeCamera: NoEntity,
		lighting:     light.NewLighting(),
	}
}

// AddEntity appends a live entity carrying the given components. Component values start
// at their defaults: identity transform, white opaque mesh color, default camera and lighting.
//
// Parameters:
//   - mask: the components the entity carries
//
// Returns:
//   - Entity: the new entity's index
func (w *World) AddEntity(mask Mask) Entity {
	e := Entity(len(w.masks))
	w.masks = append(w.masks, (mask&componentBits)|MaskAlive)
	w.transforms = append(w.transforms, IdentityTransform())
	w.worlds = append(w.worlds, identityMatrix)
	w.meshes = append(w.meshes, MeshInstance{Color: [3]float32{1, 1, 1}, Alpha: 1, OcclusionTexture: -1})
	w.skins = append(w.skins, Skinned{})
	w.cameras = append(w.cameras, camera.NewCamera())
	w.lights = append(w.lights, w.lighting)
	w.attachments = append(w.attachments, attachment{parent: NoEntity})
	return e
}

// EntityCount returns the size of the live range [0, EntityCount()). Removed entities
// keep their index, so the range includes tombstones.
func (w *World) EntityCount() int {
	return len(w.masks)
}

// Alive reports whether e is in range and has not been removed.
func (w *World) Alive(e Entity) bool {
	return e >= 0 && int(e) < len(w.masks) && w.masks[e]&MaskAlive != 0
}

// Mask returns the component mask of e, or 0 for unknown entities.
func (w *World) Mask(e Entity) Mask {
	if e < 0 || int(e) >= len(w.masks) {
		return 0
	}
	return w.masks[e]
}

// Has reports whether e is live and carries every bit of mask.
func (w *World) Has(e Entity, mask Mask) bool {
	return w.Alive(e) && w.masks[e]&mask == mask
}

// Each calls fn for every live entity carrying every bit of mask, in index order.
//
// Parameters:
//   - mask: the components an entity must carry to be visited
//   - fn: the visitor
func (w *World) Each(mask Mask, fn func(Entity)) {
	want := mask | MaskAlive
	for i, m := range w.masks {
		if m&want == want {
			fn(Entity(i))
		}
	}
}

// RemoveEntity tombstones e by clearing its mask. Indices never move, so external
// references to other entities stay valid. Attachments to or from e are dropped and
// the active camera is cleared if it was e.
//
// Parameters:
//   - e: the entity to remove
//
// Returns:
//   - error: ErrEntityNotFound if e is out of range or already removed
func (w *World) RemoveEntity(e Entity) error {
	if !w.Alive(e) {
		return eris.Wrapf(ErrEntityNotFound, "remove entity %d", e)
	}
	w.dropComponents(e, componentBits)
	w.masks[e] = 0
	return nil
}

// AddComponents sets additional component bits on e. The component values are left
// as they are, so a re-added component resumes its previous data.
//
// Parameters:
//   - e: the entity
//   - mask: the components to add
//
// Returns:
//   - error: ErrEntityNotFound if e is not live
func (w *World) AddComponents(e Entity, mask Mask) error {
	if !w.Alive(e) {
		return eris.Wrapf(ErrEntityNotFound, "add components to entity %d", e)
	}
	w.masks[e] |= mask & componentBits
	return nil
}

// RemoveComponents clears component bits on e. Clearing Camera on the active camera
// deactivates it; clearing MeshInstance or Transform detaches e from its bone; clearing
// Skinned detaches every entity attached to e.
//
// Parameters:
//   - e: the entity
//   - mask: the components to remove
//
// Returns:
//   - error: ErrEntityNotFound if e is not live
func (w *World) RemoveComponents(e Entity, mask Mask) error {
	if !w.Alive(e) {
		return eris.Wrapf(ErrEntityNotFound, "remove components from entity %d", e)
	}
	mask &= componentBits
	w.dropComponents(e, mask)
	w.masks[e] &^= mask
	return nil
}

// dropComponents releases the cross-entity references held through the given bits of e.
func (w *World) dropComponents(e Entity, mask Mask) {
	if mask&MaskCamera != 0 && w.activeCamera == e {
		w.activeCamera = NoEntity
	}
	if mask&(MaskTransform|MaskMeshInstance) != 0 {
		w.attachments[e] = attachment{parent: NoEntity}
	}
	if mask&(MaskTransform|MaskSkinned) != 0 {
		for i := range w.attachments {
			if w.attachments[i].parent == e {
				w.attachments[i] = attachment{parent: NoEntity}
			}
		}
	}
}

// SetActiveCamera selects the camera entity the renderer draws from.
//
// Parameters:
//   - e: an entity carrying MaskCamera
//
// Returns:
//   - error: ErrEntityNotFound or ErrMissingComponent
func (w *World) SetActiveCamera(e Entity) error {
	if err := w.require(e, MaskCamera); err != nil {
		return err
	}
	w.activeCamera = e
	return nil
}

// ActiveCamera returns the active camera entity, if one is set and still valid.
func (w *World) ActiveCamera() (Entity, bool) {
	if w.activeCamera == NoEntity || !w.Has(w.activeCamera, MaskCamera) {
		return NoEntity, false
	}
	return w.activeCamera, true
}

// ClearActiveCamera unsets the active camera.
func (w *World) ClearActiveCamera() {
	w.activeCamera = NoEntity
}

// Lighting returns the singleton lighting block.
func (w *World) Lighting() light.Lighting {
	return w.lighting
}

// SetLighting replaces the singleton lighting block.
func (w *World) SetLighting(l light.Lighting) {
	w.lighting = l
}

// FrameLighting returns the lighting used to render a frame: the Light component of the
// lowest-index live entity carrying MaskLight, or the singleton when there is none.
//
// Returns:
//   - light.Lighting: the effective lighting block
func (w *World) FrameLighting() light.Lighting {
	want := MaskLight | MaskAlive
	for i, m := range w.masks {
		if m&want == want {
			return w.lights[i]
		}
	}
	return w.lighting
}

// require checks that e is live and carries mask.
func (w *World) require(e Entity, mask Mask) error {
	if !w.Alive(e) {
		return eris.Wrapf(ErrEntityNotFound, "entity %d", e)
	}
	if w.masks[e]&mask != mask {
		return eris.Wrapf(ErrMissingComponent, "entity %d has mask %08b, needs %08b", e, w.masks[e], mask)
	}
	return nil
}
