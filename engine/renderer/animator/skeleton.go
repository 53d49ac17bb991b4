package animator

import (
	"errors"

	"github.com/Carmen-Shannon/oxy-ecs/common"
	"github.com/rotisserie/eris"
)

// ErrMalformedSkeleton is returned by NewSkeleton for joint lists that cannot be evaluated in one forward pass.
var ErrMalformedSkeleton = errors.New("malformed skeleton")

// Transform represents a decomposed transform for animation interpolation.
type Transform struct {
	// Translation is the position offset.
	Translation [3]float32

	// Rotation is the orientation as a quaternion (x, y, z, w).
	Rotation [4]float32

	// Scale is the scale factor along each axis.
	Scale [3]float32
}

// IdentityTransform returns the transform with no translation, no rotation and unit scale.
func IdentityTransform() Transform {
	return Transform{Rotation: common.QuatIdentity(), Scale: [3]float32{1, 1, 1}}
}

// Matrix composes the transform into a column-major TRS matrix.
func (t Transform) Matrix() [16]float32 {
	var m [16]float32
	common.ComposeTRS(m[:], t.Translation, t.Rotation, t.Scale)
	return m
}

// Joint describes one joint of a skeleton as it comes from the source rig.
type Joint struct {
	// Name is the joint's identifier, used for named-bone lookup.
	Name string

	// Parent is the index of the parent joint, or -1 for a root. It must be lower than the joint's own index.
	Parent int

	// Local is the bind-pose transform relative to the parent.
	Local Transform

	// InverseBind transforms from model space to joint space at bind pose.
	// When nil it is derived by inverting the joint's bind-pose model transform.
	InverseBind *[16]float32
}

// Skeleton is an immutable joint hierarchy shared read-only by every SkinInstance of a rig.
// Joints are stored in topological order so a single forward pass resolves every world transform.
type Skeleton struct {
	joints      []Joint
	inverseBind [][16]float32
	names       map[string]int
}

// NewSkeleton validates a joint list and computes any missing inverse bind matrices.
//
// Parameters:
//   - joints: the joints in parent-before-child order
//
// Returns:
//   - *Skeleton: the constructed skeleton
//   - error: ErrMalformedSkeleton for an empty list, more joints than common.MaxJoints, a parent
//     index that is not lower than the joint's own index, or a bind pose that cannot be inverted
func NewSkeleton(joints []Joint) (*Skeleton, error) {
	if len(joints) == 0 {
		return nil, eris.Wrap(ErrMalformedSkeleton, "skeleton has no joints")
	}
	if len(joints) > common.MaxJoints {
		return nil, eris.Wrapf(ErrMalformedSkeleton, "%d joints exceed the palette of %d", len(joints), common.MaxJoints)
	}

	s := &Skeleton{
		joints:      make([]Joint, len(joints)),
		inverseBind: make([][16]float32, len(joints)),
		names:       make(map[string]int, len(joints)),
	}
	copy(s.joints, joints)

	bindWorld := make([][16]float32, len(joints))
	for i, j := range s.joints {
		if j.Parent < -1 || j.Parent >= i {
			return nil, eris.Wrapf(ErrMalformedSkeleton, "joint %d (%q) has parent %d", i, j.Name, j.Parent)
		}

		local := j.Local.Matrix()
		if j.Parent < 0 {
			bindWorld[i] = local
		} else {
			common.Mul4(bindWorld[i][:], bindWorld[j.Parent][:], local[:])
		}

		if j.InverseBind != nil {
			s.inverseBind[i] = *j.InverseBind
		} else if !common.Invert4(s.inverseBind[i][:], bindWorld[i][:]) {
			return nil, eris.Wrapf(ErrMalformedSkeleton, "joint %d (%q) has a singular bind pose", i, j.Name)
		}
		s.joints[i].InverseBind = nil

		if j.Name != "" {
			if _, dup := s.names[j.Name]; !dup {
				s.names[j.Name] = i
			}
		}
	}
	return s, nil
}

// JointCount returns the number of joints.
func (s *Skeleton) JointCount() int {
	return len(s.joints)
}

// Parent returns the parent index of joint i, -1 for roots.
func (s *Skeleton) Parent(i int) int {
	return s.joints[i].Parent
}

// BindLocal returns the bind-pose local transform of joint i.
func (s *Skeleton) BindLocal(i int) Transform {
	return s.joints[i].Local
}

// InverseBind returns the inverse bind matrix of joint i.
func (s *Skeleton) InverseBind(i int) [16]float32 {
	return s.inverseBind[i]
}

// JointName returns the name of joint i.
func (s *Skeleton) JointName(i int) string {
	return s.joints[i].Name
}

// JointIndex looks up a joint by name. When several joints share a name the first wins.
//
// Parameters:
//   - name: the joint name
//
// Returns:
//   - int: the joint index
//   - bool: false if no joint has that name
func (s *Skeleton) JointIndex(name string) (int, bool) {
	i, ok := s.names[name]
	return i, ok
}
