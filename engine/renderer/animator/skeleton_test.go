package animator

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-ecs/common"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func translated(x, y, z float32) Transform {
	t := IdentityTransform()
	t.Translation = [3]float32{x, y, z}
	return t
}

// twoJointRig is a root at the origin with a child one unit up.
func twoJointRig(t *testing.T) *Skeleton {
	t.Helper()
	s, err := NewSkeleton([]Joint{
		{Name: "root", Parent: -1, Local: IdentityTransform()},
		{Name: "hand", Parent: 0, Local: translated(0, 1, 0)},
	})
	require.NoError(t, err)
	return s
}

func TestNewSkeletonRejectsMalformedInput(t *testing.T) {
	singular := IdentityTransform()
	singular.Scale = [3]float32{0, 1, 1}

	tests := []struct {
		name   string
		joints []Joint
	}{
		{"empty", nil},
		{"forward parent", []Joint{{Parent: -1, Local: IdentityTransform()}, {Parent: 2, Local: IdentityTransform()}, {Parent: 0, Local: IdentityTransform()}}},
		{"self parent", []Joint{{Parent: 0, Local: IdentityTransform()}}},
		{"parent below -1", []Joint{{Parent: -2, Local: IdentityTransform()}}},
		{"singular bind pose", []Joint{{Parent: -1, Local: singular}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSkeleton(tt.joints)
			require.Error(t, err)
			assert.ErrorIs(t, ErrMalformedSkeleton, eris.Cause(err))
		})
	}
}

func TestNewSkeletonRejectsOversizedRig(t *testing.T) {
	chain := func(n int) []Joint {
		joints := make([]Joint, n)
		for i := range joints {
			joints[i] = Joint{Parent: i - 1, Local: IdentityTransform()}
		}
		return joints
	}

	s, err := NewSkeleton(chain(common.MaxJoints))
	require.NoError(t, err)
	assert.Equal(t, common.MaxJoints, s.JointCount())

	_, err = NewSkeleton(chain(common.MaxJoints + 1))
	require.Error(t, err)
	assert.ErrorIs(t, ErrMalformedSkeleton, eris.Cause(err))
}

func TestNewSkeletonDerivesInverseBind(t *testing.T) {
	s := twoJointRig(t)
	inv := s.InverseBind(1)
	p := common.TransformPoint(inv[:], [3]float32{0, 1, 0})
	assert.InDelta(t, 0, p[1], 1e-6, "the bind position of the hand maps to its own origin")
}

func TestNewSkeletonKeepsExplicitInverseBind(t *testing.T) {
	explicit := common.IdentityMatrix()
	explicit[12] = 42
	s, err := NewSkeleton([]Joint{{Parent: -1, Local: IdentityTransform(), InverseBind: &explicit}})
	require.NoError(t, err)
	assert.Equal(t, explicit, s.InverseBind(0))
}

func TestJointIndex(t *testing.T) {
	s := twoJointRig(t)
	i, ok := s.JointIndex("hand")
	require.True(t, ok)
	assert.Equal(t, 1, i)
	assert.Equal(t, "hand", s.JointName(i))

	_, ok = s.JointIndex("tail")
	assert.False(t, ok)
}
