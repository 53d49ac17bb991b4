package animator

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-ecs/common"
)

// MinBlendDuration is the shortest transition TransitionTo accepts, in seconds.
const MinBlendDuration float32 = 1e-3

// SkinState is the playback state of a SkinInstance.
type SkinState int

const (
	// SkinStateSingle plays one clip.
	SkinStateSingle SkinState = iota

	// SkinStateBlending crossfades from the active clip to a target clip.
	SkinStateBlending
)

// String returns a readable name for the state.
func (s SkinState) String() string {
	switch s {
	case SkinStateSingle:
		return "single"
	case SkinStateBlending:
		return "blending"
	default:
		return fmt.Sprintf("SkinState(%d)", int(s))
	}
}

// SkinInstance is the per-entity playback state of a shared Skeleton. It owns the pose
// produced by the last Update: one local transform, one model-space matrix and one
// skinning matrix per joint.
type SkinInstance struct {
	skeleton *Skeleton

	state SkinState

	clip int
	time float32

	target        int
	targetTime    float32
	blendDuration float32
	blendElapsed  float32
	blendWeight   float32

	// Speed scales dt for this instance. 1 is normal playback.
	Speed float32

	locals  []Transform
	scratch []Transform
	world   [][16]float32
	joints  []float32
}

// CreateSkinInstance creates an instance of skeleton playing initialClip from time 0.
// Until the first Update the pose is the skeleton's bind pose.
//
// Parameters:
//   - skeleton: the shared rig
//   - initialClip: the clip index to play
//
// Returns:
//   - *SkinInstance: the new instance in the Single state
func CreateSkinInstance(skeleton *Skeleton, initialClip int) *SkinInstance {
	if skeleton == nil {
		panic("animator: CreateSkinInstance requires a skeleton")
	}
	if initialClip < 0 {
		panic(fmt.Sprintf("animator: clip index %d out of range", initialClip))
	}
	n := skeleton.JointCount()
	s := &SkinInstance{
		skeleton: skeleton,
		state:    SkinStateSingle,
		clip:     initialClip,
		target:   -1,
		Speed:    1,
		locals:   make([]Transform, n),
		scratch:  make([]Transform, n),
		world:    make([][16]float32, n),
		joints:   make([]float32, n*16),
	}
	for i := range s.locals {
		s.locals[i] = skeleton.BindLocal(i)
	}
	s.computePose()
	return s
}

// TransitionTo starts a crossfade from the current clip and time to target, which plays
// from time 0. The blend progress restarts at 0 even if a blend was already running.
//
// Parameters:
//   - target: the clip index to blend to
//   - duration: the blend length in seconds, clamped to at least MinBlendDuration
func (s *SkinInstance) TransitionTo(target int, duration float32) {
	if target < 0 {
		panic(fmt.Sprintf("animator: clip index %d out of range", target))
	}
	s.state = SkinStateBlending
	s.target = target
	s.targetTime = 0
	s.blendDuration = max(duration, MinBlendDuration)
	s.blendElapsed = 0
	s.blendWeight = 0
}

// CheckClips panics if the instance references a clip outside clips.
//
// Parameters:
//   - clipCount: the number of clips available
func (s *SkinInstance) CheckClips(clipCount int) {
	if s.clip >= clipCount {
		panic(fmt.Sprintf("animator: clip index %d out of range [0, %d)", s.clip, clipCount))
	}
	if s.state == SkinStateBlending && s.target >= clipCount {
		panic(fmt.Sprintf("animator: clip index %d out of range [0, %d)", s.target, clipCount))
	}
}

// Update advances playback by dt and recomputes the pose.
//
// Both clips loop. While blending, the blend weight is elapsed/duration clamped to [0, 1];
// the update on which it reaches 1 collapses the instance to Single with the target as the
// active clip, and samples the target alone.
//
// Parameters:
//   - clips: the clip table the instance's indices refer to
//   - dt: elapsed time in seconds
//
// Returns:
//   - bool: true if this call collapsed a blend
func (s *SkinInstance) Update(clips []AnimationClip, dt float32) bool {
	s.CheckClips(len(clips))

	step := dt * s.Speed
	s.time = wrapTime(s.time, step, clips[s.clip].Duration)

	collapsed := false
	if s.state == SkinStateBlending {
		s.targetTime = wrapTime(s.targetTime, step, clips[s.target].Duration)
		s.blendElapsed += dt
		s.blendWeight = common.Clamp(s.blendElapsed/s.blendDuration, 0, 1)

		if s.blendWeight >= 1 {
			s.clip = s.target
			s.time = s.targetTime
			s.state = SkinStateSingle
			s.target = -1
			s.targetTime = 0
			s.blendElapsed = 0
			s.blendWeight = 0
			collapsed = true
		}
	}

	clips[s.clip].Sample(s.skeleton, s.time, s.locals)
	if s.state == SkinStateBlending {
		clips[s.target].Sample(s.skeleton, s.targetTime, s.scratch)
		for i := range s.locals {
			s.locals[i] = blendTransform(s.locals[i], s.scratch[i], s.blendWeight)
		}
	}

	s.computePose()
	return collapsed
}

// computePose runs the forward pass over the joints: world = parentWorld × local, then
// joint = world × inverseBind.
func (s *SkinInstance) computePose() {
	for i := range s.locals {
		local := s.locals[i].Matrix()
		if p := s.skeleton.Parent(i); p < 0 {
			s.world[i] = local
		} else {
			common.Mul4(s.world[i][:], s.world[p][:], local[:])
		}
		inv := s.skeleton.InverseBind(i)
		common.Mul4(s.joints[i*16:i*16+16], s.world[i][:], inv[:])
	}
}

// Skeleton returns the shared rig.
func (s *SkinInstance) Skeleton() *Skeleton {
	return s.skeleton
}

// State returns the playback state.
func (s *SkinInstance) State() SkinState {
	return s.state
}

// Clip returns the active clip index and its playback time.
func (s *SkinInstance) Clip() (int, float32) {
	return s.clip, s.time
}

// Target returns the blend target clip index and its playback time. The index is -1 when not blending.
func (s *SkinInstance) Target() (int, float32) {
	return s.target, s.targetTime
}

// BlendWeight returns the weight of the target clip in the current blend, 0 when not blending.
func (s *SkinInstance) BlendWeight() float32 {
	return s.blendWeight
}

// JointCount returns the number of joints in the pose.
func (s *SkinInstance) JointCount() int {
	return len(s.locals)
}

// JointMatrices returns the skinning matrices (JointCount × 16 floats, column-major)
// produced by the last Update. The slice is owned by the instance and overwritten by Update.
func (s *SkinInstance) JointMatrices() []float32 {
	return s.joints
}

// JointWorld returns the model-space matrix of joint j from the last Update.
//
// Parameters:
//   - j: the joint index
//
// Returns:
//   - [16]float32: the joint's model-space matrix
//   - bool: false if j is out of range
func (s *SkinInstance) JointWorld(j int) ([16]float32, bool) {
	if j < 0 || j >= len(s.world) {
		return [16]float32{}, false
	}
	return s.world[j], true
}
