package animator

import (
	"github.com/Carmen-Shannon/oxy-ecs/common"
	"github.com/chewxy/math32"
)

// VectorKey stores a 3D vector value at a specific time.
type VectorKey struct {
	// Time is the keyframe timestamp in seconds.
	Time float32

	// Value is the 3D vector value at this keyframe.
	Value [3]float32
}

// QuatKey stores a quaternion rotation at a specific time.
type QuatKey struct {
	// Time is the keyframe timestamp in seconds.
	Time float32

	// Value is the quaternion value at this keyframe (x, y, z, w).
	Value [4]float32
}

// Channel contains keyframe data for a single joint. Keys are sorted by time.
// An empty key list leaves that component at the joint's bind pose.
type Channel struct {
	// Joint is the index of the joint this channel animates.
	Joint int

	// Translations are keyframes for translation.
	Translations []VectorKey

	// Rotations are keyframes for rotation.
	Rotations []QuatKey

	// Scales are keyframes for scale.
	Scales []VectorKey
}

// AnimationClip represents a single looping animation (walk, run, attack, etc.).
// Clips are immutable once built and shared by every instance that plays them.
type AnimationClip struct {
	// Name is the animation identifier.
	Name string

	// Duration is the total length of the animation in seconds.
	Duration float32

	// Channels contains animation data for each animated joint.
	Channels []Channel
}

// Sample writes the local transform of every joint at time t into out, which must hold
// skeleton.JointCount() entries. Joints without a channel keep their bind pose, and
// channels naming a joint outside the skeleton are ignored.
//
// Parameters:
//   - skeleton: the rig being animated
//   - t: the clip time in seconds
//   - out: destination local transforms
func (c *AnimationClip) Sample(skeleton *Skeleton, t float32, out []Transform) {
	for i := range out {
		out[i] = skeleton.BindLocal(i)
	}
	for i := range c.Channels {
		ch := &c.Channels[i]
		if ch.Joint < 0 || ch.Joint >= len(out) {
			continue
		}
		dst := &out[ch.Joint]
		if len(ch.Translations) > 0 {
			dst.Translation = sampleVector(ch.Translations, t)
		}
		if len(ch.Rotations) > 0 {
			dst.Rotation = sampleQuat(ch.Rotations, t)
		}
		if len(ch.Scales) > 0 {
			dst.Scale = sampleVector(ch.Scales, t)
		}
	}
}

// keySpan finds the pair of keys surrounding t and the interpolation factor between them.
// Before the first key it returns (0, 0, 0) and after the last (n-1, n-1, 0).
func keySpan(n int, timeAt func(int) float32, t float32) (int, int, float32) {
	if n == 1 || t <= timeAt(0) {
		return 0, 0, 0
	}
	last := n - 1
	if t >= timeAt(last) {
		return last, last, 0
	}
	// Binary search for the first key strictly after t.
	lo, hi := 0, last
	for lo < hi {
		mid := (lo + hi) / 2
		if timeAt(mid) <= t {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	a, b := lo-1, lo
	span := timeAt(b) - timeAt(a)
	if span <= 0 {
		return b, b, 0
	}
	return a, b, (t - timeAt(a)) / span
}

func sampleVector(keys []VectorKey, t float32) [3]float32 {
	a, b, f := keySpan(len(keys), func(i int) float32 { return keys[i].Time }, t)
	if a == b {
		return keys[a].Value
	}
	return common.Lerp3(keys[a].Value, keys[b].Value, f)
}

func sampleQuat(keys []QuatKey, t float32) [4]float32 {
	a, b, f := keySpan(len(keys), func(i int) float32 { return keys[i].Time }, t)
	if a == b {
		return keys[a].Value
	}
	return common.QuatSlerp(keys[a].Value, keys[b].Value, f)
}

// blendTransform interpolates two local transforms: linear for translation and scale,
// shortest-arc slerp for rotation.
func blendTransform(a, b Transform, w float32) Transform {
	return Transform{
		Translation: common.Lerp3(a.Translation, b.Translation, w),
		Rotation:    common.QuatSlerp(a.Rotation, b.Rotation, w),
		Scale:       common.Lerp3(a.Scale, b.Scale, w),
	}
}

// wrapTime advances t by dt and wraps it into [0, duration).
func wrapTime(t, dt, duration float32) float32 {
	if duration <= 0 {
		return 0
	}
	t = math32.Mod(t+dt, duration)
	if t < 0 {
		t += duration
	}
	return t
}
