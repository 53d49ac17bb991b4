package animator

import (
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-ecs/engine/logger"
	"go.uber.org/zap"
)

// animator is the implementation of the Animator interface.
type animator struct {
	instances []*SkinInstance

	// pool manages a bounded set of reusable goroutines for parallel instance evaluation.
	// It is created lazily on the first Update that crosses parallelThreshold.
	pool              worker.DynamicWorkerPool
	workers           int
	parallelThreshold int
	batchSize         int
}

// Animator owns the skin instances of a scene and advances them once per frame.
//
// Instances share no mutable state, so Update may evaluate them on a worker pool. Update
// returns only after every instance has finished, so the animation phase never overlaps
// the phases after it.
type Animator interface {
	// Add registers an instance and returns its index, which entities reference through
	// their Skinned component.
	//
	// Parameters:
	//   - inst: the instance to add
	//
	// Returns:
	//   - int: the instance index
	Add(inst *SkinInstance) int

	// Instance returns the instance at index i, or nil when out of range.
	//
	// Parameters:
	//   - i: the instance index
	//
	// Returns:
	//   - *SkinInstance: the instance or nil
	Instance(i int) *SkinInstance

	// Instances returns every instance in index order. The renderer reads joint matrices from this slice.
	//
	// Returns:
	//   - []*SkinInstance: the instance list
	Instances() []*SkinInstance

	// InstanceCount returns the number of registered instances.
	//
	// Returns:
	//   - int: the instance count
	InstanceCount() int

	// Update advances every instance by dt. Clip indices are validated on the calling
	// goroutine before any work is dispatched, so an out-of-range clip panics there.
	//
	// Parameters:
	//   - clips: the clip table
	//   - dt: elapsed time in seconds
	//
	// Returns:
	//   - int: the number of blends that collapsed this frame
	Update(clips []AnimationClip, dt float32) int

	// JointWorld returns the model-space matrix of a joint of an instance.
	//
	// Parameters:
	//   - instance: the instance index
	//   - joint: the joint index
	//
	// Returns:
	//   - [16]float32: the joint's model-space matrix
	//   - bool: false if either index is out of range
	JointWorld(instance, joint int) ([16]float32, bool)

	// Stop shuts down the worker pool. A later parallel Update starts a new one.
	Stop()
}

var _ Animator = &animator{}

// NewAnimator creates an empty Animator.
//
// Parameters:
//   - options: functional options to configure the animator
//
// Returns:
//   - Animator: the new animator
func NewAnimator(options ...AnimatorBuilderOption) Animator {
	a := &animator{
		workers:           runtime.NumCPU(),
		parallelThreshold: 64,
		batchSize:         32,
	}
	for _, option := range options {
		option(a)
	}
	if a.workers < 1 {
		a.workers = runtime.NumCPU()
	}
	if a.batchSize < 1 {
		a.batchSize = 1
	}
	return a
}

func (a *animator) Add(inst *SkinInstance) int {
	a.instances = append(a.instances, inst)
	return len(a.instances) - 1
}

func (a *animator) Instance(i int) *SkinInstance {
	if i < 0 || i >= len(a.instances) {
		return nil
	}
	return a.instances[i]
}

func (a *animator) Instances() []*SkinInstance {
	return a.instances
}

func (a *animator) InstanceCount() int {
	return len(a.instances)
}

func (a *animator) JointWorld(instance, joint int) ([16]float32, bool) {
	inst := a.Instance(instance)
	if inst == nil {
		return [16]float32{}, false
	}
	return inst.JointWorld(joint)
}

func (a *animator) Stop() {
	if a.pool == nil {
		return
	}
	a.pool.Stop()
	a.pool = nil
	logger.Debug("animation workers stopped", zap.Int("workers", a.workers))
}

func (a *animator) Update(clips []AnimationClip, dt float32) int {
	for _, inst := range a.instances {
		inst.CheckClips(len(clips))
	}

	var collapsed int
	if len(a.instances) < a.parallelThreshold || a.workers == 1 {
		for _, inst := range a.instances {
			if inst.Update(clips, dt) {
				collapsed++
			}
		}
	} else {
		collapsed = a.updateParallel(clips, dt)
	}

	if collapsed > 0 {
		logger.Debug("animation blends collapsed", zap.Int("count", collapsed), zap.Int("instances", len(a.instances)))
	}
	return collapsed
}

// updateParallel evaluates instances in batches on the worker pool and waits for all of them.
func (a *animator) updateParallel(clips []AnimationClip, dt float32) int {
	if a.pool == nil {
		// Queue size of 256 accommodates typical batch counts with headroom.
		a.pool = worker.NewDynamicWorkerPool(a.workers, 256, 1*time.Second)
	}

	// A WaitGroup provides per-frame barrier sync since pool.Wait() blocks until
	// workers idle-exit which is unsuitable for frame-rate workloads.
	var wg sync.WaitGroup
	counts := make([]int, (len(a.instances)+a.batchSize-1)/a.batchSize)
	for b := range counts {
		start := b * a.batchSize
		end := min(start+a.batchSize, len(a.instances))
		batch := a.instances[start:end]
		slot := &counts[b]

		wg.Add(1)
		a.pool.SubmitTask(worker.Task{
			ID: b,
			Do: func() (any, error) {
				defer wg.Done()
				for _, inst := range batch {
					if inst.Update(clips, dt) {
						*slot++
					}
				}
				return nil, nil
			},
		})
	}
	wg.Wait()

	collapsed := 0
	for _, c := range counts {
		collapsed += c
	}
	return collapsed
}
