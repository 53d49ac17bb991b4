package animator

// AnimatorBuilderOption is a functional option for configuring an Animator during construction.
type AnimatorBuilderOption func(*animator)

// WithWorkers sets the number of pooled goroutines used to evaluate instances.
// Values below 1 select one worker per CPU. A single worker evaluates inline.
//
// Parameters:
//   - workers: the worker count
//
// Returns:
//   - AnimatorBuilderOption: a function that applies the worker count to an animator
func WithWorkers(workers int) AnimatorBuilderOption {
	return func(a *animator) {
		a.workers = workers
	}
}

// WithParallelThreshold sets the instance count below which Update evaluates inline
// instead of dispatching to the worker pool.
//
// Parameters:
//   - threshold: the minimum instance count for parallel evaluation
//
// Returns:
//   - AnimatorBuilderOption: a function that applies the threshold to an animator
func WithParallelThreshold(threshold int) AnimatorBuilderOption {
	return func(a *animator) {
		a.parallelThreshold = threshold
	}
}

// WithBatchSize sets how many instances one pooled task evaluates.
//
// Parameters:
//   - size: instances per task
//
// Returns:
//   - AnimatorBuilderOption: a function that applies the batch size to an animator
func WithBatchSize(size int) AnimatorBuilderOption {
	return func(a *animator) {
		a.batchSize = size
	}
}
