package profiler

import (
	"runtime"
	"time"

	"github.com/Carmen-Shannon/oxy-ecs/engine/logger"
	"github.com/Carmen-Shannon/oxy-ecs/engine/renderer"
	"go.uber.org/zap"
)

// Report is one interval's worth of frame and memory statistics.
type Report struct {
	FPS float64

	// Draw counts are averaged over the frames of the interval.
	DrawCalls    float64
	StaticDraws  float64
	SkinnedDraws float64

	// Visibility counts are those of the last frame of the interval.
	Visible int
	Culled  int
	Skipped int

	HeapMB      float64
	AllocRateMB float64
	SysMB       float64
	GCCount     uint32
	LastPauseUs uint64
	MaxPauseUs  uint64
}

// Profiler tracks frame rate, renderer statistics and memory for performance monitoring.
// Outputs a report to the log at a configurable interval.
type Profiler struct {
	frameCount     int
	drawCalls      int
	staticDraws    int
	skinnedDraws   int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
	last           Report

	now func() time.Time
}

// NewProfiler creates a new Profiler. The update interval defaults to 1 second.
//
// Parameters:
//   - options: functional options to configure the profiler
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(options ...ProfilerOption) *Profiler {
	p := &Profiler{
		updateInterval: time.Second,
		now:            time.Now,
	}
	for _, opt := range options {
		opt(p)
	}
	p.lastTime = p.now()
	return p
}

// Tick should be called once per frame with the renderer's statistics for that frame.
// When the update interval has elapsed it logs a report and starts a new interval.
//
// Parameters:
//   - stats: the statistics of the frame just rendered
//
// Returns:
//   - Report: the report, valid only when the second result is true
//   - bool: true if a report was produced this tick
func (p *Profiler) Tick(stats renderer.FrameStats) (Report, bool) {
	p.frameCount++
	p.drawCalls += stats.DrawCalls
	p.staticDraws += stats.StaticDraws
	p.skinnedDraws += stats.SkinnedDraws

	currentTime := p.now()
	elapsed := currentTime.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return Report{}, false
	}

	frames := float64(p.frameCount)
	r := Report{
		FPS:          frames / elapsed.Seconds(),
		DrawCalls:    float64(p.drawCalls) / frames,
		StaticDraws:  float64(p.staticDraws) / frames,
		SkinnedDraws: float64(p.skinnedDraws) / frames,
		Visible:      stats.Visible,
		Culled:       stats.Culled,
		Skipped:      stats.Skipped,
	}

	runtime.ReadMemStats(&p.memStats)
	// Alloc is live heap, TotalAlloc only grows and tracks churn, Sys is the process footprint.
	r.HeapMB = float64(p.memStats.Alloc) / 1024 / 1024
	r.SysMB = float64(p.memStats.Sys) / 1024 / 1024
	allocDelta := p.memStats.TotalAlloc - p.lastTotalAlloc
	r.AllocRateMB = float64(allocDelta) / 1024 / 1024 / elapsed.Seconds()

	r.GCCount = p.memStats.NumGC
	if r.GCCount > 0 {
		// PauseNs is a circular buffer of the last 256 GC pauses.
		r.LastPauseUs = p.memStats.PauseNs[(r.GCCount-1)%256] / 1000

		startIdx := p.lastGCCount
		if r.GCCount-startIdx > 256 {
			startIdx = r.GCCount - 256
		}
		for i := startIdx; i < r.GCCount; i++ {
			r.MaxPauseUs = max(r.MaxPauseUs, p.memStats.PauseNs[i%256]/1000)
		}
	}

	logger.Info("frame stats",
		zap.Float64("fps", r.FPS),
		zap.Float64("draw_calls", r.DrawCalls),
		zap.Float64("static_draws", r.StaticDraws),
		zap.Float64("skinned_draws", r.SkinnedDraws),
		zap.Int("visible", r.Visible),
		zap.Int("culled", r.Culled),
		zap.Int("skipped", r.Skipped),
		zap.Float64("heap_mb", r.HeapMB),
		zap.Float64("alloc_rate_mb", r.AllocRateMB),
		zap.Uint32("gc", r.GCCount),
		zap.Uint64("gc_last_us", r.LastPauseUs),
		zap.Uint64("gc_max_us", r.MaxPauseUs),
		zap.Float64("sys_mb", r.SysMB),
	)

	p.frameCount = 0
	p.drawCalls, p.staticDraws, p.skinnedDraws = 0, 0, 0
	p.lastTime = currentTime
	p.lastGCCount = r.GCCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	p.last = r
	return r, true
}

// Last returns the most recent report, or the zero Report before the first interval ends.
func (p *Profiler) Last() Report {
	return p.last
}
