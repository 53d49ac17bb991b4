package profiler

import (
	"github.com/Carmen-Shannon/oxy-ecs/engine/logger"
	"github.com/pkg/profile"
	"go.uber.org/zap"
)

// CPUProfileFile is the file name the CPU profile is written to inside the profile directory.
const CPUProfileFile = "cpu.pprof"

// StartCPU starts a CPU profile written to dir/cpu.pprof. Only one profile may run at a time.
//
// Parameters:
//   - dir: the output directory
//
// Returns:
//   - func(): stops the profile and flushes the file
func StartCPU(dir string) func() {
	p := profile.Start(profile.CPUProfile, profile.ProfilePath(dir), profile.NoShutdownHook, profile.Quiet)
	logger.Info("cpu profile started", zap.String("dir", dir))
	return func() {
		p.Stop()
		logger.Info("cpu profile written", zap.String("file", CPUProfileFile), zap.String("dir", dir))
	}
}
