// Package profile provides optional runtime profiling for the brace command.
//
// # Overview
//
// This package wraps [github.com/pkg/profile] behind the "pprof" build tag.
// Without the tag, [Profiler.Start] returns a no-op handle, [Modes] is empty,
// and [github.com/pkg/profile] is not linked into the binary.
//
//	go build -tags pprof .
//
// # Profiling Modes
//
//   - allocs:    memory allocation profiling (all allocations)
//   - block:     block (synchronization) profiling
//   - clock:     wall-clock profiling
//   - cpu:       CPU profiling
//   - goroutine: goroutine profiling
//   - heap:      heap memory profiling (live allocations)
//   - mem:       general memory profiling
//   - mutex:     mutex contention profiling
//   - thread:    thread creation profiling
//   - trace:     execution trace profiling
//
// # Usage
//
//	stop := profile.Make(
//		profile.WithMode("cpu"),
//		profile.WithPath("/tmp/profiles"),
//	).Start()
//	defer stop.Stop()
//
// The brace command exposes the same settings as flags:
//
//	brace --pprof-mode cpu --pprof-dir ./profiles render -s big.tmpl -e env.yaml
//
// Profiles are written to the directory named after the mode, such as
// cpu.pprof or mem.pprof, and can be inspected with go tool pprof:
//
//	go tool pprof -http=: ./profiles/cpu.pprof
//
// The default output directory is the pprof directory under the user cache
// directory, for example $XDG_CACHE_HOME/brace/pprof on Linux.
//
// Render workloads spend most of their time in the evaluator, so cpu and
// allocs are the modes of interest when tuning large loops.
package profile

// Tag is the build tag required to enable pprof profiling.
const Tag = `pprof`
