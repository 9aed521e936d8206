package profile

import "log/slog"

// Profiler configures a profiling session.
type Profiler struct {
	Mode  string
	Path  string
	Quiet bool
}

// Option modifies a Profiler.
type Option func(Profiler) Profiler

// Make returns a Profiler with opts applied.
func Make(opts ...Option) Profiler {
	var p Profiler

	for _, opt := range opts {
		if opt != nil {
			p = opt(p)
		}
	}

	return p
}

// WithMode sets the profiling mode, one of [Modes].
func WithMode(mode string) Option {
	return func(p Profiler) Profiler {
		p.Mode = mode

		return p
	}
}

// WithPath sets the directory profiles are written to.
func WithPath(path string) Option {
	return func(p Profiler) Profiler {
		p.Path = path

		return p
	}
}

// WithQuiet suppresses the messages printed when profiling starts and stops.
func WithQuiet(quiet bool) Option {
	return func(p Profiler) Profiler {
		p.Quiet = quiet

		return p
	}
}

// Start begins profiling and returns the handle that stops it.
//
// Start returns a no-op handle when p.Mode is empty, when the mode is
// unknown, or when the binary was built without the pprof tag. Both Start and
// Stop are always safe to call.
func (p Profiler) Start() interface{ Stop() } {
	if p.Mode == "" {
		return ignore{}
	}

	return start(p.Mode, p.Path, p.Quiet)
}

// LogValue implements [slog.LogValuer].
func (p Profiler) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("mode", p.Mode),
		slog.String("path", p.Path),
		slog.Bool("enabled", Enabled),
	)
}

type ignore struct{}

func (ignore) Stop() {}
