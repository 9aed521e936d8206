package cli

import (
	"context"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/alecthomas/kong"

	"github.com/ardnew/brace/log"
)

// logFormat is a custom type that configures the logger format as a side
// effect of parsing via encoding.TextUnmarshaler.
type logFormat string

// UnmarshalText implements encoding.TextUnmarshaler.
// As Kong parses the --log-format flag, this method is called, allowing us
// to configure the logger early enough to affect error messages during parsing.
func (f *logFormat) UnmarshalText(text []byte) error {
	*f = logFormat(text)
	log.Config(log.WithFormat(log.ParseFormat(string(*f))))

	return nil
}

// logLevel is a custom type that configures the logger level as a side
// effect of parsing via encoding.TextUnmarshaler.
type logLevel string

// UnmarshalText implements encoding.TextUnmarshaler.
// As Kong parses the --log-level flag, this method is called, allowing us
// to configure the logger early enough to affect error messages during parsing.
func (l *logLevel) UnmarshalText(text []byte) error {
	*l = logLevel(text)
	log.Config(log.WithLevel(log.ParseLevel(string(*l))))

	return nil
}

type logConfig struct {
	Level      logLevel  `default:"info"    enum:"${logLevelEnum}"  help:"Set log level (${enum})."`
	Format     logFormat `default:"text"    enum:"${logFormatEnum}" help:"Set log format (${enum})."`
	TimeLayout string    `default:"RFC3339"                         help:"Set timestamp format."            name:"time"`
	Caller     bool      `default:"false"                           help:"Include caller information."       negatable:""`
	Pretty     bool      `default:"true"                            help:"Enable colorized pretty printing." negatable:""`
}

func (*logConfig) vars() kong.Vars {
	return kong.Vars{
		"logLevelEnum":  strings.Join(slices.Collect(log.Levels()), ","),
		"logFormatEnum": strings.Join(slices.Collect(log.Formats()), ","),
	}
}

func (*logConfig) group() kong.Group {
	var group kong.Group

	group.Key = "log"
	group.Title = "Logging options"

	return group
}

// start applies the parsed logger configuration and returns a function that
// logs the end of the run.
func (f *logConfig) start(ctx context.Context) (stop func()) {
	log.Config(
		log.WithLevel(log.ParseLevel(string(f.Level))),
		log.WithFormat(log.ParseFormat(string(f.Format))),
		log.WithTimeLayout(f.TimeLayout),
		log.WithCaller(f.Caller),
		log.WithPretty(f.Pretty),
	)

	log.DebugContext(ctx, "logger initialized",
		slog.String("level", string(f.Level)),
		slog.String("format", string(f.Format)),
		slog.String("time", f.TimeLayout),
		slog.Bool("caller", f.Caller),
		slog.Bool("pretty", f.Pretty),
	)

	begin := time.Now()

	return func() {
		log.TraceContext(ctx, "logger stopped",
			slog.Duration("elapsed", time.Since(begin)))
	}
}

// scan applies the logger flags found in args before kong parses them, so
// that messages logged while parsing already honor the requested settings
// wherever the flags appear on the command line.
//
// The --log-level and --log-format values would also be applied by their
// UnmarshalText methods during parsing, but only once kong reaches them.
func (f *logConfig) scan(args []string) {
	for i := 0; i < len(args); i++ {
		flag, negated := strings.CutPrefix(args[i], "--no-")
		if negated {
			flag = "--" + flag
		}

		name, value, assigned := strings.Cut(flag, "=")

		switch name {
		case "--log-level", "--log-format", "--log-time":
			if negated {
				continue
			}

			// Consume the next argument as the value unless it was assigned.
			if !assigned && i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				i++
				value = args[i]
			}

			f.apply(name, value)

		case "--log-pretty", "--log-caller":
			enable := true

			if assigned {
				v, err := strconv.ParseBool(value)
				if err != nil {
					continue
				}

				enable = v
			}

			f.apply(name, strconv.FormatBool(enable != negated))
		}
	}
}

// apply sets the logger option named by flag from its command-line value.
func (f *logConfig) apply(flag, value string) {
	switch flag {
	case "--log-level":
		_ = f.Level.UnmarshalText([]byte(value))

	case "--log-format":
		_ = f.Format.UnmarshalText([]byte(value))

	case "--log-time":
		f.TimeLayout = value
		log.Config(log.WithTimeLayout(value))

	case "--log-pretty":
		f.Pretty = value == "true"
		log.Config(log.WithPretty(f.Pretty))

	case "--log-caller":
		f.Caller = value == "true"
		log.Config(log.WithCaller(f.Caller))
	}
}
