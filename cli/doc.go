// Package cli contains the command line interface for brace.
//
// # Usage
//
// Render a template with bindings from the command line and env files:
//
//	brace -i name=World greeting.tmpl
//	brace render -e users.yaml -i title=Staff report.tmpl -o report.txt
//	echo 'Hello {name}!' | brace -i name=World
//
// Other commands check templates, list their declared keys, reformat them,
// start an interactive session, or write the configuration file:
//
//	brace check --strict *.tmpl
//	brace keys report.tmpl
//	brace fmt json -n 4 report.tmpl
//	brace repl -e users.yaml
//	brace init --force
//
// # Configuration
//
// Flag defaults are read from a YAML file in the user configuration
// directory (e.g., ~/.config/brace/config.yaml). Keys are flag names using
// hyphens or underscores, and nested mappings join their keys with a hyphen:
//
//	log:
//	  level: debug
//	  format: text
//	max-depth: 32
//
// Command-line flags override config file values. The init command writes
// the current flag values to this file.
//
// # Logging Options
//
//   - --log-level: Set minimum log level (trace, debug, info, warn, error)
//   - --log-format: Set log output format (json, text)
//   - --log-time: Set timestamp format (RFC3339, RFC3339Nano, none, etc.)
//   - --log-caller: Include caller information in log output
//   - --log-pretty: Colorize text or indent JSON log output
//
// Log messages are written to stderr.
//
// # Profiling Options
//
// Profiling is only available when built with the pprof build tag:
//
//	go build -tags pprof -o brace .
//
//   - --pprof-mode: Enable profiling (allocs, block, clock, cpu, goroutine,
//     heap, mem, mutex, thread, trace)
//   - --pprof-dir: Set profile output directory (default: ~/.cache/brace/pprof)
package cli
