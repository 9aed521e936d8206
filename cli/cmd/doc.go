// Package cmd implements the brace subcommands.
//
// Every command is a kong command struct whose Run method receives the
// application context. Templates are read from the named file or from
// stdin, and results are written to stdout unless redirected with
// [WithStdio].
package cmd

var (
	// CacheIdentifier is the kong variable identifier containing the path to
	// the runtime cache directory.
	CacheIdentifier = "cache"

	// ConfigIdentifier is the kong variable identifier containing the path to
	// the YAML configuration file.
	ConfigIdentifier = "config"
)
