package cmd

import "github.com/ardnew/brace/lang"

// Errors reported by commands. Each is a [lang.Error] sentinel, so command
// failures carry structured attributes the same way template errors do.
var (
	ErrNoTemplate   = lang.NewError("no template given and stdin is a terminal")
	ErrOpenTemplate = lang.NewError("open template")
	ErrEnvFile      = lang.NewError("load env file")
	ErrInput        = lang.NewError("invalid input binding")
	ErrWriteOutput  = lang.NewError("write output")
	ErrCheckFailed  = lang.NewError("check failed")
	ErrWriteConfig  = lang.NewError("write configuration file")
	ErrFileExists   = lang.NewError("file exists (use --force to overwrite)")
)
