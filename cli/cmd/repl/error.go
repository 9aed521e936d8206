package repl

import "github.com/ardnew/brace/lang"

// Sentinel errors.
var (
	ErrOutOfBounds    = lang.NewError("index out of range")
	ErrNoBinder       = lang.NewError("no binding decoder")
	ErrUnknownCommand = lang.NewError("unknown command (try :help)")
)
