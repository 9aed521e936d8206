package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ardnew/brace/lang"
)

// Keys lists the keys a template declares with its keys directive.
type Keys struct {
	Template string `arg:"" help:"Template file or '-' for stdin (default: piped stdin)." name:"template" optional:""`
}

// Run executes the keys command.
func (k *Keys) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	src, err := openSource(ctx, k.Template)
	if err != nil {
		return err
	}
	defer src.Close()

	tmpl, _, err := compile(ctx, src)
	if err != nil {
		return lang.WrapError(err).With(slog.String("command", "keys"))
	}

	out := stdoutFrom(ctx)

	for _, key := range tmpl.Keys() {
		if _, err := fmt.Fprintln(out, key); err != nil {
			return ErrWriteOutput.Wrap(err)
		}
	}

	return nil
}
