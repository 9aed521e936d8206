package cmd

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/ardnew/brace/lang"
	"github.com/ardnew/brace/log"
)

// defaultFileMode is the permission mode for files written by commands.
const defaultFileMode os.FileMode = 0o644

// Render renders a template with the environment given by flags.
type Render struct {
	Env EnvFlags `embed:""`

	Output   string `help:"Write rendered text to FILE instead of stdout." placeholder:"FILE" short:"o" type:"path"`
	MaxDepth int    `default:"${maxDepth}" help:"Maximum nesting depth of block directives."`

	Template string `arg:"" help:"Template file or '-' for stdin (default: piped stdin)." name:"template" optional:""`
}

// Run executes the render command.
func (r *Render) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	src, err := openSource(ctx, r.Template)
	if err != nil {
		return err
	}
	defer src.Close()

	env, err := r.Env.Load(ctx)
	if err != nil {
		return lang.WrapError(err).With(slog.String("command", "render"))
	}

	tmpl, text, err := compile(ctx, src, lang.WithMaxDepth(r.MaxDepth))
	if err != nil {
		return lang.WrapError(err).With(slog.String("command", "render"))
	}

	// Rendering completes before anything is written, so a failed render
	// never truncates the output file.
	out, err := lang.Evaluate(ctx, tmpl, env)
	if err != nil {
		return located(err, src.Name, text).With(slog.String("command", "render"))
	}

	if err := r.write(ctx, out); err != nil {
		return err
	}

	log.DebugContext(ctx, "rendered",
		slog.String("template", src.Name),
		slog.Int("bytes", len(out)))

	return nil
}

func (r *Render) write(ctx context.Context, out string) error {
	if r.Output == "" {
		if _, err := io.WriteString(stdoutFrom(ctx), out); err != nil {
			return ErrWriteOutput.Wrap(err)
		}

		return nil
	}

	if err := os.WriteFile(r.Output, []byte(out), defaultFileMode); err != nil {
		return ErrWriteOutput.With(slog.String("file", r.Output)).Wrap(err)
	}

	return nil
}
