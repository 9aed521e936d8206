package cmd

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/ardnew/brace/lang"
	"github.com/ardnew/brace/log"
)

// ContextKey is used to store a [kong.Context] value in [context.Context].
type contextKey struct{}

// WithContext returns a new context.Context containing the given kong.Context.
func WithContext(ctx context.Context, ktx *kong.Context) context.Context {
	return context.WithValue(ctx, contextKey{}, ktx)
}

func kongContextFrom(ctx context.Context) *kong.Context {
	ktx, ok := ctx.Value(contextKey{}).(*kong.Context)
	if !ok || ktx == nil {
		return nil
	}

	return ktx
}

type stdioKey struct{}

type stdio struct {
	in  io.Reader
	out io.Writer
}

// WithStdio returns a new context.Context whose commands read templates from
// in and write results to out instead of [os.Stdin] and [os.Stdout].
func WithStdio(ctx context.Context, in io.Reader, out io.Writer) context.Context {
	return context.WithValue(ctx, stdioKey{}, stdio{in: in, out: out})
}

func stdinFrom(ctx context.Context) io.Reader {
	if s, ok := ctx.Value(stdioKey{}).(stdio); ok && s.in != nil {
		return s.in
	}

	return os.Stdin
}

func stdoutFrom(ctx context.Context) io.Writer {
	if s, ok := ctx.Value(stdioKey{}).(stdio); ok && s.out != nil {
		return s.out
	}

	return os.Stdout
}

// stdinSource is the special source indicator for reading from stdin.
const stdinSource = "-"

// stdinName is the name reported for templates read from stdin.
const stdinName = "<stdin>"

// Source is a template file opened for reading.
type Source struct {
	Name string
	io.Reader

	close func() error
}

// Close releases the underlying file, if any.
func (s Source) Close() error {
	if s.close == nil {
		return nil
	}

	return s.close()
}

// openSource opens the template at path. Both "-" and the empty path read
// stdin, but the empty path is only accepted when stdin is not a terminal.
func openSource(ctx context.Context, path string) (Source, error) {
	switch path {
	case stdinSource:
		return Source{Name: stdinName, Reader: stdinFrom(ctx)}, nil

	case "":
		in := stdinFrom(ctx)
		if isTerminal(in) {
			return Source{}, ErrNoTemplate
		}

		return Source{Name: stdinName, Reader: in}, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return Source{}, ErrOpenTemplate.
			With(slog.String("file", path)).
			Wrap(err)
	}

	return Source{Name: path, Reader: file, close: file.Close}, nil
}

// isTerminal reports whether r is a character device, such as an interactive
// terminal.
func isTerminal(r io.Reader) bool {
	file, ok := r.(*os.File)
	if !ok {
		return false
	}

	info, err := file.Stat()
	if err != nil {
		return false
	}

	return info.Mode()&os.ModeCharDevice != 0
}

// fileKey uniquely identifies a file by its device and inode numbers.
// This handles deduplication across symlinks, absolute/relative paths, and
// special device files.
type fileKey struct {
	dev uint64
	ino uint64
}

// uniquePaths returns paths without the entries that name a file already
// listed, comparing resolved device/inode pairs. All occurrences of "-" are
// replaced with a single stdin entry placed last. Paths that cannot be
// resolved are kept so that opening them reports the error.
func uniquePaths(paths []string) []string {
	var (
		unique   = make([]string, 0, len(paths))
		seen     = make(map[fileKey]struct{})
		hasStdin bool
	)

	stdinInfo, _ := os.Stdin.Stat()
	stdinKey, stdinOK := makeFileKey(stdinInfo)

	for _, path := range paths {
		if path == stdinSource {
			hasStdin = true

			continue
		}

		key, ok := resolveFileKey(path)
		if !ok {
			unique = append(unique, path)

			continue
		}

		if stdinOK && key == stdinKey {
			hasStdin = true

			continue
		}

		if _, exists := seen[key]; exists {
			continue
		}

		seen[key] = struct{}{}
		unique = append(unique, path)
	}

	if hasStdin {
		unique = append(unique, stdinSource)
	}

	return unique
}

// resolveFileKey resolves symlinks in path and returns its device/inode pair.
func resolveFileKey(path string) (fileKey, bool) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fileKey{}, false
	}

	resolved, err := filepath.EvalSymlinks(absPath)
	if err != nil {
		return fileKey{}, false
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return fileKey{}, false
	}

	return makeFileKey(info)
}

// makeFileKey creates a fileKey from os.FileInfo.
// Returns false if the underlying Sys() data is not of type *syscall.Stat_t.
func makeFileKey(info os.FileInfo) (key fileKey, ok bool) {
	if info == nil {
		return key, false
	}

	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return key, false
	}

	return fileKey{dev: uint64(stat.Dev), ino: stat.Ino}, true //nolint:unconvert
}

// compile parses the template read from src through the shared compile cache,
// so identical templates given to one command are parsed once. The text read
// is returned even when parsing fails, so that errors can be shown in context.
func compile(ctx context.Context, src Source, opts ...lang.Option) (*lang.Template, string, error) {
	var text strings.Builder

	opts = append([]lang.Option{lang.WithLogger(log.Default())}, opts...)

	tmpl, err := lang.CompileReader(ctx, io.TeeReader(src, &text), opts...)
	if err != nil {
		return nil, text.String(), located(err, src.Name, text.String())
	}

	return tmpl, tmpl.Source, nil
}

// located annotates err with the template name and, when err carries an
// offset, the line and column it refers to.
func located(err error, name, text string) *lang.Error {
	e := lang.WrapError(err).With(slog.String("template", name))

	if offset, ok := e.Offset(); ok {
		e = e.With(slog.String("at", lang.PositionOf(text, offset).String()))
	}

	return e
}
