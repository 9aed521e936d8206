package lang

import (
	"errors"
	"log/slog"
	"strconv"
	"strings"
)

// Predefined errors (sentinel values).
//
// Every error returned by this package derives from one of these, so callers
// can classify failures with [errors.Is].
var (
	ErrScan              = NewError("scan error")
	ErrParse             = NewError("parse error")
	ErrMissingKey        = NewError("missing key")
	ErrUndefinedVariable = NewError("undefined variable")
	ErrTypeMismatch      = NewError("type mismatch")
	ErrMisplacedKeys     = NewError("keys declaration is not the first directive")
	ErrDivideByZero      = NewError("division by zero")
	ErrIndexRange        = NewError("index out of range")
	ErrMaxDepth          = NewError("maximum block depth exceeded")
	ErrReadInput         = NewError("failed to read input")
)

// noOffset marks an [Error] that is not tied to a location in the source.
const noOffset = -1

// Error represents an error with optional structured logging attributes.
// It implements both error and slog.LogValuer interfaces.
type Error struct {
	base   *Error // sentinel this error derives from
	err    error  // Wrapped error (for errors.Unwrap)
	msg    string
	attrs  []slog.Attr // Attributes for structured logging
	offset int
}

// NewError creates a new sentinel Error with a message.
func NewError(msg string) *Error {
	e := &Error{msg: msg, offset: noOffset}
	e.base = e

	return e
}

// WrapError wraps a standard error into an Error.
// If err already is (or wraps) an *Error, that error is returned unchanged.
func WrapError(err error) *Error {
	var ee *Error
	if errors.As(err, &ee) {
		return ee
	}

	e := &Error{err: err, offset: noOffset}
	e.base = e

	return e
}

// Error implements the error interface.
//
// The message has the form "<msg> (<key>=<value> ...): <cause>", where each
// part is omitted when empty.
func (e *Error) Error() string {
	var sb strings.Builder

	sb.WriteString(e.msg)

	if len(e.attrs) > 0 {
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}

		sb.WriteByte('(')

		for i, a := range e.attrs {
			if i > 0 {
				sb.WriteByte(' ')
			}

			sb.WriteString(a.Key)
			sb.WriteByte('=')

			if a.Value.Kind() == slog.KindString {
				sb.WriteString(strconv.Quote(a.Value.String()))
			} else {
				sb.WriteString(a.Value.String())
			}
		}

		sb.WriteByte(')')
	}

	if e.err != nil {
		if sb.Len() > 0 {
			sb.WriteString(": ")
		}

		sb.WriteString(e.err.Error())
	}

	return sb.String()
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error { return e.err }

// Is reports whether target is the sentinel that e derives from.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || t == nil {
		return false
	}

	return e.base == t.base
}

// LogValue implements slog.LogValuer for rich structured logging.
func (e *Error) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(e.attrs)+2)

	if e.msg != "" {
		attrs = append(attrs, slog.String("error", e.msg))
	}

	if e.err != nil {
		attrs = append(attrs, slog.String("cause", e.err.Error()))
	}

	return slog.GroupValue(append(attrs, e.attrs...)...)
}

// Wrap creates a new Error wrapping another error.
func (e *Error) Wrap(err error) *Error {
	c := *e
	c.err = err

	return &c
}

// With adds attributes to the error for structured logging.
// This creates a new Error instance to maintain immutability.
func (e *Error) With(attrs ...slog.Attr) *Error {
	c := *e
	c.attrs = make([]slog.Attr, len(e.attrs)+len(attrs))
	copy(c.attrs, e.attrs)
	copy(c.attrs[len(e.attrs):], attrs)

	return &c
}

// WithOffset returns a copy of e located at the given byte offset of the
// template source.
func (e *Error) WithOffset(offset int) *Error {
	c := e.With(slog.Int("offset", offset))
	c.offset = offset

	return c
}

// Offset returns the byte offset e was reported at, if any.
func (e *Error) Offset() (int, bool) {
	return e.offset, e.offset != noOffset
}

// Attr returns the value of the attribute with the given key.
func (e *Error) Attr(key string) (slog.Value, bool) {
	for _, a := range e.attrs {
		if a.Key == key {
			return a.Value, true
		}
	}

	return slog.Value{}, false
}

// Position identifies a location in template source.
type Position struct {
	Offset int // byte offset, 0-based
	Line   int // 1-based
	Column int // 1-based, counted in runes
}

// String returns the position formatted as "line:column".
func (p Position) String() string {
	return strconv.Itoa(p.Line) + ":" + strconv.Itoa(p.Column)
}

// PositionOf converts a byte offset of src into a [Position].
// Offsets beyond the end of src are clamped.
func PositionOf(src string, offset int) Position {
	offset = max(0, min(offset, len(src)))

	pos := Position{Offset: offset, Line: 1, Column: 1}

	for _, r := range src[:offset] {
		if r == '\n' {
			pos.Line++
			pos.Column = 1
		} else {
			pos.Column++
		}
	}

	return pos
}

// Snippet renders the source line containing the error offset of err with a
// caret beneath the offending column. The empty string is returned if err
// carries no offset.
func Snippet(src string, err error) string {
	var ee *Error
	if !errors.As(err, &ee) {
		return ""
	}

	offset, ok := ee.Offset()
	if !ok {
		return ""
	}

	pos := PositionOf(src, offset)
	lines := strings.Split(src, "\n")

	if pos.Line > len(lines) {
		return ""
	}

	var sb strings.Builder

	num := strconv.Itoa(pos.Line)

	sb.WriteString("  ")
	sb.WriteString(num)
	sb.WriteString(" | ")
	sb.WriteString(lines[pos.Line-1])
	sb.WriteByte('\n')

	// 2 leading spaces + " | " (3 chars)
	sb.WriteString(strings.Repeat(" ", len(num)+5+pos.Column-1))
	sb.WriteString("^\n")

	return sb.String()
}
