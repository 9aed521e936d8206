package log

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// palette holds the styles of the pretty text handler. Styles are bound to a
// renderer for the handler's output, so colors are only emitted when that
// output is a color terminal.
type palette struct {
	time, source, msg, key lipgloss.Style
	text, number, boolean  lipgloss.Style
	fault                  lipgloss.Style
	trace, debug, info     lipgloss.Style
	warn, error            lipgloss.Style
}

func newPalette(w io.Writer) *palette {
	r := lipgloss.NewRenderer(w)

	return &palette{
		time:    r.NewStyle().Faint(true),
		source:  r.NewStyle().Faint(true).Italic(true),
		msg:     r.NewStyle().Bold(true),
		key:     r.NewStyle().Foreground(lipgloss.Color("8")),
		text:    r.NewStyle().Foreground(lipgloss.Color("6")),
		number:  r.NewStyle().Foreground(lipgloss.Color("3")),
		boolean: r.NewStyle().Foreground(lipgloss.Color("2")),
		fault:   r.NewStyle().Foreground(lipgloss.Color("1")),
		trace:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("5")),
		debug:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("4")),
		info:    r.NewStyle().Bold(true).Foreground(lipgloss.Color("2")),
		warn:    r.NewStyle().Bold(true).Foreground(lipgloss.Color("3")),
		error:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("1")),
	}
}

func (p *palette) level(l slog.Level) lipgloss.Style {
	switch {
	case l >= slog.LevelError:
		return p.error
	case l >= slog.LevelWarn:
		return p.warn
	case l >= slog.LevelInfo:
		return p.info
	case l >= slog.LevelDebug:
		return p.debug
	default:
		return p.trace
	}
}

// prettyHandler writes one line per record:
//
//	TIME LEVEL [file:line] message key=value group.key=value ...
type prettyHandler struct {
	opts    slog.HandlerOptions
	palette *palette
	mu      *sync.Mutex
	w       io.Writer
	groups  []string
	pre     []byte // attributes added by WithAttrs, already formatted
}

func newPrettyHandler(w io.Writer, opts *slog.HandlerOptions) *prettyHandler {
	h := &prettyHandler{
		palette: newPalette(w),
		mu:      &sync.Mutex{},
		w:       w,
	}

	if opts != nil {
		h.opts = *opts
	}

	return h
}

func (h *prettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	minLevel := slog.LevelInfo
	if h.opts.Level != nil {
		minLevel = h.opts.Level.Level()
	}

	return level >= minLevel
}

func (h *prettyHandler) Handle(_ context.Context, r slog.Record) error {
	var buf bytes.Buffer

	if !r.Time.IsZero() {
		if a := h.replace(nil, slog.Time(slog.TimeKey, r.Time)); a.Key != "" {
			buf.WriteString(h.palette.time.Render(formatValue(a.Value)))
			buf.WriteByte(' ')
		}
	}

	level := h.replace(nil, slog.Any(slog.LevelKey, r.Level))
	name := formatValue(level.Value)
	buf.WriteString(h.palette.level(r.Level).Render(name))
	buf.WriteString(strings.Repeat(" ", max(0, 5-len(name))))

	if h.opts.AddSource {
		if src := r.Source(); src != nil {
			buf.WriteByte(' ')
			buf.WriteString(h.palette.source.Render(
				filepath.Base(src.File) + ":" + strconv.Itoa(src.Line)))
		}
	}

	buf.WriteByte(' ')
	buf.WriteString(h.palette.msg.Render(r.Message))
	buf.Write(h.pre)

	r.Attrs(func(a slog.Attr) bool {
		h.appendAttr(&buf, h.groups, a)

		return true
	})

	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()

	_, err := h.w.Write(buf.Bytes())

	return err
}

func (h *prettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}

	c := *h

	buf := bytes.NewBuffer(cloneGrow(h.pre))
	for _, a := range attrs {
		h.appendAttr(buf, h.groups, a)
	}

	c.pre = buf.Bytes()

	return &c
}

func (h *prettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}

	c := *h
	c.groups = append(h.groups[:len(h.groups):len(h.groups)], name)

	return &c
}

func (h *prettyHandler) replace(groups []string, a slog.Attr) slog.Attr {
	if h.opts.ReplaceAttr == nil {
		return a
	}

	return h.opts.ReplaceAttr(groups, a)
}

func (h *prettyHandler) appendAttr(buf *bytes.Buffer, groups []string, a slog.Attr) {
	a.Value = a.Value.Resolve()

	if a.Value.Kind() != slog.KindGroup {
		a = h.replace(groups, a)
		a.Value = a.Value.Resolve()
	}

	if a.Equal(slog.Attr{}) {
		return
	}

	if a.Value.Kind() == slog.KindGroup {
		if a.Key != "" {
			groups = append(groups[:len(groups):len(groups)], a.Key)
		}

		for _, ga := range a.Value.Group() {
			h.appendAttr(buf, groups, ga)
		}

		return
	}

	key := a.Key
	if len(groups) > 0 {
		key = strings.Join(groups, ".") + "." + key
	}

	buf.WriteByte(' ')
	buf.WriteString(h.palette.key.Render(key))
	buf.WriteByte('=')
	buf.WriteString(h.styleOf(a.Value).Render(formatValue(a.Value)))
}

func (h *prettyHandler) styleOf(v slog.Value) lipgloss.Style {
	switch v.Kind() {
	case slog.KindInt64, slog.KindUint64, slog.KindFloat64, slog.KindDuration:
		return h.palette.number
	case slog.KindBool:
		return h.palette.boolean
	case slog.KindTime:
		return h.palette.time
	case slog.KindAny:
		if _, ok := v.Any().(error); ok {
			return h.palette.fault
		}
	}

	return h.palette.text
}

// formatValue renders v without the quoting of the standard text handler.
func formatValue(v slog.Value) string {
	switch v.Kind() {
	case slog.KindFloat64:
		return strconv.FormatFloat(v.Float64(), 'g', -1, 64)
	case slog.KindTime:
		return v.Time().Format(time.RFC3339)
	default:
		return v.String()
	}
}

// cloneGrow returns a copy of b with room to grow, so appending to a derived
// handler never writes into the buffer of its parent.
func cloneGrow(b []byte) []byte {
	return append(make([]byte, 0, len(b)+64), b...)
}

// indentWriter re-indents each JSON document written to it. The slog JSON
// handler writes exactly one newline-terminated object per call.
type indentWriter struct {
	w io.Writer
}

func (iw *indentWriter) Write(p []byte) (int, error) {
	var buf bytes.Buffer

	if err := json.Indent(&buf, bytes.TrimRight(p, "\n"), "", "  "); err != nil {
		return iw.w.Write(p)
	}

	buf.WriteByte('\n')

	if _, err := iw.w.Write(buf.Bytes()); err != nil {
		return 0, err
	}

	return len(p), nil
}
