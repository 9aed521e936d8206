package lang

import (
	"iter"
	"log/slog"
	"strings"
)

// SpanKind classifies a [Span].
type SpanKind int

const (
	SpanText      SpanKind = iota // text
	SpanDirective                 // directive
)

// String returns the name of the span kind.
func (k SpanKind) String() string {
	switch k {
	case SpanText:
		return "text"
	case SpanDirective:
		return "directive"
	default:
		return "unknown"
	}
}

// Span is a classified slice of template source.
//
// For [SpanText], Text is the literal text and Offset is where it begins.
// For [SpanDirective], Text is the raw content between the braces and Offset
// is the position of the opening '{'.
type Span struct {
	Text   string
	Offset int
	Kind   SpanKind
}

// End returns the offset just past the span in the source.
func (s Span) End() int {
	if s.Kind == SpanDirective {
		return s.Offset + len(s.Text) + 2
	}

	return s.Offset + len(s.Text)
}

// Scan returns a lazy sequence of the spans in src.
//
// Text outside braces is yielded verbatim, and a lone '}' in text is literal.
// Every '{' opens a directive closed by the next '}'. Directive content is not
// interpreted. An unterminated '{' or a '{' nested inside a directive yields
// an [ErrScan] located at the opening brace, after which the sequence ends.
func Scan(src string) iter.Seq2[Span, error] {
	return func(yield func(Span, error) bool) {
		s := scanner{src: src}

		for {
			span, ok, err := s.next()
			if err != nil {
				yield(Span{}, err)

				return
			}

			if !ok || !yield(span, nil) {
				return
			}
		}
	}
}

// scanner holds the cursor of a single [Scan].
type scanner struct {
	src string
	pos int
}

func (s *scanner) next() (Span, bool, error) {
	if s.pos >= len(s.src) {
		return Span{}, false, nil
	}

	start := s.pos

	if s.src[start] != '{' {
		end := strings.IndexByte(s.src[start:], '{')
		if end < 0 {
			end = len(s.src)
		} else {
			end += start
		}

		s.pos = end

		return Span{Kind: SpanText, Text: s.src[start:end], Offset: start}, true, nil
	}

	rel := strings.IndexAny(s.src[start+1:], "{}")
	if rel < 0 {
		return Span{}, false, ErrScan.WithOffset(start).
			With(slog.String("expected", "}"))
	}

	end := start + 1 + rel
	if s.src[end] == '{' {
		return Span{}, false, ErrScan.WithOffset(start).
			With(
				slog.String("expected", "}"),
				slog.Int("nested", end),
			)
	}

	s.pos = end + 1

	return Span{Kind: SpanDirective, Text: s.src[start+1 : end], Offset: start}, true, nil
}
