package lang

import (
	"strings"
	"testing"
	"unicode/utf8"
)

// FuzzScan tests the scanner with random inputs to find edge cases.
func FuzzScan(f *testing.F) {
	f.Add("Hello {name}!")
	f.Add("a } b")
	f.Add("{")
	f.Add("{a {b}}")
	f.Add("{#if x}y{/}")

	f.Fuzz(func(t *testing.T, input string) {
		var sb strings.Builder

		end := 0

		for span, err := range Scan(input) {
			if err != nil {
				return
			}

			if span.Offset != end {
				t.Fatalf("span at %d does not follow previous span ending at %d", span.Offset, end)
			}

			switch span.Kind {
			case SpanText:
				sb.WriteString(span.Text)
			case SpanDirective:
				sb.WriteString("{" + span.Text + "}")
			}

			end = span.End()
		}

		// Without errors, spans must cover the input exactly.
		if sb.String() != input {
			t.Errorf("spans reassemble to %q, want %q", sb.String(), input)
		}
	})
}

// FuzzIdentity checks that text without directives renders unchanged.
func FuzzIdentity(f *testing.F) {
	f.Add("")
	f.Add("plain text")
	f.Add("closing } brace\n\ttabs")

	f.Fuzz(func(t *testing.T, input string) {
		if strings.ContainsRune(input, '{') {
			t.Skip("contains a directive")
		}

		tmpl, err := ParseString(t.Context(), input)
		if err != nil {
			t.Fatalf("parse error on brace-free input %q: %v", input, err)
		}

		got, err := Evaluate(t.Context(), tmpl, nil)
		if err != nil {
			t.Fatalf("evaluate error on brace-free input %q: %v", input, err)
		}

		if got != input {
			t.Errorf("expected %q, got %q", input, got)
		}
	})
}

// FuzzParse checks that parsing never panics and that formatting a parsed
// template is stable.
func FuzzParse(f *testing.F) {
	f.Add("Hello {name}!")
	f.Add("{@keys a b}{#for x in a}{x[name]}{/}")
	f.Add("{#if a = 1}x{:else if b}y{:else}z{/}")
	f.Add(`{"s\"q" ++ -(1 + 2) * 3}`)
	f.Add("{a = b = c}")
	f.Add("{#if x}")

	f.Fuzz(func(t *testing.T, input string) {
		if !utf8.ValidString(input) {
			t.Skip("invalid UTF-8")
		}

		defer func() {
			if r := recover(); r != nil {
				t.Errorf("parser panicked on input %q: %v", input, r)
			}
		}()

		tmpl, err := ParseString(t.Context(), input)
		if err != nil {
			return
		}

		var first strings.Builder
		if err := tmpl.Format(t.Context(), &first); err != nil {
			t.Fatalf("format error: %v", err)
		}

		again, err := ParseString(t.Context(), first.String())
		if err != nil {
			t.Fatalf("formatted template %q does not parse: %v", first.String(), err)
		}

		var second strings.Builder
		if err := again.Format(t.Context(), &second); err != nil {
			t.Fatalf("format error: %v", err)
		}

		if first.String() != second.String() {
			t.Errorf("format is not stable:\nfirst:  %q\nsecond: %q", first.String(), second.String())
		}
	})
}
