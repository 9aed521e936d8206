package repl

import (
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"github.com/ardnew/brace/lang"
)

// commands are the REPL commands, each entered with a leading ':'.
var commands = []string{":help", ":env", ":set", ":unset", ":clear", ":quit"}

// builtins are the functions callable from expressions.
var builtins = []string{"len"}

// directiveWords maps the sigil of an opening brace to the words that may
// follow it.
var directiveWords = map[string][]string{
	"{#": {"if", "for"},
	"{:": {"else", "else if"},
	"{@": {"keys"},
}

// isWordBoundary returns true if the rune is a word delimiter for completion
// purposes. This includes whitespace, braces, brackets, and the operator
// characters of expressions.
func isWordBoundary(r rune) bool {
	switch r {
	case ' ', '\t',
		'{', '}', '(', ')', '[', ']',
		'+', '-', '*', '/', '%',
		'<', '>', '=', '!',
		'&', '|', ',', '"',
		'#', '@', ':':
		return true
	}

	return false
}

// wordBounds returns the current word at the cursor position and its byte
// boundaries within input.
// Returns an empty word when the cursor sits on a boundary (after a space,
// after an opening bracket, start of line, etc.).
func wordBounds(input string, cursor int) (word string, start, end int) {
	cursor = max(0, min(cursor, len(input)))

	// Walk backward from cursor to find word start.
	start = cursor

	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(input[:start])
		if isWordBoundary(r) {
			break
		}

		start -= size
	}

	// Walk forward from cursor to find word end.
	end = cursor

	for end < len(input) {
		r, size := utf8.DecodeRuneInString(input[end:])
		if isWordBoundary(r) {
			break
		}

		end += size
	}

	return input[start:end], start, end
}

// indexedName returns the name of the variable indexed by the bracket that
// immediately precedes wordStart, as in "user[" followed by the word. It
// returns "" unless the bracket follows a plain identifier.
func indexedName(input string, wordStart int) string {
	prefix, ok := strings.CutSuffix(input[:wordStart], "[")
	if !ok {
		return ""
	}

	word, _, _ := wordBounds(prefix, len(prefix))

	return word
}

// loopPattern matches the header of a for directive.
var loopPattern = regexp.MustCompile(`\{#for\s+(\w+)\s+in\s+(\w+)`)

// loopVars returns the loop variables declared in input, mapped to the name
// of the collection they range over.
func loopVars(input string) map[string]string {
	vars := make(map[string]string)

	for _, m := range loopPattern.FindAllStringSubmatch(input, -1) {
		vars[m[1]] = m[2]
	}

	return vars
}

// recordKeys returns the keys of the record bound to name. Loop variables
// resolve to the first element of their collection.
func recordKeys(env *lang.Env, loops map[string]string, name string) []string {
	v, ok := env.Lookup(name)
	if !ok {
		coll, isLoop := loops[name]
		if !isLoop {
			return nil
		}

		list, ok := lookupList(env, coll)
		if !ok || len(list) == 0 {
			return nil
		}

		v = list[0]
	}

	r, ok := v.AsRecord()
	if !ok {
		return nil
	}

	return slices.Collect(r.Keys())
}

func lookupList(env *lang.Env, name string) ([]lang.Value, bool) {
	v, ok := env.Lookup(name)
	if !ok {
		return nil, false
	}

	return v.AsList()
}

// candidates returns the completions available for the word beginning at
// wordStart.
func candidates(env *lang.Env, input string, wordStart int) []string {
	prefix := input[:wordStart]

	// Command name, or the binding name argument of :set and :unset.
	if strings.HasPrefix(input, ":") {
		if wordStart <= 1 {
			return commands
		}

		fields := strings.Fields(prefix)
		if len(fields) == 1 && (fields[0] == ":set" || fields[0] == ":unset") {
			return slices.Collect(env.Names())
		}

		return nil
	}

	for sigil, words := range directiveWords {
		if strings.HasSuffix(prefix, sigil) {
			return words
		}
	}

	loops := loopVars(input)

	if name := indexedName(input, wordStart); name != "" {
		return recordKeys(env, loops, name)
	}

	// Only complete inside an open directive or interpolation.
	if strings.LastIndex(prefix, "{") <= strings.LastIndex(prefix, "}") {
		return nil
	}

	names := slices.Collect(env.Names())

	for v := range loops {
		if !slices.Contains(names, v) {
			names = append(names, v)
		}
	}

	slices.Sort(names[env.Len():])

	return append(names, builtins...)
}

// computeMatches calculates the fuzzy match results for the word at the cursor.
// It returns the matches (ranked best-first) and the word boundaries. An empty
// word matches every candidate after a bracket or directive sigil, and nothing
// elsewhere so that the hint line stays visible.
func (m model) computeMatches() (matches fuzzy.Matches, wordStart, wordEnd int) {
	input := m.input.Value()

	word, wordStart, wordEnd := wordBounds(input, m.input.Position())

	cands := candidates(m.env, input, wordStart)
	if len(cands) == 0 {
		return nil, wordStart, wordEnd
	}

	if word == "" {
		if wordStart == 0 || input[wordStart-1] == ' ' || input[wordStart-1] == '{' {
			return nil, wordStart, wordEnd
		}

		matches = make(fuzzy.Matches, len(cands))
		for i, c := range cands {
			matches[i] = fuzzy.Match{Str: c, Index: i}
		}

		return matches, wordStart, wordEnd
	}

	return fuzzy.Find(word, cands), wordStart, wordEnd
}

// renderCandidateBar builds the single-line completion bar, ellipsized to fit
// within the given terminal width. Each candidate is rendered with its matched
// characters highlighted. The selected candidate (when tabbing) uses the
// selected style.
func renderCandidateBar(
	matches fuzzy.Matches,
	suggIdx int,
	tabActive bool,
	width int,
) string {
	if len(matches) == 0 || width <= 0 {
		return ""
	}

	const sep = "  "

	sepWidth := lipgloss.Width(sep)
	ellipsis := hintStyle.Render("...")
	ellipsisWidth := lipgloss.Width(ellipsis)

	var b strings.Builder

	used := 0

	for i, match := range matches {
		rendered := renderCandidate(match, tabActive && i == suggIdx)

		entryWidth := lipgloss.Width(rendered)
		if i > 0 {
			entryWidth += sepWidth
		}

		// Check if adding this candidate would exceed width.
		if used+entryWidth+ellipsisWidth > width && i > 0 {
			b.WriteString(sep)
			b.WriteString(ellipsis)

			break
		}

		if i > 0 {
			b.WriteString(sep)
		}

		b.WriteString(rendered)

		used += entryWidth
	}

	return b.String()
}

// renderCandidate renders a single candidate with matched characters
// highlighted. Functions are displayed with a "()" suffix.
func renderCandidate(match fuzzy.Match, selected bool) string {
	baseStyle, highlightStyle := suggestionStyle, matchStyle
	if selected {
		baseStyle, highlightStyle = selectedStyle, selectedMatchStyle
	}

	var b strings.Builder

	for i, r := range match.Str {
		if slices.Contains(match.MatchedIndexes, i) {
			b.WriteString(highlightStyle.Render(string(r)))
		} else {
			b.WriteString(baseStyle.Render(string(r)))
		}
	}

	if slices.Contains(builtins, match.Str) {
		b.WriteString(baseStyle.Render("()"))
	}

	return b.String()
}
