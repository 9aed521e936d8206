package repl

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ardnew/brace/lang"
	"github.com/ardnew/brace/log"
)

const prompt = "➜ "

func helpMessage() string {
	return `
Commands:

  :help            Print this cruft
  :env             List the environment bindings
  :set key=value   Bind key to value
  :unset key       Remove the binding of key
  :clear           Clear screen
  :quit            Exit REPL (also :q)

Usage:
  Type a template to render it against the environment, e.g. {name}
  Completions appear automatically inside braces
  Press Tab / Shift-Tab to cycle through candidates
  Press Space to accept the current candidate
  Press Esc to abandon the current candidates
  Use Up/Down arrows for history navigation
  Press Ctrl+C on empty line or Ctrl+D to exit
`
}

// Styles.
var (
	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("6")).
			Bold(true)
	inputStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	resultStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	errorStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	hintStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	suggestionStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	matchStyle         = suggestionStyle.Bold(true).Underline(true)
	selectedStyle      = lipgloss.NewStyle().
				Foreground(lipgloss.Color("0")).
				Background(lipgloss.Color("4"))
	selectedMatchStyle = selectedStyle.Bold(true).Underline(true)
)

// formatCommand formats the command echo line with prompt and input styled.
func formatCommand(input string) string {
	return promptStyle.Render(prompt) + inputStyle.Render(input)
}

// Binder decodes a "key=value" pair into a binding.
type Binder func(pair string) (string, lang.Value, error)

// Config configures a REPL session.
type Config struct {
	// Env is the environment templates are rendered against. It is modified by
	// :set and :unset. A nil Env starts empty.
	Env *lang.Env
	// HistoryPath is the file used to persist input history. History is kept
	// in memory only when empty.
	HistoryPath string
	// MaxDepth limits the nesting of block directives. Values below 1 use the
	// default.
	MaxDepth int
	// Bind decodes the argument of :set.
	Bind   Binder
	Logger log.Logger
}

// model is the Bubble Tea model for the REPL.
type model struct {
	ctxFunc      func() context.Context
	input        textinput.Model
	env          *lang.Env
	bind         Binder
	maxDepth     int
	logger       log.Logger
	history      *History
	historyIdx   int
	matches      fuzzy.Matches // current fuzzy match results
	wordStart    int           // byte offset of current word start
	wordEnd      int           // byte offset of current word end
	suggIdx      int           // selected candidate index
	tabActive    bool          // whether user is tab-cycling
	preTabText   string        // input text before tab-cycling began
	preTabCursor int           // cursor position before tab-cycling began
	width        int           // terminal width for ellipsization
	quitting     bool
}

// Run starts an interactive session rendering each entered line as a
// template.
func Run(ctx context.Context, cfg Config) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	cfg.Logger.TraceContext(
		ctx,
		"repl start",
		slog.String("history", cfg.HistoryPath),
		slog.Int("env_len", cfg.Env.Len()),
	)

	history := NewHistory(cfg.HistoryPath)
	if err := history.Load(); err != nil {
		cfg.Logger.WarnContext(ctx, "could not load history",
			slog.String("path", cfg.HistoryPath),
			slog.Any("error", err))
	}

	cfg.Logger.TraceContext(
		ctx,
		"repl history loaded",
		slog.Int("entry_count", history.Len()),
	)

	m := newModel(ctx, cfg, history)

	p := tea.NewProgram(m, tea.WithContext(ctx))
	_, err = p.Run()

	return err
}

const defaultWidth = 80

func newModel(ctx context.Context, cfg Config, history *History) model {
	ti := textinput.New()
	ti.Prompt = promptStyle.Render(prompt)
	ti.Focus()
	ti.CharLimit = 4096
	ti.Width = defaultWidth

	env := cfg.Env
	if env == nil {
		env = lang.NewEnv()
	}

	return model{
		ctxFunc:    func() context.Context { return ctx },
		input:      ti,
		env:        env,
		bind:       cfg.Bind,
		maxDepth:   cfg.MaxDepth,
		logger:     cfg.Logger,
		history:    history,
		historyIdx: history.Len(),
		suggIdx:    -1,
		width:      defaultWidth,
	}
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = msg.Width - len(prompt) - 2

		return m, nil
	}

	var cmd tea.Cmd

	m.input, cmd = m.input.Update(msg)

	return m, cmd
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	// Input line.
	b.WriteString(m.input.View())
	b.WriteString("\n")

	switch input := m.input.Value(); {
	case m.historyIdx < m.history.Len():
		// 1-based history position
		hint := fmt.Sprintf("%s/%d",
			lipgloss.NewStyle().Bold(true).Render(strconv.Itoa(m.historyIdx+1)),
			m.history.Len())
		b.WriteString(hintStyle.Render(hint))

	case strings.TrimSpace(input) == "":
		b.WriteString(hintStyle.Render("Type a template or :help for commands"))

	case len(m.matches) > 0:
		b.WriteString(renderCandidateBar(m.matches, m.suggIdx, m.tabActive, m.width))
	}

	b.WriteString("\n")

	return b.String()
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	m.logger.TraceContext(
		m.ctxFunc(),
		"repl keypress",
		slog.String("key", msg.String()),
		slog.Int("type", int(msg.Type)),
	)

	switch msg.Type {
	case tea.KeyCtrlC:
		if m.input.Value() == "" {
			m.quitting = true

			return m, tea.Quit
		}

		m.input.SetValue("")
		m.tabActive = false
		m.historyIdx = m.history.Len()
		refreshMatches(&m, false)

		return m, nil

	case tea.KeyCtrlD:
		if m.input.Value() == "" {
			m.quitting = true

			return m, tea.Quit
		}

		return m, nil

	case tea.KeyEnter:
		if !m.tabActive || len(m.matches) == 0 {
			return m.executeInput()
		}
		// Lock in the current tab candidate without executing.
		m.tabActive = false
		refreshMatches(&m, true)

		return m, nil

	case tea.KeyTab:
		return m.cycle(1)

	case tea.KeyShiftTab:
		return m.cycle(-1)

	case tea.KeyUp:
		return m.historyPrev()

	case tea.KeyDown:
		return m.historyNext()

	case tea.KeyEsc:
		if m.tabActive {
			m.tabActive = false
			m.input.SetValue(m.preTabText)
			m.input.SetCursor(m.preTabCursor)
		}

		m.matches = nil
		m.suggIdx = -1

		return m, nil

	case tea.KeyRunes, tea.KeySpace:
		// Space breaks tab-cycling and keeps the current candidate.
		if m.tabActive && msg.String() == " " {
			m.tabActive = false
		}

		var cmd tea.Cmd

		m.historyIdx = m.history.Len()
		m.input, cmd = m.input.Update(msg)
		refreshMatches(&m, true)

		return m, cmd
	}

	// For any other key (backspace, delete, arrows, etc.),
	// update input and recompute matches without auto-confirm.
	var cmd tea.Cmd

	m.tabActive = false
	m.historyIdx = m.history.Len()
	m.input, cmd = m.input.Update(msg)
	refreshMatches(&m, false)

	return m, cmd
}

// cycle selects the next candidate in direction step (1 or -1), wrapping at
// either end. A sole candidate is completed immediately.
func (m model) cycle(step int) (model, tea.Cmd) {
	if len(m.matches) == 0 {
		return m, nil
	}

	if len(m.matches) == 1 {
		replaceCurrentWord(&m, m.matches[0].Str)
		m.tabActive = false
		m.suggIdx = -1
		m.matches = nil

		return m, nil
	}

	if m.tabActive {
		m.suggIdx = (m.suggIdx + step + len(m.matches)) % len(m.matches)
	} else {
		m.tabActive = true
		m.preTabText = m.input.Value()
		m.preTabCursor = m.input.Position()

		m.suggIdx = 0
		if step < 0 {
			m.suggIdx = len(m.matches) - 1
		}
	}

	replaceCurrentWord(&m, m.matches[m.suggIdx].Str)

	return m, nil
}

// replaceCurrentWord replaces the current word boundaries in the input with
// the given replacement text and repositions the cursor.
func replaceCurrentWord(m *model, replacement string) {
	input := m.input.Value()
	newInput := input[:m.wordStart] + replacement + input[m.wordEnd:]
	newCursor := m.wordStart + len(replacement)

	m.input.SetValue(newInput)
	m.input.SetCursor(newCursor)

	m.wordEnd = newCursor
}

// refreshMatches recomputes fuzzy matches for the current input state.
// When autoConfirm is true it also drops the candidates when exactly one
// remains and the typed word already equals it.
// autoConfirm should be false for deletions and cursor navigation so that
// the user can freely edit without unexpected completions.
func refreshMatches(m *model, autoConfirm bool) {
	m.matches, m.wordStart, m.wordEnd = m.computeMatches()

	if !m.tabActive {
		m.suggIdx = -1
	}

	if !autoConfirm || len(m.matches) != 1 {
		return
	}

	if m.input.Value()[m.wordStart:m.wordEnd] == m.matches[0].Str {
		m.tabActive = false
		m.suggIdx = -1
		m.matches = nil
	}
}

func (m model) executeInput() (model, tea.Cmd) {
	input := strings.TrimSpace(m.input.Value())
	if input == "" {
		return m, nil
	}

	m.input.SetValue("")
	m.matches = nil

	if err := m.history.Add(input); err != nil {
		m.logger.WarnContext(m.ctxFunc(), "could not save history",
			slog.Any("error", err))
	}

	m.historyIdx = m.history.Len()

	echoCmd := tea.Println(formatCommand(input))

	if strings.HasPrefix(input, ":") {
		m.logger.TraceContext(m.ctxFunc(), "repl command",
			slog.String("input", input))

		res := m.command(input)

		switch {
		case res.quit:
			m.quitting = true

			return m, tea.Sequence(echoCmd, tea.Quit)

		case res.clear:
			return m, tea.ClearScreen

		case res.err != nil:
			return m, tea.Sequence(echoCmd, tea.Println(errorStyle.Render(res.err.Error())))
		}

		return m, tea.Sequence(echoCmd, tea.Println(res.output))
	}

	m.logger.TraceContext(m.ctxFunc(), "repl eval",
		slog.String("input", input))

	out, err := m.evaluate(input)
	if err != nil {
		m.logger.TraceContext(m.ctxFunc(), "repl eval result",
			slog.String("error", err.Error()))

		msg := errorStyle.Render("error: " + err.Error())
		if snip := lang.Snippet(input, err); snip != "" {
			msg += "\n" + hintStyle.Render(strings.TrimRight(snip, "\n"))
		}

		return m, tea.Sequence(echoCmd, tea.Println(msg))
	}

	if out == "" {
		return m, tea.Sequence(echoCmd, tea.Println(hintStyle.Render("(empty)")))
	}

	return m, tea.Sequence(echoCmd, tea.Println(resultStyle.Render(out)))
}

// evaluate parses input as a template and renders it against the session
// environment. Keys declared by the template must be bound.
func (m model) evaluate(input string) (string, error) {
	tmpl, err := m.compile(input)
	if err != nil {
		return "", err
	}

	return lang.Evaluate(m.ctxFunc(), tmpl, m.env)
}

// compile parses input without the shared compile cache, which would retain
// every distinct line entered during the session.
func (m model) compile(input string) (*lang.Template, error) {
	return lang.Parse(m.ctxFunc(), input,
		lang.WithLogger(m.logger),
		lang.WithMaxDepth(m.maxDepth))
}

// result is the outcome of a REPL command.
type result struct {
	output string
	err    error
	quit   bool
	clear  bool
}

// command executes a ':' command line.
func (m model) command(input string) result {
	name, arg, _ := strings.Cut(strings.TrimSpace(input), " ")
	arg = strings.TrimSpace(arg)

	m.logger.TraceContext(
		m.ctxFunc(),
		"repl exec command",
		slog.String("command", name),
		slog.String("arg", arg),
	)

	switch name {
	case ":q", ":quit", ":exit":
		return result{quit: true}

	case ":h", ":help":
		return result{output: helpMessage()}

	case ":env":
		return result{output: m.listEnv()}

	case ":clear":
		return result{clear: true}

	case ":set":
		if m.bind == nil {
			return result{err: ErrNoBinder}
		}

		key, v, err := m.bind(arg)
		if err != nil {
			return result{err: err}
		}

		m.env.Set(key, v)

		return result{output: hintStyle.Render(key + " = " + v.String())}

	case ":unset":
		if arg == "" || !m.env.Has(arg) {
			return result{err: lang.ErrUndefinedVariable.With(slog.String("name", arg))}
		}

		m.env.Unset(arg)

		return result{output: hintStyle.Render("unset " + arg)}
	}

	return result{err: ErrUnknownCommand.With(slog.String("command", name))}
}

func (m model) listEnv() string {
	if m.env.Len() == 0 {
		return hintStyle.Render("(empty)")
	}

	var b strings.Builder

	for name, v := range m.env.Local() {
		fmt.Fprintf(&b, "  %s %s\n", name, hintStyle.Render(v.String()))
	}

	return strings.TrimSuffix(b.String(), "\n")
}

func (m model) historyPrev() (model, tea.Cmd) {
	if m.historyIdx > 0 {
		m.historyIdx--
		m.recall()
	}

	return m, nil
}

func (m model) historyNext() (model, tea.Cmd) {
	if m.historyIdx < m.history.Len()-1 {
		m.historyIdx++
		m.recall()

		return m, nil
	}

	m.historyIdx = m.history.Len()
	m.input.SetValue("")
	refreshMatches(&m, false)

	return m, nil
}

// recall loads the history entry at historyIdx into the input.
func (m *model) recall() {
	entry, err := m.history.Entry(m.historyIdx)
	if err != nil {
		return
	}

	m.input.SetValue(entry)
	m.input.SetCursor(len(entry))
	refreshMatches(m, false)
}
