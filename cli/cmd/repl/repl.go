package repl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ardnew/flk/lang"
	"github.com/ardnew/flk/log"
)

// editDoneMsg is sent when an edit replaced the source file.
type editDoneMsg struct{ parser *lang.Parser }

// editCancelledMsg is sent when the user declined to re-edit after a parse
// error.
type editCancelledMsg struct{}

// editErrorMsg is sent when the edit process fails for any other reason.
type editErrorMsg struct{ err error }

const (
	evalPrompt = "➜ "
	ctrlPrompt = " :"
)

func helpMessage() string {
	return `
: Commands (press Esc to toggle mode):

  help                  Print this cruft
  list                  List variables in declaration order
  consts                List constants
  get NAME              Print the declaration of NAME
  set NAME VALUE        Rewrite the value of NAME wherever it is declared
  new NAME TYPE VALUE   Append a declaration to the source file
  rm NAME               Remove the declarations of NAME from the source file
  edit                  Edit the source file in $EDITOR
  reload                Parse the source file again
  clear                 Clear screen
  quit                  Exit REPL

Usage:
  Type a value to evaluate it against the namespace, e.g. $port * 2
  Prefix a type to choose how it is read, e.g. (float) $port / 3
  Type $ to complete variable names and $name. to complete dict keys
  Press Tab / Shift-Tab to cycle through candidates
  Press Esc to toggle between eval and command modes
  Use Up/Down arrows to recall earlier input of the current mode
  Press Ctrl+C on empty line or Ctrl+D to exit`
}

// inputMode selects whether input is evaluated or run as a command.
type inputMode int

const (
	modeEval inputMode = iota
	modeCtrl
)

// Styles.
var (
	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("6")).
			Bold(true)
	ctrlPromptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("5")).
			Bold(true)
	inputStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	resultStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	hintStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	suggestionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	selectedStyle   = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("4"))
)

func formatCommand(input string) string {
	return promptStyle.Render(evalPrompt) + inputStyle.Render(input)
}

func formatCtrlCommand(input string) string {
	return ctrlPromptStyle.Render(ctrlPrompt) + inputStyle.Render(input)
}

// model is the shell's bubbletea state.
type model struct {
	ctxFunc    func() context.Context
	input      textinput.Model
	file       string
	newParser  func() *lang.Parser
	parser     *lang.Parser
	logger     log.Logger
	history    *History
	historyIdx int
	mode       inputMode
	width      int // Terminal width for ellipsizing
	quitting   bool

	// Completion state.
	matches    fuzzy.Matches
	candidates []string
	wordStart  int // Byte offsets of the word under the cursor
	wordEnd    int
	suggIdx    int // Selected candidate, or -1
	tabActive  bool
	preTab     string // Input before tab cycling began
	preTabPos  int
}

// Run parses file and starts an interactive session over its namespace.
// History is kept in cacheDir; an empty cacheDir keeps it in memory.
func Run(
	ctx context.Context,
	file string,
	cacheDir string,
	logger log.Logger,
	opts ...lang.Option,
) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	logger.TraceContext(
		ctx,
		"repl start",
		slog.String("file", file),
		slog.String("cache_dir", cacheDir),
	)

	if file == "" {
		return ErrNoSource
	}

	newParser := func() *lang.Parser {
		return lang.NewParser(append([]lang.Option{lang.WithLogger(logger)}, opts...)...)
	}

	p := newParser()
	if _, err := p.ParseFile(ctx, file); err != nil {
		return err
	}

	logger.TraceContext(
		ctx,
		"repl source loaded",
		slog.Int("variables", len(p.Values())),
		slog.Int("files", len(p.Files())),
	)

	historyPath := ""
	if cacheDir != "" {
		historyPath = filepath.Join(cacheDir, baseHistory)
	}

	history := NewHistory(historyPath)
	if err := history.Load(); err != nil {
		logger.WarnContext(ctx, "could not load history",
			slog.String("path", historyPath),
			slog.Any("error", err))
	}

	logger.TraceContext(
		ctx,
		"repl history loaded",
		slog.Int("entry_count", history.Len()),
	)

	m := newModel(ctx, file, newParser, p, history, logger)

	_, err = tea.NewProgram(m, tea.WithContext(ctx)).Run()

	return err
}

const defaultWidth = 80

func newModel(
	ctx context.Context,
	file string,
	newParser func() *lang.Parser,
	p *lang.Parser,
	history *History,
	logger log.Logger,
) model {
	ti := textinput.New()
	ti.Prompt = promptStyle.Render(evalPrompt)
	ti.Focus()
	ti.CharLimit = 1024
	ti.Width = defaultWidth

	return model{
		ctxFunc:    func() context.Context { return ctx },
		input:      ti,
		file:       file,
		newParser:  newParser,
		parser:     p,
		logger:     logger,
		history:    history,
		historyIdx: history.Len(),
		width:      defaultWidth,
		mode:       modeEval,
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
		m.input.Width = msg.Width - len(evalPrompt) - 2

		return m, nil

	case editDoneMsg:
		m.parser = msg.parser
		m.logger.TraceContext(
			m.ctxFunc(),
			"repl edit complete",
			slog.Int("variables", len(m.parser.Values())),
		)

		return m, tea.Println(resultStyle.Render("✔ source updated"))

	case editCancelledMsg:
		return m, tea.Println(hintStyle.Render("🗴 edit discarded"))

	case editErrorMsg:
		return m, tea.Println(errorStyle.Render("🗴 error: " + msg.err.Error()))
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

	b.WriteString(m.input.View())
	b.WriteString("\n")

	input := m.input.Value()

	switch {
	case m.historyIdx < m.history.Len():
		hint := fmt.Sprintf("%s/%d",
			lipgloss.NewStyle().Bold(true).Render(strconv.Itoa(m.historyIdx+1)),
			m.history.Len())
		b.WriteString(hintStyle.Render(hint))

	case strings.TrimSpace(input) == "":
		hint := "Type a value to evaluate or press Esc for commands"
		if m.mode == modeCtrl {
			hint = "Type: help, list, get, set, new, rm, quit (press Esc to return)"
		}

		b.WriteString(hintStyle.Render(hint))

	case len(m.matches) > 0:
		b.WriteString(renderCandidateBar(m.matches, m.suggIdx, m.tabActive, m.width))

	case m.mode == modeEval:
		b.WriteString(hintStyle.Render(
			declarationHint(m.parser, input, m.input.Position()),
		))
	}

	b.WriteString("\n")

	return b.String()
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	m.logger.TraceContext(
		m.ctxFunc(),
		"repl key",
		slog.String("key", msg.String()),
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
		// Enter while cycling accepts the candidate.
		m.tabActive = false
		refreshMatches(&m, true)

		return m, nil

	case tea.KeyTab:
		return m.cycle(1)

	case tea.KeyShiftTab:
		return m.cycle(-1)

	case tea.KeyUp:
		return m.historyStep(-1)

	case tea.KeyDown:
		return m.historyStep(1)

	case tea.KeyEsc:
		if m.tabActive {
			m.tabActive = false
			m.input.SetValue(m.preTab)
			m.input.SetCursor(m.preTabPos)
			refreshMatches(&m, false)

			return m, nil
		}

		return m.toggleMode()

	case tea.KeyRunes:
		// Space ends tab cycling.
		if m.tabActive && msg.String() == " " {
			m.tabActive = false
		}

		var cmd tea.Cmd

		m.historyIdx = m.history.Len()
		m.input, cmd = m.input.Update(msg)
		refreshMatches(&m, true)

		return m, cmd
	}

	// Editing and cursor keys never complete on their own.
	var cmd tea.Cmd

	m.tabActive = false
	m.historyIdx = m.history.Len()
	m.input, cmd = m.input.Update(msg)
	refreshMatches(&m, false)

	return m, cmd
}

// cycle moves the tab selection by dir, wrapping at either end. A single
// candidate is completed and confirmed at once.
func (m model) cycle(dir int) (model, tea.Cmd) {
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

	n := len(m.matches)

	switch {
	case m.tabActive:
		m.suggIdx = (m.suggIdx + dir + n) % n

	default:
		m.tabActive = true
		m.preTab = m.input.Value()
		m.preTabPos = m.input.Position()
		m.suggIdx = 0

		if dir < 0 {
			m.suggIdx = n - 1
		}
	}

	replaceCurrentWord(&m, m.matches[m.suggIdx].Str)

	return m, nil
}

// replaceCurrentWord substitutes word for the word under the cursor and
// leaves the cursor after it.
func replaceCurrentWord(m *model, word string) {
	in := m.input.Value()
	end := m.wordStart + len(word)

	m.input.SetValue(in[:m.wordStart] + word + in[m.wordEnd:])
	m.input.SetCursor(end)

	m.wordEnd = end
}

// refreshMatches ranks the candidates for the word under the cursor. With
// autoConfirm a sole candidate that the word already spells out is accepted.
func refreshMatches(m *model, autoConfirm bool) {
	m.matches, m.candidates, m.wordStart, m.wordEnd = m.computeMatches()

	if !m.tabActive {
		m.suggIdx = -1
	}

	if !autoConfirm || len(m.matches) != 1 {
		return
	}

	candidate := m.matches[0].Str
	word := m.input.Value()[m.wordStart:m.wordEnd]

	if word == candidate {
		replaceCurrentWord(m, candidate)
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

	if err := m.history.Add(input, m.mode); err != nil {
		m.logger.WarnContext(m.ctxFunc(), "could not save history",
			slog.Any("error", err))
	}

	m.historyIdx = m.history.Len()

	if m.mode == modeCtrl {
		return m.executeCommand(input)
	}

	m.logger.TraceContext(m.ctxFunc(), "repl eval", slog.String("input", input))

	echo := tea.Println(formatCommand(input))

	v, err := evaluate(m.ctxFunc(), m.parser, input)
	if err != nil {
		return m, tea.Sequence(echo, printError(err))
	}

	return m, tea.Sequence(echo, tea.Println(resultStyle.Render(formatResult(v))))
}

func (m model) executeCommand(input string) (model, tea.Cmd) {
	fields := strings.Fields(input)
	name, args := fields[0], fields[1:]

	m.logger.TraceContext(
		m.ctxFunc(),
		"repl command",
		slog.String("command", name),
		slog.Any("args", args),
	)

	echo := tea.Println(formatCtrlCommand(input))

	switch name {
	case "q", "quit", "exit":
		m.quitting = true

		return m, tea.Sequence(echo, tea.Quit)

	case "c", "clear":
		return m, tea.ClearScreen

	case "e", "edit":
		return m, tea.Sequence(echo, m.edit())

	case "reload":
		p := m.newParser()
		if _, err := p.ParseFile(m.ctxFunc(), m.file); err != nil {
			return m, tea.Sequence(echo, printError(err))
		}

		m.parser = p

		return m, tea.Sequence(echo, tea.Println(resultStyle.Render("✔ reloaded "+m.file)))

	case "h":
		name = "help"

	case "l":
		name = "list"
	}

	out, err := runCommand(m.ctxFunc(), m.parser, name, args)
	if err != nil {
		return m, tea.Sequence(echo, printError(err))
	}

	return m, tea.Sequence(echo, tea.Println(out))
}

func printError(err error) tea.Cmd {
	return tea.Println(errorStyle.Render("error: " + err.Error()))
}

func (m model) edit() tea.Cmd {
	cmd := &editCommand{
		file:      m.file,
		newParser: m.newParser,
		ctxFunc:   m.ctxFunc,
		logger:    m.logger,
	}

	return tea.Exec(cmd, func(err error) tea.Msg {
		switch {
		case errors.Is(err, ErrEditDeclined):
			return editCancelledMsg{}

		case err != nil:
			return editErrorMsg{err: err}

		default:
			return editDoneMsg{parser: cmd.parser}
		}
	})
}

// historyStep recalls the nearest earlier (dir < 0) or later (dir > 0) entry
// entered in the current mode. Stepping past the newest entry clears the
// input.
func (m model) historyStep(dir int) (model, tea.Cmd) {
	for i := m.historyIdx + dir; i >= 0 && i < m.history.Len(); i += dir {
		entry, err := m.history.Entry(i)
		if err != nil || entry.Mode != m.mode {
			continue
		}

		m.historyIdx = i
		m.input.SetValue(entry.Line)
		m.input.SetCursor(len(entry.Line))
		refreshMatches(&m, false)

		return m, nil
	}

	if dir > 0 && m.historyIdx < m.history.Len() {
		m.historyIdx = m.history.Len()
		m.input.SetValue("")
		refreshMatches(&m, false)
	}

	return m, nil
}

// toggleMode switches between eval and command modes. The input is kept and
// completed against the new mode's candidates.
func (m model) toggleMode() (model, tea.Cmd) {
	if m.mode == modeEval {
		m.mode = modeCtrl
		m.input.Prompt = ctrlPromptStyle.Render(ctrlPrompt)
	} else {
		m.mode = modeEval
		m.input.Prompt = promptStyle.Render(evalPrompt)
	}

	m.historyIdx = m.history.Len()
	refreshMatches(&m, false)

	return m, nil
}
