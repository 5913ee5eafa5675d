package ui

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"gofer/internal/agent"
	"gofer/internal/highlight"
)

// Messages sent from the agent loop goroutine into the Bubble Tea program.
type (
	stateChangedMsg struct{ state agent.State }
	stepStartedMsg  struct{ tool, rationale string }
	actionDoneMsg   struct {
		tool    string
		success bool
		message string
	}
	plannerTextMsg  struct{ text string }
	renderedLineMsg struct{ line string }
	turnDoneMsg     struct{ err error }
)

// Sink forwards agent loop events into the running program. The program
// pointer is attached after construction because the session must exist
// before the program does.
type Sink struct {
	p *tea.Program
}

// NewSink creates an unattached Sink. Events are dropped until SetProgram.
func NewSink() *Sink {
	return &Sink{}
}

// SetProgram attaches the running program.
func (s *Sink) SetProgram(p *tea.Program) {
	s.p = p
}

func (s *Sink) send(msg tea.Msg) {
	if s.p != nil {
		s.p.Send(msg)
	}
}

func (s *Sink) OnStateChange(state agent.State) { s.send(stateChangedMsg{state: state}) }
func (s *Sink) OnStep(tool, rationale string)   { s.send(stepStartedMsg{tool: tool, rationale: rationale}) }
func (s *Sink) OnMessage(text string)           { s.send(plannerTextMsg{text: text}) }

func (s *Sink) OnActionDone(tool string, success bool, message string) {
	s.send(actionDoneMsg{tool: tool, success: success, message: message})
}

// Model is the root Bubble Tea model for an interactive session.
type Model struct {
	session     *agent.Session
	styles      *Styles
	renderer    *Renderer
	highlighter *highlight.Highlighter

	viewport viewport.Model
	input    textarea.Model
	spinner  spinner.Model

	transcript  strings.Builder
	lastMessage string
	state       agent.State
	busy        bool
	cancelTurn  context.CancelFunc
	ready       bool
	width       int
	height      int
	workDir     string
}

// NewModel creates the root model over a session. highlightStyle names the
// chroma style used for diff previews; empty picks the default.
func NewModel(session *agent.Session, workDir, highlightStyle string) *Model {
	styles := NewStyles()
	if highlightStyle == "" {
		highlightStyle = "monokai"
	}

	input := textarea.New()
	input.Placeholder = "Describe what to do (enter to run, ctrl+c to quit)"
	input.SetHeight(2)
	input.ShowLineNumbers = false
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Spinner

	return &Model{
		session:     session,
		styles:      styles,
		renderer:    NewRenderer(styles, 100),
		highlighter: highlight.New(highlightStyle),
		input:       input,
		spinner:     sp,
		workDir:     workDir,
	}
}

func (m *Model) Init() tea.Cmd {
	return textarea.Blink
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.renderer = NewRenderer(m.styles, msg.Width-2)
		inputHeight := 4
		statusHeight := 1
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-inputHeight-statusHeight)
			m.viewport.MouseWheelEnabled = true
			m.ready = true
			m.appendLine(m.styles.Title.Render("gofer") + m.styles.Muted.Render("  "+m.workDir))
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - inputHeight - statusHeight
		}
		m.input.SetWidth(msg.Width - 4)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case stateChangedMsg:
		m.state = msg.state
		return m, nil

	case stepStartedMsg:
		m.appendLine(m.renderer.ToolStart(msg.tool, msg.rationale))
		return m, nil

	case actionDoneMsg:
		m.appendLine(m.renderer.ToolDone(msg.tool, msg.success, msg.message))
		if msg.success {
			if diff := m.lastActionDiff(); diff != "" {
				m.appendLine(RenderDiff(m.highlighter, diff))
			}
		}
		return m, nil

	case plannerTextMsg:
		m.lastMessage = msg.text
		m.appendLine(m.renderer.Markdown(msg.text))
		return m, nil

	case renderedLineMsg:
		m.appendLine(msg.line)
		return m, nil

	case turnDoneMsg:
		m.busy = false
		m.cancelTurn = nil
		if msg.err != nil && !errors.Is(msg.err, context.Canceled) {
			m.appendLine(m.styles.Error.Render(msg.err.Error()))
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		if m.busy && m.cancelTurn != nil {
			// First ctrl+c interrupts the turn; the loop stops before the
			// next dispatch.
			m.cancelTurn()
			m.appendLine(m.styles.Warning.Render("interrupting after the current action..."))
			return m, nil
		}
		return m, tea.Quit

	case "enter":
		if m.busy {
			return m, nil
		}
		goal := strings.TrimSpace(m.input.Value())
		if goal == "" {
			return m, nil
		}
		m.input.Reset()

		if strings.HasPrefix(goal, "/") {
			return m.runCommand(goal)
		}

		m.appendLine(m.styles.UserInput.Render("> " + goal))
		return m, m.startTurn(goal)

	case "ctrl+z":
		if m.busy {
			return m, nil
		}
		return m, m.undoCmd()

	case "ctrl+y":
		if m.lastMessage != "" {
			if err := clipboard.WriteAll(m.lastMessage); err != nil {
				m.appendLine(m.styles.Warning.Render("clipboard unavailable: " + err.Error()))
			} else {
				m.appendLine(m.styles.Muted.Render("copied last response"))
			}
		}
		return m, nil
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// runCommand handles slash commands typed instead of a goal.
func (m *Model) runCommand(line string) (tea.Model, tea.Cmd) {
	fields := strings.Fields(line)
	switch fields[0] {
	case "/undo":
		return m, m.undoCmd()
	case "/history":
		m.appendLine(m.renderer.HistoryList(m.session.History(parseCount(fields[1:], 20))))
	case "/status":
		m.appendLine(m.renderer.StatusReport(m.session.Status()))
	case "/help":
		m.appendLine(m.styles.Muted.Render(
			"commands: /status  /history [n]  /undo  /help  /quit"))
	case "/quit", "/exit":
		return m, tea.Quit
	default:
		m.appendLine(m.styles.Warning.Render("unknown command: " + fields[0] + " (try /help)"))
	}
	return m, nil
}

// parseCount reads an optional positive count argument, falling back to def.
func parseCount(args []string, def int) int {
	if len(args) == 0 {
		return def
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n <= 0 {
		return def
	}
	return n
}

// startTurn launches one agent turn in the background.
func (m *Model) startTurn(goal string) tea.Cmd {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancelTurn = cancel
	m.busy = true

	session := m.session
	run := func() tea.Msg {
		_, err := session.HandleRequest(ctx, goal)
		return turnDoneMsg{err: err}
	}
	return tea.Batch(m.spinner.Tick, run)
}

func (m *Model) undoCmd() tea.Cmd {
	session := m.session
	renderer := m.renderer
	return func() tea.Msg {
		action, err := session.UndoLast(context.Background())
		return renderedLineMsg{line: renderer.UndoReport(action, err)}
	}
}

// maxDiffPreviewLines bounds the inline diff shown after a file mutation.
const maxDiffPreviewLines = 40

// lastActionDiff builds a diff preview for the newest recorded action, using
// its reverse payload as the old content. Empty when the action is not a
// content-level file change.
func (m *Model) lastActionDiff() string {
	recent := m.session.History(1)
	if len(recent) == 0 {
		return ""
	}
	action := recent[0]
	if action.Reverse == nil || action.Reverse.Tool != "restore_file" {
		return ""
	}

	path, _ := action.Reverse.Args["path"].(string)
	if path == "" {
		return ""
	}
	oldContent, _ := action.Reverse.Args["content"].(string)

	newData, err := os.ReadFile(path)
	if err != nil || bytes.IndexByte(newData, 0) >= 0 {
		return ""
	}

	diff := UnifiedDiff(path, oldContent, string(newData))
	lines := strings.Split(diff, "\n")
	if len(lines) > maxDiffPreviewLines {
		lines = append(lines[:maxDiffPreviewLines],
			fmt.Sprintf("... (%d more lines)", len(lines)-maxDiffPreviewLines))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) appendLine(line string) {
	m.transcript.WriteString(line)
	m.transcript.WriteByte('\n')
	if m.ready {
		m.viewport.SetContent(m.transcript.String())
		m.viewport.GotoBottom()
	}
}

func (m *Model) View() string {
	if !m.ready {
		return "starting..."
	}

	status := StateIcon(m.state.String()) + " " + m.state.String()
	if m.busy {
		status = m.spinner.View() + " " + status
	}
	if m.session.CanUndo() {
		status += m.styles.Muted.Render("  ·  ctrl+z undo")
	}

	return fmt.Sprintf("%s\n%s\n%s",
		m.styles.Viewport.Render(m.viewport.View()),
		m.styles.Status.Render(status),
		m.styles.Input.Render(m.input.View()))
}

// Run starts the interactive terminal session and blocks until exit.
func Run(session *agent.Session, workDir, highlightStyle string, sink *Sink) error {
	model := NewModel(session, workDir, highlightStyle)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if sink != nil {
		sink.SetProgram(p)
	}
	_, err := p.Run()
	return err
}
