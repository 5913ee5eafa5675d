package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"gofer/internal/agent"
	"gofer/internal/history"
)

// Renderer turns agent events and planner text into terminal output.
type Renderer struct {
	styles   *Styles
	markdown *glamour.TermRenderer
}

// NewRenderer creates a Renderer wrapping lines at the given width.
func NewRenderer(styles *Styles, width int) *Renderer {
	if width <= 0 {
		width = 100
	}
	md, _ := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(width),
	)
	return &Renderer{styles: styles, markdown: md}
}

// Markdown renders planner text as markdown, falling back to the raw text
// when rendering fails.
func (r *Renderer) Markdown(text string) string {
	if r.markdown == nil {
		return text
	}
	rendered, err := r.markdown.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(rendered, "\n") + "\n"
}

// ToolStart formats the line shown when a step begins.
func (r *Renderer) ToolStart(tool, rationale string) string {
	line := fmt.Sprintf("%s %s", ToolIcon(tool), r.styles.ToolRunning.Render(tool))
	if rationale != "" {
		line += " " + r.styles.Muted.Render(firstLine(rationale, 80))
	}
	return line
}

// ToolDone formats the line shown after an action is recorded.
func (r *Renderer) ToolDone(tool string, success bool, message string) string {
	mark := r.styles.ToolOK.Render("✓")
	if !success {
		mark = r.styles.ToolFail.Render("✗")
	}
	return fmt.Sprintf("%s %s %s", mark, tool, r.styles.Muted.Render(firstLine(message, 100)))
}

// HistoryLine formats one action for the history listing.
func (r *Renderer) HistoryLine(a *history.Action) string {
	mark := r.styles.ToolOK.Render("✓")
	if !a.Success {
		mark = r.styles.ToolFail.Render("✗")
	}

	var flags []string
	if a.CanUndo() {
		flags = append(flags, "undoable")
	}
	if a.NeedsReview {
		flags = append(flags, "needs review")
	}
	suffix := ""
	if len(flags) > 0 {
		suffix = " " + r.styles.Warning.Render("["+strings.Join(flags, ", ")+"]")
	}

	return fmt.Sprintf("%4d  %s %s  %s  %s%s",
		a.ID,
		mark,
		a.Timestamp.Format("15:04:05"),
		a.Tool,
		r.styles.Muted.Render(firstLine(a.Message, 80)),
		suffix)
}

// HistoryList formats recent actions, newest first.
func (r *Renderer) HistoryList(actions []*history.Action) string {
	if len(actions) == 0 {
		return r.styles.Muted.Render("no actions recorded this session")
	}
	lines := make([]string, len(actions))
	for i, a := range actions {
		lines[i] = r.HistoryLine(a)
	}
	return strings.Join(lines, "\n")
}

// StatusReport formats the session status summary.
func (r *Renderer) StatusReport(st agent.Status) string {
	undoLine := "nothing to undo"
	if st.CanUndo {
		undoLine = "available (ctrl+z)"
	}
	out := r.styles.Muted.Render(strings.Join([]string{
		"directory:  " + st.WorkDir,
		"planner:    " + st.Planner,
		fmt.Sprintf("actions:    %d recorded", st.Actions),
		"undo:       " + undoLine,
	}, "\n"))
	if st.NeedsReview {
		out += "\n" + r.styles.Warning.Render(
			"a failed undo may have left the workspace partially reverted; review it manually")
	}
	return out
}

// UndoReport formats the result of an undo attempt.
func (r *Renderer) UndoReport(action *history.Action, err error) string {
	if err != nil {
		line := r.styles.Error.Render("undo failed: " + err.Error())
		if action != nil && action.NeedsReview {
			line += "\n" + r.styles.Warning.Render(
				"the workspace may be partially reverted; review "+action.Tool+" manually")
		}
		return line
	}
	return r.styles.ToolOK.Render(fmt.Sprintf("↩ undid %s (action #%d)", action.Tool, action.ID))
}

// firstLine truncates text to its first line, bounded at maxLen runes.
func firstLine(text string, maxLen int) string {
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		text = text[:idx]
	}
	runes := []rune(text)
	if len(runes) > maxLen {
		return string(runes[:maxLen-1]) + "…"
	}
	return text
}
