// Package ui is the terminal front end: a Bubble Tea program that drives the
// agent session, plus the rendering helpers it uses for markdown, diffs and
// tool output.
package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// Colors for the UI theme.
var (
	ColorPrimary = lipgloss.Color("#A78BFA") // Soft Purple
	ColorSuccess = lipgloss.Color("#059669") // Emerald 600
	ColorWarning = lipgloss.Color("#D97706") // Amber 600
	ColorError   = lipgloss.Color("#DC2626") // Red 600
	ColorMuted   = lipgloss.Color("#9CA3AF") // Gray 400
	ColorDim     = lipgloss.Color("#6B7280") // Gray 500
	ColorRunning = lipgloss.Color("#60A5FA") // Blue 400
	ColorBorder  = lipgloss.Color("#1E293B") // Slate Border
)

// Styles holds the lipgloss styles shared across UI components.
type Styles struct {
	Title     lipgloss.Style
	Status    lipgloss.Style
	Spinner   lipgloss.Style
	UserInput lipgloss.Style
	Message   lipgloss.Style
	Error     lipgloss.Style
	Warning   lipgloss.Style
	Muted     lipgloss.Style

	ToolRunning lipgloss.Style
	ToolOK      lipgloss.Style
	ToolFail    lipgloss.Style

	Viewport lipgloss.Style
	Input    lipgloss.Style
}

// NewStyles creates the default style set.
func NewStyles() *Styles {
	return &Styles{
		Title:     lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true),
		Status:    lipgloss.NewStyle().Foreground(ColorMuted),
		Spinner:   lipgloss.NewStyle().Foreground(ColorRunning),
		UserInput: lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true),
		Message:   lipgloss.NewStyle(),
		Error:     lipgloss.NewStyle().Foreground(ColorError).Bold(true),
		Warning:   lipgloss.NewStyle().Foreground(ColorWarning),
		Muted:     lipgloss.NewStyle().Foreground(ColorDim),

		ToolRunning: lipgloss.NewStyle().Foreground(ColorRunning),
		ToolOK:      lipgloss.NewStyle().Foreground(ColorSuccess),
		ToolFail:    lipgloss.NewStyle().Foreground(ColorError),

		Viewport: lipgloss.NewStyle(),
		Input: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1),
	}
}

// stateIcons mark loop phases in the status line.
var stateIcons = map[string]string{
	"perceiving": "◌",
	"reasoning":  "◐",
	"acting":     "●",
	"recording":  "◒",
	"idle":       "○",
}

// StateIcon returns the status icon for a loop phase name.
func StateIcon(state string) string {
	if icon, ok := stateIcons[state]; ok {
		return icon
	}
	return stateIcons["idle"]
}

// toolIcons give tool lines a quick visual anchor.
var toolIcons = map[string]string{
	"read_file":    "📄",
	"write_file":   "✏️",
	"edit_file":    "🔧",
	"clear_file":   "🧹",
	"delete_file":  "🗑",
	"restore_file": "↩️",
	"make_dir":     "📁",
	"copy_file":    "📑",
	"move_path":    "🚚",
	"list_dir":     "📂",
	"search_files": "🔍",
	"run_command":  "💻",
	"git_command":  "🌿",
	"run_linter":   "🔬",
	"run_tests":    "🧪",
	"web_fetch":    "🌍",
	"remote_exec":  "📡",
	"default":      "⚙️",
}

// ToolIcon returns the icon for a tool name.
func ToolIcon(name string) string {
	if icon, ok := toolIcons[name]; ok {
		return icon
	}
	return toolIcons["default"]
}
