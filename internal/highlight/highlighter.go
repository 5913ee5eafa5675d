// Package highlight renders code and diffs for the terminal.
package highlight

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/lipgloss"
)

// Highlighter provides syntax highlighting for code and diffs.
type Highlighter struct {
	style     string
	formatter chroma.Formatter
}

// New creates a Highlighter. Styles: "monokai", "dracula", "github-dark",
// "native"; empty means monokai.
func New(style string) *Highlighter {
	if style == "" {
		style = "monokai"
	}
	return &Highlighter{
		style:     style,
		formatter: formatters.Get("terminal256"),
	}
}

// Highlight applies syntax highlighting to code in the given language.
// Failures fall back to the raw code.
func (h *Highlighter) Highlight(code, lang string) string {
	lexer := lexers.Get(lang)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := styles.Get(h.style)
	if style == nil {
		style = styles.Fallback
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}

	var buf bytes.Buffer
	if err := h.formatter.Format(&buf, style, iterator); err != nil {
		return code
	}
	return buf.String()
}

// HighlightFile highlights content with the language inferred from filename.
func (h *Highlighter) HighlightFile(content, filename string) string {
	return h.Highlight(content, DetectLanguage(filename))
}

var (
	diffAddedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true)
	diffRemovedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)
	diffHeaderStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#06B6D4")).Bold(true)
	diffHunkStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#A78BFA"))
	diffContextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF"))
	lineNumStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
)

// HighlightDiff colors unified diff output.
func (h *Highlighter) HighlightDiff(diff string) string {
	lines := strings.Split(diff, "\n")
	var result strings.Builder

	for i, line := range lines {
		var styled string
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
			styled = diffHeaderStyle.Render(line)
		case strings.HasPrefix(line, "@@"):
			styled = diffHunkStyle.Render(line)
		case strings.HasPrefix(line, "+"):
			styled = diffAddedStyle.Render(line)
		case strings.HasPrefix(line, "-"):
			styled = diffRemovedStyle.Render(line)
		default:
			styled = diffContextStyle.Render(line)
		}
		result.WriteString(styled)
		if i < len(lines)-1 {
			result.WriteByte('\n')
		}
	}
	return result.String()
}

// HighlightWithLineNumbers highlights code and prefixes line numbers.
func (h *Highlighter) HighlightWithLineNumbers(code, lang string, startLine int) string {
	highlighted := h.Highlight(code, lang)
	lines := strings.Split(highlighted, "\n")

	var result strings.Builder
	for i, line := range lines {
		result.WriteString(lineNumStyle.Render(fmt.Sprintf("%4d", startLine+i)))
		result.WriteString(" │ ")
		result.WriteString(line)
		if i < len(lines)-1 {
			result.WriteByte('\n')
		}
	}
	return result.String()
}

var extLangMap = map[string]string{
	".go":   "go",
	".py":   "python",
	".js":   "javascript",
	".ts":   "typescript",
	".tsx":  "tsx",
	".jsx":  "jsx",
	".rs":   "rust",
	".rb":   "ruby",
	".java": "java",
	".c":    "c",
	".cpp":  "cpp",
	".h":    "c",
	".sh":   "bash",
	".bash": "bash",
	".sql":  "sql",
	".html": "html",
	".css":  "css",
	".json": "json",
	".yaml": "yaml",
	".yml":  "yaml",
	".toml": "toml",
	".xml":  "xml",
	".md":   "markdown",
	".lua":  "lua",
}

// DetectLanguage guesses the language from a filename.
func DetectLanguage(filename string) string {
	if lang, ok := extLangMap[strings.ToLower(filepath.Ext(filename))]; ok {
		return lang
	}

	switch strings.ToLower(filepath.Base(filename)) {
	case "dockerfile":
		return "docker"
	case "makefile":
		return "makefile"
	case "go.mod":
		return "gomod"
	}

	if lexer := lexers.Match(filename); lexer != nil {
		return lexer.Config().Name
	}
	return "text"
}
