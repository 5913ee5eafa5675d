package tools

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"google.golang.org/genai"

	"gofer/internal/security"
)

const (
	maxSearchMatches  = 500
	maxSearchFileSize = 10 << 20
	maxSearchLineLen  = 500
)

// SearchTool searches for a regex pattern across files under the working
// directory. File selection goes through doublestar globs.
type SearchTool struct {
	workDir       string
	pathValidator *security.PathValidator
}

// NewSearchTool creates a new SearchTool instance.
func NewSearchTool(workDir string) *SearchTool {
	return &SearchTool{
		workDir:       workDir,
		pathValidator: security.NewPathValidator([]string{workDir}),
	}
}

// SetAllowedDirs sets additional allowed directories for path validation.
func (t *SearchTool) SetAllowedDirs(dirs []string) {
	t.pathValidator = security.NewPathValidator(append([]string{t.workDir}, dirs...))
}

func (t *SearchTool) Name() string {
	return "search_files"
}

func (t *SearchTool) Description() string {
	return "Searches for a regex pattern in files. Returns matching lines with file paths and line numbers. Supports glob filtering like '**/*.go'."
}

func (t *SearchTool) Reversibility() Reversibility {
	return Irreversible
}

func (t *SearchTool) Declaration() *genai.FunctionDeclaration {
	return &genai.FunctionDeclaration{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"pattern": {
					Type:        genai.TypeString,
					Description: "The regex pattern to search for",
				},
				"path": {
					Type:        genai.TypeString,
					Description: "File or directory to search in. Defaults to the working directory.",
				},
				"glob": {
					Type:        genai.TypeString,
					Description: "Glob pattern to filter files (e.g., '*.go', '**/*.ts')",
				},
				"case_insensitive": {
					Type:        genai.TypeBoolean,
					Description: "If true, search is case-insensitive",
				},
			},
			Required: []string{"pattern"},
		},
	}
}

func (t *SearchTool) Validate(args map[string]any) error {
	pattern, ok := GetString(args, "pattern")
	if !ok || pattern == "" {
		return NewValidationError("pattern", "is required")
	}
	if _, err := regexp.Compile(pattern); err != nil {
		return NewValidationError("pattern", fmt.Sprintf("invalid regex: %s", err))
	}
	return nil
}

func (t *SearchTool) Execute(ctx context.Context, args map[string]any) (Outcome, error) {
	pattern, _ := GetString(args, "pattern")
	searchPath := GetStringDefault(args, "path", t.workDir)
	globPattern := GetStringDefault(args, "glob", "")
	caseInsensitive := GetBoolDefault(args, "case_insensitive", false)

	if !filepath.IsAbs(searchPath) {
		searchPath = filepath.Join(t.workDir, searchPath)
	}
	validPath, err := t.pathValidator.Validate(searchPath)
	if err != nil {
		return FailureOutcome(fmt.Sprintf("path validation failed: %s", err)), nil
	}

	regexPattern := pattern
	if caseInsensitive {
		regexPattern = "(?i)" + pattern
	}
	re, err := regexp.Compile(regexPattern)
	if err != nil {
		return FailureOutcome(fmt.Sprintf("invalid regex: %s", err)), nil
	}

	files, err := t.candidateFiles(validPath, globPattern)
	if err != nil {
		return FailureOutcome(err.Error()), nil
	}

	fileMatches := t.searchParallel(ctx, files, re)

	var results strings.Builder
	matchCount := 0
	fileCount := 0
	for _, fm := range fileMatches {
		if matchCount >= maxSearchMatches {
			break
		}
		fileCount++
		relPath, rerr := filepath.Rel(t.workDir, fm.path)
		if rerr != nil || relPath == "" {
			relPath = fm.path
		}
		for _, m := range fm.matches {
			if matchCount >= maxSearchMatches {
				break
			}
			results.WriteString(fmt.Sprintf("%s:%d: %s\n", relPath, m.lineNum, m.line))
			matchCount++
		}
	}

	if matchCount == 0 {
		return SuccessWithContent("No matches found.", ""), nil
	}

	summary := fmt.Sprintf("Found %d match(es) in %d file(s)", matchCount, fileCount)
	if matchCount >= maxSearchMatches {
		summary += fmt.Sprintf(" (capped at %d)", maxSearchMatches)
	}
	return SuccessWithContent(summary, results.String()), nil
}

type searchMatch struct {
	lineNum int
	line    string
}

type searchFileMatches struct {
	path    string
	matches []searchMatch
}

func (t *SearchTool) candidateFiles(searchPath, globPattern string) ([]string, error) {
	info, err := os.Stat(searchPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("path not found: %s", searchPath)
		}
		return nil, fmt.Errorf("error accessing path: %w", err)
	}

	if !info.IsDir() {
		return []string{searchPath}, nil
	}

	if globPattern == "" {
		globPattern = "**/*"
	}
	fullPattern := filepath.Join(searchPath, globPattern)

	matches, err := doublestar.FilepathGlob(fullPattern)
	if err != nil {
		return nil, fmt.Errorf("invalid glob pattern: %w", err)
	}

	var files []string
	for _, match := range matches {
		fi, serr := os.Stat(match)
		if serr != nil || fi.IsDir() || fi.Size() > maxSearchFileSize {
			continue
		}
		if isBinaryPath(match) {
			continue
		}
		files = append(files, match)
	}
	return files, nil
}

// searchParallel runs the per-file search with a small worker pool.
func (t *SearchTool) searchParallel(ctx context.Context, files []string, re *regexp.Regexp) []searchFileMatches {
	var wg sync.WaitGroup
	var mu sync.Mutex
	results := make([]searchFileMatches, 0)

	semaphore := make(chan struct{}, 10)

searchLoop:
	for _, file := range files {
		select {
		case <-ctx.Done():
			break searchLoop
		default:
		}

		wg.Add(1)
		semaphore <- struct{}{}

		go func(f string) {
			defer wg.Done()
			defer func() { <-semaphore }()

			matches := searchFile(f, re)
			if len(matches) > 0 {
				mu.Lock()
				results = append(results, searchFileMatches{path: f, matches: matches})
				mu.Unlock()
			}
		}(file)
	}

	wg.Wait()

	sort.Slice(results, func(i, j int) bool {
		return results[i].path < results[j].path
	})
	return results
}

func searchFile(path string, re *regexp.Regexp) []searchMatch {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	var matches []searchMatch
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 1<<20), 1<<20)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if re.MatchString(line) {
			if len(line) > maxSearchLineLen {
				line = line[:maxSearchLineLen] + "..."
			}
			matches = append(matches, searchMatch{lineNum: lineNum, line: line})
		}
	}
	return matches
}

// isBinaryPath filters obvious binary files by extension before reading.
func isBinaryPath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".exe", ".dll", ".so", ".dylib",
		".png", ".jpg", ".jpeg", ".gif", ".ico",
		".pdf", ".zip", ".tar", ".gz", ".rar",
		".mp3", ".mp4", ".avi", ".mov",
		".bin", ".dat", ".db", ".sqlite",
		".woff", ".woff2", ".ttf", ".eot":
		return true
	}
	return false
}
