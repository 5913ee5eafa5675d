package tools

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"golang.org/x/net/html"
	"google.golang.org/genai"

	"gofer/internal/security"
)

const maxWebFetchContent = 50000

// WebFetchTool fetches content from URLs and converts HTML to markdown.
type WebFetchTool struct {
	client  *http.Client
	maxSize int64
}

// NewWebFetchTool creates a new web fetch tool.
func NewWebFetchTool() *WebFetchTool {
	return &WebFetchTool{
		client:  &http.Client{Timeout: 30 * time.Second},
		maxSize: 1 << 20, // 1MB
	}
}

func (t *WebFetchTool) Name() string {
	return "web_fetch"
}

func (t *WebFetchTool) Description() string {
	return "Fetches content from a URL and returns it as markdown. Useful for reading documentation, articles, or any web content."
}

func (t *WebFetchTool) Reversibility() Reversibility {
	return Irreversible
}

func (t *WebFetchTool) Declaration() *genai.FunctionDeclaration {
	return &genai.FunctionDeclaration{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"url": {
					Type:        genai.TypeString,
					Description: "The URL to fetch content from",
				},
				"selector": {
					Type:        genai.TypeString,
					Description: "Optional CSS-like selector to extract specific content (e.g., 'article', 'main', '.content')",
				},
			},
			Required: []string{"url"},
		},
	}
}

func (t *WebFetchTool) Validate(args map[string]any) error {
	urlStr, ok := GetString(args, "url")
	if !ok || urlStr == "" {
		return NewValidationError("url", "is required")
	}
	if _, err := url.Parse(urlStr); err != nil {
		return NewValidationError("url", fmt.Sprintf("invalid URL: %s", err))
	}
	return nil
}

func (t *WebFetchTool) Execute(ctx context.Context, args map[string]any) (Outcome, error) {
	urlStr, _ := GetString(args, "url")
	selector, _ := GetString(args, "selector")

	// SSRF check here rather than in Validate: it resolves DNS, which can
	// block, and Validate should stay cheap.
	if err := security.ValidateURL(urlStr); err != nil {
		return FailureOutcome(fmt.Sprintf("URL rejected: %s", err)), nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return FailureOutcome(fmt.Sprintf("failed to create request: %s", err)), nil
	}
	req.Header.Set("User-Agent", "Gofer/1.0")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := t.client.Do(req)
	if err != nil {
		return FailureOutcome(fmt.Sprintf("failed to fetch URL: %s", err)), nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return FailureOutcome(fmt.Sprintf("HTTP %d: %s", resp.StatusCode, resp.Status)), nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, t.maxSize))
	if err != nil {
		return FailureOutcome(fmt.Sprintf("failed to read response: %s", err)), nil
	}

	contentType := strings.ToLower(resp.Header.Get("Content-Type"))

	var content string
	switch {
	case strings.Contains(contentType, "text/html"), strings.Contains(contentType, "application/xhtml"):
		content, err = htmlToMarkdown(string(body), selector)
		if err != nil {
			return FailureOutcome(fmt.Sprintf("failed to parse HTML: %s", err)), nil
		}
	case strings.Contains(contentType, "text/plain"), strings.Contains(contentType, "application/json"):
		content = string(body)
	default:
		content, _ = htmlToMarkdown(string(body), selector)
		if content == "" {
			content = string(body)
		}
	}

	if len(content) > maxWebFetchContent {
		content = content[:maxWebFetchContent] + "\n\n... (content truncated)"
	}

	return SuccessWithContent(
		fmt.Sprintf("Fetched %s (%d bytes, %s)", urlStr, len(content), contentType),
		content,
	), nil
}

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	blankLinesRe = regexp.MustCompile(`\n{3,}`)
)

// htmlToMarkdown converts HTML to markdown-like text.
func htmlToMarkdown(htmlContent, selector string) (string, error) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return "", err
	}

	skipTags := map[string]bool{
		"script": true, "style": true, "nav": true, "footer": true,
		"header": true, "aside": true, "noscript": true, "iframe": true,
	}
	blockTags := map[string]bool{
		"p": true, "div": true, "section": true, "article": true,
		"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
		"li": true, "tr": true, "br": true, "hr": true,
		"blockquote": true, "pre": true, "table": true,
	}

	var content strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.ElementNode {
			tag := strings.ToLower(n.Data)
			if skipTags[tag] {
				return
			}
			switch tag {
			case "h1":
				content.WriteString("\n# ")
			case "h2":
				content.WriteString("\n## ")
			case "h3":
				content.WriteString("\n### ")
			case "h4":
				content.WriteString("\n#### ")
			case "h5":
				content.WriteString("\n##### ")
			case "h6":
				content.WriteString("\n###### ")
			case "li":
				content.WriteString("\n- ")
			case "br":
				content.WriteString("\n")
			case "hr":
				content.WriteString("\n---\n")
			case "code":
				content.WriteString("`")
			case "pre":
				content.WriteString("\n```\n")
			case "strong", "b":
				content.WriteString("**")
			case "em", "i":
				content.WriteString("*")
			case "p", "div", "section", "article", "blockquote":
				content.WriteString("\n")
			}
		}

		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				content.WriteString(whitespaceRe.ReplaceAllString(text, " "))
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}

		if n.Type == html.ElementNode {
			tag := strings.ToLower(n.Data)
			switch tag {
			case "code":
				content.WriteString("`")
			case "pre":
				content.WriteString("\n```\n")
			case "strong", "b":
				content.WriteString("**")
			case "em", "i":
				content.WriteString("*")
			case "a":
				for _, attr := range n.Attr {
					if attr.Key == "href" && attr.Val != "" &&
						!strings.HasPrefix(attr.Val, "#") && !strings.HasPrefix(attr.Val, "javascript:") {
						fmt.Fprintf(&content, " (%s)", attr.Val)
						break
					}
				}
			}
			if blockTags[tag] {
				content.WriteString("\n")
			}
		}
	}

	var findStart func(*html.Node) *html.Node
	findStart = func(n *html.Node) *html.Node {
		if n.Type == html.ElementNode {
			if selector != "" && matchesSelector(n, selector) {
				return n
			}
			if selector == "" && strings.EqualFold(n.Data, "body") {
				return n
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if found := findStart(c); found != nil {
				return found
			}
		}
		return nil
	}

	startNode := findStart(doc)
	if startNode == nil {
		startNode = doc
	}
	extract(startNode)

	result := blankLinesRe.ReplaceAllString(content.String(), "\n\n")
	return strings.TrimSpace(result), nil
}

// matchesSelector checks a node against a simple tag, .class or #id selector.
func matchesSelector(n *html.Node, selector string) bool {
	selector = strings.TrimSpace(selector)

	if strings.HasPrefix(selector, ".") {
		className := selector[1:]
		for _, attr := range n.Attr {
			if attr.Key == "class" {
				for _, c := range strings.Fields(attr.Val) {
					if c == className {
						return true
					}
				}
			}
		}
		return false
	}

	if strings.HasPrefix(selector, "#") {
		id := selector[1:]
		for _, attr := range n.Attr {
			if attr.Key == "id" && attr.Val == id {
				return true
			}
		}
		return false
	}

	return strings.EqualFold(n.Data, selector)
}
