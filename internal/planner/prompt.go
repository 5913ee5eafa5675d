package planner

import (
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const systemPrompt = `You are the planning engine of a terminal coding assistant.
You are given a goal, the current workspace state, and the actions taken so far.
Decide exactly ONE next action, or declare the goal complete.

To take an action, output a single JSON object in a code block:

` + "```json\n{\"tool\": \"tool_name\", \"args\": {\"param\": \"value\"}}\n```" + `

RULES:
- ONE tool call per response, nothing else around the JSON block.
- Re-examine the previous step's output before deciding the next one.
- When the goal is complete, output plain text summarizing what was done
  (no JSON block).
- Use exact tool and parameter names from the list below.`

// buildUserPrompt renders the request into the prompt body shared by all
// backends.
func buildUserPrompt(req Request) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "GOAL:\n%s\n", req.Goal)

	sb.WriteString("\nWORKSPACE:\n")
	fmt.Fprintf(&sb, "- directory: %s\n", req.State.WorkDir)
	if req.State.GitBranch != "" {
		fmt.Fprintf(&sb, "- git branch: %s\n", req.State.GitBranch)
	}
	if req.State.GitStatus != "" {
		fmt.Fprintf(&sb, "- git status:\n%s\n", indent(req.State.GitStatus, "    "))
	}
	if len(req.State.ChangedFiles) > 0 {
		fmt.Fprintf(&sb, "- files changed externally since last step: %s\n",
			strings.Join(req.State.ChangedFiles, ", "))
	}

	if len(req.Recent) > 0 {
		sb.WriteString("\nRECENT ACTIONS (newest first):\n")
		for _, a := range req.Recent {
			status := "ok"
			if !a.Success {
				status = "FAILED"
			}
			fmt.Fprintf(&sb, "- %s [%s]: %s\n", a.Tool, status, a.Message)
		}
	}

	if len(req.Steps) > 0 {
		sb.WriteString("\nSTEPS THIS TURN:\n")
		for i, s := range req.Steps {
			status := "ok"
			if !s.Success {
				status = "FAILED"
			}
			fmt.Fprintf(&sb, "%d. %s [%s]\n", i+1, s.Step.Tool, status)
			if s.Output != "" {
				sb.WriteString(indent(s.Output, "   "))
				sb.WriteByte('\n')
			}
		}
	}

	sb.WriteString("\nDecide the next single action, or summarize completion in plain text.\n")
	return sb.String()
}

// toolCatalog renders tool declarations for backends without native function
// calling.
func toolCatalog(decls []*genai.FunctionDeclaration) string {
	if len(decls) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("\nAVAILABLE TOOLS:\n\n")
	for _, decl := range decls {
		fmt.Fprintf(&sb, "### %s\n%s\n", decl.Name, decl.Description)
		if decl.Parameters != nil && len(decl.Parameters.Properties) > 0 {
			required := make(map[string]bool)
			for _, r := range decl.Parameters.Required {
				required[r] = true
			}
			sb.WriteString("Parameters:\n")
			for name, prop := range decl.Parameters.Properties {
				mark := ""
				if required[name] {
					mark = " (required)"
				}
				fmt.Fprintf(&sb, "- `%s`%s: %s\n", name, mark, prop.Description)
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func indent(s, prefix string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}
