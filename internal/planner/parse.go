package planner

import (
	"encoding/json"
	"regexp"
	"strings"
)

// stepFromText is the JSON shape models emit when calling tools as text.
// "name" is accepted as an alias for "tool".
type stepFromText struct {
	Tool string         `json:"tool"`
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

var codeBlockPattern = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(\\{.*?\\})\\s*\\n?```")

// ParseResult interprets raw model text as either a Step or a final message.
// Priority: JSON code block, then a bare JSON object, then plain text. Empty
// output is malformed.
func ParseResult(text string) (*Result, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, &MalformedOutputError{Raw: text, Reason: "empty response"}
	}

	if m := codeBlockPattern.FindStringSubmatch(trimmed); len(m) >= 2 {
		step, err := parseStepJSON(m[1])
		if err != nil {
			return nil, &MalformedOutputError{Raw: text, Reason: err.Error()}
		}
		return &Result{Step: step, Message: rationaleAround(trimmed, m[0])}, nil
	}

	for _, obj := range findJSONObjects(trimmed) {
		if step, err := parseStepJSON(obj); err == nil {
			return &Result{Step: step, Message: rationaleAround(trimmed, obj)}, nil
		}
	}

	// No tool call found: plain text means the planner declared completion.
	return &Result{Message: trimmed}, nil
}

func parseStepJSON(jsonStr string) (*Step, error) {
	var raw stepFromText
	if err := json.Unmarshal([]byte(strings.TrimSpace(jsonStr)), &raw); err != nil {
		return nil, err
	}

	name := raw.Tool
	if name == "" {
		name = raw.Name
	}
	if name == "" {
		return nil, &MalformedOutputError{Raw: jsonStr, Reason: "tool call without a tool name"}
	}
	if raw.Args == nil {
		raw.Args = make(map[string]any)
	}
	return &Step{Tool: name, Args: raw.Args}, nil
}

// rationaleAround returns the text surrounding the tool call block, which
// models often use to explain the step.
func rationaleAround(full, block string) string {
	return strings.TrimSpace(strings.Replace(full, block, "", 1))
}

// findJSONObjects extracts balanced JSON objects that look like tool calls.
func findJSONObjects(text string) []string {
	var objects []string
	i := 0
	for i < len(text) {
		if text[i] != '{' {
			i++
			continue
		}
		depth := 0
		inString := false
		escaped := false
		j := i
		for j < len(text) {
			ch := text[j]
			if escaped {
				escaped = false
				j++
				continue
			}
			if ch == '\\' && inString {
				escaped = true
				j++
				continue
			}
			if ch == '"' {
				inString = !inString
			}
			if !inString {
				if ch == '{' {
					depth++
				} else if ch == '}' {
					depth--
					if depth == 0 {
						candidate := text[i : j+1]
						if strings.Contains(candidate, `"tool"`) || strings.Contains(candidate, `"name"`) {
							objects = append(objects, candidate)
						}
						break
					}
				}
			}
			j++
		}
		if depth != 0 {
			i++
			continue
		}
		i = j + 1
	}
	return objects
}
