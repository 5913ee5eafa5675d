package planner

import (
	"errors"
	"testing"
)

func TestParseResult_JSONCodeBlock(t *testing.T) {
	text := "I will read the file first.\n```json\n{\"tool\": \"read_file\", \"args\": {\"path\": \"main.go\"}}\n```"

	result, err := ParseResult(text)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if result.Done() {
		t.Fatal("expected a step, got completion")
	}
	if result.Step.Tool != "read_file" {
		t.Errorf("tool = %s, want read_file", result.Step.Tool)
	}
	if result.Step.Args["path"] != "main.go" {
		t.Errorf("args path = %v, want main.go", result.Step.Args["path"])
	}
	if result.Message != "I will read the file first." {
		t.Errorf("surrounding text = %q", result.Message)
	}
}

func TestParseResult_CodeBlockWithoutLanguageTag(t *testing.T) {
	text := "```\n{\"tool\": \"list_dir\"}\n```"

	result, err := ParseResult(text)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if result.Step == nil || result.Step.Tool != "list_dir" {
		t.Fatalf("expected list_dir step, got %+v", result.Step)
	}
	if result.Step.Args == nil {
		t.Error("missing args must become an empty map")
	}
}

func TestParseResult_BareJSONObject(t *testing.T) {
	text := `Running the tests now. {"tool": "run_tests", "args": {"package": "./..."}}`

	result, err := ParseResult(text)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if result.Step == nil || result.Step.Tool != "run_tests" {
		t.Fatalf("expected run_tests step, got %+v", result.Step)
	}
}

func TestParseResult_NameAlias(t *testing.T) {
	text := "```json\n{\"name\": \"write_file\", \"args\": {\"path\": \"a.txt\", \"content\": \"x\"}}\n```"

	result, err := ParseResult(text)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if result.Step == nil || result.Step.Tool != "write_file" {
		t.Fatalf("expected write_file step, got %+v", result.Step)
	}
}

func TestParseResult_PlainTextIsCompletion(t *testing.T) {
	result, err := ParseResult("All requested changes are done.")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if !result.Done() {
		t.Error("plain text must be treated as completion")
	}
	if result.Message != "All requested changes are done." {
		t.Errorf("message = %q", result.Message)
	}
}

func TestParseResult_EmptyIsMalformed(t *testing.T) {
	_, err := ParseResult("   \n  ")
	if err == nil {
		t.Fatal("expected empty output to be malformed")
	}
	var malformed *MalformedOutputError
	if !errors.As(err, &malformed) {
		t.Errorf("expected MalformedOutputError, got %v", err)
	}
}

func TestParseResult_MalformedJSONInCodeBlock(t *testing.T) {
	_, err := ParseResult("```json\n{\"tool\": \"read_file\",}\n```")
	if err == nil {
		t.Fatal("expected invalid JSON in code block to be malformed")
	}
	var malformed *MalformedOutputError
	if !errors.As(err, &malformed) {
		t.Errorf("expected MalformedOutputError, got %v", err)
	}
}

func TestParseResult_JSONWithoutToolNameFallsThrough(t *testing.T) {
	// A bare object with no tool key is narration, not a tool call.
	result, err := ParseResult(`The config is {"verbose": true} by default.`)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if !result.Done() {
		t.Error("object without tool name must not become a step")
	}
}

func TestParseResult_NestedArgsSurviveExtraction(t *testing.T) {
	text := `{"tool": "edit_file", "args": {"path": "a.go", "old_string": "x{y}", "new_string": "z"}}`

	result, err := ParseResult(text)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if result.Step == nil {
		t.Fatal("expected a step")
	}
	if result.Step.Args["old_string"] != "x{y}" {
		t.Errorf("braces inside strings mangled: %v", result.Step.Args["old_string"])
	}
}
