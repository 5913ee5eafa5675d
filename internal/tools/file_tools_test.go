package tools

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTestFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}
}

func readTestFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read file: %v", err)
	}
	return string(data)
}

// applyReverse dispatches an outcome's reverse payload the way the undo
// manager would.
func applyReverse(t *testing.T, workDir string, outcome Outcome) Outcome {
	t.Helper()
	if outcome.Reverse == nil {
		t.Fatal("expected a reverse payload")
	}
	restore := NewRestoreTool(workDir)
	if restore.Name() != outcome.Reverse.Tool {
		t.Fatalf("reverse payload names %s, expected %s", outcome.Reverse.Tool, restore.Name())
	}
	result, err := restore.Execute(context.Background(), outcome.Reverse.Args)
	if err != nil {
		t.Fatalf("restore execution error: %v", err)
	}
	return result
}

func TestWriteTool_OverwriteThenRestore(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	writeTestFile(t, path, "original")

	tool := NewWriteTool(dir)
	outcome, err := tool.Execute(context.Background(), map[string]any{
		"path":    path,
		"content": "replacement",
	})
	if err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if !outcome.Success {
		t.Fatalf("write not successful: %s", outcome.Message)
	}
	if got := readTestFile(t, path); got != "replacement" {
		t.Errorf("file content = %q, want %q", got, "replacement")
	}

	result := applyReverse(t, dir, outcome)
	if !result.Success {
		t.Fatalf("restore not successful: %s", result.Message)
	}
	if got := readTestFile(t, path); got != "original" {
		t.Errorf("restored content = %q, want %q", got, "original")
	}
}

func TestWriteTool_CreateThenRestoreRemovesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fresh.txt")

	tool := NewWriteTool(dir)
	outcome, err := tool.Execute(context.Background(), map[string]any{
		"path":    path,
		"content": "hello",
	})
	if err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if !outcome.Success {
		t.Fatalf("write not successful: %s", outcome.Message)
	}

	result := applyReverse(t, dir, outcome)
	if !result.Success {
		t.Fatalf("restore not successful: %s", result.Message)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("expected file to be removed by restore")
	}
}

func TestEditTool_ReplaceThenRestore(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main.go")
	writeTestFile(t, path, "package main\n\nfunc run() {}\n")

	tool := NewEditTool(dir)
	outcome, err := tool.Execute(context.Background(), map[string]any{
		"path":       path,
		"old_string": "func run() {}",
		"new_string": "func run() error { return nil }",
	})
	if err != nil {
		t.Fatalf("edit failed: %v", err)
	}
	if !outcome.Success {
		t.Fatalf("edit not successful: %s", outcome.Message)
	}
	if !strings.Contains(readTestFile(t, path), "return nil") {
		t.Error("edit did not apply replacement")
	}

	result := applyReverse(t, dir, outcome)
	if !result.Success {
		t.Fatalf("restore not successful: %s", result.Message)
	}
	if got := readTestFile(t, path); got != "package main\n\nfunc run() {}\n" {
		t.Errorf("restored content = %q", got)
	}
}

func TestEditTool_AmbiguousMatchFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dup.txt")
	writeTestFile(t, path, "token\ntoken\n")

	tool := NewEditTool(dir)
	outcome, err := tool.Execute(context.Background(), map[string]any{
		"path":       path,
		"old_string": "token",
		"new_string": "value",
	})
	if err != nil {
		t.Fatalf("edit returned error: %v", err)
	}
	if outcome.Success {
		t.Fatal("expected ambiguous match to fail")
	}
	if got := readTestFile(t, path); got != "token\ntoken\n" {
		t.Error("failed edit must not modify the file")
	}
}

func TestEditTool_ReplaceAll(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dup.txt")
	writeTestFile(t, path, "token\ntoken\n")

	tool := NewEditTool(dir)
	outcome, err := tool.Execute(context.Background(), map[string]any{
		"path":        path,
		"old_string":  "token",
		"new_string":  "value",
		"replace_all": true,
	})
	if err != nil {
		t.Fatalf("edit failed: %v", err)
	}
	if !outcome.Success {
		t.Fatalf("edit not successful: %s", outcome.Message)
	}
	if got := readTestFile(t, path); got != "value\nvalue\n" {
		t.Errorf("content after replace_all = %q", got)
	}
}

func TestEditTool_ValidateRejectsEmptyOldString(t *testing.T) {
	tool := NewEditTool(t.TempDir())
	err := tool.Validate(map[string]any{
		"path":       "a.txt",
		"old_string": "",
		"new_string": "x",
	})
	if err == nil {
		t.Error("expected validation to reject empty old_string")
	}
}

func TestClearTool_ClearThenRestore(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "log.txt")
	writeTestFile(t, path, "line one\nline two\n")

	tool := NewClearTool(dir)
	outcome, err := tool.Execute(context.Background(), map[string]any{"path": path})
	if err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	if !outcome.Success {
		t.Fatalf("clear not successful: %s", outcome.Message)
	}
	if got := readTestFile(t, path); got != "" {
		t.Errorf("file not emptied, content = %q", got)
	}

	result := applyReverse(t, dir, outcome)
	if !result.Success {
		t.Fatalf("restore not successful: %s", result.Message)
	}
	if got := readTestFile(t, path); got != "line one\nline two\n" {
		t.Errorf("restored content = %q", got)
	}
}

func TestDeleteTool_DeleteThenRestore(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "victim.txt")
	writeTestFile(t, path, "contents")

	tool := NewDeleteTool(dir)
	outcome, err := tool.Execute(context.Background(), map[string]any{"path": path})
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if !outcome.Success {
		t.Fatalf("delete not successful: %s", outcome.Message)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("file still exists after delete")
	}

	result := applyReverse(t, dir, outcome)
	if !result.Success {
		t.Fatalf("restore not successful: %s", result.Message)
	}
	if got := readTestFile(t, path); got != "contents" {
		t.Errorf("restored content = %q, want %q", got, "contents")
	}
}

func TestDeleteTool_RefusesDirectories(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "pkg")
	if err := os.Mkdir(sub, 0755); err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}

	tool := NewDeleteTool(dir)
	outcome, err := tool.Execute(context.Background(), map[string]any{"path": sub})
	if err != nil {
		t.Fatalf("delete returned error: %v", err)
	}
	if outcome.Success {
		t.Fatal("expected delete of directory to be refused")
	}
	if _, err := os.Stat(sub); err != nil {
		t.Error("directory should be untouched")
	}
}

func TestMkdirTool_CreateThenRestore(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "newpkg")

	tool := NewMkdirTool(dir)
	outcome, err := tool.Execute(context.Background(), map[string]any{"path": path})
	if err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}
	if !outcome.Success {
		t.Fatalf("mkdir not successful: %s", outcome.Message)
	}
	if info, err := os.Stat(path); err != nil || !info.IsDir() {
		t.Fatal("directory not created")
	}

	result := applyReverse(t, dir, outcome)
	if !result.Success {
		t.Fatalf("restore not successful: %s", result.Message)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("expected empty directory to be removed by restore")
	}
}

func TestMkdirTool_ExistingDirHasNoReverse(t *testing.T) {
	dir := t.TempDir()

	tool := NewMkdirTool(dir)
	outcome, err := tool.Execute(context.Background(), map[string]any{"path": dir})
	if err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}
	if !outcome.Success {
		t.Fatalf("mkdir not successful: %s", outcome.Message)
	}
	if outcome.Reverse != nil {
		t.Error("no-op mkdir must not carry a reverse payload")
	}
}

func TestCopyTool_CopyThenRestore(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.txt")
	dst := filepath.Join(dir, "dst.txt")
	writeTestFile(t, src, "payload")

	tool := NewCopyTool(dir)
	outcome, err := tool.Execute(context.Background(), map[string]any{
		"source":      src,
		"destination": dst,
	})
	if err != nil {
		t.Fatalf("copy failed: %v", err)
	}
	if !outcome.Success {
		t.Fatalf("copy not successful: %s", outcome.Message)
	}
	if got := readTestFile(t, dst); got != "payload" {
		t.Errorf("destination content = %q", got)
	}

	result := applyReverse(t, dir, outcome)
	if !result.Success {
		t.Fatalf("restore not successful: %s", result.Message)
	}
	if _, err := os.Stat(dst); !os.IsNotExist(err) {
		t.Error("expected copied file to be removed by restore")
	}
	if got := readTestFile(t, src); got != "payload" {
		t.Error("source must be untouched by restore")
	}
}

func TestMoveTool_MoveIsItsOwnInverse(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "old.txt")
	dst := filepath.Join(dir, "new.txt")
	writeTestFile(t, src, "payload")

	tool := NewMoveTool(dir)
	outcome, err := tool.Execute(context.Background(), map[string]any{
		"source":      src,
		"destination": dst,
	})
	if err != nil {
		t.Fatalf("move failed: %v", err)
	}
	if !outcome.Success {
		t.Fatalf("move not successful: %s", outcome.Message)
	}
	if outcome.Reverse == nil || outcome.Reverse.Tool != tool.Name() {
		t.Fatalf("move reverse must be another move, got %+v", outcome.Reverse)
	}

	reversed, err := tool.Execute(context.Background(), outcome.Reverse.Args)
	if err != nil {
		t.Fatalf("reverse move failed: %v", err)
	}
	if !reversed.Success {
		t.Fatalf("reverse move not successful: %s", reversed.Message)
	}
	if got := readTestFile(t, src); got != "payload" {
		t.Errorf("content after undo = %q", got)
	}
	if _, err := os.Stat(dst); !os.IsNotExist(err) {
		t.Error("destination should be gone after undo")
	}
}

func TestMoveTool_RefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.txt")
	dst := filepath.Join(dir, "b.txt")
	writeTestFile(t, src, "a")
	writeTestFile(t, dst, "b")

	tool := NewMoveTool(dir)
	outcome, err := tool.Execute(context.Background(), map[string]any{
		"source":      src,
		"destination": dst,
	})
	if err != nil {
		t.Fatalf("move returned error: %v", err)
	}
	if outcome.Success {
		t.Fatal("expected move onto an existing path to be refused")
	}
	if got := readTestFile(t, dst); got != "b" {
		t.Error("refused move must not touch the destination")
	}
}

func TestReadTool_PathOutsideWorkspace(t *testing.T) {
	dir := t.TempDir()
	tool := NewReadTool(dir)

	outcome, err := tool.Execute(context.Background(), map[string]any{
		"path": "/etc/passwd",
	})
	if err != nil {
		t.Fatalf("read returned error: %v", err)
	}
	if outcome.Success {
		t.Error("expected path outside workspace to be rejected")
	}
}

func TestRestorePayload_ArgsShape(t *testing.T) {
	p := RestorePayload("/tmp/x.txt", []byte("old"), true)
	if p.Tool != "restore_file" {
		t.Errorf("payload tool = %s", p.Tool)
	}
	if p.Args["path"] != "/tmp/x.txt" {
		t.Errorf("payload path = %v", p.Args["path"])
	}
	if p.Args["existed"] != true {
		t.Error("payload should mark file as existed")
	}
	if p.Args["content"] != "old" {
		t.Errorf("payload content = %v", p.Args["content"])
	}

	absent := RestorePayload("/tmp/new.txt", nil, false)
	if absent.Args["existed"] != false {
		t.Error("payload should mark file as absent")
	}
	if _, ok := absent.Args["content"]; ok {
		t.Error("absent file payload must not carry content")
	}
}
