package tools

import "testing"

func TestSplitCommandLine(t *testing.T) {
	cases := []struct {
		input string
		want  []string
	}{
		{"status --porcelain", []string{"status", "--porcelain"}},
		{`commit -m "fix the thing"`, []string{"commit", "-m", "fix the thing"}},
		{"log --format='%h %s'", []string{"log", "--format=%h %s"}},
		{"  diff   HEAD  ", []string{"diff", "HEAD"}},
		{`add ""`, []string{"add", ""}},
	}

	for _, tc := range cases {
		got, err := splitCommandLine(tc.input)
		if err != nil {
			t.Errorf("splitCommandLine(%q) failed: %v", tc.input, err)
			continue
		}
		if len(got) != len(tc.want) {
			t.Errorf("splitCommandLine(%q) = %v, want %v", tc.input, got, tc.want)
			continue
		}
		for i := range tc.want {
			if got[i] != tc.want[i] {
				t.Errorf("splitCommandLine(%q)[%d] = %q, want %q", tc.input, i, got[i], tc.want[i])
			}
		}
	}
}

func TestSplitCommandLine_UnterminatedQuote(t *testing.T) {
	if _, err := splitCommandLine(`commit -m "oops`); err == nil {
		t.Error("expected unterminated quote to be rejected")
	}
}

func TestGitTool_ValidateRequiresArgs(t *testing.T) {
	tool := NewGitTool(t.TempDir())
	if err := tool.Validate(map[string]any{}); err == nil {
		t.Error("expected missing args to be rejected")
	}
	if err := tool.Validate(map[string]any{"args": "   "}); err == nil {
		t.Error("expected blank args to be rejected")
	}
	if err := tool.Validate(map[string]any{"args": "status"}); err != nil {
		t.Errorf("valid args rejected: %v", err)
	}
}
