package git

import "testing"

func TestDirtyFiles(t *testing.T) {
	s := Snapshot{
		IsRepo: true,
		Status: " M internal/agent/loop.go\n?? notes.txt\nR  old.go -> new.go",
	}

	files := s.DirtyFiles()
	want := []string{"internal/agent/loop.go", "notes.txt", "new.go"}
	if len(files) != len(want) {
		t.Fatalf("DirtyFiles returned %v, want %v", files, want)
	}
	for i := range want {
		if files[i] != want[i] {
			t.Errorf("files[%d] = %s, want %s", i, files[i], want[i])
		}
	}
}

func TestDirtyFiles_CleanTree(t *testing.T) {
	s := Snapshot{IsRepo: true}
	if files := s.DirtyFiles(); files != nil {
		t.Errorf("clean tree should yield nil, got %v", files)
	}
}

func TestTakeSnapshot_NotARepo(t *testing.T) {
	s := TakeSnapshot(t.TempDir())
	if s.IsRepo {
		t.Error("temp dir must not be detected as a repository")
	}
	if s.Branch != "" || s.Status != "" {
		t.Errorf("non-repo snapshot should be empty, got %+v", s)
	}
}
