package fileutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteFileAtomicReplacesContents(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	target := filepath.Join(dir, "balance_alice")

	for _, contents := range []string{"100", "80", "160"} {
		if err := WriteFileAtomic(target, []byte(contents), 0o600); err != nil {
			t.Fatalf("WriteFileAtomic(%q): %v", contents, err)
		}
		got, err := os.ReadFile(target)
		if err != nil {
			t.Fatalf("ReadFile: %v", err)
		}
		if string(got) != contents {
			t.Errorf("got %q, want %q", got, contents)
		}
	}

	info, err := os.Stat(target)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("permissions = %o, want 600", info.Mode().Perm())
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("temp files left behind: %v", entries)
	}
}

func TestWriteFileAtomicMissingDir(t *testing.T) {
	t.Parallel()

	err := WriteFileAtomic(filepath.Join(t.TempDir(), "missing", "x"), []byte("data"), 0o644)
	if err == nil {
		t.Error("expected error when the directory does not exist")
	}
}

func TestRemoveIfExists(t *testing.T) {
	t.Parallel()

	target := filepath.Join(t.TempDir(), "round_alice")
	if err := RemoveIfExists(target); err != nil {
		t.Errorf("removing a missing file should succeed: %v", err)
	}
	if err := os.WriteFile(target, []byte("{}"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := RemoveIfExists(target); err != nil {
		t.Fatalf("RemoveIfExists: %v", err)
	}
	if _, err := os.Stat(target); !os.IsNotExist(err) {
		t.Errorf("file still present: %v", err)
	}
}
