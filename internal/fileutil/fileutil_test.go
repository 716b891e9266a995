package fileutil_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"packshot/internal/fileutil"
)

func TestWriteAtomicLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "asset.jpg")

	if err := fileutil.WriteAtomic(path, []byte("payload")); err != nil {
		t.Fatalf("WriteAtomic: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(got) != "payload" {
		t.Fatalf("content = %q", got)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	for _, entry := range entries {
		if strings.Contains(entry.Name(), ".tmp-") {
			t.Fatalf("temp file left behind: %s", entry.Name())
		}
	}
}

func TestWriteAtomicReplacesExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "asset.jpg")
	if err := fileutil.WriteAtomic(path, []byte("one")); err != nil {
		t.Fatalf("WriteAtomic: %v", err)
	}
	if err := fileutil.WriteAtomic(path, []byte("two")); err != nil {
		t.Fatalf("WriteAtomic second: %v", err)
	}
	got, _ := os.ReadFile(path)
	if string(got) != "two" {
		t.Fatalf("content = %q", got)
	}
}

func TestSameContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "asset.jpg")
	if err := os.WriteFile(path, []byte("payload"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	same, err := fileutil.SameContent(path, []byte("payload"))
	if err != nil || !same {
		t.Fatalf("SameContent = %v, %v; want true", same, err)
	}
	same, err = fileutil.SameContent(path, []byte("other"))
	if err != nil || same {
		t.Fatalf("SameContent = %v, %v; want false", same, err)
	}
	if _, err := fileutil.SameContent(filepath.Join(dir, "missing"), nil); err == nil {
		t.Fatal("expected error for missing file")
	}
}
