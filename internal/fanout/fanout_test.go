package fanout_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"packshot/internal/fanout"
	"packshot/internal/services"
)

func TestWriteCreatesEveryFolder(t *testing.T) {
	base := t.TempDir()
	folders := []string{
		filepath.Join(base, "B01AAAA111"),
		filepath.Join(base, "B01BBBB222"),
	}
	content := []byte("jpeg-bytes")

	report := fanout.Write(content, folders, "B01AAAA111.MAIN.jpeg")

	if report.Written() != 2 {
		t.Fatalf("Written = %d, want 2", report.Written())
	}
	if failed := report.Failed(); len(failed) != 0 {
		t.Fatalf("Failed = %+v", failed)
	}
	for _, folder := range folders {
		got, err := os.ReadFile(filepath.Join(folder, "B01AAAA111.MAIN.jpeg"))
		if err != nil {
			t.Fatalf("read %s: %v", folder, err)
		}
		if string(got) != "jpeg-bytes" {
			t.Fatalf("content = %q", got)
		}
	}
}

func TestWriteIsIdempotentForIdenticalContent(t *testing.T) {
	base := t.TempDir()
	folders := []string{filepath.Join(base, "774422")}
	content := []byte("jpeg-bytes")

	first := fanout.Write(content, folders, "774422_EA_en_na_left_na.jpg")
	if first.Written() != 1 {
		t.Fatalf("first Written = %d", first.Written())
	}

	second := fanout.Write(content, folders, "774422_EA_en_na_left_na.jpg")
	if second.Written() != 0 {
		t.Fatalf("second Written = %d, want 0", second.Written())
	}
	if second.Results[0].Outcome != fanout.OutcomeAlreadyPresent {
		t.Fatalf("Outcome = %s, want already-present", second.Results[0].Outcome)
	}
}

func TestWriteNeverOverwritesDifferentContent(t *testing.T) {
	base := t.TempDir()
	folder := filepath.Join(base, "068100084245")
	fanout.Write([]byte("original"), []string{folder}, "068100084245-main.jpg")

	report := fanout.Write([]byte("different"), []string{folder}, "068100084245-main.jpg")

	result := report.Results[0]
	if result.Outcome != fanout.OutcomeConflict {
		t.Fatalf("Outcome = %s, want conflict", result.Outcome)
	}
	if !errors.Is(result.Err, services.ErrWriteConflict) {
		t.Fatalf("Err = %v, want ErrWriteConflict", result.Err)
	}

	got, err := os.ReadFile(filepath.Join(folder, "068100084245-main.jpg"))
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(got) != "original" {
		t.Fatalf("file was overwritten: %q", got)
	}
}

func TestWriteContinuesPastFailedFolder(t *testing.T) {
	base := t.TempDir()
	blocked := filepath.Join(base, "blocked")
	// A regular file where a folder should be makes MkdirAll fail.
	if err := os.WriteFile(blocked, []byte("x"), 0o644); err != nil {
		t.Fatalf("write blocker: %v", err)
	}
	good := filepath.Join(base, "good")

	report := fanout.Write([]byte("jpeg-bytes"), []string{blocked, good}, "file.jpg")

	if report.Written() != 1 {
		t.Fatalf("Written = %d, want the good folder only", report.Written())
	}
	failed := report.Failed()
	if len(failed) != 1 || failed[0].Outcome != fanout.OutcomeIOError {
		t.Fatalf("Failed = %+v", failed)
	}
}
