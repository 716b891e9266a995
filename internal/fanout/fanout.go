// Package fanout writes one downloaded asset into every destination folder.
// Writes are idempotent: a byte-identical file already on disk is left alone,
// while a same-named file with different content is a conflict and is never
// overwritten.
package fanout

import (
	"os"
	"path/filepath"

	"packshot/internal/fileutil"
	"packshot/internal/services"
)

// Outcome classifies one folder write.
type Outcome int

const (
	OutcomeWritten Outcome = iota
	OutcomeAlreadyPresent
	OutcomeConflict
	OutcomeIOError
)

func (o Outcome) String() string {
	switch o {
	case OutcomeWritten:
		return "written"
	case OutcomeAlreadyPresent:
		return "already-present"
	case OutcomeConflict:
		return "conflict"
	case OutcomeIOError:
		return "io-error"
	default:
		return "unknown"
	}
}

// FolderResult is the outcome for one destination folder.
type FolderResult struct {
	Path    string
	Outcome Outcome
	Err     error
}

// Report aggregates one file's fan-out across all destination folders.
type Report struct {
	Filename string
	Results  []FolderResult
}

// Written counts folders where a new file landed.
func (r Report) Written() int {
	n := 0
	for _, result := range r.Results {
		if result.Outcome == OutcomeWritten {
			n++
		}
	}
	return n
}

// Failed returns the folder results that did not end with the file on disk.
func (r Report) Failed() []FolderResult {
	var failed []FolderResult
	for _, result := range r.Results {
		if result.Outcome == OutcomeConflict || result.Outcome == OutcomeIOError {
			failed = append(failed, result)
		}
	}
	return failed
}

// Write fans content out under filename into each folder, creating folders as
// needed. Every folder is attempted even when an earlier one fails; the
// report carries the per-folder outcomes.
func Write(content []byte, folders []string, filename string) Report {
	report := Report{Filename: filename}
	for _, folder := range folders {
		report.Results = append(report.Results, writeOne(content, folder, filename))
	}
	return report
}

func writeOne(content []byte, folder, filename string) FolderResult {
	result := FolderResult{Path: filepath.Join(folder, filename)}

	if err := os.MkdirAll(folder, 0o755); err != nil {
		result.Outcome = OutcomeIOError
		result.Err = services.Wrap(services.ErrConfiguration, "fanout", "write", "create folder "+folder, err)
		return result
	}

	if _, err := os.Stat(result.Path); err == nil {
		same, err := fileutil.SameContent(result.Path, content)
		if err != nil {
			result.Outcome = OutcomeIOError
			result.Err = services.Wrap(services.ErrConfiguration, "fanout", "write", "compare existing file", err)
			return result
		}
		if same {
			result.Outcome = OutcomeAlreadyPresent
			return result
		}
		result.Outcome = OutcomeConflict
		result.Err = services.Wrap(services.ErrWriteConflict, "fanout", "write", result.Path+" exists with different content", nil)
		return result
	} else if !os.IsNotExist(err) {
		result.Outcome = OutcomeIOError
		result.Err = services.Wrap(services.ErrConfiguration, "fanout", "write", "stat "+result.Path, err)
		return result
	}

	if err := fileutil.WriteAtomic(result.Path, content); err != nil {
		result.Outcome = OutcomeIOError
		result.Err = err
		return result
	}
	result.Outcome = OutcomeWritten
	return result
}
