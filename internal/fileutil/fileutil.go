// Package fileutil holds small filesystem helpers shared by the write paths.
package fileutil

import (
	"bytes"
	"os"
	"path/filepath"

	"packshot/internal/services"
)

// WriteAtomic writes content to path via a temp file in the same directory
// plus rename, so a crash mid-write never leaves a truncated file behind.
func WriteAtomic(path string, content []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "fileutil", "write", "create temp file in "+dir, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return services.Wrap(services.ErrConfiguration, "fileutil", "write", "write temp file", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return services.Wrap(services.ErrConfiguration, "fileutil", "write", "close temp file", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return services.Wrap(services.ErrConfiguration, "fileutil", "write", "rename into place", err)
	}
	return nil
}

// SameContent reports whether the file at path holds exactly content.
func SameContent(path string, content []byte) (bool, error) {
	existing, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}
	return bytes.Equal(existing, content), nil
}
