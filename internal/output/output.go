// Package output delivers rendered documents to a file or a stream.
package output

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pmezard/go-difflib/difflib"
)

// Error reports a failure writing or reading the destination.
type Error struct {
	Op   string // mkdir, write, rename, read, stdout
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("output: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("output: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// DriftError means the destination exists but differs from the freshly
// rendered document.
type DriftError struct {
	Path string
	Diff string // unified diff, current file first
}

func (e *DriftError) Error() string {
	return fmt.Sprintf("output: %s is out of date", e.Path)
}

// Write stores content at path atomically: it is written to a temp file in
// the same directory and renamed over the destination. An empty path writes
// to stdout instead.
func Write(path string, content []byte, stdout io.Writer) error {
	if path == "" {
		if _, err := stdout.Write(content); err != nil {
			return &Error{Op: "stdout", Err: err}
		}
		return nil
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return &Error{Op: "resolve", Path: path, Err: err}
	}
	dir := filepath.Dir(abs)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &Error{Op: "mkdir", Path: dir, Err: err}
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(abs)+".tmp-*")
	if err != nil {
		return &Error{Op: "write", Path: abs, Err: err}
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return &Error{Op: "write", Path: abs, Err: err}
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return &Error{Op: "write", Path: abs, Err: err}
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		_ = os.Remove(tmpName)
		return &Error{Op: "write", Path: abs, Err: err}
	}
	if err := os.Rename(tmpName, abs); err != nil {
		_ = os.Remove(tmpName)
		return &Error{Op: "rename", Path: abs, Err: err}
	}
	return nil
}

// Check compares content with the file at path without touching it. It
// returns a *DriftError when they differ or the file is missing.
func Check(path string, content []byte) error {
	if path == "" {
		return &Error{Op: "check", Err: errors.New("a destination file is required")}
	}
	current, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return &Error{Op: "read", Path: path, Err: err}
	}
	if err == nil && bytes.Equal(current, content) {
		return nil
	}
	diff, derr := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(current)),
		B:        difflib.SplitLines(string(content)),
		FromFile: path,
		ToFile:   path + " (generated)",
		Context:  3,
	})
	if derr != nil {
		return &Error{Op: "diff", Path: path, Err: derr}
	}
	return &DriftError{Path: path, Diff: diff}
}
