package output

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrite_FileCreatesParentsAndReplaces(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "docs", "api.md")

	require.NoError(t, Write(path, []byte("one\n"), nil))
	require.NoError(t, Write(path, []byte("two\n"), nil))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "two\n", string(got))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestWrite_Stdout(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	require.NoError(t, Write("", []byte("doc"), &buf))
	assert.Equal(t, "doc", buf.String())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("closed") }

func TestWrite_Errors(t *testing.T) {
	t.Parallel()
	err := Write("", []byte("doc"), failingWriter{})
	var oe *Error
	require.True(t, errors.As(err, &oe))
	assert.Equal(t, "stdout", oe.Op)

	// A regular file where a directory is expected.
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))
	err = Write(filepath.Join(blocker, "api.md"), []byte("doc"), nil)
	require.True(t, errors.As(err, &oe))
	assert.Equal(t, "mkdir", oe.Op)
	assert.Contains(t, err.Error(), "output: mkdir")
}

func TestCheck(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "api.md")

	err := Check(path, []byte("a\n"))
	var drift *DriftError
	require.True(t, errors.As(err, &drift), "missing file counts as drift")
	assert.Contains(t, drift.Diff, "+a")

	require.NoError(t, os.WriteFile(path, []byte("a\nb\n"), 0o600))
	require.NoError(t, Check(path, []byte("a\nb\n")))

	err = Check(path, []byte("a\nc\n"))
	require.True(t, errors.As(err, &drift))
	assert.Equal(t, path, drift.Path)
	assert.Contains(t, drift.Diff, "-b")
	assert.Contains(t, drift.Diff, "+c")
	assert.Contains(t, drift.Error(), "out of date")

	// The file itself is untouched.
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a\nb\n", string(got))
}
