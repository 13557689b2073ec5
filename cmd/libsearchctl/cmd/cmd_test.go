package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// run executes the root command fresh (flags are package-level cobra
// state, so each invocation needs its own Command tree) and returns
// combined stdout/stderr.
func run(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	old, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	defer func() { _ = os.Chdir(old) }()

	root := NewRootCmd()
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func TestIndexThenQuery_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	doc := filepath.Join(dir, "hello.txt")
	require.NoError(t, os.WriteFile(doc, []byte("hello world"), 0o644))

	out, err := run(t, dir, "index", "hello.txt")
	require.NoError(t, err)
	assert.Contains(t, out, "indexed hello.txt")

	out, err = run(t, dir, "query", "hello")
	require.NoError(t, err)
	assert.Contains(t, out, "1 result(s)")
}

func TestQuery_NoDocumentsReturnsEmpty(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".libsearch"), 0o755))

	out, err := run(t, dir, "query", "nothing")
	require.NoError(t, err)
	assert.Contains(t, out, "0 result(s) of 0 total")
}

func TestErase_ThenQueryStillWorks(t *testing.T) {
	dir := t.TempDir()
	doc := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(doc, []byte("alpha beta"), 0o644))

	_, err := run(t, dir, "index", "a.txt")
	require.NoError(t, err)

	out, err := run(t, dir, "erase")
	require.NoError(t, err)
	assert.Contains(t, out, "index erased")

	out, err = run(t, dir, "query", "alpha")
	require.NoError(t, err)
	assert.Contains(t, out, "0 result(s)")
}

func TestVersionCmd_PrintsVersion(t *testing.T) {
	dir := t.TempDir()
	out, err := run(t, dir, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "libsearchctl")
}
