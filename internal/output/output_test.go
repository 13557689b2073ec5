package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriter_Status_PrintsIconAndMessage(t *testing.T) {
	buf := &bytes.Buffer{}
	w := New(buf)

	w.Status("🔍", "indexing file.txt")

	output := buf.String()
	assert.Contains(t, output, "🔍")
	assert.Contains(t, output, "indexing file.txt")
}

func TestWriter_Status_EmptyIconIndents(t *testing.T) {
	buf := &bytes.Buffer{}
	w := New(buf)

	w.Status("", "no icon here")

	assert.Equal(t, "   no icon here\n", buf.String())
}

func TestWriter_Success_PrintsCheckmark(t *testing.T) {
	buf := &bytes.Buffer{}
	w := New(buf)

	w.Success("index complete")

	output := buf.String()
	assert.Contains(t, output, "✓")
	assert.Contains(t, output, "index complete")
}

func TestWriter_Successf_FormatsMessage(t *testing.T) {
	buf := &bytes.Buffer{}
	w := New(buf)

	w.Successf("indexed %d file(s)", 3)

	output := buf.String()
	assert.Contains(t, output, "✓")
	assert.Contains(t, output, "indexed 3 file(s)")
}
