package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() {
		SetOutput(nopWriter{})
		SetLevel("INFO")
		SetFormat("text")
	})
	return &buf
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }

func TestLevelFiltering(t *testing.T) {
	buf := capture(t)
	SetLevel("WARN")

	Debug("debug %d", 1)
	Info("info %d", 2)
	Warn("warn %d", 3)
	Error("error %d", 4)

	out := buf.String()
	assert.NotContains(t, out, "debug 1")
	assert.NotContains(t, out, "info 2")
	assert.Contains(t, out, "[WARN] warn 3")
	assert.Contains(t, out, "[ERROR] error 4")
	assert.False(t, IsDebugEnabled())

	SetLevel("debug")
	assert.True(t, IsDebugEnabled())
}

func TestJSONFormat(t *testing.T) {
	buf := capture(t)
	SetFormat("json")

	Info("mounted %s", `M:\`)

	var line map[string]string
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &line))
	assert.Equal(t, "INFO", line["level"])
	assert.Equal(t, `mounted M:\`, line["msg"])
	assert.NotEmpty(t, line["time"])
}

func TestFatalExits(t *testing.T) {
	buf := capture(t)

	code := -1
	prev := exit
	exit = func(c int) { code = c }
	defer func() { exit = prev }()

	Fatal("driver gone")
	assert.Equal(t, 1, code)
	assert.Contains(t, buf.String(), "[FATAL] driver gone")
}
