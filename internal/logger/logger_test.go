package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureOutput redirects logger output to a buffer for testing.
// Returns the buffer and a cleanup function to restore original output.
func captureOutput() (*bytes.Buffer, func()) {
	buf := new(bytes.Buffer)

	mu.Lock()
	originalOutput := output
	originalColor := useColor
	output = buf
	useColor = false // colors make assertions harder
	mu.Unlock()

	reconfigure()

	cleanup := func() {
		mu.Lock()
		output = originalOutput
		useColor = originalColor
		mu.Unlock()
		reconfigure()
	}

	return buf, cleanup
}

func TestLevelFiltering(t *testing.T) {
	buf, cleanup := captureOutput()
	defer cleanup()

	SetLevel("WARN")
	defer SetLevel("INFO")

	Debug("debug message")
	Info("info message")
	Warn("warn message")
	Error("error message")

	out := buf.String()
	assert.NotContains(t, out, "debug message")
	assert.NotContains(t, out, "info message")
	assert.Contains(t, out, "warn message")
	assert.Contains(t, out, "error message")
}

func TestStructuredFields(t *testing.T) {
	buf, cleanup := captureOutput()
	defer cleanup()

	Info("request served", KeyClientIP, "127.0.0.1", KeyStatus, 200)

	out := buf.String()
	assert.Contains(t, out, "request served")
	assert.Contains(t, out, "client_ip=127.0.0.1")
	assert.Contains(t, out, "status=200")
}

func TestJSONFormat(t *testing.T) {
	buf, cleanup := captureOutput()
	defer cleanup()

	SetFormat("json")
	defer SetFormat("text")

	Info("json message", KeyPath, "/public/book_1.pdf")

	line := strings.TrimSpace(buf.String())
	var record map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &record))
	assert.Equal(t, "json message", record["msg"])
	assert.Equal(t, "/public/book_1.pdf", record[KeyPath])
}

func TestInvalidLevelIgnored(t *testing.T) {
	SetLevel("INFO")
	SetLevel("NOPE")
	assert.Equal(t, LevelInfo, Level(currentLevel.Load()))
}

func TestInvalidFormatIgnored(t *testing.T) {
	SetFormat("text")
	SetFormat("xml")
	format, _ := currentFormat.Load().(string)
	assert.Equal(t, "text", format)
}
