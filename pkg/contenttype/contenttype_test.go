package contenttype

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRestricted_Allowlist(t *testing.T) {
	c := New(ModeRestricted)

	tests := []struct {
		path     string
		wantType string
		wantOK   bool
	}{
		{"index.html", "text/html", true},
		{"page.HTM", "text/html", true},
		{"books.png", "image/png", true},
		{"book_1.pdf", "application/pdf", true},
		{"notes.txt", "", false},
		{"archive.zip", "", false},
		{"no-extension", "", false},
	}
	for _, tt := range tests {
		gotType, gotOK := c.Classify(tt.path)
		assert.Equal(t, tt.wantOK, gotOK, "path %q", tt.path)
		assert.Equal(t, tt.wantType, gotType, "path %q", tt.path)
	}
}

func TestPassthrough_KnownExtensions(t *testing.T) {
	c := New(ModePassthrough)

	mediaType, ok := c.Classify("notes.txt")
	assert.True(t, ok)
	assert.Equal(t, "text/plain", mediaType)
}

func TestPassthrough_UnknownFallsBackToOctetStream(t *testing.T) {
	c := New(ModePassthrough)

	// A path that does not exist cannot be sniffed either.
	mediaType, ok := c.Classify(filepath.Join(t.TempDir(), "mystery.xyz"))
	assert.True(t, ok)
	assert.Equal(t, OctetStream, mediaType)
}

func TestPassthrough_SniffsUnknownExtension(t *testing.T) {
	c := New(ModePassthrough)

	path := filepath.Join(t.TempDir(), "page.data")
	if err := os.WriteFile(path, []byte("<!DOCTYPE html><html></html>"), 0644); err != nil {
		t.Fatal(err)
	}

	mediaType, ok := c.Classify(path)
	assert.True(t, ok)
	assert.Contains(t, mediaType, "text/html")
}

func TestNew_UnknownModeBehavesAsPassthrough(t *testing.T) {
	c := New(Mode("whatever"))
	assert.Equal(t, ModePassthrough, c.Mode())
}
