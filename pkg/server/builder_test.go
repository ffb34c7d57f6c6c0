package server

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpwire "github.com/MadalinaDev/PR-labs/internal/protocol/http"
	"github.com/MadalinaDev/PR-labs/pkg/contenttype"
	"github.com/MadalinaDev/PR-labs/pkg/counter"
	"github.com/MadalinaDev/PR-labs/pkg/webroot"
)

func newTestBuilder(t *testing.T, mode contenttype.Mode) *ResponseBuilder {
	t.Helper()

	hits, err := counter.New(counter.PolicyLocked, 0)
	require.NoError(t, err)

	return NewResponseBuilder(contenttype.New(mode), hits)
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestBuildFile(t *testing.T) {
	b := newTestBuilder(t, contenttype.ModePassthrough)
	dir := t.TempDir()
	fsPath := writeFile(t, dir, "page.html", "<html>hi</html>")

	resp, err := b.Build(webroot.Resolved{Path: fsPath, Kind: webroot.KindFile}, "/page.html")
	require.NoError(t, err)

	assert.Equal(t, httpwire.StatusOK, resp.Status)
	assert.Equal(t, "text/html", resp.Header("Content-Type"))
	assert.Equal(t, []byte("<html>hi</html>"), resp.Body)
}

func TestBuildFileRestrictedTypeReportsNotFound(t *testing.T) {
	b := newTestBuilder(t, contenttype.ModeRestricted)
	dir := t.TempDir()
	fsPath := writeFile(t, dir, "notes.txt", "plain text")

	resp, err := b.Build(webroot.Resolved{Path: fsPath, Kind: webroot.KindFile}, "/notes.txt")
	require.NoError(t, err)

	// The file exists but its type is outside the allowlist.
	assert.Equal(t, httpwire.StatusNotFound, resp.Status)
}

func TestBuildDirectoryServesIndex(t *testing.T) {
	b := newTestBuilder(t, contenttype.ModePassthrough)
	dir := t.TempDir()
	writeFile(t, dir, "index.html", "<html>front page</html>")
	writeFile(t, dir, "other.html", "<html>other</html>")

	resp, err := b.Build(webroot.Resolved{Path: dir, Kind: webroot.KindDirectory}, "/")
	require.NoError(t, err)

	assert.Equal(t, httpwire.StatusOK, resp.Status)
	assert.Equal(t, []byte("<html>front page</html>"), resp.Body)
}

func TestBuildListing(t *testing.T) {
	b := newTestBuilder(t, contenttype.ModePassthrough)
	dir := t.TempDir()
	writeFile(t, dir, "b.txt", "b")
	writeFile(t, dir, "a.txt", "a")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))

	resp, err := b.Build(webroot.Resolved{Path: dir, Kind: webroot.KindDirectory}, "/docs")
	require.NoError(t, err)

	assert.Equal(t, httpwire.StatusOK, resp.Status)
	assert.Equal(t, "text/html; charset=utf-8", resp.Header("Content-Type"))

	body := string(resp.Body)
	assert.Contains(t, body, "Directory listing for /docs")
	assert.Contains(t, body, `<a href="/docs/a.txt">a.txt</a>`)
	assert.Contains(t, body, `<a href="/docs/sub/">sub/</a>`)

	// Entries come out in name order.
	assert.Less(t, bytes.Index(resp.Body, []byte("a.txt")), bytes.Index(resp.Body, []byte("b.txt")))
}

func TestBuildListingIdempotent(t *testing.T) {
	b := newTestBuilder(t, contenttype.ModePassthrough)
	dir := t.TempDir()
	writeFile(t, dir, "one.txt", "1")
	writeFile(t, dir, "two.txt", "2")

	resolved := webroot.Resolved{Path: dir, Kind: webroot.KindDirectory}

	first, err := b.Build(resolved, "/")
	require.NoError(t, err)
	second, err := b.Build(resolved, "/")
	require.NoError(t, err)

	assert.Equal(t, first.Body, second.Body)
}

func TestBuildListingEscapesNames(t *testing.T) {
	b := newTestBuilder(t, contenttype.ModePassthrough)
	dir := t.TempDir()
	writeFile(t, dir, "<script>.txt", "x")
	writeFile(t, dir, "with space.txt", "y")

	resp, err := b.Build(webroot.Resolved{Path: dir, Kind: webroot.KindDirectory}, "/")
	require.NoError(t, err)

	body := string(resp.Body)
	assert.NotContains(t, body, "<script>.txt")
	assert.Contains(t, body, "&lt;script&gt;.txt")
	assert.Contains(t, body, `href="/with%20space.txt"`)
}

func TestBuildListingShowsCounts(t *testing.T) {
	hits, err := counter.New(counter.PolicyLocked, 0)
	require.NoError(t, err)
	b := NewResponseBuilder(contenttype.New(contenttype.ModePassthrough), hits)

	dir := t.TempDir()
	writeFile(t, dir, "popular.txt", "p")

	for i := 0; i < 3; i++ {
		hits.Increment("/popular.txt")
	}

	resp, err := b.Build(webroot.Resolved{Path: dir, Kind: webroot.KindDirectory}, "/")
	require.NoError(t, err)

	assert.Contains(t, string(resp.Body), "popular.txt</a> - Requests: 3")
}

func TestBuildNotFoundKind(t *testing.T) {
	b := newTestBuilder(t, contenttype.ModePassthrough)

	resp, err := b.Build(webroot.Resolved{Kind: webroot.KindNotFound}, "/missing")
	require.NoError(t, err)

	assert.Equal(t, httpwire.StatusNotFound, resp.Status)
	assert.Contains(t, string(resp.Body), "404 Not Found")
}

func TestErrorResponses(t *testing.T) {
	b := newTestBuilder(t, contenttype.ModePassthrough)

	t.Run("method not allowed has no body", func(t *testing.T) {
		resp := b.MethodNotAllowed()
		assert.Equal(t, httpwire.StatusMethodNotAllowed, resp.Status)
		assert.Empty(t, resp.Body)
		assert.Equal(t, "0", resp.Header("Content-Length"))
	})

	t.Run("rate limited", func(t *testing.T) {
		resp := b.RateLimited()
		assert.Equal(t, httpwire.StatusTooManyRequests, resp.Status)
		assert.Equal(t, "Rate limit exceeded\n", string(resp.Body))
	})

	t.Run("internal error carries message", func(t *testing.T) {
		resp := b.InternalError(assert.AnError)
		assert.Equal(t, httpwire.StatusInternalServerError, resp.Status)
		assert.Contains(t, string(resp.Body), assert.AnError.Error())
	})
}
