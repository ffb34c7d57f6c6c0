package webroot

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestRoot builds a served tree:
//
//	root/
//	  index.html
//	  public/
//	    book_1.pdf
//	  secret-sibling (outside the root)
func newTestRoot(t *testing.T) (*Root, string) {
	t.Helper()

	base := t.TempDir()
	rootDir := filepath.Join(base, "www")
	require.NoError(t, os.MkdirAll(filepath.Join(rootDir, "public"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(rootDir, "index.html"), []byte("<html></html>"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(rootDir, "public", "book_1.pdf"), []byte("%PDF-1.4"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(base, "secret-sibling"), []byte("outside"), 0644))

	root, err := New(rootDir)
	require.NoError(t, err)
	return root, base
}

func TestNew_MissingRoot(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestNew_RootIsFile(t *testing.T) {
	base := t.TempDir()
	file := filepath.Join(base, "afile")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))

	_, err := New(file)
	assert.ErrorContains(t, err, "not a directory")
}

func TestResolve_File(t *testing.T) {
	root, _ := newTestRoot(t)

	res, err := root.Resolve("/public/book_1.pdf")
	require.NoError(t, err)
	assert.Equal(t, KindFile, res.Kind)
	assert.Equal(t, filepath.Join(root.Path(), "public", "book_1.pdf"), res.Path)
}

func TestResolve_PercentEncoded(t *testing.T) {
	root, _ := newTestRoot(t)

	res, err := root.Resolve("/public/book%5F1.pdf")
	require.NoError(t, err)
	assert.Equal(t, KindFile, res.Kind)
}

func TestResolve_EmptyPathIsRoot(t *testing.T) {
	root, _ := newTestRoot(t)

	for _, p := range []string{"", "/"} {
		res, err := root.Resolve(p)
		require.NoError(t, err, "path %q", p)
		assert.Equal(t, KindDirectory, res.Kind)
		assert.Equal(t, root.Path(), res.Path)
	}
}

func TestResolve_TrailingSlashIgnored(t *testing.T) {
	root, _ := newTestRoot(t)

	res, err := root.Resolve("/public/")
	require.NoError(t, err)
	assert.Equal(t, KindDirectory, res.Kind)
}

func TestResolve_Traversal(t *testing.T) {
	root, _ := newTestRoot(t)

	traversals := []string{
		"/../secret-sibling",
		"/../../etc/passwd",
		"/public/../../secret-sibling",
		"/..%2f..%2fetc%2fpasswd",
		"/%2e%2e/%2e%2e/etc/passwd",
	}
	for _, p := range traversals {
		_, err := root.Resolve(p)
		assert.ErrorIs(t, err, ErrRejected, "path %q escaped the root", p)
	}
}

func TestResolve_SymlinkEscape(t *testing.T) {
	root, base := newTestRoot(t)

	link := filepath.Join(root.Path(), "escape")
	if err := os.Symlink(filepath.Join(base, "secret-sibling"), link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	_, err := root.Resolve("/escape")
	assert.ErrorIs(t, err, ErrRejected)
}

func TestResolve_ControlBytes(t *testing.T) {
	root, _ := newTestRoot(t)

	for _, p := range []string{"/public/%00book", "/bad\x01name", "/%0a"} {
		_, err := root.Resolve(p)
		assert.ErrorIs(t, err, ErrRejected, "path %q", p)
	}
}

func TestResolve_NotFound(t *testing.T) {
	root, _ := newTestRoot(t)

	res, err := root.Resolve("/public/missing.pdf")
	require.NoError(t, err)
	assert.Equal(t, KindNotFound, res.Kind)
}

func TestResolve_PathThroughFile(t *testing.T) {
	root, _ := newTestRoot(t)

	// Descending through a regular file is absence, not an internal error.
	for _, p := range []string{"/index.html/sub", "/public/book_1.pdf/x/y"} {
		res, err := root.Resolve(p)
		require.NoError(t, err, "path %q", p)
		assert.Equal(t, KindNotFound, res.Kind, "path %q", p)
	}
}

func TestResolve_NotFoundStaysConfined(t *testing.T) {
	root, _ := newTestRoot(t)

	// Missing paths containing ".." must still be rejected, not reported
	// as absent somewhere outside the root.
	_, err := root.Resolve("/missing/../../outside")
	assert.ErrorIs(t, err, ErrRejected)
}
