// Package webroot confines request paths to a served filesystem root.
//
// A Root maps URL paths onto the directory tree it was created for and
// guarantees that no resolved path escapes that tree, which is the sole
// defense against traversal requests like /../../etc/passwd.
package webroot

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"syscall"
)

// ErrRejected is returned for paths that cannot be safely resolved inside
// the served root: traversal escapes, undecodable percent-encoding, or
// control characters.
var ErrRejected = errors.New("path rejected")

// Kind classifies what a resolved path refers to.
type Kind int

const (
	// KindFile is a regular servable file.
	KindFile Kind = iota

	// KindDirectory is an existing directory; the caller decides between
	// an index file and a generated listing.
	KindDirectory

	// KindNotFound is a confined path that names nothing on disk.
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDirectory:
		return "directory"
	case KindNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Resolved is the outcome of a successful resolution: an absolute
// filesystem path guaranteed to be a descendant of the served root.
type Resolved struct {
	// Path is the canonical absolute filesystem path.
	Path string

	// Kind says whether Path is a file, a directory, or absent.
	Kind Kind
}

// Root is the canonical served root directory, fixed for the lifetime of
// a server instance. The zero value is unusable; construct with New.
type Root struct {
	path string
}

// New canonicalizes and validates the served root.
//
// Returns an error when the path does not exist or is not a directory.
// These are fatal startup conditions: a server must never come up on a
// root it cannot serve.
func New(path string) (*Root, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving served root %q: %w", path, err)
	}

	canon, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("served root %q does not exist: %w", path, err)
	}

	info, err := os.Stat(canon)
	if err != nil {
		return nil, fmt.Errorf("stat served root %q: %w", path, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("served root %q is not a directory", path)
	}

	return &Root{path: canon}, nil
}

// Path returns the canonical served root path.
func (r *Root) Path() string {
	return r.path
}

// Resolve maps a request URL path to a filesystem path confined to the
// served root.
//
// The path is percent-decoded, joined onto the root, and canonicalized
// (".", "..", and symlinks). If the canonical result is not a descendant
// of the root, ErrRejected is returned and no filesystem content is
// touched. An empty path resolves to the root directory; a trailing
// slash is ignored.
func (r *Root) Resolve(urlPath string) (Resolved, error) {
	decoded, err := url.PathUnescape(urlPath)
	if err != nil {
		return Resolved{}, fmt.Errorf("%w: bad percent-encoding", ErrRejected)
	}

	if containsControlBytes(decoded) {
		return Resolved{}, fmt.Errorf("%w: control characters in path", ErrRejected)
	}

	rel := strings.TrimPrefix(decoded, "/")
	candidate := filepath.Join(r.path, filepath.FromSlash(rel))

	// Join cleans ".." segments lexically, but a symlink inside the tree
	// can still point outside it. Canonicalize before the descendant check.
	canon, err := filepath.EvalSymlinks(candidate)
	if err != nil {
		// ENOTDIR means the path descends through a regular file
		// (/file.txt/sub); nothing exists at the requested path, same as
		// ENOENT.
		if os.IsNotExist(err) || errors.Is(err, syscall.ENOTDIR) {
			// Nothing on disk; the lexically cleaned candidate still has to
			// be confined before we report absence.
			if !r.contains(candidate) {
				return Resolved{}, ErrRejected
			}
			return Resolved{Path: candidate, Kind: KindNotFound}, nil
		}
		return Resolved{}, fmt.Errorf("canonicalizing %q: %w", urlPath, err)
	}

	if !r.contains(canon) {
		return Resolved{}, ErrRejected
	}

	info, err := os.Stat(canon)
	if err != nil {
		if os.IsNotExist(err) {
			return Resolved{Path: canon, Kind: KindNotFound}, nil
		}
		return Resolved{}, fmt.Errorf("stat %q: %w", canon, err)
	}

	kind := KindFile
	if info.IsDir() {
		kind = KindDirectory
	}
	return Resolved{Path: canon, Kind: kind}, nil
}

// contains reports whether p equals the root or lives beneath it.
func (r *Root) contains(p string) bool {
	if p == r.path {
		return true
	}
	return strings.HasPrefix(p, r.path+string(filepath.Separator))
}

// containsControlBytes reports whether s has NUL or other control bytes
// that have no business in a filesystem path.
func containsControlBytes(s string) bool {
	for _, c := range []byte(s) {
		if c < 0x20 || c == 0x7f {
			return true
		}
	}
	return false
}
