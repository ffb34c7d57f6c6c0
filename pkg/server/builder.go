package server

import (
	"fmt"
	"html"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	httpwire "github.com/MadalinaDev/PR-labs/internal/protocol/http"
	"github.com/MadalinaDev/PR-labs/pkg/contenttype"
	"github.com/MadalinaDev/PR-labs/pkg/counter"
	"github.com/MadalinaDev/PR-labs/pkg/webroot"
)

// indexFileName is served in place of a listing when present in a
// requested directory.
const indexFileName = "index.html"

// htmlUTF8 is the Content-Type for generated pages (listings, error
// bodies). File responses carry the classifier's bare media type.
const htmlUTF8 = "text/html; charset=utf-8"

// ResponseBuilder renders resolved paths into complete HTTP responses:
// file content, directory listings, or error pages.
type ResponseBuilder struct {
	classifier *contenttype.Classifier

	// hits supplies the per-path counts shown in directory listings.
	hits counter.Counter
}

// NewResponseBuilder creates a builder over the given content-type
// classifier and shared hit counter.
func NewResponseBuilder(classifier *contenttype.Classifier, hits counter.Counter) *ResponseBuilder {
	return &ResponseBuilder{classifier: classifier, hits: hits}
}

// Build renders the response for a confined resolved path.
//
// Directories are served as their index.html when one exists, otherwise
// as a generated listing. Files whose type the classifier refuses (the
// restricted variant) are reported as absent even though they exist.
func (b *ResponseBuilder) Build(resolved webroot.Resolved, urlPath string) (*httpwire.Response, error) {
	switch resolved.Kind {
	case webroot.KindNotFound:
		return b.NotFound(), nil

	case webroot.KindDirectory:
		index := filepath.Join(resolved.Path, indexFileName)
		if info, err := os.Stat(index); err == nil && !info.IsDir() {
			return b.buildFile(index)
		}
		return b.buildListing(resolved.Path, urlPath)

	case webroot.KindFile:
		return b.buildFile(resolved.Path)

	default:
		return nil, fmt.Errorf("unexpected resolution kind %v", resolved.Kind)
	}
}

// buildFile reads the whole file and wraps it in a 200 with its
// classified content type and exact length.
func (b *ResponseBuilder) buildFile(fsPath string) (*httpwire.Response, error) {
	mediaType, servable := b.classifier.Classify(fsPath)
	if !servable {
		// Restricted variant: unsupported types 404 even though the
		// file exists.
		return b.NotFound(), nil
	}

	content, err := os.ReadFile(fsPath)
	if err != nil {
		if os.IsNotExist(err) {
			return b.NotFound(), nil
		}
		return nil, fmt.Errorf("reading %q: %w", fsPath, err)
	}

	return httpwire.NewResponse(httpwire.StatusOK, mediaType, content), nil
}

// buildListing renders an HTML page enumerating a directory's immediate
// children in name-sorted order. Entry names and the echoed request
// path are escaped before embedding; file names are attacker-influenced
// text as far as the page is concerned.
func (b *ResponseBuilder) buildListing(dirPath, urlPath string) (*httpwire.Response, error) {
	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return nil, fmt.Errorf("listing %q: %w", dirPath, err)
	}

	displayPath := html.EscapeString(path.Join("/", urlPath))

	var sb strings.Builder
	fmt.Fprintf(&sb, "<html><head><meta charset=\"utf-8\"><title>Directory listing for %s</title></head>\n", displayPath)
	fmt.Fprintf(&sb, "<body><h2>Directory listing for %s</h2><hr><ul>\n", displayPath)

	// os.ReadDir returns entries sorted by name, which keeps repeated
	// listings byte-identical for an unchanged directory.
	for _, entry := range entries {
		displayName := entry.Name()
		if entry.IsDir() {
			displayName += "/"
		}

		childPath := path.Join("/", urlPath, entry.Name())
		href := (&url.URL{Path: childPath}).EscapedPath()
		if entry.IsDir() {
			href += "/"
		}

		fmt.Fprintf(&sb, "<li><a href=\"%s\">%s</a> - Requests: %d</li>\n",
			href, html.EscapeString(displayName), b.hits.Get(childPath))
	}

	sb.WriteString("</ul><hr></body></html>\n")

	return httpwire.NewResponse(httpwire.StatusOK, htmlUTF8, []byte(sb.String())), nil
}

// NotFound builds the minimal 404 page.
func (b *ResponseBuilder) NotFound() *httpwire.Response {
	body := []byte("<html><body><h1>404 Not Found</h1></body></html>")
	return httpwire.NewResponse(httpwire.StatusNotFound, htmlUTF8, body)
}

// MethodNotAllowed builds the empty-bodied 405.
func (b *ResponseBuilder) MethodNotAllowed() *httpwire.Response {
	return httpwire.NewResponse(httpwire.StatusMethodNotAllowed, "", nil)
}

// RateLimited builds the plain-text 429.
func (b *ResponseBuilder) RateLimited() *httpwire.Response {
	return httpwire.NewResponse(httpwire.StatusTooManyRequests, "text/plain; charset=utf-8", []byte("Rate limit exceeded\n"))
}

// InternalError builds a 500 carrying the failure's text.
func (b *ResponseBuilder) InternalError(err error) *httpwire.Response {
	return httpwire.NewResponse(httpwire.StatusInternalServerError, "text/plain; charset=utf-8", []byte(err.Error()))
}
