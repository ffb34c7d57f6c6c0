// Package contenttype classifies served files into Content-Type values.
//
// Classification is by file extension first, which keeps behavior stable
// and independent of file contents. Two modes cover the two server
// variants: restricted mode serves only an allowlist of types and treats
// everything else as absent, passthrough mode serves any type and falls
// back to content sniffing, then application/octet-stream.
package contenttype

import (
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// OctetStream is the passthrough fallback for unclassifiable files.
const OctetStream = "application/octet-stream"

// Mode selects the classifier's gating behavior.
type Mode string

const (
	// ModeRestricted only serves text/html, image/png and
	// application/pdf; any other file is reported as not servable.
	ModeRestricted Mode = "restricted"

	// ModePassthrough serves everything, defaulting unknown types to
	// application/octet-stream.
	ModePassthrough Mode = "passthrough"
)

// byExtension maps lowercase extensions to media types.
var byExtension = map[string]string{
	".html": "text/html",
	".htm":  "text/html",
	".png":  "image/png",
	".pdf":  "application/pdf",
	".txt":  "text/plain",
	".css":  "text/css",
	".js":   "text/javascript",
	".json": "application/json",
	".xml":  "application/xml",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".svg":  "image/svg+xml",
	".ico":  "image/x-icon",
	".webp": "image/webp",
	".zip":  "application/zip",
	".gz":   "application/gzip",
	".mp3":  "audio/mpeg",
	".mp4":  "video/mp4",
}

// restrictedAllowlist is the set of types the restricted variant serves.
var restrictedAllowlist = map[string]bool{
	"text/html":       true,
	"image/png":       true,
	"application/pdf": true,
}

// Classifier resolves filesystem paths to Content-Type strings.
type Classifier struct {
	mode Mode
}

// New returns a classifier for the given mode. An unrecognized mode
// behaves as ModePassthrough.
func New(mode Mode) *Classifier {
	if mode != ModeRestricted {
		mode = ModePassthrough
	}
	return &Classifier{mode: mode}
}

// Mode returns the classifier's gating mode.
func (c *Classifier) Mode() Mode {
	return c.mode
}

// Classify returns the Content-Type for the file at path and whether the
// file is servable at all.
//
// Restricted mode: known allowlisted extension yields its type; anything
// else yields ("", false), which the caller converts to 404 even though
// the file exists.
//
// Passthrough mode: known extension yields its type; unknown extensions
// are sniffed from content, and on any sniffing failure the type
// defaults to application/octet-stream. Always servable.
func (c *Classifier) Classify(path string) (string, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	mediaType := byExtension[ext]

	if c.mode == ModeRestricted {
		if mediaType == "" || !restrictedAllowlist[mediaType] {
			return "", false
		}
		return mediaType, true
	}

	if mediaType != "" {
		return mediaType, true
	}

	if detected, err := mimetype.DetectFile(path); err == nil {
		return detected.String(), true
	}
	return OctetStream, true
}
