// Package http implements the minimal HTTP/1.1 wire handling the file
// server speaks: request-line parsing off a raw byte stream and response
// synthesis with insertion-ordered headers. Connections are one-shot
// (Connection: close); request bodies are never read.
package http

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// maxHeaderLines bounds how many header lines are drained per request so
// a hostile client cannot hold a connection open with an endless header
// section.
const maxHeaderLines = 128

// maxLineBytes bounds a single request or header line.
const maxLineBytes = 8192

// ErrMalformed reports a request line that does not parse as
// `METHOD SP path SP version`.
var ErrMalformed = errors.New("malformed request line")

// Request is one parsed HTTP request. Immutable once parsed; created per
// accepted connection and discarded after the response is written.
type Request struct {
	// Method is the HTTP method token, e.g. "GET".
	Method string

	// Path is the URL path with any query suffix stripped. Still
	// percent-encoded; decoding happens during path resolution.
	Path string

	// RawTarget is the request target exactly as received, query
	// included. Kept for logging.
	RawTarget string

	// Proto is the protocol version token, e.g. "HTTP/1.1".
	Proto string

	// RemoteAddr is the originating client address.
	RemoteAddr string
}

// ReadRequest parses one request off the stream: the request line, then
// header lines up to the terminating blank line. Headers are drained and
// discarded; the server does not act on any of them.
//
// io.EOF is returned unwrapped when the client closed without sending
// anything, so callers can distinguish a hung-up client from garbage.
func ReadRequest(r *bufio.Reader) (*Request, error) {
	line, err := readLine(r)
	if err != nil {
		if err == io.EOF && line == "" {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("reading request line: %w", err)
	}

	parts := strings.Fields(line)
	if len(parts) < 2 {
		return nil, ErrMalformed
	}

	req := &Request{
		Method:    parts[0],
		RawTarget: parts[1],
		Proto:     "HTTP/1.1",
	}
	if len(parts) >= 3 {
		req.Proto = parts[2]
	}

	req.Path = parts[1]
	if i := strings.IndexByte(req.Path, '?'); i >= 0 {
		req.Path = req.Path[:i]
	}

	if err := drainHeaders(r); err != nil {
		return nil, err
	}

	return req, nil
}

// drainHeaders reads header lines until the blank line that ends the
// header section, discarding them.
func drainHeaders(r *bufio.Reader) error {
	for i := 0; i < maxHeaderLines; i++ {
		line, err := readLine(r)
		if err != nil {
			return fmt.Errorf("reading headers: %w", err)
		}
		if line == "" {
			return nil
		}
	}
	return fmt.Errorf("header section exceeds %d lines", maxHeaderLines)
}

// readLine reads one CRLF- (or LF-) terminated line without the
// terminator. Reading stops as soon as maxLineBytes is exceeded, so an
// unterminated line cannot grow the buffer without bound.
func readLine(r *bufio.Reader) (string, error) {
	var line []byte
	for {
		chunk, err := r.ReadSlice('\n')
		line = append(line, chunk...)
		if len(line) > maxLineBytes {
			return "", fmt.Errorf("line exceeds %d bytes", maxLineBytes)
		}
		if err == bufio.ErrBufferFull {
			continue
		}
		return strings.TrimRight(string(line), "\r\n"), err
	}
}
