package http

import (
	"fmt"
	"io"
	"strconv"
)

// Status codes the server emits.
const (
	StatusOK                  = 200
	StatusNotFound            = 404
	StatusMethodNotAllowed    = 405
	StatusTooManyRequests     = 429
	StatusInternalServerError = 500
)

// reasonPhrases maps the emitted status codes to their reason phrases.
var reasonPhrases = map[int]string{
	StatusOK:                  "OK",
	StatusNotFound:            "Not Found",
	StatusMethodNotAllowed:    "Method Not Allowed",
	StatusTooManyRequests:     "Too Many Requests",
	StatusInternalServerError: "Internal Server Error",
}

// ReasonPhrase returns the reason phrase for a status code.
func ReasonPhrase(code int) string {
	if reason, ok := reasonPhrases[code]; ok {
		return reason
	}
	return "Unknown"
}

// headerField is one response header. Headers keep insertion order on
// the wire, which keeps responses byte-stable for tests.
type headerField struct {
	key   string
	value string
}

// Response is one HTTP response under construction: status code, ordered
// headers, and a fully buffered body. Constructed fresh per request.
type Response struct {
	// Status is the HTTP status code.
	Status int

	headers []headerField

	// Body is the complete response body. No chunked encoding; the
	// Content-Length header always matches len(Body) exactly.
	Body []byte
}

// NewResponse creates a response with the given status and body and a
// matching Content-Length. contentType may be empty for bodyless
// responses.
func NewResponse(status int, contentType string, body []byte) *Response {
	resp := &Response{Status: status, Body: body}
	if contentType != "" {
		resp.SetHeader("Content-Type", contentType)
	}
	resp.SetHeader("Content-Length", strconv.Itoa(len(body)))
	return resp
}

// SetHeader sets a header, replacing an existing value in place so the
// original insertion position is preserved.
func (r *Response) SetHeader(key, value string) {
	for i := range r.headers {
		if r.headers[i].key == key {
			r.headers[i].value = value
			return
		}
	}
	r.headers = append(r.headers, headerField{key: key, value: value})
}

// Header returns the value for key, or "" when unset.
func (r *Response) Header(key string) string {
	for i := range r.headers {
		if r.headers[i].key == key {
			return r.headers[i].value
		}
	}
	return ""
}

// WriteTo serializes the response: status line, headers in insertion
// order, blank line, then exactly Content-Length body bytes.
func (r *Response) WriteTo(w io.Writer) (int64, error) {
	var buf []byte
	buf = fmt.Appendf(buf, "HTTP/1.1 %d %s\r\n", r.Status, ReasonPhrase(r.Status))
	for _, h := range r.headers {
		buf = fmt.Appendf(buf, "%s: %s\r\n", h.key, h.value)
	}
	buf = append(buf, '\r', '\n')
	buf = append(buf, r.Body...)

	n, err := w.Write(buf)
	return int64(n), err
}
