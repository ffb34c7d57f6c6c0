package http

import (
	"bufio"
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readFrom(s string) (*Request, error) {
	return ReadRequest(bufio.NewReader(strings.NewReader(s)))
}

func TestReadRequest_Basic(t *testing.T) {
	req, err := readFrom("GET /public/book_1.pdf HTTP/1.1\r\nHost: localhost\r\n\r\n")
	require.NoError(t, err)

	assert.Equal(t, "GET", req.Method)
	assert.Equal(t, "/public/book_1.pdf", req.Path)
	assert.Equal(t, "HTTP/1.1", req.Proto)
}

func TestReadRequest_QueryStripped(t *testing.T) {
	req, err := readFrom("GET /search?q=books HTTP/1.1\r\n\r\n")
	require.NoError(t, err)

	assert.Equal(t, "/search", req.Path)
	assert.Equal(t, "/search?q=books", req.RawTarget)
}

func TestReadRequest_MissingVersionTolerated(t *testing.T) {
	req, err := readFrom("GET /\r\n\r\n")
	require.NoError(t, err)

	assert.Equal(t, "/", req.Path)
	assert.Equal(t, "HTTP/1.1", req.Proto)
}

func TestReadRequest_Malformed(t *testing.T) {
	_, err := readFrom("GARBAGE\r\n\r\n")
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestReadRequest_EmptyStreamIsEOF(t *testing.T) {
	_, err := readFrom("")
	assert.Equal(t, io.EOF, err)
}

func TestReadRequest_HeaderBombRejected(t *testing.T) {
	var b strings.Builder
	b.WriteString("GET / HTTP/1.1\r\n")
	for i := 0; i < maxHeaderLines+1; i++ {
		b.WriteString("X-Filler: y\r\n")
	}
	b.WriteString("\r\n")

	_, err := readFrom(b.String())
	assert.Error(t, err)
}

func TestReadRequest_OversizedLineRejected(t *testing.T) {
	// A terminated line past the cap is rejected.
	long := "GET /" + strings.Repeat("a", maxLineBytes) + " HTTP/1.1\r\n\r\n"
	_, err := readFrom(long)
	assert.ErrorContains(t, err, "exceeds")

	// So is an unterminated one; the reader must give up at the cap
	// instead of buffering the stream whole.
	_, err = readFrom("GET /" + strings.Repeat("a", maxLineBytes*4))
	assert.ErrorContains(t, err, "exceeds")
}

func TestResponse_WireFormat(t *testing.T) {
	resp := NewResponse(StatusOK, "text/html", []byte("<html></html>"))

	var buf bytes.Buffer
	n, err := resp.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(buf.Len()), n)

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "HTTP/1.1 200 OK\r\n"))
	assert.Contains(t, out, "Content-Type: text/html\r\n")
	assert.Contains(t, out, "Content-Length: 13\r\n")
	assert.True(t, strings.HasSuffix(out, "\r\n\r\n<html></html>"))
}

func TestResponse_HeaderOrderPreserved(t *testing.T) {
	resp := NewResponse(StatusOK, "text/plain", []byte("hi"))
	resp.SetHeader("Connection", "close")
	resp.SetHeader("Content-Type", "text/html") // replaced in place

	var buf bytes.Buffer
	_, err := resp.WriteTo(&buf)
	require.NoError(t, err)

	out := buf.String()
	ct := strings.Index(out, "Content-Type")
	cl := strings.Index(out, "Content-Length")
	cc := strings.Index(out, "Connection")
	assert.True(t, ct < cl && cl < cc, "insertion order must be preserved: %q", out)
	assert.Equal(t, "text/html", resp.Header("Content-Type"))
}

func TestReasonPhrases(t *testing.T) {
	assert.Equal(t, "Too Many Requests", ReasonPhrase(StatusTooManyRequests))
	assert.Equal(t, "Unknown", ReasonPhrase(599))
}
