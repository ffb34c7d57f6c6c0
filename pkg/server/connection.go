package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/MadalinaDev/PR-labs/internal/logger"
	httpwire "github.com/MadalinaDev/PR-labs/internal/protocol/http"
	"github.com/MadalinaDev/PR-labs/pkg/webroot"
	"github.com/google/uuid"
)

// connection handles exactly one request on one accepted TCP
// connection and then closes it. Connection: close semantics; keep-alive
// is not supported.
//
// State machine: AwaitRequest -> RateCheck -> {Denied -> RespondDenied,
// Admitted -> PathLookup} -> {Rejected/Missing -> Respond404,
// Directory -> ListingOrIndex, File -> RespondFile} -> CounterUpdate ->
// Closed. The terminal state is always a closed connection, whether via
// clean completion or failure.
type connection struct {
	server *Server
	conn   net.Conn

	// id correlates all log lines for this connection.
	id string
}

func newConnection(s *Server, conn net.Conn) *connection {
	return &connection{
		server: s,
		conn:   conn,
		id:     uuid.NewString()[:8],
	}
}

// serve runs the request state machine. Panics are recovered here and
// converted to a 500 so a single misbehaving request can never take
// down the accept loop or other in-flight connections.
func (c *connection) serve(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Panic while serving request",
				logger.KeyConnectionID, c.id,
				logger.KeyError, fmt.Sprintf("%v", r))
			c.writeResponse(c.server.builder.InternalError(fmt.Errorf("%v", r)))
		}
		if err := c.conn.Close(); err != nil {
			logger.Debug("Error closing connection", logger.KeyConnectionID, c.id, logger.KeyError, err)
		}
	}()

	clientAddr := c.conn.RemoteAddr().String()

	if c.server.config.ReadTimeout > 0 {
		if err := c.conn.SetReadDeadline(time.Now().Add(c.server.config.ReadTimeout)); err != nil {
			logger.Warn("Failed to set read deadline", logger.KeyConnectionID, c.id, logger.KeyError, err)
		}
	}

	req, err := httpwire.ReadRequest(bufio.NewReader(c.conn))
	if err != nil {
		switch {
		case errors.Is(err, io.EOF):
			logger.Debug("Connection closed by client", logger.KeyConnectionID, c.id)
		case errors.Is(err, httpwire.ErrMalformed):
			logger.Debug("Malformed request line", logger.KeyConnectionID, c.id, logger.KeyClientIP, clientAddr)
		default:
			logger.Debug("Error reading request", logger.KeyConnectionID, c.id, logger.KeyError, err)
		}
		return
	}
	req.RemoteAddr = clientAddr

	start := time.Now()
	resp := c.handle(ctx, req)
	c.writeResponse(resp)

	if c.server.metrics != nil {
		c.server.metrics.RecordRequest(req.Method, resp.Status, time.Since(start))
	}
	logger.Info("Request served",
		logger.KeyConnectionID, c.id,
		logger.KeyClientIP, clientIP(clientAddr),
		logger.KeyMethod, req.Method,
		logger.KeyPath, req.RawTarget,
		logger.KeyStatus, resp.Status,
		logger.KeyBytes, len(resp.Body),
		logger.KeyDurationMs, logger.Duration(start))
}

// handle walks the request through rate check, path lookup, response
// synthesis, and counter update. Every reachable path yields a
// well-formed response.
func (c *connection) handle(ctx context.Context, req *httpwire.Request) *httpwire.Response {
	if req.Method != "GET" {
		return c.server.builder.MethodNotAllowed()
	}

	if c.server.limiter != nil && !c.server.limiter.Allow(clientIP(req.RemoteAddr)) {
		// Denied requests carry no further processing: no artificial
		// delay, no counter update, no content.
		if c.server.metrics != nil {
			c.server.metrics.RecordRateLimited()
		}
		logger.Debug("Rate limit exceeded",
			logger.KeyConnectionID, c.id,
			logger.KeyClientIP, clientIP(req.RemoteAddr),
			logger.KeyRateLimited, true)
		return c.server.builder.RateLimited()
	}

	if delay := c.server.config.RequestDelay; delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			// Shutdown in progress; finish this request without the
			// remaining delay rather than abandoning it mid-flight.
		}
	}

	resolved, err := c.server.root.Resolve(req.Path)
	if err != nil {
		var resp *httpwire.Response
		if errors.Is(err, webroot.ErrRejected) {
			// Traversal attempts and absent files are indistinguishable
			// to the client.
			resp = c.server.builder.NotFound()
		} else {
			resp = c.server.builder.InternalError(err)
		}
		c.server.hits.Increment(req.Path)
		return resp
	}

	resp, err := c.server.builder.Build(resolved, req.Path)
	if err != nil {
		resp = c.server.builder.InternalError(err)
	}

	c.server.hits.Increment(req.Path)
	return resp
}

// writeResponse writes the response in a single buffered write, the
// whole body included. Every response advertises Connection: close
// since the connection is torn down after one exchange.
func (c *connection) writeResponse(resp *httpwire.Response) {
	if resp == nil {
		return
	}
	resp.SetHeader("Connection", "close")
	if _, err := resp.WriteTo(c.conn); err != nil {
		logger.Debug("Error writing response", logger.KeyConnectionID, c.id, logger.KeyError, err)
	}
}

// clientIP strips the port from a remote address, falling back to the
// whole string when it does not parse. Rate-limit windows are keyed by
// IP so one client's ports all share a window.
func clientIP(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}
