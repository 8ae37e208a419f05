// Package httpserver owns the http.Server lifecycle so the app layer deals
// only in handlers.
package httpserver

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// ShutdownTimeout bounds how long in-flight requests may run during a
// graceful shutdown before the listener is torn down.
const ShutdownTimeout = 10 * time.Second

// Server wraps http.Server with timeouts tuned for an API that accepts
// multipart media uploads: headers must arrive promptly, but request bodies
// may legitimately stream for minutes.
type Server struct {
	inner *http.Server
}

// New constructs a server listening on the given port.
func New(port int, handler http.Handler) *Server {
	return &Server{
		inner: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       5 * time.Minute,
			WriteTimeout:      5 * time.Minute,
			IdleTimeout:       2 * time.Minute,
		},
	}
}

// Start serves until the listener closes; it returns http.ErrServerClosed
// after a graceful Shutdown.
func (s *Server) Start() error {
	return s.inner.ListenAndServe()
}

// Shutdown stops accepting connections and waits for in-flight requests
// until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.inner.Shutdown(ctx)
}
