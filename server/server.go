// Package server exposes an [fsapi.Store] over HTTP.
//
// Every path taken from a request goes through the [fsapi.Resolver] before
// it reaches the store; handlers only translate between HTTP and the store
// and map the error taxonomy onto status codes.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/brettbedarf/fsapi"
	"github.com/brettbedarf/fsapi/config"
	"github.com/brettbedarf/fsapi/internal/metrics"
	"github.com/brettbedarf/fsapi/internal/util"
)

// Server is the HTTP front end of the filesystem API
type Server struct {
	cfg      *config.Config
	resolver *fsapi.Resolver
	store    fsapi.Store
	http     *http.Server
	logger   util.Logger
}

// New creates a Server for store. Request paths are confined by resolver.
func New(cfg *config.Config, resolver *fsapi.Resolver, store fsapi.Store) *Server {
	s := &Server{
		cfg:      cfg,
		resolver: resolver,
		store:    store,
		logger:   util.GetLogger("Server"),
	}
	s.http = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          util.NewLogLogger("HTTPServer", util.WarnLevel),
	}
	return s
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	s.handle(mux, "GET /{$}", s.handleIndex)
	s.handle(mux, "GET /health", s.handleHealth)
	mux.Handle("GET /metrics", metrics.Handler())
	if s.cfg.Debug {
		s.handle(mux, "GET /debug/path", s.handleDebugPath)
	}

	// Files API
	s.handle(mux, "GET /files", s.handleList)
	s.handle(mux, "GET /files/{path...}", s.handleGet)
	s.handle(mux, "POST /files/{path...}", s.handlePost)
	s.handle(mux, "DELETE /files/{path...}", s.handleDelete)
	s.handle(mux, "POST /directories", s.handleCreateDirectory)

	return requestID(logRequests(cors(s.cfg.CORSOrigins, mux)))
}

// handle registers h for pattern and records request metrics under it.
func (s *Server) handle(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	mux.Handle(pattern, instrument(pattern, h))
}

// Serve listens on the configured address and blocks until the server is
// shut down. A clean shutdown returns nil.
func (s *Server) Serve() error {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return err
	}
	return s.serve(ln)
}

func (s *Server) serve(ln net.Listener) error {
	s.logger.Info().Str("addr", ln.Addr().String()).Str("root", s.resolver.RootDir()).Msg("Serving filesystem API")
	err := s.http.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// ServeAsync runs Serve in the background. The channel receives Serve's
// result and is then closed.
func (s *Server) ServeAsync() <-chan error {
	done := make(chan error, 1)

	go func() {
		done <- s.Serve()
		close(done)
	}()

	return done
}

// Shutdown stops accepting connections and waits for in-flight requests
// until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("Shutting down")
	return s.http.Shutdown(ctx)
}
