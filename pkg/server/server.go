package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"
)

const shutdownTimeout = 10 * time.Second

type HTTPServer interface {
	Run() error
	Shutdown() error
	Addr() string
}

type Option func(s *httpServer)

func WithAddr(host string, port uint16) Option {
	return func(s *httpServer) {
		s.srv.Addr = net.JoinHostPort(host, strconv.Itoa(int(port)))
	}
}

func WithTimeout(read, write, idle time.Duration) Option {
	return func(s *httpServer) {
		s.srv.ReadTimeout = read
		s.srv.WriteTimeout = write
		s.srv.IdleTimeout = idle
	}
}

func WithHandler(h http.Handler) Option {
	return func(s *httpServer) {
		s.srv.Handler = h
	}
}

type httpServer struct {
	srv *http.Server
}

func NewHTTPServer(opts ...Option) HTTPServer {
	s := &httpServer{
		srv: &http.Server{
			Addr:              ":3333",
			ReadHeaderTimeout: 5 * time.Second,
		},
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Run blocks until the server stops; a graceful Shutdown is not reported as an error.
func (s *httpServer) Run() error {
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server on %s: %w", s.srv.Addr, err)
	}

	return nil
}

func (s *httpServer) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return s.srv.Shutdown(ctx)
}

func (s *httpServer) Addr() string {
	return s.srv.Addr
}
