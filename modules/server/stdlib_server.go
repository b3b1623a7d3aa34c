// Copyright 2025 Nhat-Nguyen Nguyen
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package server runs an http.Server around a ServeMux that services
// register themselves on.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"
)

const maxTCPPort = 1<<16 - 1

type (
	// RegistrableService mounts its routes on the shared mux and contributes
	// middlewares that wrap the whole server.
	RegistrableService interface {
		Register(mux *http.ServeMux)
		Middlewares() []func(http.Handler) http.Handler
	}

	Server struct {
		server      *http.Server
		mux         *http.ServeMux
		host        string
		port        uint16
		middlewares []func(http.Handler) http.Handler
		services    []RegistrableService
		drain       time.Duration
	}

	ServerOptions func(*Server)
)

func WithWriteTimeout(t time.Duration) ServerOptions {
	return func(s *Server) { s.server.WriteTimeout = t }
}

func WithReadTimeout(t time.Duration) ServerOptions {
	return func(s *Server) { s.server.ReadTimeout = t }
}

func WithIdleTimeout(t time.Duration) ServerOptions {
	return func(s *Server) { s.server.IdleTimeout = t }
}

// WithShutdownTimeout bounds graceful shutdown. Defaults to 10s.
func WithShutdownTimeout(t time.Duration) ServerOptions {
	return func(s *Server) {
		if t > 0 {
			s.drain = t
		}
	}
}

func WithServices(svcs ...RegistrableService) ServerOptions {
	return func(s *Server) { s.services = append(s.services, svcs...) }
}

// WithGlobalMiddlewares wraps the mux. The first middleware is the outermost.
func WithGlobalMiddlewares(mw ...func(http.Handler) http.Handler) ServerOptions {
	return func(s *Server) { s.middlewares = append(s.middlewares, mw...) }
}

func New(host string, port int, opts ...ServerOptions) (*Server, error) {
	if host == "" {
		slog.Warn("empty host, binding to all interfaces")
		host = "0.0.0.0"
	}
	if port <= 0 || port > maxTCPPort {
		return nil, fmt.Errorf("server: bad port %d", port)
	}

	s := &Server{
		host: host,
		port: uint16(port),
		mux:  http.NewServeMux(),
		server: &http.Server{
			Addr:              net.JoinHostPort(host, strconv.Itoa(port)),
			ReadHeaderTimeout: 10 * time.Second,
		},
		drain: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}

	for _, svc := range s.services {
		svc.Register(s.mux)
		s.middlewares = append(s.middlewares, svc.Middlewares()...)
		slog.Info("registered service", slog.String("type", fmt.Sprintf("%T", svc)))
	}

	handler := http.Handler(s.mux)
	for i := len(s.middlewares) - 1; i >= 0; i-- {
		handler = s.middlewares[i](handler)
	}
	s.server.Handler = handler
	return s, nil
}

// Handler returns the composed middleware chain, mainly for tests.
func (s *Server) Handler() http.Handler { return s.server.Handler }

// Run serves until ctx is done or the listener fails, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		slog.InfoContext(ctx, "started server", slog.String("host", s.host), slog.Int("port", int(s.port)))
		if err := s.server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server: listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.InfoContext(ctx, "shutting down", slog.Duration("drain", s.drain))
	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.drain)
	defer cancel()
	return s.server.Shutdown(sctx)
}
