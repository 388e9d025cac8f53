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

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"time"
)

const shutdownGrace = 10 * time.Second

type (
	Server struct {
		server *http.Server
		mux    *http.ServeMux
		host   string
		port   uint16

		// applied around the mux in declaration order
		middlewares []func(http.Handler) http.Handler
		services    []RegistrableService
	}

	ServerOptions func(*Server)
)

func WithWriteTimeout(t time.Duration) ServerOptions {
	return func(s *Server) {
		if t <= 0 {
			t = 10 * time.Second
		}
		s.server.WriteTimeout = t
	}
}

func WithReadTimeout(t time.Duration) ServerOptions {
	return func(s *Server) {
		if t <= 0 {
			t = 10 * time.Second
		}
		s.server.ReadTimeout = t
		s.server.ReadHeaderTimeout = t
	}
}

func WithIdleTimeout(t time.Duration) ServerOptions {
	return func(s *Server) {
		if t > 0 {
			s.server.IdleTimeout = t
		}
	}
}

func WithServices(svcs ...RegistrableService) ServerOptions {
	return func(s *Server) {
		s.services = append(s.services, svcs...)
	}
}

// WithGlobalMiddlewares wraps the entire mux; the first middleware is outermost.
// r.Pattern is already resolved when they run.
func WithGlobalMiddlewares(mw ...func(http.Handler) http.Handler) ServerOptions {
	return func(s *Server) {
		s.middlewares = append(s.middlewares, mw...)
	}
}

//	srv, _ := server.New("0.0.0.0", 8080, server.WithWriteTimeout(10*time.Second))
func New(host string, port int, opts ...ServerOptions) (*Server, error) {
	if host == "" {
		slog.Warn("empty host, binding to all interfaces")
		host = "0.0.0.0"
	}
	if port <= 0 || port > math.MaxUint16 {
		return nil, fmt.Errorf("server: bad port %d", port)
	}

	s := &Server{
		host:   host,
		port:   uint16(port),
		mux:    http.NewServeMux(),
		server: &http.Server{Addr: net.JoinHostPort(host, strconv.Itoa(port))},
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
	s.server.Handler = withRoutePattern(s.mux, handler)

	return s, nil
}

// withRoutePattern sets r.Pattern before the global middlewares run, so the
// ones sitting outside the mux can key on the route instead of the raw path.
func withRoutePattern(mux *http.ServeMux, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Pattern == "" {
			if _, pattern := mux.Handler(r); pattern != "" {
				r = r.WithContext(r.Context())
				r.Pattern = pattern
			}
		}
		next.ServeHTTP(w, r)
	})
}

// Handler is the composed middleware chain around the mux.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Run serves until ctx is cancelled or the listener fails, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		slog.InfoContext(ctx, "started server", slog.String("host", s.host), slog.Int("port", int(s.port)))
		errCh <- s.server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		slog.ErrorContext(ctx, "server error", slog.Any("error", err))
		return err
	case <-ctx.Done():
	}

	slog.InfoContext(ctx, "shutting down...")
	// ctx is already done, so the grace period hangs off a fresh context
	dCtx, dCancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownGrace)
	defer dCancel()
	return s.server.Shutdown(dCtx)
}
