// Package httpserver serves the GraphQL endpoint over HTTP.
package httpserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/akihokurino/works-server/internal/logging"
	"github.com/akihokurino/works-server/internal/server/config"
	"github.com/akihokurino/works-server/internal/server/loader"
	"github.com/akihokurino/works-server/internal/server/repositories/invoices"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	graphqlgo "github.com/graph-gophers/graphql-go"
	"github.com/graph-gophers/graphql-go/relay"
)

const shutdownTimeout = 10 * time.Second

type Pinger interface {
	PingContext(ctx context.Context) error
}

type Server struct {
	address string
	srv     *http.Server
	logger  logging.Logger
}

// NewServer constructs the HTTP server from cfg addresses, timeouts and
// loader settings.
func NewServer(cfg *config.Config, schema *graphqlgo.Schema, db Pinger, repo invoices.Repository, l logging.Logger) *Server {
	l = l.With("module", "http_server")
	return &Server{
		address: cfg.EndpointAddrHTTP,
		logger:  l,
		srv: &http.Server{
			Handler: NewRouter(schema, db, repo, []byte(cfg.SecretKey),
				loader.Options{Wait: cfg.LoaderWait, MaxBatch: cfg.LoaderMaxBatch}, l),
			ReadTimeout:  cfg.HTTPReadTimeout,
			WriteTimeout: cfg.HTTPWriteTimeout,
		},
	}
}

// NewRouter mounts /healthz and the authenticated POST /graphql.
func NewRouter(schema *graphqlgo.Schema, db Pinger, repo invoices.Repository, secret []byte, opts loader.Options, l logging.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(l))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			l.Warn(r.Context(), "health check failed", "error", err)
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("OK"))
	})

	r.Group(func(r chi.Router) {
		r.Use(bearerAuth(secret))
		r.Use(withLoaders(repo, opts))
		r.Method(http.MethodPost, "/graphql", &relay.Handler{Schema: schema})
	})

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())
		errc <- s.srv.Serve(listen)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.logger.Info(ctx, "Stopping HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
