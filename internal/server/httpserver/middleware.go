package httpserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/akihokurino/works-server/internal/logging"
	"github.com/akihokurino/works-server/internal/server/auth"
	"github.com/akihokurino/works-server/internal/server/loader"
	"github.com/akihokurino/works-server/internal/server/repositories/invoices"
	"github.com/go-chi/chi/v5/middleware"
)

func requestLogger(log logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Info(r.Context(), "request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}

// bearerAuth puts the token subject into the request context. Requests
// without an Authorization header pass through anonymous; resolvers reject
// them where a user is required.
func bearerAuth(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := r.Header.Get("Authorization")
			if h == "" {
				next.ServeHTTP(w, r)
				return
			}
			token, ok := strings.CutPrefix(h, "Bearer ")
			if !ok || token == "" {
				http.Error(w, "invalid authorization header", http.StatusUnauthorized)
				return
			}
			userID, err := auth.GetUserIDFromToken(token, secret)
			if err != nil {
				http.Error(w, err.Error(), http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithUserID(r.Context(), userID)))
		})
	}
}

// withLoaders attaches fresh batch loaders; their cache lives as long as the
// request.
func withLoaders(repo invoices.Repository, opts loader.Options) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			ctx = loader.WithSupplierInvoices(ctx, loader.NewSupplierInvoices(ctx, repo, opts))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
