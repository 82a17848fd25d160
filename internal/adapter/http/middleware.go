package adapthttp

import (
	"context"
	"net/http"
	"strings"
	"time"

	"wearables/internal/domain"
)

type contextKey string

const accountContextKey contextKey = "account"

// accountFrom returns the authenticated account, or nil when auth is disabled.
func accountFrom(ctx context.Context) *domain.Account {
	a, _ := ctx.Value(accountContextKey).(*domain.Account)
	return a
}

// authMiddleware validates bearer access tokens.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Skip auth if disabled (for tests)
		if s.disableAuth {
			next.ServeHTTP(w, r)
			return
		}

		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			writeError(w, domain.ErrUnauthorized.New(""))
			return
		}

		account, err := s.auth.Authenticate(r.Context(), strings.TrimSpace(token))
		if err != nil {
			if domain.CodeOf(err).Kind == domain.KindInternal {
				s.log.Error("authenticate", "error", err)
			}
			writeError(w, err)
			return
		}

		ctx := context.WithValue(r.Context(), accountContextKey, account)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// loggingMiddleware logs method, path, status and duration of each request.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

// instrument records request count and latency under the route pattern.
func (s *Server) instrument(route string, next http.Handler) http.Handler {
	if s.metrics == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.metrics.ObserveHTTP(route, r.Method, rec.status, time.Since(start))
	})
}
