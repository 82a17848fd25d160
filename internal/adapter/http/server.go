package adapthttp

import (
	"net/http"

	"wearables/internal/app"
	"wearables/internal/logger"
	"wearables/internal/observability"
)

// Server is the driving HTTP adapter that routes requests to application
// services.
type Server struct {
	auth        *app.AuthService
	ingest      *app.IngestService
	aggregation *app.AggregationService
	query       *app.QueryService

	oidcConfig  OIDCConfig
	log         *logger.Logger
	metrics     *observability.Metrics
	disableAuth bool
}

// New creates a Server wired to the given application services. metrics may
// be nil.
func New(auth *app.AuthService, ingest *app.IngestService, aggregation *app.AggregationService, query *app.QueryService, log *logger.Logger, metrics *observability.Metrics) *Server {
	if log == nil {
		log = logger.Nop()
	}
	return &Server{
		auth:        auth,
		ingest:      ingest,
		aggregation: aggregation,
		query:       query,
		log:         log,
		metrics:     metrics,
	}
}

// WithOIDC enables SSO login through the given provider.
func (s *Server) WithOIDC(cfg OIDCConfig) *Server {
	s.oidcConfig = cfg
	return s
}

// WithoutAuth disables bearer authentication. Health endpoints then require
// an explicit recordKey.
func (s *Server) WithoutAuth() *Server {
	s.disableAuth = true
	return s
}

// Handler returns the root http.Handler for the application.
func (s *Server) Handler() http.Handler {
	api := http.NewServeMux()
	public := func(pattern string, h http.HandlerFunc) {
		api.Handle(pattern, s.instrument(pattern, h))
	}
	private := func(pattern string, h http.HandlerFunc) {
		api.Handle(pattern, s.instrument(pattern, s.authMiddleware(h)))
	}

	api.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})
	public("/config", s.handleConfig)

	public("/members/signup", s.handleSignup)
	public("/members/login", s.handleLogin)
	public("/members/sso/login", s.handleSSOLogin)
	public("/members/sso/callback", s.handleSSOCallback)
	private("/members/me", s.handleMe)

	private("/health/data", s.handleHealthData)
	private("/health/daily", s.handleDailyList)
	private("/health/daily/{date}", s.handleDailyGet)
	private("/health/monthly", s.handleMonthlyList)
	private("/health/monthly/{year}/{month}", s.handleMonthlyGet)
	private("/health/recompute", s.handleRecompute)

	root := http.NewServeMux()
	root.Handle("/api/", http.StripPrefix("/api", api))
	if s.metrics != nil {
		root.Handle("/metrics", s.metrics.Handler())
	}

	return withNoCache(s.loggingMiddleware(root))
}
