package catalog

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"PluginStore/pkg/kit"
)

type HTTPDeps struct {
	Log      *zap.Logger
	Service  string
	Registry *prometheus.Registry

	// CORSOrigin is the storefront allowed to call the catalog from a browser.
	CORSOrigin string
	// WritesPerMinute caps product and category mutations per client IP.
	// Zero leaves them unlimited.
	WritesPerMinute int

	MetricsEnabled bool
	MetricsToken   string
}

func NewHandler(s *Server, deps HTTPDeps) http.Handler {
	r := chi.NewRouter()

	setupMiddleware(r, deps)
	setupCORS(r, deps)
	setupMetrics(r, deps)
	setupWriteLimit(s, deps)

	r.Mount("/", s.Routes())
	return r
}

func setupMiddleware(r *chi.Mux, deps HTTPDeps) {
	r.Use(chimw.RequestID)
	r.Use(kit.Recoverer)
	r.Use(kit.Logging(deps.Log))
}

// The storefront PATCHes products and categories, so preflights have to be
// answered before routing.
func setupCORS(r *chi.Mux, deps HTTPDeps) {
	if deps.CORSOrigin == "" {
		return
	}
	r.Use(kit.CORS(deps.CORSOrigin))
}

// setupWriteLimit only touches the mutating catalog routes. Reads, health
// and the loopback sync reads are never limited.
func setupWriteLimit(s *Server, deps HTTPDeps) {
	if deps.WritesPerMinute <= 0 || s.WriteLimit != nil {
		return
	}
	s.WriteLimit = kit.NewIPRateLimiter(deps.WritesPerMinute, time.Minute).Middleware
}

func setupMetrics(r *chi.Mux, deps HTTPDeps) {
	if deps.Registry == nil {
		return
	}

	metrics := kit.NewMetrics(deps.Registry)
	r.Use(metrics.Middleware(deps.Service, kit.ChiRoutePatternOrPath))

	if !deps.MetricsEnabled {
		return
	}

	r.With(kit.MetricsAuth(deps.MetricsToken)).
		Handle("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
}
