package statsapi

import (
	"net/http"
	"time"

	"github.com/Adithya-Monish-Kumar-K/periodstats/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/periodstats/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/periodstats/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/periodstats/pkg/ratelimit"
)

// RouterConfig carries the optional parts of the router.
type RouterConfig struct {
	Checker        *health.Checker
	Metrics        *metrics.Metrics
	RequestTimeout time.Duration
	AllowOrigins   []string
	Limiter        *ratelimit.Limiter
}

// NewRouter builds the stats API.
//
// Route table:
//
//	GET  /api/v1/reports               newest runs (?limit=)
//	GET  /api/v1/reports/latest        latest report (?format=json|yaml|text)
//	GET  /api/v1/reports/{id}          one report (?format=json|yaml|text)
//	GET  /api/v1/reports/{id}/export   aligned export (?format=json|csv)
//	POST /api/v1/cache/invalidate      clear the report cache
//	GET  /health/live, /health/ready   probes
//	GET  /metrics                      Prometheus scrape
//
// Middleware chain, outermost first: RequestID, CORS, Metrics, RateLimit,
// Timeout.
func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/reports", h.ListReports)
	mux.HandleFunc("GET /api/v1/reports/latest", h.LatestReport)
	mux.HandleFunc("GET /api/v1/reports/{id}", h.GetReport)
	mux.HandleFunc("GET /api/v1/reports/{id}/export", h.GetExport)
	mux.HandleFunc("POST /api/v1/cache/invalidate", h.InvalidateCache)

	if cfg.Checker != nil {
		mux.HandleFunc("GET /health/live", cfg.Checker.LiveHandler())
		mux.HandleFunc("GET /health/ready", cfg.Checker.ReadyHandler())
	}
	if cfg.Metrics != nil {
		mux.Handle("GET /metrics", metrics.Handler())
	}

	var chain http.Handler = mux
	chain = middleware.Timeout(cfg.RequestTimeout)(chain)
	chain = middleware.RateLimit(cfg.Limiter, 60)(chain)
	if cfg.Metrics != nil {
		chain = middleware.Metrics(cfg.Metrics)(chain)
	}
	chain = middleware.CORS(cfg.AllowOrigins)(chain)
	chain = middleware.RequestID(chain)
	return chain
}
