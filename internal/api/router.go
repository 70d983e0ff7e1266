package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/contractmind/ledger-go/internal/metrics"
	"github.com/contractmind/ledger-go/internal/store"
)

// NewRouter creates the HTTP router with all v1 endpoints.
func NewRouter(ledger store.Ledger, log zerolog.Logger, qm *metrics.QueryMetrics, requestTimeout time.Duration) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(log))
	r.Use(middleware.Timeout(requestTimeout))

	h := &handlers{ledger: ledger, log: log, metrics: qm}

	r.Get("/v1/health", h.GetHealth)
	r.Get("/v1/info", h.GetInfo)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/transactions", h.ListTransactions)
		r.Get("/transactions/{txHash}", h.GetTransaction)

		r.Get("/stats/global", h.GetGlobalStats)
		r.Get("/stats/users/{address}", h.GetUserStats)
		r.Get("/stats/agents/{agentID}", h.GetAgentStats)
	})

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return r
}

type handlers struct {
	ledger  store.Ledger
	log     zerolog.Logger
	metrics *metrics.QueryMetrics
}

func requestLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("elapsed", time.Since(start)).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("request served")
		})
	}
}
