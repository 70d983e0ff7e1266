package api

// handlers_stats.go implements the aggregate endpoints:
//   GET /v1/stats/global
//   GET /v1/stats/users/{address}
//   GET /v1/stats/agents/{agentID}

import (
	"fmt"
	"net/http"
	"regexp"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/contractmind/ledger-go/internal/store"
)

var reHexAddr = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

func (h *handlers) GetGlobalStats(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	stats, err := h.ledger.GlobalStats(r.Context())
	h.respond(w, r, "global_stats", start, stats, err)
}

func (h *handlers) GetUserStats(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	address := chi.URLParam(r, "address")
	if !reHexAddr.MatchString(address) {
		h.respond(w, r, "user_stats", start, nil,
			fmt.Errorf("%w: address must be 0x + 40 hex chars", store.ErrInvalidFilter))
		return
	}

	stats, err := h.ledger.UserStats(r.Context(), address)
	h.respond(w, r, "user_stats", start, stats, err)
}

func (h *handlers) GetAgentStats(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	agentID := chi.URLParam(r, "agentID")
	if agentID == "" {
		h.respond(w, r, "agent_stats", start, nil,
			fmt.Errorf("%w: agent id must not be empty", store.ErrInvalidFilter))
		return
	}

	stats, err := h.ledger.AgentStats(r.Context(), agentID)
	h.respond(w, r, "agent_stats", start, stats, err)
}
