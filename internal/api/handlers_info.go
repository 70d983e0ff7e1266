package api

import (
	"net/http"
	"time"

	"github.com/contractmind/ledger-go/internal/store"
	"github.com/contractmind/ledger-go/internal/util"
)

func (h *handlers) GetHealth(w http.ResponseWriter, r *http.Request) {
	if err := h.ledger.Ping(r.Context()); err != nil {
		h.log.Warn().Err(err).Msg("health check failed")
		util.WriteError(w, http.StatusServiceUnavailable, "storage_unavailable", "database unreachable")
		return
	}
	util.WriteJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (h *handlers) GetInfo(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"name":         "contractmind-ledger",
		"version":      "0.1",
		"service_time": time.Now().UTC().Format(time.RFC3339),
		"capabilities": map[string]any{
			"filters":       []string{"agent_id", "user_address", "status"},
			"statuses":      []store.TxStatus{store.TxStatusPending, store.TxStatusConfirmed, store.TxStatusFailed},
			"default_limit": store.DefaultPageLimit,
			"max_limit":     store.MaxPageLimit,
			"ordering":      "created_at DESC, id DESC",
		},
		"notes": "read-only view over the transactions ledger",
	}
	util.WriteJSON(w, http.StatusOK, resp)
}
