package api

// handlers_transactions.go implements the ledger query endpoints:
//   GET /v1/transactions
//   GET /v1/transactions/{txHash}

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/contractmind/ledger-go/internal/store"
	"github.com/contractmind/ledger-go/internal/util"
)

var reTxHash = regexp.MustCompile(`^0x[0-9a-fA-F]{64}$`)

// ── GET /v1/transactions ───────────────────────────────────────────────────────

func (h *handlers) ListTransactions(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	q := r.URL.Query()

	filter, err := store.NewTxFilter(store.FilterParams{
		AgentID:     q.Get("agent_id"),
		UserAddress: q.Get("user_address"),
		Status:      q.Get("status"),
	})
	if err != nil {
		h.respond(w, r, "list_transactions", start, nil, err)
		return
	}

	page, err := util.ParsePage(r)
	if err != nil {
		h.respond(w, r, "list_transactions", start, nil, err)
		return
	}

	res, err := h.ledger.ListTransactions(r.Context(), filter, page)
	h.respond(w, r, "list_transactions", start, res, err)
}

// ── GET /v1/transactions/{txHash} ──────────────────────────────────────────────

func (h *handlers) GetTransaction(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	txHash := chi.URLParam(r, "txHash")
	if !reTxHash.MatchString(txHash) {
		h.respond(w, r, "get_transaction", start, nil,
			fmt.Errorf("%w: tx_hash must be 0x + 64 hex chars", store.ErrInvalidFilter))
		return
	}

	// Stored hashes are lowercase; fold checksum-cased input before lookup.
	txn, err := h.ledger.GetTransactionByHash(r.Context(), strings.ToLower(txHash))
	h.respond(w, r, "get_transaction", start, txn, err)
}

// ── shared response plumbing ───────────────────────────────────────────────────

// respond finishes a query endpoint: it records the outcome metric, then
// writes either the success payload or the mapped error.
func (h *handlers) respond(w http.ResponseWriter, r *http.Request, endpoint string, start time.Time, v any, err error) {
	h.metrics.Observe(endpoint, outcomeLabel(err), time.Since(start))
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, v)
}

func outcomeLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, store.ErrInvalidFilter):
		return "invalid_filter"
	case errors.Is(err, store.ErrInvalidPagination):
		return "invalid_pagination"
	case errors.Is(err, store.ErrNotFound):
		return "not_found"
	case errors.Is(err, store.ErrStorageUnavailable):
		return "storage_unavailable"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "internal"
	}
}

// writeStoreError maps store errors onto the HTTP error envelope. Client
// mistakes echo their detail back; server faults log the detail and answer
// with a generic message.
func (h *handlers) writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	reqID := middleware.GetReqID(r.Context())
	switch {
	case errors.Is(err, store.ErrInvalidFilter):
		util.WriteError(w, http.StatusBadRequest, "invalid_filter", err.Error())
	case errors.Is(err, store.ErrInvalidPagination):
		util.WriteError(w, http.StatusBadRequest, "invalid_pagination", err.Error())
	case errors.Is(err, store.ErrNotFound):
		util.WriteError(w, http.StatusNotFound, "not_found", "transaction not found")
	case errors.Is(err, store.ErrStorageUnavailable):
		h.log.Warn().Err(err).Str("request_id", reqID).Str("path", r.URL.Path).Msg("storage unavailable")
		util.WriteError(w, http.StatusServiceUnavailable, "storage_unavailable", "storage temporarily unavailable, retry later")
	case errors.Is(err, context.Canceled):
		return // client went away
	case errors.Is(err, store.ErrInvariantViolation):
		h.log.Error().Err(err).Str("request_id", reqID).Str("path", r.URL.Path).Msg("query invariant violated")
		util.WriteError(w, http.StatusInternalServerError, "internal", "internal error")
	default:
		h.log.Error().Err(err).Str("request_id", reqID).Str("path", r.URL.Path).Msg("query failed")
		util.WriteError(w, http.StatusInternalServerError, "internal", "internal error")
	}
}
