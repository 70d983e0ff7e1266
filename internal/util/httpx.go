package util

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/contractmind/ledger-go/internal/store"
)

// APIError represents a structured error response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse is the top-level error envelope.
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// WriteError writes a structured error response.
func WriteError(w http.ResponseWriter, status int, code, message string) {
	WriteJSON(w, status, ErrorResponse{
		Error: APIError{Code: code, Message: message},
	})
}

// ParsePage extracts limit and offset query parameters. Absent parameters
// take the defaults; anything present but non-numeric is rejected with
// ErrInvalidPagination. Range checks live with the store, which validates
// the window before running the query.
func ParsePage(r *http.Request) (store.PageRequest, error) {
	page := store.DefaultPage()
	q := r.URL.Query()
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return store.PageRequest{}, fmt.Errorf("%w: limit %q is not an integer", store.ErrInvalidPagination, s)
		}
		page.Limit = n
	}
	if s := q.Get("offset"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return store.PageRequest{}, fmt.Errorf("%w: offset %q is not an integer", store.ErrInvalidPagination, s)
		}
		page.Offset = n
	}
	return page, nil
}
