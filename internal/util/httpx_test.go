package util

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contractmind/ledger-go/internal/store"
)

func TestParsePage(t *testing.T) {
	cases := []struct {
		name    string
		query   string
		want    store.PageRequest
		wantErr bool
	}{
		{"no params use defaults", "", store.PageRequest{Limit: store.DefaultPageLimit}, false},
		{"explicit window", "limit=10&offset=30", store.PageRequest{Limit: 10, Offset: 30}, false},
		{"limit only", "limit=7", store.PageRequest{Limit: 7}, false},
		{"offset only", "offset=5", store.PageRequest{Limit: store.DefaultPageLimit, Offset: 5}, false},
		{"out-of-range values parse here, range is the store's call", "limit=101&offset=-1", store.PageRequest{Limit: 101, Offset: -1}, false},
		{"non-integer limit", "limit=ten", store.PageRequest{}, true},
		{"fractional offset", "offset=1.5", store.PageRequest{}, true},
		{"empty value means absent", "limit=&offset=", store.PageRequest{Limit: store.DefaultPageLimit}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/v1/transactions?"+tc.query, nil)
			got, err := ParsePage(r)
			if tc.wantErr {
				require.ErrorIs(t, err, store.ErrInvalidPagination)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, http.StatusBadRequest, "invalid_filter", "unknown status \"bogus\"")

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "invalid_filter", resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "bogus")
}

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(rec, http.StatusOK, map[string]int{"total": 3})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"total": 3}`, rec.Body.String())
}
