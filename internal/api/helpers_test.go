package api

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/sha3"

	"github.com/contractmind/ledger-go/internal/metrics"
	"github.com/contractmind/ledger-go/internal/store"
	"github.com/contractmind/ledger-go/internal/util"
)

// fakeLedger serves store.Ledger from a slice, with the same ordering and
// windowing rules as the real store. Forced errors simulate backend faults.
type fakeLedger struct {
	transactions []store.Transaction
	listErr      error
	getErr       error
	statsErr     error
	pingErr      error
	user         *store.UserStats
	agent        *store.AgentStats
	global       *store.GlobalStats

	listQueries int
}

func (f *fakeLedger) ListTransactions(_ context.Context, filter store.TxFilter, page store.PageRequest) (*store.TxPage, error) {
	if err := page.Validate(); err != nil {
		return nil, err
	}
	f.listQueries++
	if f.listErr != nil {
		return nil, f.listErr
	}

	matched := make([]store.Transaction, 0, len(f.transactions))
	for _, txn := range f.transactions {
		if filter.Matches(&txn) {
			matched = append(matched, txn)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})

	lo := min(page.Offset, len(matched))
	hi := min(lo+page.Limit, len(matched))
	items := make([]store.Transaction, 0, hi-lo)
	items = append(items, matched[lo:hi]...)

	return &store.TxPage{
		Transactions: items,
		Total:        int64(len(matched)),
		Limit:        page.Limit,
		Offset:       page.Offset,
	}, nil
}

func (f *fakeLedger) GetTransactionByHash(_ context.Context, txHash string) (*store.Transaction, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, txn := range f.transactions {
		if txn.TxHash == txHash {
			return &txn, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeLedger) UserStats(_ context.Context, userAddress string) (*store.UserStats, error) {
	if f.statsErr != nil {
		return nil, f.statsErr
	}
	if f.user != nil {
		return f.user, nil
	}
	return &store.UserStats{
		UserAddress:    userAddress,
		FavoriteAgents: []store.AgentCallCount{},
		RecentActivity: []store.Transaction{},
	}, nil
}

func (f *fakeLedger) AgentStats(_ context.Context, agentID string) (*store.AgentStats, error) {
	if f.statsErr != nil {
		return nil, f.statsErr
	}
	if f.agent != nil {
		return f.agent, nil
	}
	return &store.AgentStats{AgentID: agentID}, nil
}

func (f *fakeLedger) GlobalStats(_ context.Context) (*store.GlobalStats, error) {
	if f.statsErr != nil {
		return nil, f.statsErr
	}
	if f.global != nil {
		return f.global, nil
	}
	return &store.GlobalStats{TopAgents: []store.AgentCallCount{}}, nil
}

func (f *fakeLedger) Ping(_ context.Context) error { return f.pingErr }

// ── fixtures ───────────────────────────────────────────────────────────────────

func ptr[T any](v T) *T { return &v }

func fixtureHash(seed string) string {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(seed))
	return "0x" + hex.EncodeToString(h.Sum(nil))
}

func testAddr(b byte) string {
	return "0x" + strings.Repeat(hex.EncodeToString([]byte{b}), 20)
}

func mkTx(id int64, user, agent string, status store.TxStatus, at time.Time) store.Transaction {
	txn := store.Transaction{
		ID:            id,
		TxHash:        fixtureHash(fmt.Sprintf("tx-%d", id)),
		UserAddress:   user,
		TargetAddress: testAddr(0x11),
		ExecutionMode: "direct",
		Status:        status,
		CreatedAt:     at,
	}
	if agent != "" {
		txn.AgentID = ptr(agent)
		txn.ExecutionMode = "hub"
		txn.FunctionName = ptr("execute_intent")
	}
	if status != store.TxStatusPending {
		txn.BlockNumber = ptr(8_000_000 + id)
		txn.GasUsed = ptr(21_000 * id)
	}
	if status == store.TxStatusConfirmed {
		txn.ConfirmedAt = ptr(at.Add(30 * time.Second))
	}
	return txn
}

var fixtureBase = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// scenarioFixture is three rows: two users, two agents, a pending row in the
// middle. Ids climb with created_at, so newest-first means highest id first.
func scenarioFixture() []store.Transaction {
	return []store.Transaction{
		mkTx(1, testAddr(0xaa), "agent-alpha", store.TxStatusConfirmed, fixtureBase),
		mkTx(2, testAddr(0xaa), "agent-beta", store.TxStatusPending, fixtureBase.Add(time.Minute)),
		mkTx(3, testAddr(0xbb), "agent-alpha", store.TxStatusConfirmed, fixtureBase.Add(2*time.Minute)),
	}
}

func windowFixture(n int) []store.Transaction {
	txs := make([]store.Transaction, 0, n)
	for i := 1; i <= n; i++ {
		txs = append(txs, mkTx(int64(i), testAddr(0xaa), "agent-alpha", store.TxStatusConfirmed,
			fixtureBase.Add(time.Duration(i)*time.Minute)))
	}
	return txs
}

// ── request plumbing ───────────────────────────────────────────────────────────

func newTestServer(ledger store.Ledger) http.Handler {
	qm := metrics.NewQueryMetrics(prometheus.NewRegistry())
	return NewRouter(ledger, zerolog.Nop(), qm, 30*time.Second)
}

func doGet(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func decodePage(t *testing.T, rec *httptest.ResponseRecorder) store.TxPage {
	t.Helper()
	var page store.TxPage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	return page
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) util.ErrorResponse {
	t.Helper()
	var resp util.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func txIDs(ts []store.Transaction) []int64 {
	ids := make([]int64, 0, len(ts))
	for _, txn := range ts {
		ids = append(ids, txn.ID)
	}
	return ids
}
