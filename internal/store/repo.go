package store

import "context"

// Ledger defines the read surface over the transactions ledger. The ledger
// is append-only from this service's point of view; nothing here mutates it.
type Ledger interface {
	// ListTransactions returns the page of transactions matching the filter,
	// ordered by created_at DESC, id DESC. The page count and the total are
	// taken from one consistent read view, so total is the exact number of
	// matching rows at the moment the page was cut. An offset past the end
	// yields an empty page with the real total.
	ListTransactions(ctx context.Context, filter TxFilter, page PageRequest) (*TxPage, error)

	// GetTransactionByHash retrieves a single transaction by its tx_hash.
	// Matching is byte-exact against the stored hash, which the write
	// pipeline lowercases, so callers pass a lowercase hash. Returns
	// ErrNotFound when the hash is unknown.
	GetTransactionByHash(ctx context.Context, txHash string) (*Transaction, error)

	// UserStats aggregates activity for one user address. An address with no
	// rows yields zeroed stats, not an error.
	UserStats(ctx context.Context, userAddress string) (*UserStats, error)

	// AgentStats aggregates activity routed through one agent.
	AgentStats(ctx context.Context, agentID string) (*AgentStats, error)

	// GlobalStats aggregates the whole ledger.
	GlobalStats(ctx context.Context) (*GlobalStats, error)

	// Ping reports whether the backing store is reachable.
	Ping(ctx context.Context) error
}
