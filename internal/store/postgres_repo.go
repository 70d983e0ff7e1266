package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresLedger implements Ledger using PostgreSQL.
type PostgresLedger struct {
	pool      *pgxpool.Pool
	queryWait time.Duration
}

// NewPostgresLedger creates a PostgresLedger. queryWait bounds each storage
// operation; zero means no bound beyond the caller's context.
func NewPostgresLedger(pool *pgxpool.Pool, queryWait time.Duration) *PostgresLedger {
	return &PostgresLedger{pool: pool, queryWait: queryWait}
}

// snapshotRead pins multi-statement reads to one committed state, so a count
// and the page it describes cannot drift apart while the writer pipeline
// keeps appending.
var snapshotRead = pgx.TxOptions{
	IsoLevel:   pgx.RepeatableRead,
	AccessMode: pgx.ReadOnly,
}

const txColumns = `id, tx_hash, user_address, agent_id, target_address,
       function_name, execution_mode, status, block_number, gas_used,
       intent_action, intent_protocol, created_at, confirmed_at`

func (l *PostgresLedger) queryCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if l.queryWait <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, l.queryWait)
}

func txScanDest(t *Transaction) []any {
	return []any{
		&t.ID, &t.TxHash, &t.UserAddress, &t.AgentID, &t.TargetAddress,
		&t.FunctionName, &t.ExecutionMode, &t.Status, &t.BlockNumber, &t.GasUsed,
		&t.IntentAction, &t.IntentProtocol, &t.CreatedAt, &t.ConfirmedAt,
	}
}

// collectTransactions drains rows into a slice. The slice is always non-nil
// so an empty page serializes as [] rather than null.
func collectTransactions(rows pgx.Rows, hint int) ([]Transaction, error) {
	defer rows.Close()
	if hint < 0 {
		hint = 0
	}
	items := make([]Transaction, 0, hint)
	for rows.Next() {
		var t Transaction
		if err := rows.Scan(txScanDest(&t)...); err != nil {
			return nil, fmt.Errorf("%w: scan transaction: %v", ErrInvariantViolation, err)
		}
		items = append(items, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func collectAgentCounts(rows pgx.Rows) ([]AgentCallCount, error) {
	defer rows.Close()
	counts := make([]AgentCallCount, 0, 5)
	for rows.Next() {
		var c AgentCallCount
		if err := rows.Scan(&c.AgentID, &c.Calls); err != nil {
			return nil, fmt.Errorf("%w: scan agent count: %v", ErrInvariantViolation, err)
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return counts, nil
}

func (l *PostgresLedger) ListTransactions(ctx context.Context, filter TxFilter, page PageRequest) (*TxPage, error) {
	if err := page.Validate(); err != nil {
		return nil, err
	}
	where, args, err := filter.whereClause(1)
	if err != nil {
		return nil, err
	}

	ctx, cancel := l.queryCtx(ctx)
	defer cancel()

	tx, err := l.pool.BeginTx(ctx, snapshotRead)
	if err != nil {
		return nil, classifyPgErr("begin list snapshot", err)
	}
	defer tx.Rollback(ctx)

	var total int64
	if err := tx.QueryRow(ctx, "SELECT COUNT(*) FROM transactions"+where, args...).Scan(&total); err != nil {
		return nil, classifyPgErr("count transactions", err)
	}

	listQ := fmt.Sprintf(`SELECT %s FROM transactions%s
ORDER BY created_at DESC, id DESC
LIMIT $%d OFFSET $%d`, txColumns, where, len(args)+1, len(args)+2)
	rows, err := tx.Query(ctx, listQ, append(args, page.Limit, page.Offset)...)
	if err != nil {
		return nil, classifyPgErr("list transactions", err)
	}
	items, err := collectTransactions(rows, page.Limit)
	if err != nil {
		return nil, classifyPgErr("list transactions", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, classifyPgErr("close list snapshot", err)
	}

	return &TxPage{
		Transactions: items,
		Total:        total,
		Limit:        page.Limit,
		Offset:       page.Offset,
	}, nil
}

func (l *PostgresLedger) GetTransactionByHash(ctx context.Context, txHash string) (*Transaction, error) {
	ctx, cancel := l.queryCtx(ctx)
	defer cancel()

	const q = `SELECT ` + txColumns + ` FROM transactions WHERE tx_hash = $1`
	var t Transaction
	if err := l.pool.QueryRow(ctx, q, txHash).Scan(txScanDest(&t)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, classifyPgErr("get transaction", err)
	}
	return &t, nil
}

func (l *PostgresLedger) UserStats(ctx context.Context, userAddress string) (*UserStats, error) {
	ctx, cancel := l.queryCtx(ctx)
	defer cancel()

	tx, err := l.pool.BeginTx(ctx, snapshotRead)
	if err != nil {
		return nil, classifyPgErr("begin user stats snapshot", err)
	}
	defer tx.Rollback(ctx)

	stats := &UserStats{UserAddress: userAddress}
	var confirmed, failed int64
	const aggQ = `
SELECT COUNT(*),
       COALESCE(SUM(gas_used), 0)::BIGINT,
       COUNT(*) FILTER (WHERE status = 'confirmed'),
       COUNT(*) FILTER (WHERE status = 'failed')
FROM transactions WHERE user_address = $1`
	if err := tx.QueryRow(ctx, aggQ, userAddress).Scan(
		&stats.TotalTransactions, &stats.TotalGasUsed, &confirmed, &failed,
	); err != nil {
		return nil, classifyPgErr("aggregate user stats", err)
	}
	stats.SuccessRate = successRate(confirmed, failed)

	const favQ = `
SELECT agent_id, COUNT(*) AS calls
FROM transactions
WHERE user_address = $1 AND agent_id IS NOT NULL
GROUP BY agent_id
ORDER BY calls DESC, agent_id ASC
LIMIT 5`
	favRows, err := tx.Query(ctx, favQ, userAddress)
	if err != nil {
		return nil, classifyPgErr("favorite agents", err)
	}
	stats.FavoriteAgents, err = collectAgentCounts(favRows)
	if err != nil {
		return nil, classifyPgErr("favorite agents", err)
	}

	const recentQ = `SELECT ` + txColumns + ` FROM transactions
WHERE user_address = $1
ORDER BY created_at DESC, id DESC
LIMIT 5`
	recentRows, err := tx.Query(ctx, recentQ, userAddress)
	if err != nil {
		return nil, classifyPgErr("recent activity", err)
	}
	stats.RecentActivity, err = collectTransactions(recentRows, 5)
	if err != nil {
		return nil, classifyPgErr("recent activity", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, classifyPgErr("close user stats snapshot", err)
	}
	return stats, nil
}

// AgentStats runs as one statement, which is trivially consistent without a
// snapshot transaction.
func (l *PostgresLedger) AgentStats(ctx context.Context, agentID string) (*AgentStats, error) {
	ctx, cancel := l.queryCtx(ctx)
	defer cancel()

	const q = `
SELECT COUNT(*),
       COUNT(DISTINCT user_address),
       COALESCE(SUM(gas_used), 0)::BIGINT,
       COUNT(*) FILTER (WHERE status = 'confirmed'),
       COUNT(*) FILTER (WHERE status = 'failed')
FROM transactions WHERE agent_id = $1`
	stats := &AgentStats{AgentID: agentID}
	var confirmed, failed int64
	if err := l.pool.QueryRow(ctx, q, agentID).Scan(
		&stats.TotalCalls, &stats.UniqueUsers, &stats.TotalGasUsed, &confirmed, &failed,
	); err != nil {
		return nil, classifyPgErr("aggregate agent stats", err)
	}
	stats.SuccessRate = successRate(confirmed, failed)
	if stats.TotalCalls > 0 {
		stats.AverageGasPerCall = stats.TotalGasUsed / stats.TotalCalls
	}
	return stats, nil
}

func (l *PostgresLedger) GlobalStats(ctx context.Context) (*GlobalStats, error) {
	ctx, cancel := l.queryCtx(ctx)
	defer cancel()

	tx, err := l.pool.BeginTx(ctx, snapshotRead)
	if err != nil {
		return nil, classifyPgErr("begin global stats snapshot", err)
	}
	defer tx.Rollback(ctx)

	stats := &GlobalStats{}
	var confirmed, failed int64
	const aggQ = `
SELECT COUNT(*),
       COUNT(DISTINCT user_address),
       COUNT(DISTINCT agent_id),
       COALESCE(SUM(gas_used), 0)::BIGINT,
       COUNT(*) FILTER (WHERE status = 'confirmed'),
       COUNT(*) FILTER (WHERE status = 'failed'),
       COUNT(*) FILTER (WHERE created_at > now() - INTERVAL '24 hours')
FROM transactions`
	if err := tx.QueryRow(ctx, aggQ).Scan(
		&stats.TotalTransactions, &stats.TotalUsers, &stats.TotalAgents,
		&stats.TotalGasUsed, &confirmed, &failed, &stats.TransactionsLast24h,
	); err != nil {
		return nil, classifyPgErr("aggregate global stats", err)
	}
	stats.SuccessRate = successRate(confirmed, failed)

	const topQ = `
SELECT agent_id, COUNT(*) AS calls
FROM transactions
WHERE agent_id IS NOT NULL
GROUP BY agent_id
ORDER BY calls DESC, agent_id ASC
LIMIT 5`
	topRows, err := tx.Query(ctx, topQ)
	if err != nil {
		return nil, classifyPgErr("top agents", err)
	}
	stats.TopAgents, err = collectAgentCounts(topRows)
	if err != nil {
		return nil, classifyPgErr("top agents", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, classifyPgErr("close global stats snapshot", err)
	}
	return stats, nil
}

func (l *PostgresLedger) Ping(ctx context.Context) error {
	ctx, cancel := l.queryCtx(ctx)
	defer cancel()
	if err := l.pool.Ping(ctx); err != nil {
		return classifyPgErr("ping", err)
	}
	return nil
}
