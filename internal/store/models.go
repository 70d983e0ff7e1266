package store

import (
	"fmt"
	"time"
)

// TxStatus is the lifecycle state of a recorded transaction. The ledger is
// written by the execution pipeline; this service only reads the states back.
type TxStatus string

const (
	TxStatusPending   TxStatus = "pending"
	TxStatusConfirmed TxStatus = "confirmed"
	TxStatusFailed    TxStatus = "failed"
)

// ParseTxStatus validates a raw status string against the known lifecycle
// states. Unknown values yield ErrInvalidFilter.
func ParseTxStatus(s string) (TxStatus, error) {
	switch TxStatus(s) {
	case TxStatusPending, TxStatusConfirmed, TxStatusFailed:
		return TxStatus(s), nil
	}
	return "", fmt.Errorf("%w: unknown status %q", ErrInvalidFilter, s)
}

// Transaction is one row of the transactions ledger. Pointer fields map to
// nullable columns and render as explicit JSON null when absent.
type Transaction struct {
	ID             int64      `json:"id"`
	TxHash         string     `json:"tx_hash"`
	UserAddress    string     `json:"user_address"`
	AgentID        *string    `json:"agent_id"`
	TargetAddress  string     `json:"target_address"`
	FunctionName   *string    `json:"function_name"`
	ExecutionMode  string     `json:"execution_mode"`
	Status         TxStatus   `json:"status"`
	BlockNumber    *int64     `json:"block_number"`
	GasUsed        *int64     `json:"gas_used"`
	IntentAction   *string    `json:"intent_action"`
	IntentProtocol *string    `json:"intent_protocol"`
	CreatedAt      time.Time  `json:"created_at"`
	ConfirmedAt    *time.Time `json:"confirmed_at"`
}

// TxPage is one page of a transaction listing. Total counts every row the
// filter matches, not just the rows carried in this page, and both counts
// come from the same read snapshot.
type TxPage struct {
	Transactions []Transaction `json:"transactions"`
	Total        int64         `json:"total"`
	Limit        int           `json:"limit"`
	Offset       int           `json:"offset"`
}

// AgentCallCount pairs an agent with how many ledger rows reference it.
type AgentCallCount struct {
	AgentID string `json:"agent_id"`
	Calls   int64  `json:"calls"`
}

// UserStats aggregates ledger activity for a single user address.
type UserStats struct {
	UserAddress       string           `json:"user_address"`
	TotalTransactions int64            `json:"total_transactions"`
	TotalGasUsed      int64            `json:"total_gas_used"`
	SuccessRate       float64          `json:"success_rate"`
	FavoriteAgents    []AgentCallCount `json:"favorite_agents"`
	RecentActivity    []Transaction    `json:"recent_activity"`
}

// AgentStats aggregates ledger activity routed through a single agent.
type AgentStats struct {
	AgentID           string  `json:"agent_id"`
	TotalCalls        int64   `json:"total_calls"`
	UniqueUsers       int64   `json:"unique_users"`
	TotalGasUsed      int64   `json:"total_gas_used"`
	SuccessRate       float64 `json:"success_rate"`
	AverageGasPerCall int64   `json:"average_gas_per_call"`
}

// GlobalStats aggregates the whole ledger.
type GlobalStats struct {
	TotalTransactions   int64            `json:"total_transactions"`
	TotalUsers          int64            `json:"total_users"`
	TotalAgents         int64            `json:"total_agents"`
	TotalGasUsed        int64            `json:"total_gas_used"`
	SuccessRate         float64          `json:"success_rate"`
	TransactionsLast24h int64            `json:"transactions_last_24h"`
	TopAgents           []AgentCallCount `json:"top_agents"`
}

// successRate is confirmed over settled (confirmed + failed). Pending rows
// do not count against anyone; an empty ledger rates 0.
func successRate(confirmed, failed int64) float64 {
	settled := confirmed + failed
	if settled == 0 {
		return 0
	}
	return float64(confirmed) / float64(settled)
}
