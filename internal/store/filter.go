package store

import (
	"fmt"
	"strings"
)

// Columns the listing may filter on. whereClause refuses to render a
// condition on any column outside this set.
const (
	colAgentID     = "agent_id"
	colUserAddress = "user_address"
	colStatus      = "status"
)

var filterColumns = map[string]bool{
	colAgentID:     true,
	colUserAddress: true,
	colStatus:      true,
}

// FilterParams carries the raw, optional filter values for a transaction
// listing. An empty string means no constraint on that column.
type FilterParams struct {
	AgentID     string
	UserAddress string
	Status      string
}

// txCond is one equality condition of a filter predicate. Values ride as
// bind parameters, never as query text.
type txCond struct {
	column string
	value  string
}

// TxFilter is a validated conjunction of equality conditions over the
// transactions table. The zero value matches every row.
type TxFilter struct {
	conds []txCond
}

// NewTxFilter builds a filter from raw parameters. Conditions are collected
// in a fixed column order so equal parameter sets always render the same
// SQL. Status is checked against the known lifecycle states; the other
// values are matched verbatim, since the write pipeline owns normalization.
func NewTxFilter(p FilterParams) (TxFilter, error) {
	var f TxFilter
	if p.AgentID != "" {
		f.conds = append(f.conds, txCond{column: colAgentID, value: p.AgentID})
	}
	if p.UserAddress != "" {
		f.conds = append(f.conds, txCond{column: colUserAddress, value: p.UserAddress})
	}
	if p.Status != "" {
		status, err := ParseTxStatus(p.Status)
		if err != nil {
			return TxFilter{}, err
		}
		f.conds = append(f.conds, txCond{column: colStatus, value: string(status)})
	}
	return f, nil
}

// whereClause renders the predicate as a WHERE fragment with placeholders
// numbered from firstArg, plus the bind values in matching order. An empty
// filter renders as no fragment at all.
func (f TxFilter) whereClause(firstArg int) (string, []any, error) {
	if len(f.conds) == 0 {
		return "", nil, nil
	}
	var sb strings.Builder
	args := make([]any, 0, len(f.conds))
	for i, c := range f.conds {
		if !filterColumns[c.column] {
			return "", nil, fmt.Errorf("%w: predicate on unknown column %q", ErrInvariantViolation, c.column)
		}
		if i == 0 {
			sb.WriteString(" WHERE ")
		} else {
			sb.WriteString(" AND ")
		}
		fmt.Fprintf(&sb, "%s = $%d", c.column, firstArg+i)
		args = append(args, c.value)
	}
	return sb.String(), args, nil
}

// Matches reports whether a transaction satisfies every condition of the
// filter. It mirrors the SQL predicate so filter semantics stay testable
// without a database. A NULL agent_id matches no agent condition.
func (f TxFilter) Matches(t *Transaction) bool {
	for _, c := range f.conds {
		switch c.column {
		case colAgentID:
			if t.AgentID == nil || *t.AgentID != c.value {
				return false
			}
		case colUserAddress:
			if t.UserAddress != c.value {
				return false
			}
		case colStatus:
			if string(t.Status) != c.value {
				return false
			}
		default:
			return false
		}
	}
	return true
}
