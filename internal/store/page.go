package store

import "fmt"

// Pagination window for transaction listings.
const (
	DefaultPageLimit = 50
	MaxPageLimit     = 100
)

// PageRequest is an offset window over a filtered listing.
type PageRequest struct {
	Limit  int
	Offset int
}

// DefaultPage is the window used when a caller supplies no pagination.
func DefaultPage() PageRequest {
	return PageRequest{Limit: DefaultPageLimit}
}

// Validate rejects out-of-range windows with ErrInvalidPagination. Values
// are never clamped: a caller asking for limit 0 or 1000 sent a broken
// request and hears about it.
func (p PageRequest) Validate() error {
	if p.Limit < 1 || p.Limit > MaxPageLimit {
		return fmt.Errorf("%w: limit %d outside [1, %d]", ErrInvalidPagination, p.Limit, MaxPageLimit)
	}
	if p.Offset < 0 {
		return fmt.Errorf("%w: offset %d is negative", ErrInvalidPagination, p.Offset)
	}
	return nil
}
