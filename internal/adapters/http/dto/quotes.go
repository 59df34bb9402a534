package dto

import (
	"github.com/jsamuelsen/quotevault/internal/domain"
)

// QuoteResponse is the wire representation of one quote record.
type QuoteResponse struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	Category string `json:"category"`
}

// QuoteFromDomain converts a domain record to its wire representation.
func QuoteFromDomain(q domain.Quote) QuoteResponse {
	return QuoteResponse{
		ID:       q.ID,
		Text:     q.Text,
		Category: q.Category,
	}
}

// QuotesFromDomain converts a slice of domain records.
func QuotesFromDomain(quotes []domain.Quote) []QuoteResponse {
	out := make([]QuoteResponse, 0, len(quotes))
	for _, q := range quotes {
		out = append(out, QuoteFromDomain(q))
	}

	return out
}

// AddQuoteRequest is the request body for adding a quote.
type AddQuoteRequest struct {
	Text     string `json:"text"     validate:"required,notempty"`
	Category string `json:"category" validate:"required,notempty"`
}

// ListQuotesRequest carries the optional category filter plus pagination.
type ListQuotesRequest struct {
	Category string `form:"category"`
	PaginationRequest
}

// RandomQuoteRequest carries the optional category override for random selection.
type RandomQuoteRequest struct {
	Category string `form:"category"`
}

// CategoriesResponse lists the distinct categories in the collection.
type CategoriesResponse struct {
	Categories []string `json:"categories"`
}

// FilterResponse is the persisted selected-category filter.
type FilterResponse struct {
	Category string `json:"category"`
}

// FilterRequest sets the persisted selected-category filter.
// An empty category clears the filter (show all).
type FilterRequest struct {
	Category string `json:"category"`
}

// ImportResult reports the outcome of a JSON import.
type ImportResult struct {
	Added int `json:"added"`
	Total int `json:"total"`
}

// SyncStatusResponse reports the last reconciliation outcome and
// whether the scheduler is running.
type SyncStatusResponse struct {
	SchedulerRunning bool                `json:"schedulerRunning"`
	LastOutcome      *domain.SyncOutcome `json:"lastOutcome,omitempty"`
}
