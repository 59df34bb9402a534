// Package domain contains core business entities and rules.
package domain

// Quote is a single record in the collection: a short piece of text
// labeled with a free-form category. It is a domain entity with no
// knowledge of storage or transport.
type Quote struct {
	// ID is a stable identifier minted when the record enters the
	// collection. Records arriving from outside (remote snapshots,
	// imported documents) may not carry one.
	ID string `json:"id,omitempty"`

	// Text is the quotable content. Never empty for a stored record.
	Text string `json:"text"`

	// Category is a free-form label. Never empty for a stored record.
	// Arbitrary strings are expected; it is not a closed enum.
	Category string `json:"category"`
}

// Key returns the structural identity of the quote: the exact text.
// Two records with equal text are treated as the same entity when no
// stable ID is available to compare. Comparison is case-sensitive.
func (q Quote) Key() string {
	return q.Text
}

// Validate enforces the insertion invariant: both text and category
// must be non-empty. Returns a ValidationError naming the first
// offending field.
func (q Quote) Validate() error {
	if q.Text == "" {
		return NewValidationError("text", "must not be empty")
	}

	if q.Category == "" {
		return NewValidationError("category", "must not be empty")
	}

	return nil
}

// Same reports whether other refers to the same entity as q.
// Stable IDs win when both records carry one; otherwise identity
// falls back to the structural key.
func (q Quote) Same(other Quote) bool {
	if q.ID != "" && other.ID != "" {
		return q.ID == other.ID
	}

	return q.Key() == other.Key()
}
