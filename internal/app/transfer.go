package app

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jsamuelsen/quotevault/internal/domain"
)

// Transfer moves the collection across the process boundary as JSON.
// The wire shape is a plain array of records, readable and hand-editable.
type Transfer struct {
	store *QuoteStore
}

// NewTransfer creates a transfer service over the given store.
func NewTransfer(store *QuoteStore) *Transfer {
	return &Transfer{store: store}
}

// Export serializes the whole collection as a two-space indented JSON
// array, suitable for a file download.
func (t *Transfer) Export(_ context.Context) ([]byte, error) {
	raw, err := json.MarshalIndent(t.store.Snapshot(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding collection: %w", err)
	}

	return raw, nil
}

// Import parses a JSON document and appends its records to the
// collection, skipping records already present. The document must be a
// JSON array of well-shaped records; anything else is a FormatError and
// the collection stays untouched. Returns how many records were added.
func (t *Transfer) Import(ctx context.Context, data []byte) (int, error) {
	var quotes []domain.Quote
	if err := json.Unmarshal(data, &quotes); err != nil {
		return 0, domain.NewFormatErrorWithCause("document is not a JSON array of quotes", err)
	}

	return t.store.ImportAppend(ctx, quotes)
}
