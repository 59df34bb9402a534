// Package app contains application services that orchestrate use cases.
// This is the application layer in Clean Architecture - it coordinates
// domain logic and infrastructure through ports.
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/jsamuelsen/quotevault/internal/domain"
	"github.com/jsamuelsen/quotevault/internal/platform/logging"
	"github.com/jsamuelsen/quotevault/internal/ports"
)

// Storage keys. The collection and the selected filter survive restarts;
// the last shown quote only lives for the session.
const (
	collectionKey = "quotes"
	filterKey     = "selected_category"
	lastQuoteKey  = "last_quote"
)

// seedQuotes returns the built-in starter collection, used when the
// durable store holds no collection yet (first run or wiped data dir).
func seedQuotes() []domain.Quote {
	return []domain.Quote{
		{ID: uuid.New().String(), Text: "The only limit to our realization of tomorrow is our doubts of today.", Category: "Motivation"},
		{ID: uuid.New().String(), Text: "Life is what happens when you're busy making other plans.", Category: "Life"},
		{ID: uuid.New().String(), Text: "In the middle of every difficulty lies opportunity.", Category: "Inspiration"},
	}
}

// QuoteStore owns the in-memory quote collection and is its sole writer.
// All mutations persist the full collection to the durable store before
// returning; a failed persist rolls the in-memory state back, so memory
// and disk never drift.
type QuoteStore struct {
	mu     sync.RWMutex
	quotes []domain.Quote

	durable ports.KeyValue
	session ports.KeyValue
	logger  *slog.Logger
}

// QuoteStoreConfig holds optional configuration for the store.
type QuoteStoreConfig struct {
	Logger *slog.Logger
}

// NewQuoteStore creates a store backed by the given durable and session
// key-value stores. Call Load before serving requests.
func NewQuoteStore(durable, session ports.KeyValue, cfg *QuoteStoreConfig) *QuoteStore {
	logger := slog.Default()
	if cfg != nil && cfg.Logger != nil {
		logger = cfg.Logger
	}

	return &QuoteStore{
		durable: durable,
		session: session,
		logger:  logger.With(slog.String("component", "app.QuoteStore")),
	}
}

// Load reads the persisted collection into memory. An absent or
// unparsable value falls back to the built-in seed records, which are
// persisted immediately so the next start finds a valid collection.
// Records persisted before stable IDs existed get one minted here.
func (s *QuoteStore) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := s.durable.Get(ctx, collectionKey)
	if err != nil {
		if !domain.IsNotFound(err) {
			return fmt.Errorf("reading collection: %w", err)
		}

		s.logger.InfoContext(ctx, "no persisted collection, seeding defaults")
		s.quotes = seedQuotes()

		return s.persistLocked(ctx)
	}

	var quotes []domain.Quote
	if err := json.Unmarshal(raw, &quotes); err != nil {
		s.logger.WarnContext(ctx, "persisted collection unparsable, seeding defaults",
			slog.Any("error", err))
		s.quotes = seedQuotes()

		return s.persistLocked(ctx)
	}

	minted := false
	for i := range quotes {
		if quotes[i].ID == "" {
			quotes[i].ID = uuid.New().String()
			minted = true
		}
	}

	s.quotes = quotes
	s.logger.InfoContext(ctx, "collection loaded", slog.Int("count", len(quotes)))

	if minted {
		return s.persistLocked(ctx)
	}

	return nil
}

// Append validates and adds one record. The record gets a stable UUID
// if it does not carry one. On validation failure nothing changes.
func (s *QuoteStore) Append(ctx context.Context, q domain.Quote) (domain.Quote, error) {
	if err := q.Validate(); err != nil {
		return domain.Quote{}, err
	}

	if q.ID == "" {
		q.ID = uuid.New().String()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.quotes = append(s.quotes, q)

	if err := s.persistLocked(ctx); err != nil {
		s.quotes = s.quotes[:len(s.quotes)-1]
		return domain.Quote{}, err
	}

	s.logger.InfoContext(ctx, "quote added",
		slog.String("quote_id", q.ID),
		slog.String("category", q.Category))

	return q, nil
}

// ReplaceAll swaps the whole collection. Every incoming record must be
// well shaped; the first bad record aborts with a FormatError and the
// existing collection is untouched.
func (s *QuoteStore) ReplaceAll(ctx context.Context, quotes []domain.Quote) error {
	replacement := make([]domain.Quote, len(quotes))
	for i, q := range quotes {
		if err := q.Validate(); err != nil {
			return domain.NewFormatErrorWithCause(fmt.Sprintf("record %d is not a valid quote", i), err)
		}

		if q.ID == "" {
			q.ID = uuid.New().String()
		}

		replacement[i] = q
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	previous := s.quotes
	s.quotes = replacement

	if err := s.persistLocked(ctx); err != nil {
		s.quotes = previous
		return err
	}

	s.logger.InfoContext(ctx, "collection replaced", slog.Int("count", len(replacement)))

	return nil
}

// ImportAppend adds records that are not already in the collection,
// comparing by identity. Returns how many were added. Invalid records
// abort the whole import with a FormatError before anything changes.
func (s *QuoteStore) ImportAppend(ctx context.Context, quotes []domain.Quote) (int, error) {
	for i, q := range quotes {
		if err := q.Validate(); err != nil {
			return 0, domain.NewFormatErrorWithCause(fmt.Sprintf("record %d is not a valid quote", i), err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	previous := s.quotes
	added := 0

	for _, q := range quotes {
		if s.containsLocked(q) {
			continue
		}

		if q.ID == "" {
			q.ID = uuid.New().String()
		}

		s.quotes = append(s.quotes, q)
		added++
	}

	if added == 0 {
		return 0, nil
	}

	if err := s.persistLocked(ctx); err != nil {
		s.quotes = previous
		return 0, err
	}

	s.logger.InfoContext(ctx, "records imported",
		slog.Int("added", added),
		slog.Int("skipped", len(quotes)-added))

	return added, nil
}

// ApplyPlan applies a reconciliation plan: category overwrites in place,
// then additions with minted IDs. Additions already present (a record
// added between planning and applying) are skipped. One persist covers
// the whole merge. Returns how many records were added and updated.
func (s *QuoteStore) ApplyPlan(ctx context.Context, plan domain.Plan) (added, updated int, err error) {
	if plan.Empty() {
		return 0, 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	previous := make([]domain.Quote, len(s.quotes))
	copy(previous, s.quotes)

	for _, ow := range plan.Overwrites {
		if ow.Index < 0 || ow.Index >= len(s.quotes) {
			continue
		}
		if s.quotes[ow.Index].Category == ow.Category {
			continue
		}
		s.quotes[ow.Index].Category = ow.Category
		updated++
	}

	for _, q := range plan.Additions {
		if q.Validate() != nil || s.containsLocked(q) {
			continue
		}

		if q.ID == "" {
			q.ID = uuid.New().String()
		}

		s.quotes = append(s.quotes, q)
		added++
	}

	if added == 0 && updated == 0 {
		return 0, 0, nil
	}

	if err := s.persistLocked(ctx); err != nil {
		s.quotes = previous
		return 0, 0, err
	}

	return added, updated, nil
}

// UpdateCategory changes the category of the record with the given ID.
// This is the manual conflict resolution path.
func (s *QuoteStore) UpdateCategory(ctx context.Context, id, category string) (domain.Quote, error) {
	if category == "" {
		return domain.Quote{}, domain.NewValidationError("category", "must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.quotes {
		if s.quotes[i].ID != id {
			continue
		}

		previous := s.quotes[i].Category
		s.quotes[i].Category = category

		if err := s.persistLocked(ctx); err != nil {
			s.quotes[i].Category = previous
			return domain.Quote{}, err
		}

		return s.quotes[i], nil
	}

	return domain.Quote{}, domain.NewNotFoundError("quote", id)
}

// Snapshot returns a copy of the collection in insertion order.
func (s *QuoteStore) Snapshot() []domain.Quote {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Quote, len(s.quotes))
	copy(out, s.quotes)

	return out
}

// Count returns the number of records in the collection.
func (s *QuoteStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.quotes)
}

// Categories returns the distinct categories, sorted for stable output.
func (s *QuoteStore) Categories() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{}, len(s.quotes))
	out := make([]string, 0, len(s.quotes))

	for _, q := range s.quotes {
		if _, ok := seen[q.Category]; ok {
			continue
		}
		seen[q.Category] = struct{}{}
		out = append(out, q.Category)
	}

	sort.Strings(out)

	return out
}

// Filter returns the records in the given category, or the whole
// collection when category is empty. Matching ignores case, so a filter
// of "life" still finds records stored under "Life".
func (s *QuoteStore) Filter(category string) []domain.Quote {
	if category == "" {
		return s.Snapshot()
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Quote
	for _, q := range s.quotes {
		if strings.EqualFold(q.Category, category) {
			out = append(out, q)
		}
	}

	return out
}

// Random picks a uniformly random record from the given category (empty
// means the whole collection) and remembers it in the session store as
// the last shown quote. Returns ErrNotFound when nothing matches.
func (s *QuoteStore) Random(ctx context.Context, category string) (domain.Quote, error) {
	candidates := s.Filter(category)
	if len(candidates) == 0 {
		return domain.Quote{}, domain.NewNotFoundError("quote", "category "+displayCategory(category))
	}

	q := candidates[rand.IntN(len(candidates))] //nolint:gosec // No need for crypto-grade randomness

	raw, err := json.Marshal(q)
	if err != nil {
		return domain.Quote{}, fmt.Errorf("encoding last quote: %w", err)
	}

	if err := s.session.Set(ctx, lastQuoteKey, raw); err != nil {
		// Losing the session memo is not worth failing the request.
		logging.FromContext(ctx).WarnContext(ctx, "failed to remember last quote", slog.Any("error", err))
	}

	return q, nil
}

// LastShown returns the last quote handed out by Random during this
// session, or ErrNotFound if none was shown yet.
func (s *QuoteStore) LastShown(ctx context.Context) (domain.Quote, error) {
	raw, err := s.session.Get(ctx, lastQuoteKey)
	if err != nil {
		return domain.Quote{}, err
	}

	var q domain.Quote
	if err := json.Unmarshal(raw, &q); err != nil {
		return domain.Quote{}, domain.NewFormatErrorWithCause("decoding last quote", err)
	}

	return q, nil
}

// SelectedCategory returns the persisted category filter. Empty string
// means no filter.
func (s *QuoteStore) SelectedCategory(ctx context.Context) (string, error) {
	raw, err := s.durable.Get(ctx, filterKey)
	if err != nil {
		if domain.IsNotFound(err) {
			return "", nil
		}

		return "", fmt.Errorf("reading filter: %w", err)
	}

	return string(raw), nil
}

// SetSelectedCategory persists the category filter. Empty clears it.
func (s *QuoteStore) SetSelectedCategory(ctx context.Context, category string) error {
	if err := s.durable.Set(ctx, filterKey, []byte(category)); err != nil {
		return fmt.Errorf("persisting filter: %w", err)
	}

	s.logger.InfoContext(ctx, "category filter set", slog.String("category", displayCategory(category)))

	return nil
}

// containsLocked reports whether a record with the same identity is
// already in the collection. Callers must hold at least a read lock.
func (s *QuoteStore) containsLocked(q domain.Quote) bool {
	for _, existing := range s.quotes {
		if existing.Same(q) {
			return true
		}
	}

	return false
}

// persistLocked writes the collection to the durable store. Callers
// must hold the write lock.
func (s *QuoteStore) persistLocked(ctx context.Context) error {
	raw, err := json.Marshal(s.quotes)
	if err != nil {
		return fmt.Errorf("encoding collection: %w", err)
	}

	if err := s.durable.Set(ctx, collectionKey, raw); err != nil {
		return fmt.Errorf("persisting collection: %w", err)
	}

	return nil
}

// displayCategory renders the empty filter as "all" for logs and errors.
func displayCategory(category string) string {
	if category == "" {
		return "all"
	}

	return category
}
