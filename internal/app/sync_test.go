package app

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quotevault/internal/domain"
)

// fakeRemote is an in-memory ports.RemoteSource.
type fakeRemote struct {
	mu         sync.Mutex
	quotes     []domain.Quote
	fetchErr   error
	fetchCalls int
	fetchGate  chan struct{} // when set, FetchQuotes blocks until closed
	pushed     []domain.Quote
	pushErr    error
}

func (f *fakeRemote) FetchQuotes(ctx context.Context) ([]domain.Quote, error) {
	f.mu.Lock()
	f.fetchCalls++
	gate := f.fetchGate
	err := f.fetchErr
	quotes := make([]domain.Quote, len(f.quotes))
	copy(quotes, f.quotes)
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if err != nil {
		return nil, err
	}

	return quotes, nil
}

func (f *fakeRemote) PushQuote(_ context.Context, q domain.Quote) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.pushErr != nil {
		return f.pushErr
	}

	f.pushed = append(f.pushed, q)

	return nil
}

func (f *fakeRemote) pushedQuotes() []domain.Quote {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]domain.Quote, len(f.pushed))
	copy(out, f.pushed)

	return out
}

func newSyncFixture(t *testing.T, remote *fakeRemote, policy domain.Policy) (*SyncService, *QuoteStore) {
	t.Helper()

	store, _, _ := newTestStore(t)
	require.NoError(t, store.Load(context.Background()))

	service := NewSyncService(store, remote, SyncConfig{
		Policy:    policy,
		Timeout:   5 * time.Second,
		PushLimit: 2,
		Logger:    testLogger(),
	})

	return service, store
}

func TestSyncOnce_AddsNewRemoteRecords(t *testing.T) {
	remote := &fakeRemote{quotes: []domain.Quote{
		{Text: "Fresh from the feed", Category: "Server"},
	}}
	service, store := newSyncFixture(t, remote, domain.PolicyRemoteWins)

	outcome := service.SyncOnce(context.Background())

	assert.Equal(t, domain.StatusSynced, outcome.Status)
	assert.Equal(t, 1, outcome.NewCount)
	assert.Zero(t, outcome.UpdatedCount)
	assert.Equal(t, 4, store.Count())
}

func TestSyncOnce_UpToDateWhenSnapshotMatches(t *testing.T) {
	remote := &fakeRemote{}
	service, store := newSyncFixture(t, remote, domain.PolicyRemoteWins)
	remote.quotes = store.Snapshot()

	outcome := service.SyncOnce(context.Background())

	assert.Equal(t, domain.StatusUpToDate, outcome.Status)
	assert.False(t, outcome.Changed())
	assert.Equal(t, 3, store.Count())
}

func TestSyncOnce_RemoteWinsOverwritesCategory(t *testing.T) {
	remote := &fakeRemote{}
	service, store := newSyncFixture(t, remote, domain.PolicyRemoteWins)

	local := store.Snapshot()
	remote.quotes = []domain.Quote{{Text: local[0].Text, Category: "Server"}}

	outcome := service.SyncOnce(context.Background())

	assert.Equal(t, domain.StatusSynced, outcome.Status)
	assert.Equal(t, 1, outcome.UpdatedCount)
	assert.Equal(t, "Server", store.Snapshot()[0].Category)
	// The record keeps its stable ID through the overwrite.
	assert.Equal(t, local[0].ID, store.Snapshot()[0].ID)
}

func TestSyncOnce_LocalWinsKeepsCategory(t *testing.T) {
	remote := &fakeRemote{}
	service, store := newSyncFixture(t, remote, domain.PolicyLocalWins)

	local := store.Snapshot()
	remote.quotes = []domain.Quote{{Text: local[0].Text, Category: "Server"}}

	outcome := service.SyncOnce(context.Background())

	assert.Equal(t, domain.StatusUpToDate, outcome.Status)
	assert.Equal(t, local[0].Category, store.Snapshot()[0].Category)
}

func TestSyncOnce_ManualSurfacesConflicts(t *testing.T) {
	remote := &fakeRemote{}
	service, store := newSyncFixture(t, remote, domain.PolicyManual)

	local := store.Snapshot()
	remote.quotes = []domain.Quote{{Text: local[0].Text, Category: "Server"}}

	outcome := service.SyncOnce(context.Background())

	assert.Equal(t, domain.StatusUpToDate, outcome.Status)
	require.Len(t, outcome.Conflicts, 1)
	assert.Equal(t, local[0].Category, outcome.Conflicts[0].LocalCategory)
	assert.Equal(t, "Server", outcome.Conflicts[0].RemoteCategory)
	// Manual policy never mutates.
	assert.Equal(t, local[0].Category, store.Snapshot()[0].Category)
}

func TestSyncOnce_FetchFailureMutatesNothing(t *testing.T) {
	remote := &fakeRemote{fetchErr: domain.NewUnavailableError("quote-feed", "boom")}
	service, store := newSyncFixture(t, remote, domain.PolicyRemoteWins)
	before := store.Snapshot()

	outcome := service.SyncOnce(context.Background())

	assert.Equal(t, domain.StatusFailed, outcome.Status)
	assert.NotEmpty(t, outcome.Reason)
	assert.Equal(t, before, store.Snapshot())
}

func TestSyncOnce_ConcurrentPassesSkip(t *testing.T) {
	gate := make(chan struct{})
	remote := &fakeRemote{fetchGate: gate}
	service, _ := newSyncFixture(t, remote, domain.PolicyRemoteWins)

	firstDone := make(chan domain.SyncOutcome, 1)
	go func() {
		firstDone <- service.SyncOnce(context.Background())
	}()

	// Wait until the first pass is inside the fetch.
	require.Eventually(t, func() bool {
		remote.mu.Lock()
		defer remote.mu.Unlock()
		return remote.fetchCalls == 1
	}, time.Second, 5*time.Millisecond)

	second := service.SyncOnce(context.Background())
	assert.Equal(t, domain.StatusSkipped, second.Status)

	close(gate)
	first := <-firstDone
	assert.NotEqual(t, domain.StatusSkipped, first.Status)

	// The skip never clobbers the real pass's outcome.
	last := service.LastOutcome()
	require.NotNil(t, last)
	assert.Equal(t, first.Status, last.Status)
}

func TestSyncOnce_PushesLocalOnlyRecords(t *testing.T) {
	remote := &fakeRemote{}
	service, store := newSyncFixture(t, remote, domain.PolicyRemoteWins)

	local := store.Snapshot()
	// Remote already has the first record; the other two are local-only.
	remote.quotes = []domain.Quote{{Text: local[0].Text, Category: local[0].Category}}

	service.SyncOnce(context.Background())

	pushed := remote.pushedQuotes()
	require.Len(t, pushed, 2)

	texts := []string{pushed[0].Text, pushed[1].Text}
	assert.Contains(t, texts, local[1].Text)
	assert.Contains(t, texts, local[2].Text)
}

func TestSyncOnce_PushFailureDoesNotAffectOutcome(t *testing.T) {
	remote := &fakeRemote{pushErr: domain.NewUnavailableError("quote-feed", "write path down")}
	service, _ := newSyncFixture(t, remote, domain.PolicyRemoteWins)

	outcome := service.SyncOnce(context.Background())

	assert.NotEqual(t, domain.StatusFailed, outcome.Status)
}

func TestSyncOnce_RepeatedSyncIsIdempotent(t *testing.T) {
	remote := &fakeRemote{quotes: []domain.Quote{
		{Text: "Only once", Category: "Server"},
	}}
	service, store := newSyncFixture(t, remote, domain.PolicyRemoteWins)

	first := service.SyncOnce(context.Background())
	assert.Equal(t, domain.StatusSynced, first.Status)
	countAfterFirst := store.Count()

	second := service.SyncOnce(context.Background())
	assert.Equal(t, domain.StatusUpToDate, second.Status)
	assert.Equal(t, countAfterFirst, store.Count())
}

func TestSyncService_LastOutcome(t *testing.T) {
	remote := &fakeRemote{}
	service, store := newSyncFixture(t, remote, domain.PolicyRemoteWins)
	remote.quotes = store.Snapshot()

	assert.Nil(t, service.LastOutcome())

	service.SyncOnce(context.Background())

	last := service.LastOutcome()
	require.NotNil(t, last)
	assert.Equal(t, domain.StatusUpToDate, last.Status)
	assert.False(t, last.CompletedAt.IsZero())
}

func TestScheduler_RunsAndStops(t *testing.T) {
	remote := &fakeRemote{}
	service, store := newSyncFixture(t, remote, domain.PolicyRemoteWins)
	remote.quotes = store.Snapshot()

	scheduler := NewScheduler(service, 20*time.Millisecond, testLogger())
	scheduler.Start(context.Background())
	assert.True(t, scheduler.Running())

	require.Eventually(t, func() bool {
		remote.mu.Lock()
		defer remote.mu.Unlock()
		return remote.fetchCalls >= 2
	}, time.Second, 5*time.Millisecond)

	scheduler.Stop()
	assert.False(t, scheduler.Running())

	remote.mu.Lock()
	callsAtStop := remote.fetchCalls
	remote.mu.Unlock()

	time.Sleep(60 * time.Millisecond)

	remote.mu.Lock()
	defer remote.mu.Unlock()
	assert.Equal(t, callsAtStop, remote.fetchCalls)
}

func TestScheduler_ContinuesAfterFailures(t *testing.T) {
	remote := &fakeRemote{fetchErr: domain.NewUnavailableError("quote-feed", "down")}
	service, _ := newSyncFixture(t, remote, domain.PolicyRemoteWins)

	scheduler := NewScheduler(service, 20*time.Millisecond, testLogger())
	scheduler.Start(context.Background())
	defer scheduler.Stop()

	// Failed passes do not stop the ticker.
	require.Eventually(t, func() bool {
		remote.mu.Lock()
		defer remote.mu.Unlock()
		return remote.fetchCalls >= 3
	}, time.Second, 5*time.Millisecond)

	last := service.LastOutcome()
	require.NotNil(t, last)
	assert.Equal(t, domain.StatusFailed, last.Status)
}

func TestScheduler_StartTwiceIsNoOp(t *testing.T) {
	remote := &fakeRemote{}
	service, store := newSyncFixture(t, remote, domain.PolicyRemoteWins)
	remote.quotes = store.Snapshot()

	scheduler := NewScheduler(service, time.Hour, testLogger())
	scheduler.Start(context.Background())
	scheduler.Start(context.Background())

	scheduler.Stop()
	scheduler.Stop()
	assert.False(t, scheduler.Running())
}

func TestNewSyncService_DefaultsPolicy(t *testing.T) {
	store, _, _ := newTestStore(t)
	service := NewSyncService(store, &fakeRemote{}, SyncConfig{Policy: "bogus", Logger: testLogger()})

	assert.Equal(t, domain.PolicyRemoteWins, service.cfg.Policy)
}
