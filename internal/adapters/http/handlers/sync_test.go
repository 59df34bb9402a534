package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quotevault/internal/adapters/http/dto"
	"github.com/jsamuelsen/quotevault/internal/adapters/storage"
	"github.com/jsamuelsen/quotevault/internal/app"
	"github.com/jsamuelsen/quotevault/internal/domain"
)

// stubRemote is a canned remote feed for handler tests.
type stubRemote struct {
	mu           sync.Mutex
	quotes       []domain.Quote
	fetchErr     error
	gate         chan struct{}
	fetchStarted chan struct{}
}

func (r *stubRemote) FetchQuotes(ctx context.Context) ([]domain.Quote, error) {
	if r.fetchStarted != nil {
		r.fetchStarted <- struct{}{}
	}

	if r.gate != nil {
		select {
		case <-r.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.fetchErr != nil {
		return nil, r.fetchErr
	}

	out := make([]domain.Quote, len(r.quotes))
	copy(out, r.quotes)

	return out, nil
}

func (r *stubRemote) PushQuote(_ context.Context, _ domain.Quote) error {
	return nil
}

func setupSyncHandler(t *testing.T, remote *stubRemote) (*SyncHandler, *app.SyncService, *app.Scheduler) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store := app.NewQuoteStore(storage.NewMemoryStore(), storage.NewMemoryStore(), &app.QuoteStoreConfig{
		Logger: logger,
	})
	require.NoError(t, store.Load(context.Background()))

	service := app.NewSyncService(store, remote, app.SyncConfig{Logger: logger})
	scheduler := app.NewScheduler(service, time.Minute, logger)

	return NewSyncHandler(service, scheduler), service, scheduler
}

func TestSyncHandler_Trigger(t *testing.T) {
	remote := &stubRemote{quotes: []domain.Quote{
		{ID: "r-1", Text: "A remote quote.", Category: "Server"},
	}}
	handler, _, _ := setupSyncHandler(t, remote)

	w, c := performRequest(t, http.MethodPost, "/api/v1/sync", "")
	handler.Trigger(c)

	require.Equal(t, http.StatusOK, w.Code)

	var outcome domain.SyncOutcome
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &outcome))
	assert.Equal(t, domain.StatusSynced, outcome.Status)
	assert.Equal(t, 1, outcome.NewCount)
}

func TestSyncHandler_Trigger_Conflict(t *testing.T) {
	gate := make(chan struct{})
	started := make(chan struct{})
	remote := &stubRemote{gate: gate, fetchStarted: started}
	handler, service, _ := setupSyncHandler(t, remote)

	// Hold a pass open so the handler request finds the guard taken.
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		service.SyncOnce(context.Background())
	}()

	// Wait until the background pass is inside the fetch, holding the guard.
	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("background pass never reached the fetch")
	}

	w, c := performRequest(t, http.MethodPost, "/api/v1/sync", "")
	handler.Trigger(c)

	require.Equal(t, http.StatusConflict, w.Code)

	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, dto.ErrorCodeConflict, resp.Error.Code)

	close(gate)
	wg.Wait()
}

func TestSyncHandler_Status(t *testing.T) {
	remote := &stubRemote{}
	handler, service, scheduler := setupSyncHandler(t, remote)

	// Before any pass.
	w, c := performRequest(t, http.MethodGet, "/api/v1/sync/status", "")
	handler.Status(c)

	require.Equal(t, http.StatusOK, w.Code)

	var status dto.SyncStatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.False(t, status.SchedulerRunning)
	assert.Nil(t, status.LastOutcome)

	// After a pass, with the scheduler running.
	service.SyncOnce(context.Background())
	scheduler.Start(context.Background())
	defer scheduler.Stop()

	w, c = performRequest(t, http.MethodGet, "/api/v1/sync/status", "")
	handler.Status(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.True(t, status.SchedulerRunning)
	require.NotNil(t, status.LastOutcome)
	assert.Equal(t, domain.StatusUpToDate, status.LastOutcome.Status)
}

func TestSyncHandler_RegisterSyncRoutes(t *testing.T) {
	handler, _, _ := setupSyncHandler(t, &stubRemote{})

	router := gin.New()
	api := router.Group("/api/v1")
	handler.RegisterSyncRoutes(api)

	routeMap := make(map[string]bool)
	for _, r := range router.Routes() {
		routeMap[r.Method+" "+r.Path] = true
	}

	assert.True(t, routeMap["POST /api/v1/sync"])
	assert.True(t, routeMap["GET /api/v1/sync/status"])
}
