package app

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jsamuelsen/quotevault/internal/domain"
	"github.com/jsamuelsen/quotevault/internal/platform/logging"
	"github.com/jsamuelsen/quotevault/internal/ports"
)

// SyncConfig configures the reconciliation service.
type SyncConfig struct {
	// Policy is the conflict resolution rule, fixed for the process
	// lifetime.
	Policy domain.Policy

	// Timeout bounds one sync pass.
	Timeout time.Duration

	// PushLimit bounds the concurrency of the post-merge push of
	// local-only records.
	PushLimit int

	// Logger is the structured logger.
	Logger *slog.Logger
}

// SyncService reconciles the local collection against the remote feed.
// At most one pass runs at a time; a pass requested while another is in
// flight is dropped with a skipped outcome, never queued.
type SyncService struct {
	store  *QuoteStore
	remote ports.RemoteSource
	cfg    SyncConfig
	logger *slog.Logger

	// inFlight is the overlap guard. CAS from 0 to 1 wins the pass.
	inFlight atomic.Bool

	mu   sync.RWMutex
	last *domain.SyncOutcome
}

// NewSyncService creates a reconciliation service. Policy falls back to
// remote-wins if unset or unknown.
func NewSyncService(store *QuoteStore, remote ports.RemoteSource, cfg SyncConfig) *SyncService {
	if !cfg.Policy.Valid() {
		cfg.Policy = domain.PolicyRemoteWins
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}

	if cfg.PushLimit <= 0 {
		cfg.PushLimit = 3
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &SyncService{
		store:  store,
		remote: remote,
		cfg:    cfg,
		logger: logger.With(slog.String("component", "app.SyncService")),
	}
}

// SyncOnce runs one reconciliation pass and returns its outcome.
//
// The pass: fetch the remote snapshot (failure leaves the collection
// untouched), plan the merge, apply additions and policy-resolved
// overwrites through the store, then push local-only records back to
// the remote with bounded concurrency. Push failures are logged and
// never retried; they do not affect the outcome status.
func (s *SyncService) SyncOnce(ctx context.Context) domain.SyncOutcome {
	if !s.inFlight.CompareAndSwap(false, true) {
		s.logger.DebugContext(ctx, "sync already in flight, skipping")
		return domain.SyncOutcome{Status: domain.StatusSkipped, CompletedAt: time.Now()}
	}
	defer s.inFlight.Store(false)

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	outcome := s.runPass(ctx)
	s.record(outcome)

	return outcome
}

// runPass does the actual fetch-plan-apply-push work. The in-flight
// guard is already held.
func (s *SyncService) runPass(ctx context.Context) domain.SyncOutcome {
	logger := logging.FromContext(ctx).With(slog.String("component", "app.SyncService"))

	remote, err := s.remote.FetchQuotes(ctx)
	if err != nil {
		logger.WarnContext(ctx, "remote fetch failed", slog.Any("error", err))
		return domain.Failed(err.Error(), time.Now())
	}

	local := s.store.Snapshot()
	plan := domain.Reconcile(local, remote, s.cfg.Policy)

	added, updated, err := s.store.ApplyPlan(ctx, plan)
	if err != nil {
		logger.ErrorContext(ctx, "applying merge plan failed", slog.Any("error", err))
		return domain.Failed(err.Error(), time.Now())
	}

	s.pushMissing(ctx, local, remote, logger)

	outcome := domain.SyncOutcome{
		Status:       domain.StatusUpToDate,
		NewCount:     added,
		UpdatedCount: updated,
		Conflicts:    plan.Conflicts,
		CompletedAt:  time.Now(),
	}
	if outcome.Changed() {
		outcome.Status = domain.StatusSynced
	}

	logger.InfoContext(ctx, "sync pass completed",
		slog.String("status", string(outcome.Status)),
		slog.Int("new", added),
		slog.Int("updated", updated),
		slog.Int("conflicts", len(plan.Conflicts)))

	return outcome
}

// pushMissing mirrors local-only records to the remote. Fire and
// forget: each record is attempted once, failures only logged.
func (s *SyncService) pushMissing(ctx context.Context, local, remote []domain.Quote, logger *slog.Logger) {
	missing := domain.Missing(local, remote)
	if len(missing) == 0 {
		return
	}

	fns := make([]func(context.Context) (string, error), len(missing))
	for i, q := range missing {
		fns[i] = func(ctx context.Context) (string, error) {
			return q.ID, s.remote.PushQuote(ctx, q)
		}
	}

	failed := 0
	for _, res := range ParallelPartialLimit(ctx, s.cfg.PushLimit, fns...) {
		if res.Err != nil {
			failed++
			logger.WarnContext(ctx, "pushing record failed",
				slog.String("quote_id", res.Value),
				slog.Any("error", res.Err))
		}
	}

	logger.DebugContext(ctx, "local records pushed",
		slog.Int("attempted", len(missing)),
		slog.Int("failed", failed))
}

// LastOutcome returns the most recent pass outcome, or nil if no pass
// has completed yet. Skipped outcomes are not recorded; they would
// mask the result of the pass they yielded to.
func (s *SyncService) LastOutcome() *domain.SyncOutcome {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.last == nil {
		return nil
	}

	out := *s.last

	return &out
}

func (s *SyncService) record(outcome domain.SyncOutcome) {
	if outcome.Status == domain.StatusSkipped {
		return
	}

	s.mu.Lock()
	s.last = &outcome
	s.mu.Unlock()
}

// Scheduler triggers recurring sync passes on a fixed interval.
type Scheduler struct {
	service  *SyncService
	interval time.Duration
	logger   *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewScheduler creates a scheduler for the given service.
func NewScheduler(service *SyncService, interval time.Duration, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}

	return &Scheduler{
		service:  service,
		interval: interval,
		logger:   logger.With(slog.String("component", "app.Scheduler")),
	}
}

// Start launches the ticker goroutine. Passes that fail do not stop the
// schedule; overlapping ticks are dropped by the service's guard.
// Calling Start on a running scheduler is a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	s.logger.Info("sync scheduler started", slog.Duration("interval", s.interval))

	go s.run(ctx)
}

func (s *Scheduler) run(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.service.SyncOnce(ctx)
		}
	}
}

// Stop cancels the ticker goroutine and waits for it to exit.
// Calling Stop on a stopped scheduler is a no-op.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel == nil {
		return
	}

	s.cancel()
	<-s.done

	s.cancel = nil
	s.done = nil

	s.logger.Info("sync scheduler stopped")
}

// Running reports whether the ticker goroutine is active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.cancel != nil
}
