package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"liftlog/internal/api"
	"liftlog/internal/database"
	"liftlog/internal/metrics"
)

// State is the engine's externally visible condition
type State int

const (
	StateIdle State = iota
	StateSyncing
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSyncing:
		return "syncing"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Status is a snapshot published to subscribers on every transition
type Status struct {
	State    State
	Pending  int
	Attempts int
}

// DefaultRetrySchedule is the delay before each retry attempt. One
// more failure past the end of the schedule puts the engine in the
// error state.
var DefaultRetrySchedule = []time.Duration{1 * time.Second, 3 * time.Second, 10 * time.Second}

// DefaultErrorResetDelay is how long the error state lingers before
// self-healing back to idle
const DefaultErrorResetDelay = 10 * time.Second

// Engine owns all sync state: the status machine, the retry counter,
// and the cancellable timers. Construct one per process and hand it to
// callers; there is no package-level state.
type Engine struct {
	db     *database.DB
	client *api.Client
	logger *slog.Logger

	retrySchedule   []time.Duration
	errorResetDelay time.Duration

	mu          sync.Mutex
	state       State
	attempts    int
	online      bool
	retryTimer  *time.Timer
	errorTimer  *time.Timer
	subscribers []func(Status)
}

// New creates the engine and wires it to the store's mutation hook so
// local writes trigger an opportunistic sync
func New(db *database.DB, client *api.Client, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{
		db:              db,
		client:          client,
		logger:          logger,
		retrySchedule:   DefaultRetrySchedule,
		errorResetDelay: DefaultErrorResetDelay,
		state:           StateIdle,
		online:          true,
	}
	db.SetMutationHook(e.onMutation)
	return e
}

// Subscribe registers a callback invoked on every state or
// pending-count transition. Callbacks run outside the engine lock and
// must not block for long.
func (e *Engine) Subscribe(fn func(Status)) {
	e.mu.Lock()
	e.subscribers = append(e.subscribers, fn)
	e.mu.Unlock()
}

// Status returns the current engine snapshot
func (e *Engine) Status() Status {
	pending, _ := e.db.PendingCount()
	e.mu.Lock()
	defer e.mu.Unlock()
	return Status{State: e.state, Pending: pending, Attempts: e.attempts}
}

func (e *Engine) notify() {
	pending, _ := e.db.PendingCount()

	e.mu.Lock()
	status := Status{State: e.state, Pending: pending, Attempts: e.attempts}
	subs := make([]func(Status), len(e.subscribers))
	copy(subs, e.subscribers)
	e.mu.Unlock()

	metrics.SyncState.Set(float64(status.State))
	for _, fn := range subs {
		fn(status)
	}
}

// onMutation is the store's fire-and-forget hook: a committed local
// write nudges the engine, but its failure can never affect the write
func (e *Engine) onMutation() {
	e.mu.Lock()
	online := e.online
	e.mu.Unlock()
	if !online {
		return
	}
	go e.TrySync()
}

// TrySync starts a sync unless one is already in flight or the device
// is running under the anonymous identity. Concurrent calls collapse
// into the in-flight sync and return false.
func (e *Engine) TrySync() bool {
	userID, token, err := e.db.Session()
	if err != nil {
		e.logger.Error("failed to read session", "error", err)
		return false
	}
	if userID == 0 {
		// Nothing to sync for the local-only identity
		return false
	}

	e.mu.Lock()
	if e.state == StateSyncing {
		e.mu.Unlock()
		return false
	}
	if e.retryTimer != nil {
		e.retryTimer.Stop()
		e.retryTimer = nil
	}
	if e.errorTimer != nil {
		e.errorTimer.Stop()
		e.errorTimer = nil
	}
	e.state = StateSyncing
	e.mu.Unlock()
	e.notify()

	go e.runSync(token)
	return true
}

func (e *Engine) runSync(token string) {
	start := time.Now()
	err := e.syncOnce(context.Background(), token)

	switch {
	case err == nil:
		e.mu.Lock()
		e.state = StateIdle
		e.attempts = 0
		e.mu.Unlock()
		e.notify()
		metrics.SyncsTotal.WithLabelValues(metrics.ResultSuccess).Inc()
		e.logger.Info("sync completed", "duration_ms", time.Since(start).Milliseconds())

	case api.IsUnauthorized(err):
		// Session expired: not an error state, just nothing we can do
		// until the user signs in again
		e.mu.Lock()
		e.state = StateIdle
		e.mu.Unlock()
		e.notify()
		metrics.SyncsTotal.WithLabelValues(metrics.ResultUnauthorized).Inc()
		e.logger.Info("sync aborted, session expired")

	default:
		e.scheduleRetry(err)
	}
}

// syncOnce runs one push+pull pass. The pull phase is only reached if
// the push succeeded or there was nothing to push.
func (e *Engine) syncOnce(ctx context.Context, token string) error {
	entries, err := e.db.ListOutbox()
	if err != nil {
		return err
	}

	if len(entries) > 0 {
		changes := make([]api.Change, len(entries))
		ids := make([]int64, len(entries))
		for i, entry := range entries {
			changes[i] = api.Change{
				Table:    entry.Table,
				RecordID: entry.RecordID,
				Action:   string(entry.Action),
				Data:     entry.Payload,
			}
			ids[i] = entry.ID
		}

		pushStart := time.Now()
		if err := e.client.Push(ctx, token, changes); err != nil {
			return err
		}
		metrics.SyncDuration.WithLabelValues(metrics.PhasePush).Observe(time.Since(pushStart).Seconds())
		metrics.PushBatchSize.Observe(float64(len(changes)))

		// Delete exactly the entries we sent; anything enqueued while
		// the push was in flight stays for the next pass
		if err := e.db.DeleteOutboxEntries(ids); err != nil {
			return err
		}
	}

	watermark, err := e.db.Watermark()
	if err != nil {
		return err
	}

	pullStart := time.Now()
	pull, err := e.client.Pull(ctx, token, watermark)
	if err != nil {
		return err
	}
	if err := e.db.ApplyChanges(pull.Changes); err != nil {
		return err
	}
	metrics.SyncDuration.WithLabelValues(metrics.PhasePull).Observe(time.Since(pullStart).Seconds())

	// Only now is the new cursor safe to record
	return e.db.SetWatermark(pull.Watermark)
}

func (e *Engine) scheduleRetry(cause error) {
	e.mu.Lock()
	e.attempts++
	attempt := e.attempts

	if attempt > len(e.retrySchedule) {
		e.state = StateError
		if e.errorTimer != nil {
			e.errorTimer.Stop()
		}
		e.errorTimer = time.AfterFunc(e.errorResetDelay, e.errorExpired)
		e.mu.Unlock()
		e.notify()
		metrics.SyncsTotal.WithLabelValues(metrics.ResultError).Inc()
		e.logger.Warn("sync failed, giving up until activity resumes", "attempts", attempt, "error", cause)
		return
	}

	delay := e.retrySchedule[attempt-1]
	e.state = StateIdle
	if e.online {
		e.retryTimer = time.AfterFunc(delay, func() { e.TrySync() })
	}
	e.mu.Unlock()
	e.notify()
	metrics.SyncsTotal.WithLabelValues(metrics.ResultRetry).Inc()
	metrics.SyncRetriesTotal.Inc()
	e.logger.Warn("sync failed, retry scheduled", "attempt", attempt, "delay", delay, "error", cause)
}

// errorExpired self-heals the error indicator after a quiet period so
// the UI never shows a sticky failure
func (e *Engine) errorExpired() {
	e.mu.Lock()
	if e.state != StateError {
		e.mu.Unlock()
		return
	}
	e.state = StateIdle
	e.attempts = 0
	e.errorTimer = nil
	e.mu.Unlock()
	e.notify()
}

// SetOnline tells the engine about connectivity transitions. Coming
// online triggers an immediate attempt with a fresh retry budget;
// going offline cancels any scheduled retry.
func (e *Engine) SetOnline(online bool) {
	e.mu.Lock()
	was := e.online
	e.online = online
	if !online && e.retryTimer != nil {
		e.retryTimer.Stop()
		e.retryTimer = nil
	}
	if online && !was {
		e.attempts = 0
	}
	e.mu.Unlock()

	if online && !was {
		e.TrySync()
	}
}

// ErrAnonymous is returned by SyncNow when no identity is signed in
var ErrAnonymous = errors.New("no signed-in identity")

// SyncNow runs a single push+pull pass synchronously and reports its
// outcome. Short-lived callers use this instead of TrySync, which
// returns before the background pass finishes.
func (e *Engine) SyncNow(ctx context.Context) error {
	userID, token, err := e.db.Session()
	if err != nil {
		return err
	}
	if userID == 0 {
		return ErrAnonymous
	}

	e.mu.Lock()
	if e.state == StateSyncing {
		e.mu.Unlock()
		return errors.New("sync already in flight")
	}
	e.state = StateSyncing
	e.mu.Unlock()
	e.notify()

	start := time.Now()
	err = e.syncOnce(ctx, token)

	e.mu.Lock()
	e.state = StateIdle
	if err == nil {
		e.attempts = 0
	}
	e.mu.Unlock()
	e.notify()

	if err != nil {
		metrics.SyncsTotal.WithLabelValues(metrics.ResultError).Inc()
		return err
	}
	metrics.SyncsTotal.WithLabelValues(metrics.ResultSuccess).Inc()
	e.logger.Info("sync completed", "duration_ms", time.Since(start).Milliseconds())
	return nil
}

// FullSync bypasses the outbox and watermark entirely: it fetches the
// server's complete snapshot and replaces every local table wholesale.
// Used at login/session-restore, when the local watermark cannot be
// trusted to describe the same account. Must not be invoked while a
// regular sync is in flight.
func (e *Engine) FullSync(ctx context.Context) error {
	_, token, err := e.db.Session()
	if err != nil {
		return err
	}

	e.mu.Lock()
	e.state = StateSyncing
	e.mu.Unlock()
	e.notify()

	defer func() {
		e.mu.Lock()
		e.state = StateIdle
		e.attempts = 0
		e.mu.Unlock()
		e.notify()
	}()

	start := time.Now()
	full, err := e.client.Full(ctx, token)
	if err != nil {
		return err
	}
	if err := e.db.ReplaceAll(full.Changes); err != nil {
		return err
	}
	if err := e.db.SetWatermark(full.Watermark); err != nil {
		return err
	}
	metrics.SyncDuration.WithLabelValues(metrics.PhaseFull).Observe(time.Since(start).Seconds())
	return nil
}

// Close cancels any scheduled work. Called at teardown (logout or
// process exit); a sync already in flight runs to completion.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.retryTimer != nil {
		e.retryTimer.Stop()
		e.retryTimer = nil
	}
	if e.errorTimer != nil {
		e.errorTimer.Stop()
		e.errorTimer = nil
	}
	e.mu.Unlock()
}
