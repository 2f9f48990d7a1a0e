package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/felixgeelhaar/fortify/circuitbreaker"
	"github.com/felixgeelhaar/fortify/retry"
	"go.opentelemetry.io/otel/trace"

	"github.com/felixgeelhaar/skillgap/internal/domain"
	"github.com/felixgeelhaar/skillgap/internal/observability"
	"github.com/felixgeelhaar/skillgap/internal/skillgraph"
)

// RefresherConfig controls periodic reloads and their resilience
type RefresherConfig struct {
	// Interval between background refreshes; zero disables the loop
	Interval time.Duration

	// MaxAttempts per refresh (default: 3)
	MaxAttempts int

	// InitialDelay before the first retry (default: 1s)
	InitialDelay time.Duration

	// MaxDelay caps retry backoff (default: 30s)
	MaxDelay time.Duration

	// FailureThreshold is the number of consecutive failed refreshes that
	// opens the circuit (default: 3)
	FailureThreshold int

	// OpenTimeout is how long the circuit stays open (default: 1m)
	OpenTimeout time.Duration

	// Logger for refresh events
	Logger *slog.Logger
}

// DefaultRefresherConfig returns production defaults
func DefaultRefresherConfig() RefresherConfig {
	return RefresherConfig{
		Interval:         5 * time.Minute,
		MaxAttempts:      3,
		InitialDelay:     time.Second,
		MaxDelay:         30 * time.Second,
		FailureThreshold: 3,
		OpenTimeout:      time.Minute,
	}
}

// Status describes the refresher's most recent activity
type Status struct {
	Source       string    `json:"source"`
	Revision     uint64    `json:"revision"`
	Skills       int       `json:"skills"`
	Relations    int       `json:"relations"`
	Roles        int       `json:"roles"`
	Warnings     int       `json:"warnings"`
	LoadedAt     time.Time `json:"loaded_at,omitzero"`
	LastAttempt  time.Time `json:"last_attempt,omitzero"`
	LastError    string    `json:"last_error,omitempty"`
	BreakerState string    `json:"breaker_state"`
}

// Refresher loads snapshots from a Source and publishes them to a Holder.
// A failed refresh leaves the previous snapshot in place.
type Refresher struct {
	source  Source
	holder  *skillgraph.Holder
	cfg     RefresherConfig
	logger  *slog.Logger
	breaker circuitbreaker.CircuitBreaker[*Snapshot]
	retrier retry.Retry[*Snapshot]

	mu           sync.Mutex
	lastErr      error
	lastAttempt  time.Time
	breakerState string
	cancel       context.CancelFunc
	done         chan struct{}
}

// NewRefresher wires a source to a holder
func NewRefresher(source Source, holder *skillgraph.Holder, cfg RefresherConfig) *Refresher {
	defaults := DefaultRefresherConfig()
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaults.MaxAttempts
	}
	if cfg.InitialDelay <= 0 {
		cfg.InitialDelay = defaults.InitialDelay
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = defaults.MaxDelay
	}
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = defaults.FailureThreshold
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = defaults.OpenTimeout
	}

	r := &Refresher{
		source:       source,
		holder:       holder,
		cfg:          cfg,
		logger:       cfg.Logger,
		breakerState: "closed",
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}

	r.breaker = circuitbreaker.New[*Snapshot](circuitbreaker.Config{
		MaxRequests: 1,
		Interval:    cfg.OpenTimeout,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts circuitbreaker.Counts) bool {
			return int(counts.ConsecutiveFailures) >= cfg.FailureThreshold
		},
		OnStateChange: func(from, to circuitbreaker.State) {
			r.logger.Warn("catalog circuit breaker state change",
				"source", source.Name(),
				"from", from.String(),
				"to", to.String())
			r.mu.Lock()
			r.breakerState = to.String()
			r.mu.Unlock()
		},
	})

	r.retrier = retry.New[*Snapshot](retry.Config{
		MaxAttempts:   cfg.MaxAttempts,
		InitialDelay:  cfg.InitialDelay,
		MaxDelay:      cfg.MaxDelay,
		Multiplier:    2.0,
		BackoffPolicy: retry.BackoffExponential,
		Jitter:        true,
		IsRetryable:   isRetryable,
	})

	return r
}

// isRetryable retries transient source failures but not cancellation or a
// catalog that is malformed
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return !domain.IsValidation(err)
}

// Refresh loads, validates and publishes one snapshot
func (r *Refresher) Refresh(ctx context.Context) (*skillgraph.Snapshot, error) {
	ctx, span := observability.StartRefreshSpan(ctx, r.source.Name())
	defer span.End()

	r.mu.Lock()
	r.lastAttempt = time.Now()
	r.mu.Unlock()

	snap, err := r.breaker.Execute(ctx, func(ctx context.Context) (*Snapshot, error) {
		return r.retrier.Do(ctx, r.source.Load)
	})
	if err != nil {
		return nil, r.fail(span, fmt.Errorf("load catalog from %s: %w", r.source.Name(), err))
	}

	g, err := snap.Build()
	if err != nil {
		return nil, r.fail(span, fmt.Errorf("build catalog from %s: %w", r.source.Name(), err))
	}

	published := r.holder.Swap(g, snap.Roles, r.source.Name())
	observability.RecordRefreshResult(span, g.Len(), g.RelationCount(), len(snap.Roles))

	r.mu.Lock()
	r.lastErr = nil
	r.mu.Unlock()

	for _, w := range g.Warnings() {
		r.logger.Warn("skill graph cycle", "source", r.source.Name(), "cycle", w.String())
	}
	r.logger.Info("catalog refreshed",
		"source", r.source.Name(),
		"revision", published.Revision,
		"skills", g.Len(),
		"relations", g.RelationCount(),
		"roles", len(snap.Roles))

	return published, nil
}

func (r *Refresher) fail(span trace.Span, err error) error {
	observability.RecordError(span, err)

	r.mu.Lock()
	r.lastErr = err
	r.mu.Unlock()

	r.logger.Error("catalog refresh failed, keeping previous snapshot",
		"source", r.source.Name(),
		"error", err)
	return err
}

// Start runs the periodic refresh loop until ctx is cancelled or Stop is
// called. It does not perform an initial refresh.
func (r *Refresher) Start(ctx context.Context) {
	if r.cfg.Interval <= 0 {
		return
	}

	r.mu.Lock()
	if r.cancel != nil {
		r.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = make(chan struct{})
	done := r.done
	r.mu.Unlock()

	go func() {
		defer close(done)
		ticker := time.NewTicker(r.cfg.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				// errors are logged and recorded in Status
				r.Refresh(ctx)
			}
		}
	}()
}

// Stop ends the refresh loop and waits for it to exit
func (r *Refresher) Stop() {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.cancel, r.done = nil, nil
	r.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Status reports the current snapshot and the last refresh outcome
func (r *Refresher) Status() Status {
	r.mu.Lock()
	st := Status{
		Source:       r.source.Name(),
		LastAttempt:  r.lastAttempt,
		BreakerState: r.breakerState,
	}
	if r.lastErr != nil {
		st.LastError = r.lastErr.Error()
	}
	r.mu.Unlock()

	if snap, err := r.holder.Current(); err == nil {
		st.Revision = snap.Revision
		st.Skills = snap.Graph.Len()
		st.Relations = snap.Graph.RelationCount()
		st.Roles = len(snap.Roles())
		st.Warnings = len(snap.Graph.Warnings())
		st.LoadedAt = snap.LoadedAt
	}
	return st
}
