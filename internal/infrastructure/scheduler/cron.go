package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"NewsCollector/internal/logging"
	"NewsCollector/internal/ports"
)

const defaultInterval = 10 * time.Minute

// TickerScheduler runs a job on a fixed interval using time.Ticker.
type TickerScheduler struct {
	interval   time.Duration
	runOnStart bool
	location   *time.Location
	logger     *slog.Logger

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

var _ ports.Scheduler = (*TickerScheduler)(nil)

// NewTickerScheduler builds a scheduler firing every interval. A non-positive interval
// falls back to 10 minutes.
func NewTickerScheduler(interval time.Duration, runOnStart bool, location *time.Location, log *slog.Logger) *TickerScheduler {
	if interval <= 0 {
		interval = defaultInterval
	}
	if location == nil {
		location = time.UTC
	}
	return &TickerScheduler{
		interval:   interval,
		runOnStart: runOnStart,
		location:   location,
		logger:     logging.OrDiscard(log),
	}
}

// Start begins ticking. Jobs run one at a time; a tick that arrives while a job is
// still running is dropped by the ticker.
func (s *TickerScheduler) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop != nil {
		return nil
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	s.stop, s.done = stop, done

	go func() {
		defer close(done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		if s.runOnStart {
			job(time.Now().In(s.location))
		}
		s.logger.Info("scheduler started", "interval", s.interval)
		for {
			select {
			case t := <-ticker.C:
				job(t.In(s.location))
			case <-ctx.Done():
				return
			case <-stop:
				return
			}
		}
	}()

	return nil
}

// Stop halts the ticker goroutine and waits for a running job to finish or ctx to end.
func (s *TickerScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	stop, done := s.stop, s.done
	s.stop, s.done = nil, nil
	s.mu.Unlock()

	if stop == nil {
		return nil
	}
	close(stop)

	select {
	case <-done:
		s.logger.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
