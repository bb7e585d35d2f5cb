package usecase

import (
	"context"
	"log/slog"
	"time"

	"NewsCollector/internal/domain"
	"NewsCollector/internal/logging"
	"NewsCollector/internal/ports"
)

// Collector is the batch entry point driven by the scheduler.
type Collector interface {
	Run(ctx context.Context) (domain.BatchReport, error)
}

// Scheduler wires the periodic driver with the ingestion pipeline.
type Scheduler struct {
	driver    ports.Scheduler
	collector Collector
	logger    *slog.Logger
}

// NewScheduler returns a helper to start/stop recurring collection.
func NewScheduler(driver ports.Scheduler, collector Collector, log *slog.Logger) *Scheduler {
	return &Scheduler{driver: driver, collector: collector, logger: logging.OrDiscard(log)}
}

// Start registers the collection job with the driver. A failed or panicking run is
// logged and the schedule continues.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.collector == nil {
		return nil
	}

	return s.driver.Start(ctx, func(trigger time.Time) {
		s.runOnce(ctx, trigger)
	})
}

// Stop gracefully tears down the underlying driver.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}

func (s *Scheduler) runOnce(ctx context.Context, trigger time.Time) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("scheduled collection panicked", "trigger", trigger, "panic", r)
		}
	}()

	s.logger.Info("scheduled collection triggered", "trigger", trigger)
	report, err := s.collector.Run(ctx)
	if err != nil {
		s.logger.Error("scheduled collection failed", "run_id", report.RunID, "error", err)
		return
	}
	s.logger.Info("scheduled collection done", "run_id", report.RunID, "succeeded", report.Succeeded)
}
