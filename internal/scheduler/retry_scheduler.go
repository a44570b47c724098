package scheduler

import (
	"context"
	"fmt"
	"time"

	"subtrackr-be/internal/pkg/logger"
	"subtrackr-be/internal/repository/unitofwork"
	"subtrackr-be/pkg/cancellation"

	"github.com/robfig/cron/v3"
)

// RetryScheduler polls for failed cancellation requests whose backoff
// window has elapsed and re-dispatches them. The dispatch gate is atomic,
// so overlapping polls or multiple instances never double-process a
// request.
type RetryScheduler struct {
	cron         *cron.Cron
	uowFactory   unitofwork.RepositoryFactory
	orchestrator *cancellation.Orchestrator
	logger       logger.ILogger

	pollInterval time.Duration
	batchSize    int
}

func NewRetryScheduler(
	uowFactory unitofwork.RepositoryFactory,
	orchestrator *cancellation.Orchestrator,
	log logger.ILogger,
	pollInterval time.Duration,
	batchSize int,
) *RetryScheduler {
	return &RetryScheduler{
		cron:         cron.New(),
		uowFactory:   uowFactory,
		orchestrator: orchestrator,
		logger:       log,
		pollInterval: pollInterval,
		batchSize:    batchSize,
	}
}

func (s *RetryScheduler) Start() error {
	spec := fmt.Sprintf("@every %s", s.pollInterval)
	if _, err := s.cron.AddFunc(spec, s.pollOnce); err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("RetryScheduler", "Retry scheduler started", map[string]interface{}{
		"poll_interval": s.pollInterval.String(),
		"batch_size":    s.batchSize,
	})
	return nil
}

// Stop halts the schedule and returns a context that is done once any
// in-flight poll finishes.
func (s *RetryScheduler) Stop() context.Context {
	s.logger.Info("RetryScheduler", "Retry scheduler stopping", nil)
	return s.cron.Stop()
}

func (s *RetryScheduler) pollOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	uow := s.uowFactory.NewUnitOfWork(ctx)
	due, err := uow.CancellationRepository().FindDueForRetry(ctx, time.Now(), s.batchSize)
	if err != nil {
		s.logger.Error("RetryScheduler", "Failed to query due retries", map[string]interface{}{"error": err.Error()})
		return
	}
	if len(due) == 0 {
		return
	}

	dispatched := 0
	for _, req := range due {
		// Each request gets its own unit of work so one failure does
		// not poison the rest of the batch.
		reqUow := s.uowFactory.NewUnitOfWork(ctx)
		result, err := s.orchestrator.Dispatch(ctx, reqUow, req.ID)
		if err != nil {
			s.logger.Error("RetryScheduler", "Retry dispatch failed", map[string]interface{}{
				"request_id": req.ID.String(),
				"error":      err.Error(),
			})
			continue
		}
		if result.Code == cancellation.DispatchConflict {
			// Another worker claimed it first.
			continue
		}
		dispatched++
	}

	s.logger.Info("RetryScheduler", "Retry poll completed", map[string]interface{}{
		"due":        len(due),
		"dispatched": dispatched,
	})
}
