// Package scheduler runs the daily ingestion on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/justsurfingit/job-market-sync/internal/models"
)

// DailyIngester is implemented by services.IngestionService.
type DailyIngester interface {
	IngestDaily(ctx context.Context) ([]models.Posting, error)
}

// Scheduler wraps robfig/cron around a single daily ingestion job.
type Scheduler struct {
	cron    *cron.Cron
	spec    string // e.g. "@every 24h" or "0 6 * * *"
	job     DailyIngester
	timeout time.Duration
	logger  *zap.Logger
}

// New returns a scheduler for spec. Runs that overlap a still-running one
// are skipped.
func New(spec string, job DailyIngester, timeout time.Duration, logger *zap.Logger) *Scheduler {
	logger = logger.Named("scheduler")
	cl := cronLogger{logger.Sugar()}
	return &Scheduler{
		cron:    cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		spec:    spec,
		job:     job,
		timeout: timeout,
		logger:  logger,
	}
}

// Start registers the job and starts the cron goroutine. ctx bounds every
// run; cancel it and call Stop to shut down.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.spec, func() { s.RunOnce(ctx) }); err != nil {
		return fmt.Errorf("cron.AddFunc %q: %w", s.spec, err)
	}
	s.cron.Start()
	s.logger.Info("scheduler started", zap.String("spec", s.spec))
	return nil
}

// Stop stops scheduling and waits for a running ingestion, up to ctx.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.logger.Info("scheduler stopped")
	case <-ctx.Done():
		s.logger.Warn("scheduler stop timed out with a run in flight")
	}
}

// RunOnce performs one ingestion with its own timeout.
func (s *Scheduler) RunOnce(ctx context.Context) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	postings, err := s.job.IngestDaily(ctx)
	if err != nil {
		s.logger.Error("scheduled daily ingestion failed",
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return
	}
	s.logger.Info("scheduled daily ingestion complete",
		zap.Int("count", len(postings)),
		zap.Duration("elapsed", time.Since(start)))
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
