package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/justsurfingit/job-market-sync/internal/errors"
	"github.com/justsurfingit/job-market-sync/internal/metrics"
	"github.com/justsurfingit/job-market-sync/internal/models"
	"github.com/justsurfingit/job-market-sync/internal/telemetry"
)

// DefaultStepDays is the width added to a window's start to get its end.
const DefaultStepDays = 7

// DateWindow is an inclusive range of calendar days.
type DateWindow struct {
	From time.Time
	To   time.Time
}

func (w DateWindow) String() string {
	return w.From.Format(time.DateOnly) + ".." + w.To.Format(time.DateOnly)
}

// RangeMetadata summarizes a successful FetchRange.
type RangeMetadata struct {
	Windows      int
	EmptyWindows int
	Fetched      int
}

// Windows tiles start..end. Each window spans [cur, min(cur+step, end)] and
// the next one starts the day after, so consecutive windows never overlap
// and every day is covered exactly once. start after end yields no windows.
func Windows(start, end time.Time, stepDays int) ([]DateWindow, error) {
	if stepDays < 1 {
		return nil, errors.InvalidInput(fmt.Sprintf("step must be at least one day, got %d", stepDays), nil)
	}
	start, end = truncateDay(start), truncateDay(end)

	var out []DateWindow
	for cur := start; !cur.After(end); {
		to := cur.AddDate(0, 0, stepDays)
		if to.After(end) {
			to = end
		}
		out = append(out, DateWindow{From: cur, To: to})
		cur = to.AddDate(0, 0, 1)
	}
	return out, nil
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// HistoricalAggregator fetches a date range one window at a time.
type HistoricalAggregator struct {
	fetcher  Fetcher
	stepDays int
	logger   *zap.Logger
}

func NewHistoricalAggregator(fetcher Fetcher, stepDays int, logger *zap.Logger) *HistoricalAggregator {
	if stepDays < 1 {
		stepDays = DefaultStepDays
	}
	return &HistoricalAggregator{
		fetcher:  fetcher,
		stepDays: stepDays,
		logger:   logger.Named("historical"),
	}
}

// FetchRange concatenates the postings of every window in order. The first
// failing window aborts the run and nothing accumulated so far is returned.
// Windows that succeed with no postings are skipped.
func (a *HistoricalAggregator) FetchRange(ctx context.Context, start, end time.Time) ([]models.Posting, RangeMetadata, error) {
	ctx, span := tracer.Start(ctx, "HistoricalAggregator.FetchRange")
	defer span.End()

	windows, err := Windows(start, end, a.stepDays)
	if err != nil {
		return nil, RangeMetadata{}, err
	}
	span.SetAttributes(telemetry.Int("windows.count", len(windows)))

	meta := RangeMetadata{Windows: len(windows)}
	var all []models.Posting
	for _, w := range windows {
		postings, err := a.fetcher.Fetch(ctx, WindowParams(w.From, w.To))
		if err != nil {
			metrics.RecordHistoricalWindow("error")
			span.RecordError(err)
			a.logger.Error("historical window failed, aborting",
				zap.Stringer("window", w),
				zap.Error(err))
			return nil, RangeMetadata{}, err
		}
		if len(postings) == 0 {
			metrics.RecordHistoricalWindow("empty")
			meta.EmptyWindows++
			a.logger.Warn("no postings in window", zap.Stringer("window", w))
			continue
		}
		metrics.RecordHistoricalWindow("ok")
		all = append(all, postings...)
	}

	meta.Fetched = len(all)
	a.logger.Info("historical range fetched",
		zap.String("start_date", start.Format(time.DateOnly)),
		zap.String("end_date", end.Format(time.DateOnly)),
		zap.Int("windows", meta.Windows),
		zap.Int("empty_windows", meta.EmptyWindows),
		zap.Int("fetched", meta.Fetched))
	return all, meta, nil
}
