package services

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/justsurfingit/job-market-sync/internal/database"
	"github.com/justsurfingit/job-market-sync/internal/events"
	"github.com/justsurfingit/job-market-sync/internal/metrics"
	"github.com/justsurfingit/job-market-sync/internal/models"
	"github.com/justsurfingit/job-market-sync/internal/telemetry"
)

const (
	SourceDaily      = "daily"
	SourceHistorical = "historical"
)

// Stage names the step of an ingestion run that failed.
type Stage string

const (
	StageFetch Stage = "fetch"
	StageSave  Stage = "save"
)

// IngestionError tells callers whether a run failed while talking to the
// upstream or while committing.
type IngestionError struct {
	Source string
	Stage  Stage
	Err    error
}

func (e *IngestionError) Error() string {
	return fmt.Sprintf("%s ingestion failed at %s: %v", e.Source, e.Stage, e.Err)
}

func (e *IngestionError) Unwrap() error { return e.Err }

// FailedStage returns the stage carried by err, or "" when err did not come
// from an ingestion run.
func FailedStage(err error) Stage {
	var ie *IngestionError
	if stderrors.As(err, &ie) {
		return ie.Stage
	}
	return ""
}

// PostingSaver is the write side of database.PostingStore.
type PostingSaver interface {
	Save(ctx context.Context, table database.Table, postings []models.Posting) error
}

// Invalidator drops cached results derived from the historical table.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

type IngestionService struct {
	fetcher    Fetcher
	historical *HistoricalAggregator
	store      PostingSaver
	stats      Invalidator
	publisher  events.Publisher
	logger     *zap.Logger
	now        func() time.Time
}

func NewIngestionService(fetcher Fetcher, historical *HistoricalAggregator, store PostingSaver, stats Invalidator, publisher events.Publisher, logger *zap.Logger) *IngestionService {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &IngestionService{
		fetcher:    fetcher,
		historical: historical,
		store:      store,
		stats:      stats,
		publisher:  publisher,
		logger:     logger.Named("ingestion"),
		now:        time.Now,
	}
}

// IngestDaily fetches today's postings and stores them in the daily table.
// An empty result is returned as-is and nothing is written.
func (s *IngestionService) IngestDaily(ctx context.Context) ([]models.Posting, error) {
	ctx, span := tracer.Start(ctx, "IngestionService.IngestDaily")
	defer span.End()

	postings, err := s.fetcher.Fetch(ctx, DailyParams(s.now()))
	if err != nil {
		span.RecordError(err)
		metrics.RecordIngestionFailure(SourceDaily, string(StageFetch))
		s.logger.Warn("daily fetch failed", zap.Error(err))
		return nil, &IngestionError{Source: SourceDaily, Stage: StageFetch, Err: err}
	}
	metrics.RecordPostingsFetched(SourceDaily, len(postings))
	if len(postings) == 0 {
		s.logger.Info("no postings fetched for today")
		return postings, nil
	}

	if err := s.save(ctx, SourceDaily, database.TableDaily, postings, "", ""); err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(telemetry.Int("postings.count", len(postings)))
	return postings, nil
}

// IngestHistorical fetches start..end window by window and stores the
// concatenation in the historical table in one commit.
func (s *IngestionService) IngestHistorical(ctx context.Context, start, end time.Time) ([]models.Posting, RangeMetadata, error) {
	ctx, span := tracer.Start(ctx, "IngestionService.IngestHistorical")
	defer span.End()

	postings, meta, err := s.historical.FetchRange(ctx, start, end)
	if err != nil {
		span.RecordError(err)
		metrics.RecordIngestionFailure(SourceHistorical, string(StageFetch))
		return nil, RangeMetadata{}, &IngestionError{Source: SourceHistorical, Stage: StageFetch, Err: err}
	}
	metrics.RecordPostingsFetched(SourceHistorical, len(postings))
	if len(postings) == 0 {
		s.logger.Info("no historical postings fetched",
			zap.Int("windows", meta.Windows))
		return postings, meta, nil
	}

	err = s.save(ctx, SourceHistorical, database.TableHistorical, postings,
		start.Format(time.DateOnly), end.Format(time.DateOnly))
	if err != nil {
		span.RecordError(err)
		return nil, RangeMetadata{}, err
	}

	if s.stats != nil {
		if err := s.stats.Invalidate(ctx); err != nil {
			s.logger.Warn("failed to invalidate stats cache", zap.Error(err))
		}
	}
	return postings, meta, nil
}

func (s *IngestionService) save(ctx context.Context, source string, table database.Table, postings []models.Posting, startDate, endDate string) error {
	if err := s.store.Save(ctx, table, postings); err != nil {
		metrics.RecordIngestionFailure(source, string(StageSave))
		return &IngestionError{Source: source, Stage: StageSave, Err: err}
	}
	metrics.RecordPostingsSaved(string(table), len(postings))

	event := events.IngestionEvent{
		BatchID:   uuid.NewString(),
		Source:    source,
		Table:     string(table),
		Count:     len(postings),
		StartDate: startDate,
		EndDate:   endDate,
		SavedAt:   s.now().UTC(),
	}
	// The commit stands even if nobody hears about it.
	if err := s.publisher.PublishIngested(ctx, event); err != nil {
		s.logger.Warn("failed to publish ingestion event",
			zap.String("batch_id", event.BatchID),
			zap.Error(err))
	}

	s.logger.Info("postings ingested",
		zap.String("source", source),
		zap.String("batch_id", event.BatchID),
		zap.Int("count", len(postings)))
	return nil
}
