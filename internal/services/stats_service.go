package services

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"time"

	"go.uber.org/zap"

	"github.com/justsurfingit/job-market-sync/internal/cache"
	"github.com/justsurfingit/job-market-sync/internal/metrics"
)

const (
	keyJobsByDepartment   = "jobsync:stats:jobs_by_department"
	keyContractTypeCounts = "jobsync:stats:contract_type_counts"
	keyJobsByCommune      = "jobsync:stats:jobs_by_commune"
)

// StatsStore is the read side of database.PostingStore.
type StatsStore interface {
	CountByDepartment(ctx context.Context) (map[string]int64, error)
	CountByContractType(ctx context.Context) (map[string]int64, error)
	CountByCommune(ctx context.Context) (map[string]int64, error)
}

// StatsService answers the grouped counts over the historical table, going
// through the cache first. Cache failures fall through to the store.
type StatsService struct {
	store  StatsStore
	cache  cache.Cache
	ttl    time.Duration
	logger *zap.Logger
}

func NewStatsService(store StatsStore, c cache.Cache, ttl time.Duration, logger *zap.Logger) *StatsService {
	if c == nil {
		c = cache.Noop{}
	}
	return &StatsService{store: store, cache: c, ttl: ttl, logger: logger.Named("stats")}
}

func (s *StatsService) JobsByDepartment(ctx context.Context) (map[string]int64, error) {
	return s.cached(ctx, keyJobsByDepartment, s.store.CountByDepartment)
}

func (s *StatsService) ContractTypeCounts(ctx context.Context) (map[string]int64, error) {
	return s.cached(ctx, keyContractTypeCounts, s.store.CountByContractType)
}

func (s *StatsService) JobsByCommune(ctx context.Context) (map[string]int64, error) {
	return s.cached(ctx, keyJobsByCommune, s.store.CountByCommune)
}

// Invalidate drops every cached stats payload.
func (s *StatsService) Invalidate(ctx context.Context) error {
	return s.cache.Delete(ctx, keyJobsByDepartment, keyContractTypeCounts, keyJobsByCommune)
}

func (s *StatsService) cached(ctx context.Context, key string, query func(context.Context) (map[string]int64, error)) (map[string]int64, error) {
	raw, err := s.cache.Get(ctx, key)
	switch {
	case err == nil:
		var counts map[string]int64
		jerr := json.Unmarshal(raw, &counts)
		if jerr == nil {
			metrics.RecordStatsCache("hit")
			return counts, nil
		}
		metrics.RecordStatsCache("error")
		s.logger.Warn("discarding corrupt cache entry", zap.String("key", key), zap.Error(jerr))
	case stderrors.Is(err, cache.ErrNotFound):
		metrics.RecordStatsCache("miss")
	default:
		metrics.RecordStatsCache("error")
		s.logger.Warn("stats cache lookup failed", zap.String("key", key), zap.Error(err))
	}

	counts, err := query(ctx)
	if err != nil {
		s.logger.Error("stats query failed", zap.String("key", key), zap.Error(err))
		return nil, err
	}

	if payload, err := json.Marshal(counts); err == nil {
		if err := s.cache.Set(ctx, key, payload, s.ttl); err != nil {
			s.logger.Warn("failed to cache stats", zap.String("key", key), zap.Error(err))
		}
	}
	return counts, nil
}
