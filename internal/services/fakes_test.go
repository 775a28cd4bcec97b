package services

import (
	"context"
	"sync"
	"time"

	"github.com/justsurfingit/job-market-sync/internal/cache"
	"github.com/justsurfingit/job-market-sync/internal/database"
	"github.com/justsurfingit/job-market-sync/internal/events"
	"github.com/justsurfingit/job-market-sync/internal/models"
)

func strPtr(s string) *string { return &s }

func titled(titles ...string) []models.Posting {
	out := make([]models.Posting, len(titles))
	for i, t := range titles {
		out[i] = models.Posting{Title: strPtr(t), Qualifications: []string{}}
	}
	return out
}

type staticToken struct {
	token string
	err   error
	calls int
}

func (s *staticToken) Token(context.Context) (string, error) {
	s.calls++
	return s.token, s.err
}

type fetchResult struct {
	postings []models.Posting
	err      error
}

// scriptedFetcher answers the n-th call with results[n] and records params.
type scriptedFetcher struct {
	results []fetchResult
	calls   []SearchParams
}

func (f *scriptedFetcher) Fetch(_ context.Context, params SearchParams) ([]models.Posting, error) {
	i := len(f.calls)
	f.calls = append(f.calls, params)
	if i >= len(f.results) {
		return []models.Posting{}, nil
	}
	return f.results[i].postings, f.results[i].err
}

type savedBatch struct {
	table    database.Table
	postings []models.Posting
}

type recordingSaver struct {
	err   error
	saved []savedBatch
}

func (s *recordingSaver) Save(_ context.Context, table database.Table, postings []models.Posting) error {
	if s.err != nil {
		return s.err
	}
	s.saved = append(s.saved, savedBatch{table: table, postings: postings})
	return nil
}

type countingInvalidator struct{ calls int }

func (c *countingInvalidator) Invalidate(context.Context) error {
	c.calls++
	return nil
}

type recordingPublisher struct {
	err    error
	events []events.IngestionEvent
}

func (p *recordingPublisher) PublishIngested(_ context.Context, e events.IngestionEvent) error {
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) Close() {}

// memoryCache is an in-process cache.Cache that ignores TTLs.
type memoryCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	getErr  error
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string][]byte{}}
}

func (c *memoryCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, c.getErr
	}
	v, ok := c.entries[key]
	if !ok {
		return nil, cache.ErrNotFound
	}
	return v, nil
}

func (c *memoryCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
	return nil
}

func (c *memoryCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.entries, k)
	}
	return nil
}

func (c *memoryCache) Close() error { return nil }

type countingStatsStore struct {
	calls int
	err   error
}

func (s *countingStatsStore) CountByDepartment(context.Context) (map[string]int64, error) {
	s.calls++
	return map[string]int64{"75": 3}, s.err
}

func (s *countingStatsStore) CountByContractType(context.Context) (map[string]int64, error) {
	s.calls++
	return map[string]int64{"CDI": 2, "Unknown": 1}, s.err
}

func (s *countingStatsStore) CountByCommune(context.Context) (map[string]int64, error) {
	s.calls++
	return map[string]int64{"75111": 1}, s.err
}
