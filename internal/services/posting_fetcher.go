// Package services holds the ingestion and reporting logic between the
// HTTP handlers and the store.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/justsurfingit/job-market-sync/internal/auth"
	"github.com/justsurfingit/job-market-sync/internal/dtos"
	"github.com/justsurfingit/job-market-sync/internal/errors"
	"github.com/justsurfingit/job-market-sync/internal/metrics"
	"github.com/justsurfingit/job-market-sync/internal/models"
	"github.com/justsurfingit/job-market-sync/internal/telemetry"
)

var tracer = telemetry.GetTracer("job-market-sync/services")

const (
	// DefaultRange asks the upstream for its first ten results.
	DefaultRange = "0-9"

	dayStartLayout = "2006-01-02T00:00:00Z"
	dayEndLayout   = "2006-01-02T23:59:59Z"
	instantLayout  = "2006-01-02T15:04:05Z"
)

// SearchParams are the query parameters of one search request.
type SearchParams struct {
	MinCreationDate string
	MaxCreationDate string
	Range           string
}

// DailyParams covers today from midnight UTC up to now. Range is left to
// the fetcher's configured default.
func DailyParams(now time.Time) SearchParams {
	now = now.UTC()
	return SearchParams{
		MinCreationDate: now.Format(dayStartLayout),
		MaxCreationDate: now.Format(instantLayout),
	}
}

// WindowParams covers whole days from..to inclusive.
func WindowParams(from, to time.Time) SearchParams {
	return SearchParams{
		MinCreationDate: from.Format(dayStartLayout),
		MaxCreationDate: to.Format(dayEndLayout),
	}
}

// Fetcher is satisfied by PostingFetcher and by test fakes.
type Fetcher interface {
	Fetch(ctx context.Context, params SearchParams) ([]models.Posting, error)
}

// PostingFetcher runs one search request per call. A nil error with an empty
// slice means the search succeeded with no matches.
type PostingFetcher struct {
	searchURL   string
	resultRange string
	client      *http.Client
	tokens      auth.TokenSource
	logger      *zap.Logger
}

func NewPostingFetcher(searchURL, resultRange string, client *http.Client, tokens auth.TokenSource, logger *zap.Logger) *PostingFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &PostingFetcher{
		searchURL:   searchURL,
		resultRange: resultRange,
		client:      client,
		tokens:      tokens,
		logger:      logger.Named("fetcher"),
	}
}

func (f *PostingFetcher) Fetch(ctx context.Context, params SearchParams) ([]models.Posting, error) {
	ctx, span := tracer.Start(ctx, "PostingFetcher.Fetch")
	defer span.End()
	span.SetAttributes(
		telemetry.String("search.min_creation_date", params.MinCreationDate),
		telemetry.String("search.max_creation_date", params.MaxCreationDate),
	)

	token, err := f.tokens.Token(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	rng := params.Range
	if rng == "" {
		rng = f.resultRange
	}
	if rng == "" {
		rng = DefaultRange
	}

	q := url.Values{}
	q.Set("minCreationDate", params.MinCreationDate)
	q.Set("maxCreationDate", params.MaxCreationDate)
	q.Set("range", rng)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.searchURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, errors.Internal("building search request", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := f.client.Do(req)
	elapsed := float64(time.Since(start).Milliseconds())
	if err != nil {
		metrics.RecordUpstreamRequest("search", "error", elapsed)
		span.RecordError(err)
		f.logger.Error("search request failed", zap.Error(err))
		return nil, errors.Unavailable("search request", err)
	}
	defer resp.Body.Close()

	span.SetAttributes(telemetry.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		metrics.RecordUpstreamRequest("search", "error", elapsed)
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		f.logger.Error("search rejected",
			zap.Int("status_code", resp.StatusCode),
			zap.ByteString("body", body))
		return nil, errors.Unavailable(fmt.Sprintf("search returned status %d", resp.StatusCode), nil)
	}

	// An empty body counts as no results.
	var payload dtos.SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil && err != io.EOF {
		metrics.RecordUpstreamRequest("search", "error", elapsed)
		span.RecordError(err)
		f.logger.Error("failed to decode search response", zap.Error(err))
		return nil, errors.Internal("decoding search response", err)
	}
	metrics.RecordUpstreamRequest("search", "ok", elapsed)

	postings := make([]models.Posting, 0, len(payload.Resultats))
	for _, offer := range payload.Resultats {
		postings = append(postings, offer.ToPosting())
	}

	span.SetAttributes(telemetry.Int("postings.count", len(postings)))
	f.logger.Debug("search completed",
		zap.String("min_creation_date", params.MinCreationDate),
		zap.String("max_creation_date", params.MaxCreationDate),
		zap.Int("count", len(postings)))
	return postings, nil
}
