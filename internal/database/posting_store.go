// Package database persists normalized postings and answers the grouped
// count queries behind the stats endpoints.
package database

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/justsurfingit/job-market-sync/internal/errors"
	"github.com/justsurfingit/job-market-sync/internal/models"
	"github.com/justsurfingit/job-market-sync/internal/telemetry"
)

var tracer = telemetry.GetTracer("job-market-sync/database")

const insertBatchSize = 100

// Table names one of the two identically shaped posting tables.
type Table string

const (
	TableDaily      Table = "job_postings"
	TableHistorical Table = "historical_job_postings"
)

// ParseTable maps the public names "daily" and "historical" to a Table.
func ParseTable(name string) (Table, error) {
	switch name {
	case "", "daily":
		return TableDaily, nil
	case "historical":
		return TableHistorical, nil
	default:
		return "", errors.InvalidInput(fmt.Sprintf("unknown table %q", name), nil)
	}
}

// PostingStore wraps the gorm handle it is given. Each call scopes its own
// session to the caller's context.
type PostingStore struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewPostingStore(db *gorm.DB, logger *zap.Logger) *PostingStore {
	return &PostingStore{db: db, logger: logger.Named("store")}
}

// Save maps every posting and inserts them in one transaction. A mapping
// error writes nothing; a rejected insert rolls back the whole batch.
func (s *PostingStore) Save(ctx context.Context, table Table, postings []models.Posting) error {
	ctx, span := tracer.Start(ctx, "PostingStore.Save")
	defer span.End()
	span.SetAttributes(
		telemetry.String("db.table", string(table)),
		telemetry.Int("postings.count", len(postings)),
	)

	if len(postings) == 0 {
		return nil
	}

	cols := make([]models.PostingColumns, 0, len(postings))
	for i, p := range postings {
		c, err := models.NewPostingColumns(p)
		if err != nil {
			span.RecordError(err)
			return errors.InvalidInput(fmt.Sprintf("posting %d", i), err)
		}
		cols = append(cols, c)
	}

	var rows any
	switch table {
	case TableDaily:
		r := make([]models.JobPosting, len(cols))
		for i, c := range cols {
			r[i] = models.JobPosting{PostingColumns: c}
		}
		rows = &r
	case TableHistorical:
		r := make([]models.HistoricalJobPosting, len(cols))
		for i, c := range cols {
			r[i] = models.HistoricalJobPosting{PostingColumns: c}
		}
		rows = &r
	default:
		return errors.InvalidInput(fmt.Sprintf("unknown table %q", table), nil)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(rows, insertBatchSize).Error
	})
	if err != nil {
		span.RecordError(err)
		s.logger.Error("failed to save postings",
			zap.String("table", string(table)),
			zap.Int("count", len(postings)),
			zap.Error(err))
		return errors.Internal("saving postings", err)
	}

	s.logger.Debug("postings saved",
		zap.String("table", string(table)),
		zap.Int("count", len(postings)))
	return nil
}

// List returns up to limit stored rows, newest first.
func (s *PostingStore) List(ctx context.Context, table Table, limit int) ([]models.PostingColumns, error) {
	db := s.db.WithContext(ctx).Order("id DESC").Limit(limit)

	var out []models.PostingColumns
	switch table {
	case TableDaily:
		var rows []models.JobPosting
		if err := db.Find(&rows).Error; err != nil {
			return nil, errors.Internal("listing postings", err)
		}
		out = make([]models.PostingColumns, len(rows))
		for i, r := range rows {
			out[i] = r.PostingColumns
		}
	case TableHistorical:
		var rows []models.HistoricalJobPosting
		if err := db.Find(&rows).Error; err != nil {
			return nil, errors.Internal("listing postings", err)
		}
		out = make([]models.PostingColumns, len(rows))
		for i, r := range rows {
			out[i] = r.PostingColumns
		}
	default:
		return nil, errors.InvalidInput(fmt.Sprintf("unknown table %q", table), nil)
	}
	return out, nil
}

type groupCount struct {
	GroupKey string
	Total    int64
}

func (s *PostingStore) countBy(ctx context.Context, expr, where string) (map[string]int64, error) {
	ctx, span := tracer.Start(ctx, "PostingStore.countBy")
	defer span.End()
	span.SetAttributes(telemetry.String("db.group_by", expr))

	q := s.db.WithContext(ctx).
		Model(&models.HistoricalJobPosting{}).
		Select(expr + " AS group_key, COUNT(id) AS total")
	if where != "" {
		q = q.Where(where)
	}

	var rows []groupCount
	if err := q.Group(expr).Scan(&rows).Error; err != nil {
		span.RecordError(err)
		return nil, errors.Internal("grouped count", err)
	}

	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.GroupKey] += r.Total
	}
	return counts, nil
}

// CountByDepartment counts historical rows per non-empty department.
func (s *PostingStore) CountByDepartment(ctx context.Context) (map[string]int64, error) {
	return s.countBy(ctx, "department", "department IS NOT NULL AND department <> ''")
}

// CountByContractType counts historical rows per contract type; absent and
// empty values are counted under "Unknown" together with literal "Unknown".
func (s *PostingStore) CountByContractType(ctx context.Context) (map[string]int64, error) {
	return s.countBy(ctx, "COALESCE(NULLIF(contract_type, ''), 'Unknown')", "")
}

// CountByCommune counts historical rows per non-empty commune.
func (s *PostingStore) CountByCommune(ctx context.Context) (map[string]int64, error) {
	return s.countBy(ctx, "commune", "commune IS NOT NULL AND commune <> ''")
}
