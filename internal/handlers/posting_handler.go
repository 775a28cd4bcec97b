package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/justsurfingit/job-market-sync/internal/database"
	"github.com/justsurfingit/job-market-sync/internal/dtos"
	"github.com/justsurfingit/job-market-sync/internal/models"
	"github.com/justsurfingit/job-market-sync/internal/services"
)

const defaultListLimit = 50

// Ingester is implemented by services.IngestionService.
type Ingester interface {
	IngestDaily(ctx context.Context) ([]models.Posting, error)
	IngestHistorical(ctx context.Context, start, end time.Time) ([]models.Posting, services.RangeMetadata, error)
}

// PostingLister is the read side of database.PostingStore.
type PostingLister interface {
	List(ctx context.Context, table database.Table, limit int) ([]models.PostingColumns, error)
}

type PostingHandler struct {
	ingestion Ingester
	store     PostingLister
	logger    *zap.Logger
}

func NewPostingHandler(ingestion Ingester, store PostingLister, logger *zap.Logger) *PostingHandler {
	return &PostingHandler{ingestion: ingestion, store: store, logger: logger.Named("postings")}
}

// Daily is GET /job-postings/daily. A failed upstream call answers 404
// like an empty day does; only a failed commit is a 500.
func (h *PostingHandler) Daily(c *gin.Context) {
	postings, err := h.ingestion.IngestDaily(c.Request.Context())
	if err != nil {
		if services.FailedStage(err) == services.StageFetch {
			h.logger.Warn("daily fetch failed", zap.Error(err))
			c.JSON(http.StatusNotFound, gin.H{"message": "No postings fetched for today."})
			return
		}
		h.logger.Error("daily ingestion failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
		return
	}
	if len(postings) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"message": "No postings fetched for today."})
		return
	}
	c.JSON(http.StatusOK, postings)
}

// Historical is GET /job-postings/historical?start_date=YYYY-MM-DD&end_date=YYYY-MM-DD.
func (h *PostingHandler) Historical(c *gin.Context) {
	var q dtos.HistoricalQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date format, please use YYYY-MM-DD."})
		return
	}
	start, errStart := time.Parse(time.DateOnly, q.StartDate)
	end, errEnd := time.Parse(time.DateOnly, q.EndDate)
	if errStart != nil || errEnd != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date format, please use YYYY-MM-DD."})
		return
	}

	postings, _, err := h.ingestion.IngestHistorical(c.Request.Context(), start, end)
	if err != nil {
		h.logger.Error("historical ingestion failed",
			zap.String("start_date", q.StartDate),
			zap.String("end_date", q.EndDate),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching historical postings."})
		return
	}
	if len(postings) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"message": "No historical postings fetched."})
		return
	}
	c.JSON(http.StatusOK, postings)
}

// List is GET /job-postings?table=daily|historical&limit=N and returns
// stored rows, newest first.
func (h *PostingHandler) List(c *gin.Context) {
	var q dtos.ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query: " + err.Error()})
		return
	}
	table, err := database.ParseTable(q.Table)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query: table must be daily or historical"})
		return
	}
	limit := q.Limit
	if limit == 0 {
		limit = defaultListLimit
	}

	rows, err := h.store.List(c.Request.Context(), table, limit)
	if err != nil {
		h.logger.Error("listing postings failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
		return
	}
	c.JSON(http.StatusOK, rows)
}
