package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// StatsReader is implemented by services.StatsService.
type StatsReader interface {
	JobsByDepartment(ctx context.Context) (map[string]int64, error)
	ContractTypeCounts(ctx context.Context) (map[string]int64, error)
	JobsByCommune(ctx context.Context) (map[string]int64, error)
}

// StatsHandler serves grouped counts over the historical table.
type StatsHandler struct {
	stats  StatsReader
	logger *zap.Logger
}

func NewStatsHandler(stats StatsReader, logger *zap.Logger) *StatsHandler {
	return &StatsHandler{stats: stats, logger: logger.Named("stats")}
}

// JobsByDepartment is GET /stats/jobs-by-department.
func (h *StatsHandler) JobsByDepartment(c *gin.Context) {
	h.respond(c, "jobs_by_department", h.stats.JobsByDepartment)
}

// ContractTypeEvolution is GET /stats/contract-type-evolution.
func (h *StatsHandler) ContractTypeEvolution(c *gin.Context) {
	h.respond(c, "contract_type_evolution", h.stats.ContractTypeCounts)
}

// JobsByCommune is GET /stats/jobs-by-commune.
func (h *StatsHandler) JobsByCommune(c *gin.Context) {
	h.respond(c, "jobs_by_commune", h.stats.JobsByCommune)
}

func (h *StatsHandler) respond(c *gin.Context, name string, query func(context.Context) (map[string]int64, error)) {
	counts, err := query(c.Request.Context())
	if err != nil {
		h.logger.Error("stats query failed", zap.String("stat", name), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
		return
	}
	c.JSON(http.StatusOK, counts)
}
