// Package handlers exposes the ingestion, listing and stats operations over
// HTTP with gin.
package handlers

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/justsurfingit/job-market-sync/internal/metrics"
)

type RouterDeps struct {
	Postings *PostingHandler
	Stats    *StatsHandler
	Health   *HealthHandler
	Logger   *zap.Logger
}

// NewRouter wires every route onto a fresh gin engine.
func NewRouter(d RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(d.Logger), Metrics())

	config := cors.DefaultConfig()
	config.AllowAllOrigins = true
	config.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	r.Use(cors.New(config))

	postings := r.Group("/job-postings")
	{
		postings.GET("", d.Postings.List)
		postings.GET("/daily", d.Postings.Daily)
		postings.GET("/historical", d.Postings.Historical)
	}

	stats := r.Group("/stats")
	{
		stats.GET("/jobs-by-department", d.Stats.JobsByDepartment)
		stats.GET("/contract-type-evolution", d.Stats.ContractTypeEvolution)
		stats.GET("/jobs-by-commune", d.Stats.JobsByCommune)
	}

	r.GET("/health", d.Health.Health)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	r.GET("/openapi.yaml", OpenAPI)
	r.GET("/api-docs", Docs)

	return r
}
