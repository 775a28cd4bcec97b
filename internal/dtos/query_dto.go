package dtos

// HistoricalQuery is bound from GET /job-postings/historical.
type HistoricalQuery struct {
	StartDate string `form:"start_date" binding:"required"`
	EndDate   string `form:"end_date" binding:"required"`
}

// ListQuery is bound from GET /job-postings.
type ListQuery struct {
	Table string `form:"table"`
	Limit int    `form:"limit" binding:"omitempty,min=1,max=500"`
}
