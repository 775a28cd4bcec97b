package models

import (
	"fmt"
	"strings"
	"time"
)

// DateCreatedLayout is the upstream creation timestamp format
// (2024-01-05T10:12:33.000000Z). Parsing goes through RFC 3339, which
// accepts any number of fractional digits.
const DateCreatedLayout = "2006-01-02T15:04:05.000000Z"

// Posting is the normalized offer passed from the fetcher to the store and
// returned to HTTP callers.
type Posting struct {
	Title              *string  `json:"title"`
	Company            *string  `json:"company"`
	Location           *string  `json:"location"`
	PostalCode         *string  `json:"postal_code"`
	ContractType       *string  `json:"contract_type"`
	Description        *string  `json:"description"`
	Salary             *string  `json:"salary"`
	RequiredExperience *string  `json:"required_experience"`
	Qualifications     []string `json:"qualifications"`
	DateCreated        *string  `json:"date_created"`
	ApplicationURL     *string  `json:"application_url"`
	Department         string   `json:"department"`
	Commune            *string  `json:"commune"`
	Domain             *string  `json:"domain"`
	Region             *string  `json:"region"`
}

// PostingColumns is the column set shared by both posting tables.
type PostingColumns struct {
	ID                 uint       `gorm:"primaryKey" json:"id"`
	Title              *string    `gorm:"size:100" json:"title"`
	Company            *string    `gorm:"size:100" json:"company"`
	Location           *string    `gorm:"size:100" json:"location"`
	PostalCode         *string    `gorm:"size:10" json:"postal_code"`
	ContractType       *string    `gorm:"size:50" json:"contract_type"`
	Description        *string    `gorm:"type:text" json:"description"`
	Salary             *string    `gorm:"size:50" json:"salary"`
	RequiredExperience *string    `gorm:"size:100" json:"required_experience"`
	Qualifications     string     `gorm:"size:200" json:"qualifications"`
	DateCreated        *time.Time `gorm:"type:date" json:"date_created"`
	ApplicationURL     *string    `gorm:"size:200" json:"application_url"`
	Department         string     `gorm:"size:10" json:"department"`
	Commune            *string    `gorm:"size:50" json:"commune"`
	Domain             *string    `gorm:"size:50" json:"domain"`
	Region             *string    `gorm:"size:50" json:"region"`
}

// JobPosting is a row of the current-day table.
type JobPosting struct {
	PostingColumns
}

func (JobPosting) TableName() string { return "job_postings" }

// HistoricalJobPosting is a row of the historical table. It has no relation
// to JobPosting; the same offer may exist in both.
type HistoricalJobPosting struct {
	PostingColumns
}

func (HistoricalJobPosting) TableName() string { return "historical_job_postings" }

// DepartmentFromPostalCode returns the first two characters of a postal
// code, or "" when it is absent or too short.
func DepartmentFromPostalCode(postalCode *string) string {
	if postalCode == nil || len(*postalCode) < 2 {
		return ""
	}
	return (*postalCode)[:2]
}

// JoinQualifications flattens qualifications with a bare comma. A comma
// inside a qualification is not escaped.
func JoinQualifications(q []string) string {
	return strings.Join(q, ",")
}

// ParseDateCreated returns the calendar date (UTC midnight) of an upstream
// creation timestamp, or nil for an absent or empty value.
func ParseDateCreated(raw *string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, *raw)
	if err != nil {
		return nil, fmt.Errorf("parse date_created %q: %w", *raw, err)
	}
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return &d, nil
}

// NewPostingColumns maps a posting to its persisted form.
func NewPostingColumns(p Posting) (PostingColumns, error) {
	dateCreated, err := ParseDateCreated(p.DateCreated)
	if err != nil {
		return PostingColumns{}, err
	}

	return PostingColumns{
		Title:              p.Title,
		Company:            p.Company,
		Location:           p.Location,
		PostalCode:         p.PostalCode,
		ContractType:       p.ContractType,
		Description:        p.Description,
		Salary:             p.Salary,
		RequiredExperience: p.RequiredExperience,
		Qualifications:     JoinQualifications(p.Qualifications),
		DateCreated:        dateCreated,
		ApplicationURL:     p.ApplicationURL,
		Department:         p.Department,
		Commune:            p.Commune,
		Domain:             p.Domain,
		Region:             p.Region,
	}, nil
}
