package dto

import (
	"strings"

	"github.com/remotelyhq/jobradar/internal/jobs"
)

// SearchJobsRequest holds the query parameters for GET /api/v1/jobs
type SearchJobsRequest struct {
	Query      string `form:"q"`
	Page       int    `form:"page"`
	PageSize   int    `form:"page_size"`
	JobType    string `form:"type"`
	SalaryMin  int    `form:"salary_min"`
	SalaryMax  int    `form:"salary_max"`
	Location   string `form:"location"`
	Skills     string `form:"skills"` // comma-separated
	Company    string `form:"company"`
	MaxAgeDays int    `form:"max_age_days"`
	Category   string `form:"category"`
	Sort       string `form:"sort"`
}

// Filters converts the request parameters into aggregation filters
func (r SearchJobsRequest) Filters() jobs.Filters {
	var skills []string
	for _, s := range strings.Split(r.Skills, ",") {
		if s = strings.TrimSpace(s); s != "" {
			skills = append(skills, s)
		}
	}

	return jobs.Filters{
		JobType:    r.JobType,
		SalaryMin:  r.SalaryMin,
		SalaryMax:  r.SalaryMax,
		Location:   r.Location,
		Skills:     skills,
		Company:    r.Company,
		MaxAgeDays: r.MaxAgeDays,
		Category:   r.Category,
		Sort:       r.Sort,
	}
}

// CategoryDTO is one entry of the categories response
type CategoryDTO struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Count int    `json:"count"`
}

// CategoriesResponse is the body of GET /api/v1/categories
type CategoriesResponse struct {
	Categories []CategoryDTO `json:"categories"`
	Total      int           `json:"total"`
}
