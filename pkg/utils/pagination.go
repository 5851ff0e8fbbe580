package utils

import "math"

const (
	// DefaultPerPage is used when the caller does not ask for a page size
	DefaultPerPage = 10
	// MaxPerPage caps the page size of admin listings
	MaxPerPage = 100
)

// PaginationParams holds pagination request parameters
type PaginationParams struct {
	Page    int `form:"page"`
	PerPage int `form:"per_page"`
}

// PaginationMeta holds pagination response metadata
type PaginationMeta struct {
	CurrentPage int   `json:"current_page"`
	LastPage    int   `json:"last_page"`
	PerPage     int   `json:"per_page"`
	Total       int64 `json:"total"`
}

// GetPaginationParams extracts page and per-page with defaults.
// page < 1 becomes 1; perPage < 1 becomes DefaultPerPage; perPage is capped at maxPerPage.
func GetPaginationParams(page, perPage, maxPerPage int) PaginationParams {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	if maxPerPage < 1 {
		maxPerPage = MaxPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	return PaginationParams{
		Page:    page,
		PerPage: perPage,
	}
}

// CalculateOffset returns the SQL offset
func (p PaginationParams) CalculateOffset() int {
	if p.Page < 1 || p.PerPage < 1 {
		return 0
	}
	return (p.Page - 1) * p.PerPage
}

// CalculateMeta generates pagination metadata. An empty result still has one (empty) last page.
func CalculateMeta(total int64, page, perPage int) PaginationMeta {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}

	lastPage := int(math.Ceil(float64(total) / float64(perPage)))
	if lastPage < 1 {
		lastPage = 1
	}

	return PaginationMeta{
		CurrentPage: page,
		LastPage:    lastPage,
		PerPage:     perPage,
		Total:       total,
	}
}
