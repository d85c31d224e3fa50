package helpers

import (
	"net/http"
	"strconv"

	"eventbooking/internal/domain"
)

// Pagination query parameter defaults and limits.
const (
	DefaultPage     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ParsePagination reads page and page_size from the query string. Missing or
// invalid values fall back to the defaults and page_size is capped at MaxPageSize.
func ParsePagination(r *http.Request) domain.PaginationParams {
	q := r.URL.Query()
	page := positiveInt(q.Get("page"), DefaultPage)
	pageSize := min(positiveInt(q.Get("page_size"), DefaultPageSize), MaxPageSize)
	return domain.PaginationParams{Page: page, PageSize: pageSize}
}

func positiveInt(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 1 {
		return def
	}
	return v
}

// PaginationMeta is the pagination metadata included in paginated list responses.
// swagger:model PaginationMeta
type PaginationMeta struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// NewPaginationMeta builds PaginationMeta for params and the total item count.
// TotalPages is ceiling(total / pageSize), or 0 when pageSize is 0.
func NewPaginationMeta(params domain.PaginationParams, total int) PaginationMeta {
	totalPages := 0
	if params.PageSize > 0 {
		totalPages = (total + params.PageSize - 1) / params.PageSize
	}
	return PaginationMeta{
		Page:       params.Page,
		PageSize:   params.PageSize,
		Total:      total,
		TotalPages: totalPages,
	}
}
