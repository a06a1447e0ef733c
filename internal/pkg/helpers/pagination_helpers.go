package helpers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yigit/shelfclub/internal/app/models/dto"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// PageRequest is a 1-based page number and a page size
type PageRequest struct {
	Page int
	Size int
}

// ParsePaginationParams reads page and pageSize from the query string.
// Missing, malformed or out of range values fall back to the defaults.
func ParsePaginationParams(c *gin.Context) PageRequest {
	req := PageRequest{Page: 1, Size: DefaultPageSize}
	if page, err := strconv.Atoi(c.Query("page")); err == nil && page >= 1 {
		req.Page = page
	}
	if size, err := strconv.Atoi(c.Query("pageSize")); err == nil && size >= 1 && size <= MaxPageSize {
		req.Size = size
	}
	return req
}

// Paginate returns the requested page of items with its pagination info. A
// page past the end is empty and reports the last page as current.
func Paginate[T any](items []T, req PageRequest) ([]T, dto.PaginationInfo) {
	if req.Size <= 0 {
		req.Size = DefaultPageSize
	}
	if req.Page < 1 {
		req.Page = 1
	}

	total := len(items)
	totalPages := (total + req.Size - 1) / req.Size
	if totalPages == 0 {
		totalPages = 1
	}

	start := min((req.Page-1)*req.Size, total)
	end := min(start+req.Size, total)

	return items[start:end], dto.PaginationInfo{
		CurrentPage: min(req.Page, totalPages),
		TotalPages:  totalPages,
		PageSize:    req.Size,
		TotalItems:  int64(total),
	}
}
