package common

import (
	"net/http"
	"strconv"
)

// Pagination holds pagination metadata for list responses.
type Pagination struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	TotalItems int `json:"total_items"`
}

// MaxPerPage caps the page size a client may request.
const MaxPerPage = 100

// ParsePagination extracts page and per-page parameters from query values.
func ParsePagination(r *http.Request, defaultPerPage int) (page, perPage int) {
	page = 1
	perPage = defaultPerPage
	if p, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && p > 0 {
		page = p
	}
	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 {
		perPage = l
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	return
}

// Offset converts a page number into a row offset.
func Offset(page, perPage int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * perPage
}

// WriteList renders a paginated list with the X-Total-Count header.
func WriteList(w http.ResponseWriter, data any, page, perPage, total int) {
	w.Header().Set("X-Total-Count", strconv.Itoa(total))
	JSON(w, http.StatusOK, map[string]any{
		"data":       data,
		"pagination": Pagination{Page: page, PerPage: perPage, TotalItems: total},
	})
}
