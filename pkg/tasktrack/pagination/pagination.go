// Package pagination bounds page sizes, validates sortable fields and
// builds the uniform listing envelope.
package pagination

import (
	"reflect"
	"strings"

	"gorm.io/gorm"
)

const (
	// DefaultLimit is the page size used when none (or an invalid one) is requested
	DefaultLimit = 25
	// MaxLimit is the largest page size a client may request
	MaxLimit = 50
)

// Meta describes the position of a page within the full result set
type Meta struct {
	Total       int64 `json:"total"`
	PerPage     int   `json:"per_page"`
	CurrentPage int   `json:"current_page"`
	LastPage    int   `json:"last_page"`
	From        int   `json:"from"`
	To          int   `json:"to"`
}

// Page is the listing envelope: pagination meta plus the page of results
type Page struct {
	Meta    Meta        `json:"meta"`
	Results interface{} `json:"results"`
}

// ClampLimit falls back to DefaultLimit when limit is absent, non-positive
// or above MaxLimit
func ClampLimit(limit int) int {
	if limit <= 0 || limit > MaxLimit {
		return DefaultLimit
	}
	return limit
}

// ClampPage falls back to the first page when page is absent or non-positive
func ClampPage(page int) int {
	if page <= 0 {
		return 1
	}
	return page
}

// SortClause returns an ORDER BY clause for the requested sort, or "" when
// the field is not on the whitelist or the direction is not asc/desc.
// Sorting applies only when both parts are valid.
func SortClause(field, direction string, sortable []string) string {
	if field == "" || direction == "" {
		return ""
	}
	ok := false
	for _, s := range sortable {
		if s == field {
			ok = true
			break
		}
	}
	if !ok {
		return ""
	}
	direction = strings.ToLower(direction)
	if direction != "asc" && direction != "desc" {
		return ""
	}
	return field + " " + direction
}

// Paginate counts the query, fetches one page into dest and returns the
// page meta. The caller applies ordering before calling.
func Paginate(query *gorm.DB, page, limit int, dest interface{}) (Meta, error) {
	limit = ClampLimit(limit)
	page = ClampPage(page)

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return Meta{}, err
	}

	if err := query.Offset((page - 1) * limit).Limit(limit).Find(dest).Error; err != nil {
		return Meta{}, err
	}

	lastPage := int((total + int64(limit) - 1) / int64(limit))
	if lastPage < 1 {
		lastPage = 1
	}

	meta := Meta{
		Total:       total,
		PerPage:     limit,
		CurrentPage: page,
		LastPage:    lastPage,
	}

	count := resultCount(dest)
	if count > 0 {
		meta.From = (page-1)*limit + 1
		meta.To = meta.From + count - 1
	}

	return meta, nil
}

// resultCount returns the number of fetched rows; dest is a pointer to a slice
func resultCount(dest interface{}) int {
	v := reflect.ValueOf(dest)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	if v.Kind() == reflect.Slice {
		return v.Len()
	}
	return 0
}
