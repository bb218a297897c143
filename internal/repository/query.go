package repository

import (
	"fmt"
	"strings"
)

const (
	// SortByName sorts results by product name.
	SortByName SortField = "name"
	// SortByPrice sorts results by product price.
	SortByPrice SortField = "price"
	// SortByCreatedAt sorts results by creation time.
	SortByCreatedAt SortField = "created_at"

	// OrderAsc sorts results in ascending order.
	OrderAsc SortOrder = "ASC"
	// OrderDesc sorts results in descending order.
	OrderDesc SortOrder = "DESC"

	// DefaultPage is the first page of results.
	DefaultPage = 1
	// DefaultPaginationLimit is the default number of items per page.
	DefaultPaginationLimit = 10
	maxPaginationLimit     = 100
)

// SortField is an allow-listed sortable column. Only values produced by
// this package ever reach SQL text; user input is matched against the
// allow list and rejected otherwise.
type SortField string

// SortOrder is a validated sort direction.
type SortOrder string

// Query describes a product listing request: page selection, sorting
// and an optional case-insensitive substring filter on name.
type Query struct {
	Page       int
	Limit      int
	SortBy     SortField
	Order      SortOrder
	NameFilter string
}

// NewQuery returns a Query with the listing defaults applied.
func NewQuery() *Query {
	return &Query{
		Page:   DefaultPage,
		Limit:  DefaultPaginationLimit,
		SortBy: SortByCreatedAt,
		Order:  OrderDesc,
	}
}

// ApplySort validates and applies the requested sort field and order.
// The sort field is matched exactly; the order is case-insensitive.
func (q *Query) ApplySort(sortBy, order string) error {
	if sortBy != "" {
		switch SortField(sortBy) {
		case SortByName, SortByPrice, SortByCreatedAt:
			q.SortBy = SortField(sortBy)
		default:
			return fmt.Errorf("invalid sort field: %q", sortBy)
		}
	}
	if order != "" {
		switch strings.ToUpper(order) {
		case string(OrderAsc):
			q.Order = OrderAsc
		case string(OrderDesc):
			q.Order = OrderDesc
		default:
			return fmt.Errorf("invalid order parameter: %q", order)
		}
	}
	return nil
}

// ApplyPagination validates and applies the requested page and limit.
// Limits above the cap are clamped rather than rejected.
func (q *Query) ApplyPagination(page, limit int) error {
	if page < 1 {
		return fmt.Errorf("page must be a positive integer, got %d", page)
	}
	if limit < 1 {
		return fmt.Errorf("limit must be a positive integer, got %d", limit)
	}
	q.Page = page
	q.Limit = min(maxPaginationLimit, limit)
	return nil
}

// WithNameFilter applies a substring filter on product name.
func (q *Query) WithNameFilter(name string) *Query {
	q.NameFilter = name
	return q
}

// Offset returns the row offset for the selected page.
func (q *Query) Offset() int {
	return (q.Page - 1) * q.Limit
}
