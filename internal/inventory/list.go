package inventory

import (
	"fmt"

	"github.com/angelmondragon/stockroom-backend/pkg/pagination"
)

// SortField names an allowed ordering for the list endpoint.
type SortField string

const (
	SortNone       SortField = ""
	SortQuantity   SortField = "quantity"
	SortOrderCount SortField = "order_count"
)

// ParseSortField maps the raw sort_by value onto the closed set of orderings.
func ParseSortField(raw string) (SortField, error) {
	switch SortField(raw) {
	case SortNone, SortQuantity, SortOrderCount:
		return SortField(raw), nil
	}
	return SortNone, fmt.Errorf("unsupported sort_by %q", raw)
}

// ListFilters are the conjunctive predicates applied to inventory rows.
type ListFilters struct {
	Category    string
	SubCategory string
	OnlyInStock bool
}

// ListInput captures the inputs needed to page through inventory.
type ListInput struct {
	Filters    ListFilters
	Sort       SortField
	Pagination pagination.Params
}
