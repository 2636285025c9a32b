package pagination

import "fmt"

const (
	// DefaultPage is the first page; pages are 1-based.
	DefaultPage = 1
	// DefaultPerPage is the standard page size when per_page is not provided.
	DefaultPerPage = 10
)

// Limits carries the configured page size policy. A zero MaxPerPage leaves
// per_page unbounded so every row stays reachable through some page.
type Limits struct {
	DefaultPerPage int
	MaxPerPage     int
}

// DefaultLimits mirrors the package defaults.
func DefaultLimits() Limits {
	return Limits{DefaultPerPage: DefaultPerPage}
}

// Params holds page-number pagination inputs from controllers or services.
type Params struct {
	Page    int
	PerPage int
}

// Normalize fills defaults for zero values. Negative values and a per_page
// above a configured maximum are rejected rather than clamped.
func (l Limits) Normalize(p Params) (Params, error) {
	if l.DefaultPerPage <= 0 {
		l.DefaultPerPage = DefaultPerPage
	}
	if l.MaxPerPage > 0 && l.MaxPerPage < l.DefaultPerPage {
		l.MaxPerPage = l.DefaultPerPage
	}

	if p.Page < 0 {
		return Params{}, fmt.Errorf("page must be >= 1")
	}
	if p.PerPage < 0 {
		return Params{}, fmt.Errorf("per_page must be >= 1")
	}
	if p.Page == 0 {
		p.Page = DefaultPage
	}
	if p.PerPage == 0 {
		p.PerPage = l.DefaultPerPage
	}
	if l.MaxPerPage > 0 && p.PerPage > l.MaxPerPage {
		return Params{}, fmt.Errorf("per_page must be <= %d", l.MaxPerPage)
	}
	return p, nil
}

// Offset is the number of rows skipped before the page starts.
func (p Params) Offset() int {
	if p.Page <= 1 {
		return 0
	}
	return (p.Page - 1) * p.PerPage
}

// Limit is the maximum number of rows in the page.
func (p Params) Limit() int {
	return p.PerPage
}
