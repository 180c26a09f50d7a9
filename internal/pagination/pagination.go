// Package pagination carries page parameters and the paginated response
// envelope shared by list endpoints.
package pagination

import "context"

const (
	DefaultPageSize = 100
	MaxPageSize     = 1000
)

// PageParams selects one page of a listing.
type PageParams struct {
	Page int `json:"page"`
	Size int `json:"size"`
}

// Normalize clamps parameters into valid ranges.
func (p PageParams) Normalize() PageParams {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Size < 1 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	return p
}

// Offset returns the row offset for the page.
func (p PageParams) Offset() int {
	p = p.Normalize()
	return (p.Page - 1) * p.Size
}

// Limit returns the row limit for the page.
func (p PageParams) Limit() int {
	return p.Normalize().Size
}

// Paginated is one page of results plus totals.
type Paginated[T any] struct {
	Total   int `json:"total"`
	Page    int `json:"page"`
	Size    int `json:"size"`
	Results []T `json:"results"`
}

// Fetch loads one page of rows and the total row count for a listing.
type Fetch[R any] func(ctx context.Context, params PageParams) ([]R, int, error)

// Query executes a Fetch and wraps the page in the response envelope.
func Query[R any](ctx context.Context, fetch Fetch[R], params PageParams) (Paginated[R], error) {
	params = params.Normalize()
	rows, total, err := fetch(ctx, params)
	if err != nil {
		return Paginated[R]{}, err
	}
	return Paginated[R]{
		Total:   total,
		Page:    params.Page,
		Size:    params.Size,
		Results: rows,
	}, nil
}
