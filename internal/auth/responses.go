package auth

import (
	"context"

	"trailmark.org/internal/acl"
	"trailmark.org/internal/pagination"
)

// ResponseOption pairs a privilege with the projection applied when the
// caller holds it. Options are declared richest first; the first held
// privilege decides the shape of the response.
type ResponseOption[R any] struct {
	Privilege acl.Privilege
	Project   func(R) any
}

// ResourceResponse projects a resource through the first response option
// whose privilege the caller holds. No held option denies with the view
// reason; routes gate access earlier, so this denial is a safety net.
func ResourceResponse[R any](privileges []acl.Privilege, resource R, options []ResponseOption[R]) (any, error) {
	for _, option := range options {
		if acl.Holds(privileges, option.Privilege) {
			return option.Project(resource), nil
		}
	}
	return nil, newPermissionError(MessageInsufficientPermissionsResponse)
}

// PaginatedResponse selects the projection for the caller the same way as
// ResourceResponse, fetches one page and applies it to every row. No held
// option denies with the pagination reason before any query runs.
func PaginatedResponse[R any](
	ctx context.Context,
	privileges []acl.Privilege,
	fetch pagination.Fetch[R],
	params pagination.PageParams,
	options []ResponseOption[R],
) (pagination.Paginated[any], error) {
	var project func(R) any
	for _, option := range options {
		if acl.Holds(privileges, option.Privilege) {
			project = option.Project
			break
		}
	}
	if project == nil {
		return pagination.Paginated[any]{}, newPermissionError(MessageInsufficientPermissionsPagination)
	}
	page, err := pagination.Query(ctx, fetch, params)
	if err != nil {
		return pagination.Paginated[any]{}, err
	}
	projected := make([]any, 0, len(page.Results))
	for _, row := range page.Results {
		projected = append(projected, project(row))
	}
	return pagination.Paginated[any]{
		Total:   page.Total,
		Page:    page.Page,
		Size:    page.Size,
		Results: projected,
	}, nil
}
