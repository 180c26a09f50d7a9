package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"trailmark.org/internal/acl"
	"trailmark.org/internal/pagination"
)

type userView struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
}

type publicView struct {
	ID uuid.UUID `json:"id"`
}

func userOptions() []ResponseOption[*User] {
	return []ResponseOption[*User]{
		{
			Privilege: acl.RoleManager,
			Project:   func(u *User) any { return userView{ID: u.ID, Email: u.Email} },
		},
		{
			Privilege: acl.RoleClient,
			Project:   func(u *User) any { return publicView{ID: u.ID} },
		},
	}
}

func TestResourceResponsePicksFirstHeldOption(t *testing.T) {
	target := &User{ID: uuid.New(), Email: "target@example.com"}

	view, err := ResourceResponse([]acl.Privilege{acl.RoleManager, acl.RoleClient}, target, userOptions())
	if err != nil {
		t.Fatalf("manager view: %v", err)
	}
	if _, ok := view.(userView); !ok {
		t.Fatalf("first held option must win, got %T", view)
	}
}

func TestResourceResponseFallsThroughOptions(t *testing.T) {
	target := &User{ID: uuid.New(), Email: "target@example.com"}

	view, err := ResourceResponse([]acl.Privilege{acl.RoleClient}, target, userOptions())
	if err != nil {
		t.Fatalf("client view: %v", err)
	}
	if _, ok := view.(publicView); !ok {
		t.Fatalf("client must fall through to the reduced view, got %T", view)
	}
}

func TestResourceResponseDeniesWithoutHeldOption(t *testing.T) {
	target := &User{ID: uuid.New()}

	_, err := ResourceResponse([]acl.Privilege{acl.RoleUser}, target, userOptions())
	perr, ok := IsPermissionError(err)
	if !ok {
		t.Fatalf("expected permission error, got %v", err)
	}
	if perr.Message != MessageInsufficientPermissionsResponse {
		t.Fatalf("unexpected message: %q", perr.Message)
	}
}

func TestPaginatedResponse(t *testing.T) {
	rows := []*User{
		{ID: uuid.New(), Email: "a@example.com"},
		{ID: uuid.New(), Email: "b@example.com"},
	}
	fetch := func(context.Context, pagination.PageParams) ([]*User, int, error) {
		return rows, len(rows), nil
	}

	page, err := PaginatedResponse(context.Background(), []acl.Privilege{acl.RoleManager},
		fetch, pagination.PageParams{Page: 1, Size: 10}, userOptions())
	if err != nil {
		t.Fatalf("PaginatedResponse: %v", err)
	}
	if page.Total != 2 || page.Page != 1 || page.Size != 10 {
		t.Fatalf("unexpected page metadata: %+v", page)
	}
	if len(page.Results) != 2 {
		t.Fatalf("unexpected results: %+v", page.Results)
	}
	if _, ok := page.Results[0].(userView); !ok {
		t.Fatalf("rows must be projected, got %T", page.Results[0])
	}
}

func TestPaginatedResponseDeniesBeforeQuery(t *testing.T) {
	fetch := func(context.Context, pagination.PageParams) ([]*User, int, error) {
		t.Fatal("fetch must not run when no option is held")
		return nil, 0, nil
	}

	_, err := PaginatedResponse(context.Background(), []acl.Privilege{acl.RoleUser},
		fetch, pagination.PageParams{}, userOptions())
	perr, ok := IsPermissionError(err)
	if !ok {
		t.Fatalf("expected permission error, got %v", err)
	}
	if perr.Message != MessageInsufficientPermissionsPagination {
		t.Fatalf("unexpected message: %q", perr.Message)
	}
}

func TestPaginatedResponsePropagatesFetchError(t *testing.T) {
	boom := errors.New("db down")
	fetch := func(context.Context, pagination.PageParams) ([]*User, int, error) {
		return nil, 0, boom
	}

	_, err := PaginatedResponse(context.Background(), []acl.Privilege{acl.RoleManager},
		fetch, pagination.PageParams{}, userOptions())
	if !errors.Is(err, boom) {
		t.Fatalf("fetch errors must propagate, got %v", err)
	}
}
