package auth

import (
	"context"

	"github.com/google/uuid"

	"trailmark.org/internal/acl"
	"trailmark.org/internal/pagination"
)

// Store describes the persistence operations required by the permission
// controller and the identity handlers.
type Store interface {
	Users() UserStore
	Organizations() OrganizationStore
	Memberships() MembershipStore
	Relationships() RelationshipVerifier
}

// UserStore manages user records.
type UserStore interface {
	Create(ctx context.Context, u *User) error
	Find(ctx context.Context, id uuid.UUID) (*User, error)
	FindByAuthID(ctx context.Context, authID string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context, params pagination.PageParams) ([]*User, int, error)
	Update(ctx context.Context, id uuid.UUID, upd UserUpdate) (*User, error)
	UpdateScopes(ctx context.Context, id uuid.UUID, scopes []acl.Privilege) (*User, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// OrganizationStore manages organizations.
type OrganizationStore interface {
	Create(ctx context.Context, o *Organization) error
	Find(ctx context.Context, id uuid.UUID) (*Organization, error)
	FindBySlug(ctx context.Context, slug string) (*Organization, error)
	List(ctx context.Context, params pagination.PageParams) ([]*Organization, int, error)
	Update(ctx context.Context, id uuid.UUID, upd OrganizationUpdate) (*Organization, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// MembershipStore manages user/organization links.
type MembershipStore interface {
	Add(ctx context.Context, userID, organizationID uuid.UUID) (Membership, error)
	Remove(ctx context.Context, userID, organizationID uuid.UUID) error
	OrganizationsForUser(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}

// RelationshipQuery names the resource a caller wants a tenancy path to.
// Every non-nil id adds an independent join condition; callers in practice
// supply one at a time.
type RelationshipQuery struct {
	UserID         *uuid.UUID
	OrganizationID *uuid.UUID
	PlatformID     *uuid.UUID
	WebsiteID      *uuid.UUID
}

// IsZero reports whether no resource id was supplied.
func (q RelationshipQuery) IsZero() bool {
	return q.UserID == nil && q.OrganizationID == nil && q.PlatformID == nil && q.WebsiteID == nil
}

// RelationshipVerifier answers multi-hop tenancy reachability questions.
// The returned count is the number of rows of the composed join; any
// positive count means the current user has a path to the resource.
type RelationshipVerifier interface {
	VerifyRelationship(ctx context.Context, currentUserID uuid.UUID, q RelationshipQuery) (int, error)
}
