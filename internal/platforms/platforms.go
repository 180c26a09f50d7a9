// Package platforms manages third-party marketing platform accounts (GA4,
// Search Console, Ads) and their properties. Platforms are linked to
// organizations through the organization_platforms table.
package platforms

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"trailmark.org/internal/acl"
	"trailmark.org/internal/pagination"
)

var (
	ErrNotFound    = errors.New("platforms: not found")
	ErrExists      = errors.New("platforms: already exists")
	ErrUnknownKind = errors.New("platforms: unknown platform kind")
)

// Kind names a supported platform integration.
type Kind string

const (
	KindGA4  Kind = "ga4"
	KindGSC  Kind = "gsc"
	KindGAds Kind = "gads"
)

// ValidKind reports whether k names a supported integration.
func ValidKind(k Kind) bool {
	switch k {
	case KindGA4, KindGSC, KindGAds:
		return true
	}
	return false
}

// Platform is one connected third-party account.
type Platform struct {
	ID          uuid.UUID `json:"id"`
	Kind        Kind      `json:"kind"`
	DisplayName string    `json:"display_name"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ACL mirrors the organization resources hanging off a platform: managers
// administer, users reach related platforms through their organizations.
func (p *Platform) ACL() []acl.Entry {
	return []acl.Entry{
		{Action: acl.Allow, Privilege: acl.RoleUser, Permission: acl.AccessList},
		{Action: acl.Allow, Privilege: acl.RoleAdmin, Permission: acl.AccessCreate},
		{Action: acl.Allow, Privilege: acl.RoleManager, Permission: acl.AccessCreate},
		{Action: acl.Allow, Privilege: acl.RoleAdmin, Permission: acl.AccessRead},
		{Action: acl.Allow, Privilege: acl.RoleManager, Permission: acl.AccessRead},
		{Action: acl.Allow, Privilege: acl.RoleUser, Permission: acl.AccessReadRelated},
		{Action: acl.Allow, Privilege: acl.RoleAdmin, Permission: acl.AccessUpdate},
		{Action: acl.Allow, Privilege: acl.RoleManager, Permission: acl.AccessUpdate},
		{Action: acl.Allow, Privilege: acl.RoleUser, Permission: acl.AccessUpdateRelated},
		{Action: acl.Allow, Privilege: acl.RoleAdmin, Permission: acl.AccessDelete},
		{Action: acl.Allow, Privilege: acl.RoleManager, Permission: acl.AccessDelete},
	}
}

// Property is a property or measurement id inside a platform account, e.g.
// a GA4 property or a Search Console site.
type Property struct {
	ID         uuid.UUID  `json:"id"`
	PlatformID uuid.UUID  `json:"platform_id"`
	PropertyID string     `json:"property_id"`
	WebsiteID  *uuid.UUID `json:"website_id,omitempty"`
	IsActive   bool       `json:"is_active"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func (p *Property) ACL() []acl.Entry {
	return []acl.Entry{
		{Action: acl.Allow, Privilege: acl.RoleUser, Permission: acl.AccessList},
		{Action: acl.Allow, Privilege: acl.RoleAdmin, Permission: acl.AccessCreate},
		{Action: acl.Allow, Privilege: acl.RoleManager, Permission: acl.AccessCreate},
		{Action: acl.Allow, Privilege: acl.RoleAdmin, Permission: acl.AccessRead},
		{Action: acl.Allow, Privilege: acl.RoleManager, Permission: acl.AccessRead},
		{Action: acl.Allow, Privilege: acl.RoleUser, Permission: acl.AccessReadRelated},
		{Action: acl.Allow, Privilege: acl.RoleAdmin, Permission: acl.AccessDelete},
		{Action: acl.Allow, Privilege: acl.RoleManager, Permission: acl.AccessDelete},
	}
}

// PlatformUpdate carries a partial platform update; nil fields are
// untouched.
type PlatformUpdate struct {
	DisplayName *string `json:"display_name,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

// Store persists platforms and their properties.
type Store interface {
	Create(ctx context.Context, p *Platform) error
	Find(ctx context.Context, id uuid.UUID) (*Platform, error)
	List(ctx context.Context, kind *Kind, params pagination.PageParams) ([]*Platform, int, error)
	Update(ctx context.Context, id uuid.UUID, upd PlatformUpdate) (*Platform, error)
	Delete(ctx context.Context, id uuid.UUID) error

	CreateProperty(ctx context.Context, p *Property) error
	ListProperties(ctx context.Context, platformID uuid.UUID) ([]*Property, error)
	DeleteProperty(ctx context.Context, id uuid.UUID) error
}
