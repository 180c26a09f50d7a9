// Package websites manages website records, their crawled pages and their
// sitemaps. Websites are linked to organizations through the
// organization_websites table.
package websites

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"trailmark.org/internal/acl"
	"trailmark.org/internal/pagination"
)

var (
	ErrNotFound = errors.New("websites: not found")
	ErrExists   = errors.New("websites: already exists")
)

// Website is a tracked site identified by its domain.
type Website struct {
	ID        uuid.UUID `json:"id"`
	Domain    string    `json:"domain"`
	IsSecure  bool      `json:"is_secure"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Link returns the site's base URL, honoring the is_secure flag.
func (w *Website) Link() string {
	if w.IsSecure {
		return "https://" + w.Domain
	}
	return "http://" + w.Domain
}

// ACL lets any user read and manage websites they can reach; creation is
// restricted to managers.
func (w *Website) ACL() []acl.Entry {
	return []acl.Entry{
		{Action: acl.Allow, Privilege: acl.RoleUser, Permission: acl.AccessList},
		{Action: acl.Allow, Privilege: acl.RoleAdmin, Permission: acl.AccessCreate},
		{Action: acl.Allow, Privilege: acl.RoleManager, Permission: acl.AccessCreate},
		{Action: acl.Allow, Privilege: acl.RoleUser, Permission: acl.AccessRead},
		{Action: acl.Allow, Privilege: acl.RoleUser, Permission: acl.AccessUpdate},
		{Action: acl.Allow, Privilege: acl.RoleUser, Permission: acl.AccessDelete},
	}
}

// WebsitePage is one crawled page of a website.
type WebsitePage struct {
	ID              uuid.UUID `json:"id"`
	WebsiteID       uuid.UUID `json:"website_id"`
	URL             string    `json:"url"`
	Status          int       `json:"status"`
	Priority        float64   `json:"priority"`
	LastModified    time.Time `json:"last_modified"`
	ChangeFrequency string    `json:"change_frequency"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (p *WebsitePage) ACL() []acl.Entry {
	return []acl.Entry{
		{Action: acl.Allow, Privilege: acl.RoleUser, Permission: acl.AccessList},
		{Action: acl.Allow, Privilege: acl.RoleUser, Permission: acl.AccessCreate},
		{Action: acl.Allow, Privilege: acl.RoleUser, Permission: acl.AccessRead},
		{Action: acl.Allow, Privilege: acl.RoleUser, Permission: acl.AccessUpdate},
		{Action: acl.Allow, Privilege: acl.RoleUser, Permission: acl.AccessDelete},
	}
}

// WebsiteSitemap is a sitemap URL registered for a website.
type WebsiteSitemap struct {
	ID        uuid.UUID `json:"id"`
	WebsiteID uuid.UUID `json:"website_id"`
	URL       string    `json:"url"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *WebsiteSitemap) ACL() []acl.Entry {
	return []acl.Entry{
		{Action: acl.Allow, Privilege: acl.RoleUser, Permission: acl.AccessList},
		{Action: acl.Allow, Privilege: acl.RoleUser, Permission: acl.AccessCreate},
		{Action: acl.Allow, Privilege: acl.RoleUser, Permission: acl.AccessRead},
		{Action: acl.Allow, Privilege: acl.RoleUser, Permission: acl.AccessUpdate},
		{Action: acl.Allow, Privilege: acl.RoleUser, Permission: acl.AccessDelete},
	}
}

// WebsiteUpdate carries a partial website update; nil fields are untouched.
type WebsiteUpdate struct {
	Domain   *string `json:"domain,omitempty"`
	IsSecure *bool   `json:"is_secure,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
}

// PageUpdate carries a partial page update.
type PageUpdate struct {
	URL             *string    `json:"url,omitempty"`
	Status          *int       `json:"status,omitempty"`
	Priority        *float64   `json:"priority,omitempty"`
	LastModified    *time.Time `json:"last_modified,omitempty"`
	ChangeFrequency *string    `json:"change_frequency,omitempty"`
	IsActive        *bool      `json:"is_active,omitempty"`
}

// Store persists websites, pages and sitemaps.
type Store interface {
	Create(ctx context.Context, w *Website) error
	Find(ctx context.Context, id uuid.UUID) (*Website, error)
	FindByDomain(ctx context.Context, domain string) (*Website, error)
	List(ctx context.Context, params pagination.PageParams) ([]*Website, int, error)
	Update(ctx context.Context, id uuid.UUID, upd WebsiteUpdate) (*Website, error)
	Delete(ctx context.Context, id uuid.UUID) error

	CreatePage(ctx context.Context, p *WebsitePage) error
	FindPage(ctx context.Context, id uuid.UUID) (*WebsitePage, error)
	ListPages(ctx context.Context, websiteID uuid.UUID, params pagination.PageParams) ([]*WebsitePage, int, error)
	UpdatePage(ctx context.Context, id uuid.UUID, upd PageUpdate) (*WebsitePage, error)
	DeletePage(ctx context.Context, id uuid.UUID) error

	CreateSitemap(ctx context.Context, s *WebsiteSitemap) error
	ListSitemaps(ctx context.Context, websiteID uuid.UUID) ([]*WebsiteSitemap, error)
	DeleteSitemap(ctx context.Context, id uuid.UUID) error
}
