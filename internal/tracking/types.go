package tracking

import (
	"time"

	"github.com/google/uuid"

	"trailmark.org/internal/acl"
)

// TrackingLink is a campaign URL owned by an organization. The url_hash is
// unique across all links and derived from the raw URL.
type TrackingLink struct {
	ID             uuid.UUID  `json:"id"`
	URLHash        string     `json:"url_hash"`
	URL            string     `json:"url"`
	Scheme         string     `json:"scheme"`
	Domain         string     `json:"domain"`
	Destination    string     `json:"destination"`
	URLPath        string     `json:"url_path"`
	UTMCampaign    *string    `json:"utm_campaign,omitempty"`
	UTMMedium      *string    `json:"utm_medium,omitempty"`
	UTMSource      *string    `json:"utm_source,omitempty"`
	UTMContent     *string    `json:"utm_content,omitempty"`
	UTMTerm        *string    `json:"utm_term,omitempty"`
	IsActive       bool       `json:"is_active"`
	OrganizationID *uuid.UUID `json:"organization_id,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// ACL grants managers full access and plain users access to links reachable
// through their organizations.
func (l *TrackingLink) ACL() []acl.Entry {
	return []acl.Entry{
		{Action: acl.Allow, Privilege: acl.RoleUser, Permission: acl.AccessList},
		{Action: acl.Allow, Privilege: acl.RoleUser, Permission: acl.AccessCreate},
		{Action: acl.Allow, Privilege: acl.RoleAdmin, Permission: acl.AccessRead},
		{Action: acl.Allow, Privilege: acl.RoleManager, Permission: acl.AccessRead},
		{Action: acl.Allow, Privilege: acl.RoleUser, Permission: acl.AccessReadRelated},
		{Action: acl.Allow, Privilege: acl.RoleAdmin, Permission: acl.AccessUpdate},
		{Action: acl.Allow, Privilege: acl.RoleManager, Permission: acl.AccessUpdate},
		{Action: acl.Allow, Privilege: acl.RoleUser, Permission: acl.AccessUpdateRelated},
		{Action: acl.Allow, Privilege: acl.RoleAdmin, Permission: acl.AccessDelete},
		{Action: acl.Allow, Privilege: acl.RoleManager, Permission: acl.AccessDelete},
		{Action: acl.Allow, Privilege: acl.RoleUser, Permission: acl.AccessDeleteRelated},
	}
}

// CreateRequest carries the fields accepted when registering a link.
type CreateRequest struct {
	URL            string     `json:"url"`
	OrganizationID *uuid.UUID `json:"organization_id,omitempty"`
	IsActive       *bool      `json:"is_active,omitempty"`
}

// UpdateRequest carries a partial link update; nil fields are untouched.
// Changing the URL re-derives the hash and every canonical component.
type UpdateRequest struct {
	URL            *string    `json:"url,omitempty"`
	OrganizationID *uuid.UUID `json:"organization_id,omitempty"`
	IsActive       *bool      `json:"is_active,omitempty"`
}

// ListFilter narrows link listings. Nil fields do not filter. UserID
// restricts results to links of organizations the user belongs to.
type ListFilter struct {
	OrganizationID *uuid.UUID
	UserID         *uuid.UUID
	Scheme         *string
	Domain         *string
	IsActive       *bool
}
