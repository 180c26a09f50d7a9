package auth

import (
	"time"

	"github.com/google/uuid"

	"trailmark.org/internal/acl"
)

// User is a human or service account. Scopes are the privileges persisted on
// the record; the effective privilege set is derived via Privileges.
type User struct {
	ID           uuid.UUID       `json:"id"`
	AuthID       string          `json:"auth_id"`
	PasswordHash string          `json:"-"`
	Email        string          `json:"email"`
	Username     string          `json:"username"`
	IsActive     bool            `json:"is_active"`
	IsVerified   bool            `json:"is_verified"`
	IsSuperuser  bool            `json:"is_superuser"`
	Scopes       []acl.Privilege `json:"scopes"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// Privileges returns the user's own privilege tokens: exactly one user:{id}
// self-reference plus the persisted scopes, deduplicated.
func (u *User) Privileges() []acl.Privilege {
	principals := make([]acl.Privilege, 0, len(u.Scopes)+1)
	principals = append(principals, acl.UserPrivilege(u.ID))
	principals = append(principals, u.Scopes...)
	return acl.Dedupe(principals)
}

// ACL declares row-level access to user records. Managers may read any user
// but only the admin role or the user themselves may change one.
func (u *User) ACL() []acl.Entry {
	self := acl.UserPrivilege(u.ID)
	return []acl.Entry{
		{Action: acl.Allow, Privilege: acl.RoleAdmin, Permission: acl.AccessList},
		{Action: acl.Allow, Privilege: acl.RoleManager, Permission: acl.AccessList},
		{Action: acl.Allow, Privilege: acl.RoleAdmin, Permission: acl.AccessCreate},
		{Action: acl.Allow, Privilege: acl.RoleAdmin, Permission: acl.AccessRead},
		{Action: acl.Allow, Privilege: acl.RoleManager, Permission: acl.AccessRead},
		{Action: acl.Allow, Privilege: self, Permission: acl.AccessReadSelf},
		{Action: acl.Allow, Privilege: acl.RoleAdmin, Permission: acl.AccessUpdate},
		{Action: acl.Allow, Privilege: self, Permission: acl.AccessUpdateSelf},
		{Action: acl.Allow, Privilege: acl.RoleAdmin, Permission: acl.AccessDelete},
		{Action: acl.Allow, Privilege: self, Permission: acl.AccessDeleteSelf},
	}
}

// Organization is a tenant. Users relate to organizations through
// memberships; websites and platforms hang off organizations.
type Organization struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (o *Organization) ACL() []acl.Entry {
	return []acl.Entry{
		{Action: acl.Allow, Privilege: acl.RoleAdmin, Permission: acl.AccessList},
		{Action: acl.Allow, Privilege: acl.RoleManager, Permission: acl.AccessList},
		{Action: acl.Allow, Privilege: acl.RoleClient, Permission: acl.AccessList},
		{Action: acl.Allow, Privilege: acl.RoleEmployee, Permission: acl.AccessList},
		{Action: acl.Allow, Privilege: acl.RoleAdmin, Permission: acl.AccessCreate},
		{Action: acl.Allow, Privilege: acl.RoleManager, Permission: acl.AccessCreate},
		{Action: acl.Allow, Privilege: acl.RoleAdmin, Permission: acl.AccessRead},
		{Action: acl.Allow, Privilege: acl.RoleManager, Permission: acl.AccessRead},
		{Action: acl.Allow, Privilege: acl.RoleClient, Permission: acl.AccessReadSelf},
		{Action: acl.Allow, Privilege: acl.RoleEmployee, Permission: acl.AccessReadRelated},
		{Action: acl.Allow, Privilege: acl.RoleAdmin, Permission: acl.AccessUpdate},
		{Action: acl.Allow, Privilege: acl.RoleManager, Permission: acl.AccessUpdate},
		{Action: acl.Allow, Privilege: acl.RoleClient, Permission: acl.AccessUpdateSelf},
		{Action: acl.Allow, Privilege: acl.RoleAdmin, Permission: acl.AccessDelete},
	}
}

// Membership links a user to an organization.
type Membership struct {
	UserID         uuid.UUID `json:"user_id"`
	OrganizationID uuid.UUID `json:"organization_id"`
	CreatedAt      time.Time `json:"created_at"`
}

// UserUpdate carries a partial user update; nil fields are untouched.
type UserUpdate struct {
	Email       *string `json:"email,omitempty"`
	Username    *string `json:"username,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
	IsVerified  *bool   `json:"is_verified,omitempty"`
	IsSuperuser *bool   `json:"is_superuser,omitempty"`
}

// OrganizationUpdate carries a partial organization update.
type OrganizationUpdate struct {
	Name        *string `json:"name,omitempty"`
	Slug        *string `json:"slug,omitempty"`
	Description *string `json:"description,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

// UpdatePrivileges names the scopes to add to or remove from a user.
type UpdatePrivileges struct {
	Scopes []acl.Privilege `json:"scopes"`
}

// CurrentUserPrivileges computes the effective privilege set of an
// authenticated user: Everyone and Authenticated plus the user's own
// privileges, deduplicated.
func CurrentUserPrivileges(user *User) []acl.Privilege {
	principals := []acl.Privilege{acl.Everyone, acl.Authenticated}
	principals = append(principals, user.Privileges()...)
	return acl.Dedupe(principals)
}
