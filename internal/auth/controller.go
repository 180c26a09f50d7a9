package auth

import (
	"context"

	"github.com/google/uuid"

	"trailmark.org/internal/acl"
)

// Controller is the per-request authorization facade. It holds the current
// user and their resolved privileges together with the store handle the
// relationship verifier needs. One instance is built per request and never
// shared.
type Controller struct {
	store       Store
	currentUser *User
	privileges  []acl.Privilege
}

// NewController builds a request-scoped controller.
func NewController(store Store, user *User, privileges []acl.Privilege) *Controller {
	return &Controller{
		store:       store,
		currentUser: user,
		privileges:  acl.Dedupe(privileges),
	}
}

// CurrentUser returns the authenticated user the controller was built for.
func (c *Controller) CurrentUser() *User { return c.currentUser }

// Privileges returns the effective privilege set of the current request.
func (c *Controller) Privileges() []acl.Privilege { return c.privileges }

// Store exposes the underlying store for handlers that need repository
// access alongside permission checks.
func (c *Controller) Store() Store { return c.store }

// AccessRequest names what a caller wants to reach. Privileges are a fast
// path: holding any of them grants access without touching the database.
type AccessRequest struct {
	Privileges     []acl.Privilege
	UserID         *uuid.UUID
	OrganizationID *uuid.UUID
	PlatformID     *uuid.UUID
	WebsiteID      *uuid.UUID
}

// VerifyUserCanAccess checks whether the current user may reach the
// requested resource. Checks run cheapest first and short-circuit:
// superuser/admin, then caller-supplied privileges, then self-access, and
// only then the relationship query. A fall-through denies with the access
// reason.
func (c *Controller) VerifyUserCanAccess(ctx context.Context, req AccessRequest) error {
	if c.currentUser.IsSuperuser || acl.Holds(c.privileges, acl.RoleAdmin) {
		return nil
	}
	for _, p := range req.Privileges {
		if acl.Holds(c.privileges, p) {
			return nil
		}
	}
	if req.UserID != nil && *req.UserID == c.currentUser.ID {
		return nil
	}
	count, err := c.store.Relationships().VerifyRelationship(ctx, c.currentUser.ID, RelationshipQuery{
		UserID:         req.UserID,
		OrganizationID: req.OrganizationID,
		PlatformID:     req.PlatformID,
		WebsiteID:      req.WebsiteID,
	})
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	return newPermissionError(MessageInsufficientPermissionsAccess)
}

// VerifyUserAddScopes checks whether the current user may grant the given
// scopes. Only the admin role may grant role-level scopes; everything else
// is open to any caller that reached this point.
func (c *Controller) VerifyUserAddScopes(scopes []acl.Privilege) error {
	if acl.Holds(c.privileges, acl.RoleAdmin) {
		return nil
	}
	for _, scope := range scopes {
		if acl.IsRolePrivilege(scope) {
			return newPermissionError(MessageInsufficientPermissionsScopeAdd)
		}
	}
	return nil
}

// VerifyUserRemoveScopes mirrors VerifyUserAddScopes for revocation.
func (c *Controller) VerifyUserRemoveScopes(scopes []acl.Privilege) error {
	if acl.Holds(c.privileges, acl.RoleAdmin) {
		return nil
	}
	for _, scope := range scopes {
		if acl.IsRolePrivilege(scope) {
			return newPermissionError(MessageInsufficientPermissionsScopeRemove)
		}
	}
	return nil
}

// AddPrivileges grants scopes to a user (set union, idempotent) after the
// scope gate passes. The updated user is persisted and returned.
func (c *Controller) AddPrivileges(ctx context.Context, toUser *User, upd UpdatePrivileges) (*User, error) {
	if err := c.VerifyUserAddScopes(upd.Scopes); err != nil {
		return nil, err
	}
	merged := acl.Dedupe(append(append([]acl.Privilege{}, toUser.Scopes...), upd.Scopes...))
	return c.store.Users().UpdateScopes(ctx, toUser.ID, merged)
}

// RemovePrivileges revokes scopes from a user (set difference; removing an
// absent scope is a no-op) after the scope gate passes.
func (c *Controller) RemovePrivileges(ctx context.Context, toUser *User, upd UpdatePrivileges) (*User, error) {
	if err := c.VerifyUserRemoveScopes(upd.Scopes); err != nil {
		return nil, err
	}
	drop := make(map[acl.Privilege]struct{}, len(upd.Scopes))
	for _, scope := range upd.Scopes {
		drop[scope] = struct{}{}
	}
	kept := make([]acl.Privilege, 0, len(toUser.Scopes))
	for _, scope := range toUser.Scopes {
		if _, ok := drop[scope]; ok {
			continue
		}
		kept = append(kept, scope)
	}
	return c.store.Users().UpdateScopes(ctx, toUser.ID, acl.Dedupe(kept))
}
