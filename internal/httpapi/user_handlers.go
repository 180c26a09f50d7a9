package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"trailmark.org/internal/acl"
	"trailmark.org/internal/auth"
	"trailmark.org/internal/pagination"
)

// userSummary is the projection managers see: account state and scopes, but
// never is_superuser or auth_id. Those stay admin-only.
type userSummary struct {
	ID         uuid.UUID       `json:"id"`
	Email      string          `json:"email"`
	Username   string          `json:"username"`
	IsActive   bool            `json:"is_active"`
	IsVerified bool            `json:"is_verified"`
	Scopes     []acl.Privilege `json:"scopes"`
}

func summarizeUser(u *auth.User) any {
	return userSummary{
		ID:         u.ID,
		Email:      u.Email,
		Username:   u.Username,
		IsActive:   u.IsActive,
		IsVerified: u.IsVerified,
		Scopes:     u.Scopes,
	}
}

// userProfile is what users see reading their own record.
type userProfile struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func profileUser(u *auth.User) any {
	return userProfile{
		ID:        u.ID,
		Email:     u.Email,
		Username:  u.Username,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func fullUser(u *auth.User) any { return u }

// userResponseOptions orders projections richest first; the first privilege
// the caller holds decides the response shape.
func userResponseOptions(id uuid.UUID) []auth.ResponseOption[*auth.User] {
	return []auth.ResponseOption[*auth.User]{
		{Privilege: acl.RoleAdmin, Project: fullUser},
		{Privilege: acl.RoleManager, Project: summarizeUser},
		{Privilege: acl.UserPrivilege(id), Project: profileUser},
	}
}

var userListOptions = []auth.ResponseOption[*auth.User]{
	{Privilege: acl.RoleAdmin, Project: fullUser},
	{Privilege: acl.RoleManager, Project: summarizeUser},
}

func (a *API) handleUsersCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listUsers(w, r)
	case http.MethodPost:
		a.createUser(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) listUsers(w http.ResponseWriter, r *http.Request) {
	ctrl, err := a.controller(r)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	params, err := parsePageParams(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	page, err := auth.PaginatedResponse(r.Context(), ctrl.Privileges(),
		pagination.Fetch[*auth.User](a.store.Users().List), params, userListOptions)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (a *API) createUser(w http.ResponseWriter, r *http.Request) {
	gate := acl.Require(a.gate, []acl.Permission{acl.AccessCreate},
		acl.FixedResource[acl.Provider](&auth.User{}))
	if _, err := gate(r.Context()); err != nil {
		handleDomainError(w, r, err)
		return
	}
	var reg auth.Registration
	if err := decodeJSON(w, r, &reg); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	user, err := a.auth.Register(r.Context(), reg)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	a.audit(r.Context(), "users.create", "user", user.ID.String(), map[string]string{
		"email": user.Email,
	})
	w.Header().Set("Location", "/v1/users/"+user.ID.String())
	writeJSON(w, http.StatusCreated, user)
}

func (a *API) handleUserResource(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/users/"), "/")
	if path == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	parts := strings.Split(path, "/")
	id, err := parseUUID(parts[0])
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	switch {
	case len(parts) == 1:
		switch r.Method {
		case http.MethodGet:
			a.getUser(w, r, id)
		case http.MethodPatch:
			a.updateUser(w, r, id)
		case http.MethodDelete:
			a.deleteUser(w, r, id)
		default:
			methodNotAllowed(w, r, http.MethodGet, http.MethodPatch, http.MethodDelete)
		}
	case len(parts) == 2 && parts[1] == "scopes":
		switch r.Method {
		case http.MethodPost:
			a.addUserScopes(w, r, id)
		case http.MethodDelete:
			a.removeUserScopes(w, r, id)
		default:
			methodNotAllowed(w, r, http.MethodPost, http.MethodDelete)
		}
	case len(parts) == 2 && parts[1] == "organizations":
		if r.Method != http.MethodGet {
			methodNotAllowed(w, r, http.MethodGet)
			return
		}
		a.listUserOrganizations(w, r, id)
	default:
		writeError(w, r, http.StatusNotFound, "resource not found")
	}
}

func (a *API) findUser(id uuid.UUID) func(context.Context) (*auth.User, error) {
	return func(ctx context.Context) (*auth.User, error) {
		return a.store.Users().Find(ctx, id)
	}
}

func (a *API) getUser(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	load := acl.Require(a.gate,
		[]acl.Permission{acl.AccessRead, acl.AccessReadSelf}, a.findUser(id))
	user, err := load(r.Context())
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	ctrl, err := a.controller(r)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	body, err := auth.ResourceResponse(ctrl.Privileges(), user, userResponseOptions(id))
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, body)
}

func (a *API) updateUser(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	load := acl.Require(a.gate,
		[]acl.Permission{acl.AccessUpdate, acl.AccessUpdateSelf}, a.findUser(id))
	if _, err := load(r.Context()); err != nil {
		handleDomainError(w, r, err)
		return
	}
	var upd auth.UserUpdate
	if err := decodeJSON(w, r, &upd); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	ctrl, err := a.controller(r)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	err = ctrl.VerifyInputSchemaByRole(&upd, []auth.SchemaOption{
		{Privilege: acl.RoleAdmin, Fields: []string{"email", "username", "is_active", "is_verified", "is_superuser"}},
		{Privilege: acl.UserPrivilege(id), Fields: []string{"email", "username"}},
	})
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	user, err := a.store.Users().Update(r.Context(), id, upd)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	a.audit(r.Context(), "users.update", "user", id.String(), nil)
	body, err := auth.ResourceResponse(ctrl.Privileges(), user, userResponseOptions(id))
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, body)
}

func (a *API) deleteUser(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	load := acl.Require(a.gate,
		[]acl.Permission{acl.AccessDelete, acl.AccessDeleteSelf}, a.findUser(id))
	if _, err := load(r.Context()); err != nil {
		handleDomainError(w, r, err)
		return
	}
	if err := a.store.Users().Delete(r.Context(), id); err != nil {
		handleDomainError(w, r, err)
		return
	}
	a.audit(r.Context(), "users.delete", "user", id.String(), nil)
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) addUserScopes(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	var upd auth.UpdatePrivileges
	if err := decodeJSON(w, r, &upd); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	ctrl, err := a.controller(r)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	if err := ctrl.VerifyUserCanAccess(r.Context(), auth.AccessRequest{UserID: &id}); err != nil {
		handleDomainError(w, r, err)
		return
	}
	target, err := a.store.Users().Find(r.Context(), id)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	user, err := ctrl.AddPrivileges(r.Context(), target, upd)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	a.audit(r.Context(), "users.scopes.add", "user", id.String(), map[string]string{
		"scopes": strings.Join(privilegeStrings(upd.Scopes), ","),
	})
	writeJSON(w, http.StatusOK, user)
}

func (a *API) removeUserScopes(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	var upd auth.UpdatePrivileges
	if err := decodeJSON(w, r, &upd); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	ctrl, err := a.controller(r)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	if err := ctrl.VerifyUserCanAccess(r.Context(), auth.AccessRequest{UserID: &id}); err != nil {
		handleDomainError(w, r, err)
		return
	}
	target, err := a.store.Users().Find(r.Context(), id)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	user, err := ctrl.RemovePrivileges(r.Context(), target, upd)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	a.audit(r.Context(), "users.scopes.remove", "user", id.String(), map[string]string{
		"scopes": strings.Join(privilegeStrings(upd.Scopes), ","),
	})
	writeJSON(w, http.StatusOK, user)
}

func (a *API) listUserOrganizations(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	ctrl, err := a.controller(r)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	err = ctrl.VerifyUserCanAccess(r.Context(), auth.AccessRequest{
		Privileges: []acl.Privilege{acl.RoleManager},
		UserID:     &id,
	})
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	orgIDs, err := a.store.Memberships().OrganizationsForUser(r.Context(), id)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"organization_ids": orgIDs,
	})
}

func privilegeStrings(privileges []acl.Privilege) []string {
	out := make([]string, 0, len(privileges))
	for _, p := range privileges {
		out = append(out, string(p))
	}
	return out
}
