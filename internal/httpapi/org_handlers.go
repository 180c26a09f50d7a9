package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"trailmark.org/internal/acl"
	"trailmark.org/internal/auth"
	"trailmark.org/internal/pagination"
)

// orgSummary is what members without a management role see.
type orgSummary struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Slug string    `json:"slug"`
}

func summarizeOrganization(o *auth.Organization) any {
	return orgSummary{ID: o.ID, Name: o.Name, Slug: o.Slug}
}

func fullOrganization(o *auth.Organization) any { return o }

var orgResponseOptions = []auth.ResponseOption[*auth.Organization]{
	{Privilege: acl.RoleAdmin, Project: fullOrganization},
	{Privilege: acl.RoleManager, Project: fullOrganization},
	{Privilege: acl.RoleClient, Project: summarizeOrganization},
	{Privilege: acl.RoleEmployee, Project: summarizeOrganization},
}

type createOrganizationRequest struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description,omitempty"`
}

type addMemberRequest struct {
	UserID uuid.UUID `json:"user_id"`
}

func (a *API) handleOrganizationsCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listOrganizations(w, r)
	case http.MethodPost:
		a.createOrganization(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) listOrganizations(w http.ResponseWriter, r *http.Request) {
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
		pagination.Fetch[*auth.Organization](a.store.Organizations().List), params, orgResponseOptions)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (a *API) createOrganization(w http.ResponseWriter, r *http.Request) {
	gate := acl.Require(a.gate, []acl.Permission{acl.AccessCreate},
		acl.FixedResource[acl.Provider](&auth.Organization{}))
	if _, err := gate(r.Context()); err != nil {
		handleDomainError(w, r, err)
		return
	}
	var req createOrganizationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Slug = strings.TrimSpace(strings.ToLower(req.Slug))
	if req.Name == "" || req.Slug == "" {
		writeError(w, r, http.StatusBadRequest, "name and slug are required")
		return
	}
	org := &auth.Organization{
		ID:          uuid.New(),
		Name:        req.Name,
		Slug:        req.Slug,
		Description: strings.TrimSpace(req.Description),
		IsActive:    true,
	}
	if err := a.store.Organizations().Create(r.Context(), org); err != nil {
		handleDomainError(w, r, err)
		return
	}
	a.audit(r.Context(), "organizations.create", "organization", org.ID.String(), map[string]string{
		"slug": org.Slug,
	})
	w.Header().Set("Location", "/v1/organizations/"+org.ID.String())
	writeJSON(w, http.StatusCreated, org)
}

func (a *API) handleOrganizationResource(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/organizations/"), "/")
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
			a.getOrganization(w, r, id)
		case http.MethodPatch:
			a.updateOrganization(w, r, id)
		case http.MethodDelete:
			a.deleteOrganization(w, r, id)
		default:
			methodNotAllowed(w, r, http.MethodGet, http.MethodPatch, http.MethodDelete)
		}
	case len(parts) == 2 && parts[1] == "members":
		if r.Method != http.MethodPost {
			methodNotAllowed(w, r, http.MethodPost)
			return
		}
		a.addOrganizationMember(w, r, id)
	case len(parts) == 3 && parts[1] == "members":
		if r.Method != http.MethodDelete {
			methodNotAllowed(w, r, http.MethodDelete)
			return
		}
		userID, err := parseUUID(parts[2])
		if err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		a.removeOrganizationMember(w, r, id, userID)
	default:
		writeError(w, r, http.StatusNotFound, "resource not found")
	}
}

func (a *API) findOrganization(id uuid.UUID) func(context.Context) (*auth.Organization, error) {
	return func(ctx context.Context) (*auth.Organization, error) {
		return a.store.Organizations().Find(ctx, id)
	}
}

func (a *API) getOrganization(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	load := acl.Require(a.gate,
		[]acl.Permission{acl.AccessRead, acl.AccessReadSelf, acl.AccessReadRelated},
		a.findOrganization(id))
	org, err := load(r.Context())
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	ctrl, err := a.controller(r)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	err = ctrl.VerifyUserCanAccess(r.Context(), auth.AccessRequest{
		Privileges:     []acl.Privilege{acl.RoleManager},
		OrganizationID: &id,
	})
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	body, err := auth.ResourceResponse(ctrl.Privileges(), org, orgResponseOptions)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, body)
}

func (a *API) updateOrganization(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	load := acl.Require(a.gate,
		[]acl.Permission{acl.AccessUpdate, acl.AccessUpdateSelf},
		a.findOrganization(id))
	if _, err := load(r.Context()); err != nil {
		handleDomainError(w, r, err)
		return
	}
	var upd auth.OrganizationUpdate
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
		{Privilege: acl.RoleAdmin, Fields: []string{"name", "slug", "description", "is_active"}},
		{Privilege: acl.RoleManager, Fields: []string{"name", "description", "is_active"}},
		{Privilege: acl.RoleClient, Fields: []string{"description"}},
	})
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	err = ctrl.VerifyUserCanAccess(r.Context(), auth.AccessRequest{
		Privileges:     []acl.Privilege{acl.RoleManager},
		OrganizationID: &id,
	})
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	org, err := a.store.Organizations().Update(r.Context(), id, upd)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	a.audit(r.Context(), "organizations.update", "organization", id.String(), nil)
	body, err := auth.ResourceResponse(ctrl.Privileges(), org, orgResponseOptions)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, body)
}

func (a *API) deleteOrganization(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	load := acl.Require(a.gate, []acl.Permission{acl.AccessDelete}, a.findOrganization(id))
	if _, err := load(r.Context()); err != nil {
		handleDomainError(w, r, err)
		return
	}
	if err := a.store.Organizations().Delete(r.Context(), id); err != nil {
		handleDomainError(w, r, err)
		return
	}
	a.audit(r.Context(), "organizations.delete", "organization", id.String(), nil)
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) addOrganizationMember(w http.ResponseWriter, r *http.Request, orgID uuid.UUID) {
	var req addMemberRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.UserID == uuid.Nil {
		writeError(w, r, http.StatusBadRequest, "user_id is required")
		return
	}
	ctrl, err := a.controller(r)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	err = ctrl.VerifyUserCanAccess(r.Context(), auth.AccessRequest{
		Privileges:     []acl.Privilege{acl.RoleManager},
		OrganizationID: &orgID,
	})
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	membership, err := a.store.Memberships().Add(r.Context(), req.UserID, orgID)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	a.audit(r.Context(), "organizations.members.add", "organization", orgID.String(), map[string]string{
		"user_id": req.UserID.String(),
	})
	writeJSON(w, http.StatusCreated, membership)
}

func (a *API) removeOrganizationMember(w http.ResponseWriter, r *http.Request, orgID, userID uuid.UUID) {
	ctrl, err := a.controller(r)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	err = ctrl.VerifyUserCanAccess(r.Context(), auth.AccessRequest{
		Privileges:     []acl.Privilege{acl.RoleManager},
		OrganizationID: &orgID,
	})
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	if err := a.store.Memberships().Remove(r.Context(), userID, orgID); err != nil {
		handleDomainError(w, r, err)
		return
	}
	a.audit(r.Context(), "organizations.members.remove", "organization", orgID.String(), map[string]string{
		"user_id": userID.String(),
	})
	w.WriteHeader(http.StatusNoContent)
}
