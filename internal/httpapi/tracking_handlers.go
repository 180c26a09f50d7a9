package httpapi

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"trailmark.org/internal/acl"
	"trailmark.org/internal/auth"
	"trailmark.org/internal/pagination"
	"trailmark.org/internal/tracking"
)

func fullTrackingLink(l *tracking.TrackingLink) any { return l }

var trackingResponseOptions = []auth.ResponseOption[*tracking.TrackingLink]{
	{Privilege: acl.RoleAdmin, Project: fullTrackingLink},
	{Privilege: acl.RoleManager, Project: fullTrackingLink},
	{Privilege: acl.RoleUser, Project: fullTrackingLink},
}

func (a *API) handleTrackingLinksCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listTrackingLinks(w, r)
	case http.MethodPost:
		a.createTrackingLink(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) listTrackingLinks(w http.ResponseWriter, r *http.Request) {
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
	filter, err := trackingFilterFromQuery(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	// Callers without a management role only see links of their own
	// organizations.
	privileges := ctrl.Privileges()
	if !ctrl.CurrentUser().IsSuperuser &&
		!acl.Holds(privileges, acl.RoleAdmin) && !acl.Holds(privileges, acl.RoleManager) {
		userID := ctrl.CurrentUser().ID
		filter.UserID = &userID
	}
	fetch := func(ctx context.Context, p pagination.PageParams) ([]*tracking.TrackingLink, int, error) {
		return a.linkStore.List(ctx, filter, p)
	}
	page, err := auth.PaginatedResponse(r.Context(), privileges, fetch, params, trackingResponseOptions)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func trackingFilterFromQuery(r *http.Request) (tracking.ListFilter, error) {
	var filter tracking.ListFilter
	q := r.URL.Query()
	if raw := strings.TrimSpace(q.Get("organization_id")); raw != "" {
		id, err := parseUUID(raw)
		if err != nil {
			return filter, err
		}
		filter.OrganizationID = &id
	}
	if raw := strings.TrimSpace(q.Get("scheme")); raw != "" {
		filter.Scheme = &raw
	}
	if raw := strings.TrimSpace(q.Get("domain")); raw != "" {
		filter.Domain = &raw
	}
	if raw := strings.TrimSpace(q.Get("is_active")); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			return filter, err
		}
		filter.IsActive = &active
	}
	return filter, nil
}

func (a *API) createTrackingLink(w http.ResponseWriter, r *http.Request) {
	gate := acl.Require(a.gate, []acl.Permission{acl.AccessCreate},
		acl.FixedResource[acl.Provider](&tracking.TrackingLink{}))
	if _, err := gate(r.Context()); err != nil {
		handleDomainError(w, r, err)
		return
	}
	var req tracking.CreateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		writeError(w, r, http.StatusBadRequest, "url is required")
		return
	}
	if req.OrganizationID != nil {
		ctrl, err := a.controller(r)
		if err != nil {
			handleDomainError(w, r, err)
			return
		}
		err = ctrl.VerifyUserCanAccess(r.Context(), auth.AccessRequest{
			Privileges:     []acl.Privilege{acl.RoleManager},
			OrganizationID: req.OrganizationID,
		})
		if err != nil {
			handleDomainError(w, r, err)
			return
		}
	}
	link, err := a.links.Create(r.Context(), req)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	a.audit(r.Context(), "tracking_links.create", "tracking_link", link.ID.String(), map[string]string{
		"domain": link.Domain,
	})
	w.Header().Set("Location", "/v1/tracking-links/"+link.ID.String())
	writeJSON(w, http.StatusCreated, link)
}

func (a *API) handleTrackingLinkResource(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/tracking-links/"), "/")
	if path == "" || strings.Contains(path, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	id, err := parseUUID(path)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	switch r.Method {
	case http.MethodGet:
		a.getTrackingLink(w, r, id)
	case http.MethodPatch:
		a.updateTrackingLink(w, r, id)
	case http.MethodDelete:
		a.deleteTrackingLink(w, r, id)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPatch, http.MethodDelete)
	}
}

// requireTrackingLinkAccess loads the link and verifies the caller can reach
// it through its owning organization. Links without an organization are only
// reachable by managers.
func (a *API) requireTrackingLinkAccess(w http.ResponseWriter, r *http.Request, id uuid.UUID) (*tracking.TrackingLink, bool) {
	link, err := a.linkStore.Find(r.Context(), id)
	if err != nil {
		handleDomainError(w, r, err)
		return nil, false
	}
	ctrl, err := a.controller(r)
	if err != nil {
		handleDomainError(w, r, err)
		return nil, false
	}
	err = ctrl.VerifyUserCanAccess(r.Context(), auth.AccessRequest{
		Privileges:     []acl.Privilege{acl.RoleManager},
		OrganizationID: link.OrganizationID,
	})
	if err != nil {
		handleDomainError(w, r, err)
		return nil, false
	}
	return link, true
}

func (a *API) getTrackingLink(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	link, ok := a.requireTrackingLinkAccess(w, r, id)
	if !ok {
		return
	}
	ctrl, err := a.controller(r)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	body, err := auth.ResourceResponse(ctrl.Privileges(), link, trackingResponseOptions)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, body)
}

func (a *API) updateTrackingLink(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	var req tracking.UpdateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if _, ok := a.requireTrackingLinkAccess(w, r, id); !ok {
		return
	}
	ctrl, err := a.controller(r)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	err = ctrl.VerifyInputSchemaByRole(&req, []auth.SchemaOption{
		{Privilege: acl.RoleAdmin, Fields: []string{"url", "organization_id", "is_active"}},
		{Privilege: acl.RoleManager, Fields: []string{"url", "organization_id", "is_active"}},
		{Privilege: acl.RoleUser, Fields: []string{"url", "is_active"}},
	})
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	link, err := a.links.Update(r.Context(), id, req)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	a.audit(r.Context(), "tracking_links.update", "tracking_link", id.String(), nil)
	body, err := auth.ResourceResponse(ctrl.Privileges(), link, trackingResponseOptions)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, body)
}

func (a *API) deleteTrackingLink(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	link, ok := a.requireTrackingLinkAccess(w, r, id)
	if !ok {
		return
	}
	gate := acl.Require(a.gate,
		[]acl.Permission{acl.AccessDelete, acl.AccessDeleteRelated},
		acl.FixedResource(link))
	if _, err := gate(r.Context()); err != nil {
		handleDomainError(w, r, err)
		return
	}
	if err := a.linkStore.Delete(r.Context(), id); err != nil {
		handleDomainError(w, r, err)
		return
	}
	a.audit(r.Context(), "tracking_links.delete", "tracking_link", id.String(), nil)
	w.WriteHeader(http.StatusNoContent)
}
