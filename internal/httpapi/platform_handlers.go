package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"trailmark.org/internal/acl"
	"trailmark.org/internal/auth"
	"trailmark.org/internal/pagination"
	"trailmark.org/internal/platforms"
)

type createPlatformRequest struct {
	Kind        platforms.Kind `json:"kind"`
	DisplayName string         `json:"display_name"`
}

type createPropertyRequest struct {
	PropertyID string     `json:"property_id"`
	WebsiteID  *uuid.UUID `json:"website_id,omitempty"`
}

func (a *API) handlePlatformsCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listPlatforms(w, r)
	case http.MethodPost:
		a.createPlatform(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) listPlatforms(w http.ResponseWriter, r *http.Request) {
	gate := acl.Require(a.gate, []acl.Permission{acl.AccessList},
		acl.FixedResource[acl.Provider](&platforms.Platform{}))
	if _, err := gate(r.Context()); err != nil {
		handleDomainError(w, r, err)
		return
	}
	params, err := parsePageParams(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	var kind *platforms.Kind
	if raw := strings.TrimSpace(r.URL.Query().Get("kind")); raw != "" {
		k := platforms.Kind(raw)
		if !platforms.ValidKind(k) {
			handleDomainError(w, r, platforms.ErrUnknownKind)
			return
		}
		kind = &k
	}
	fetch := func(ctx context.Context, p pagination.PageParams) ([]*platforms.Platform, int, error) {
		return a.platforms.List(ctx, kind, p)
	}
	page, err := pagination.Query(r.Context(), fetch, params)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (a *API) createPlatform(w http.ResponseWriter, r *http.Request) {
	gate := acl.Require(a.gate, []acl.Permission{acl.AccessCreate},
		acl.FixedResource[acl.Provider](&platforms.Platform{}))
	if _, err := gate(r.Context()); err != nil {
		handleDomainError(w, r, err)
		return
	}
	var req createPlatformRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if !platforms.ValidKind(req.Kind) {
		handleDomainError(w, r, platforms.ErrUnknownKind)
		return
	}
	platform := &platforms.Platform{
		ID:          uuid.New(),
		Kind:        req.Kind,
		DisplayName: strings.TrimSpace(req.DisplayName),
		IsActive:    true,
	}
	if err := a.platforms.Create(r.Context(), platform); err != nil {
		handleDomainError(w, r, err)
		return
	}
	a.audit(r.Context(), "platforms.create", "platform", platform.ID.String(), map[string]string{
		"kind": string(platform.Kind),
	})
	w.Header().Set("Location", "/v1/platforms/"+platform.ID.String())
	writeJSON(w, http.StatusCreated, platform)
}

func (a *API) handlePlatformResource(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/platforms/"), "/")
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
			a.getPlatform(w, r, id)
		case http.MethodPatch:
			a.updatePlatform(w, r, id)
		case http.MethodDelete:
			a.deletePlatform(w, r, id)
		default:
			methodNotAllowed(w, r, http.MethodGet, http.MethodPatch, http.MethodDelete)
		}
	case len(parts) == 2 && parts[1] == "properties":
		switch r.Method {
		case http.MethodGet:
			a.listPlatformProperties(w, r, id)
		case http.MethodPost:
			a.createPlatformProperty(w, r, id)
		default:
			methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
		}
	case len(parts) == 3 && parts[1] == "properties":
		propertyID, err := parseUUID(parts[2])
		if err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		if r.Method != http.MethodDelete {
			methodNotAllowed(w, r, http.MethodDelete)
			return
		}
		a.deletePlatformProperty(w, r, id, propertyID)
	default:
		writeError(w, r, http.StatusNotFound, "resource not found")
	}
}

// requirePlatformAccess mirrors requireWebsiteAccess for platform resources.
func (a *API) requirePlatformAccess(w http.ResponseWriter, r *http.Request, id uuid.UUID) bool {
	ctrl, err := a.controller(r)
	if err != nil {
		handleDomainError(w, r, err)
		return false
	}
	err = ctrl.VerifyUserCanAccess(r.Context(), auth.AccessRequest{
		Privileges: []acl.Privilege{acl.RoleManager},
		PlatformID: &id,
	})
	if err != nil {
		handleDomainError(w, r, err)
		return false
	}
	return true
}

func (a *API) getPlatform(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	platform, err := a.platforms.Find(r.Context(), id)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	if !a.requirePlatformAccess(w, r, id) {
		return
	}
	writeJSON(w, http.StatusOK, platform)
}

func (a *API) updatePlatform(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	var upd platforms.PlatformUpdate
	if err := decodeJSON(w, r, &upd); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if !a.requirePlatformAccess(w, r, id) {
		return
	}
	platform, err := a.platforms.Update(r.Context(), id, upd)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	a.audit(r.Context(), "platforms.update", "platform", id.String(), nil)
	writeJSON(w, http.StatusOK, platform)
}

func (a *API) deletePlatform(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	gate := acl.Require(a.gate, []acl.Permission{acl.AccessDelete},
		func(ctx context.Context) (*platforms.Platform, error) {
			return a.platforms.Find(ctx, id)
		})
	if _, err := gate(r.Context()); err != nil {
		handleDomainError(w, r, err)
		return
	}
	if err := a.platforms.Delete(r.Context(), id); err != nil {
		handleDomainError(w, r, err)
		return
	}
	a.audit(r.Context(), "platforms.delete", "platform", id.String(), nil)
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) listPlatformProperties(w http.ResponseWriter, r *http.Request, platformID uuid.UUID) {
	if !a.requirePlatformAccess(w, r, platformID) {
		return
	}
	props, err := a.platforms.ListProperties(r.Context(), platformID)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": props})
}

func (a *API) createPlatformProperty(w http.ResponseWriter, r *http.Request, platformID uuid.UUID) {
	var req createPropertyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.PropertyID) == "" {
		writeError(w, r, http.StatusBadRequest, "property_id is required")
		return
	}
	if !a.requirePlatformAccess(w, r, platformID) {
		return
	}
	property := &platforms.Property{
		ID:         uuid.New(),
		PlatformID: platformID,
		PropertyID: strings.TrimSpace(req.PropertyID),
		WebsiteID:  req.WebsiteID,
		IsActive:   true,
	}
	if err := a.platforms.CreateProperty(r.Context(), property); err != nil {
		handleDomainError(w, r, err)
		return
	}
	a.audit(r.Context(), "platforms.properties.create", "platform_property", property.ID.String(), map[string]string{
		"platform_id": platformID.String(),
	})
	writeJSON(w, http.StatusCreated, property)
}

func (a *API) deletePlatformProperty(w http.ResponseWriter, r *http.Request, platformID, propertyID uuid.UUID) {
	if !a.requirePlatformAccess(w, r, platformID) {
		return
	}
	if err := a.platforms.DeleteProperty(r.Context(), propertyID); err != nil {
		handleDomainError(w, r, err)
		return
	}
	a.audit(r.Context(), "platforms.properties.delete", "platform_property", propertyID.String(), nil)
	w.WriteHeader(http.StatusNoContent)
}
