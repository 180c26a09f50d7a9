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
	"trailmark.org/internal/websites"
)

type createWebsiteRequest struct {
	Domain   string `json:"domain"`
	IsSecure *bool  `json:"is_secure,omitempty"`
}

type createPageRequest struct {
	URL             string     `json:"url"`
	Status          int        `json:"status,omitempty"`
	Priority        float64    `json:"priority,omitempty"`
	LastModified    *time.Time `json:"last_modified,omitempty"`
	ChangeFrequency string     `json:"change_frequency,omitempty"`
}

type createSitemapRequest struct {
	URL string `json:"url"`
}

func (a *API) handleWebsitesCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listWebsites(w, r)
	case http.MethodPost:
		a.createWebsite(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) listWebsites(w http.ResponseWriter, r *http.Request) {
	gate := acl.Require(a.gate, []acl.Permission{acl.AccessList},
		acl.FixedResource[acl.Provider](&websites.Website{}))
	if _, err := gate(r.Context()); err != nil {
		handleDomainError(w, r, err)
		return
	}
	params, err := parsePageParams(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	page, err := pagination.Query(r.Context(), pagination.Fetch[*websites.Website](a.websites.List), params)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (a *API) createWebsite(w http.ResponseWriter, r *http.Request) {
	gate := acl.Require(a.gate, []acl.Permission{acl.AccessCreate},
		acl.FixedResource[acl.Provider](&websites.Website{}))
	if _, err := gate(r.Context()); err != nil {
		handleDomainError(w, r, err)
		return
	}
	var req createWebsiteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	domain := strings.TrimSpace(strings.ToLower(req.Domain))
	if domain == "" {
		writeError(w, r, http.StatusBadRequest, "domain is required")
		return
	}
	site := &websites.Website{
		ID:       uuid.New(),
		Domain:   domain,
		IsSecure: true,
		IsActive: true,
	}
	if req.IsSecure != nil {
		site.IsSecure = *req.IsSecure
	}
	if err := a.websites.Create(r.Context(), site); err != nil {
		handleDomainError(w, r, err)
		return
	}
	a.audit(r.Context(), "websites.create", "website", site.ID.String(), map[string]string{
		"domain": site.Domain,
	})
	w.Header().Set("Location", "/v1/websites/"+site.ID.String())
	writeJSON(w, http.StatusCreated, site)
}

func (a *API) handleWebsiteResource(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/websites/"), "/")
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
			a.getWebsite(w, r, id)
		case http.MethodPatch:
			a.updateWebsite(w, r, id)
		case http.MethodDelete:
			a.deleteWebsite(w, r, id)
		default:
			methodNotAllowed(w, r, http.MethodGet, http.MethodPatch, http.MethodDelete)
		}
	case len(parts) == 2 && parts[1] == "pages":
		switch r.Method {
		case http.MethodGet:
			a.listWebsitePages(w, r, id)
		case http.MethodPost:
			a.createWebsitePage(w, r, id)
		default:
			methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
		}
	case len(parts) == 3 && parts[1] == "pages":
		pageID, err := parseUUID(parts[2])
		if err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		switch r.Method {
		case http.MethodGet:
			a.getWebsitePage(w, r, id, pageID)
		case http.MethodPatch:
			a.updateWebsitePage(w, r, id, pageID)
		case http.MethodDelete:
			a.deleteWebsitePage(w, r, id, pageID)
		default:
			methodNotAllowed(w, r, http.MethodGet, http.MethodPatch, http.MethodDelete)
		}
	case len(parts) == 2 && parts[1] == "sitemaps":
		switch r.Method {
		case http.MethodGet:
			a.listWebsiteSitemaps(w, r, id)
		case http.MethodPost:
			a.createWebsiteSitemap(w, r, id)
		default:
			methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
		}
	case len(parts) == 3 && parts[1] == "sitemaps":
		sitemapID, err := parseUUID(parts[2])
		if err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		if r.Method != http.MethodDelete {
			methodNotAllowed(w, r, http.MethodDelete)
			return
		}
		a.deleteWebsiteSitemap(w, r, id, sitemapID)
	default:
		writeError(w, r, http.StatusNotFound, "resource not found")
	}
}

// requireWebsiteAccess runs the tenancy check shared by every per-website
// operation: managers pass outright, everyone else needs a membership path
// to the site.
func (a *API) requireWebsiteAccess(w http.ResponseWriter, r *http.Request, id uuid.UUID) bool {
	ctrl, err := a.controller(r)
	if err != nil {
		handleDomainError(w, r, err)
		return false
	}
	err = ctrl.VerifyUserCanAccess(r.Context(), auth.AccessRequest{
		Privileges: []acl.Privilege{acl.RoleManager},
		WebsiteID:  &id,
	})
	if err != nil {
		handleDomainError(w, r, err)
		return false
	}
	return true
}

func (a *API) getWebsite(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	site, err := a.websites.Find(r.Context(), id)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	if !a.requireWebsiteAccess(w, r, id) {
		return
	}
	writeJSON(w, http.StatusOK, site)
}

func (a *API) updateWebsite(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	var upd websites.WebsiteUpdate
	if err := decodeJSON(w, r, &upd); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if !a.requireWebsiteAccess(w, r, id) {
		return
	}
	site, err := a.websites.Update(r.Context(), id, upd)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	a.audit(r.Context(), "websites.update", "website", id.String(), nil)
	writeJSON(w, http.StatusOK, site)
}

func (a *API) deleteWebsite(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	if !a.requireWebsiteAccess(w, r, id) {
		return
	}
	if err := a.websites.Delete(r.Context(), id); err != nil {
		handleDomainError(w, r, err)
		return
	}
	a.audit(r.Context(), "websites.delete", "website", id.String(), nil)
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) listWebsitePages(w http.ResponseWriter, r *http.Request, websiteID uuid.UUID) {
	if !a.requireWebsiteAccess(w, r, websiteID) {
		return
	}
	params, err := parsePageParams(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	fetch := func(ctx context.Context, p pagination.PageParams) ([]*websites.WebsitePage, int, error) {
		return a.websites.ListPages(ctx, websiteID, p)
	}
	page, err := pagination.Query(r.Context(), fetch, params)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (a *API) createWebsitePage(w http.ResponseWriter, r *http.Request, websiteID uuid.UUID) {
	var req createPageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		writeError(w, r, http.StatusBadRequest, "url is required")
		return
	}
	if !a.requireWebsiteAccess(w, r, websiteID) {
		return
	}
	page := &websites.WebsitePage{
		ID:              uuid.New(),
		WebsiteID:       websiteID,
		URL:             strings.TrimSpace(req.URL),
		Status:          req.Status,
		Priority:        req.Priority,
		ChangeFrequency: req.ChangeFrequency,
		IsActive:        true,
	}
	if req.LastModified != nil {
		page.LastModified = *req.LastModified
	}
	if err := a.websites.CreatePage(r.Context(), page); err != nil {
		handleDomainError(w, r, err)
		return
	}
	a.audit(r.Context(), "websites.pages.create", "website_page", page.ID.String(), map[string]string{
		"website_id": websiteID.String(),
	})
	writeJSON(w, http.StatusCreated, page)
}

func (a *API) getWebsitePage(w http.ResponseWriter, r *http.Request, websiteID, pageID uuid.UUID) {
	if !a.requireWebsiteAccess(w, r, websiteID) {
		return
	}
	page, err := a.websites.FindPage(r.Context(), pageID)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	if page.WebsiteID != websiteID {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (a *API) updateWebsitePage(w http.ResponseWriter, r *http.Request, websiteID, pageID uuid.UUID) {
	var upd websites.PageUpdate
	if err := decodeJSON(w, r, &upd); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if !a.requireWebsiteAccess(w, r, websiteID) {
		return
	}
	page, err := a.websites.UpdatePage(r.Context(), pageID, upd)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	a.audit(r.Context(), "websites.pages.update", "website_page", pageID.String(), nil)
	writeJSON(w, http.StatusOK, page)
}

func (a *API) deleteWebsitePage(w http.ResponseWriter, r *http.Request, websiteID, pageID uuid.UUID) {
	if !a.requireWebsiteAccess(w, r, websiteID) {
		return
	}
	if err := a.websites.DeletePage(r.Context(), pageID); err != nil {
		handleDomainError(w, r, err)
		return
	}
	a.audit(r.Context(), "websites.pages.delete", "website_page", pageID.String(), nil)
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) listWebsiteSitemaps(w http.ResponseWriter, r *http.Request, websiteID uuid.UUID) {
	if !a.requireWebsiteAccess(w, r, websiteID) {
		return
	}
	maps, err := a.websites.ListSitemaps(r.Context(), websiteID)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": maps})
}

func (a *API) createWebsiteSitemap(w http.ResponseWriter, r *http.Request, websiteID uuid.UUID) {
	var req createSitemapRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		writeError(w, r, http.StatusBadRequest, "url is required")
		return
	}
	if !a.requireWebsiteAccess(w, r, websiteID) {
		return
	}
	sitemap := &websites.WebsiteSitemap{
		ID:        uuid.New(),
		WebsiteID: websiteID,
		URL:       strings.TrimSpace(req.URL),
		IsActive:  true,
	}
	if err := a.websites.CreateSitemap(r.Context(), sitemap); err != nil {
		handleDomainError(w, r, err)
		return
	}
	a.audit(r.Context(), "websites.sitemaps.create", "website_sitemap", sitemap.ID.String(), map[string]string{
		"website_id": websiteID.String(),
	})
	writeJSON(w, http.StatusCreated, sitemap)
}

func (a *API) deleteWebsiteSitemap(w http.ResponseWriter, r *http.Request, websiteID, sitemapID uuid.UUID) {
	if !a.requireWebsiteAccess(w, r, websiteID) {
		return
	}
	if err := a.websites.DeleteSitemap(r.Context(), sitemapID); err != nil {
		handleDomainError(w, r, err)
		return
	}
	a.audit(r.Context(), "websites.sitemaps.delete", "website_sitemap", sitemapID.String(), nil)
	w.WriteHeader(http.StatusNoContent)
}
