package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"trailmark.org/internal/acl"
	"trailmark.org/internal/auth"
	"trailmark.org/internal/pagespeed"
	"trailmark.org/internal/pagination"
)

type analyzePageRequest struct {
	PageID   uuid.UUID          `json:"page_id"`
	Strategy pagespeed.Strategy `json:"strategy"`
}

func (a *API) handlePageSpeedRunsCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listPageSpeedRuns(w, r)
	case http.MethodPost:
		a.analyzePage(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) analyzePage(w http.ResponseWriter, r *http.Request) {
	var req analyzePageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.PageID == uuid.Nil {
		writeError(w, r, http.StatusBadRequest, "page_id is required")
		return
	}
	switch req.Strategy {
	case pagespeed.StrategyMobile, pagespeed.StrategyDesktop:
	case "":
		req.Strategy = pagespeed.StrategyMobile
	default:
		writeError(w, r, http.StatusBadRequest, "strategy must be mobile or desktop")
		return
	}
	page, err := a.websites.FindPage(r.Context(), req.PageID)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	if !a.requireWebsiteAccess(w, r, page.WebsiteID) {
		return
	}
	run, err := a.psi.Analyze(r.Context(), page.WebsiteID, page.ID, page.URL, req.Strategy)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	a.audit(r.Context(), "pagespeed.runs.create", "pagespeed_run", run.ID.String(), map[string]string{
		"page_id":  page.ID.String(),
		"strategy": string(req.Strategy),
	})
	w.Header().Set("Location", "/v1/pagespeed/runs/"+run.ID.String())
	writeJSON(w, http.StatusCreated, run)
}

func (a *API) listPageSpeedRuns(w http.ResponseWriter, r *http.Request) {
	rawPageID := strings.TrimSpace(r.URL.Query().Get("page_id"))
	if rawPageID == "" {
		writeError(w, r, http.StatusBadRequest, "page_id query parameter is required")
		return
	}
	pageID, err := parseUUID(rawPageID)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	page, err := a.websites.FindPage(r.Context(), pageID)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	if !a.requireWebsiteAccess(w, r, page.WebsiteID) {
		return
	}
	params, err := parsePageParams(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	fetch := func(ctx context.Context, p pagination.PageParams) ([]*pagespeed.Run, int, error) {
		return a.runs.ListForPage(ctx, pageID, p)
	}
	result, err := pagination.Query(r.Context(), fetch, params)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (a *API) handlePageSpeedRunResource(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/pagespeed/runs/"), "/")
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
		a.getPageSpeedRun(w, r, id)
	case http.MethodDelete:
		a.deletePageSpeedRun(w, r, id)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodDelete)
	}
}

func (a *API) getPageSpeedRun(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	run, err := a.runs.Find(r.Context(), id)
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
		Privileges: []acl.Privilege{acl.RoleManager},
		WebsiteID:  &run.WebsiteID,
	})
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (a *API) deletePageSpeedRun(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	gate := acl.Require(a.gate, []acl.Permission{acl.AccessDelete},
		func(ctx context.Context) (*pagespeed.Run, error) {
			return a.runs.Find(ctx, id)
		})
	if _, err := gate(r.Context()); err != nil {
		handleDomainError(w, r, err)
		return
	}
	if err := a.runs.Delete(r.Context(), id); err != nil {
		handleDomainError(w, r, err)
		return
	}
	a.audit(r.Context(), "pagespeed.runs.delete", "pagespeed_run", id.String(), nil)
	w.WriteHeader(http.StatusNoContent)
}
