// Package httpapi is the HTTP layer: routing, authentication, permission
// gates and the JSON codec around the domain services.
package httpapi

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"trailmark.org/internal/acl"
	"trailmark.org/internal/audit"
	"trailmark.org/internal/auth"
	"trailmark.org/internal/obs"
	"trailmark.org/internal/pagespeed"
	"trailmark.org/internal/platforms"
	"trailmark.org/internal/tracking"
	"trailmark.org/internal/websites"
)

// ReadyProbe reports whether the service dependencies are reachable.
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// Config wires the API to its services and stores.
type Config struct {
	Version string
	Probe   ReadyProbe

	// Rate limiter settings; zero values fall back to the defaults.
	RateBurst     int
	RatePerSecond int

	Auth      *auth.Service
	Store     auth.Store
	Websites  websites.Store
	Platforms platforms.Store
	Links     *tracking.Service
	LinkStore tracking.Store
	PageSpeed *pagespeed.Service
	Runs      pagespeed.Store
}

// API is the HTTP layer.
type API struct {
	mux     *http.ServeMux
	probe   ReadyProbe
	version string
	gate    *acl.Gatekeeper

	rateBurst     int
	ratePerSecond int

	auth      *auth.Service
	store     auth.Store
	websites  websites.Store
	platforms platforms.Store
	links     *tracking.Service
	linkStore tracking.Store
	psi       *pagespeed.Service
	runs      pagespeed.Store
}

// New builds the API and registers its routes.
func New(cfg Config) (*API, error) {
	gate, err := acl.NewGatekeeper(resolvePrivileges, acl.WithDeniedError(deniedActionError))
	if err != nil {
		return nil, err
	}
	a := &API{
		mux:           http.NewServeMux(),
		probe:         cfg.Probe,
		version:       cfg.Version,
		gate:          gate,
		rateBurst:     cfg.RateBurst,
		ratePerSecond: cfg.RatePerSecond,
		auth:          cfg.Auth,
		store:         cfg.Store,
		websites:      cfg.Websites,
		platforms:     cfg.Platforms,
		links:         cfg.Links,
		linkStore:     cfg.LinkStore,
		psi:           cfg.PageSpeed,
		runs:          cfg.Runs,
	}

	a.mux.HandleFunc("/healthz", a.handleHealthz)
	a.mux.HandleFunc("/readyz", a.handleReady)
	a.mux.HandleFunc("/v1/info", a.handleInfo)
	a.mux.Handle("/metrics", obs.Handler())

	a.mux.HandleFunc("/v1/auth/register", a.handleAuthRegister)
	a.mux.HandleFunc("/v1/auth/token", a.handleAuthToken)

	a.mux.HandleFunc("/v1/users", a.handleUsersCollection)
	a.mux.HandleFunc("/v1/users/", a.handleUserResource)

	a.mux.HandleFunc("/v1/organizations", a.handleOrganizationsCollection)
	a.mux.HandleFunc("/v1/organizations/", a.handleOrganizationResource)

	a.mux.HandleFunc("/v1/websites", a.handleWebsitesCollection)
	a.mux.HandleFunc("/v1/websites/", a.handleWebsiteResource)

	a.mux.HandleFunc("/v1/platforms", a.handlePlatformsCollection)
	a.mux.HandleFunc("/v1/platforms/", a.handlePlatformResource)

	a.mux.HandleFunc("/v1/tracking-links", a.handleTrackingLinksCollection)
	a.mux.HandleFunc("/v1/tracking-links/", a.handleTrackingLinkResource)

	a.mux.HandleFunc("/v1/pagespeed/runs", a.handlePageSpeedRunsCollection)
	a.mux.HandleFunc("/v1/pagespeed/runs/", a.handlePageSpeedRunResource)

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a, nil
}

// Handler returns the fully wrapped handler for the server.
func (a *API) Handler() http.Handler {
	burst, perSecond := a.rateBurst, a.ratePerSecond
	if burst <= 0 {
		burst = 50
	}
	if perSecond <= 0 {
		perSecond = 25
	}
	h := a.withAuth(a.mux)
	h = MaxBodyBytes(h, 1<<20)
	h = RateLimit(h, burst, perSecond)
	h = CORS(h)
	h = SecurityHeaders(h)
	h = LoggingJSON(h)
	h = RequestID(h)
	return obs.Instrument(h)
}

func (a *API) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "trailmark-api",
		"version": a.version,
	})
}

func (a *API) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := a.probe.Check(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

func (a *API) handleInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "trailmark-api",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.version,
	})
}

// resolvePrivileges feeds the gatekeeper from the authenticated principal.
func resolvePrivileges(ctx context.Context) ([]acl.Privilege, error) {
	principal, ok := auth.PrincipalFromContext(ctx)
	if !ok {
		return nil, auth.ErrUnauthorized
	}
	return principal.Privileges, nil
}

func deniedActionError() error {
	return &auth.PermissionError{
		Status:  http.StatusForbidden,
		Message: auth.MessageInsufficientPermissionsAction,
	}
}

// controller builds the request-scoped permission controller.
func (a *API) controller(r *http.Request) (*auth.Controller, error) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		return nil, auth.ErrUnauthorized
	}
	return a.auth.Controller(principal), nil
}

func (a *API) audit(ctx context.Context, event, resourceType, resourceID string, meta map[string]string) {
	fields := map[string]any{
		"resource_type": resourceType,
		"resource_id":   resourceID,
	}
	for k, v := range meta {
		fields[k] = v
	}
	_ = audit.LogEvent(ctx, event, fields)
}
