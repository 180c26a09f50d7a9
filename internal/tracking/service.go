package tracking

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"trailmark.org/internal/obs"
)

// Service implements the link registration flow: canonicalize, hash, check
// uniqueness, persist.
type Service struct {
	store Store
	now   func() time.Time
}

// NewService constructs Service over the link store.
func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// Create registers a new tracking link. The raw URL is stored as given;
// scheme, domain, destination, path and utm fields are derived from it. A
// link whose URL hashes to an existing hash is a conflict.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*TrackingLink, error) {
	params, err := ParseURLUTMParams(req.URL)
	if err != nil {
		obs.LogRequest(map[string]any{
			"level": "warn",
			"msg":   "tracking link url rejected",
			"url":   req.URL,
		})
		return nil, err
	}
	urlHash := HashURL(req.URL)
	if _, err := s.store.FindByHash(ctx, urlHash); err == nil {
		return nil, ErrExists
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	now := s.now().UTC()
	link := &TrackingLink{
		ID:             uuid.New(),
		URLHash:        urlHash,
		URL:            req.URL,
		Scheme:         params.Scheme,
		Domain:         params.Domain,
		Destination:    params.Destination,
		URLPath:        params.URLPath,
		UTMCampaign:    params.UTMCampaign,
		UTMMedium:      params.UTMMedium,
		UTMSource:      params.UTMSource,
		UTMContent:     params.UTMContent,
		UTMTerm:        params.UTMTerm,
		IsActive:       true,
		OrganizationID: req.OrganizationID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if req.IsActive != nil {
		link.IsActive = *req.IsActive
	}
	if err := s.store.Create(ctx, link); err != nil {
		return nil, err
	}
	return link, nil
}

// Update applies a partial update. A new URL goes through the same
// canonicalize/hash/uniqueness flow as creation; the existing record keeps
// its identity.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req UpdateRequest) (*TrackingLink, error) {
	link, err := s.store.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.URL != nil && *req.URL != link.URL {
		params, err := ParseURLUTMParams(*req.URL)
		if err != nil {
			obs.LogRequest(map[string]any{
				"level": "warn",
				"msg":   "tracking link url rejected",
				"url":   *req.URL,
			})
			return nil, err
		}
		urlHash := HashURL(*req.URL)
		if existing, err := s.store.FindByHash(ctx, urlHash); err == nil && existing.ID != id {
			return nil, ErrExists
		} else if err != nil && !errors.Is(err, ErrNotFound) {
			return nil, err
		}
		link.URL = *req.URL
		link.URLHash = urlHash
		link.Scheme = params.Scheme
		link.Domain = params.Domain
		link.Destination = params.Destination
		link.URLPath = params.URLPath
		link.UTMCampaign = params.UTMCampaign
		link.UTMMedium = params.UTMMedium
		link.UTMSource = params.UTMSource
		link.UTMContent = params.UTMContent
		link.UTMTerm = params.UTMTerm
	}
	if req.OrganizationID != nil {
		link.OrganizationID = req.OrganizationID
	}
	if req.IsActive != nil {
		link.IsActive = *req.IsActive
	}
	link.UpdatedAt = s.now().UTC()
	if err := s.store.Update(ctx, link); err != nil {
		return nil, err
	}
	return link, nil
}
