package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"trailmark.org/internal/acl"
	"trailmark.org/internal/auth"
	"trailmark.org/internal/pagination"
	"trailmark.org/internal/tracking"
)

// --- in-memory stores for handler tests ---

type memUserStore struct {
	users map[uuid.UUID]*auth.User
}

func newMemUserStore() *memUserStore {
	return &memUserStore{users: make(map[uuid.UUID]*auth.User)}
}

func (s *memUserStore) Create(_ context.Context, u *auth.User) error {
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return auth.ErrConflict
		}
	}
	clone := *u
	s.users[u.ID] = &clone
	return nil
}

func (s *memUserStore) Find(_ context.Context, id uuid.UUID) (*auth.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, auth.ErrNotFound
	}
	clone := *u
	return &clone, nil
}

func (s *memUserStore) FindByAuthID(_ context.Context, authID string) (*auth.User, error) {
	for _, u := range s.users {
		if u.AuthID == authID {
			clone := *u
			return &clone, nil
		}
	}
	return nil, auth.ErrNotFound
}

func (s *memUserStore) FindByEmail(_ context.Context, email string) (*auth.User, error) {
	for _, u := range s.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, auth.ErrNotFound
}

func (s *memUserStore) List(_ context.Context, params pagination.PageParams) ([]*auth.User, int, error) {
	out := make([]*auth.User, 0, len(s.users))
	for _, u := range s.users {
		clone := *u
		out = append(out, &clone)
	}
	return out, len(out), nil
}

func (s *memUserStore) Update(_ context.Context, id uuid.UUID, upd auth.UserUpdate) (*auth.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, auth.ErrNotFound
	}
	if upd.Email != nil {
		u.Email = *upd.Email
	}
	if upd.Username != nil {
		u.Username = *upd.Username
	}
	if upd.IsActive != nil {
		u.IsActive = *upd.IsActive
	}
	if upd.IsVerified != nil {
		u.IsVerified = *upd.IsVerified
	}
	if upd.IsSuperuser != nil {
		u.IsSuperuser = *upd.IsSuperuser
	}
	clone := *u
	return &clone, nil
}

func (s *memUserStore) UpdateScopes(_ context.Context, id uuid.UUID, scopes []acl.Privilege) (*auth.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, auth.ErrNotFound
	}
	u.Scopes = scopes
	clone := *u
	return &clone, nil
}

func (s *memUserStore) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := s.users[id]; !ok {
		return auth.ErrNotFound
	}
	delete(s.users, id)
	return nil
}

type memOrgStore struct {
	orgs map[uuid.UUID]*auth.Organization
}

func newMemOrgStore() *memOrgStore {
	return &memOrgStore{orgs: make(map[uuid.UUID]*auth.Organization)}
}

func (s *memOrgStore) Create(_ context.Context, o *auth.Organization) error {
	for _, existing := range s.orgs {
		if existing.Slug == o.Slug {
			return auth.ErrConflict
		}
	}
	clone := *o
	s.orgs[o.ID] = &clone
	return nil
}

func (s *memOrgStore) Find(_ context.Context, id uuid.UUID) (*auth.Organization, error) {
	o, ok := s.orgs[id]
	if !ok {
		return nil, auth.ErrNotFound
	}
	clone := *o
	return &clone, nil
}

func (s *memOrgStore) FindBySlug(_ context.Context, slug string) (*auth.Organization, error) {
	for _, o := range s.orgs {
		if o.Slug == slug {
			clone := *o
			return &clone, nil
		}
	}
	return nil, auth.ErrNotFound
}

func (s *memOrgStore) List(_ context.Context, params pagination.PageParams) ([]*auth.Organization, int, error) {
	out := make([]*auth.Organization, 0, len(s.orgs))
	for _, o := range s.orgs {
		clone := *o
		out = append(out, &clone)
	}
	return out, len(out), nil
}

func (s *memOrgStore) Update(_ context.Context, id uuid.UUID, upd auth.OrganizationUpdate) (*auth.Organization, error) {
	o, ok := s.orgs[id]
	if !ok {
		return nil, auth.ErrNotFound
	}
	if upd.Name != nil {
		o.Name = *upd.Name
	}
	if upd.Slug != nil {
		o.Slug = *upd.Slug
	}
	if upd.Description != nil {
		o.Description = *upd.Description
	}
	if upd.IsActive != nil {
		o.IsActive = *upd.IsActive
	}
	clone := *o
	return &clone, nil
}

func (s *memOrgStore) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := s.orgs[id]; !ok {
		return auth.ErrNotFound
	}
	delete(s.orgs, id)
	return nil
}

type memMembershipStore struct {
	byUser map[uuid.UUID][]uuid.UUID
}

func newMemMembershipStore() *memMembershipStore {
	return &memMembershipStore{byUser: make(map[uuid.UUID][]uuid.UUID)}
}

func (s *memMembershipStore) Add(_ context.Context, userID, orgID uuid.UUID) (auth.Membership, error) {
	for _, existing := range s.byUser[userID] {
		if existing == orgID {
			return auth.Membership{}, auth.ErrConflict
		}
	}
	s.byUser[userID] = append(s.byUser[userID], orgID)
	return auth.Membership{UserID: userID, OrganizationID: orgID, CreatedAt: time.Now().UTC()}, nil
}

func (s *memMembershipStore) Remove(_ context.Context, userID, orgID uuid.UUID) error {
	orgs := s.byUser[userID]
	for i, existing := range orgs {
		if existing == orgID {
			s.byUser[userID] = append(orgs[:i], orgs[i+1:]...)
			return nil
		}
	}
	return auth.ErrNotFound
}

func (s *memMembershipStore) OrganizationsForUser(_ context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	return append([]uuid.UUID{}, s.byUser[userID]...), nil
}

// memVerifier answers relationship queries from the membership table: the
// current user must share at least one organization with the target.
type memVerifier struct {
	memberships *memMembershipStore
}

func (v *memVerifier) VerifyRelationship(_ context.Context, currentUserID uuid.UUID, q auth.RelationshipQuery) (int, error) {
	if q.IsZero() {
		return 0, nil
	}
	own := make(map[uuid.UUID]struct{})
	for _, orgID := range v.memberships.byUser[currentUserID] {
		own[orgID] = struct{}{}
	}
	if q.OrganizationID != nil {
		if _, ok := own[*q.OrganizationID]; ok {
			return 1, nil
		}
		return 0, nil
	}
	if q.UserID != nil {
		for _, orgID := range v.memberships.byUser[*q.UserID] {
			if _, ok := own[orgID]; ok {
				return 1, nil
			}
		}
	}
	return 0, nil
}

type memStore struct {
	users       *memUserStore
	orgs        *memOrgStore
	memberships *memMembershipStore
}

func newMemStore() *memStore {
	s := &memStore{
		users:       newMemUserStore(),
		orgs:        newMemOrgStore(),
		memberships: newMemMembershipStore(),
	}
	return s
}

func (s *memStore) Users() auth.UserStore { return s.users }

func (s *memStore) Organizations() auth.OrganizationStore { return s.orgs }

func (s *memStore) Memberships() auth.MembershipStore { return s.memberships }

func (s *memStore) Relationships() auth.RelationshipVerifier {
	return &memVerifier{memberships: s.memberships}
}

type memLinkStore struct {
	links map[uuid.UUID]*tracking.TrackingLink
}

func newMemLinkStore() *memLinkStore {
	return &memLinkStore{links: make(map[uuid.UUID]*tracking.TrackingLink)}
}

func (s *memLinkStore) Create(_ context.Context, link *tracking.TrackingLink) error {
	clone := *link
	s.links[link.ID] = &clone
	return nil
}

func (s *memLinkStore) Find(_ context.Context, id uuid.UUID) (*tracking.TrackingLink, error) {
	link, ok := s.links[id]
	if !ok {
		return nil, tracking.ErrNotFound
	}
	clone := *link
	return &clone, nil
}

func (s *memLinkStore) FindByHash(_ context.Context, urlHash string) (*tracking.TrackingLink, error) {
	for _, link := range s.links {
		if link.URLHash == urlHash {
			clone := *link
			return &clone, nil
		}
	}
	return nil, tracking.ErrNotFound
}

func (s *memLinkStore) List(_ context.Context, filter tracking.ListFilter, params pagination.PageParams) ([]*tracking.TrackingLink, int, error) {
	out := make([]*tracking.TrackingLink, 0, len(s.links))
	for _, link := range s.links {
		if filter.OrganizationID != nil {
			if link.OrganizationID == nil || *link.OrganizationID != *filter.OrganizationID {
				continue
			}
		}
		clone := *link
		out = append(out, &clone)
	}
	return out, len(out), nil
}

func (s *memLinkStore) Update(_ context.Context, link *tracking.TrackingLink) error {
	if _, ok := s.links[link.ID]; !ok {
		return tracking.ErrNotFound
	}
	clone := *link
	s.links[link.ID] = &clone
	return nil
}

func (s *memLinkStore) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := s.links[id]; !ok {
		return tracking.ErrNotFound
	}
	delete(s.links, id)
	return nil
}

// --- test fixture ---

type fixture struct {
	api       *API
	handler   http.Handler
	store     *memStore
	linkStore *memLinkStore
	tokens    *auth.TokenService
	service   *auth.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := newMemStore()
	tokens, err := auth.NewTokenService("handler-test-secret")
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	service := auth.NewService(store, tokens)
	linkStore := newMemLinkStore()

	api, err := New(Config{
		Version:   "test",
		Auth:      service,
		Store:     store,
		Links:     tracking.NewService(linkStore),
		LinkStore: linkStore,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return &fixture{
		api:       api,
		handler:   api.withAuth(api.mux),
		store:     store,
		linkStore: linkStore,
		tokens:    tokens,
		service:   service,
	}
}

// seedUser persists a user with the given scopes and returns a bearer token.
func (f *fixture) seedUser(t *testing.T, email string, scopes ...acl.Privilege) (*auth.User, string) {
	t.Helper()
	user := &auth.User{
		ID:        uuid.New(),
		AuthID:    uuid.NewString(),
		Email:     email,
		Username:  strings.SplitN(email, "@", 2)[0],
		IsActive:  true,
		Scopes:    scopes,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if err := f.store.users.Create(context.Background(), user); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	token, _, err := f.tokens.Issue(user)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return user, token
}

func (f *fixture) do(t *testing.T, method, target, token string, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	f.handler.ServeHTTP(rr, req)
	return rr
}
