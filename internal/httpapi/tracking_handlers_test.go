package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"

	"trailmark.org/internal/auth"
)

func TestCreateTrackingLinkDerivesFields(t *testing.T) {
	f := newFixture(t)
	_, token := f.seedUser(t, "manager@example.com", "role:manager", "role:user")

	rr := f.do(t, http.MethodPost, "/v1/tracking-links", token,
		`{"url":"https://shop.example.com/sale?utm_source=news&utm_medium=email"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["scheme"] != "https" || body["domain"] != "shop.example.com" {
		t.Fatalf("unexpected canonical fields: %v", body)
	}
	if body["destination"] != "https://shop.example.com/sale" {
		t.Fatalf("unexpected destination: %v", body["destination"])
	}
	if body["utm_source"] != "news" || body["utm_medium"] != "email" {
		t.Fatalf("unexpected utm fields: %v", body)
	}
	if hash, _ := body["url_hash"].(string); len(hash) != 64 {
		t.Fatalf("expected 64-char url hash, got %v", body["url_hash"])
	}
}

func TestCreateTrackingLinkDuplicateURL(t *testing.T) {
	f := newFixture(t)
	_, token := f.seedUser(t, "manager@example.com", "role:manager", "role:user")

	payload := `{"url":"https://shop.example.com/sale"}`
	if rr := f.do(t, http.MethodPost, "/v1/tracking-links", token, payload); rr.Code != http.StatusCreated {
		t.Fatalf("first create: expected 201, got %d", rr.Code)
	}
	rr := f.do(t, http.MethodPost, "/v1/tracking-links", token, payload)
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestCreateTrackingLinkMalformedURL(t *testing.T) {
	f := newFixture(t)
	_, token := f.seedUser(t, "manager@example.com", "role:manager", "role:user")

	rr := f.do(t, http.MethodPost, "/v1/tracking-links", token,
		`{"url":"shop.example.com/sale"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestCreateTrackingLinkRequiresRole(t *testing.T) {
	f := newFixture(t)
	_, token := f.seedUser(t, "nobody@example.com")

	rr := f.do(t, http.MethodPost, "/v1/tracking-links", token,
		`{"url":"https://shop.example.com/sale"}`)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestUpdateTrackingLinkUserCannotMoveOrganizations(t *testing.T) {
	f := newFixture(t)
	_, managerToken := f.seedUser(t, "manager@example.com", "role:manager", "role:user")

	org := &auth.Organization{ID: uuid.New(), Name: "Acme", Slug: "acme", IsActive: true}
	if err := f.store.orgs.Create(context.Background(), org); err != nil {
		t.Fatalf("seed org: %v", err)
	}
	member, memberToken := f.seedUser(t, "member@example.com", "role:user")
	if _, err := f.store.memberships.Add(context.Background(), member.ID, org.ID); err != nil {
		t.Fatalf("seed membership: %v", err)
	}

	rr := f.do(t, http.MethodPost, "/v1/tracking-links", managerToken,
		fmt.Sprintf(`{"url":"https://shop.example.com/sale","organization_id":%q}`, org.ID))
	if rr.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode created: %v", err)
	}

	rr = f.do(t, http.MethodPatch, "/v1/tracking-links/"+created.ID, memberToken,
		`{"organization_id":"6f1f64e2-9f36-4e51-9c0d-05a2f1f9b001"}`)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", rr.Code, rr.Body.String())
	}
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["error"] != auth.MessageInsufficientPermissionsAction {
		t.Fatalf("unexpected denial message: %v", body["error"])
	}
}

func TestGetTrackingLinkStrangerDenied(t *testing.T) {
	f := newFixture(t)
	_, managerToken := f.seedUser(t, "manager@example.com", "role:manager", "role:user")

	org := &auth.Organization{ID: uuid.New(), Name: "Acme", Slug: "acme", IsActive: true}
	if err := f.store.orgs.Create(context.Background(), org); err != nil {
		t.Fatalf("seed org: %v", err)
	}
	rr := f.do(t, http.MethodPost, "/v1/tracking-links", managerToken,
		fmt.Sprintf(`{"url":"https://shop.example.com/sale","organization_id":%q}`, org.ID))
	if rr.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode created: %v", err)
	}

	_, strangerToken := f.seedUser(t, "stranger@example.com", "role:user")
	rr = f.do(t, http.MethodGet, "/v1/tracking-links/"+created.ID, strangerToken, "")
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", rr.Code, rr.Body.String())
	}
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["error"] != auth.MessageInsufficientPermissionsAccess {
		t.Fatalf("unexpected denial message: %v", body["error"])
	}
}

func TestUpdateTrackingLinkToggleActive(t *testing.T) {
	f := newFixture(t)
	_, token := f.seedUser(t, "manager@example.com", "role:manager", "role:user")

	rr := f.do(t, http.MethodPost, "/v1/tracking-links", token,
		`{"url":"https://shop.example.com/sale"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d", rr.Code)
	}
	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode created: %v", err)
	}

	rr = f.do(t, http.MethodPatch, "/v1/tracking-links/"+created.ID, token,
		`{"is_active":false}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("patch: expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["is_active"] != false {
		t.Fatalf("expected link to be inactive: %v", body["is_active"])
	}
}

func TestDeleteTrackingLinkManager(t *testing.T) {
	f := newFixture(t)
	_, token := f.seedUser(t, "manager@example.com", "role:manager", "role:user")

	rr := f.do(t, http.MethodPost, "/v1/tracking-links", token,
		`{"url":"https://shop.example.com/sale"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d", rr.Code)
	}
	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode created: %v", err)
	}

	rr = f.do(t, http.MethodDelete, "/v1/tracking-links/"+created.ID, token, "")
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", rr.Code, rr.Body.String())
	}
	rr = f.do(t, http.MethodGet, "/v1/tracking-links/"+created.ID, token, "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", rr.Code)
	}
}
