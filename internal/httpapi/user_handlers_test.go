package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"trailmark.org/internal/auth"
)

func TestListUsersAdminSeesFullRecords(t *testing.T) {
	f := newFixture(t)
	_, token := f.seedUser(t, "admin@example.com", "role:admin")
	f.seedUser(t, "other@example.com", "role:user")

	rr := f.do(t, http.MethodGet, "/v1/users", token, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var page struct {
		Total   int              `json:"total"`
		Results []map[string]any `json:"results"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &page); err != nil {
		t.Fatalf("decode page: %v", err)
	}
	if page.Total != 2 {
		t.Fatalf("expected 2 users, got %d", page.Total)
	}
	if _, ok := page.Results[0]["scopes"]; !ok {
		t.Fatalf("admin projection must include scopes: %v", page.Results[0])
	}
}

func TestListUsersManagerSeesSummaries(t *testing.T) {
	f := newFixture(t)
	_, token := f.seedUser(t, "manager@example.com", "role:manager")

	rr := f.do(t, http.MethodGet, "/v1/users", token, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var page struct {
		Results []map[string]any `json:"results"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &page); err != nil {
		t.Fatalf("decode page: %v", err)
	}
	if len(page.Results) == 0 {
		t.Fatal("expected at least one result")
	}
	if _, ok := page.Results[0]["is_superuser"]; ok {
		t.Fatalf("manager projection must not include is_superuser: %v", page.Results[0])
	}
	if _, ok := page.Results[0]["auth_id"]; ok {
		t.Fatalf("manager projection must not include auth_id: %v", page.Results[0])
	}
	if _, ok := page.Results[0]["scopes"]; !ok {
		t.Fatalf("manager projection must include scopes: %v", page.Results[0])
	}
}

func TestListUsersPlainUserDenied(t *testing.T) {
	f := newFixture(t)
	_, token := f.seedUser(t, "user@example.com", "role:user")

	rr := f.do(t, http.MethodGet, "/v1/users", token, "")
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rr.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["error"] != auth.MessageInsufficientPermissionsPagination {
		t.Fatalf("unexpected denial message: %v", body["error"])
	}
}

func TestGetUserSelf(t *testing.T) {
	f := newFixture(t)
	user, token := f.seedUser(t, "self@example.com", "role:user")

	rr := f.do(t, http.MethodGet, "/v1/users/"+user.ID.String(), token, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["email"] != "self@example.com" {
		t.Fatalf("unexpected email: %v", body["email"])
	}
	if _, ok := body["password_hash"]; ok {
		t.Fatal("password hash must never be serialized")
	}
	// the self view stops at profile fields
	for _, field := range []string{"is_superuser", "scopes", "auth_id", "is_verified"} {
		if _, ok := body[field]; ok {
			t.Fatalf("self read must not include %s: %v", field, body)
		}
	}
}

func TestGetUserStrangerDenied(t *testing.T) {
	f := newFixture(t)
	_, token := f.seedUser(t, "user@example.com", "role:user")
	target, _ := f.seedUser(t, "target@example.com", "role:user")

	rr := f.do(t, http.MethodGet, "/v1/users/"+target.ID.String(), token, "")
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rr.Code)
	}
}

func TestUpdateUserSelfAllowedFields(t *testing.T) {
	f := newFixture(t)
	user, token := f.seedUser(t, "self@example.com", "role:user")

	rr := f.do(t, http.MethodPatch, "/v1/users/"+user.ID.String(), token,
		`{"username":"renamed"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["username"] != "renamed" {
		t.Fatalf("unexpected username: %v", body["username"])
	}
}

func TestUpdateUserSelfCannotEscalate(t *testing.T) {
	f := newFixture(t)
	user, token := f.seedUser(t, "self@example.com", "role:user")

	rr := f.do(t, http.MethodPatch, "/v1/users/"+user.ID.String(), token,
		`{"is_superuser":true}`)
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

func TestAdminGrantsRoleScope(t *testing.T) {
	f := newFixture(t)
	_, token := f.seedUser(t, "admin@example.com", "role:admin")
	target, _ := f.seedUser(t, "target@example.com")

	rr := f.do(t, http.MethodPost,
		fmt.Sprintf("/v1/users/%s/scopes", target.ID), token,
		`{"scopes":["role:client"]}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var body struct {
		Scopes []string `json:"scopes"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(body.Scopes) != 1 || body.Scopes[0] != "role:client" {
		t.Fatalf("unexpected scopes: %v", body.Scopes)
	}
}

func TestSelfCannotGrantRoleScope(t *testing.T) {
	f := newFixture(t)
	user, token := f.seedUser(t, "self@example.com", "role:user")

	rr := f.do(t, http.MethodPost,
		fmt.Sprintf("/v1/users/%s/scopes", user.ID), token,
		`{"scopes":["role:admin"]}`)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", rr.Code, rr.Body.String())
	}
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["error"] != auth.MessageInsufficientPermissionsScopeAdd {
		t.Fatalf("unexpected denial message: %v", body["error"])
	}
}

func TestSelfGrantsFeatureScope(t *testing.T) {
	f := newFixture(t)
	user, token := f.seedUser(t, "self@example.com", "role:user")

	rr := f.do(t, http.MethodPost,
		fmt.Sprintf("/v1/users/%s/scopes", user.ID), token,
		`{"scopes":["feature:beta"]}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestAdminRevokesRoleScope(t *testing.T) {
	f := newFixture(t)
	_, token := f.seedUser(t, "admin@example.com", "role:admin")
	target, _ := f.seedUser(t, "target@example.com", "role:client", "feature:beta")

	rr := f.do(t, http.MethodDelete,
		fmt.Sprintf("/v1/users/%s/scopes", target.ID), token,
		`{"scopes":["role:client"]}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var body struct {
		Scopes []string `json:"scopes"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(body.Scopes) != 1 || body.Scopes[0] != "feature:beta" {
		t.Fatalf("unexpected scopes after revoke: %v", body.Scopes)
	}
}

func TestDeleteUserSelf(t *testing.T) {
	f := newFixture(t)
	user, token := f.seedUser(t, "self@example.com", "role:user")

	rr := f.do(t, http.MethodDelete, "/v1/users/"+user.ID.String(), token, "")
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestRegisterAndLoginRoundtrip(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, http.MethodPost, "/v1/auth/register", "",
		`{"email":"new@example.com","username":"new","password":"hunter2!"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d: %s", rr.Code, rr.Body.String())
	}

	rr = f.do(t, http.MethodPost, "/v1/auth/token", "",
		`{"email":"new@example.com","password":"hunter2!"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("token: expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var body tokenResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode token: %v", err)
	}
	if body.AccessToken == "" || body.TokenType != "bearer" {
		t.Fatalf("unexpected token response: %+v", body)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, http.MethodPost, "/v1/auth/register", "",
		`{"email":"new@example.com","username":"new","password":"hunter2!"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d", rr.Code)
	}

	rr = f.do(t, http.MethodPost, "/v1/auth/token", "",
		`{"email":"new@example.com","password":"wrong"}`)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}
