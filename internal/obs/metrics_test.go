package obs

import "testing"

func TestCanonicalPath(t *testing.T) {
	cases := []struct {
		input    string
		expected string
	}{
		{"", "/"},
		{"/metrics", "/metrics"},
		{"/v1/users", "/v1/users"},
		{"/v1/users/6f1f64e2-9f36-4e51-9c0d-05a2f1f9b001", "/v1/users/:id"},
		{"/v1/users/6f1f64e2-9f36-4e51-9c0d-05a2f1f9b001/scopes", "/v1/users/:id/scopes"},
		{"/v1/websites/6f1f64e2-9f36-4e51-9c0d-05a2f1f9b001/pages/0b1e7c66-63a1-4f6e-8b6f-1d9a2f3c4d5e", "/v1/websites/:id/pages/:id"},
		{"/v1/tracking-links?page=2&size=50", "/v1/tracking-links"},
		{"/v1/organizations/not-a-uuid/extras", "/v1/organizations/not-a-uuid/extras"},
	}
	for _, tc := range cases {
		if got := CanonicalPath(tc.input); got != tc.expected {
			t.Fatalf("CanonicalPath(%q)=%q, want %q", tc.input, got, tc.expected)
		}
	}
}
