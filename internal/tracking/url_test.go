package tracking

import (
	"errors"
	"testing"
)

func TestHashURL(t *testing.T) {
	hash := HashURL("https://example.com/some/path?utm_source=google")
	if len(hash) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(hash))
	}
	if hash != HashURL("https://example.com/some/path?utm_source=google") {
		t.Fatalf("hash must be deterministic")
	}
	if hash == HashURL("https://example.com/some/path?utm_source=bing") {
		t.Fatalf("different urls must hash differently")
	}
}

func TestParseURLUTMParamsFull(t *testing.T) {
	params, err := ParseURLUTMParams("https://example.com/some/path?utm_source=google&utm_medium=email&utm_campaign=test_campaign&utm_content=asdf_1234")
	if err != nil {
		t.Fatalf("ParseURLUTMParams: %v", err)
	}
	if params.Scheme != "https" || params.Domain != "example.com" {
		t.Fatalf("unexpected scheme/domain: %+v", params)
	}
	if params.Destination != "https://example.com/some/path" {
		t.Fatalf("destination must strip the query: %q", params.Destination)
	}
	if params.URLPath != "/some/path" {
		t.Fatalf("unexpected path: %q", params.URLPath)
	}
	for name, got := range map[string]*string{
		"utm_source":   params.UTMSource,
		"utm_medium":   params.UTMMedium,
		"utm_campaign": params.UTMCampaign,
		"utm_content":  params.UTMContent,
	} {
		if got == nil {
			t.Fatalf("%s must be set", name)
		}
	}
	if *params.UTMSource != "google" || *params.UTMCampaign != "test_campaign" {
		t.Fatalf("unexpected utm values: %+v", params)
	}
	if params.UTMTerm != nil {
		t.Fatalf("absent utm_term must stay unset")
	}
}

func TestParseURLUTMParamsWithoutUTM(t *testing.T) {
	params, err := ParseURLUTMParams("https://example.net/path")
	if err != nil {
		t.Fatalf("ParseURLUTMParams: %v", err)
	}
	if params.Destination != "https://example.net/path" {
		t.Fatalf("unexpected destination: %q", params.Destination)
	}
	if params.UTMSource != nil || params.UTMMedium != nil || params.UTMCampaign != nil ||
		params.UTMContent != nil || params.UTMTerm != nil {
		t.Fatalf("utm fields must stay unset: %+v", params)
	}
}

func TestParseURLUTMParamsIgnoresForeignParams(t *testing.T) {
	params, err := ParseURLUTMParams("https://example.com/path?utm_source=google&utm_campaign=campaign&extra_param=test")
	if err != nil {
		t.Fatalf("ParseURLUTMParams: %v", err)
	}
	if params.UTMSource == nil || *params.UTMSource != "google" {
		t.Fatalf("utm_source lost: %+v", params)
	}
	if params.UTMMedium != nil {
		t.Fatalf("utm_medium must stay unset")
	}
}

func TestParseURLUTMParamsFirstValueWins(t *testing.T) {
	params, err := ParseURLUTMParams("https://example.com/p?utm_source=first&utm_source=second")
	if err != nil {
		t.Fatalf("ParseURLUTMParams: %v", err)
	}
	if params.UTMSource == nil || *params.UTMSource != "first" {
		t.Fatalf("first value must win, got %+v", params.UTMSource)
	}
}

func TestParseURLUTMParamsMalformed(t *testing.T) {
	for _, raw := range []string{
		"not-a-valid-url",
		"/relative/path",
		"https://",
		"://missing-scheme.com",
	} {
		if _, err := ParseURLUTMParams(raw); !errors.Is(err, ErrMalformedURL) {
			t.Fatalf("%q: expected ErrMalformedURL, got %v", raw, err)
		}
	}
}
