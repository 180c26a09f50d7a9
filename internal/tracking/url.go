// Package tracking manages campaign tracking links: canonical URL parsing,
// content-addressed deduplication by URL hash and CRUD over the link store.
package tracking

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/url"
)

// ErrMalformedURL is returned when a link URL cannot be parsed or lacks a
// scheme or host. Parsing never yields a partial result.
var ErrMalformedURL = errors.New("tracking: malformed url")

// URLParams are the canonical components derived from a raw link URL.
// A nil utm field means the parameter was absent from the query string.
type URLParams struct {
	Scheme      string  `json:"scheme"`
	Domain      string  `json:"domain"`
	Destination string  `json:"destination"`
	URLPath     string  `json:"url_path"`
	UTMCampaign *string `json:"utm_campaign,omitempty"`
	UTMMedium   *string `json:"utm_medium,omitempty"`
	UTMSource   *string `json:"utm_source,omitempty"`
	UTMContent  *string `json:"utm_content,omitempty"`
	UTMTerm     *string `json:"utm_term,omitempty"`
}

// HashURL returns the lowercase hex sha256 of the raw URL string. The hash
// is computed over the exact input, so two links differing only in query
// order hash differently.
func HashURL(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// ParseURLUTMParams splits a raw URL into its canonical components and
// extracts the utm parameters. The destination is the URL with query and
// fragment stripped. When a utm parameter repeats, the first value wins;
// non-utm query parameters are ignored.
func ParseURLUTMParams(raw string) (URLParams, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return URLParams{}, ErrMalformedURL
	}
	if u.Scheme == "" || u.Host == "" {
		return URLParams{}, ErrMalformedURL
	}
	params := URLParams{
		Scheme:      u.Scheme,
		Domain:      u.Host,
		Destination: u.Scheme + "://" + u.Host + u.Path,
		URLPath:     u.Path,
	}
	query := u.Query()
	params.UTMCampaign = firstValue(query, "utm_campaign")
	params.UTMMedium = firstValue(query, "utm_medium")
	params.UTMSource = firstValue(query, "utm_source")
	params.UTMContent = firstValue(query, "utm_content")
	params.UTMTerm = firstValue(query, "utm_term")
	return params, nil
}

func firstValue(query url.Values, key string) *string {
	values, ok := query[key]
	if !ok || len(values) == 0 {
		return nil
	}
	return &values[0]
}
