package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"trailmark.org/internal/acl"
	"trailmark.org/internal/auth"
	"trailmark.org/internal/pagespeed"
	"trailmark.org/internal/pagination"
	"trailmark.org/internal/platforms"
	"trailmark.org/internal/tracking"
	"trailmark.org/internal/websites"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	payload := map[string]any{
		"error": msg,
	}
	if rid := RequestIDFromContext(r.Context()); rid != "" {
		payload["request_id"] = rid
	}
	writeJSON(w, code, payload)
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	reader := http.MaxBytesReader(w, r.Body, 1<<20)
	defer reader.Close()
	dec := json.NewDecoder(reader)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return errors.New("unexpected data after JSON body")
		}
		return err
	}
	return nil
}

// handleDomainError translates typed domain errors into HTTP statuses.
// Permission denials keep their message; everything unexpected collapses to
// an opaque 500.
func handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	if perr, ok := auth.IsPermissionError(err); ok {
		writeError(w, r, perr.Status, perr.Message)
		return
	}
	switch {
	case errors.Is(err, acl.ErrPermissionDenied):
		writeError(w, r, http.StatusForbidden, err.Error())
	case errors.Is(err, auth.ErrUnauthorized), errors.Is(err, auth.ErrInvalidToken):
		writeError(w, r, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, auth.ErrInvalidInput),
		errors.Is(err, tracking.ErrMalformedURL),
		errors.Is(err, platforms.ErrUnknownKind):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, auth.ErrNotFound),
		errors.Is(err, tracking.ErrNotFound),
		errors.Is(err, websites.ErrNotFound),
		errors.Is(err, platforms.ErrNotFound),
		errors.Is(err, pagespeed.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "resource not found")
	case errors.Is(err, auth.ErrConflict),
		errors.Is(err, tracking.ErrExists),
		errors.Is(err, websites.ErrExists),
		errors.Is(err, platforms.ErrExists):
		writeError(w, r, http.StatusConflict, err.Error())
	case errors.Is(err, pagespeed.ErrFetch):
		writeError(w, r, http.StatusBadGateway, err.Error())
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}

func parseUUID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.UUID{}, errors.New("invalid resource id")
	}
	return id, nil
}

func parsePageParams(r *http.Request) (pagination.PageParams, error) {
	params := pagination.PageParams{}
	if raw := strings.TrimSpace(r.URL.Query().Get("page")); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			return params, errors.New("page must be a positive integer")
		}
		params.Page = v
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("size")); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 || v > pagination.MaxPageSize {
			return params, errors.New("size must be between 1 and 1000")
		}
		params.Size = v
	}
	return params.Normalize(), nil
}
