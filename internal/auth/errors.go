package auth

import (
	"errors"
	"net/http"
)

var (
	ErrNotFound     = errors.New("auth: not found")
	ErrConflict     = errors.New("auth: already exists")
	ErrInvalidInput = errors.New("auth: invalid input")
	ErrUnauthorized = errors.New("auth: unauthorized")
	ErrInvalidToken = errors.New("auth: invalid token")
)

// Denial reasons carried by PermissionError. The messages are part of the
// observable contract: operators distinguish denial classes by them.
const (
	MessageInsufficientPermissionsAccess      = "insufficient permissions to access this resource"
	MessageInsufficientPermissionsAction      = "insufficient permissions for this action"
	MessageInsufficientPermissionsResponse    = "insufficient permissions to view this resource"
	MessageInsufficientPermissionsPagination  = "insufficient permissions to paginate this resource"
	MessageInsufficientPermissionsScopeAdd    = "insufficient permissions to add scopes to this user"
	MessageInsufficientPermissionsScopeRemove = "insufficient permissions to remove scopes from this user"
)

// PermissionError is returned by the permission controller when a privilege,
// ACL or relationship check fails. It always reaches the HTTP boundary
// unhandled; only the error mapper there inspects it.
type PermissionError struct {
	Status  int
	Message string
}

func (e *PermissionError) Error() string { return e.Message }

func newPermissionError(message string) *PermissionError {
	return &PermissionError{Status: http.StatusForbidden, Message: message}
}

// IsPermissionError reports whether err is a permission denial and returns
// the typed error for status/message inspection.
func IsPermissionError(err error) (*PermissionError, bool) {
	var perr *PermissionError
	if errors.As(err, &perr) {
		return perr, true
	}
	return nil, false
}
