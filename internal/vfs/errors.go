package vfs

import (
	"net/http"

	"github.com/zeebo/errs"
)

// Error kinds raised by the catalog. Check them with Class.Has; adapters map
// them to wire status codes with StatusCode.
var (
	// ErrBadRequest is a malformed identifier, an invalid role or a missing field.
	ErrBadRequest = errs.Class("bad request")
	// ErrUnauthorized is an access check failed by an anonymous requester.
	ErrUnauthorized = errs.Class("unauthorized")
	// ErrForbidden is an access check failed by an authenticated requester.
	ErrForbidden = errs.Class("forbidden")
	// ErrNotFound is an absent scene, file, document, user or generation.
	ErrNotFound = errs.Class("not found")
	// ErrConflict is a name collision or an exhausted identifier retry budget.
	ErrConflict = errs.Class("conflict")
	// ErrInternal is a broken invariant of the catalog itself.
	ErrInternal = errs.Class("internal")
)

// StatusCode returns the HTTP status matching the kind of err.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case ErrBadRequest.Has(err):
		return http.StatusBadRequest
	case ErrUnauthorized.Has(err):
		return http.StatusUnauthorized
	case ErrForbidden.Has(err):
		return http.StatusForbidden
	case ErrNotFound.Has(err):
		return http.StatusNotFound
	case ErrConflict.Has(err):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
