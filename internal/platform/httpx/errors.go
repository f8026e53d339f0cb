package httpx

import (
	"errors"
	"net/http"

	"github.com/campusdesk/campusdesk/internal/shared"
)

// RespondError maps domain errors to HTTP responses using RFC7807.
// NotFound deliberately covers out-of-scope objects too, so callers can
// never distinguish "hidden" from "missing".
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrDuplicate):
		Problem(w, http.StatusConflict, "Duplicate", err.Error())
	case errors.Is(err, shared.ErrInvalidCredentials):
		Problem(w, http.StatusBadRequest, "Invalid Credentials", err.Error())
	case errors.Is(err, shared.ErrAuthenticationRequired),
		errors.Is(err, shared.ErrTokenExpired),
		errors.Is(err, shared.ErrPrincipalDisabled):
		Problem(w, http.StatusUnauthorized, "Unauthorized", err.Error())
	case errors.Is(err, shared.ErrTokenBlacklisted),
		errors.Is(err, shared.ErrTokenReuseDetected),
		errors.Is(err, shared.ErrPermissionDenied):
		Problem(w, http.StatusForbidden, "Forbidden", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
