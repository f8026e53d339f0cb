package authz

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/campusdesk/campusdesk/internal/platform/httpx"
	"github.com/campusdesk/campusdesk/internal/shared"
)

// TokenValidator turns a bearer access token into an auth context. It is
// implemented by the auth service; kept as an interface so the middleware
// stays free of storage concerns.
type TokenValidator interface {
	Validate(ctx context.Context, accessToken string) (AuthContext, error)
}

// Middleware wires authorization checks for HTTP handlers.
type Middleware struct {
	Validator TokenValidator
	Logger    *slog.Logger
}

// Authenticate resolves the Authorization header into an AuthContext and
// attaches it to the request context. Requests without a credential
// proceed as anonymous; invalid or expired credentials are rejected so a
// stale token never silently downgrades to anonymous.
func (m Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := bearerToken(r)
		if raw == "" {
			next.ServeHTTP(w, r.WithContext(ContextWith(r.Context(), Anonymous())))
			return
		}
		ac, err := m.Validator.Validate(r.Context(), raw)
		if err != nil {
			if m.Logger != nil && !errors.Is(err, shared.ErrTokenExpired) {
				m.Logger.Warn("token validation failed", slog.Any("error", err))
			}
			httpx.RespondError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWith(r.Context(), ac)))
	})
}

// RequireAuth rejects anonymous requests.
func (m Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !FromContext(r.Context()).IsAuthenticated() {
			httpx.RespondError(w, shared.ErrAuthenticationRequired)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Require evaluates a role-level policy before the handler runs. The
// request method picks the action; object-level facts are not available
// here, so policies needing ownership run again inside the handler with
// facts resolved.
func (m Middleware) Require(policy Policy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ac := FromContext(r.Context())
			decision := policy(actionFor(r.Method), ac, ResourceFacts{})
			if !decision.Allowed && decision.Reason == DenyNotAuthenticated {
				httpx.RespondError(w, shared.ErrAuthenticationRequired)
				return
			}
			// Ownership denials cannot be concluded without facts; only
			// role mismatches are final at this stage.
			if !decision.Allowed && decision.Reason == DenyRoleMismatch {
				httpx.RespondError(w, shared.ErrPermissionDenied)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func actionFor(method string) Action {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return ActionRead
	default:
		return ActionWrite
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
