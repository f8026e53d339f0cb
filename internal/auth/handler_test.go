package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusdesk/campusdesk/internal/authz"
	_ "github.com/campusdesk/campusdesk/testing"
)

func newAuthRouter(t *testing.T) (http.Handler, *serviceFixture) {
	t.Helper()
	f := newServiceFixture(t)
	guard := authz.Middleware{Validator: f.service}
	handler := NewHandler(nil, f.service, guard)

	r := chi.NewRouter()
	r.Use(guard.Authenticate)
	r.Route("/auth", handler.MountRoutes)
	return r, f
}

func postJSON(t *testing.T, router http.Handler, path, body, bearer string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func decodeTokens(t *testing.T, rr *httptest.ResponseRecorder) tokenResponse {
	t.Helper()
	var resp tokenResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp
}

func TestLoginEndpoint(t *testing.T) {
	router, f := newAuthRouter(t)
	p := f.repo.addPrincipal(t, "amira", "correct-horse", true, false)
	f.repo.students[p.ID] = true

	rr := postJSON(t, router, "/auth/login", `{"username":"amira","password":"correct-horse"}`, "")
	require.Equal(t, http.StatusOK, rr.Code)

	resp := decodeTokens(t, rr)
	assert.NotEmpty(t, resp.Access)
	assert.NotEmpty(t, resp.Refresh)
	require.NotNil(t, resp.User)
	assert.Equal(t, authz.RoleStudent, resp.User.Role)
	assert.True(t, resp.User.IsStudent)
	assert.False(t, resp.User.IsAdmin)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	router, f := newAuthRouter(t)
	f.repo.addPrincipal(t, "amira", "correct-horse", true, false)

	rr := postJSON(t, router, "/auth/login", `{"username":"amira","password":"wrong-password"}`, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestLoginValidation(t *testing.T) {
	router, _ := newAuthRouter(t)

	rr := postJSON(t, router, "/auth/login", `{"username":"amira","password":"short"}`, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = postJSON(t, router, "/auth/login", `not json`, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRegisterEndpoint(t *testing.T) {
	router, _ := newAuthRouter(t)

	rr := postJSON(t, router, "/auth/register", `{"username":"fresh","password":"long-enough"}`, "")
	require.Equal(t, http.StatusCreated, rr.Code)

	resp := decodeTokens(t, rr)
	require.NotNil(t, resp.User)
	assert.Equal(t, authz.RoleAuthenticatedUser, resp.User.Role)

	// Same username again conflicts.
	rr = postJSON(t, router, "/auth/register", `{"username":"fresh","password":"long-enough"}`, "")
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestRefreshEndpointRotates(t *testing.T) {
	router, f := newAuthRouter(t)
	f.repo.addPrincipal(t, "rot", "correct-horse", true, false)

	login := decodeTokens(t, postJSON(t, router, "/auth/login", `{"username":"rot","password":"correct-horse"}`, ""))

	rr := postJSON(t, router, "/auth/refresh", `{"refresh":"`+login.Refresh+`"}`, "")
	require.Equal(t, http.StatusOK, rr.Code)
	next := decodeTokens(t, rr)
	assert.NotEmpty(t, next.Access)
	assert.NotEqual(t, login.Refresh, next.Refresh)

	// Replaying the rotated token is a 403, not a silent success.
	rr = postJSON(t, router, "/auth/refresh", `{"refresh":"`+login.Refresh+`"}`, "")
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestLogoutEndpoint(t *testing.T) {
	router, f := newAuthRouter(t)
	f.repo.addPrincipal(t, "leaver", "correct-horse", true, false)

	login := decodeTokens(t, postJSON(t, router, "/auth/login", `{"username":"leaver","password":"correct-horse"}`, ""))

	// Logout requires authentication.
	rr := postJSON(t, router, "/auth/logout", `{"refresh":"`+login.Refresh+`"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = postJSON(t, router, "/auth/logout", `{"refresh":"`+login.Refresh+`"}`, login.Access)
	require.Equal(t, http.StatusOK, rr.Code)

	// The blacklisted token cannot refresh.
	rr = postJSON(t, router, "/auth/refresh", `{"refresh":"`+login.Refresh+`"}`, "")
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestProfileEndpoint(t *testing.T) {
	router, f := newAuthRouter(t)
	p := f.repo.addPrincipal(t, "lena", "correct-horse", true, false)
	f.repo.lecturers[p.ID] = true

	login := decodeTokens(t, postJSON(t, router, "/auth/login", `{"username":"lena","password":"correct-horse"}`, ""))

	req := httptest.NewRequest(http.MethodGet, "/auth/profile", nil)
	req.Header.Set("Authorization", "Bearer "+login.Access)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var user userResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &user))
	assert.Equal(t, "lena", user.Username)
	assert.Equal(t, authz.RoleLecturer, user.Role)
	assert.True(t, user.IsLecturer)

	// Anonymous callers are rejected outright.
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/auth/profile", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestDisabledPrincipalLosesAccess(t *testing.T) {
	router, f := newAuthRouter(t)
	p := f.repo.addPrincipal(t, "blocked", "correct-horse", true, false)

	login := decodeTokens(t, postJSON(t, router, "/auth/login", `{"username":"blocked","password":"correct-horse"}`, ""))

	f.repo.principals[p.ID].Enabled = false

	req := httptest.NewRequest(http.MethodGet, "/auth/profile", nil)
	req.Header.Set("Authorization", "Bearer "+login.Access)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
