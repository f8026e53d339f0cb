package roster

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusdesk/campusdesk/internal/authz"
	"github.com/campusdesk/campusdesk/internal/shared"
	_ "github.com/campusdesk/campusdesk/testing"
)

// tokenValidator maps opaque bearer strings to auth contexts so handler
// tests can act as any role without a token service.
type tokenValidator map[string]authz.AuthContext

func (v tokenValidator) Validate(_ context.Context, token string) (authz.AuthContext, error) {
	if ac, ok := v[token]; ok {
		return ac, nil
	}
	return authz.Anonymous(), shared.ErrAuthenticationRequired
}

func newRosterRouter(t *testing.T) (http.Handler, *mockRepository) {
	t.Helper()
	svc, repo := newFixture()
	guard := authz.Middleware{Validator: tokenValidator{
		"admin-token":  adminCtx,
		"lecturer-one": lecturerOneCtx,
		"lecturer-two": lecturerTwoCtx,
		"student-one":  studentOneCtx,
		"plain-user":   plainUserCtx,
	}}
	handler := NewHandler(nil, svc, guard)

	r := chi.NewRouter()
	r.Use(guard.Authenticate)
	r.Route("/api", handler.MountRoutes)
	return r, repo
}

func do(t *testing.T, router http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestGroupsEndpointScoping(t *testing.T) {
	router, _ := newRosterRouter(t)

	rr := do(t, router, http.MethodGet, "/api/groups", "", "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = do(t, router, http.MethodGet, "/api/groups", "admin-token", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var adminList listResponse[Group]
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &adminList))
	assert.Len(t, adminList.Data, 2)
	assert.Equal(t, 2, adminList.Meta.Total)

	rr = do(t, router, http.MethodGet, "/api/groups", "lecturer-one", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var lecturerList listResponse[Group]
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &lecturerList))
	require.Len(t, lecturerList.Data, 1)
	assert.Equal(t, int64(100), lecturerList.Data[0].ID)
}

func TestGroupsPagination(t *testing.T) {
	router, _ := newRosterRouter(t)

	rr := do(t, router, http.MethodGet, "/api/groups?page=2&per_page=1", "admin-token", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var list listResponse[Group]
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	require.Len(t, list.Data, 1)
	assert.Equal(t, int64(200), list.Data[0].ID)
	assert.Equal(t, 2, list.Meta.Page)
	assert.Equal(t, 2, list.Meta.TotalPages)
}

func TestGetGroupEndpointMasks(t *testing.T) {
	router, _ := newRosterRouter(t)

	rr := do(t, router, http.MethodGet, "/api/groups/200", "lecturer-one", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = do(t, router, http.MethodGet, "/api/groups/100", "lecturer-one", "")
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestUpdateGroupEndpoint(t *testing.T) {
	router, repo := newRosterRouter(t)

	rr := do(t, router, http.MethodPut, "/api/groups/100", "lecturer-one", `{"classroom":"C-3"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "C-3", repo.groups[100].Classroom)

	// Role mismatch is final at the middleware.
	rr = do(t, router, http.MethodPut, "/api/groups/100", "student-one", `{"classroom":"X-0"}`)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	// Ownership denials surface as missing, decided in the service.
	rr = do(t, router, http.MethodPut, "/api/groups/100", "lecturer-two", `{"classroom":"X-0"}`)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = do(t, router, http.MethodPut, "/api/groups/100", "lecturer-one", `{"classroom":""}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestPaymentsEndpoint(t *testing.T) {
	router, repo := newRosterRouter(t)

	// A plain user has no payment surface at all.
	rr := do(t, router, http.MethodGet, "/api/payments", "plain-user", "")
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = do(t, router, http.MethodGet, "/api/payments", "student-one", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var list listResponse[Payment]
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	require.Len(t, list.Data, 1)
	assert.Equal(t, int64(1000), list.Data[0].ID)

	rr = do(t, router, http.MethodPost, "/api/payments/1000/confirm", "lecturer-one", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, PaymentPaid, repo.payments[1000].Status)

	// Students may read their payment but never confirm one; the write
	// mismatch is final at the middleware.
	rr = do(t, router, http.MethodPost, "/api/payments/1000/confirm", "student-one", "")
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestStudentsEndpoint(t *testing.T) {
	router, _ := newRosterRouter(t)

	rr := do(t, router, http.MethodGet, "/api/students", "student-one", "")
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = do(t, router, http.MethodGet, "/api/students", "lecturer-one", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var list listResponse[StudentProfile]
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	require.Len(t, list.Data, 1)
	assert.Equal(t, int64(20), list.Data[0].PrincipalID)
}
