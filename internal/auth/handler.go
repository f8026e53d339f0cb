package auth

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/campusdesk/campusdesk/internal/authz"
	"github.com/campusdesk/campusdesk/internal/platform/httpx"
	"github.com/campusdesk/campusdesk/internal/shared"
)

// Handler wires HTTP endpoints for the credential lifecycle.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	guard     authz.Middleware
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guard authz.Middleware) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		guard:     guard,
		validator: validator.New(),
	}
}

// MountRoutes registers auth routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/login", h.handleLogin)
	r.Post("/register", h.handleRegister)
	r.Post("/refresh", h.handleRefresh)
	r.With(h.guard.RequireAuth).Post("/logout", h.handleLogout)
	r.With(h.guard.RequireAuth).Get("/profile", h.handleProfile)
}

type credentialsRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
}

type refreshRequest struct {
	Refresh string `json:"refresh" validate:"required"`
}

type userResponse struct {
	ID         int64      `json:"id"`
	Username   string     `json:"username"`
	Role       authz.Role `json:"role"`
	IsAdmin    bool       `json:"is_admin"`
	IsLecturer bool       `json:"is_lecturer"`
	IsStudent  bool       `json:"is_student"`
}

type tokenResponse struct {
	Access  string        `json:"access"`
	Refresh string        `json:"refresh"`
	User    *userResponse `json:"user,omitempty"`
}

func describeUser(p *Principal, ac authz.AuthContext) *userResponse {
	return &userResponse{
		ID:         p.ID,
		Username:   p.Username,
		Role:       ac.Role,
		IsAdmin:    ac.IsAdmin(),
		IsLecturer: ac.IsLecturer(),
		IsStudent:  ac.IsStudent(),
	}
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid json body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	principal, err := h.service.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	pair, err := h.service.Issue(r.Context(), principal)
	if err != nil {
		h.logger.Error("issue tokens", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	ac, err := h.service.ResolveContext(r.Context(), principal)
	if err != nil {
		h.logger.Error("resolve context", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, tokenResponse{
		Access:  pair.Access,
		Refresh: pair.Refresh,
		User:    describeUser(principal, ac),
	})
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid json body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	principal, pair, err := h.service.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	ac, err := h.service.ResolveContext(r.Context(), principal)
	if err != nil {
		h.logger.Error("resolve context", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, tokenResponse{
		Access:  pair.Access,
		Refresh: pair.Refresh,
		User:    describeUser(principal, ac),
	})
}

// handleRefresh rotates the presented refresh token. The rotated refresh
// token is returned in the body alongside the new access token; clients
// must replace their stored copy since the old one is now terminal.
func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid json body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	pair, err := h.service.Refresh(r.Context(), req.Refresh)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, tokenResponse{Access: pair.Access, Refresh: pair.Refresh})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid json body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if err := h.service.Logout(r.Context(), req.Refresh); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "successfully logged out"})
}

func (h *Handler) handleProfile(w http.ResponseWriter, r *http.Request) {
	ac := authz.FromContext(r.Context())
	principal, err := h.service.repo.GetPrincipal(r.Context(), ac.PrincipalID)
	if err != nil {
		if h.logger != nil {
			h.logger.Error("load profile", slog.Any("error", err))
		}
		httpx.RespondError(w, shared.ErrNotFound)
		return
	}
	httpx.JSON(w, http.StatusOK, describeUser(principal, ac))
}
