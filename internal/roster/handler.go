package roster

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/campusdesk/campusdesk/internal/authz"
	"github.com/campusdesk/campusdesk/internal/platform/httpx"
	"github.com/campusdesk/campusdesk/internal/shared"
)

// Handler wires HTTP endpoints for roster reads and the few guarded
// writes. Role-level policies run as middleware; ownership checks run in
// the service with resolved facts.
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

// MountRoutes registers roster routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Use(h.guard.RequireAuth)

	r.With(h.guard.Require(authz.AdminOrReadOnly)).Get("/groups", h.listGroups)
	r.Get("/groups/{id}", h.getGroup)
	r.With(h.guard.Require(authz.OwnerLecturerOrAdmin)).Put("/groups/{id}", h.updateGroup)
	r.Get("/groups/{id}/materials", h.listGroupMaterials)

	r.With(h.guard.Require(authz.CanManagePayments)).Get("/payments", h.listPayments)
	r.With(h.guard.Require(authz.CanManagePayments)).Get("/payments/{id}", h.getPayment)
	r.With(h.guard.Require(authz.CanManagePayments)).Post("/payments/{id}/confirm", h.confirmPayment)

	r.With(h.guard.Require(authz.LecturerOrAdmin)).Get("/students", h.listStudents)
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

type listResponse[T any] struct {
	Data []T               `json:"data"`
	Meta shared.Pagination `json:"meta"`
}

// paginate slices a scoped result set according to the page and per_page
// query parameters.
func paginate[T any](r *http.Request, items []T) listResponse[T] {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	meta := shared.NewPagination(page, perPage, len(items))
	start := (meta.Page - 1) * meta.PerPage
	if start >= len(items) {
		return listResponse[T]{Data: []T{}, Meta: meta}
	}
	end := start + meta.PerPage
	if end > len(items) {
		end = len(items)
	}
	return listResponse[T]{Data: items[start:end], Meta: meta}
}

func (h *Handler) listGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := h.service.ListGroups(r.Context(), authz.FromContext(r.Context()))
	if err != nil {
		h.logger.Error("list groups", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, paginate(r, groups))
}

func (h *Handler) getGroup(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, shared.ErrNotFound)
		return
	}
	group, err := h.service.GetGroup(r.Context(), authz.FromContext(r.Context()), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, group)
}

type updateGroupRequest struct {
	Classroom string `json:"classroom" validate:"required,max=20"`
}

func (h *Handler) updateGroup(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, shared.ErrNotFound)
		return
	}
	var req updateGroupRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid json body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if err := h.service.UpdateGroupClassroom(r.Context(), authz.FromContext(r.Context()), id, req.Classroom); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "group updated"})
}

func (h *Handler) listGroupMaterials(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, shared.ErrNotFound)
		return
	}
	materials, err := h.service.ListGroupMaterials(r.Context(), authz.FromContext(r.Context()), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, materials)
}

func (h *Handler) listPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := h.service.ListPayments(r.Context(), authz.FromContext(r.Context()))
	if err != nil {
		h.logger.Error("list payments", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, paginate(r, payments))
}

func (h *Handler) getPayment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, shared.ErrNotFound)
		return
	}
	payment, err := h.service.GetPayment(r.Context(), authz.FromContext(r.Context()), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, payment)
}

func (h *Handler) confirmPayment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, shared.ErrNotFound)
		return
	}
	if err := h.service.ConfirmPayment(r.Context(), authz.FromContext(r.Context()), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "payment confirmed"})
}

func (h *Handler) listStudents(w http.ResponseWriter, r *http.Request) {
	students, err := h.service.ListStudents(r.Context(), authz.FromContext(r.Context()))
	if err != nil {
		h.logger.Error("list students", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, paginate(r, students))
}
