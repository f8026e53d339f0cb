package roster

import (
	"context"
	"log/slog"
	"time"

	"github.com/campusdesk/campusdesk/internal/authz"
	"github.com/campusdesk/campusdesk/internal/shared"
)

// Service applies visibility scopes and policy decisions to roster
// operations. By-id fetches apply the scope before any policy check, so
// objects outside the caller's visibility surface as NotFound rather than
// PermissionDenied.
type Service struct {
	repo   Repository
	logger *slog.Logger
	now    func() time.Time
}

// NewService constructs a Service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger, now: time.Now}
}

// ListGroups returns the groups visible to the caller.
func (s *Service) ListGroups(ctx context.Context, ac authz.AuthContext) ([]Group, error) {
	return s.repo.ListGroups(ctx, authz.BuildScope(ac))
}

// GetGroup fetches a group by id within the caller's scope.
func (s *Service) GetGroup(ctx context.Context, ac authz.AuthContext, id int64) (*Group, error) {
	return s.repo.GetGroup(ctx, authz.BuildScope(ac), id)
}

// UpdateGroupClassroom changes a group's classroom. Only the owning
// lecturer or an administrator may write; a group outside the caller's
// scope reads as missing.
func (s *Service) UpdateGroupClassroom(ctx context.Context, ac authz.AuthContext, id int64, classroom string) error {
	group, err := s.repo.GetGroup(ctx, authz.BuildScope(ac), id)
	if err != nil {
		return err
	}
	facts := authz.ResourceFacts{OwnerLecturerID: group.LecturerID}
	if decision := authz.OwnerLecturerOrAdmin(authz.ActionWrite, ac, facts); !decision.Allowed {
		return shared.ErrPermissionDenied
	}
	return s.repo.UpdateGroupClassroom(ctx, id, classroom)
}

// ListGroupMaterials returns a group's materials. The group itself must
// be reachable from the caller through the ownership graph; otherwise the
// whole collection reads as missing.
func (s *Service) ListGroupMaterials(ctx context.Context, ac authz.AuthContext, groupID int64) ([]Material, error) {
	facts, err := s.repo.GroupFacts(ctx, groupID, ac.PrincipalID)
	if err != nil {
		return nil, err
	}
	if decision := authz.CanViewOwnData(authz.ActionRead, ac, facts); !decision.Allowed {
		return nil, shared.ErrNotFound
	}
	return s.repo.ListMaterialsByGroup(ctx, authz.BuildScope(ac), groupID)
}

// ListPayments returns the payments visible to the caller.
func (s *Service) ListPayments(ctx context.Context, ac authz.AuthContext) ([]Payment, error) {
	return s.repo.ListPayments(ctx, authz.BuildScope(ac))
}

// GetPayment fetches a payment by id within the caller's scope.
func (s *Service) GetPayment(ctx context.Context, ac authz.AuthContext, id int64) (*Payment, error) {
	return s.repo.GetPayment(ctx, authz.BuildScope(ac), id)
}

// ConfirmPayment marks a payment paid. Administrators and the owning
// lecturer may confirm; students cannot, even their own.
func (s *Service) ConfirmPayment(ctx context.Context, ac authz.AuthContext, id int64) error {
	if _, err := s.repo.GetPayment(ctx, authz.BuildScope(ac), id); err != nil {
		return err
	}
	facts, err := s.repo.PaymentFacts(ctx, id)
	if err != nil {
		return err
	}
	if decision := authz.CanManagePayments(authz.ActionWrite, ac, facts); !decision.Allowed {
		return shared.ErrPermissionDenied
	}
	return s.repo.MarkPaymentPaid(ctx, id, s.now().UTC())
}

// ListStudents returns the student profiles visible to the caller.
func (s *Service) ListStudents(ctx context.Context, ac authz.AuthContext) ([]StudentProfile, error) {
	return s.repo.ListStudents(ctx, authz.BuildScope(ac))
}
