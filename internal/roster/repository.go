package roster

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campusdesk/campusdesk/internal/authz"
	"github.com/campusdesk/campusdesk/internal/shared"
)

// Repository abstracts scoped roster reads and the ownership-fact lookups
// the permission evaluator consumes.
type Repository interface {
	ListGroups(ctx context.Context, scope authz.Scope) ([]Group, error)
	GetGroup(ctx context.Context, scope authz.Scope, id int64) (*Group, error)
	UpdateGroupClassroom(ctx context.Context, id int64, classroom string) error

	ListMaterialsByGroup(ctx context.Context, scope authz.Scope, groupID int64) ([]Material, error)

	ListPayments(ctx context.Context, scope authz.Scope) ([]Payment, error)
	GetPayment(ctx context.Context, scope authz.Scope, id int64) (*Payment, error)
	MarkPaymentPaid(ctx context.Context, id int64, paidAt time.Time) error

	ListStudents(ctx context.Context, scope authz.Scope) ([]StudentProfile, error)

	// GroupFacts resolves ownership facts for a group in one indexed read.
	GroupFacts(ctx context.Context, groupID, viewerID int64) (authz.ResourceFacts, error)
	// PaymentFacts resolves ownership facts for a payment in one indexed read.
	PaymentFacts(ctx context.Context, paymentID int64) (authz.ResourceFacts, error)
}

// PGRepository provides PostgreSQL backed persistence.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// ListGroups returns the groups visible under the scope.
func (r *PGRepository) ListGroups(ctx context.Context, scope authz.Scope) ([]Group, error) {
	cond, args := scopeCondition(scope, "groups", 0)
	rows, err := r.pool.Query(ctx, `
		SELECT g.id, g.classroom, g.start_date, g.end_date, g.status, g.lecturer_id
		FROM groups g WHERE `+cond+` ORDER BY g.id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var groups []Group
	for rows.Next() {
		var g Group
		if err := rows.Scan(&g.ID, &g.Classroom, &g.StartDate, &g.EndDate, &g.Status, &g.LecturerID); err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

// GetGroup fetches a single group, applying the scope in the same query
// so an out-of-scope id reads as absent.
func (r *PGRepository) GetGroup(ctx context.Context, scope authz.Scope, id int64) (*Group, error) {
	cond, args := scopeCondition(scope, "groups", 1)
	var g Group
	err := r.pool.QueryRow(ctx, `
		SELECT g.id, g.classroom, g.start_date, g.end_date, g.status, g.lecturer_id
		FROM groups g WHERE g.id = $1 AND `+cond,
		append([]any{id}, args...)...).
		Scan(&g.ID, &g.Classroom, &g.StartDate, &g.EndDate, &g.Status, &g.LecturerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &g, nil
}

// UpdateGroupClassroom updates a group's classroom.
func (r *PGRepository) UpdateGroupClassroom(ctx context.Context, id int64, classroom string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE groups SET classroom = $2 WHERE id = $1`, id, classroom)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// ListMaterialsByGroup returns a group's materials visible under the scope.
func (r *PGRepository) ListMaterialsByGroup(ctx context.Context, scope authz.Scope, groupID int64) ([]Material, error) {
	cond, args := scopeCondition(scope, "materials", 1)
	rows, err := r.pool.Query(ctx, `
		SELECT m.id, m.group_id, m.topic, m.description, m.week, m.link
		FROM materials m WHERE m.group_id = $1 AND `+cond+` ORDER BY m.week, m.id`,
		append([]any{groupID}, args...)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var materials []Material
	for rows.Next() {
		var m Material
		if err := rows.Scan(&m.ID, &m.GroupID, &m.Topic, &m.Description, &m.Week, &m.Link); err != nil {
			return nil, err
		}
		materials = append(materials, m)
	}
	return materials, rows.Err()
}

// ListPayments returns the payments visible under the scope.
func (r *PGRepository) ListPayments(ctx context.Context, scope authz.Scope) ([]Payment, error) {
	cond, args := scopeCondition(scope, "payments", 0)
	rows, err := r.pool.Query(ctx, `
		SELECT p.id, p.group_id, p.student_id, p.month, p.amount, p.status, p.due_date, p.payment_date
		FROM payments p WHERE `+cond+` ORDER BY p.id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var payments []Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, *p)
	}
	return payments, rows.Err()
}

// GetPayment fetches a single payment with the scope pushed down.
func (r *PGRepository) GetPayment(ctx context.Context, scope authz.Scope, id int64) (*Payment, error) {
	cond, args := scopeCondition(scope, "payments", 1)
	row := r.pool.QueryRow(ctx, `
		SELECT p.id, p.group_id, p.student_id, p.month, p.amount, p.status, p.due_date, p.payment_date
		FROM payments p WHERE p.id = $1 AND `+cond,
		append([]any{id}, args...)...)
	p, err := scanPayment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func scanPayment(row pgx.Row) (*Payment, error) {
	var p Payment
	var due, paid *time.Time
	if err := row.Scan(&p.ID, &p.GroupID, &p.StudentID, &p.Month, &p.Amount, &p.Status, &due, &paid); err != nil {
		return nil, err
	}
	if due != nil {
		p.DueDate = *due
	}
	if paid != nil {
		p.PaymentDate = *paid
	}
	return &p, nil
}

// MarkPaymentPaid confirms a payment.
func (r *PGRepository) MarkPaymentPaid(ctx context.Context, id int64, paidAt time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE payments SET status = $2, payment_date = $3 WHERE id = $1`,
		id, PaymentPaid, paidAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// ListStudents returns the student profiles visible under the scope.
func (r *PGRepository) ListStudents(ctx context.Context, scope authz.Scope) ([]StudentProfile, error) {
	cond, args := scopeCondition(scope, "students", 0)
	rows, err := r.pool.Query(ctx, `
		SELECT s.principal_id, s.employed, s.active
		FROM student_profiles s WHERE `+cond+` ORDER BY s.principal_id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var students []StudentProfile
	for rows.Next() {
		var s StudentProfile
		if err := rows.Scan(&s.PrincipalID, &s.Employed, &s.Active); err != nil {
			return nil, err
		}
		students = append(students, s)
	}
	return students, rows.Err()
}

// GroupFacts loads the owning lecturer and the viewer's enrollment edge.
func (r *PGRepository) GroupFacts(ctx context.Context, groupID, viewerID int64) (authz.ResourceFacts, error) {
	var facts authz.ResourceFacts
	err := r.pool.QueryRow(ctx, `
		SELECT g.lecturer_id,
		       EXISTS (SELECT 1 FROM enrollments e WHERE e.group_id = g.id AND e.student_id = $2)
		FROM groups g WHERE g.id = $1`,
		groupID, viewerID).Scan(&facts.OwnerLecturerID, &facts.ViewerEnrolled)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return authz.ResourceFacts{}, shared.ErrNotFound
		}
		return authz.ResourceFacts{}, err
	}
	return facts, nil
}

// PaymentFacts loads the payment's subject student and owning lecturer.
func (r *PGRepository) PaymentFacts(ctx context.Context, paymentID int64) (authz.ResourceFacts, error) {
	var facts authz.ResourceFacts
	err := r.pool.QueryRow(ctx, `
		SELECT p.student_id, g.lecturer_id
		FROM payments p JOIN groups g ON g.id = p.group_id
		WHERE p.id = $1`,
		paymentID).Scan(&facts.OwnerStudentID, &facts.OwnerLecturerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return authz.ResourceFacts{}, shared.ErrNotFound
		}
		return authz.ResourceFacts{}, err
	}
	return facts, nil
}
