// Package roster holds the course-management records the authorization
// core decides over: groups, enrollments, payments and materials, plus the
// role profiles that link them to principals. All collection reads are
// scope-filtered at query construction time.
package roster

import "time"

// LecturerProfile links a principal to the lecturer role. Its existence is
// what makes role resolution return Lecturer.
type LecturerProfile struct {
	PrincipalID   int64
	Degree        string
	ContractStart time.Time
	ContractEnd   time.Time
	Active        bool
}

// StudentProfile links a principal to the student role.
type StudentProfile struct {
	PrincipalID int64
	Employed    bool
	Active      bool
}

// GroupStatus enumerates the lifecycle of a group.
type GroupStatus int

const (
	GroupOngoing GroupStatus = iota
	GroupFinished
	GroupCancelled
)

// Group is a scheduled course instance owned by a lecturer.
type Group struct {
	ID         int64
	Classroom  string
	StartDate  time.Time
	EndDate    time.Time
	Status     GroupStatus
	LecturerID int64
}

// Enrollment ties a student to a group.
type Enrollment struct {
	ID        int64
	GroupID   int64
	StudentID int64
	Status    string
	Feedback  int
}

// PaymentStatus enumerates payment settlement states.
type PaymentStatus int

const (
	PaymentUnpaid PaymentStatus = iota
	PaymentPaid
	PaymentOverdue
)

// Payment is a monthly installment owed by a student for a group.
type Payment struct {
	ID          int64
	GroupID     int64
	StudentID   int64
	Month       int
	Amount      float64
	Status      PaymentStatus
	DueDate     time.Time
	PaymentDate time.Time
}

// Material is course content attached to a group.
type Material struct {
	ID          int64
	GroupID     int64
	Topic       string
	Description string
	Week        int
	Link        string
}
