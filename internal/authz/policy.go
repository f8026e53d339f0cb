package authz

// Action classifies an operation for policy purposes.
type Action int

const (
	ActionRead Action = iota
	ActionWrite
)

// DenyReason explains a negative decision.
type DenyReason string

const (
	DenyNotAuthenticated DenyReason = "not_authenticated"
	DenyRoleMismatch     DenyReason = "role_mismatch"
	DenyNotOwner         DenyReason = "not_owner"
)

// Decision is the outcome of a policy check.
type Decision struct {
	Allowed bool
	Reason  DenyReason
}

// Allow is the positive decision.
func Allow() Decision { return Decision{Allowed: true} }

// Deny produces a negative decision with the given reason.
func Deny(reason DenyReason) Decision { return Decision{Reason: reason} }

// ResourceFacts carries the precomputed ownership facts a policy may
// consult. Callers resolve them with at most one indexed lookup before
// deciding; policies themselves never touch storage.
type ResourceFacts struct {
	// OwnerLecturerID is the lecturer owning the resource's group, 0 when
	// not applicable.
	OwnerLecturerID int64
	// OwnerStudentID is the student the resource belongs to (payment
	// subject, enrollment, own profile), 0 when not applicable.
	OwnerStudentID int64
	// ViewerEnrolled reports whether the requesting student is enrolled in
	// the resource's group.
	ViewerEnrolled bool
}

// Policy is a pure decision function over role and ownership facts. All
// policies are total: every input yields exactly one Allow or Deny.
type Policy func(action Action, ctx AuthContext, facts ResourceFacts) Decision

// AdminOnly allows administrators and nobody else.
func AdminOnly(_ Action, ctx AuthContext, _ ResourceFacts) Decision {
	if !ctx.IsAuthenticated() {
		return Deny(DenyNotAuthenticated)
	}
	if ctx.IsAdmin() {
		return Allow()
	}
	return Deny(DenyRoleMismatch)
}

// AdminOrReadOnly allows reads for any authenticated principal and writes
// for administrators only.
func AdminOrReadOnly(action Action, ctx AuthContext, _ ResourceFacts) Decision {
	if !ctx.IsAuthenticated() {
		return Deny(DenyNotAuthenticated)
	}
	if action == ActionRead || ctx.IsAdmin() {
		return Allow()
	}
	return Deny(DenyRoleMismatch)
}

// LecturerOrAdmin allows lecturers and administrators.
func LecturerOrAdmin(_ Action, ctx AuthContext, _ ResourceFacts) Decision {
	if !ctx.IsAuthenticated() {
		return Deny(DenyNotAuthenticated)
	}
	if ctx.IsAdmin() || ctx.IsLecturer() {
		return Allow()
	}
	return Deny(DenyRoleMismatch)
}

// StudentOrAdmin allows students and administrators.
func StudentOrAdmin(_ Action, ctx AuthContext, _ ResourceFacts) Decision {
	if !ctx.IsAuthenticated() {
		return Deny(DenyNotAuthenticated)
	}
	if ctx.IsAdmin() || ctx.IsStudent() {
		return Allow()
	}
	return Deny(DenyRoleMismatch)
}

// OwnerLecturerOrAdmin allows administrators, and lecturers who own the
// resource's group.
func OwnerLecturerOrAdmin(_ Action, ctx AuthContext, facts ResourceFacts) Decision {
	if !ctx.IsAuthenticated() {
		return Deny(DenyNotAuthenticated)
	}
	if ctx.IsAdmin() {
		return Allow()
	}
	if !ctx.IsLecturer() {
		return Deny(DenyRoleMismatch)
	}
	if facts.OwnerLecturerID != 0 && facts.OwnerLecturerID == ctx.PrincipalID {
		return Allow()
	}
	return Deny(DenyNotOwner)
}

// OwnerStudentOrAdmin allows administrators, and students who own the
// resource.
func OwnerStudentOrAdmin(_ Action, ctx AuthContext, facts ResourceFacts) Decision {
	if !ctx.IsAuthenticated() {
		return Deny(DenyNotAuthenticated)
	}
	if ctx.IsAdmin() {
		return Allow()
	}
	if !ctx.IsStudent() {
		return Deny(DenyRoleMismatch)
	}
	if facts.OwnerStudentID != 0 && facts.OwnerStudentID == ctx.PrincipalID {
		return Allow()
	}
	return Deny(DenyNotOwner)
}

// CanManagePayments allows administrators and owning lecturers to write;
// reads additionally allow the student the payment belongs to.
func CanManagePayments(action Action, ctx AuthContext, facts ResourceFacts) Decision {
	if !ctx.IsAuthenticated() {
		return Deny(DenyNotAuthenticated)
	}
	if ctx.IsAdmin() {
		return Allow()
	}
	if ctx.IsLecturer() {
		if facts.OwnerLecturerID != 0 && facts.OwnerLecturerID == ctx.PrincipalID {
			return Allow()
		}
		return Deny(DenyNotOwner)
	}
	if ctx.IsStudent() {
		if action != ActionRead {
			return Deny(DenyRoleMismatch)
		}
		if facts.OwnerStudentID != 0 && facts.OwnerStudentID == ctx.PrincipalID {
			return Allow()
		}
		return Deny(DenyNotOwner)
	}
	return Deny(DenyRoleMismatch)
}

// CanViewOwnData allows access to resources reachable from the principal
// via the ownership graph: lecturers through group ownership, students
// through enrollment or direct ownership.
func CanViewOwnData(_ Action, ctx AuthContext, facts ResourceFacts) Decision {
	if !ctx.IsAuthenticated() {
		return Deny(DenyNotAuthenticated)
	}
	if ctx.IsAdmin() {
		return Allow()
	}
	if ctx.IsLecturer() {
		if facts.OwnerLecturerID != 0 && facts.OwnerLecturerID == ctx.PrincipalID {
			return Allow()
		}
		return Deny(DenyNotOwner)
	}
	if ctx.IsStudent() {
		if facts.ViewerEnrolled {
			return Allow()
		}
		if facts.OwnerStudentID != 0 && facts.OwnerStudentID == ctx.PrincipalID {
			return Allow()
		}
		return Deny(DenyNotOwner)
	}
	return Deny(DenyRoleMismatch)
}
