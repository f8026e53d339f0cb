package roster

import (
	"fmt"

	"github.com/campusdesk/campusdesk/internal/authz"
)

// scopeCondition renders a visibility scope into a WHERE fragment for the
// given table alias. The predicate is pushed into the query itself:
// out-of-scope rows are never fetched, so neither their contents nor
// their existence can leak. $%d placeholders start at argOffset+1.
func scopeCondition(s authz.Scope, resource string, argOffset int) (string, []any) {
	if s.Unrestricted() {
		return "TRUE", nil
	}
	if s.Empty() {
		return "FALSE", nil
	}
	arg := fmt.Sprintf("$%d", argOffset+1)
	args := []any{s.PrincipalID()}
	switch resource {
	case "groups":
		if s.Kind() == authz.ScopeLecturer {
			return "g.lecturer_id = " + arg, args
		}
		return "EXISTS (SELECT 1 FROM enrollments e WHERE e.group_id = g.id AND e.student_id = " + arg + ")", args
	case "materials":
		if s.Kind() == authz.ScopeLecturer {
			return "EXISTS (SELECT 1 FROM groups g WHERE g.id = m.group_id AND g.lecturer_id = " + arg + ")", args
		}
		return "EXISTS (SELECT 1 FROM enrollments e WHERE e.group_id = m.group_id AND e.student_id = " + arg + ")", args
	case "payments":
		if s.Kind() == authz.ScopeLecturer {
			return "EXISTS (SELECT 1 FROM groups g WHERE g.id = p.group_id AND g.lecturer_id = " + arg + ")", args
		}
		return "p.student_id = " + arg, args
	case "students":
		if s.Kind() == authz.ScopeLecturer {
			return "EXISTS (SELECT 1 FROM enrollments e JOIN groups g ON g.id = e.group_id WHERE e.student_id = s.principal_id AND g.lecturer_id = " + arg + ")", args
		}
		// Students see only their own record.
		return "s.principal_id = " + arg, args
	default:
		return "FALSE", nil
	}
}
