package domain

import (
	"strings"

	dErrors "vantage/pkg/domain-errors"
)

// Role is an actor's platform role. Roles gate approval workflow
// transitions: only a compliance reviewer may mark a blueprint reviewed, and
// only a platform approver may approve it.
type Role string

const (
	RoleComplianceReviewer Role = "compliance_reviewer"
	RolePlatformApprover   Role = "platform_approver"
	RolePlatformAdmin      Role = "platform_admin"
)

var knownRoles = map[Role]struct{}{
	RoleComplianceReviewer: {},
	RolePlatformApprover:   {},
	RolePlatformAdmin:      {},
}

// ParseRole validates a role string.
func ParseRole(s string) (Role, error) {
	r := Role(strings.TrimSpace(s))
	if _, ok := knownRoles[r]; !ok {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown role: %s", s)
	}
	return r, nil
}

func (r Role) String() string { return string(r) }

// Actor is the authenticated identity performing an operation, resolved by
// the auth middleware and carried through context.
type Actor struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

// IsZero reports whether no actor was resolved.
func (a Actor) IsZero() bool {
	return a.ID == "" && a.Role == ""
}
