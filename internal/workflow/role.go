package workflow

import "sort"

// Role is a caller role code as carried in the access token.
type Role string

const (
	RoleAdmin           Role = "ADMIN"
	RoleRegAuthor       Role = "REG_AUTHOR"
	RoleRegApprover     Role = "REG_APPROVER"
	RolePrgmCoordinator Role = "PRGM_COORDINATOR"
	RoleHOD             Role = "HOD"
	RoleDean            Role = "DEAN"
	RoleFaculty         Role = "FACULTY"
)

// RoleSet is an unordered set of roles.
type RoleSet map[Role]struct{}

// NewRoleSet builds a set; duplicates collapse.
func NewRoleSet(roles ...Role) RoleSet {
	set := make(RoleSet, len(roles))
	for _, r := range roles {
		set[r] = struct{}{}
	}
	return set
}

// RolesFromStrings converts token claims into a set.
func RolesFromStrings(codes []string) RoleSet {
	set := make(RoleSet, len(codes))
	for _, c := range codes {
		set[Role(c)] = struct{}{}
	}
	return set
}

func (s RoleSet) Has(r Role) bool {
	_, ok := s[r]
	return ok
}

// Intersects reports whether the two sets share at least one role.
func (s RoleSet) Intersects(other RoleSet) bool {
	small, large := s, other
	if len(small) > len(large) {
		small, large = large, small
	}
	for r := range small {
		if large.Has(r) {
			return true
		}
	}
	return false
}

// Strings returns the codes sorted, for logs and responses.
func (s RoleSet) Strings() []string {
	out := make([]string, 0, len(s))
	for r := range s {
		out = append(out, string(r))
	}
	sort.Strings(out)
	return out
}
