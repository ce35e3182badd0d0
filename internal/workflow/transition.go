package workflow

import (
	"sort"

	apperrors "github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/pkg/errors"
)

// Table maps source state to destination state to the roles allowed to make
// that move. Tables are built once and never mutated.
type Table struct {
	name  string
	edges map[Status]map[Status]RoleSet
}

type edge struct {
	from, to Status
	roles    []Role
}

func newTable(name string, edges ...edge) *Table {
	t := &Table{name: name, edges: make(map[Status]map[Status]RoleSet)}
	for _, e := range edges {
		if t.edges[e.from] == nil {
			t.edges[e.from] = make(map[Status]RoleSet)
		}
		t.edges[e.from][e.to] = NewRoleSet(e.roles...)
	}
	return t
}

// Name of the entity kind the table governs.
func (t *Table) Name() string { return t.name }

var (
	regAuthors  = []Role{RoleRegAuthor, RoleAdmin}
	regApprover = []Role{RoleRegApprover, RoleAdmin}

	prgmAuthors   = []Role{RolePrgmCoordinator, RoleAdmin}
	prgmApprovers = []Role{RoleHOD, RoleAdmin}

	coAuthors = []Role{RoleFaculty, RolePrgmCoordinator, RoleAdmin}
)

// Regulation lifecycle. APPROVED has no outgoing edge; cloning is the only
// way to get an editable copy.
var Regulation = newTable("regulation",
	edge{Draft, WaitingForApproval, regAuthors},
	edge{WaitingForApproval, RequestedChanges, regApprover},
	edge{WaitingForApproval, Approved, regApprover},
	edge{RequestedChanges, WaitingForApproval, regAuthors},
)

// ProgrammeRegulation is the outcome-mapping (po/pso/peo) lifecycle.
var ProgrammeRegulation = newTable("programmeRegulation",
	edge{Draft, WaitingForApproval, prgmAuthors},
	edge{WaitingForApproval, RequestedChanges, prgmApprovers},
	edge{WaitingForApproval, Approved, prgmApprovers},
	edge{RequestedChanges, WaitingForApproval, prgmAuthors},
)

// Course has a second approval stage held by the dean.
var Course = newTable("course",
	edge{Draft, WaitingForApproval, prgmAuthors},
	edge{WaitingForApproval, RequestedChanges, prgmApprovers},
	edge{WaitingForApproval, Approved, prgmApprovers},
	edge{RequestedChanges, WaitingForApproval, prgmAuthors},
	edge{Approved, Confirmed, []Role{RoleDean}},
	edge{Approved, RequestedChanges, []Role{RoleDean}},
)

// CourseOutcome is the CO-PO mapping lifecycle of a course.
var CourseOutcome = newTable("courseOutcome",
	edge{Draft, WaitingForApproval, coAuthors},
	edge{WaitingForApproval, RequestedChanges, prgmApprovers},
	edge{WaitingForApproval, Approved, prgmApprovers},
	edge{RequestedChanges, WaitingForApproval, coAuthors},
)

// IsTransitionAllowed is true iff the table has the edge from -> to and the
// caller holds at least one of its roles. Unknown edges are always denied.
func IsTransitionAllowed(t *Table, from, to Status, roles RoleSet) bool {
	if t == nil {
		return false
	}
	dests, ok := t.edges[from]
	if !ok {
		return false
	}
	allowed, ok := dests[to]
	if !ok {
		return false
	}
	return allowed.Intersects(roles)
}

// Allowed lists the destinations the caller may move to from the given state.
func (t *Table) Allowed(from Status, roles RoleSet) []Status {
	var out []Status
	for to, allowed := range t.edges[from] {
		if allowed.Intersects(roles) {
			out = append(out, to)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Authorize returns a denial naming both states when the move is not allowed.
func Authorize(t *Table, from, to Status, roles RoleSet) error {
	if IsTransitionAllowed(t, from, to, roles) {
		return nil
	}
	return apperrors.Denied("Cannot move %s from %s to %s.", t.Name(), from.Display(), to.Display())
}
