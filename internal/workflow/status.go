// Package workflow holds the lifecycle states of regulations, programme
// regulations, courses and course outcomes, and the fixed tables saying which
// roles may move an entity from one state to another.
package workflow

// Status is a lifecycle state.
type Status string

const (
	Draft              Status = "DRAFT"
	WaitingForApproval Status = "WAITING_FOR_APPROVAL"
	Approved           Status = "APPROVED"
	RequestedChanges   Status = "REQUESTED_CHANGES"
	Confirmed          Status = "CONFIRMED"
)

// Summary labels shown for a programme's course set. They are never stored
// on an entity.
const (
	PartiallyVerified Status = "PARTIALLY_VERIFIED"
	Pending           Status = "PENDING"
)

var statusDisplay = map[Status]string{
	Draft:              "Draft",
	WaitingForApproval: "Waiting For Approval",
	Approved:           "Approved",
	RequestedChanges:   "Requested Changes",
	Confirmed:          "Confirmed",
	PartiallyVerified:  "Partially Verified",
	Pending:            "Pending",
}

// Display is the human label.
func (s Status) Display() string {
	if d, ok := statusDisplay[s]; ok {
		return d
	}
	return string(s)
}

// Valid reports whether s is a storable lifecycle state.
func (s Status) Valid() bool {
	switch s {
	case Draft, WaitingForApproval, Approved, RequestedChanges, Confirmed:
		return true
	}
	return false
}

// Editable reports whether content may still be changed freely.
func (s Status) Editable() bool {
	return s == Draft || s == RequestedChanges
}

// StatusOption is a value/label pair for select inputs.
type StatusOption struct {
	Value Status `json:"value"`
	Label string `json:"label"`
}

// Options lists the given states with their labels.
func Options(statuses ...Status) []StatusOption {
	out := make([]StatusOption, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, StatusOption{Value: s, Label: s.Display()})
	}
	return out
}
