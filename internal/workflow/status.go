package workflow

import "strings"

// Status is the single authoritative state of a document. Apart from DRAFT,
// every status is derived from a stage role: FORWARDED_TO_R while the role
// holds the document, APPROVED_BY_R / REJECTED_BY_R after it acts.
type Status string

const StatusDraft Status = "DRAFT"

const (
	pendingPrefix  = "FORWARDED_TO_"
	approvedPrefix = "APPROVED_BY_"
	rejectedPrefix = "REJECTED_BY_"
)

// PendingStatus returns the status placing the document in r's queue.
func PendingStatus(r Role) Status {
	return Status(pendingPrefix + string(r))
}

// ApprovedStatus returns the status recording r's approval.
func ApprovedStatus(r Role) Status {
	return Status(approvedPrefix + string(r))
}

// RejectedStatus returns the status recording r's rejection.
func RejectedStatus(r Role) Status {
	return Status(rejectedPrefix + string(r))
}

// AllStatuses enumerates every legal status value.
func AllStatuses() []Status {
	out := []Status{StatusDraft}
	for _, r := range StageRoles {
		out = append(out, PendingStatus(r), ApprovedStatus(r), RejectedStatus(r))
	}
	return out
}

// Valid reports whether s is one of the defined status values.
func (s Status) Valid() bool {
	if s == StatusDraft {
		return true
	}
	r, ok := s.stageRole()
	return ok && r.IsStage()
}

func (s Status) stageRole() (Role, bool) {
	str := string(s)
	for _, p := range []string{pendingPrefix, approvedPrefix, rejectedPrefix} {
		if strings.HasPrefix(str, p) {
			return Role(strings.TrimPrefix(str, p)), true
		}
	}
	return "", false
}

// HolderRole returns the role currently responsible for acting on a
// document in this status. Only pending statuses have a holder.
func (s Status) HolderRole() (Role, bool) {
	if !strings.HasPrefix(string(s), pendingPrefix) {
		return "", false
	}
	r := Role(strings.TrimPrefix(string(s), pendingPrefix))
	return r, r.IsStage()
}

// IsPending reports whether the document is awaiting action by some role.
func (s Status) IsPending() bool {
	_, ok := s.HolderRole()
	return ok
}

// IsRejected reports whether the most recent action was a rejection.
func (s Status) IsRejected() bool {
	return strings.HasPrefix(string(s), rejectedPrefix)
}

// IsApproved reports whether the most recent action was an approval.
func (s Status) IsApproved() bool {
	return strings.HasPrefix(string(s), approvedPrefix)
}

// Terminal reports whether no further transition is possible. Approve and
// forward are mutually exclusive exits from a pending state, so every
// approved or rejected status ends the traversal.
func (s Status) Terminal() bool {
	return s.IsApproved() || s.IsRejected()
}
