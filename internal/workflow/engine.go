package workflow

// Engine owns the approval graph: which statuses exist, which transitions
// are legal out of each status, and which role is entitled to make them.
// It is a pure validator; persistence and approver lookup belong to the
// caller.
type Engine struct {
	forwards map[Role][]Role
}

// NewEngine builds the engine with the configured approval graph. The
// chain is not a straight pipeline: DEAN and INDUSTRY_RELATIONS are branch
// points, and DEAN may hand over to a dean of another department.
func NewEngine() *Engine {
	return &Engine{
		forwards: map[Role][]Role{
			RoleMentor:            {RoleHod},
			RoleHod:               {RoleDean},
			RoleDean:              {RoleDean, RoleDeanAcademics, RoleIndustryRelations, RoleRnd, RoleCoe},
			RoleDeanAcademics:     {RoleRegistrar, RoleExamCell},
			RoleIndustryRelations: {RoleDean, RoleDeanAcademics, RoleRnd, RoleHod},
			RoleCoe:               {RoleExamCell},
			RoleRegistrar:         {},
			RoleRnd:               {},
			RoleExamCell:          {},
		},
	}
}

// ForwardTargets returns the roles that r may forward a pending document to.
func (e *Engine) ForwardTargets(r Role) []Role {
	return e.forwards[r]
}

// CanForward reports whether target is in from's allowed-forward set.
func (e *Engine) CanForward(from, target Role) bool {
	for _, t := range e.forwards[from] {
		if t == target {
			return true
		}
	}
	return false
}

// Submit validates the student submission transition out of DRAFT and
// returns the resulting status. Ownership is the caller's check.
func (e *Engine) Submit(current Status) (Status, error) {
	if current != StatusDraft {
		return "", Errf(KindInvalidTransition, "document in status %s cannot be submitted", current)
	}
	return PendingStatus(RoleMentor), nil
}

// Approve validates an approval by actor on a document in the given status
// and returns the resulting status.
func (e *Engine) Approve(current Status, actor Role) (Status, error) {
	holder, ok := current.HolderRole()
	if !ok {
		return "", Errf(KindInvalidTransition, "document in status %s has no pending action", current)
	}
	if holder != actor {
		return "", Errf(KindUnauthorized, "document is pending with %s, not %s", holder, actor)
	}
	return ApprovedStatus(actor), nil
}

// Reject validates a rejection by actor. The reason is mandatory and is
// stored with the resulting status by the caller.
func (e *Engine) Reject(current Status, actor Role, reason string) (Status, error) {
	if reason == "" {
		return "", Errf(KindValidation, "rejection reason is required")
	}
	holder, ok := current.HolderRole()
	if !ok {
		return "", Errf(KindInvalidTransition, "document in status %s has no pending action", current)
	}
	if holder != actor {
		return "", Errf(KindUnauthorized, "document is pending with %s, not %s", holder, actor)
	}
	return RejectedStatus(actor), nil
}

// Forward validates a hand-over from actor to target and returns the
// resulting status. The requested target is checked against the current
// holder's allowed set, never assumed to be the single next stage.
func (e *Engine) Forward(current Status, actor, target Role) (Status, error) {
	holder, ok := current.HolderRole()
	if !ok {
		return "", Errf(KindInvalidTransition, "document in status %s has no pending action", current)
	}
	if holder != actor {
		return "", Errf(KindUnauthorized, "document is pending with %s, not %s", holder, actor)
	}
	if !e.CanForward(actor, target) {
		return "", Errf(KindInvalidTransition, "%s cannot forward to %s", actor, target)
	}
	return PendingStatus(target), nil
}

// Delete validates removal of a document. Only unsubmitted drafts may be
// deleted; ownership is the caller's check.
func (e *Engine) Delete(current Status) error {
	if current != StatusDraft {
		return Errf(KindInvalidTransition, "only draft documents can be deleted, status is %s", current)
	}
	return nil
}

// Action names a workflow operation available to a role on a document.
type Action string

const (
	ActionSubmit  Action = "submit"
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
	ActionForward Action = "forward"
	ActionDelete  Action = "delete"
)

// AllowedActions answers "what may role R do to a document in this status
// now?". Dashboards render buttons from this instead of re-deriving the
// table per view.
func (e *Engine) AllowedActions(current Status, actor Role) []Action {
	if current == StatusDraft {
		if actor == RoleStudent {
			return []Action{ActionSubmit, ActionDelete}
		}
		return nil
	}
	holder, ok := current.HolderRole()
	if !ok || holder != actor {
		return nil
	}
	actions := []Action{ActionApprove, ActionReject}
	if len(e.forwards[actor]) > 0 {
		actions = append(actions, ActionForward)
	}
	return actions
}
