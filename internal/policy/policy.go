// Package policy implements AuthorizationPolicy: pure predicates over
// (actor, roles, expense, action). Nothing here touches storage, HTTP, or
// the clock — nothing it needs can't be handed to it as a plain value,
// which is what makes it cheap to exhaustively table-test.
package policy

import "ringi.sh/ringi/internal/domain"

// Action identifies the operation a caller intends to perform. It is
// distinct from domain.Action (the audit-log verb): VIEW is an
// authorization concern the audit log never records as an action of its
// own.
type Action string

const (
	ActionCreate  Action = "CREATE"
	ActionSubmit  Action = "SUBMIT"
	ActionApprove Action = "APPROVE"
	ActionReject  Action = "REJECT"
	ActionView    Action = "VIEW"
)

// Decision is the outcome of evaluating a predicate: Allowed, plus a
// human-readable Reason filled in only when denied (useful on the
// AuthorizationError it produces upstream).
type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision { return Decision{Allowed: true} }

func deny(reason string) Decision { return Decision{Allowed: false, Reason: reason} }

// Authorize evaluates the decision matrix for one (actor, action, expense)
// triple. expense may be the zero value for CREATE, which has no subject
// expense to consult. Authorize answers only "is actor allowed to attempt
// action on expense at all" — role and ownership, never the expense's
// current status. Status legality is a state-machine concern, not an
// authorization one: an approver denied for hitting Approve on a DRAFT
// expense must get InvalidTransition (409), not AuthorizationError (403),
// so the usecase layer checks status itself after Authorize allows.
func Authorize(actor domain.Actor, action Action, expense *domain.Expense) Decision {
	switch action {
	case ActionCreate:
		return allow()
	case ActionSubmit:
		if expense == nil {
			return deny("no such expense")
		}
		if expense.ApplicantID != actor.ID {
			return deny("only the applicant may submit this expense")
		}
		return allow()
	case ActionApprove, ActionReject:
		if expense == nil {
			return deny("no such expense")
		}
		if !actor.HasRole(domain.RoleApprover) {
			return deny("actor does not hold ROLE_APPROVER")
		}
		return allow()
	case ActionView:
		if expense == nil {
			return deny("no such expense")
		}
		if expense.ApplicantID == actor.ID {
			return allow()
		}
		if actor.HasRole(domain.RoleApprover) || actor.HasRole(domain.RoleAdmin) {
			return allow()
		}
		return deny("actor may only view their own expenses")
	default:
		return deny("unknown action")
	}
}

// QueryRestriction narrows a search to what the actor is entitled to see.
// RestrictToApplicantID is set (and must be honored by the caller) when the actor is
// restricted to their own expenses; it is empty when the actor may see
// everything.
type QueryRestriction struct {
	RestrictToApplicantID string
	Unrestricted          bool
}

// VisibilityFilter implements C2's visibilityFilter(roles, actorId): every
// search folds this in before executing, so an applicant can never widen
// their own result set by crafting a query.
func VisibilityFilter(actor domain.Actor) QueryRestriction {
	if actor.HasRole(domain.RoleApprover) || actor.HasRole(domain.RoleAdmin) {
		return QueryRestriction{Unrestricted: true}
	}
	return QueryRestriction{RestrictToApplicantID: actor.ID}
}
