// Package gate implements the submission gate: the ordered eligibility
// checks that decide whether a visitor may view or submit a form, and the
// pre-submit validation suite. The gate is a UX convenience, not a security
// boundary: the password check compares against a value the client was
// already given, and the server re-enforces schedule, limit and duplicate
// constraints on submit.
package gate

import (
	"fmt"
	"time"

	"github.com/xordon/webform-go/internal/domain"
)

// State is one of the gate's render states. States are listed in priority
// order; evaluation short-circuits at the first blocking state.
type State string

const (
	StateLoading          State = "loading"
	StateNotFound         State = "not_found"
	StateUnpublished      State = "unpublished"
	StateDuplicateBlocked State = "duplicate_blocked"
	StateLimitReached     State = "limit_reached"
	StateScheduledNotOpen State = "scheduled_not_open"
	StateScheduledClosed  State = "scheduled_closed"
	StateLoginRequired    State = "login_required"
	StatePasswordRequired State = "password_required"
	StateReady            State = "ready"
	StateSubmitted        State = "submitted"
)

// Blocking reports whether the state prevents rendering the form body.
func (s State) Blocking() bool {
	return s != StateReady && s != StateSubmitted
}

// Visitor is the session-scoped context the gate evaluates against:
// ambient identity plus the verification flags accumulated this session.
type Visitor struct {
	Authenticated    bool
	PasswordVerified bool
	CaptchaVerified  bool
	HasSubmitted     bool // local duplicate-prevention flag for this form
}

// Decision is the gate outcome: the first blocking state in priority
// order, with a human-readable explanation and the schedule boundary when
// one applies.
type Decision struct {
	State   State
	Details string
	// When set, the start or expiry date that produced a scheduling state.
	Boundary *time.Time
}

// Evaluate runs the eligibility checks in their fixed priority order
// against a fetched form. The Loading and NotFound states belong to the
// fetch lifecycle and are produced by callers before a form exists.
//
// Order: unpublished, duplicate, limit, schedule-open, schedule-closed,
// login, password, ready. A form past its expiry with its limit also
// reached resolves to LimitReached.
func Evaluate(form *domain.Form, v Visitor, now time.Time) Decision {
	if form == nil {
		return Decision{State: StateNotFound, Details: "form not found"}
	}
	s := form.Settings

	if form.Status != domain.StatusPublished {
		return Decision{State: StateUnpublished, Details: fmt.Sprintf("form status is %s", form.Status)}
	}
	if s.PreventDuplicates && v.HasSubmitted {
		return Decision{State: StateDuplicateBlocked, Details: "visitor already submitted this form"}
	}
	if s.LimitResponses && s.MaxResponses > 0 && form.SubmissionCount >= s.MaxResponses {
		return Decision{
			State:   StateLimitReached,
			Details: fmt.Sprintf("submission count %d reached limit %d", form.SubmissionCount, s.MaxResponses),
		}
	}
	if s.StartDate != nil && !s.StartDate.IsZero() && now.Before(s.StartDate.Time) {
		t := s.StartDate.Time
		return Decision{
			State:    StateScheduledNotOpen,
			Details:  fmt.Sprintf("form opens at %s", t.Format(time.RFC3339)),
			Boundary: &t,
		}
	}
	if s.EnableExpiry && s.ExpiryDate != nil && !s.ExpiryDate.IsZero() && now.After(s.ExpiryDate.Time) {
		t := s.ExpiryDate.Time
		return Decision{
			State:    StateScheduledClosed,
			Details:  fmt.Sprintf("form closed at %s", t.Format(time.RFC3339)),
			Boundary: &t,
		}
	}
	if s.RequireLogin && !v.Authenticated {
		return Decision{State: StateLoginRequired, Details: "authentication required"}
	}
	if s.EnablePassword && !v.PasswordVerified {
		return Decision{State: StatePasswordRequired, Details: "password not yet verified this session"}
	}
	return Decision{State: StateReady, Details: "all eligibility checks passed"}
}

// VerifyPassword performs the plain-text password comparison. The password
// travels to the client inside the form settings, so this gate is
// deliberately not a security control.
func VerifyPassword(s domain.FormSettings, input string) bool {
	return s.EnablePassword && input == s.Password
}
