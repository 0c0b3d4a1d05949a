// Package session implements a headless form-filling session: it owns the
// in-progress answer set, recomputes the hidden-field set on every change,
// evaluates the submission gate, debounces draft autosave into local
// storage, and drives the submit flow with its side effects.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/xordon/webform-go/internal/domain"
	"github.com/xordon/webform-go/internal/gate"
	"github.com/xordon/webform-go/internal/kvstore"
	"github.com/xordon/webform-go/internal/logic"
)

// DefaultAutosaveDelay is the idle debounce before a draft write.
const DefaultAutosaveDelay = 2 * time.Second

// Submitter posts the accumulated answers to the backend.
type Submitter interface {
	Submit(ctx context.Context, formID string, data domain.SubmissionData) (SubmitResult, error)
}

// SubmitResult is what the backend returns for a stored submission.
type SubmitResult struct {
	SubmissionID string
}

// SubmitterFunc adapts a function to the Submitter interface.
type SubmitterFunc func(ctx context.Context, formID string, data domain.SubmissionData) (SubmitResult, error)

func (f SubmitterFunc) Submit(ctx context.Context, formID string, data domain.SubmissionData) (SubmitResult, error) {
	return f(ctx, formID, data)
}

// Option configures a Session.
type Option func(*Session)

// WithStore injects the local key-value storage for drafts and the
// duplicate-prevention flag. Defaults to an in-memory store.
func WithStore(s kvstore.Store) Option { return func(ses *Session) { ses.store = s } }

// WithClock injects the time source used by gating and confirmation.
func WithClock(now func() time.Time) Option { return func(ses *Session) { ses.now = now } }

// WithAuthenticated marks the visitor as logged in.
func WithAuthenticated(v bool) Option { return func(ses *Session) { ses.authenticated = v } }

// WithAutosaveDelay overrides the draft debounce interval.
func WithAutosaveDelay(d time.Duration) Option { return func(ses *Session) { ses.saveDelay = d } }

// WithStartTracker installs a hook fired once, on the first answer change,
// mirroring form-start analytics tracking.
func WithStartTracker(fn func()) Option { return func(ses *Session) { ses.onStart = fn } }

// Session is a single visitor's pass through one form. All methods are
// safe for the autosave timer goroutine; the session itself models the
// single-threaded event-driven runtime of the original.
type Session struct {
	form      *domain.Form
	submitter Submitter
	store     kvstore.Store
	now       func() time.Time
	saveDelay time.Duration
	onStart   func()

	mu               sync.Mutex
	data             domain.SubmissionData
	honeypot         string
	authenticated    bool
	passwordVerified bool
	captchaVerified  bool
	submitted        bool
	started          bool
	draftRestored    bool
	confirmation     *logic.Confirmation
	saveTimer        *time.Timer
}

// New starts a session for a fetched form, restoring any local draft when
// autosave is enabled.
func New(form *domain.Form, submitter Submitter, opts ...Option) (*Session, error) {
	if form == nil {
		return nil, fmt.Errorf("session: form is required")
	}
	s := &Session{
		form:      form,
		submitter: submitter,
		store:     kvstore.NewMemory(),
		now:       time.Now,
		saveDelay: DefaultAutosaveDelay,
		data:      make(domain.SubmissionData),
	}
	for _, opt := range opts {
		opt(s)
	}
	if form.Settings.AutoSave {
		if raw, ok := s.store.Get(kvstore.DraftKey(form.ID)); ok {
			var draft domain.SubmissionData
			// A corrupt draft is discarded, never fatal.
			if err := json.Unmarshal([]byte(raw), &draft); err == nil && len(draft) > 0 {
				s.data = draft
				s.draftRestored = true
			}
		}
	}
	return s, nil
}

// Form returns the immutable definition this session renders.
func (s *Session) Form() *domain.Form { return s.form }

// DraftRestored reports whether a local draft was loaded at start.
func (s *Session) DraftRestored() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draftRestored
}

// SetAnswer records an answer and schedules the debounced draft write.
// The hidden-field set is a pure function of the data, so there is nothing
// to invalidate; callers re-read Hidden after any change.
func (s *Session) SetAnswer(fieldID string, value any) {
	s.mu.Lock()
	s.data[fieldID] = value
	first := !s.started
	s.started = true
	s.scheduleSaveLocked()
	s.mu.Unlock()

	if first && s.onStart != nil {
		s.onStart()
	}
}

// SetHoneypot records the hidden honeypot input's value.
func (s *Session) SetHoneypot(v string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.honeypot = v
}

// Answers returns a copy of the current answer set.
func (s *Session) Answers() domain.SubmissionData {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(domain.SubmissionData, len(s.data))
	for k, v := range s.data {
		out[k] = v
	}
	return out
}

// Hidden recomputes the hidden-field set from the logic rules and the
// current answers.
func (s *Session) Hidden() map[domain.FieldID]struct{} {
	return logic.HiddenFieldIDs(s.form.Settings.LogicRules, s.Answers())
}

// VisibleFields returns the fields not suppressed by logic rules, in form
// order.
func (s *Session) VisibleFields() []domain.FieldSpec {
	hidden := s.Hidden()
	var out []domain.FieldSpec
	for _, f := range s.form.Fields {
		if _, ok := hidden[f.ID]; ok {
			continue
		}
		out = append(out, f)
	}
	return out
}

// State evaluates the gate for the current session.
func (s *Session) State() gate.Decision {
	s.mu.Lock()
	submitted := s.submitted
	v := gate.Visitor{
		Authenticated:    s.authenticated,
		PasswordVerified: s.passwordVerified,
		CaptchaVerified:  s.captchaVerified,
		HasSubmitted:     s.hasSubmittedBeforeLocked(),
	}
	s.mu.Unlock()

	if submitted {
		return gate.Decision{State: gate.StateSubmitted, Details: "submission accepted"}
	}
	return gate.Evaluate(s.form, v, s.now())
}

func (s *Session) hasSubmittedBeforeLocked() bool {
	if !s.form.Settings.PreventDuplicates {
		return false
	}
	v, ok := s.store.Get(kvstore.SubmittedKey(s.form.ID))
	return ok && v == "true"
}

// VerifyPassword checks the visitor's password input and unlocks the form
// on a match.
func (s *Session) VerifyPassword(input string) bool {
	ok := gate.VerifyPassword(s.form.Settings, input)
	if ok {
		s.mu.Lock()
		s.passwordVerified = true
		s.mu.Unlock()
	}
	return ok
}

// VerifyCaptcha marks the CAPTCHA acknowledgment for this session.
func (s *Session) VerifyCaptcha() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.captchaVerified = true
}

// Confirmation returns the resolved post-submit confirmation, or nil
// before a successful submit.
func (s *Session) Confirmation() *logic.Confirmation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.confirmation
}

// Submit validates and posts the answer set. Gate and validation failures
// are terminal for this attempt and leave the data intact; a network error
// from the submitter likewise leaves the session resubmittable. On success
// the duplicate-prevention flag is written, the draft is cleared, and the
// confirmation (override, message chain, variables) is resolved.
func (s *Session) Submit(ctx context.Context) (logic.Confirmation, error) {
	if d := s.State(); d.State != gate.StateReady {
		return logic.Confirmation{}, fmt.Errorf("session: form not ready: %s", d.State)
	}

	s.mu.Lock()
	data := make(domain.SubmissionData, len(s.data))
	for k, v := range s.data {
		data[k] = v
	}
	honeypot := s.honeypot
	captcha := s.captchaVerified
	s.mu.Unlock()

	hidden := logic.HiddenFieldIDs(s.form.Settings.LogicRules, data)
	if err := gate.CheckSubmission(s.form, data, hidden, honeypot, captcha); err != nil {
		return logic.Confirmation{}, err
	}

	result, err := s.submitter.Submit(ctx, s.form.ID, data)
	if err != nil {
		return logic.Confirmation{}, fmt.Errorf("session: submit: %w", err)
	}

	conf := logic.ResolveConfirmation(s.form, data, result.SubmissionID, s.now())

	s.mu.Lock()
	s.submitted = true
	s.confirmation = &conf
	s.stopSaveTimerLocked()
	s.mu.Unlock()

	if s.form.Settings.PreventDuplicates {
		_ = s.store.Set(kvstore.SubmittedKey(s.form.ID), "true")
	}
	if s.form.Settings.AutoSave {
		_ = s.store.Delete(kvstore.DraftKey(s.form.ID))
	}
	return conf, nil
}

// FillAgain resets the session for another pass, clearing the answers and
// the local duplicate-prevention flag. Only honored when the form enables
// the fill-again affordance.
func (s *Session) FillAgain() bool {
	if !s.form.Settings.FillAgain {
		return false
	}
	s.mu.Lock()
	s.data = make(domain.SubmissionData)
	s.honeypot = ""
	s.submitted = false
	s.confirmation = nil
	s.started = false
	s.mu.Unlock()

	if s.form.Settings.PreventDuplicates {
		_ = s.store.Delete(kvstore.SubmittedKey(s.form.ID))
	}
	return true
}

// Close stops the autosave timer. Navigating away abandons in-flight work;
// the draft keeps whatever the last completed debounce wrote.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopSaveTimerLocked()
}

func (s *Session) scheduleSaveLocked() {
	if !s.form.Settings.AutoSave || len(s.data) == 0 {
		return
	}
	if s.saveTimer != nil {
		s.saveTimer.Stop()
	}
	s.saveTimer = time.AfterFunc(s.saveDelay, s.saveDraft)
}

func (s *Session) stopSaveTimerLocked() {
	if s.saveTimer != nil {
		s.saveTimer.Stop()
		s.saveTimer = nil
	}
}

func (s *Session) saveDraft() {
	s.mu.Lock()
	if s.submitted {
		s.mu.Unlock()
		return
	}
	raw, err := json.Marshal(s.data)
	s.mu.Unlock()
	if err != nil {
		return
	}
	_ = s.store.Set(kvstore.DraftKey(s.form.ID), string(raw))
}
