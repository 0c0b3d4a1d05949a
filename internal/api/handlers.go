package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/xordon/webform-go/internal/domain"
	"github.com/xordon/webform-go/internal/gate"
	"github.com/xordon/webform-go/internal/logic"
	"github.com/xordon/webform-go/internal/storage"
	"github.com/xordon/webform-go/internal/uischema"
	"github.com/xordon/webform-go/internal/webhook"
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleGetForm returns the public form definition with an anonymous gate
// decision, and records the view. Tracking failures never block the load.
func (s *Server) handleGetForm(w http.ResponseWriter, r *http.Request) {
	form, ok := s.fetchForm(w, r)
	if !ok {
		return
	}

	addr, ua := s.captureContext(r, form)
	if err := s.store.RecordView(r.Context(), form.ID, addr, ua); err != nil {
		slog.Warn("record view failed", "form", form.ID, "error", err)
	}

	decision := gate.Evaluate(form, gate.Visitor{
		Authenticated: UserFromContext(r.Context()) != "",
	}, s.now())
	writeJSON(w, http.StatusOK, map[string]any{
		"form": form,
		"gate": map[string]any{
			"state":   decision.State,
			"message": s.msgs.Gate(decision),
		},
	})
}

// handleGetFormUI returns the render schema for the form. Hidden fields are
// computed against an empty answer set; the client re-evaluates locally as
// answers arrive.
func (s *Server) handleGetFormUI(w http.ResponseWriter, r *http.Request) {
	form, ok := s.fetchForm(w, r)
	if !ok {
		return
	}
	hidden := logic.HiddenFieldIDs(form.Settings.LogicRules, nil)
	writeJSON(w, http.StatusOK, uischema.Build(form, hidden))
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	form, ok := s.fetchForm(w, r)
	if !ok {
		return
	}
	addr, ua := s.captureContext(r, form)
	if err := s.store.RecordStart(r.Context(), form.ID, addr, ua); err != nil {
		slog.Warn("record start failed", "form", form.ID, "error", err)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleVerifyPassword(w http.ResponseWriter, r *http.Request) {
	form, ok := s.fetchForm(w, r)
	if !ok {
		return
	}

	var body struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if !gate.VerifyPassword(form.Settings, body.Password) {
		writeJSON(w, http.StatusUnauthorized, map[string]any{
			"valid": false,
			"error": s.msgs.PasswordIncorrect(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"valid": true})
}

type submitRequest struct {
	Data         domain.SubmissionData `json:"data"`
	Honeypot     string                `json:"honeypot,omitempty"`
	Password     string                `json:"password,omitempty"`
	CaptchaToken string                `json:"captcha_token,omitempty"`
}

// handleSubmit re-enforces the gate server-side, validates the answers and
// stores the submission. The response mirrors what the confirmation screen
// renders: message, optional redirect, submission id.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	addr := clientAddr(r)
	if !s.limiter.Allow(addr) {
		writeError(w, http.StatusTooManyRequests, "too many submissions, slow down")
		return
	}

	form, ok := s.fetchForm(w, r)
	if !ok {
		return
	}

	var body submitRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.Data == nil {
		body.Data = domain.SubmissionData{}
	}

	now := s.now()
	visitor := gate.Visitor{
		Authenticated:    UserFromContext(r.Context()) != "",
		PasswordVerified: !form.Settings.EnablePassword || gate.VerifyPassword(form.Settings, body.Password),
		CaptchaVerified:  body.CaptchaToken != "",
		HasSubmitted:     s.hasSubmitted(r.Context(), form, addr, now),
	}
	if decision := gate.Evaluate(form, visitor, now); decision.State.Blocking() {
		s.metrics.RecordGateBlock(r.Context(), form.ID, string(decision.State))
		writeError(w, gateStatus(decision.State), s.msgs.Gate(decision))
		return
	}

	hidden := logic.HiddenFieldIDs(form.Settings.LogicRules, body.Data)
	if err := gate.CheckSubmission(form, body.Data, hidden, body.Honeypot, visitor.CaptchaVerified); err != nil {
		s.metrics.RecordValidationFailure(r.Context(), form.ID)
		writeError(w, http.StatusUnprocessableEntity, s.msgs.Validation(err))
		return
	}

	sub := domain.NewSubmission(form.ID, body.Data)
	sub.RespondentEmail, sub.RespondentPhone = domain.ExtractRespondent(form.Fields, body.Data)
	sub.IPAddress, sub.UserAgent = s.captureContext(r, form)

	if err := s.store.InsertSubmission(r.Context(), sub); err != nil {
		slog.Error("insert submission failed", "form", form.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to store submission")
		return
	}
	s.duplicates.Record(form.ID, addr)
	s.metrics.RecordSubmission(r.Context(), form.ID)

	s.dispatchWebhooks(r.Context(), form, sub)

	conf := logic.ResolveConfirmation(form, body.Data, sub.ID, now)
	resp := map[string]any{
		"success":       true,
		"submission_id": sub.ID,
		"message":       conf.Message,
	}
	if conf.RedirectURL != "" {
		resp["redirect_url"] = conf.RedirectURL
		resp["redirect_delay"] = int(conf.Delay.Seconds())
	}
	writeJSON(w, http.StatusCreated, resp)
}

// fetchForm loads the published form named in the path, writing the error
// response itself when the form is unavailable.
func (s *Server) fetchForm(w http.ResponseWriter, r *http.Request) (*domain.Form, bool) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "form id required")
		return nil, false
	}
	form, err := s.store.PublicForm(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, s.msgs.Gate(gate.Decision{State: gate.StateNotFound}))
		return nil, false
	}
	if err != nil {
		slog.Error("form fetch failed", "form", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load form")
		return nil, false
	}
	return form, true
}

// hasSubmitted checks the in-process window first, then storage. A storage
// failure fails open: the visitor is not blocked on an infrastructure error.
func (s *Server) hasSubmitted(ctx context.Context, form *domain.Form, addr string, now time.Time) bool {
	if !form.Settings.PreventDuplicates || addr == "" {
		return false
	}
	if s.duplicates.Seen(form.ID, addr) {
		return true
	}
	seen, err := s.store.HasRecentSubmission(ctx, form.ID, addr, now.Add(-s.dupWindow))
	if err != nil {
		slog.Warn("duplicate check failed", "form", form.ID, "error", err)
		return false
	}
	return seen
}

// dispatchWebhooks delivers submission.created in the background; the
// visitor's response never waits on subscriber endpoints.
func (s *Server) dispatchWebhooks(ctx context.Context, form *domain.Form, sub *domain.Submission) {
	if s.dispatcher == nil {
		return
	}
	hooks, err := s.store.Webhooks(ctx, form.ID)
	if err != nil {
		slog.Warn("webhook lookup failed", "form", form.ID, "error", err)
		return
	}
	if len(hooks) == 0 {
		return
	}
	evt := webhook.NewSubmissionCreated(form, sub)
	go func() {
		ctx := context.WithoutCancel(ctx)
		if err := s.dispatcher.Dispatch(ctx, hooks, evt); err != nil {
			slog.Warn("webhook dispatch failed", "form", form.ID, "error", err)
		}
	}()
}

func gateStatus(state gate.State) int {
	switch state {
	case gate.StateNotFound, gate.StateUnpublished:
		return http.StatusNotFound
	case gate.StateDuplicateBlocked:
		return http.StatusConflict
	case gate.StateLoginRequired, gate.StatePasswordRequired:
		return http.StatusUnauthorized
	default:
		return http.StatusForbidden
	}
}

// captureContext returns the address and user agent to record, honoring the
// form's IP tracking setting.
func (s *Server) captureContext(r *http.Request, form *domain.Form) (addr, userAgent string) {
	if !form.Settings.TrackIP() {
		return "", ""
	}
	return clientAddr(r), r.UserAgent()
}
