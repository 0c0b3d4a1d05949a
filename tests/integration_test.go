// Package tests contains end-to-end tests that wire the visitor session
// against the real HTTP API over httptest.
package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xordon/webform-go/internal/api"
	"github.com/xordon/webform-go/internal/domain"
	"github.com/xordon/webform-go/internal/gate"
	"github.com/xordon/webform-go/internal/i18n"
	"github.com/xordon/webform-go/internal/kvstore"
	"github.com/xordon/webform-go/internal/session"
	"github.com/xordon/webform-go/internal/storage/memory"
)

// httpSubmitter posts session submissions to the public API the way the
// browser runtime does.
func httpSubmitter(baseURL string) session.Submitter {
	return session.SubmitterFunc(func(ctx context.Context, formID string, data domain.SubmissionData) (session.SubmitResult, error) {
		payload, err := json.Marshal(map[string]any{"data": data})
		if err != nil {
			return session.SubmitResult{}, err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost,
			fmt.Sprintf("%s/api/v1/forms/%s/submissions", baseURL, formID), bytes.NewReader(payload))
		if err != nil {
			return session.SubmitResult{}, err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return session.SubmitResult{}, err
		}
		defer resp.Body.Close()

		var body struct {
			SubmissionID string `json:"submission_id"`
			Error        string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return session.SubmitResult{}, err
		}
		if resp.StatusCode != http.StatusCreated {
			return session.SubmitResult{}, fmt.Errorf("submit rejected (%d): %s", resp.StatusCode, body.Error)
		}
		return session.SubmitResult{SubmissionID: body.SubmissionID}, nil
	})
}

func newAPIServer(t *testing.T, store *memory.Store) *httptest.Server {
	t.Helper()
	msgs, err := i18n.New("en")
	require.NoError(t, err)
	ts := httptest.NewServer(api.New(store, msgs, api.Options{SubmitRate: 1000, SubmitBurst: 1000}))
	t.Cleanup(ts.Close)
	return ts
}

func feedbackForm() *domain.Form {
	f := &domain.Form{
		ID:     "feedback",
		Title:  "Feedback",
		Status: domain.StatusPublished,
		Fields: []domain.FieldSpec{
			{ID: "name", Type: domain.FieldText, Label: "Name", Required: true},
			{ID: "comment", Type: domain.FieldTextarea, Label: "Comment"},
		},
	}
	f.Settings.PreventDuplicates = true
	return f
}

// A visitor fills a duplicate-protected form, is blocked on a missing
// required answer, succeeds after fixing it, and is then blocked from a
// second pass both locally (fresh session, same browser storage) and
// server-side (same address posting the API directly).
func TestEndToEndDuplicatePrevention(t *testing.T) {
	store := memory.New()
	form := feedbackForm()
	store.AddForm(form)
	ts := newAPIServer(t, store)

	browser := kvstore.NewMemory()

	s1, err := session.New(form, httpSubmitter(ts.URL), session.WithStore(browser))
	require.NoError(t, err)
	defer s1.Close()

	require.Equal(t, gate.StateReady, s1.State().State)

	// Required field empty: the attempt fails and names the field.
	_, err = s1.Submit(context.Background())
	var reqErr *gate.RequiredFieldError
	require.True(t, errors.As(err, &reqErr))
	assert.Equal(t, "Name", reqErr.Field.Label)

	s1.SetAnswer("name", "Ada")
	s1.SetAnswer("comment", "Lovely form.")
	conf, err := s1.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Thank you for your submission!", conf.Message)
	assert.Equal(t, gate.StateSubmitted, s1.State().State)

	require.Len(t, store.Submissions("feedback"), 1)
	stored := store.Submissions("feedback")[0]
	assert.Equal(t, "Ada", stored.Data["name"])
	assert.NotEmpty(t, stored.IPAddress)

	// The duplicate-prevention flag survives the session.
	flag, ok := browser.Get(kvstore.SubmittedKey("feedback"))
	require.True(t, ok)
	assert.Equal(t, "true", flag)

	// A fresh session over the same browser storage is turned away.
	s2, err := session.New(form, httpSubmitter(ts.URL), session.WithStore(browser))
	require.NoError(t, err)
	defer s2.Close()
	assert.Equal(t, gate.StateDuplicateBlocked, s2.State().State)

	// And the server independently rejects a repeat from the same address.
	payload := []byte(`{"data": {"name": "Ada again"}}`)
	resp, err := http.Post(ts.URL+"/api/v1/forms/feedback/submissions", "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Len(t, store.Submissions("feedback"), 1)
}

// Conditional logic decides both what the visitor sees and what counts as
// required at submit time, end to end through the session.
func TestEndToEndConditionalLogic(t *testing.T) {
	store := memory.New()
	form := &domain.Form{
		ID:     "survey",
		Title:  "Survey",
		Status: domain.StatusPublished,
		Fields: []domain.FieldSpec{
			{ID: "role", Type: domain.FieldSelect, Label: "Role", Options: []string{"user", "developer"}, Required: true},
			{ID: "stack", Type: domain.FieldText, Label: "Stack", Required: true},
		},
	}
	form.Settings.LogicRules = []domain.LogicRule{{
		ID:      "hide-stack-for-users",
		Enabled: true,
		Conditions: []domain.Condition{
			{FieldID: "role", Operator: domain.OperatorEquals, Value: "user"},
		},
		Actions: []domain.RuleAction{{Type: domain.ActionHideField, Target: "stack"}},
	}}
	store.AddForm(form)
	ts := newAPIServer(t, store)

	s, err := session.New(form, httpSubmitter(ts.URL))
	require.NoError(t, err)
	defer s.Close()

	s.SetAnswer("role", "user")
	if _, hidden := s.Hidden()["stack"]; !hidden {
		t.Fatal("stack should be hidden for plain users")
	}

	// The hidden required field does not block the submit.
	conf, err := s.Submit(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, conf.Message)
}
