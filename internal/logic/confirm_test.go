package logic

import (
	"testing"
	"time"

	"github.com/xordon/webform-go/internal/domain"
)

func TestPickConfirmationOverride(t *testing.T) {
	t.Parallel()
	rules := []domain.ConfirmationRule{
		{ID: "skip", Operator: domain.OperatorEquals, Value: "x", Message: "no field"},
		{ID: "first", Field: "plan", Operator: domain.OperatorEquals, Value: "pro", Message: "first"},
		{ID: "second", Field: "plan", Operator: domain.OperatorContains, Value: "pro", Message: "second"},
	}

	t.Run("first match wins", func(t *testing.T) {
		t.Parallel()
		got := PickConfirmationOverride(rules, domain.SubmissionData{"plan": "pro"})
		if got == nil || got.ID != "first" {
			t.Fatalf("got %+v, want rule first", got)
		}
	})

	t.Run("later rule matches when earlier misses", func(t *testing.T) {
		t.Parallel()
		got := PickConfirmationOverride(rules, domain.SubmissionData{"plan": "PRO plus"})
		if got == nil || got.ID != "second" {
			t.Fatalf("got %+v, want rule second (contains is case-insensitive)", got)
		}
	})

	t.Run("no match", func(t *testing.T) {
		t.Parallel()
		if got := PickConfirmationOverride(rules, domain.SubmissionData{"plan": "basic"}); got != nil {
			t.Fatalf("got %+v, want nil", got)
		}
	})
}

func TestResolveConfirmationPrecedence(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	base := func() *domain.Form {
		return &domain.Form{
			ID:     "f1",
			Title:  "Contact",
			Status: domain.StatusPublished,
			Fields: []domain.FieldSpec{{ID: "plan", Type: domain.FieldText, Label: "Plan"}},
		}
	}

	t.Run("override beats design and settings", func(t *testing.T) {
		t.Parallel()
		form := base()
		form.Settings.ConfirmationRules = []domain.ConfirmationRule{
			{ID: "r", Field: "plan", Operator: domain.OperatorEquals, Value: "pro", Message: "Welcome, pro!", RedirectURL: "https://example.com/pro"},
		}
		form.Settings.Design.SuccessMessage = "design message"
		form.Settings.ConfirmationMessage = "settings message"

		got := ResolveConfirmation(form, domain.SubmissionData{"plan": "pro"}, "s1", now)
		if got.Message != "Welcome, pro!" {
			t.Errorf("Message = %q", got.Message)
		}
		if got.RedirectURL != "https://example.com/pro" {
			t.Errorf("RedirectURL = %q", got.RedirectURL)
		}
	})

	t.Run("design success message beats settings message", func(t *testing.T) {
		t.Parallel()
		form := base()
		form.Settings.Design.SuccessMessage = "design message"
		form.Settings.ConfirmationMessage = "settings message"

		got := ResolveConfirmation(form, nil, "", now)
		if got.Message != "design message" {
			t.Errorf("Message = %q", got.Message)
		}
	})

	t.Run("settings message beats default", func(t *testing.T) {
		t.Parallel()
		form := base()
		form.Settings.ConfirmationMessage = "settings message"
		got := ResolveConfirmation(form, nil, "", now)
		if got.Message != "settings message" {
			t.Errorf("Message = %q", got.Message)
		}
	})

	t.Run("default fallback", func(t *testing.T) {
		t.Parallel()
		got := ResolveConfirmation(base(), nil, "", now)
		if got.Message != DefaultConfirmationMessage {
			t.Errorf("Message = %q", got.Message)
		}
	})

	t.Run("design redirect applies without override", func(t *testing.T) {
		t.Parallel()
		form := base()
		form.Settings.Design.RedirectAfterSubmit = true
		form.Settings.Design.RedirectURL = "https://example.com/thanks"
		form.Settings.Design.RedirectDelay = 5

		got := ResolveConfirmation(form, nil, "", now)
		if got.RedirectURL != "https://example.com/thanks" {
			t.Errorf("RedirectURL = %q", got.RedirectURL)
		}
		if got.Delay != 5*time.Second {
			t.Errorf("Delay = %v", got.Delay)
		}
	})
}

func TestSubstituteVariables(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	form := &domain.Form{
		ID:    "f1",
		Title: "Contact Us",
		Fields: []domain.FieldSpec{
			{ID: "name", Type: domain.FieldText, Label: "Your  Name"},
			{ID: "42", Type: domain.FieldText, Label: ""},
		},
	}
	data := domain.SubmissionData{"name": "Ada", "42": "numeric"}

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "label slug", in: "Thanks {{your_name}}!", want: "Thanks Ada!"},
		{name: "field id", in: "Thanks {{name}}!", want: "Thanks Ada!"},
		{name: "numeric field id", in: "got {{42}}", want: "got numeric"},
		{name: "form title", in: "{{form_title}} received", want: "Contact Us received"},
		{name: "submission id", in: "ref {{submission_id}}", want: "ref sub-7"},
		{name: "submission date", in: "on {{submission_date}}", want: "on 2026-03-14"},
		{name: "unknown placeholder untouched", in: "{{nope}}", want: "{{nope}}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := SubstituteVariables(tt.in, form, data, "sub-7", now)
			if got != tt.want {
				t.Errorf("SubstituteVariables(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
