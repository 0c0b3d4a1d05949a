package gate

import (
	"errors"
	"testing"

	"github.com/xordon/webform-go/internal/domain"
	"github.com/xordon/webform-go/internal/logic"
)

func surveyForm() *domain.Form {
	return &domain.Form{
		ID:     "f1",
		Title:  "Survey",
		Status: domain.StatusPublished,
		Fields: []domain.FieldSpec{
			{ID: "intro", Type: domain.FieldHeading, Label: "Welcome"},
			{ID: "name", Type: domain.FieldText, Label: "Full Name", Required: true},
			{ID: "email", Type: domain.FieldEmail, Label: "Email", Required: false},
			{ID: "extra", Type: domain.FieldText, Label: "Extra", Required: true},
		},
	}
}

func noHidden() map[domain.FieldID]struct{} { return map[domain.FieldID]struct{}{} }

func TestCheckSubmissionOrder(t *testing.T) {
	t.Parallel()

	t.Run("honeypot outranks everything", func(t *testing.T) {
		t.Parallel()
		form := surveyForm()
		form.Settings.EnableHoneypot = true
		form.Settings.EnableCaptcha = true
		err := CheckSubmission(form, domain.SubmissionData{}, noHidden(), "gotcha", false)
		if !errors.Is(err, ErrSpamDetected) {
			t.Fatalf("err = %v, want ErrSpamDetected", err)
		}
	})

	t.Run("empty honeypot passes", func(t *testing.T) {
		t.Parallel()
		form := surveyForm()
		form.Settings.EnableHoneypot = true
		err := CheckSubmission(form, answers(), noHidden(), "", false)
		if err != nil {
			t.Fatalf("err = %v", err)
		}
	})

	t.Run("captcha before required fields", func(t *testing.T) {
		t.Parallel()
		form := surveyForm()
		form.Settings.EnableCaptcha = true
		err := CheckSubmission(form, domain.SubmissionData{}, noHidden(), "", false)
		if !errors.Is(err, ErrCaptchaRequired) {
			t.Fatalf("err = %v, want ErrCaptchaRequired", err)
		}
	})

	t.Run("captcha verified passes", func(t *testing.T) {
		t.Parallel()
		form := surveyForm()
		form.Settings.EnableCaptcha = true
		if err := CheckSubmission(form, answers(), noHidden(), "", true); err != nil {
			t.Fatalf("err = %v", err)
		}
	})

	t.Run("collect email needs an address", func(t *testing.T) {
		t.Parallel()
		form := surveyForm()
		form.Settings.CollectEmail = true
		data := answers()
		delete(data, "email")
		err := CheckSubmission(form, data, noHidden(), "", false)
		if !errors.Is(err, ErrEmailRequired) {
			t.Fatalf("err = %v, want ErrEmailRequired", err)
		}
	})

	t.Run("collect email rejects address without at sign", func(t *testing.T) {
		t.Parallel()
		form := surveyForm()
		form.Settings.CollectEmail = true
		data := answers()
		data["email"] = "not-an-address"
		err := CheckSubmission(form, data, noHidden(), "", false)
		if !errors.Is(err, ErrEmailRequired) {
			t.Fatalf("err = %v, want ErrEmailRequired", err)
		}
	})

	t.Run("collect email fails when the form has no email field", func(t *testing.T) {
		t.Parallel()
		form := surveyForm()
		form.Settings.CollectEmail = true
		form.Fields = form.Fields[:2] // heading + name only
		data := domain.SubmissionData{"name": "a@b.c"}
		err := CheckSubmission(form, data, noHidden(), "", false)
		if !errors.Is(err, ErrEmailRequired) {
			t.Fatalf("err = %v, want ErrEmailRequired", err)
		}
	})

	t.Run("first empty required field reported by label", func(t *testing.T) {
		t.Parallel()
		form := surveyForm()
		err := CheckSubmission(form, domain.SubmissionData{}, noHidden(), "", false)
		var rf *RequiredFieldError
		if !errors.As(err, &rf) {
			t.Fatalf("err = %v, want RequiredFieldError", err)
		}
		if rf.Field.Label != "Full Name" {
			t.Errorf("Field.Label = %q, want first required field", rf.Field.Label)
		}
	})

	t.Run("hidden required field is skipped", func(t *testing.T) {
		t.Parallel()
		form := surveyForm()
		hidden := map[domain.FieldID]struct{}{"name": {}, "extra": {}}
		if err := CheckSubmission(form, domain.SubmissionData{}, hidden, "", false); err != nil {
			t.Fatalf("err = %v", err)
		}
	})
}

func TestCheckSubmissionEmptiness(t *testing.T) {
	t.Parallel()
	form := &domain.Form{
		ID:     "f1",
		Status: domain.StatusPublished,
		Fields: []domain.FieldSpec{{ID: "q", Type: domain.FieldNumber, Label: "Quantity", Required: true}},
	}
	tests := []struct {
		name  string
		value any
		empty bool
	}{
		{name: "nil", value: nil, empty: true},
		{name: "empty string", value: "", empty: true},
		{name: "false", value: false, empty: true},
		{name: "empty slice", value: []any{}, empty: true},
		{name: "zero is a valid answer", value: float64(0), empty: false},
		{name: "true", value: true, empty: false},
		{name: "text", value: "x", empty: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := CheckSubmission(form, domain.SubmissionData{"q": tt.value}, noHidden(), "", false)
			var rf *RequiredFieldError
			gotEmpty := errors.As(err, &rf)
			if gotEmpty != tt.empty {
				t.Errorf("value %v: empty = %v, want %v (err %v)", tt.value, gotEmpty, tt.empty, err)
			}
		})
	}
}

// The hidden set fed to CheckSubmission normally comes straight from the
// rules; this end-to-end pairing mirrors how callers wire the two.
func TestCheckSubmissionWithRules(t *testing.T) {
	t.Parallel()
	form := surveyForm()
	form.Settings.LogicRules = []domain.LogicRule{{
		ID:      "hide-extra",
		Enabled: true,
		Conditions: []domain.Condition{
			{FieldID: "name", Operator: domain.OperatorContains, Value: "anon"},
		},
		Actions: []domain.RuleAction{{Type: domain.ActionHideField, Target: "extra"}},
	}}

	data := domain.SubmissionData{"name": "Anonymous"}
	hidden := logic.HiddenFieldIDs(form.Settings.LogicRules, data)
	if err := CheckSubmission(form, data, hidden, "", false); err != nil {
		t.Fatalf("hidden required field should not fail validation: %v", err)
	}
}

func answers() domain.SubmissionData {
	return domain.SubmissionData{
		"name":  "Ada Lovelace",
		"email": "ada@example.com",
		"extra": "yes",
	}
}
