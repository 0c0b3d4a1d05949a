package logic

import (
	"strings"
	"time"

	"github.com/xordon/webform-go/internal/domain"
)

// DefaultConfirmationMessage is the final fallback when neither a matching
// override nor a configured success message exists.
const DefaultConfirmationMessage = "Thank you for your submission!"

// PickConfirmationOverride scans the confirmation rules in array order and
// returns the first whose condition holds against the final submission
// data, or nil. Rules without a field are skipped. Order is the only
// tie-break: two matching rules resolve to the earlier one.
func PickConfirmationOverride(rules []domain.ConfirmationRule, data domain.SubmissionData) *domain.ConfirmationRule {
	for i := range rules {
		rule := &rules[i]
		if rule.Field == "" {
			continue
		}
		left := domain.ValueString(data[string(rule.Field)])
		if EvaluateOperator(rule.Operator, left, rule.Value) {
			return rule
		}
	}
	return nil
}

// Confirmation is the resolved post-submit outcome: the message to show
// and, when set, where to navigate after the delay.
type Confirmation struct {
	Message     string
	RedirectURL string
	Delay       time.Duration
}

// ResolveConfirmation selects the override (if any), resolves the message
// precedence chain and substitutes template variables. submissionID may be
// empty when the server did not return one.
func ResolveConfirmation(form *domain.Form, data domain.SubmissionData, submissionID string, now time.Time) Confirmation {
	override := PickConfirmationOverride(form.Settings.ConfirmationRules, data)

	msg := ""
	redirect := ""
	if override != nil {
		msg = override.Message
		redirect = override.RedirectURL
	}
	if msg == "" {
		msg = form.Settings.Design.SuccessMessage
	}
	if msg == "" {
		msg = form.Settings.ConfirmationMessage
	}
	if msg == "" {
		msg = DefaultConfirmationMessage
	}
	if redirect == "" && form.Settings.Design.RedirectAfterSubmit {
		redirect = form.Settings.Design.RedirectURL
	}

	return Confirmation{
		Message:     SubstituteVariables(msg, form, data, submissionID, now),
		RedirectURL: redirect,
		Delay:       form.Settings.RedirectDelay(),
	}
}

// SubstituteVariables replaces the confirmation mini-language placeholders:
// {{label_slug}} and {{field_id}} for each answered field, plus
// {{form_title}}, {{submission_id}} and {{submission_date}}. All
// replacements are literal substring substitutions.
func SubstituteVariables(text string, form *domain.Form, data domain.SubmissionData, submissionID string, now time.Time) string {
	out := text
	for _, f := range form.Fields {
		v, ok := data[string(f.ID)]
		if !ok {
			continue
		}
		val := domain.ValueString(v)
		if slug := f.LabelSlug(); slug != "" {
			out = strings.ReplaceAll(out, "{{"+slug+"}}", val)
		}
		out = strings.ReplaceAll(out, "{{"+string(f.ID)+"}}", val)
	}
	out = strings.ReplaceAll(out, "{{form_title}}", form.Title)
	out = strings.ReplaceAll(out, "{{submission_id}}", submissionID)
	out = strings.ReplaceAll(out, "{{submission_date}}", now.Format("2006-01-02"))
	return out
}
