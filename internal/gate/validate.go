package gate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xordon/webform-go/internal/domain"
	"github.com/xordon/webform-go/internal/logic"
)

// Sentinel validation failures. All failures are terminal for the current
// attempt and surfaced one at a time, never batched.
var (
	ErrSpamDetected    = errors.New("spam detected")
	ErrCaptchaRequired = errors.New("captcha verification required")
	ErrEmailRequired   = errors.New("email address is required")
)

// RequiredFieldError names the first required, non-hidden field left
// unanswered.
type RequiredFieldError struct {
	Field domain.FieldSpec
}

func (e *RequiredFieldError) Error() string {
	return fmt.Sprintf("required field %q is empty", e.Field.Label)
}

// CheckSubmission runs the pre-submit validation suite in its fixed order,
// returning the first failure:
//
//  1. honeypot filled → spam
//  2. CAPTCHA enabled but unverified
//  3. collect_email enabled but no email-typed field holds an address
//  4. first required non-hidden field with an empty answer
//
// The hidden set must come from logic.HiddenFieldIDs over the same data.
func CheckSubmission(form *domain.Form, data domain.SubmissionData, hidden map[domain.FieldID]struct{}, honeypot string, captchaVerified bool) error {
	s := form.Settings

	if s.EnableHoneypot && honeypot != "" {
		return ErrSpamDetected
	}
	if s.EnableCaptcha && !captchaVerified {
		return ErrCaptchaRequired
	}
	if s.CollectEmail && !hasEmailAnswer(form, data) {
		return ErrEmailRequired
	}
	for _, f := range logic.VisibleRequiredFields(form.Fields, hidden) {
		if domain.EmptyAnswer(data[string(f.ID)]) {
			return &RequiredFieldError{Field: f}
		}
	}
	return nil
}

// hasEmailAnswer reports whether the form has an email field and some
// answer looks like an address. A form with collect_email but no email
// field can never pass; that mirrors the product's behavior.
func hasEmailAnswer(form *domain.Form, data domain.SubmissionData) bool {
	if !form.HasFieldType(domain.FieldEmail) {
		return false
	}
	for _, v := range data {
		if s, ok := v.(string); ok && strings.Contains(s, "@") {
			return true
		}
	}
	return false
}
