// Package i18n localizes the visitor-facing gate and validation messages.
// English defaults are embedded; additional locales load from
// locales/active.*.toml next to the binary.
package i18n

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"

	"github.com/xordon/webform-go/internal/gate"
)

// Messages resolves localized visitor-facing text.
type Messages struct {
	bundle   *i18n.Bundle
	localize *i18n.Localizer
}

// New loads the embedded defaults plus any locale files and localizes for
// the given language.
func New(lang string) (*Messages, error) {
	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)
	bundle.MustParseMessageFileBytes([]byte(defaultMessages), "default.en.toml")

	files, err := filepath.Glob("locales/active.*.toml")
	if err != nil {
		return nil, fmt.Errorf("i18n: reading locales: %w", err)
	}
	for _, file := range files {
		if _, err := bundle.LoadMessageFile(file); err != nil {
			return nil, fmt.Errorf("i18n: loading locale file %s: %w", file, err)
		}
	}
	return &Messages{
		bundle:   bundle,
		localize: i18n.NewLocalizer(bundle, lang),
	}, nil
}

func (m *Messages) get(id string, data map[string]any) string {
	localized, err := m.localize.Localize(&i18n.LocalizeConfig{
		DefaultMessage: &i18n.Message{ID: id},
		TemplateData:   data,
	})
	if err != nil {
		return "Translation missing: " + id
	}
	return localized
}

// Gate renders the visitor-facing message for a blocking gate state.
func (m *Messages) Gate(d gate.Decision) string {
	var date string
	if d.Boundary != nil {
		date = d.Boundary.Format("January 2, 2006")
	}
	switch d.State {
	case gate.StateNotFound:
		return m.get("form_not_found", nil)
	case gate.StateUnpublished:
		return m.get("form_unpublished", nil)
	case gate.StateDuplicateBlocked:
		return m.get("already_submitted", nil)
	case gate.StateLimitReached:
		return m.get("limit_reached", nil)
	case gate.StateScheduledNotOpen:
		return m.get("not_yet_open", map[string]any{"Date": date})
	case gate.StateScheduledClosed:
		return m.get("form_closed", map[string]any{"Date": date})
	case gate.StateLoginRequired:
		return m.get("login_required", nil)
	case gate.StatePasswordRequired:
		return m.get("password_required", nil)
	default:
		return ""
	}
}

// Validation renders the visitor-facing message for a pre-submit
// validation failure, naming the offending field where applicable.
func (m *Messages) Validation(err error) string {
	var reqErr *gate.RequiredFieldError
	switch {
	case errors.Is(err, gate.ErrSpamDetected):
		return m.get("spam_detected", nil)
	case errors.Is(err, gate.ErrCaptchaRequired):
		return m.get("captcha_required", nil)
	case errors.Is(err, gate.ErrEmailRequired):
		return m.get("email_required", nil)
	case errors.As(err, &reqErr):
		return m.get("required_field", map[string]any{"Label": reqErr.Field.Label})
	default:
		return err.Error()
	}
}

// PasswordIncorrect is the rejection for a wrong password attempt.
func (m *Messages) PasswordIncorrect() string {
	return m.get("password_incorrect", nil)
}

var defaultMessages = `
	[form_not_found]
	other = "This form may have been deleted or is no longer available."

	[form_unpublished]
	other = "This form is not currently accepting responses."

	[already_submitted]
	other = "You have already submitted this form. Multiple submissions are not allowed."

	[limit_reached]
	other = "This form has reached its maximum number of submissions and is no longer accepting responses."

	[not_yet_open]
	other = "This form will open on {{.Date}}."

	[form_closed]
	other = "This form closed on {{.Date}}."

	[login_required]
	other = "You must be logged in to access this form."

	[password_required]
	other = "Enter the password to access this form."

	[password_incorrect]
	other = "Incorrect password"

	[spam_detected]
	other = "Spam detected"

	[captcha_required]
	other = "Please complete the CAPTCHA"

	[email_required]
	other = "Email address is required"

	[required_field]
	other = "Please fill in \"{{.Label}}\""
	`
