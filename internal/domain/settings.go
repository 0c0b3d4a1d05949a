package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// DesignSettings carries the presentation options the runtime actually
// consults: the success message and redirect behavior. Colors, fonts and
// layout are rendering concerns and are not modeled here.
type DesignSettings struct {
	SuccessMessage      string `json:"successMessage,omitempty"`
	ButtonText          string `json:"buttonText,omitempty"`
	ShowFieldNumbers    bool   `json:"show_field_numbers,omitempty"`
	RedirectAfterSubmit bool   `json:"redirectAfterSubmit,omitempty"`
	RedirectURL         string `json:"redirectUrl,omitempty"`
	RedirectDelay       int    `json:"redirectDelay,omitempty"` // seconds, default 3
}

// FormSettings is the typed form configuration. The builder stores settings
// as a loosely-shaped JSON bag; ParseSettings decodes it exactly once at
// form-load time and applies defaults, so every later read is a plain
// struct access.
type FormSettings struct {
	LogicRules        []LogicRule        `json:"logic_rules,omitempty"`
	ConfirmationRules []ConfirmationRule `json:"confirmation_rules,omitempty"`

	EnablePassword bool   `json:"enable_password,omitempty"`
	Password       string `json:"password,omitempty"`
	EnableCaptcha  bool   `json:"enable_captcha,omitempty"`
	EnableHoneypot bool   `json:"enable_honeypot,omitempty"`
	RequireLogin   bool   `json:"require_login,omitempty"`

	StartDate    *Timestamp `json:"start_date,omitempty"`
	EnableExpiry bool       `json:"enable_expiry,omitempty"`
	ExpiryDate   *Timestamp `json:"expiry_date,omitempty"`

	LimitResponses    bool `json:"limit_responses,omitempty"`
	MaxResponses      int  `json:"max_responses,omitempty"`
	PreventDuplicates bool `json:"prevent_duplicates,omitempty"`

	AutoSave      bool `json:"auto_save,omitempty"`
	CollectEmail  bool `json:"collect_email,omitempty"`
	GDPRCompliant bool `json:"gdpr_compliant,omitempty"`

	// TrackIPAddress defaults to true; decoded via pointer so an absent
	// key is distinguishable from an explicit false.
	TrackIPAddress *bool `json:"track_ip_address,omitempty"`

	ConfirmationMessage string `json:"confirmation_message,omitempty"`
	ThankYouTitle       string `json:"thankYouTitle,omitempty"`
	AdditionalText      string `json:"additional_text,omitempty"`
	FillAgain           bool   `json:"fill_again,omitempty"`

	MultiStepStyle string `json:"multiStepStyle,omitempty"` // default "pagination"

	Design DesignSettings `json:"design,omitempty"`
}

// ParseSettings decodes the raw settings bag. Unknown keys are ignored;
// missing keys get their documented defaults. A nil or empty bag is a valid
// all-defaults configuration.
func ParseSettings(raw json.RawMessage) (FormSettings, error) {
	var s FormSettings
	if len(raw) > 0 && string(raw) != "null" {
		if err := json.Unmarshal(raw, &s); err != nil {
			return FormSettings{}, fmt.Errorf("settings: decode: %w", err)
		}
	}
	s.applyDefaults()
	return s, nil
}

func (s *FormSettings) applyDefaults() {
	if s.Design.RedirectDelay <= 0 {
		s.Design.RedirectDelay = 3
	}
	if s.MultiStepStyle == "" {
		s.MultiStepStyle = "pagination"
	}
}

// TrackIP reports whether IP and user-agent capture is enabled (the
// default unless explicitly switched off).
func (s FormSettings) TrackIP() bool {
	return s.TrackIPAddress == nil || *s.TrackIPAddress
}

// RedirectDelay returns the configured post-submit redirect delay.
func (s FormSettings) RedirectDelay() time.Duration {
	d := s.Design.RedirectDelay
	if d <= 0 {
		d = 3
	}
	return time.Duration(d) * time.Second
}

// Timestamp is a schedule boundary. The builder writes several layouts
// (RFC 3339, datetime-local, bare date), all accepted here.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("settings: unrecognized timestamp %q", s)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return json.Marshal("")
	}
	return json.Marshal(t.Format(time.RFC3339))
}
