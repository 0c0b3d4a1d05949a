package domain

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// FieldID is a field identifier. The rule builder stores ids as strings but
// older forms carry numeric ids, so JSON decoding accepts both and
// normalizes to the string form.
type FieldID string

func (id *FieldID) UnmarshalJSON(b []byte) error {
	if len(b) == 0 || string(b) == "null" {
		*id = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = FieldID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = FieldID(n.String())
	return nil
}

func (id FieldID) String() string { return string(id) }

// FieldSpec describes a single form field.
type FieldSpec struct {
	ID          FieldID   `json:"id"`
	Type        FieldType `json:"type"`
	Label       string    `json:"label"`
	Placeholder string    `json:"placeholder,omitempty"`
	Description string    `json:"description,omitempty"`
	Required    bool      `json:"required"`
	Options     []string  `json:"options,omitempty"`
	Position    int       `json:"position,omitempty"`
}

// LabelSlug is the label lower-cased with whitespace collapsed to
// underscores, used by the confirmation-message variable language.
func (f FieldSpec) LabelSlug() string {
	return strings.Join(strings.Fields(strings.ToLower(f.Label)), "_")
}

// Condition is a single predicate inside a logic rule. When
// CompareWithField is set, Value names another field whose current answer
// supplies the right-hand side.
type Condition struct {
	FieldID          FieldID  `json:"fieldId"`
	Operator         Operator `json:"operator"`
	Value            string   `json:"value"`
	CaseInsensitive  bool     `json:"caseInsensitive,omitempty"`
	CompareWithField bool     `json:"compareWithField,omitempty"`
}

// RuleAction hides or shows a target field.
type RuleAction struct {
	Type   ActionType `json:"type"`
	Target FieldID    `json:"target"`
}

// LogicRule is a conditional show/hide rule. Rules are static for a
// rendering session; only their evaluation result changes with the answers.
type LogicRule struct {
	ID             string         `json:"id"`
	Name           string         `json:"name,omitempty"`
	Enabled        bool           `json:"enabled"`
	ConditionLogic ConditionLogic `json:"conditionLogic"`
	Conditions     []Condition    `json:"conditions"`
	Actions        []RuleAction   `json:"actions"`
	ElseActions    []RuleAction   `json:"elseActions,omitempty"`
	ElseEnabled    bool           `json:"elseEnabled,omitempty"`
}

// ConfirmationRule overrides the post-submit message or redirect when its
// condition matches the final submission data. First matching rule wins.
type ConfirmationRule struct {
	ID          string   `json:"id"`
	Field       FieldID  `json:"field"`
	Operator    Operator `json:"operator"`
	Value       string   `json:"value"`
	Message     string   `json:"message"`
	RedirectURL string   `json:"redirect_url,omitempty"`
}

// Form is a server-supplied form definition, immutable for the duration of
// a rendering session.
type Form struct {
	ID              string       `json:"id"`
	Title           string       `json:"title"`
	Description     string       `json:"description,omitempty"`
	Type            FormType     `json:"type"`
	Status          FormStatus   `json:"status"`
	SubmissionCount int          `json:"submission_count"`
	Fields          []FieldSpec  `json:"fields"`
	Settings        FormSettings `json:"settings"`
}

// UnmarshalJSON decodes a form, funneling the settings bag through
// ParseSettings so defaults apply exactly once. Older rows double-encode
// settings as a JSON string; both shapes are accepted.
func (f *Form) UnmarshalJSON(b []byte) error {
	type alias Form
	aux := struct {
		*alias
		Settings json.RawMessage `json:"settings"`
	}{alias: (*alias)(f)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	raw := aux.Settings
	if len(raw) > 0 && raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return err
		}
		raw = json.RawMessage(inner)
	}
	settings, err := ParseSettings(raw)
	if err != nil {
		return err
	}
	f.Settings = settings
	return nil
}

// Field returns the field with the given id, or nil.
func (f *Form) Field(id FieldID) *FieldSpec {
	for i := range f.Fields {
		if f.Fields[i].ID == id {
			return &f.Fields[i]
		}
	}
	return nil
}

// HasFieldType reports whether any field has the given type.
func (f *Form) HasFieldType(t FieldType) bool {
	for i := range f.Fields {
		if f.Fields[i].Type == t {
			return true
		}
	}
	return false
}

// SubmissionData is the visitor's in-progress answer set, keyed by field
// id. Values arrive from JSON so they may be strings, numbers, booleans or
// option slices; comparison always happens on the string rendering.
type SubmissionData map[string]any

// ValueString renders an answer value the way the rule evaluator compares
// it: nil becomes the empty string, scalars their plain rendering, and
// slices a comma-joined list.
func ValueString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case json.Number:
		return x.String()
	case []string:
		return strings.Join(x, ",")
	case []any:
		parts := make([]string, len(x))
		for i, e := range x {
			parts[i] = ValueString(e)
		}
		return strings.Join(parts, ",")
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// EmptyAnswer reports whether a value fails a required check. Zero is a
// valid answer; nil, empty strings, false and empty option lists are not.
func EmptyAnswer(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	case bool:
		return !x
	case []string:
		return len(x) == 0
	case []any:
		return len(x) == 0
	default:
		return false
	}
}

// Submission is a stored form response.
type Submission struct {
	ID              string           `json:"id"`
	FormID          string           `json:"form_id"`
	Data            SubmissionData   `json:"data"`
	IPAddress       string           `json:"ip_address,omitempty"`
	UserAgent       string           `json:"user_agent,omitempty"`
	RespondentEmail string           `json:"respondent_email,omitempty"`
	RespondentPhone string           `json:"respondent_phone,omitempty"`
	Status          SubmissionStatus `json:"status"`
	CreatedAt       time.Time        `json:"created_at"`
}

// NewSubmission creates a Submission with a generated id.
func NewSubmission(formID string, data SubmissionData) *Submission {
	return &Submission{
		ID:        uuid.NewString(),
		FormID:    formID,
		Data:      data,
		Status:    SubmissionNew,
		CreatedAt: time.Now().UTC(),
	}
}

// ExtractRespondent pulls a respondent email and phone out of submission
// data: the first answered field that reads as an email (by type, label or
// id) and contains an address, and the first phone-ish answered field.
// Fields are scanned in form order so the result is deterministic.
func ExtractRespondent(fields []FieldSpec, data SubmissionData) (email, phone string) {
	matches := func(f FieldSpec, needles ...string) bool {
		hay := strings.ToLower(string(f.ID) + " " + f.Label + " " + string(f.Type))
		for _, n := range needles {
			if strings.Contains(hay, n) {
				return true
			}
		}
		return false
	}
	for _, f := range fields {
		v, ok := data[string(f.ID)]
		if !ok {
			continue
		}
		val := ValueString(v)
		if val == "" {
			continue
		}
		if email == "" && matches(f, "email") && strings.Contains(val, "@") {
			email = val
		}
		if phone == "" && matches(f, "phone", "tel", "mobile") {
			phone = val
		}
	}
	return email, phone
}

// Webhook is an outbound subscription notified about form events.
type Webhook struct {
	ID      string            `json:"id"`
	FormID  string            `json:"form_id,omitempty"` // empty = all forms
	URL     string            `json:"url"`
	Method  string            `json:"method,omitempty"` // default POST
	Headers map[string]string `json:"headers,omitempty"`
	Events  []string          `json:"events"`
	Enabled bool              `json:"enabled"`
}

// Subscribed reports whether the webhook wants the named event.
func (w Webhook) Subscribed(event string) bool {
	for _, e := range w.Events {
		if e == event {
			return true
		}
	}
	return false
}
