package domain

// FormStatus is the publication state of a form.
type FormStatus string

const (
	StatusDraft     FormStatus = "draft"
	StatusPublished FormStatus = "published"
	StatusArchived  FormStatus = "archived"
)

func (s FormStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusPublished, StatusArchived:
		return true
	}
	return false
}

// FormType distinguishes single-page from multi-step forms.
type FormType string

const (
	TypeSimple    FormType = "simple"
	TypeMultiStep FormType = "multi_step"
)

// Operator is a comparison operator used by logic and confirmation rules.
//
// equals and not_equals are case-sensitive unless the condition requests
// otherwise; contains is always case-insensitive regardless of that flag.
// The asymmetry comes from the visual rule builder and is preserved.
type Operator string

const (
	OperatorEquals    Operator = "equals"
	OperatorNotEquals Operator = "not_equals"
	OperatorContains  Operator = "contains"
)

func (o Operator) Valid() bool {
	switch o {
	case OperatorEquals, OperatorNotEquals, OperatorContains:
		return true
	}
	return false
}

// ConditionLogic selects how a rule combines its conditions.
type ConditionLogic string

const (
	LogicAll ConditionLogic = "all"
	LogicAny ConditionLogic = "any"
)

// ActionType is what a matched logic rule does to its target field.
type ActionType string

const (
	ActionHideField ActionType = "hide_field"
	ActionShowField ActionType = "show_field"
)

// FieldType classifies a form field.
type FieldType string

const (
	FieldText      FieldType = "text"
	FieldTextarea  FieldType = "textarea"
	FieldEmail     FieldType = "email"
	FieldPhone     FieldType = "phone"
	FieldNumber    FieldType = "number"
	FieldSelect    FieldType = "select"
	FieldRadio     FieldType = "radio"
	FieldCheckbox  FieldType = "checkbox"
	FieldDate      FieldType = "date"
	FieldHeading   FieldType = "heading"
	FieldSection   FieldType = "section"
	FieldDivider   FieldType = "divider"
	FieldSpacer    FieldType = "spacer"
	FieldPageBreak FieldType = "page_break"
)

// Decorative reports whether the field is layout-only: it collects no
// answer and is excluded from field numbering and required validation.
func (t FieldType) Decorative() bool {
	switch t {
	case FieldHeading, FieldSection, FieldDivider, FieldSpacer, FieldPageBreak:
		return true
	}
	return false
}

// SubmissionStatus tracks the review state of a stored submission.
type SubmissionStatus string

const (
	SubmissionNew  SubmissionStatus = "new"
	SubmissionRead SubmissionStatus = "read"
)
