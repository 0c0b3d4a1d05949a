// Package uischema defines the typed render contract the backend emits for
// a public form. The frontend renders components from this schema -- it
// never decides what to show on its own.
package uischema

// UISchema is the top-level schema emitted for a form and an answer state.
type UISchema struct {
	Version     string      `json:"ui_schema_version"`
	FormID      string      `json:"form_id"`
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	Layout      string      `json:"layout"`
	Components  []Component `json:"components"`
	Submit      Submit      `json:"submit"`
}

// ComponentType identifies what component to render.
type ComponentType string

const (
	ComponentField      ComponentType = "field"
	ComponentHeading    ComponentType = "heading"
	ComponentSection    ComponentType = "section"
	ComponentDivider    ComponentType = "divider"
	ComponentSpacer     ComponentType = "spacer"
	ComponentPageBreak  ComponentType = "page_break"
	ComponentHoneypot   ComponentType = "honeypot"
	ComponentCaptcha    ComponentType = "captcha"
	ComponentGDPRNotice ComponentType = "gdpr_notice"
)

// Visibility controls component rendering. Hidden components stay in the
// schema so the frontend can animate them back in when a rule flips.
type Visibility string

const (
	VisibilityVisible Visibility = "visible"
	VisibilityHidden  Visibility = "hidden"
)

// Component is a single renderable element.
type Component struct {
	Type        ComponentType `json:"type"`
	FieldID     string        `json:"field_id,omitempty"`
	InputType   string        `json:"input_type,omitempty"`
	Label       string        `json:"label,omitempty"`
	Placeholder string        `json:"placeholder,omitempty"`
	Description string        `json:"description,omitempty"`
	Number      int           `json:"number,omitempty"`
	Required    bool          `json:"required,omitempty"`
	Options     []string      `json:"options,omitempty"`
	Visibility  Visibility    `json:"visibility"`
}

// Submit describes the submit control.
type Submit struct {
	Label string `json:"label"`
}
