package uischema

import (
	"github.com/xordon/webform-go/internal/domain"
)

const schemaVersion = "1.0"

const defaultSubmitLabel = "Submit"

// Build assembles the render schema for a form given the currently hidden
// field set. Hidden fields are emitted with hidden visibility; decorative
// fields never get a number.
func Build(form *domain.Form, hidden map[domain.FieldID]struct{}) UISchema {
	s := form.Settings

	schema := UISchema{
		Version:     schemaVersion,
		FormID:      form.ID,
		Title:       form.Title,
		Description: form.Description,
		Layout:      string(form.Type),
	}

	// The honeypot renders first so bots fill it before the real fields.
	if s.EnableHoneypot {
		schema.Components = append(schema.Components, Component{
			Type:       ComponentHoneypot,
			Visibility: VisibilityHidden,
		})
	}

	number := 0
	for _, f := range form.Fields {
		vis := VisibilityVisible
		if _, ok := hidden[f.ID]; ok {
			vis = VisibilityHidden
		}

		if f.Type.Decorative() {
			schema.Components = append(schema.Components, Component{
				Type:        decorativeComponent(f.Type),
				FieldID:     f.ID.String(),
				Label:       f.Label,
				Description: f.Description,
				Visibility:  vis,
			})
			continue
		}

		number++
		c := Component{
			Type:        ComponentField,
			FieldID:     f.ID.String(),
			InputType:   string(f.Type),
			Label:       f.Label,
			Placeholder: f.Placeholder,
			Description: f.Description,
			Required:    f.Required,
			Options:     f.Options,
			Visibility:  vis,
		}
		if s.Design.ShowFieldNumbers {
			c.Number = number
		}
		schema.Components = append(schema.Components, c)
	}

	if s.EnableCaptcha {
		schema.Components = append(schema.Components, Component{
			Type:       ComponentCaptcha,
			Visibility: VisibilityVisible,
		})
	}
	if s.GDPRCompliant {
		schema.Components = append(schema.Components, Component{
			Type:       ComponentGDPRNotice,
			Visibility: VisibilityVisible,
		})
	}

	schema.Submit = Submit{Label: defaultSubmitLabel}
	if s.Design.ButtonText != "" {
		schema.Submit.Label = s.Design.ButtonText
	}
	return schema
}

func decorativeComponent(t domain.FieldType) ComponentType {
	switch t {
	case domain.FieldHeading:
		return ComponentHeading
	case domain.FieldSection:
		return ComponentSection
	case domain.FieldDivider:
		return ComponentDivider
	case domain.FieldSpacer:
		return ComponentSpacer
	default:
		return ComponentPageBreak
	}
}
