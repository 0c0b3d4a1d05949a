package domain

import "fmt"

// ValidateForm checks the structural invariants a form definition must
// satisfy before the runtime will serve it.
func ValidateForm(f *Form) error {
	if f.ID == "" {
		return fmt.Errorf("form id is required")
	}
	if f.Title == "" {
		return fmt.Errorf("form title is required")
	}
	if !f.Status.Valid() {
		return fmt.Errorf("invalid status: %q", f.Status)
	}
	seen := make(map[FieldID]struct{}, len(f.Fields))
	for _, field := range f.Fields {
		if field.ID == "" {
			return fmt.Errorf("field %q has no id", field.Label)
		}
		if _, dup := seen[field.ID]; dup {
			return fmt.Errorf("duplicate field id %q", field.ID)
		}
		seen[field.ID] = struct{}{}
	}
	if f.Settings.EnablePassword && f.Settings.Password == "" {
		return fmt.Errorf("password protection enabled without a password")
	}
	if f.Settings.LimitResponses && f.Settings.MaxResponses <= 0 {
		return fmt.Errorf("response limit enabled with max_responses %d", f.Settings.MaxResponses)
	}
	return nil
}

// LintRules reports logic and confirmation rules that reference unknown
// field ids. The rule builder cannot guarantee referential integrity, so
// these are warnings, never errors: at evaluation time a dangling condition
// is unsatisfiable and a dangling action is a no-op.
func LintRules(f *Form) []string {
	known := make(map[FieldID]struct{}, len(f.Fields))
	for _, field := range f.Fields {
		known[field.ID] = struct{}{}
	}
	var warnings []string
	for _, rule := range f.Settings.LogicRules {
		for _, c := range rule.Conditions {
			if c.FieldID == "" {
				warnings = append(warnings, fmt.Sprintf("rule %q: condition with empty field id", rule.ID))
				continue
			}
			if _, ok := known[c.FieldID]; !ok {
				warnings = append(warnings, fmt.Sprintf("rule %q: condition references unknown field %q", rule.ID, c.FieldID))
			}
			if c.CompareWithField {
				if _, ok := known[FieldID(c.Value)]; !ok {
					warnings = append(warnings, fmt.Sprintf("rule %q: compare-with-field references unknown field %q", rule.ID, c.Value))
				}
			}
		}
		for _, a := range append(append([]RuleAction{}, rule.Actions...), rule.ElseActions...) {
			if a.Target == "" {
				continue
			}
			if _, ok := known[a.Target]; !ok {
				warnings = append(warnings, fmt.Sprintf("rule %q: action targets unknown field %q", rule.ID, a.Target))
			}
		}
	}
	for _, rule := range f.Settings.ConfirmationRules {
		if rule.Field == "" {
			continue // skipped at selection time, not worth a warning
		}
		if _, ok := known[rule.Field]; !ok {
			warnings = append(warnings, fmt.Sprintf("confirmation rule %q references unknown field %q", rule.ID, rule.Field))
		}
	}
	return warnings
}
