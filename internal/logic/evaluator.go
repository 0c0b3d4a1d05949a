// Package logic implements the conditional-logic evaluator for form rules:
// operator evaluation, the hidden-field-set resolver, and post-submit
// confirmation-override selection. Everything here is a pure function of
// the rule list and the current answer set; malformed rules never error:
// a dangling condition is unsatisfiable and a dangling action is a no-op,
// so misconfigured forms fail open (the field stays visible).
package logic

import (
	"strings"

	"github.com/xordon/webform-go/internal/domain"
)

// EvaluateOperator compares two already-coerced string values.
//
// equals and not_equals are exact comparisons; contains is always
// case-insensitive, regardless of any per-condition flag. An unknown
// operator never matches.
func EvaluateOperator(op domain.Operator, left, right string) bool {
	switch op {
	case domain.OperatorEquals:
		return left == right
	case domain.OperatorNotEquals:
		return left != right
	case domain.OperatorContains:
		return strings.Contains(strings.ToLower(left), strings.ToLower(right))
	default:
		return false
	}
}

// evaluateCondition resolves a condition's operands against the answer set
// and delegates to EvaluateOperator. A condition without a field id is
// unsatisfiable.
func evaluateCondition(c domain.Condition, data domain.SubmissionData) bool {
	if c.FieldID == "" {
		return false
	}
	left := domain.ValueString(data[string(c.FieldID)])
	var right string
	if c.CompareWithField {
		// The rule's value names another field; compare answer to answer.
		right = domain.ValueString(data[c.Value])
	} else {
		right = c.Value
	}
	if c.CaseInsensitive {
		left = strings.ToLower(left)
		right = strings.ToLower(right)
	}
	return EvaluateOperator(c.Operator, left, right)
}

// ruleMatches applies the rule's condition logic. A rule with zero
// conditions never matches.
func ruleMatches(rule domain.LogicRule, data domain.SubmissionData) bool {
	if len(rule.Conditions) == 0 {
		return false
	}
	if rule.ConditionLogic == domain.LogicAny {
		for _, c := range rule.Conditions {
			if evaluateCondition(c, data) {
				return true
			}
		}
		return false
	}
	// ALL is the default for any other value.
	for _, c := range rule.Conditions {
		if !evaluateCondition(c, data) {
			return false
		}
	}
	return true
}

// HiddenFieldIDs computes the set of field ids currently suppressed by the
// logic rules. It folds over enabled rules in array order against a single
// accumulator: hide_field adds the target, show_field removes it, so a
// later rule can undo an earlier one and the last action on a field wins.
// Callers must re-run the full list on every answer change rather than
// patch the set incrementally; the result is a fresh snapshot each call.
func HiddenFieldIDs(rules []domain.LogicRule, data domain.SubmissionData) map[domain.FieldID]struct{} {
	hidden := make(map[domain.FieldID]struct{})
	for _, rule := range rules {
		if !rule.Enabled {
			continue
		}
		actions := rule.Actions
		if !ruleMatches(rule, data) {
			if !rule.ElseEnabled {
				continue
			}
			actions = rule.ElseActions
		}
		for _, a := range actions {
			if a.Target == "" {
				continue
			}
			switch a.Type {
			case domain.ActionHideField:
				hidden[a.Target] = struct{}{}
			case domain.ActionShowField:
				delete(hidden, a.Target)
			}
		}
	}
	return hidden
}

// VisibleRequiredFields returns the required, non-decorative fields that
// are not suppressed by the hidden set, in form order.
func VisibleRequiredFields(fields []domain.FieldSpec, hidden map[domain.FieldID]struct{}) []domain.FieldSpec {
	var out []domain.FieldSpec
	for _, f := range fields {
		if !f.Required || f.Type.Decorative() {
			continue
		}
		if _, ok := hidden[f.ID]; ok {
			continue
		}
		out = append(out, f)
	}
	return out
}
