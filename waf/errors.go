package waf

import "fmt"

// MalformedRuleError is returned when a rule entry is incomplete, has an invalid field, or has more than one match variant.
type MalformedRuleError struct {
	Rule   string
	Field  string
	Reason string
}

func (e *MalformedRuleError) Error() string {
	return fmt.Sprintf("malformed rule %q: field %s: %s", e.Rule, e.Field, e.Reason)
}

// UnknownPresetError is returned when a preset reference is not in the registry.
type UnknownPresetError struct {
	Name string
}

func (e *UnknownPresetError) Error() string {
	return fmt.Sprintf("unknown preset %q", e.Name)
}

// PriorityCollisionError is returned when two rules carry the same explicit priority.
type PriorityCollisionError struct {
	First    string
	Second   string
	Priority int
}

func (e *PriorityCollisionError) Error() string {
	return fmt.Sprintf("rules %q and %q both have priority %d", e.First, e.Second, e.Priority)
}

// UnreachableRuleError is returned when an earlier rule always terminates evaluation before Rule is reached.
type UnreachableRuleError struct {
	Rule        string
	DominatedBy string
}

func (e *UnreachableRuleError) Error() string {
	return fmt.Sprintf("rule %q is unreachable, rule %q always matches first", e.Rule, e.DominatedBy)
}

// MissingDefaultActionError is returned when the compiled set has no single default action.
type MissingDefaultActionError struct {
	Reason string
}

func (e *MissingDefaultActionError) Error() string {
	if e.Reason == "" {
		return "missing default action"
	}
	return "missing default action: " + e.Reason
}
