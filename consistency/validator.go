// Package consistency checks a priority-assigned rule set for contradictions before it is emitted.
package consistency

import (
	"fmt"

	"wafacl/waf"
)

// Warning describes a problem that does not prevent emission.
type Warning struct {
	Rule    string
	Other   string
	Message string
}

func (w Warning) String() string {
	return fmt.Sprintf("rule %q: %s", w.Rule, w.Message)
}

// Check inspects a rule set whose rules are sorted by priority. It returns warnings, or the first
// fatal problem it finds.
type Check func(set *waf.CompiledRuleSet) ([]Warning, error)

// DefaultChecks are run by Validate, in order.
var DefaultChecks = []Check{
	CheckDefaultAction,
	CheckUniqueness,
	CheckIdenticalMatches,
	CheckUnconditionalDominance,
}

// Validate runs the checks in order against set and stops at the first error.
// With no checks given it runs DefaultChecks.
func Validate(set *waf.CompiledRuleSet, checks ...Check) (warnings []Warning, err error) {
	if len(checks) == 0 {
		checks = DefaultChecks
	}

	for _, check := range checks {
		var ww []Warning
		ww, err = check(set)
		if err != nil {
			return nil, err
		}
		warnings = append(warnings, ww...)
	}
	return
}

// CheckDefaultAction requires the default action to be exactly one of allow or block.
func CheckDefaultAction(set *waf.CompiledRuleSet) ([]Warning, error) {
	if set.DefaultAction == "" {
		return nil, &waf.MissingDefaultActionError{Reason: "no default_action given and no preset supplies one"}
	}
	if !set.DefaultAction.Valid() {
		return nil, &waf.MissingDefaultActionError{Reason: fmt.Sprintf("default action must be allow or block, got %q", set.DefaultAction)}
	}
	return nil, nil
}

// CheckUniqueness requires every rule to have a unique name and a unique, assigned priority.
func CheckUniqueness(set *waf.CompiledRuleSet) ([]Warning, error) {
	names := make(map[string]bool, len(set.Rules))
	priorities := make(map[int]string, len(set.Rules))
	for _, r := range set.Rules {
		if names[r.Name] {
			return nil, &waf.MalformedRuleError{Rule: r.Name, Field: "name", Reason: "duplicate rule name"}
		}
		names[r.Name] = true

		if r.Priority == nil {
			return nil, &waf.MalformedRuleError{Rule: r.Name, Field: "priority", Reason: "priority was not assigned"}
		}
		if other, ok := priorities[*r.Priority]; ok {
			return nil, &waf.PriorityCollisionError{First: other, Second: r.Name, Priority: *r.Priority}
		}
		priorities[*r.Priority] = r.Name
	}
	return nil, nil
}

// CheckIdenticalMatches compares rules with the same match spec. Repeating a rule with the same action
// is redundant and only warned about. A later rule with a different action can never run once an
// earlier identical match terminated evaluation, which is an error.
func CheckIdenticalMatches(set *waf.CompiledRuleSet) (warnings []Warning, err error) {
	earlier := make(map[string]waf.Rule, len(set.Rules))
	for _, r := range set.Rules {
		key := r.Match.Key()
		first, ok := earlier[key]
		if !ok {
			earlier[key] = r
			continue
		}

		switch {
		case first.Action == r.Action:
			warnings = append(warnings, Warning{
				Rule:    r.Name,
				Other:   first.Name,
				Message: fmt.Sprintf("redundant, same match and action as rule %q (priority %d)", first.Name, *first.Priority),
			})
		case first.Action.Terminal():
			return nil, &waf.UnreachableRuleError{Rule: r.Name, DominatedBy: first.Name}
		default:
			// An earlier count lets evaluation continue, so the later rule still decides.
			earlier[key] = r
		}
	}
	return
}

// CheckUnconditionalDominance fails when a rule matching all traffic with a terminal action is
// followed by any other rule.
func CheckUnconditionalDominance(set *waf.CompiledRuleSet) ([]Warning, error) {
	for i, r := range set.Rules {
		if !r.Action.Terminal() || !Unconditional(set, r.Match) {
			continue
		}
		if i+1 < len(set.Rules) {
			return nil, &waf.UnreachableRuleError{Rule: set.Rules[i+1].Name, DominatedBy: r.Name}
		}
	}
	return nil, nil
}

// Unconditional reports whether m matches every request. Only a non-negated reference to a declared
// set covering all IPv4 and IPv6 addresses qualifies.
func Unconditional(set *waf.CompiledRuleSet, m waf.MatchSpec) bool {
	ipm, ok := m.(*waf.IPSetMatch)
	if !ok || ipm.Negate {
		return false
	}

	s, ok := set.IPSet(ipm.Set)
	return ok && s.Unrestricted()
}
