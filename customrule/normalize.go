package customrule

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"wafacl/ipaddresses"
	"wafacl/waf"
)

// Normalize turns a specification into rule model values in spec order, plus the declared IP sets
// ordered by name. Preset references are not expanded here. The first problem found is returned.
func Normalize(spec *Spec) (rules []waf.Rule, sets []waf.IPSet, err error) {
	sets, err = NormalizeIPSets(spec.IPSets)
	if err != nil {
		return
	}

	rules, err = NormalizeRules(spec.Rules)
	if err != nil {
		rules, sets = nil, nil
	}
	return
}

// NormalizeRules converts rule entries into rule model values, preserving their order.
func NormalizeRules(entries []RuleEntry) (rules []waf.Rule, err error) {
	seen := make(map[string]bool, len(entries))
	for i, e := range entries {
		var r waf.Rule
		r, err = normalizeRule(i, e)
		if err != nil {
			return nil, err
		}

		if seen[r.Name] {
			return nil, &waf.MalformedRuleError{Rule: r.Name, Field: "name", Reason: "duplicate rule name"}
		}
		seen[r.Name] = true

		rules = append(rules, r)
	}
	return
}

// NormalizeIPSets validates declared IP sets, canonicalizes their addresses and orders them by name.
func NormalizeIPSets(entries []IPSetEntry) (sets []waf.IPSet, err error) {
	seen := make(map[string]bool, len(entries))
	for i, e := range entries {
		name := strings.TrimSpace(e.Name)
		if name == "" {
			return nil, &waf.MalformedRuleError{Rule: "ip_sets[" + strconv.Itoa(i) + "]", Field: "name", Reason: "missing IP set name"}
		}
		if seen[name] {
			return nil, &waf.MalformedRuleError{Rule: name, Field: "ip_sets", Reason: "duplicate IP set name"}
		}
		seen[name] = true

		if len(e.Addresses) == 0 {
			return nil, &waf.MalformedRuleError{Rule: name, Field: "addresses", Reason: "IP set must not be empty"}
		}

		uniq := make(map[string]bool, len(e.Addresses))
		set := waf.IPSet{Name: name}
		for _, a := range e.Addresses {
			var n string
			n, err = ipaddresses.NormalizeAddress(a)
			if err != nil {
				return nil, &waf.MalformedRuleError{Rule: name, Field: "addresses", Reason: err.Error()}
			}
			if !uniq[n] {
				uniq[n] = true
				set.Addresses = append(set.Addresses, n)
			}
		}
		sort.Strings(set.Addresses)

		sets = append(sets, set)
	}

	sort.Slice(sets, func(i, j int) bool {
		return sets[i].Name < sets[j].Name
	})
	return
}

// NormalizePresetRefs trims and lowercases preset references and drops repeats, keeping first-seen order.
// A blank reference is kept as "" so that looking it up fails.
func NormalizePresetRefs(refs []string) (out []string) {
	seen := make(map[string]bool, len(refs))
	for _, ref := range refs {
		key := strings.ToLower(strings.TrimSpace(ref))
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, key)
	}
	return
}

func normalizeRule(idx int, e RuleEntry) (r waf.Rule, err error) {
	r.Name = strings.TrimSpace(e.Name)
	if r.Name == "" {
		err = &waf.MalformedRuleError{Rule: "rules[" + strconv.Itoa(idx) + "]", Field: "name", Reason: "missing rule name"}
		return
	}

	if strings.TrimSpace(e.Action) == "" {
		err = &waf.MalformedRuleError{Rule: r.Name, Field: "action", Reason: "missing action"}
		return
	}
	r.Action, err = waf.ParseAction(e.Action)
	if err != nil {
		err = &waf.MalformedRuleError{Rule: r.Name, Field: "action", Reason: err.Error()}
		return
	}

	if e.Priority != nil {
		if *e.Priority < 0 {
			err = &waf.MalformedRuleError{Rule: r.Name, Field: "priority", Reason: fmt.Sprintf("priority must not be negative, got %d", *e.Priority)}
			return
		}
		p := *e.Priority
		r.Priority = &p
	}

	r.Metadata = strings.TrimSpace(e.Metadata)

	r.Match, err = normalizeMatch(r.Name, e.Match)
	if err != nil {
		return
	}

	if r.Match.Type() == waf.ManagedGroupMatchType && r.Action == waf.Allow {
		err = &waf.MalformedRuleError{Rule: r.Name, Field: "action", Reason: "a managed rule group can only block or count"}
	}
	return
}

func normalizeMatch(name string, m *MatchEntry) (spec waf.MatchSpec, err error) {
	if m == nil {
		err = &waf.MalformedRuleError{Rule: name, Field: "match", Reason: "missing match"}
		return
	}

	if strings.TrimSpace(m.Type) == "" {
		err = &waf.MalformedRuleError{Rule: name, Field: "match.type", Reason: "missing match type"}
		return
	}

	t, ok := matchTypes[strings.TrimSpace(m.Type)]
	if !ok {
		err = &waf.MalformedRuleError{Rule: name, Field: "match.type", Reason: fmt.Sprintf("unknown match type %q", m.Type)}
		return
	}

	// Deterministic order so the same input always reports the same field.
	fields := m.variantFields()
	others := []waf.MatchType{waf.RateLimitType, waf.IPSetMatchType, waf.ManagedGroupMatchType, waf.StringMatchType}
	for _, other := range others {
		if other == t || len(fields[other]) == 0 {
			continue
		}
		err = &waf.MalformedRuleError{
			Rule:   name,
			Field:  "match." + fields[other][0],
			Reason: fmt.Sprintf("field belongs to %s, rule has more than one match variant (type is %s)", other, t),
		}
		return
	}

	switch t {
	case waf.RateLimitType:
		return normalizeRateLimit(name, m)
	case waf.IPSetMatchType:
		return normalizeIPSetMatch(name, m)
	case waf.ManagedGroupMatchType:
		return normalizeManagedGroupMatch(name, m)
	case waf.StringMatchType:
		return normalizeStringMatch(name, m)
	}

	err = &waf.MalformedRuleError{Rule: name, Field: "match.type", Reason: fmt.Sprintf("unhandled match type %q", t)}
	return
}

func normalizeRateLimit(name string, m *MatchEntry) (spec waf.MatchSpec, err error) {
	if m.Threshold == nil {
		err = &waf.MalformedRuleError{Rule: name, Field: "match.threshold", Reason: "missing threshold"}
		return
	}
	if *m.Threshold <= 0 {
		err = &waf.MalformedRuleError{Rule: name, Field: "match.threshold", Reason: fmt.Sprintf("threshold must be greater than 0, got %d", *m.Threshold)}
		return
	}

	window, err := parseWindow(m.Window)
	if err != nil {
		err = &waf.MalformedRuleError{Rule: name, Field: "match.window", Reason: err.Error()}
		return
	}

	key, ok := lookupAggregationKey(m.AggregationKey)
	if !ok {
		err = &waf.MalformedRuleError{Rule: name, Field: "match.aggregation_key", Reason: fmt.Sprintf("unknown aggregation key %q, must be one of IP, FORWARDED_IP, CONSTANT", m.AggregationKey)}
		return
	}

	spec = &waf.RateLimit{Threshold: *m.Threshold, Window: window, AggregationKey: key}
	return
}

// parseWindow accepts whole seconds ("300") or a duration ("5m").
func parseWindow(s string) (d time.Duration, err error) {
	s = strings.TrimSpace(s)
	if s == "" {
		err = fmt.Errorf("missing window")
		return
	}

	if n, convErr := strconv.ParseInt(s, 10, 64); convErr == nil {
		if n > math.MaxInt64/int64(time.Second) {
			err = fmt.Errorf("window %q is out of range", s)
			return
		}
		d = time.Duration(n) * time.Second
	} else {
		d, err = time.ParseDuration(s)
		if err != nil {
			err = fmt.Errorf("window must be a number of seconds or a duration, got %q", s)
			return
		}
	}

	if d <= 0 {
		err = fmt.Errorf("window must be greater than 0, got %q", s)
		return
	}
	if d%time.Second != 0 {
		err = fmt.Errorf("window must be a whole number of seconds, got %q", s)
	}
	return
}

func normalizeIPSetMatch(name string, m *MatchEntry) (spec waf.MatchSpec, err error) {
	set := strings.TrimSpace(m.Set)
	if set == "" {
		err = &waf.MalformedRuleError{Rule: name, Field: "match.set", Reason: "missing IP set reference"}
		return
	}

	s := &waf.IPSetMatch{Set: set}
	if m.Negate != nil {
		s.Negate = *m.Negate
	}
	spec = s
	return
}

func normalizeManagedGroupMatch(name string, m *MatchEntry) (spec waf.MatchSpec, err error) {
	group := strings.TrimSpace(m.Group)
	if group == "" {
		err = &waf.MalformedRuleError{Rule: name, Field: "match.group", Reason: "missing managed group name"}
		return
	}

	vendor := strings.TrimSpace(m.Vendor)
	if vendor == "" {
		vendor = "AWS"
	}

	// Exclusions are a set, order carries no meaning.
	var excluded []string
	seen := make(map[string]bool, len(m.ExcludedRules))
	for _, ex := range m.ExcludedRules {
		ex = strings.TrimSpace(ex)
		if ex == "" {
			err = &waf.MalformedRuleError{Rule: name, Field: "match.excluded_rules", Reason: "empty excluded rule name"}
			return
		}
		if !seen[ex] {
			seen[ex] = true
			excluded = append(excluded, ex)
		}
	}
	sort.Strings(excluded)

	spec = &waf.ManagedGroupMatch{Vendor: vendor, Group: group, ExcludedRules: excluded}
	return
}

func normalizeStringMatch(name string, m *MatchEntry) (spec waf.MatchSpec, err error) {
	field := strings.TrimSpace(m.Field)
	needsSelector, ok := stringMatchFields[field]
	if field == "" {
		err = &waf.MalformedRuleError{Rule: name, Field: "match.field", Reason: "missing field"}
		return
	}
	if !ok {
		err = &waf.MalformedRuleError{Rule: name, Field: "match.field", Reason: fmt.Sprintf("unknown field %q", m.Field)}
		return
	}

	selector := strings.TrimSpace(m.Selector)
	if needsSelector && selector == "" {
		err = &waf.MalformedRuleError{Rule: name, Field: "match.selector", Reason: fmt.Sprintf("field %s requires a selector", field)}
		return
	}
	if !needsSelector && selector != "" {
		err = &waf.MalformedRuleError{Rule: name, Field: "match.selector", Reason: fmt.Sprintf("field %s does not take a selector", field)}
		return
	}

	op := strings.TrimSpace(m.Operator)
	if op == "" {
		err = &waf.MalformedRuleError{Rule: name, Field: "match.operator", Reason: "missing operator"}
		return
	}
	if !stringMatchOperators[op] {
		err = &waf.MalformedRuleError{Rule: name, Field: "match.operator", Reason: fmt.Sprintf("unknown operator %q", m.Operator)}
		return
	}

	if m.Pattern == "" {
		err = &waf.MalformedRuleError{Rule: name, Field: "match.pattern", Reason: "missing pattern"}
		return
	}
	if op == "Regex" {
		if _, reErr := regexp.Compile(m.Pattern); reErr != nil {
			err = &waf.MalformedRuleError{Rule: name, Field: "match.pattern", Reason: reErr.Error()}
			return
		}
	}

	var tt []string
	for _, tr := range m.Transforms {
		tr = strings.TrimSpace(tr)
		if !transforms[tr] {
			err = &waf.MalformedRuleError{Rule: name, Field: "match.transforms", Reason: fmt.Sprintf("unknown transform %q", tr)}
			return
		}
		tt = append(tt, tr)
	}

	spec = &waf.StringMatch{Field: field, Selector: selector, Operator: op, Pattern: m.Pattern, Transforms: tt}
	return
}
