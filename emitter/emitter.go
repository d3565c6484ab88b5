package emitter

import (
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"wafacl/waf"
)

// IR is the provider-agnostic representation handed to the provisioning layer.
type IR struct {
	DefaultAction string    `json:"default_action"`
	Rules         []IRRule  `json:"rules"`
	IPSets        []IRIPSet `json:"ip_sets,omitempty"`
}

// IRRule is a fully resolved rule.
type IRRule struct {
	Name     string  `json:"name"`
	Priority int     `json:"priority"`
	Action   string  `json:"action"`
	Match    IRMatch `json:"match"`
	Metadata string  `json:"metadata,omitempty"`
}

// IRMatch is a tagged match variant. Only the fields of the variant named by Type are set.
type IRMatch struct {
	Type string `json:"type"`

	Threshold      int64  `json:"threshold,omitempty"`
	WindowSeconds  int64  `json:"window_seconds,omitempty"`
	AggregationKey string `json:"aggregation_key,omitempty"`

	Set    string `json:"set,omitempty"`
	Negate *bool  `json:"negate,omitempty"`

	Vendor        string   `json:"vendor,omitempty"`
	Group         string   `json:"group,omitempty"`
	ExcludedRules []string `json:"excluded_rules,omitempty"`

	Field      string   `json:"field,omitempty"`
	Selector   string   `json:"selector,omitempty"`
	Operator   string   `json:"operator,omitempty"`
	Pattern    string   `json:"pattern,omitempty"`
	Transforms []string `json:"transforms,omitempty"`
}

// IRIPSet is an IP set declared in the specification.
type IRIPSet struct {
	Name      string   `json:"name"`
	Addresses []string `json:"addresses"`
}

// Build converts a validated rule set into its IR. Rule order is kept as given, which for a
// validated set is priority ascending.
func Build(set *waf.CompiledRuleSet) (ir IR, err error) {
	ir.DefaultAction = string(set.DefaultAction)
	ir.Rules = make([]IRRule, 0, len(set.Rules))

	for _, r := range set.Rules {
		if r.Priority == nil {
			err = fmt.Errorf("rule %q has no priority", r.Name)
			return
		}

		var m IRMatch
		m, err = buildMatch(r.Match)
		if err != nil {
			err = fmt.Errorf("rule %q: %w", r.Name, err)
			return
		}

		ir.Rules = append(ir.Rules, IRRule{
			Name:     r.Name,
			Priority: *r.Priority,
			Action:   string(r.Action),
			Match:    m,
			Metadata: r.Metadata,
		})
	}

	for _, s := range set.IPSets {
		ir.IPSets = append(ir.IPSets, IRIPSet{Name: s.Name, Addresses: append([]string(nil), s.Addresses...)})
	}
	return
}

func buildMatch(spec waf.MatchSpec) (m IRMatch, err error) {
	switch spec := spec.(type) {
	case *waf.RateLimit:
		m = IRMatch{
			Type:           string(waf.RateLimitType),
			Threshold:      spec.Threshold,
			WindowSeconds:  int64(spec.Window / time.Second),
			AggregationKey: string(spec.AggregationKey),
		}
	case *waf.IPSetMatch:
		negate := spec.Negate
		m = IRMatch{Type: string(waf.IPSetMatchType), Set: spec.Set, Negate: &negate}
	case *waf.ManagedGroupMatch:
		m = IRMatch{
			Type:          string(waf.ManagedGroupMatchType),
			Vendor:        spec.Vendor,
			Group:         spec.Group,
			ExcludedRules: append([]string(nil), spec.ExcludedRules...),
		}
	case *waf.StringMatch:
		m = IRMatch{
			Type:       string(waf.StringMatchType),
			Field:      spec.Field,
			Selector:   spec.Selector,
			Operator:   spec.Operator,
			Pattern:    spec.Pattern,
			Transforms: append([]string(nil), spec.Transforms...),
		}
	default:
		err = fmt.Errorf("unsupported match spec %T", spec)
	}
	return
}

// Emit serializes a validated rule set. The output for a given set is always byte-identical.
func Emit(set *waf.CompiledRuleSet) (bb []byte, err error) {
	ir, err := Build(set)
	if err != nil {
		return
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	err = enc.Encode(ir)
	if err != nil {
		err = fmt.Errorf("failed to encode IR: %w", err)
		return
	}

	return buf.Bytes(), nil
}

// Digest is a content hash of emitted bytes, suitable for change detection.
func Digest(bb []byte) string {
	sum := sha1.Sum(bb)
	return hex.EncodeToString(sum[:])
}
