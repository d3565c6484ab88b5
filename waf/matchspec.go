package waf

import (
	"strconv"
	"strings"
	"time"
)

// MatchType is the tag of a MatchSpec variant.
type MatchType string

// The closed set of match variants.
const (
	RateLimitType         MatchType = "RateLimit"
	IPSetMatchType        MatchType = "IPSetMatch"
	ManagedGroupMatchType MatchType = "ManagedGroupMatch"
	StringMatchType       MatchType = "StringMatch"
)

// MatchSpec is the condition portion of a rule. Only the variants in this package implement it.
type MatchSpec interface {
	Type() MatchType

	// Key is a canonical representation used to compare two match specs for identity.
	Key() string

	isMatchSpec()
}

// AggregationKey selects what a rate limit counts requests by.
type AggregationKey string

// Supported rate limit aggregation keys.
const (
	AggregateIP          AggregationKey = "IP"
	AggregateForwardedIP AggregationKey = "FORWARDED_IP"
	AggregateConstant    AggregationKey = "CONSTANT"
)

// RateLimit matches once a client exceeds Threshold requests within Window.
type RateLimit struct {
	Threshold      int64
	Window         time.Duration
	AggregationKey AggregationKey
}

// Type implements MatchSpec.
func (m *RateLimit) Type() MatchType { return RateLimitType }

// Key implements MatchSpec.
func (m *RateLimit) Key() string {
	return joinKey(string(RateLimitType),
		strconv.FormatInt(m.Threshold, 10),
		strconv.FormatInt(int64(m.Window/time.Second), 10),
		string(m.AggregationKey))
}

func (m *RateLimit) isMatchSpec() {}

// IPSetMatch matches requests whose source address is in the referenced set, or not in it when Negate is set.
type IPSetMatch struct {
	Set    string
	Negate bool
}

// Type implements MatchSpec.
func (m *IPSetMatch) Type() MatchType { return IPSetMatchType }

// Key implements MatchSpec.
func (m *IPSetMatch) Key() string {
	return joinKey(string(IPSetMatchType), m.Set, strconv.FormatBool(m.Negate))
}

func (m *IPSetMatch) isMatchSpec() {}

// ManagedGroupMatch includes a vendor managed rule group, minus the excluded rules.
type ManagedGroupMatch struct {
	Vendor        string
	Group         string
	ExcludedRules []string
}

// Type implements MatchSpec.
func (m *ManagedGroupMatch) Type() MatchType { return ManagedGroupMatchType }

// Key implements MatchSpec.
func (m *ManagedGroupMatch) Key() string {
	return joinKey(string(ManagedGroupMatchType), m.Vendor, m.Group, joinKey(m.ExcludedRules...))
}

func (m *ManagedGroupMatch) isMatchSpec() {}

// StringMatch compares a request field against a pattern after applying the transforms in order.
type StringMatch struct {
	Field      string
	Selector   string
	Operator   string
	Pattern    string
	Transforms []string
}

// Type implements MatchSpec.
func (m *StringMatch) Type() MatchType { return StringMatchType }

// Key implements MatchSpec.
func (m *StringMatch) Key() string {
	return joinKey(string(StringMatchType), m.Field, strings.ToLower(m.Selector), m.Operator, m.Pattern, joinKey(m.Transforms...))
}

func (m *StringMatch) isMatchSpec() {}

func joinKey(parts ...string) string {
	qq := make([]string, len(parts))
	for i, p := range parts {
		qq[i] = strconv.Quote(p)
	}
	return strings.Join(qq, "|")
}

// CopyMatchSpec returns a deep copy of m.
func CopyMatchSpec(m MatchSpec) MatchSpec {
	switch m := m.(type) {
	case *RateLimit:
		c := *m
		return &c
	case *IPSetMatch:
		c := *m
		return &c
	case *ManagedGroupMatch:
		c := *m
		c.ExcludedRules = append([]string(nil), m.ExcludedRules...)
		return &c
	case *StringMatch:
		c := *m
		c.Transforms = append([]string(nil), m.Transforms...)
		return &c
	}
	return nil
}
