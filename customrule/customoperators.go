package customrule

import (
	"strings"

	"wafacl/waf"
)

var matchTypes = map[string]waf.MatchType{
	string(waf.RateLimitType):         waf.RateLimitType,
	string(waf.IPSetMatchType):        waf.IPSetMatchType,
	string(waf.ManagedGroupMatchType): waf.ManagedGroupMatchType,
	string(waf.StringMatchType):       waf.StringMatchType,
}

var aggregationKeys = map[string]waf.AggregationKey{
	"ip":           waf.AggregateIP,
	"forwarded_ip": waf.AggregateForwardedIP,
	"constant":     waf.AggregateConstant,
}

// Match variables a StringMatch can inspect, and whether they need a selector.
var stringMatchFields = map[string]bool{
	"RequestUri":     false,
	"QueryString":    false,
	"RequestMethod":  false,
	"RequestBody":    false,
	"RequestHeaders": true,
}

var stringMatchOperators = map[string]bool{
	"Equals":     true,
	"BeginsWith": true,
	"EndsWith":   true,
	"Contains":   true,
	"Regex":      true,
}

var transforms = map[string]bool{
	"Lowercase":          true,
	"UrlDecode":          true,
	"HtmlEntityDecode":   true,
	"Trim":               true,
	"RemoveNulls":        true,
	"CompressWhitespace": true,
}

// variantFields lists, per variant, the fields the user populated.
func (m *MatchEntry) variantFields() map[waf.MatchType][]string {
	f := make(map[waf.MatchType][]string)
	add := func(t waf.MatchType, name string, set bool) {
		if set {
			f[t] = append(f[t], name)
		}
	}

	add(waf.RateLimitType, "threshold", m.Threshold != nil)
	add(waf.RateLimitType, "window", m.Window != "")
	add(waf.RateLimitType, "aggregation_key", m.AggregationKey != "")

	add(waf.IPSetMatchType, "set", m.Set != "")
	add(waf.IPSetMatchType, "negate", m.Negate != nil)

	add(waf.ManagedGroupMatchType, "vendor", m.Vendor != "")
	add(waf.ManagedGroupMatchType, "group", m.Group != "")
	add(waf.ManagedGroupMatchType, "excluded_rules", len(m.ExcludedRules) > 0)

	add(waf.StringMatchType, "field", m.Field != "")
	add(waf.StringMatchType, "selector", m.Selector != "")
	add(waf.StringMatchType, "operator", m.Operator != "")
	add(waf.StringMatchType, "pattern", m.Pattern != "")
	add(waf.StringMatchType, "transforms", len(m.Transforms) > 0)

	return f
}

func lookupAggregationKey(s string) (k waf.AggregationKey, ok bool) {
	if s == "" {
		return waf.AggregateIP, true
	}
	k, ok = aggregationKeys[strings.ToLower(strings.TrimSpace(s))]
	return
}
