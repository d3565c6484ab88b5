package customrule

// Spec is the user facing description of a Web ACL, as loaded from YAML, JSON or HCL.
type Spec struct {
	DefaultAction string       `yaml:"default_action" hcl:"default_action,optional" json:"default_action,omitempty"`
	Presets       []string     `yaml:"presets" hcl:"presets,optional" json:"presets,omitempty"`
	IPSets        []IPSetEntry `yaml:"ip_sets" hcl:"ip_set,block" json:"ip_sets,omitempty"`
	Rules         []RuleEntry  `yaml:"rules" hcl:"rule,block" json:"rules,omitempty"`
}

// IPSetEntry declares a named set of addresses that IPSetMatch rules can reference.
type IPSetEntry struct {
	Name      string   `yaml:"name" hcl:"name,label" json:"name"`
	Addresses []string `yaml:"addresses" hcl:"addresses" json:"addresses"`
}

// RuleEntry is a single rule as the user wrote it.
type RuleEntry struct {
	Name     string      `yaml:"name" hcl:"name,label" json:"name"`
	Action   string      `yaml:"action" hcl:"action,optional" json:"action,omitempty"`
	Priority *int        `yaml:"priority" hcl:"priority,optional" json:"priority,omitempty"`
	Metadata string      `yaml:"metadata" hcl:"metadata,optional" json:"metadata,omitempty"`
	Match    *MatchEntry `yaml:"match" hcl:"match,block" json:"match,omitempty"`
}

// MatchEntry is the loosely typed match condition of a rule. Type selects the variant, and only
// the fields belonging to that variant may be set.
type MatchEntry struct {
	Type string `yaml:"type" hcl:"type,optional" json:"type,omitempty"`

	// RateLimit
	Threshold      *int64 `yaml:"threshold" hcl:"threshold,optional" json:"threshold,omitempty"`
	Window         string `yaml:"window" hcl:"window,optional" json:"window,omitempty"`
	AggregationKey string `yaml:"aggregation_key" hcl:"aggregation_key,optional" json:"aggregation_key,omitempty"`

	// IPSetMatch
	Set    string `yaml:"set" hcl:"set,optional" json:"set,omitempty"`
	Negate *bool  `yaml:"negate" hcl:"negate,optional" json:"negate,omitempty"`

	// ManagedGroupMatch
	Vendor        string   `yaml:"vendor" hcl:"vendor,optional" json:"vendor,omitempty"`
	Group         string   `yaml:"group" hcl:"group,optional" json:"group,omitempty"`
	ExcludedRules []string `yaml:"excluded_rules" hcl:"excluded_rules,optional" json:"excluded_rules,omitempty"`

	// StringMatch
	Field      string   `yaml:"field" hcl:"field,optional" json:"field,omitempty"`
	Selector   string   `yaml:"selector" hcl:"selector,optional" json:"selector,omitempty"`
	Operator   string   `yaml:"operator" hcl:"operator,optional" json:"operator,omitempty"`
	Pattern    string   `yaml:"pattern" hcl:"pattern,optional" json:"pattern,omitempty"`
	Transforms []string `yaml:"transforms" hcl:"transforms,optional" json:"transforms,omitempty"`
}
