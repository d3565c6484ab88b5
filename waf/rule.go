package waf

// Rule is a single filtering rule.
type Rule struct {
	Name   string
	Match  MatchSpec
	Action Action

	// Priority is nil until assigned, unless the user gave one explicitly.
	Priority *int

	// Metadata is a free-form label carried through to the output for observability.
	Metadata string
}

// PriorityValue returns the assigned priority, or -1 when none is set.
func (r Rule) PriorityValue() int {
	if r.Priority == nil {
		return -1
	}
	return *r.Priority
}

// Copy returns a deep copy of r.
func (r Rule) Copy() Rule {
	c := r
	c.Match = CopyMatchSpec(r.Match)
	if r.Priority != nil {
		p := *r.Priority
		c.Priority = &p
	}
	return c
}

// IPSet is a named set of addresses declared inline in a specification.
type IPSet struct {
	Name      string
	Addresses []string
}

// Unrestricted reports whether the set covers every IPv4 and IPv6 address.
func (s IPSet) Unrestricted() bool {
	var v4, v6 bool
	for _, a := range s.Addresses {
		switch a {
		case "0.0.0.0/0":
			v4 = true
		case "::/0":
			v6 = true
		}
	}
	return v4 && v6
}

// Preset is a named, reusable bundle of rule templates with the default action it was designed for.
type Preset struct {
	Name          string
	Description   string
	Rules         []Rule
	DefaultAction DefaultAction
}

// Copy returns a deep copy of p.
func (p Preset) Copy() Preset {
	c := p
	c.Rules = make([]Rule, len(p.Rules))
	for i, r := range p.Rules {
		c.Rules[i] = r.Copy()
	}
	return c
}

// CompiledRuleSet is the fully resolved output of a compilation.
type CompiledRuleSet struct {
	DefaultAction DefaultAction

	// Rules are ordered by priority ascending.
	Rules []Rule

	// IPSets are ordered by name.
	IPSets []IPSet
}

// IPSet looks up a declared set by name.
func (s *CompiledRuleSet) IPSet(name string) (set IPSet, ok bool) {
	for _, set = range s.IPSets {
		if set.Name == name {
			return set, true
		}
	}
	return IPSet{}, false
}
