package preset

import "wafacl/waf"

// Expansion is the result of expanding a list of preset references.
type Expansion struct {
	// Rules are the renamed rule copies, presets in listed order, templates in catalogue order.
	Rules []waf.Rule

	// Defaults holds each expanded preset's declared default action, in listed order.
	Defaults []Default
}

// Default is the default action a preset was designed for.
type Default struct {
	Preset string
	Action waf.DefaultAction
}

// Expand looks up every reference and copies its rules, renaming each to "<preset>-<rule>" so two
// specifications using the same preset never share a rule name. Refs are expected to be normalized.
func Expand(registry Registry, refs []string) (e Expansion, err error) {
	for _, ref := range refs {
		var p waf.Preset
		p, err = registry.Lookup(ref)
		if err != nil {
			return Expansion{}, err
		}

		for _, r := range p.Rules {
			r.Name = RuleName(p.Name, r.Name)
			if r.Metadata == "" {
				r.Metadata = "preset:" + p.Name
			}
			e.Rules = append(e.Rules, r)
		}

		e.Defaults = append(e.Defaults, Default{Preset: p.Name, Action: p.DefaultAction})
	}
	return
}

// RuleName is the name a preset's rule template gets once expanded.
func RuleName(presetName string, templateName string) string {
	return presetName + "-" + templateName
}
