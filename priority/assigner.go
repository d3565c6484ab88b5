// Package priority assigns evaluation priorities to rules.
package priority

import (
	"sort"

	"wafacl/waf"
)

// Assign returns copies of rules with every priority set, ordered by priority ascending.
//
// Explicit priorities are kept verbatim and two equal explicit priorities are an error. Rules
// without a priority take the smallest integers not used explicitly, starting at 0, in input order.
// The input is not modified.
func Assign(rules []waf.Rule) (out []waf.Rule, err error) {
	taken := make(map[int]string, len(rules))
	for _, r := range rules {
		if r.Priority == nil {
			continue
		}

		p := *r.Priority
		if first, ok := taken[p]; ok {
			err = &waf.PriorityCollisionError{First: first, Second: r.Name, Priority: p}
			return
		}
		taken[p] = r.Name
	}

	out = make([]waf.Rule, len(rules))
	next := 0
	for i, r := range rules {
		c := r.Copy()
		if c.Priority == nil {
			for {
				if _, ok := taken[next]; !ok {
					break
				}
				next++
			}
			p := next
			c.Priority = &p
			next++
		}
		out[i] = c
	}

	sort.SliceStable(out, func(i, j int) bool {
		return *out[i].Priority < *out[j].Priority
	})
	return
}
