package waf

import (
	"fmt"
	"strings"
)

// Action denotes what the WAF does with a request matched by a rule
type Action string

const (
	// Allow means that the request should be allowed regardless of remaining rules
	Allow Action = "allow"

	// Block means that the request should be blocked regardless of remaining rules
	Block Action = "block"

	// Count means that the match is recorded and evaluation continues with the next rule
	Count Action = "count"
)

// ParseAction converts a user supplied action name into an Action.
func ParseAction(s string) (a Action, err error) {
	switch Action(strings.ToLower(strings.TrimSpace(s))) {
	case Allow:
		a = Allow
	case Block:
		a = Block
	case Count:
		a = Count
	default:
		err = fmt.Errorf("unknown action %q, must be one of allow, block, count", s)
	}
	return
}

// Terminal reports whether evaluation stops once a rule with this action matches.
func (a Action) Terminal() bool {
	return a == Allow || a == Block
}

// DefaultAction is applied to requests that no rule terminated. The zero value means unset.
type DefaultAction string

const (
	// DefaultAllow lets unmatched traffic through
	DefaultAllow DefaultAction = "allow"

	// DefaultBlock rejects unmatched traffic
	DefaultBlock DefaultAction = "block"
)

// ParseDefaultAction converts a user supplied default action. An empty string yields the unset value.
func ParseDefaultAction(s string) (d DefaultAction, err error) {
	switch DefaultAction(strings.ToLower(strings.TrimSpace(s))) {
	case "":
	case DefaultAllow:
		d = DefaultAllow
	case DefaultBlock:
		d = DefaultBlock
	default:
		err = fmt.Errorf("default_action must be allow or block, got %q", s)
	}
	return
}

// Valid reports whether d is exactly one of allow or block.
func (d DefaultAction) Valid() bool {
	return d == DefaultAllow || d == DefaultBlock
}
