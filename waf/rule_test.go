package waf

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseAction(t *testing.T) {
	assert := assert.New(t)

	tests := []struct {
		input    string
		expected Action
		hasError bool
	}{
		{"allow", Allow, false},
		{"Block", Block, false},
		{" COUNT ", Count, false},
		{"deny", "", true},
		{"", "", true},
	}

	for _, test := range tests {
		a, err := ParseAction(test.input)
		if test.hasError {
			assert.NotNil(err, test.input)
			continue
		}
		assert.Nil(err, test.input)
		assert.Equal(test.expected, a, test.input)
	}
}

func TestActionTerminal(t *testing.T) {
	assert := assert.New(t)
	assert.True(Allow.Terminal())
	assert.True(Block.Terminal())
	assert.False(Count.Terminal())
}

func TestParseDefaultAction(t *testing.T) {
	assert := assert.New(t)

	d, err := ParseDefaultAction("")
	assert.Nil(err)
	assert.Equal(DefaultAction(""), d)
	assert.False(d.Valid())

	d, err = ParseDefaultAction("Block")
	assert.Nil(err)
	assert.Equal(DefaultBlock, d)
	assert.True(d.Valid())

	_, err = ParseDefaultAction("count")
	assert.NotNil(err)
}

func TestIPSetUnrestricted(t *testing.T) {
	assert := assert.New(t)

	assert.True(IPSet{Name: "all", Addresses: []string{"0.0.0.0/0", "::/0"}}.Unrestricted())
	assert.False(IPSet{Name: "v4", Addresses: []string{"0.0.0.0/0"}}.Unrestricted())
	assert.False(IPSet{Name: "some", Addresses: []string{"10.0.0.0/8", "::/0"}}.Unrestricted())
}

func TestMatchSpecKey(t *testing.T) {
	assert := assert.New(t)

	// Arrange
	a := &StringMatch{Field: "RequestHeaders", Selector: "User-Agent", Operator: "Contains", Pattern: "curl"}
	b := &StringMatch{Field: "RequestHeaders", Selector: "user-agent", Operator: "Contains", Pattern: "curl"}
	c := &StringMatch{Field: "RequestHeaders", Selector: "user-agent", Operator: "Contains", Pattern: "wget"}
	r1 := &RateLimit{Threshold: 100, Window: time.Minute, AggregationKey: AggregateIP}
	r2 := &RateLimit{Threshold: 100, Window: 60 * time.Second, AggregationKey: AggregateIP}

	// Act and Assert
	assert.Equal(a.Key(), b.Key())
	assert.NotEqual(a.Key(), c.Key())
	assert.Equal(r1.Key(), r2.Key())
	assert.NotEqual((&IPSetMatch{Set: "x"}).Key(), (&IPSetMatch{Set: "x", Negate: true}).Key())
	assert.NotEqual((&IPSetMatch{Set: "a|b"}).Key(), (&IPSetMatch{Set: "a", Negate: false}).Key())
}

func TestMatchSpecKeyListsWithCommas(t *testing.T) {
	assert := assert.New(t)

	// Arrange
	joined := &ManagedGroupMatch{Vendor: "AWS", Group: "g", ExcludedRules: []string{"a,b"}}
	split := &ManagedGroupMatch{Vendor: "AWS", Group: "g", ExcludedRules: []string{"a", "b"}}
	s1 := &StringMatch{Field: "UriPath", Operator: "Contains", Pattern: "x", Transforms: []string{"Lowercase,UrlDecode"}}
	s2 := &StringMatch{Field: "UriPath", Operator: "Contains", Pattern: "x", Transforms: []string{"Lowercase", "UrlDecode"}}

	// Act and Assert
	assert.NotEqual(joined.Key(), split.Key())
	assert.NotEqual(s1.Key(), s2.Key())
	assert.Equal(split.Key(), (&ManagedGroupMatch{Vendor: "AWS", Group: "g", ExcludedRules: []string{"a", "b"}}).Key())
}

func TestRuleCopy(t *testing.T) {
	assert := assert.New(t)

	// Arrange
	p := 3
	r := Rule{
		Name:     "managed",
		Action:   Block,
		Priority: &p,
		Match:    &ManagedGroupMatch{Vendor: "AWS", Group: "g", ExcludedRules: []string{"x"}},
	}

	// Act
	c := r.Copy()
	*c.Priority = 7
	c.Match.(*ManagedGroupMatch).ExcludedRules[0] = "y"

	// Assert
	assert.Equal(3, *r.Priority)
	assert.Equal("x", r.Match.(*ManagedGroupMatch).ExcludedRules[0])
	assert.Equal(7, c.PriorityValue())
	assert.Equal(-1, Rule{}.PriorityValue())
}

func TestPresetCopy(t *testing.T) {
	assert := assert.New(t)

	p := Preset{Name: "p", Rules: []Rule{{Name: "r", Match: &IPSetMatch{Set: "s"}, Action: Block}}}
	c := p.Copy()
	c.Rules[0].Name = "changed"
	c.Rules[0].Match.(*IPSetMatch).Set = "other"

	assert.Equal("r", p.Rules[0].Name)
	assert.Equal("s", p.Rules[0].Match.(*IPSetMatch).Set)
}

func TestCompiledRuleSetIPSet(t *testing.T) {
	assert := assert.New(t)

	set := &CompiledRuleSet{IPSets: []IPSet{{Name: "a"}, {Name: "b", Addresses: []string{"10.0.0.0/8"}}}}

	s, ok := set.IPSet("b")
	assert.True(ok)
	assert.Equal([]string{"10.0.0.0/8"}, s.Addresses)

	_, ok = set.IPSet("c")
	assert.False(ok)
}
