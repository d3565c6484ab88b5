package customrule

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"wafacl/testutils"

	"github.com/stretchr/testify/assert"
)

const simpleYAML = `
default_action: allow
presets: [baseline]
ip_sets:
  - name: bad
    addresses: [203.0.113.7, 198.51.100.0/24]
rules:
  - name: block-bad-ip
    action: block
    priority: 10
    metadata: incident-42
    match:
      type: IPSetMatch
      set: bad
  - name: throttle
    action: block
    match:
      type: RateLimit
      threshold: 500
      window: 5m
`

const simpleHCL = `
default_action = "allow"
presets        = ["baseline"]

ip_set "bad" {
  addresses = ["203.0.113.7", "198.51.100.0/24"]
}

rule "block-bad-ip" {
  action   = "block"
  priority = 10
  metadata = "incident-${var.ticket}"

  match {
    type = "IPSetMatch"
    set  = "bad"
  }
}

rule "throttle" {
  action = "block"

  match {
    type      = "RateLimit"
    threshold = 500
    window    = "5m"
  }
}
`

func TestLoadYAML(t *testing.T) {
	assert := assert.New(t)

	// Act
	spec, err := LoadYAML([]byte(simpleYAML))

	// Assert
	assert.Nil(err)
	assert.Equal("allow", spec.DefaultAction)
	assert.Equal([]string{"baseline"}, spec.Presets)
	assert.Len(spec.IPSets, 1)
	assert.Len(spec.Rules, 2)
	assert.Equal(10, *spec.Rules[0].Priority)
	assert.Equal("IPSetMatch", spec.Rules[0].Match.Type)
	assert.Nil(spec.Rules[1].Priority)
	assert.Equal(int64(500), *spec.Rules[1].Match.Threshold)
}

func TestLoadYAMLEmpty(t *testing.T) {
	assert := assert.New(t)

	spec, err := LoadYAML([]byte(""))

	assert.Nil(err)
	assert.NotNil(spec)
	assert.Empty(spec.Rules)
}

func TestLoadYAMLUnknownField(t *testing.T) {
	assert := assert.New(t)

	spec, err := LoadYAML([]byte("default_action: allow\nrulez: []\n"))

	assert.NotNil(err)
	assert.Nil(spec)
}

func TestLoadJSON(t *testing.T) {
	assert := assert.New(t)
	logger := testutils.NewTestLogger(t)

	// Arrange
	l := NewSpecLoader(logger, nil)
	data := []byte(`{"default_action": "block", "rules": [{"name": "r", "action": "allow", "match": {"type": "IPSetMatch", "set": "office"}}]}`)

	// Act
	spec, err := l.Load("acl.json", data)

	// Assert
	assert.Nil(err)
	assert.Equal("block", spec.DefaultAction)
	assert.Equal("office", spec.Rules[0].Match.Set)
}

func TestLoadHCLMatchesYAML(t *testing.T) {
	assert := assert.New(t)

	// Act
	fromHCL, err1 := LoadHCL("acl.hcl", []byte(simpleHCL), map[string]string{"ticket": "42"})
	fromYAML, err2 := LoadYAML([]byte(simpleYAML))

	// Assert
	assert.Nil(err1)
	assert.Nil(err2)
	assert.Equal(fromYAML, fromHCL)
}

func TestLoadHCLUndefinedVar(t *testing.T) {
	assert := assert.New(t)

	spec, err := LoadHCL("acl.hcl", []byte(simpleHCL), nil)

	assert.NotNil(err)
	assert.Nil(spec)
}

func TestLoadUnsupportedExtension(t *testing.T) {
	assert := assert.New(t)
	logger := testutils.NewTestLogger(t)

	_, err := NewSpecLoader(logger, nil).Load("acl.toml", []byte(""))

	assert.NotNil(err)
	assert.Contains(err.Error(), ".toml")
}

func TestLoadFile(t *testing.T) {
	assert := assert.New(t)
	logger := testutils.NewTestLogger(t)

	// Arrange
	dir, err := ioutil.TempDir("", "wafacl")
	if err != nil {
		t.Fatalf("Got unexpected error: %s", err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "acl.hcl")
	err = ioutil.WriteFile(path, []byte(simpleHCL), 0644)
	if err != nil {
		t.Fatalf("Got unexpected error: %s", err)
	}

	// Act
	spec, err := NewSpecLoader(logger, map[string]string{"ticket": "7"}).LoadFile(path)

	// Assert
	assert.Nil(err)
	assert.Equal("incident-7", spec.Rules[0].Metadata)

	_, err = NewSpecLoader(logger, nil).LoadFile(filepath.Join(dir, "missing.yaml"))
	assert.NotNil(err)
}
