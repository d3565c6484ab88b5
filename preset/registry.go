package preset

import (
	"bytes"
	_ "embed" // for the built-in catalogue
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"wafacl/customrule"
	"wafacl/waf"

	yaml "gopkg.in/yaml.v3"
)

//go:embed catalogue.yaml
var builtinCatalogue []byte

// Registry is a read-only lookup from preset name to preset definition.
type Registry interface {
	// Lookup returns a copy of the named preset, or an UnknownPresetError.
	Lookup(name string) (waf.Preset, error)

	// Names returns the registered preset names in ascending order.
	Names() []string
}

type catalogueFile struct {
	Presets []catalogueEntry `yaml:"presets"`
}

type catalogueEntry struct {
	Name          string                 `yaml:"name"`
	Description   string                 `yaml:"description"`
	DefaultAction string                 `yaml:"default_action"`
	Rules         []customrule.RuleEntry `yaml:"rules"`
}

type registryImpl struct {
	presets map[string]waf.Preset
	names   []string
}

var (
	builtinOnce     sync.Once
	builtinRegistry Registry
)

// Builtin returns the registry holding only the built-in catalogue. It is initialized once and
// shared by every caller.
func Builtin() Registry {
	builtinOnce.Do(func() {
		r, err := NewRegistry()
		if err != nil {
			panic(fmt.Sprintf("built-in preset catalogue is invalid: %v", err))
		}
		builtinRegistry = r
	})
	return builtinRegistry
}

// NewRegistry creates a registry from the built-in catalogue plus the given YAML catalogues.
// Preset names must be unique across all of them.
func NewRegistry(catalogues ...[]byte) (registry Registry, err error) {
	r := &registryImpl{presets: make(map[string]waf.Preset)}

	all := append([][]byte{builtinCatalogue}, catalogues...)
	for i, data := range all {
		err = r.load(data)
		if err != nil {
			if i == 0 {
				err = fmt.Errorf("built-in catalogue: %w", err)
			} else {
				err = fmt.Errorf("catalogue %d: %w", i, err)
			}
			return
		}
	}

	for name := range r.presets {
		r.names = append(r.names, name)
	}
	sort.Strings(r.names)

	registry = r
	return
}

func (r *registryImpl) load(data []byte) (err error) {
	var f catalogueFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	err = dec.Decode(&f)
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to decode preset catalogue: %w", err)
	}

	for _, e := range f.Presets {
		var p waf.Preset
		p, err = parsePreset(e)
		if err != nil {
			return
		}

		if _, ok := r.presets[p.Name]; ok {
			return fmt.Errorf("duplicate preset %q", p.Name)
		}
		r.presets[p.Name] = p
	}
	return
}

func parsePreset(e catalogueEntry) (p waf.Preset, err error) {
	p.Name = strings.ToLower(strings.TrimSpace(e.Name))
	if p.Name == "" {
		err = fmt.Errorf("preset without a name")
		return
	}
	p.Description = strings.TrimSpace(e.Description)

	p.DefaultAction, err = waf.ParseDefaultAction(e.DefaultAction)
	if err == nil && !p.DefaultAction.Valid() {
		err = fmt.Errorf("missing default_action")
	}
	if err != nil {
		err = fmt.Errorf("preset %q: %w", p.Name, err)
		return
	}

	if len(e.Rules) == 0 {
		err = fmt.Errorf("preset %q has no rules", p.Name)
		return
	}

	p.Rules, err = customrule.NormalizeRules(e.Rules)
	if err != nil {
		err = fmt.Errorf("preset %q: %w", p.Name, err)
		return
	}

	for _, rule := range p.Rules {
		if rule.Priority != nil {
			err = fmt.Errorf("preset %q: rule %q must not set a priority", p.Name, rule.Name)
			return
		}
	}
	return
}

func (r *registryImpl) Lookup(name string) (p waf.Preset, err error) {
	p, ok := r.presets[name]
	if !ok {
		err = &waf.UnknownPresetError{Name: name}
		return
	}

	return p.Copy(), nil
}

func (r *registryImpl) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}
