package customrule

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/ioutil"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsimple"
	"github.com/rs/zerolog"
	"github.com/zclconf/go-cty/cty"
	yaml "gopkg.in/yaml.v3"
)

// SpecLoader obtains specifications from the user's files.
type SpecLoader interface {
	LoadFile(path string) (spec *Spec, err error)
	Load(filename string, data []byte) (spec *Spec, err error)
}

type specLoader struct {
	logger zerolog.Logger
	vars   map[string]string
}

// NewSpecLoader creates a SpecLoader. HCL specifications can refer to vars as var.<name>.
func NewSpecLoader(logger zerolog.Logger, vars map[string]string) SpecLoader {
	return &specLoader{logger: logger, vars: vars}
}

func (l *specLoader) LoadFile(path string) (spec *Spec, err error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		err = fmt.Errorf("failed to read specification: %w", err)
		return
	}

	return l.Load(path, data)
}

func (l *specLoader) Load(filename string, data []byte) (spec *Spec, err error) {
	l.logger.Debug().Str("file", filename).Int("bytes", len(data)).Msg("Parsing specification")

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".hcl":
		spec, err = LoadHCL(filename, data, l.vars)
	case ".yaml", ".yml", ".json":
		spec, err = LoadYAML(data)
	default:
		err = fmt.Errorf("unsupported specification format %q, expected .yaml, .yml, .json or .hcl", filepath.Ext(filename))
	}

	if err != nil {
		l.logger.Error().Err(err).Str("file", filename).Msg("Error while loading specification")
		return
	}

	l.logger.Debug().Str("file", filename).Int("rules", len(spec.Rules)).Int("presets", len(spec.Presets)).Msg("Loaded specification")
	return
}

// LoadYAML decodes a YAML or JSON specification. Unknown keys are rejected.
func LoadYAML(data []byte) (spec *Spec, err error) {
	spec = &Spec{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	err = dec.Decode(spec)
	if errors.Is(err, io.EOF) {
		// An empty document is an empty specification.
		err = nil
	}

	if err != nil {
		spec = nil
		err = fmt.Errorf("failed to decode specification: %w", err)
	}
	return
}

// LoadHCL decodes an HCL specification. The filename must end in .hcl.
func LoadHCL(filename string, data []byte, vars map[string]string) (spec *Spec, err error) {
	spec = &Spec{}
	err = hclsimple.Decode(filename, data, evalContext(vars), spec)
	if err != nil {
		spec = nil
		err = fmt.Errorf("failed to decode HCL specification: %w", err)
	}
	return
}

func evalContext(vars map[string]string) *hcl.EvalContext {
	vals := make(map[string]cty.Value, len(vars))
	for k, v := range vars {
		vals[k] = cty.StringVal(v)
	}

	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"var": cty.ObjectVal(vals),
		},
	}
}
