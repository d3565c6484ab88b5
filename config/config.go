package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"

	yaml "gopkg.in/yaml.v3"
)

// Main is the top level configuration of the wafc tool.
type Main struct {
	// LogLevel is one of debug, info, warn, error, fatal, panic.
	LogLevel string `yaml:"log_level"`

	// PresetCatalogues are extra YAML preset catalogues registered next to the built-in presets.
	PresetCatalogues []string `yaml:"preset_catalogues"`

	// OutDir is where compiled IR files are written when several specifications are compiled at once.
	OutDir string `yaml:"out_dir"`

	// ReportFile, when set, receives one JSON line per compilation event.
	ReportFile string `yaml:"report_file"`

	// Cache dedupes compilations of identical specifications within one run.
	Cache *bool `yaml:"cache"`

	// Vars are made available to HCL specifications as var.<name>.
	Vars map[string]string `yaml:"vars"`
}

// Default returns the configuration used when no file is given.
func Default() *Main {
	cache := true
	return &Main{
		LogLevel: "info",
		Cache:    &cache,
		Vars:     map[string]string{},
	}
}

// CacheEnabled reports whether the compile cache is on. It is on unless disabled explicitly.
func (m *Main) CacheEnabled() bool {
	return m.Cache == nil || *m.Cache
}

// Load reads a configuration file on top of the defaults. Relative catalogue and report paths are
// resolved against the directory of the file.
func Load(path string) (m *Main, err error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		err = fmt.Errorf("failed to read config: %w", err)
		return
	}

	m, err = Parse(data)
	if err != nil {
		err = fmt.Errorf("config %s: %w", path, err)
		return
	}

	base := filepath.Dir(path)
	for i, c := range m.PresetCatalogues {
		m.PresetCatalogues[i] = resolve(base, c)
	}
	m.ReportFile = resolve(base, m.ReportFile)
	m.OutDir = resolve(base, m.OutDir)
	return
}

// LoadIfExists behaves like Load but returns the defaults when path does not exist.
func LoadIfExists(path string) (*Main, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return Load(path)
}

// Parse decodes a YAML configuration on top of the defaults. Unknown keys are rejected.
func Parse(data []byte) (m *Main, err error) {
	m = Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	err = dec.Decode(m)
	if errors.Is(err, io.EOF) {
		err = nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if m.Vars == nil {
		m.Vars = map[string]string{}
	}
	return
}

func resolve(base string, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}
