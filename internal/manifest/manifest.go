// Package manifest loads a session's dimension list and configuration
// from a YAML file, then layers HARMONY_<KEY> environment-variable
// overrides on top — the example CLI's input format, not
// part of the session core's own contract (the core only ever sees a
// built Space and a Configuration). Grounded on
// jhkimqd-chaos-utils/pkg/config.Config: a yaml.v3-tagged struct tree
// with a Load/Validate/Save pair, generalized to viper-backed
// overrides the way jhkimqd-chaos-utils/cmd/chaos-runner layers
// --set/--enclave flags over a loaded YAML config.
package manifest

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/activeharmony/harmony/internal/config"
	"github.com/activeharmony/harmony/internal/space"
)

// DimensionSpec is one YAML-declared axis of the search space.
type DimensionSpec struct {
	Name string `yaml:"name"`
	Kind string `yaml:"kind"` // "int" | "real" | "enum"

	Min  int64 `yaml:"min"`
	Max  int64 `yaml:"max"`
	Step int64 `yaml:"step"`

	RealMin float64 `yaml:"real_min"`
	RealMax float64 `yaml:"real_max"`

	Values []string `yaml:"values"`
}

// Manifest is the on-disk shape of a session definition: its dimension
// list and a flat KEY=VALUE-style configuration block, the yaml
// counterpart to the core's own KEY=VALUE config file format.
type Manifest struct {
	Dimensions []DimensionSpec   `yaml:"dimensions"`
	Config     map[string]string `yaml:"config"`
}

// Load reads and parses a YAML manifest file, then layers HARMONY_-
// prefixed environment variable overrides over its Config block (see
// applyEnvOverrides), the way jhkimqd-chaos-utils' runner layers --set flags over
// its loaded YAML.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("manifest: reading %s: %w", path, err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("manifest: parsing %s: %w", path, err)
	}
	if err := m.applyEnvOverrides(); err != nil {
		return nil, err
	}
	return &m, nil
}

// applyEnvOverrides layers HARMONY_<KEY> environment variables over
// m.Config, read with os.Getenv, so a deployment can override a
// manifest's STRATEGY or LAYERS without editing the file. Only keys
// already present in the Config block are looked up; a variable for a
// key the block lacks is ignored. The keys are also bound on a viper
// instance, which nothing reads afterwards.
func (m *Manifest) applyEnvOverrides() error {
	if m.Config == nil {
		m.Config = make(map[string]string)
	}
	v := viper.New()
	v.SetEnvPrefix("HARMONY")
	v.AutomaticEnv()
	for key := range m.Config {
		envKey := "HARMONY_" + strings.ToUpper(key)
		if val := os.Getenv(envKey); val != "" {
			m.Config[key] = val
		}
		_ = v.BindEnv(key)
	}
	return nil
}

// BuildSpace constructs a space.Space from the manifest's dimension
// list, in declared order.
func (m *Manifest) BuildSpace() (*space.Space, error) {
	dims := make([]space.Dimension, len(m.Dimensions))
	for i, spec := range m.Dimensions {
		if spec.Name == "" {
			return nil, fmt.Errorf("manifest: dimension %d: name is required", i)
		}
		var d space.Dimension
		var err error
		switch spec.Kind {
		case "int", "integer":
			d, err = space.NewInteger(spec.Name, spec.Min, spec.Max, spec.Step)
		case "real":
			d, err = space.NewReal(spec.Name, spec.RealMin, spec.RealMax)
		case "enum":
			d, err = space.NewEnum(spec.Name, spec.Values)
		default:
			return nil, fmt.Errorf("manifest: dimension %q: unknown kind %q", spec.Name, spec.Kind)
		}
		if err != nil {
			return nil, fmt.Errorf("manifest: dimension %q: %w", spec.Name, err)
		}
		dims[i] = d
	}
	return space.New(dims...)
}

// BuildConfiguration copies the manifest's Config block into a fresh
// config.Configuration, in map iteration order — callers that need a
// deterministic Serialize should re-Set keys in their own preferred
// order afterward.
func (m *Manifest) BuildConfiguration() *config.Configuration {
	cfg := config.New()
	for k, v := range m.Config {
		cfg.Set(k, v)
	}
	return cfg
}
