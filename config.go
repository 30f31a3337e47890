package halcyon

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/halcyon3d/halcyon/render/core"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds engine configuration. Values loaded from a user file override
// the embedded defaults field by field.
type Config struct {
	Render    core.RenderSettings `yaml:"render"`
	Particles ParticlesConfig     `yaml:"particles"`
	Telemetry TelemetryConfig     `yaml:"telemetry"`
	Debug     bool                `yaml:"debug"`
}

// ParticlesConfig holds particle simulation parameters.
type ParticlesConfig struct {
	MaxParticles int   `yaml:"max_particles"` // per-system capacity
	Seed         int64 `yaml:"seed"`          // default random seed for new systems
}

// TelemetryConfig holds frame telemetry parameters.
type TelemetryConfig struct {
	OutputDir string `yaml:"output_dir"` // empty disables CSV output
}

// LoadConfig loads configuration from a YAML file, merged over the embedded
// defaults. An empty path loads the defaults only.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into the same struct; only fields present in the file
		// overwrite.
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}
	return cfg, nil
}

// MustLoadConfig is like LoadConfig but panics on error.
func MustLoadConfig(path string) *Config {
	cfg, err := LoadConfig(path)
	if err != nil {
		panic(fmt.Sprintf("config: %v", err))
	}
	return cfg
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
