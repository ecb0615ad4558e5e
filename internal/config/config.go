package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"dario.cat/mergo"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"dnagen/internal/model"
	"dnagen/internal/parser"
)

// ErrInvalidConfig is returned when a required setting is empty.
var ErrInvalidConfig = errors.New("invalid config")

// Config represents the complete configuration.
type Config struct {
	Input          string     `yaml:"input" json:"input"`
	Declarations   Target     `yaml:"declarations" json:"declarations"`
	Implementation Target     `yaml:"implementation" json:"implementation"`
	Marker         string     `yaml:"marker" json:"marker"`
	Options        Options    `yaml:"options" json:"options"`
	Statements     Statements `yaml:"statements" json:"statements"`
	Policies       Policies   `yaml:"policies" json:"policies"`
}

// Target pairs a template with the output it is rendered to.
type Target struct {
	Template string `yaml:"template" json:"template"`
	Output   string `yaml:"output" json:"output"`
}

// Options represents parsing options.
type Options struct {
	StrictDuplicates bool `yaml:"strictDuplicates" json:"strictDuplicates"`
	SkipMethods      bool `yaml:"skipMethods" json:"skipMethods"`
}

// Statements holds the text/template source of every emitted statement.
type Statements struct {
	Signature     string `yaml:"signature" json:"signature"`
	Separator     string `yaml:"separator" json:"separator"`
	Pointer       string `yaml:"pointer" json:"pointer"`
	Array         string `yaml:"array" json:"array"`
	Array2D       string `yaml:"array2d" json:"array2d"`
	Field         string `yaml:"field" json:"field"`
	Trailer       string `yaml:"trailer" json:"trailer"`
	Registry      string `yaml:"registry" json:"registry"`
	RegistryEntry string `yaml:"registryEntry" json:"registryEntry"`
	EnumCast      string `yaml:"enumCast" json:"enumCast"`
}

// Policies maps error policies to the tokens passed to the runtime.
type Policies struct {
	Ignore string `yaml:"ignore" json:"ignore"`
	Warn   string `yaml:"warn" json:"warn"`
	Fail   string `yaml:"fail" json:"fail"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Input: DefaultInput,
		Declarations: Target{
			Template: DefaultDeclarationsTemplate,
			Output:   DefaultDeclarationsOutput,
		},
		Implementation: Target{
			Template: DefaultImplementationTemplate,
			Output:   DefaultImplementationOutput,
		},
		Marker:     DefaultMarker,
		Options:    DefaultOptions(),
		Statements: DefaultStatements(),
		Policies:   DefaultPolicies(),
	}
}

// LoadFile loads configuration from a file (YAML or JSON based on extension)
// and merges it over the current values.
func (c *Config) LoadFile(fs afero.Fs, path string) error {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	var loaded Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &loaded); err != nil {
			return fmt.Errorf("parsing YAML config: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &loaded); err != nil {
			return fmt.Errorf("parsing JSON config: %w", err)
		}
	default:
		// Try YAML first, then JSON
		if err := yaml.Unmarshal(data, &loaded); err != nil {
			if err := json.Unmarshal(data, &loaded); err != nil {
				return fmt.Errorf("unable to parse config as YAML or JSON")
			}
		}
	}

	if err := mergo.Merge(c, loaded, mergo.WithOverride); err != nil {
		return fmt.Errorf("merging config: %w", err)
	}
	return nil
}

// Validate checks that every path and the marker are set.
func (c *Config) Validate() error {
	required := []struct{ key, value string }{
		{"input", c.Input},
		{"declarations.template", c.Declarations.Template},
		{"declarations.output", c.Declarations.Output},
		{"implementation.template", c.Implementation.Template},
		{"implementation.output", c.Implementation.Output},
		{"marker", c.Marker},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return fmt.Errorf("%w: %s is empty", ErrInvalidConfig, r.key)
		}
	}
	return nil
}

// PolicyToken returns the runtime token for p.
func (c *Config) PolicyToken(p model.Policy) string {
	switch p {
	case model.PolicyWarn:
		return c.Policies.Warn
	case model.PolicyFail:
		return c.Policies.Fail
	default:
		return c.Policies.Ignore
	}
}

// ParserOptions returns the options the header parser runs with.
func (c *Config) ParserOptions() parser.Options {
	return parser.Options{
		SkipMethods:      c.Options.SkipMethods,
		StrictDuplicates: c.Options.StrictDuplicates,
	}
}
