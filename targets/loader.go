package targets

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

/* Loader manages named replay targets from a YAML file
 * Provides in-memory lookup; the file is read once at startup
 */

// Config represents the structure of the targets file
type Config struct {
	Targets []TargetConfig `yaml:"targets"`
}

// TargetConfig represents a single target in the YAML file
type TargetConfig struct {
	Name                   string            `yaml:"name"`
	URL                    string            `yaml:"url"`
	IncludeOriginalHeaders bool              `yaml:"include_original_headers"`
	Headers                map[string]string `yaml:"headers"`
	SigningSecret          string            `yaml:"signing_secret"`
}

// Loader holds the loaded targets
type Loader struct {
	targets map[string]*Target
}

// NewLoader creates an empty loader
func NewLoader() *Loader {
	return &Loader{
		targets: make(map[string]*Target),
	}
}

// Load reads and parses a targets file
func (l *Loader) Load(filePath string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("reading targets file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return fmt.Errorf("parsing targets YAML: %w", err)
	}

	loaded := make(map[string]*Target, len(config.Targets))
	for _, tc := range config.Targets {
		headers := make(map[string]string, len(tc.Headers))
		for k, v := range tc.Headers {
			headers[strings.ToLower(k)] = v
		}

		target := &Target{
			Name:                   tc.Name,
			URL:                    tc.URL,
			IncludeOriginalHeaders: tc.IncludeOriginalHeaders,
			Headers:                headers,
			SigningSecret:          tc.SigningSecret,
		}
		if err := target.Validate(); err != nil {
			return fmt.Errorf("validating target: %w", err)
		}
		if _, dup := loaded[target.Name]; dup {
			return fmt.Errorf("duplicate target name: %s", target.Name)
		}
		loaded[target.Name] = target
	}

	l.targets = loaded
	return nil
}

// Get retrieves a target by name
func (l *Loader) Get(name string) (*Target, error) {
	target, exists := l.targets[name]
	if !exists {
		return nil, fmt.Errorf("target not found: %s", name)
	}
	return target, nil
}

// List returns all loaded targets sorted by name
func (l *Loader) List() []*Target {
	all := make([]*Target, 0, len(l.targets))
	for _, target := range l.targets {
		all = append(all, target)
	}
	slices.SortFunc(all, func(a, b *Target) int {
		return strings.Compare(a.Name, b.Name)
	})
	return all
}

// Exists checks if a target name is configured
func (l *Loader) Exists(name string) bool {
	_, exists := l.targets[name]
	return exists
}
