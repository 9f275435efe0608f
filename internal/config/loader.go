package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the top-level profile file structure.
type Config struct {
	// Default names the profile used when none is requested
	Default string `json:"default,omitempty" yaml:"default,omitempty"`

	// Profiles maps a profile name to its connection settings
	Profiles map[string]Profile `json:"profiles" yaml:"profiles"`
}

// Profile describes one target server and the options sent with every request.
type Profile struct {
	// Protocol is "http" or "https"
	Protocol string `json:"protocol" yaml:"protocol"`

	// Host is the server host name or address, without scheme or port
	Host string `json:"host" yaml:"host"`

	// Port is the server port; zero or less uses the scheme default
	Port int `json:"port,omitempty" yaml:"port,omitempty"`

	// Username and Password enable basic authentication when both are set.
	// ${VAR} references are expanded from the process environment.
	Username *string `json:"username,omitempty" yaml:"username,omitempty"`
	Password *string `json:"password,omitempty" yaml:"password,omitempty"`

	// Headers are added to every request made with this profile
	Headers map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`

	// Params are query parameters added to every request, in order
	Params []Param `json:"params,omitempty" yaml:"params,omitempty"`

	// Vars are substituted for {{name}} in paths, params and headers
	Vars map[string]string `json:"variables,omitempty" yaml:"variables,omitempty"`
}

// Param is an ordered query parameter.
type Param struct {
	Name  string `json:"name" yaml:"name"`
	Value string `json:"value" yaml:"value"`
}

// LoadConfig loads and validates a profile file.
//
// The file format is determined by extension:
//   - .yaml, .yml -> YAML
//   - .json -> JSON
func LoadConfig(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	config, err := ParseConfig(data, path)
	if err != nil {
		return nil, err
	}

	if errs := ValidateConfig(config); len(errs) > 0 {
		return nil, fmt.Errorf("invalid config file %s: %w", path, errs)
	}

	return config, nil
}

// ParseConfig parses profile data. The format is taken from the extension of
// path and defaults to YAML, which also accepts JSON documents.
func ParseConfig(data []byte, path string) (*Config, error) {
	var config Config

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".json":
		if err := json.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	case ".yaml", ".yml", "":
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config (unknown format %s): %w", ext, err)
		}
	}

	config.expandEnv()
	return &config, nil
}

func (c *Config) expandEnv() {
	for name, p := range c.Profiles {
		if p.Username != nil {
			u := os.ExpandEnv(*p.Username)
			p.Username = &u
		}
		if p.Password != nil {
			pw := os.ExpandEnv(*p.Password)
			p.Password = &pw
		}
		c.Profiles[name] = p
	}
}

// Profile returns the named profile, or the default profile when name is empty.
func (c *Config) Profile(name string) (Profile, error) {
	if name == "" {
		name = c.Default
	}
	if name == "" {
		if len(c.Profiles) == 1 {
			for _, p := range c.Profiles {
				return p, nil
			}
		}
		return Profile{}, fmt.Errorf("no profile selected and no default profile set")
	}

	p, ok := c.Profiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("profile not found: %s", name)
	}
	return p, nil
}

// Names returns the profile names in sorted order.
func (c *Config) Names() []string {
	names := make([]string, 0, len(c.Profiles))
	for name := range c.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ProcessVariables replaces {{name}} placeholders in input with values from vars.
// Unknown placeholders are left untouched.
func ProcessVariables(input string, vars map[string]string) string {
	result := input
	for key, value := range vars {
		result = strings.ReplaceAll(result, "{{"+key+"}}", value)
	}
	return result
}
