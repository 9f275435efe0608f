package config

import (
	"fmt"
	"strings"

	"github.com/wesleyorama2/restup/rest"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Path    string
	Message string
}

// Error returns the error message
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// ValidationErrors collects every problem found in a file.
type ValidationErrors []ValidationError

// Error joins the individual messages.
func (ve ValidationErrors) Error() string {
	msgs := make([]string, len(ve))
	for i, e := range ve {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

// ValidateConfig validates the configuration. Profiles are checked in name
// order so the result is stable.
func ValidateConfig(config *Config) ValidationErrors {
	var errors ValidationErrors

	if len(config.Profiles) == 0 {
		errors = append(errors, ValidationError{
			Path:    "profiles",
			Message: "at least one profile is required",
		})
	}

	if config.Default != "" {
		if _, ok := config.Profiles[config.Default]; !ok {
			errors = append(errors, ValidationError{
				Path:    "default",
				Message: fmt.Sprintf("profile not found: %s", config.Default),
			})
		}
	}

	for _, name := range config.Names() {
		errors = append(errors, ValidateProfile(name, config.Profiles[name])...)
	}

	return errors
}

// ValidateProfile validates a single profile.
func ValidateProfile(name string, profile Profile) ValidationErrors {
	var errors ValidationErrors
	prefix := "profiles." + name

	if _, err := rest.ParseProtocol(profile.Protocol); err != nil {
		errors = append(errors, ValidationError{
			Path:    prefix + ".protocol",
			Message: fmt.Sprintf("invalid protocol: %q (want http or https)", profile.Protocol),
		})
	}

	if profile.Host == "" {
		errors = append(errors, ValidationError{
			Path:    prefix + ".host",
			Message: "host is required",
		})
	} else if strings.Contains(profile.Host, "://") || strings.ContainsAny(profile.Host, "/ ") {
		errors = append(errors, ValidationError{
			Path:    prefix + ".host",
			Message: fmt.Sprintf("host must be a bare host name: %s", profile.Host),
		})
	}

	if profile.Port > 65535 {
		errors = append(errors, ValidationError{
			Path:    prefix + ".port",
			Message: fmt.Sprintf("port out of range: %d", profile.Port),
		})
	}

	if (profile.Username == nil) != (profile.Password == nil) {
		errors = append(errors, ValidationError{
			Path:    prefix,
			Message: "username and password must be set together",
		})
	}

	for i, p := range profile.Params {
		if p.Name == "" {
			errors = append(errors, ValidationError{
				Path:    fmt.Sprintf("%s.params[%d].name", prefix, i),
				Message: "param name is required",
			})
		}
	}

	for key := range profile.Headers {
		if strings.TrimSpace(key) == "" {
			errors = append(errors, ValidationError{
				Path:    prefix + ".headers",
				Message: "header name cannot be empty",
			})
		}
	}

	return errors
}
