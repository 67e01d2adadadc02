// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	// ColorSchemeAuto detects the terminal color scheme automatically.
	ColorSchemeAuto ColorScheme = "auto"
	// ColorSchemeDark forces dark color scheme.
	ColorSchemeDark ColorScheme = "dark"
	// ColorSchemeLight forces light color scheme.
	ColorSchemeLight ColorScheme = "light"

	// DefaultInterpreter is the interpreter used for Python scripts when
	// the config does not name one. Resolution falls back to "python"
	// when "python3" is not on PATH.
	DefaultInterpreter = "python3"

	// DefaultHost binds the web server to loopback only. The server
	// fronts local files and spawns local processes, so it should not
	// be reachable from the network unless explicitly configured.
	DefaultHost = "127.0.0.1"
	// DefaultPort is the default web server port.
	DefaultPort = 8773

	// DefaultRunTimeoutSeconds bounds a single script run.
	DefaultRunTimeoutSeconds = 600
)

var (
	// ErrInvalidColorScheme is returned when a ColorScheme value is not recognized.
	ErrInvalidColorScheme = errors.New("invalid color scheme")
	// ErrInvalidListenConfig is the sentinel error wrapped by InvalidListenConfigError.
	ErrInvalidListenConfig = errors.New("invalid listen config")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// ColorScheme controls terminal color rendering.
	ColorScheme string

	// InvalidColorSchemeError is returned when a ColorScheme value is not recognized.
	// It wraps ErrInvalidColorScheme for errors.Is() compatibility.
	InvalidColorSchemeError struct {
		Value ColorScheme
	}

	// ListenConfig holds the web server bind address.
	ListenConfig struct {
		Host string `mapstructure:"host"`
		Port int    `mapstructure:"port"`
	}

	// InvalidListenConfigError is returned when a ListenConfig fails validation.
	// It wraps ErrInvalidListenConfig for errors.Is() compatibility.
	InvalidListenConfigError struct {
		Field  string
		Reason string
	}

	// UIConfig holds terminal presentation settings.
	UIConfig struct {
		ColorScheme ColorScheme `mapstructure:"color_scheme"`
		Verbose     bool        `mapstructure:"verbose"`
	}

	// FetchConfig holds GitHub download settings.
	FetchConfig struct {
		// APIBaseURL overrides the GitHub API endpoint, for GitHub
		// Enterprise hosts. Empty means api.github.com.
		APIBaseURL string `mapstructure:"api_base_url"`
	}

	// Config is the root configuration for csvpilot.
	Config struct {
		// CSVDir overrides the managed CSV directory. Empty means
		// the per-user data directory.
		CSVDir string `mapstructure:"csv_dir"`
		// ScriptsDir overrides the managed scripts directory.
		ScriptsDir string `mapstructure:"scripts_dir"`
		// Interpreter names the Python interpreter for .py scripts.
		Interpreter string `mapstructure:"interpreter"`
		// RunTimeoutSeconds bounds a single script run. 0 disables
		// the limit.
		RunTimeoutSeconds int `mapstructure:"run_timeout"`

		Listen ListenConfig `mapstructure:"listen"`
		UI     UIConfig     `mapstructure:"ui"`
		Fetch  FetchConfig  `mapstructure:"fetch"`
	}

	// InvalidConfigError aggregates all validation failures of a Config.
	// It wraps ErrInvalidConfig for errors.Is() compatibility.
	InvalidConfigError struct {
		Errors []error
	}
)

// Error implements the error interface.
func (e *InvalidColorSchemeError) Error() string {
	return fmt.Sprintf("invalid color scheme %q (valid: auto, dark, light)", string(e.Value))
}

// Unwrap returns ErrInvalidColorScheme so callers can use errors.Is.
func (e *InvalidColorSchemeError) Unwrap() error { return ErrInvalidColorScheme }

// Error implements the error interface.
func (e *InvalidListenConfigError) Error() string {
	return fmt.Sprintf("invalid listen config: %s: %s", e.Field, e.Reason)
}

// Unwrap returns ErrInvalidListenConfig so callers can use errors.Is.
func (e *InvalidListenConfigError) Unwrap() error { return ErrInvalidListenConfig }

// Error implements the error interface.
func (e *InvalidConfigError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, err := range e.Errors {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("invalid config: %s", strings.Join(msgs, "; "))
}

// Unwrap returns ErrInvalidConfig so callers can use errors.Is.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }

// IsValid returns whether the ColorScheme is a recognized value, and a
// list of validation errors if it is not.
func (c ColorScheme) IsValid() (bool, []error) {
	switch c {
	case ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight:
		return true, nil
	default:
		return false, []error{&InvalidColorSchemeError{Value: c}}
	}
}

// IsValid returns whether the ListenConfig is usable, and a list of
// validation errors if it is not.
func (l ListenConfig) IsValid() (bool, []error) {
	var errs []error
	if strings.TrimSpace(l.Host) == "" {
		errs = append(errs, &InvalidListenConfigError{Field: "host", Reason: "empty"})
	}
	if l.Port < 1 || l.Port > 65535 {
		errs = append(errs, &InvalidListenConfigError{
			Field:  "port",
			Reason: fmt.Sprintf("%d is outside 1-65535", l.Port),
		})
	}
	return len(errs) == 0, errs
}

// Addr returns the host:port form suitable for net.Listen.
func (l ListenConfig) Addr() string {
	return fmt.Sprintf("%s:%d", l.Host, l.Port)
}

// Validate checks the whole Config and returns an InvalidConfigError
// aggregating every failure, or nil when the Config is usable.
func (c *Config) Validate() error {
	var errs []error
	if ok, schemeErrs := c.UI.ColorScheme.IsValid(); !ok {
		errs = append(errs, schemeErrs...)
	}
	if ok, listenErrs := c.Listen.IsValid(); !ok {
		errs = append(errs, listenErrs...)
	}
	if c.RunTimeoutSeconds < 0 {
		errs = append(errs, fmt.Errorf("run_timeout must not be negative, got %d", c.RunTimeoutSeconds))
	}
	if strings.TrimSpace(c.Interpreter) == "" {
		errs = append(errs, errors.New("interpreter must not be empty"))
	}
	if len(errs) > 0 {
		return &InvalidConfigError{Errors: errs}
	}
	return nil
}

// RunTimeout returns the per-run limit as a duration. Zero means no
// limit.
func (c *Config) RunTimeout() time.Duration {
	return time.Duration(c.RunTimeoutSeconds) * time.Second
}

// DefaultConfig returns the built-in defaults applied before any config
// file is read.
func DefaultConfig() *Config {
	return &Config{
		Interpreter:       DefaultInterpreter,
		RunTimeoutSeconds: DefaultRunTimeoutSeconds,
		Listen: ListenConfig{
			Host: DefaultHost,
			Port: DefaultPort,
		},
		UI: UIConfig{
			ColorScheme: ColorSchemeAuto,
			Verbose:     false,
		},
	}
}
