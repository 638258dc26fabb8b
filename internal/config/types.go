// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

const (
	// RuntimeHost runs the emulator as a child process.
	RuntimeHost RuntimeKind = "host"
	// RuntimeContainer runs the emulator inside a container image.
	RuntimeContainer RuntimeKind = "container"

	// ColorSchemeAuto detects the terminal color scheme automatically.
	ColorSchemeAuto ColorScheme = "auto"
	// ColorSchemeDark forces dark color scheme.
	ColorSchemeDark ColorScheme = "dark"
	// ColorSchemeLight forces light color scheme.
	ColorSchemeLight ColorScheme = "light"
)

var (
	// ErrInvalidRuntimeKind is returned when a RuntimeKind value is not recognized.
	ErrInvalidRuntimeKind = errors.New("invalid runtime")
	// ErrInvalidColorScheme is returned when a ColorScheme value is not recognized.
	ErrInvalidColorScheme = errors.New("invalid color scheme")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// RuntimeKind selects where the emulator runs.
	RuntimeKind string

	// InvalidRuntimeKindError is returned when a RuntimeKind value is not recognized.
	InvalidRuntimeKindError struct {
		Value RuntimeKind
	}

	// ColorScheme specifies the terminal color scheme preference.
	ColorScheme string

	// InvalidColorSchemeError is returned when a ColorScheme value is not recognized.
	InvalidColorSchemeError struct {
		Value ColorScheme
	}

	// InvalidConfigError collects the field-level errors of a Config.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the application configuration.
	Config struct {
		// TopDir is the root of the emulator source tree.
		TopDir string `json:"top_dir" mapstructure:"top_dir"`
		// WorkDir is the parent of the per-case work directories.
		WorkDir string `json:"work_dir,omitempty" mapstructure:"work_dir"`
		// Runtime selects where the emulator runs.
		Runtime   RuntimeKind     `json:"runtime" mapstructure:"runtime"`
		Emulator  EmulatorConfig  `json:"emulator" mapstructure:"emulator"`
		Guest     GuestConfig     `json:"guest" mapstructure:"guest"`
		Host      HostConfig      `json:"host" mapstructure:"host"`
		Container ContainerConfig `json:"container" mapstructure:"container"`
		UI        UIConfig        `json:"ui" mapstructure:"ui"`

		// source is the file the configuration was read from, if any.
		source string
	}

	// EmulatorConfig describes how the emulator is started.
	EmulatorConfig struct {
		// Binary is the emulator executable, relative to TopDir unless absolute.
		Binary string `json:"binary" mapstructure:"binary"`
		// Args are placed between the config file option and the batch file option.
		Args []string `json:"args" mapstructure:"args"`
		// UsePTY runs the emulator under a pseudo-terminal.
		UsePTY bool `json:"use_pty" mapstructure:"use_pty"`
		// TimeoutSeconds bounds a single run.
		TimeoutSeconds int `json:"timeout_seconds" mapstructure:"timeout_seconds"`
		// LogFile receives the emulator's terminal output, inside the work directory.
		LogFile string `json:"log_file" mapstructure:"log_file"`
	}

	// GuestConfig describes the DOS side of a run.
	GuestConfig struct {
		TestBinary      string `json:"test_binary" mapstructure:"test_binary"`
		Reference       string `json:"reference" mapstructure:"reference"`
		SuiteFlag       string `json:"suite_flag" mapstructure:"suite_flag"`
		CaptureFile     string `json:"capture_file" mapstructure:"capture_file"`
		BatchFile       string `json:"batch_file" mapstructure:"batch_file"`
		ConfigFile      string `json:"config_file" mapstructure:"config_file"`
		HDImageTemplate string `json:"hdimage_template" mapstructure:"hdimage_template"`
		HDImageOptions  string `json:"hdimage_options" mapstructure:"hdimage_options"`
		// Flavour replaces the XXXX placeholder of HDImageTemplate.
		Flavour string `json:"flavour" mapstructure:"flavour"`
	}

	// HostConfig describes host capabilities.
	HostConfig struct {
		KVMDevice string `json:"kvm_device" mapstructure:"kvm_device"`
	}

	// ContainerConfig configures the container runtime.
	ContainerConfig struct {
		// Image holds the emulator. Empty uses the runtime's default image.
		Image string `json:"image" mapstructure:"image"`
	}

	// UIConfig configures terminal output.
	UIConfig struct {
		ColorScheme ColorScheme `json:"color_scheme" mapstructure:"color_scheme"`
		Verbose     bool        `json:"verbose" mapstructure:"verbose"`
	}
)

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		TopDir:  ".",
		Runtime: RuntimeHost,
		Emulator: EmulatorConfig{
			Binary:         "bin/dosemu",
			Args:           []string{"-n", "-td", "-ks"},
			UsePTY:         true,
			TimeoutSeconds: 20,
			LogFile:        "dosemu.log",
		},
		Guest: GuestConfig{
			TestBinary:      "test/cpu/dosbin.exe",
			Reference:       "test/cpu/reffile.log",
			SuiteFlag:       "--common-tests",
			CaptureFile:     "dosfile.log",
			BatchFile:       "testit.bat",
			ConfigFile:      "dosemu.conf",
			HDImageTemplate: "dXXXXs/c",
			HDImageOptions:  "hdtype1 +1",
			Flavour:         "fdpp",
		},
		Host: HostConfig{KVMDevice: "/dev/kvm"},
		UI:   UIConfig{ColorScheme: ColorSchemeAuto},
	}
}

// Error implements the error interface.
func (e *InvalidRuntimeKindError) Error() string {
	return fmt.Sprintf("invalid runtime %q (valid: host, container)", e.Value)
}

// Unwrap returns ErrInvalidRuntimeKind so callers can use errors.Is for programmatic detection.
func (e *InvalidRuntimeKindError) Unwrap() error { return ErrInvalidRuntimeKind }

// String returns the string representation of the RuntimeKind.
func (k RuntimeKind) String() string { return string(k) }

// IsValid returns whether the RuntimeKind is one of the defined runtimes.
func (k RuntimeKind) IsValid() (bool, []error) {
	switch k {
	case RuntimeHost, RuntimeContainer:
		return true, nil
	default:
		return false, []error{&InvalidRuntimeKindError{Value: k}}
	}
}

// Error implements the error interface.
func (e *InvalidColorSchemeError) Error() string {
	return fmt.Sprintf("invalid color scheme %q (valid: auto, dark, light)", e.Value)
}

// Unwrap returns ErrInvalidColorScheme so callers can use errors.Is for programmatic detection.
func (e *InvalidColorSchemeError) Unwrap() error { return ErrInvalidColorScheme }

// String returns the string representation of the ColorScheme.
func (cs ColorScheme) String() string { return string(cs) }

// IsValid returns whether the ColorScheme is one of the defined schemes.
func (cs ColorScheme) IsValid() (bool, []error) {
	switch cs {
	case ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight:
		return true, nil
	default:
		return false, []error{&InvalidColorSchemeError{Value: cs}}
	}
}

// Error implements the error interface.
func (e *InvalidConfigError) Error() string {
	if len(e.FieldErrors) == 1 {
		return fmt.Sprintf("invalid config: %v", e.FieldErrors[0])
	}
	return fmt.Sprintf("invalid config: %d field errors", len(e.FieldErrors))
}

// Unwrap returns ErrInvalidConfig so callers can use errors.Is for programmatic detection.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }

// Validate checks the constraints the schema cannot see, such as values
// set programmatically or through flags.
func (c *Config) Validate() error {
	var errs []error
	if _, fieldErrs := c.Runtime.IsValid(); len(fieldErrs) > 0 {
		errs = append(errs, fieldErrs...)
	}
	if _, fieldErrs := c.UI.ColorScheme.IsValid(); len(fieldErrs) > 0 {
		errs = append(errs, fieldErrs...)
	}
	if strings.TrimSpace(c.TopDir) == "" {
		errs = append(errs, errors.New("top_dir must not be empty"))
	}
	if c.Emulator.TimeoutSeconds <= 0 {
		errs = append(errs, fmt.Errorf("emulator.timeout_seconds must be positive, got %d", c.Emulator.TimeoutSeconds))
	}
	for _, f := range []struct{ key, value string }{
		{"guest.capture_file", c.Guest.CaptureFile},
		{"guest.batch_file", c.Guest.BatchFile},
		{"guest.config_file", c.Guest.ConfigFile},
	} {
		if f.value == "" || filepath.Base(f.value) != f.value {
			errs = append(errs, fmt.Errorf("%s must be a plain file name, got %q", f.key, f.value))
		}
	}

	if len(errs) > 0 {
		return &InvalidConfigError{FieldErrors: errs}
	}
	return nil
}

// Source returns the file the configuration was read from, or "" for defaults.
func (c *Config) Source() string { return c.source }

// Timeout returns the per-run time budget.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Emulator.TimeoutSeconds) * time.Second
}

// Resolve returns path made absolute against TopDir.
func (c *Config) Resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	top, err := filepath.Abs(c.TopDir)
	if err != nil {
		top = c.TopDir
	}
	return filepath.Join(top, path)
}
