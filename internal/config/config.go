// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/spf13/viper"

	"github.com/dosemu2/cputest/internal/issue"
)

const (
	// AppName is the application name.
	AppName = "cputest"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
	// EnvPrefix prefixes environment overrides, e.g. CPUTEST_TOP_DIR.
	EnvPrefix = "CPUTEST"

	maxConfigFileSize = 1 << 20
)

// ErrConfigNotFound is returned when an explicitly requested config file is missing.
var ErrConfigNotFound = errors.New("config file not found")

//go:embed config_schema.cue
var configSchema string

// ConfigDir returns the cputest configuration directory: %APPDATA% on
// Windows, ~/Library/Application Support on macOS and $XDG_CONFIG_HOME
// (default ~/.config) elsewhere.
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	if configDirOverride != "" {
		return configDirOverride, nil
	}

	var dir string
	switch runtime.GOOS {
	case "windows":
		dir = os.Getenv("APPDATA")
		if dir == "" {
			dir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		dir = filepath.Join(home, "Library", "Application Support")
	default:
		dir = os.Getenv("XDG_CONFIG_HOME")
		if dir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			dir = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(dir, AppName), nil
}

// DefaultConfigPath returns the path `cputest config init` writes to.
func DefaultConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFileName+"."+ConfigFileExt), nil
}

// loadWithOptions loads defaults, the first config file found and CPUTEST_*
// environment overrides, in increasing order of precedence.
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := viper.New()
	setDefaults(v, DefaultConfig())
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	path, err := findConfigFile(opts)
	if err != nil {
		return nil, "", err
	}
	if path != "" {
		if err := loadCUEIntoViper(v, path); err != nil {
			return nil, "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithIssue(issue.ConfigLoadFailedID).
				WithResource(path).
				WithSuggestion("Check that the file contains valid CUE syntax").
				WithSuggestion("Run 'cputest config show' to see the expected fields").
				Wrap(err).
				BuildError()
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", issue.NewErrorContext().
			WithOperation("validate configuration").
			WithIssue(issue.ConfigLoadFailedID).
			WithResource(path).
			Wrap(err).
			BuildError()
	}

	return &cfg, path, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("top_dir", d.TopDir)
	v.SetDefault("work_dir", d.WorkDir)
	v.SetDefault("runtime", d.Runtime)
	v.SetDefault("emulator.binary", d.Emulator.Binary)
	v.SetDefault("emulator.args", d.Emulator.Args)
	v.SetDefault("emulator.use_pty", d.Emulator.UsePTY)
	v.SetDefault("emulator.timeout_seconds", d.Emulator.TimeoutSeconds)
	v.SetDefault("emulator.log_file", d.Emulator.LogFile)
	v.SetDefault("guest.test_binary", d.Guest.TestBinary)
	v.SetDefault("guest.reference", d.Guest.Reference)
	v.SetDefault("guest.suite_flag", d.Guest.SuiteFlag)
	v.SetDefault("guest.capture_file", d.Guest.CaptureFile)
	v.SetDefault("guest.batch_file", d.Guest.BatchFile)
	v.SetDefault("guest.config_file", d.Guest.ConfigFile)
	v.SetDefault("guest.hdimage_template", d.Guest.HDImageTemplate)
	v.SetDefault("guest.hdimage_options", d.Guest.HDImageOptions)
	v.SetDefault("guest.flavour", d.Guest.Flavour)
	v.SetDefault("host.kvm_device", d.Host.KVMDevice)
	v.SetDefault("container.image", d.Container.Image)
	v.SetDefault("ui.color_scheme", d.UI.ColorScheme)
	v.SetDefault("ui.verbose", d.UI.Verbose)
}

// findConfigFile returns the file to load, or "" to use defaults only.
// An explicitly requested file must exist.
func findConfigFile(opts LoadOptions) (string, error) {
	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithIssue(issue.ConfigLoadFailedID).
				WithResource(opts.ConfigFilePath).
				WithSuggestion("Verify the file path is correct").
				WithSuggestion("Run 'cputest config init' to create a default configuration").
				Wrap(fmt.Errorf("%w: %s", ErrConfigNotFound, opts.ConfigFilePath)).
				BuildError()
		}
		return opts.ConfigFilePath, nil
	}

	dir := opts.ConfigDirPath
	if dir == "" {
		var err error
		if dir, err = ConfigDir(); err != nil {
			return "", err
		}
	}

	name := ConfigFileName + "." + ConfigFileExt
	for _, candidate := range []string{filepath.Join(dir, name), name} {
		if fileExists(candidate) {
			return candidate, nil
		}
	}
	return "", nil
}

// loadCUEIntoViper parses a CUE file, validates it against the #Config schema,
// and merges its contents into Viper.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if len(data) > maxConfigFileSize {
		return fmt.Errorf("%s: file size %d bytes exceeds maximum %d bytes", path, len(data), maxConfigFileSize)
	}

	ctx := cuecontext.New()
	schemaValue := ctx.CompileString(configSchema)
	if schemaValue.Err() != nil {
		return fmt.Errorf("internal error: failed to compile config schema: %w", schemaValue.Err())
	}

	userValue := ctx.CompileBytes(data, cue.Filename(path))
	if userValue.Err() != nil {
		return formatCUEError(userValue.Err(), path)
	}

	unified := schemaValue.LookupPath(cue.ParsePath("#Config")).Unify(userValue)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return formatCUEError(err, path)
	}

	var configMap map[string]any
	if err := unified.Decode(&configMap); err != nil {
		return formatCUEError(err, path)
	}

	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// WriteDefault writes the default configuration to path. An existing file is
// left untouched unless force is set.
func WriteDefault(path string, force bool) error {
	if !force && fileExists(path) {
		return fmt.Errorf("%s: %w", path, os.ErrExist)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(GenerateCUE(DefaultConfig())), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// GenerateCUE renders cfg in the config file format.
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// cputest configuration\n\n")
	fmt.Fprintf(&sb, "top_dir: %q\n", cfg.TopDir)
	if cfg.WorkDir != "" {
		fmt.Fprintf(&sb, "work_dir: %q\n", cfg.WorkDir)
	}
	fmt.Fprintf(&sb, "runtime: %q\n", cfg.Runtime)

	sb.WriteString("\nemulator: {\n")
	fmt.Fprintf(&sb, "\tbinary: %q\n", cfg.Emulator.Binary)
	fmt.Fprintf(&sb, "\targs: [%s]\n", quoteList(cfg.Emulator.Args))
	fmt.Fprintf(&sb, "\tuse_pty: %v\n", cfg.Emulator.UsePTY)
	fmt.Fprintf(&sb, "\ttimeout_seconds: %d\n", cfg.Emulator.TimeoutSeconds)
	fmt.Fprintf(&sb, "\tlog_file: %q\n", cfg.Emulator.LogFile)
	sb.WriteString("}\n")

	g := cfg.Guest
	sb.WriteString("\nguest: {\n")
	fmt.Fprintf(&sb, "\ttest_binary: %q\n", g.TestBinary)
	fmt.Fprintf(&sb, "\treference: %q\n", g.Reference)
	fmt.Fprintf(&sb, "\tsuite_flag: %q\n", g.SuiteFlag)
	fmt.Fprintf(&sb, "\tcapture_file: %q\n", g.CaptureFile)
	fmt.Fprintf(&sb, "\tbatch_file: %q\n", g.BatchFile)
	fmt.Fprintf(&sb, "\tconfig_file: %q\n", g.ConfigFile)
	fmt.Fprintf(&sb, "\thdimage_template: %q\n", g.HDImageTemplate)
	fmt.Fprintf(&sb, "\thdimage_options: %q\n", g.HDImageOptions)
	fmt.Fprintf(&sb, "\tflavour: %q\n", g.Flavour)
	sb.WriteString("}\n")

	sb.WriteString("\nhost: {\n")
	fmt.Fprintf(&sb, "\tkvm_device: %q\n", cfg.Host.KVMDevice)
	sb.WriteString("}\n")

	sb.WriteString("\ncontainer: {\n")
	fmt.Fprintf(&sb, "\timage: %q\n", cfg.Container.Image)
	sb.WriteString("}\n")

	sb.WriteString("\nui: {\n")
	fmt.Fprintf(&sb, "\tcolor_scheme: %q\n", cfg.UI.ColorScheme)
	fmt.Fprintf(&sb, "\tverbose: %v\n", cfg.UI.Verbose)
	sb.WriteString("}\n")

	return sb.String()
}

func quoteList(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = fmt.Sprintf("%q", s)
	}
	return strings.Join(quoted, ", ")
}
