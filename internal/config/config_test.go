// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/dosemu2/cputest/internal/issue"
	"github.com/dosemu2/cputest/internal/testutil"
)

func load(t *testing.T, opts LoadOptions) (*Config, error) {
	t.Helper()
	return NewProvider().Load(context.Background(), opts)
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("DefaultConfig().Validate() error: %v", err)
	}
	if cfg.Timeout() != 20*time.Second {
		t.Errorf("Timeout() = %s, want 20s", cfg.Timeout())
	}
	if cfg.Runtime != RuntimeHost {
		t.Errorf("Runtime = %q, want host", cfg.Runtime)
	}
	if !cfg.Emulator.UsePTY {
		t.Error("UsePTY should default to true")
	}
	if cfg.Guest.Reference != "test/cpu/reffile.log" || cfg.Guest.TestBinary != "test/cpu/dosbin.exe" {
		t.Errorf("guest paths = %q, %q", cfg.Guest.Reference, cfg.Guest.TestBinary)
	}
	if cfg.Host.KVMDevice != "/dev/kvm" {
		t.Errorf("KVMDevice = %q", cfg.Host.KVMDevice)
	}
}

func TestLoad_NoFileUsesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := load(t, LoadOptions{ConfigDirPath: t.TempDir()})
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Source() != "" {
		t.Errorf("Source() = %q, want empty", cfg.Source())
	}

	want := DefaultConfig()
	if !reflect.DeepEqual(cfg.Emulator, want.Emulator) || cfg.Guest != want.Guest || cfg.TopDir != want.TopDir {
		t.Errorf("Load() = %+v, want defaults %+v", cfg, want)
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.cue")
	testutil.MustWriteFile(t, path, `
top_dir: "/src/dosemu2"
runtime: "container"
emulator: {
	timeout_seconds: 45
	use_pty: false
}
guest: flavour: "msdos"
container: image: "dosemu2:test"
ui: verbose: true
`)

	cfg, err := load(t, LoadOptions{ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Source() != path {
		t.Errorf("Source() = %q, want %q", cfg.Source(), path)
	}
	if cfg.TopDir != "/src/dosemu2" || cfg.Runtime != RuntimeContainer {
		t.Errorf("top_dir/runtime = %q/%q", cfg.TopDir, cfg.Runtime)
	}
	if cfg.Timeout() != 45*time.Second || cfg.Emulator.UsePTY {
		t.Errorf("emulator = %+v", cfg.Emulator)
	}
	if cfg.Guest.Flavour != "msdos" || cfg.Guest.HDImageTemplate != "dXXXXs/c" {
		t.Errorf("guest = %+v", cfg.Guest)
	}
	if cfg.Container.Image != "dosemu2:test" || !cfg.UI.Verbose {
		t.Errorf("container/ui = %+v/%+v", cfg.Container, cfg.UI)
	}
	if cfg.Emulator.Binary != "bin/dosemu" {
		t.Errorf("unset field lost its default: binary = %q", cfg.Emulator.Binary)
	}
}

func TestLoad_ExplicitFileMissing(t *testing.T) {
	t.Parallel()

	_, err := load(t, LoadOptions{ConfigFilePath: filepath.Join(t.TempDir(), "nope.cue")})
	if !errors.Is(err, ErrConfigNotFound) {
		t.Fatalf("Load() error = %v, want ErrConfigNotFound", err)
	}
	var ae *issue.ActionableError
	if !errors.As(err, &ae) || !ae.HasSuggestions() {
		t.Errorf("error should be actionable with suggestions: %v", err)
	}
}

func TestLoad_SchemaViolations(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		want    string
	}{
		{name: "unknown runtime", content: `runtime: "qemu"`, want: "runtime"},
		{name: "negative timeout", content: `emulator: timeout_seconds: -1`, want: "emulator.timeout_seconds"},
		{name: "unknown field", content: `emulator: speed: 3`, want: "speed"},
		{name: "capture path", content: `guest: capture_file: "out/dosfile.log"`, want: "guest.capture_file"},
		{name: "batch extension", content: `guest: batch_file: "testit.sh"`, want: "guest.batch_file"},
		{name: "wrong type", content: `ui: verbose: "yes"`, want: "ui.verbose"},
		{name: "syntax", content: `emulator: {`, want: "config.cue"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), "config.cue")
			testutil.MustWriteFile(t, path, tt.content)

			_, err := load(t, LoadOptions{ConfigFilePath: path})
			if err == nil {
				t.Fatal("Load() should reject the file")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q should mention %q", err, tt.want)
			}
		})
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("CPUTEST_TOP_DIR", "/env/top")
	t.Setenv("CPUTEST_EMULATOR_TIMEOUT_SECONDS", "7")

	cfg, err := load(t, LoadOptions{ConfigDirPath: t.TempDir()})
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.TopDir != "/env/top" {
		t.Errorf("TopDir = %q, want /env/top", cfg.TopDir)
	}
	if cfg.Timeout() != 7*time.Second {
		t.Errorf("Timeout() = %s, want 7s", cfg.Timeout())
	}
}

func TestLoad_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewProvider().Load(ctx, LoadOptions{}); !errors.Is(err, context.Canceled) {
		t.Errorf("Load() error = %v, want context.Canceled", err)
	}
}

func TestGenerateCUE_RoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "cputest", "config.cue")
	if err := WriteDefault(path, false); err != nil {
		t.Fatalf("WriteDefault() error: %v", err)
	}

	cfg, err := load(t, LoadOptions{ConfigFilePath: path})
	if err != nil {
		t.Fatalf("Load(generated) error: %v\n%s", err, testutil.MustReadFile(t, path))
	}
	want := DefaultConfig()
	want.source = path
	if !reflect.DeepEqual(cfg, want) {
		t.Errorf("generated config loads as %+v, want %+v", cfg, want)
	}

	if err := WriteDefault(path, false); !errors.Is(err, os.ErrExist) {
		t.Errorf("WriteDefault(existing) error = %v, want os.ErrExist", err)
	}
	if err := WriteDefault(path, true); err != nil {
		t.Errorf("WriteDefault(force) error: %v", err)
	}
}

func TestConfigDirOverride(t *testing.T) {
	dir := t.TempDir()
	SetConfigDirOverride(dir)
	t.Cleanup(Reset)

	got, err := DefaultConfigPath()
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dir, "config.cue"); got != want {
		t.Errorf("DefaultConfigPath() = %q, want %q", got, want)
	}
}

func TestResolve(t *testing.T) {
	t.Parallel()

	cfg := &Config{TopDir: "/src/dosemu2"}
	if got := cfg.Resolve("test/cpu/dosbin.exe"); got != filepath.Join("/src/dosemu2", "test/cpu/dosbin.exe") {
		t.Errorf("Resolve(relative) = %q", got)
	}
	if got := cfg.Resolve("/opt/dosemu/bin/dosemu"); got != "/opt/dosemu/bin/dosemu" {
		t.Errorf("Resolve(absolute) = %q", got)
	}
}
