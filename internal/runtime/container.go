// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/docker/docker/api/types/container"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/dosemu2/cputest/internal/issue"
	"github.com/dosemu2/cputest/pkg/types"
)

// DefaultContainerImage is used when no image is configured.
const DefaultContainerImage = "ghcr.io/dosemu2/dosemu2:latest"

// ContainerRuntime runs the emulator inside a container image. The run's work
// directory is bind-mounted at the same path, so Invocation paths are valid on
// both sides.
type ContainerRuntime struct {
	// Image is the container image holding the emulator.
	Image string
	// Mounts are extra host directories bind-mounted read-only at the same path,
	// typically the source tree holding the emulator build.
	Mounts []string
	// KVMDevice is passed through to the container when it exists on the host.
	KVMDevice string
	// Logger receives debug output. Nil uses log.Default().
	Logger *log.Logger
}

// NewContainerRuntime creates a container runtime for image.
func NewContainerRuntime(image, kvmDevice string, mounts []string, logger *log.Logger) *ContainerRuntime {
	if image == "" {
		image = DefaultContainerImage
	}
	return &ContainerRuntime{Image: image, Mounts: mounts, KVMDevice: kvmDevice, Logger: logger}
}

// Name returns the runtime name.
func (r *ContainerRuntime) Name() string {
	return string(RuntimeTypeContainer)
}

// Available reports whether a container provider can be reached.
// testcontainers panics on some broken Docker setups, so the probe recovers.
func (r *ContainerRuntime) Available() (available bool) {
	defer func() {
		if rec := recover(); rec != nil {
			available = false
		}
	}()

	provider, err := testcontainers.ProviderDocker.GetProvider()
	if err != nil {
		return false
	}
	defer provider.Close()
	return true
}

// Run starts a container for inv and waits for it to exit. The container is
// removed before Run returns, including when ctx expires.
func (r *ContainerRuntime) Run(ctx context.Context, inv *Invocation) *Result {
	logger := r.logger()
	start := time.Now()

	req := testcontainers.ContainerRequest{
		Image:      r.Image,
		Entrypoint: []string{inv.Program},
		Cmd:        inv.Args,
		WorkingDir: inv.WorkDir,
		Env:        envMap(inv.Env),
		ConfigModifier: func(cfg *container.Config) {
			// Files written by the guest must stay readable and removable by us.
			cfg.User = fmt.Sprintf("%d:%d", os.Getuid(), os.Getgid())
			cfg.Tty = true
		},
		HostConfigModifier: r.hostConfig(inv.WorkDir),
		WaitingFor:         wait.ForExit(),
	}

	ctr, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	defer func() {
		if termErr := testcontainers.TerminateContainer(ctr); termErr != nil {
			logger.Warn("failed to remove emulator container", "error", termErr)
		}
	}()

	if ctxErr := ctx.Err(); ctxErr != nil {
		return NewTimeoutResult(ctxErr, time.Since(start))
	}
	if err != nil {
		return NewErrorResult(125, issue.NewErrorContext().
			WithOperation("start emulator container").
			WithIssue(issue.ContainerEngineNotFoundID).
			WithResource(r.Image).
			WithSuggestion("Check that Docker or Podman is running").
			WithSuggestion("Pull the image or set container.image in the configuration").
			Wrap(err).
			BuildSetupError())
	}

	state, err := ctr.State(ctx)
	if err != nil {
		return &Result{ExitCode: 1, Error: fmt.Errorf("inspect emulator container: %w", err), Duration: time.Since(start)}
	}
	logger.Debug("emulator container exited", "image", r.Image, "exit_code", state.ExitCode)

	if inv.LogFile != "" {
		if logErr := r.saveLogs(ctx, ctr, inv.LogFile); logErr != nil {
			logger.Warn("failed to save emulator container log", "file", inv.LogFile, "error", logErr)
		}
	}

	code := types.ExitCode(state.ExitCode)
	if code.IsTransient() {
		return NewErrorResult(code, issue.NewErrorContext().
			WithOperation("run emulator in container").
			WithIssue(issue.EmulatorNotFoundID).
			WithResource(inv.Program).
			WithSuggestion("Check that the emulator binary exists in the image and is executable").
			Wrap(fmt.Errorf("container engine exit code %s", code)).
			BuildSetupError())
	}
	return NewExitCodeResult(code, time.Since(start))
}

func (r *ContainerRuntime) hostConfig(workDir string) func(*container.HostConfig) {
	return func(hc *container.HostConfig) {
		hc.Binds = append(hc.Binds, workDir+":"+workDir)
		for _, m := range r.Mounts {
			hc.Binds = append(hc.Binds, m+":"+m+":ro")
		}
		if r.KVMDevice == "" {
			return
		}
		if _, err := os.Stat(r.KVMDevice); err == nil {
			hc.Devices = append(hc.Devices, container.DeviceMapping{
				PathOnHost:        r.KVMDevice,
				PathInContainer:   r.KVMDevice,
				CgroupPermissions: "rwm",
			})
		}
	}
}

func (r *ContainerRuntime) saveLogs(ctx context.Context, ctr testcontainers.Container, path string) error {
	rc, err := ctr.Logs(ctx)
	if err != nil {
		return err
	}
	defer rc.Close()

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, rc); err != nil {
		return errors.Join(err, f.Close())
	}
	return f.Close()
}

func (r *ContainerRuntime) logger() *log.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return log.Default()
}

// envMap converts KEY=value entries; entries without '=' are dropped.
func envMap(env []string) map[string]string {
	if len(env) == 0 {
		return nil
	}
	m := make(map[string]string, len(env))
	for _, kv := range env {
		if k, v, ok := strings.Cut(kv, "="); ok {
			m[k] = v
		}
	}
	return m
}
