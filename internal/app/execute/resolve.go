// SPDX-License-Identifier: MPL-2.0

package execute

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/dosemu2/cputest/internal/config"
	"github.com/dosemu2/cputest/internal/issue"
	"github.com/dosemu2/cputest/internal/runtime"
)

// ErrRuntimeUnavailable is the sentinel error wrapped by RuntimeUnavailableError.
var ErrRuntimeUnavailable = errors.New("runtime unavailable")

// RuntimeUnavailableError is returned when the selected runtime cannot be
// used on this system.
type RuntimeUnavailableError struct {
	Runtime   config.RuntimeKind
	Available []runtime.RuntimeType
}

// Error implements the error interface.
func (e *RuntimeUnavailableError) Error() string {
	return fmt.Sprintf("runtime %q is not available on this system (available: %v)", e.Runtime, e.Available)
}

// Unwrap returns ErrRuntimeUnavailable for errors.Is() compatibility.
func (e *RuntimeUnavailableError) Unwrap() error { return ErrRuntimeUnavailable }

// BuildRegistry registers every runtime cfg can configure.
func BuildRegistry(cfg *config.Config, logger *log.Logger) *runtime.Registry {
	reg := runtime.NewRegistry()
	reg.Register(runtime.RuntimeTypeHost, runtime.NewHostRuntime(cfg.Emulator.UsePTY, logger))

	top, err := filepath.Abs(cfg.TopDir)
	if err != nil {
		top = cfg.TopDir
	}
	reg.Register(runtime.RuntimeTypeContainer,
		runtime.NewContainerRuntime(cfg.Container.Image, cfg.Host.KVMDevice, []string{top}, logger))
	return reg
}

// ResolveRuntime applies runtime-selection precedence:
//  1. CLI override
//  2. Config runtime
//
// The chosen runtime must be available; there is no silent fallback, since
// results from a different runtime are not comparable.
func ResolveRuntime(reg *runtime.Registry, override config.RuntimeKind, cfg *config.Config) (runtime.Runtime, error) {
	kind := cfg.Runtime
	if override != "" {
		if ok, errs := override.IsValid(); !ok {
			return nil, errs[0]
		}
		kind = override
	}

	rt, err := reg.Get(runtime.RuntimeType(kind))
	if err != nil {
		return nil, err
	}
	if !rt.Available() {
		return nil, issue.NewErrorContext().
			WithOperation("select emulator runtime").
			WithIssue(issue.ContainerEngineNotFoundID).
			WithResource(string(kind)).
			WithSuggestion("Start Docker or Podman, or use --runtime host").
			Wrap(&RuntimeUnavailableError{Runtime: kind, Available: reg.Available()}).
			BuildSetupError()
	}
	return rt, nil
}
