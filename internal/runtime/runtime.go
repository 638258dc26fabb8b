// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/dosemu2/cputest/pkg/types"
)

// Runtime type constants for the supported execution environments.
const (
	RuntimeTypeHost      RuntimeType = "host"
	RuntimeTypeContainer RuntimeType = "container"
)

type (
	// Invocation describes one emulator process.
	Invocation struct {
		// Program is the emulator binary.
		Program string
		// Args are the emulator's command-line arguments.
		Args []string
		// WorkDir is the run's work directory; the guest's C: drive
		// and the capture file live here.
		WorkDir string
		// Env holds extra KEY=value entries added to the inherited environment.
		Env []string
		// LogFile receives the emulator's terminal output. Empty discards it.
		LogFile string
	}

	// Result contains the result of an emulator run.
	Result struct {
		// ExitCode is the exit code of the emulator process.
		ExitCode types.ExitCode
		// Error contains any error that prevented a normal exit.
		Error error
		// TimedOut is set when the run was stopped because its context expired.
		TimedOut bool
		// Duration is the wall-clock time of the run.
		Duration time.Duration
	}

	// Runtime defines the interface for starting the emulator.
	Runtime interface {
		// Name returns the runtime name.
		Name() string
		// Available returns whether this runtime can be used on the current system.
		Available() bool
		// Run starts the emulator and blocks until it exits or ctx is done.
		// When ctx is done the emulator and all its children are terminated
		// before Run returns.
		Run(ctx context.Context, inv *Invocation) *Result
	}

	// RuntimeType identifies the type of runtime.
	//
	//nolint:revive // RuntimeType is more descriptive than Type for external callers
	RuntimeType string

	// Registry holds all available runtimes.
	Registry struct {
		runtimes map[RuntimeType]Runtime
	}
)

// Success returns true if the emulator exited normally with status 0.
func (r *Result) Success() bool {
	return r.ExitCode.IsSuccess() && r.Error == nil && !r.TimedOut
}

// NewRegistry creates a new runtime registry.
func NewRegistry() *Registry {
	return &Registry{
		runtimes: make(map[RuntimeType]Runtime),
	}
}

// Register adds a runtime to the registry.
func (r *Registry) Register(typ RuntimeType, rt Runtime) {
	r.runtimes[typ] = rt
}

// Get returns a runtime by type.
func (r *Registry) Get(typ RuntimeType) (Runtime, error) {
	rt, ok := r.runtimes[typ]
	if !ok {
		return nil, fmt.Errorf("runtime '%s' not registered", typ)
	}
	return rt, nil
}

// Available returns all available runtimes, sorted by name.
func (r *Registry) Available() []RuntimeType {
	var types []RuntimeType
	for typ, rt := range r.runtimes {
		if rt.Available() {
			types = append(types, typ)
		}
	}
	slices.Sort(types)
	return types
}
