// SPDX-License-Identifier: MPL-2.0

package execute

import (
	"context"
	"errors"
	"testing"

	"github.com/dosemu2/cputest/internal/config"
	"github.com/dosemu2/cputest/internal/issue"
	"github.com/dosemu2/cputest/internal/runtime"
)

type stubRuntime struct {
	name      string
	available bool
}

func (s stubRuntime) Name() string    { return s.name }
func (s stubRuntime) Available() bool { return s.available }
func (s stubRuntime) Run(context.Context, *runtime.Invocation) *runtime.Result {
	return runtime.NewExitCodeResult(0, 0)
}

func TestResolveRuntime(t *testing.T) {
	t.Parallel()

	reg := runtime.NewRegistry()
	reg.Register(runtime.RuntimeTypeHost, stubRuntime{name: "host", available: true})
	reg.Register(runtime.RuntimeTypeContainer, stubRuntime{name: "container", available: false})

	tests := []struct {
		name      string
		cfgKind   config.RuntimeKind
		override  config.RuntimeKind
		want      string
		wantErr   error
		wantSetup bool
	}{
		{name: "config default", cfgKind: config.RuntimeHost, want: "host"},
		{name: "override wins", cfgKind: config.RuntimeContainer, override: config.RuntimeHost, want: "host"},
		{name: "unavailable", cfgKind: config.RuntimeContainer, wantErr: ErrRuntimeUnavailable, wantSetup: true},
		{name: "bad override", cfgKind: config.RuntimeHost, override: "qemu", wantErr: config.ErrInvalidRuntimeKind},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := config.DefaultConfig()
			cfg.Runtime = tt.cfgKind

			rt, err := ResolveRuntime(reg, tt.override, cfg)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ResolveRuntime() error = %v, want %v", err, tt.wantErr)
				}
				if errors.Is(err, issue.ErrSetup) != tt.wantSetup {
					t.Errorf("setup classification = %v, want %v", !tt.wantSetup, tt.wantSetup)
				}
				return
			}
			if err != nil {
				t.Fatalf("ResolveRuntime() error: %v", err)
			}
			if rt.Name() != tt.want {
				t.Errorf("runtime = %q, want %q", rt.Name(), tt.want)
			}
		})
	}
}

func TestBuildRegistry(t *testing.T) {
	t.Parallel()

	reg := BuildRegistry(config.DefaultConfig(), nil)
	for _, typ := range []runtime.RuntimeType{runtime.RuntimeTypeHost, runtime.RuntimeTypeContainer} {
		if _, err := reg.Get(typ); err != nil {
			t.Errorf("Get(%s) error: %v", typ, err)
		}
	}
}
