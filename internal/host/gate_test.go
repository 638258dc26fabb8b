// SPDX-License-Identifier: MPL-2.0

package host

import (
	"errors"
	"io/fs"
	"strings"
	"testing"

	"github.com/dosemu2/cputest/internal/mode"
	"github.com/dosemu2/cputest/internal/testutil"
)

func TestGateCheck(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		host       *testutil.FakeHost
		pair       mode.Pair
		wantSkip   bool
		wantReason string
	}{
		{
			name:       "kvm without device skips",
			host:       &testutil.FakeHost{MachineName: "x86_64"},
			pair:       mode.NewPair(mode.KVM, mode.Native),
			wantSkip:   true,
			wantReason: "requires KVM",
		},
		{
			name:       "kvm dpmi without device skips",
			host:       &testutil.FakeHost{MachineName: "x86_64"},
			pair:       mode.NewPair(mode.Sim, mode.KVM),
			wantSkip:   true,
			wantReason: "requires KVM",
		},
		{
			name: "kvm with device runs",
			host: &testutil.FakeHost{MachineName: "x86_64", Devices: []string{"/dev/kvm"}},
			pair: mode.NewPair(mode.KVM, mode.KVM),
		},
		{
			name:       "native vm86 on x86_64 skips",
			host:       &testutil.FakeHost{MachineName: "x86_64", Devices: []string{"/dev/kvm"}},
			pair:       mode.NewPair(mode.Native, mode.Native),
			wantSkip:   true,
			wantReason: "native vm86() only on 32bit x86",
		},
		{
			name:       "native vm86 on aarch64 skips",
			host:       &testutil.FakeHost{MachineName: "aarch64"},
			pair:       mode.NewPair(mode.Native, mode.Native),
			wantSkip:   true,
			wantReason: "native vm86() only on 32bit x86",
		},
		{
			name: "native vm86 on i686 runs",
			host: &testutil.FakeHost{MachineName: "i686"},
			pair: mode.NewPair(mode.Native, mode.Native),
		},
		{
			name:       "uname failure skips native",
			host:       &testutil.FakeHost{MachineErr: errors.New("boom")},
			pair:       mode.NewPair(mode.Native, mode.Native),
			wantSkip:   true,
			wantReason: "cannot identify host",
		},
		{
			name: "emulated pair needs nothing",
			host: &testutil.FakeHost{MachineName: "aarch64"},
			pair: mode.NewPair(mode.JIT, mode.JIT),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := NewGate(tt.host, "").Check(tt.pair)
			if !tt.wantSkip {
				if err != nil {
					t.Fatalf("Check(%s) = %v, want nil", tt.pair, err)
				}
				return
			}
			if !errors.Is(err, ErrUnsupported) {
				t.Fatalf("Check(%s) = %v, want ErrUnsupported", tt.pair, err)
			}
			if !strings.Contains(err.Error(), tt.wantReason) {
				t.Errorf("Check(%s) reason = %q, want it to contain %q", tt.pair, err, tt.wantReason)
			}
		})
	}
}

func TestGateCheck_CustomDevice(t *testing.T) {
	t.Parallel()

	h := &testutil.FakeHost{MachineName: "x86_64", Devices: []string{"/tmp/kvm"}}
	if err := NewGate(h, "/tmp/kvm").Check(mode.NewPair(mode.KVM, mode.KVM)); err != nil {
		t.Errorf("Check() with custom device = %v, want nil", err)
	}
	if err := NewGate(h, "").Check(mode.NewPair(mode.KVM, mode.KVM)); !errors.Is(err, ErrUnsupported) {
		t.Errorf("Check() with default device = %v, want ErrUnsupported", err)
	}
}

func TestGateReport(t *testing.T) {
	t.Parallel()

	h := &testutil.FakeHost{MachineName: "x86_64", AccessErr: fs.ErrPermission}
	pairs := []mode.Pair{
		mode.NewPair(mode.KVM, mode.Native),
		mode.NewPair(mode.JIT, mode.Native),
	}
	verdicts := NewGate(h, "").Report(pairs)
	if len(verdicts) != 2 {
		t.Fatalf("Report() returned %d verdicts, want 2", len(verdicts))
	}
	if verdicts[0].Err == nil {
		t.Error("kvm pair should be unsupported")
	}
	if verdicts[1].Err != nil {
		t.Errorf("jit pair should run, got %v", verdicts[1].Err)
	}
}

func TestIsX86_32(t *testing.T) {
	t.Parallel()

	for _, m := range []string{"i386", "i486", "i586", "i686"} {
		if !IsX86_32(m) {
			t.Errorf("IsX86_32(%q) = false", m)
		}
	}
	for _, m := range []string{"x86_64", "aarch64", "armv7l", ""} {
		if IsX86_32(m) {
			t.Errorf("IsX86_32(%q) = true", m)
		}
	}
}
