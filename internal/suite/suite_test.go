// SPDX-License-Identifier: MPL-2.0

package suite

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"slices"
	"strings"
	"testing"

	"github.com/dosemu2/cputest/internal/host"
	"github.com/dosemu2/cputest/internal/issue"
	"github.com/dosemu2/cputest/internal/mode"
	"github.com/dosemu2/cputest/internal/runtime"
	"github.com/dosemu2/cputest/internal/verify"
	"github.com/dosemu2/cputest/pkg/types"
)

func constant(o Outcome) Procedure {
	return func(context.Context, *Env) Outcome { return o }
}

func names(cases []Case) []string {
	out := make([]string, len(cases))
	for i, c := range cases {
		out[i] = c.Name
	}
	return out
}

func TestClassify(t *testing.T) {
	t.Parallel()

	ref := verify.NewReference("reffile.log", []string{"OK\n"})
	mismatch := verify.Compare(ref, []string{"FAIL\n"}, "dosfile.log")
	setupErr := issue.NewErrorContext().WithOperation("stage DOS test binary").Wrap(fs.ErrNotExist).BuildSetupError()
	pair := mode.NewPair(mode.KVM, mode.JIT)

	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{name: "nil", err: nil, want: Pass},
		{name: "unsupported", err: &host.UnsupportedError{Pair: pair, Reason: "requires KVM"}, want: Skip},
		{name: "wrapped unsupported", err: fmt.Errorf("gate: %w", &host.UnsupportedError{Pair: pair, Reason: "x"}), want: Skip},
		{name: "mismatch", err: mismatch, want: Fail},
		{name: "timeout", err: &runtime.TimeoutError{Timeout: runtime.DefaultTimeout}, want: Fail},
		{name: "missing output", err: &runtime.MissingOutputError{Path: "dosfile.log", Err: fs.ErrNotExist}, want: Fail},
		{name: "setup", err: setupErr, want: SetupError},
		{name: "missing reference", err: &fs.PathError{Op: "open", Path: "reffile.log", Err: fs.ErrNotExist}, want: SetupError},
		{name: "illegal pair", err: &mode.IllegalPairError{Pair: mode.NewPair(mode.JIT, mode.Sim)}, want: SetupError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := Classify(tt.err)
			if got.Kind != tt.want {
				t.Fatalf("Classify(%v).Kind = %s, want %s", tt.err, got.Kind, tt.want)
			}
			if tt.err != nil && got.Message() == "" {
				t.Error("non-passing outcome should carry a message")
			}
		})
	}
}

func TestClassify_SkipUsesReason(t *testing.T) {
	t.Parallel()

	out := Classify(&host.UnsupportedError{Reason: "native vm86() only on 32bit x86"})
	if out.Reason != "native vm86() only on 32bit x86" {
		t.Errorf("Reason = %q", out.Reason)
	}
}

func TestKindString(t *testing.T) {
	t.Parallel()

	for kind, want := range map[Kind]string{Pass: "PASS", Skip: "SKIP", Fail: "FAIL", SetupError: "ERROR", 0: "UNKNOWN"} {
		if got := kind.String(); got != want {
			t.Errorf("Kind(%d).String() = %q, want %q", kind, got, want)
		}
	}
}

func TestSuiteRegister(t *testing.T) {
	t.Parallel()

	s := New("cpu")
	if err := s.Register(
		Case{Name: "a", Tags: []string{"cputest"}, Run: constant(Passed())},
		Case{Name: "b", Tags: []string{"cputest", "slow"}, Run: constant(Passed())},
	); err != nil {
		t.Fatalf("Register() error: %v", err)
	}

	if want := []string{"cputest", "slow"}; !slices.Equal(s.Attrs, want) {
		t.Errorf("Attrs = %v, want %v", s.Attrs, want)
	}
	if !s.HasAttr("cputest") || s.HasAttr("net") {
		t.Error("HasAttr mismatch")
	}

	err := s.Register(Case{Name: "c"}, Case{Name: "a"})
	if !errors.Is(err, ErrDuplicateCase) {
		t.Fatalf("Register(duplicate) error = %v, want ErrDuplicateCase", err)
	}
	if s.Len() != 2 {
		t.Errorf("Len() = %d after rejected registration, want 2", s.Len())
	}

	if err := New("x").Register(Case{Name: "d"}, Case{Name: "d"}); !errors.Is(err, ErrDuplicateCase) {
		t.Errorf("Register(repeated within call) error = %v, want ErrDuplicateCase", err)
	}
}

func TestSuiteAddAttrIdempotent(t *testing.T) {
	t.Parallel()

	s := &Suite{Attrs: []string{"cputest"}}
	s.AddAttr("cputest")
	s.AddAttr("cputest")
	if len(s.Attrs) != 1 {
		t.Errorf("Attrs = %v, want one entry", s.Attrs)
	}
}

func TestSuiteSelect(t *testing.T) {
	t.Parallel()

	s := New("cpu")
	for _, n := range []string{"cpu_method_kvm_native", "cpu_method_jit_kvm", "cpu_method_kvm_kvm"} {
		if err := s.Register(Case{Name: n, Tags: []string{"cputest"}}); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.Register(Case{Name: "other"}); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{name: "all", filter: Filter{}, want: []string{"cpu_method_kvm_native", "cpu_method_jit_kvm", "cpu_method_kvm_kvm", "other"}},
		{name: "tag", filter: Filter{Tags: []string{"cputest"}}, want: []string{"cpu_method_kvm_native", "cpu_method_jit_kvm", "cpu_method_kvm_kvm"}},
		{name: "pattern", filter: Filter{Patterns: []string{"cpu_method_kvm_*"}}, want: []string{"cpu_method_kvm_native", "cpu_method_kvm_kvm"}},
		{name: "two patterns", filter: Filter{Patterns: []string{"*_jit_*", "other"}}, want: []string{"cpu_method_jit_kvm", "other"}},
		{name: "tag and pattern", filter: Filter{Tags: []string{"cputest"}, Patterns: []string{"other"}}, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := s.Select(tt.filter)
			if err != nil {
				t.Fatalf("Select() error: %v", err)
			}
			if !slices.Equal(names(got), tt.want) {
				t.Errorf("Select() = %v, want %v", names(got), tt.want)
			}
		})
	}

	if _, err := s.Select(Filter{Patterns: []string{"["}}); !errors.Is(err, path.ErrBadPattern) {
		t.Errorf("Select(bad pattern) error = %v, want path.ErrBadPattern", err)
	}
}

func TestSuiteSelect_AnyTag(t *testing.T) {
	t.Parallel()

	s := New("cpu")
	if err := s.Register(
		Case{Name: "kvm", Tags: []string{"cputest", "kvm"}},
		Case{Name: "jit", Tags: []string{"cputest"}},
		Case{Name: "net", Tags: []string{"net"}},
		Case{Name: "plain"},
	); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		tags []string
		want []string
	}{
		{name: "one tag", tags: []string{"kvm"}, want: []string{"kvm"}},
		{name: "either tag", tags: []string{"kvm", "net"}, want: []string{"kvm", "net"}},
		{name: "overlapping tags", tags: []string{"cputest", "kvm"}, want: []string{"kvm", "jit"}},
		{name: "unknown tag", tags: []string{"slow"}, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := s.Select(Filter{Tags: tt.tags})
			if err != nil {
				t.Fatalf("Select() error: %v", err)
			}
			if !slices.Equal(names(got), tt.want) {
				t.Errorf("Select(tags %v) = %v, want %v", tt.tags, names(got), tt.want)
			}
		})
	}
}

func TestCaseExecute_RecoversPanic(t *testing.T) {
	t.Parallel()

	c := Case{Name: "broken", Run: func(context.Context, *Env) Outcome { panic("boom") }}
	out := c.Execute(context.Background(), &Env{WorkDir: t.TempDir()})
	if out.Kind != SetupError || !strings.Contains(out.Message(), "case broken panicked: boom") {
		t.Errorf("Execute() = %s %q, want a setup error naming the panic", out.Kind, out.Message())
	}
}

func TestRunner(t *testing.T) {
	t.Parallel()

	var dirs []string
	record := func(o Outcome) Procedure {
		return func(_ context.Context, env *Env) Outcome {
			dirs = append(dirs, env.WorkDir)
			return o
		}
	}
	cases := []Case{
		{Name: "pass", Run: record(Passed())},
		{Name: "skip", Run: record(Skipped("requires KVM"))},
		{Name: "fail", Run: record(Failed("differences detected"))},
		{Name: "error", Run: record(Errored(errors.New("no emulator")))},
		{Name: "panic", Run: func(context.Context, *Env) Outcome { panic("boom") }},
	}

	var seen []string
	r := &Runner{WorkRoot: t.TempDir(), OnResult: func(rec Record) { seen = append(seen, rec.Case.Name) }}
	sum := r.Run(context.Background(), cases)

	if sum.Passed != 1 || sum.Skipped != 1 || sum.Failed != 1 || sum.Errors != 2 {
		t.Errorf("summary = %s", sum)
	}
	if want := "1 passed, 1 failed, 1 skipped, 2 errors"; sum.String() != want {
		t.Errorf("String() = %q, want %q", sum.String(), want)
	}
	if sum.ExitCode() != types.ExitSetupError {
		t.Errorf("ExitCode() = %s, want %s", sum.ExitCode(), types.ExitSetupError)
	}
	if !slices.Equal(seen, []string{"pass", "skip", "fail", "error", "panic"}) {
		t.Errorf("OnResult order = %v", seen)
	}
	if msg := sum.Records[4].Outcome.Message(); !strings.Contains(msg, "panicked: boom") {
		t.Errorf("panic message = %q", msg)
	}

	for i, d := range dirs {
		if slices.Contains(dirs[:i], d) {
			t.Errorf("work directory %s reused", d)
		}
		if _, err := os.Stat(d); !os.IsNotExist(err) {
			t.Errorf("work directory %s not removed", d)
		}
	}
}

func TestRunner_FailFastAndKeep(t *testing.T) {
	t.Parallel()

	cases := []Case{
		{Name: "skip", Run: constant(Skipped("no"))},
		{Name: "fail", Run: constant(Failed("bad"))},
		{Name: "never", Run: constant(Passed())},
	}

	sum := (&Runner{WorkRoot: t.TempDir(), FailFast: true, KeepWorkDirs: true}).Run(context.Background(), cases)
	if len(sum.Records) != 2 || sum.NotRun != 1 {
		t.Fatalf("records = %d, not run = %d; want 2 and 1", len(sum.Records), sum.NotRun)
	}
	if sum.ExitCode() != types.ExitFailed {
		t.Errorf("ExitCode() = %s, want %s", sum.ExitCode(), types.ExitFailed)
	}
	if !strings.HasSuffix(sum.String(), ", 1 not run") {
		t.Errorf("String() = %q", sum.String())
	}

	kept := sum.Records[1].WorkDir
	if kept == "" {
		t.Fatal("failing case work directory not kept")
	}
	if _, err := os.Stat(kept); err != nil {
		t.Errorf("kept work directory missing: %v", err)
	}
}

func TestRunner_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cases := []Case{
		{Name: "first", Run: func(context.Context, *Env) Outcome { cancel(); return Passed() }},
		{Name: "second", Run: constant(Passed())},
	}

	sum := (&Runner{WorkRoot: t.TempDir()}).Run(ctx, cases)
	if sum.Passed != 1 || sum.NotRun != 1 {
		t.Errorf("summary = %s", sum)
	}
	if sum.ExitCode() != types.ExitPassed {
		t.Errorf("ExitCode() = %s, want %s", sum.ExitCode(), types.ExitPassed)
	}
}
