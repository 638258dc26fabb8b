// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/glamour"
)

// ID identifies a known problem with a Markdown help page.
type ID int

const (
	EmulatorNotFoundID ID = iota + 1
	TestBinaryNotFoundID
	ReferenceNotFoundID
	ConfigLoadFailedID
	KVMNotAvailableID
	NativeVM86UnsupportedID
	ContainerEngineNotFoundID
	RunLockFailedID
	EmulatorTimeoutID
	OutputMissingID
	OutputMismatchID
	PermissionDeniedID
)

type (
	// MarkdownMsg is help text rendered for the terminal.
	MarkdownMsg string

	// HTTPLink points at further reading.
	HTTPLink string

	// Issue is a help page shown after a known failure.
	Issue struct {
		id       ID
		mdMsg    MarkdownMsg
		docLinks []HTTPLink
		extLinks []HTTPLink
	}
)

// ID returns the issue identifier.
func (i *Issue) ID() ID {
	return i.id
}

// MarkdownMsg returns the unrendered help text.
func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

// DocLinks returns a copy of the project documentation links.
func (i *Issue) DocLinks() []HTTPLink {
	return slices.Clone(i.docLinks)
}

// ExtLinks returns a copy of the external links.
func (i *Issue) ExtLinks() []HTTPLink {
	return slices.Clone(i.extLinks)
}

// Render renders the help text with the glamour style at stylePath
// ("dark", "light", "notty" or a JSON style file).
func (i *Issue) Render(stylePath string) (string, error) {
	var md strings.Builder
	md.WriteString(string(i.mdMsg))
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		md.WriteString("\n\n## See also\n")
		for _, link := range slices.Concat(i.docLinks, i.extLinks) {
			md.WriteString("- <" + string(link) + ">\n")
		}
	}
	return render(md.String(), stylePath)
}

const (
	docsURL       HTTPLink = "https://github.com/dosemu2/dosemu2/tree/devel/test"
	buildDocsURL  HTTPLink = "https://github.com/dosemu2/dosemu2/blob/devel/INSTALL"
	kvmDocsURL    HTTPLink = "https://www.linux-kvm.org/page/FAQ"
	dockerDocsURL HTTPLink = "https://docs.docker.com/engine/install/"
)

var (
	render = glamour.Render

	emulatorNotFoundIssue = &Issue{
		id: EmulatorNotFoundID,
		mdMsg: `
# Emulator not found!

The emulator binary could not be started.

## Things you can try:
- Build the emulator in your source tree:
~~~
$ ./default-configure && make
~~~

- Point cputest at the tree, or at an installed binary:
~~~
$ cputest --config ~/.config/cputest/config.cue run
$ CPUTEST_TOP_DIR=/path/to/dosemu2 cputest run
~~~

- Check ` + "`emulator.binary`" + ` in your config file.`,
		docLinks: []HTTPLink{buildDocsURL},
	}

	testBinaryNotFoundIssue = &Issue{
		id: TestBinaryNotFoundID,
		mdMsg: `
# DOS test binary not found!

The CPU test program is built together with the emulator's test suite.

## Things you can try:
- Build the test binary:
~~~
$ make -C test/cpu
~~~

- Check ` + "`guest.test_binary`" + ` in your config file.`,
		docLinks: []HTTPLink{docsURL},
	}

	referenceNotFoundIssue = &Issue{
		id: ReferenceNotFoundID,
		mdMsg: `
# Reference output not found!

Every case compares the guest's output with a checked-in reference file.
Without it no case can pass, so the run is reported as a setup error.

## Things you can try:
- Generate the reference on a known-good host:
~~~
$ make -C test/cpu reffile.log
~~~

- Check ` + "`guest.reference`" + ` and ` + "`top_dir`" + ` in your config file.`,
		docLinks: []HTTPLink{docsURL},
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedID,
		mdMsg: `
# Failed to load configuration!

The config file is not valid CUE or does not match the configuration schema.

## Things you can try:
- Check the error message above for the offending field
- Show the effective configuration:
~~~
$ cputest config show
~~~

- Write a fresh default configuration:
~~~
$ cputest config init --force
~~~`,
	}

	kvmNotAvailableIssue = &Issue{
		id: KVMNotAvailableID,
		mdMsg: `
# KVM is not available!

Pairs using the KVM backend are skipped because the KVM device cannot be
opened for reading and writing.

## Things you can try:
- Load the KVM module for your CPU:
~~~
$ sudo modprobe kvm_intel   # or kvm_amd
~~~

- Add yourself to the kvm group and log in again:
~~~
$ sudo usermod -aG kvm $USER
~~~

- Check ` + "`host.kvm_device`" + ` in your config file.`,
		extLinks: []HTTPLink{kvmDocsURL},
	}

	nativeVM86UnsupportedIssue = &Issue{
		id: NativeVM86UnsupportedID,
		mdMsg: `
# Native vm86 is not supported here!

The vm86() system call only exists on 32-bit x86 kernels. Pairs with a native
vm86 backend are skipped on every other host.

This is expected on 64-bit hosts and needs no action.`,
	}

	containerEngineNotFoundIssue = &Issue{
		id: ContainerEngineNotFoundID,
		mdMsg: `
# Container engine not found!

The container runtime needs a running Docker compatible engine.

## Things you can try:
- Start the Docker daemon, or point DOCKER_HOST at a Podman socket:
~~~
$ export DOCKER_HOST=unix://$XDG_RUNTIME_DIR/podman/podman.sock
~~~

- Run the emulator on the host instead:
~~~
$ cputest --runtime host run
~~~`,
		extLinks: []HTTPLink{dockerDocsURL},
	}

	runLockFailedIssue = &Issue{
		id: RunLockFailedID,
		mdMsg: `
# Could not acquire the emulator run lock!

Emulator runs are serialized across all cputest processes on this host.

## Things you can try:
- Check that $XDG_RUNTIME_DIR (or the temp directory) is writable
- Remove a lock file left with the wrong owner:
~~~
$ rm "${XDG_RUNTIME_DIR:-/tmp}/cputest-emulator.lock"
~~~`,
	}

	emulatorTimeoutIssue = &Issue{
		id: EmulatorTimeoutID,
		mdMsg: `
# The emulator did not finish in time!

The guest hung, or the host is too slow for the configured budget.

## Things you can try:
- Keep the work directory and read the emulator log:
~~~
$ cputest run --keep cpu_method_kvm_native
~~~

- Raise the budget:
~~~
$ CPUTEST_EMULATOR_TIMEOUT_SECONDS=60 cputest run
~~~`,
	}

	outputMissingIssue = &Issue{
		id: OutputMissingID,
		mdMsg: `
# The guest produced no output!

The emulator exited before the DOS test program wrote its log. This usually
means the emulator crashed or failed to boot the disk image.

## Things you can try:
- Keep the work directory and read the emulator log:
~~~
$ cputest run --keep
~~~

- Check ` + "`guest.hdimage_template`" + ` and ` + "`guest.flavour`" + ` in your config file.`,
		docLinks: []HTTPLink{docsURL},
	}

	outputMismatchIssue = &Issue{
		id: OutputMismatchID,
		mdMsg: `
# The guest output differs from the reference!

The CPU backend executed at least one instruction differently from the
reference host. The unified diff above shows the first differences.

## Things you can try:
- Re-run a single backend pair:
~~~
$ cputest run cpu_method_jit_jit
~~~

- Compare the pairs that pass with the ones that fail to isolate the backend.`,
		docLinks: []HTTPLink{docsURL},
	}

	permissionDeniedIssue = &Issue{
		id: PermissionDeniedID,
		mdMsg: `
# Permission denied!

A file needed for the run could not be read or written.

## Things you can try:
- Check permissions of the source tree and of ` + "`work_dir`" + `
- For the container runtime, make sure you can talk to the engine:
~~~
$ sudo usermod -aG docker $USER
~~~`,
	}

	issues = map[ID]*Issue{
		emulatorNotFoundIssue.ID():        emulatorNotFoundIssue,
		testBinaryNotFoundIssue.ID():      testBinaryNotFoundIssue,
		referenceNotFoundIssue.ID():       referenceNotFoundIssue,
		configLoadFailedIssue.ID():        configLoadFailedIssue,
		kvmNotAvailableIssue.ID():         kvmNotAvailableIssue,
		nativeVM86UnsupportedIssue.ID():   nativeVM86UnsupportedIssue,
		containerEngineNotFoundIssue.ID(): containerEngineNotFoundIssue,
		runLockFailedIssue.ID():           runLockFailedIssue,
		emulatorTimeoutIssue.ID():         emulatorTimeoutIssue,
		outputMissingIssue.ID():           outputMissingIssue,
		outputMismatchIssue.ID():          outputMismatchIssue,
		permissionDeniedIssue.ID():        permissionDeniedIssue,
	}
)

// Values returns all known issues ordered by ID.
func Values() []*Issue {
	return slices.SortedFunc(maps.Values(issues), func(a, b *Issue) int {
		return int(a.id) - int(b.id)
	})
}

// Get returns the issue with the given ID, or nil.
func Get(id ID) *Issue {
	return issues[id]
}
