// SPDX-License-Identifier: MPL-2.0

package synth

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dosemu2/cputest/internal/mode"
)

// flavourPlaceholder is replaced by the DOS flavour in disk image templates.
const flavourPlaceholder = "XXXX"

type (
	// DiskImage identifies the hard disk the guest boots from.
	DiskImage struct {
		// Template is the image directory identifier, e.g. "dXXXXs/c".
		Template string
		// Flavour replaces the XXXX placeholder in Template, e.g. "fdpp".
		Flavour string
		// Options are appended after a colon, e.g. "hdtype1 +1".
		Options string
	}

	// Setting is a single emulator configuration override.
	Setting struct {
		Key   string
		Value string
	}

	// EmulatorConfig is the set of configuration overrides for one run.
	EmulatorConfig struct {
		HDImage          string
		FloppyA          string
		CPUVM            mode.ConfigMode
		CPUVMDPMI        mode.ConfigMode
		CPUEmu           bool
		IgnoreNullDerefs bool
		// Extra holds additional overrides appended after the fixed keys.
		Extra []Setting
	}
)

// Spec returns the value for the emulator's hdimage key.
func (d DiskImage) Spec() string {
	spec := d.Template
	if d.Flavour != "" {
		spec = strings.ReplaceAll(spec, flavourPlaceholder, d.Flavour)
	}
	if d.Options != "" {
		spec += ":" + d.Options
	}
	return spec
}

// NewEmulatorConfig builds the overrides for settings booting from image.
// The floppy drive is disabled and null-dereference suppression is off so the
// test binary observes real faults.
func NewEmulatorConfig(s mode.Settings, image DiskImage) EmulatorConfig {
	return EmulatorConfig{
		HDImage:   image.Spec(),
		FloppyA:   "",
		CPUVM:     s.VM86,
		CPUVMDPMI: s.DPMI,
		CPUEmu:    s.CPUEmu,
	}
}

// Settings returns the overrides as ordered key/value pairs.
func (c EmulatorConfig) Settings() []Setting {
	settings := []Setting{
		{Key: "_hdimage", Value: strconv.Quote(c.HDImage)},
		{Key: "_floppy_a", Value: strconv.Quote(c.FloppyA)},
		{Key: "_cpu_vm", Value: strconv.Quote(c.CPUVM.String())},
		{Key: "_cpu_vm_dpmi", Value: strconv.Quote(c.CPUVMDPMI.String())},
		{Key: "_cpuemu", Value: fmt.Sprintf("(%d)", boolInt(c.CPUEmu))},
		{Key: "_ignore_djgpp_null_derefs", Value: onOff(c.IgnoreNullDerefs)},
	}
	return append(settings, c.Extra...)
}

// Render returns the overrides in the emulator's "$_key = value" syntax.
func (c EmulatorConfig) Render() string {
	var b strings.Builder
	for _, s := range c.Settings() {
		fmt.Fprintf(&b, "$%s = %s\n", s.Key, s.Value)
	}
	return b.String()
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func onOff(v bool) string {
	if v {
		return "(on)"
	}
	return "(off)"
}
