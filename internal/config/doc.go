// SPDX-License-Identifier: MPL-2.0

// Package config loads cputest settings using Viper with CUE as the file format.
//
// The file is looked up at the --config path, then in the user configuration
// directory ($XDG_CONFIG_HOME/cputest/config.cue on Linux), then as config.cue
// in the current directory. A missing file means defaults. Every file is
// validated against the embedded schema (config_schema.cue) before it is
// merged over the defaults.
package config
