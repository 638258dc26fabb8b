// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the cputest command-line interface.
//
// The root command loads the configuration and hands an App to each
// subcommand: matrix lists the backend pairs, check reports which of them this
// host can run, run executes the suite and config manages the config file.
package cmd
