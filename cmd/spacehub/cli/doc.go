// Copyright 2026 The Spacehub Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli provides the command-line framework for spacehub.
//
// The central type is [Command]: a named subcommand with optional
// nested [Command.Subcommands], a [pflag.FlagSet] factory, and a Run
// function. Commands are assembled into a tree in cmd/spacehub/main.go
// and dispatched via [Command.Execute], which handles flag parsing,
// subcommand routing, and help output with examples.
//
// When a user types an unknown subcommand or flag, the framework
// computes Levenshtein edit distance against all known names and
// suggests the closest match (threshold: distance <= 3).
//
// A Run function that wants a specific exit code without an error
// message returns [*ExitError]; main checks for it before printing.
package cli
