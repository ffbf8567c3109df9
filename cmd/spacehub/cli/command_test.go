// Copyright 2026 The Spacehub Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/pflag"
)

func TestCommand_Execute_DispatchesToSubcommand(t *testing.T) {
	var called string

	root := &Command{
		Name: "spacehub",
		Subcommands: []*Command{
			{
				Name: "version",
				Run: func(args []string) error {
					called = "version"
					return nil
				},
			},
			{
				Name: "sync",
				Run: func(args []string) error {
					called = "sync"
					return nil
				},
			},
		},
	}

	if err := root.Execute([]string{"sync"}); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if called != "sync" {
		t.Errorf("dispatched to %q, want %q", called, "sync")
	}
}

func TestCommand_Execute_FlagParsing(t *testing.T) {
	var configPath string
	var received []string

	command := &Command{
		Name: "check",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("check", pflag.ContinueOnError)
			flagSet.StringVar(&configPath, "config", "", "config file path")
			return flagSet
		},
		Run: func(args []string) error {
			received = args
			return nil
		},
	}

	if err := command.Execute([]string{"--config", "/etc/spacehub.yml", "extra"}); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if configPath != "/etc/spacehub.yml" {
		t.Errorf("config = %q", configPath)
	}
	if len(received) != 1 || received[0] != "extra" {
		t.Errorf("args = %v, want [extra]", received)
	}
}

func TestCommand_Execute_UnknownSubcommandSuggests(t *testing.T) {
	root := &Command{
		Name: "spacehub",
		Subcommands: []*Command{
			{Name: "sync", Run: func([]string) error { return nil }},
			{Name: "check", Run: func([]string) error { return nil }},
		},
	}

	err := root.Execute([]string{"snyc"})
	if err == nil {
		t.Fatal("expected error for unknown subcommand")
	}
	if !strings.Contains(err.Error(), `did you mean "sync"`) {
		t.Errorf("error lacks suggestion: %v", err)
	}
}

func TestCommand_Execute_UnknownFlagSuggests(t *testing.T) {
	command := &Command{
		Name: "sync",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("sync", pflag.ContinueOnError)
			flagSet.Bool("verbose", false, "debug logging")
			return flagSet
		},
		Run: func([]string) error { return nil },
	}

	err := command.Execute([]string{"--verbsoe"})
	if err == nil {
		t.Fatal("expected error for unknown flag")
	}
	if !strings.Contains(err.Error(), "--verbose") {
		t.Errorf("error lacks flag suggestion: %v", err)
	}
}

func TestCommand_Execute_SubcommandRequired(t *testing.T) {
	root := &Command{
		Name: "spacehub",
		Subcommands: []*Command{
			{Name: "sync", Run: func([]string) error { return nil }},
		},
	}

	if err := root.Execute(nil); err == nil {
		t.Fatal("expected error when no subcommand given")
	}
}

func TestCommand_PrintHelp_ListsSubcommands(t *testing.T) {
	root := &Command{
		Name:    "spacehub",
		Summary: "sync a space tree to a homeserver",
		Subcommands: []*Command{
			{Name: "check", Summary: "validate the tree"},
			{Name: "sync", Summary: "reconcile the tree"},
		},
	}

	var out bytes.Buffer
	root.PrintHelp(&out)
	help := out.String()
	for _, want := range []string{"check", "sync", "validate the tree", "<command>"} {
		if !strings.Contains(help, want) {
			t.Errorf("help output missing %q:\n%s", want, help)
		}
	}
}

func TestLevenshtein(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"sync", "sync", 0},
		{"snyc", "sync", 2},
		{"chek", "check", 1},
		{"", "abc", 3},
	}
	for _, c := range cases {
		if got := levenshtein(c.a, c.b); got != c.want {
			t.Errorf("levenshtein(%q, %q) = %d, want %d", c.a, c.b, got, c.want)
		}
	}
}
