// Copyright 2026 The Spacehub Authors
// SPDX-License-Identifier: Apache-2.0

// Command spacehub synchronizes a file-tree description of Matrix
// spaces and rooms, plus LDAP-derived membership, into a live
// homeserver.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spacehub-project/spacehub/cmd/spacehub/cli"
)

// version is overridden at build time via -ldflags.
var version = "devel"

func main() {
	root := &cli.Command{
		Name:    "spacehub",
		Summary: "synchronize a space tree and directory membership into a Matrix homeserver",
		Description: `spacehub reads a directory tree describing Matrix spaces and rooms,
resolves desired membership from LDAP groups, and reconciles the
difference against a live homeserver: creating rooms, provisioning
accounts, adjusting membership and power levels, and linking spaces
to their children.`,
		Subcommands: []*cli.Command{
			checkCommand(),
			syncCommand(),
			{
				Name:    "version",
				Summary: "print the spacehub version",
				Run: func(args []string) error {
					fmt.Println("spacehub", version)
					return nil
				},
			},
		},
	}

	if err := root.Execute(os.Args[1:]); err != nil {
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		fmt.Fprintf(os.Stderr, "spacehub: %v\n", err)
		os.Exit(1)
	}
}
