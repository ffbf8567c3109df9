// Copyright 2026 The Spacehub Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/spacehub-project/spacehub/cmd/spacehub/cli"
	"github.com/spacehub-project/spacehub/lib/config"
	"github.com/spacehub-project/spacehub/tree"
)

// loadConfig resolves the --config flag against the SPACEHUB_CONFIG
// environment variable.
func loadConfig(configPath string) (*config.Config, error) {
	if configPath != "" {
		return config.LoadFile(configPath)
	}
	return config.Load()
}

func checkCommand() *cli.Command {
	var configPath string
	var verbose bool

	return &cli.Command{
		Name:    "check",
		Summary: "build and validate the tree without touching the homeserver",
		Description: `check builds the desired-state tree from the configured root and
validates it: every directory must carry a metadata.yml, every room
must declare an id or alias, and every identifier must parse. All
problems are reported, not just the first. No remote calls are made.`,
		Usage: "spacehub check [flags]",
		Examples: []cli.Example{
			{
				Description: "validate the tree named in /etc/spacehub.yaml",
				Command:     "spacehub check --config /etc/spacehub.yaml",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("check", pflag.ContinueOnError)
			flagSet.StringVar(&configPath, "config", "", "path to the config file (default: $SPACEHUB_CONFIG)")
			flagSet.BoolVar(&verbose, "verbose", false, "enable debug logging")
			return flagSet
		},
		Run: func(args []string) error {
			logger := cli.NewCommandLogger(verbose).With("command", "check")

			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}

			forest, err := tree.Load(cfg.TreeRoot, logger)
			if err != nil {
				return err
			}

			problems := tree.Check(forest)
			if len(problems) > 0 {
				for _, problem := range problems {
					fmt.Fprintln(os.Stderr, problem.Error())
				}
				fmt.Fprintf(os.Stderr, "check failed: %d problem(s)\n", len(problems))
				return &cli.ExitError{Code: 1}
			}

			logger.Info("tree is valid", "spaces", len(forest))
			return nil
		},
	}
}
