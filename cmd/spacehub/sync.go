// Copyright 2026 The Spacehub Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/spacehub-project/spacehub/aggregate"
	"github.com/spacehub-project/spacehub/cmd/spacehub/cli"
	"github.com/spacehub-project/spacehub/directory"
	"github.com/spacehub-project/spacehub/identity"
	"github.com/spacehub-project/spacehub/lib/config"
	"github.com/spacehub-project/spacehub/lib/ref"
	"github.com/spacehub-project/spacehub/lib/secret"
	"github.com/spacehub-project/spacehub/messaging"
	"github.com/spacehub-project/spacehub/reconcile"
	"github.com/spacehub-project/spacehub/tree"
)

func syncCommand() *cli.Command {
	var configPath string
	var verbose bool

	return &cli.Command{
		Name:    "sync",
		Summary: "reconcile the tree and directory membership against the homeserver",
		Description: `sync runs the full pipeline: build and validate the tree, resolve
group membership from LDAP, provision missing accounts, and reconcile
rooms, spaces, membership, and power levels against the homeserver.
Independent branches of the tree reconcile concurrently and fail
independently; the exit code is non-zero if any branch failed.`,
		Usage: "spacehub sync [flags]",
		Examples: []cli.Example{
			{
				Description: "reconcile using the config from the environment",
				Command:     "SPACEHUB_CONFIG=/etc/spacehub.yaml spacehub sync",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("sync", pflag.ContinueOnError)
			flagSet.StringVar(&configPath, "config", "", "path to the config file (default: $SPACEHUB_CONFIG)")
			flagSet.BoolVar(&verbose, "verbose", false, "enable debug logging")
			return flagSet
		},
		Run: func(args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger := cli.NewCommandLogger(verbose).With("command", "sync")

			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			return runSync(ctx, cfg, logger)
		},
	}
}

func runSync(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	// Build and validate before any remote call. Validation runs to
	// completion and reports every problem.
	forest, err := tree.Load(cfg.TreeRoot, logger)
	if err != nil {
		return err
	}
	if problems := tree.Check(forest); len(problems) > 0 {
		for _, problem := range problems {
			fmt.Fprintln(os.Stderr, problem.Error())
		}
		return fmt.Errorf("tree validation failed with %d problem(s)", len(problems))
	}

	serverName := ref.MustParseServerName(cfg.Matrix.ServerName)
	serviceAccount := ref.MustParseUserID(cfg.Matrix.MXID)

	// Directory connection. A failure here is fatal for the run.
	var bindPassword *secret.Buffer
	if cfg.LDAP.BindPasswordFile != "" {
		bindPassword, err = secret.ReadFromPath(cfg.LDAP.BindPasswordFile)
		if err != nil {
			return err
		}
		defer bindPassword.Close()
	}

	ldap, err := directory.Connect(directory.Config{
		URI:                cfg.LDAP.URI,
		StartTLS:           cfg.LDAP.StartTLS,
		InsecureSkipVerify: cfg.LDAP.NoTLSVerify,
		BindDN:             cfg.LDAP.BindDN,
		BindPassword:       bindPassword,
		UserBaseDN:         cfg.LDAP.UserBaseDN,
		UserFilter:         cfg.LDAP.UserFilter,
		Logger:             logger,
	})
	if err != nil {
		return err
	}
	defer ldap.Close()

	// Homeserver session. Also fatal for the run.
	password, err := secret.ReadFromPath(cfg.Matrix.PasswordFile)
	if err != nil {
		return err
	}
	defer password.Close()

	client, err := messaging.NewClient(messaging.ClientConfig{
		HomeserverURL: cfg.Matrix.HomeserverURL,
		Logger:        logger,
	})
	if err != nil {
		return err
	}
	session, err := client.Login(ctx, serviceAccount.Localpart(), password)
	if err != nil {
		return err
	}
	defer session.Close()

	// Resolve group membership into the tree.
	externalIDs := make([]identity.ExternalIDTemplate, len(cfg.LDAP.ExternalIDs))
	for index, template := range cfg.LDAP.ExternalIDs {
		externalIDs[index] = identity.ExternalIDTemplate{
			AuthProvider: template.AuthProvider,
			Template:     template.Template,
		}
	}
	mapper := identity.NewMapper(identity.NewTemplateRenderer(), cfg.LDAP.LocalpartTemplate, serverName, externalIDs)
	if err := aggregate.New(ldap, mapper, logger).Resolve(ctx, forest); err != nil {
		return err
	}

	// Provision accounts, then reconcile.
	reconciler := reconcile.New(session, messaging.NewSynapseAdmin(session), reconcile.Config{
		ServerName:         serverName,
		CreateMissingUsers: cfg.LDAP.CreateMissingUsers,
	}, logger)

	allUsers := tree.NewUserSet()
	for _, node := range forest {
		allUsers.AddAll(node.AllUsers())
	}
	// A provisioning failure is reported but does not block the run:
	// the rooms wanting the affected accounts fail individually.
	provisionErr := reconciler.EnsureUsers(ctx, allUsers)
	if provisionErr != nil {
		if ctx.Err() != nil {
			return provisionErr
		}
		logger.Error("account provisioning incomplete", "error", provisionErr)
	}

	report, err := reconciler.Run(ctx, forest)
	if err != nil {
		return err
	}

	failed := 0
	for _, result := range report.Results() {
		switch result.Outcome {
		case reconcile.OutcomeReconciled:
			logger.Info("reconciled", "path", result.Path, "room", result.Room)
		case reconcile.OutcomeSkipped:
			failed++
			logger.Warn("skipped, ancestor failed", "path", result.Path, "room", result.Room)
		case reconcile.OutcomeFailed:
			failed++
			logger.Error("failed", "path", result.Path, "room", result.Room, "error", result.Err)
		}
	}
	if failed > 0 || provisionErr != nil {
		if failed > 0 {
			fmt.Fprintf(os.Stderr, "sync finished with %d failed or skipped room(s)\n", failed)
		}
		return &cli.ExitError{Code: 1}
	}

	logger.Info("sync complete", "rooms", len(report.Results()))
	return nil
}
