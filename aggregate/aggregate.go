// Copyright 2026 The Spacehub Authors
// SPDX-License-Identifier: Apache-2.0

// Package aggregate resolves the group references in a desired-state
// forest into per-room member sets.
package aggregate

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/spacehub-project/spacehub/directory"
	"github.com/spacehub-project/spacehub/tree"
)

// Directory answers group membership queries.
type Directory interface {
	GroupMembers(ctx context.Context, groupDN string) ([]directory.Entry, error)
}

// Mapper turns a directory entry into a desired member at a power
// level.
type Mapper interface {
	Identity(entry directory.Entry, powerLevel int) (tree.UserIdentity, error)
}

// Resolver populates each room's Resolved set from its group
// references.
type Resolver struct {
	directory Directory
	mapper    Mapper
	logger    *slog.Logger
}

// New builds a Resolver.
func New(dir Directory, mapper Mapper, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{directory: dir, mapper: mapper, logger: logger}
}

// Resolve fills in Resolved for every room in the forest. Sibling
// space nodes are resolved concurrently; they share no mutable state.
//
// A failed group query is recorded on the room's ResolveErr and does
// not stop resolution of other rooms — the reconciler refuses to
// touch a room with a partial member set, but unrelated branches
// still proceed. A failed identity render skips that one identity and
// is reported; it never aborts the room.
//
// Resolve itself returns an error only when the context is canceled.
func (r *Resolver) Resolve(ctx context.Context, forest tree.Forest) error {
	group, ctx := errgroup.WithContext(ctx)
	for _, node := range forest {
		group.Go(func() error {
			return r.resolveNode(ctx, node)
		})
	}
	return group.Wait()
}

func (r *Resolver) resolveNode(ctx context.Context, node *tree.SpaceNode) error {
	if node.Self != nil {
		if err := r.resolveRoom(ctx, node.Path, node.Self); err != nil {
			return err
		}
	}
	for _, room := range node.Rooms {
		if err := r.resolveRoom(ctx, room.Source, room); err != nil {
			return err
		}
	}

	group, ctx := errgroup.WithContext(ctx)
	for _, child := range node.Children {
		group.Go(func() error {
			return r.resolveNode(ctx, child)
		})
	}
	return group.Wait()
}

func (r *Resolver) resolveRoom(ctx context.Context, path string, spec *tree.RoomSpec) error {
	resolved := tree.NewUserSet()

	for _, groupRef := range spec.Groups {
		entries, err := r.directory.GroupMembers(ctx, groupRef.DN)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			r.logger.Error("group query failed, room will not be reconciled",
				"path", path,
				"group_dn", groupRef.DN,
				"error", err,
			)
			spec.ResolveErr = err
			return nil
		}

		for _, entry := range entries {
			user, err := r.mapper.Identity(entry, groupRef.PowerLevel)
			if err != nil {
				r.logger.Error("identity render failed, skipping member",
					"path", path,
					"entry_dn", entry.DN,
					"error", err,
				)
				continue
			}
			resolved.Add(user)
		}
	}

	spec.Resolved = resolved
	r.logger.Debug("resolved room membership",
		"path", path,
		"room", spec.Describe(),
		"members", len(resolved),
	)
	return nil
}
