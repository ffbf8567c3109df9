// Copyright 2026 The Spacehub Authors
// SPDX-License-Identifier: Apache-2.0

// Package reconcile walks a desired-state forest and applies the
// difference between it and the live homeserver.
//
// The walk is parent-before-child: a space's own room is settled
// before its sibling rooms and subdirectories are touched, so a child
// always links to an existing parent. Sibling branches reconcile
// concurrently and fail independently — one room's failure skips its
// descendants but never blocks an unrelated branch.
package reconcile

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/spacehub-project/spacehub/lib/ref"
	"github.com/spacehub-project/spacehub/messaging"
	"github.com/spacehub-project/spacehub/tree"
)

// KickReason is attached to membership removals so room timelines
// show why a member left.
const KickReason = "removed from directory-managed membership"

// Config tunes a reconciliation run.
type Config struct {
	// ServerName is the homeserver's name, used in m.space.child via
	// hints.
	ServerName ref.ServerName
	// CreateMissingUsers gates account provisioning: when false,
	// desired members without an account are logged and left for
	// their room's membership add to fail.
	CreateMissingUsers bool
}

// Reconciler applies a forest to the homeserver.
type Reconciler struct {
	session messaging.Session
	admin   messaging.Admin
	config  Config
	logger  *slog.Logger
}

// New builds a Reconciler around an authenticated session and its
// admin surface.
func New(session messaging.Session, admin messaging.Admin, config Config, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{
		session: session,
		admin:   admin,
		config:  config,
		logger:  logger,
	}
}

// Run reconciles every tree in the forest and reports a terminal
// state per room. It returns an error only when the context is
// canceled; per-room failures are in the report.
func (r *Reconciler) Run(ctx context.Context, forest tree.Forest) (*Report, error) {
	report := &Report{}
	group, ctx := errgroup.WithContext(ctx)
	for _, node := range forest {
		group.Go(func() error {
			return r.reconcileNode(ctx, node, ref.RoomID{}, nil, report)
		})
	}
	if err := group.Wait(); err != nil {
		return report, err
	}
	return report, nil
}

// reconcileNode settles the node's own space, then its sibling rooms
// and children concurrently. ancestorAdmins accumulates the pinned
// admins of every ancestor space: those identities are never kicked
// by a descendant's diff.
func (r *Reconciler) reconcileNode(ctx context.Context, node *tree.SpaceNode, parent ref.RoomID, ancestorAdmins map[string]bool, report *Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	room := ""
	if node.Self != nil {
		room = node.Self.Describe()
	}

	spaceID, err := r.reconcileRoom(ctx, node.Path, node.Self, parent, true, ancestorAdmins)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		r.logger.Error("space reconciliation failed, skipping subtree",
			"path", node.Path,
			"error", err,
		)
		report.add(Result{Path: node.Path, Room: room, Outcome: OutcomeFailed, Err: err})
		markSkipped(node, report)
		return nil
	}
	report.add(Result{Path: node.Path, Room: room, Outcome: OutcomeReconciled})

	admins := make(map[string]bool, len(ancestorAdmins)+len(node.Self.Admins))
	for mxid := range ancestorAdmins {
		admins[mxid] = true
	}
	for _, admin := range node.Self.Admins {
		admins[admin] = true
	}

	group, ctx := errgroup.WithContext(ctx)
	for _, room := range node.Rooms {
		group.Go(func() error {
			_, err := r.reconcileRoom(ctx, room.Source, room, spaceID, false, admins)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				report.add(Result{Path: room.Source, Room: room.Describe(), Outcome: OutcomeFailed, Err: err})
				return nil
			}
			report.add(Result{Path: room.Source, Room: room.Describe(), Outcome: OutcomeReconciled})
			return nil
		})
	}
	for _, child := range node.Children {
		group.Go(func() error {
			return r.reconcileNode(ctx, child, spaceID, admins, report)
		})
	}
	return group.Wait()
}

// markSkipped records every room under a failed node as skipped.
func markSkipped(node *tree.SpaceNode, report *Report) {
	for _, room := range node.Rooms {
		report.add(Result{Path: room.Source, Room: room.Describe(), Outcome: OutcomeSkipped})
	}
	for _, child := range node.Children {
		if child.Self != nil {
			report.add(Result{Path: child.Path, Room: child.Self.Describe(), Outcome: OutcomeSkipped})
		}
		markSkipped(child, report)
	}
}

// reconcileRoom drives one room through locate, create-if-absent,
// membership diff, and parent linking. Returns the room's ID for use
// as the parent of its children.
func (r *Reconciler) reconcileRoom(ctx context.Context, path string, spec *tree.RoomSpec, parent ref.RoomID, isSpace bool, ancestorAdmins map[string]bool) (ref.RoomID, error) {
	if spec == nil {
		return ref.RoomID{}, fmt.Errorf("no metadata for %s", path)
	}
	if spec.ResolveErr != nil {
		return ref.RoomID{}, fmt.Errorf("membership unresolved: %w", spec.ResolveErr)
	}

	roomID, created, err := r.locateOrCreate(ctx, spec, isSpace)
	if err != nil {
		return ref.RoomID{}, err
	}

	if err := r.reconcileMembers(ctx, roomID, spec, created, ancestorAdmins); err != nil {
		return ref.RoomID{}, err
	}

	if !parent.IsZero() {
		if err := r.linkChild(ctx, parent, roomID); err != nil {
			return ref.RoomID{}, err
		}
	}
	return roomID, nil
}

// locateOrCreate finds the room by ID or alias, creating it when the
// alias is unbound. A room declared by literal ID cannot be created —
// the server assigns IDs — so a missing ID-declared room is an error.
func (r *Reconciler) locateOrCreate(ctx context.Context, spec *tree.RoomSpec, isSpace bool) (ref.RoomID, bool, error) {
	if spec.HasID() {
		roomID, err := spec.RoomID()
		if err != nil {
			return ref.RoomID{}, false, err
		}
		exists, err := r.session.RoomExists(ctx, roomID)
		if err != nil {
			return ref.RoomID{}, false, err
		}
		if !exists {
			return ref.RoomID{}, false, fmt.Errorf("room %s does not exist and cannot be created by ID", roomID)
		}
		return roomID, false, nil
	}

	alias, err := spec.RoomAlias()
	if err != nil {
		return ref.RoomID{}, false, err
	}

	roomID, err := r.session.ResolveAlias(ctx, alias)
	if err == nil {
		return roomID, false, nil
	}
	if !messaging.IsNotFound(err) {
		return ref.RoomID{}, false, err
	}

	return r.create(ctx, spec, alias, isSpace)
}

func (r *Reconciler) create(ctx context.Context, spec *tree.RoomSpec, alias ref.RoomAlias, isSpace bool) (ref.RoomID, bool, error) {
	admins, err := spec.AdminUsers()
	if err != nil {
		return ref.RoomID{}, false, err
	}

	// The power-level override replaces the default users map, so the
	// creating account must be present or it locks itself out.
	levels := messaging.NewPowerLevels()
	levels.SetUserLevel(r.session.UserID(), tree.AdminLevel)
	for _, admin := range admins {
		levels.SetUserLevel(admin.MXID, admin.PowerLevel)
	}

	request := messaging.CreateRoomRequest{
		Alias:                     alias.Localpart(),
		Visibility:                spec.Visibility,
		PowerLevelContentOverride: levels.Content(),
	}
	if isSpace {
		request.CreationContent = map[string]any{"type": "m.space"}
	}

	response, err := r.session.CreateRoom(ctx, request)
	if err != nil {
		return ref.RoomID{}, false, err
	}

	for _, raw := range spec.ExtraAliases {
		extra, err := ref.ParseRoomAlias(raw)
		if err != nil {
			return ref.RoomID{}, false, err
		}
		if err := r.session.CreateAlias(ctx, extra, response.RoomID); err != nil {
			return ref.RoomID{}, false, err
		}
	}
	return response.RoomID, true, nil
}

// reconcileMembers diffs live membership against desired (resolved
// users plus pinned admins) and applies additions, removals, and
// power-level corrections. Power levels are read once, edited, and
// written back in a single state event only when something changed.
func (r *Reconciler) reconcileMembers(ctx context.Context, roomID ref.RoomID, spec *tree.RoomSpec, created bool, ancestorAdmins map[string]bool) error {
	desired := tree.NewUserSet()
	desired.AddAll(spec.Resolved)
	admins, err := spec.AdminUsers()
	if err != nil {
		return err
	}
	for _, admin := range admins {
		desired.Add(admin)
	}

	live := make(map[string]bool)
	if !created {
		members, err := r.session.GetRoomMembers(ctx, roomID)
		if err != nil {
			return err
		}
		for _, member := range members {
			if member.Membership == "join" || member.Membership == "invite" {
				live[member.UserID] = true
			}
		}
	}

	levels, err := r.fetchPowerLevels(ctx, roomID)
	if err != nil {
		return err
	}
	levelsChanged := false

	for _, user := range desired.Users() {
		if !live[user.MXID.String()] {
			if err := r.admin.JoinUserToRoom(ctx, user.MXID, roomID); err != nil {
				return fmt.Errorf("adding %s: %w", user.MXID, err)
			}
			r.logger.Info("added member", "room_id", roomID, "user_id", user.MXID, "power_level", user.PowerLevel)
		}
		if levels.SetUserLevel(user.MXID, user.PowerLevel) {
			levelsChanged = true
		}
	}

	self := r.session.UserID().String()
	for mxid := range live {
		if _, ok := desired[mxid]; ok {
			continue
		}
		if mxid == self || ancestorAdmins[mxid] {
			continue
		}
		userID, err := ref.ParseUserID(mxid)
		if err != nil {
			r.logger.Warn("live member has unparsable user ID, leaving in place",
				"room_id", roomID, "user_id", mxid)
			continue
		}
		if err := r.session.KickUser(ctx, roomID, userID, KickReason); err != nil {
			return fmt.Errorf("removing %s: %w", userID, err)
		}
		if levels.RemoveUser(userID) {
			levelsChanged = true
		}
		r.logger.Info("removed member", "room_id", roomID, "user_id", userID)
	}

	if levelsChanged {
		if _, err := r.session.SendStateEvent(ctx, roomID, "m.room.power_levels", "", levels.Content()); err != nil {
			return fmt.Errorf("writing power levels: %w", err)
		}
	}
	return nil
}

func (r *Reconciler) fetchPowerLevels(ctx context.Context, roomID ref.RoomID) (*messaging.PowerLevels, error) {
	raw, err := r.session.GetStateEvent(ctx, roomID, "m.room.power_levels", "")
	if err != nil {
		if messaging.IsNotFound(err) {
			return messaging.NewPowerLevels(), nil
		}
		return nil, err
	}
	return messaging.ParsePowerLevels(raw)
}

// linkChild confirms or establishes the m.space.child edge from
// parent to child. The state is read first so an unchanged edge costs
// no write.
func (r *Reconciler) linkChild(ctx context.Context, parent, child ref.RoomID) error {
	raw, err := r.session.GetStateEvent(ctx, parent, "m.space.child", child.String())
	if err == nil {
		var existing messaging.SpaceChildContent
		// An m.space.child event with no via servers is a removed
		// link and gets re-established.
		if json.Unmarshal(raw, &existing) == nil && len(existing.Via) > 0 {
			return nil
		}
	} else if !messaging.IsNotFound(err) {
		return err
	}

	_, err = r.session.SendStateEvent(ctx, parent, "m.space.child", child.String(), messaging.SpaceChildContent{
		Via: []string{r.config.ServerName.String()},
	})
	if err != nil {
		return fmt.Errorf("linking %s under %s: %w", child, parent, err)
	}
	return nil
}
