// Copyright 2026 The Spacehub Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"context"
	"encoding/json"

	"github.com/spacehub-project/spacehub/lib/ref"
)

// Session is the interface for the Matrix operations the reconciler
// performs. *DirectSession is the production implementation; tests
// substitute fakes.
//
// Lookup methods (ResolveAlias, RoomExists, GetProfile, GetStateEvent)
// report "does not exist" as a *MatrixError with code M_NOT_FOUND —
// callers distinguish that from a genuine failure with [IsNotFound].
// Lookups are safe to repeat; CreateRoom and CreateAlias are not
// retried to avoid duplicate rooms and alias conflicts.
type Session interface {
	// UserID returns the fully-qualified Matrix user ID of the
	// service account (e.g., "@spacehub:example.org").
	UserID() ref.UserID

	// Close releases any resources held by the session. Idempotent.
	Close() error

	// WhoAmI validates the session and returns the user ID.
	WhoAmI(ctx context.Context) (ref.UserID, error)

	// ResolveAlias resolves a room alias to a room ID.
	ResolveAlias(ctx context.Context, alias ref.RoomAlias) (ref.RoomID, error)

	// RoomExists checks that a room ID refers to a room visible to
	// the session.
	RoomExists(ctx context.Context, roomID ref.RoomID) (bool, error)

	// CreateRoom creates a new Matrix room (or space).
	CreateRoom(ctx context.Context, request CreateRoomRequest) (*CreateRoomResponse, error)

	// CreateAlias registers an additional alias for an existing room.
	CreateAlias(ctx context.Context, alias ref.RoomAlias, roomID ref.RoomID) error

	// GetRoomMembers returns the members of a room.
	GetRoomMembers(ctx context.Context, roomID ref.RoomID) ([]RoomMember, error)

	// GetStateEvent fetches a specific state event's content from a
	// room. Returns the raw JSON content for the caller to unmarshal.
	GetStateEvent(ctx context.Context, roomID ref.RoomID, eventType, stateKey string) (json.RawMessage, error)

	// SendStateEvent sends a state event to a room. Returns the event ID.
	SendStateEvent(ctx context.Context, roomID ref.RoomID, eventType, stateKey string, content any) (string, error)

	// GetProfile fetches a user's public profile. Used as an account
	// existence check.
	GetProfile(ctx context.Context, userID ref.UserID) (*Profile, error)

	// KickUser removes a user from a room with an optional reason.
	KickUser(ctx context.Context, roomID ref.RoomID, userID ref.UserID, reason string) error
}

// Compile-time check: *DirectSession implements Session.
var _ Session = (*DirectSession)(nil)
