// Copyright 2026 The Spacehub Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"github.com/spacehub-project/spacehub/lib/ref"
)

// LoginRequest is the body of POST /_matrix/client/v3/login.
type LoginRequest struct {
	Type                     string `json:"type"`
	User                     string `json:"user"`
	Password                 string `json:"password"`
	InitialDeviceDisplayName string `json:"initial_device_display_name,omitempty"`
}

// AuthResponse is returned by Login.
type AuthResponse struct {
	UserID      ref.UserID `json:"user_id"`
	AccessToken string     `json:"access_token"`
	DeviceID    string     `json:"device_id"`
}

// CreateRoomRequest holds parameters for creating a Matrix room.
type CreateRoomRequest struct {
	Name                      string         `json:"name,omitempty"`
	Topic                     string         `json:"topic,omitempty"`
	Alias                     string         `json:"room_alias_name,omitempty"` // local alias without # or :server
	Visibility                string         `json:"visibility,omitempty"`      // "public" or "private"
	Preset                    string         `json:"preset,omitempty"`          // "private_chat", "public_chat", "trusted_private_chat"
	Invite                    []string       `json:"invite,omitempty"`
	CreationContent           map[string]any `json:"creation_content,omitempty"` // {"type": "m.space"} for spaces
	InitialState              []StateEvent   `json:"initial_state,omitempty"`
	PowerLevelContentOverride map[string]any `json:"power_level_content_override,omitempty"`
}

// CreateRoomResponse is returned by CreateRoom.
type CreateRoomResponse struct {
	RoomID ref.RoomID `json:"room_id"`
}

// StateEvent represents a Matrix state event for room creation or
// state setting.
type StateEvent struct {
	Type     string `json:"type"`
	StateKey string `json:"state_key"`
	Content  any    `json:"content"`
}

// SendEventResponse is returned by state event writes.
type SendEventResponse struct {
	EventID string `json:"event_id"`
}

// ResolveAliasResponse is returned by alias resolution.
type ResolveAliasResponse struct {
	RoomID  ref.RoomID `json:"room_id"`
	Servers []string   `json:"servers,omitempty"`
}

// Profile is a user's public profile. Its contents are irrelevant to
// spacehub — a successful fetch proves the account exists.
type Profile struct {
	DisplayName string `json:"displayname,omitempty"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}

// RoomMember is one entry in a room's member list.
type RoomMember struct {
	UserID     string
	Membership string // "join", "invite", "leave", "ban"
}

// memberEvent is the wire form of one m.room.member event in the
// /members response chunk.
type memberEvent struct {
	StateKey string `json:"state_key"`
	Content  struct {
		Membership string `json:"membership"`
	} `json:"content"`
}

// roomMembersResponse is the wire form of GET /rooms/{id}/members.
type roomMembersResponse struct {
	Chunk []memberEvent `json:"chunk"`
}

// WhoAmIResponse is returned by GET /account/whoami.
type WhoAmIResponse struct {
	UserID ref.UserID `json:"user_id"`
}

// KickRequest is the body of POST /rooms/{id}/kick.
type KickRequest struct {
	UserID string `json:"user_id"`
	Reason string `json:"reason,omitempty"`
}

// SpaceChildContent is the content of an m.space.child state event.
// An empty Via list means the link has been removed; a present link
// carries at least the parent's own server.
type SpaceChildContent struct {
	Via []string `json:"via,omitempty"`
}

// ExternalID is the wire form of one external identity claim in the
// Synapse admin user API.
type ExternalID struct {
	AuthProvider string `json:"auth_provider"`
	ExternalID   string `json:"external_id"`
}

// AdminUpsertUserRequest is the body of PUT /_synapse/admin/v2/users/{id}.
// Only the fields spacehub manages are included; Synapse leaves the
// rest of the account untouched.
type AdminUpsertUserRequest struct {
	ExternalIDs []ExternalID `json:"external_ids,omitempty"`
}

// AdminJoinRequest is the body of POST /_synapse/admin/v1/join/{roomIdOrAlias}.
type AdminJoinRequest struct {
	UserID string `json:"user_id"`
}
