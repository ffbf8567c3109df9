// Copyright 2026 The Spacehub Authors
// SPDX-License-Identifier: Apache-2.0

// Package tree builds the desired-state forest from a file hierarchy.
//
// Directories are spaces. A metadata.yml (or metadata.yaml) inside a
// directory describes the space's own room. A file whose name starts
// with '!' declares a child room by room ID, one starting with '#'
// declares it by alias; the rest of the filename is the identifier and
// the file body is the room's metadata. Dotfiles are ignored,
// symbolic links are reported and skipped.
package tree

import (
	"github.com/spacehub-project/spacehub/lib/ref"
)

// Forest is the set of top-level spaces, one per top-level directory
// under the tree root.
type Forest []*SpaceNode

// SpaceNode is one directory: a space, its sibling-file rooms, and its
// subdirectory children.
type SpaceNode struct {
	// Path is the directory path relative to the tree root, used in
	// problem reports and logs.
	Path string
	// Self is the space's own room, from metadata.yml. Nil until the
	// metadata file is parsed; Check rejects a forest where any node
	// is missing it.
	Self *RoomSpec
	// Rooms are the child rooms declared as files in this directory.
	Rooms []*RoomSpec
	// Children are nested subdirectories.
	Children []*SpaceNode
}

// GroupRef maps a directory group to the power level its members
// receive.
type GroupRef struct {
	DN         string `yaml:"dn"`
	PowerLevel int    `yaml:"power_level"`
}

// RoomSpec is the desired state of one room or space. Identifier
// fields stay raw strings as they appear in YAML and filenames; Check
// validates them and the typed accessors parse them.
type RoomSpec struct {
	// ID is the literal room ID ("!opaque:server"), from the metadata
	// body or a '!'-prefixed filename. Takes precedence over Alias
	// for lookup when both are set.
	ID string `yaml:"id"`
	// Alias is the primary room alias ("#name:server").
	Alias string `yaml:"alias"`
	// ExtraAliases are additional aliases pointed at the same room.
	ExtraAliases []string `yaml:"extra_aliases"`
	// Visibility is "public" or "private". Empty means private.
	Visibility string `yaml:"visibility"`
	// Groups grant room membership at a power level to every member
	// of a directory group.
	Groups []GroupRef `yaml:"ldap_groups"`
	// Admins are explicitly pinned members, held at power level 100
	// independent of any group.
	Admins []string `yaml:"admins"`

	// Resolved is populated by the aggregator, write-once per run.
	Resolved UserSet `yaml:"-"`
	// ResolveErr is set by the aggregator when a group query for this
	// room failed. The room must not be reconciled with a partial
	// member set, so the reconciler marks it failed instead.
	ResolveErr error `yaml:"-"`

	// Source is the file the spec was read from, relative to the tree
	// root.
	Source string `yaml:"-"`
}

// VisibilityPrivate and VisibilityPublic are the accepted visibility
// values.
const (
	VisibilityPrivate = "private"
	VisibilityPublic  = "public"
)

// AdminLevel is the power level pinned admins are held at.
const AdminLevel = 100

// HasID reports whether the spec names a literal room ID.
func (r *RoomSpec) HasID() bool { return r.ID != "" }

// RoomID parses the spec's room ID.
func (r *RoomSpec) RoomID() (ref.RoomID, error) {
	return ref.ParseRoomID(r.ID)
}

// RoomAlias parses the spec's primary alias.
func (r *RoomSpec) RoomAlias() (ref.RoomAlias, error) {
	return ref.ParseRoomAlias(r.Alias)
}

// AdminUsers returns the pinned admins as identities at AdminLevel.
// Check has already rejected unparsable entries, so an error here
// indicates the spec was mutated after validation.
func (r *RoomSpec) AdminUsers() ([]UserIdentity, error) {
	users := make([]UserIdentity, 0, len(r.Admins))
	for _, raw := range r.Admins {
		mxid, err := ref.ParseUserID(raw)
		if err != nil {
			return nil, err
		}
		users = append(users, UserIdentity{MXID: mxid, PowerLevel: AdminLevel})
	}
	return users, nil
}

// Describe returns the room's identifier for logs and problem
// reports, preferring the ID.
func (r *RoomSpec) Describe() string {
	if r.ID != "" {
		return r.ID
	}
	return r.Alias
}
