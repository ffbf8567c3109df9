// Copyright 2026 The Spacehub Authors
// SPDX-License-Identifier: Apache-2.0

package tree

import (
	"sort"

	"github.com/spacehub-project/spacehub/lib/ref"
)

// ExternalID binds an account to an identity at an external auth
// provider.
type ExternalID struct {
	AuthProvider string
	ExternalID   string
}

// UserIdentity is one desired room member: the Matrix user ID, the
// power level they should hold, and the external auth identities to
// attach when the account is provisioned.
type UserIdentity struct {
	MXID        ref.UserID
	PowerLevel  int
	ExternalIDs []ExternalID
}

// UserSet is a set of desired members keyed by user ID. When the same
// account is granted membership through more than one group the
// highest power level wins; external IDs are taken from whichever
// grant carried them first (they render from the same directory entry,
// so all grants agree).
type UserSet map[string]UserIdentity

// NewUserSet returns an empty set.
func NewUserSet() UserSet {
	return make(UserSet)
}

// Add inserts a user, keeping the highest power level on conflict.
func (s UserSet) Add(user UserIdentity) {
	key := user.MXID.String()
	existing, ok := s[key]
	if !ok || user.PowerLevel > existing.PowerLevel {
		if ok && len(user.ExternalIDs) == 0 {
			user.ExternalIDs = existing.ExternalIDs
		}
		s[key] = user
	}
}

// AddAll inserts every user from another set.
func (s UserSet) AddAll(other UserSet) {
	for _, user := range other {
		s.Add(user)
	}
}

// Level returns the power level for a user ID, if present.
func (s UserSet) Level(mxid ref.UserID) (int, bool) {
	user, ok := s[mxid.String()]
	if !ok {
		return 0, false
	}
	return user.PowerLevel, true
}

// Contains reports whether the set holds the user.
func (s UserSet) Contains(mxid ref.UserID) bool {
	_, ok := s[mxid.String()]
	return ok
}

// Users returns the members sorted by user ID for deterministic
// iteration.
func (s UserSet) Users() []UserIdentity {
	users := make([]UserIdentity, 0, len(s))
	for _, user := range s {
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool {
		return users[i].MXID.String() < users[j].MXID.String()
	})
	return users
}

// AllUsers collects every desired member across the node, its rooms,
// and its descendants. Used for account provisioning ahead of
// reconciliation.
func (n *SpaceNode) AllUsers() UserSet {
	all := NewUserSet()
	if n.Self != nil {
		all.AddAll(n.Self.Resolved)
	}
	for _, room := range n.Rooms {
		all.AddAll(room.Resolved)
	}
	for _, child := range n.Children {
		all.AddAll(child.AllUsers())
	}
	return all
}
