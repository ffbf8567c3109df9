// Copyright 2026 The Spacehub Authors
// SPDX-License-Identifier: Apache-2.0

package tree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spacehub-project/spacehub/lib/ref"
)

func identity(mxid string, level int) UserIdentity {
	return UserIdentity{MXID: ref.MustParseUserID(mxid), PowerLevel: level}
}

func TestUserSetHighestLevelWins(t *testing.T) {
	set := NewUserSet()
	set.Add(identity("@alice:example.org", 50))
	set.Add(identity("@alice:example.org", 100))
	set.Add(identity("@alice:example.org", 0))

	require.Len(t, set, 1)
	level, ok := set.Level(ref.MustParseUserID("@alice:example.org"))
	require.True(t, ok)
	assert.Equal(t, 100, level)
}

func TestUserSetOrderIndependent(t *testing.T) {
	users := []UserIdentity{
		identity("@alice:example.org", 50),
		identity("@bob:example.org", 0),
		identity("@alice:example.org", 100),
	}

	forward := NewUserSet()
	for _, user := range users {
		forward.Add(user)
	}
	backward := NewUserSet()
	for i := len(users) - 1; i >= 0; i-- {
		backward.Add(users[i])
	}

	assert.Equal(t, forward, backward)
}

func TestUserSetKeepsExternalIDsOnUpgrade(t *testing.T) {
	set := NewUserSet()
	withIDs := identity("@alice:example.org", 0)
	withIDs.ExternalIDs = []ExternalID{{AuthProvider: "oidc", ExternalID: "alice"}}
	set.Add(withIDs)
	set.Add(identity("@alice:example.org", 100))

	user := set["@alice:example.org"]
	assert.Equal(t, 100, user.PowerLevel)
	require.Len(t, user.ExternalIDs, 1)
	assert.Equal(t, "alice", user.ExternalIDs[0].ExternalID)
}

func TestUsersSorted(t *testing.T) {
	set := NewUserSet()
	set.Add(identity("@carol:example.org", 0))
	set.Add(identity("@alice:example.org", 0))
	set.Add(identity("@bob:example.org", 0))

	users := set.Users()
	require.Len(t, users, 3)
	assert.Equal(t, "@alice:example.org", users[0].MXID.String())
	assert.Equal(t, "@carol:example.org", users[2].MXID.String())
}

func TestAllUsers(t *testing.T) {
	child := &SpaceNode{
		Path: "org/sub",
		Self: &RoomSpec{Alias: "#sub:example.org"},
	}
	child.Self.Resolved = NewUserSet()
	child.Self.Resolved.Add(identity("@carol:example.org", 0))

	room := &RoomSpec{Alias: "#general:example.org"}
	room.Resolved = NewUserSet()
	room.Resolved.Add(identity("@bob:example.org", 50))

	node := &SpaceNode{
		Path:     "org",
		Self:     &RoomSpec{Alias: "#org:example.org"},
		Rooms:    []*RoomSpec{room},
		Children: []*SpaceNode{child},
	}
	node.Self.Resolved = NewUserSet()
	node.Self.Resolved.Add(identity("@alice:example.org", 100))
	node.Self.Resolved.Add(identity("@bob:example.org", 0))

	all := node.AllUsers()
	require.Len(t, all, 3)
	level, _ := all.Level(ref.MustParseUserID("@bob:example.org"))
	assert.Equal(t, 50, level)
}
