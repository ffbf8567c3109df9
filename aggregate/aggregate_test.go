// Copyright 2026 The Spacehub Authors
// SPDX-License-Identifier: Apache-2.0

package aggregate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spacehub-project/spacehub/directory"
	"github.com/spacehub-project/spacehub/lib/ref"
	"github.com/spacehub-project/spacehub/tree"
)

type fakeDirectory struct {
	groups map[string][]directory.Entry
	fail   map[string]error
}

func (d *fakeDirectory) GroupMembers(_ context.Context, groupDN string) ([]directory.Entry, error) {
	if err := d.fail[groupDN]; err != nil {
		return nil, err
	}
	return d.groups[groupDN], nil
}

// uidMapper derives @<uid>:example.org; entries without a uid fail.
type uidMapper struct{}

func (uidMapper) Identity(entry directory.Entry, powerLevel int) (tree.UserIdentity, error) {
	uids := entry.Attributes["uid"]
	if len(uids) == 0 {
		return tree.UserIdentity{}, fmt.Errorf("no uid on %s", entry.DN)
	}
	mxid, err := ref.NewUserID(uids[0], ref.MustParseServerName("example.org"))
	if err != nil {
		return tree.UserIdentity{}, err
	}
	return tree.UserIdentity{MXID: mxid, PowerLevel: powerLevel}, nil
}

func person(uid string) directory.Entry {
	return directory.Entry{
		DN:         "uid=" + uid + ",ou=people,dc=example,dc=org",
		Attributes: map[string][]string{"uid": {uid}},
	}
}

func newResolver(dir *fakeDirectory) *Resolver {
	return New(dir, uidMapper{}, slog.New(slog.DiscardHandler))
}

func TestResolveRoom(t *testing.T) {
	dir := &fakeDirectory{groups: map[string][]directory.Entry{
		"cn=staff": {person("alice"), person("bob")},
	}}
	room := &tree.RoomSpec{
		Alias:  "#team:example.org",
		Groups: []tree.GroupRef{{DN: "cn=staff", PowerLevel: 50}},
	}
	forest := tree.Forest{{Path: "org", Self: room}}

	require.NoError(t, newResolver(dir).Resolve(context.Background(), forest))
	require.Len(t, room.Resolved, 2)
	level, ok := room.Resolved.Level(ref.MustParseUserID("@alice:example.org"))
	require.True(t, ok)
	assert.Equal(t, 50, level)
	assert.NoError(t, room.ResolveErr)
}

func TestResolveHighestLevelAcrossGroups(t *testing.T) {
	dir := &fakeDirectory{groups: map[string][]directory.Entry{
		"cn=staff":  {person("alice"), person("bob")},
		"cn=admins": {person("alice")},
	}}
	room := &tree.RoomSpec{
		Alias: "#team:example.org",
		Groups: []tree.GroupRef{
			{DN: "cn=staff", PowerLevel: 0},
			{DN: "cn=admins", PowerLevel: 100},
		},
	}
	forest := tree.Forest{{Path: "org", Self: room}}
	require.NoError(t, newResolver(dir).Resolve(context.Background(), forest))

	aliceLevel, _ := room.Resolved.Level(ref.MustParseUserID("@alice:example.org"))
	bobLevel, _ := room.Resolved.Level(ref.MustParseUserID("@bob:example.org"))
	assert.Equal(t, 100, aliceLevel)
	assert.Equal(t, 0, bobLevel)
}

func TestResolveOrderIndependent(t *testing.T) {
	groups := []tree.GroupRef{
		{DN: "cn=staff", PowerLevel: 0},
		{DN: "cn=admins", PowerLevel: 100},
	}
	reversed := []tree.GroupRef{groups[1], groups[0]}

	dir := &fakeDirectory{groups: map[string][]directory.Entry{
		"cn=staff":  {person("alice"), person("bob")},
		"cn=admins": {person("alice")},
	}}

	forward := &tree.RoomSpec{Alias: "#a:example.org", Groups: groups}
	backward := &tree.RoomSpec{Alias: "#a:example.org", Groups: reversed}
	require.NoError(t, newResolver(dir).Resolve(context.Background(),
		tree.Forest{{Path: "a", Self: forward}, {Path: "b", Self: backward}}))

	assert.Equal(t, forward.Resolved, backward.Resolved)
}

func TestResolveGroupFailureIsolatesRoom(t *testing.T) {
	queryErr := errors.New("size limit exceeded")
	dir := &fakeDirectory{
		groups: map[string][]directory.Entry{"cn=staff": {person("alice")}},
		fail:   map[string]error{"cn=broken": queryErr},
	}

	broken := &tree.RoomSpec{
		Alias:  "#broken:example.org",
		Groups: []tree.GroupRef{{DN: "cn=broken", PowerLevel: 0}},
	}
	healthy := &tree.RoomSpec{
		Alias:  "#healthy:example.org",
		Groups: []tree.GroupRef{{DN: "cn=staff", PowerLevel: 0}},
	}
	forest := tree.Forest{
		{Path: "broken", Self: broken},
		{Path: "healthy", Self: healthy},
	}

	require.NoError(t, newResolver(dir).Resolve(context.Background(), forest))
	assert.ErrorIs(t, broken.ResolveErr, queryErr)
	assert.NoError(t, healthy.ResolveErr)
	assert.Len(t, healthy.Resolved, 1)
}

func TestResolveSkipsUnrenderableIdentity(t *testing.T) {
	noUID := directory.Entry{DN: "cn=service,ou=people,dc=example,dc=org"}
	dir := &fakeDirectory{groups: map[string][]directory.Entry{
		"cn=staff": {person("alice"), noUID},
	}}
	room := &tree.RoomSpec{
		Alias:  "#team:example.org",
		Groups: []tree.GroupRef{{DN: "cn=staff", PowerLevel: 0}},
	}
	require.NoError(t, newResolver(dir).Resolve(context.Background(),
		tree.Forest{{Path: "org", Self: room}}))

	assert.NoError(t, room.ResolveErr)
	require.Len(t, room.Resolved, 1)
	assert.True(t, room.Resolved.Contains(ref.MustParseUserID("@alice:example.org")))
}

func TestResolveWalksChildrenAndRooms(t *testing.T) {
	dir := &fakeDirectory{groups: map[string][]directory.Entry{
		"cn=staff": {person("alice")},
	}}
	childRoom := &tree.RoomSpec{
		Alias:  "#general:example.org",
		Source: "org/#general:example.org",
		Groups: []tree.GroupRef{{DN: "cn=staff", PowerLevel: 0}},
	}
	child := &tree.SpaceNode{
		Path: "org/sub",
		Self: &tree.RoomSpec{
			Alias:  "#sub:example.org",
			Groups: []tree.GroupRef{{DN: "cn=staff", PowerLevel: 50}},
		},
	}
	forest := tree.Forest{{
		Path:     "org",
		Self:     &tree.RoomSpec{Alias: "#org:example.org"},
		Rooms:    []*tree.RoomSpec{childRoom},
		Children: []*tree.SpaceNode{child},
	}}

	require.NoError(t, newResolver(dir).Resolve(context.Background(), forest))
	assert.Len(t, childRoom.Resolved, 1)
	assert.Len(t, child.Self.Resolved, 1)
	assert.Empty(t, forest[0].Self.Resolved)
}
