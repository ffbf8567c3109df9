// Copyright 2026 The Spacehub Authors
// SPDX-License-Identifier: Apache-2.0

package tree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRoom(alias string) *RoomSpec {
	return &RoomSpec{Alias: alias, Visibility: VisibilityPrivate}
}

func TestCheckValidForest(t *testing.T) {
	forest := Forest{{
		Path: "org",
		Self: validRoom("#org:example.org"),
		Rooms: []*RoomSpec{
			{ID: "!abc:example.org", Visibility: VisibilityPublic, Source: "org/!abc:example.org"},
		},
		Children: []*SpaceNode{{
			Path: "org/sub",
			Self: validRoom("#sub:example.org"),
		}},
	}}
	assert.Empty(t, Check(forest))
}

func TestCheckMissingMetadata(t *testing.T) {
	forest := Forest{{Path: "org"}}
	problems := Check(forest)
	require.Len(t, problems, 1)
	assert.Equal(t, ProblemMissingMetadata, problems[0].Kind)
	assert.Equal(t, "org", problems[0].Path)
}

func TestCheckMissingIdentifier(t *testing.T) {
	forest := Forest{{
		Path: "org",
		Self: &RoomSpec{Visibility: VisibilityPrivate},
	}}
	problems := Check(forest)
	require.Len(t, problems, 1)
	assert.Equal(t, ProblemMissingIdentifier, problems[0].Kind)
}

func TestCheckReportsEveryProblem(t *testing.T) {
	// Findings across the whole forest are collected, not just the
	// first one.
	forest := Forest{
		{
			Path: "a",
			Self: &RoomSpec{
				Alias:      "#a:example.org",
				Visibility: "hidden",
				Admins:     []string{"not-an-mxid"},
			},
		},
		{Path: "b"},
	}
	problems := Check(forest)
	require.Len(t, problems, 3)

	kinds := map[ProblemKind]int{}
	for _, problem := range problems {
		kinds[problem.Kind]++
	}
	assert.Equal(t, 1, kinds[ProblemInvalidVisibility])
	assert.Equal(t, 1, kinds[ProblemInvalidUserID])
	assert.Equal(t, 1, kinds[ProblemMissingMetadata])
}

func TestCheckInvalidIdentifiers(t *testing.T) {
	forest := Forest{{
		Path: "org",
		Self: &RoomSpec{
			ID:           "not-a-room-id",
			Visibility:   VisibilityPrivate,
			ExtraAliases: []string{"also-not-an-alias"},
		},
	}}
	problems := Check(forest)
	require.Len(t, problems, 2)
	for _, problem := range problems {
		assert.Equal(t, ProblemInvalidIdentifier, problem.Kind)
	}
}
