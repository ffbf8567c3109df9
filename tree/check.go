// Copyright 2026 The Spacehub Authors
// SPDX-License-Identifier: Apache-2.0

package tree

import (
	"fmt"

	"github.com/spacehub-project/spacehub/lib/ref"
)

// ProblemKind classifies a validation finding.
type ProblemKind string

const (
	// ProblemMissingMetadata means a directory has no metadata.yml.
	ProblemMissingMetadata ProblemKind = "missing-metadata"
	// ProblemMissingIdentifier means a room has neither an ID nor an
	// alias.
	ProblemMissingIdentifier ProblemKind = "missing-identifier"
	// ProblemInvalidIdentifier means a declared room ID or alias does
	// not parse.
	ProblemInvalidIdentifier ProblemKind = "invalid-identifier"
	// ProblemInvalidUserID means an admin or resolved user identifier
	// is not a valid Matrix user ID.
	ProblemInvalidUserID ProblemKind = "invalid-user-id"
	// ProblemInvalidVisibility means visibility is neither "public"
	// nor "private".
	ProblemInvalidVisibility ProblemKind = "invalid-visibility"
)

// Problem is one validation finding, located by tree path.
type Problem struct {
	Kind   ProblemKind
	Path   string
	Detail string
}

func (p Problem) Error() string {
	return fmt.Sprintf("%s: %s: %s", p.Path, p.Kind, p.Detail)
}

// Check validates the whole forest and returns every finding. It
// never stops at the first problem — the caller reports the full list
// before aborting. Reconciliation must not start while Check returns
// findings.
func Check(forest Forest) []Problem {
	var problems []Problem
	for _, node := range forest {
		problems = append(problems, checkNode(node)...)
	}
	return problems
}

func checkNode(node *SpaceNode) []Problem {
	var problems []Problem

	if node.Self == nil {
		problems = append(problems, Problem{
			Kind:   ProblemMissingMetadata,
			Path:   node.Path,
			Detail: "directory has no metadata.yml",
		})
	} else {
		problems = append(problems, checkRoom(node.Path, node.Self)...)
	}

	for _, room := range node.Rooms {
		problems = append(problems, checkRoom(room.Source, room)...)
	}
	for _, child := range node.Children {
		problems = append(problems, checkNode(child)...)
	}
	return problems
}

func checkRoom(path string, spec *RoomSpec) []Problem {
	var problems []Problem

	if spec.ID == "" && spec.Alias == "" {
		problems = append(problems, Problem{
			Kind:   ProblemMissingIdentifier,
			Path:   path,
			Detail: "room has neither an id nor an alias",
		})
	}
	if spec.ID != "" {
		if _, err := ref.ParseRoomID(spec.ID); err != nil {
			problems = append(problems, Problem{
				Kind:   ProblemInvalidIdentifier,
				Path:   path,
				Detail: err.Error(),
			})
		}
	}
	if spec.Alias != "" {
		if _, err := ref.ParseRoomAlias(spec.Alias); err != nil {
			problems = append(problems, Problem{
				Kind:   ProblemInvalidIdentifier,
				Path:   path,
				Detail: err.Error(),
			})
		}
	}
	for _, alias := range spec.ExtraAliases {
		if _, err := ref.ParseRoomAlias(alias); err != nil {
			problems = append(problems, Problem{
				Kind:   ProblemInvalidIdentifier,
				Path:   path,
				Detail: err.Error(),
			})
		}
	}

	if spec.Visibility != VisibilityPrivate && spec.Visibility != VisibilityPublic {
		problems = append(problems, Problem{
			Kind:   ProblemInvalidVisibility,
			Path:   path,
			Detail: fmt.Sprintf("visibility %q is not public or private", spec.Visibility),
		})
	}

	for _, admin := range spec.Admins {
		if _, err := ref.ParseUserID(admin); err != nil {
			problems = append(problems, Problem{
				Kind:   ProblemInvalidUserID,
				Path:   path,
				Detail: err.Error(),
			})
		}
	}
	for _, user := range spec.Resolved {
		if user.MXID.IsZero() {
			problems = append(problems, Problem{
				Kind:   ProblemInvalidUserID,
				Path:   path,
				Detail: "resolved user has an empty user ID",
			})
		}
	}
	return problems
}
