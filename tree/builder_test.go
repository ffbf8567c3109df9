// Copyright 2026 The Spacehub Authors
// SPDX-License-Identifier: Apache-2.0

package tree

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, relPath, contents string) {
	t.Helper()
	path := filepath.Join(root, relPath)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestLoadForest(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "company/metadata.yml", `
alias: "#company:example.org"
visibility: public
ldap_groups:
  - dn: cn=staff,ou=groups,dc=example,dc=org
    power_level: 0
admins:
  - "@root:example.org"
`)
	writeFile(t, root, "company/#general:example.org", `
extra_aliases:
  - "#lobby:example.org"
`)
	writeFile(t, root, "company/!aaabbbccc:example.org", "")
	writeFile(t, root, "company/engineering/metadata.yaml", `
alias: "#engineering:example.org"
`)

	forest, err := Load(root, discardLogger())
	require.NoError(t, err)
	require.Len(t, forest, 1)

	company := forest[0]
	assert.Equal(t, "company", company.Path)
	require.NotNil(t, company.Self)
	assert.Equal(t, "#company:example.org", company.Self.Alias)
	assert.Equal(t, VisibilityPublic, company.Self.Visibility)
	require.Len(t, company.Self.Groups, 1)
	assert.Equal(t, "cn=staff,ou=groups,dc=example,dc=org", company.Self.Groups[0].DN)
	assert.Equal(t, []string{"@root:example.org"}, company.Self.Admins)

	require.Len(t, company.Rooms, 2)
	byName := map[string]*RoomSpec{}
	for _, room := range company.Rooms {
		byName[room.Describe()] = room
	}
	general := byName["#general:example.org"]
	require.NotNil(t, general)
	assert.Equal(t, []string{"#lobby:example.org"}, general.ExtraAliases)
	assert.Equal(t, VisibilityPrivate, general.Visibility, "visibility defaults to private")

	byID := byName["!aaabbbccc:example.org"]
	require.NotNil(t, byID)
	assert.True(t, byID.HasID())

	require.Len(t, company.Children, 1)
	assert.Equal(t, filepath.Join("company", "engineering"), company.Children[0].Path)
	require.NotNil(t, company.Children[0].Self)
}

func TestLoadFilenameOverridesBody(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "org/metadata.yml", `alias: "#org:example.org"`)
	writeFile(t, root, "org/#real:example.org", `alias: "#stale:example.org"`)

	forest, err := Load(root, discardLogger())
	require.NoError(t, err)
	require.Len(t, forest[0].Rooms, 1)
	assert.Equal(t, "#real:example.org", forest[0].Rooms[0].Alias)
}

func TestLoadIgnoresDotfilesAndRootFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "README.md", "not a space")
	writeFile(t, root, ".git-keep", "")
	writeFile(t, root, "org/metadata.yml", `alias: "#org:example.org"`)
	writeFile(t, root, "org/.hidden.yml", `alias: "#nope:example.org"`)
	writeFile(t, root, "org/notes.txt", "unsupported, skipped")

	forest, err := Load(root, discardLogger())
	require.NoError(t, err)
	require.Len(t, forest, 1)
	assert.Empty(t, forest[0].Rooms)
}

func TestLoadSkipsSymlinks(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "org/metadata.yml", `alias: "#org:example.org"`)
	writeFile(t, root, "org/#general:example.org", "")
	require.NoError(t, os.Symlink(
		filepath.Join(root, "org", "#general:example.org"),
		filepath.Join(root, "org", "#linked:example.org")))

	forest, err := Load(root, discardLogger())
	require.NoError(t, err)
	require.Len(t, forest[0].Rooms, 1)
	assert.Equal(t, "#general:example.org", forest[0].Rooms[0].Alias)
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "org/metadata.yml", `
alias: "#org:example.org"
visibilty: public
`)

	_, err := Load(root, discardLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "visibilty")
}
