// Copyright 2026 The Spacehub Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const validConfig = `
matrix:
  server_name: example.org
  homeserver_url: https://matrix.example.org
  mxid: "@spacehub:example.org"
  password_file: /run/secrets/matrix-password
ldap:
  uri: ldaps://ldap.example.org
  bind_dn: cn=spacehub,ou=svc,dc=example,dc=org
  bind_password_file: /run/secrets/ldap-password
  user_base_dn: ou=people,dc=example,dc=org
  user_filter: (objectClass=inetOrgPerson)
  localpart_template: '{{ .Attr "uid" }}'
  create_missing_users: true
  external_ids:
    - auth_provider: oidc-keycloak
      external_id_template: '{{ .Attr "uid" }}'
tree_root: /var/lib/spacehub/tree
`

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "spacehub.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoadFile(t *testing.T) {
	cfg, err := LoadFile(writeConfig(t, validConfig))
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	if cfg.Matrix.ServerName != "example.org" {
		t.Errorf("ServerName = %q", cfg.Matrix.ServerName)
	}
	if cfg.LDAP.BindDN != "cn=spacehub,ou=svc,dc=example,dc=org" {
		t.Errorf("BindDN = %q", cfg.LDAP.BindDN)
	}
	if !cfg.LDAP.CreateMissingUsers {
		t.Error("CreateMissingUsers = false")
	}
	if len(cfg.LDAP.ExternalIDs) != 1 || cfg.LDAP.ExternalIDs[0].AuthProvider != "oidc-keycloak" {
		t.Errorf("ExternalIDs = %+v", cfg.LDAP.ExternalIDs)
	}
	if cfg.TreeRoot != "/var/lib/spacehub/tree" {
		t.Errorf("TreeRoot = %q", cfg.TreeRoot)
	}
}

func TestLoadFile_UnknownKey(t *testing.T) {
	contents := strings.Replace(validConfig, "tree_root:", "tree_roott:", 1)
	if _, err := LoadFile(writeConfig(t, contents)); err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestLoadFile_MissingFields(t *testing.T) {
	tests := []struct {
		name   string
		remove string
	}{
		{name: "no-server-name", remove: "  server_name: example.org\n"},
		{name: "no-mxid", remove: "  mxid: \"@spacehub:example.org\"\n"},
		{name: "no-password-file", remove: "  password_file: /run/secrets/matrix-password\n"},
		{name: "no-uri", remove: "  uri: ldaps://ldap.example.org\n"},
		{name: "no-base-dn", remove: "  user_base_dn: ou=people,dc=example,dc=org\n"},
		{name: "no-filter", remove: "  user_filter: (objectClass=inetOrgPerson)\n"},
		{name: "no-localpart-template", remove: "  localpart_template: '{{ .Attr \"uid\" }}'\n"},
		{name: "no-tree-root", remove: "tree_root: /var/lib/spacehub/tree\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			contents := strings.Replace(validConfig, tt.remove, "", 1)
			if contents == validConfig {
				t.Fatalf("removal %q did not match config", tt.remove)
			}
			if _, err := LoadFile(writeConfig(t, contents)); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestLoadFile_BindDNWithoutPassword(t *testing.T) {
	contents := strings.Replace(validConfig, "  bind_password_file: /run/secrets/ldap-password\n", "", 1)
	if _, err := LoadFile(writeConfig(t, contents)); err == nil {
		t.Fatal("expected error for bind_dn without bind_password_file")
	}
}

func TestLoadFile_InvalidMXID(t *testing.T) {
	contents := strings.Replace(validConfig, "@spacehub:example.org", "spacehub", 1)
	if _, err := LoadFile(writeConfig(t, contents)); err == nil {
		t.Fatal("expected error for invalid mxid")
	}
}
