// Copyright 2026 The Spacehub Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for spacehub.
//
// Configuration is loaded from a single YAML file specified by:
//   - the SPACEHUB_CONFIG environment variable, or
//   - the --config flag passed to the command
//
// There are no fallbacks or automatic discovery. This ensures
// deterministic, auditable configuration with no hidden overrides.
// Unknown keys in the file are an error, so a typo in a field name
// fails loudly instead of silently using a default.
//
// Secrets (the Matrix account password, the LDAP bind password) are
// never stored in the file itself. The config carries file paths and
// the caller reads them into secret.Buffer values at startup.
package config

import (
	"bytes"
	"fmt"
	"net/url"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/spacehub-project/spacehub/lib/ref"
)

// Config is the root configuration for a spacehub run.
type Config struct {
	// Matrix configures the homeserver connection and service account.
	Matrix MatrixConfig `yaml:"matrix"`

	// LDAP configures the directory service connection and the
	// identity templates applied to directory entries.
	LDAP LDAPConfig `yaml:"ldap"`

	// TreeRoot is the directory holding the desired-state tree: one
	// subdirectory per top-level space. Materializing the tree (e.g.
	// cloning it from version control) happens outside spacehub.
	TreeRoot string `yaml:"tree_root"`
}

// MatrixConfig configures the homeserver connection.
type MatrixConfig struct {
	// ServerName is the Matrix server name used to build MXIDs from
	// rendered localparts (e.g. "example.org").
	ServerName string `yaml:"server_name"`

	// HomeserverURL is the base URL of the homeserver's client API
	// (e.g. "https://matrix.example.org").
	HomeserverURL string `yaml:"homeserver_url"`

	// MXID is the fully-qualified user ID of the service account.
	// The account must be a server admin: user provisioning and
	// forced joins go through the Synapse admin API.
	MXID string `yaml:"mxid"`

	// PasswordFile is the path to a file holding the service account
	// password, or "-" to read it from stdin.
	PasswordFile string `yaml:"password_file"`
}

// ExternalIDTemplate maps an auth provider to the template that
// renders a user's external ID from their directory entry.
type ExternalIDTemplate struct {
	AuthProvider string `yaml:"auth_provider"`
	Template     string `yaml:"external_id_template"`
}

// LDAPConfig configures the directory service connection and the
// identity mapping templates.
type LDAPConfig struct {
	// URI is the LDAP server URL (ldap:// or ldaps://).
	URI string `yaml:"uri"`

	// StartTLS upgrades a plain ldap:// connection to TLS after
	// connecting. Ignored for ldaps:// URIs.
	StartTLS bool `yaml:"starttls"`

	// NoTLSVerify disables certificate verification. For test
	// environments with self-signed directory certificates only.
	NoTLSVerify bool `yaml:"no_tls_verify"`

	// BindDN and BindPasswordFile authenticate the search connection.
	// Both empty means anonymous bind.
	BindDN           string `yaml:"bind_dn"`
	BindPasswordFile string `yaml:"bind_password_file"`

	// UserBaseDN scopes every membership search; queries are
	// subtree-scoped under this DN.
	UserBaseDN string `yaml:"user_base_dn"`

	// UserFilter is the base filter selecting user entries, combined
	// with a memberOf constraint per group query.
	UserFilter string `yaml:"user_filter"`

	// LocalpartTemplate renders the MXID localpart from a directory
	// entry.
	LocalpartTemplate string `yaml:"localpart_template"`

	// CreateMissingUsers gates account provisioning. When false,
	// accounts absent from the homeserver are reported as failures
	// instead of being created.
	CreateMissingUsers bool `yaml:"create_missing_users"`

	// ExternalIDs lists per-provider templates for external identity
	// claims attached to provisioned accounts.
	ExternalIDs []ExternalIDTemplate `yaml:"external_ids"`
}

// Load reads the config from the path in SPACEHUB_CONFIG.
func Load() (*Config, error) {
	configPath := os.Getenv("SPACEHUB_CONFIG")
	if configPath == "" {
		return nil, fmt.Errorf("SPACEHUB_CONFIG environment variable not set; " +
			"set it to the path of your spacehub.yaml config file, or use the --config flag")
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path. The file is
// decoded strictly: unknown keys are an error. The loaded config is
// validated before being returned.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	cfg := &Config{}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks that every required field is present and that
// identifier-shaped fields parse. Called by LoadFile; exported so
// tests and embedders constructing a Config directly can reuse it.
func (c *Config) Validate() error {
	if c.TreeRoot == "" {
		return fmt.Errorf("tree_root is required")
	}

	if c.Matrix.ServerName == "" {
		return fmt.Errorf("matrix.server_name is required")
	}
	if _, err := ref.ParseServerName(c.Matrix.ServerName); err != nil {
		return fmt.Errorf("matrix.server_name: %w", err)
	}
	if c.Matrix.HomeserverURL == "" {
		return fmt.Errorf("matrix.homeserver_url is required")
	}
	if _, err := url.Parse(c.Matrix.HomeserverURL); err != nil {
		return fmt.Errorf("matrix.homeserver_url: %w", err)
	}
	if c.Matrix.MXID == "" {
		return fmt.Errorf("matrix.mxid is required")
	}
	if _, err := ref.ParseUserID(c.Matrix.MXID); err != nil {
		return fmt.Errorf("matrix.mxid: %w", err)
	}
	if c.Matrix.PasswordFile == "" {
		return fmt.Errorf("matrix.password_file is required")
	}

	if c.LDAP.URI == "" {
		return fmt.Errorf("ldap.uri is required")
	}
	if c.LDAP.UserBaseDN == "" {
		return fmt.Errorf("ldap.user_base_dn is required")
	}
	if c.LDAP.UserFilter == "" {
		return fmt.Errorf("ldap.user_filter is required")
	}
	if c.LDAP.LocalpartTemplate == "" {
		return fmt.Errorf("ldap.localpart_template is required")
	}
	if c.LDAP.BindDN != "" && c.LDAP.BindPasswordFile == "" {
		return fmt.Errorf("ldap.bind_password_file is required when ldap.bind_dn is set")
	}
	for index, external := range c.LDAP.ExternalIDs {
		if external.AuthProvider == "" {
			return fmt.Errorf("ldap.external_ids[%d].auth_provider is required", index)
		}
		if external.Template == "" {
			return fmt.Errorf("ldap.external_ids[%d].external_id_template is required", index)
		}
	}

	return nil
}
