// Copyright 2026 The Spacehub Authors
// SPDX-License-Identifier: Apache-2.0

// Package directory resolves group membership against an LDAP server.
//
// A group reference is resolved by a subtree search under the
// configured user base DN for entries matching the user filter that
// carry a memberOf attribute naming the group. The full entry is
// fetched so identity templates can reference any attribute.
package directory

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/go-ldap/ldap/v3"

	"github.com/spacehub-project/spacehub/lib/secret"
)

// DefaultUserFilter matches ordinary person entries when no filter is
// configured.
const DefaultUserFilter = "(objectClass=person)"

// Config holds connection parameters for the LDAP server.
type Config struct {
	// URI is the server address (ldap://, ldaps://, or ldapi://).
	URI string
	// StartTLS upgrades a plaintext ldap:// connection to TLS before
	// binding.
	StartTLS bool
	// InsecureSkipVerify disables certificate verification. Test
	// environments only.
	InsecureSkipVerify bool
	// BindDN is the service account to bind as. Empty means an
	// anonymous bind.
	BindDN string
	// BindPassword is the service account password. Ignored when
	// BindDN is empty. The Client does not take ownership — the
	// caller closes the buffer.
	BindPassword *secret.Buffer
	// UserBaseDN is the subtree searched for user entries.
	UserBaseDN string
	// UserFilter restricts which entries count as users. Defaults to
	// DefaultUserFilter.
	UserFilter string
	// Logger is used for structured logging. If nil, slog.Default()
	// is used.
	Logger *slog.Logger
}

// Client is a bound LDAP connection scoped to user searches.
type Client struct {
	conn       *ldap.Conn
	userBaseDN string
	userFilter string
	logger     *slog.Logger
}

// Entry is one directory entry with all its textual attributes. The
// attribute map is keyed by attribute name; multi-valued attributes
// keep every value in order.
type Entry struct {
	DN         string
	Attributes map[string][]string
}

// First returns the first value of an attribute, or "" if the entry
// does not carry it.
func (e Entry) First(name string) string {
	values := e.Attributes[name]
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

// Connect dials the server, optionally upgrades to TLS, and binds.
func Connect(config Config) (*Client, error) {
	if config.URI == "" {
		return nil, fmt.Errorf("directory: URI is required")
	}
	if config.UserBaseDN == "" {
		return nil, fmt.Errorf("directory: UserBaseDN is required")
	}

	parsed, err := url.Parse(config.URI)
	if err != nil {
		return nil, fmt.Errorf("directory: invalid URI %q: %w", config.URI, err)
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var conn *ldap.Conn
	if parsed.Scheme == "ldaps" {
		conn, err = ldap.DialURL(config.URI, ldap.DialWithTLSConfig(&tls.Config{
			InsecureSkipVerify: config.InsecureSkipVerify,
			ServerName:         parsed.Hostname(),
		}))
	} else {
		conn, err = ldap.DialURL(config.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("directory: failed to connect to %q: %w", config.URI, err)
	}

	if config.StartTLS && parsed.Scheme != "ldaps" {
		tlsConfig := &tls.Config{
			InsecureSkipVerify: config.InsecureSkipVerify,
			ServerName:         parsed.Hostname(),
		}
		if err := conn.StartTLS(tlsConfig); err != nil {
			conn.Close()
			return nil, fmt.Errorf("directory: STARTTLS failed: %w", err)
		}
	}

	if config.BindDN != "" {
		password := ""
		if config.BindPassword != nil {
			password = config.BindPassword.String()
		}
		if err := conn.Bind(config.BindDN, password); err != nil {
			conn.Close()
			return nil, fmt.Errorf("directory: bind as %q failed: %w", config.BindDN, err)
		}
	} else if err := conn.UnauthenticatedBind(""); err != nil {
		conn.Close()
		return nil, fmt.Errorf("directory: anonymous bind failed: %w", err)
	}

	userFilter := config.UserFilter
	if userFilter == "" {
		userFilter = DefaultUserFilter
	}

	logger.Debug("connected to directory",
		"uri", config.URI,
		"bind_dn", config.BindDN,
		"user_base_dn", config.UserBaseDN,
	)

	return &Client{
		conn:       conn,
		userBaseDN: config.UserBaseDN,
		userFilter: userFilter,
		logger:     logger,
	}, nil
}

// Close terminates the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// GroupMembers returns every user entry that is a member of the group
// identified by its DN. An unknown group yields an empty result, not
// an error — LDAP cannot distinguish a group nobody belongs to from a
// group that does not exist with a memberOf search.
func (c *Client) GroupMembers(ctx context.Context, groupDN string) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	filter := memberFilter(c.userFilter, groupDN)
	request := ldap.NewSearchRequest(
		c.userBaseDN,
		ldap.ScopeWholeSubtree,
		ldap.NeverDerefAliases,
		0, 0, false,
		filter,
		[]string{"*"},
		nil,
	)

	result, err := c.conn.Search(request)
	if err != nil {
		return nil, fmt.Errorf("directory: search for members of %q failed: %w", groupDN, err)
	}

	entries := make([]Entry, len(result.Entries))
	for index, raw := range result.Entries {
		entries[index] = entryFromLDAP(raw)
	}

	c.logger.Debug("resolved group",
		"group_dn", groupDN,
		"members", len(entries),
	)
	return entries, nil
}

// memberFilter builds the search filter for members of a group. The
// group DN comes from metadata files and must be escaped before
// interpolation into the filter.
func memberFilter(userFilter, groupDN string) string {
	return "(&" + userFilter + "(memberOf=" + ldap.EscapeFilter(groupDN) + "))"
}

func entryFromLDAP(raw *ldap.Entry) Entry {
	attributes := make(map[string][]string, len(raw.Attributes))
	for _, attribute := range raw.Attributes {
		attributes[attribute.Name] = attribute.Values
	}
	return Entry{
		DN:         raw.DN,
		Attributes: attributes,
	}
}
