// Copyright 2026 The Spacehub Authors
// SPDX-License-Identifier: Apache-2.0

// Package identity maps directory entries to Matrix identities.
//
// A localpart template renders the Matrix localpart from a directory
// entry's attributes; the result is qualified with the homeserver
// name to form the MXID. External-ID templates render, per auth
// provider, the identity claim attached to the account when it is
// provisioned.
//
// Templates are Go text/template executed against the entry:
// {{.Attr "name"}} is an attribute's first value (an error if absent
// or empty), {{.Attrs "name"}} is all values, {{.DN}} is the entry's
// distinguished name.
package identity

import (
	"fmt"
	"strings"
	"sync"
	"text/template"

	"github.com/spacehub-project/spacehub/directory"
	"github.com/spacehub-project/spacehub/lib/ref"
	"github.com/spacehub-project/spacehub/tree"
)

// Renderer renders a template against a directory entry.
type Renderer interface {
	Render(templateText string, entry directory.Entry) (string, error)
}

// TemplateRenderer implements Renderer with text/template. Parsed
// templates are cached by source text. Safe for concurrent use.
type TemplateRenderer struct {
	mu    sync.Mutex
	cache map[string]*template.Template
}

// NewTemplateRenderer returns a fresh renderer.
func NewTemplateRenderer() *TemplateRenderer {
	return &TemplateRenderer{cache: make(map[string]*template.Template)}
}

// templateContext is the data a template executes against. Attribute
// access goes through methods so parsed templates carry no per-entry
// state and can be cached.
type templateContext struct {
	entry directory.Entry
}

// DN is the entry's distinguished name.
func (c templateContext) DN() string { return c.entry.DN }

// Attr returns the first value of an attribute. Absent or empty
// attributes are errors — a silently empty localpart would provision
// a wrong account.
func (c templateContext) Attr(name string) (string, error) {
	values := c.entry.Attributes[name]
	if len(values) == 0 || values[0] == "" {
		return "", fmt.Errorf("entry %q has no attribute %q", c.entry.DN, name)
	}
	return values[0], nil
}

// Attrs returns every value of an attribute.
func (c templateContext) Attrs(name string) []string {
	return c.entry.Attributes[name]
}

// Render executes the template against the entry.
func (r *TemplateRenderer) Render(templateText string, entry directory.Entry) (string, error) {
	parsed, err := r.parse(templateText)
	if err != nil {
		return "", err
	}

	var rendered strings.Builder
	if err := parsed.Execute(&rendered, templateContext{entry: entry}); err != nil {
		return "", fmt.Errorf("identity: rendering template for %q: %w", entry.DN, err)
	}

	result := rendered.String()
	if result == "" {
		return "", fmt.Errorf("identity: template %q rendered empty for %q", templateText, entry.DN)
	}
	return result, nil
}

func (r *TemplateRenderer) parse(templateText string) (*template.Template, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if parsed, ok := r.cache[templateText]; ok {
		return parsed, nil
	}
	parsed, err := template.New("identity").
		Option("missingkey=error").
		Parse(templateText)
	if err != nil {
		return nil, fmt.Errorf("identity: parsing template %q: %w", templateText, err)
	}
	r.cache[templateText] = parsed
	return parsed, nil
}

// ExternalIDTemplate renders one external auth claim per entry.
type ExternalIDTemplate struct {
	AuthProvider string
	Template     string
}

// Mapper turns directory entries into desired room members.
type Mapper struct {
	renderer    Renderer
	localpart   string
	server      ref.ServerName
	externalIDs []ExternalIDTemplate
}

// NewMapper builds a Mapper. localpartTemplate renders the Matrix
// localpart; server qualifies it into a full MXID.
func NewMapper(renderer Renderer, localpartTemplate string, server ref.ServerName, externalIDs []ExternalIDTemplate) *Mapper {
	return &Mapper{
		renderer:    renderer,
		localpart:   localpartTemplate,
		server:      server,
		externalIDs: externalIDs,
	}
}

// Identity renders the full identity for one directory entry at the
// given power level. Any template failure fails the whole identity —
// a member with a half-rendered claim set must not be provisioned.
func (m *Mapper) Identity(entry directory.Entry, powerLevel int) (tree.UserIdentity, error) {
	localpart, err := m.renderer.Render(m.localpart, entry)
	if err != nil {
		return tree.UserIdentity{}, err
	}

	mxid, err := ref.NewUserID(localpart, m.server)
	if err != nil {
		return tree.UserIdentity{}, fmt.Errorf("identity: localpart %q from %q: %w", localpart, entry.DN, err)
	}

	externalIDs := make([]tree.ExternalID, 0, len(m.externalIDs))
	for _, externalID := range m.externalIDs {
		claim, err := m.renderer.Render(externalID.Template, entry)
		if err != nil {
			return tree.UserIdentity{}, err
		}
		externalIDs = append(externalIDs, tree.ExternalID{
			AuthProvider: externalID.AuthProvider,
			ExternalID:   claim,
		})
	}

	return tree.UserIdentity{
		MXID:        mxid,
		PowerLevel:  powerLevel,
		ExternalIDs: externalIDs,
	}, nil
}
