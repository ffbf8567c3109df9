// Copyright 2026 The Spacehub Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"encoding/json"
	"fmt"

	"github.com/spacehub-project/spacehub/lib/ref"
)

// PowerLevels wraps the content of an m.room.power_levels state event.
// The content is kept as a generic map so fields this tool does not
// manage (events, notifications, server-specific extensions) survive a
// read-modify-write cycle untouched.
type PowerLevels struct {
	content map[string]any
}

// ParsePowerLevels decodes raw m.room.power_levels content.
func ParsePowerLevels(raw json.RawMessage) (*PowerLevels, error) {
	content := make(map[string]any)
	if err := json.Unmarshal(raw, &content); err != nil {
		return nil, fmt.Errorf("messaging: failed to parse power levels: %w", err)
	}
	return &PowerLevels{content: content}, nil
}

// NewPowerLevels returns empty power-level content with only a users
// map, for seeding a freshly created room.
func NewPowerLevels() *PowerLevels {
	return &PowerLevels{content: map[string]any{
		"users": map[string]any{},
	}}
}

func (p *PowerLevels) users() map[string]any {
	users, ok := p.content["users"].(map[string]any)
	if !ok {
		users = make(map[string]any)
		p.content["users"] = users
	}
	return users
}

// UserLevel returns the explicit power level for a user, if one is
// set. JSON numbers decode as float64; Matrix power levels are
// integral so the truncation is exact.
func (p *PowerLevels) UserLevel(userID ref.UserID) (int, bool) {
	value, ok := p.users()[userID.String()]
	if !ok {
		return 0, false
	}
	switch level := value.(type) {
	case float64:
		return int(level), true
	case int:
		return level, true
	default:
		return 0, false
	}
}

// SetUserLevel sets a user's power level. Returns true if the call
// changed anything.
func (p *PowerLevels) SetUserLevel(userID ref.UserID, level int) bool {
	if current, ok := p.UserLevel(userID); ok && current == level {
		return false
	}
	p.users()[userID.String()] = level
	return true
}

// RemoveUser removes a user's explicit power level entry, dropping
// them back to users_default. Returns true if an entry was removed.
func (p *PowerLevels) RemoveUser(userID ref.UserID) bool {
	users := p.users()
	if _, ok := users[userID.String()]; !ok {
		return false
	}
	delete(users, userID.String())
	return true
}

// Content returns the event content for sending back to the server.
func (p *PowerLevels) Content() map[string]any {
	return p.content
}
