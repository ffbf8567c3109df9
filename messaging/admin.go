// Copyright 2026 The Spacehub Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/spacehub-project/spacehub/lib/ref"
)

// Admin is the Synapse administrative surface the reconciler needs:
// provisioning accounts and force-joining them to rooms. Both calls
// require the session's account to be a Synapse server admin.
type Admin interface {
	// UpsertUser creates the account if it does not exist, or updates
	// it in place, attaching the given SSO external ID mappings.
	UpsertUser(ctx context.Context, userID ref.UserID, externalIDs []ExternalID) error

	// JoinUserToRoom joins a local user to a room without an invite.
	JoinUserToRoom(ctx context.Context, userID ref.UserID, roomID ref.RoomID) error
}

// SynapseAdmin implements Admin against the Synapse admin API using an
// existing authenticated session.
type SynapseAdmin struct {
	session *DirectSession
}

// NewSynapseAdmin wraps a session in the admin API surface. The
// session's account must have server admin rights on the homeserver.
func NewSynapseAdmin(session *DirectSession) *SynapseAdmin {
	return &SynapseAdmin{session: session}
}

// UpsertUser creates or updates a user account via the Synapse admin
// API. The v2 endpoint is a PUT upsert: absent accounts are created,
// existing ones have the supplied fields replaced. External IDs link
// the account to SSO auth providers so the user can log in without a
// password ever being set.
func (a *SynapseAdmin) UpsertUser(ctx context.Context, userID ref.UserID, externalIDs []ExternalID) error {
	path := "/_synapse/admin/v2/users/" + url.PathEscape(userID.String())
	_, err := a.session.client.doRequest(ctx, http.MethodPut, path, a.session.accessToken, AdminUpsertUserRequest{
		ExternalIDs: externalIDs,
	})
	if err != nil {
		return fmt.Errorf("messaging: admin upsert of %q failed: %w", userID, err)
	}

	a.session.client.logger.Info("provisioned matrix account",
		"user_id", userID,
		"external_ids", len(externalIDs),
	)
	return nil
}

// JoinUserToRoom force-joins a local user to a room. The admin's
// account must itself be in the room with power to invite.
func (a *SynapseAdmin) JoinUserToRoom(ctx context.Context, userID ref.UserID, roomID ref.RoomID) error {
	path := "/_synapse/admin/v1/join/" + url.PathEscape(roomID.String())
	_, err := a.session.client.doRequest(ctx, http.MethodPost, path, a.session.accessToken, AdminJoinRequest{
		UserID: userID.String(),
	})
	if err != nil {
		return fmt.Errorf("messaging: admin join of %q to %q failed: %w", userID, roomID, err)
	}
	return nil
}

var _ Admin = (*SynapseAdmin)(nil)
