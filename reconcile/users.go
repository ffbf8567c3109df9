// Copyright 2026 The Spacehub Authors
// SPDX-License-Identifier: Apache-2.0

package reconcile

import (
	"context"
	"errors"
	"fmt"

	"github.com/spacehub-project/spacehub/messaging"
	"github.com/spacehub-project/spacehub/tree"
)

// EnsureUsers checks that every desired member has an account,
// provisioning missing ones through the admin API when
// CreateMissingUsers is set. With provisioning disabled a missing
// account is only logged — the membership add for that user will fail
// later in the room that wants them, which is where the failure is
// reported.
//
// Every user is attempted; errors are joined so one broken account
// does not hide the rest.
func (r *Reconciler) EnsureUsers(ctx context.Context, users tree.UserSet) error {
	var problems []error
	for _, user := range users.Users() {
		if err := ctx.Err(); err != nil {
			return err
		}

		_, err := r.session.GetProfile(ctx, user.MXID)
		if err == nil {
			continue
		}
		if !messaging.IsNotFound(err) {
			problems = append(problems, fmt.Errorf("checking %s: %w", user.MXID, err))
			continue
		}

		if !r.config.CreateMissingUsers {
			r.logger.Warn("account does not exist and provisioning is disabled",
				"user_id", user.MXID)
			continue
		}

		externalIDs := make([]messaging.ExternalID, len(user.ExternalIDs))
		for index, externalID := range user.ExternalIDs {
			externalIDs[index] = messaging.ExternalID{
				AuthProvider: externalID.AuthProvider,
				ExternalID:   externalID.ExternalID,
			}
		}
		if err := r.admin.UpsertUser(ctx, user.MXID, externalIDs); err != nil {
			problems = append(problems, fmt.Errorf("provisioning %s: %w", user.MXID, err))
		}
	}
	return errors.Join(problems...)
}
