// Copyright 2026 The Spacehub Authors
// SPDX-License-Identifier: Apache-2.0

// Package messaging wraps the Matrix client-server API and the Synapse
// admin API for spacehub's reconciliation needs.
//
// The package provides two core types. [Client] is an unauthenticated
// Matrix client holding the homeserver URL and HTTP transport; its
// Login method returns an authenticated [DirectSession]. DirectSession
// implements [Session], the narrow interface the reconciler consumes:
// alias resolution, room creation, alias registration, member listing,
// power-level state read/write, space-child state read/write, profile
// lookup, and kick. Admin-only operations (account upsert with external
// IDs, forced room join) live on [SynapseAdmin], which wraps a
// DirectSession whose account is a server administrator.
//
// All API errors are returned as [*MatrixError] with the standard
// Matrix error code (M_FORBIDDEN, M_NOT_FOUND, etc.) and HTTP status
// code. [IsMatrixError] tests for a specific code; the reconciler
// treats M_NOT_FOUND from lookups as an ordinary negative result and
// everything else as a failure. Request URLs are built by string
// concatenation rather than url.URL to avoid double-encoding of path
// segments that contain URL-encoded characters (such as room aliases
// with slashes).
//
// The access token is held in mmap-backed secret.Buffer memory, locked
// against swap and excluded from core dumps; callers must Close the
// session to release it.
package messaging
