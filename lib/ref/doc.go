// Copyright 2026 The Spacehub Authors
// SPDX-License-Identifier: Apache-2.0

// Package ref provides validated value types for Matrix identifiers:
// [UserID], [RoomID], [RoomAlias], and [ServerName].
//
// Raw identifier strings enter the system from three places: the
// desired-state tree (filenames and YAML metadata), the configuration
// file, and Matrix API responses. All of them are parsed into these
// types at the boundary, so the rest of the code never handles an
// unvalidated identifier. The zero value of each type is invalid;
// use IsZero to test for "not set".
//
// All types implement encoding.TextMarshaler/TextUnmarshaler, so they
// unmarshal directly from JSON API responses with validation applied
// in place. YAML sources carry raw strings that are parsed explicitly
// during tree construction.
package ref
