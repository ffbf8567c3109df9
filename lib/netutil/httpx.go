// Copyright 2026 The Spacehub Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil provides bounded HTTP response readers for the
// Matrix gateway. All JSON API response bodies are read through these
// helpers so that a misbehaving server cannot drive unbounded memory
// allocation.
package netutil

import (
	"io"
)

// MaxResponseSize bounds JSON API response body reads: 64 MB. A room
// member list for even a very large room is orders of magnitude
// smaller.
const MaxResponseSize int64 = 64 << 20

// ReadResponse reads a JSON API response body up to MaxResponseSize
// bytes. Use instead of io.ReadAll when reading HTTP response bodies.
func ReadResponse(body io.Reader) ([]byte, error) {
	return io.ReadAll(io.LimitReader(body, MaxResponseSize))
}
