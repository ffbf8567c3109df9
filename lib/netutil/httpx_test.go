// Copyright 2026 The Spacehub Authors
// SPDX-License-Identifier: Apache-2.0

package netutil

import (
	"io"
	"strings"
	"testing"
)

// repeatReader yields 'x' bytes forever.
type repeatReader struct{}

func (repeatReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = 'x'
	}
	return len(p), nil
}

func TestReadResponse(t *testing.T) {
	data, err := ReadResponse(strings.NewReader(`{"ok":true}`))
	if err != nil {
		t.Fatalf("ReadResponse: %v", err)
	}
	if string(data) != `{"ok":true}` {
		t.Errorf("ReadResponse = %q", data)
	}
}

func TestReadResponseBounded(t *testing.T) {
	data, err := ReadResponse(io.Reader(repeatReader{}))
	if err != nil {
		t.Fatalf("ReadResponse: %v", err)
	}
	if int64(len(data)) != MaxResponseSize {
		t.Errorf("read %d bytes, want truncation at %d", len(data), MaxResponseSize)
	}
}
