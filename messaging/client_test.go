// Copyright 2026 The Spacehub Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/spacehub-project/spacehub/lib/ref"
	"github.com/spacehub-project/spacehub/lib/secret"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *Client) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(ClientConfig{
		HomeserverURL: server.URL,
		HTTPClient:    server.Client(),
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return server, client
}

func newTestSession(t *testing.T, handler http.HandlerFunc) *DirectSession {
	t.Helper()
	_, client := newTestServer(t, handler)
	session, err := client.SessionFromToken(ref.MustParseUserID("@admin:example.org"), "syt_test_token")
	if err != nil {
		t.Fatalf("SessionFromToken: %v", err)
	}
	t.Cleanup(func() { session.Close() })
	return session
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, value any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(value); err != nil {
		t.Errorf("encoding response: %v", err)
	}
}

func TestLogin(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/_matrix/client/v3/login" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var request LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
			t.Fatalf("decoding login request: %v", err)
		}
		if request.Type != "m.login.password" {
			t.Errorf("login type = %q, want m.login.password", request.Type)
		}
		if request.User != "admin" || request.Password != "hunter2" {
			t.Errorf("credentials = %q/%q", request.User, request.Password)
		}
		writeJSON(t, w, http.StatusOK, AuthResponse{
			UserID:      ref.MustParseUserID("@admin:example.org"),
			AccessToken: "syt_abc123",
			DeviceID:    "DEVICE1",
		})
	})

	password, err := secret.NewFromString("hunter2")
	if err != nil {
		t.Fatalf("NewFromString: %v", err)
	}
	defer password.Close()

	session, err := client.Login(context.Background(), "admin", password)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	defer session.Close()

	if got := session.UserID().String(); got != "@admin:example.org" {
		t.Errorf("UserID = %q, want @admin:example.org", got)
	}
	if session.DeviceID() != "DEVICE1" {
		t.Errorf("DeviceID = %q, want DEVICE1", session.DeviceID())
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusForbidden, MatrixError{
			Code:    ErrCodeForbidden,
			Message: "Invalid password",
		})
	})

	password, err := secret.NewFromString("wrong")
	if err != nil {
		t.Fatalf("NewFromString: %v", err)
	}
	defer password.Close()

	_, err = client.Login(context.Background(), "admin", password)
	if err == nil {
		t.Fatal("Login succeeded with bad credentials")
	}
	var matrixErr *MatrixError
	if !errors.As(err, &matrixErr) {
		t.Fatalf("error is not a MatrixError: %v", err)
	}
	if matrixErr.Code != ErrCodeForbidden {
		t.Errorf("code = %q, want %q", matrixErr.Code, ErrCodeForbidden)
	}
	if matrixErr.StatusCode != http.StatusForbidden {
		t.Errorf("status = %d, want 403", matrixErr.StatusCode)
	}
}

func TestAuthorizationHeader(t *testing.T) {
	session := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer syt_test_token" {
			t.Errorf("Authorization = %q", got)
		}
		writeJSON(t, w, http.StatusOK, WhoAmIResponse{
			UserID: ref.MustParseUserID("@admin:example.org"),
		})
	})

	userID, err := session.WhoAmI(context.Background())
	if err != nil {
		t.Fatalf("WhoAmI: %v", err)
	}
	if userID.String() != "@admin:example.org" {
		t.Errorf("WhoAmI = %q", userID)
	}
}

func TestNonJSONErrorResponse(t *testing.T) {
	session := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream down"))
	})

	_, err := session.WhoAmI(context.Background())
	if err == nil {
		t.Fatal("expected error for non-JSON 502")
	}
	var matrixErr *MatrixError
	if errors.As(err, &matrixErr) {
		t.Errorf("non-JSON body decoded as MatrixError: %v", matrixErr)
	}
}

func TestNewClientRejectsEmptyURL(t *testing.T) {
	if _, err := NewClient(ClientConfig{}); err == nil {
		t.Fatal("NewClient accepted empty HomeserverURL")
	}
}
