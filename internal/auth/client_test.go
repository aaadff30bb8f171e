package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func fakeProvider(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(server.URL, "test-api-key", time.Second)
}

func writeSession(w http.ResponseWriter, userID, email, name, provider string) {
	payload := map[string]interface{}{
		"access_token":  "token-123",
		"refresh_token": "refresh-456",
		"expires_in":    3600,
		"user": map[string]interface{}{
			"id":    userID,
			"email": email,
			"user_metadata": map[string]string{
				"name": name,
			},
			"app_metadata": map[string]string{
				"provider": provider,
			},
		},
	}
	json.NewEncoder(w).Encode(payload)
}

func TestSignUpSuccess(t *testing.T) {
	client := fakeProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/v1/signup" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("apikey") != "test-api-key" {
			t.Fatalf("expected apikey header, got %q", r.Header.Get("apikey"))
		}

		var body struct {
			Email    string            `json:"email"`
			Password string            `json:"password"`
			Data     map[string]string `json:"data"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if body.Email != "sarah@example.com" || body.Data["name"] != "Sarah" {
			t.Fatalf("unexpected signup payload %+v", body)
		}

		writeSession(w, "user-1", body.Email, body.Data["name"], "")
	})

	session, err := client.SignUp(context.Background(), "sarah@example.com", "secret123", "Sarah")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if session.AccessToken != "token-123" || session.RefreshToken != "refresh-456" {
		t.Fatalf("unexpected session %+v", session)
	}
	if session.User.ID != "user-1" || session.User.DisplayName != "Sarah" {
		t.Fatalf("unexpected user %+v", session.User)
	}
	if session.User.Provider != ProviderEmail {
		t.Fatalf("expected email provider fallback, got %q", session.User.Provider)
	}
}

func TestSignInWithPasswordInvalidCredentials(t *testing.T) {
	client := fakeProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error_code": "invalid_credentials"})
	})

	_, err := client.SignInWithPassword(context.Background(), "sarah@example.com", "wrong")
	var provErr *ProviderError
	if !errors.As(err, &provErr) {
		t.Fatalf("expected ProviderError, got %v", err)
	}
	if provErr.Code != "invalid_credentials" {
		t.Fatalf("expected invalid_credentials, got %q", provErr.Code)
	}
	if provErr.Status != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", provErr.Status)
	}
	if provErr.Message != "Incorrect email or password" {
		t.Fatalf("unexpected message %q", provErr.Message)
	}
}

func TestSignInWithIDToken(t *testing.T) {
	client := fakeProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/v1/token" || r.URL.Query().Get("grant_type") != "id_token" {
			t.Fatalf("unexpected request %s?%s", r.URL.Path, r.URL.RawQuery)
		}

		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if body["provider"] != ProviderGoogle || body["id_token"] != "google-token" || body["nonce"] != "nonce-1" {
			t.Fatalf("unexpected payload %+v", body)
		}

		writeSession(w, "user-2", "g@example.com", "G User", "google")
	})

	session, err := client.SignInWithIDToken(context.Background(), ProviderGoogle, "google-token", "nonce-1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if session.User.Provider != ProviderGoogle {
		t.Fatalf("expected google provider, got %q", session.User.Provider)
	}
}

func TestUserIntrospection(t *testing.T) {
	client := fakeProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/auth/v1/user" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer token-123" {
			t.Fatalf("expected bearer token, got %q", r.Header.Get("Authorization"))
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":    "user-1",
			"email": "sarah@example.com",
			"user_metadata": map[string]string{
				"full_name":  "Sarah Jones",
				"avatar_url": "https://example.com/a.png",
			},
		})
	})

	user, err := client.User(context.Background(), "token-123")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if user.ID != "user-1" || user.DisplayName != "Sarah Jones" || user.AvatarURL != "https://example.com/a.png" {
		t.Fatalf("unexpected user %+v", user)
	}
}

func TestRecoverAndLogout(t *testing.T) {
	var paths []string
	client := fakeProvider(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		w.WriteHeader(http.StatusOK)
	})

	if err := client.Recover(context.Background(), "sarah@example.com"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := client.Logout(context.Background(), "token-123"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(paths) != 2 || paths[0] != "/auth/v1/recover" || paths[1] != "/auth/v1/logout" {
		t.Fatalf("unexpected provider calls %v", paths)
	}
}

func TestProviderUnreachable(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", "key", 100*time.Millisecond)

	_, err := client.SignInWithPassword(context.Background(), "a@b.c", "pw")
	if !errors.Is(err, ErrProviderUnavailable) {
		t.Fatalf("expected ErrProviderUnavailable, got %v", err)
	}
}

func TestProviderErrorStatusMapping(t *testing.T) {
	cases := []struct {
		code   string
		status int
	}{
		{"user_not_found", http.StatusNotFound},
		{"invalid_grant", http.StatusUnauthorized},
		{"email_exists", http.StatusConflict},
		{"user_already_exists", http.StatusConflict},
		{"weak_password", http.StatusBadRequest},
		{"validation_failed", http.StatusBadRequest},
		{"over_request_rate_limit", http.StatusTooManyRequests},
	}
	for _, tc := range cases {
		err := newProviderError(tc.code, http.StatusBadRequest)
		if err.Status != tc.status {
			t.Fatalf("code %s: expected status %d, got %d", tc.code, tc.status, err.Status)
		}
	}

	unknown := newProviderError("something_new", http.StatusTeapot)
	if unknown.Status != http.StatusTeapot {
		t.Fatalf("expected 4xx passthrough, got %d", unknown.Status)
	}
	if unknown.Message != "An authentication error occurred" {
		t.Fatalf("unexpected fallback message %q", unknown.Message)
	}

	serverSide := newProviderError("oops", http.StatusInternalServerError)
	if serverSide.Status != http.StatusBadGateway {
		t.Fatalf("expected 502 for provider 5xx, got %d", serverSide.Status)
	}
}
