package middleware

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"latergram-go/internal/config"
	userdomain "latergram-go/internal/domain/user"
	"latergram-go/pkg/logger"
	"github.com/golang-jwt/jwt/v5"
)

type fakeProfileSaver struct {
	saved []userdomain.UpsertInput
}

func (s *fakeProfileSaver) UpsertProfile(ctx context.Context, input userdomain.UpsertInput) error {
	s.saved = append(s.saved, input)
	return nil
}

func testLogger() logger.Logger {
	return logger.New(io.Discard, slog.LevelError, "text")
}

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func captureUser(t *testing.T, authn *Authenticator, req *http.Request) (*httptest.ResponseRecorder, User, bool) {
	t.Helper()

	var (
		got   User
		found bool
	)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, found = UserFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	authn.Middleware(next).ServeHTTP(rec, req)
	return rec, got, found
}

func TestMiddlewareVerifiesJWT(t *testing.T) {
	saver := &fakeProfileSaver{}
	authn := NewAuthenticator(config.AuthConfig{JWTSecret: "test-secret"}, nil, saver, testLogger())

	token := signToken(t, "test-secret", jwt.MapClaims{
		"sub":   "user-1",
		"email": "sarah@example.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
		"user_metadata": map[string]interface{}{
			"name":       "Sarah",
			"avatar_url": "https://example.com/a.png",
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	rec, user, found := captureUser(t, authn, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !found {
		t.Fatalf("expected user in context")
	}
	if user.ID != "user-1" || user.Email != "sarah@example.com" || user.Name != "Sarah" {
		t.Fatalf("unexpected user %+v", user)
	}
	if len(saver.saved) != 1 || saver.saved[0].UserID != "user-1" {
		t.Fatalf("expected profile upserted, got %+v", saver.saved)
	}
}

func TestMiddlewareRejectsWrongSecret(t *testing.T) {
	authn := NewAuthenticator(config.AuthConfig{JWTSecret: "right-secret"}, nil, nil, testLogger())

	token := signToken(t, "wrong-secret", jwt.MapClaims{
		"sub": "user-1",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	rec, _, found := captureUser(t, authn, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if found {
		t.Fatalf("expected no user in context")
	}
}

func TestMiddlewareRejectsExpiredToken(t *testing.T) {
	authn := NewAuthenticator(config.AuthConfig{JWTSecret: "test-secret"}, nil, nil, testLogger())

	token := signToken(t, "test-secret", jwt.MapClaims{
		"sub": "user-1",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	rec, _, _ := captureUser(t, authn, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestMiddlewareRejectsMissingHeader(t *testing.T) {
	authn := NewAuthenticator(config.AuthConfig{JWTSecret: "test-secret"}, nil, nil, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec, _, _ := captureUser(t, authn, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestMiddlewareSkipAuthUsesMockUser(t *testing.T) {
	saver := &fakeProfileSaver{}
	authn := NewAuthenticator(config.AuthConfig{
		SkipAuth:      true,
		MockUserID:    "mock-1",
		MockUserEmail: "mock@example.com",
	}, nil, saver, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec, user, found := captureUser(t, authn, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !found || user.ID != "mock-1" {
		t.Fatalf("expected mock user, got %+v", user)
	}
}

func TestBearerToken(t *testing.T) {
	cases := []struct {
		header string
		token  string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"bearer abc", "abc", true},
		{"Bearer", "", false},
		{"Basic abc", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		token, ok := bearerToken(tc.header)
		if token != tc.token || ok != tc.ok {
			t.Fatalf("bearerToken(%q) = %q, %v; want %q, %v", tc.header, token, ok, tc.token, tc.ok)
		}
	}
}
