//go:build e2e
// +build e2e

package e2e_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"latergram-go/internal/auth"
	"latergram-go/internal/config"
	"latergram-go/internal/db"
	albumdomain "latergram-go/internal/domain/album"
	userdomain "latergram-go/internal/domain/user"
	"latergram-go/internal/repository/inmemory"
	albumrepo "latergram-go/internal/repository/postgres/album"
	userrepo "latergram-go/internal/repository/postgres/user"
	"latergram-go/internal/transport/httpserver"
	"latergram-go/internal/transport/httpserver/handler"
	authmw "latergram-go/internal/transport/httpserver/middleware"
	"latergram-go/pkg/logger"
	"gorm.io/gorm"
)

type testEnv struct {
	server     *httptest.Server
	authServer *httptest.Server
	db         *gorm.DB
}

func setupE2E(t *testing.T) *testEnv {
	t.Helper()

	dsn := os.Getenv("E2E_DB_DSN")
	if dsn == "" {
		t.Skip("E2E_DB_DSN not set; skipping e2e tests")
	}

	authServer := newAuthServer(t)
	log := logger.New(io.Discard, slog.LevelError, "text")

	cfg := config.Config{
		DB: config.DBConfig{DSN: dsn},
		Auth: config.AuthConfig{
			ProviderURL: authServer.URL,
			APIKey:      "test-key",
			Timeout:     2 * time.Second,
		},
	}

	dbConn, err := db.NewPostgres(cfg.DB, log)
	if err != nil {
		t.Fatalf("db connect: %v", err)
	}

	if err := db.Migrate(dbConn); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	if err := cleanDB(dbConn); err != nil {
		t.Fatalf("clean db: %v", err)
	}

	albumService := albumdomain.NewService(albumrepo.NewPostgres(dbConn)).
		WithOverviewCache(inmemory.NewInMemoryOverviewCache(), time.Minute)
	userService := userdomain.NewService(userrepo.NewPostgres(dbConn))

	authClient := auth.NewClient(cfg.Auth.ProviderURL, cfg.Auth.APIKey, cfg.Auth.Timeout)
	authn := authmw.NewAuthenticator(cfg.Auth, authClient, userService, log)

	handlers := handler.New(albumService, userService, authClient, log)
	server := httptest.NewServer(httpserver.NewRouter(handlers, authn))

	return &testEnv{server: server, authServer: authServer, db: dbConn}
}

func (e *testEnv) Close() {
	e.server.Close()
	e.authServer.Close()
	sqlDB, err := e.db.DB()
	if err == nil {
		_ = sqlDB.Close()
	}
}

// newAuthServer fakes the identity provider: any non-empty bearer token is
// accepted and echoed back as the user id.
func newAuthServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("apikey") != "test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		authHeader := r.Header.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if token == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		payload := map[string]interface{}{
			"id":    token,
			"email": token + "@example.com",
			"user_metadata": map[string]interface{}{
				"name":       "User " + token,
				"avatar_url": "https://example.com/avatar.png",
			},
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(payload)
	}))
}

func cleanDB(dbConn *gorm.DB) error {
	return dbConn.WithContext(context.Background()).Exec(
		"TRUNCATE TABLE album_members, albums, user_profiles RESTART IDENTITY CASCADE",
	).Error
}

func requestJSON(t *testing.T, client *http.Client, method, url, token string, payload interface{}) (*http.Response, []byte) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response: %v", err)
	}

	return resp, respBody
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type memberResponse struct {
	UserID      string    `json:"user_id"`
	DisplayName string    `json:"display_name"`
	PhotoURL    *string   `json:"photo_url"`
	Role        string    `json:"role"`
	PhotoCount  int       `json:"photo_count"`
	JoinedAt    time.Time `json:"joined_at"`
}

type albumResponse struct {
	ID                 string           `json:"id"`
	Name               string           `json:"name"`
	Description        string           `json:"description"`
	EventDate          time.Time        `json:"event_date"`
	MarinationEndDate  time.Time        `json:"marination_end_date"`
	CreatorID          string           `json:"creator_id"`
	CreatorDisplayName string           `json:"creator_display_name"`
	MemberIDs          []string         `json:"member_ids"`
	Members            []memberResponse `json:"members"`
	Status             string           `json:"status"`
	IsMarinated        bool             `json:"is_marinated"`
}

type overviewResponse struct {
	Owned  []albumResponse `json:"owned"`
	Joined []albumResponse `json:"joined"`
	All    []albumResponse `json:"all"`
}

type albumStatsResponse struct {
	AlbumID     string `json:"album_id"`
	MemberCount int    `json:"member_count"`
	PhotoCount  int    `json:"photo_count"`
	Status      string `json:"status"`
	IsMarinated bool   `json:"is_marinated"`
	Role        string `json:"role"`
}

type authMeResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
	Provider  string `json:"provider"`
}

func createAlbumPayload(name string) map[string]interface{} {
	return map[string]interface{}{
		"name":                name,
		"description":         "e2e album",
		"event_date":          time.Now().UTC().Add(24 * time.Hour).Format(time.RFC3339),
		"marination_end_date": time.Now().UTC().Add(8 * 24 * time.Hour).Format(time.RFC3339),
	}
}

func TestE2EHealthAndAuth(t *testing.T) {
	env := setupE2E(t)
	defer env.Close()

	client := &http.Client{Timeout: 5 * time.Second}

	resp, body := requestJSON(t, client, http.MethodGet, env.server.URL+"/api/health", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, string(body))
	}

	resp, body = requestJSON(t, client, http.MethodGet, env.server.URL+"/api/auth/me", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d: %s", resp.StatusCode, string(body))
	}
	var errResp errorEnvelope
	if err := json.Unmarshal(body, &errResp); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if errResp.Error.Code != "invalid_token" {
		t.Fatalf("expected invalid_token, got %q", errResp.Error.Code)
	}

	userID := "aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa"
	resp, body = requestJSON(t, client, http.MethodGet, env.server.URL+"/api/auth/me", userID, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, string(body))
	}
	var me authMeResponse
	if err := json.Unmarshal(body, &me); err != nil {
		t.Fatalf("decode me: %v", err)
	}
	if me.ID != userID {
		t.Fatalf("expected id %s, got %q", userID, me.ID)
	}
	if me.Email != userID+"@example.com" {
		t.Fatalf("expected email, got %q", me.Email)
	}
}

func TestE2EAlbumFlow(t *testing.T) {
	env := setupE2E(t)
	defer env.Close()

	client := &http.Client{Timeout: 5 * time.Second}
	creator := "creator-1"
	guest := "guest-1"

	// Create.
	resp, body := requestJSON(t, client, http.MethodPost, env.server.URL+"/api/albums", creator, createAlbumPayload("Sarah's Birthday"))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.StatusCode, string(body))
	}
	var created albumResponse
	if err := json.Unmarshal(body, &created); err != nil {
		t.Fatalf("decode album: %v", err)
	}
	if len(created.ID) != 6 {
		t.Fatalf("expected 6-char code, got %q", created.ID)
	}
	if created.Status != "active" || created.IsMarinated {
		t.Fatalf("expected active album, got %+v", created)
	}
	if len(created.Members) != 1 || created.Members[0].Role != "creator" {
		t.Fatalf("expected creator-only membership, got %+v", created.Members)
	}

	// Join with a lowercase code.
	resp, body = requestJSON(t, client, http.MethodPost, env.server.URL+"/api/albums/join", guest,
		map[string]string{"code": strings.ToLower(created.ID)})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, string(body))
	}
	var joined albumResponse
	if err := json.Unmarshal(body, &joined); err != nil {
		t.Fatalf("decode joined album: %v", err)
	}
	if len(joined.Members) != 2 {
		t.Fatalf("expected 2 members after join, got %d", len(joined.Members))
	}

	// Second join conflicts.
	resp, body = requestJSON(t, client, http.MethodPost, env.server.URL+"/api/albums/join", guest,
		map[string]string{"code": created.ID})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", resp.StatusCode, string(body))
	}
	var errResp errorEnvelope
	if err := json.Unmarshal(body, &errResp); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if errResp.Error.Code != "already_member" {
		t.Fatalf("expected already_member, got %q", errResp.Error.Code)
	}

	// Overview for the guest shows the album as joined.
	resp, body = requestJSON(t, client, http.MethodGet, env.server.URL+"/api/albums/overview", guest, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, string(body))
	}
	var overview overviewResponse
	if err := json.Unmarshal(body, &overview); err != nil {
		t.Fatalf("decode overview: %v", err)
	}
	if len(overview.Owned) != 0 || len(overview.Joined) != 1 || len(overview.All) != 1 {
		t.Fatalf("unexpected guest overview %+v", overview)
	}

	// Stats.
	resp, body = requestJSON(t, client, http.MethodGet, env.server.URL+"/api/albums/"+created.ID+"/stats", creator, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, string(body))
	}
	var stats albumStatsResponse
	if err := json.Unmarshal(body, &stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.MemberCount != 2 || stats.Role != "creator" {
		t.Fatalf("unexpected stats %+v", stats)
	}

	// Creator cannot leave.
	resp, body = requestJSON(t, client, http.MethodPost, env.server.URL+"/api/albums/"+created.ID+"/leave", creator, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", resp.StatusCode, string(body))
	}

	// Guest leaves.
	resp, body = requestJSON(t, client, http.MethodPost, env.server.URL+"/api/albums/"+created.ID+"/leave", guest, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", resp.StatusCode, string(body))
	}

	// Guest cannot delete; creator can.
	resp, body = requestJSON(t, client, http.MethodDelete, env.server.URL+"/api/albums/"+created.ID, guest, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", resp.StatusCode, string(body))
	}
	resp, body = requestJSON(t, client, http.MethodDelete, env.server.URL+"/api/albums/"+created.ID, creator, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", resp.StatusCode, string(body))
	}
	resp, body = requestJSON(t, client, http.MethodGet, env.server.URL+"/api/albums/"+created.ID, creator, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d: %s", resp.StatusCode, string(body))
	}
}

func TestE2EJoinUnknownCode(t *testing.T) {
	env := setupE2E(t)
	defer env.Close()

	client := &http.Client{Timeout: 5 * time.Second}

	resp, body := requestJSON(t, client, http.MethodPost, env.server.URL+"/api/albums/join", "user-1",
		map[string]string{"code": "ZZZZZZ"})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", resp.StatusCode, string(body))
	}

	resp, body = requestJSON(t, client, http.MethodPost, env.server.URL+"/api/albums/join", "user-1",
		map[string]string{"code": "bad!"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", resp.StatusCode, string(body))
	}
	var errResp errorEnvelope
	if err := json.Unmarshal(body, &errResp); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if errResp.Error.Code != "invalid_code" {
		t.Fatalf("expected invalid_code, got %q", errResp.Error.Code)
	}
}
