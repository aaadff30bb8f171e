// Package auth wraps the hosted identity provider behind a small client. The
// provider owns credentials and token issuance; this service only forwards
// requests and normalizes the results.
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	ProviderEmail  = "email"
	ProviderGoogle = "google"
	ProviderApple  = "apple"
)

type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
	}
}

// User is the normalized view of a provider account.
type User struct {
	ID          string
	Email       string
	DisplayName string
	AvatarURL   string
	Provider    string
}

// Session is a token grant returned by sign-up or sign-in.
type Session struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int
	User         User
}

type tokenResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresIn    int          `json:"expires_in"`
	User         userResponse `json:"user"`
}

type userResponse struct {
	ID           string                 `json:"id"`
	Email        string                 `json:"email"`
	Sub          string                 `json:"sub"`
	UserMetadata map[string]interface{} `json:"user_metadata"`
	AppMetadata  struct {
		Provider string `json:"provider"`
	} `json:"app_metadata"`
}

type providerErrorResponse struct {
	Code             string `json:"error_code"`
	Error            string `json:"error"`
	Message          string `json:"msg"`
	ErrorDescription string `json:"error_description"`
}

func (c *Client) SignUp(ctx context.Context, email, password, displayName string) (*Session, error) {
	payload := map[string]interface{}{
		"email":    email,
		"password": password,
		"data": map[string]string{
			"name": displayName,
		},
	}

	var resp tokenResponse
	if err := c.post(ctx, "/auth/v1/signup", "", payload, &resp); err != nil {
		return nil, err
	}
	return sessionFrom(resp), nil
}

func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	payload := map[string]string{
		"email":    email,
		"password": password,
	}

	var resp tokenResponse
	if err := c.post(ctx, "/auth/v1/token?grant_type=password", "", payload, &resp); err != nil {
		return nil, err
	}
	return sessionFrom(resp), nil
}

// SignInWithIDToken exchanges an OAuth identity token (Google or Apple) for a
// provider session. The nonce must match the one hashed into the token.
func (c *Client) SignInWithIDToken(ctx context.Context, provider, idToken, nonce string) (*Session, error) {
	payload := map[string]string{
		"provider": provider,
		"id_token": idToken,
	}
	if nonce != "" {
		payload["nonce"] = nonce
	}

	var resp tokenResponse
	if err := c.post(ctx, "/auth/v1/token?grant_type=id_token", "", payload, &resp); err != nil {
		return nil, err
	}
	return sessionFrom(resp), nil
}

// Recover asks the provider to send a password-reset email.
func (c *Client) Recover(ctx context.Context, email string) error {
	return c.post(ctx, "/auth/v1/recover", "", map[string]string{"email": email}, nil)
}

func (c *Client) Logout(ctx context.Context, accessToken string) error {
	return c.post(ctx, "/auth/v1/logout", accessToken, nil, nil)
}

// User introspects an access token and returns the account behind it.
func (c *Client) User(ctx context.Context, accessToken string) (*User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req, accessToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, readProviderError(resp)
	}

	var payload userResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode user response: %w", err)
	}

	user := normalizeUser(payload)
	return &user, nil
}

func (c *Client) post(ctx context.Context, path, accessToken string, payload, out interface{}) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return err
	}
	c.setHeaders(req, accessToken)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return readProviderError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode provider response: %w", err)
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request, accessToken string) {
	req.Header.Set("apikey", c.apiKey)
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}
}

func readProviderError(resp *http.Response) error {
	var payload providerErrorResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64*1024)).Decode(&payload); err != nil {
		return newProviderError("", resp.StatusCode)
	}

	code := payload.Code
	if code == "" {
		code = payload.Error
	}
	return newProviderError(code, resp.StatusCode)
}

func sessionFrom(resp tokenResponse) *Session {
	return &Session{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		ExpiresIn:    resp.ExpiresIn,
		User:         normalizeUser(resp.User),
	}
}

func normalizeUser(payload userResponse) User {
	id := payload.ID
	if id == "" {
		id = payload.Sub
	}

	provider := payload.AppMetadata.Provider
	if provider == "" {
		provider = ProviderEmail
	}

	return User{
		ID:          id,
		Email:       payload.Email,
		DisplayName: firstNonEmpty(stringFromMap(payload.UserMetadata, "name"), stringFromMap(payload.UserMetadata, "full_name")),
		AvatarURL:   stringFromMap(payload.UserMetadata, "avatar_url"),
		Provider:    provider,
	}
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}

func stringFromMap(values map[string]interface{}, key string) string {
	if values == nil {
		return ""
	}
	value, ok := values[key]
	if !ok {
		return ""
	}
	parsed, ok := value.(string)
	if !ok {
		return ""
	}
	return parsed
}
