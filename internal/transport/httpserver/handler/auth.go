package handler

import (
	"errors"
	"net/http"
	"strings"

	"latergram-go/internal/auth"
	userdomain "latergram-go/internal/domain/user"
	"latergram-go/internal/transport/httpserver/middleware"
)

const minPasswordLength = 6

type signUpRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	DisplayName     string `json:"display_name"`
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type idTokenRequest struct {
	Provider string `json:"provider"`
	IDToken  string `json:"id_token"`
	Nonce    string `json:"nonce"`
}

type recoverRequest struct {
	Email string `json:"email"`
}

// SignUp creates an account with the identity provider and caches the
// normalized user locally. Input problems are rejected before any provider
// call is made.
func (h *Handlers) SignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	req.DisplayName = strings.TrimSpace(req.DisplayName)
	switch {
	case req.Email == "" || req.Password == "":
		writeError(w, http.StatusBadRequest, "invalid_request", "email and password are required")
		return
	case req.DisplayName == "":
		writeError(w, http.StatusBadRequest, "invalid_request", "display name is required")
		return
	case len(req.Password) < minPasswordLength:
		writeError(w, http.StatusBadRequest, "weak_password", "Password should be at least 6 characters")
		return
	case req.ConfirmPassword != "" && req.Password != req.ConfirmPassword:
		writeError(w, http.StatusBadRequest, "password_mismatch", "Passwords do not match")
		return
	}

	session, err := h.Auth.SignUp(r.Context(), req.Email, req.Password, req.DisplayName)
	if err != nil {
		h.writeAuthError(w, "auth.signup", err)
		return
	}

	h.cacheUser(r, session.User)
	writeJSON(w, http.StatusCreated, toSessionResponse(session))
}

func (h *Handlers) SignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "email and password are required")
		return
	}

	session, err := h.Auth.SignInWithPassword(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeAuthError(w, "auth.signin", err)
		return
	}

	h.cacheUser(r, session.User)
	h.recordLogin(r, session.User.ID)
	writeJSON(w, http.StatusOK, toSessionResponse(session))
}

// SignInWithIDToken handles OAuth sign-in: the client obtains an identity
// token from Google or Apple and we exchange it for a provider session.
func (h *Handlers) SignInWithIDToken(w http.ResponseWriter, r *http.Request) {
	var req idTokenRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}

	req.Provider = strings.ToLower(strings.TrimSpace(req.Provider))
	if req.Provider != auth.ProviderGoogle && req.Provider != auth.ProviderApple {
		writeError(w, http.StatusBadRequest, "invalid_request", "provider must be google or apple")
		return
	}
	if strings.TrimSpace(req.IDToken) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "id_token is required")
		return
	}

	session, err := h.Auth.SignInWithIDToken(r.Context(), req.Provider, req.IDToken, req.Nonce)
	if err != nil {
		h.writeAuthError(w, "auth.signin_idtoken", err)
		return
	}

	h.cacheUser(r, session.User)
	h.recordLogin(r, session.User.ID)
	writeJSON(w, http.StatusOK, toSessionResponse(session))
}

func (h *Handlers) RecoverPassword(w http.ResponseWriter, r *http.Request) {
	var req recoverRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "email is required")
		return
	}

	if err := h.Auth.Recover(r.Context(), req.Email); err != nil {
		h.writeAuthError(w, "auth.recover", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	token, ok := bearerToken(r.Header.Get("Authorization"))
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	if err := h.Auth.Logout(r.Context(), token); err != nil {
		h.writeAuthError(w, "auth.logout", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type authMeResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
	Provider  string `json:"provider,omitempty"`
}

func (h *Handlers) AuthMe(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	writeJSON(w, http.StatusOK, authMeResponse{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		AvatarURL: user.AvatarURL,
		Provider:  user.Provider,
	})
}

func (h *Handlers) writeAuthError(w http.ResponseWriter, op string, err error) {
	var provErr *auth.ProviderError
	switch {
	case errors.As(err, &provErr):
		h.log.BusinessError(op+": provider rejected request", err, "code", provErr.Code)
		code := provErr.Code
		if code == "" {
			code = "auth_error"
		}
		writeError(w, provErr.Status, code, provErr.Message)
	case errors.Is(err, auth.ErrProviderUnavailable):
		h.log.InternalError(op+": provider unreachable", err)
		writeError(w, http.StatusBadGateway, "provider_unavailable", "authentication service unavailable, try again")
	default:
		h.log.InternalError(op+": unexpected failure", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
	}
}

func (h *Handlers) cacheUser(r *http.Request, account auth.User) {
	err := h.Users.UpsertProfile(r.Context(), userdomain.UpsertInput{
		UserID:      account.ID,
		Email:       account.Email,
		DisplayName: account.DisplayName,
		AvatarURL:   account.AvatarURL,
		Provider:    account.Provider,
	})
	if err != nil {
		h.log.InternalError("auth: cache profile failed", err, "user_id", account.ID)
	}
}

func (h *Handlers) recordLogin(r *http.Request, userID string) {
	if err := h.Users.RecordLogin(r.Context(), userID); err != nil {
		h.log.InternalError("auth: record login failed", err, "user_id", userID)
	}
}

type sessionResponse struct {
	AccessToken  string         `json:"access_token"`
	RefreshToken string         `json:"refresh_token,omitempty"`
	ExpiresIn    int            `json:"expires_in,omitempty"`
	User         authMeResponse `json:"user"`
}

func toSessionResponse(session *auth.Session) sessionResponse {
	return sessionResponse{
		AccessToken:  session.AccessToken,
		RefreshToken: session.RefreshToken,
		ExpiresIn:    session.ExpiresIn,
		User: authMeResponse{
			ID:        session.User.ID,
			Email:     session.User.Email,
			Name:      session.User.DisplayName,
			AvatarURL: session.User.AvatarURL,
			Provider:  session.User.Provider,
		},
	}
}

func bearerToken(value string) (string, bool) {
	parts := strings.Fields(value)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}
