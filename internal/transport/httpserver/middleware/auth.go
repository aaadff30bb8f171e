package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"latergram-go/internal/auth"
	"latergram-go/internal/config"
	userdomain "latergram-go/internal/domain/user"
	"latergram-go/pkg/logger"
	"github.com/golang-jwt/jwt/v5"
)

// User is the authenticated caller attached to the request context.
type User struct {
	ID        string
	Email     string
	Name      string
	AvatarURL string
	Provider  string
}

type ProfileSaver interface {
	UpsertProfile(ctx context.Context, input userdomain.UpsertInput) error
}

// Authenticator resolves bearer tokens into users. With a JWT secret
// configured it verifies tokens locally; otherwise it introspects them
// against the identity provider on every request.
type Authenticator struct {
	provider  *auth.Client
	jwtSecret []byte
	profiles  ProfileSaver
	skipAuth  bool
	mockUser  User
	log       logger.Logger
}

type contextKey int

const (
	userIDKey contextKey = iota
	userKey
)

func NewAuthenticator(cfg config.AuthConfig, provider *auth.Client, profiles ProfileSaver, log logger.Logger) *Authenticator {
	var secret []byte
	if cfg.JWTSecret != "" {
		secret = []byte(cfg.JWTSecret)
	}

	return &Authenticator{
		provider:  provider,
		jwtSecret: secret,
		profiles:  profiles,
		skipAuth:  cfg.SkipAuth,
		log:       log,
		mockUser: User{
			ID:        strings.TrimSpace(cfg.MockUserID),
			Email:     strings.TrimSpace(cfg.MockUserEmail),
			Name:      strings.TrimSpace(cfg.MockUserName),
			AvatarURL: strings.TrimSpace(cfg.MockUserAvatar),
		},
	}
}

func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.skipAuth {
			if a.mockUser.ID == "" {
				writeError(w, http.StatusInternalServerError, "auth_not_configured", "auth mock user id not configured")
				return
			}
			a.serveAs(next, w, r, a.mockUser)
			return
		}

		token, ok := bearerToken(r.Header.Get("Authorization"))
		if !ok {
			unauthorized(w)
			return
		}

		var (
			user User
			err  error
		)
		if a.jwtSecret != nil {
			user, err = a.userFromJWT(token)
		} else {
			user, err = a.userFromProvider(r.Context(), token)
		}
		if err != nil || user.ID == "" {
			unauthorized(w)
			return
		}

		a.serveAs(next, w, r, user)
	})
}

func (a *Authenticator) serveAs(next http.Handler, w http.ResponseWriter, r *http.Request, user User) {
	if a.profiles != nil {
		err := a.profiles.UpsertProfile(r.Context(), userdomain.UpsertInput{
			UserID:      user.ID,
			Email:       user.Email,
			DisplayName: user.Name,
			AvatarURL:   user.AvatarURL,
			Provider:    user.Provider,
		})
		if err != nil {
			a.log.InternalError("auth: upsert profile failed", err, "user_id", user.ID)
		}
	}

	next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
}

func (a *Authenticator) userFromJWT(tokenString string) (User, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return a.jwtSecret, nil
	})
	if err != nil {
		return User{}, err
	}
	if !token.Valid {
		return User{}, fmt.Errorf("invalid token")
	}

	sub, _ := claims["sub"].(string)
	email, _ := claims["email"].(string)
	metadata, _ := claims["user_metadata"].(map[string]interface{})

	return User{
		ID:        sub,
		Email:     email,
		Name:      firstNonEmpty(stringFromMap(metadata, "name"), stringFromMap(metadata, "full_name")),
		AvatarURL: stringFromMap(metadata, "avatar_url"),
		Provider:  stringFromMap(metadata, "provider"),
	}, nil
}

func (a *Authenticator) userFromProvider(ctx context.Context, token string) (User, error) {
	if a.provider == nil {
		return User{}, fmt.Errorf("auth provider not configured")
	}

	account, err := a.provider.User(ctx, token)
	if err != nil {
		return User{}, err
	}

	return User{
		ID:        account.ID,
		Email:     account.Email,
		Name:      account.DisplayName,
		AvatarURL: account.AvatarURL,
		Provider:  account.Provider,
	}, nil
}

func bearerToken(value string) (string, bool) {
	parts := strings.Fields(value)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

func unauthorized(w http.ResponseWriter) {
	writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
}

func WithUser(ctx context.Context, user User) context.Context {
	ctx = context.WithValue(ctx, userKey, user)
	return context.WithValue(ctx, userIDKey, user.ID)
}

func UserFromContext(ctx context.Context) (User, bool) {
	user, ok := ctx.Value(userKey).(User)
	if !ok || user.ID == "" {
		return User{}, false
	}
	return user, true
}

func UserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userIDKey).(string)
	if !ok || userID == "" {
		return "", false
	}
	return userID, true
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
	value, ok := values[key].(string)
	if !ok {
		return ""
	}
	return value
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}
