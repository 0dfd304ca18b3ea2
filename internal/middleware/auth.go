// Package middleware содержит HTTP middleware сервиса кошелька баллов.
package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/mmeshcher/points-wallet/internal/auth"
	"github.com/mmeshcher/points-wallet/internal/model"
	"github.com/mmeshcher/points-wallet/internal/repository"
)

type contextKey string

const identityKey contextKey = "identity"

// Identity — проверенная личность вызывающего.
type Identity struct {
	UserID uuid.UUID
	Email  string
	Role   model.Role
}

// IsAdmin сообщает, что вызывающий — администратор.
func (i Identity) IsAdmin() bool {
	return i.Role == model.RoleAdmin
}

// TokenParser проверяет токен доступа.
type TokenParser interface {
	ParseAccessToken(token string) (*auth.Claims, error)
}

// UserLookup возвращает текущую запись пользователя из хранилища.
type UserLookup interface {
	GetUser(ctx context.Context, id uuid.UUID) (*model.User, error)
}

// AuthMiddleware проверяет Bearer-токен из заголовка Authorization.
type AuthMiddleware struct {
	tokens TokenParser
	users  UserLookup
}

// NewAuthMiddleware создаёт AuthMiddleware.
func NewAuthMiddleware(tokens TokenParser) *AuthMiddleware {
	return &AuthMiddleware{
		tokens: tokens,
	}
}

// WithUserLookup включает сверку с хранилищем: удалённые и неактивные
// пользователи отклоняются, роль берётся из текущей записи, а не из токена.
func (a *AuthMiddleware) WithUserLookup(users UserLookup) *AuthMiddleware {
	a.users = users
	return a
}

// Middleware проверяет токен и добавляет личность вызывающего в контекст запроса.
func (a *AuthMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		scheme, token, found := strings.Cut(header, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			writeError(w, http.StatusUnauthorized, "Authentication failed: No token provided.")
			return
		}

		claims, err := a.tokens.ParseAccessToken(strings.TrimSpace(token))
		if err != nil {
			if errors.Is(err, auth.ErrTokenExpired) {
				writeError(w, http.StatusUnauthorized, "Authentication failed: Token has expired. Please login again.")
				return
			}
			writeError(w, http.StatusUnauthorized, "Authentication failed: Token is invalid.")
			return
		}

		id, err := claims.ID()
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Authentication failed: Token is invalid.")
			return
		}

		identity := Identity{
			UserID: id,
			Email:  claims.Email,
			Role:   claims.Role,
		}

		if a.users != nil {
			u, err := a.users.GetUser(r.Context(), id)
			if err != nil {
				if errors.Is(err, repository.ErrUserNotFound) {
					writeError(w, http.StatusUnauthorized, "Authentication failed: User no longer exists.")
					return
				}
				writeError(w, http.StatusInternalServerError, "Internal server error.")
				return
			}
			if u.Status != model.UserStatusActive {
				writeError(w, http.StatusUnauthorized, "Authentication failed: Account is not active.")
				return
			}
			identity.Email = u.Email
			identity.Role = u.Role
		}

		ctx := WithIdentity(r.Context(), identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole пропускает только запросы с указанной ролью.
func RequireRole(role model.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := IdentityFromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			if identity.Role != role {
				writeError(w, http.StatusForbidden, "Forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithIdentity возвращает контекст с личностью вызывающего.
func WithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// IdentityFromContext извлекает личность вызывающего из контекста запроса.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(identityKey).(Identity)
	return identity, ok
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"message": message,
	})
}
