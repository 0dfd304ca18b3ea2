package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mmeshcher/points-wallet/internal/auth"
	"github.com/mmeshcher/points-wallet/internal/model"
	"github.com/mmeshcher/points-wallet/internal/repository"
)

func issueToken(t *testing.T, tokens *auth.TokenManager, id uuid.UUID, role model.Role) string {
	t.Helper()

	token, err := tokens.IssueAccessToken(&model.User{ID: id, Email: "user@example.com", Role: role})
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return token
}

func TestAuthMiddleware_WithValidToken(t *testing.T) {
	tokens := auth.NewTokenManager("test-secret", "test-refresh", time.Hour, time.Hour)
	m := NewAuthMiddleware(tokens)
	userID := uuid.New()

	nextCalled := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nextCalled = true
		identity, ok := IdentityFromContext(r.Context())
		if !ok {
			t.Fatalf("identity not in context")
		}
		if identity.UserID != userID {
			t.Fatalf("user id from context = %s, want %s", identity.UserID, userID)
		}
	})

	r := httptest.NewRequest(http.MethodGet, "/protected", nil)
	r.Header.Set("Authorization", "Bearer "+issueToken(t, tokens, userID, model.RoleUser))

	m.Middleware(next).ServeHTTP(httptest.NewRecorder(), r)

	if !nextCalled {
		t.Fatalf("next handler was not called")
	}
}

func TestAuthMiddleware_Rejects(t *testing.T) {
	tokens := auth.NewTokenManager("test-secret", "test-refresh", time.Hour, time.Hour)
	other := auth.NewTokenManager("other-secret", "test-refresh", time.Hour, time.Hour)
	m := NewAuthMiddleware(tokens)

	tests := []struct {
		name   string
		header string
	}{
		{name: "no header", header: ""},
		{name: "wrong scheme", header: "Basic abc"},
		{name: "empty token", header: "Bearer "},
		{name: "garbage token", header: "Bearer abc.def.ghi"},
		{name: "foreign signature", header: "Bearer " + issueToken(t, other, uuid.New(), model.RoleAdmin)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Fatalf("next handler should not be called")
			})

			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}

			m.Middleware(next).ServeHTTP(w, r)

			if w.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want %d", w.Code, http.StatusUnauthorized)
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	h := RequireRole(model.RoleAdmin)(next)

	tests := []struct {
		name     string
		identity *Identity
		want     int
	}{
		{name: "anonymous", identity: nil, want: http.StatusUnauthorized},
		{name: "user", identity: &Identity{UserID: uuid.New(), Role: model.RoleUser}, want: http.StatusForbidden},
		{name: "admin", identity: &Identity{UserID: uuid.New(), Role: model.RoleAdmin}, want: http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/admin/users", nil)
			if tt.identity != nil {
				r = r.WithContext(WithIdentity(r.Context(), *tt.identity))
			}
			w := httptest.NewRecorder()

			h.ServeHTTP(w, r)

			if w.Code != tt.want {
				t.Fatalf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

type stubUsers struct {
	user *model.User
	err  error
}

func (s stubUsers) GetUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return s.user, s.err
}

func TestAuthMiddleware_UserLookup(t *testing.T) {
	tokens := auth.NewTokenManager("test-secret", "test-refresh", time.Hour, time.Hour)
	userID := uuid.New()
	// токен выпущен, пока пользователь был администратором
	token := issueToken(t, tokens, userID, model.RoleAdmin)

	tests := []struct {
		name  string
		users stubUsers
		want  int
	}{
		{
			name:  "active admin",
			users: stubUsers{user: &model.User{ID: userID, Role: model.RoleAdmin, Status: model.UserStatusActive}},
			want:  http.StatusNoContent,
		},
		{
			name:  "demoted to user",
			users: stubUsers{user: &model.User{ID: userID, Role: model.RoleUser, Status: model.UserStatusActive}},
			want:  http.StatusForbidden,
		},
		{
			name:  "suspended",
			users: stubUsers{user: &model.User{ID: userID, Role: model.RoleAdmin, Status: model.UserStatusSuspended}},
			want:  http.StatusUnauthorized,
		},
		{
			name:  "deleted",
			users: stubUsers{err: repository.ErrUserNotFound},
			want:  http.StatusUnauthorized,
		},
		{
			name:  "storage failure",
			users: stubUsers{err: errors.New("connection reset")},
			want:  http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewAuthMiddleware(tokens).WithUserLookup(tt.users)
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNoContent)
			})
			h := m.Middleware(RequireRole(model.RoleAdmin)(next))

			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/admin/users", nil)
			r.Header.Set("Authorization", "Bearer "+token)

			h.ServeHTTP(w, r)

			if w.Code != tt.want {
				t.Fatalf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}
