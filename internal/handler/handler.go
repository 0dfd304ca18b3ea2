// Package handler содержит HTTP-обработчики API сервиса кошелька баллов.
package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mmeshcher/points-wallet/internal/middleware"
	"github.com/mmeshcher/points-wallet/internal/model"
	"github.com/mmeshcher/points-wallet/internal/service"
)

// Service определяет контракт бизнес-логики, используемой HTTP-обработчиками.
type Service interface {
	Authenticate(ctx context.Context, email, password string) (*service.Session, error)
	Refresh(ctx context.Context, refreshToken string) (string, error)

	GetUser(ctx context.Context, id uuid.UUID) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	CreateUser(ctx context.Context, actorID uuid.UUID, in service.NewUser) (*model.User, error)
	UpdateUser(ctx context.Context, actorID, id uuid.UUID, in service.UserChanges) (*model.User, error)
	DeleteUser(ctx context.Context, actorID, id uuid.UUID) (*model.User, error)

	Transfer(ctx context.Context, senderID, receiverID uuid.UUID, amount int64) (*model.Transaction, error)
	AdjustBalance(ctx context.Context, actorID, userID uuid.UUID, delta int64) (*model.User, error)
	Balance(ctx context.Context, userID uuid.UUID) (int64, error)
	History(ctx context.Context, userID uuid.UUID) ([]model.TransactionView, error)
	AllTransactions(ctx context.Context) ([]model.TransactionView, error)

	AuditLogs(ctx context.Context) ([]model.AuditLog, error)
}

// Handler реализует HTTP-обработчики API сервиса кошелька баллов.
type Handler struct {
	service        Service
	logger         *zap.Logger
	authMiddleware *middleware.AuthMiddleware
	allowedOrigins []string
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(s Service, logger *zap.Logger, auth *middleware.AuthMiddleware, allowedOrigins []string) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	return &Handler{
		service:        s,
		logger:         logger,
		authMiddleware: auth,
		allowedOrigins: allowedOrigins,
	}
}

// pathUserID разбирает {id} из пути и проверяет, что вызывающий обращается к
// своим данным или является администратором.
func (h *Handler) pathUserID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return uuid.Nil, false
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid user id.")
		return uuid.Nil, false
	}

	if id != identity.UserID && !identity.IsAdmin() {
		respondError(w, http.StatusForbidden, "Forbidden")
		return uuid.Nil, false
	}
	return id, true
}

// Healthz отвечает на проверку живости.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, "OK", nil)
}
