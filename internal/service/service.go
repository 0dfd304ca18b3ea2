// Package service реализует бизнес-логику кошелька баллов: переводы, изменение
// балансов администратором, справочник пользователей и аутентификацию.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mmeshcher/points-wallet/internal/auth"
	"github.com/mmeshcher/points-wallet/internal/model"
	"github.com/mmeshcher/points-wallet/internal/validation"
)

// Repository описывает контракт доступа к данным, используемый сервисом.
type Repository interface {
	Close() error
	CreateUser(ctx context.Context, u *model.User) error
	GetUserByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	UpdateUser(ctx context.Context, id uuid.UUID, upd model.UserUpdate) (*model.User, error)
	DeleteUser(ctx context.Context, id uuid.UUID) error
	AdjustBalance(ctx context.Context, id uuid.UUID, delta int64) (*model.User, error)
	Transfer(ctx context.Context, senderID, receiverID uuid.UUID, amount int64) (*model.Transaction, error)
	CreateTransaction(ctx context.Context, t *model.Transaction) error
	GetTransactionsByUser(ctx context.Context, userID uuid.UUID) ([]model.TransactionView, error)
	GetAllTransactions(ctx context.Context) ([]model.TransactionView, error)
	CreateAuditLog(ctx context.Context, l *model.AuditLog) error
	GetAuditLogs(ctx context.Context) ([]model.AuditLog, error)
}

var (
	// ErrValidation — общий признак некорректных входных данных.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidAmount возвращается для неположительной суммы перевода.
	ErrInvalidAmount = fmt.Errorf("%w: amount must be a positive integer", ErrValidation)
	// ErrInvalidDelta возвращается для нулевого изменения баланса.
	ErrInvalidDelta = fmt.Errorf("%w: points must be a non-zero integer", ErrValidation)
	// ErrSelfTransfer возвращается при попытке перевести баллы самому себе.
	ErrSelfTransfer = fmt.Errorf("%w: sender and receiver must differ", ErrValidation)
	// ErrProtectedAccount возвращается при попытке удалить учётную запись по умолчанию.
	ErrProtectedAccount = errors.New("cannot modify default admin or user account")
)

// Service содержит бизнес-логику кошелька баллов.
type Service struct {
	repo      Repository
	tokens    *auth.TokenManager
	logger    *zap.Logger
	protected map[string]struct{}
}

// NewService создаёт сервис. protectedEmails — адреса учётных записей, которые нельзя удалить.
func NewService(repo Repository, tokens *auth.TokenManager, logger *zap.Logger, protectedEmails []string) *Service {
	protected := make(map[string]struct{}, len(protectedEmails))
	for _, email := range protectedEmails {
		if email = validation.NormalizeEmail(email); email != "" {
			protected[email] = struct{}{}
		}
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		repo:      repo,
		tokens:    tokens,
		logger:    logger,
		protected: protected,
	}
}

// Close закрывает ресурсы сервиса.
func (s *Service) Close() error {
	if s.repo != nil {
		return s.repo.Close()
	}
	return nil
}

// IsProtected сообщает, относится ли email к защищённой учётной записи.
func (s *Service) IsProtected(email string) bool {
	_, ok := s.protected[validation.NormalizeEmail(email)]
	return ok
}

func (s *Service) audit(ctx context.Context, actorID uuid.UUID, action model.AuditAction, details string) {
	entry := &model.AuditLog{
		Action:  action,
		Details: details,
	}
	if actorID != uuid.Nil {
		entry.UserID = &actorID
	}

	if err := s.repo.CreateAuditLog(context.WithoutCancel(ctx), entry); err != nil {
		s.logger.Warn("write audit log failed",
			zap.Error(err),
			zap.String("action", string(action)),
		)
	}
}

// AuditLogs возвращает журнал административных действий.
func (s *Service) AuditLogs(ctx context.Context) ([]model.AuditLog, error) {
	return s.repo.GetAuditLogs(ctx)
}
