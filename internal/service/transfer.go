package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mmeshcher/points-wallet/internal/metrics"
	"github.com/mmeshcher/points-wallet/internal/model"
	"github.com/mmeshcher/points-wallet/internal/repository"
)

// Transfer переводит amount баллов от отправителя получателю.
//
// Некорректный запрос отклоняется без записи в историю. Любая ошибка после
// проверки запроса сохраняется как неуспешная транзакция с причиной отказа;
// ошибка записи такой транзакции только логируется.
func (s *Service) Transfer(ctx context.Context, senderID, receiverID uuid.UUID, amount int64) (*model.Transaction, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if senderID == receiverID {
		return nil, ErrSelfTransfer
	}

	t, err := s.repo.Transfer(ctx, senderID, receiverID, amount)
	if err != nil {
		reason := failureReason(err)
		metrics.ObserveTransfer(model.TransactionStatusFailed, reason, amount)
		s.recordFailedTransfer(ctx, senderID, receiverID, amount, reason)
		return nil, err
	}

	metrics.ObserveTransfer(model.TransactionStatusSuccess, model.FailureNone, amount)
	return t, nil
}

func failureReason(err error) model.FailureReason {
	switch {
	case errors.Is(err, repository.ErrUserNotFound):
		return model.FailureNotFound
	case errors.Is(err, repository.ErrInsufficientBalance):
		return model.FailureInsufficientBalance
	case errors.Is(err, repository.ErrBalanceOverflow):
		return model.FailureBalanceOverflow
	default:
		return model.FailureInternal
	}
}

func (s *Service) recordFailedTransfer(ctx context.Context, senderID, receiverID uuid.UUID, amount int64, reason model.FailureReason) {
	failed := &model.Transaction{
		SenderID:      senderID,
		ReceiverID:    receiverID,
		Amount:        amount,
		Status:        model.TransactionStatusFailed,
		FailureReason: reason,
	}

	if err := s.repo.CreateTransaction(context.WithoutCancel(ctx), failed); err != nil {
		s.logger.Error("record failed transfer",
			zap.Error(err),
			zap.Stringer("sender", senderID),
			zap.Stringer("receiver", receiverID),
			zap.Int64("amount", amount),
		)
	}
}

// AdjustBalance прибавляет delta к балансу пользователя: положительное значение
// начисляет баллы, отрицательное списывает. Баланс не может стать отрицательным.
func (s *Service) AdjustBalance(ctx context.Context, actorID, userID uuid.UUID, delta int64) (*model.User, error) {
	if delta == 0 {
		return nil, ErrInvalidDelta
	}

	u, err := s.repo.AdjustBalance(ctx, userID, delta)
	if err != nil {
		return nil, err
	}

	metrics.ObserveAdjustment(delta)
	s.audit(ctx, actorID, model.AuditBalanceAdjust, balanceAdjustDetails(u, delta))
	return u, nil
}

// Balance возвращает текущий баланс пользователя.
func (s *Service) Balance(ctx context.Context, userID uuid.UUID) (int64, error) {
	u, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return 0, err
	}
	return u.Balance, nil
}

// History возвращает переводы, в которых пользователь отправитель или получатель.
func (s *Service) History(ctx context.Context, userID uuid.UUID) ([]model.TransactionView, error) {
	return s.repo.GetTransactionsByUser(ctx, userID)
}

// AllTransactions возвращает все переводы системы.
func (s *Service) AllTransactions(ctx context.Context) ([]model.TransactionView, error) {
	return s.repo.GetAllTransactions(ctx)
}
