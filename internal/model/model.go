// Package model содержит доменные сущности сервиса кошелька баллов.
package model

import (
	"time"

	"github.com/google/uuid"
)

// Role описывает роль пользователя.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Valid сообщает, является ли роль допустимой.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// UserStatus описывает состояние учётной записи пользователя.
type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusInactive  UserStatus = "inactive"
	UserStatusSuspended UserStatus = "suspended"
)

// Valid сообщает, является ли статус допустимым.
func (s UserStatus) Valid() bool {
	switch s {
	case UserStatusActive, UserStatusInactive, UserStatusSuspended:
		return true
	}
	return false
}

// User представляет владельца баланса баллов.
type User struct {
	ID           uuid.UUID  `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	PasswordHash []byte     `json:"-"`
	Role         Role       `json:"role"`
	Balance      int64      `json:"balance"`
	Status       UserStatus `json:"status"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// UserUpdate содержит частичный набор полей для изменения пользователя.
// Nil означает, что поле не меняется.
type UserUpdate struct {
	Name         *string
	Email        *string
	PasswordHash []byte
	Role         *Role
	Status       *UserStatus
	Balance      *int64
}

// Empty сообщает, что обновление не содержит ни одного поля.
func (u UserUpdate) Empty() bool {
	return u.Name == nil && u.Email == nil && u.PasswordHash == nil &&
		u.Role == nil && u.Status == nil && u.Balance == nil
}

// TransactionStatus описывает результат попытки перевода.
type TransactionStatus string

const (
	TransactionStatusPending TransactionStatus = "pending"
	TransactionStatusSuccess TransactionStatus = "success"
	TransactionStatusFailed  TransactionStatus = "failed"
)

// FailureReason уточняет причину неуспешного перевода.
type FailureReason string

const (
	FailureNone                FailureReason = ""
	FailureNotFound            FailureReason = "not_found"
	FailureInsufficientBalance FailureReason = "insufficient_balance"
	FailureBalanceOverflow     FailureReason = "balance_overflow"
	FailureInternal            FailureReason = "internal"
)

// Transaction описывает одну попытку перевода баллов. Записи только добавляются.
type Transaction struct {
	ID            uuid.UUID         `json:"id"`
	SenderID      uuid.UUID         `json:"senderId"`
	ReceiverID    uuid.UUID         `json:"receiverId"`
	Amount        int64             `json:"amount"`
	Status        TransactionStatus `json:"status"`
	FailureReason FailureReason     `json:"failureReason,omitempty"`
	CreatedAt     time.Time         `json:"timestamp"`
}

// UnknownUserName подставляется, если участник перевода больше не существует.
const UnknownUserName = "Unknown"

// TransactionView — транзакция, дополненная именами отправителя и получателя.
type TransactionView struct {
	Transaction
	SenderName   string `json:"senderName"`
	ReceiverName string `json:"receiverName"`
}

// AuditAction описывает тип административного действия.
type AuditAction string

const (
	AuditUserCreate    AuditAction = "user.create"
	AuditUserUpdate    AuditAction = "user.update"
	AuditUserDelete    AuditAction = "user.delete"
	AuditBalanceAdjust AuditAction = "balance.adjust"
)

// AuditLog фиксирует административное действие.
type AuditLog struct {
	ID        uuid.UUID   `json:"id"`
	UserID    *uuid.UUID  `json:"userId"`
	Action    AuditAction `json:"actionType"`
	Details   string      `json:"details"`
	CreatedAt time.Time   `json:"timestamp"`
}
