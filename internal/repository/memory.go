package repository

import (
	"context"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mmeshcher/points-wallet/internal/model"
)

// MemoryRepository хранит данные в памяти процесса. Все изменяющие операции
// выполняются под одной блокировкой, поэтому перевод атомарен.
type MemoryRepository struct {
	mu           sync.RWMutex
	users        map[uuid.UUID]*model.User
	emailIndex   map[string]uuid.UUID
	order        []uuid.UUID
	transactions []model.Transaction
	auditLogs    []model.AuditLog
	now          func() time.Time
}

// NewMemoryRepository создаёт пустое хранилище в памяти.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		users:      make(map[uuid.UUID]*model.User),
		emailIndex: make(map[string]uuid.UUID),
		now:        time.Now,
	}
}

// Close ничего не делает.
func (r *MemoryRepository) Close() error { return nil }

// CreateUser сохраняет нового пользователя.
func (r *MemoryRepository) CreateUser(_ context.Context, u *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := strings.ToLower(u.Email)
	if _, exists := r.emailIndex[key]; exists {
		return ErrUserExists
	}

	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	now := r.now()
	u.CreatedAt = now
	u.UpdatedAt = now

	stored := *u
	r.users[u.ID] = &stored
	r.emailIndex[key] = u.ID
	r.order = append(r.order, u.ID)
	return nil
}

// GetUserByID возвращает копию пользователя по идентификатору.
func (r *MemoryRepository) GetUserByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	res := *u
	return &res, nil
}

// GetUserByEmail возвращает копию пользователя по email без учёта регистра.
func (r *MemoryRepository) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.emailIndex[strings.ToLower(email)]
	if !ok {
		return nil, ErrUserNotFound
	}
	res := *r.users[id]
	return &res, nil
}

// ListUsers возвращает всех пользователей в порядке создания.
func (r *MemoryRepository) ListUsers(_ context.Context) ([]model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	res := make([]model.User, 0, len(r.users))
	for _, id := range r.order {
		if u, ok := r.users[id]; ok {
			res = append(res, *u)
		}
	}
	return res, nil
}

// UpdateUser применяет частичное обновление.
func (r *MemoryRepository) UpdateUser(_ context.Context, id uuid.UUID, upd model.UserUpdate) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}

	if upd.Email != nil {
		newKey := strings.ToLower(*upd.Email)
		if owner, exists := r.emailIndex[newKey]; exists && owner != id {
			return nil, ErrUserExists
		}
		delete(r.emailIndex, strings.ToLower(u.Email))
		r.emailIndex[newKey] = id
		u.Email = *upd.Email
	}
	if upd.Name != nil {
		u.Name = *upd.Name
	}
	if upd.PasswordHash != nil {
		u.PasswordHash = upd.PasswordHash
	}
	if upd.Role != nil {
		u.Role = *upd.Role
	}
	if upd.Status != nil {
		u.Status = *upd.Status
	}
	if upd.Balance != nil {
		u.Balance = *upd.Balance
	}
	u.UpdatedAt = r.now()

	res := *u
	return &res, nil
}

// DeleteUser удаляет пользователя. История переводов сохраняется.
func (r *MemoryRepository) DeleteUser(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return ErrUserNotFound
	}
	delete(r.emailIndex, strings.ToLower(u.Email))
	delete(r.users, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// AdjustBalance прибавляет delta к балансу, не допуская отрицательного результата.
func (r *MemoryRepository) AdjustBalance(_ context.Context, id uuid.UUID, delta int64) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	if delta > 0 && u.Balance > math.MaxInt64-delta {
		return nil, ErrBalanceOverflow
	}
	if u.Balance+delta < 0 {
		return nil, ErrInsufficientBalance
	}
	u.Balance += delta
	u.UpdatedAt = r.now()

	res := *u
	return &res, nil
}

// Transfer переводит amount баллов и записывает успешную транзакцию.
func (r *MemoryRepository) Transfer(_ context.Context, senderID, receiverID uuid.UUID, amount int64) (*model.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sender, ok := r.users[senderID]
	if !ok {
		return nil, ErrUserNotFound
	}
	receiver, ok := r.users[receiverID]
	if !ok {
		return nil, ErrUserNotFound
	}

	if sender.Balance < amount {
		return nil, ErrInsufficientBalance
	}
	if receiver.Balance > math.MaxInt64-amount {
		return nil, ErrBalanceOverflow
	}

	now := r.now()
	sender.Balance -= amount
	sender.UpdatedAt = now
	receiver.Balance += amount
	receiver.UpdatedAt = now

	t := model.Transaction{
		ID:         uuid.New(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Amount:     amount,
		Status:     model.TransactionStatusSuccess,
		CreatedAt:  now,
	}
	r.transactions = append(r.transactions, t)

	return &t, nil
}

// CreateTransaction добавляет запись о переводе.
func (r *MemoryRepository) CreateTransaction(_ context.Context, t *model.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	t.CreatedAt = r.now()
	r.transactions = append(r.transactions, *t)
	return nil
}

// GetTransactionsByUser возвращает переводы пользователя в порядке записи.
func (r *MemoryRepository) GetTransactionsByUser(_ context.Context, userID uuid.UUID) ([]model.TransactionView, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var res []model.TransactionView
	for _, t := range r.transactions {
		if t.SenderID == userID || t.ReceiverID == userID {
			res = append(res, r.view(t))
		}
	}
	return res, nil
}

// GetAllTransactions возвращает все переводы в порядке записи.
func (r *MemoryRepository) GetAllTransactions(_ context.Context) ([]model.TransactionView, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	res := make([]model.TransactionView, 0, len(r.transactions))
	for _, t := range r.transactions {
		res = append(res, r.view(t))
	}
	return res, nil
}

func (r *MemoryRepository) view(t model.Transaction) model.TransactionView {
	return model.TransactionView{
		Transaction:  t,
		SenderName:   r.nameOf(t.SenderID),
		ReceiverName: r.nameOf(t.ReceiverID),
	}
}

func (r *MemoryRepository) nameOf(id uuid.UUID) string {
	if u, ok := r.users[id]; ok {
		return u.Name
	}
	return model.UnknownUserName
}

// CreateAuditLog добавляет запись журнала.
func (r *MemoryRepository) CreateAuditLog(_ context.Context, l *model.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	l.CreatedAt = r.now()
	r.auditLogs = append(r.auditLogs, *l)
	return nil
}

// GetAuditLogs возвращает журнал, новые записи первыми.
func (r *MemoryRepository) GetAuditLogs(_ context.Context) ([]model.AuditLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	res := make([]model.AuditLog, 0, len(r.auditLogs))
	for i := len(r.auditLogs) - 1; i >= 0; i-- {
		res = append(res, r.auditLogs[i])
	}
	return res, nil
}
