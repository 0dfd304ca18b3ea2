package repository

import (
	"context"
	"math"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmeshcher/points-wallet/internal/model"
)

func createUser(t *testing.T, r *MemoryRepository, name, email string, balance int64) *model.User {
	t.Helper()

	u := &model.User{
		Name:    name,
		Email:   email,
		Role:    model.RoleUser,
		Status:  model.UserStatusActive,
		Balance: balance,
	}
	require.NoError(t, r.CreateUser(context.Background(), u))
	return u
}

func TestMemoryRepository_CreateUserDuplicateEmail(t *testing.T) {
	r := NewMemoryRepository()
	createUser(t, r, "Alice", "alice@example.com", 0)

	err := r.CreateUser(context.Background(), &model.User{Name: "Alice 2", Email: "ALICE@example.com"})
	assert.ErrorIs(t, err, ErrUserExists)

	users, err := r.ListUsers(context.Background())
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestMemoryRepository_Transfer(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepository()
	a := createUser(t, r, "Alice", "a@example.com", 500)
	b := createUser(t, r, "Bob", "b@example.com", 100)

	tx, err := r.Transfer(ctx, a.ID, b.ID, 200)
	require.NoError(t, err)
	assert.Equal(t, model.TransactionStatusSuccess, tx.Status)
	assert.Equal(t, int64(200), tx.Amount)

	gotA, _ := r.GetUserByID(ctx, a.ID)
	gotB, _ := r.GetUserByID(ctx, b.ID)
	assert.Equal(t, int64(300), gotA.Balance)
	assert.Equal(t, int64(300), gotB.Balance)
}

func TestMemoryRepository_TransferFailuresLeaveBalances(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepository()
	a := createUser(t, r, "Alice", "a@example.com", 50)
	b := createUser(t, r, "Bob", "b@example.com", 100)

	_, err := r.Transfer(ctx, a.ID, b.ID, 200)
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	_, err = r.Transfer(ctx, a.ID, uuid.New(), 10)
	assert.ErrorIs(t, err, ErrUserNotFound)

	gotA, _ := r.GetUserByID(ctx, a.ID)
	gotB, _ := r.GetUserByID(ctx, b.ID)
	assert.Equal(t, int64(50), gotA.Balance)
	assert.Equal(t, int64(100), gotB.Balance)

	all, err := r.GetAllTransactions(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestMemoryRepository_ConcurrentTransfersDoNotOverdraw(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepository()
	a := createUser(t, r, "Alice", "a@example.com", 100)
	b := createUser(t, r, "Bob", "b@example.com", 0)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := r.Transfer(ctx, a.ID, b.ID, 10); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	gotA, _ := r.GetUserByID(ctx, a.ID)
	gotB, _ := r.GetUserByID(ctx, b.ID)
	assert.Equal(t, 10, succeeded)
	assert.Equal(t, int64(0), gotA.Balance)
	assert.Equal(t, int64(100), gotB.Balance)
}

func TestMemoryRepository_AdjustBalance(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepository()
	u := createUser(t, r, "Alice", "a@example.com", 50)

	got, err := r.AdjustBalance(ctx, u.ID, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(150), got.Balance)

	got, err = r.AdjustBalance(ctx, u.ID, -130)
	require.NoError(t, err)
	assert.Equal(t, int64(20), got.Balance)

	_, err = r.AdjustBalance(ctx, u.ID, -21)
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	_, err = r.AdjustBalance(ctx, uuid.New(), 1)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestMemoryRepository_HistoryResolvesNames(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepository()
	a := createUser(t, r, "Alice", "a@example.com", 100)
	b := createUser(t, r, "Bob", "b@example.com", 0)
	c := createUser(t, r, "Carol", "c@example.com", 0)

	_, err := r.Transfer(ctx, a.ID, b.ID, 10)
	require.NoError(t, err)
	_, err = r.Transfer(ctx, a.ID, c.ID, 20)
	require.NoError(t, err)
	require.NoError(t, r.DeleteUser(ctx, b.ID))

	hist, err := r.GetTransactionsByUser(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, hist, 2)
	assert.Equal(t, "Alice", hist[0].SenderName)
	assert.Equal(t, model.UnknownUserName, hist[0].ReceiverName)
	assert.Equal(t, "Carol", hist[1].ReceiverName)

	again, err := r.GetTransactionsByUser(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, hist, again)

	cHist, err := r.GetTransactionsByUser(ctx, c.ID)
	require.NoError(t, err)
	assert.Len(t, cHist, 1)
}

func TestMemoryRepository_UpdateUser(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepository()
	a := createUser(t, r, "Alice", "a@example.com", 0)
	createUser(t, r, "Bob", "b@example.com", 0)

	taken := "b@example.com"
	_, err := r.UpdateUser(ctx, a.ID, model.UserUpdate{Email: &taken})
	assert.ErrorIs(t, err, ErrUserExists)

	name := "Alicia"
	email := "alicia@example.com"
	status := model.UserStatusSuspended
	got, err := r.UpdateUser(ctx, a.ID, model.UserUpdate{Name: &name, Email: &email, Status: &status})
	require.NoError(t, err)
	assert.Equal(t, "Alicia", got.Name)
	assert.Equal(t, model.UserStatusSuspended, got.Status)

	byEmail, err := r.GetUserByEmail(ctx, "alicia@example.com")
	require.NoError(t, err)
	assert.Equal(t, a.ID, byEmail.ID)

	_, err = r.GetUserByEmail(ctx, "a@example.com")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestMemoryRepository_AuditLogsNewestFirst(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepository()

	require.NoError(t, r.CreateAuditLog(ctx, &model.AuditLog{Action: model.AuditUserCreate, Details: "first"}))
	require.NoError(t, r.CreateAuditLog(ctx, &model.AuditLog{Action: model.AuditUserDelete, Details: "second"}))

	logs, err := r.GetAuditLogs(ctx)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "second", logs[0].Details)
}

func TestMemoryRepository_BalanceOverflow(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepository()
	a := createUser(t, r, "Alice", "a@example.com", 10)
	rich := createUser(t, r, "Richie", "rich@example.com", math.MaxInt64)

	_, err := r.Transfer(ctx, a.ID, rich.ID, 5)
	assert.ErrorIs(t, err, ErrBalanceOverflow)

	gotA, err := r.GetUserByID(ctx, a.ID)
	require.NoError(t, err)
	gotRich, err := r.GetUserByID(ctx, rich.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), gotA.Balance)
	assert.Equal(t, int64(math.MaxInt64), gotRich.Balance)

	_, err = r.AdjustBalance(ctx, rich.ID, 1)
	assert.ErrorIs(t, err, ErrBalanceOverflow)

	_, err = r.AdjustBalance(ctx, a.ID, math.MaxInt64)
	assert.ErrorIs(t, err, ErrBalanceOverflow)

	got, err := r.AdjustBalance(ctx, a.ID, math.MaxInt64-10)
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64), got.Balance)
}
