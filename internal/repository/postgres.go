// Package repository содержит реализации хранилища пользователей и переводов.
package repository

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/mmeshcher/points-wallet/internal/model"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const userColumns = `id, name, email, password_hash, role, balance, status, created_at, updated_at`

// PostgresRepository предоставляет доступ к хранилищу данных в PostgreSQL.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository создаёт новый репозиторий и инициализирует схему БД через миграции.
func NewPostgresRepository(dsn string) (*PostgresRepository, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	r := &PostgresRepository{pool: pool}

	if err := r.runMigrations(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return r, nil
}

func (r *PostgresRepository) runMigrations(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(r.pool)
	defer db.Close()

	goose.SetBaseFS(migrationsFS)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

// Close закрывает пул соединений с БД.
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*model.User, error) {
	var (
		u      model.User
		role   string
		status string
	)
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &role, &u.Balance, &status, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	u.Role = model.Role(role)
	u.Status = model.UserStatus(status)
	return &u, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

func isOutOfRange(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.NumericValueOutOfRange
}

// CreateUser сохраняет нового пользователя. Идентификатор и время создания
// заполняются, если не заданы.
func (r *PostgresRepository) CreateUser(ctx context.Context, u *model.User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}

	err := r.pool.QueryRow(ctx,
		`INSERT INTO users (id, name, email, password_hash, role, balance, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING created_at, updated_at`,
		u.ID, u.Name, u.Email, u.PasswordHash, string(u.Role), u.Balance, string(u.Status),
	).Scan(&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", ErrUserExists, u.Email)
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// GetUserByID возвращает пользователя по идентификатору.
func (r *PostgresRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// GetUserByEmail возвращает пользователя по email без учёта регистра.
func (r *PostgresRepository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

// ListUsers возвращает всех пользователей в порядке создания.
func (r *PostgresRepository) ListUsers(ctx context.Context) ([]model.User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("select users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return users, nil
}

// UpdateUser применяет частичное обновление и возвращает изменённого пользователя.
func (r *PostgresRepository) UpdateUser(ctx context.Context, id uuid.UUID, upd model.UserUpdate) (*model.User, error) {
	var (
		sets []string
		args = []any{id}
	)
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if upd.Name != nil {
		add("name", *upd.Name)
	}
	if upd.Email != nil {
		add("email", *upd.Email)
	}
	if upd.PasswordHash != nil {
		add("password_hash", upd.PasswordHash)
	}
	if upd.Role != nil {
		add("role", string(*upd.Role))
	}
	if upd.Status != nil {
		add("status", string(*upd.Status))
	}
	if upd.Balance != nil {
		add("balance", *upd.Balance)
	}
	sets = append(sets, "updated_at = now()")

	query := `UPDATE users SET ` + strings.Join(sets, ", ") + ` WHERE id = $1 RETURNING ` + userColumns

	u, err := scanUser(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("update user: %w", ErrUserExists)
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	return u, nil
}

// DeleteUser удаляет пользователя. История переводов не затрагивается.
func (r *PostgresRepository) DeleteUser(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// AdjustBalance прибавляет delta к балансу пользователя одним условным UPDATE,
// который не допускает отрицательного результата.
func (r *PostgresRepository) AdjustBalance(ctx context.Context, id uuid.UUID, delta int64) (*model.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx,
		`UPDATE users SET balance = balance + $2, updated_at = now()
		 WHERE id = $1 AND balance + $2 >= 0
		 RETURNING `+userColumns,
		id, delta,
	))
	if err == nil {
		return u, nil
	}
	if isOutOfRange(err) {
		return nil, ErrBalanceOverflow
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("adjust balance: %w", err)
	}

	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, id).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check user: %w", err)
	}
	if !exists {
		return nil, ErrUserNotFound
	}
	return nil, ErrInsufficientBalance
}

// Transfer переводит amount баллов от отправителя получателю в одной транзакции БД.
// Строки обоих пользователей блокируются FOR UPDATE в порядке возрастания id,
// поэтому встречные переводы не приводят к взаимной блокировке и не теряют обновления.
func (r *PostgresRepository) Transfer(ctx context.Context, senderID, receiverID uuid.UUID, amount int64) (*model.Transaction, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	first, second := senderID, receiverID
	if bytes.Compare(first[:], second[:]) > 0 {
		first, second = second, first
	}

	balances := make(map[uuid.UUID]int64, 2)
	for _, id := range []uuid.UUID{first, second} {
		var balance int64
		err := tx.QueryRow(ctx, `SELECT balance FROM users WHERE id = $1 FOR UPDATE`, id).Scan(&balance)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrUserNotFound
			}
			return nil, fmt.Errorf("lock user: %w", err)
		}
		balances[id] = balance
	}

	if balances[senderID] < amount {
		return nil, ErrInsufficientBalance
	}
	if balances[receiverID] > math.MaxInt64-amount {
		return nil, ErrBalanceOverflow
	}

	if _, err := tx.Exec(ctx,
		`UPDATE users SET balance = balance - $2, updated_at = now() WHERE id = $1`,
		senderID, amount,
	); err != nil {
		return nil, fmt.Errorf("debit sender: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`UPDATE users SET balance = balance + $2, updated_at = now() WHERE id = $1`,
		receiverID, amount,
	); err != nil {
		return nil, fmt.Errorf("credit receiver: %w", err)
	}

	t := &model.Transaction{
		ID:         uuid.New(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Amount:     amount,
		Status:     model.TransactionStatusSuccess,
	}
	if err := insertTransaction(ctx, tx, t); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return t, nil
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func insertTransaction(ctx context.Context, q querier, t *model.Transaction) error {
	err := q.QueryRow(ctx,
		`INSERT INTO transactions (id, sender_id, receiver_id, amount, status, failure_reason)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING created_at`,
		t.ID, t.SenderID, t.ReceiverID, t.Amount, string(t.Status), string(t.FailureReason),
	).Scan(&t.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// CreateTransaction сохраняет запись о переводе вне транзакции перевода.
// Используется для записей о неуспешных попытках.
func (r *PostgresRepository) CreateTransaction(ctx context.Context, t *model.Transaction) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return insertTransaction(ctx, r.pool, t)
}

const transactionViewQuery = `SELECT t.id, t.sender_id, COALESCE(s.name, $1), t.receiver_id, COALESCE(rc.name, $1),
		t.amount, t.status, t.failure_reason, t.created_at
	 FROM transactions t
	 LEFT JOIN users s ON s.id = t.sender_id
	 LEFT JOIN users rc ON rc.id = t.receiver_id`

// GetTransactionsByUser возвращает переводы, где пользователь отправитель или получатель,
// в порядке записи.
func (r *PostgresRepository) GetTransactionsByUser(ctx context.Context, userID uuid.UUID) ([]model.TransactionView, error) {
	return r.queryTransactions(ctx,
		transactionViewQuery+` WHERE t.sender_id = $2 OR t.receiver_id = $2 ORDER BY t.seq`,
		model.UnknownUserName, userID,
	)
}

// GetAllTransactions возвращает все переводы в порядке записи.
func (r *PostgresRepository) GetAllTransactions(ctx context.Context) ([]model.TransactionView, error) {
	return r.queryTransactions(ctx, transactionViewQuery+` ORDER BY t.seq`, model.UnknownUserName)
}

func (r *PostgresRepository) queryTransactions(ctx context.Context, query string, args ...any) ([]model.TransactionView, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select transactions: %w", err)
	}
	defer rows.Close()

	var res []model.TransactionView
	for rows.Next() {
		var (
			v      model.TransactionView
			status string
			reason string
		)
		if err := rows.Scan(&v.ID, &v.SenderID, &v.SenderName, &v.ReceiverID, &v.ReceiverName,
			&v.Amount, &status, &reason, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		v.Status = model.TransactionStatus(status)
		v.FailureReason = model.FailureReason(reason)
		res = append(res, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}

// CreateAuditLog сохраняет запись журнала административных действий.
func (r *PostgresRepository) CreateAuditLog(ctx context.Context, l *model.AuditLog) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	err := r.pool.QueryRow(ctx,
		`INSERT INTO audit_logs (id, user_id, action_type, details) VALUES ($1, $2, $3, $4) RETURNING created_at`,
		l.ID, l.UserID, string(l.Action), l.Details,
	).Scan(&l.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}

// GetAuditLogs возвращает журнал административных действий, новые записи первыми.
func (r *PostgresRepository) GetAuditLogs(ctx context.Context) ([]model.AuditLog, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, action_type, details, created_at FROM audit_logs ORDER BY seq DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("select audit logs: %w", err)
	}
	defer rows.Close()

	var res []model.AuditLog
	for rows.Next() {
		var (
			l      model.AuditLog
			action string
		)
		if err := rows.Scan(&l.ID, &l.UserID, &action, &l.Details, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit log: %w", err)
		}
		l.Action = model.AuditAction(action)
		res = append(res, l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}
