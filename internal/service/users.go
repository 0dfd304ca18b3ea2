package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mmeshcher/points-wallet/internal/auth"
	"github.com/mmeshcher/points-wallet/internal/model"
	"github.com/mmeshcher/points-wallet/internal/repository"
	"github.com/mmeshcher/points-wallet/internal/validation"
)

// NewUser — данные для создания пользователя администратором.
type NewUser struct {
	Name     string
	Email    string
	Password string
	Role     model.Role
	Status   model.UserStatus
	Balance  int64
}

// UserChanges — частичное изменение пользователя. Nil означает «не менять».
type UserChanges struct {
	Name     *string
	Email    *string
	Password *string
	Role     *model.Role
	Status   *model.UserStatus
	Balance  *int64
}

// SeedAccount описывает учётную запись по умолчанию, создаваемую при старте.
type SeedAccount struct {
	Name     string
	Email    string
	Password string
	Role     model.Role
}

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrValidation}, args...)...)
}

// CreateUser создаёт пользователя. Email должен быть уникален.
func (s *Service) CreateUser(ctx context.Context, actorID uuid.UUID, in NewUser) (*model.User, error) {
	in.Email = validation.NormalizeEmail(in.Email)
	in.Name = strings.TrimSpace(in.Name)

	if in.Role == "" {
		in.Role = model.RoleUser
	}
	if in.Status == "" {
		in.Status = model.UserStatusActive
	}

	switch {
	case !validation.IsValidName(in.Name):
		return nil, validationError("name must be 3 to 50 characters")
	case !validation.IsValidEmail(in.Email):
		return nil, validationError("email is invalid")
	case !validation.IsValidPassword(in.Password):
		return nil, validationError("password must be 6 characters to 72 bytes long")
	case !in.Role.Valid():
		return nil, validationError("unknown role %q", in.Role)
	case !in.Status.Valid():
		return nil, validationError("unknown status %q", in.Status)
	case in.Balance < 0:
		return nil, validationError("balance must not be negative")
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &model.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         in.Role,
		Balance:      in.Balance,
		Status:       in.Status,
	}
	if err := s.repo.CreateUser(ctx, u); err != nil {
		return nil, err
	}

	s.audit(ctx, actorID, model.AuditUserCreate, fmt.Sprintf("created user %s (%s)", u.ID, u.Email))
	return u, nil
}

// GetUser возвращает пользователя по идентификатору.
func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return s.repo.GetUserByID(ctx, id)
}

// ListUsers возвращает всех пользователей.
func (s *Service) ListUsers(ctx context.Context) ([]model.User, error) {
	return s.repo.ListUsers(ctx)
}

// UpdateUser применяет частичное изменение. Новый пароль хешируется заново.
// Email защищённой учётной записи изменить нельзя.
func (s *Service) UpdateUser(ctx context.Context, actorID, id uuid.UUID, in UserChanges) (*model.User, error) {
	var upd model.UserUpdate

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if !validation.IsValidName(name) {
			return nil, validationError("name must be 3 to 50 characters")
		}
		upd.Name = &name
	}
	if in.Email != nil {
		email := validation.NormalizeEmail(*in.Email)
		if !validation.IsValidEmail(email) {
			return nil, validationError("email is invalid")
		}
		upd.Email = &email
	}
	if in.Password != nil {
		if !validation.IsValidPassword(*in.Password) {
			return nil, validationError("password must be 6 characters to 72 bytes long")
		}
		hash, err := auth.HashPassword(*in.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		upd.PasswordHash = hash
	}
	if in.Role != nil {
		if !in.Role.Valid() {
			return nil, validationError("unknown role %q", *in.Role)
		}
		upd.Role = in.Role
	}
	if in.Status != nil {
		if !in.Status.Valid() {
			return nil, validationError("unknown status %q", *in.Status)
		}
		upd.Status = in.Status
	}
	if in.Balance != nil {
		if *in.Balance < 0 {
			return nil, validationError("balance must not be negative")
		}
		upd.Balance = in.Balance
	}

	if upd.Empty() {
		return nil, validationError("no fields to update")
	}

	if upd.Email != nil {
		current, err := s.repo.GetUserByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if s.IsProtected(current.Email) && current.Email != *upd.Email {
			return nil, ErrProtectedAccount
		}
	}

	u, err := s.repo.UpdateUser(ctx, id, upd)
	if err != nil {
		return nil, err
	}

	s.audit(ctx, actorID, model.AuditUserUpdate, fmt.Sprintf("updated user %s: %s", u.ID, changedFields(in)))
	return u, nil
}

func changedFields(in UserChanges) string {
	var fields []string
	if in.Name != nil {
		fields = append(fields, "name")
	}
	if in.Email != nil {
		fields = append(fields, "email")
	}
	if in.Password != nil {
		fields = append(fields, "password")
	}
	if in.Role != nil {
		fields = append(fields, "role")
	}
	if in.Status != nil {
		fields = append(fields, "status")
	}
	if in.Balance != nil {
		fields = append(fields, "balance")
	}
	return strings.Join(fields, ", ")
}

// DeleteUser удаляет пользователя. Защищённые учётные записи удалить нельзя
// независимо от роли вызывающего. История переводов сохраняется.
func (s *Service) DeleteUser(ctx context.Context, actorID, id uuid.UUID) (*model.User, error) {
	u, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.IsProtected(u.Email) {
		return nil, ErrProtectedAccount
	}

	if err := s.repo.DeleteUser(ctx, id); err != nil {
		return nil, err
	}

	s.audit(ctx, actorID, model.AuditUserDelete, fmt.Sprintf("deleted user %s (%s)", u.ID, u.Email))
	return u, nil
}

// EnsureSeedAccounts создаёт отсутствующие учётные записи по умолчанию.
// Записи без пароля пропускаются.
func (s *Service) EnsureSeedAccounts(ctx context.Context, seeds []SeedAccount) error {
	for _, seed := range seeds {
		if seed.Password == "" {
			continue
		}

		_, err := s.repo.GetUserByEmail(ctx, seed.Email)
		if err == nil {
			continue
		}
		if !errors.Is(err, repository.ErrUserNotFound) {
			return fmt.Errorf("lookup seed account %s: %w", seed.Email, err)
		}

		u, err := s.CreateUser(ctx, uuid.Nil, NewUser{
			Name:     seed.Name,
			Email:    seed.Email,
			Password: seed.Password,
			Role:     seed.Role,
		})
		if err != nil && !errors.Is(err, repository.ErrUserExists) {
			return fmt.Errorf("create seed account %s: %w", seed.Email, err)
		}
		if u != nil {
			s.logger.Info("seed account created", zap.String("email", u.Email), zap.String("role", string(u.Role)))
		}
	}
	return nil
}

func balanceAdjustDetails(u *model.User, delta int64) string {
	verb := "credited"
	amount := delta
	if delta < 0 {
		verb = "debited"
		amount = -delta
	}
	return fmt.Sprintf("%s %d points to user %s, balance %d", verb, amount, u.ID, u.Balance)
}
