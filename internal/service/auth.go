package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/mmeshcher/points-wallet/internal/auth"
	"github.com/mmeshcher/points-wallet/internal/model"
	"github.com/mmeshcher/points-wallet/internal/repository"
	"github.com/mmeshcher/points-wallet/internal/validation"
)

var (
	// ErrInvalidCredentials возвращается при неверном email, пароле или неактивной учётной записи.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrInvalidRefreshToken возвращается для недействительного токена обновления.
	ErrInvalidRefreshToken = errors.New("invalid or expired refresh token")
)

// Session — результат успешной аутентификации.
type Session struct {
	User         *model.User
	AccessToken  string
	RefreshToken string
}

// Authenticate проверяет email и пароль и выпускает пару токенов.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*Session, error) {
	u, err := s.repo.GetUserByEmail(ctx, validation.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := auth.CheckPassword(u.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}
	if u.Status != model.UserStatusActive {
		return nil, ErrInvalidCredentials
	}

	access, err := s.tokens.IssueAccessToken(u)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := s.tokens.IssueRefreshToken(u.ID)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}

	return &Session{
		User:         u,
		AccessToken:  access,
		RefreshToken: refresh,
	}, nil
}

// Refresh выпускает новый токен доступа по токену обновления.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (string, error) {
	id, err := s.tokens.ParseRefreshToken(refreshToken)
	if err != nil {
		return "", ErrInvalidRefreshToken
	}

	u, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", ErrInvalidRefreshToken
		}
		return "", err
	}
	if u.Status != model.UserStatusActive {
		return "", ErrInvalidRefreshToken
	}

	access, err := s.tokens.IssueAccessToken(u)
	if err != nil {
		return "", fmt.Errorf("issue access token: %w", err)
	}
	return access, nil
}
