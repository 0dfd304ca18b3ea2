// Package auth выпускает и проверяет токены доступа и хранит пароли в виде bcrypt-хешей.
package auth

import (
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"github.com/mmeshcher/points-wallet/internal/model"
)

var (
	// ErrInvalidToken возвращается для неподписанного, повреждённого или чужого токена.
	ErrInvalidToken = errors.New("token is invalid")
	// ErrTokenExpired возвращается для токена с истёкшим сроком действия.
	ErrTokenExpired = errors.New("token has expired")
)

// Claims — полезная нагрузка токена доступа.
type Claims struct {
	UserID string     `json:"id"`
	Email  string     `json:"email,omitempty"`
	Role   model.Role `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// ID возвращает идентификатор пользователя из токена.
func (c *Claims) ID() (uuid.UUID, error) {
	return uuid.Parse(c.UserID)
}

// TokenManager выпускает и проверяет пары токенов доступа и обновления.
type TokenManager struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

// NewTokenManager создаёт TokenManager. Пустой секрет заменяется случайным ключом,
// поэтому токены не переживут перезапуск процесса.
func NewTokenManager(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *TokenManager {
	return &TokenManager{
		accessSecret:  secretOrRandom(accessSecret),
		refreshSecret: secretOrRandom(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           time.Now,
	}
}

func secretOrRandom(secret string) []byte {
	if secret != "" {
		return []byte(secret)
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		panic(fmt.Sprintf("generate token secret: %v", err))
	}
	return key
}

// IssueAccessToken выпускает токен доступа для пользователя.
func (m *TokenManager) IssueAccessToken(u *model.User) (string, error) {
	now := m.now()
	claims := &Claims{
		UserID: u.ID.String(),
		Email:  u.Email,
		Role:   u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.accessTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.accessSecret)
}

// IssueRefreshToken выпускает токен обновления. Он подписан отдельным секретом
// и не может использоваться как токен доступа.
func (m *TokenManager) IssueRefreshToken(userID uuid.UUID) (string, error) {
	now := m.now()
	claims := &Claims{
		UserID: userID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.refreshTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.refreshSecret)
}

// ParseAccessToken проверяет токен доступа и возвращает его claims.
func (m *TokenManager) ParseAccessToken(tokenString string) (*Claims, error) {
	return m.parse(tokenString, m.accessSecret)
}

// ParseRefreshToken проверяет токен обновления и возвращает идентификатор пользователя.
func (m *TokenManager) ParseRefreshToken(tokenString string) (uuid.UUID, error) {
	claims, err := m.parse(tokenString, m.refreshSecret)
	if err != nil {
		return uuid.Nil, err
	}
	id, err := claims.ID()
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}
	return id, nil
}

func (m *TokenManager) parse(tokenString string, secret []byte) (*Claims, error) {
	claims := &Claims{}
	parser := jwt.Parser{
		ValidMethods: []string{jwt.SigningMethodHS256.Alg()},
	}
	token, err := parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}
	if !token.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
