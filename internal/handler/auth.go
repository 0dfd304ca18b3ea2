package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/mmeshcher/points-wallet/internal/model"
	"github.com/mmeshcher/points-wallet/internal/service"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	ID           string      `json:"id"`
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
	User         *model.User `json:"user"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// Authenticate проверяет email и пароль и выдаёт пару токенов.
func (h *Handler) Authenticate(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondAuthError(w, http.StatusBadRequest, "Invalid request body.", "VALIDATION_ERROR", "The request body is not valid JSON.")
		return
	}

	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		respondAuthError(w, http.StatusBadRequest, "Email and password are required.", "VALIDATION_ERROR", "The email or password is missing.")
		return
	}

	session, err := h.service.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			respondAuthError(w, http.StatusUnauthorized, "Invalid email or password.", "AUTHENTICATION_FAILED", "The email or password is incorrect.")
			return
		}
		h.logger.Error("authenticate user error", zap.Error(err))
		respondAuthError(w, http.StatusInternalServerError, "An unexpected error occurred.", "INTERNAL_ERROR", "Internal server error.")
		return
	}

	respondAuth(w, "User authenticated successfully.", sessionResponse{
		ID:           session.User.ID.String(),
		AccessToken:  session.AccessToken,
		RefreshToken: session.RefreshToken,
		User:         session.User,
	})
}

// RefreshToken обменивает токен обновления на новый токен доступа.
func (h *Handler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		respondAuthError(w, http.StatusUnauthorized, "Unauthorized, refresh token not provided.", "UNAUTHORIZED", "The refresh token is missing.")
		return
	}

	accessToken, err := h.service.Refresh(r.Context(), strings.TrimSpace(req.RefreshToken))
	if err != nil {
		if errors.Is(err, service.ErrInvalidRefreshToken) {
			respondAuthError(w, http.StatusForbidden, "Forbidden, invalid or expired refresh token.", "FORBIDDEN", "The refresh token is invalid or expired.")
			return
		}
		h.logger.Error("refresh token error", zap.Error(err))
		respondAuthError(w, http.StatusInternalServerError, "An unexpected error occurred.", "INTERNAL_ERROR", "Internal server error.")
		return
	}

	respondAuth(w, "Access token refreshed successfully.", map[string]string{"accessToken": accessToken})
}
