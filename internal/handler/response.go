package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/points-wallet/internal/repository"
	"github.com/mmeshcher/points-wallet/internal/service"
)

type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

type authEnvelope struct {
	Status  string `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

type authErrorEnvelope struct {
	Status       string    `json:"status"`
	Code         string    `json:"code"`
	Message      string    `json:"message"`
	ErrorCode    string    `json:"errorCode"`
	ErrorMessage string    `json:"errorMessage"`
	Timestamp    time.Time `json:"timestamp"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondJSON(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, envelope{Success: true, Message: message, Data: data})
}

func respondError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{Success: false, Message: message})
}

func respondAuth(w http.ResponseWriter, message string, data any) {
	writeJSON(w, http.StatusOK, authEnvelope{
		Status:  "success",
		Code:    strconv.Itoa(http.StatusOK),
		Message: message,
		Data:    data,
	})
}

func respondAuthError(w http.ResponseWriter, status int, message, errorCode, errorMessage string) {
	writeJSON(w, status, authErrorEnvelope{
		Status:       "error",
		Code:         strconv.Itoa(status),
		Message:      message,
		ErrorCode:    errorCode,
		ErrorMessage: errorMessage,
		Timestamp:    time.Now().UTC(),
	})
}

// respondServiceError переводит ошибку бизнес-логики в HTTP-ответ. Неизвестные
// ошибки логируются и не раскрываются клиенту.
func (h *Handler) respondServiceError(w http.ResponseWriter, err error, op string) {
	switch {
	case errors.Is(err, service.ErrValidation):
		respondError(w, http.StatusBadRequest, validationMessage(err))
	case errors.Is(err, repository.ErrUserNotFound):
		respondError(w, http.StatusNotFound, "User not found.")
	case errors.Is(err, repository.ErrInsufficientBalance):
		respondError(w, http.StatusBadRequest, "Insufficient balance.")
	case errors.Is(err, repository.ErrBalanceOverflow):
		respondError(w, http.StatusBadRequest, "Balance limit exceeded.")
	case errors.Is(err, repository.ErrUserExists):
		respondError(w, http.StatusConflict, "Email is already registered.")
	case errors.Is(err, service.ErrProtectedAccount):
		respondError(w, http.StatusForbidden, "Cannot modify default admin or user account.")
	default:
		h.logger.Error(op, zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Internal server error.")
	}
}

func validationMessage(err error) string {
	msg := strings.TrimPrefix(err.Error(), service.ErrValidation.Error()+": ")
	if msg == "" {
		return "Invalid request."
	}
	return strings.ToUpper(msg[:1]) + msg[1:] + "."
}
