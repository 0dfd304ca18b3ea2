package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mmeshcher/points-wallet/internal/middleware"
	"github.com/mmeshcher/points-wallet/internal/model"
	"github.com/mmeshcher/points-wallet/internal/service"
)

type createUserRequest struct {
	Name     string           `json:"name"`
	Email    string           `json:"email"`
	Password string           `json:"password"`
	Role     model.Role       `json:"role"`
	Status   model.UserStatus `json:"status"`
	Balance  int64            `json:"balance"`
}

type updateUserRequest struct {
	Name     *string           `json:"name"`
	Email    *string           `json:"email"`
	Password *string           `json:"password"`
	Role     *model.Role       `json:"role"`
	Status   *model.UserStatus `json:"status"`
	Balance  *int64            `json:"balance"`
}

type addNoxRequest struct {
	UserID string `json:"userId"`
	Points *int64 `json:"points"`
}

// actorID возвращает идентификатор администратора, выполняющего запрос.
func actorID(r *http.Request) uuid.UUID {
	identity, _ := middleware.IdentityFromContext(r.Context())
	return identity.UserID
}

// CreateUser создаёт пользователя.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	if req.Name == "" || req.Email == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "Name, email and password are required.")
		return
	}

	u, err := h.service.CreateUser(r.Context(), actorID(r), service.NewUser{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
		Status:   req.Status,
		Balance:  req.Balance,
	})
	if err != nil {
		h.respondServiceError(w, err, "create user error")
		return
	}

	respondJSON(w, http.StatusCreated, "User created successfully.", u)
}

// ListUsers возвращает всех пользователей.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		h.respondServiceError(w, err, "list users error")
		return
	}
	if users == nil {
		users = []model.User{}
	}

	respondJSON(w, http.StatusOK, "Users fetched successfully.", users)
}

// UpdateUser изменяет переданные поля пользователя.
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid user id.")
		return
	}

	var req updateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	u, err := h.service.UpdateUser(r.Context(), actorID(r), id, service.UserChanges{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
		Status:   req.Status,
		Balance:  req.Balance,
	})
	if err != nil {
		h.respondServiceError(w, err, "update user error")
		return
	}

	respondJSON(w, http.StatusOK, "User updated successfully.", u)
}

// DeleteUser удаляет пользователя. Учётные записи по умолчанию не удаляются.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid user id.")
		return
	}

	u, err := h.service.DeleteUser(r.Context(), actorID(r), id)
	if err != nil {
		h.respondServiceError(w, err, "delete user error")
		return
	}

	respondJSON(w, http.StatusOK, "User deleted successfully.", u)
}

// AllTransactions возвращает все переводы с именами участников.
func (h *Handler) AllTransactions(w http.ResponseWriter, r *http.Request) {
	views, err := h.service.AllTransactions(r.Context())
	if err != nil {
		h.respondServiceError(w, err, "list transactions error")
		return
	}
	if views == nil {
		views = []model.TransactionView{}
	}

	respondJSON(w, http.StatusOK, "Transactions fetched successfully.", views)
}

// AddNox начисляет или списывает баллы пользователя.
func (h *Handler) AddNox(w http.ResponseWriter, r *http.Request) {
	var req addNoxRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	if req.UserID == "" || req.Points == nil {
		respondError(w, http.StatusBadRequest, "User ID and points are required.")
		return
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid user id.")
		return
	}

	u, err := h.service.AdjustBalance(r.Context(), actorID(r), userID, *req.Points)
	if err != nil {
		h.respondServiceError(w, err, "adjust balance error")
		return
	}

	respondJSON(w, http.StatusOK, "Points added successfully.", u)
}

// AuditLogs возвращает журнал действий администраторов, новые записи первыми.
func (h *Handler) AuditLogs(w http.ResponseWriter, r *http.Request) {
	logs, err := h.service.AuditLogs(r.Context())
	if err != nil {
		h.respondServiceError(w, err, "list audit logs error")
		return
	}
	if logs == nil {
		logs = []model.AuditLog{}
	}

	respondJSON(w, http.StatusOK, "Audit logs fetched successfully.", logs)
}
