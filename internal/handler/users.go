package handler

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/mmeshcher/points-wallet/internal/middleware"
	"github.com/mmeshcher/points-wallet/internal/model"
)

type transferRequest struct {
	ReceiverID string `json:"receiverId"`
	Amount     *int64 `json:"amount"`
}

type pointsResponse struct {
	UserID  uuid.UUID `json:"userId"`
	Balance int64     `json:"balance"`
}

// Me возвращает профиль текущего пользователя.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	u, err := h.service.GetUser(r.Context(), identity.UserID)
	if err != nil {
		h.respondServiceError(w, err, "get profile error")
		return
	}

	respondJSON(w, http.StatusOK, "Profile fetched successfully.", u)
}

// Transfer переводит баллы от текущего пользователя указанному получателю.
func (h *Handler) Transfer(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req transferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	if req.ReceiverID == "" || req.Amount == nil {
		respondError(w, http.StatusBadRequest, "Receiver ID and amount are required.")
		return
	}

	receiverID, err := uuid.Parse(req.ReceiverID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid receiver id.")
		return
	}

	t, err := h.service.Transfer(r.Context(), identity.UserID, receiverID, *req.Amount)
	if err != nil {
		h.respondServiceError(w, err, "transfer points error")
		return
	}

	respondJSON(w, http.StatusOK, "Points transferred successfully.", t)
}

// UserTransactions возвращает историю переводов пользователя.
func (h *Handler) UserTransactions(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathUserID(w, r)
	if !ok {
		return
	}

	views, err := h.service.History(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, err, "get user transactions error")
		return
	}
	if views == nil {
		views = []model.TransactionView{}
	}

	respondJSON(w, http.StatusOK, "User transactions fetched successfully.", views)
}

// UserPoints возвращает текущий баланс пользователя.
func (h *Handler) UserPoints(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathUserID(w, r)
	if !ok {
		return
	}

	balance, err := h.service.Balance(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, err, "get user points error")
		return
	}

	respondJSON(w, http.StatusOK, "User points fetched successfully.", pointsResponse{UserID: id, Balance: balance})
}
