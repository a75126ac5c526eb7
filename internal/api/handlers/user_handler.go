package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/TWRT/taskboard/internal/service"
)

type SyncUserRequestBody struct {
	Email   string  `json:"email"`
	Name    *string `json:"name"`
	Picture *string `json:"picture"`
}

type UserHandler struct {
	userService *service.UserService
}

func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

func (h *UserHandler) SyncUser(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{
			"error": "Error trying to read the body: " + err.Error(),
		})
		return
	}

	var reqBody SyncUserRequestBody
	if err := json.Unmarshal(body, &reqBody); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{
			"error": "JSON error: " + err.Error(),
		})
		return
	}

	userID, err := h.userService.SyncUser(reqBody.Email, reqBody.Name, reqBody.Picture)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"user_id": userID,
	})
}

func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	email := r.PathValue("email")

	user, err := h.userService.GetByEmail(email)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"user": user,
	})
}
