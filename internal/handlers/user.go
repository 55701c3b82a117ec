package handlers

import (
	"ImageHub/internal/config"
	"ImageHub/internal/gateway"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// UserHandler — управление пользователями (администратор).
type UserHandler struct {
	Gateway *gateway.Gateway
	Logger  *zap.SugaredLogger
	Config  *config.Config
}

func NewUserHandler(gw *gateway.Gateway, logger *zap.SugaredLogger, cfg *config.Config) *UserHandler {
	return &UserHandler{Gateway: gw, Logger: logger, Config: cfg}
}

type CreateUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	users, err := h.Gateway.ListUsers(r.Context(), id)
	if err != nil {
		writeError(w, h.Logger, "ListUsers", err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	var req CreateUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.Logger, "CreateUser", err)
		return
	}
	u, err := h.Gateway.CreateUser(r.Context(), id, req.Username, req.Password)
	if err != nil {
		writeError(w, h.Logger, "CreateUser", err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	if err := h.Gateway.DeleteUser(r.Context(), id, chi.URLParam(r, "id")); err != nil {
		writeError(w, h.Logger, "DeleteUser", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Folders — папки, назначенные пользователю.
func (h *UserHandler) Folders(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	folders, err := h.Gateway.FoldersForUser(r.Context(), id, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.Logger, "FoldersForUser", err)
		return
	}
	writeJSON(w, http.StatusOK, folders)
}
