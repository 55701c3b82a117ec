package handlers

import (
	"ImageHub/internal/config"
	"ImageHub/internal/gateway"
	"ImageHub/internal/middleware"
	"ImageHub/internal/model"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// AuthHandler — вход, выход, текущий пользователь, смена пароля.
type AuthHandler struct {
	Gateway *gateway.Gateway
	Logger  *zap.SugaredLogger
	Config  *config.Config
}

func NewAuthHandler(gw *gateway.Gateway, logger *zap.SugaredLogger, cfg *config.Config) *AuthHandler {
	return &AuthHandler{Gateway: gw, Logger: logger, Config: cfg}
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      *model.User `json:"user"`
}

// Login выдаёт токен в теле ответа и в cookie.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.Logger, "Login", err)
		return
	}
	s, err := h.Gateway.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, h.Logger, "Login", err)
		return
	}
	middleware.SetLoginCookie(w, s.Token, h.Config.EnableHTTPS)
	writeJSON(w, http.StatusOK, LoginResponse{Token: s.Token.Value, ExpiresAt: s.Token.ExpiresAt, User: s.User})
}

// Logout только удаляет cookie: токены не отзываются на сервере.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	middleware.ClearLoginCookie(w, h.Config.EnableHTTPS)
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	u, err := h.Gateway.Me(r.Context(), id)
	if err != nil {
		writeError(w, h.Logger, "Me", err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	var req ChangePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.Logger, "ChangePassword", err)
		return
	}
	err := h.Gateway.ChangePassword(r.Context(), id, chi.URLParam(r, "id"), req.CurrentPassword, req.NewPassword)
	if err != nil {
		writeError(w, h.Logger, "ChangePassword", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
