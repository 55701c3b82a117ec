package handlers

import (
	"ImageHub/internal/config"
	"ImageHub/internal/gateway"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// FolderHandler — папки и назначения.
type FolderHandler struct {
	Gateway *gateway.Gateway
	Logger  *zap.SugaredLogger
	Config  *config.Config
}

func NewFolderHandler(gw *gateway.Gateway, logger *zap.SugaredLogger, cfg *config.Config) *FolderHandler {
	return &FolderHandler{Gateway: gw, Logger: logger, Config: cfg}
}

type CreateFolderRequest struct {
	Name string `json:"name"`
}

// List: администратору — все папки, участнику — назначенные.
func (h *FolderHandler) List(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	folders, err := h.Gateway.ListFolders(r.Context(), id)
	if err != nil {
		writeError(w, h.Logger, "ListFolders", err)
		return
	}
	writeJSON(w, http.StatusOK, folders)
}

func (h *FolderHandler) Create(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	var req CreateFolderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.Logger, "CreateFolder", err)
		return
	}
	f, err := h.Gateway.CreateFolder(r.Context(), id, req.Name)
	if err != nil {
		writeError(w, h.Logger, "CreateFolder", err)
		return
	}
	writeJSON(w, http.StatusCreated, f)
}

// Delete удаляет папку вместе с изображениями и их объектами в хранилище.
func (h *FolderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	if err := h.Gateway.DeleteFolder(r.Context(), id, chi.URLParam(r, "id")); err != nil {
		writeError(w, h.Logger, "DeleteFolder", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *FolderHandler) Assign(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	err := h.Gateway.Assign(r.Context(), id, chi.URLParam(r, "userID"), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.Logger, "Assign", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *FolderHandler) Unassign(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	err := h.Gateway.Unassign(r.Context(), id, chi.URLParam(r, "userID"), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.Logger, "Unassign", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
