package handlers

import (
	"ImageHub/internal/apperr"
	"ImageHub/internal/middleware"
	"ImageHub/internal/model"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(payload)
}

// writeError сводит ошибку к виду таксономии. Отказ не раскрывает причину:
// клиент видит только forbidden или not found.
func writeError(w http.ResponseWriter, logger *zap.SugaredLogger, op string, err error) {
	status, msg := http.StatusInternalServerError, "internal error"
	switch {
	case errors.Is(err, apperr.ErrValidation):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, apperr.ErrInvalidCredentials):
		status, msg = http.StatusUnauthorized, apperr.ErrInvalidCredentials.Error()
	case errors.Is(err, apperr.ErrUnauthenticated):
		status, msg = http.StatusUnauthorized, apperr.ErrUnauthenticated.Error()
	case errors.Is(err, apperr.ErrForbidden):
		status, msg = http.StatusForbidden, apperr.ErrForbidden.Error()
	case errors.Is(err, apperr.ErrNotFound):
		status, msg = http.StatusNotFound, apperr.ErrNotFound.Error()
	case errors.Is(err, apperr.ErrConflict):
		status, msg = http.StatusConflict, apperr.ErrConflict.Error()
	case errors.Is(err, apperr.ErrUpstream):
		status, msg = http.StatusBadGateway, apperr.ErrUpstream.Error()
	}
	if status >= http.StatusInternalServerError {
		logger.Errorw(op+" failed", "status", status, "error", err)
	}
	writeJSON(w, status, errorResponse{Error: msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	if err := dec.Decode(dst); err != nil {
		return apperr.Validation(fmt.Errorf("invalid request body: %w", err))
	}
	return nil
}

// identity достаёт идентичность; маршруты /api за RequireAuth, так что ok=false — это ошибка сборки роутера.
func identity(w http.ResponseWriter, r *http.Request) (model.Identity, bool) {
	id, ok := middleware.GetIdentity(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: apperr.ErrUnauthenticated.Error()})
	}
	return id, ok
}
