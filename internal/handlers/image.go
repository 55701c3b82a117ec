package handlers

import (
	"ImageHub/internal/apperr"
	"ImageHub/internal/config"
	"ImageHub/internal/gateway"
	"ImageHub/internal/service"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const (
	// запас на заголовки multipart и текстовые поля формы
	multipartOverhead = 1 << 20
	multipartMemory   = 8 << 20
	defaultImageLimit = 20 << 20
)

// ImageHandler — изображения в папках, загрузка, импорт по URL и мокапы.
type ImageHandler struct {
	Gateway *gateway.Gateway
	Logger  *zap.SugaredLogger
	Config  *config.Config
}

func NewImageHandler(gw *gateway.Gateway, logger *zap.SugaredLogger, cfg *config.Config) *ImageHandler {
	return &ImageHandler{Gateway: gw, Logger: logger, Config: cfg}
}

type ImportRequest struct {
	URL  string `json:"url"`
	Name string `json:"name,omitempty"`
}

func (h *ImageHandler) limit() int64 {
	if n := h.Config.ImageMaxBytes(); n > 0 {
		return n
	}
	return defaultImageLimit
}

// List — изображения папки, сначала новые.
func (h *ImageHandler) List(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	images, err := h.Gateway.ImagesInFolder(r.Context(), id, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.Logger, "ImagesInFolder", err)
		return
	}
	writeJSON(w, http.StatusOK, images)
}

// formFile разбирает multipart-форму с ограничением размера и возвращает поле file.
func (h *ImageHandler) formFile(w http.ResponseWriter, r *http.Request) (multipart.File, *multipart.FileHeader, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.limit()+multipartOverhead)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "file too large"})
			return nil, nil, false
		}
		writeError(w, h.Logger, "Upload", apperr.Validation(fmt.Errorf("invalid multipart form: %w", err)))
		return nil, nil, false
	}
	file, hdr, err := r.FormFile("file")
	if err != nil {
		writeError(w, h.Logger, "Upload", apperr.Validation(errors.New("file field is required")))
		return nil, nil, false
	}
	if hdr.Size > h.limit() {
		_ = file.Close()
		writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "file too large"})
		return nil, nil, false
	}
	return file, hdr, true
}

func (h *ImageHandler) Upload(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	// без права записи тело не читаем: multipart буферизуется на диск
	if err := h.Gateway.CheckUpload(r.Context(), id, chi.URLParam(r, "id")); err != nil {
		writeError(w, h.Logger, "UploadImage", err)
		return
	}
	file, hdr, ok := h.formFile(w, r)
	if !ok {
		return
	}
	defer file.Close()
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	img, err := h.Gateway.UploadImage(r.Context(), id, chi.URLParam(r, "id"), hdr.Filename, file, hdr.Size)
	if err != nil {
		writeError(w, h.Logger, "UploadImage", err)
		return
	}
	writeJSON(w, http.StatusCreated, img)
}

func (h *ImageHandler) Import(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	var req ImportRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.Logger, "ImportImageURL", err)
		return
	}
	img, err := h.Gateway.ImportImageURL(r.Context(), id, chi.URLParam(r, "id"), req.Name, req.URL)
	if err != nil {
		writeError(w, h.Logger, "ImportImageURL", err)
		return
	}
	writeJSON(w, http.StatusCreated, img)
}

// Mockup генерирует мокап из загруженного исходника (поля file, prompt, color).
func (h *ImageHandler) Mockup(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	if err := h.Gateway.CheckUpload(r.Context(), id, chi.URLParam(r, "id")); err != nil {
		writeError(w, h.Logger, "Mockup", err)
		return
	}
	file, hdr, ok := h.formFile(w, r)
	if !ok {
		return
	}
	defer file.Close()
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, h.Logger, "Mockup", fmt.Errorf("read source: %w", err))
		return
	}
	img, err := h.Gateway.GenerateMockup(r.Context(), id, chi.URLParam(r, "id"), service.MockupInput{
		SourceName: hdr.Filename,
		Source:     data,
		Prompt:     r.FormValue("prompt"),
		Color:      r.FormValue("color"),
	})
	if err != nil {
		writeError(w, h.Logger, "Mockup", err)
		return
	}
	writeJSON(w, http.StatusCreated, img)
}

func (h *ImageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	if err := h.Gateway.DeleteImage(r.Context(), id, chi.URLParam(r, "id")); err != nil {
		writeError(w, h.Logger, "DeleteImage", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
