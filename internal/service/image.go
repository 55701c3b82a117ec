package service

import (
	"ImageHub/internal/apperr"
	"ImageHub/internal/blob"
	"ImageHub/internal/model"
	"ImageHub/internal/repo"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"go.uber.org/zap"
)

// ImportPlaceholderName — имя импортированного изображения, если из URL его не вывести.
const ImportPlaceholderName = "imported-image"

var ErrNotImage = errors.New("file is not an image")

// ImageService — реестр изображений; согласует метаданные с blob-хранилищем.
type ImageService struct {
	images  repo.ImageRepository
	folders repo.FolderRepository
	store   blob.Store
	tx      repo.TxManager
	logger  *zap.SugaredLogger
	now     func() time.Time
	keyID   func() string
}

type ImageOption func(*ImageService)

// WithKeyID подменяет генератор уникального сегмента ключа.
func WithKeyID(keyID func() string) ImageOption {
	return func(s *ImageService) { s.keyID = keyID }
}

// WithNow подменяет часы для ключей и времени загрузки.
func WithNow(now func() time.Time) ImageOption {
	return func(s *ImageService) { s.now = now }
}

func NewImageService(images repo.ImageRepository, folders repo.FolderRepository, store blob.Store, tx repo.TxManager, logger *zap.SugaredLogger, opts ...ImageOption) *ImageService {
	s := &ImageService{images: images, folders: folders, store: store, tx: tx, logger: logger, now: time.Now, keyID: blob.NewKeyID}
	for _, o := range opts {
		o(s)
	}
	return s
}

// RecordUpload сохраняет метаданные уже загруженного в хранилище объекта.
// Папка проверяется в той же транзакции, что и вставка: удалённая к этому моменту
// папка даёт apperr.ErrNotFound, а не строку без папки.
func (s *ImageService) RecordUpload(ctx context.Context, name, location, folderID string) (*model.Image, error) {
	img := &model.Image{
		Name:       name,
		URL:        location,
		FolderID:   folderID,
		UploadedAt: s.now().UTC(),
	}
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.folders.Lock(ctx, folderID); err != nil {
			return err
		}
		return s.images.Create(ctx, img)
	})
	if err != nil {
		return nil, fmt.Errorf("record image: %w", err)
	}
	return img, nil
}

// RecordURLImport сохраняет внешний URL без обращения к хранилищу.
// Пустое имя выводится из последнего сегмента пути.
func (s *ImageService) RecordURLImport(ctx context.Context, name, rawURL, folderID string) (*model.Image, error) {
	rawURL = strings.TrimSpace(rawURL)
	err := validation.Validate(rawURL, validation.Required, validation.Length(1, 2048), is.URL)
	if err != nil {
		return nil, apperr.Validation(fmt.Errorf("url: %w", err))
	}
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, apperr.Validation(errors.New("url: only http and https are supported"))
	}
	if name = strings.TrimSpace(name); name == "" {
		name = NameFromURL(u)
	}
	return s.RecordUpload(ctx, name, u.String(), folderID)
}

// NameFromURL берёт последний сегмент пути.
func NameFromURL(u *url.URL) string {
	p := strings.TrimRight(u.Path, "/")
	if p == "" {
		return ImportPlaceholderName
	}
	base := path.Base(p)
	if unescaped, err := url.PathUnescape(base); err == nil {
		base = unescaped
	}
	if base == "" || base == "." || base == "/" {
		return ImportPlaceholderName
	}
	return base
}

// Upload: сначала объект в хранилище, потом строка в БД.
// Сбой записи в БД оставляет в хранилище безвредный осиротевший объект.
func (s *ImageService) Upload(ctx context.Context, folder *model.Folder, filename string, r io.Reader, size int64) (*model.Image, error) {
	head := make([]byte, 512)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	head = head[:n]
	if n == 0 {
		return nil, apperr.Validation(errors.New("file is empty"))
	}
	contentType := http.DetectContentType(head)
	if !strings.HasPrefix(contentType, "image/") {
		return nil, apperr.Validation(ErrNotImage)
	}
	return s.put(ctx, folder, displayName(filename), contentType, io.MultiReader(bytes.NewReader(head), r), size)
}

// UploadBytes — то же для уже прочитанных данных с известным типом (результат генерации).
func (s *ImageService) UploadBytes(ctx context.Context, folder *model.Folder, name, contentType string, data []byte) (*model.Image, error) {
	return s.put(ctx, folder, displayName(name), contentType, bytes.NewReader(data), int64(len(data)))
}

func (s *ImageService) put(ctx context.Context, folder *model.Folder, name, contentType string, r io.Reader, size int64) (*model.Image, error) {
	key := blob.NewKey(folder.Slug, s.keyID(), s.now(), name)
	location, err := s.store.Put(ctx, key, r, size, contentType)
	if err != nil {
		s.logger.Warnw("blob put failed", "folder_id", folder.ID, "key", key, "err", err)
		return nil, err
	}
	return s.RecordUpload(ctx, name, location, folder.ID)
}

func displayName(filename string) string {
	name := path.Base(strings.ReplaceAll(strings.TrimSpace(filename), "\\", "/"))
	if name == "" || name == "." || name == "/" {
		return "image"
	}
	return name
}

// DeleteImage удаляет объект хранилища, затем строку; ошибка хранилища откатывает всё.
// Внешние (импортированные) URL в хранилище не удаляются.
func (s *ImageService) DeleteImage(ctx context.Context, id string) error {
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		img, err := s.images.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if key, ok := s.store.KeyForURL(img.URL); ok {
			if err := s.store.Delete(ctx, key); err != nil {
				s.logger.Warnw("blob delete failed, image kept", "image_id", id, "key", key, "err", err)
				return err
			}
		}
		return s.images.Delete(ctx, id)
	})
}

func (s *ImageService) Get(ctx context.Context, id string) (*model.Image, error) {
	return s.images.GetByID(ctx, id)
}

func (s *ImageService) ListByFolder(ctx context.Context, folderID string) ([]model.Image, error) {
	return s.images.ListByFolder(ctx, folderID)
}
