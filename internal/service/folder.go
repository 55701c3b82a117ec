package service

import (
	"ImageHub/internal/apperr"
	"ImageHub/internal/blob"
	"ImageHub/internal/model"
	"ImageHub/internal/repo"
	"context"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"go.uber.org/zap"
)

// FolderService — реестр папок и назначений.
type FolderService struct {
	folders     repo.FolderRepository
	assignments repo.AssignmentRepository
	users       repo.UserRepository
	images      repo.ImageRepository
	store       blob.Store
	tx          repo.TxManager
	logger      *zap.SugaredLogger
}

func NewFolderService(
	folders repo.FolderRepository,
	assignments repo.AssignmentRepository,
	users repo.UserRepository,
	images repo.ImageRepository,
	store blob.Store,
	tx repo.TxManager,
	logger *zap.SugaredLogger,
) *FolderService {
	return &FolderService{
		folders:     folders,
		assignments: assignments,
		users:       users,
		images:      images,
		store:       store,
		tx:          tx,
		logger:      logger,
	}
}

// CreateFolder: имя уникально, slug выводится из имени.
func (s *FolderService) CreateFolder(ctx context.Context, name string) (*model.Folder, error) {
	name = strings.TrimSpace(name)
	if err := validation.Validate(name, validation.Required, validation.Length(1, 128)); err != nil {
		return nil, apperr.Validation(fmt.Errorf("name: %w", err))
	}
	f := &model.Folder{Name: name, Slug: blob.Slugify(name)}
	if err := s.folders.Create(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

func (s *FolderService) Get(ctx context.Context, id string) (*model.Folder, error) {
	return s.folders.GetByID(ctx, id)
}

func (s *FolderService) ListAll(ctx context.Context) ([]model.Folder, error) {
	return s.folders.List(ctx)
}

// FoldersVisibleTo: админу — все папки, участнику — назначенные, по имени.
func (s *FolderService) FoldersVisibleTo(ctx context.Context, user model.Identity) ([]model.Folder, error) {
	if user.IsAdmin() {
		return s.folders.List(ctx)
	}
	return s.folders.ListForUser(ctx, user.UserID)
}

// ForUser — папки, назначенные конкретному пользователю.
func (s *FolderService) ForUser(ctx context.Context, userID string) ([]model.Folder, error) {
	return s.folders.ListForUser(ctx, userID)
}

// DeleteFolder удаляет объекты хранилища, затем строки изображений и папки.
// Любая ошибка хранилища откатывает транзакцию: метаданные остаются на месте.
func (s *FolderService) DeleteFolder(ctx context.Context, id string) error {
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.folders.GetByID(ctx, id); err != nil {
			return err
		}
		images, err := s.images.ListByFolder(ctx, id)
		if err != nil {
			return fmt.Errorf("list images: %w", err)
		}
		for _, img := range images {
			key, ok := s.store.KeyForURL(img.URL)
			if !ok {
				continue
			}
			if err := s.store.Delete(ctx, key); err != nil {
				s.logger.Warnw("blob delete failed, folder delete aborted",
					"folder_id", id, "image_id", img.ID, "key", key, "err", err)
				return err
			}
		}
		if _, err := s.images.DeleteByFolder(ctx, id); err != nil {
			return fmt.Errorf("delete images: %w", err)
		}
		if err := s.assignments.DeleteByFolder(ctx, id); err != nil {
			return fmt.Errorf("delete assignments: %w", err)
		}
		return s.folders.Delete(ctx, id)
	})
}

// Assign идемпотентна. Пользователь и папка проверяются в транзакции вставки,
// так что параллельный DeleteFolder не оставит назначение на удалённую папку.
func (s *FolderService) Assign(ctx context.Context, userID, folderID string) error {
	var created bool
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.users.GetByID(ctx, userID); err != nil {
			return err
		}
		if err := s.folders.Lock(ctx, folderID); err != nil {
			return err
		}
		var err error
		created, err = s.assignments.Add(ctx, userID, folderID)
		if err != nil {
			return fmt.Errorf("assign: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if created {
		s.logger.Infow("user assigned to folder", "user_id", userID, "folder_id", folderID)
	}
	return nil
}

// Unassign идемпотентна: отсутствующая пара — не ошибка.
func (s *FolderService) Unassign(ctx context.Context, userID, folderID string) error {
	return s.assignments.Remove(ctx, userID, folderID)
}
