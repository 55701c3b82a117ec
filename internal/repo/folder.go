package repo

import (
	"ImageHub/internal/apperr"
	"ImageHub/internal/model"
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FolderRepository — хранилище папок.
type FolderRepository interface {
	// Create вставляет папку; занятое имя даёт apperr.ErrConflict.
	Create(ctx context.Context, folder *model.Folder) error
	GetByID(ctx context.Context, id string) (*model.Folder, error)
	// Lock — проверка существования с разделяемой блокировкой; вызывать внутри WithinTx.
	Lock(ctx context.Context, id string) error
	// List возвращает все папки по имени (по возрастанию).
	List(ctx context.Context) ([]model.Folder, error)
	// ListForUser возвращает папки, назначенные пользователю, по имени.
	ListForUser(ctx context.Context, userID string) ([]model.Folder, error)
	Delete(ctx context.Context, id string) error
}

type folderRepo struct {
	db *gorm.DB
}

func NewFolderRepository(db *gorm.DB) FolderRepository {
	return &folderRepo{db: db}
}

func (r *folderRepo) Create(ctx context.Context, folder *model.Folder) error {
	if folder.ID == "" {
		folder.ID = uuid.NewString()
	}
	tx := conn(ctx, r.db).Clauses(clause.OnConflict{DoNothing: true}).Create(folder)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return fmt.Errorf("folder %q: %w", folder.Name, apperr.ErrConflict)
	}
	return nil
}

func (r *folderRepo) GetByID(ctx context.Context, id string) (*model.Folder, error) {
	var f model.Folder
	if err := conn(ctx, r.db).Where("id = ?", id).First(&f).Error; err != nil {
		return nil, notFound(err, "folder")
	}
	return &f, nil
}

func (r *folderRepo) Lock(ctx context.Context, id string) error {
	return lockShared(conn(ctx, r.db), &model.Folder{}, id, "folder")
}

func (r *folderRepo) List(ctx context.Context) ([]model.Folder, error) {
	folders := []model.Folder{}
	if err := conn(ctx, r.db).Order("name ASC").Find(&folders).Error; err != nil {
		return nil, err
	}
	return folders, nil
}

func (r *folderRepo) ListForUser(ctx context.Context, userID string) ([]model.Folder, error) {
	folders := []model.Folder{}
	err := conn(ctx, r.db).
		Joins("JOIN folder_assignments fa ON fa.folder_id = folders.id").
		Where("fa.user_id = ?", userID).
		Order("folders.name ASC").
		Find(&folders).Error
	if err != nil {
		return nil, err
	}
	return folders, nil
}

func (r *folderRepo) Delete(ctx context.Context, id string) error {
	tx := conn(ctx, r.db).Where("id = ?", id).Delete(&model.Folder{})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return fmt.Errorf("folder %s: %w", id, apperr.ErrNotFound)
	}
	return nil
}
