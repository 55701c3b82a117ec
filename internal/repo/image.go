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

// ImageRepository — метаданные изображений.
type ImageRepository interface {
	Create(ctx context.Context, img *model.Image) error
	GetByID(ctx context.Context, id string) (*model.Image, error)
	// ListByFolder — сначала самые новые.
	ListByFolder(ctx context.Context, folderID string) ([]model.Image, error)
	Delete(ctx context.Context, id string) error
	DeleteByFolder(ctx context.Context, folderID string) (int64, error)
}

type imageRepo struct {
	db *gorm.DB
}

func NewImageRepository(db *gorm.DB) ImageRepository {
	return &imageRepo{db: db}
}

func (r *imageRepo) Create(ctx context.Context, img *model.Image) error {
	if img.ID == "" {
		img.ID = uuid.NewString()
	}
	return foreignKey(conn(ctx, r.db).Omit(clause.Associations).Create(img).Error, "folder")
}

func (r *imageRepo) GetByID(ctx context.Context, id string) (*model.Image, error) {
	var img model.Image
	if err := conn(ctx, r.db).Where("id = ?", id).First(&img).Error; err != nil {
		return nil, notFound(err, "image")
	}
	return &img, nil
}

func (r *imageRepo) ListByFolder(ctx context.Context, folderID string) ([]model.Image, error) {
	images := []model.Image{}
	err := conn(ctx, r.db).
		Where("folder_id = ?", folderID).
		Order("uploaded_at DESC").Order("id ASC").
		Find(&images).Error
	if err != nil {
		return nil, err
	}
	return images, nil
}

func (r *imageRepo) Delete(ctx context.Context, id string) error {
	tx := conn(ctx, r.db).Where("id = ?", id).Delete(&model.Image{})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return fmt.Errorf("image %s: %w", id, apperr.ErrNotFound)
	}
	return nil
}

func (r *imageRepo) DeleteByFolder(ctx context.Context, folderID string) (int64, error) {
	tx := conn(ctx, r.db).Where("folder_id = ?", folderID).Delete(&model.Image{})
	return tx.RowsAffected, tx.Error
}
