package repo

import (
	"ImageHub/internal/model"
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AssignmentRepository — связь пользователь↔папка.
type AssignmentRepository interface {
	// Add идемпотентна: существующая пара не ошибка, created=false.
	Add(ctx context.Context, userID, folderID string) (created bool, err error)
	// Remove идемпотентна: отсутствующая пара не ошибка.
	Remove(ctx context.Context, userID, folderID string) error
	IsAssigned(ctx context.Context, userID, folderID string) (bool, error)
	DeleteByFolder(ctx context.Context, folderID string) error
	DeleteByUser(ctx context.Context, userID string) error
}

type assignmentRepo struct {
	db *gorm.DB
}

func NewAssignmentRepository(db *gorm.DB) AssignmentRepository {
	return &assignmentRepo{db: db}
}

func (r *assignmentRepo) Add(ctx context.Context, userID, folderID string) (bool, error) {
	a := &model.Assignment{UserID: userID, FolderID: folderID}
	tx := conn(ctx, r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "folder_id"}},
		DoNothing: true,
	}).Omit(clause.Associations).Create(a)
	if tx.Error != nil {
		return false, foreignKey(tx.Error, "user or folder")
	}
	return tx.RowsAffected > 0, nil
}

func (r *assignmentRepo) Remove(ctx context.Context, userID, folderID string) error {
	return conn(ctx, r.db).
		Where("user_id = ? AND folder_id = ?", userID, folderID).
		Delete(&model.Assignment{}).Error
}

func (r *assignmentRepo) IsAssigned(ctx context.Context, userID, folderID string) (bool, error) {
	var n int64
	err := conn(ctx, r.db).Model(&model.Assignment{}).
		Where("user_id = ? AND folder_id = ?", userID, folderID).
		Count(&n).Error
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *assignmentRepo) DeleteByFolder(ctx context.Context, folderID string) error {
	return conn(ctx, r.db).Where("folder_id = ?", folderID).Delete(&model.Assignment{}).Error
}

func (r *assignmentRepo) DeleteByUser(ctx context.Context, userID string) error {
	return conn(ctx, r.db).Where("user_id = ?", userID).Delete(&model.Assignment{}).Error
}
