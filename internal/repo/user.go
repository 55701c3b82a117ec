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

// UserRepository — хранилище учётных записей.
type UserRepository interface {
	// Create вставляет пользователя; занятый username даёт apperr.ErrConflict.
	Create(ctx context.Context, user *model.User) error
	// GetByUsername ищет по точному (регистрозависимому) совпадению.
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
	List(ctx context.Context) ([]model.User, error)
	UpdatePasswordHash(ctx context.Context, id, hash string) error
	Delete(ctx context.Context, id string) error
}

type userRepo struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) Create(ctx context.Context, user *model.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	tx := conn(ctx, r.db).Clauses(clause.OnConflict{DoNothing: true}).Create(user)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return fmt.Errorf("username %q: %w", user.Username, apperr.ErrConflict)
	}
	return nil
}

func (r *userRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	var u model.User
	if err := conn(ctx, r.db).Where("username = ?", username).First(&u).Error; err != nil {
		return nil, notFound(err, "user")
	}
	return &u, nil
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	if err := conn(ctx, r.db).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, notFound(err, "user")
	}
	return &u, nil
}

func (r *userRepo) List(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := conn(ctx, r.db).Order("username ASC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepo) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	tx := conn(ctx, r.db).Model(&model.User{}).Where("id = ?", id).Update("password_hash", hash)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return fmt.Errorf("user %s: %w", id, apperr.ErrNotFound)
	}
	return nil
}

func (r *userRepo) Delete(ctx context.Context, id string) error {
	tx := conn(ctx, r.db).Where("id = ?", id).Delete(&model.User{})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return fmt.Errorf("user %s: %w", id, apperr.ErrNotFound)
	}
	return nil
}
