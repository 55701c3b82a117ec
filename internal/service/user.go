package service

import (
	"ImageHub/internal/apperr"
	"ImageHub/internal/model"
	"ImageHub/internal/repo"
	"context"
	"errors"
	"fmt"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"golang.org/x/crypto/bcrypt"
)

var usernameRe = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// UserService — хранилище учётных данных: проверка пароля, создание, смена пароля.
type UserService struct {
	users       repo.UserRepository
	assignments repo.AssignmentRepository
	tx          repo.TxManager
	cost        int
	dummyHash   []byte
}

type UserOption func(*UserService)

// WithBcryptCost меняет стоимость bcrypt (в тестах — bcrypt.MinCost).
func WithBcryptCost(cost int) UserOption {
	return func(s *UserService) { s.cost = cost }
}

func NewUserService(users repo.UserRepository, assignments repo.AssignmentRepository, tx repo.TxManager, opts ...UserOption) *UserService {
	s := &UserService{users: users, assignments: assignments, tx: tx, cost: bcrypt.DefaultCost}
	for _, o := range opts {
		o(s)
	}
	// хеш для сравнения при неизвестном логине: время ответа не выдаёт существование пользователя
	s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("imagehub-dummy-password"), s.cost)
	return s
}

func validateCredentials(username, password string) error {
	err := validation.Errors{
		"username": validation.Validate(username,
			validation.Required, validation.Length(3, 64), validation.Match(usernameRe)),
		"password": validation.Validate(password,
			validation.Required, validation.Length(8, 128)),
	}.Filter()
	if err != nil {
		return apperr.Validation(err)
	}
	return nil
}

func validatePassword(password string) error {
	if err := validation.Validate(password, validation.Required, validation.Length(8, 128)); err != nil {
		return apperr.Validation(fmt.Errorf("password: %w", err))
	}
	return nil
}

// Verify возвращает ErrInvalidCredentials одинаково для неизвестного логина и неверного пароля.
func (s *UserService) Verify(ctx context.Context, username, password string) (*model.User, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
			return nil, apperr.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, apperr.ErrInvalidCredentials
	}
	return u, nil
}

// CreateUser хеширует пароль и сохраняет пользователя с заданной ролью.
func (s *UserService) CreateUser(ctx context.Context, username, password string, role model.Role) (*model.User, error) {
	if err := validateCredentials(username, password); err != nil {
		return nil, err
	}
	if !role.Valid() {
		return nil, apperr.Validation(model.ErrUnknownRole)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &model.User{Username: username, PasswordHash: string(hash), Role: role}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// SetPassword перезаписывает хеш; история не хранится.
func (s *UserService) SetPassword(ctx context.Context, userID, password string) error {
	if err := validatePassword(password); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.users.UpdatePasswordHash(ctx, userID, string(hash))
}

// ChangePassword — смена пароля владельцем с проверкой текущего.
func (s *UserService) ChangePassword(ctx context.Context, userID, current, next string) error {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(current)); err != nil {
		return apperr.ErrInvalidCredentials
	}
	return s.SetPassword(ctx, userID, next)
}

func (s *UserService) Get(ctx context.Context, id string) (*model.User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *UserService) List(ctx context.Context) ([]model.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []model.User{}
	}
	return users, nil
}

// Delete удаляет пользователя вместе с его назначениями. Администратора удалить нельзя.
func (s *UserService) Delete(ctx context.Context, id string) error {
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		u, err := s.users.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if u.Role.IsAdmin() {
			return fmt.Errorf("delete admin %s: %w", id, apperr.ErrForbidden)
		}
		if err := s.assignments.DeleteByUser(ctx, id); err != nil {
			return fmt.Errorf("delete assignments: %w", err)
		}
		return s.users.Delete(ctx, id)
	})
}

// EnsureAdmin создаёт администратора при старте, если логин свободен.
func (s *UserService) EnsureAdmin(ctx context.Context, username, password string) (bool, error) {
	_, err := s.users.GetByUsername(ctx, username)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return false, err
	}
	if _, err := s.CreateUser(ctx, username, password, model.RoleAdmin); err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
