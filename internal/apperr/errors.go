// Package apperr — общие для всех слоёв ImageHub виды ошибок.
// Слои оборачивают эти значения контекстом, HTTP-слой переводит их в статусы через errors.Is.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCredentials одинакова для неизвестного логина и неверного пароля.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrForbidden          = errors.New("forbidden")
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("already exists")
	// ErrUpstream — сбой blob-хранилища или генеративного провайдера.
	ErrUpstream   = errors.New("upstream failure")
	ErrValidation = errors.New("validation failed")
)

// ValidationError несёт ошибки полей, найденные при валидации запроса.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %v", ErrValidation, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Is: errors.Is(err, ErrValidation) срабатывает для любой ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Validation оборачивает err в ValidationError; nil остаётся nil.
func Validation(err error) error {
	if err == nil {
		return nil
	}
	return &ValidationError{Err: err}
}

// Upstream помечает сбой внешнего сервиса как ErrUpstream.
func Upstream(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrUpstream, err)
}
