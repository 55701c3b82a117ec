package model

import (
	"errors"
	"strings"
	"time"
)

// Role — роль пользователя. Хранится всегда в верхнем регистре.
type Role string

const (
	RoleAdmin  Role = "ADMIN"
	RoleMember Role = "MEMBER"
)

var ErrUnknownRole = errors.New("unknown role")

// ParseRole нормализует роль на границе системы (регистр и пробелы не важны).
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", ErrUnknownRole
	}
	return r, nil
}

// Valid — роль одна из двух допустимых.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleMember
}

func (r Role) IsAdmin() bool { return r == RoleAdmin }

// User — серверная модель пользователя.
type User struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	Username     string    `gorm:"size:64;not null;uniqueIndex" json:"username"`
	PasswordHash string    `gorm:"not null" json:"-"`
	Role         Role      `gorm:"size:16;not null;default:MEMBER" json:"role"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// Identity — кто выполняет запрос; восстанавливается из токена на каждый запрос.
type Identity struct {
	UserID string
	Role   Role
}

func (i Identity) IsAdmin() bool { return i.Role.IsAdmin() }
