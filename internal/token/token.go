// Package token выпускает и проверяет подписанные JWT (HS256), несущие идентичность и роль.
// Состояния на сервере нет: отзыв токена не поддерживается, logout удаляет токен на клиенте.
package token

import (
	"ImageHub/internal/apperr"
	"ImageHub/internal/model"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrExpired      = fmt.Errorf("token expired: %w", apperr.ErrUnauthenticated)
	ErrMalformed    = fmt.Errorf("token malformed: %w", apperr.ErrUnauthenticated)
	ErrBadSignature = fmt.Errorf("token signature invalid: %w", apperr.ErrUnauthenticated)
)

// DefaultTTL — время жизни токена по умолчанию.
const DefaultTTL = 7 * 24 * time.Hour

// Token — выпущенный токен и момент его истечения.
type Token struct {
	Value     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type claims struct {
	Role model.Role `json:"role"`
	jwt.RegisteredClaims
}

// Issuer подписывает и проверяет токены общим секретом процесса.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

type Option func(*Issuer)

// WithClock подменяет источник времени (для тестов).
func WithClock(now func() time.Time) Option {
	return func(i *Issuer) { i.now = now }
}

func NewIssuer(secret []byte, ttl time.Duration, opts ...Option) *Issuer {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	i := &Issuer{secret: secret, ttl: ttl, now: time.Now}
	for _, o := range opts {
		o(i)
	}
	return i
}

// Issue кодирует {sub, role, iat, exp} и подписывает его.
func (i *Issuer) Issue(user *model.User) (Token, error) {
	if user == nil || user.ID == "" {
		return Token{}, errors.New("issue token: empty user")
	}
	now := i.now().UTC().Truncate(time.Second)
	exp := now.Add(i.ttl)
	c := claims{
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(i.secret)
	if err != nil {
		return Token{}, fmt.Errorf("sign token: %w", err)
	}
	return Token{Value: s, ExpiresAt: exp}, nil
}

// Verify проверяет подпись и срок и возвращает идентичность.
func (i *Issuer) Verify(raw string) (model.Identity, error) {
	if raw == "" {
		return model.Identity{}, ErrMalformed
	}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
		jwt.WithExpirationRequired(),
	)
	var c claims
	_, err := parser.ParseWithClaims(raw, &c, func(*jwt.Token) (any, error) {
		return i.secret, nil
	})
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenExpired):
		return model.Identity{}, ErrExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return model.Identity{}, ErrBadSignature
	default:
		return model.Identity{}, ErrMalformed
	}

	role, err := model.ParseRole(string(c.Role))
	if err != nil || c.Subject == "" {
		return model.Identity{}, ErrMalformed
	}
	return model.Identity{UserID: c.Subject, Role: role}, nil
}
