package middleware

import (
	"ImageHub/internal/model"
	"ImageHub/internal/token"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"
)

// CookieName — cookie с токеном для браузерного клиента.
const CookieName = "auth_token"

// Verifier восстанавливает идентичность из токена.
type Verifier interface {
	Verify(raw string) (model.Identity, error)
}

// VerifierFunc адаптирует функцию к Verifier.
type VerifierFunc func(raw string) (model.Identity, error)

func (f VerifierFunc) Verify(raw string) (model.Identity, error) { return f(raw) }

type identityKey struct{}

// SetLoginCookie кладёт токен в HttpOnly cookie со сроком жизни токена.
func SetLoginCookie(w http.ResponseWriter, t token.Token, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    t.Value,
		Path:     "/",
		Expires:  t.ExpiresAt,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearLoginCookie удаляет cookie; сам токен остаётся валидным до истечения.
func ClearLoginCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// TokenFromRequest: заголовок Authorization: Bearer важнее cookie.
func TokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if raw, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(raw)
		}
	}
	if c, err := r.Cookie(CookieName); err == nil {
		return c.Value
	}
	return ""
}

// WithAuth кладёт идентичность в контекст, если токен валиден; иначе запрос идёт дальше анонимным.
func WithAuth(v Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := TokenFromRequest(r)
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}
			id, err := v.Verify(raw)
			if err != nil {
				sugar.Debugw("token rejected", "error", err)
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// RequireAuth отвечает 401 анонимным запросам.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetIdentity(r.Context()); !ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "unauthenticated"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func WithIdentity(ctx context.Context, id model.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// GetIdentity достаёт идентичность текущего запроса.
func GetIdentity(ctx context.Context) (model.Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(model.Identity)
	return id, ok
}
