// Package blob хранит байты изображений и отдаёт их публичные URL.
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
)

var ErrInvalidKey = errors.New("invalid blob key")

// Store — внешнее хранилище объектов.
type Store interface {
	// Put сохраняет объект и возвращает его долговечный публичный URL.
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
	// Delete удаляет объект; отсутствующий объект — не ошибка.
	Delete(ctx context.Context, key string) error
	// KeyForURL восстанавливает ключ из URL; ok=false, если URL не принадлежит хранилищу.
	KeyForURL(url string) (key string, ok bool)
}

// NewKey: <folder-slug>/<id>/<unix-millis>-<filename>.
// id разводит одноимённые загрузки в одну миллисекунду, в том числе из разных папок
// с одинаковым slug ("A b" и "a-b"). Пустой id заменяется случайным.
func NewKey(folderSlug, id string, at time.Time, filename string) string {
	if strings.TrimSpace(id) == "" {
		id = NewKeyID()
	}
	id = SanitizeFilename(id)
	slug := Slugify(folderSlug)
	return fmt.Sprintf("%s/%s/%d-%s", slug, id, at.UnixMilli(), SanitizeFilename(filename))
}

// NewKeyID — короткий случайный сегмент ключа.
func NewKeyID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// Slugify: нижний регистр, любые серии не букв/цифр → "-".
func Slugify(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	s := strings.TrimRight(b.String(), "-")
	if s == "" {
		return "folder"
	}
	return s
}

// SanitizeFilename отрезает пути и заменяет небезопасные символы на "_".
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(name)
	var b strings.Builder
	for _, r := range name {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	s := strings.TrimLeft(b.String(), ".")
	if s == "" {
		return "file"
	}
	return s
}

func validKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	for _, part := range strings.Split(key, "/") {
		if part == "" || part == "." || part == ".." {
			return fmt.Errorf("%w: %q", ErrInvalidKey, key)
		}
	}
	return nil
}

// urls связывает ключи с публичными URL вида <base>/<key>.
type urls struct {
	base string
}

func newURLs(publicURL string) urls {
	return urls{base: strings.TrimRight(publicURL, "/")}
}

func (u urls) URL(key string) string {
	return u.base + "/" + key
}

func (u urls) KeyForURL(raw string) (string, bool) {
	if u.base == "" {
		return "", false
	}
	// query и fragment к ключу не относятся
	if i := strings.IndexAny(raw, "?#"); i >= 0 {
		raw = raw[:i]
	}
	key, found := strings.CutPrefix(raw, u.base+"/")
	if !found || validKey(key) != nil {
		return "", false
	}
	return key, true
}
