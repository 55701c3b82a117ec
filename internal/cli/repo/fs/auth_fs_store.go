package fs

import (
	"ImageHub/internal/cli/repo"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrNoToken — токен ещё не сохранён (не было login или был logout).
var ErrNoToken = errors.New("not logged in")

// TokenFileStore — файловое хранилище токена для CLI.
type TokenFileStore struct {
	Path string
}

var _ repo.TokenStore = TokenFileStore{}

// Save сохраняет auth‑токен в файл, создавая каталог с правами 0700.
func (s TokenFileStore) Save(token string) error {
	if token == "" {
		return errors.New("empty token")
	}
	if s.Path == "" {
		return errors.New("token file path is not configured")
	}
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(s.Path, []byte(token), 0o600)
}

// Load читает auth‑токен из файла.
func (s TokenFileStore) Load() (string, error) {
	b, err := os.ReadFile(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", ErrNoToken
	}
	if err != nil {
		return "", err
	}
	// обрезаем завершающие переводы строки/пробелы
	tok := strings.TrimSpace(string(b))
	if tok == "" {
		return "", ErrNoToken
	}
	return tok, nil
}

// Clear удаляет файл токена; отсутствие файла не ошибка.
func (s TokenFileStore) Clear() error {
	if err := os.Remove(s.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
