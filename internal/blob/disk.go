package blob

import (
	"ImageHub/internal/apperr"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// DiskStore хранит объекты в локальном каталоге; сервер раздаёт их через Handler.
type DiskStore struct {
	dir string
	urls
}

func NewDiskStore(dir, publicURL string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create blob dir: %w", err)
	}
	return &DiskStore{dir: dir, urls: newURLs(publicURL)}, nil
}

func (s *DiskStore) path(key string) string {
	return filepath.Join(s.dir, filepath.FromSlash(key))
}

func (s *DiskStore) Put(ctx context.Context, key string, r io.Reader, _ int64, _ string) (string, error) {
	if err := validKey(key); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	dst := s.path(key)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", apperr.Upstream("disk put", err)
	}

	// пишем во временный файл и переименовываем, чтобы не оставлять обрезанных объектов
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".upload-*")
	if err != nil {
		return "", apperr.Upstream("disk put", err)
	}
	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return "", apperr.Upstream("disk put", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return "", apperr.Upstream("disk put", err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		_ = os.Remove(tmp.Name())
		return "", apperr.Upstream("disk put", err)
	}
	return s.URL(key), nil
}

func (s *DiskStore) Delete(ctx context.Context, key string) error {
	if err := validKey(key); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Remove(s.path(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return apperr.Upstream("disk delete", err)
	}
	return nil
}

// Handler раздаёт объекты только на чтение, без листинга каталогов.
func (s *DiskStore) Handler() http.Handler {
	files := http.FileServer(http.Dir(s.dir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimPrefix(r.URL.Path, "/")
		if validKey(key) != nil || strings.HasPrefix(filepath.Base(key), ".") {
			http.NotFound(w, r)
			return
		}
		if fi, err := os.Stat(s.path(key)); err != nil || fi.IsDir() {
			http.NotFound(w, r)
			return
		}
		files.ServeHTTP(w, r)
	})
}
