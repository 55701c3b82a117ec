package service

import (
	"ImageHub/internal/blob"
	"ImageHub/internal/generative"
	"ImageHub/internal/model"
	"ImageHub/internal/repo"
	"context"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

const cdnBase = "https://cdn.test"

// mockStore — blob.Store, записывающий вызовы Put/Delete.
type mockStore struct{ mock.Mock }

func (m *mockStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	data, _ := io.ReadAll(r)
	args := m.Called(ctx, key, string(data), contentType)
	return args.String(0), args.Error(1)
}

func (m *mockStore) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *mockStore) KeyForURL(url string) (string, bool) {
	key, ok := strings.CutPrefix(url, cdnBase+"/")
	return key, ok && key != ""
}

var _ blob.Store = (*mockStore)(nil)

type mockProvider struct{ mock.Mock }

func (m *mockProvider) Generate(ctx context.Context, req generative.Request) (generative.Result, error) {
	args := m.Called(ctx, req)
	res, _ := args.Get(0).(generative.Result)
	return res, args.Error(1)
}

var _ generative.Provider = (*mockProvider)(nil)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", uuid.NewString())
	db, err := gorm.Open(gormsqlite.Dialector{DriverName: "sqlite", DSN: dsn}, &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, repo.Migrate(db))
	return db
}

// env — сервисы поверх реальных sqlite-репозиториев и мок-хранилища.
type env struct {
	db      *gorm.DB
	store   *mockStore
	users   *UserService
	folders *FolderService
	images  *ImageService
	now     time.Time
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := newTestDB(t)
	log := zap.NewNop().Sugar()
	store := &mockStore{}
	tx := repo.NewTxManager(db)

	userRepo := repo.NewUserRepository(db)
	folderRepo := repo.NewFolderRepository(db)
	assignRepo := repo.NewAssignmentRepository(db)
	imageRepo := repo.NewImageRepository(db)

	e := &env{db: db, store: store, now: time.UnixMilli(1714561200123).UTC()}
	e.users = NewUserService(userRepo, assignRepo, tx, WithBcryptCost(bcrypt.MinCost))
	e.folders = NewFolderService(folderRepo, assignRepo, userRepo, imageRepo, store, tx, log)
	e.images = NewImageService(imageRepo, folderRepo, store, tx, log, WithNow(func() time.Time { return e.now }), WithKeyID(func() string { return "k1" }))
	return e
}

func (e *env) member(t *testing.T, name string) *model.User {
	t.Helper()
	u, err := e.users.CreateUser(context.Background(), name, "password123", model.RoleMember)
	require.NoError(t, err)
	return u
}

func (e *env) folder(t *testing.T, name string) *model.Folder {
	t.Helper()
	f, err := e.folders.CreateFolder(context.Background(), name)
	require.NoError(t, err)
	return f
}

// pngBytes — минимальная сигнатура PNG для определения типа.
func pngBytes(payload string) []byte {
	return append([]byte("\x89PNG\r\n\x1a\n"), payload...)
}
