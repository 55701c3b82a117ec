package handlers_test

import (
	"ImageHub/internal/authz"
	"ImageHub/internal/blob"
	"ImageHub/internal/config"
	"ImageHub/internal/gateway"
	"ImageHub/internal/handlers"
	"ImageHub/internal/model"
	"ImageHub/internal/repo"
	"ImageHub/internal/service"
	"ImageHub/internal/token"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
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

// mockStore — blob.Store, записывающий вызовы.
type mockStore struct{ mock.Mock }

func (m *mockStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	_, _ = io.Copy(io.Discard, r)
	args := m.Called(ctx, key, contentType)
	return args.String(0), args.Error(1)
}

func (m *mockStore) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *mockStore) KeyForURL(url string) (string, bool) {
	key, ok := strings.CutPrefix(url, cdnBase+"/")
	return key, ok && key != ""
}

var _ blob.Store = (*mockStore)(nil)

type testServer struct {
	router http.Handler
	store  *mockStore
	cfg    *config.Config
	admin  *model.User
	member *model.User
}

func newTestServer(t *testing.T, store blob.Store, cdn http.Handler, opts ...func(*config.Config)) *testServer {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(gormsqlite.Dialector{DriverName: "sqlite", DSN: dsn}, &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, repo.Migrate(db))

	cfg := &config.Config{AuthSecret: "test-secret", ImageMaxSizeMB: 1, TokenTTL: time.Hour}
	for _, o := range opts {
		o(cfg)
	}
	log := zap.NewNop().Sugar()

	tx := repo.NewTxManager(db)
	userRepo := repo.NewUserRepository(db)
	folderRepo := repo.NewFolderRepository(db)
	assignRepo := repo.NewAssignmentRepository(db)
	imageRepo := repo.NewImageRepository(db)

	users := service.NewUserService(userRepo, assignRepo, tx, service.WithBcryptCost(bcrypt.MinCost))
	folders := service.NewFolderService(folderRepo, assignRepo, userRepo, imageRepo, store, tx, log)
	now := time.UnixMilli(1714561200123)
	images := service.NewImageService(imageRepo, folderRepo, store, tx, log, service.WithNow(func() time.Time { return now }), service.WithKeyID(func() string { return "k1" }))
	mockups := service.NewMockupService(nil, images, log)
	issuer := token.NewIssuer([]byte(cfg.AuthSecret), cfg.TokenTTL)
	gw := gateway.New(users, folders, images, mockups, authz.NewPolicy(assignRepo), issuer, log)

	ctx := context.Background()
	admin, err := users.CreateUser(ctx, "admin", "admin-password", model.RoleAdmin)
	require.NoError(t, err)
	member, err := users.CreateUser(ctx, "member1", "member-password", model.RoleMember)
	require.NoError(t, err)

	ts := &testServer{
		router: handlers.NewHandler(gw, cdn, log, cfg).Router,
		cfg:    cfg,
		admin:  admin,
		member: member,
	}
	if ms, ok := store.(*mockStore); ok {
		ts.store = ms
	}
	return ts
}

// login выполняет вход через API и возвращает токен.
func (s *testServer) login(t *testing.T, username, password string) string {
	t.Helper()
	rr := s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"username": username, "password": password})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp.Token
}

func (s *testServer) do(t *testing.T, method, path, tok string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	return rr
}

func (s *testServer) upload(t *testing.T, path, tok, filename string, data []byte, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+tok)
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func pngBytes(payload string) []byte {
	return append([]byte("\x89PNG\r\n\x1a\n"), payload...)
}

func serve(s *testServer, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	return rr
}
