package gateway

import (
	"ImageHub/internal/apperr"
	"ImageHub/internal/authz"
	"ImageHub/internal/blob"
	"ImageHub/internal/model"
	"ImageHub/internal/repo"
	"ImageHub/internal/service"
	"ImageHub/internal/token"
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
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

type fixture struct {
	gw     *Gateway
	store  *mockStore
	users  *service.UserService
	admin  model.Identity
	member model.Identity
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(gormsqlite.Dialector{DriverName: "sqlite", DSN: dsn}, &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, repo.Migrate(db))

	log := zap.NewNop().Sugar()
	store := &mockStore{}
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
	issuer := token.NewIssuer([]byte("test-secret"), time.Hour)

	f := &fixture{
		gw:    New(users, folders, images, mockups, authz.NewPolicy(assignRepo), issuer, log),
		store: store,
		users: users,
	}
	ctx := context.Background()
	a, err := users.CreateUser(ctx, "admin", "admin-password", model.RoleAdmin)
	require.NoError(t, err)
	m, err := users.CreateUser(ctx, "member1", "member-password", model.RoleMember)
	require.NoError(t, err)
	f.admin = model.Identity{UserID: a.ID, Role: a.Role}
	f.member = model.Identity{UserID: m.ID, Role: m.Role}
	return f
}

func pngBytes(payload string) []byte {
	return append([]byte("\x89PNG\r\n\x1a\n"), payload...)
}

func TestGateway_Login(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	s, err := f.gw.Login(ctx, "member1", "member-password")
	require.NoError(t, err)
	assert.Equal(t, f.member.UserID, s.User.ID)

	id, err := f.gw.Authenticate(s.Token.Value)
	require.NoError(t, err)
	assert.Equal(t, f.member, id)

	_, errWrong := f.gw.Login(ctx, "member1", "bad-password")
	_, errUnknown := f.gw.Login(ctx, "nobody", "bad-password")
	assert.ErrorIs(t, errWrong, apperr.ErrInvalidCredentials)
	assert.Equal(t, errWrong, errUnknown)

	_, err = f.gw.Authenticate("garbage")
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
}

func TestGateway_FolderScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	folder, err := f.gw.CreateFolder(ctx, f.admin, "Samples")
	require.NoError(t, err)
	require.NoError(t, f.gw.Assign(ctx, f.admin, f.member.UserID, folder.ID))

	got, err := f.gw.FoldersForUser(ctx, f.member, f.member.UserID)
	require.NoError(t, err)
	if assert.Len(t, got, 1) {
		assert.Equal(t, folder.ID, got[0].ID)
		assert.Equal(t, "Samples", got[0].Name)
	}
	list, err := f.gw.ListFolders(ctx, f.member)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, f.gw.Unassign(ctx, f.admin, f.member.UserID, folder.ID))
	got, err = f.gw.FoldersForUser(ctx, f.member, f.member.UserID)
	require.NoError(t, err)
	assert.Empty(t, got)

	// админ видит чужие списки; несуществующий пользователь — NotFound
	_, err = f.gw.FoldersForUser(ctx, f.admin, f.member.UserID)
	assert.NoError(t, err)
	_, err = f.gw.FoldersForUser(ctx, f.admin, "ghost")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	// участник не видит чужие
	_, err = f.gw.FoldersForUser(ctx, f.member, f.admin.UserID)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestGateway_MemberCannotManage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	folder, err := f.gw.CreateFolder(ctx, f.admin, "Samples")
	require.NoError(t, err)

	_, err = f.gw.CreateFolder(ctx, f.member, "Mine")
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	assert.ErrorIs(t, f.gw.DeleteFolder(ctx, f.member, folder.ID), apperr.ErrForbidden)
	assert.ErrorIs(t, f.gw.Assign(ctx, f.member, f.member.UserID, folder.ID), apperr.ErrForbidden)
	assert.ErrorIs(t, f.gw.Unassign(ctx, f.member, f.member.UserID, folder.ID), apperr.ErrForbidden)
	_, err = f.gw.ListUsers(ctx, f.member)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	_, err = f.gw.CreateUser(ctx, f.member, "other", "password123")
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	assert.ErrorIs(t, f.gw.DeleteUser(ctx, f.member, f.admin.UserID), apperr.ErrForbidden)

	all, err := f.gw.ListFolders(ctx, f.admin)
	require.NoError(t, err)
	assert.Len(t, all, 1, "denied calls must not change anything")
}

func TestGateway_UnassignedMemberVsAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	folder, err := f.gw.CreateFolder(ctx, f.admin, "Samples")
	require.NoError(t, err)

	key := "samples/k1/1714561200123-logo.png"
	f.store.On("Put", mock.Anything, key, "image/png").Return(cdnBase+"/"+key, nil)

	img, err := f.gw.UploadImage(ctx, f.admin, folder.ID, "logo.png", bytes.NewReader(pngBytes("a")), -1)
	require.NoError(t, err)
	assert.Equal(t, cdnBase+"/"+key, img.URL)

	// участник без назначения
	_, err = f.gw.ImagesInFolder(ctx, f.member, folder.ID)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	_, err = f.gw.UploadImage(ctx, f.member, folder.ID, "x.png", bytes.NewReader(pngBytes("b")), -1)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	_, err = f.gw.ImportImageURL(ctx, f.member, folder.ID, "", "https://example.com/a.png")
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	assert.ErrorIs(t, f.gw.CheckUpload(ctx, f.member, folder.ID), apperr.ErrForbidden)
	assert.ErrorIs(t, f.gw.CheckUpload(ctx, f.member, "no-such-folder"), apperr.ErrForbidden)
	assert.ErrorIs(t, f.gw.DeleteImage(ctx, f.member, img.ID), apperr.ErrForbidden)
	f.store.AssertNumberOfCalls(t, "Put", 1)
	f.store.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)

	// несуществующая папка для участника неотличима от чужой
	_, err = f.gw.ImagesInFolder(ctx, f.member, "no-such-folder")
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	assert.ErrorIs(t, f.gw.DeleteImage(ctx, f.member, "no-such-image"), apperr.ErrForbidden)

	// админ
	list, err := f.gw.ImagesInFolder(ctx, f.admin, folder.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
	_, err = f.gw.ImagesInFolder(ctx, f.admin, "no-such-folder")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.NoError(t, f.gw.CheckUpload(ctx, f.admin, folder.ID))
	assert.ErrorIs(t, f.gw.CheckUpload(ctx, f.admin, "no-such-folder"), apperr.ErrNotFound)
	assert.ErrorIs(t, f.gw.DeleteImage(ctx, f.admin, "no-such-image"), apperr.ErrNotFound)

	f.store.On("Delete", mock.Anything, key).Return(nil).Once()
	require.NoError(t, f.gw.DeleteImage(ctx, f.admin, img.ID))
	f.store.AssertExpectations(t)
}

func TestGateway_AssignedMember(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	folder, err := f.gw.CreateFolder(ctx, f.admin, "Samples")
	require.NoError(t, err)
	require.NoError(t, f.gw.Assign(ctx, f.admin, f.member.UserID, folder.ID))
	assert.NoError(t, f.gw.CheckUpload(ctx, f.member, folder.ID))

	key := "samples/k1/1714561200123-logo.png"
	f.store.On("Put", mock.Anything, key, "image/png").Return(cdnBase+"/"+key, nil).Once()
	img, err := f.gw.UploadImage(ctx, f.member, folder.ID, "logo.png", bytes.NewReader(pngBytes("a")), -1)
	require.NoError(t, err)

	imported, err := f.gw.ImportImageURL(ctx, f.member, folder.ID, "", "https://example.com/shop/a.png")
	require.NoError(t, err)
	assert.Equal(t, "a.png", imported.Name)

	list, err := f.gw.ImagesInFolder(ctx, f.member, folder.ID)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	f.store.On("Delete", mock.Anything, key).Return(nil).Once()
	require.NoError(t, f.gw.DeleteImage(ctx, f.member, img.ID))
	require.NoError(t, f.gw.DeleteImage(ctx, f.member, imported.ID))
	f.store.AssertExpectations(t)
}

func TestGateway_DeleteUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	other, err := f.gw.CreateUser(ctx, f.admin, "member2", "password123")
	require.NoError(t, err)
	assert.Equal(t, model.RoleMember, other.Role)

	_, err = f.gw.CreateUser(ctx, f.admin, "member2", "password123")
	assert.ErrorIs(t, err, apperr.ErrConflict)

	// администратора не удалить даже администратору
	assert.ErrorIs(t, f.gw.DeleteUser(ctx, f.admin, f.admin.UserID), apperr.ErrForbidden)
	assert.ErrorIs(t, f.gw.DeleteUser(ctx, f.admin, "ghost"), apperr.ErrNotFound)

	require.NoError(t, f.gw.DeleteUser(ctx, f.admin, other.ID))
	users, err := f.gw.ListUsers(ctx, f.admin)
	require.NoError(t, err)
	assert.Len(t, users, 2)
}

func TestGateway_ChangePassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.gw.ChangePassword(ctx, f.admin, f.member.UserID, "member-password", "new-password-1")
	assert.ErrorIs(t, err, apperr.ErrForbidden, "only the owner may change a password")

	require.NoError(t, f.gw.ChangePassword(ctx, f.member, f.member.UserID, "member-password", "new-password-1"))
	_, err = f.gw.Login(ctx, "member1", "new-password-1")
	assert.NoError(t, err)
}

func TestGateway_Me(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u, err := f.gw.Me(ctx, f.member)
	require.NoError(t, err)
	assert.Equal(t, "member1", u.Username)

	_, err = f.gw.Me(ctx, model.Identity{UserID: "gone", Role: model.RoleMember})
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
}

func TestGateway_MockupsDisabled(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	folder, err := f.gw.CreateFolder(ctx, f.admin, "Samples")
	require.NoError(t, err)

	_, err = f.gw.GenerateMockup(ctx, f.member, folder.ID, service.MockupInput{Source: pngBytes("x"), Prompt: "p"})
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	_, err = f.gw.GenerateMockup(ctx, f.admin, folder.ID, service.MockupInput{Source: pngBytes("x"), Prompt: "p"})
	assert.ErrorIs(t, err, apperr.ErrUpstream)
}
