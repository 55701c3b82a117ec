package authz

import (
	"ImageHub/internal/apperr"
	"ImageHub/internal/model"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockChecker struct{ mock.Mock }

func (m *mockChecker) IsAssigned(ctx context.Context, userID, folderID string) (bool, error) {
	args := m.Called(ctx, userID, folderID)
	return args.Bool(0), args.Error(1)
}

var _ AssignmentChecker = (*mockChecker)(nil)

var (
	admin  = model.Identity{UserID: "a1", Role: model.RoleAdmin}
	member = model.Identity{UserID: "m1", Role: model.RoleMember}
)

func TestPolicy_AdminOnlyActions(t *testing.T) {
	p := NewPolicy(&mockChecker{})
	ctx := context.Background()

	for _, a := range []Action{
		ListAllUsers, CreateUser, ListAllFolders, CreateFolder,
		DeleteFolder, AssignUserToFolder, UnassignUserFromFolder, DeleteUser,
	} {
		t.Run(string(a), func(t *testing.T) {
			res := Resource{UserID: "m2", UserRole: model.RoleMember, FolderID: "f1"}
			assert.True(t, p.Authorize(ctx, admin, a, res).Allowed)

			d := p.Authorize(ctx, member, a, res)
			assert.False(t, d.Allowed)
			assert.Equal(t, KindForbidden, d.Kind)
			assert.ErrorIs(t, d.Err(), apperr.ErrForbidden)
		})
	}
}

func TestPolicy_DeleteUser_AdminTargetDenied(t *testing.T) {
	p := NewPolicy(&mockChecker{})
	d := p.Authorize(context.Background(), admin, DeleteUser, Resource{UserID: "a2", UserRole: model.RoleAdmin})
	assert.False(t, d.Allowed)
	assert.ErrorIs(t, d.Err(), apperr.ErrForbidden)

	// сам себя тоже нельзя
	d = p.Authorize(context.Background(), admin, DeleteUser, Resource{UserID: admin.UserID, UserRole: model.RoleAdmin})
	assert.False(t, d.Allowed)
}

func TestPolicy_AdminMissingResource(t *testing.T) {
	p := NewPolicy(&mockChecker{})
	ctx := context.Background()
	for _, a := range []Action{DeleteFolder, DeleteUser, ListImagesInFolder, DeleteImage, ListFoldersForUser} {
		d := p.Authorize(ctx, admin, a, Resource{FolderID: "x", UserID: "x", Missing: true})
		assert.False(t, d.Allowed, a)
		assert.ErrorIs(t, d.Err(), apperr.ErrNotFound, a)
	}
}

func TestPolicy_ChangeOwnPassword(t *testing.T) {
	p := NewPolicy(&mockChecker{})
	ctx := context.Background()

	assert.True(t, p.Authorize(ctx, member, ChangeOwnPassword, Resource{UserID: "m1"}).Allowed)
	assert.False(t, p.Authorize(ctx, member, ChangeOwnPassword, Resource{UserID: "m2"}).Allowed)
	// админ не меняет чужие пароли этим действием
	assert.False(t, p.Authorize(ctx, admin, ChangeOwnPassword, Resource{UserID: "m1"}).Allowed)
}

func TestPolicy_ListFoldersForUser(t *testing.T) {
	p := NewPolicy(&mockChecker{})
	ctx := context.Background()

	assert.True(t, p.Authorize(ctx, member, ListFoldersForUser, Resource{UserID: "m1"}).Allowed)
	assert.True(t, p.Authorize(ctx, admin, ListFoldersForUser, Resource{UserID: "m1"}).Allowed)
	d := p.Authorize(ctx, member, ListFoldersForUser, Resource{UserID: "m2"})
	assert.ErrorIs(t, d.Err(), apperr.ErrForbidden)
}

func TestPolicy_FolderScoped(t *testing.T) {
	ctx := context.Background()
	actions := []Action{ListImagesInFolder, UploadImage, DeleteImage}

	t.Run("assigned member allowed", func(t *testing.T) {
		c := &mockChecker{}
		c.On("IsAssigned", mock.Anything, "m1", "f1").Return(true, nil)
		p := NewPolicy(c)
		for _, a := range actions {
			assert.True(t, p.Authorize(ctx, member, a, Resource{FolderID: "f1", ImageID: "i1"}).Allowed, a)
		}
	})

	t.Run("unassigned member forbidden", func(t *testing.T) {
		c := &mockChecker{}
		c.On("IsAssigned", mock.Anything, "m1", "f1").Return(false, nil)
		p := NewPolicy(c)
		for _, a := range actions {
			d := p.Authorize(ctx, member, a, Resource{FolderID: "f1"})
			assert.ErrorIs(t, d.Err(), apperr.ErrForbidden, a)
		}
	})

	t.Run("missing folder looks like foreign folder to member", func(t *testing.T) {
		c := &mockChecker{}
		p := NewPolicy(c)
		missing := p.Authorize(ctx, member, ListImagesInFolder, Resource{FolderID: "nope", Missing: true})
		assert.Equal(t, KindForbidden, missing.Kind)
		c.AssertNotCalled(t, "IsAssigned", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("admin needs no assignment", func(t *testing.T) {
		c := &mockChecker{}
		p := NewPolicy(c)
		for _, a := range actions {
			assert.True(t, p.Authorize(ctx, admin, a, Resource{FolderID: "f1"}).Allowed, a)
		}
		c.AssertNotCalled(t, "IsAssigned", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("lookup error", func(t *testing.T) {
		boom := errors.New("db down")
		c := &mockChecker{}
		c.On("IsAssigned", mock.Anything, "m1", "f1").Return(false, boom)
		d := NewPolicy(c).Authorize(ctx, member, UploadImage, Resource{FolderID: "f1"})
		assert.False(t, d.Allowed)
		assert.Equal(t, KindUnavailable, d.Kind)
		assert.ErrorIs(t, d.Err(), boom)
	})
}

func TestPolicy_DenyByDefault(t *testing.T) {
	p := NewPolicy(&mockChecker{})
	ctx := context.Background()

	d := p.Authorize(ctx, admin, Action("DropDatabase"), Resource{})
	assert.False(t, d.Allowed)
	assert.ErrorIs(t, d.Err(), apperr.ErrNotFound)

	d = p.Authorize(ctx, model.Identity{}, ListAllFolders, Resource{})
	assert.False(t, d.Allowed)
	d = p.Authorize(ctx, model.Identity{UserID: "x", Role: "admin"}, ListAllFolders, Resource{})
	assert.False(t, d.Allowed, "non-canonical role must not pass")
	assert.Nil(t, Allow().Err())
}

func TestPolicy_Deterministic(t *testing.T) {
	c := &mockChecker{}
	c.On("IsAssigned", mock.Anything, "m1", "f1").Return(true, nil)
	c.On("IsAssigned", mock.Anything, "m1", "f2").Return(false, nil)
	p := NewPolicy(c)
	ctx := context.Background()

	actors := []model.Identity{admin, member}
	all := []Action{
		ListAllUsers, CreateUser, DeleteUser, ChangeOwnPassword, ListAllFolders, CreateFolder,
		DeleteFolder, AssignUserToFolder, UnassignUserFromFolder, ListFoldersForUser,
		ListImagesInFolder, UploadImage, DeleteImage,
	}
	resources := []Resource{
		{UserID: "m1", FolderID: "f1"},
		{UserID: "m2", UserRole: model.RoleAdmin, FolderID: "f2"},
		{FolderID: "f1", Missing: true},
	}
	for _, a := range actors {
		for _, act := range all {
			for _, r := range resources {
				first := p.Authorize(ctx, a, act, r)
				second := p.Authorize(ctx, a, act, r)
				assert.Equal(t, first, second)
			}
		}
	}
}
