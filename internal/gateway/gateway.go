// Package gateway собирает операции ImageHub из трёх шагов: идентичность из токена,
// решение политики, вызов реестра. Пока политика не разрешила действие,
// gateway не пишет ничего и читает только то, что нужно самой политике.
package gateway

import (
	"ImageHub/internal/apperr"
	"ImageHub/internal/authz"
	"ImageHub/internal/model"
	"ImageHub/internal/service"
	"ImageHub/internal/token"
	"context"
	"errors"
	"io"

	"go.uber.org/zap"
)

// Gateway — единственная точка входа транспорта в ядро.
type Gateway struct {
	users   *service.UserService
	folders *service.FolderService
	images  *service.ImageService
	mockups *service.MockupService
	policy  *authz.Policy
	issuer  *token.Issuer
	logger  *zap.SugaredLogger
}

func New(
	users *service.UserService,
	folders *service.FolderService,
	images *service.ImageService,
	mockups *service.MockupService,
	policy *authz.Policy,
	issuer *token.Issuer,
	logger *zap.SugaredLogger,
) *Gateway {
	return &Gateway{
		users:   users,
		folders: folders,
		images:  images,
		mockups: mockups,
		policy:  policy,
		issuer:  issuer,
		logger:  logger,
	}
}

// Session — результат успешного входа.
type Session struct {
	Token token.Token
	User  *model.User
}

// Login проверяет учётные данные и выпускает токен.
func (g *Gateway) Login(ctx context.Context, username, password string) (*Session, error) {
	u, err := g.users.Verify(ctx, username, password)
	if err != nil {
		return nil, err
	}
	t, err := g.issuer.Issue(u)
	if err != nil {
		return nil, err
	}
	g.logger.Infow("user logged in", "user_id", u.ID, "role", u.Role)
	return &Session{Token: t, User: u}, nil
}

// Authenticate восстанавливает идентичность из токена.
func (g *Gateway) Authenticate(raw string) (model.Identity, error) {
	return g.issuer.Verify(raw)
}

func (g *Gateway) authorize(ctx context.Context, actor model.Identity, action authz.Action, res authz.Resource) error {
	d := g.policy.Authorize(ctx, actor, action, res)
	if d.Allowed {
		return nil
	}
	g.logger.Warnw("access denied",
		"actor_id", actor.UserID,
		"action", action,
		"folder_id", res.FolderID,
		"user_id", res.UserID,
		"image_id", res.ImageID,
		"kind", d.Kind,
	)
	return d.Err()
}

// Me возвращает учётную запись текущего пользователя.
func (g *Gateway) Me(ctx context.Context, actor model.Identity) (*model.User, error) {
	u, err := g.users.Get(ctx, actor.UserID)
	if errors.Is(err, apperr.ErrNotFound) {
		// токен пережил удалённую учётную запись
		return nil, apperr.ErrUnauthenticated
	}
	return u, err
}

func (g *Gateway) ChangePassword(ctx context.Context, actor model.Identity, userID, current, next string) error {
	if err := g.authorize(ctx, actor, authz.ChangeOwnPassword, authz.Resource{UserID: userID}); err != nil {
		return err
	}
	return g.users.ChangePassword(ctx, userID, current, next)
}

func (g *Gateway) ListUsers(ctx context.Context, actor model.Identity) ([]model.User, error) {
	if err := g.authorize(ctx, actor, authz.ListAllUsers, authz.Resource{}); err != nil {
		return nil, err
	}
	return g.users.List(ctx)
}

// CreateUser создаёт участника; администраторы появляются только при старте сервера.
func (g *Gateway) CreateUser(ctx context.Context, actor model.Identity, username, password string) (*model.User, error) {
	if err := g.authorize(ctx, actor, authz.CreateUser, authz.Resource{}); err != nil {
		return nil, err
	}
	u, err := g.users.CreateUser(ctx, username, password, model.RoleMember)
	if err != nil {
		return nil, err
	}
	g.logger.Infow("user created", "actor_id", actor.UserID, "user_id", u.ID)
	return u, nil
}

func (g *Gateway) DeleteUser(ctx context.Context, actor model.Identity, userID string) error {
	res := authz.Resource{UserID: userID}
	// роль цели нужна политике только для администратора: участнику отказывают раньше
	if actor.IsAdmin() {
		target, err := g.users.Get(ctx, userID)
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			res.Missing = true
		case err != nil:
			return err
		default:
			res.UserRole = target.Role
		}
	}
	if err := g.authorize(ctx, actor, authz.DeleteUser, res); err != nil {
		return err
	}
	if err := g.users.Delete(ctx, userID); err != nil {
		return err
	}
	g.logger.Infow("user deleted", "actor_id", actor.UserID, "user_id", userID)
	return nil
}

// ListFolders: администратору — все папки, участнику — назначенные.
func (g *Gateway) ListFolders(ctx context.Context, actor model.Identity) ([]model.Folder, error) {
	if actor.IsAdmin() {
		if err := g.authorize(ctx, actor, authz.ListAllFolders, authz.Resource{}); err != nil {
			return nil, err
		}
		return g.folders.ListAll(ctx)
	}
	return g.FoldersForUser(ctx, actor, actor.UserID)
}

func (g *Gateway) CreateFolder(ctx context.Context, actor model.Identity, name string) (*model.Folder, error) {
	if err := g.authorize(ctx, actor, authz.CreateFolder, authz.Resource{}); err != nil {
		return nil, err
	}
	f, err := g.folders.CreateFolder(ctx, name)
	if err != nil {
		return nil, err
	}
	g.logger.Infow("folder created", "actor_id", actor.UserID, "folder_id", f.ID, "name", f.Name)
	return f, nil
}

func (g *Gateway) DeleteFolder(ctx context.Context, actor model.Identity, folderID string) error {
	if err := g.authorize(ctx, actor, authz.DeleteFolder, authz.Resource{FolderID: folderID}); err != nil {
		return err
	}
	if err := g.folders.DeleteFolder(ctx, folderID); err != nil {
		return err
	}
	g.logger.Infow("folder deleted", "actor_id", actor.UserID, "folder_id", folderID)
	return nil
}

func (g *Gateway) Assign(ctx context.Context, actor model.Identity, userID, folderID string) error {
	res := authz.Resource{UserID: userID, FolderID: folderID}
	if err := g.authorize(ctx, actor, authz.AssignUserToFolder, res); err != nil {
		return err
	}
	return g.folders.Assign(ctx, userID, folderID)
}

func (g *Gateway) Unassign(ctx context.Context, actor model.Identity, userID, folderID string) error {
	res := authz.Resource{UserID: userID, FolderID: folderID}
	if err := g.authorize(ctx, actor, authz.UnassignUserFromFolder, res); err != nil {
		return err
	}
	return g.folders.Unassign(ctx, userID, folderID)
}

func (g *Gateway) FoldersForUser(ctx context.Context, actor model.Identity, userID string) ([]model.Folder, error) {
	res := authz.Resource{UserID: userID}
	if actor.IsAdmin() {
		if _, err := g.users.Get(ctx, userID); errors.Is(err, apperr.ErrNotFound) {
			res.Missing = true
		} else if err != nil {
			return nil, err
		}
	}
	if err := g.authorize(ctx, actor, authz.ListFoldersForUser, res); err != nil {
		return nil, err
	}
	return g.folders.ForUser(ctx, userID)
}

// folderResource: для администратора нужна проверка существования папки,
// участнику хватает проверки назначения.
func (g *Gateway) folderResource(ctx context.Context, actor model.Identity, folderID string) (authz.Resource, error) {
	res := authz.Resource{FolderID: folderID}
	if !actor.IsAdmin() {
		return res, nil
	}
	if _, err := g.folders.Get(ctx, folderID); errors.Is(err, apperr.ErrNotFound) {
		res.Missing = true
	} else if err != nil {
		return res, err
	}
	return res, nil
}

// writableFolder авторизует UploadImage и возвращает саму папку (нужен slug для ключа).
func (g *Gateway) writableFolder(ctx context.Context, actor model.Identity, folderID string) (*model.Folder, error) {
	res, err := g.folderResource(ctx, actor, folderID)
	if err != nil {
		return nil, err
	}
	if err := g.authorize(ctx, actor, authz.UploadImage, res); err != nil {
		return nil, err
	}
	return g.folders.Get(ctx, folderID)
}

// CheckUpload проверяет право записи в папку без чтения тела запроса.
// Транспорт вызывает её до разбора загрузки; UploadImage и GenerateMockup проверяют ещё раз.
func (g *Gateway) CheckUpload(ctx context.Context, actor model.Identity, folderID string) error {
	_, err := g.writableFolder(ctx, actor, folderID)
	return err
}

func (g *Gateway) ImagesInFolder(ctx context.Context, actor model.Identity, folderID string) ([]model.Image, error) {
	res, err := g.folderResource(ctx, actor, folderID)
	if err != nil {
		return nil, err
	}
	if err := g.authorize(ctx, actor, authz.ListImagesInFolder, res); err != nil {
		return nil, err
	}
	return g.images.ListByFolder(ctx, folderID)
}

func (g *Gateway) UploadImage(ctx context.Context, actor model.Identity, folderID, filename string, r io.Reader, size int64) (*model.Image, error) {
	f, err := g.writableFolder(ctx, actor, folderID)
	if err != nil {
		return nil, err
	}
	img, err := g.images.Upload(ctx, f, filename, r, size)
	if err != nil {
		return nil, err
	}
	g.logger.Infow("image uploaded", "actor_id", actor.UserID, "folder_id", folderID, "image_id", img.ID)
	return img, nil
}

func (g *Gateway) ImportImageURL(ctx context.Context, actor model.Identity, folderID, name, rawURL string) (*model.Image, error) {
	f, err := g.writableFolder(ctx, actor, folderID)
	if err != nil {
		return nil, err
	}
	return g.images.RecordURLImport(ctx, name, rawURL, f.ID)
}

func (g *Gateway) GenerateMockup(ctx context.Context, actor model.Identity, folderID string, in service.MockupInput) (*model.Image, error) {
	f, err := g.writableFolder(ctx, actor, folderID)
	if err != nil {
		return nil, err
	}
	return g.mockups.Generate(ctx, f, in)
}

// DeleteImage: папка изображения читается до решения политики, иначе не проверить назначение.
func (g *Gateway) DeleteImage(ctx context.Context, actor model.Identity, imageID string) error {
	res := authz.Resource{ImageID: imageID}
	img, err := g.images.Get(ctx, imageID)
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		res.Missing = true
	case err != nil:
		return err
	default:
		res.FolderID = img.FolderID
	}
	if err := g.authorize(ctx, actor, authz.DeleteImage, res); err != nil {
		return err
	}
	if err := g.images.DeleteImage(ctx, imageID); err != nil {
		return err
	}
	g.logger.Infow("image deleted", "actor_id", actor.UserID, "image_id", imageID)
	return nil
}
