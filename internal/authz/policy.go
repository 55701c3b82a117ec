// Package authz решает, может ли идентичность выполнить действие над ресурсом.
// Политика запрещает всё, что явно не разрешено, и не хранит состояния:
// единственный ввод-вывод — проверка наличия назначения пользователя на папку.
package authz

import (
	"ImageHub/internal/apperr"
	"ImageHub/internal/model"
	"context"
	"fmt"
)

type Action string

const (
	ListAllUsers           Action = "ListAllUsers"
	CreateUser             Action = "CreateUser"
	DeleteUser             Action = "DeleteUser"
	ChangeOwnPassword      Action = "ChangeOwnPassword"
	ListAllFolders         Action = "ListAllFolders"
	CreateFolder           Action = "CreateFolder"
	DeleteFolder           Action = "DeleteFolder"
	AssignUserToFolder     Action = "AssignUserToFolder"
	UnassignUserFromFolder Action = "UnassignUserFromFolder"
	ListFoldersForUser     Action = "ListFoldersForUser"
	ListImagesInFolder     Action = "ListImagesInFolder"
	UploadImage            Action = "UploadImage"
	DeleteImage            Action = "DeleteImage"
)

// Resource — ресурс, над которым выполняется действие.
// Поля заполняет вызывающий (gateway) после чтения, нужного для решения.
type Resource struct {
	UserID   string     // целевой пользователь
	UserRole model.Role // роль целевого пользователя (DeleteUser)
	FolderID string     // папка; для изображения — папка, в которой оно лежит
	ImageID  string
	// Missing — ссылка на несуществующий объект.
	Missing bool
}

type Kind int

const (
	KindNone Kind = iota
	KindForbidden
	KindNotFound
	// KindUnavailable — не удалось проверить назначение (ошибка хранилища).
	KindUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not found"
	case KindUnavailable:
		return "unavailable"
	default:
		return "none"
	}
}

// Decision — результат проверки.
type Decision struct {
	Allowed bool
	Kind    Kind
	Reason  string
	cause   error
}

func Allow() Decision { return Decision{Allowed: true} }

func deny(kind Kind, reason string) Decision {
	return Decision{Kind: kind, Reason: reason}
}

// Err превращает отказ в ошибку таксономии apperr; для разрешения — nil.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	switch d.Kind {
	case KindNotFound:
		return fmt.Errorf("%s: %w", d.Reason, apperr.ErrNotFound)
	case KindUnavailable:
		return fmt.Errorf("%s: %w", d.Reason, d.cause)
	default:
		return fmt.Errorf("%s: %w", d.Reason, apperr.ErrForbidden)
	}
}

// AssignmentChecker отвечает, назначен ли пользователь на папку.
type AssignmentChecker interface {
	IsAssigned(ctx context.Context, userID, folderID string) (bool, error)
}

type Policy struct {
	assignments AssignmentChecker
}

func NewPolicy(assignments AssignmentChecker) *Policy {
	return &Policy{assignments: assignments}
}

// Authorize детерминирован для одних и тех же входов и состояния назначений.
func (p *Policy) Authorize(ctx context.Context, actor model.Identity, action Action, res Resource) Decision {
	if actor.UserID == "" || !actor.Role.Valid() {
		return deny(KindForbidden, "anonymous actor")
	}

	switch action {
	case ListAllUsers, CreateUser, ListAllFolders, CreateFolder:
		return adminOnly(actor, Resource{})

	case DeleteFolder, AssignUserToFolder, UnassignUserFromFolder:
		return adminOnly(actor, res)

	case DeleteUser:
		if d := adminOnly(actor, res); !d.Allowed {
			return d
		}
		if res.UserRole.IsAdmin() {
			return deny(KindForbidden, "admin accounts cannot be deleted")
		}
		return Allow()

	case ChangeOwnPassword:
		if res.UserID == "" || res.UserID != actor.UserID {
			return deny(KindForbidden, "password can be changed by its owner only")
		}
		return Allow()

	case ListFoldersForUser:
		if actor.IsAdmin() {
			if res.Missing {
				return deny(KindNotFound, "user not found")
			}
			return Allow()
		}
		if res.UserID != "" && res.UserID == actor.UserID {
			return Allow()
		}
		return deny(KindForbidden, "folders of another user")

	case ListImagesInFolder, UploadImage, DeleteImage:
		return p.folderAccess(ctx, actor, res)
	}

	return deny(KindNotFound, fmt.Sprintf("unknown action %q", action))
}

func adminOnly(actor model.Identity, res Resource) Decision {
	if !actor.IsAdmin() {
		return deny(KindForbidden, "admin role required")
	}
	if res.Missing {
		return deny(KindNotFound, "resource not found")
	}
	return Allow()
}

// folderAccess: админ видит всё; участник — только папки, на которые назначен.
// Для участника несуществующая папка неотличима от чужой.
func (p *Policy) folderAccess(ctx context.Context, actor model.Identity, res Resource) Decision {
	if actor.IsAdmin() {
		if res.Missing {
			return deny(KindNotFound, "resource not found")
		}
		return Allow()
	}
	if res.Missing || res.FolderID == "" {
		return deny(KindForbidden, "no access to folder")
	}
	ok, err := p.assignments.IsAssigned(ctx, actor.UserID, res.FolderID)
	if err != nil {
		d := deny(KindUnavailable, "check folder assignment")
		d.cause = err
		return d
	}
	if !ok {
		return deny(KindForbidden, "no access to folder")
	}
	return Allow()
}
