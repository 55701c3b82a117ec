package model

import "time"

// Folder — папка с изображениями. Создаётся и удаляется только администратором.
type Folder struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Name      string    `gorm:"size:255;not null;uniqueIndex" json:"name"`
	Slug      string    `gorm:"size:255;not null" json:"slug"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// Assignment связывает пользователя и папку; пара уникальна.
type Assignment struct {
	UserID   string `gorm:"primaryKey;size:36"`
	FolderID string `gorm:"primaryKey;size:36;index"`

	User   *User   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Folder *Folder `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (Assignment) TableName() string { return "folder_assignments" }
