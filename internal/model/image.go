package model

import "time"

// Image — метаданные изображения. URL — единственный способ найти blob для удаления.
type Image struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	Name       string    `gorm:"size:255;not null" json:"name"`
	URL        string    `gorm:"size:2048;not null" json:"url"`
	FolderID   string    `gorm:"size:36;not null;index:idx_images_folder_uploaded,priority:1" json:"folder_id"`
	Folder     *Folder   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	UploadedAt time.Time `gorm:"not null;index:idx_images_folder_uploaded,priority:2" json:"uploaded_at"`
}
