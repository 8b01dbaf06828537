package models

import (
	"time"

	"gorm.io/gorm"
)

// Tag represents a tag that can be applied to tasks.
// Name uniqueness is enforced by the tag service against live rows
// only, so a soft-deleted tag does not lock its name; a DB unique
// index would reject the re-creation.
type Tag struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	Name      string         `gorm:"size:100;not null;index" json:"name"`
	Color     string         `gorm:"size:20" json:"color"`

	// Relationships
	Tasks []Task `gorm:"many2many:task_tags;" json:"tasks,omitempty"`
}
