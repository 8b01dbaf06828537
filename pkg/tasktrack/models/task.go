package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Task represents a tracked unit of work
type Task struct {
	ID          uint              `gorm:"primarykey" json:"id"`
	CreatedAt   time.Time         `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
	DeletedAt   gorm.DeletedAt    `gorm:"index" json:"-"`
	Title       string            `gorm:"size:100;not null;index" json:"title"`
	Description string            `json:"description"`
	Status      TaskStatus        `gorm:"type:varchar(10);not null;default:'pending';index" json:"status"`
	Priority    TaskPriority      `gorm:"type:varchar(10);not null;default:'medium';index" json:"priority"`
	DueDate     *time.Time        `gorm:"index" json:"due_date"`
	AssignedTo  *uint             `gorm:"index" json:"assigned_to"`
	Version     int               `gorm:"not null;default:1" json:"version"`
	Metadata    datatypes.JSONMap `json:"metadata"`

	// Relationships
	AssignedUser *User `gorm:"foreignKey:AssignedTo" json:"assigned_user,omitempty"`
	Tags         []Tag `gorm:"many2many:task_tags;" json:"tags,omitempty"`
}
