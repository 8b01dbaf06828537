package models

import (
	"time"

	"gorm.io/datatypes"
)

// TaskLog is an append-only record of a task lifecycle transition.
// There is deliberately no UpdatedAt and no DeletedAt: log rows are
// immutable and survive the soft deletion of their task.
type TaskLog struct {
	ID            uint              `gorm:"primarykey" json:"id"`
	CreatedAt     time.Time         `json:"created_at"`
	TaskID        uint              `gorm:"not null;index" json:"task_id"`
	OperationType OperationType     `gorm:"type:varchar(10);not null" json:"operation_type"`
	Changes       datatypes.JSONMap `json:"changes"`
	CreatedByID   *uint             `gorm:"column:created_by" json:"created_by_id"`

	// Relationships
	CreatedBy *User `gorm:"foreignKey:CreatedByID" json:"created_by,omitempty"`
}
