package models

import (
	"time"
)

// User represents a user in the system
type User struct {
	ID           uint      `gorm:"primarykey" json:"id"`
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Name         string    `gorm:"size:100;not null;index" json:"name"`
	Email        string    `gorm:"size:100;uniqueIndex;not null" json:"email"`
	APIKey       string    `gorm:"column:api_key;uniqueIndex;not null" json:"-"`
	PasswordHash string    `gorm:"column:password;not null" json:"-"`
	Role         Role      `gorm:"type:varchar(10);not null;default:'user'" json:"role"`

	// Relationships
	AssignedTasks []Task    `gorm:"foreignKey:AssignedTo" json:"assigned_tasks,omitempty"`
	TaskLogs      []TaskLog `gorm:"foreignKey:CreatedByID" json:"task_logs,omitempty"`
}

// IsAdmin reports whether the user holds the admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
