package models

import "strings"

// TaskStatus represents the lifecycle state of a task
type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusInProgress TaskStatus = "inprogress"
	StatusCompleted  TaskStatus = "completed"
)

// TaskStatusValues returns the canonical status strings
func TaskStatusValues() []string {
	return []string{string(StatusPending), string(StatusInProgress), string(StatusCompleted)}
}

// ParseTaskStatus resolves a case-insensitive status string to its canonical value
func ParseTaskStatus(s string) (TaskStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(StatusPending):
		return StatusPending, true
	case string(StatusInProgress):
		return StatusInProgress, true
	case string(StatusCompleted):
		return StatusCompleted, true
	}
	return "", false
}

// Next cycles pending -> inprogress -> completed -> pending
func (s TaskStatus) Next() TaskStatus {
	switch s {
	case StatusPending:
		return StatusInProgress
	case StatusInProgress:
		return StatusCompleted
	default:
		return StatusPending
	}
}

// TaskPriority represents the urgency of a task
type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
)

// TaskPriorityValues returns the canonical priority strings
func TaskPriorityValues() []string {
	return []string{string(PriorityLow), string(PriorityMedium), string(PriorityHigh)}
}

// ParseTaskPriority resolves a case-insensitive priority string to its canonical value
func ParseTaskPriority(s string) (TaskPriority, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(PriorityLow):
		return PriorityLow, true
	case string(PriorityMedium):
		return PriorityMedium, true
	case string(PriorityHigh):
		return PriorityHigh, true
	}
	return "", false
}

// OperationType identifies the lifecycle transition captured by a task log entry
type OperationType string

const (
	OperationCreated  OperationType = "created"
	OperationUpdated  OperationType = "updated"
	OperationDeleted  OperationType = "deleted"
	OperationRestored OperationType = "restored"
)

// ParseOperationType resolves a case-insensitive operation string
func ParseOperationType(s string) (OperationType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(OperationCreated):
		return OperationCreated, true
	case string(OperationUpdated):
		return OperationUpdated, true
	case string(OperationDeleted):
		return OperationDeleted, true
	case string(OperationRestored):
		return OperationRestored, true
	}
	return "", false
}

// Role represents a user's system-wide role
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// ParseRole resolves a case-insensitive role string
func ParseRole(s string) (Role, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(RoleAdmin):
		return RoleAdmin, true
	case string(RoleUser):
		return RoleUser, true
	}
	return "", false
}
