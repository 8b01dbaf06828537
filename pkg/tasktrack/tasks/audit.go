package tasks

import (
	"time"

	"github.com/kvarkey/tasktrack/pkg/tasktrack/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const dueDateLayout = "2006-01-02"

// recordAudit persists one immutable log row for a task lifecycle
// transition. It must run inside the same transaction as the mutation:
// a mutation without its audit entry is a correctness violation, so a
// failure here rolls back the whole operation.
func recordAudit(tx *gorm.DB, op models.OperationType, taskID uint, changes map[string]interface{}, createdBy *uint) error {
	entry := models.TaskLog{
		TaskID:        taskID,
		OperationType: op,
		Changes:       datatypes.JSONMap(changes),
		CreatedByID:   createdBy,
	}
	return tx.Create(&entry).Error
}

// recordUpdated logs an updated transition, suppressing entries that
// carry no meaningful change. A diff touching only the soft-delete
// marker is the byproduct of a delete or restore, which already produce
// their own entries.
func recordUpdated(tx *gorm.DB, taskID uint, changes map[string]interface{}, createdBy *uint) error {
	delete(changes, "deleted_at")
	if len(changes) == 0 {
		return nil
	}
	return recordAudit(tx, models.OperationUpdated, taskID, changes, createdBy)
}

// snapshot captures the full attribute set of a task for a created entry
func snapshot(task *models.Task) map[string]interface{} {
	return map[string]interface{}{
		"id":          task.ID,
		"title":       task.Title,
		"description": task.Description,
		"status":      string(task.Status),
		"priority":    string(task.Priority),
		"due_date":    formatDueDate(task.DueDate),
		"assigned_to": task.AssignedTo,
		"version":     task.Version,
		"metadata":    map[string]interface{}(task.Metadata),
	}
}

func formatDueDate(d *time.Time) interface{} {
	if d == nil {
		return nil
	}
	return d.Format(dueDateLayout)
}
