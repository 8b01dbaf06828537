package tasks

import (
	"errors"
	"reflect"
	"time"

	"github.com/kvarkey/tasktrack/pkg/tasktrack/apperr"
	"github.com/kvarkey/tasktrack/pkg/tasktrack/auth"
	"github.com/kvarkey/tasktrack/pkg/tasktrack/database"
	"github.com/kvarkey/tasktrack/pkg/tasktrack/models"
	"github.com/kvarkey/tasktrack/pkg/tasktrack/pagination"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// versionConflictMessage is returned when a full replace carries a stale version
const versionConflictMessage = "This task has been updated by someone else and there is a newer version of this task exists"

// Service owns task mutations: create, update, delete, restore, toggle
// status, plus listing and the audit log reads. Every mutation and its
// audit entry run inside one transaction.
type Service struct {
	db *gorm.DB
}

// NewService creates a new task service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// TaskInput carries the fields of a create or update request. Nil
// pointers mean "not supplied" for partial updates; full-replace updates
// treat them as explicit nulls.
type TaskInput struct {
	Title       *string
	Description *string
	Status      *models.TaskStatus
	Priority    *models.TaskPriority
	DueDate     *time.Time
	AssignedTo  *uint
	Version     *int
	Metadata    map[string]interface{}
	TagIDs      []uint
}

// sortableFields whitelists the task listing sort columns
func sortableFields() []string {
	return []string{"title", "status", "priority", "due_date", "created_at"}
}

// Create stores a new task with defaults applied. Non-admin callers
// without an explicit assignee get the task assigned to themselves. The
// task, its tag associations and the created audit entry are persisted
// in one transaction.
func (s *Service) Create(p auth.Principal, in TaskInput) (*models.Task, error) {
	task := models.Task{
		Status:   models.StatusPending,
		Priority: models.PriorityMedium,
		Version:  1,
	}
	if in.Title != nil {
		task.Title = *in.Title
	}
	if in.Description != nil {
		task.Description = *in.Description
	}
	if in.Status != nil {
		task.Status = *in.Status
	}
	if in.Priority != nil {
		task.Priority = *in.Priority
	}
	task.DueDate = in.DueDate
	task.AssignedTo = in.AssignedTo
	if in.Metadata != nil {
		task.Metadata = datatypes.JSONMap(in.Metadata)
	}

	if task.AssignedTo == nil && !p.IsAdmin() {
		callerID := p.ID
		task.AssignedTo = &callerID
	}

	err := database.Transaction(s.db, func(tx *gorm.DB) error {
		if err := tx.Create(&task).Error; err != nil {
			return err
		}
		if len(in.TagIDs) > 0 {
			var tags []models.Tag
			if err := tx.Find(&tags, in.TagIDs).Error; err != nil {
				return err
			}
			if err := tx.Model(&task).Association("Tags").Append(&tags); err != nil {
				return err
			}
		}
		return recordAudit(tx, models.OperationCreated, task.ID, snapshot(&task), createdBy(p))
	})
	if err != nil {
		return nil, err
	}

	return s.reload(task.ID, false)
}

// List returns one page of tasks matching the filters. Non-admin callers
// are unconditionally restricted to their own assigned tasks, on top of
// any explicit filters.
func (s *Service) List(p auth.Principal, f Filters, limit, page int, sort, direction string) ([]models.Task, pagination.Meta, error) {
	query := s.db.Model(&models.Task{})

	if !p.IsAdmin() {
		query = query.Where("tasks.assigned_to = ?", p.ID)
	}

	for _, scope := range f.Scopes() {
		query = scope(query)
	}

	if clause := pagination.SortClause(sort, direction, sortableFields()); clause != "" {
		query = query.Order(clause)
	}

	query = query.Preload("AssignedUser").Preload("Tags")

	var results []models.Task
	meta, err := pagination.Paginate(query, page, limit, &results)
	if err != nil {
		return nil, pagination.Meta{}, err
	}
	return results, meta, nil
}

// Find returns a task with its assignee and tags, gated by the view policy
func (s *Service) Find(p auth.Principal, id uint) (*models.Task, error) {
	task, err := s.find(id, false)
	if err != nil {
		return nil, err
	}
	if err := Authorize(p, AbilityView, task); err != nil {
		return nil, err
	}
	return s.reload(id, false)
}

// Update applies a full-replace (PUT) or partial (PATCH) update. Full
// replaces require the last observed version and bump it by exactly one;
// partial updates never touch the version. The write itself is guarded
// by the supplied version, so of two concurrent replaces carrying the
// same version only one can commit. The attribute changes, tag sync and
// updated audit entry share one transaction.
func (s *Service) Update(p auth.Principal, id uint, in TaskInput, full bool) (*models.Task, error) {
	if full && (in.Version == nil || *in.Version == 0) {
		return nil, apperr.Validation("version", "Version is required")
	}

	task, err := s.find(id, false)
	if err != nil {
		return nil, err
	}
	if err := Authorize(p, AbilityUpdate, task); err != nil {
		return nil, err
	}

	err = database.Transaction(s.db, func(tx *gorm.DB) error {
		updates, changes := diff(task, in, full)
		if full {
			updates["version"] = *in.Version + 1
			changes["version"] = *in.Version + 1

			res := tx.Model(task).Where("version = ?", *in.Version).Updates(updates)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return apperr.Conflict(versionConflictMessage)
			}
		} else if len(updates) > 0 {
			if err := tx.Model(task).Updates(updates).Error; err != nil {
				return err
			}
		}

		if len(in.TagIDs) > 0 {
			var tags []models.Tag
			if err := tx.Find(&tags, in.TagIDs).Error; err != nil {
				return err
			}
			if err := tx.Model(task).Association("Tags").Replace(&tags); err != nil {
				return err
			}
		}

		return recordUpdated(tx, task.ID, changes, createdBy(p))
	})
	if err != nil {
		return nil, err
	}

	return s.reload(id, false)
}

// Delete soft-deletes a task and records the deleted audit entry
func (s *Service) Delete(p auth.Principal, id uint) error {
	task, err := s.find(id, false)
	if err != nil {
		return err
	}
	if err := Authorize(p, AbilityDelete, task); err != nil {
		return err
	}

	return database.Transaction(s.db, func(tx *gorm.DB) error {
		if err := tx.Delete(task).Error; err != nil {
			return err
		}
		return recordAudit(tx, models.OperationDeleted, task.ID, nil, createdBy(p))
	})
}

// Restore clears the soft-delete marker on a deleted task and records
// the restored audit entry. Restoring a live task is rejected.
func (s *Service) Restore(p auth.Principal, id uint) (*models.Task, error) {
	task, err := s.find(id, true)
	if err != nil {
		return nil, err
	}
	if err := Authorize(p, AbilityRestore, task); err != nil {
		return nil, err
	}
	if !task.DeletedAt.Valid {
		return nil, apperr.Validation("", "Task is not deleted")
	}

	err = database.Transaction(s.db, func(tx *gorm.DB) error {
		if err := tx.Unscoped().Model(task).Update("deleted_at", nil).Error; err != nil {
			return err
		}
		return recordAudit(tx, models.OperationRestored, task.ID, nil, createdBy(p))
	})
	if err != nil {
		return nil, err
	}

	return s.reload(id, false)
}

// ToggleStatus cycles pending -> inprogress -> completed -> pending. The
// version is untouched; the status change produces an updated audit entry.
func (s *Service) ToggleStatus(p auth.Principal, id uint) (*models.Task, error) {
	task, err := s.find(id, false)
	if err != nil {
		return nil, err
	}
	if err := Authorize(p, AbilityUpdate, task); err != nil {
		return nil, err
	}

	next := task.Status.Next()
	err = database.Transaction(s.db, func(tx *gorm.DB) error {
		if err := tx.Model(task).Update("status", next).Error; err != nil {
			return err
		}
		return recordUpdated(tx, task.ID, map[string]interface{}{"status": string(next)}, createdBy(p))
	})
	if err != nil {
		return nil, err
	}

	return s.reload(id, false)
}

// Logs returns one page of a task's audit entries, newest first by id
// with created_at breaking ties, gated by the view policy
func (s *Service) Logs(p auth.Principal, id uint, limit, page int) ([]models.TaskLog, pagination.Meta, error) {
	task, err := s.find(id, false)
	if err != nil {
		return nil, pagination.Meta{}, err
	}
	if err := Authorize(p, AbilityView, task); err != nil {
		return nil, pagination.Meta{}, err
	}

	query := s.db.Model(&models.TaskLog{}).
		Where("task_id = ?", task.ID).
		Preload("CreatedBy").
		Order("id DESC").Order("created_at DESC")

	var logs []models.TaskLog
	meta, err := pagination.Paginate(query, page, limit, &logs)
	if err != nil {
		return nil, pagination.Meta{}, err
	}
	return logs, meta, nil
}

// find fetches a task row, optionally including soft-deleted rows
func (s *Service) find(id uint, withTrashed bool) (*models.Task, error) {
	q := s.db
	if withTrashed {
		q = q.Unscoped()
	}
	var task models.Task
	if err := q.First(&task, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("No record found for given id")
		}
		return nil, err
	}
	return &task, nil
}

// reload fetches a task with its assignee and tags eagerly loaded
func (s *Service) reload(id uint, withTrashed bool) (*models.Task, error) {
	q := s.db.Preload("AssignedUser").Preload("Tags")
	if withTrashed {
		q = q.Unscoped()
	}
	var task models.Task
	if err := q.First(&task, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("No record found for given id")
		}
		return nil, err
	}
	return &task, nil
}

// diff computes the column updates and the audit changeset for an update.
// Full replaces consider every replaceable field, treating absent
// optionals as nulls; partial updates consider only supplied fields.
func diff(task *models.Task, in TaskInput, full bool) (map[string]interface{}, map[string]interface{}) {
	updates := map[string]interface{}{}
	changes := map[string]interface{}{}

	if in.Title != nil && *in.Title != task.Title {
		updates["title"] = *in.Title
		changes["title"] = *in.Title
	}

	if in.Description != nil || full {
		desc := ""
		if in.Description != nil {
			desc = *in.Description
		}
		if desc != task.Description {
			updates["description"] = desc
			changes["description"] = desc
		}
	}

	if in.Status != nil && *in.Status != task.Status {
		updates["status"] = *in.Status
		changes["status"] = string(*in.Status)
	}

	if in.Priority != nil && *in.Priority != task.Priority {
		updates["priority"] = *in.Priority
		changes["priority"] = string(*in.Priority)
	}

	if in.DueDate != nil || full {
		if !equalDates(task.DueDate, in.DueDate) {
			updates["due_date"] = in.DueDate
			changes["due_date"] = formatDueDate(in.DueDate)
		}
	}

	if in.AssignedTo != nil || full {
		if !equalIDs(task.AssignedTo, in.AssignedTo) {
			updates["assigned_to"] = in.AssignedTo
			changes["assigned_to"] = in.AssignedTo
		}
	}

	if in.Metadata != nil || full {
		current := map[string]interface{}(task.Metadata)
		if !reflect.DeepEqual(current, in.Metadata) && !(len(current) == 0 && len(in.Metadata) == 0) {
			updates["metadata"] = datatypes.JSONMap(in.Metadata)
			changes["metadata"] = in.Metadata
		}
	}

	return updates, changes
}

func equalDates(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

func equalIDs(a, b *uint) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// createdBy captures the acting user for an audit entry
func createdBy(p auth.Principal) *uint {
	if p.ID == 0 {
		return nil
	}
	id := p.ID
	return &id
}
