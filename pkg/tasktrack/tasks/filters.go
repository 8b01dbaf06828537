package tasks

import (
	"strconv"
	"strings"
	"time"

	"github.com/kvarkey/tasktrack/pkg/tasktrack/apperr"
	"github.com/kvarkey/tasktrack/pkg/tasktrack/models"
	"gorm.io/gorm"
)

// Scope is a composable predicate applied to a task query
type Scope = func(*gorm.DB) *gorm.DB

// Filters holds the raw optional listing filters. Empty values are
// no-ops: no predicate is generated for them.
type Filters struct {
	Status       string
	Priority     string
	AssignedTo   uint
	DueDateRange string
	Tags         string
	Keyword      string
	OnlyDeleted  bool
}

// Scopes compiles the filter set into predicates ANDed onto the query
func (f Filters) Scopes() []Scope {
	return []Scope{
		ByStatus(f.Status),
		ByPriority(f.Priority),
		ByAssignedTo(f.AssignedTo),
		ByDueDateRange(f.DueDateRange),
		ByTags(f.Tags),
		ByKeyword(f.Keyword),
		OnlyDeleted(f.OnlyDeleted),
	}
}

// ByStatus filters on a status value, canonical or case-insensitive.
// Unresolvable strings apply no predicate.
func ByStatus(status string) Scope {
	return func(q *gorm.DB) *gorm.DB {
		if status == "" {
			return q
		}
		parsed, ok := models.ParseTaskStatus(status)
		if !ok {
			return q
		}
		return q.Where("tasks.status = ?", parsed)
	}
}

// ByPriority filters on a priority value, canonical or case-insensitive.
// Unresolvable strings apply no predicate.
func ByPriority(priority string) Scope {
	return func(q *gorm.DB) *gorm.DB {
		if priority == "" {
			return q
		}
		parsed, ok := models.ParseTaskPriority(priority)
		if !ok {
			return q
		}
		return q.Where("tasks.priority = ?", parsed)
	}
}

// ByAssignedTo filters on the exact assignee
func ByAssignedTo(userID uint) Scope {
	return func(q *gorm.DB) *gorm.DB {
		if userID == 0 {
			return q
		}
		return q.Where("tasks.assigned_to = ?", userID)
	}
}

// ByDueDateRange filters tasks whose due date falls within the range,
// inclusive on both ends. The range string must already have passed
// ParseDueDateRange; unparseable input applies no predicate.
func ByDueDateRange(datesString string) Scope {
	return func(q *gorm.DB) *gorm.DB {
		if datesString == "" {
			return q
		}
		start, end, err := ParseDueDateRange(datesString)
		if err != nil {
			return q
		}
		return q.Where("tasks.due_date BETWEEN ? AND ?", start, end)
	}
}

// ByTags filters tasks carrying at least one of the given tag ids
// (any-of, not all-of)
func ByTags(tags string) Scope {
	return func(q *gorm.DB) *gorm.DB {
		if tags == "" {
			return q
		}
		ids := make([]uint, 0)
		for _, part := range strings.Split(tags, ",") {
			id, err := strconv.ParseUint(strings.TrimSpace(part), 10, 32)
			if err != nil {
				continue
			}
			ids = append(ids, uint(id))
		}
		if len(ids) == 0 {
			return q
		}
		return q.Where("EXISTS (SELECT 1 FROM task_tags WHERE task_tags.task_id = tasks.id AND task_tags.tag_id IN ?)", ids)
	}
}

// ByKeyword matches the keyword against title and description. MySQL and
// Postgres use their native full-text indexes; elsewhere a
// case-insensitive substring match keeps the logical behavior equivalent.
func ByKeyword(keyword string) Scope {
	return func(q *gorm.DB) *gorm.DB {
		if keyword == "" {
			return q
		}
		switch q.Dialector.Name() {
		case "mysql":
			return q.Where("MATCH(tasks.title, tasks.description) AGAINST (?)", keyword)
		case "postgres":
			return q.Where("to_tsvector('english', tasks.title || ' ' || coalesce(tasks.description, '')) @@ plainto_tsquery('english', ?)", keyword)
		default:
			like := "%" + strings.ToLower(keyword) + "%"
			return q.Where("(LOWER(tasks.title) LIKE ? OR LOWER(tasks.description) LIKE ?)", like, like)
		}
	}
}

// OnlyDeleted restricts the result set to soft-deleted rows exclusively
func OnlyDeleted(enabled bool) Scope {
	return func(q *gorm.DB) *gorm.DB {
		if !enabled {
			return q
		}
		return q.Unscoped().Where("tasks.deleted_at IS NOT NULL")
	}
}

// ParseDueDateRange parses "date" or "date1,date2" into an inclusive
// range. A single date collapses to one day. An empty first token, more
// than two tokens or an unparseable date is a validation error. An end
// date before the start date is clamped to the start, never rejected.
func ParseDueDateRange(datesString string) (time.Time, time.Time, error) {
	parts := strings.Split(datesString, ",")
	if strings.TrimSpace(parts[0]) == "" || len(parts) > 2 {
		return time.Time{}, time.Time{}, apperr.Validation("due_date_range",
			`The due_date_range format is invalid. It must be a single date or a comma-separated date range (e.g., "YYYY-MM-DD" or "YYYY-MM-DD,YYYY-MM-DD").`)
	}

	start, err := time.Parse(dueDateLayout, strings.TrimSpace(parts[0]))
	if err != nil {
		return time.Time{}, time.Time{}, apperr.Validation("due_date_range", "The first date in due_date_range is invalid.")
	}

	end := start
	if len(parts) == 2 && strings.TrimSpace(parts[1]) != "" {
		end, err = time.Parse(dueDateLayout, strings.TrimSpace(parts[1]))
		if err != nil {
			return time.Time{}, time.Time{}, apperr.Validation("due_date_range", "The second date in due_date_range is invalid.")
		}
	}

	if end.Before(start) {
		end = start
	}

	return start, end, nil
}
