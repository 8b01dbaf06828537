package tasks

import (
	"github.com/kvarkey/tasktrack/pkg/tasktrack/apperr"
	"github.com/kvarkey/tasktrack/pkg/tasktrack/auth"
	"github.com/kvarkey/tasktrack/pkg/tasktrack/models"
)

// Ability names an action a caller may attempt on a task
type Ability string

const (
	AbilityViewAny Ability = "viewAny"
	AbilityView    Ability = "view"
	AbilityUpdate  Ability = "update"
	AbilityDelete  Ability = "delete"
	AbilityRestore Ability = "restore"
)

// Authorize decides whether the caller may perform ability on task.
// Admins bypass every check. A regular user may act on a task only when
// it is assigned to them; viewAny is admin-only.
func Authorize(p auth.Principal, ability Ability, task *models.Task) error {
	if p.IsAdmin() {
		return nil
	}

	switch ability {
	case AbilityViewAny:
		return apperr.Forbidden("This action is unauthorized.")
	case AbilityView, AbilityUpdate, AbilityDelete, AbilityRestore:
		if task != nil && task.AssignedTo != nil && *task.AssignedTo == p.ID {
			return nil
		}
	}

	return apperr.Forbidden("This action is unauthorized.")
}
