package tags

import (
	"errors"
	"fmt"

	"github.com/kvarkey/tasktrack/pkg/tasktrack/apperr"
	"github.com/kvarkey/tasktrack/pkg/tasktrack/models"
	"github.com/kvarkey/tasktrack/pkg/tasktrack/pagination"
	"gorm.io/gorm"
)

// Service owns tag CRUD, the name uniqueness check and the referential
// delete guard
type Service struct {
	db *gorm.DB
}

// NewService creates a new tag service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// TagInput carries the fields of a tag create or update request
type TagInput struct {
	Name  *string
	Color *string
}

// sortableFields whitelists the tag listing sort columns
func sortableFields() []string {
	return []string{"name", "created_at"}
}

// checkName rejects a name already taken by another tag. The match is
// exact and case-sensitive.
func (s *Service) checkName(name string, ignoreID uint) error {
	query := s.db.Model(&models.Tag{}).Where("name = ?", name)
	if ignoreID > 0 {
		query = query.Where("id != ?", ignoreID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return apperr.Validation("name", fmt.Sprintf("The name %s has already been taken.", name))
	}
	return nil
}

// Store creates a new tag
func (s *Service) Store(in TagInput) (*models.Tag, error) {
	tag := models.Tag{}
	if in.Name != nil {
		tag.Name = *in.Name
	}
	if in.Color != nil {
		tag.Color = *in.Color
	}

	if err := s.checkName(tag.Name, 0); err != nil {
		return nil, err
	}
	if err := s.db.Create(&tag).Error; err != nil {
		return nil, err
	}
	return &tag, nil
}

// List returns one page of tags, optionally filtered by exact name
func (s *Service) List(name string, limit, page int, sort, direction string) ([]models.Tag, pagination.Meta, error) {
	query := s.db.Model(&models.Tag{})
	if name != "" {
		query = query.Where("name = ?", name)
	}
	if clause := pagination.SortClause(sort, direction, sortableFields()); clause != "" {
		query = query.Order(clause)
	}

	var results []models.Tag
	meta, err := pagination.Paginate(query, page, limit, &results)
	if err != nil {
		return nil, pagination.Meta{}, err
	}
	return results, meta, nil
}

// Find returns a tag by id
func (s *Service) Find(id uint) (*models.Tag, error) {
	var tag models.Tag
	if err := s.db.First(&tag, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("No record found for given id")
		}
		return nil, err
	}
	return &tag, nil
}

// Update merges the supplied fields into an existing tag
func (s *Service) Update(id uint, in TagInput) (*models.Tag, error) {
	tag, err := s.Find(id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if in.Name != nil && *in.Name != tag.Name {
		if err := s.checkName(*in.Name, tag.ID); err != nil {
			return nil, err
		}
		updates["name"] = *in.Name
	}
	if in.Color != nil && *in.Color != tag.Color {
		updates["color"] = *in.Color
	}

	if len(updates) > 0 {
		if err := s.db.Model(tag).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return tag, nil
}

// Delete soft-deletes a tag. A tag still referenced by any task cannot
// be deleted; the guard lives here, not just in the schema.
func (s *Service) Delete(id uint) error {
	tag, err := s.Find(id)
	if err != nil {
		return err
	}

	var count int64
	if err := s.db.Table("task_tags").Where("tag_id = ?", tag.ID).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return apperr.Validation("", "Cannot delete this tag as it is used in tasks")
	}

	return s.db.Delete(tag).Error
}
