package services

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/charmbracelet/log"

	"todo-tags/app/apperrors"
	"todo-tags/app/colors"
	"todo-tags/app/models"
	"todo-tags/app/store"
)

// TagService handles tag-related operations.
type TagService struct {
	store  store.Store
	colors colors.Assigner
	log    *log.Logger
}

// NewTagService creates a new instance of TagService.
func NewTagService(st store.Store, assigner colors.Assigner, logger *log.Logger) *TagService {
	return &TagService{store: st, colors: assigner, log: logger}
}

// validateTagName rejects names a tag string could never refer to.
func validateTagName(name string) error {
	switch {
	case name == "":
		return apperrors.New(apperrors.ValidationFailed, "tag name is required")
	case strings.IndexFunc(name, unicode.IsSpace) >= 0:
		return apperrors.Newf(apperrors.ValidationFailed, "tag name %q contains whitespace", name)
	case utf8.RuneCountInString(name) > models.MaxTagNameLength:
		return apperrors.Newf(apperrors.ValidationFailed, "tag name exceeds %d characters", models.MaxTagNameLength)
	}
	return nil
}

// GetTags lists every tag ordered by name.
func (s *TagService) GetTags(ctx context.Context) ([]models.Tag, error) {
	var tags []models.Tag
	err := s.store.View(ctx, func(tx store.Tx) error {
		var err error
		tags, err = tx.ListTags(ctx)
		return err
	})
	return tags, err
}

// GetTagByID retrieves a single tag.
func (s *TagService) GetTagByID(ctx context.Context, id int64) (*models.Tag, error) {
	var tag *models.Tag
	err := s.store.View(ctx, func(tx store.Tx) error {
		var err error
		tag, err = tx.GetTag(ctx, id)
		return err
	})
	return tag, err
}

// GetTasksForTag lists the tasks carrying the tag.
func (s *TagService) GetTasksForTag(ctx context.Context, id int64) ([]models.Task, error) {
	var tasks []models.Task
	err := s.store.View(ctx, func(tx store.Tx) error {
		var err error
		tasks, err = tx.ListTasksForTag(ctx, id)
		return err
	})
	return tasks, err
}

// CreateTag returns the tag named name, creating it when no tag matches
// case-insensitively. created reports whether a new tag was stored.
func (s *TagService) CreateTag(ctx context.Context, name string) (tag *models.Tag, created bool, err error) {
	name = strings.TrimSpace(name)
	if err := validateTagName(name); err != nil {
		return nil, false, err
	}
	err = s.store.Update(ctx, func(tx store.Tx) error {
		found, err := tx.FindTagsByNames(ctx, []string{name})
		if err != nil {
			return err
		}
		if len(found) > 0 {
			tag = &found[0]
			return nil
		}
		inserted, err := tx.InsertTags(ctx, []models.Tag{{Name: name, Color: s.colors.Assign(name)}})
		if err != nil {
			return err
		}
		tag, created = &inserted[0], true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	if created {
		s.log.Debug("created tag", "id", tag.ID, "name", tag.Name)
	}
	return tag, created, nil
}

// RenameTag changes a tag's name and recolors it for the new name. Renaming
// onto another tag's name fails with Duplicate.
func (s *TagService) RenameTag(ctx context.Context, id int64, name string) (*models.Tag, error) {
	name = strings.TrimSpace(name)
	if err := validateTagName(name); err != nil {
		return nil, err
	}
	var tag *models.Tag
	err := s.store.Update(ctx, func(tx store.Tx) error {
		var err error
		if tag, err = tx.GetTag(ctx, id); err != nil {
			return err
		}
		tag.Name = name
		tag.Color = s.colors.Assign(name)
		return tx.UpdateTag(ctx, tag)
	})
	if err != nil {
		return nil, err
	}
	return tag, nil
}

// DeleteTag deletes a tag and detaches it from every task.
func (s *TagService) DeleteTag(ctx context.Context, id int64) error {
	return s.store.Update(ctx, func(tx store.Tx) error {
		return tx.DeleteTag(ctx, id)
	})
}
