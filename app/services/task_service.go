package services

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/log"

	"todo-tags/app/apperrors"
	"todo-tags/app/filter"
	"todo-tags/app/models"
	"todo-tags/app/store"
)

// TaskService handles task-related operations.
type TaskService struct {
	store      store.Store
	reconciler *Reconciler
	log        *log.Logger
}

// NewTaskService creates a new instance of TaskService.
func NewTaskService(st store.Store, reconciler *Reconciler, logger *log.Logger) *TaskService {
	return &TaskService{store: st, reconciler: reconciler, log: logger}
}

func validateTask(name, description string) error {
	if strings.TrimSpace(name) == "" {
		return apperrors.New(apperrors.ValidationFailed, "task name is required")
	}
	if utf8.RuneCountInString(name) > models.MaxTaskNameLength {
		return apperrors.Newf(apperrors.ValidationFailed, "task name exceeds %d characters", models.MaxTaskNameLength)
	}
	if utf8.RuneCountInString(description) > models.MaxDescriptionLength {
		return apperrors.Newf(apperrors.ValidationFailed, "description exceeds %d characters", models.MaxDescriptionLength)
	}
	return nil
}

// GetTasks retrieves all tasks with their tags. A non-empty selection keeps
// only the tasks carrying every selected tag.
func (s *TaskService) GetTasks(ctx context.Context, selected filter.Selection) ([]models.Task, error) {
	var tasks []models.Task
	err := s.store.View(ctx, func(tx store.Tx) error {
		var err error
		tasks, err = tx.ListTasks(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return filter.Tasks(tasks, selected), nil
}

// GetTaskByID retrieves a single task by its ID.
func (s *TaskService) GetTaskByID(ctx context.Context, id int64) (*models.Task, error) {
	var task *models.Task
	err := s.store.View(ctx, func(tx store.Tx) error {
		var err error
		task, err = tx.GetTask(ctx, id)
		return err
	})
	return task, err
}

// CreateTask adds a new, not yet done task without tags.
func (s *TaskService) CreateTask(ctx context.Context, name, description string) (*models.Task, error) {
	if err := validateTask(name, description); err != nil {
		return nil, err
	}
	task := &models.Task{Name: name, Description: description}
	err := s.store.Update(ctx, func(tx store.Tx) error {
		return tx.CreateTask(ctx, task)
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// UpdateTask replaces a task's name and description. Tags, completion and
// creation time are left alone.
func (s *TaskService) UpdateTask(ctx context.Context, id int64, name, description string) (*models.Task, error) {
	if err := validateTask(name, description); err != nil {
		return nil, err
	}
	var task *models.Task
	err := s.store.Update(ctx, func(tx store.Tx) error {
		var err error
		if task, err = tx.GetTask(ctx, id); err != nil {
			return err
		}
		task.Name = name
		task.Description = description
		return tx.UpdateTask(ctx, task)
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// ToggleDone flips a task's completion flag.
func (s *TaskService) ToggleDone(ctx context.Context, id int64) (*models.Task, error) {
	var task *models.Task
	err := s.store.Update(ctx, func(tx store.Tx) error {
		var err error
		if task, err = tx.GetTask(ctx, id); err != nil {
			return err
		}
		task.Done = !task.Done
		return tx.UpdateTask(ctx, task)
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// DeleteTask deletes a task and its tag associations.
func (s *TaskService) DeleteTask(ctx context.Context, id int64) error {
	return s.store.Update(ctx, func(tx store.Tx) error {
		return tx.DeleteTask(ctx, id)
	})
}

// SetTaskTagsByID replaces the task's tags with tagIDs. Repeated ids are
// stored once. Every id must name an existing tag; otherwise nothing changes.
func (s *TaskService) SetTaskTagsByID(ctx context.Context, taskID int64, tagIDs []int64) (*models.TaskTagIDs, error) {
	var stored []int64
	err := s.store.Update(ctx, func(tx store.Tx) error {
		if _, err := tx.GetTask(ctx, taskID); err != nil {
			return err
		}
		missing, err := tx.MissingTags(ctx, tagIDs)
		if err != nil {
			return err
		}
		if len(missing) > 0 {
			return apperrors.Newf(apperrors.NotFound, "tags %v not found", missing)
		}
		stored, err = replaceAssociations(ctx, tx, taskID, tagIDs)
		return err
	})
	if err != nil {
		return nil, err
	}
	if len(stored) < len(tagIDs) {
		s.log.Debug("ignored duplicate tag ids", "task_id", taskID, "given", len(tagIDs), "stored", len(stored))
	}
	return &models.TaskTagIDs{TaskID: taskID, TagIDs: stored}, nil
}

// SetTaskTagsByString replaces the task's tags with the tags named in
// tagString, creating missing tags. A blank string clears all tags. Tag
// creation and the association rebuild commit together or not at all.
func (s *TaskService) SetTaskTagsByString(ctx context.Context, taskID int64, tagString string) (*models.TaskTagNames, error) {
	var tags []models.Tag
	err := s.store.Update(ctx, func(tx store.Tx) error {
		if _, err := tx.GetTask(ctx, taskID); err != nil {
			return err
		}
		var err error
		if tags, err = s.reconciler.Reconcile(ctx, tx, tagString); err != nil {
			return err
		}
		_, err = replaceAssociations(ctx, tx, taskID, tagIDs(tags))
		return err
	})
	if err != nil {
		return nil, err
	}
	return &models.TaskTagNames{TaskID: taskID, TagNames: tagNames(tags)}, nil
}
