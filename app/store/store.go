// Package store persists tasks, tags and their associations.
package store

import (
	"context"

	"todo-tags/app/models"
)

// Store runs units of work against a backend. Every Tx method called inside
// fn belongs to one transaction: Update commits when fn returns nil and rolls
// back otherwise.
type Store interface {
	Update(ctx context.Context, fn func(Tx) error) error
	View(ctx context.Context, fn func(Tx) error) error
	Close(ctx context.Context) error
}

// TaskReader defines read operations for tasks.
type TaskReader interface {
	GetTask(ctx context.Context, id int64) (*models.Task, error)
	ListTasks(ctx context.Context) ([]models.Task, error)
	ListTasksForTag(ctx context.Context, tagID int64) ([]models.Task, error)
}

// TaskWriter defines write operations for tasks.
type TaskWriter interface {
	CreateTask(ctx context.Context, task *models.Task) error
	UpdateTask(ctx context.Context, task *models.Task) error
	// DeleteTask removes the task and all of its associations.
	DeleteTask(ctx context.Context, id int64) error
}

// TagReader defines read operations for tags.
type TagReader interface {
	GetTag(ctx context.Context, id int64) (*models.Tag, error)
	ListTags(ctx context.Context) ([]models.Tag, error)
	// FindTagsByNames returns the tags whose name matches any of names
	// case-insensitively.
	FindTagsByNames(ctx context.Context, names []string) ([]models.Tag, error)
	// MissingTags returns the ids from ids that have no tag.
	MissingTags(ctx context.Context, ids []int64) ([]int64, error)
}

// TagWriter defines write operations for tags.
type TagWriter interface {
	// InsertTags stores tags and returns them with ids populated.
	InsertTags(ctx context.Context, tags []models.Tag) ([]models.Tag, error)
	UpdateTag(ctx context.Context, tag *models.Tag) error
	// DeleteTag removes the tag and all of its associations.
	DeleteTag(ctx context.Context, id int64) error
}

// AssociationWriter defines operations on the task-tag association set.
type AssociationWriter interface {
	ClearAssociations(ctx context.Context, taskID int64) error
	// InsertAssociations links taskID to every id in tagIDs. Pairs that
	// already exist are left alone.
	InsertAssociations(ctx context.Context, taskID int64, tagIDs []int64) error
}

// Tx combines every operation available inside a unit of work.
type Tx interface {
	TaskReader
	TaskWriter
	TagReader
	TagWriter
	AssociationWriter
}
