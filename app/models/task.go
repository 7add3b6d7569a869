package models

import "time"

// Field bounds shared by request validation and the tag reconciler.
const (
	MaxTaskNameLength    = 100
	MaxDescriptionLength = 500
	MaxTagNameLength     = 50
)

// DateLayout is the dd/MM/yyyy format used for dateCreated.
const DateLayout = "02/01/2006"

// Task represents a task and the tags currently associated with it.
type Task struct {
	ID          int64
	Name        string
	Description string
	Done        bool
	CreatedAt   time.Time
	Tags        []Tag // populated when loading tasks
}

// TagIDs returns the ids of the task's tags in association order.
func (t Task) TagIDs() []int64 {
	ids := make([]int64, 0, len(t.Tags))
	for _, tag := range t.Tags {
		ids = append(ids, tag.ID)
	}
	return ids
}

// HasTag reports whether the task is associated with the given tag id.
func (t Task) HasTag(tagID int64) bool {
	for _, tag := range t.Tags {
		if tag.ID == tagID {
			return true
		}
	}
	return false
}
