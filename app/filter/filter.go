// Package filter narrows an already loaded task list to the tasks carrying
// every selected tag.
package filter

import (
	"slices"

	"todo-tags/app/models"
)

// Selection is a set of tag ids. The zero value is an empty selection.
type Selection map[int64]struct{}

// NewSelection builds a selection from ids, ignoring duplicates.
func NewSelection(ids ...int64) Selection {
	s := make(Selection, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Has reports whether id is selected.
func (s Selection) Has(id int64) bool {
	_, ok := s[id]
	return ok
}

// Toggle adds id when absent and removes it when present. It returns the
// new state of id.
func (s Selection) Toggle(id int64) bool {
	if s.Has(id) {
		delete(s, id)
		return false
	}
	s[id] = struct{}{}
	return true
}

// IDs returns the selected ids in ascending order.
func (s Selection) IDs() []int64 {
	ids := make([]int64, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Tasks returns the tasks whose tag set is a superset of selected. An empty
// selection returns tasks itself. Neither tasks nor their tags are modified.
func Tasks(tasks []models.Task, selected Selection) []models.Task {
	if len(selected) == 0 {
		return tasks
	}
	matched := make([]models.Task, 0, len(tasks))
	for _, task := range tasks {
		if matches(task, selected) {
			matched = append(matched, task)
		}
	}
	return matched
}

func matches(task models.Task, selected Selection) bool {
	if len(task.Tags) < len(selected) {
		return false
	}
	seen := make(map[int64]struct{}, len(selected))
	for _, id := range task.TagIDs() {
		if selected.Has(id) {
			seen[id] = struct{}{}
		}
	}
	return len(seen) == len(selected)
}
