package models

import "time"

// TagDTO is the wire form of a tag.
type TagDTO struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// TaskDTO is the wire form of a task with its tags.
type TaskDTO struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Done        bool     `json:"done"`
	DateCreated string   `json:"dateCreated"`
	Tags        []TagDTO `json:"tags"`
}

// TaskRequest is the body of task create and update requests.
type TaskRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// TagRequest is the body of tag create and rename requests.
type TagRequest struct {
	Name string `json:"name"`
}

// TagIDsRequest replaces a task's tags with an explicit id list.
type TagIDsRequest struct {
	TagIDs []int64 `json:"tagIds"`
}

// TagStringRequest replaces a task's tags from a space-separated name string.
type TagStringRequest struct {
	TagString string `json:"tagString"`
}

// TaskTagIDs is the result of replacing a task's tags by id.
type TaskTagIDs struct {
	TaskID int64   `json:"taskId"`
	TagIDs []int64 `json:"tagIds"`
}

// TaskTagNames is the result of replacing a task's tags from a tag string.
type TaskTagNames struct {
	TaskID   int64    `json:"taskId"`
	TagNames []string `json:"tagNames"`
}

// NewTagDTO maps a Tag to its wire form.
func NewTagDTO(tag Tag) TagDTO {
	return TagDTO{ID: tag.ID, Name: tag.Name, Color: tag.DisplayColor()}
}

// NewTaskDTO maps a Task to its wire form.
func NewTaskDTO(task Task) TaskDTO {
	tags := make([]TagDTO, 0, len(task.Tags))
	for _, tag := range task.Tags {
		tags = append(tags, NewTagDTO(tag))
	}
	return TaskDTO{
		ID:          task.ID,
		Name:        task.Name,
		Description: task.Description,
		Done:        task.Done,
		DateCreated: task.CreatedAt.Format(DateLayout),
		Tags:        tags,
	}
}

// NewTaskDTOs maps a task list to its wire form.
func NewTaskDTOs(tasks []Task) []TaskDTO {
	dtos := make([]TaskDTO, 0, len(tasks))
	for _, task := range tasks {
		dtos = append(dtos, NewTaskDTO(task))
	}
	return dtos
}

// Task converts a wire task back into the domain model. Used by HTTP clients.
// DateCreated only carries the day, so CreatedAt is midnight UTC of that day,
// or zero when the field is missing or malformed.
func (d TaskDTO) Task() Task {
	tags := make([]Tag, 0, len(d.Tags))
	for _, tag := range d.Tags {
		tags = append(tags, Tag{ID: tag.ID, Name: tag.Name, Color: tag.Color})
	}
	created, _ := time.Parse(DateLayout, d.DateCreated)
	return Task{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		Done:        d.Done,
		CreatedAt:   created,
		Tags:        tags,
	}
}
