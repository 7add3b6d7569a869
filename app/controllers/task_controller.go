package controllers

import (
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"

	"todo-tags/app/filter"
	"todo-tags/app/models"
	"todo-tags/app/services"
)

// TaskController handles HTTP requests for tasks.
type TaskController struct {
	Service *services.TaskService
	log     *log.Logger
}

// NewTaskController creates a new TaskController.
func NewTaskController(service *services.TaskService, logger *log.Logger) *TaskController {
	return &TaskController{Service: service, log: logger}
}

// GetTasks handles GET /tasks. An optional ?tags=1,2 keeps only tasks
// carrying every listed tag.
func (c *TaskController) GetTasks(w http.ResponseWriter, r *http.Request) {
	ids, err := parseIDList(r.URL.Query().Get("tags"))
	if err != nil {
		writeError(w, r, c.log, err)
		return
	}
	tasks, err := c.Service.GetTasks(r.Context(), filter.NewSelection(ids...))
	if err != nil {
		writeError(w, r, c.log, err)
		return
	}
	writeJSON(w, http.StatusOK, models.NewTaskDTOs(tasks))
}

// CreateTask handles POST /tasks.
func (c *TaskController) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req models.TaskRequest
	if err := decodeBody(r, taskSchema, &req); err != nil {
		writeError(w, r, c.log, err)
		return
	}

	task, err := c.Service.CreateTask(r.Context(), req.Name, req.Description)
	if err != nil {
		writeError(w, r, c.log, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/tasks/%d", task.ID))
	writeJSON(w, http.StatusCreated, models.NewTaskDTO(*task))
}

// GetTaskByID handles GET /tasks/{id}.
func (c *TaskController) GetTaskByID(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, c.log, err)
		return
	}
	task, err := c.Service.GetTaskByID(r.Context(), id)
	if err != nil {
		writeError(w, r, c.log, err)
		return
	}
	writeJSON(w, http.StatusOK, models.NewTaskDTO(*task))
}

// UpdateTask handles PUT /tasks/{id}.
func (c *TaskController) UpdateTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, c.log, err)
		return
	}
	var req models.TaskRequest
	if err := decodeBody(r, taskSchema, &req); err != nil {
		writeError(w, r, c.log, err)
		return
	}

	task, err := c.Service.UpdateTask(r.Context(), id, req.Name, req.Description)
	if err != nil {
		writeError(w, r, c.log, err)
		return
	}
	writeJSON(w, http.StatusOK, models.NewTaskDTO(*task))
}

// ToggleDone handles PATCH /tasks/{id}/done.
func (c *TaskController) ToggleDone(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, c.log, err)
		return
	}
	task, err := c.Service.ToggleDone(r.Context(), id)
	if err != nil {
		writeError(w, r, c.log, err)
		return
	}
	writeJSON(w, http.StatusOK, models.NewTaskDTO(*task))
}

// DeleteTask handles DELETE /tasks/{id}.
func (c *TaskController) DeleteTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, c.log, err)
		return
	}
	if err := c.Service.DeleteTask(r.Context(), id); err != nil {
		writeError(w, r, c.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetTaskTags handles PUT /tasks/{id}/tags.
func (c *TaskController) SetTaskTags(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, c.log, err)
		return
	}
	var req models.TagIDsRequest
	if err := decodeBody(r, tagIDsSchema, &req); err != nil {
		writeError(w, r, c.log, err)
		return
	}

	result, err := c.Service.SetTaskTagsByID(r.Context(), id, req.TagIDs)
	if err != nil {
		writeError(w, r, c.log, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// SetTaskTagsFromString handles POST /tasks/{id}/tags-multiple.
func (c *TaskController) SetTaskTagsFromString(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, c.log, err)
		return
	}
	var req models.TagStringRequest
	if err := decodeBody(r, tagStringSchema, &req); err != nil {
		writeError(w, r, c.log, err)
		return
	}

	result, err := c.Service.SetTaskTagsByString(r.Context(), id, req.TagString)
	if err != nil {
		writeError(w, r, c.log, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
