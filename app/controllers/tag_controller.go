package controllers

import (
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"

	"todo-tags/app/models"
	"todo-tags/app/services"
)

// TagController handles HTTP requests for tags.
type TagController struct {
	Service *services.TagService
	log     *log.Logger
}

// NewTagController creates a new TagController.
func NewTagController(service *services.TagService, logger *log.Logger) *TagController {
	return &TagController{Service: service, log: logger}
}

// GetTags handles GET /tags.
func (c *TagController) GetTags(w http.ResponseWriter, r *http.Request) {
	tags, err := c.Service.GetTags(r.Context())
	if err != nil {
		writeError(w, r, c.log, err)
		return
	}
	dtos := make([]models.TagDTO, 0, len(tags))
	for _, tag := range tags {
		dtos = append(dtos, models.NewTagDTO(tag))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateTag handles POST /tags. An existing tag with the same name is
// returned with 200 instead of 201.
func (c *TagController) CreateTag(w http.ResponseWriter, r *http.Request) {
	var req models.TagRequest
	if err := decodeBody(r, tagSchema, &req); err != nil {
		writeError(w, r, c.log, err)
		return
	}

	tag, created, err := c.Service.CreateTag(r.Context(), req.Name)
	if err != nil {
		writeError(w, r, c.log, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/tags/%d", tag.ID))
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, models.NewTagDTO(*tag))
}

// GetTagByID handles GET /tags/{id}.
func (c *TagController) GetTagByID(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, c.log, err)
		return
	}
	tag, err := c.Service.GetTagByID(r.Context(), id)
	if err != nil {
		writeError(w, r, c.log, err)
		return
	}
	writeJSON(w, http.StatusOK, models.NewTagDTO(*tag))
}

// RenameTag handles PUT /tags/{id}.
func (c *TagController) RenameTag(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, c.log, err)
		return
	}
	var req models.TagRequest
	if err := decodeBody(r, tagSchema, &req); err != nil {
		writeError(w, r, c.log, err)
		return
	}

	tag, err := c.Service.RenameTag(r.Context(), id, req.Name)
	if err != nil {
		writeError(w, r, c.log, err)
		return
	}
	writeJSON(w, http.StatusOK, models.NewTagDTO(*tag))
}

// DeleteTag handles DELETE /tags/{id}.
func (c *TagController) DeleteTag(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, c.log, err)
		return
	}
	if err := c.Service.DeleteTag(r.Context(), id); err != nil {
		writeError(w, r, c.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetTasksForTag handles GET /tags/{id}/tasks.
func (c *TagController) GetTasksForTag(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, c.log, err)
		return
	}
	tasks, err := c.Service.GetTasksForTag(r.Context(), id)
	if err != nil {
		writeError(w, r, c.log, err)
		return
	}
	writeJSON(w, http.StatusOK, models.NewTaskDTOs(tasks))
}

// Health handles GET /health.
func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
