// Package client talks to the todo-tags HTTP API.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"todo-tags/app/apperrors"
	"todo-tags/app/models"
)

// Client is a small read client for the task and tag endpoints.
type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a client for the server at baseURL. A nil httpClient gets a
// default with a 10 second timeout.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// ListTasks fetches tasks. Non-empty tagIDs are applied as a server-side
// filter.
func (c *Client) ListTasks(ctx context.Context, tagIDs []int64) ([]models.Task, error) {
	path := "/api/tasks"
	if len(tagIDs) > 0 {
		parts := make([]string, len(tagIDs))
		for i, id := range tagIDs {
			parts[i] = strconv.FormatInt(id, 10)
		}
		path += "?tags=" + url.QueryEscape(strings.Join(parts, ","))
	}
	var dtos []models.TaskDTO
	if err := c.get(ctx, path, &dtos); err != nil {
		return nil, err
	}
	tasks := make([]models.Task, 0, len(dtos))
	for _, dto := range dtos {
		tasks = append(tasks, dto.Task())
	}
	return tasks, nil
}

// ListTags fetches every tag.
func (c *Client) ListTags(ctx context.Context) ([]models.Tag, error) {
	var dtos []models.TagDTO
	if err := c.get(ctx, "/api/tags", &dtos); err != nil {
		return nil, err
	}
	tags := make([]models.Tag, 0, len(dtos))
	for _, dto := range dtos {
		tags = append(tags, models.Tag{ID: dto.ID, Name: dto.Name, Color: dto.Color})
	}
	return tags, nil
}

func (c *Client) get(ctx context.Context, path string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return apperrors.Wrap(apperrors.Internal, "build request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return apperrors.Wrap(apperrors.StorageFailure, "server unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var body struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		if json.NewDecoder(resp.Body).Decode(&body) != nil || body.Error == "" {
			return apperrors.Newf(apperrors.Internal, "GET %s: %s", path, resp.Status)
		}
		return apperrors.New(apperrors.Code(body.Error), body.Message)
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return apperrors.Wrap(apperrors.Internal, fmt.Sprintf("decode %s", path), err)
	}
	return nil
}
