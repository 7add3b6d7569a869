package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo-tags/app/apperrors"
	"todo-tags/app/models"
)

func TestListTasks(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tasks", r.URL.Path)
		gotQuery = r.URL.Query().Get("tags")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id":1,"name":"one","done":true,"dateCreated":"01/02/2024","tags":[{"id":7,"name":"home","color":"#3E5641"}]}]`))
	}))
	defer srv.Close()

	tasks, err := New(srv.URL+"/", nil).ListTasks(context.Background(), []int64{7, 9})
	require.NoError(t, err)
	assert.Equal(t, "7,9", gotQuery)
	require.Len(t, tasks, 1)
	assert.Equal(t, "one", tasks[0].Name)
	assert.True(t, tasks[0].Done)
	assert.Equal(t, time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC), tasks[0].CreatedAt)
	assert.Equal(t, []models.Tag{{ID: 7, Name: "home", Color: "#3E5641"}}, tasks[0].Tags)
}

func TestListTags(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":1,"name":"a","color":"#cccccc"}]`))
	}))
	defer srv.Close()

	tags, err := New(srv.URL, nil).ListTags(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []models.Tag{{ID: 1, Name: "a", Color: "#cccccc"}}, tags)
}

func TestErrorBodyKeepsCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"error":"STORAGE_FAILURE","message":"database locked"}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL, nil).ListTasks(context.Background(), nil)
	assert.True(t, apperrors.Is(err, apperrors.StorageFailure))
	assert.Contains(t, err.Error(), "database locked")
}

func TestUnreachableServer(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(url, nil).ListTags(context.Background())
	assert.True(t, apperrors.Retryable(err))
}
