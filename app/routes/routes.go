package routes

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gorilla/mux"

	"todo-tags/app/controllers"
)

// RegisterRoutes sets up all routes for the application under /api.
func RegisterRoutes(router *mux.Router, taskController *controllers.TaskController, tagController *controllers.TagController, logger *log.Logger) {
	router.Use(RequestID, Logging(logger))

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", controllers.Health).Methods(http.MethodGet)

	api.HandleFunc("/tasks", taskController.GetTasks).Methods(http.MethodGet)
	api.HandleFunc("/tasks", taskController.CreateTask).Methods(http.MethodPost)
	api.HandleFunc("/tasks/{id:[0-9]+}", taskController.GetTaskByID).Methods(http.MethodGet)
	api.HandleFunc("/tasks/{id:[0-9]+}", taskController.UpdateTask).Methods(http.MethodPut)
	api.HandleFunc("/tasks/{id:[0-9]+}", taskController.DeleteTask).Methods(http.MethodDelete)
	api.HandleFunc("/tasks/{id:[0-9]+}/done", taskController.ToggleDone).Methods(http.MethodPatch)
	api.HandleFunc("/tasks/{id:[0-9]+}/tags", taskController.SetTaskTags).Methods(http.MethodPut)
	api.HandleFunc("/tasks/{id:[0-9]+}/tags-multiple", taskController.SetTaskTagsFromString).Methods(http.MethodPost)

	api.HandleFunc("/tags", tagController.GetTags).Methods(http.MethodGet)
	api.HandleFunc("/tags", tagController.CreateTag).Methods(http.MethodPost)
	api.HandleFunc("/tags/{id:[0-9]+}", tagController.GetTagByID).Methods(http.MethodGet)
	api.HandleFunc("/tags/{id:[0-9]+}", tagController.RenameTag).Methods(http.MethodPut)
	api.HandleFunc("/tags/{id:[0-9]+}", tagController.DeleteTag).Methods(http.MethodDelete)
	api.HandleFunc("/tags/{id:[0-9]+}/tasks", tagController.GetTasksForTag).Methods(http.MethodGet)
}
