package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"todo-tags/app/config"
	"todo-tags/app/controllers"
	"todo-tags/app/logging"
	"todo-tags/app/routes"
	"todo-tags/app/services"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "todo-tags: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(flag.NewFlagSet("todo-tags", flag.ExitOnError), os.Args[1:])
	if err != nil {
		return err
	}
	logger := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize the store
	st, err := config.OpenStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.Store, err)
	}
	defer st.Close(context.Background())

	assigner, err := cfg.ColorAssigner()
	if err != nil {
		return err
	}

	// Initialize the service layer
	taskService := services.NewTaskService(st, services.NewReconciler(assigner, logger), logger)
	tagService := services.NewTagService(st, assigner, logger)

	// Initialize the controller layer
	taskController := controllers.NewTaskController(taskService, logger)
	tagController := controllers.NewTagController(tagService, logger)

	// Setup HTTP server
	router := mux.NewRouter()
	routes.RegisterRoutes(router, taskController, tagController, logger)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", cfg.ListenAddr, "store", cfg.Store)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
