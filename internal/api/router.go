package api

import (
	"database/sql"
	"net/http"

	"github.com/TWRT/taskboard/internal/api/handlers"
	"github.com/TWRT/taskboard/internal/repository"
	"github.com/TWRT/taskboard/internal/service"
	"github.com/TWRT/taskboard/internal/storage"
)

func SetupRouter(db *sql.DB, files *storage.FileStore) *http.ServeMux {
	mux := http.NewServeMux()

	userRepo := repository.NewUserRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	logRepo := repository.NewLogRepository(db)

	userService := service.NewUserService(userRepo)
	taskService := service.NewTaskService(taskRepo, userRepo, logRepo, files)

	userHandler := handlers.NewUserHandler(userService)
	taskHandler := handlers.NewTaskHandler(taskService)
	uploadHandler := handlers.NewUploadHandler(files)

	mux.HandleFunc("POST /users/sync", userHandler.SyncUser)
	mux.HandleFunc("GET /users/{email}", userHandler.GetUser)

	mux.HandleFunc("GET /tasks/assigned", taskHandler.ListAssigned)
	mux.HandleFunc("GET /tasks/created", taskHandler.ListCreated)
	mux.HandleFunc("POST /tasks", taskHandler.CreateTask)
	mux.HandleFunc("GET /tasks/{id}", taskHandler.GetTask)
	mux.HandleFunc("PUT /tasks/{id}/content", taskHandler.EditContent)
	mux.HandleFunc("POST /tasks/{id}/status", taskHandler.ChangeStatus)
	mux.HandleFunc("GET /tasks/{id}/subtasks", taskHandler.GetSubtasks)
	mux.HandleFunc("GET /tasks/{id}/logs", taskHandler.GetTimeline)
	mux.HandleFunc("PUT /logs/{id}", taskHandler.EditLogComment)

	mux.HandleFunc("POST /uploads", uploadHandler.RequestUpload)
	mux.HandleFunc("PUT /uploads/{id}", uploadHandler.PushUpload)
	mux.HandleFunc("GET /files/{id}", uploadHandler.ServeFile)

	return mux
}
