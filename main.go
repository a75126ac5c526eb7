package main

import (
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/TWRT/taskboard/internal/api"
	"github.com/TWRT/taskboard/internal/repository"
	"github.com/TWRT/taskboard/internal/storage"
	"github.com/joho/godotenv"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment")
	}

	dbPath := envOr("TASKBOARD_DB", "./taskboard.db")
	addr := envOr("TASKBOARD_ADDR", ":8080")
	filesDir := envOr("TASKBOARD_FILES_DIR", "./files")
	baseURL := envOr("TASKBOARD_BASE_URL", "http://localhost:8080")

	db, err := repository.InitDB(dbPath)
	if err != nil {
		log.Fatal("Error initializing DB:", err)
	}
	defer db.Close()

	files, err := storage.NewFileStore(filesDir, baseURL)
	if err != nil {
		log.Fatal("Error initializing file store:", err)
	}

	router := api.SetupRouter(db, files)

	fmt.Println("✅ Database initialized:", dbPath)
	fmt.Println("🚀 Server running on", addr)
	fmt.Println("📝 Available endpoints:")
	fmt.Println("   POST /tasks - Create task")
	fmt.Println("   GET /tasks/{id} - Task detail")
	fmt.Println("   POST /tasks/{id}/status - Change status")
	fmt.Println("   GET /tasks/assigned - Assigned list")
	fmt.Println("   GET /tasks/created - Created list")

	if err := http.ListenAndServe(addr, router); err != nil {
		log.Fatal("Error starting server:", err)
	}
}
