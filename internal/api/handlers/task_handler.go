package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/TWRT/taskboard/internal/models"
	"github.com/TWRT/taskboard/internal/service"
)

type CreateTaskRequestBody struct {
	UserEmail     string   `json:"user_email"`
	Content       string   `json:"content"`
	AssigneeEmail string   `json:"assignee_email"`
	ParentID      *int64   `json:"parent_id"`
	Images        []string `json:"images"`
}

type EditContentRequestBody struct {
	UserEmail string   `json:"user_email"`
	Content   string   `json:"content"`
	Images    []string `json:"images"`
}

type ChangeStatusRequestBody struct {
	UserEmail string   `json:"user_email"`
	Status    string   `json:"status"`
	Comment   string   `json:"comment"`
	Images    []string `json:"images"`
}

type EditLogRequestBody struct {
	UserEmail string   `json:"user_email"`
	Comment   string   `json:"comment"`
	Images    []string `json:"images"`
}

type TaskHandler struct {
	taskService *service.TaskService
}

func NewTaskHandler(taskService *service.TaskService) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

func decodeBody(r *http.Request, dst any) error {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, dst)
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id, err == nil
}

func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var reqBody CreateTaskRequestBody
	if err := decodeBody(r, &reqBody); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{
			"error": "JSON error: " + err.Error(),
		})
		return
	}

	taskID, err := h.taskService.CreateTask(
		service.Session{Email: reqBody.UserEmail},
		reqBody.Content,
		reqBody.AssigneeEmail,
		reqBody.ParentID,
		reqBody.Images,
	)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"task_id": taskID,
		"status":  models.StatusPending,
	})
}

func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid task id"})
		return
	}

	task, err := h.taskService.GetTask(id)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"task": task,
	})
}

func (h *TaskHandler) EditContent(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid task id"})
		return
	}

	var reqBody EditContentRequestBody
	if err := decodeBody(r, &reqBody); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{
			"error": "JSON error: " + err.Error(),
		})
		return
	}

	err := h.taskService.EditTaskContent(
		service.Session{Email: reqBody.UserEmail},
		id,
		reqBody.Content,
		reqBody.Images,
	)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "Task content updated",
	})
}

func (h *TaskHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid task id"})
		return
	}

	var reqBody ChangeStatusRequestBody
	if err := decodeBody(r, &reqBody); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{
			"error": "JSON error: " + err.Error(),
		})
		return
	}

	err := h.taskService.ChangeTaskStatus(
		service.Session{Email: reqBody.UserEmail},
		id,
		models.TaskStatus(reqBody.Status),
		reqBody.Comment,
		reqBody.Images,
	)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "Task status updated",
	})
}

func (h *TaskHandler) EditLogComment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid log id"})
		return
	}

	var reqBody EditLogRequestBody
	if err := decodeBody(r, &reqBody); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{
			"error": "JSON error: " + err.Error(),
		})
		return
	}

	err := h.taskService.EditLogComment(
		service.Session{Email: reqBody.UserEmail},
		id,
		reqBody.Comment,
		reqBody.Images,
	)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "Log entry updated",
	})
}

func (h *TaskHandler) ListAssigned(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.taskService.ListAssigned(
		r.URL.Query().Get("email"),
		r.URL.Query().Get("filter"),
		r.URL.Query().Get("q"),
	)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"tasks": tasks,
	})
}

func (h *TaskHandler) ListCreated(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.taskService.ListCreated(
		r.URL.Query().Get("email"),
		r.URL.Query().Get("filter"),
		r.URL.Query().Get("q"),
	)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"tasks": tasks,
	})
}

func (h *TaskHandler) GetSubtasks(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid task id"})
		return
	}

	tasks, err := h.taskService.GetSubtasks(id)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"tasks": tasks,
	})
}

func (h *TaskHandler) GetTimeline(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid task id"})
		return
	}

	logs, err := h.taskService.GetTimeline(id)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"logs": logs,
	})
}
