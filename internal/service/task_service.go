package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/TWRT/taskboard/internal/models"
	"github.com/TWRT/taskboard/internal/repository"
	"github.com/TWRT/taskboard/internal/storage"
)

// editContentLogComment is the fixed comment recorded on every content edit.
const editContentLogComment = "Updated task details"

type TaskService struct {
	tasks *repository.TaskRepository
	users *repository.UserRepository
	logs  *repository.LogRepository
	files storage.Resolver
}

func NewTaskService(
	tasks *repository.TaskRepository,
	users *repository.UserRepository,
	logs *repository.LogRepository,
	files storage.Resolver,
) *TaskService {
	return &TaskService{
		tasks: tasks,
		users: users,
		logs:  logs,
		files: files,
	}
}

// resolveActor looks up the session's user, which must already exist.
func (s *TaskService) resolveActor(sess Session) (*models.User, error) {
	user, err := s.users.GetByEmail(sess.Email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("user %s: %w", sess.Email, ErrNotFound)
	}
	return user, nil
}

// resolveOrCreateAssignee returns the assignee's user id, creating a bare
// record when the email has never been seen. Concurrent creation of the
// same email is not guarded; the loser surfaces the unique-column error.
func (s *TaskService) resolveOrCreateAssignee(email string) (int64, error) {
	user, err := s.users.GetByEmail(email)
	if err != nil {
		return 0, err
	}
	if user != nil {
		return user.ID, nil
	}
	return s.users.Create(email)
}

// resolveImageURLs maps opaque file references to retrievable URLs.
// References that no longer resolve produce an empty slot, never an error.
func (s *TaskService) resolveImageURLs(refs []string) []string {
	urls := make([]string, 0, len(refs))
	for _, ref := range refs {
		url, _ := s.files.Resolve(ref)
		urls = append(urls, url)
	}
	return urls
}

func (s *TaskService) CreateTask(
	sess Session,
	content string,
	assigneeEmail string,
	parentID *int64,
	images []string,
) (int64, error) {
	if strings.TrimSpace(content) == "" {
		return 0, fmt.Errorf("content is required: %w", ErrValidation)
	}
	if strings.TrimSpace(assigneeEmail) == "" {
		return 0, fmt.Errorf("assignee email is required: %w", ErrValidation)
	}

	creator, err := s.resolveActor(sess)
	if err != nil {
		return 0, err
	}

	if parentID != nil {
		parent, err := s.tasks.GetByID(*parentID)
		if err != nil {
			return 0, err
		}
		if parent == nil {
			return 0, fmt.Errorf("parent task %d: %w", *parentID, ErrNotFound)
		}
	}

	assigneeID, err := s.resolveOrCreateAssignee(assigneeEmail)
	if err != nil {
		return 0, err
	}

	now := time.Now().UTC()
	task := models.Task{
		Content:       content,
		Images:        images,
		CreatorID:     creator.ID,
		AssigneeEmail: assigneeEmail,
		AssigneeID:    &assigneeID,
		Status:        models.StatusPending,
		ParentID:      parentID,
		CreationTime:  now,
	}
	entry := models.LogEntry{
		UserID:    creator.ID,
		Action:    models.ActionCreate,
		Timestamp: now,
	}

	return s.tasks.CreateWithLog(&task, &entry)
}

func (s *TaskService) GetTask(id int64) (*models.TaskDetail, error) {
	task, err := s.tasks.GetByID(id)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, fmt.Errorf("task %d: %w", id, ErrNotFound)
	}

	detail := models.TaskDetail{
		Task:      *task,
		ImageURLs: s.resolveImageURLs(task.Images),
	}

	// Join failures degrade to nil fields rather than failing the read.
	if creator, err := s.users.GetByID(task.CreatorID); err == nil {
		detail.Creator = creator
	}
	if task.AssigneeID != nil {
		if assignee, err := s.users.GetByID(*task.AssigneeID); err == nil {
			detail.Assignee = assignee
		}
	}

	return &detail, nil
}

// EditTaskContent overwrites the task's content and images. The previous
// values go into the append-only content history first; only the creator
// may edit.
func (s *TaskService) EditTaskContent(
	sess Session,
	taskID int64,
	content string,
	images []string,
) error {
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("content is required: %w", ErrValidation)
	}

	actor, err := s.resolveActor(sess)
	if err != nil {
		return err
	}

	task, err := s.tasks.GetByID(taskID)
	if err != nil {
		return err
	}
	if task == nil {
		return fmt.Errorf("task %d: %w", taskID, ErrNotFound)
	}
	if task.CreatorID != actor.ID {
		return fmt.Errorf("only the creator can edit task content: %w", ErrForbidden)
	}

	now := time.Now().UTC()
	edits := append(task.ContentEdits, models.ContentEdit{
		Content:   task.Content,
		Images:    task.Images,
		Timestamp: now,
		EditorID:  actor.ID,
	})
	entry := models.LogEntry{
		TaskID:    taskID,
		UserID:    actor.ID,
		Action:    models.ActionUpdate,
		Comment:   editContentLogComment,
		Timestamp: now,
	}

	return s.tasks.UpdateContentWithLog(taskID, content, images, edits, &entry)
}

// ChangeTaskStatus runs the status transition workflow: role gate, the
// rejected-to-pending fold, the task patch and the log append.
func (s *TaskService) ChangeTaskStatus(
	sess Session,
	taskID int64,
	requested models.TaskStatus,
	comment string,
	images []string,
) error {
	if !requested.Valid() {
		return fmt.Errorf("unknown status %q: %w", requested, ErrValidation)
	}

	actor, err := s.resolveActor(sess)
	if err != nil {
		return err
	}

	task, err := s.tasks.GetByID(taskID)
	if err != nil {
		return err
	}
	if task == nil {
		return fmt.Errorf("task %d: %w", taskID, ErrNotFound)
	}

	// Idempotent re-submission guard: same status with nothing to say is
	// a no-op, leaving both the task and its log untouched.
	if task.Status == requested && comment == "" && len(images) == 0 {
		return nil
	}

	isAssignee := task.AssigneeEmail == actor.Email
	isCreator := task.CreatorID == actor.ID

	switch requested {
	case models.StatusCompleted, models.StatusFailed:
		if !isAssignee {
			return fmt.Errorf("only the assignee can mark completed or failed: %w", ErrForbidden)
		}
	case models.StatusApproved, models.StatusRejected:
		if !isCreator {
			return fmt.Errorf("only the creator can approve or reject: %w", ErrForbidden)
		}
	}

	action, err := models.ActionForStatus(requested)
	if err != nil {
		return fmt.Errorf("%v: %w", err, ErrValidation)
	}

	entry := models.LogEntry{
		TaskID:    taskID,
		UserID:    actor.ID,
		Action:    action,
		Comment:   comment,
		Images:    images,
		Timestamp: time.Now().UTC(),
	}

	return s.tasks.UpdateStatusWithLog(taskID, requested.StoredStatus(), comment, images, &entry)
}

// EditLogComment overwrites a log entry's comment/images after pushing the
// previous values onto the entry's own edit history. Author-only.
func (s *TaskService) EditLogComment(
	sess Session,
	logID int64,
	comment string,
	images []string,
) error {
	actor, err := s.resolveActor(sess)
	if err != nil {
		return err
	}

	entry, err := s.logs.GetByID(logID)
	if err != nil {
		return err
	}
	if entry == nil {
		return fmt.Errorf("log entry %d: %w", logID, ErrNotFound)
	}
	if entry.UserID != actor.ID {
		return fmt.Errorf("only the author can edit a log entry: %w", ErrForbidden)
	}

	edits := append(entry.Edits, models.LogEdit{
		Comment:   entry.Comment,
		Images:    entry.Images,
		Timestamp: time.Now().UTC(),
	})

	return s.logs.UpdateWithHistory(logID, comment, images, edits)
}

// ListAssigned returns the tasks assigned to the given email, newest
// first. A search query switches the base set to a full-text match scoped
// to the assignee; the status filter is then applied in memory.
func (s *TaskService) ListAssigned(email, statusFilter, searchQuery string) ([]models.Task, error) {
	var tasks []models.Task
	var err error

	if searchQuery != "" {
		tasks, err = s.tasks.SearchByAssignee(email, searchQuery)
	} else {
		tasks, err = s.tasks.ListByAssignee(email)
	}
	if err != nil {
		return nil, err
	}

	if statusFilter == "" {
		return tasks, nil
	}

	filtered := tasks[:0]
	for _, t := range tasks {
		if t.Status.InAssignedBucket(statusFilter) {
			filtered = append(filtered, t)
		}
	}
	return filtered, nil
}

// ListCreated returns the tasks created by the given email, newest first.
// The filter buckets differ from ListAssigned on purpose: for a creator,
// "completed" means approved only and finished-but-unreviewed work sits in
// "review".
func (s *TaskService) ListCreated(email, statusFilter, searchQuery string) ([]models.Task, error) {
	creator, err := s.users.GetByEmail(email)
	if err != nil {
		return nil, err
	}
	if creator == nil {
		return nil, fmt.Errorf("user %s: %w", email, ErrNotFound)
	}

	var tasks []models.Task
	if searchQuery != "" {
		tasks, err = s.tasks.SearchByCreator(creator.ID, searchQuery)
	} else {
		tasks, err = s.tasks.ListByCreator(creator.ID)
	}
	if err != nil {
		return nil, err
	}

	if statusFilter == "" {
		return tasks, nil
	}

	filtered := tasks[:0]
	for _, t := range tasks {
		if t.Status.InCreatedBucket(statusFilter) {
			filtered = append(filtered, t)
		}
	}
	return filtered, nil
}

func (s *TaskService) GetSubtasks(parentID int64) ([]models.Task, error) {
	return s.tasks.ListByParent(parentID)
}

// GetTimeline returns the task's log entries newest-first, enriched with
// the acting user and resolved image URLs.
func (s *TaskService) GetTimeline(taskID int64) ([]models.LogDetail, error) {
	entries, err := s.logs.ListByTask(taskID)
	if err != nil {
		return nil, err
	}

	details := make([]models.LogDetail, 0, len(entries))
	for _, e := range entries {
		d := models.LogDetail{
			LogEntry:  e,
			ImageURLs: s.resolveImageURLs(e.Images),
		}
		if user, err := s.users.GetByID(e.UserID); err == nil {
			d.User = user
		}
		details = append(details, d)
	}
	return details, nil
}
