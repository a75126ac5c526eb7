package repository

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/TWRT/taskboard/internal/models"
)

type TaskRepository struct {
	db *sql.DB
}

func NewTaskRepository(db *sql.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func marshalList[T any](list []T) (string, error) {
	if len(list) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(list)
	if err != nil {
		return "", fmt.Errorf("marshal list: %w", err)
	}
	return string(b), nil
}

func unmarshalList[T any](s string) ([]T, error) {
	if s == "" || s == "[]" || s == "null" {
		return nil, nil
	}
	var out []T
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil, fmt.Errorf("unmarshal list: %w", err)
	}
	return out, nil
}

func scanTask(row interface{ Scan(dest ...any) error }) (models.Task, error) {
	var t models.Task
	var images, lastCommentImages, contentEdits string
	var assigneeID, parentID sql.NullInt64

	err := row.Scan(
		&t.ID,
		&t.Content,
		&images,
		&t.CreatorID,
		&t.AssigneeEmail,
		&assigneeID,
		&t.Status,
		&parentID,
		&t.LastComment,
		&lastCommentImages,
		&t.CreationTime,
		&contentEdits,
	)
	if err != nil {
		return models.Task{}, err
	}

	if assigneeID.Valid {
		t.AssigneeID = &assigneeID.Int64
	}
	if parentID.Valid {
		t.ParentID = &parentID.Int64
	}

	if t.Images, err = unmarshalList[string](images); err != nil {
		return models.Task{}, err
	}
	if t.LastCommentImages, err = unmarshalList[string](lastCommentImages); err != nil {
		return models.Task{}, err
	}
	if t.ContentEdits, err = unmarshalList[models.ContentEdit](contentEdits); err != nil {
		return models.Task{}, err
	}

	return t, nil
}

func (r *TaskRepository) queryTasks(query string, args ...any) ([]models.Task, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (r *TaskRepository) GetByID(id int64) (*models.Task, error) {
	query := `
		SELECT id, content, images, creator_id, assignee_email, assignee_id, status,
		       parent_id, last_comment, last_comment_images, creation_time, content_edits
		FROM tasks WHERE id = ?
	`

	t, err := scanTask(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return &t, nil
}

func (r *TaskRepository) ListByAssignee(email string) ([]models.Task, error) {
	query := `
		SELECT id, content, images, creator_id, assignee_email, assignee_id, status,
		       parent_id, last_comment, last_comment_images, creation_time, content_edits
		FROM tasks
		WHERE assignee_email = ?
		ORDER BY creation_time DESC, id DESC
	`
	return r.queryTasks(query, email)
}

func (r *TaskRepository) ListByCreator(creatorID int64) ([]models.Task, error) {
	query := `
		SELECT id, content, images, creator_id, assignee_email, assignee_id, status,
		       parent_id, last_comment, last_comment_images, creation_time, content_edits
		FROM tasks
		WHERE creator_id = ?
		ORDER BY creation_time DESC, id DESC
	`
	return r.queryTasks(query, creatorID)
}

func (r *TaskRepository) ListByParent(parentID int64) ([]models.Task, error) {
	query := `
		SELECT id, content, images, creator_id, assignee_email, assignee_id, status,
		       parent_id, last_comment, last_comment_images, creation_time, content_edits
		FROM tasks
		WHERE parent_id = ?
		ORDER BY id
	`
	return r.queryTasks(query, parentID)
}

// SearchByAssignee runs a full-text match over task content scoped to one
// assignee. Search and index-based listing are separate retrieval paths;
// callers pick one, never both.
func (r *TaskRepository) SearchByAssignee(email, match string) ([]models.Task, error) {
	query := `
		SELECT t.id, t.content, t.images, t.creator_id, t.assignee_email, t.assignee_id, t.status,
		       t.parent_id, t.last_comment, t.last_comment_images, t.creation_time, t.content_edits
		FROM tasks t
		JOIN tasks_fts f ON t.id = f.rowid
		WHERE tasks_fts MATCH ? AND t.assignee_email = ?
		ORDER BY t.creation_time DESC, t.id DESC
	`
	return r.queryTasks(query, match, email)
}

func (r *TaskRepository) SearchByCreator(creatorID int64, match string) ([]models.Task, error) {
	query := `
		SELECT t.id, t.content, t.images, t.creator_id, t.assignee_email, t.assignee_id, t.status,
		       t.parent_id, t.last_comment, t.last_comment_images, t.creation_time, t.content_edits
		FROM tasks t
		JOIN tasks_fts f ON t.id = f.rowid
		WHERE tasks_fts MATCH ? AND t.creator_id = ?
		ORDER BY t.creation_time DESC, t.id DESC
	`
	return r.queryTasks(query, match, creatorID)
}

// CreateWithLog inserts the task together with its creation log entry in
// one transaction. A reader never sees a task without its create log.
func (r *TaskRepository) CreateWithLog(task *models.Task, entry *models.LogEntry) (int64, error) {
	images, err := marshalList(task.Images)
	if err != nil {
		return 0, err
	}

	tx, err := r.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin create task: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	result, err := tx.Exec(`
		INSERT INTO tasks (content, images, creator_id, assignee_email, assignee_id,
		                   status, parent_id, creation_time)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		task.Content,
		images,
		task.CreatorID,
		task.AssigneeEmail,
		task.AssigneeID,
		task.Status,
		task.ParentID,
		task.CreationTime,
	)
	if err != nil {
		return 0, fmt.Errorf("insert task: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}

	entry.TaskID = id
	if _, err = insertLogTx(tx, entry); err != nil {
		return 0, err
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit create task: %w", err)
	}

	task.ID = id
	return id, nil
}

// UpdateStatusWithLog patches the stored status and last comment fields and
// appends the transition log entry, atomically.
func (r *TaskRepository) UpdateStatusWithLog(
	taskID int64,
	status models.TaskStatus,
	lastComment string,
	lastCommentImages []string,
	entry *models.LogEntry,
) error {
	imagesJSON, err := marshalList(lastCommentImages)
	if err != nil {
		return err
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin status update: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.Exec(
		`UPDATE tasks SET status = ?, last_comment = ?, last_comment_images = ? WHERE id = ?`,
		status, lastComment, imagesJSON, taskID,
	)
	if err != nil {
		return fmt.Errorf("update task status: %w", err)
	}

	if _, err = insertLogTx(tx, entry); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit status update: %w", err)
	}
	return nil
}

// UpdateContentWithLog overwrites the live content fields, replaces the
// content history with the extended list, and appends the update log
// entry, atomically.
func (r *TaskRepository) UpdateContentWithLog(
	taskID int64,
	content string,
	images []string,
	edits []models.ContentEdit,
	entry *models.LogEntry,
) error {
	imagesJSON, err := marshalList(images)
	if err != nil {
		return err
	}
	editsJSON, err := marshalList(edits)
	if err != nil {
		return err
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin content update: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.Exec(
		`UPDATE tasks SET content = ?, images = ?, content_edits = ? WHERE id = ?`,
		content, imagesJSON, editsJSON, taskID,
	)
	if err != nil {
		return fmt.Errorf("update task content: %w", err)
	}

	if _, err = insertLogTx(tx, entry); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit content update: %w", err)
	}
	return nil
}
