package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/TWRT/taskboard/internal/models"
)

type LogRepository struct {
	db *sql.DB
}

func NewLogRepository(db *sql.DB) *LogRepository {
	return &LogRepository{db: db}
}

// insertLogTx appends a log entry inside an already-open transaction. Log
// writes always ride the transaction of the task write they belong to.
func insertLogTx(tx *sql.Tx, entry *models.LogEntry) (int64, error) {
	images, err := marshalList(entry.Images)
	if err != nil {
		return 0, err
	}
	edits, err := marshalList(entry.Edits)
	if err != nil {
		return 0, err
	}

	result, err := tx.Exec(`
		INSERT INTO logs (task_id, user_id, action, comment, images, timestamp, edits)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		entry.TaskID,
		entry.UserID,
		entry.Action,
		entry.Comment,
		images,
		entry.Timestamp,
		edits,
	)
	if err != nil {
		return 0, fmt.Errorf("insert log entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}
	entry.ID = id
	return id, nil
}

func scanLog(row interface{ Scan(dest ...any) error }) (models.LogEntry, error) {
	var e models.LogEntry
	var images, edits string

	err := row.Scan(
		&e.ID,
		&e.TaskID,
		&e.UserID,
		&e.Action,
		&e.Comment,
		&images,
		&e.Timestamp,
		&edits,
	)
	if err != nil {
		return models.LogEntry{}, err
	}

	if e.Images, err = unmarshalList[string](images); err != nil {
		return models.LogEntry{}, err
	}
	if e.Edits, err = unmarshalList[models.LogEdit](edits); err != nil {
		return models.LogEntry{}, err
	}
	return e, nil
}

func (r *LogRepository) GetByID(id int64) (*models.LogEntry, error) {
	query := `
		SELECT id, task_id, user_id, action, comment, images, timestamp, edits
		FROM logs WHERE id = ?
	`

	e, err := scanLog(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get log entry: %w", err)
	}
	return &e, nil
}

// ListByTask returns the task's log entries newest-first.
func (r *LogRepository) ListByTask(taskID int64) ([]models.LogEntry, error) {
	query := `
		SELECT id, task_id, user_id, action, comment, images, timestamp, edits
		FROM logs
		WHERE task_id = ?
		ORDER BY timestamp DESC, id DESC
	`

	rows, err := r.db.Query(query, taskID)
	if err != nil {
		return nil, fmt.Errorf("list log entries: %w", err)
	}
	defer rows.Close()

	var entries []models.LogEntry
	for rows.Next() {
		e, err := scanLog(rows)
		if err != nil {
			return nil, fmt.Errorf("scan log entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// UpdateWithHistory overwrites the log's live comment/images and replaces
// its edit history with the extended list in one statement.
func (r *LogRepository) UpdateWithHistory(
	logID int64,
	comment string,
	images []string,
	edits []models.LogEdit,
) error {
	imagesJSON, err := marshalList(images)
	if err != nil {
		return err
	}
	editsJSON, err := marshalList(edits)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(
		`UPDATE logs SET comment = ?, images = ?, edits = ? WHERE id = ?`,
		comment, imagesJSON, editsJSON, logID,
	)
	if err != nil {
		return fmt.Errorf("update log entry: %w", err)
	}
	return nil
}
