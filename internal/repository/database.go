package repository

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

func InitDB(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := createTables(db); err != nil {
		return nil, err
	}

	return db, nil
}

func createTables(db *sql.DB) error {
	schema := `
    CREATE TABLE IF NOT EXISTS users (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        email TEXT NOT NULL UNIQUE,
        name TEXT,
        picture TEXT
    );

    CREATE TABLE IF NOT EXISTS tasks (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        content TEXT NOT NULL,
        images TEXT NOT NULL DEFAULT '[]',
        creator_id INTEGER NOT NULL,
        assignee_email TEXT NOT NULL,
        assignee_id INTEGER,
        status TEXT NOT NULL DEFAULT 'pending',
        parent_id INTEGER,
        last_comment TEXT NOT NULL DEFAULT '',
        last_comment_images TEXT NOT NULL DEFAULT '[]',
        creation_time DATETIME NOT NULL,
        content_edits TEXT NOT NULL DEFAULT '[]',
        FOREIGN KEY (creator_id) REFERENCES users(id),
        FOREIGN KEY (parent_id) REFERENCES tasks(id)
    );

    CREATE INDEX IF NOT EXISTS idx_tasks_assignee_email ON tasks(assignee_email);
    CREATE INDEX IF NOT EXISTS idx_tasks_creator ON tasks(creator_id);
    CREATE INDEX IF NOT EXISTS idx_tasks_parent ON tasks(parent_id);

    CREATE TABLE IF NOT EXISTS logs (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        task_id INTEGER NOT NULL,
        user_id INTEGER NOT NULL,
        action TEXT NOT NULL CHECK (action <> ''),
        comment TEXT NOT NULL DEFAULT '',
        images TEXT NOT NULL DEFAULT '[]',
        timestamp DATETIME NOT NULL,
        edits TEXT NOT NULL DEFAULT '[]',
        FOREIGN KEY (task_id) REFERENCES tasks(id)
    );

    CREATE INDEX IF NOT EXISTS idx_logs_task ON logs(task_id);
    `

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}

	return createSearchIndex(db)
}

// createSearchIndex sets up the FTS5 virtual table over task content plus
// the triggers that keep it in sync with the tasks table.
func createSearchIndex(db *sql.DB) error {
	if _, err := db.Exec(`
        CREATE VIRTUAL TABLE IF NOT EXISTS tasks_fts USING fts5(
            content,
            content='tasks',
            content_rowid='id'
        )
    `); err != nil {
		return fmt.Errorf("create tasks_fts virtual table: %w", err)
	}

	if _, err := db.Exec(`
        CREATE TRIGGER IF NOT EXISTS tasks_ai AFTER INSERT ON tasks BEGIN
            INSERT INTO tasks_fts(rowid, content) VALUES (new.id, new.content);
        END
    `); err != nil {
		return fmt.Errorf("create tasks_ai trigger: %w", err)
	}
	if _, err := db.Exec(`
        CREATE TRIGGER IF NOT EXISTS tasks_ad AFTER DELETE ON tasks BEGIN
            INSERT INTO tasks_fts(tasks_fts, rowid, content) VALUES ('delete', old.id, old.content);
        END
    `); err != nil {
		return fmt.Errorf("create tasks_ad trigger: %w", err)
	}
	if _, err := db.Exec(`
        CREATE TRIGGER IF NOT EXISTS tasks_au AFTER UPDATE OF content ON tasks BEGIN
            INSERT INTO tasks_fts(tasks_fts, rowid, content) VALUES ('delete', old.id, old.content);
            INSERT INTO tasks_fts(rowid, content) VALUES (new.id, new.content);
        END
    `); err != nil {
		return fmt.Errorf("create tasks_au trigger: %w", err)
	}

	return nil
}
