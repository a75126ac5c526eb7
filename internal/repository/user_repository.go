package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/TWRT/taskboard/internal/models"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetByEmail returns the user with the given email, or nil when no such
// user exists. Absence is not an error here; callers decide what it means.
func (r *UserRepository) GetByEmail(email string) (*models.User, error) {
	query := `SELECT id, email, name, picture FROM users WHERE email = ?`

	var u models.User
	err := r.db.QueryRow(query, email).Scan(&u.ID, &u.Email, &u.Name, &u.Picture)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return &u, nil
}

func (r *UserRepository) GetByID(id int64) (*models.User, error) {
	query := `SELECT id, email, name, picture FROM users WHERE id = ?`

	var u models.User
	err := r.db.QueryRow(query, id).Scan(&u.ID, &u.Email, &u.Name, &u.Picture)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by id: %w", err)
	}
	return &u, nil
}

// Create inserts a bare user record holding only the email. Used when a
// task names an assignee who has never logged in.
func (r *UserRepository) Create(email string) (int64, error) {
	result, err := r.db.Exec(`INSERT INTO users (email) VALUES (?)`, email)
	if err != nil {
		return 0, fmt.Errorf("create user: %w", err)
	}
	return result.LastInsertId()
}

// Upsert creates the user or patches name/picture on an existing record.
// Nil fields keep whatever is already stored.
func (r *UserRepository) Upsert(email string, name, picture *string) (int64, error) {
	existing, err := r.GetByEmail(email)
	if err != nil {
		return 0, err
	}

	if existing == nil {
		result, err := r.db.Exec(
			`INSERT INTO users (email, name, picture) VALUES (?, ?, ?)`,
			email, name, picture,
		)
		if err != nil {
			return 0, fmt.Errorf("create user: %w", err)
		}
		return result.LastInsertId()
	}

	_, err = r.db.Exec(
		`UPDATE users SET name = COALESCE(?, name), picture = COALESCE(?, picture) WHERE id = ?`,
		name, picture, existing.ID,
	)
	if err != nil {
		return 0, fmt.Errorf("update user: %w", err)
	}
	return existing.ID, nil
}
