package service

import (
	"fmt"
	"strings"

	"github.com/TWRT/taskboard/internal/models"
	"github.com/TWRT/taskboard/internal/repository"
)

type UserService struct {
	users *repository.UserRepository
}

func NewUserService(users *repository.UserRepository) *UserService {
	return &UserService{users: users}
}

// SyncUser upserts the user on login: a new record for a first-time email,
// otherwise a patch of name/picture where provided. Returns the user id.
func (s *UserService) SyncUser(email string, name, picture *string) (int64, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return 0, fmt.Errorf("email is required: %w", ErrValidation)
	}
	return s.users.Upsert(email, name, picture)
}

func (s *UserService) GetByEmail(email string) (*models.User, error) {
	user, err := s.users.GetByEmail(email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("user %s: %w", email, ErrNotFound)
	}
	return user, nil
}
