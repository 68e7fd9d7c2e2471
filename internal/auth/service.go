package auth

import (
	"context"
	"errors"
	"fmt"

	"blog-backend/internal/database"
	"blog-backend/internal/models"
)

var (
	ErrCredentialsRequired      = errors.New("username and password are required")
	ErrUsernameTaken            = errors.New("username is already registered")
	ErrInvalidCredentials       = errors.New("invalid credentials")
	ErrCurrentPasswordRequired  = errors.New("current password is required")
	ErrNewPasswordRequired      = errors.New("new password is required")
	ErrConfirmPasswordRequired  = errors.New("password confirmation is required")
	ErrPasswordMismatch         = errors.New("new passwords do not match")
	ErrPasswordUnchanged        = errors.New("new password equals current password")
	ErrCurrentPasswordIncorrect = errors.New("current password is incorrect")
)

// Service handles authentication logic
type Service struct {
	userRepo *database.UserRepo
}

// NewService creates a new auth service
func NewService(users *database.UserRepo) *Service {
	return &Service{userRepo: users}
}

// Register creates a user with a hashed password
func (s *Service) Register(ctx context.Context, username, password string) (*models.User, error) {
	if username == "" || password == "" {
		return nil, ErrCredentialsRequired
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.userRepo.Register(ctx, username, hash)
	if errors.Is(err, database.ErrUserAlreadyExists) {
		return nil, ErrUsernameTaken
	}
	if err != nil {
		return nil, fmt.Errorf("register user: %w", err)
	}
	return user, nil
}

// Authenticate verifies credentials. Unknown users and wrong passwords
// both yield ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	if username == "" || password == "" {
		return nil, ErrCredentialsRequired
	}

	user, err := s.userRepo.GetByUsername(ctx, username)
	if errors.Is(err, database.ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}

	valid, err := VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !valid || user.ID <= 0 {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// ChangePasswordRequest carries the change password form
type ChangePasswordRequest struct {
	Current string
	New     string
	Confirm string
}

// Validate checks the form fields in the order they are reported to the user
func (r ChangePasswordRequest) Validate() error {
	switch {
	case r.Current == "":
		return ErrCurrentPasswordRequired
	case r.New == "":
		return ErrNewPasswordRequired
	case r.Confirm == "":
		return ErrConfirmPasswordRequired
	case r.New != r.Confirm:
		return ErrPasswordMismatch
	case r.Current == r.New:
		return ErrPasswordUnchanged
	}
	return nil
}

// ChangePassword replaces the user's password after checking the current one
func (s *Service) ChangePassword(ctx context.Context, userID int64, req ChangePasswordRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}

	valid, err := VerifyPassword(req.Current, user.PasswordHash)
	if err != nil {
		return fmt.Errorf("verify password: %w", err)
	}
	if !valid {
		return ErrCurrentPasswordIncorrect
	}

	hash, err := HashPassword(req.New)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.userRepo.UpdatePassword(ctx, userID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}
