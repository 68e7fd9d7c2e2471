package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"blog-backend/internal/models"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")
)

// UserRepo is the credential store: username to password hash
type UserRepo struct {
	db *sqlx.DB
}

// NewUserRepo creates a new user repository
func NewUserRepo(db *sqlx.DB) *UserRepo {
	return &UserRepo{db: db}
}

// Register inserts a new user unless the username is taken. The existence
// check and the insert share one transaction.
func (r *UserRepo) Register(ctx context.Context, username, passwordHash string) (*models.User, error) {
	user := &models.User{
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}

	err := WithTx(ctx, r.db, func(ctx context.Context, tx *sqlx.Tx) error {
		var count int
		err := tx.GetContext(ctx, &count, tx.Rebind("SELECT COUNT(*) FROM users WHERE username = ?"), username)
		if err != nil {
			return err
		}
		if count > 0 {
			return ErrUserAlreadyExists
		}

		return tx.QueryRowxContext(ctx, tx.Rebind(`
			INSERT INTO users (username, password_hash, created_at)
			VALUES (?, ?, ?)
			RETURNING id
		`), user.Username, user.PasswordHash, user.CreatedAt).Scan(&user.ID)
	})
	if isUniqueViolation(err) {
		// lost a race with a concurrent registration
		return nil, ErrUserAlreadyExists
	}
	if err != nil {
		return nil, err
	}

	return user, nil
}

// GetByID retrieves a user by ID
func (r *UserRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	user := &models.User{}
	err := r.db.GetContext(ctx, user, r.db.Rebind(`
		SELECT id, username, password_hash, created_at
		FROM users WHERE id = ?
	`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// GetByUsername retrieves a user by username
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	user := &models.User{}
	err := r.db.GetContext(ctx, user, r.db.Rebind(`
		SELECT id, username, password_hash, created_at
		FROM users WHERE username = ?
	`), username)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// UsernameByID returns the username currently stored for id
func (r *UserRepo) UsernameByID(ctx context.Context, id int64) (string, error) {
	var username string
	err := r.db.GetContext(ctx, &username, r.db.Rebind("SELECT username FROM users WHERE id = ?"), id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrUserNotFound
	}
	return username, err
}

// UpdatePassword replaces the stored hash for a user
func (r *UserRepo) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	return WithTx(ctx, r.db, func(ctx context.Context, tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, tx.Rebind("UPDATE users SET password_hash = ? WHERE id = ?"), passwordHash, id)
		if err != nil {
			return err
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrUserNotFound
		}
		return nil
	})
}

// Count returns the total number of users
func (r *UserRepo) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM users"); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return count, nil
}
