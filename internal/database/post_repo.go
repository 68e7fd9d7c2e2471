package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"blog-backend/internal/models"
)

var (
	ErrPostNotFound  = errors.New("post not found")
	ErrTitleRequired = errors.New("title is required")
)

const selectPost = `
	SELECT p.id, p.title, p.body, p.created, p.author_id, u.username
	FROM posts p JOIN users u ON p.author_id = u.id
`

// PostRepo handles post database operations. It does no authorization;
// callers check ownership first.
type PostRepo struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewPostRepo creates a new post repository
func NewPostRepo(db *sqlx.DB) *PostRepo {
	return &PostRepo{db: db, now: time.Now}
}

// ListAll returns every post, newest first
func (r *PostRepo) ListAll(ctx context.Context) ([]*models.Post, error) {
	posts := []*models.Post{}
	err := r.db.SelectContext(ctx, &posts, selectPost+" ORDER BY p.created DESC, p.id DESC")
	if err != nil {
		return nil, err
	}
	return posts, nil
}

// Get retrieves a post with its author's username
func (r *PostRepo) Get(ctx context.Context, id int64) (*models.Post, error) {
	post := &models.Post{}
	err := r.db.GetContext(ctx, post, r.db.Rebind(selectPost+" WHERE p.id = ?"), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPostNotFound
	}
	if err != nil {
		return nil, err
	}
	return post, nil
}

// Create stores a new post stamped with the insertion time
func (r *PostRepo) Create(ctx context.Context, title, body string, authorID int64) (*models.Post, error) {
	if title == "" {
		return nil, ErrTitleRequired
	}

	post := &models.Post{
		Title:    title,
		Body:     body,
		AuthorID: authorID,
		Created:  r.now().UTC(),
	}
	err := WithTx(ctx, r.db, func(ctx context.Context, tx *sqlx.Tx) error {
		return tx.QueryRowxContext(ctx, tx.Rebind(`
			INSERT INTO posts (title, body, author_id, created)
			VALUES (?, ?, ?, ?)
			RETURNING id
		`), post.Title, post.Body, post.AuthorID, post.Created).Scan(&post.ID)
	})
	if err != nil {
		return nil, err
	}
	return post, nil
}

// Update replaces a post's title and body
func (r *PostRepo) Update(ctx context.Context, id int64, title, body string) error {
	if title == "" {
		return ErrTitleRequired
	}

	return WithTx(ctx, r.db, func(ctx context.Context, tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, tx.Rebind("UPDATE posts SET title = ?, body = ? WHERE id = ?"), title, body, id)
		if err != nil {
			return err
		}
		return expectOneRow(result)
	})
}

// Delete removes a post
func (r *PostRepo) Delete(ctx context.Context, id int64) error {
	return WithTx(ctx, r.db, func(ctx context.Context, tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM posts WHERE id = ?"), id)
		if err != nil {
			return err
		}
		return expectOneRow(result)
	})
}

func expectOneRow(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrPostNotFound
	}
	return nil
}
