package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"

	"blog-backend/internal/models"
)

// AuditRepo handles audit log database operations
type AuditRepo struct {
	db *sqlx.DB
}

// NewAuditRepo creates a new audit repository
func NewAuditRepo(db *sqlx.DB) *AuditRepo {
	return &AuditRepo{db: db}
}

// Create creates a new audit log entry
func (r *AuditRepo) Create(ctx context.Context, log *models.AuditLog) error {
	// anonymous events keep a NULL user reference
	var userID sql.NullInt64
	if log.UserID > 0 {
		userID = sql.NullInt64{Int64: log.UserID, Valid: true}
	}

	return r.db.QueryRowxContext(ctx, r.db.Rebind(`
		INSERT INTO audit_logs (timestamp, user_id, username, action, target, details, ip_address)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`), log.Timestamp, userID, log.Username, log.Action, log.Target, log.Details, log.IPAddress).Scan(&log.ID)
}

// Log is a convenience method to create an audit log entry with current timestamp
func (r *AuditRepo) Log(ctx context.Context, userID int64, username, action, target string, details any, ipAddress string) error {
	var detailsJSON string
	if details != nil {
		b, err := json.Marshal(details)
		if err != nil {
			detailsJSON = "{}"
		} else {
			detailsJSON = string(b)
		}
	}

	return r.Create(ctx, &models.AuditLog{
		Timestamp: time.Now().UTC(),
		UserID:    userID,
		Username:  username,
		Action:    action,
		Target:    target,
		Details:   detailsJSON,
		IPAddress: ipAddress,
	})
}

// List retrieves audit logs, newest first
func (r *AuditRepo) List(ctx context.Context, filter models.AuditFilter) ([]*models.AuditLog, error) {
	query := `
		SELECT id, timestamp, COALESCE(user_id, 0) AS user_id, COALESCE(username, '') AS username,
		       action, COALESCE(target, '') AS target, COALESCE(details, '') AS details,
		       COALESCE(ip_address, '') AS ip_address
		FROM audit_logs WHERE 1=1`
	args := []any{}

	if filter.Action != "" {
		query += " AND action = ?"
		args = append(args, filter.Action)
	}
	query += " ORDER BY timestamp DESC, id DESC"

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
		// sqlite only accepts OFFSET after LIMIT
		if filter.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, filter.Offset)
		}
	}

	logs := []*models.AuditLog{}
	if err := r.db.SelectContext(ctx, &logs, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	return logs, nil
}
