package models

import "time"

// AuditLog represents a record of user actions
type AuditLog struct {
	ID        int64     `json:"id" db:"id"`
	Timestamp time.Time `json:"timestamp" db:"timestamp"`
	UserID    int64     `json:"user_id" db:"user_id"`
	Username  string    `json:"username" db:"username"`
	Action    string    `json:"action" db:"action"`
	Target    string    `json:"target" db:"target"`
	Details   string    `json:"details" db:"details"` // JSON string
	IPAddress string    `json:"ip_address" db:"ip_address"`
}

// AuditFilter narrows an audit log listing
type AuditFilter struct {
	Action string
	Limit  int
	Offset int
}

// Common audit actions
const (
	ActionLogin          = "login"
	ActionLoginFailed    = "login.failed"
	ActionLogout         = "logout"
	ActionUserRegister   = "user.register"
	ActionPasswordChange = "user.password_change"
	ActionPostCreate     = "post.create"
	ActionPostUpdate     = "post.update"
	ActionPostDelete     = "post.delete"
	ActionChallengeFail  = "challenge.failed"
)

// AuditActions lists every action in the order shown to admins
var AuditActions = []string{
	ActionLogin,
	ActionLoginFailed,
	ActionLogout,
	ActionUserRegister,
	ActionPasswordChange,
	ActionPostCreate,
	ActionPostUpdate,
	ActionPostDelete,
	ActionChallengeFail,
}
