package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"blog-backend/internal/auth"
	"blog-backend/internal/database"
	"blog-backend/internal/flash"
	"blog-backend/internal/logutil"
	"blog-backend/internal/models"
)

const (
	auditPageSize    = 50
	auditMaxPageSize = 1000
)

// AuditLogger provides methods to log audit events from handlers
type AuditLogger struct {
	repo *database.AuditRepo
}

// NewAuditLogger creates a new audit logger
func NewAuditLogger(repo *database.AuditRepo) *AuditLogger {
	return &AuditLogger{repo: repo}
}

// Log logs an audit event. Failures are logged and never fail the request.
func (l *AuditLogger) Log(c echo.Context, userID int64, username, action, target string, details any) {
	ctx := c.Request().Context()
	if err := l.repo.Log(ctx, userID, username, action, target, details, c.RealIP()); err != nil {
		log := logutil.GetOrDefault(ctx)
		log.Warn().Err(err).Str("action", action).Msg("Failed to write audit log")
	}
}

// LogFromContext logs an audit event using the request identity
func (l *AuditLogger) LogFromContext(c echo.Context, action, target string, details any) {
	var userID int64
	var username string
	if id := auth.GetIdentity(c); id != nil {
		userID = id.ID
		username = id.Username
	}
	l.Log(c, userID, username, action, target, details)
}

type auditPage struct {
	Logs    []*models.AuditLog
	Actions []string
	Action  string
	Next    int
}

// listAuditLogs handles GET /manage/audit
func (h *Handler) listAuditLogs(c echo.Context) error {
	filter := models.AuditFilter{
		Limit:  auditPageSize,
		Offset: 0,
	}

	// Parse query parameters
	if limit := c.QueryParam("limit"); limit != "" {
		if l, err := strconv.Atoi(limit); err == nil && l > 0 && l <= auditMaxPageSize {
			filter.Limit = l
		}
	}
	if offset := c.QueryParam("offset"); offset != "" {
		if o, err := strconv.Atoi(offset); err == nil && o >= 0 {
			filter.Offset = o
		}
	}
	if action := c.QueryParam("action"); action != "" {
		filter.Action = action
	}

	logs, err := h.audit.repo.List(c.Request().Context(), filter)
	if err != nil {
		log := logutil.GetOrDefault(c.Request().Context())
		log.Error().Err(err).Msg("list audit logs error")
		flash.Add(c, msgSystemError)
		logs = []*models.AuditLog{}
	}

	data := auditPage{Logs: logs, Actions: models.AuditActions, Action: filter.Action}
	if len(logs) == filter.Limit {
		data.Next = filter.Offset + filter.Limit
	}
	return h.render(c, http.StatusOK, "manage/audit", data)
}
