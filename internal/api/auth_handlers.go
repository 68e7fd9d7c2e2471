package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"blog-backend/internal/auth"
	"blog-backend/internal/flash"
	"blog-backend/internal/logutil"
	"blog-backend/internal/models"
)

type credentialsForm struct {
	Username string
}

// registerForm handles GET /auth/register
func (h *Handler) registerForm(c echo.Context) error {
	return h.render(c, http.StatusOK, "auth/register", credentialsForm{}, formRegister)
}

// register handles POST /auth/register
func (h *Handler) register(c echo.Context) error {
	username := c.FormValue("username")
	password := c.FormValue("password")
	form := credentialsForm{Username: username}

	user, err := h.authSvc.Register(c.Request().Context(), username, password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrUsernameTaken):
			flash.Add(c, alreadyRegisteredNotice(username))
		case errors.Is(err, auth.ErrCredentialsRequired):
			flash.Add(c, msgCredentialsRequired)
		default:
			h.systemError(c, "register error", err)
		}
		return h.render(c, http.StatusOK, "auth/register", form, formRegister)
	}

	h.audit.Log(c, user.ID, user.Username, models.ActionUserRegister, user.Username, nil)
	flash.Add(c, registeredNotice(user.Username))
	return c.Redirect(http.StatusFound, "/auth/login")
}

// loginForm handles GET /auth/login
func (h *Handler) loginForm(c echo.Context) error {
	return h.render(c, http.StatusOK, "auth/login", credentialsForm{})
}

// login handles POST /auth/login
func (h *Handler) login(c echo.Context) error {
	username := c.FormValue("username")
	password := c.FormValue("password")
	form := credentialsForm{Username: username}

	user, err := h.authSvc.Authenticate(c.Request().Context(), username, password)
	if err != nil {
		if notice, ok := validationNotice(err); ok {
			if errors.Is(err, auth.ErrInvalidCredentials) {
				h.audit.Log(c, 0, username, models.ActionLoginFailed, username, map[string]string{
					"reason": "invalid credentials",
				})
			}
			flash.Add(c, notice)
		} else {
			h.systemError(c, "login error", err)
		}
		return h.render(c, http.StatusOK, "auth/login", form)
	}

	if err := h.codec.Issue(c, user.ID, user.Username); err != nil {
		h.systemError(c, "issue session", err)
		return h.render(c, http.StatusOK, "auth/login", form)
	}
	h.limiter.RecordSuccess(c.RealIP())
	h.audit.Log(c, user.ID, user.Username, models.ActionLogin, user.Username, nil)

	return c.Redirect(http.StatusFound, "/")
}

// loginBlocked answers login attempts from a client over its limit
func (h *Handler) loginBlocked(c echo.Context, retryAfter time.Duration) error {
	flash.Add(c, fmt.Sprintf("Too many login attempts, try again in %s.", retryAfter.Round(time.Second)))
	return h.render(c, http.StatusTooManyRequests, "auth/login", credentialsForm{
		Username: c.FormValue("username"),
	})
}

// logout handles GET /auth/logout
func (h *Handler) logout(c echo.Context) error {
	if id := auth.GetIdentity(c); id != nil {
		h.audit.Log(c, id.ID, id.Username, models.ActionLogout, id.Username, nil)
	}
	h.codec.Clear(c)
	return c.Redirect(http.StatusFound, "/")
}

// dashboard handles GET /auth/dashboard
func (h *Handler) dashboard(c echo.Context) error {
	return h.render(c, http.StatusOK, "auth/dashboard", nil)
}

// changePasswordForm handles GET /auth/change_password
func (h *Handler) changePasswordForm(c echo.Context) error {
	return h.render(c, http.StatusOK, "auth/change_password", nil, formChangePassword)
}

// changePassword handles POST /auth/change_password
func (h *Handler) changePassword(c echo.Context) error {
	id := auth.GetIdentity(c)
	req := auth.ChangePasswordRequest{
		Current: c.FormValue("current_password"),
		New:     c.FormValue("new_password"),
		Confirm: c.FormValue("confirm_new_password"),
	}

	if err := h.authSvc.ChangePassword(c.Request().Context(), id.ID, req); err != nil {
		if notice, ok := validationNotice(err); ok {
			flash.Add(c, notice)
		} else {
			h.systemError(c, "change password error", err)
		}
		return h.render(c, http.StatusOK, "auth/change_password", nil, formChangePassword)
	}

	h.audit.Log(c, id.ID, id.Username, models.ActionPasswordChange, id.Username, nil)
	h.codec.Clear(c)
	flash.Add(c, msgPasswordChanged)
	return c.Redirect(http.StatusFound, "/auth/login")
}

// systemError logs err and queues the generic notice
func (h *Handler) systemError(c echo.Context, msg string, err error) {
	log := logutil.GetOrDefault(c.Request().Context())
	log.Error().Err(err).Msg(msg)
	flash.Add(c, msgSystemError)
}
