package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"blog-backend/internal/auth"
	"blog-backend/internal/config"
	"blog-backend/internal/database"
	"blog-backend/internal/flash"
	"blog-backend/internal/logutil"
	"blog-backend/internal/models"
	"blog-backend/internal/turnstile"
)

const contextKeyPost = "post"

// Denial stops a request before its handler runs. The notice is shown on
// the page the client is redirected to.
type Denial struct {
	Notice   string
	Redirect string
}

// Guard inspects a request and returns a Denial to reject it, nil to let
// it through
type Guard func(c echo.Context) *Denial

// Guarded evaluates guards in order. The first denial wins and no later
// guard or handler runs.
func Guarded(guards ...Guard) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			for _, guard := range guards {
				if d := guard(c); d != nil {
					flash.Add(c, d.Notice)
					return c.Redirect(http.StatusFound, d.Redirect)
				}
			}
			return next(c)
		}
	}
}

// RequireLogin rejects anonymous requests
func (h *Handler) RequireLogin(c echo.Context) *Denial {
	if err := h.gate.RequireAuthenticated(auth.GetIdentity(c)); err != nil {
		return &Denial{Notice: msgLoginRequired, Redirect: "/auth/login"}
	}
	return nil
}

// RequireAdmin rejects everyone but the admin
func (h *Handler) RequireAdmin(c echo.Context) *Denial {
	if !h.gate.IsAdmin(auth.GetIdentity(c)) {
		return &Denial{
			Notice:   fmt.Sprintf("You don't have permission to access %s", c.Request().URL.Path),
			Redirect: "/",
		}
	}
	return nil
}

// ReturnTo names the page a rejected form submission is sent back to
type ReturnTo func(c echo.Context) string

// sameURI returns to the URL the form was posted to
func sameURI(c echo.Context) string {
	return c.Request().URL.RequestURI()
}

// editPage returns to the edit page of the post named by the id path
// parameter. Delete endpoints only accept POST, so their forms live there.
func editPage(prefix string) ReturnTo {
	return func(c echo.Context) string {
		return prefix + c.Param("id") + "/update"
	}
}

// RequireCSRF checks the form token on POSTs from signed-in users
func (h *Handler) RequireCSRF(back ReturnTo) Guard {
	return func(c echo.Context) *Denial {
		if c.Request().Method != http.MethodPost {
			return nil
		}
		if !h.csrf.ValidateToken(c.FormValue(auth.CSRFFormField), auth.GetIdentity(c)) {
			return &Denial{Notice: msgFormExpired, Redirect: back(c)}
		}
		return nil
	}
}

// RequirePostAccess loads the post named by the id path parameter and
// stores it on the context. With checkAuthor set only the author or the
// admin gets through. Missing and forbidden posts produce the same notice.
func (h *Handler) RequirePostAccess(checkAuthor bool, redirect string) Guard {
	return func(c echo.Context) *Denial {
		denied := &Denial{Notice: postDeniedNotice(c.Param("id")), Redirect: redirect}

		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil || id <= 0 {
			return denied
		}

		post, err := h.posts.Get(c.Request().Context(), id)
		if errors.Is(err, database.ErrPostNotFound) {
			return denied
		}
		if err != nil {
			log := logutil.GetOrDefault(c.Request().Context())
			log.Error().Err(err).Int64("post_id", id).Msg("Failed to load post")
			return &Denial{Notice: msgSystemError, Redirect: redirect}
		}

		if checkAuthor && !h.gate.IsOwnerOrAdmin(auth.GetIdentity(c), post.AuthorID) {
			return denied
		}

		c.Set(contextKeyPost, post)
		return nil
	}
}

// RequireChallenge verifies the challenge response on POST. Nothing is
// checked in test mode.
func (h *Handler) RequireChallenge(form string, back ReturnTo) Guard {
	return func(c echo.Context) *Denial {
		if c.Request().Method != http.MethodPost || h.cfg.TestMode {
			return nil
		}

		outcome := h.verifier.Verify(c.Request().Context(), h.widgetFor(form),
			c.FormValue(turnstile.ResponseField), c.RealIP())
		if outcome.Success {
			return nil
		}

		h.audit.LogFromContext(c, models.ActionChallengeFail, c.Request().URL.Path, map[string]any{
			"form":        form,
			"error_codes": outcome.ErrorCodes,
		})
		return &Denial{
			Notice:   "Captcha verification failed: " + outcome.Reason(),
			Redirect: back(c),
		}
	}
}

// widgetFor picks the widget configured under the form's name, falling
// back to the default widget
func (h *Handler) widgetFor(form string) string {
	if _, ok := h.cfg.Turnstile.Widgets[form]; ok {
		return form
	}
	return config.DefaultWidget
}

// getPost returns the post stored by RequirePostAccess
func getPost(c echo.Context) *models.Post {
	post, _ := c.Get(contextKeyPost).(*models.Post)
	return post
}

func postDeniedNotice(id string) string {
	return fmt.Sprintf("Post %s doesn't exist or you don't have permission to modify it.", id)
}
