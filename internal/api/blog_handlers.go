package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"blog-backend/internal/auth"
	"blog-backend/internal/database"
	"blog-backend/internal/flash"
	"blog-backend/internal/logutil"
	"blog-backend/internal/models"
)

type postList struct {
	Posts []*models.Post
}

type postForm struct {
	Title string
	Body  string
}

// index handles GET /
func (h *Handler) index(c echo.Context) error {
	return h.renderPostList(c, "blog/index")
}

func (h *Handler) renderPostList(c echo.Context, name string) error {
	posts, err := h.posts.ListAll(c.Request().Context())
	if err != nil {
		h.systemError(c, "list posts error", err)
		posts = []*models.Post{}
	}
	return h.render(c, http.StatusOK, name, postList{Posts: posts})
}

// createForm handles GET /create
func (h *Handler) createForm(c echo.Context) error {
	return h.render(c, http.StatusOK, "blog/create", postForm{}, formCreate)
}

// create handles POST /create
func (h *Handler) create(c echo.Context) error {
	id := auth.GetIdentity(c)
	form := postForm{Title: c.FormValue("title"), Body: c.FormValue("body")}

	post, err := h.posts.Create(c.Request().Context(), form.Title, form.Body, id.ID)
	if err != nil {
		h.mutationFailed(c, "create post error", err)
		return h.render(c, http.StatusOK, "blog/create", form, formCreate)
	}

	h.audit.LogFromContext(c, models.ActionPostCreate, postTarget(post.ID), map[string]string{
		"title": post.Title,
	})
	return c.Redirect(http.StatusFound, "/")
}

// updateForm handles GET /:id/update
func (h *Handler) updateForm(c echo.Context) error {
	return h.render(c, http.StatusOK, "blog/update", getPost(c), formUpdate, formDelete)
}

// update handles POST /:id/update
func (h *Handler) update(c echo.Context) error {
	return h.updatePost(c, "blog/update", "/")
}

// delete handles POST /:id/delete
func (h *Handler) delete(c echo.Context) error {
	return h.deletePost(c, "/")
}

// updatePost applies the submitted form to the post loaded by
// RequirePostAccess. Validation and storage errors re-render the form.
func (h *Handler) updatePost(c echo.Context, name, done string) error {
	post := *getPost(c)
	post.Title = c.FormValue("title")
	post.Body = c.FormValue("body")

	err := h.posts.Update(c.Request().Context(), post.ID, post.Title, post.Body)
	if errors.Is(err, database.ErrPostNotFound) {
		flash.Add(c, postDeniedNotice(c.Param("id")))
		return c.Redirect(http.StatusFound, done)
	}
	if err != nil {
		h.mutationFailed(c, "update post error", err)
		return h.render(c, http.StatusOK, name, &post, formUpdate, formDelete)
	}

	h.audit.LogFromContext(c, models.ActionPostUpdate, postTarget(post.ID), map[string]any{
		"title":     post.Title,
		"author_id": post.AuthorID,
	})
	return c.Redirect(http.StatusFound, done)
}

// deletePost removes the post loaded by RequirePostAccess
func (h *Handler) deletePost(c echo.Context, done string) error {
	post := getPost(c)

	err := h.posts.Delete(c.Request().Context(), post.ID)
	switch {
	case errors.Is(err, database.ErrPostNotFound):
		flash.Add(c, postDeniedNotice(c.Param("id")))
	case err != nil:
		log := logutil.GetOrDefault(c.Request().Context())
		log.Error().Err(err).Int64("post_id", post.ID).Msg("delete post error")
		flash.Add(c, msgSystemError)
	default:
		h.audit.LogFromContext(c, models.ActionPostDelete, postTarget(post.ID), map[string]any{
			"title":     post.Title,
			"author_id": post.AuthorID,
		})
	}
	return c.Redirect(http.StatusFound, done)
}

// mutationFailed queues the notice for a failed create or update
func (h *Handler) mutationFailed(c echo.Context, msg string, err error) {
	if notice, ok := validationNotice(err); ok {
		flash.Add(c, notice)
		return
	}
	h.systemError(c, msg, err)
}

func postTarget(id int64) string {
	return "post:" + strconv.FormatInt(id, 10)
}
