package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// manageIndex handles GET /manage/
func (h *Handler) manageIndex(c echo.Context) error {
	return h.renderPostList(c, "manage/index")
}

// manageUpdateForm handles GET /manage/:id/update
func (h *Handler) manageUpdateForm(c echo.Context) error {
	return h.render(c, http.StatusOK, "manage/update", getPost(c), formUpdate, formDelete)
}

// manageUpdate handles POST /manage/:id/update
func (h *Handler) manageUpdate(c echo.Context) error {
	return h.updatePost(c, "manage/update", "/manage/")
}

// manageDelete handles POST /manage/:id/delete
func (h *Handler) manageDelete(c echo.Context) error {
	return h.deletePost(c, "/manage/")
}
