package api

import (
	"github.com/labstack/echo/v4"
)

// Form names, used to pick a challenge widget per form
const (
	formRegister       = "register"
	formChangePassword = "change_password"
	formCreate         = "create"
	formUpdate         = "update"
	formDelete         = "delete"
)

// RegisterRoutes sets up all routes
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	// Health check (public)
	e.GET("/hello", h.hello)
	e.GET("/health", h.healthCheck)

	// Auth routes
	authGroup := e.Group("/auth")
	authGroup.GET("/register", h.registerForm)
	authGroup.POST("/register", h.register, Guarded(h.RequireChallenge(formRegister, sameURI)))
	authGroup.GET("/login", h.loginForm)
	authGroup.POST("/login", h.login, h.limiter.Middleware(h.loginBlocked))
	authGroup.GET("/logout", h.logout)
	authGroup.GET("/dashboard", h.dashboard, Guarded(h.RequireLogin))
	authGroup.GET("/change_password", h.changePasswordForm, Guarded(h.RequireLogin))
	authGroup.POST("/change_password", h.changePassword,
		Guarded(h.RequireLogin, h.RequireCSRF(sameURI), h.RequireChallenge(formChangePassword, sameURI)))

	// Blog routes, authors edit their own posts
	e.GET("/", h.index)
	e.GET("/create", h.createForm, Guarded(h.RequireLogin))
	e.POST("/create", h.create,
		Guarded(h.RequireLogin, h.RequireCSRF(sameURI), h.RequireChallenge(formCreate, sameURI)))
	e.GET("/:id/update", h.updateForm,
		Guarded(h.RequireLogin, h.RequirePostAccess(true, "/")))
	e.POST("/:id/update", h.update,
		Guarded(h.RequireLogin, h.RequireCSRF(sameURI), h.RequirePostAccess(true, "/"), h.RequireChallenge(formUpdate, sameURI)))
	e.POST("/:id/delete", h.delete,
		Guarded(h.RequireLogin, h.RequireCSRF(editPage("/")), h.RequirePostAccess(true, "/"),
			h.RequireChallenge(formDelete, editPage("/"))))

	// Admin routes
	manage := e.Group("/manage")
	manage.GET("", h.manageIndex, Guarded(h.RequireLogin, h.RequireAdmin))
	manage.GET("/", h.manageIndex, Guarded(h.RequireLogin, h.RequireAdmin))
	manage.GET("/audit", h.listAuditLogs, Guarded(h.RequireLogin, h.RequireAdmin))
	manage.GET("/:id/update", h.manageUpdateForm,
		Guarded(h.RequireLogin, h.RequireAdmin, h.RequirePostAccess(false, "/manage/")))
	manage.POST("/:id/update", h.manageUpdate,
		Guarded(h.RequireLogin, h.RequireCSRF(sameURI), h.RequireAdmin, h.RequirePostAccess(false, "/manage/"), h.RequireChallenge(formUpdate, sameURI)))
	manage.POST("/:id/delete", h.manageDelete,
		Guarded(h.RequireLogin, h.RequireCSRF(editPage("/manage/")), h.RequireAdmin, h.RequirePostAccess(false, "/manage/"),
			h.RequireChallenge(formDelete, editPage("/manage/"))))
}
