package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/steinfletcher/apitest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blog-backend/internal/auth"
	"blog-backend/internal/models"
	"blog-backend/internal/turnstile"
)

func TestManageRequiresAdmin(t *testing.T) {
	env := newTestEnv(t, testMode)
	env.register(t, "admin", "secret")
	alice := env.register(t, "alice", "secret")
	name, token := env.session(t, alice)

	res := apitest.New().
		Handler(env.e).
		Get("/manage/").
		Cookie(name, token).
		Expect(t).
		Status(http.StatusFound).
		Header("Location", "/").
		End()
	assert.Contains(t, env.followNotices(t, res.Response), "permission to access /manage/")

	apitest.New().
		Handler(env.e).
		Get("/manage/audit").
		Cookie(name, token).
		Expect(t).
		Status(http.StatusFound).
		Header("Location", "/").
		End()

	apitest.New().
		Handler(env.e).
		Get("/manage/").
		Expect(t).
		Status(http.StatusFound).
		Header("Location", "/auth/login").
		End()
}

func TestManageUpdateAndDelete(t *testing.T) {
	env := newTestEnv(t, testMode)
	admin := env.register(t, "admin", "secret")
	alice := env.register(t, "alice", "secret")
	id := env.createPost(t, alice, "title", "body")
	name, token := env.session(t, admin)

	apitest.New().
		Handler(env.e).
		Get("/manage/").
		Cookie(name, token).
		Expect(t).
		Status(http.StatusOK).
		Assert(bodyContains("alice")).
		End()

	apitest.New().
		Handler(env.e).
		Post("/manage/1/update").
		Cookie(name, token).
		FormData(auth.CSRFFormField, env.csrfToken(admin)).
		FormData("title", "edited").
		FormData("body", "edited body").
		Expect(t).
		Status(http.StatusFound).
		Header("Location", "/manage/").
		End()

	post, err := env.h.posts.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "edited", post.Title)

	apitest.New().
		Handler(env.e).
		Post("/manage/1/delete").
		Cookie(name, token).
		FormData(auth.CSRFFormField, env.csrfToken(admin)).
		Expect(t).
		Status(http.StatusFound).
		Header("Location", "/manage/").
		End()
	assert.Zero(t, env.postCount(t))

	res := apitest.New().
		Handler(env.e).
		Get("/manage/1/update").
		Cookie(name, token).
		Expect(t).
		Status(http.StatusFound).
		Header("Location", "/manage/").
		End()
	assert.Contains(t, env.followNotices(t, res.Response), escaped(postDeniedNotice("1")))
}

func TestManageAuditLog(t *testing.T) {
	env := newTestEnv(t, testMode)
	admin := env.register(t, "admin", "secret")
	name, token := env.session(t, admin)

	apitest.New().
		Handler(env.e).
		Post("/create").
		Cookie(name, token).
		FormData(auth.CSRFFormField, env.csrfToken(admin)).
		FormData("title", "audited").
		Expect(t).
		Status(http.StatusFound).
		End()

	apitest.New().
		Handler(env.e).
		Get("/manage/audit").
		Cookie(name, token).
		Query("action", models.ActionPostCreate).
		Expect(t).
		Status(http.StatusOK).
		Assert(bodyContains("<td>post:1</td>")).
		End()

	logs, err := env.h.audit.repo.List(context.Background(), models.AuditFilter{Action: models.ActionPostCreate})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, admin.ID, logs[0].UserID)
}

func TestManageDeleteRejectedByChallengeReturnsToEditPage(t *testing.T) {
	env := newTestEnv(t)
	env.verify.respond(`{"success": false, "error-codes": ["x"]}`)
	admin := env.register(t, "admin", "secret")
	alice := env.register(t, "alice", "secret")
	env.createPost(t, alice, "title", "body")
	name, token := env.session(t, admin)

	res := apitest.New().
		Handler(env.e).
		Post("/manage/1/delete").
		Cookie(name, token).
		FormData(auth.CSRFFormField, env.csrfToken(admin)).
		FormData(turnstile.ResponseField, "token").
		Expect(t).
		Status(http.StatusFound).
		Header("Location", "/manage/1/update").
		End()

	rec := env.follow(t, res.Response, name, token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Captcha verification failed: x")
	assert.Equal(t, 1, env.postCount(t))
}
