package flash

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, cookies []*http.Cookie, h echo.HandlerFunc) *http.Response {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	require.NoError(t, Middleware()(h)(c))
	return rec.Result()
}

func noticeCookie(resp *http.Response) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == CookieName {
			return c
		}
	}
	return nil
}

func TestNoticeSurvivesRedirectOnce(t *testing.T) {
	resp := run(t, nil, func(c echo.Context) error {
		Add(c, "Login required")
		return c.Redirect(http.StatusFound, "/auth/login")
	})
	cookie := noticeCookie(resp)
	require.NotNil(t, cookie)

	var shown []string
	resp = run(t, []*http.Cookie{cookie}, func(c echo.Context) error {
		shown = Consume(c)
		return c.String(http.StatusOK, strings.Join(shown, "|"))
	})
	assert.Equal(t, []string{"Login required"}, shown)
	cleared := noticeCookie(resp)
	require.NotNil(t, cleared)
	assert.Negative(t, cleared.MaxAge)
}

func TestNoticeRenderedInSameRequest(t *testing.T) {
	var shown []string
	resp := run(t, nil, func(c echo.Context) error {
		Add(c, "Title is required.")
		shown = Consume(c)
		return c.String(http.StatusOK, "form")
	})
	assert.Equal(t, []string{"Title is required."}, shown)
	assert.Nil(t, noticeCookie(resp))
}

func TestNoticesAccumulateAcrossRedirects(t *testing.T) {
	resp := run(t, nil, func(c echo.Context) error {
		Add(c, "first")
		return c.Redirect(http.StatusFound, "/a")
	})
	resp = run(t, resp.Cookies(), func(c echo.Context) error {
		Add(c, "second")
		return c.Redirect(http.StatusFound, "/b")
	})

	var shown []string
	run(t, resp.Cookies(), func(c echo.Context) error {
		shown = Consume(c)
		return c.NoContent(http.StatusOK)
	})
	assert.Equal(t, []string{"first", "second"}, shown)
}

func TestTamperedCookieIsIgnored(t *testing.T) {
	var shown []string
	run(t, []*http.Cookie{{Name: CookieName, Value: "%%%"}}, func(c echo.Context) error {
		shown = Consume(c)
		return c.NoContent(http.StatusOK)
	})
	assert.Empty(t, shown)
}
