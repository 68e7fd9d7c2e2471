// Package flash carries one-shot notices across a redirect. A notice added
// while handling one request is shown by the next rendered page and then
// discarded.
package flash

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"
)

const (
	CookieName = "notices"
	contextKey = "flash"
	maxNotices = 10
)

type state struct {
	incoming bool
	consumed bool
	notices  []string
}

// Middleware loads notices from the request cookie and writes the remaining
// ones back just before the response headers go out.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			st := &state{}
			if cookie, err := c.Cookie(CookieName); err == nil && cookie.Value != "" {
				st.incoming = true
				st.notices = decode(cookie.Value)
			}
			c.Set(contextKey, st)

			c.Response().Before(func() {
				switch {
				case len(st.notices) > 0 && !st.consumed:
					http.SetCookie(c.Response(), &http.Cookie{
						Name:     CookieName,
						Value:    encode(st.notices),
						Path:     "/",
						HttpOnly: true,
						SameSite: http.SameSiteLaxMode,
					})
				case st.incoming:
					http.SetCookie(c.Response(), &http.Cookie{
						Name:     CookieName,
						Path:     "/",
						MaxAge:   -1,
						HttpOnly: true,
						SameSite: http.SameSiteLaxMode,
					})
				}
			})
			return next(c)
		}
	}
}

// Add queues a notice for the next rendered page
func Add(c echo.Context, notice string) {
	st := current(c)
	if st == nil || notice == "" {
		return
	}
	if st.consumed {
		// already rendered once in this request, start a fresh batch
		st.notices = nil
		st.consumed = false
	}
	if len(st.notices) < maxNotices {
		st.notices = append(st.notices, notice)
	}
}

// Consume returns all pending notices and marks them as shown
func Consume(c echo.Context) []string {
	st := current(c)
	if st == nil || st.consumed {
		return nil
	}
	st.consumed = true
	return st.notices
}

func current(c echo.Context) *state {
	st, _ := c.Get(contextKey).(*state)
	return st
}

func encode(notices []string) string {
	b, _ := json.Marshal(notices)
	return base64.RawURLEncoding.EncodeToString(b)
}

func decode(value string) []string {
	b, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return nil
	}
	var notices []string
	if err := json.Unmarshal(b, &notices); err != nil {
		return nil
	}
	if len(notices) > maxNotices {
		notices = notices[:maxNotices]
	}
	return notices
}
