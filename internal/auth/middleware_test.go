package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blog-backend/internal/database"
)

type stubUsers map[int64]string

func (s stubUsers) UsernameByID(_ context.Context, id int64) (string, error) {
	if id == 666 {
		return "", errors.New("connection reset")
	}
	name, ok := s[id]
	if !ok {
		return "", database.ErrUserNotFound
	}
	return name, nil
}

func loadIdentity(t *testing.T, codec *SessionCodec, users UserLookup, cookie *http.Cookie) (*Identity, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var got *Identity
	h := LoadIdentity(codec, users)(func(c echo.Context) error {
		got = GetIdentity(c)
		return nil
	})
	require.NoError(t, h(c))
	return got, rec
}

func sessionCookie(t *testing.T, codec *SessionCodec, id int64, username string) *http.Cookie {
	t.Helper()
	token, err := codec.Create(id, username)
	require.NoError(t, err)
	return &http.Cookie{Name: codec.CookieName(), Value: token}
}

func TestLoadIdentity(t *testing.T) {
	codec := newCodec(t, "secret", 0)
	users := stubUsers{1: "admin", 2: "alice"}

	cases := []struct {
		name   string
		cookie *http.Cookie
		want   *Identity
	}{
		{"no cookie", nil, nil},
		{"garbage cookie", &http.Cookie{Name: "session", Value: "nope"}, nil},
		{"matching claim", sessionCookie(t, codec, 2, "alice"), &Identity{ID: 2, Username: "alice"}},
		{"renamed account", sessionCookie(t, codec, 2, "alicia"), nil},
		{"deleted account", sessionCookie(t, codec, 3, "alice"), nil},
		{"missing username", sessionCookie(t, codec, 2, ""), nil},
		{"missing id", sessionCookie(t, codec, 0, "alice"), nil},
		{"storage error fails closed", sessionCookie(t, codec, 666, "alice"), nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, rec := loadIdentity(t, codec, users, tc.cookie)
			assert.Equal(t, tc.want, got)
			assert.Empty(t, rec.Result().Cookies(), "loader never touches the cookie")
		})
	}
}

func TestGetIdentityAnonymous(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	assert.Nil(t, GetIdentity(c))
}
