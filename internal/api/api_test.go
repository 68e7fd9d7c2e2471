package api

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/steinfletcher/apitest"
	"github.com/stretchr/testify/require"

	"blog-backend/internal/auth"
	"blog-backend/internal/config"
	"blog-backend/internal/database"
	"blog-backend/internal/flash"
)

type siteverifyStub struct {
	*httptest.Server
	mu       sync.Mutex
	response string
	calls    int
	lastForm url.Values
}

func newSiteverifyStub(t *testing.T) *siteverifyStub {
	t.Helper()
	s := &siteverifyStub{response: `{"success": true}`}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		s.mu.Lock()
		s.calls++
		s.lastForm = r.PostForm
		resp := s.response
		s.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, resp)
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *siteverifyStub) respond(body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.response = body
}

func (s *siteverifyStub) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type testEnv struct {
	h      *Handler
	e      *echo.Echo
	db     *sqlx.DB
	verify *siteverifyStub
}

// newTestEnv builds a server on a fresh database. The challenge is
// verified against a local stub unless the config enables test mode.
func newTestEnv(t *testing.T, opts ...func(*config.Config)) *testEnv {
	t.Helper()
	ctx := context.Background()
	stub := newSiteverifyStub(t)

	cfg := config.Default()
	cfg.Turnstile.VerifyURL = stub.URL
	cfg.Turnstile.Widgets = map[string]config.Widget{
		config.DefaultWidget: {SiteKey: "site-key", SecretKey: "secret-key"},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	db, err := database.Open(ctx, filepath.Join(t.TempDir(), "blog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	secret, err := auth.LoadOrCreateSecret(ctx, database.NewSettingsRepo(db), "")
	require.NoError(t, err)

	h, err := New(Options{Config: cfg, DB: db, Secret: secret})
	require.NoError(t, err)
	return &testEnv{h: h, e: NewServer(h, nil, zerolog.Nop()), db: db, verify: stub}
}

func testMode(cfg *config.Config) {
	cfg.TestMode = true
}

func (env *testEnv) register(t *testing.T, username, password string) *auth.Identity {
	t.Helper()
	user, err := env.h.authSvc.Register(context.Background(), username, password)
	require.NoError(t, err)
	return &auth.Identity{ID: user.ID, Username: user.Username}
}

func (env *testEnv) session(t *testing.T, id *auth.Identity) (string, string) {
	t.Helper()
	token, err := env.h.codec.Create(id.ID, id.Username)
	require.NoError(t, err)
	return env.h.codec.CookieName(), token
}

func (env *testEnv) csrfToken(id *auth.Identity) string {
	return env.h.csrf.GenerateToken(id)
}

func (env *testEnv) createPost(t *testing.T, author *auth.Identity, title, body string) int64 {
	t.Helper()
	post, err := env.h.posts.Create(context.Background(), title, body, author.ID)
	require.NoError(t, err)
	return post.ID
}

func (env *testEnv) postCount(t *testing.T) int {
	t.Helper()
	var n int
	require.NoError(t, env.db.Get(&n, "SELECT COUNT(*) FROM posts"))
	return n
}

// followNotices renders the post list with the notice cookie set by res
func (env *testEnv) followNotices(t *testing.T, res *http.Response) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range res.Cookies() {
		if c.Name == flash.CookieName {
			req.AddCookie(c)
		}
	}
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec.Body.String()
}

// follow issues the GET a browser makes after a redirect, carrying the
// notice cookie from res and the given session
func (env *testEnv) follow(t *testing.T, res *http.Response, name, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, res.Header.Get("Location"), nil)
	req.AddCookie(&http.Cookie{Name: name, Value: token})
	if c := findCookie(res, flash.CookieName); c != nil {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

func findCookie(res *http.Response, name string) *http.Cookie {
	for _, c := range res.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func bodyContains(substr string) apitest.Assert {
	return func(res *http.Response, _ *http.Request) error {
		b, err := io.ReadAll(res.Body)
		if err != nil {
			return err
		}
		res.Body = io.NopCloser(bytes.NewReader(b))
		if !strings.Contains(string(b), substr) {
			return fmt.Errorf("body does not contain %q", substr)
		}
		return nil
	}
}

func escaped(notice string) string {
	return html.EscapeString(notice)
}
