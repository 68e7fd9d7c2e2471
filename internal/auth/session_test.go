package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCodec(t *testing.T, secret string, lifetime time.Duration) *SessionCodec {
	t.Helper()
	codec, err := NewSessionCodec([]byte(secret), SessionOptions{CookieName: "session", Lifetime: lifetime})
	require.NoError(t, err)
	return codec
}

func TestSessionCodecRoundTrip(t *testing.T) {
	codec := newCodec(t, "secret", 0)

	token, err := codec.Create(7, "alice")
	require.NoError(t, err)

	claim, ok := codec.Parse(token)
	require.True(t, ok)
	assert.Equal(t, int64(7), claim.UserID)
	assert.Equal(t, "alice", claim.Username)
	assert.True(t, claim.Complete())
}

func TestSessionCodecRejectsForgeries(t *testing.T) {
	codec := newCodec(t, "secret", 0)
	other := newCodec(t, "other-secret", 0)

	forged, err := other.Create(1, "admin")
	require.NoError(t, err)
	_, ok := codec.Parse(forged)
	assert.False(t, ok, "token signed with another secret")

	token, err := codec.Create(2, "bob")
	require.NoError(t, err)
	parts := strings.Split(token, ".")
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]
	_, ok = codec.Parse(tampered)
	assert.False(t, ok, "tampered payload")

	none := jwt.NewWithClaims(jwt.SigningMethodNone, SessionClaim{UserID: 1, Username: "admin"})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, ok = codec.Parse(unsigned)
	assert.False(t, ok, "alg none")

	_, ok = codec.Parse("")
	assert.False(t, ok)
	_, ok = codec.Parse("garbage")
	assert.False(t, ok)
}

func TestSessionCodecExpiry(t *testing.T) {
	codec := newCodec(t, "secret", time.Hour)
	start := time.Now()
	codec.now = func() time.Time { return start }

	token, err := codec.Create(1, "alice")
	require.NoError(t, err)
	_, ok := codec.Parse(token)
	require.True(t, ok)

	codec.now = func() time.Time { return start.Add(2 * time.Hour) }
	_, ok = codec.Parse(token)
	assert.False(t, ok)
}

func TestSessionClaimPartial(t *testing.T) {
	codec := newCodec(t, "secret", 0)

	token, err := codec.Create(0, "alice")
	require.NoError(t, err)
	claim, ok := codec.Parse(token)
	require.True(t, ok)
	assert.False(t, claim.Complete())

	token, err = codec.Create(3, "")
	require.NoError(t, err)
	claim, ok = codec.Parse(token)
	require.True(t, ok)
	assert.False(t, claim.Complete())
}

func TestSessionCodecIssueAndClear(t *testing.T) {
	codec := newCodec(t, "secret", time.Hour)
	e := echo.New()

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	require.NoError(t, codec.Issue(c, 5, "carol"))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "session", cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, 3600, cookies[0].MaxAge)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	claim, ok := codec.FromRequest(e.NewContext(req, httptest.NewRecorder()))
	require.True(t, ok)
	assert.Equal(t, "carol", claim.Username)

	rec = httptest.NewRecorder()
	codec.Clear(e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec))
	cookies = rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Empty(t, cookies[0].Value)
	assert.Negative(t, cookies[0].MaxAge)
}

func TestNewSessionCodecRequiresSecret(t *testing.T) {
	_, err := NewSessionCodec(nil, SessionOptions{})
	require.Error(t, err)
}
