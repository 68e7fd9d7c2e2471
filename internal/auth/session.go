package auth

import (
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// SessionClaim is the identity asserted by a session cookie. A zero UserID
// or an empty Username means that field is absent.
type SessionClaim struct {
	UserID   int64  `json:"uid,omitempty"`
	Username string `json:"username,omitempty"`
	jwt.RegisteredClaims
}

// Complete reports whether both identity fields are present
func (c *SessionClaim) Complete() bool {
	return c != nil && c.UserID > 0 && c.Username != ""
}

// SessionOptions configures the session cookie
type SessionOptions struct {
	CookieName string
	// Lifetime of a session; zero means the cookie lasts until the browser closes
	Lifetime time.Duration
	Secure   bool
}

// SessionCodec signs and verifies session claims carried in a cookie
type SessionCodec struct {
	secret []byte
	opts   SessionOptions
	now    func() time.Time
}

// NewSessionCodec creates a codec that signs with secret
func NewSessionCodec(secret []byte, opts SessionOptions) (*SessionCodec, error) {
	if len(secret) == 0 {
		return nil, errors.New("session secret is empty")
	}
	if opts.CookieName == "" {
		opts.CookieName = "session"
	}
	return &SessionCodec{secret: secret, opts: opts, now: time.Now}, nil
}

// CookieName returns the name of the session cookie
func (s *SessionCodec) CookieName() string {
	return s.opts.CookieName
}

// Create signs a claim for the given user
func (s *SessionCodec) Create(userID int64, username string) (string, error) {
	now := s.now()
	claims := SessionClaim{
		UserID:   userID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if s.opts.Lifetime > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(s.opts.Lifetime))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Parse verifies a token and returns its claim. Tampered, expired or
// otherwise invalid tokens yield false.
func (s *SessionCodec) Parse(tokenString string) (*SessionClaim, bool) {
	if tokenString == "" {
		return nil, false
	}

	claims := &SessionClaim{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return nil, false
	}
	return claims, true
}

// FromRequest parses the session cookie of the current request
func (s *SessionCodec) FromRequest(c echo.Context) (*SessionClaim, bool) {
	cookie, err := c.Cookie(s.opts.CookieName)
	if err != nil {
		return nil, false
	}
	return s.Parse(cookie.Value)
}

// Issue writes a fresh session cookie for the user
func (s *SessionCodec) Issue(c echo.Context, userID int64, username string) error {
	token, err := s.Create(userID, username)
	if err != nil {
		return err
	}

	cookie := s.cookie(c, token)
	if s.opts.Lifetime > 0 {
		cookie.MaxAge = int(s.opts.Lifetime.Seconds())
	}
	c.SetCookie(cookie)
	return nil
}

// Clear expires the session cookie
func (s *SessionCodec) Clear(c echo.Context) {
	cookie := s.cookie(c, "")
	cookie.MaxAge = -1
	c.SetCookie(cookie)
}

func (s *SessionCodec) cookie(c echo.Context, value string) *http.Cookie {
	return &http.Cookie{
		Name:     s.opts.CookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.opts.Secure || c.Request().TLS != nil,
		SameSite: http.SameSiteLaxMode,
	}
}
