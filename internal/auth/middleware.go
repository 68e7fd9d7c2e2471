package auth

import (
	"context"

	"github.com/labstack/echo/v4"

	"blog-backend/internal/logutil"
)

// Context keys for storing request identity
const (
	ContextKeyIdentity = "identity"
)

// Identity is the server-verified user behind a request
type Identity struct {
	ID       int64
	Username string
}

// UserLookup resolves the current username for a user id
type UserLookup interface {
	UsernameByID(ctx context.Context, id int64) (string, error)
}

// LoadIdentity runs on every request. It re-checks the session claim
// against the credential store and stores the identity in the context only
// when the stored username for the claimed id matches exactly. Lookup
// errors leave the request anonymous. The cookie is never cleared here.
func LoadIdentity(codec *SessionCodec, users UserLookup) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if id := resolveIdentity(c, codec, users); id != nil {
				c.Set(ContextKeyIdentity, id)
			}
			return next(c)
		}
	}
}

func resolveIdentity(c echo.Context, codec *SessionCodec, users UserLookup) *Identity {
	claim, ok := codec.FromRequest(c)
	if !ok || !claim.Complete() {
		return nil
	}

	ctx := c.Request().Context()
	username, err := users.UsernameByID(ctx, claim.UserID)
	if err != nil {
		log := logutil.GetOrDefault(ctx)
		log.Debug().Err(err).Int64("user_id", claim.UserID).Msg("Session does not resolve to a user")
		return nil
	}
	if username != claim.Username {
		return nil
	}

	return &Identity{ID: claim.UserID, Username: username}
}

// GetIdentity retrieves the request identity, nil when anonymous
func GetIdentity(c echo.Context) *Identity {
	id, ok := c.Get(ContextKeyIdentity).(*Identity)
	if !ok {
		return nil
	}
	return id
}
