package auth

import "errors"

var ErrAuthenticationRequired = errors.New("authentication required")

// Gate derives authorization decisions from a request identity. Every
// ambiguous case is a denial.
type Gate struct {
	// AdminID is the user id granted owner rights over every post
	AdminID int64
}

func (g Gate) IsAuthenticated(id *Identity) bool {
	return id != nil && id.ID > 0
}

func (g Gate) IsAdmin(id *Identity) bool {
	return g.IsAuthenticated(id) && g.AdminID > 0 && id.ID == g.AdminID
}

// IsOwnerOrAdmin reports whether id may modify a resource written by authorID
func (g Gate) IsOwnerOrAdmin(id *Identity, authorID int64) bool {
	if !g.IsAuthenticated(id) {
		return false
	}
	return id.ID == authorID || g.IsAdmin(id)
}

// RequireAuthenticated returns ErrAuthenticationRequired for anonymous requests
func (g Gate) RequireAuthenticated(id *Identity) error {
	if !g.IsAuthenticated(id) {
		return ErrAuthenticationRequired
	}
	return nil
}
