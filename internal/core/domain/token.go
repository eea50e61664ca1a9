package domain

import (
	"strconv"
	"time"
)

// TokenKind tags what a token may be used for.
type TokenKind string

const (
	TokenAccess  TokenKind = "access"
	TokenRefresh TokenKind = "refresh"
)

// Valid reports whether k is a known token kind.
func (k TokenKind) Valid() bool {
	return k == TokenAccess || k == TokenRefresh
}

// Claims is the decoded, verified content of a token.
type Claims struct {
	Subject   string
	Role      string
	Kind      TokenKind
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenPair is returned by register, login and refresh.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// Credentials is the normalized login/registration input, whatever wire
// format it arrived in.
type Credentials struct {
	Email    string
	Password string
}

// Identity is the caller resolved from a verified access token.
type Identity struct {
	Subject string
	Role    string
}

func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// UserID parses the subject back into a user id.
func (i Identity) UserID() (int64, error) {
	id, err := strconv.ParseInt(i.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidToken
	}
	return id, nil
}
