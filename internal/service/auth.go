package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"

	"github.com/warrantyhub/warranty-system/internal/repo"
	"github.com/warrantyhub/warranty-system/pkg/hash"
	"github.com/warrantyhub/warranty-system/pkg/logging"
	"github.com/warrantyhub/warranty-system/pkg/tokens"
)

// ErrInvalidCredentials is returned for unknown username and wrong password
// alike, so responses cannot be used to enumerate accounts.
var ErrInvalidCredentials = errors.New("invalid username or password")

const refreshValueBytes = 64

type AuthService struct {
	Repo   repo.GormRepo
	Tokens tokens.Settings
}

// LoginResult is the identity summary handed back to the login handler.
// Persisting RefreshToken is the handler's job; the service itself never
// writes to storage.
type LoginResult struct {
	UserID       uint
	Username     string
	FullName     string
	AccessToken  string
	RefreshToken string
	Redirect     string
}

func (s *AuthService) Authenticate(ctx context.Context, username, password string) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.authenticate", "username", username)

	user, err := s.Repo.UserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			l.Warn("authenticate_failed", "status", 401, "reason", "unknown username")
			return nil, ErrInvalidCredentials
		}
		l.Error("authenticate_failed", "status", 500, "error", err)
		return nil, err
	}

	if !hash.CheckPassword(user.PasswordHash, password) {
		l.Warn("authenticate_failed", "status", 401, "reason", "wrong password")
		return nil, ErrInvalidCredentials
	}

	accessToken, err := tokens.Issue(s.Tokens, user.ID, user.FullName, user.RoleID.ClaimName())
	if err != nil {
		l.Error("authenticate_failed", "status", 500, "reason", "cannot sign access token", "error", err)
		return nil, err
	}

	refreshToken, err := NewRefreshValue()
	if err != nil {
		l.Error("authenticate_failed", "status", 500, "reason", "cannot generate refresh token", "error", err)
		return nil, err
	}

	return &LoginResult{
		UserID:       user.ID,
		Username:     user.Username,
		FullName:     user.FullName,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Redirect:     user.RoleID.Redirect(),
	}, nil
}

// NewRefreshValue returns 64 bytes of crypto/rand randomness, base64-encoded.
// The value is opaque: it is stored and compared verbatim.
func NewRefreshValue() (string, error) {
	buf := make([]byte, refreshValueBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf), nil
}

// ResolveUserFromToken validates an access token and extracts the subject
// user id. Any validation failure yields ok=false, never an error.
func (s *AuthService) ResolveUserFromToken(raw string) (uint, bool) {
	claims, err := tokens.Validate(s.Tokens, raw)
	if err != nil {
		return 0, false
	}
	id, err := claims.UserID()
	if err != nil {
		return 0, false
	}
	return id, true
}
