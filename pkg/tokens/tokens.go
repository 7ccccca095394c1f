package tokens

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrTokenExpired means the token parsed and verified but its exp is in the past.
	ErrTokenExpired = errors.New("access token expired")
	// ErrTokenMalformed means the raw string is not a header.claims.signature token.
	ErrTokenMalformed = errors.New("access token malformed")
	// ErrTokenInvalid covers bad signature, wrong issuer/audience and every
	// other verification failure.
	ErrTokenInvalid = errors.New("access token invalid")
)

// Settings holds the signing material shared by issuance and validation.
// Loaded once at startup and never mutated afterwards.
type Settings struct {
	Secret    []byte
	Issuer    string
	Audience  string
	AccessTTL time.Duration
}

type AccessClaims struct {
	Name string `json:"name"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// UserID parses the subject claim back into a user id.
func (c *AccessClaims) UserID() (uint, error) {
	id, err := strconv.ParseUint(c.Subject, 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

// Issue signs an HS256 access token for the given user. A fresh jti is
// generated on every call, so two tokens for the same user are never equal.
func Issue(set Settings, userID uint, fullName, roleName string) (string, error) {
	now := time.Now().UTC()
	claims := AccessClaims{
		Name: fullName,
		Role: roleName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			ID:        uuid.NewString(),
			Issuer:    set.Issuer,
			Audience:  jwt.ClaimStrings{set.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(set.AccessTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(set.Secret)
}

// Validate verifies signature, issuer, audience and lifetime with zero clock
// skew and returns the typed claims.
func Validate(set Settings, raw string) (*AccessClaims, error) {
	var claims AccessClaims
	tkn, err := jwt.ParseWithClaims(raw, &claims,
		func(t *jwt.Token) (any, error) {
			if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
				return nil, errors.New("unexpected sign method")
			}
			return set.Secret, nil
		},
		jwt.WithIssuer(set.Issuer),
		jwt.WithAudience(set.Audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, errors.Join(ErrTokenMalformed, err)
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, errors.Join(ErrTokenExpired, err)
		default:
			return nil, errors.Join(ErrTokenInvalid, err)
		}
	}
	if !tkn.Valid {
		return nil, ErrTokenInvalid
	}
	return &claims, nil
}
