package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	ecM "github.com/labstack/echo/v4/middleware"

	"github.com/warrantyhub/warranty-system/internal/identity"
	"github.com/warrantyhub/warranty-system/internal/models"
	"github.com/warrantyhub/warranty-system/internal/repo"
	"github.com/warrantyhub/warranty-system/pkg/tokens"
)

// Outcome is the explicit three-way result of validating a request's bearer
// token, instead of a swallowed exception.
type Outcome int

const (
	// OutcomeAnonymous: no token, or a token that failed verification for any
	// reason other than expiry. The request continues without identity and
	// route-level authorization decides whether that is acceptable.
	OutcomeAnonymous Outcome = iota
	// OutcomeAttached: token verified and the user exists; identity is on the
	// request context.
	OutcomeAttached
	// OutcomeRejected: terminal 401, pipeline stops. Only expiry and a valid
	// token whose user no longer exists end up here.
	OutcomeRejected
)

// AttachUser validates the bearer token of every non-exempt request and
// attaches the resolved user to the request context. It performs at most one
// user lookup per request and never touches refresh tokens.
type AttachUser struct {
	Tokens  tokens.Settings
	Repo    repo.GormRepo
	Skipper ecM.Skipper
}

func (m *AttachUser) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if m.Skipper != nil && m.Skipper(c) {
				return next(c)
			}

			raw := BearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if raw == "" {
				return next(c)
			}

			outcome, user, err := m.Resolve(c.Request().Context(), raw)
			switch outcome {
			case OutcomeAttached:
				req := c.Request()
				c.SetRequest(req.WithContext(identity.IntoContext(req.Context(), user)))
				return next(c)
			case OutcomeRejected:
				return err
			default:
				return next(c)
			}
		}
	}
}

// Resolve runs token validation and the single user lookup. The returned
// error is non-nil only for OutcomeRejected.
func (m *AttachUser) Resolve(ctx context.Context, raw string) (Outcome, *models.User, error) {
	claims, err := tokens.Validate(m.Tokens, raw)
	if err != nil {
		if errors.Is(err, tokens.ErrTokenExpired) {
			return OutcomeRejected, nil, echo.NewHTTPError(http.StatusUnauthorized, "Access token expired")
		}
		return OutcomeAnonymous, nil, nil
	}

	id, err := claims.UserID()
	if err != nil {
		return OutcomeAnonymous, nil, nil
	}

	user, err := m.Repo.UserByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return OutcomeRejected, nil, echo.NewHTTPError(http.StatusUnauthorized, "User not found")
		}
		return OutcomeRejected, nil, echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return OutcomeAttached, user, nil
}

// BearerToken extracts the token from an Authorization header value, taking
// the last whitespace-delimited field so "Bearer <token>" and a bare token
// both work.
func BearerToken(header string) string {
	fields := strings.Fields(header)
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}
