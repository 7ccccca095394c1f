// Package identity carries the authenticated user of the current request
// through the request context as a typed value. Absent means anonymous.
package identity

import (
	"context"

	"github.com/warrantyhub/warranty-system/internal/models"
)

type ctxKey struct{}

func IntoContext(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

func FromContext(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(ctxKey{}).(*models.User)
	return u, ok && u != nil
}
