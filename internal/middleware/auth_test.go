package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/warrantyhub/warranty-system/internal/identity"
	"github.com/warrantyhub/warranty-system/internal/models"
	"github.com/warrantyhub/warranty-system/internal/repo"
	"github.com/warrantyhub/warranty-system/pkg/tokens"
)

type attachEnv struct {
	mw *AttachUser
	db *gorm.DB
	e  *echo.Echo
}

func newAttachEnv(t *testing.T) *attachEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	// One connection per in-memory database, or the pool sees empty copies.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.User{}, &models.RefreshToken{}))

	return &attachEnv{
		mw: &AttachUser{
			Tokens: tokens.Settings{
				Secret:    []byte("test-jwt-secret"),
				Issuer:    "warranty-test",
				Audience:  "warranty-clients",
				AccessTTL: 15 * time.Minute,
			},
			Repo: repo.GormRepo{DB: db},
		},
		db: db,
		e:  echo.New(),
	}
}

func (env *attachEnv) createUser(t *testing.T, role models.Role) *models.User {
	t.Helper()

	user := &models.User{
		Username:     "alice",
		PasswordHash: "x",
		FullName:     "Alice Nguyen",
		RoleID:       role,
	}
	require.NoError(t, env.db.Create(user).Error)
	return user
}

// run sends one request through the middleware and reports whether the next
// handler ran and which identity (if any) it observed.
func (env *attachEnv) run(t *testing.T, authHeader string) (nextRan bool, attached *models.User, err error) {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/auth/role", nil)
	if authHeader != "" {
		req.Header.Set(echo.HeaderAuthorization, authHeader)
	}
	rec := httptest.NewRecorder()
	c := env.e.NewContext(req, rec)

	handler := env.mw.Middleware()(func(c echo.Context) error {
		nextRan = true
		if u, ok := identity.FromContext(c.Request().Context()); ok {
			attached = u
		}
		return c.NoContent(http.StatusOK)
	})

	err = handler(c)
	return nextRan, attached, err
}

func TestAttachUser_NoToken_ProceedsAnonymous(t *testing.T) {
	t.Parallel()

	env := newAttachEnv(t)
	nextRan, attached, err := env.run(t, "")

	require.NoError(t, err)
	assert.True(t, nextRan)
	assert.Nil(t, attached)
}

func TestAttachUser_GarbageToken_ProceedsAnonymous(t *testing.T) {
	t.Parallel()

	env := newAttachEnv(t)
	nextRan, attached, err := env.run(t, "Bearer not.a.token")

	require.NoError(t, err)
	assert.True(t, nextRan)
	assert.Nil(t, attached)
}

func TestAttachUser_BadSignature_ProceedsAnonymous(t *testing.T) {
	t.Parallel()

	env := newAttachEnv(t)
	user := env.createUser(t, models.RoleManager)

	other := env.mw.Tokens
	other.Secret = []byte("another-secret")
	token, err := tokens.Issue(other, user.ID, user.FullName, "Managers")
	require.NoError(t, err)

	nextRan, attached, err := env.run(t, "Bearer "+token)
	require.NoError(t, err)
	assert.True(t, nextRan)
	assert.Nil(t, attached)
}

func TestAttachUser_ExpiredToken_Terminal401(t *testing.T) {
	t.Parallel()

	env := newAttachEnv(t)
	user := env.createUser(t, models.RoleManager)

	stale := env.mw.Tokens
	stale.AccessTTL = -time.Minute
	token, err := tokens.Issue(stale, user.ID, user.FullName, "Managers")
	require.NoError(t, err)

	nextRan, _, err := env.run(t, "Bearer "+token)
	require.Error(t, err)
	assert.False(t, nextRan)

	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, he.Code)
	assert.Equal(t, "Access token expired", he.Message)
}

func TestAttachUser_DeletedUser_Terminal401(t *testing.T) {
	t.Parallel()

	env := newAttachEnv(t)
	token, err := tokens.Issue(env.mw.Tokens, 999, "Ghost", "Users")
	require.NoError(t, err)

	nextRan, _, err := env.run(t, "Bearer "+token)
	require.Error(t, err)
	assert.False(t, nextRan)

	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, he.Code)
	assert.Equal(t, "User not found", he.Message)
}

func TestAttachUser_ValidToken_AttachesIdentity(t *testing.T) {
	t.Parallel()

	env := newAttachEnv(t)
	user := env.createUser(t, models.RoleManager)

	token, err := tokens.Issue(env.mw.Tokens, user.ID, user.FullName, "Managers")
	require.NoError(t, err)

	nextRan, attached, err := env.run(t, "Bearer "+token)
	require.NoError(t, err)
	assert.True(t, nextRan)
	require.NotNil(t, attached)
	assert.Equal(t, user.ID, attached.ID)
	assert.Equal(t, user.Username, attached.Username)
	assert.Equal(t, models.RoleManager, attached.RoleID)
}

func TestAttachUser_ExemptRoute_SkipsValidation(t *testing.T) {
	t.Parallel()

	env := newAttachEnv(t)
	env.mw.Skipper = func(echo.Context) bool { return true }

	user := env.createUser(t, models.RoleManager)
	stale := env.mw.Tokens
	stale.AccessTTL = -time.Minute
	token, err := tokens.Issue(stale, user.ID, user.FullName, "Managers")
	require.NoError(t, err)

	nextRan, attached, err := env.run(t, "Bearer "+token)
	require.NoError(t, err)
	assert.True(t, nextRan)
	assert.Nil(t, attached)
}

func TestBearerToken(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		header string
		want   string
	}{
		{name: "bearer prefix", header: "Bearer abc.def.ghi", want: "abc.def.ghi"},
		{name: "bare token", header: "abc.def.ghi", want: "abc.def.ghi"},
		{name: "extra whitespace", header: "  Bearer   abc  ", want: "abc"},
		{name: "empty", header: "", want: ""},
		{name: "only spaces", header: "   ", want: ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, BearerToken(tt.header))
		})
	}
}
