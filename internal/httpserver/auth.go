package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/warrantyhub/warranty-system/internal/events"
	"github.com/warrantyhub/warranty-system/internal/identity"
	"github.com/warrantyhub/warranty-system/internal/models"
	"github.com/warrantyhub/warranty-system/internal/repo"
	"github.com/warrantyhub/warranty-system/internal/service"
	"github.com/warrantyhub/warranty-system/pkg/logging"
)

const refreshTokenTTL = 15 * 24 * time.Hour

type AuthHTTP struct {
	Svc    *service.AuthService
	Repo   repo.GormRepo
	Events *events.Producer
}

type loginResponse struct {
	UserID      uint   `json:"userId"`
	Username    string `json:"username"`
	FullName    string `json:"fullname"`
	AccessToken string `json:"accessToken"`
	Redirect    string `json:"redirect"`
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_login")

	// Already authenticated callers get an accepted no-op instead of a
	// second token pair.
	if _, ok := identity.FromContext(ctx); ok {
		return c.NoContent(http.StatusAccepted)
	}

	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("login_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	res, err := h.Svc.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			l.Warn("login_failed", "status", 401)
			return echo.NewHTTPError(http.StatusUnauthorized, "Tên đăng nhập hoặc mật khẩu không đúng")
		}
		l.Error("login_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	now := time.Now().UTC()
	exp := now.Add(refreshTokenTTL)
	record := models.RefreshToken{
		UserID:    res.UserID,
		Token:     res.RefreshToken,
		CreatedAt: now.Unix(),
		ExpiresAt: exp.Unix(),
		Revoked:   false,
	}

	// One live refresh row per user: rotate the existing row in place
	// instead of inserting a second one.
	existing, err := h.Repo.RefreshTokenByUser(ctx, res.UserID)
	switch {
	case err == nil:
		record.ID = existing.ID
		err = h.Repo.SaveRefreshToken(ctx, &record)
	case errors.Is(err, repo.ErrNotFound):
		err = h.Repo.CreateRefreshToken(ctx, &record)
	}
	if err != nil {
		l.Error("login_failed", "status", 500, "reason", "cannot persist refresh token", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	c.SetCookie(CreateCookie(AccessCookie, res.AccessToken, "/", exp))
	c.SetCookie(CreateCookie(RefreshCookie, res.RefreshToken, "/", exp))

	h.publish(c, res.UserID, map[string]interface{}{
		"type":     "user_logged_in",
		"userId":   res.UserID,
		"username": res.Username,
	})

	l.Info("login_successful", "user_id", res.UserID)
	return c.JSON(http.StatusOK, loginResponse{
		UserID:      res.UserID,
		Username:    res.Username,
		FullName:    res.FullName,
		AccessToken: res.AccessToken,
		Redirect:    res.Redirect,
	})
}

func (h *AuthHTTP) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_logout")

	if cookie, err := c.Cookie(RefreshCookie); err == nil && cookie.Value != "" {
		stored, err := h.Repo.RefreshTokenByValue(ctx, cookie.Value)
		switch {
		case err == nil:
			if err := h.Repo.DeleteRefreshToken(ctx, stored); err != nil {
				l.Error("logout_failed", "status", 500, "reason", "cannot delete refresh token", "error", err)
				return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
			}
		case !errors.Is(err, repo.ErrNotFound):
			l.Error("logout_failed", "status", 500, "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}

	c.SetCookie(DeleteCookie(AccessCookie, "/"))
	c.SetCookie(DeleteCookie(RefreshCookie, "/"))

	if user, ok := identity.FromContext(ctx); ok {
		h.publish(c, user.ID, map[string]interface{}{
			"type":     "user_logged_out",
			"userId":   user.ID,
			"username": user.Username,
		})
	}

	l.Info("logout_successful")
	return c.JSON(http.StatusOK, echo.Map{"message": "See ya later, aligator!"})
}

func (h *AuthHTTP) Role(c echo.Context) error {
	user, ok := identity.FromContext(c.Request().Context())
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "no authenticated user")
	}
	return c.JSON(http.StatusOK, echo.Map{"role": user.RoleID.Slug()})
}

func (h *AuthHTTP) publish(c echo.Context, userID uint, event map[string]interface{}) {
	if h.Events == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Events.PublishEvent(ctx, fmt.Sprint(userID), event); err != nil {
		logging.FromContext(c.Request().Context()).Error("kafka_publish_error", "error", err)
	}
}
