package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/njprem/authcore/internal/domain"
	"github.com/njprem/authcore/internal/service"
	"github.com/njprem/authcore/internal/util"
)

func RegisterAuth(e *echo.Echo, auth *service.AuthService, tokens *service.TokenService) {
	g := e.Group("/v1/auth")

	g.POST("/register", func(c echo.Context) error {
		var req RegisterRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, util.Error("invalid request body"))
		}
		email := strings.TrimSpace(strings.ToLower(req.Email))
		if email == "" || req.Password == "" {
			return c.JSON(http.StatusBadRequest, util.Error("email and password are required"))
		}
		user, err := auth.Register(c.Request().Context(), email, req.Password)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrPasswordTooWeak):
				return c.JSON(http.StatusBadRequest, util.Error(err.Error()))
			case errors.Is(err, service.ErrEmailTaken):
				return c.JSON(http.StatusConflict, util.Error("email already registered"))
			default:
				return c.JSON(http.StatusInternalServerError, util.Error("unable to register"))
			}
		}
		return c.JSON(http.StatusCreated, AuthUserResponse{User: toAuthUser(user)})
	})

	g.POST("/login", func(c echo.Context) error {
		var req LoginRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, util.Error("invalid request body"))
		}
		email := strings.TrimSpace(strings.ToLower(req.Email))
		user, token, expiresAt, err := auth.Login(c.Request().Context(), email, req.Password)
		if err != nil {
			if errors.Is(err, service.ErrInvalidCredentials) {
				return c.JSON(http.StatusUnauthorized, util.Error("invalid credentials"))
			}
			return c.JSON(http.StatusInternalServerError, util.Error("unable to log in"))
		}
		return c.JSON(http.StatusOK, AuthTokenResponse{
			Token:     token,
			ExpiresAt: expiresAt.Format("2006-01-02T15:04:05Z07:00"),
			User:      toAuthUser(user),
		})
	})

	g.POST("/logout", func(c echo.Context) error {
		if err := auth.Logout(c.Request().Context(), currentToken(c)); err != nil {
			return c.JSON(http.StatusInternalServerError, util.Error("unable to log out"))
		}
		return c.JSON(http.StatusOK, SuccessResponse{Success: true})
	}, RequireAuth(auth))

	g.GET("/me", func(c echo.Context) error {
		user, ok := CurrentUser(c)
		if !ok {
			return c.JSON(http.StatusUnauthorized, util.Error("authentication required"))
		}
		return c.JSON(http.StatusOK, AuthUserResponse{User: toAuthUser(user)})
	}, RequireAuth(auth))

	g.POST("/change-password", func(c echo.Context) error {
		user, ok := CurrentUser(c)
		if !ok {
			return c.JSON(http.StatusUnauthorized, util.Error("authentication required"))
		}
		var req ChangePasswordRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, util.Error("invalid request body"))
		}
		err := auth.ChangePassword(c.Request().Context(), user.ID, req.CurrentPassword, req.NewPassword)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrInvalidCredentials):
				return c.JSON(http.StatusUnauthorized, util.Error("invalid credentials"))
			case errors.Is(err, service.ErrPasswordTooWeak):
				return c.JSON(http.StatusBadRequest, util.Error(err.Error()))
			default:
				return c.JSON(http.StatusInternalServerError, util.Error("unable to change password"))
			}
		}
		return c.JSON(http.StatusOK, SuccessResponse{Success: true})
	}, RequireAuth(auth))

	// The reset-request response is identical whether or not the address
	// maps to an account, and whether or not the request was rate-limited.
	g.POST("/password-reset/request", func(c echo.Context) error {
		var req PasswordResetRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, util.Error("invalid request body"))
		}
		email := strings.TrimSpace(strings.ToLower(req.Email))
		if email == "" {
			return c.JSON(http.StatusBadRequest, util.Error("email is required"))
		}
		if err := tokens.RequestReset(c.Request().Context(), email); err != nil {
			return c.JSON(http.StatusInternalServerError, util.Error("unable to process request"))
		}
		return c.JSON(http.StatusOK, SuccessResponse{Success: true})
	})

	// Used by the frontend to check a link before showing the reset form.
	g.GET("/password-reset/verify", func(c echo.Context) error {
		plaintext := c.QueryParam("token")
		if plaintext == "" {
			return c.JSON(http.StatusBadRequest, util.Error("token is required"))
		}
		record, err := tokens.VerifyToken(c.Request().Context(), plaintext)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrTokenAlreadyUsed):
				return c.JSON(http.StatusOK, PasswordResetVerifyResponse{Valid: false, Reason: "used"})
			case errors.Is(err, service.ErrTokenExpired):
				return c.JSON(http.StatusOK, PasswordResetVerifyResponse{Valid: false, Reason: "expired"})
			case errors.Is(err, service.ErrTokenInvalid):
				return c.JSON(http.StatusOK, PasswordResetVerifyResponse{Valid: false, Reason: "invalid"})
			default:
				return c.JSON(http.StatusInternalServerError, util.Error("unable to verify token"))
			}
		}
		return c.JSON(http.StatusOK, PasswordResetVerifyResponse{Valid: true, ExpiresAt: &record.ExpiresAt})
	})

	g.POST("/password-reset/confirm", func(c echo.Context) error {
		var req PasswordResetConfirmRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, util.Error("invalid request body"))
		}
		if req.Token == "" || req.NewPassword == "" {
			return c.JSON(http.StatusBadRequest, util.Error("token and new password are required"))
		}
		err := tokens.ConsumeToken(c.Request().Context(), req.Token, req.NewPassword)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrPasswordTooWeak):
				return c.JSON(http.StatusBadRequest, util.Error(err.Error()))
			case errors.Is(err, service.ErrTokenAlreadyUsed):
				return c.JSON(http.StatusGone, util.Error("reset link already used"))
			case errors.Is(err, service.ErrTokenExpired):
				return c.JSON(http.StatusGone, util.Error("reset link expired"))
			case errors.Is(err, service.ErrTokenInvalid):
				return c.JSON(http.StatusBadRequest, util.Error("reset link invalid or expired"))
			default:
				return c.JSON(http.StatusInternalServerError, util.Error("unable to reset password"))
			}
		}
		return c.JSON(http.StatusOK, SuccessResponse{Success: true})
	})
}

func toAuthUser(user *domain.User) AuthUser {
	return AuthUser{
		ID:        user.ID.String(),
		Email:     user.Email,
		IsAdmin:   user.IsAdmin,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}
