package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/njprem/authcore/internal/service"
	"github.com/njprem/authcore/internal/util"
)

func RegisterAdmin(e *echo.Echo, auth *service.AuthService, tokens *service.TokenService) {
	g := e.Group("/v1/admin", RequireAuth(auth), RequireAdmin())

	g.GET("/password-resets/stats", func(c echo.Context) error {
		stats, err := tokens.Stats(c.Request().Context())
		if err != nil {
			return c.JSON(http.StatusInternalServerError, util.Error("unable to load stats"))
		}
		return c.JSON(http.StatusOK, ResetStatsResponse{
			Active:  stats.Active,
			Used:    stats.Used,
			Expired: stats.Expired,
		})
	})
}
