package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	prefssvc "github.com/trezcool/studentgroup/services/prefs"
)

type prefsApi struct {
	svc *prefssvc.Service
}

func registerPrefsAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *prefssvc.Service) {
	api := prefsApi{svc: svc}

	pg := g.Group("/prefs", jwt)
	pg.GET("/theme", api.theme)
	pg.PUT("/theme", api.setTheme)
}

func (api *prefsApi) theme(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, ThemeResponse{DarkTheme: api.svc.DarkTheme()})
}

func (api *prefsApi) setTheme(ctx echo.Context) error {
	var data ThemeResponse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ThemeResponse")
	}
	if err := api.svc.SetDarkTheme(data.DarkTheme); err != nil {
		return errors.Wrap(err, "saving theme preference")
	}
	return ctx.JSON(http.StatusOK, data)
}

type ThemeResponse struct {
	DarkTheme bool `json:"darkTheme"`
}
