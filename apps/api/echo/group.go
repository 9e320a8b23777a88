package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/studentgroup/core/group"
)

type groupApi struct {
	svc group.Service
}

func registerGroupAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc group.Service) {
	api := groupApi{svc: svc}

	gg := g.Group("/group", jwt)
	gg.GET("", api.query)
}

func (api *groupApi) query(ctx echo.Context) error {
	students, err := api.svc.List(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying group roster")
	}
	if students == nil {
		students = []group.Student{}
	}
	return ctx.JSON(http.StatusOK, students)
}
