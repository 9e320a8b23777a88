package echoapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/studentgroup/core/task"
)

type taskApi struct {
	svc task.Service
}

func registerTaskAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc task.Service) {
	api := taskApi{svc: svc}

	tg := g.Group("/tasks", jwt)
	tg.GET("", api.query)
	tg.GET("/watch", api.watch)
	tg.POST("", api.create, teacherMiddleware())
	tg.PUT("/:id/complete", api.complete)
	tg.DELETE("/:id", api.destroy, teacherMiddleware())
}

func (api *taskApi) query(ctx echo.Context) error {
	tasks, err := api.svc.List(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying tasks")
	}
	if tasks == nil {
		tasks = []task.Task{}
	}
	return ctx.JSON(http.StatusOK, tasks)
}

func (api *taskApi) create(ctx echo.Context) error {
	var data task.NewTask
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTask")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	t, err := api.svc.Create(ctx.Request().Context(), data, claims.Subject, claims.FullName)
	if err != nil {
		return errors.Wrap(err, "creating task")
	}
	return ctx.JSON(http.StatusCreated, t)
}

func (api *taskApi) complete(ctx echo.Context) error {
	t, err := api.svc.Complete(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == task.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "completing task")
	}
	return ctx.JSON(http.StatusOK, t)
}

func (api *taskApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		if errors.Cause(err) == task.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "deleting task")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// watch streams task collection snapshots as server-sent events until the
// client disconnects.
func (api *taskApi) watch(ctx echo.Context) error {
	req := ctx.Request()

	snapshots, err := api.svc.Watch(req.Context())
	if err != nil {
		if errors.Cause(err) == task.ErrWatchUnsupported {
			return echo.NewHTTPError(http.StatusNotImplemented, task.ErrWatchUnsupported.Error())
		}
		return errors.Wrap(err, "subscribing to task changes")
	}

	res := ctx.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set(echo.HeaderCacheControl, "no-cache")
	res.Header().Set(echo.HeaderConnection, "keep-alive")
	res.WriteHeader(http.StatusOK)
	res.Flush()

	for {
		select {
		case <-req.Context().Done():
			return nil
		case tasks, ok := <-snapshots:
			if !ok {
				return nil
			}
			payload, err := json.Marshal(tasks)
			if err != nil {
				return errors.Wrap(err, "encoding task snapshot")
			}
			if _, err := fmt.Fprintf(res, "data: %s\n\n", payload); err != nil {
				return nil // client went away
			}
			res.Flush()
		}
	}
}
