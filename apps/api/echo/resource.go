package echoapi

import (
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/erise-club/website/core/resource"
)

type resourceApi[T any, N resource.Input] struct {
	svc      *resource.Service[T, N]
	validate *validator.Validate
}

// registerResourceAPI mounts the list (public), create & delete (authed) endpoints of a resource.
func registerResourceAPI[T any, N resource.Input](
	g *echo.Group,
	auth echo.MiddlewareFunc,
	svc *resource.Service[T, N],
	validate *validator.Validate,
) {
	api := resourceApi[T, N]{
		svc:      svc,
		validate: validate,
	}

	rg := g.Group("/" + svc.Schema().Name)
	rg.GET("", api.query)
	rg.POST("", api.create, auth)
	rg.DELETE("/:id", api.destroy, auth)
}

// Handlers

func (api *resourceApi[T, N]) query(ctx echo.Context) error {
	ordering := new(Ordering)
	ordering.Bind(ctx)

	rows, err := api.svc.Query(ctx.Request().Context(), ordering.Orderings)
	if err != nil {
		return errors.Wrapf(err, "querying %s", api.svc.Schema().Name)
	}
	return ctx.JSON(http.StatusOK, rows)
}

func (api *resourceApi[T, N]) create(ctx echo.Context) error {
	var data N
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrapf(err, "binding to %T", data)
	}
	if err := api.validate.Struct(data); err != nil {
		return err
	}

	id, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrapf(err, "creating %s", api.svc.Schema().Name)
	}
	return ctx.JSON(http.StatusOK, CreatedResponse{ID: id})
}

func (api *resourceApi[T, N]) destroy(ctx echo.Context) error {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		return errInvalidID
	}

	if err = api.svc.Delete(ctx.Request().Context(), id); err != nil {
		return errors.Wrapf(err, "deleting %s", api.svc.Schema().Name)
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: true})
}

type CreatedResponse struct {
	ID int64 `json:"id"`
}
