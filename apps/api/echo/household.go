package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ecolage/core/household"
)

type householdApi struct {
	svc *household.Service
}

func registerHouseholdAPI(g *echo.Group, svc *household.Service) {
	api := householdApi{svc: svc}

	hg := g.Group("/households")
	hg.POST("", api.createHousehold)
	hg.GET("", api.queryHouseholds)
	hg.GET("/:id", api.retrieveHousehold)
	hg.PUT("/:id", api.updateHousehold)
	hg.DELETE("/:id", api.destroyHousehold)

	sg := g.Group("/students")
	sg.POST("", api.createStudent)
	sg.GET("", api.queryStudents)
	sg.GET("/:id", api.retrieveStudent)
	sg.PUT("/:id", api.updateStudent)
	sg.DELETE("/:id", api.destroyStudent)
}

// Households

func (api *householdApi) createHousehold(ctx echo.Context) error {
	var data household.NewHousehold
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewHousehold")
	}
	h, err := api.svc.CreateHousehold(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating household")
	}
	return ctx.JSON(http.StatusCreated, h)
}

func (api *householdApi) queryHouseholds(ctx echo.Context) error {
	hhs, err := api.svc.QueryHouseholds(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying households")
	}
	return ctx.JSON(http.StatusOK, hhs)
}

func (api *householdApi) retrieveHousehold(ctx echo.Context) error {
	h, err := api.svc.GetHousehold(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting household")
	}
	return ctx.JSON(http.StatusOK, h)
}

func (api *householdApi) updateHousehold(ctx echo.Context) error {
	var data household.UpdateHousehold
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateHousehold")
	}
	h, err := api.svc.UpdateHousehold(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating household")
	}
	return ctx.JSON(http.StatusOK, h)
}

func (api *householdApi) destroyHousehold(ctx echo.Context) error {
	if err := api.svc.DeleteHousehold(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting household")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Students

func (api *householdApi) createStudent(ctx echo.Context) error {
	var data household.NewStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}
	s, err := api.svc.CreateStudent(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating student")
	}
	return ctx.JSON(http.StatusCreated, s)
}

func (api *householdApi) queryStudents(ctx echo.Context) error {
	var filter household.StudentFilter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to StudentFilter")
	}
	students, err := api.svc.QueryStudents(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *householdApi) retrieveStudent(ctx echo.Context) error {
	s, err := api.svc.GetStudent(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting student")
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *householdApi) updateStudent(ctx echo.Context) error {
	var data household.UpdateStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateStudent")
	}
	s, err := api.svc.UpdateStudent(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating student")
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *householdApi) destroyStudent(ctx echo.Context) error {
	if err := api.svc.DeleteStudent(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting student")
	}
	return ctx.NoContent(http.StatusNoContent)
}
