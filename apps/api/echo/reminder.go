package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ecolage/core"
	"github.com/trezcool/ecolage/core/reminder"
)

type reminderApi struct {
	svc   *reminder.Service
	today func() core.Date
}

func registerReminderAPI(g *echo.Group, admin echo.MiddlewareFunc, svc *reminder.Service, today func() core.Date) {
	api := reminderApi{svc: svc, today: today}

	rg := g.Group("/reminders")
	rg.GET("", api.query)
	rg.POST("/process", api.process, admin)
	rg.GET("/rules", api.retrieveRules)
	rg.PUT("/rules", api.updateRules, admin)
}

func (api *reminderApi) query(ctx echo.Context) error {
	var filter reminder.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}
	if filter.Level != "" && !filter.Level.IsValid() {
		return core.NewValidationError(nil, core.FieldError{Field: "level", Error: "unknown level"})
	}
	records, err := api.svc.QueryReminders(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying reminders")
	}
	return ctx.JSON(http.StatusOK, records)
}

func (api *reminderApi) process(ctx echo.Context) error {
	day, err := bindDate(ctx, api.today)
	if err != nil {
		return err
	}
	res, err := api.svc.ProcessReminders(ctx.Request().Context(), day)
	if err != nil {
		return errors.Wrap(err, "processing reminders")
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *reminderApi) retrieveRules(ctx echo.Context) error {
	rules, err := api.svc.GetRules(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "getting rules")
	}
	return ctx.JSON(http.StatusOK, rules)
}

func (api *reminderApi) updateRules(ctx echo.Context) error {
	var data reminder.Rules
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Rules")
	}
	rules, err := api.svc.UpdateRules(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "updating rules")
	}
	return ctx.JSON(http.StatusOK, rules)
}
