package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ecolage/core"
	"github.com/trezcool/ecolage/core/ledger"
)

type ledgerApi struct {
	svc   *ledger.Service
	today func() core.Date
}

func registerLedgerAPI(g *echo.Group, svc *ledger.Service, today func() core.Date) {
	api := ledgerApi{svc: svc, today: today}

	fg := g.Group("/fee-plans")
	fg.POST("", api.create)
	fg.GET("", api.query)
	fg.GET("/:id", api.retrieve)
	fg.DELETE("/:id", api.destroy)
	fg.POST("/:id/payments", api.pay)
}

// Fee plans are rendered as views: derived installment statuses and balance as of `?date` (today by default).

func (api *ledgerApi) create(ctx echo.Context) error {
	var data ledger.NewFeePlan
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewFeePlan")
	}
	fp, err := api.svc.CreateFeePlan(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating fee plan")
	}
	return ctx.JSON(http.StatusCreated, ledger.NewFeePlanView(fp, api.today()))
}

func (api *ledgerApi) query(ctx echo.Context) error {
	var filter ledger.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}
	asOf, err := bindDate(ctx, api.today)
	if err != nil {
		return err
	}

	plans, err := api.svc.QueryFeePlans(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying fee plans")
	}
	views := make([]ledger.FeePlanView, 0, len(plans))
	for _, fp := range plans {
		views = append(views, ledger.NewFeePlanView(fp, asOf))
	}
	return ctx.JSON(http.StatusOK, views)
}

func (api *ledgerApi) retrieve(ctx echo.Context) error {
	asOf, err := bindDate(ctx, api.today)
	if err != nil {
		return err
	}
	fp, err := api.svc.GetFeePlan(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting fee plan")
	}
	return ctx.JSON(http.StatusOK, ledger.NewFeePlanView(fp, asOf))
}

func (api *ledgerApi) destroy(ctx echo.Context) error {
	if err := api.svc.DeleteFeePlan(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting fee plan")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *ledgerApi) pay(ctx echo.Context) error {
	var data ledger.Payment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Payment")
	}
	fp, err := api.svc.RecordPayment(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "recording payment")
	}
	return ctx.JSON(http.StatusOK, ledger.NewFeePlanView(fp, api.today()))
}
