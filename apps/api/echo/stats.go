package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ecolage/core"
	"github.com/trezcool/ecolage/core/stats"
)

func registerStatsAPI(g *echo.Group, agg *stats.Aggregator, today func() core.Date) {
	g.GET("/stats", func(ctx echo.Context) error {
		asOf, err := bindDate(ctx, today)
		if err != nil {
			return err
		}
		sum, err := agg.Compute(ctx.Request().Context(), asOf)
		if err != nil {
			return errors.Wrap(err, "computing stats")
		}
		return ctx.JSON(http.StatusOK, sum)
	})
}
