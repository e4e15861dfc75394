package echoapi

import (
	"github.com/labstack/echo/v4"

	"github.com/trezcool/ecolage/core"
)

const dateParam = "date"

// bindDate reads the `date` query param, defaulting to today in the configured timezone.
func bindDate(ctx echo.Context, today func() core.Date) (core.Date, error) {
	val := ctx.QueryParam(dateParam)
	if val == "" {
		return today(), nil
	}
	d, err := core.ParseDate(val)
	if err != nil {
		return core.Date{}, core.NewValidationError(nil, core.FieldError{Field: dateParam, Error: "date must be formatted as YYYY-MM-DD"})
	}
	return d, nil
}
