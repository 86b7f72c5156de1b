package controllers

import (
	"errors"

	"github.com/getsentry/sentry-go"
	"github.com/labstack/echo/v4"

	"github.com/finagent/usdthub/adapter"
	"github.com/finagent/usdthub/lib/responses"
	"github.com/finagent/usdthub/lib/service"
	"github.com/finagent/usdthub/oracle"
)

// errorResponse maps service and adapter errors onto the wire error catalog.
// Unrecognized errors become a generic 500 and go to sentry.
func errorResponse(c echo.Context, err error) error {
	var vErr *service.ValidationError

	switch {
	case errors.As(err, &vErr):
		resp := responses.BadArgumentsError
		resp.Message = vErr.Error()
		return c.JSON(resp.HttpStatusCode, resp)
	case errors.Is(err, service.ErrUnknownInvoice):
		return c.JSON(responses.UnknownInvoiceError.HttpStatusCode, responses.UnknownInvoiceError)
	case errors.Is(err, service.ErrIndeterminate):
		return c.JSON(responses.IndeterminateError.HttpStatusCode, responses.IndeterminateError)
	case errors.Is(err, adapter.ErrTimeout):
		return c.JSON(responses.TimeoutError.HttpStatusCode, responses.TimeoutError)
	case errors.Is(err, adapter.ErrUnavailable):
		return c.JSON(responses.NetworkUnavailableError.HttpStatusCode, responses.NetworkUnavailableError)
	case errors.Is(err, adapter.ErrRejected):
		resp := responses.NetworkRejectedError
		resp.Message = err.Error()
		return c.JSON(resp.HttpStatusCode, resp)
	case errors.Is(err, oracle.ErrPriceUnavailable):
		return c.JSON(responses.PriceUnavailableError.HttpStatusCode, responses.PriceUnavailableError)
	default:
		c.Logger().Errorf("unhandled error: %v", err)
		sentry.CaptureException(err)
		return c.JSON(responses.GeneralServerError.HttpStatusCode, responses.GeneralServerError)
	}
}
