package responses

import (
	"net/http"

	"github.com/getsentry/sentry-go"
	sentryecho "github.com/getsentry/sentry-go/echo"
	"github.com/labstack/echo/v4"
)

type ErrorResponse struct {
	Error          bool   `json:"error"`
	Kind           string `json:"kind"`
	Message        string `json:"message"`
	HttpStatusCode int    `json:"-"`
}

var GeneralServerError = ErrorResponse{
	Error:          true,
	Kind:           "INTERNAL",
	Message:        "Something went wrong. Please try again later",
	HttpStatusCode: 500,
}

var BadArgumentsError = ErrorResponse{
	Error:          true,
	Kind:           "VALIDATION_ERROR",
	Message:        "Bad arguments",
	HttpStatusCode: 400,
}

var RateLimitedError = ErrorResponse{
	Error:          true,
	Kind:           "RATE_LIMITED",
	Message:        "too many requests, slow down",
	HttpStatusCode: 429,
}

var SignatureInvalidError = ErrorResponse{
	Error:          true,
	Kind:           "SIGNATURE_INVALID",
	Message:        "webhook signature verification failed",
	HttpStatusCode: 401,
}

var UnknownInvoiceError = ErrorResponse{
	Error:          true,
	Kind:           "UNKNOWN_INVOICE",
	Message:        "no invoice with that id",
	HttpStatusCode: 404,
}

var IncorrectNetworkError = ErrorResponse{
	Error:          true,
	Kind:           "VALIDATION_ERROR",
	Message:        "incorrect network, must be trc20 or erc20",
	HttpStatusCode: 400,
}

var InvalidAddressError = ErrorResponse{
	Error:          true,
	Kind:           "VALIDATION_ERROR",
	Message:        "invalid destination address for the requested network",
	HttpStatusCode: 400,
}

var NetworkUnavailableError = ErrorResponse{
	Error:          true,
	Kind:           "NETWORK_UNAVAILABLE",
	Message:        "payment network temporarily unavailable. Please retry",
	HttpStatusCode: 502,
}

var NetworkRejectedError = ErrorResponse{
	Error:          true,
	Kind:           "NETWORK_REJECTED",
	Message:        "payment network rejected the request",
	HttpStatusCode: 400,
}

var PriceUnavailableError = ErrorResponse{
	Error:          true,
	Kind:           "PRICE_UNAVAILABLE",
	Message:        "no market price available yet. Please retry",
	HttpStatusCode: 503,
}

var TimeoutError = ErrorResponse{
	Error:          true,
	Kind:           "TIMEOUT",
	Message:        "upstream call timed out. Safe to retry",
	HttpStatusCode: 504,
}

var IndeterminateError = ErrorResponse{
	Error:          true,
	Kind:           "INDETERMINATE",
	Message:        "send submitted but result unknown, do NOT resubmit. Check the transaction before retrying",
	HttpStatusCode: 504,
}

func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	c.Logger().Error(err)
	if hub := sentryecho.GetHubFromContext(c); hub != nil {
		hub.WithScope(func(scope *sentry.Scope) {
			scope.SetExtra("RequestID", c.Response().Header().Get(echo.HeaderXRequestID))
			hub.CaptureException(err)
		})
	}
	if he, ok := err.(*echo.HTTPError); ok {
		c.JSON(he.Code, he.Message)
	} else {
		c.JSON(http.StatusInternalServerError, GeneralServerError)
	}
}
