package transport

import (
	sentryecho "github.com/getsentry/sentry-go/echo"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/ziflex/lecho/v3"
	"golang.org/x/time/rate"

	"github.com/finagent/usdthub/controllers"
	"github.com/finagent/usdthub/lib"
	"github.com/finagent/usdthub/lib/responses"
	"github.com/finagent/usdthub/lib/service"
)

func InitEcho(c *service.Config, logger *lecho.Logger) (e *echo.Echo) {

	// New Echo app
	e = echo.New()
	e.HideBanner = true

	e.HTTPErrorHandler = responses.HTTPErrorHandler
	e.Validator = &lib.CustomValidator{Validator: validator.New()}

	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit("250K"))
	// set the default rate limit defining the overall max requests/second
	e.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(rate.Limit(c.DefaultRateLimit))))

	e.Logger = logger
	e.Use(middleware.RequestID())

	// Setup exception tracking with Sentry if configured
	// sentry init needs to happen before the echo middlewares are added
	if c.SentryDSN != "" {
		e.Use(sentryecho.New(sentryecho.Options{}))
	}
	return e
}

func CreateLoggingMiddleware(logger *lecho.Logger) echo.MiddlewareFunc {
	return lecho.Middleware(lecho.Config{
		Logger: logger,
		Enricher: func(c echo.Context, logger zerolog.Context) zerolog.Context {
			return logger.Str("CallerID", controllers.CallerKey(c))
		},
	})
}

// The per-caller sliding-window limit is enforced inside the tool controllers
// after request validation, so malformed requests never consume window slots.
func RegisterEndpoints(svc *service.PaymentService, e *echo.Echo) {
	paymentCtrl := controllers.NewPaymentController(svc)
	e.POST("/v2/payments", paymentCtrl.CreatePayment)
	e.GET("/v2/invoices", paymentCtrl.ListInvoices)
	e.GET("/v2/invoices/:invoice_id", paymentCtrl.GetInvoice)

	e.GET("/v2/balance/:network", controllers.NewBalanceController(svc).Balance)
	e.POST("/v2/send", controllers.NewSendController(svc).Send)
	e.GET("/v2/price", controllers.NewPriceController(svc).Price)
	e.GET("/v2/networks", controllers.NewNetworksController(svc).Networks)

	// inbound processor callbacks are authenticated by signature, not rate limited
	e.POST("/webhook/:network", controllers.NewWebhookController(svc).Webhook)
}
