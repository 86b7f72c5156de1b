package controllers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/finagent/usdthub/lib/service"
)

// PriceController : USDT/USD oracle quote
type PriceController struct {
	svc *service.PaymentService
}

func NewPriceController(svc *service.PaymentService) *PriceController {
	return &PriceController{svc: svc}
}

type PriceResponse struct {
	Price     decimal.Decimal `json:"price"`
	Currency  string          `json:"currency"`
	FetchedAt time.Time       `json:"fetched_at"`
	Stale     bool            `json:"stale"`
}

func (controller *PriceController) Price(c echo.Context) error {
	quote, err := controller.svc.GetUsdtPrice(c.Request().Context())
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, &PriceResponse{
		Price:     quote.Value,
		Currency:  "USD",
		FetchedAt: quote.FetchedAt,
		Stale:     quote.Stale,
	})
}
