package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/finagent/usdthub/lib/service"
)

// BalanceController : Hot-wallet balance per network
type BalanceController struct {
	svc *service.PaymentService
}

func NewBalanceController(svc *service.PaymentService) *BalanceController {
	return &BalanceController{svc: svc}
}

type BalanceResponse struct {
	Network string          `json:"network"`
	Balance decimal.Decimal `json:"balance"`
	Unit    string          `json:"unit"`
}

func (controller *BalanceController) Balance(c echo.Context) error {
	if limited, err := rateLimited(c, controller.svc.Limiter); limited {
		return err
	}
	network := c.Param("network")
	balance, err := controller.svc.CheckBalance(c.Request().Context(), network)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, &BalanceResponse{
		Network: network,
		Balance: balance,
		Unit:    "USDT",
	})
}
