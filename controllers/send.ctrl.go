package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/finagent/usdthub/lib/responses"
	"github.com/finagent/usdthub/lib/service"
)

// SendController : Hot-wallet payouts
type SendController struct {
	svc *service.PaymentService
}

func NewSendController(svc *service.PaymentService) *SendController {
	return &SendController{svc: svc}
}

type SendRequestBody struct {
	Amount  float64 `json:"amount" validate:"required,gt=0"`
	Address string  `json:"address" validate:"required"`
	Network string  `json:"network" validate:"required"`
}

type SendResponse struct {
	TxID    string  `json:"tx_id"`
	Network string  `json:"network"`
	Amount  float64 `json:"amount"`
}

func (controller *SendController) Send(c echo.Context) error {
	var body SendRequestBody

	if err := c.Bind(&body); err != nil {
		c.Logger().Errorf("Failed to load send request body: %v", err)
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}
	if err := c.Validate(&body); err != nil {
		c.Logger().Errorf("Invalid send request body: %v", err)
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}
	if limited, err := rateLimited(c, controller.svc.Limiter); limited {
		return err
	}

	txID, err := controller.svc.SendUSDT(c.Request().Context(), body.Amount, body.Address, body.Network)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, &SendResponse{
		TxID:    txID,
		Network: body.Network,
		Amount:  body.Amount,
	})
}
