package controllers

import (
	"net/http"
	"sort"

	"github.com/labstack/echo/v4"

	"github.com/finagent/usdthub/common"
	"github.com/finagent/usdthub/lib/service"
)

// NetworksController : Static metadata about supported token networks
type NetworksController struct {
	svc *service.PaymentService
}

func NewNetworksController(svc *service.PaymentService) *NetworksController {
	return &NetworksController{svc: svc}
}

type NetworkInfo struct {
	Network               string `json:"network"`
	Chain                 string `json:"chain"`
	ConfirmationThreshold int    `json:"confirmation_threshold"`
	AddressFormat         string `json:"address_format"`
	FeeNote               string `json:"fee_note"`
}

var networkDetails = map[string]NetworkInfo{
	common.NetworkTRC20: {
		Chain:         "Tron",
		AddressFormat: "base58, starts with T, 34 characters",
		FeeNote:       "low fees, usually under 1 USDT",
	},
	common.NetworkERC20: {
		Chain:         "Ethereum",
		AddressFormat: "hex, starts with 0x, 42 characters",
		FeeNote:       "gas-dependent fees, can exceed 10 USDT",
	},
}

func (controller *NetworksController) Networks(c echo.Context) error {
	response := make([]NetworkInfo, 0, len(controller.svc.Adapters))
	for name, adp := range controller.svc.Adapters {
		info := networkDetails[name]
		info.Network = name
		info.ConfirmationThreshold = adp.ConfirmationThreshold()
		response = append(response, info)
	}
	sort.Slice(response, func(i, j int) bool { return response[i].Network < response[j].Network })
	return c.JSON(http.StatusOK, response)
}
