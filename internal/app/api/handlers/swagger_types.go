package handlers

import (
	"github.com/superstar643/PITCHINVEST-sub001/internal/app/service/statistics"
	subsvc "github.com/superstar643/PITCHINVEST-sub001/internal/app/service/subscription"
	"github.com/superstar643/PITCHINVEST-sub001/internal/models"
	"github.com/superstar643/PITCHINVEST-sub001/pkg/response"
)

// Concrete envelope types for swag, which cannot render generics.

type RespOK struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    any                      `json:"data"`
}

type RespListSubscriptions struct {
	Code    response.APIResponseCode                 `json:"code"`
	Message string                                   `json:"message"`
	Data    subsvc.ScanResponse[models.Subscription] `json:"data"`
}

type RespListInvoices struct {
	Code    response.APIResponseCode            `json:"code"`
	Message string                              `json:"message"`
	Data    subsvc.ScanResponse[models.Invoice] `json:"data"`
}

type RespBillingStatistic struct {
	Code    response.APIResponseCode            `json:"code"`
	Message string                              `json:"message"`
	Data    statistics.BillingStatisticResponse `json:"data"`
}

type RespProcessOutbox struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    ProcessOutboxResponse    `json:"data"`
}
