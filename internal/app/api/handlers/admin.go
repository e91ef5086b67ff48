package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/superstar643/PITCHINVEST-sub001/internal/app/service/outbox"
	"github.com/superstar643/PITCHINVEST-sub001/internal/app/service/statistics"
	subsvc "github.com/superstar643/PITCHINVEST-sub001/internal/app/service/subscription"
	"github.com/superstar643/PITCHINVEST-sub001/pkg/response"
)

type ListRequest = subsvc.ScanRequest

// @Summary      List Subscriptions (Admin)
// @Description  Retrieves a paginated and filterable list of subscriptions.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        request body handlers.ListRequest true "Filters, pagination and sorting"
// @Success      200  {object}  handlers.RespListSubscriptions
// @Router       /api/v1/admin/list_subscriptions [post]
func ApiListSubscriptions(sub *subsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ListRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		res, err := sub.ScanSubscriptions(c.Request.Context(), &req)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

// @Summary      List Invoices (Admin)
// @Description  Retrieves a paginated and filterable list of invoices.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        request body handlers.ListRequest true "Filters, pagination and sorting"
// @Success      200  {object}  handlers.RespListInvoices
// @Router       /api/v1/admin/list_invoices [post]
func ApiListInvoices(sub *subsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ListRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		res, err := sub.ScanInvoices(c.Request.Context(), &req)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

// @Summary      Get Billing Statistics (Admin)
// @Description  Daily invoice counts, revenue per currency and active subscription totals.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        request body statistics.BillingStatisticRequest true "Statistic request parameters"
// @Success      200  {object}  handlers.RespBillingStatistic
// @Router       /api/v1/admin/get_billing_statistic [post]
func ApiGetBillingStatistic(svc *statistics.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req statistics.BillingStatisticRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		res, err := svc.GetBillingStatistic(c.Request.Context(), &req)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

type ProcessOutboxResponse struct {
	Processed int    `json:"processed"`
	Error     string `json:"error,omitempty"`
}

// @Summary      Process Outbox (Admin)
// @Description  Runs one outbox batch immediately instead of waiting for the schedule.
// @Tags         Admin
// @Produce      json
// @Success      200  {object}  handlers.RespProcessOutbox
// @Router       /api/v1/admin/outbox/process [post]
func ApiProcessOutbox(w *outbox.Worker) gin.HandlerFunc {
	return func(c *gin.Context) {
		n, err := w.RunOnce(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT(response.APIResponseCodeError, &ProcessOutboxResponse{Processed: n, Error: err.Error()}))
			return
		}
		c.JSON(http.StatusOK, response.OKT(&ProcessOutboxResponse{Processed: n}))
	}
}

func RegisterAdminRoutes(r gin.IRouter, sub *subsvc.Service, stats *statistics.Service, w *outbox.Worker) {
	r.POST("/list_subscriptions", ApiListSubscriptions(sub))
	r.POST("/list_invoices", ApiListInvoices(sub))
	r.POST("/get_billing_statistic", ApiGetBillingStatistic(stats))
	r.POST("/outbox/process", ApiProcessOutbox(w))
}
