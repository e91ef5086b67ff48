package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/superstar643/PITCHINVEST-sub001/internal/app/service/checkout"
	"github.com/superstar643/PITCHINVEST-sub001/pkg/response"
)

const maxWebhookBodyBytes = 65536

// @Summary      Stripe webhook
// @Description  Receives Stripe events. checkout.session.completed reconciles the session into a subscription.
// @Tags         Webhook
// @Accept       json
// @Produce      json
// @Param        Stripe-Signature header string true "Stripe signature"
// @Success      200  {object}  map[string]bool
// @Failure      400  {object}  response.ErrorBody
// @Failure      500  {object}  response.ErrorBody
// @Router       /api/v2/payment/webhook/stripe [post]
func ApiStripeWebhook(mgr checkout.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBodyBytes))
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error("Invalid request body"))
			return
		}
		if err := mgr.HandleStripeWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature")); err != nil {
			writeCheckoutError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"received": true})
	}
}

func RegisterWebhookRoutes(r gin.IRouter, mgr checkout.Manager) {
	r.POST("/webhook/stripe", ApiStripeWebhook(mgr))
}
