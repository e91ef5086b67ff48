package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	mw "github.com/superstar643/PITCHINVEST-sub001/internal/app/api/middleware"
	"github.com/superstar643/PITCHINVEST-sub001/internal/app/service/checkout"
	"github.com/superstar643/PITCHINVEST-sub001/pkg/response"
)

// bindUser applies the authenticated subject to the body user id. It
// reports false after writing a 403 when the two disagree.
func bindUser(c *gin.Context, userID *string) bool {
	sub := mw.AuthUserID(c)
	if sub == "" {
		return true
	}
	if *userID == "" {
		*userID = sub
		return true
	}
	if *userID != sub {
		_, body := checkout.Describe(checkout.ErrUserMismatch)
		c.JSON(http.StatusForbidden, body)
		return false
	}
	return true
}

func writeCheckoutError(c *gin.Context, err error) {
	status, body := checkout.Describe(err)
	_ = c.Error(err)
	c.JSON(status, body)
}

// @Summary      Create checkout session
// @Description  Creates a Stripe subscription checkout session for a pricing plan. Free plans return sessionId "free_subscription" without a url.
// @Tags         Checkout
// @Accept       json
// @Produce      json
// @Param        request body checkout.CreateCheckoutSessionRequest true "Checkout session request"
// @Success      200  {object}  checkout.CreateCheckoutSessionResult
// @Failure      400  {object}  response.ErrorBody
// @Failure      404  {object}  response.ErrorBody
// @Failure      500  {object}  response.ErrorBody
// @Router       /functions/v1/create-checkout-session [post]
func ApiCreateCheckoutSession(mgr checkout.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req checkout.CreateCheckoutSessionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, response.Error("Invalid JSON body"))
			return
		}
		if !bindUser(c, &req.UserID) {
			return
		}
		res, err := mgr.CreateCheckoutSession(c.Request.Context(), &req)
		if err != nil {
			writeCheckoutError(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

// @Summary      Verify checkout session
// @Description  Records a paid checkout session as a subscription with its invoice. Repeated calls return "Subscription already exists".
// @Tags         Checkout
// @Accept       json
// @Produce      json
// @Param        request body checkout.VerifyCheckoutSessionRequest true "Verify request"
// @Success      200  {object}  checkout.VerifyCheckoutSessionResult
// @Failure      400  {object}  response.ErrorBody
// @Failure      403  {object}  response.ErrorBody
// @Failure      404  {object}  response.ErrorBody
// @Failure      500  {object}  response.ErrorBody
// @Router       /functions/v1/verify-checkout-session [post]
func ApiVerifyCheckoutSession(mgr checkout.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req checkout.VerifyCheckoutSessionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, response.Error("Invalid JSON body"))
			return
		}
		if !bindUser(c, &req.UserID) {
			return
		}
		res, err := mgr.VerifyCheckoutSession(c.Request.Context(), &req)
		if err != nil {
			writeCheckoutError(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

func noContent(c *gin.Context) { c.Status(http.StatusNoContent) }

func RegisterCheckoutRoutes(r gin.IRouter, mgr checkout.Manager) {
	r.POST("/create-checkout-session", ApiCreateCheckoutSession(mgr))
	r.OPTIONS("/create-checkout-session", noContent)
	r.POST("/verify-checkout-session", ApiVerifyCheckoutSession(mgr))
	r.OPTIONS("/verify-checkout-session", noContent)
}
