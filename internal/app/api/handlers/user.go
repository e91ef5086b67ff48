package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	subsvc "github.com/superstar643/PITCHINVEST-sub001/internal/app/service/subscription"
	"github.com/superstar643/PITCHINVEST-sub001/pkg/response"
)

// @Summary      List user subscriptions
// @Description  Lists one user's subscriptions, newest first unless sort_by/sort_order say otherwise.
// @Tags         User
// @Produce      json
// @Param        user_id     query  string  true   "User ID"
// @Param        from        query  int     false  "Offset"
// @Param        size        query  int     false  "Page size"
// @Param        sort_by     query  string  false  "Sort column"
// @Param        sort_order  query  string  false  "asc or desc"
// @Success      200  {object}  handlers.RespListSubscriptions
// @Router       /api/v1/subscription/list [get]
func ApiUserSubscriptionList(sub *subsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.Query("user_id")
		if userID == "" {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, "missing user_id"))
			return
		}
		from := 0
		if v := c.Query("from"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n >= 0 {
				from = n
			}
		}
		size := 0
		if v := c.Query("size"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				size = n
			} else {
				c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, "invalid size"))
				return
			}
		}
		sortOrder := c.Query("sort_order")
		if sortOrder != "asc" && sortOrder != "desc" {
			sortOrder = "desc"
		}

		req := &subsvc.ScanRequest{From: from, Size: size, SortBy: c.Query("sort_by"), SortOrder: sortOrder}
		res, err := sub.ListUserSubscriptions(c.Request.Context(), userID, req)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

func RegisterUserRoutes(r gin.IRouter, sub *subsvc.Service) {
	r.GET("/subscription/list", ApiUserSubscriptionList(sub))
}
