package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"sophia_companion_go_backend/internal/auth"
	apperrors "sophia_companion_go_backend/internal/errors"
	"sophia_companion_go_backend/internal/models"
	"sophia_companion_go_backend/internal/storage"

	"github.com/gin-gonic/gin"
)

func getPlansHandler(store storage.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		activeOnly := c.Query("active") == "true"
		plans, err := store.GetPlans(activeOnly)
		if err != nil {
			apperrors.HandleError(c, apperrors.New500Error("Error fetching subscription plans", err))
			return
		}
		if plans == nil {
			plans = []models.SubscriptionPlan{}
		}
		c.JSON(http.StatusOK, plans)
	}
}

func getPlanHandler(store storage.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			apperrors.HandleError(c, apperrors.New400Error("Invalid plan id"))
			return
		}
		plan, err := store.GetPlan(uint(id))
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				apperrors.HandleError(c, apperrors.New404Error("Subscription plan not found"))
				return
			}
			apperrors.HandleError(c, apperrors.New500Error("Error fetching subscription plan", err))
			return
		}
		c.JSON(http.StatusOK, plan)
	}
}

type subscribeRequest struct {
	PlanID               uint   `json:"planId" binding:"required"`
	PaypalSubscriptionID string `json:"paypalSubscriptionId"`
}

// subscribeHandler records an externally processed subscription purchase;
// the payment itself happens at the gateway, not here.
func subscribeHandler(store storage.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := auth.CurrentUser(c)
		if !ok {
			apperrors.HandleError(c, apperrors.New401Error("Unauthorized"))
			return
		}

		var req subscribeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			apperrors.HandleError(c, apperrors.New400Error("Plan ID is required"))
			return
		}

		plan, err := store.GetPlan(req.PlanID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				apperrors.HandleError(c, apperrors.New404Error("User or subscription plan not found"))
				return
			}
			apperrors.HandleError(c, apperrors.New500Error("Error processing subscription", err))
			return
		}

		expiry := time.Now().Add(models.PeriodFromDuration(plan.Duration))
		updated, err := store.UpdateUser(user.ID, map[string]interface{}{
			"is_paid":                true,
			"subscription_tier":      plan.Tier,
			"subscription_duration":  plan.Duration,
			"subscription_expiry":    &expiry,
			"paypal_subscription_id": req.PaypalSubscriptionID,
		})
		if err != nil {
			apperrors.HandleError(c, apperrors.New500Error("Error processing subscription", err))
			return
		}
		c.JSON(http.StatusOK, updated)
	}
}
