package routes

import (
	"salonbook/handlers"

	"github.com/gin-gonic/gin"
)

// RegisterBookingRoutes registers all endpoints for the booking flow.
func RegisterBookingRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle) {
	salons := api.Group("/salons/:salonID")
	{
		salons.GET("/services", hb.ListServicesHandler)
		salons.GET("/staff", hb.ListStaffHandler)
		salons.POST("/flows", hb.CreateFlow)
	}

	flows := api.Group("/flows/:flowID")
	{
		flows.GET("", hb.GetFlow)
		flows.DELETE("", hb.DiscardFlow)

		// Step 1: services
		flows.PUT("/services", hb.SelectServices)
		flows.POST("/services/:serviceID/toggle", hb.ToggleService)
		flows.POST("/advance", hb.Advance)
		flows.POST("/back", hb.Back)

		// Step 2-3: staff, date and time
		flows.PUT("/staff", hb.SelectStaff)
		flows.PUT("/date", hb.SelectDate)
		flows.POST("/slots/refresh", hb.RefreshSlots)
		flows.PUT("/slot", hb.SelectSlot)

		// Step 4-5: appointment and payment
		flows.POST("/submit", hb.Submit)
		flows.POST("/payment", hb.StartPayment)
		flows.POST("/payment/success", hb.PaymentSuccess)
		flows.POST("/payment/failure", hb.PaymentFailure)
		flows.POST("/payment/cancel", hb.PaymentCancel)
		flows.POST("/retry", hb.Retry)
	}
}
