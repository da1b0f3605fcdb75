// File: salonbook/handlers/bundle.go
package handlers

import (
	"github.com/gin-gonic/gin"
)

// HandlerBundle groups all endpoint handlers into one struct.
type HandlerBundle struct {
	JWTSecret []byte

	// Catalog endpoints
	ListServicesHandler gin.HandlerFunc
	ListStaffHandler    gin.HandlerFunc

	// Booking flow endpoints
	CreateFlow     gin.HandlerFunc
	GetFlow        gin.HandlerFunc
	DiscardFlow    gin.HandlerFunc
	SelectServices gin.HandlerFunc
	ToggleService  gin.HandlerFunc
	Advance        gin.HandlerFunc
	Back           gin.HandlerFunc
	SelectStaff    gin.HandlerFunc
	SelectDate     gin.HandlerFunc
	RefreshSlots   gin.HandlerFunc
	SelectSlot     gin.HandlerFunc
	Submit         gin.HandlerFunc
	StartPayment   gin.HandlerFunc
	PaymentSuccess gin.HandlerFunc
	PaymentFailure gin.HandlerFunc
	PaymentCancel  gin.HandlerFunc
	Retry          gin.HandlerFunc

	// History endpoints
	ListMyBookings gin.HandlerFunc
}

// NewHandlerBundle wires handler methods into a bundle.
func NewHandlerBundle(secret []byte, catalog *CatalogHandler, flows *BookingHandler, history *HistoryHandler) *HandlerBundle {
	hb := &HandlerBundle{
		JWTSecret: secret,

		ListServicesHandler: catalog.ListServices,
		ListStaffHandler:    catalog.ListStaff,

		CreateFlow:     flows.CreateFlow,
		GetFlow:        flows.GetFlow,
		DiscardFlow:    flows.DiscardFlow,
		SelectServices: flows.SelectServices,
		ToggleService:  flows.ToggleService,
		Advance:        flows.Advance,
		Back:           flows.Back,
		SelectStaff:    flows.SelectStaff,
		SelectDate:     flows.SelectDate,
		RefreshSlots:   flows.RefreshSlots,
		SelectSlot:     flows.SelectSlot,
		Submit:         flows.Submit,
		StartPayment:   flows.StartPayment,
		PaymentSuccess: flows.PaymentSuccess,
		PaymentFailure: flows.PaymentFailure,
		PaymentCancel:  flows.PaymentCancel,
		Retry:          flows.Retry,
	}
	if history != nil {
		hb.ListMyBookings = history.ListMine
	}
	return hb
}
