package handlers

import (
	"net/http"

	"salonbook/services/booking"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CatalogHandler lists what a salon offers.
type CatalogHandler struct {
	Catalog booking.Catalog
	Logger  *zap.Logger
}

func NewCatalogHandler(catalog booking.Catalog, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{Catalog: catalog, Logger: logger}
}

// ListServices handles GET /api/salons/:salonID/services.
func (h *CatalogHandler) ListServices(c *gin.Context) {
	sess, ok := session(c)
	if !ok {
		return
	}
	services, err := h.Catalog.ListServices(c.Request.Context(), sess, c.Param("salonID"))
	if err != nil {
		h.Logger.Error("ListServices: failed to fetch services", zap.Error(err))
		fe := booking.AsFlowError(err)
		c.JSON(statusFor(err), gin.H{"error": fe.Message, "kind": fe.Kind})
		return
	}
	c.JSON(http.StatusOK, gin.H{"services": services})
}

// ListStaff handles GET /api/salons/:salonID/staff.
func (h *CatalogHandler) ListStaff(c *gin.Context) {
	sess, ok := session(c)
	if !ok {
		return
	}
	staff, err := h.Catalog.ListStaff(c.Request.Context(), sess, c.Param("salonID"))
	if err != nil {
		h.Logger.Error("ListStaff: failed to fetch staff", zap.Error(err))
		fe := booking.AsFlowError(err)
		c.JSON(statusFor(err), gin.H{"error": fe.Message, "kind": fe.Kind})
		return
	}
	c.JSON(http.StatusOK, gin.H{"staff": staff})
}
