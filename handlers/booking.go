package handlers

import (
	"context"
	"errors"
	"net/http"

	recordsRepo "salonbook/database/repository/records"
	"salonbook/middleware"
	"salonbook/models"
	"salonbook/services/booking"
	"salonbook/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RecordFinder looks up the recorded outcome of a flow that is no longer live.
type RecordFinder interface {
	GetByFlowID(ctx context.Context, flowID string) (*models.FlowRecord, error)
}

// BookingHandler exposes booking flows over HTTP. Records is optional.
type BookingHandler struct {
	Flows   *booking.Registry
	Records RecordFinder
	Logger  *zap.Logger
}

func NewBookingHandler(flows *booking.Registry, records RecordFinder, logger *zap.Logger) *BookingHandler {
	return &BookingHandler{Flows: flows, Records: records, Logger: logger}
}

type errorView struct {
	Kind      booking.ErrorKind `json:"kind"`
	Message   string            `json:"message"`
	Retryable bool              `json:"retryable"`
}

type flowResponse struct {
	Flow  booking.View `json:"flow"`
	Error *errorView   `json:"error,omitempty"`
}

// statusFor maps flow errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, booking.ErrFlowNotFound):
		return http.StatusNotFound
	case errors.Is(err, booking.ErrInvalidTransition), errors.Is(err, booking.ErrVerificationInProgress):
		return http.StatusConflict
	}
	switch booking.KindOf(err) {
	case booking.KindValidation:
		return http.StatusBadRequest
	case booking.KindAvailabilityConflict:
		return http.StatusConflict
	case booking.KindNetwork:
		return http.StatusBadGateway
	case booking.KindPaymentDeclined, booking.KindPaymentCancelled:
		return http.StatusPaymentRequired
	default:
		return http.StatusServiceUnavailable
	}
}

func (h *BookingHandler) respond(c *gin.Context, okStatus int, view booking.View, err error) {
	if err == nil {
		c.JSON(okStatus, flowResponse{Flow: view})
		return
	}
	fe := booking.AsFlowError(err)
	h.Logger.Debug("booking flow action rejected",
		zap.String("flowId", view.ID),
		zap.String("path", c.FullPath()),
		zap.String("kind", string(fe.Kind)),
		zap.String("message", fe.Message))
	c.JSON(statusFor(err), flowResponse{
		Flow:  view,
		Error: &errorView{Kind: fe.Kind, Message: fe.Message, Retryable: fe.Retryable()},
	})
}

func session(c *gin.Context) (models.Session, bool) {
	sess, ok := middleware.SessionFrom(c)
	if !ok {
		utils.JSONError(c, http.StatusUnauthorized, "Insufficient authorization", "no session")
	}
	return sess, ok
}

// withFlow resolves the caller's flow and runs action on it.
func (h *BookingHandler) withFlow(c *gin.Context, action func(*booking.Controller) (booking.View, error)) {
	sess, ok := session(c)
	if !ok {
		return
	}
	ctrl, err := h.Flows.Get(sess, c.Param("flowID"))
	if err != nil {
		utils.JSONError(c, http.StatusNotFound, "booking flow not found", err.Error())
		return
	}
	view, err := action(ctrl)
	h.respond(c, http.StatusOK, view, err)
}

// CreateFlow handles POST /api/salons/:salonID/flows.
func (h *BookingHandler) CreateFlow(c *gin.Context) {
	sess, ok := session(c)
	if !ok {
		return
	}
	ctrl, err := h.Flows.Create(c.Request.Context(), sess, c.Param("salonID"))
	if err != nil {
		fe := booking.AsFlowError(err)
		c.JSON(statusFor(err), gin.H{"error": errorView{Kind: fe.Kind, Message: fe.Message, Retryable: fe.Retryable()}})
		return
	}
	h.respond(c, http.StatusCreated, ctrl.Snapshot(), nil)
}

// GetFlow handles GET /api/flows/:flowID.
// Flows that were evicted after finishing are answered from their record.
func (h *BookingHandler) GetFlow(c *gin.Context) {
	sess, ok := session(c)
	if !ok {
		return
	}
	flowID := c.Param("flowID")
	ctrl, err := h.Flows.Get(sess, flowID)
	if err == nil {
		c.JSON(http.StatusOK, flowResponse{Flow: ctrl.Snapshot()})
		return
	}
	if h.Records == nil {
		utils.JSONError(c, http.StatusNotFound, "booking flow not found", err.Error())
		return
	}

	rec, recErr := h.Records.GetByFlowID(c.Request.Context(), flowID)
	switch {
	case errors.Is(recErr, recordsRepo.ErrRecordNotFound):
	case recErr != nil:
		h.Logger.Error("GetFlow: failed to load flow record", zap.String("flowId", flowID), zap.Error(recErr))
		utils.JSONError(c, http.StatusInternalServerError, "failed to load booking flow", "")
		return
	case rec != nil && rec.UserID == sess.UserID:
		c.JSON(http.StatusOK, gin.H{"record": rec})
		return
	}
	utils.JSONError(c, http.StatusNotFound, "booking flow not found", err.Error())
}

// DiscardFlow handles DELETE /api/flows/:flowID.
func (h *BookingHandler) DiscardFlow(c *gin.Context) {
	sess, ok := session(c)
	if !ok {
		return
	}
	if err := h.Flows.Discard(sess, c.Param("flowID")); err != nil {
		utils.JSONError(c, http.StatusNotFound, "booking flow not found", err.Error())
		return
	}
	c.Status(http.StatusNoContent)
}

type selectServicesInput struct {
	ServiceIDs []string `json:"serviceIds"`
}

// SelectServices handles PUT /api/flows/:flowID/services.
func (h *BookingHandler) SelectServices(c *gin.Context) {
	var input selectServicesInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}
	h.withFlow(c, func(ctrl *booking.Controller) (booking.View, error) {
		return ctrl.SelectServices(input.ServiceIDs)
	})
}

// ToggleService handles POST /api/flows/:flowID/services/:serviceID/toggle.
func (h *BookingHandler) ToggleService(c *gin.Context) {
	h.withFlow(c, func(ctrl *booking.Controller) (booking.View, error) {
		return ctrl.ToggleService(c.Param("serviceID"))
	})
}

// Advance handles POST /api/flows/:flowID/advance.
func (h *BookingHandler) Advance(c *gin.Context) {
	h.withFlow(c, (*booking.Controller).Advance)
}

// Back handles POST /api/flows/:flowID/back.
func (h *BookingHandler) Back(c *gin.Context) {
	h.withFlow(c, (*booking.Controller).Back)
}

type selectStaffInput struct {
	StaffID string `json:"staffId"`
}

// SelectStaff handles PUT /api/flows/:flowID/staff. An empty staffId means any available.
func (h *BookingHandler) SelectStaff(c *gin.Context) {
	var input selectStaffInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}
	h.withFlow(c, func(ctrl *booking.Controller) (booking.View, error) {
		return ctrl.SelectStaff(c.Request.Context(), input.StaffID)
	})
}

type selectDateInput struct {
	Date string `json:"date" binding:"required"`
}

// SelectDate handles PUT /api/flows/:flowID/date and returns the fetched slots.
func (h *BookingHandler) SelectDate(c *gin.Context) {
	var input selectDateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}
	h.withFlow(c, func(ctrl *booking.Controller) (booking.View, error) {
		return ctrl.SelectDate(c.Request.Context(), input.Date)
	})
}

// RefreshSlots handles POST /api/flows/:flowID/slots/refresh.
func (h *BookingHandler) RefreshSlots(c *gin.Context) {
	h.withFlow(c, func(ctrl *booking.Controller) (booking.View, error) {
		return ctrl.RefreshAvailability(c.Request.Context())
	})
}

type selectSlotInput struct {
	Start string `json:"start" binding:"required"`
	End   string `json:"end" binding:"required"`
}

// SelectSlot handles PUT /api/flows/:flowID/slot.
func (h *BookingHandler) SelectSlot(c *gin.Context) {
	var input selectSlotInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}
	h.withFlow(c, func(ctrl *booking.Controller) (booking.View, error) {
		return ctrl.SelectSlot(models.TimeSlot{Start: input.Start, End: input.End})
	})
}

// Submit handles POST /api/flows/:flowID/submit.
func (h *BookingHandler) Submit(c *gin.Context) {
	h.withFlow(c, func(ctrl *booking.Controller) (booking.View, error) {
		return ctrl.Submit(c.Request.Context())
	})
}

// StartPayment handles POST /api/flows/:flowID/payment.
func (h *BookingHandler) StartPayment(c *gin.Context) {
	h.withFlow(c, func(ctrl *booking.Controller) (booking.View, error) {
		return ctrl.StartPayment(c.Request.Context())
	})
}

type paymentSuccessInput struct {
	PaymentReference string `json:"paymentId" binding:"required"`
	Signature        string `json:"signature"`
}

// PaymentSuccess handles POST /api/flows/:flowID/payment/success.
func (h *BookingHandler) PaymentSuccess(c *gin.Context) {
	var input paymentSuccessInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}
	h.withFlow(c, func(ctrl *booking.Controller) (booking.View, error) {
		return ctrl.PaymentSucceeded(c.Request.Context(), input.PaymentReference, input.Signature)
	})
}

type paymentFailureInput struct {
	Error string `json:"error"`
}

// PaymentFailure handles POST /api/flows/:flowID/payment/failure.
func (h *BookingHandler) PaymentFailure(c *gin.Context) {
	var input paymentFailureInput
	// The body is optional.
	_ = c.ShouldBindJSON(&input)
	h.withFlow(c, func(ctrl *booking.Controller) (booking.View, error) {
		return ctrl.PaymentFailed(c.Request.Context(), input.Error)
	})
}

// PaymentCancel handles POST /api/flows/:flowID/payment/cancel.
func (h *BookingHandler) PaymentCancel(c *gin.Context) {
	h.withFlow(c, func(ctrl *booking.Controller) (booking.View, error) {
		return ctrl.PaymentCancelled(c.Request.Context())
	})
}

// Retry handles POST /api/flows/:flowID/retry.
func (h *BookingHandler) Retry(c *gin.Context) {
	h.withFlow(c, (*booking.Controller).Retry)
}
