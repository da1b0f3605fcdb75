package booking

import (
	"context"
	"sync"
	"time"

	"salonbook/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// View is a read-only snapshot of a flow for rendering.
type View struct {
	Flow
	Totals       Totals `json:"totals"`
	CanAdvance   bool   `json:"canAdvance"`
	CanSubmit    bool   `json:"canSubmit"`
	LoadingSlots bool   `json:"loadingSlots"`
}

func newView(f Flow) View {
	return View{
		Flow:         f,
		Totals:       f.Totals(),
		CanAdvance:   len(f.Draft.ServiceIDs) > 0 && (f.Step == StepSelectingServices || f.Step == StepSelectingStaff),
		CanSubmit:    f.Step == StepSelectingDateTime && f.Draft.Date != "" && f.Draft.Slot != nil && len(f.Draft.ServiceIDs) > 0,
		LoadingSlots: f.Pending != nil,
	}
}

// Controller drives one Flow against the remote backend on behalf of the
// session it was created for. Remote calls run without holding the lock;
// their results are folded back in through the pure Flow transitions.
type Controller struct {
	mu      sync.Mutex
	flow    Flow
	session models.Session
	deps    Dependencies
	touched time.Time
}

// NewController starts a controller for an already constructed flow.
func NewController(flow Flow, sess models.Session, deps Dependencies) *Controller {
	return &Controller{
		flow:    flow,
		session: sess,
		deps:    deps,
		touched: deps.now(),
	}
}

// ID returns the flow id.
func (c *Controller) ID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.flow.ID
}

// Session returns the session the flow acts for.
func (c *Controller) Session() models.Session {
	return c.session
}

// Snapshot returns the current view.
func (c *Controller) Snapshot() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return newView(c.flow)
}

func (c *Controller) lastTouched() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.touched
}

// apply runs a transition under the lock. A failed transition keeps the
// flow and records the error on it, unless the flow already ended and its
// error is the outcome.
func (c *Controller) apply(fn func(Flow) (Flow, error)) (View, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touched = c.deps.now()
	next, err := fn(c.flow)
	if err != nil {
		if !c.flow.Step.Terminal() {
			c.flow = c.flow.WithError(err)
		}
		return newView(c.flow), err
	}
	c.flow = next
	return newView(c.flow), nil
}

func (c *Controller) ToggleService(id string) (View, error) {
	return c.apply(func(f Flow) (Flow, error) { return f.ToggleService(id) })
}

func (c *Controller) SelectServices(ids []string) (View, error) {
	return c.apply(func(f Flow) (Flow, error) { return f.SelectServices(ids) })
}

func (c *Controller) Advance() (View, error) {
	return c.apply(Flow.Advance)
}

func (c *Controller) Back() (View, error) {
	return c.apply(Flow.Back)
}

// SelectStaff changes the staff preference and refreshes availability
// when a date is already chosen.
func (c *Controller) SelectStaff(ctx context.Context, staffID string) (View, error) {
	var query *models.AvailabilityQuery
	view, err := c.apply(func(f Flow) (Flow, error) {
		next, q, err := f.SelectStaff(staffID)
		query = q
		return next, err
	})
	if err != nil || query == nil {
		return view, err
	}
	return c.fetchAvailability(ctx, *query)
}

// SelectDate chooses a date and fetches its slots. When dates are changed
// quickly, only the slots of the last chosen date are ever shown.
func (c *Controller) SelectDate(ctx context.Context, date string) (View, error) {
	var query models.AvailabilityQuery
	view, err := c.apply(func(f Flow) (Flow, error) {
		next, q, err := f.SelectDate(date, c.deps.now())
		query = q
		return next, err
	})
	if err != nil {
		return view, err
	}
	return c.fetchAvailability(ctx, query)
}

// RefreshAvailability re-issues the lookup for the chosen date.
func (c *Controller) RefreshAvailability(ctx context.Context) (View, error) {
	c.mu.Lock()
	date := c.flow.Draft.Date
	c.mu.Unlock()
	if date == "" {
		return c.apply(func(f Flow) (Flow, error) { return f, NewValidationError(ErrDateTimeRequired) })
	}
	return c.SelectDate(ctx, date)
}

func (c *Controller) fetchAvailability(ctx context.Context, q models.AvailabilityQuery) (View, error) {
	log := c.deps.logger().With(zap.String("flowId", c.ID()), zap.String("date", q.Date), zap.Uint64("seq", q.Seq))

	slots, fetchErr := c.deps.Backend.CheckAvailability(ctx, c.session, q)

	c.mu.Lock()
	defer c.mu.Unlock()
	if fetchErr != nil {
		next, applied := c.flow.AvailabilityFailed(q, fetchErr)
		if !applied {
			log.Debug("ignoring failure of superseded availability query", zap.Error(fetchErr))
			return newView(c.flow), nil
		}
		log.Warn("availability lookup failed", zap.Error(fetchErr))
		c.flow = next
		return newView(c.flow), c.flow.LastError
	}
	next, applied := c.flow.ApplyAvailability(q, slots)
	if !applied {
		log.Debug("discarding stale availability response")
		return newView(c.flow), nil
	}
	c.flow = next
	log.Debug("availability applied", zap.Int("slots", len(slots)))
	return newView(c.flow), nil
}

func (c *Controller) SelectSlot(slot models.TimeSlot) (View, error) {
	return c.apply(func(f Flow) (Flow, error) { return f.SelectSlot(slot) })
}

// Submit creates the appointment. On a slot conflict the flow returns to
// the date step and the slots are fetched again.
func (c *Controller) Submit(ctx context.Context) (View, error) {
	var req models.AppointmentRequest
	view, err := c.apply(func(f Flow) (Flow, error) {
		next, r, err := f.BeginSubmit()
		req = r
		return next, err
	})
	if err != nil {
		return view, err
	}
	log := c.deps.logger().With(zap.String("flowId", view.ID), zap.String("userId", c.session.UserID))

	appt, createErr := c.deps.Backend.CreateAppointment(ctx, c.session, req)
	if createErr == nil && (appt == nil || appt.ID == "") {
		createErr = NewServerError("booking service returned no appointment id", nil)
	}
	if createErr != nil {
		log.Warn("appointment creation failed", zap.Error(createErr))
		var refresh *models.AvailabilityQuery
		view, _ = c.apply(func(f Flow) (Flow, error) {
			next, q, err := f.SubmitFailed(createErr)
			refresh = q
			return next, err
		})
		fe := AsFlowError(createErr)
		if refresh != nil {
			view, _ = c.fetchAvailability(ctx, *refresh)
		} else if view.Step.Terminal() {
			c.finish(ctx, view.Flow)
		}
		return view, fe
	}

	log.Info("appointment created", zap.String("appointmentId", appt.ID), zap.Float64("amount", appt.TotalAmount))
	return c.apply(func(f Flow) (Flow, error) { return f.SubmitSucceeded(*appt) })
}

// StartPayment creates the payment order for the appointment and prepares
// the checkout handoff.
func (c *Controller) StartPayment(ctx context.Context) (View, error) {
	c.mu.Lock()
	step, appt, verifying := c.flow.Step, c.flow.Appointment, c.flow.Verifying
	c.mu.Unlock()
	if step != StepAwaitingPayment || appt == nil {
		return c.apply(func(f Flow) (Flow, error) { return f, ErrInvalidTransition })
	}
	if verifying {
		return c.apply(func(f Flow) (Flow, error) { return f, ErrVerificationInProgress })
	}

	intent, err := c.deps.Backend.InitiatePayment(ctx, c.session, appt.ID, appt.TotalAmount)
	if err == nil && intent == nil {
		err = NewServerError("booking service returned no payment order", nil)
	}
	var checkout models.Checkout
	if err == nil {
		if intent.AppointmentID == "" {
			intent.AppointmentID = appt.ID
		}
		checkout, err = c.deps.Checkout.Prepare(ctx, *intent)
	}
	if err != nil {
		c.deps.logger().Warn("payment initiation failed", zap.String("appointmentId", appt.ID), zap.Error(err))
		view, _ := c.apply(func(f Flow) (Flow, error) { return f.WithError(err), nil })
		return view, AsFlowError(err)
	}
	return c.apply(func(f Flow) (Flow, error) { return f.PaymentInitiated(*intent, checkout) })
}

// PaymentSucceeded handles the checkout success callback by verifying the
// payment with the backend. Failure and cancel callbacks are refused while
// the verification is in flight.
func (c *Controller) PaymentSucceeded(ctx context.Context, paymentReference, signature string) (View, error) {
	var verification models.PaymentVerification
	view, err := c.apply(func(f Flow) (Flow, error) {
		next, v, err := f.BeginVerification(paymentReference, signature)
		verification = v
		return next, err
	})
	if err != nil {
		return view, err
	}

	verified, err := c.deps.Backend.VerifyPayment(ctx, c.session, verification)
	if err != nil {
		c.deps.logger().Warn("payment verification failed", zap.String("orderId", verification.OrderID), zap.Error(err))
		view, _ := c.apply(func(f Flow) (Flow, error) { return f.VerificationFailed(err) })
		return view, AsFlowError(err)
	}
	view, err = c.apply(func(f Flow) (Flow, error) { return f.PaymentVerified(verified) })
	if err != nil {
		return view, err
	}
	c.finish(ctx, view.Flow)
	if view.LastError != nil {
		return view, view.LastError
	}
	return view, nil
}

// PaymentFailed handles the checkout failure callback.
func (c *Controller) PaymentFailed(ctx context.Context, description string) (View, error) {
	view, err := c.apply(func(f Flow) (Flow, error) { return f.PaymentFailed(description) })
	if err != nil {
		return view, err
	}
	c.finish(ctx, view.Flow)
	return view, view.LastError
}

// PaymentCancelled handles the checkout cancellation callback.
func (c *Controller) PaymentCancelled(ctx context.Context) (View, error) {
	view, err := c.apply(Flow.PaymentCancelled)
	if err != nil {
		return view, err
	}
	c.finish(ctx, view.Flow)
	return view, view.LastError
}

// Retry resumes a failed flow where it can be resumed.
func (c *Controller) Retry() (View, error) {
	return c.apply(Flow.Retry)
}

// finish reports a terminal flow to the optional hooks. Hook failures are
// logged and never change the flow.
func (c *Controller) finish(ctx context.Context, f Flow) {
	if !f.Step.Terminal() {
		return
	}
	log := c.deps.logger().With(zap.String("flowId", f.ID), zap.String("step", string(f.Step)))

	if c.deps.Recorder != nil {
		if err := c.deps.Recorder.RecordOutcome(ctx, c.record(f)); err != nil {
			log.Error("failed to record flow outcome", zap.Error(err))
		}
	}
	if f.Step == StepCompleted && f.Appointment != nil && c.deps.Reminders != nil {
		if err := c.deps.Reminders.ScheduleReminder(ctx, c.session.UserID, f.Draft.SalonID, *f.Appointment); err != nil {
			log.Error("failed to schedule reminder", zap.Error(err))
		}
	}
	log.Info("booking flow finished")
}

func (c *Controller) record(f Flow) models.FlowRecord {
	rec := models.FlowRecord{
		ID:         uuid.New().String(),
		FlowID:     f.ID,
		UserID:     c.session.UserID,
		SalonID:    f.Draft.SalonID,
		ServiceIDs: f.Draft.ServiceIDs,
		StaffID:    f.Draft.StaffID,
		Date:       f.Draft.Date,
		Amount:     f.Totals().Amount,
		Outcome:    string(f.Step),
	}
	rec.CreatedAt = c.deps.now()
	rec.UpdatedAt = rec.CreatedAt
	if f.Draft.Slot != nil {
		rec.Time = f.Draft.Slot.Start
	}
	if f.Appointment != nil {
		rec.AppointmentID = f.Appointment.ID
		rec.Amount = f.Appointment.TotalAmount
	}
	if f.LastError != nil {
		rec.ErrorKind = string(f.LastError.Kind)
		rec.Message = f.LastError.Message
	}
	return rec
}
