package booking

import (
	"fmt"
	"slices"
	"time"

	"salonbook/models"
	"salonbook/utils"
)

// Step is the position of a flow in the booking sequence.
type Step string

const (
	StepSelectingServices Step = "selecting_services"
	StepSelectingStaff    Step = "selecting_staff"
	StepSelectingDateTime Step = "selecting_datetime"
	StepSubmitting        Step = "submitting"
	StepAwaitingPayment   Step = "awaiting_payment"
	StepCompleted         Step = "completed"
	StepFailed            Step = "failed"
)

// Terminal reports whether no forward transition leaves s.
func (s Step) Terminal() bool {
	return s == StepCompleted || s == StepFailed
}

func (s Step) selecting() bool {
	return s == StepSelectingServices || s == StepSelectingStaff || s == StepSelectingDateTime
}

// Flow is one customer's walk through the booking steps. It is a plain
// value: every transition returns an updated copy and leaves the receiver
// untouched, so it can be driven and tested without any I/O.
type Flow struct {
	ID         string `json:"id"`
	Step       Step   `json:"step"`
	FailedFrom Step   `json:"failedFrom,omitempty"`

	Draft    models.DraftBooking      `json:"draft"`
	Services []models.ServiceOffering `json:"services"`
	Staff    []models.StaffMember     `json:"staff"`

	Slots    []models.TimeSlot         `json:"slots"`
	SlotsFor *models.AvailabilityQuery `json:"slotsFor,omitempty"`
	Pending  *models.AvailabilityQuery `json:"pendingQuery,omitempty"`

	Appointment *models.Appointment   `json:"appointment,omitempty"`
	Payment     *models.PaymentIntent `json:"payment,omitempty"`
	Checkout    *models.Checkout      `json:"checkout,omitempty"`
	Verifying   bool                  `json:"verifyingPayment,omitempty"`

	LastError *FlowError `json:"error,omitempty"`

	querySeq uint64
}

// NewFlow starts a flow at service selection for the given salon catalog.
func NewFlow(id, salonID string, services []models.ServiceOffering, staff []models.StaffMember) Flow {
	return Flow{
		ID:       id,
		Step:     StepSelectingServices,
		Draft:    models.DraftBooking{SalonID: salonID},
		Services: slices.Clone(services),
		Staff:    slices.Clone(staff),
	}
}

// Totals sums price and duration over the current selection.
func (f Flow) Totals() Totals {
	selected := make([]models.ServiceOffering, 0, len(f.Draft.ServiceIDs))
	for _, id := range f.Draft.ServiceIDs {
		if s, ok := f.service(id); ok {
			selected = append(selected, s)
		}
	}
	return SumServices(selected)
}

func (f Flow) service(id string) (models.ServiceOffering, bool) {
	for _, s := range f.Services {
		if s.ID == id {
			return s, true
		}
	}
	return models.ServiceOffering{}, false
}

func (f Flow) hasStaff(id string) bool {
	for _, s := range f.Staff {
		if s.ID == id {
			return true
		}
	}
	return false
}

// ToggleService adds id to the selection, or removes it when already selected.
func (f Flow) ToggleService(id string) (Flow, error) {
	ids := slices.Clone(f.Draft.ServiceIDs)
	if f.Draft.HasService(id) {
		ids = slices.DeleteFunc(ids, func(s string) bool { return s == id })
	} else {
		ids = append(ids, id)
	}
	return f.SelectServices(ids)
}

// SelectServices replaces the selection. Any change to the selection drops
// the chosen date and time, because the total duration decides which slots fit.
// Emptying the selection on a later step returns the flow to service selection.
func (f Flow) SelectServices(ids []string) (Flow, error) {
	if !f.Step.selecting() {
		return f, ErrInvalidTransition
	}
	seen := make(map[string]bool, len(ids))
	next := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := f.service(id); !ok {
			return f, NewValidationError(fmt.Errorf("unknown service %q", id))
		}
		if !seen[id] {
			seen[id] = true
			next = append(next, id)
		}
	}
	if slices.Equal(next, f.Draft.ServiceIDs) {
		return f, nil
	}
	f.Draft.ServiceIDs = next
	f.Draft.Date = ""
	f = f.clearSlots()
	f.LastError = nil
	if len(next) == 0 {
		f.Step = StepSelectingServices
	}
	return f, nil
}

// Advance moves to the next selecting step.
func (f Flow) Advance() (Flow, error) {
	switch f.Step {
	case StepSelectingServices:
		if len(f.Draft.ServiceIDs) == 0 {
			return f, NewValidationError(ErrNoServicesSelected)
		}
		f.Step = StepSelectingStaff
	case StepSelectingStaff:
		if len(f.Draft.ServiceIDs) == 0 {
			return f, NewValidationError(ErrNoServicesSelected)
		}
		f.Step = StepSelectingDateTime
	default:
		return f, ErrInvalidTransition
	}
	f.LastError = nil
	return f, nil
}

// Back returns to the previous selecting step, keeping every selection.
func (f Flow) Back() (Flow, error) {
	switch f.Step {
	case StepSelectingStaff:
		f.Step = StepSelectingServices
	case StepSelectingDateTime:
		f.Step = StepSelectingStaff
	default:
		return f, ErrInvalidTransition
	}
	f.LastError = nil
	return f, nil
}

// SelectStaff sets the preferred staff member; "" means any available.
// The slot list depends on staff, so it is dropped and, when a date is
// already chosen on the date step, a fresh availability query is returned.
func (f Flow) SelectStaff(id string) (Flow, *models.AvailabilityQuery, error) {
	if f.Step != StepSelectingStaff && f.Step != StepSelectingDateTime {
		return f, nil, ErrInvalidTransition
	}
	if id != "" && !f.hasStaff(id) {
		return f, nil, NewValidationError(fmt.Errorf("unknown staff member %q", id))
	}
	if id == f.Draft.StaffID {
		return f, nil, nil
	}
	f.Draft.StaffID = id
	f = f.clearSlots()
	f.LastError = nil
	if f.Step == StepSelectingDateTime && f.Draft.Date != "" {
		f, q := f.issueQuery()
		return f, &q, nil
	}
	return f, nil, nil
}

// SelectDate picks the booking date and returns the availability query
// that must be answered before a slot can be chosen. Dates before the
// calendar day of now are rejected.
func (f Flow) SelectDate(date string, now time.Time) (Flow, models.AvailabilityQuery, error) {
	if f.Step != StepSelectingDateTime {
		return f, models.AvailabilityQuery{}, ErrInvalidTransition
	}
	if len(f.Draft.ServiceIDs) == 0 {
		return f, models.AvailabilityQuery{}, NewValidationError(ErrNoServicesSelected)
	}
	day, err := time.ParseInLocation(utils.DateLayout, date, now.Location())
	if err != nil {
		return f, models.AvailabilityQuery{}, NewValidationError(fmt.Errorf("invalid date %q, expected YYYY-MM-DD", date))
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if day.Before(today) {
		return f, models.AvailabilityQuery{}, NewValidationError(fmt.Errorf("date %s is in the past", date))
	}
	f.Draft.Date = date
	f = f.clearSlots()
	f.LastError = nil
	f, q := f.issueQuery()
	return f, q, nil
}

// ApplyAvailability installs slots fetched for q. Responses for anything
// but the most recently issued query are discarded and applied is false.
func (f Flow) ApplyAvailability(q models.AvailabilityQuery, slots []models.TimeSlot) (next Flow, applied bool) {
	if f.Pending == nil || f.Pending.Seq != q.Seq || !f.Pending.SameKey(q) {
		return f, false
	}
	answered := *f.Pending
	f.Slots = slices.Clone(slots)
	f.SlotsFor = &answered
	f.Pending = nil
	return f, true
}

// AvailabilityFailed records a failed lookup for q. Failures of superseded
// queries are ignored like their results would be.
func (f Flow) AvailabilityFailed(q models.AvailabilityQuery, err error) (next Flow, applied bool) {
	if f.Pending == nil || f.Pending.Seq != q.Seq {
		return f, false
	}
	f.Pending = nil
	f.LastError = AsFlowError(err)
	return f, true
}

// SelectSlot chooses one of the currently fetched slots.
func (f Flow) SelectSlot(slot models.TimeSlot) (Flow, error) {
	if f.Step != StepSelectingDateTime {
		return f, ErrInvalidTransition
	}
	if f.Draft.Date == "" || f.SlotsFor == nil {
		return f, NewValidationError(ErrDateTimeRequired)
	}
	if !slices.Contains(f.Slots, slot) {
		return f, NewValidationError(fmt.Errorf("slot %s-%s is not available on %s", slot.Start, slot.End, f.Draft.Date))
	}
	chosen := slot
	f.Draft.Slot = &chosen
	f.LastError = nil
	return f, nil
}

// BeginSubmit freezes the draft for appointment creation.
func (f Flow) BeginSubmit() (Flow, models.AppointmentRequest, error) {
	if f.Step != StepSelectingDateTime {
		return f, models.AppointmentRequest{}, ErrInvalidTransition
	}
	if len(f.Draft.ServiceIDs) == 0 {
		return f, models.AppointmentRequest{}, NewValidationError(ErrNoServicesSelected)
	}
	if f.Draft.Date == "" || f.Draft.Slot == nil {
		return f, models.AppointmentRequest{}, NewValidationError(ErrDateTimeRequired)
	}
	req := models.AppointmentRequest{
		SalonID:    f.Draft.SalonID,
		ServiceIDs: slices.Clone(f.Draft.ServiceIDs),
		StaffID:    f.Draft.StaffID,
		Date:       f.Draft.Date,
		Time:       f.Draft.Slot.Start,
	}
	f.Step = StepSubmitting
	f.LastError = nil
	return f, req, nil
}

// SubmitSucceeded moves to payment with the created appointment.
func (f Flow) SubmitSucceeded(appt models.Appointment) (Flow, error) {
	if f.Step != StepSubmitting {
		return f, ErrInvalidTransition
	}
	totals := f.Totals()
	if appt.TotalAmount <= 0 {
		appt.TotalAmount = totals.Amount
	}
	if appt.DurationMinutes <= 0 {
		appt.DurationMinutes = totals.DurationMinutes
	}
	if appt.Date == "" {
		appt.Date = f.Draft.Date
	}
	if appt.Time == "" && f.Draft.Slot != nil {
		appt.Time = f.Draft.Slot.Start
	}
	f.Appointment = &appt
	f.Step = StepAwaitingPayment
	f.LastError = nil
	return f, nil
}

// SubmitFailed handles a failed appointment creation. A slot conflict sends
// the flow back to the date step with the time cleared and returns the
// query that refreshes the slots; any other failure fails the flow with the
// draft intact so it can be retried.
func (f Flow) SubmitFailed(err error) (Flow, *models.AvailabilityQuery, error) {
	if f.Step != StepSubmitting {
		return f, nil, ErrInvalidTransition
	}
	fe := AsFlowError(err)
	if fe.Kind == KindAvailabilityConflict {
		f.Step = StepSelectingDateTime
		f.Draft.Slot = nil
		f = f.clearSlots()
		f, q := f.issueQuery()
		f.LastError = fe
		return f, &q, nil
	}
	f.Step = StepFailed
	f.FailedFrom = StepSubmitting
	f.LastError = fe
	return f, nil, nil
}

// PaymentInitiated records the order handed to the checkout widget.
func (f Flow) PaymentInitiated(intent models.PaymentIntent, checkout models.Checkout) (Flow, error) {
	if f.Step != StepAwaitingPayment || f.Appointment == nil {
		return f, ErrInvalidTransition
	}
	if f.Verifying {
		return f, ErrVerificationInProgress
	}
	f.Payment = &intent
	f.Checkout = &checkout
	f.LastError = nil
	return f, nil
}

// BeginVerification marks the checkout's success callback as being verified
// and returns the verification to send. Until PaymentVerified or
// VerificationFailed, the payment cannot be failed, cancelled or verified again.
func (f Flow) BeginVerification(paymentReference, signature string) (Flow, models.PaymentVerification, error) {
	if f.Step != StepAwaitingPayment || f.Payment == nil {
		return f, models.PaymentVerification{}, ErrInvalidTransition
	}
	if f.Verifying {
		return f, models.PaymentVerification{}, ErrVerificationInProgress
	}
	if paymentReference == "" {
		return f, models.PaymentVerification{}, NewValidationError(ErrPaymentReferenceRequired)
	}
	f.Verifying = true
	f.LastError = nil
	return f, models.PaymentVerification{
		OrderID:          f.Payment.OrderID,
		PaymentReference: paymentReference,
		Signature:        signature,
	}, nil
}

// VerificationFailed ends a verification that got no answer. The flow stays
// awaiting payment so the callback can be retried.
func (f Flow) VerificationFailed(err error) (Flow, error) {
	if f.Step != StepAwaitingPayment || !f.Verifying {
		return f, ErrInvalidTransition
	}
	f.Verifying = false
	f.LastError = AsFlowError(err)
	return f, nil
}

// PaymentVerified completes the flow, or fails it when the backend did not
// accept the payment.
func (f Flow) PaymentVerified(verified bool) (Flow, error) {
	if f.Step != StepAwaitingPayment || f.Payment == nil || !f.Verifying {
		return f, ErrInvalidTransition
	}
	f.Verifying = false
	if !verified {
		return f.failPayment(&FlowError{Kind: KindPaymentDeclined, Message: "payment could not be verified"}), nil
	}
	f.Step = StepCompleted
	f.LastError = nil
	return f, nil
}

// PaymentFailed fails the flow after the checkout widget reported an error.
// The appointment is kept so payment can be retried against it.
func (f Flow) PaymentFailed(description string) (Flow, error) {
	if f.Step != StepAwaitingPayment {
		return f, ErrInvalidTransition
	}
	if f.Verifying {
		return f, ErrVerificationInProgress
	}
	if description == "" {
		description = "payment was declined"
	}
	return f.failPayment(&FlowError{Kind: KindPaymentDeclined, Message: description}), nil
}

// PaymentCancelled fails the flow after the customer closed the checkout.
func (f Flow) PaymentCancelled() (Flow, error) {
	if f.Step != StepAwaitingPayment {
		return f, ErrInvalidTransition
	}
	if f.Verifying {
		return f, ErrVerificationInProgress
	}
	return f.failPayment(&FlowError{Kind: KindPaymentCancelled, Message: "payment was cancelled"}), nil
}

func (f Flow) failPayment(fe *FlowError) Flow {
	f.Step = StepFailed
	f.FailedFrom = StepAwaitingPayment
	f.LastError = fe
	return f
}

// Retry resumes a failed flow: payment failures return to payment against
// the same appointment, submission failures return to the date step with
// the draft as it was.
func (f Flow) Retry() (Flow, error) {
	if f.Step != StepFailed {
		return f, ErrInvalidTransition
	}
	switch f.FailedFrom {
	case StepAwaitingPayment:
		if f.Appointment == nil {
			return f, ErrInvalidTransition
		}
		f.Step = StepAwaitingPayment
		f.Payment = nil
		f.Checkout = nil
	case StepSubmitting:
		f.Step = StepSelectingDateTime
	default:
		return f, ErrInvalidTransition
	}
	f.FailedFrom = ""
	f.LastError = nil
	return f, nil
}

// WithError records err as the message to show without moving the flow.
func (f Flow) WithError(err error) Flow {
	f.LastError = AsFlowError(err)
	return f
}

func (f Flow) clearSlots() Flow {
	f.Draft.Slot = nil
	f.Slots = nil
	f.SlotsFor = nil
	f.Pending = nil
	return f
}

func (f Flow) issueQuery() (Flow, models.AvailabilityQuery) {
	f.querySeq++
	q := models.AvailabilityQuery{
		SalonID: f.Draft.SalonID,
		StaffID: f.Draft.StaffID,
		Date:    f.Draft.Date,
		Seq:     f.querySeq,
	}
	if len(f.Draft.ServiceIDs) > 0 {
		q.ServiceID = f.Draft.ServiceIDs[0]
	}
	pending := q
	f.Pending = &pending
	return f, q
}
