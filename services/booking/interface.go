package booking

import (
	"context"
	"time"

	"salonbook/models"

	"go.uber.org/zap"
)

// Catalog lists what a salon offers.
type Catalog interface {
	ListServices(ctx context.Context, sess models.Session, salonID string) ([]models.ServiceOffering, error)
	ListStaff(ctx context.Context, sess models.Session, salonID string) ([]models.StaffMember, error)
}

// Backend is the remote salon backend the flow books against.
type Backend interface {
	CheckAvailability(ctx context.Context, sess models.Session, q models.AvailabilityQuery) ([]models.TimeSlot, error)
	CreateAppointment(ctx context.Context, sess models.Session, req models.AppointmentRequest) (*models.Appointment, error)
	InitiatePayment(ctx context.Context, sess models.Session, appointmentID string, amount float64) (*models.PaymentIntent, error)
	VerifyPayment(ctx context.Context, sess models.Session, v models.PaymentVerification) (bool, error)
}

// CheckoutProvider prepares a backend payment order for the checkout widget.
type CheckoutProvider interface {
	Prepare(ctx context.Context, intent models.PaymentIntent) (models.Checkout, error)
}

// OutcomeRecorder stores finished flows.
type OutcomeRecorder interface {
	RecordOutcome(ctx context.Context, rec models.FlowRecord) error
}

// ReminderScheduler arranges a reminder for a paid appointment.
type ReminderScheduler interface {
	ScheduleReminder(ctx context.Context, userID, salonID string, appt models.Appointment) error
}

// Dependencies are the collaborators shared by every controller.
// Recorder and Reminders are optional.
type Dependencies struct {
	Backend   Backend
	Checkout  CheckoutProvider
	Recorder  OutcomeRecorder
	Reminders ReminderScheduler
	Logger    *zap.Logger
	Now       func() time.Time
}

func (d Dependencies) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

func (d Dependencies) logger() *zap.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return zap.NewNop()
}
