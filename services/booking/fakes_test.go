package booking

import (
	"context"
	"sync"
	"time"

	"salonbook/models"
)

var testNow = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func testServices() []models.ServiceOffering {
	return []models.ServiceOffering{
		{ID: "cut", SalonID: "salon-1", Name: "Haircut", Price: 500, DurationMinutes: 30},
		{ID: "beard", SalonID: "salon-1", Name: "Beard trim", Price: 300, DurationMinutes: 20},
		{ID: "color", SalonID: "salon-1", Name: "Hair color", Price: 1250.5, DurationMinutes: 90},
	}
}

func testStaff() []models.StaffMember {
	return []models.StaffMember{
		{ID: "ravi", SalonID: "salon-1", Name: "Ravi", Specialties: []string{"fade"}},
		{ID: "anu", SalonID: "salon-1", Name: "Anu", Specialties: []string{"color"}},
	}
}

func testSession() models.Session {
	return models.Session{UserID: "user-1", Token: "tok"}
}

type fakeCatalog struct {
	services    []models.ServiceOffering
	staff       []models.StaffMember
	servicesErr error
	staffErr    error
}

func (f *fakeCatalog) ListServices(context.Context, models.Session, string) ([]models.ServiceOffering, error) {
	return f.services, f.servicesErr
}

func (f *fakeCatalog) ListStaff(context.Context, models.Session, string) ([]models.StaffMember, error) {
	return f.staff, f.staffErr
}

// fakeBackend answers availability from a per-date table unless a gate is
// registered for the date, in which case the call blocks until released.
type fakeBackend struct {
	mu sync.Mutex

	slots           map[string][]models.TimeSlot
	gates           map[string]chan struct{}
	availabilityErr error
	queries         []models.AvailabilityQuery

	appointment *models.Appointment
	createErr   error
	created     []models.AppointmentRequest

	intent      *models.PaymentIntent
	initiateErr error

	verified      bool
	verifyErr     error
	verifies      []models.PaymentVerification
	verifyStarted chan struct{}
	verifyGate    chan struct{}
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		slots: map[string][]models.TimeSlot{},
		gates: map[string]chan struct{}{},
	}
}

func (f *fakeBackend) CheckAvailability(_ context.Context, _ models.Session, q models.AvailabilityQuery) ([]models.TimeSlot, error) {
	f.mu.Lock()
	f.queries = append(f.queries, q)
	gate := f.gates[q.Date]
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.availabilityErr != nil {
		return nil, f.availabilityErr
	}
	return f.slots[q.Date], nil
}

func (f *fakeBackend) CreateAppointment(_ context.Context, _ models.Session, req models.AppointmentRequest) (*models.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, req)
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.appointment, nil
}

func (f *fakeBackend) InitiatePayment(_ context.Context, _ models.Session, appointmentID string, amount float64) (*models.PaymentIntent, error) {
	if f.initiateErr != nil {
		return nil, f.initiateErr
	}
	if f.intent != nil {
		return f.intent, nil
	}
	return &models.PaymentIntent{OrderID: "order-" + appointmentID, Amount: amount, Currency: "INR"}, nil
}

// VerifyPayment signals verifyStarted and waits on verifyGate when they are set.
func (f *fakeBackend) VerifyPayment(_ context.Context, _ models.Session, v models.PaymentVerification) (bool, error) {
	f.mu.Lock()
	f.verifies = append(f.verifies, v)
	started, gate := f.verifyStarted, f.verifyGate
	f.mu.Unlock()
	if started != nil {
		started <- struct{}{}
	}
	if gate != nil {
		<-gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.verified, f.verifyErr
}

func (f *fakeBackend) queryCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queries)
}

type fakeCheckout struct{}

func (fakeCheckout) Prepare(_ context.Context, intent models.PaymentIntent) (models.Checkout, error) {
	return models.Checkout{Provider: "fake", OrderID: intent.OrderID, Amount: intent.Amount, Currency: intent.Currency}, nil
}

// fakeRecorder keeps one record per flow, like the records repository.
type fakeRecorder struct {
	mu      sync.Mutex
	records []models.FlowRecord
	writes  int
}

func (f *fakeRecorder) RecordOutcome(_ context.Context, rec models.FlowRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes++
	for i := range f.records {
		if f.records[i].FlowID == rec.FlowID {
			rec.ID, rec.CreatedAt = f.records[i].ID, f.records[i].CreatedAt
			f.records[i] = rec
			return nil
		}
	}
	f.records = append(f.records, rec)
	return nil
}

type fakeReminders struct {
	scheduled []models.Appointment
}

func (f *fakeReminders) ScheduleReminder(_ context.Context, _, _ string, appt models.Appointment) error {
	f.scheduled = append(f.scheduled, appt)
	return nil
}

type testEnv struct {
	backend   *fakeBackend
	recorder  *fakeRecorder
	reminders *fakeReminders
	deps      Dependencies
}

func newTestEnv() *testEnv {
	env := &testEnv{
		backend:   newFakeBackend(),
		recorder:  &fakeRecorder{},
		reminders: &fakeReminders{},
	}
	env.deps = Dependencies{
		Backend:   env.backend,
		Checkout:  fakeCheckout{},
		Recorder:  env.recorder,
		Reminders: env.reminders,
		Now:       func() time.Time { return testNow },
	}
	return env
}

func (e *testEnv) controller() *Controller {
	return NewController(NewFlow("flow-1", "salon-1", testServices(), testStaff()), testSession(), e.deps)
}
