package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"salonbook/models"
	"salonbook/services/booking"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", nil, WithServiceToken("svc-token"))
}

var sess = models.Session{UserID: "user-1", Token: "user-token"}

func TestListServicesDecodesEnvelope(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/salons/salon-1/services" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer user-token" {
			t.Errorf("Authorization = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"id":"cut","name":"Haircut","price":500,"durationMinutes":30}]}`))
	})

	services, err := c.ListServices(context.Background(), sess, "salon-1")
	if err != nil {
		t.Fatalf("ListServices: %v", err)
	}
	if len(services) != 1 || services[0].ID != "cut" || services[0].Price != 500 {
		t.Fatalf("services = %+v", services)
	}
}

func TestCheckAvailabilityShapes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{name: "bare array", body: `[{"start":"10:00","end":"10:30"}]`},
		{name: "slots object", body: `{"slots":[{"start":"10:00","end":"10:30"}]}`},
		{name: "data envelope", body: `{"data":{"slots":[{"start":"10:00","end":"10:30"}]}}`},
		{name: "data array", body: `{"data":[{"start":"10:00","end":"10:30"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				q := r.URL.Query()
				if q.Get("serviceId") != "cut" || q.Get("date") != "2025-03-12" || q.Get("staffId") != "anu" {
					t.Errorf("query = %v", q)
				}
				_, _ = w.Write([]byte(tt.body))
			})
			slots, err := c.CheckAvailability(context.Background(), sess, models.AvailabilityQuery{
				SalonID: "salon-1", ServiceID: "cut", StaffID: "anu", Date: "2025-03-12", Seq: 4,
			})
			if err != nil {
				t.Fatalf("CheckAvailability: %v", err)
			}
			if len(slots) != 1 || slots[0] != (models.TimeSlot{Start: "10:00", End: "10:30"}) {
				t.Fatalf("slots = %+v", slots)
			}
		})
	}
}

func TestStatusMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		status      int
		body        string
		wantKind    booking.ErrorKind
		wantMessage string
	}{
		{name: "conflict", status: http.StatusConflict, body: `{"message":"slot already booked"}`, wantKind: booking.KindAvailabilityConflict, wantMessage: "slot already booked"},
		{name: "bad request", status: http.StatusBadRequest, body: `{"error":"date is required"}`, wantKind: booking.KindValidation, wantMessage: "date is required"},
		{name: "unprocessable", status: http.StatusUnprocessableEntity, body: ``, wantKind: booking.KindValidation, wantMessage: "Unprocessable Entity"},
		{name: "server error", status: http.StatusInternalServerError, body: `oops`, wantKind: booking.KindServer},
		{name: "unavailable", status: http.StatusServiceUnavailable, body: `{"message":"maintenance"}`, wantKind: booking.KindServer, wantMessage: "maintenance"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			_, err := c.CreateAppointment(context.Background(), sess, models.AppointmentRequest{SalonID: "salon-1"})
			var fe *booking.FlowError
			if !errors.As(err, &fe) {
				t.Fatalf("error = %v, want *booking.FlowError", err)
			}
			if fe.Kind != tt.wantKind {
				t.Fatalf("kind = %s, want %s", fe.Kind, tt.wantKind)
			}
			if tt.wantMessage != "" && fe.Message != tt.wantMessage {
				t.Fatalf("message = %q, want %q", fe.Message, tt.wantMessage)
			}
		})
	}
}

func TestUnauthorizedWrapsSentinel(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	_, err := c.ListStaff(context.Background(), sess, "salon-1")
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("error = %v, want ErrUnauthorized", err)
	}
	if booking.KindOf(err) != booking.KindValidation {
		t.Fatalf("kind = %s", booking.KindOf(err))
	}
}

func TestTransportFailureIsNetwork(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := NewClient(url, nil)
	_, err := c.CheckAvailability(context.Background(), sess, models.AvailabilityQuery{SalonID: "salon-1", Date: "2025-03-12"})
	if booking.KindOf(err) != booking.KindNetwork {
		t.Fatalf("kind = %s, want network (err %v)", booking.KindOf(err), err)
	}
}

func TestCreateAppointmentSendsDraft(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/appointments" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		var req models.AppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
		}
		if req.Date != "2025-03-12" || req.Time != "10:00" || len(req.ServiceIDs) != 2 {
			t.Errorf("request = %+v", req)
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"appointmentId":"appt-1","status":"pending","totalAmount":800}`))
	})

	appt, err := c.CreateAppointment(context.Background(), sess, models.AppointmentRequest{
		SalonID: "salon-1", ServiceIDs: []string{"cut", "beard"}, Date: "2025-03-12", Time: "10:00",
	})
	if err != nil {
		t.Fatalf("CreateAppointment: %v", err)
	}
	if appt.ID != "appt-1" || appt.TotalAmount != 800 {
		t.Fatalf("appointment = %+v", appt)
	}
}

func TestPaymentEndpoints(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/payments/orders":
			_, _ = w.Write([]byte(`{"orderId":"order-1","appointmentId":"appt-1","amount":800,"currency":"INR"}`))
		case "/payments/verify":
			var v models.PaymentVerification
			_ = json.NewDecoder(r.Body).Decode(&v)
			_ = json.NewEncoder(w).Encode(map[string]bool{"verified": v.Signature == "good"})
		default:
			http.NotFound(w, r)
		}
	})

	intent, err := c.InitiatePayment(context.Background(), sess, "appt-1", 800)
	if err != nil {
		t.Fatalf("InitiatePayment: %v", err)
	}
	if intent.OrderID != "order-1" || intent.Currency != "INR" {
		t.Fatalf("intent = %+v", intent)
	}

	for sig, want := range map[string]bool{"good": true, "forged": false} {
		ok, err := c.VerifyPayment(context.Background(), sess, models.PaymentVerification{OrderID: "order-1", PaymentReference: "pay_1", Signature: sig})
		if err != nil {
			t.Fatalf("VerifyPayment(%s): %v", sig, err)
		}
		if ok != want {
			t.Fatalf("VerifyPayment(%s) = %v, want %v", sig, ok, want)
		}
	}
}

func TestSendReminderUsesServiceToken(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/appointments/appt-1/reminders" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer svc-token" {
			t.Errorf("Authorization = %q", got)
		}
		w.WriteHeader(http.StatusAccepted)
	})
	if err := c.SendReminder(context.Background(), models.ReminderPayload{AppointmentID: "appt-1", UserID: "user-1"}); err != nil {
		t.Fatalf("SendReminder: %v", err)
	}
}
