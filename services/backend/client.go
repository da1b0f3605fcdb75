package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"salonbook/models"
	"salonbook/services/booking"

	"go.uber.org/zap"
)

const defaultTimeout = 10 * time.Second

// Client talks to the remote salon backend REST API.
type Client struct {
	baseURL      string
	http         *http.Client
	logger       *zap.Logger
	serviceToken string
}

type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets the per-request timeout of the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithServiceToken sets the token used for calls made outside a customer session.
func WithServiceToken(token string) Option {
	return func(c *Client) {
		c.serviceToken = token
	}
}

func NewClient(baseURL string, logger *zap.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
		logger:  logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) ListServices(ctx context.Context, sess models.Session, salonID string) ([]models.ServiceOffering, error) {
	var out []models.ServiceOffering
	path := "/salons/" + url.PathEscape(salonID) + "/services"
	if err := c.do(ctx, sess.Token, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListStaff(ctx context.Context, sess models.Session, salonID string) ([]models.StaffMember, error) {
	var out []models.StaffMember
	path := "/salons/" + url.PathEscape(salonID) + "/staff"
	if err := c.do(ctx, sess.Token, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

type availabilityResponse struct {
	Slots []models.TimeSlot `json:"slots"`
}

func (r *availabilityResponse) UnmarshalJSON(b []byte) error {
	if trimmed := bytes.TrimSpace(b); len(trimmed) > 0 && trimmed[0] == '[' {
		return json.Unmarshal(trimmed, &r.Slots)
	}
	type plain availabilityResponse
	return json.Unmarshal(b, (*plain)(r))
}

func (c *Client) CheckAvailability(ctx context.Context, sess models.Session, q models.AvailabilityQuery) ([]models.TimeSlot, error) {
	params := url.Values{}
	params.Set("serviceId", q.ServiceID)
	params.Set("date", q.Date)
	if q.StaffID != "" {
		params.Set("staffId", q.StaffID)
	}
	path := "/salons/" + url.PathEscape(q.SalonID) + "/availability?" + params.Encode()

	var out availabilityResponse
	if err := c.do(ctx, sess.Token, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Slots, nil
}

func (c *Client) CreateAppointment(ctx context.Context, sess models.Session, req models.AppointmentRequest) (*models.Appointment, error) {
	var out models.Appointment
	if err := c.do(ctx, sess.Token, http.MethodPost, "/appointments", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type initiatePaymentRequest struct {
	AppointmentID string  `json:"appointmentId"`
	Amount        float64 `json:"amount"`
}

func (c *Client) InitiatePayment(ctx context.Context, sess models.Session, appointmentID string, amount float64) (*models.PaymentIntent, error) {
	var out models.PaymentIntent
	body := initiatePaymentRequest{AppointmentID: appointmentID, Amount: amount}
	if err := c.do(ctx, sess.Token, http.MethodPost, "/payments/orders", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type verifyPaymentResponse struct {
	Verified bool `json:"verified"`
}

func (c *Client) VerifyPayment(ctx context.Context, sess models.Session, v models.PaymentVerification) (bool, error) {
	var out verifyPaymentResponse
	if err := c.do(ctx, sess.Token, http.MethodPost, "/payments/verify", v, &out); err != nil {
		return false, err
	}
	return out.Verified, nil
}

// SendReminder asks the backend to notify the customer about an upcoming
// appointment. It authenticates with the service token.
func (c *Client) SendReminder(ctx context.Context, p models.ReminderPayload) error {
	path := "/appointments/" + url.PathEscape(p.AppointmentID) + "/reminders"
	return c.do(ctx, c.serviceToken, http.MethodPost, path, p, nil)
}

// errorBody covers the error shapes the backend answers with.
type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func (c *Client) do(ctx context.Context, token, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("backend request failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return booking.NewNetworkError(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return booking.NewNetworkError(err)
	}
	c.logger.Debug("backend request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resp.StatusCode, raw)
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := decode(raw, out); err != nil {
		return booking.NewServerError("unexpected response from booking service", fmt.Errorf("decode %s %s: %w", method, path, err))
	}
	return nil
}

// decode accepts both bare payloads and {"data": ...} envelopes.
func decode(raw []byte, out any) error {
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if trimmed := bytes.TrimSpace(raw); len(trimmed) > 0 && trimmed[0] == '{' {
		if err := json.Unmarshal(trimmed, &env); err == nil && len(env.Data) > 0 && string(env.Data) != "null" {
			return json.Unmarshal(env.Data, out)
		}
	}
	return json.Unmarshal(raw, out)
}

// ErrUnauthorized is wrapped by errors for 401/403 answers.
var ErrUnauthorized = errors.New("backend rejected credentials")

func statusError(status int, raw []byte) error {
	var eb errorBody
	_ = json.Unmarshal(raw, &eb)
	msg := eb.Message
	if msg == "" {
		msg = eb.Error
	}
	switch {
	case status == http.StatusConflict:
		return booking.NewConflictError(msg)
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity || status == http.StatusNotFound:
		if msg == "" {
			msg = http.StatusText(status)
		}
		return booking.NewValidationError(errors.New(msg))
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return booking.NewValidationError(fmt.Errorf("%w: %s", ErrUnauthorized, http.StatusText(status)))
	default:
		return booking.NewServerError(msg, fmt.Errorf("backend answered %d", status))
	}
}
