package models

// PaymentIntent is the payment order the backend creates for an appointment.
type PaymentIntent struct {
	OrderID       string  `json:"orderId"`
	AppointmentID string  `json:"appointmentId,omitempty"`
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
}

// Checkout is what the checkout widget needs to collect a payment.
type Checkout struct {
	Provider     string  `json:"provider"`
	OrderID      string  `json:"orderId"`
	Amount       float64 `json:"amount"`
	Currency     string  `json:"currency"`
	ClientSecret string  `json:"clientSecret,omitempty"`
	ExternalID   string  `json:"externalId,omitempty"`
}

// PaymentVerification carries the widget's success callback to the backend.
type PaymentVerification struct {
	OrderID          string `json:"orderId"`
	PaymentReference string `json:"paymentId"`
	Signature        string `json:"signature"`
}
