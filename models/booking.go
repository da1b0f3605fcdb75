package models

// DraftBooking holds the in-progress selections of one booking flow.
type DraftBooking struct {
	SalonID    string    `json:"salonId"`
	ServiceIDs []string  `json:"serviceIds"`        // selection order is kept
	StaffID    string    `json:"staffId,omitempty"` // empty means any available staff
	Date       string    `json:"date,omitempty"`    // YYYY-MM-DD
	Slot       *TimeSlot `json:"slot,omitempty"`
}

// HasService reports whether id is currently selected.
func (d DraftBooking) HasService(id string) bool {
	for _, s := range d.ServiceIDs {
		if s == id {
			return true
		}
	}
	return false
}

// AppointmentRequest is the body of the appointment creation call.
type AppointmentRequest struct {
	SalonID    string   `json:"salonId"`
	ServiceIDs []string `json:"serviceIds"`
	StaffID    string   `json:"staffId,omitempty"`
	Date       string   `json:"date"`
	Time       string   `json:"time"`
}

// Appointment is the backend-owned record created on submission.
type Appointment struct {
	ID              string  `json:"appointmentId"`
	Status          string  `json:"status,omitempty"`
	Date            string  `json:"date,omitempty"`
	Time            string  `json:"time,omitempty"`
	TotalAmount     float64 `json:"totalAmount"`
	DurationMinutes int     `json:"durationMinutes,omitempty"`
}
