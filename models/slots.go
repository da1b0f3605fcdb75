package models

// TimeSlot is a free window on a single calendar day ("HH:MM" wall-clock).
type TimeSlot struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// AvailabilityQuery is the key an availability lookup is issued for.
// Seq orders queries issued by one flow; only the latest may be applied.
type AvailabilityQuery struct {
	SalonID   string `json:"salonId"`
	ServiceID string `json:"serviceId"`
	StaffID   string `json:"staffId,omitempty"`
	Date      string `json:"date"`
	Seq       uint64 `json:"seq"`
}

// SameKey reports whether two queries ask for the same availability,
// ignoring their sequence numbers.
func (q AvailabilityQuery) SameKey(o AvailabilityQuery) bool {
	return q.SalonID == o.SalonID && q.ServiceID == o.ServiceID &&
		q.StaffID == o.StaffID && q.Date == o.Date
}
