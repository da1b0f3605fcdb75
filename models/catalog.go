package models

// ServiceOffering is a bookable salon service as returned by the backend catalog.
type ServiceOffering struct {
	ID              string  `json:"id"`
	SalonID         string  `json:"salonId"`
	Name            string  `json:"name"`
	Description     string  `json:"description,omitempty"`
	Category        string  `json:"category,omitempty"`
	Price           float64 `json:"price"`           // positive, in the salon's currency
	DurationMinutes int     `json:"durationMinutes"` // positive
}

// StaffMember is a barber/stylist who may be chosen for a booking.
type StaffMember struct {
	ID          string   `json:"id"`
	SalonID     string   `json:"salonId"`
	Name        string   `json:"name"`
	AvatarURL   string   `json:"avatarUrl,omitempty"`
	Rating      float64  `json:"rating,omitempty"`
	Specialties []string `json:"specialties,omitempty"`
}
