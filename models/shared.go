package models

// ReminderPayload is the task payload for an appointment reminder.
type ReminderPayload struct {
	ReminderID    string `json:"reminderId"`
	UserID        string `json:"userId"`
	AppointmentID string `json:"appointmentId"`
	SalonID       string `json:"salonId"`
	Date          string `json:"date"`
	Time          string `json:"time"`
	FireDate      string `json:"fireDate"`
}
