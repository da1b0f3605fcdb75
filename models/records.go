// File: models/records.go
package models

import "time"

// FlowRecord holds the latest outcome of a booking flow that reached
// completed or failed. There is one record per flow.
type FlowRecord struct {
	ID            string    `bson:"id" json:"id"`
	FlowID        string    `bson:"flowId" json:"flowId"`
	UserID        string    `bson:"userId" json:"userId"`
	SalonID       string    `bson:"salonId" json:"salonId"`
	AppointmentID string    `bson:"appointmentId,omitempty" json:"appointmentId,omitempty"`
	ServiceIDs    []string  `bson:"serviceIds" json:"serviceIds"`
	StaffID       string    `bson:"staffId,omitempty" json:"staffId,omitempty"`
	Date          string    `bson:"date,omitempty" json:"date,omitempty"`
	Time          string    `bson:"time,omitempty" json:"time,omitempty"`
	Amount        float64   `bson:"amount" json:"amount"`
	Outcome       string    `bson:"outcome" json:"outcome"`                         // "completed" or "failed"
	ErrorKind     string    `bson:"errorKind,omitempty" json:"errorKind,omitempty"` // set for failed flows
	Message       string    `bson:"message,omitempty" json:"message,omitempty"`
	CreatedAt     time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time `bson:"updatedAt" json:"updatedAt"`
}
