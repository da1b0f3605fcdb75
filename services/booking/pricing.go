package booking

import (
	"math"

	"salonbook/models"
)

// Totals is what the customer pays and how long the visit takes.
type Totals struct {
	Amount          float64 `json:"amount"`
	DurationMinutes int     `json:"durationMinutes"`
}

// SumServices adds up price and duration of the given services.
func SumServices(services []models.ServiceOffering) Totals {
	var t Totals
	for _, s := range services {
		t.Amount += s.Price
		t.DurationMinutes += s.DurationMinutes
	}
	t.Amount = roundCents(t.Amount)
	return t
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

// MinorUnits converts an amount to the smallest currency unit (paise, cents).
func MinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
