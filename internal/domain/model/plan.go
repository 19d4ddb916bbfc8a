package model

import "time"

// SubscriptionPlan describes what a payment purchases. PriceTiyin is the
// price of one month in minor currency units; Reserve validates callback
// amounts against it.
type SubscriptionPlan struct {
	ID             string
	Name           string
	DurationMonths int
	PriceTiyin     int64
	Active         bool
	CreatedAt      time.Time
}

// PriceFor returns the expected charge for the given number of months,
// falling back to the plan's own duration when months is zero.
func (p *SubscriptionPlan) PriceFor(months int) int64 {
	if months <= 0 {
		months = p.DurationMonths
	}
	if months <= 0 {
		months = 1
	}
	return p.PriceTiyin * int64(months)
}
