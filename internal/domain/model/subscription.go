package model

import "time"

type SubscriptionStatus string

const (
	SubscriptionStatusActive  SubscriptionStatus = "active"
	SubscriptionStatusExpired SubscriptionStatus = "expired"
	SubscriptionStatusRevoked SubscriptionStatus = "revoked"
)

// UserSubscription is the entitlement a confirmed payment activates or
// extends. It lives outside the reconciliation core; the engine only ever
// touches it through the activation collaborator.
type UserSubscription struct {
	ID        string
	UserID    string
	PlanID    string
	StartAt   time.Time
	ExpiresAt time.Time
	Status    SubscriptionStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (s *UserSubscription) ActiveAt(now time.Time) bool {
	return s.Status == SubscriptionStatusActive && now.Before(s.ExpiresAt)
}
