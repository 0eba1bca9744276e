// Package landlord exposes the authenticated landlord's own profile,
// including the entitlement facts the dashboard needs to decide whether
// to offer rent collection at all.
package landlord

import (
	"time"
)

// Profile is the landlord-facing view of their account. The password hash
// and processor payout reference never leave the service layer.
type Profile struct {
	ID               int64      `json:"id"`
	Email            string     `json:"email"`
	Name             string     `json:"name"`
	SubscriptionTier string     `json:"subscription_tier"`
	PayoutReady      bool       `json:"payout_ready"`
	CreatedAt        time.Time  `json:"created_at"`
	PayoutReadyAt    *time.Time `json:"payout_ready_at,omitempty"`
}
