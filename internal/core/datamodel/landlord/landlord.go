package landlord

import (
	"time"
)

// Subscription tiers. Rent collection is a Pro feature; Basic landlords
// keep the CRUD surface but cannot originate charges or link instruments.
const (
	TierBasic = "basic"
	TierPro   = "pro"
)

type Landlord struct {
	ID               int64      `gorm:"primaryKey" json:"id"`
	Email            string     `gorm:"column:email;not null;uniqueIndex" json:"email"`
	PasswordHash     string     `gorm:"column:password_hash;not null" json:"-"`
	Name             string     `gorm:"column:name" json:"name"`
	SubscriptionTier string     `gorm:"column:subscription_tier;not null;default:basic" json:"subscription_tier"`
	PayoutAccountRef *string    `gorm:"column:payout_account_ref" json:"payout_account_ref,omitempty"`
	PayoutReadyAt    *time.Time `gorm:"column:payout_ready_at" json:"payout_ready_at,omitempty"`
	IsActive         bool       `gorm:"column:is_active;not null;default:true" json:"is_active"`
	CreatedAt        time.Time  `gorm:"column:created_at;default:now()" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"column:updated_at;default:now()" json:"updated_at"`
}

func (Landlord) TableName() string {
	return "landlords"
}

// PayoutReady reports whether processor-side payout onboarding finished.
// No charge may be submitted for a landlord until this is true.
func (l *Landlord) PayoutReady() bool {
	return l.PayoutAccountRef != nil && l.PayoutReadyAt != nil
}

// HasProTier reports whether the landlord's tier unlocks rent collection.
func (l *Landlord) HasProTier() bool {
	return l.SubscriptionTier == TierPro
}
