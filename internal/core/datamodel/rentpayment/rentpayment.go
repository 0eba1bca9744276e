package rentpayment

import (
	"time"
)

// Status values for a rent payment. Transitions only move forward:
//
//	pending    -> processing | succeeded | failed
//	processing -> succeeded | returned
//
// pending may reach succeeded directly: some charges settle synchronously
// at submission, and the settlement webhook can land before the
// submission response is recorded.
//
// succeeded, returned and failed are terminal. returned is kept separate
// from failed because a returned payment was already reported to the
// landlord as collected income and has to be reconciled as a clawback.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusSucceeded  = "succeeded"
	StatusReturned   = "returned"
	StatusFailed     = "failed"
)

// FeePayerMode controls who absorbs the processor fee.
const (
	FeePayerLandlord = "landlord"
	FeePayerTenant   = "tenant"
	FeePayerSplit    = "split"
)

// RentPayment is the authoritative record of one collection attempt.
// All amounts are integers in minor currency units.
type RentPayment struct {
	ID              int64      `gorm:"primaryKey" json:"id"`
	LandlordID      int64      `gorm:"column:landlord_id;not null;index" json:"landlord_id"`
	TenantID        int64      `gorm:"column:tenant_id;not null;index" json:"tenant_id"`
	PropertyID      *int64     `gorm:"column:property_id;index" json:"property_id,omitempty"`
	PaymentMethodID int64      `gorm:"column:payment_method_id;not null" json:"payment_method_id"`
	AmountMinor     int64      `gorm:"column:amount_minor;not null" json:"amount_minor"`
	FeeMinor        int64      `gorm:"column:fee_minor;not null" json:"fee_minor"`
	ChargedMinor    int64      `gorm:"column:charged_minor;not null" json:"charged_minor"`
	NetMinor        int64      `gorm:"column:net_minor;not null" json:"net_minor"`
	FeePayer        string     `gorm:"column:fee_payer;not null" json:"fee_payer"`
	FeeVersion      int        `gorm:"column:fee_version;not null" json:"fee_version"`
	Status          string     `gorm:"column:status;not null;default:pending;index" json:"status"`
	IdempotencyKey  string     `gorm:"column:idempotency_key;not null;uniqueIndex" json:"idempotency_key"`
	ProcessorRef    *string    `gorm:"column:processor_ref;uniqueIndex" json:"processor_ref,omitempty"`
	FailureReason   *string    `gorm:"column:failure_reason" json:"failure_reason,omitempty"`
	PeriodStart     *time.Time `gorm:"column:period_start" json:"period_start,omitempty"`
	PeriodEnd       *time.Time `gorm:"column:period_end" json:"period_end,omitempty"`
	DueDate         *time.Time `gorm:"column:due_date" json:"due_date,omitempty"`
	Description     string     `gorm:"column:description" json:"description"`
	SubmittedAt     *time.Time `gorm:"column:submitted_at" json:"submitted_at,omitempty"`
	SettledAt       *time.Time `gorm:"column:settled_at" json:"settled_at,omitempty"`
	CreatedAt       time.Time  `gorm:"column:created_at;default:now()" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"column:updated_at;default:now()" json:"updated_at"`
}

func (RentPayment) TableName() string {
	return "rent_payments"
}

// IsTerminal reports whether no further transitions are allowed from status.
func IsTerminal(status string) bool {
	switch status {
	case StatusSucceeded, StatusReturned, StatusFailed:
		return true
	}
	return false
}

// CanTransition reports whether moving from one status to another is legal.
// Every write path goes through this table; anything not listed is rejected.
func CanTransition(from, to string) bool {
	switch from {
	case StatusPending:
		return to == StatusProcessing || to == StatusFailed || to == StatusSucceeded
	case StatusProcessing:
		return to == StatusSucceeded || to == StatusReturned
	}
	return false
}

// ValidFeePayer reports whether mode is a known fee-payer mode.
func ValidFeePayer(mode string) bool {
	switch mode {
	case FeePayerLandlord, FeePayerTenant, FeePayerSplit:
		return true
	}
	return false
}
