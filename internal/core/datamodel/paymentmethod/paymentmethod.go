package paymentmethod

import (
	"time"
)

// InstrumentTypeBankAccount is the only instrument type rent collection
// accepts today. The processor can report others (cards, wallets); those
// are rejected at confirmation time.
const InstrumentTypeBankAccount = "bank_account"

// PaymentMethod mirrors a tenant's verified bank-debit instrument held at
// the external processor, scoped to the landlord who onboarded the tenant.
type PaymentMethod struct {
	ID             int64     `gorm:"primaryKey" json:"id"`
	LandlordID     int64     `gorm:"column:landlord_id;not null;index:idx_payment_methods_scope" json:"landlord_id"`
	TenantID       int64     `gorm:"column:tenant_id;not null;index:idx_payment_methods_scope" json:"tenant_id"`
	CustomerRef    string    `gorm:"column:customer_ref;not null" json:"customer_ref"`
	InstrumentRef  string    `gorm:"column:instrument_ref;not null;uniqueIndex" json:"instrument_ref"`
	InstrumentType string    `gorm:"column:instrument_type;not null" json:"instrument_type"`
	BankName       string    `gorm:"column:bank_name" json:"bank_name"`
	LastFour       string    `gorm:"column:last_four" json:"last_four"`
	IsDefault      bool      `gorm:"column:is_default;not null;default:false" json:"is_default"`
	IsVerified     bool      `gorm:"column:is_verified;not null;default:false" json:"is_verified"`
	CreatedAt      time.Time `gorm:"column:created_at;default:now()" json:"created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at;default:now()" json:"updated_at"`
}

func (PaymentMethod) TableName() string {
	return "payment_methods"
}
