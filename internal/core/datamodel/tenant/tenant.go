package tenant

import (
	"time"
)

// Tenant and Property are owned by the surrounding CRUD application; rent
// collection only reads them to enforce ownership. Attributes beyond the
// owning landlord and a display name live elsewhere.

type Tenant struct {
	ID          int64     `gorm:"primaryKey" json:"id"`
	LandlordID  int64     `gorm:"column:landlord_id;not null;index" json:"landlord_id"`
	Name        string    `gorm:"column:name" json:"name"`
	Email       string    `gorm:"column:email" json:"email"`
	CustomerRef *string   `gorm:"column:customer_ref;uniqueIndex" json:"customer_ref,omitempty"`
	CreatedAt   time.Time `gorm:"column:created_at;default:now()" json:"created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at;default:now()" json:"updated_at"`
}

func (Tenant) TableName() string {
	return "tenants"
}

type Property struct {
	ID         int64     `gorm:"primaryKey" json:"id"`
	LandlordID int64     `gorm:"column:landlord_id;not null;index" json:"landlord_id"`
	Label      string    `gorm:"column:label" json:"label"`
	Address    string    `gorm:"column:address" json:"address"`
	CreatedAt  time.Time `gorm:"column:created_at;default:now()" json:"created_at"`
	UpdatedAt  time.Time `gorm:"column:updated_at;default:now()" json:"updated_at"`
}

func (Property) TableName() string {
	return "properties"
}
