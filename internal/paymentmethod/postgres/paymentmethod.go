package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/rentably/rent-collection/internal/core/datamodel/paymentmethod"
)

type PaymentMethodRepository struct {
	db *gorm.DB
}

func NewPaymentMethodRepository(db *gorm.DB) *PaymentMethodRepository {
	return &PaymentMethodRepository{db: db}
}

// Create inserts the method and, when it becomes the tenant's default,
// clears the previous default in the same transaction so the tenant never
// has two defaults.
func (r *PaymentMethodRepository) Create(ctx context.Context, method *paymentmethod.PaymentMethod, setDefault bool) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if setDefault {
			if err := tx.Model(&paymentmethod.PaymentMethod{}).
				Where("landlord_id = ? AND tenant_id = ? AND is_default = ?", method.LandlordID, method.TenantID, true).
				Update("is_default", false).Error; err != nil {
				return err
			}
			method.IsDefault = true
		}
		return tx.Create(method).Error
	})
}

func (r *PaymentMethodRepository) GetByID(ctx context.Context, methodID int64) (*paymentmethod.PaymentMethod, error) {
	var method paymentmethod.PaymentMethod
	if err := r.db.WithContext(ctx).First(&method, methodID).Error; err != nil {
		return nil, err
	}
	return &method, nil
}

func (r *PaymentMethodRepository) ListByTenant(ctx context.Context, landlordID, tenantID int64) ([]paymentmethod.PaymentMethod, error) {
	var methods []paymentmethod.PaymentMethod
	err := r.db.WithContext(ctx).
		Where("landlord_id = ? AND tenant_id = ?", landlordID, tenantID).
		Order("is_default DESC, created_at DESC").
		Find(&methods).Error
	if err != nil {
		return nil, err
	}
	return methods, nil
}

func (r *PaymentMethodRepository) Delete(ctx context.Context, methodID int64) error {
	return r.db.WithContext(ctx).Delete(&paymentmethod.PaymentMethod{}, methodID).Error
}
