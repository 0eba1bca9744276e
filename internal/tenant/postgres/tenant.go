package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/rentably/rent-collection/internal/core/datamodel/tenant"
	tenantpkg "github.com/rentably/rent-collection/internal/tenant"
)

type TenantRepository struct {
	db *gorm.DB
}

func NewTenantRepository(db *gorm.DB) tenantpkg.RepositoryAPI {
	return &TenantRepository{
		db: db,
	}
}

func (r *TenantRepository) GetTenant(ctx context.Context, tenantID int64) (*tenant.Tenant, error) {
	var t tenant.Tenant
	if err := r.db.WithContext(ctx).First(&t, tenantID).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TenantRepository) GetProperty(ctx context.Context, propertyID int64) (*tenant.Property, error) {
	var p tenant.Property
	if err := r.db.WithContext(ctx).First(&p, propertyID).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// SetCustomerRef stores the processor customer identity created for a
// tenant so later links reuse it instead of registering a duplicate.
func (r *TenantRepository) SetCustomerRef(ctx context.Context, tenantID int64, customerRef string) error {
	return r.db.WithContext(ctx).
		Model(&tenant.Tenant{}).
		Where("id = ?", tenantID).
		Update("customer_ref", customerRef).Error
}
