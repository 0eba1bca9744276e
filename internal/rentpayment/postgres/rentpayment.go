package postgres

import (
	"time"

	"gorm.io/gorm"

	"github.com/rentably/rent-collection/internal/core/datamodel/rentpayment"
	rentpaymentpkg "github.com/rentably/rent-collection/internal/rentpayment"
)

type RentPaymentRepository struct {
	db *gorm.DB
}

func NewRentPaymentRepository(db *gorm.DB) rentpaymentpkg.Repository {
	return &RentPaymentRepository{
		db: db,
	}
}

func (r *RentPaymentRepository) Create(p *rentpayment.RentPayment) error {
	return r.db.Create(p).Error
}

func (r *RentPaymentRepository) GetByID(id int64) (*rentpayment.RentPayment, error) {
	var p rentpayment.RentPayment
	err := r.db.First(&p, id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *RentPaymentRepository) GetByProcessorRef(processorRef string) (*rentpayment.RentPayment, error) {
	var p rentpayment.RentPayment
	err := r.db.Where("processor_ref = ?", processorRef).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *RentPaymentRepository) List(filter rentpaymentpkg.ListFilter) ([]*rentpayment.RentPayment, int64, error) {
	query := r.db.Model(&rentpayment.RentPayment{}).Where("landlord_id = ?", filter.LandlordID)

	if filter.TenantID != nil {
		query = query.Where("tenant_id = ?", *filter.TenantID)
	}
	if filter.PropertyID != nil {
		query = query.Where("property_id = ?", *filter.PropertyID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	// Exact count before pagination; the total drives reconciliation views.
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var payments []*rentpayment.RentPayment
	err := query.
		Order("created_at DESC, id DESC").
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&payments).Error
	if err != nil {
		return nil, 0, err
	}

	return payments, total, nil
}

func (r *RentPaymentRepository) ListStalePending(olderThan time.Time, limit int) ([]*rentpayment.RentPayment, error) {
	var payments []*rentpayment.RentPayment
	err := r.db.
		Where("status = ? AND created_at < ?", rentpayment.StatusPending, olderThan).
		Order("created_at ASC").
		Limit(limit).
		Find(&payments).Error
	return payments, err
}

// UpdateStatusCAS applies a status transition only when the row still
// holds fromStatus, reporting whether the write landed. Racing writers
// (synchronous submit response vs webhook) both funnel through here, so
// at most one of them wins.
func (r *RentPaymentRepository) UpdateStatusCAS(id int64, fromStatus, toStatus string, updates map[string]interface{}) (bool, error) {
	if !rentpayment.CanTransition(fromStatus, toStatus) {
		return false, nil
	}

	values := map[string]interface{}{
		"status":     toStatus,
		"updated_at": time.Now().UTC(),
	}
	for k, v := range updates {
		values[k] = v
	}

	result := r.db.Model(&rentpayment.RentPayment{}).
		Where("id = ? AND status = ?", id, fromStatus).
		Updates(values)
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected == 1, nil
}
