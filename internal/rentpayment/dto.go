package rentpayment

import (
	"time"

	errors "github.com/rentably/rent-collection/internal"
	"github.com/rentably/rent-collection/internal/core/common/validation"
	"github.com/rentably/rent-collection/internal/core/datamodel/rentpayment"
)

// CreateRentPaymentDTO is the origination request body.
type CreateRentPaymentDTO struct {
	TenantID        int64      `json:"tenant_id"`
	PropertyID      *int64     `json:"property_id,omitempty"`
	PaymentMethodID int64      `json:"payment_method_id"`
	AmountMinor     int64      `json:"amount_minor"`
	FeePayer        string     `json:"fee_payer"`
	PeriodStart     *time.Time `json:"period_start,omitempty"`
	PeriodEnd       *time.Time `json:"period_end,omitempty"`
	DueDate         *time.Time `json:"due_date,omitempty"`
	Description     string     `json:"description"`
}

func (d *CreateRentPaymentDTO) Validate() error {
	validator := validation.NewValidator()

	validator.Field("tenant_id", d.TenantID).Required()
	validator.Field("payment_method_id", d.PaymentMethodID).Required()
	validator.Field("amount_minor", d.AmountMinor).Required().MinInt(1, errors.ErrCodeInvalidAmount)
	validator.Field("fee_payer", d.FeePayer).Required().OneOf([]string{
		rentpayment.FeePayerLandlord,
		rentpayment.FeePayerTenant,
		rentpayment.FeePayerSplit,
	}, errors.ErrCodeInvalidFeePayer)
	validator.Field("description", d.Description).MaxLength(500)

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}

	if d.PeriodStart != nil && d.PeriodEnd != nil && d.PeriodEnd.Before(*d.PeriodStart) {
		return errors.NewValidationFieldError("period_end", "period_end cannot be before period_start", errors.ErrCodeInvalidPeriod)
	}

	return nil
}

// ListFilter narrows the landlord-facing listing. LandlordID always comes
// from the authenticated identity, never from the request.
type ListFilter struct {
	LandlordID int64
	TenantID   *int64
	PropertyID *int64
	Status     *string
	Limit      int
	Offset     int
}

// RentPaymentList carries one page plus the exact total, which drives
// landlord-facing reconciliation views and must not be estimated.
type RentPaymentList struct {
	Payments []*rentpayment.RentPayment `json:"payments"`
	Total    int64                      `json:"total"`
	Limit    int                        `json:"limit"`
	Offset   int                        `json:"offset"`
}

// OriginationResponse returns the created payment id and the authoritative
// amount breakdown.
type OriginationResponse struct {
	ID           int64  `json:"id"`
	Status       string `json:"status"`
	AmountMinor  int64  `json:"amount_minor"`
	FeeMinor     int64  `json:"fee_minor"`
	ChargedMinor int64  `json:"charged_minor"`
	NetMinor     int64  `json:"net_minor"`
	FeePayer     string `json:"fee_payer"`
}
