package paymentmethod

import (
	"github.com/rentably/rent-collection/internal/core/common/validation"
)

// LinkRequest starts instrument verification for a tenant.
type LinkRequest struct {
	TenantID int64 `json:"tenant_id"`
}

func (r *LinkRequest) Validate() error {
	validator := validation.NewValidator()
	validator.Field("tenant_id", r.TenantID).Required()
	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

// LinkResponse carries what the client-side verification flow needs.
type LinkResponse struct {
	ClientSecret string `json:"client_secret"`
	CustomerRef  string `json:"customer_ref"`
}

// ConfirmRequest completes linking after client-side verification.
type ConfirmRequest struct {
	TenantID      int64  `json:"tenant_id"`
	InstrumentRef string `json:"instrument_ref"`
	CustomerRef   string `json:"customer_ref"`
	SetDefault    bool   `json:"set_default"`
}

func (r *ConfirmRequest) Validate() error {
	validator := validation.NewValidator()
	validator.Field("tenant_id", r.TenantID).Required()
	validator.Field("instrument_ref", r.InstrumentRef).Required()
	validator.Field("customer_ref", r.CustomerRef).Required()
	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	return nil
}
