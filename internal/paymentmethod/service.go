// Package paymentmethod manages the registry of tenant bank-debit
// instruments: verification against the external processor, the per-tenant
// default instrument, and removal. Rent collection never sees account
// numbers, only processor references plus display metadata.
package paymentmethod

import (
	"context"
	"fmt"
	"log/slog"

	errors "github.com/rentably/rent-collection/internal"
	"github.com/rentably/rent-collection/internal/core/datamodel/paymentmethod"
	processortypes "github.com/rentably/rent-collection/internal/core/datamodel/processor"
	datatenant "github.com/rentably/rent-collection/internal/core/datamodel/tenant"
)

type ServiceAPI interface {
	Link(ctx context.Context, landlordID int64, req *LinkRequest) (*LinkResponse, error)
	Confirm(ctx context.Context, landlordID int64, req *ConfirmRequest) (*paymentmethod.PaymentMethod, error)
	List(ctx context.Context, landlordID, tenantID int64) ([]paymentmethod.PaymentMethod, error)
	Remove(ctx context.Context, landlordID, methodID int64) error
	GetOwned(ctx context.Context, landlordID, methodID int64) (*paymentmethod.PaymentMethod, error)
}

type Repository interface {
	Create(ctx context.Context, method *paymentmethod.PaymentMethod, setDefault bool) error
	GetByID(ctx context.Context, methodID int64) (*paymentmethod.PaymentMethod, error)
	ListByTenant(ctx context.Context, landlordID, tenantID int64) ([]paymentmethod.PaymentMethod, error)
	Delete(ctx context.Context, methodID int64) error
}

// ProcessorGateway is the slice of the processor API instrument linking
// needs. Charges live in the settlement coordinator.
type ProcessorGateway interface {
	CreateCustomer(ctx context.Context, req *processortypes.CreateCustomerRequest) (*processortypes.Customer, error)
	CreateVerificationIntent(ctx context.Context, req *processortypes.CreateVerificationIntentRequest) (*processortypes.VerificationIntent, error)
	GetInstrument(ctx context.Context, instrumentRef string) (*processortypes.Instrument, error)
	DetachInstrument(ctx context.Context, instrumentRef string) error
}

type TenantDirectory interface {
	GetTenant(ctx context.Context, tenantID int64) (*datatenant.Tenant, error)
	SetCustomerRef(ctx context.Context, tenantID int64, customerRef string) error
}

type AccessGate interface {
	AuthorizeLinking(ctx context.Context, landlordID int64) error
	OwnsTenant(ctx context.Context, landlordID, tenantID int64) error
}

type Service struct {
	repo      Repository
	processor ProcessorGateway
	directory TenantDirectory
	gate      AccessGate
	logger    *slog.Logger
}

func NewService(repo Repository, processor ProcessorGateway, directory TenantDirectory, gate AccessGate, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		processor: processor,
		directory: directory,
		gate:      gate,
		logger:    logger,
	}
}

// Link begins instrument verification for a tenant. The processor customer
// identity is created lazily on first link and reused afterwards, so a
// tenant accumulates instruments under one customer.
func (s *Service) Link(ctx context.Context, landlordID int64, req *LinkRequest) (*LinkResponse, error) {
	if err := s.gate.AuthorizeLinking(ctx, landlordID); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := s.gate.OwnsTenant(ctx, landlordID, req.TenantID); err != nil {
		return nil, err
	}

	t, err := s.directory.GetTenant(ctx, req.TenantID)
	if err != nil {
		return nil, errors.ErrTenantNotFound
	}

	customerRef, err := s.ensureCustomer(ctx, landlordID, t)
	if err != nil {
		return nil, err
	}

	intent, err := s.processor.CreateVerificationIntent(ctx, &processortypes.CreateVerificationIntentRequest{
		CustomerRef: customerRef,
		Metadata: map[string]string{
			"landlord_id": fmt.Sprintf("%d", landlordID),
			"tenant_id":   fmt.Sprintf("%d", t.ID),
		},
	})
	if err != nil {
		s.logger.Error("failed to create verification intent",
			"error", err,
			"tenant_id", t.ID)
		return nil, errors.NewExternalError("payment processor unavailable", errors.ErrCodeProcessorUnavailable).WithCause(err)
	}

	return &LinkResponse{
		ClientSecret: intent.ClientSecret,
		CustomerRef:  customerRef,
	}, nil
}

func (s *Service) ensureCustomer(ctx context.Context, landlordID int64, t *datatenant.Tenant) (string, error) {
	if t.CustomerRef != nil && *t.CustomerRef != "" {
		return *t.CustomerRef, nil
	}

	customer, err := s.processor.CreateCustomer(ctx, &processortypes.CreateCustomerRequest{
		ExternalIdentity: fmt.Sprintf("tenant-%d", t.ID),
		DisplayName:      t.Name,
		Metadata: map[string]string{
			"landlord_id": fmt.Sprintf("%d", landlordID),
			"tenant_id":   fmt.Sprintf("%d", t.ID),
		},
	})
	if err != nil {
		s.logger.Error("failed to create processor customer",
			"error", err,
			"tenant_id", t.ID)
		return "", errors.NewExternalError("payment processor unavailable", errors.ErrCodeProcessorUnavailable).WithCause(err)
	}

	if err := s.directory.SetCustomerRef(ctx, t.ID, customer.CustomerRef); err != nil {
		s.logger.Error("failed to persist customer ref",
			"error", err,
			"tenant_id", t.ID)
		return "", errors.NewInternalError("failed to save customer reference", err)
	}

	return customer.CustomerRef, nil
}

// Confirm completes linking after the client-side verification flow. The
// instrument is fetched back from the processor so its type and display
// metadata come from the source of truth, not the request body.
func (s *Service) Confirm(ctx context.Context, landlordID int64, req *ConfirmRequest) (*paymentmethod.PaymentMethod, error) {
	if err := s.gate.AuthorizeLinking(ctx, landlordID); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := s.gate.OwnsTenant(ctx, landlordID, req.TenantID); err != nil {
		return nil, err
	}

	instrument, err := s.processor.GetInstrument(ctx, req.InstrumentRef)
	if err != nil {
		s.logger.Error("failed to fetch instrument",
			"error", err,
			"instrument_ref", req.InstrumentRef)
		return nil, errors.NewExternalError("payment processor unavailable", errors.ErrCodeProcessorUnavailable).WithCause(err)
	}

	if instrument.Type != paymentmethod.InstrumentTypeBankAccount {
		s.logger.Warn("rejected unsupported instrument type",
			"instrument_type", instrument.Type,
			"tenant_id", req.TenantID)
		return nil, errors.ErrUnsupportedInstrument
	}

	method := &paymentmethod.PaymentMethod{
		LandlordID:     landlordID,
		TenantID:       req.TenantID,
		CustomerRef:    req.CustomerRef,
		InstrumentRef:  instrument.InstrumentRef,
		InstrumentType: instrument.Type,
		BankName:       instrument.BankName,
		LastFour:       instrument.LastFour,
		IsDefault:      req.SetDefault,
		IsVerified:     true,
	}

	if err := s.repo.Create(ctx, method, req.SetDefault); err != nil {
		s.logger.Error("failed to save payment method",
			"error", err,
			"tenant_id", req.TenantID)
		return nil, errors.NewInternalError("failed to save payment method", err)
	}

	s.logger.Info("payment method linked",
		"payment_method_id", method.ID,
		"tenant_id", req.TenantID,
		"is_default", method.IsDefault)

	return method, nil
}

func (s *Service) List(ctx context.Context, landlordID, tenantID int64) ([]paymentmethod.PaymentMethod, error) {
	if err := s.gate.OwnsTenant(ctx, landlordID, tenantID); err != nil {
		return nil, err
	}

	methods, err := s.repo.ListByTenant(ctx, landlordID, tenantID)
	if err != nil {
		s.logger.Error("failed to list payment methods",
			"error", err,
			"tenant_id", tenantID)
		return nil, errors.NewInternalError("failed to list payment methods", err)
	}
	return methods, nil
}

// Remove detaches the instrument at the processor best-effort and always
// deletes the local row: a detach failure must not leave a method the
// landlord cannot get rid of.
func (s *Service) Remove(ctx context.Context, landlordID, methodID int64) error {
	method, err := s.GetOwned(ctx, landlordID, methodID)
	if err != nil {
		return err
	}

	if err := s.processor.DetachInstrument(ctx, method.InstrumentRef); err != nil {
		s.logger.Warn("instrument detach failed, removing locally anyway",
			"error", err,
			"payment_method_id", methodID,
			"instrument_ref", method.InstrumentRef)
	}

	if err := s.repo.Delete(ctx, methodID); err != nil {
		s.logger.Error("failed to delete payment method",
			"error", err,
			"payment_method_id", methodID)
		return errors.NewInternalError("failed to delete payment method", err)
	}

	s.logger.Info("payment method removed",
		"payment_method_id", methodID,
		"landlord_id", landlordID)
	return nil
}

// GetOwned loads a method and masks ownership failures as not-found.
func (s *Service) GetOwned(ctx context.Context, landlordID, methodID int64) (*paymentmethod.PaymentMethod, error) {
	method, err := s.repo.GetByID(ctx, methodID)
	if err != nil {
		return nil, errors.ErrPaymentMethodNotFound
	}
	if method.LandlordID != landlordID {
		s.logger.Warn("payment method owned by another landlord",
			"landlord_id", landlordID,
			"payment_method_id", methodID)
		return nil, errors.ErrPaymentMethodNotFound
	}
	return method, nil
}
