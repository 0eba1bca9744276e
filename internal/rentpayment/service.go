package rentpayment

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	errors "github.com/rentably/rent-collection/internal"
	"github.com/rentably/rent-collection/internal/core/datamodel/paymentmethod"
	processortypes "github.com/rentably/rent-collection/internal/core/datamodel/processor"
	"github.com/rentably/rent-collection/internal/core/datamodel/rentpayment"
	"github.com/rentably/rent-collection/internal/core/events"
	"github.com/rentably/rent-collection/internal/fees"
)

// Repository is the data access contract for the ledger. Status writes are
// compare-and-set: they only apply when the row is still in the expected
// state, which is what makes the webhook path safe to race against the
// synchronous submission path.
type Repository interface {
	Create(p *rentpayment.RentPayment) error
	GetByID(id int64) (*rentpayment.RentPayment, error)
	GetByProcessorRef(processorRef string) (*rentpayment.RentPayment, error)
	List(filter ListFilter) ([]*rentpayment.RentPayment, int64, error)
	ListStalePending(olderThan time.Time, limit int) ([]*rentpayment.RentPayment, error)
	UpdateStatusCAS(id int64, fromStatus, toStatus string, updates map[string]interface{}) (bool, error)
}

// AccessGate is the slice of authorization the ledger needs: entitlement
// plus ownership of the rows an origination references.
type AccessGate interface {
	AuthorizeCollection(ctx context.Context, landlordID int64) error
	OwnsTenant(ctx context.Context, landlordID, tenantID int64) error
	OwnsProperty(ctx context.Context, landlordID, propertyID int64) error
}

// MethodSource resolves a payment method within the landlord's scope.
type MethodSource interface {
	GetOwned(ctx context.Context, landlordID, methodID int64) (*paymentmethod.PaymentMethod, error)
}

// Service is the rent payment ledger: the single authoritative record of
// every collection attempt and its lifecycle state. All status reads come
// from here, never from the processor's live state.
type Service struct {
	repo     Repository
	gate     AccessGate
	methods  MethodSource
	schedule fees.Schedule
	eventBus *events.EventBus
	logger   *slog.Logger
}

func NewService(repo Repository, gate AccessGate, methods MethodSource, schedule fees.Schedule, eventBus *events.EventBus, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		gate:     gate,
		methods:  methods,
		schedule: schedule,
		eventBus: eventBus,
		logger:   logger,
	}
}

// Create validates an origination request and durably records a pending
// row. Nothing has been sent to the processor yet when this returns; a
// crash right after leaves an auditable pending row the reconciliation
// sweep can pick up.
func (s *Service) Create(ctx context.Context, landlordID int64, dto *CreateRentPaymentDTO) (*rentpayment.RentPayment, error) {
	if err := s.gate.AuthorizeCollection(ctx, landlordID); err != nil {
		return nil, err
	}

	if err := dto.Validate(); err != nil {
		s.logger.Error("rent payment validation failed", "error", err, "landlord_id", landlordID)
		return nil, err
	}

	if err := s.gate.OwnsTenant(ctx, landlordID, dto.TenantID); err != nil {
		return nil, err
	}
	if dto.PropertyID != nil {
		if err := s.gate.OwnsProperty(ctx, landlordID, *dto.PropertyID); err != nil {
			return nil, err
		}
	}

	method, err := s.methods.GetOwned(ctx, landlordID, dto.PaymentMethodID)
	if err != nil {
		return nil, err
	}
	if method.TenantID != dto.TenantID {
		// A method belonging to another tenant reads as missing.
		return nil, errors.ErrPaymentMethodNotFound
	}
	if !method.IsVerified {
		return nil, errors.ErrMethodNotVerified
	}

	fee := s.schedule.ComputeFee(dto.AmountMinor)
	charge, err := fees.ComputeCharge(dto.AmountMinor, fee, dto.FeePayer)
	if err != nil {
		return nil, err
	}

	payment := &rentpayment.RentPayment{
		LandlordID:      landlordID,
		TenantID:        dto.TenantID,
		PropertyID:      dto.PropertyID,
		PaymentMethodID: method.ID,
		AmountMinor:     dto.AmountMinor,
		FeeMinor:        charge.FeeMinor,
		ChargedMinor:    charge.ChargedMinor,
		NetMinor:        charge.NetMinor,
		FeePayer:        dto.FeePayer,
		FeeVersion:      s.schedule.Version,
		Status:          rentpayment.StatusPending,
		IdempotencyKey:  uuid.New().String(),
		PeriodStart:     dto.PeriodStart,
		PeriodEnd:       dto.PeriodEnd,
		DueDate:         dto.DueDate,
		Description:     dto.Description,
	}

	if err := s.repo.Create(payment); err != nil {
		s.logger.Error("failed to create rent payment", "error", err, "landlord_id", landlordID, "tenant_id", dto.TenantID)
		return nil, errors.NewInternalError("failed to record rent payment", err)
	}

	s.logger.Info("rent payment created",
		"rent_payment_id", payment.ID,
		"landlord_id", landlordID,
		"tenant_id", dto.TenantID,
		"charged_minor", charge.ChargedMinor,
		"fee_minor", charge.FeeMinor,
		"net_minor", charge.NetMinor,
		"fee_payer", dto.FeePayer)

	return payment, nil
}

// MarkSubmitted transitions pending -> processing (or straight to
// succeeded when the processor reports synchronous success) and stores
// the processor operation reference.
func (s *Service) MarkSubmitted(ctx context.Context, id int64, processorRef, initialStatus string) error {
	target := rentpayment.StatusProcessing
	if initialStatus == processortypes.ChargeStatusSucceeded {
		target = rentpayment.StatusSucceeded
	}

	now := time.Now().UTC()
	updates := map[string]interface{}{
		"processor_ref": processorRef,
		"submitted_at":  now,
	}
	if target == rentpayment.StatusSucceeded {
		updates["settled_at"] = now
	}

	applied, err := s.repo.UpdateStatusCAS(id, rentpayment.StatusPending, target, updates)
	if err != nil {
		return errors.NewInternalError("failed to mark rent payment submitted", err)
	}
	if !applied {
		// The webhook can beat the synchronous response; the row is no
		// longer pending and this update must not overwrite it.
		s.logger.Warn("mark submitted skipped: row left pending state concurrently",
			"rent_payment_id", id, "processor_ref", processorRef)
		return errors.ErrInvalidTransition
	}

	s.logger.Info("rent payment submitted",
		"rent_payment_id", id,
		"processor_ref", processorRef,
		"status", target)
	return nil
}

// MarkFailed transitions pending -> failed with the processor's verbatim
// rejection reason. Only submissions that never got accepted land here.
func (s *Service) MarkFailed(ctx context.Context, id int64, reason string) error {
	applied, err := s.repo.UpdateStatusCAS(id, rentpayment.StatusPending, rentpayment.StatusFailed, map[string]interface{}{
		"failure_reason": reason,
	})
	if err != nil {
		return errors.NewInternalError("failed to mark rent payment failed", err)
	}
	if !applied {
		return errors.ErrInvalidTransition
	}

	payment, err := s.repo.GetByID(id)
	if err == nil {
		s.eventBus.Publish(ctx, events.NewRentPaymentFailedEvent(payment.ID, payment.LandlordID, payment.TenantID, reason))
	}

	s.logger.Info("rent payment failed", "rent_payment_id", id, "reason", reason)
	return nil
}

// ApplySettlementEvent is the only path out of processing. It is
// idempotent under at-least-once delivery: a replay targeting the state
// the row is already in is a no-op, anything else out of order is
// rejected without touching the row.
func (s *Service) ApplySettlementEvent(ctx context.Context, processorRef, outcome, reason string) error {
	var target string
	switch outcome {
	case processortypes.OutcomeSucceeded:
		target = rentpayment.StatusSucceeded
	case processortypes.OutcomeReturned:
		target = rentpayment.StatusReturned
	default:
		return errors.NewValidationError(fmt.Sprintf("unknown settlement outcome: %s", outcome), errors.ErrCodeValidationFailed)
	}

	payment, err := s.repo.GetByProcessorRef(processorRef)
	if err != nil {
		return errors.ErrRentPaymentNotFound
	}

	if payment.Status == target {
		s.logger.Info("settlement event replay ignored",
			"rent_payment_id", payment.ID,
			"processor_ref", processorRef,
			"status", payment.Status)
		return nil
	}

	updates := map[string]interface{}{
		"settled_at": time.Now().UTC(),
	}
	if reason != "" {
		updates["failure_reason"] = reason
	}

	applied, err := s.repo.UpdateStatusCAS(payment.ID, rentpayment.StatusProcessing, target, updates)
	if err != nil {
		return errors.NewInternalError("failed to apply settlement event", err)
	}
	if !applied {
		s.logger.Warn("settlement event rejected: payment not in processing state",
			"rent_payment_id", payment.ID,
			"processor_ref", processorRef,
			"current_status", payment.Status,
			"outcome", outcome)
		return errors.ErrInvalidTransition
	}

	switch target {
	case rentpayment.StatusSucceeded:
		s.eventBus.Publish(ctx, events.NewRentPaymentSettledEvent(payment.ID, payment.LandlordID, payment.TenantID, payment.NetMinor, processorRef))
	case rentpayment.StatusReturned:
		s.eventBus.Publish(ctx, events.NewRentPaymentReturnedEvent(payment.ID, payment.LandlordID, payment.TenantID, payment.NetMinor, processorRef, reason))
	}

	s.logger.Info("settlement event applied",
		"rent_payment_id", payment.ID,
		"processor_ref", processorRef,
		"outcome", outcome)
	return nil
}

// GetForLandlord fetches one payment within the landlord's scope. Rows
// owned by someone else answer not-found.
func (s *Service) GetForLandlord(ctx context.Context, landlordID, id int64) (*rentpayment.RentPayment, error) {
	payment, err := s.repo.GetByID(id)
	if err != nil {
		return nil, errors.ErrRentPaymentNotFound
	}
	if payment.LandlordID != landlordID {
		return nil, errors.ErrRentPaymentNotFound
	}
	return payment, nil
}

// List returns a stable page ordered by creation time descending plus the
// exact total for the filter.
func (s *Service) List(ctx context.Context, filter ListFilter) (*RentPaymentList, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	payments, total, err := s.repo.List(filter)
	if err != nil {
		s.logger.Error("failed to list rent payments", "error", err, "landlord_id", filter.LandlordID)
		return nil, errors.NewInternalError("failed to list rent payments", err)
	}

	return &RentPaymentList{
		Payments: payments,
		Total:    total,
		Limit:    filter.Limit,
		Offset:   filter.Offset,
	}, nil
}

// ListStalePending exposes pending rows older than the threshold for the
// reconciliation sweep.
func (s *Service) ListStalePending(ctx context.Context, olderThan time.Time, limit int) ([]*rentpayment.RentPayment, error) {
	return s.repo.ListStalePending(olderThan, limit)
}
