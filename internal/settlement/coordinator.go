// Package settlement drives money movement: it submits recorded rent
// payments to the external processor and folds the processor's settlement
// events back into the ledger. The ledger stays the source of truth; this
// package only moves state between the ledger and the processor.
package settlement

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"

	errors "github.com/rentably/rent-collection/internal"
	"github.com/rentably/rent-collection/internal/core/datamodel/paymentmethod"
	processortypes "github.com/rentably/rent-collection/internal/core/datamodel/processor"
	"github.com/rentably/rent-collection/internal/core/datamodel/rentpayment"
	"github.com/rentably/rent-collection/internal/metrics"
	"github.com/rentably/rent-collection/internal/processor"
	rentpaymentsvc "github.com/rentably/rent-collection/internal/rentpayment"
)

const chargeCurrency = "usd"

// Ledger is the slice of the rent payment service the coordinator drives.
type Ledger interface {
	Create(ctx context.Context, landlordID int64, dto *rentpaymentsvc.CreateRentPaymentDTO) (*rentpayment.RentPayment, error)
	MarkSubmitted(ctx context.Context, id int64, processorRef, initialStatus string) error
	MarkFailed(ctx context.Context, id int64, reason string) error
	ApplySettlementEvent(ctx context.Context, processorRef, outcome, reason string) error
	GetForLandlord(ctx context.Context, landlordID, id int64) (*rentpayment.RentPayment, error)
}

// ChargeGateway is the processor surface used for money movement.
type ChargeGateway interface {
	Charge(ctx context.Context, req *processortypes.ChargeRequest, idempotencyKey string) (*processortypes.Charge, error)
}

type MethodSource interface {
	GetOwned(ctx context.Context, landlordID, methodID int64) (*paymentmethod.PaymentMethod, error)
}

type Coordinator struct {
	ledger  Ledger
	gateway ChargeGateway
	methods MethodSource
	logger  *slog.Logger
}

func NewCoordinator(ledger Ledger, gateway ChargeGateway, methods MethodSource, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		ledger:  ledger,
		gateway: gateway,
		methods: methods,
		logger:  logger,
	}
}

// Originate records the payment and submits it. The ledger row is durable
// before the processor sees anything, so every attempted collection is
// auditable even across a crash mid-flight.
func (c *Coordinator) Originate(ctx context.Context, landlordID int64, dto *rentpaymentsvc.CreateRentPaymentDTO) (*rentpayment.RentPayment, error) {
	payment, err := c.ledger.Create(ctx, landlordID, dto)
	if err != nil {
		metrics.OriginationsTotal.WithLabelValues("rejected").Inc()
		return nil, err
	}

	method, err := c.methods.GetOwned(ctx, landlordID, payment.PaymentMethodID)
	if err != nil {
		return nil, err
	}

	c.Submit(ctx, payment, method)

	// Reload so the caller sees the post-submission state, including a
	// webhook that may already have settled the charge.
	updated, err := c.ledger.GetForLandlord(ctx, landlordID, payment.ID)
	if err != nil {
		return payment, nil
	}
	return updated, nil
}

// Submit sends one recorded payment to the processor. The ledger row's
// idempotency key addresses the charge, so resubmitting the same row can
// never debit twice. Ambiguous transport failures leave the row pending
// for the reconciliation sweep; only an explicit processor rejection
// marks it failed.
func (c *Coordinator) Submit(ctx context.Context, payment *rentpayment.RentPayment, method *paymentmethod.PaymentMethod) {
	charge, err := c.gateway.Charge(ctx, &processortypes.ChargeRequest{
		CustomerRef:   method.CustomerRef,
		InstrumentRef: method.InstrumentRef,
		AmountMinor:   payment.ChargedMinor,
		Currency:      chargeCurrency,
		Metadata: map[string]string{
			"rent_payment_id": fmt.Sprintf("%d", payment.ID),
			"landlord_id":     fmt.Sprintf("%d", payment.LandlordID),
		},
	}, payment.IdempotencyKey)

	if err != nil {
		var rejection *processor.RejectionError
		if stderrors.As(err, &rejection) {
			metrics.OriginationsTotal.WithLabelValues("rejected").Inc()
			if markErr := c.ledger.MarkFailed(ctx, payment.ID, rejection.Reason); markErr != nil {
				c.logger.Error("failed to record processor rejection",
					"error", markErr,
					"rent_payment_id", payment.ID)
			}
			return
		}

		// Ambiguity: the charge may or may not have reached the
		// processor. The row stays pending and the sweep resolves it.
		metrics.OriginationsTotal.WithLabelValues("ambiguous").Inc()
		c.logger.Warn("charge submission outcome unknown, leaving payment pending",
			"error", err,
			"rent_payment_id", payment.ID)
		return
	}

	metrics.OriginationsTotal.WithLabelValues("submitted").Inc()
	if err := c.ledger.MarkSubmitted(ctx, payment.ID, charge.OperationRef, charge.Status); err != nil {
		// A lost race against the webhook is fine, the row already
		// carries the settled state.
		if !stderrors.Is(err, errors.ErrInvalidTransition) {
			c.logger.Error("failed to mark payment submitted",
				"error", err,
				"rent_payment_id", payment.ID,
				"processor_ref", charge.OperationRef)
		}
	}
}

// HandleEvent applies one settlement event from the processor's
// at-least-once stream. Replays and unknown references are absorbed so
// the processor never retries forever.
func (c *Coordinator) HandleEvent(ctx context.Context, event *processortypes.SettlementEvent) error {
	err := c.ledger.ApplySettlementEvent(ctx, event.OperationRef, event.Outcome, event.Reason)
	switch {
	case err == nil:
		metrics.SettlementEventsTotal.WithLabelValues("applied").Inc()
		return nil
	case stderrors.Is(err, errors.ErrRentPaymentNotFound):
		metrics.SettlementEventsTotal.WithLabelValues("unknown_ref").Inc()
		c.logger.Warn("settlement event for unknown operation dropped",
			"event_id", event.EventID,
			"operation_ref", event.OperationRef)
		return nil
	case stderrors.Is(err, errors.ErrInvalidTransition):
		metrics.SettlementEventsTotal.WithLabelValues("out_of_order").Inc()
		c.logger.Warn("out-of-order settlement event dropped",
			"event_id", event.EventID,
			"operation_ref", event.OperationRef,
			"outcome", event.Outcome)
		return nil
	default:
		metrics.SettlementEventsTotal.WithLabelValues("error").Inc()
		return err
	}
}
