// Package processor defines the wire types for the external bank-debit
// processor. The contract is vendor-neutral: customer identities, instrument
// verification intents, charges addressed by idempotency key, and an
// asynchronous settlement event stream.
package processor

import (
	"errors"
)

// ChargeStatus values the processor reports for a charge operation.
const (
	ChargeStatusPending   = "pending"
	ChargeStatusSucceeded = "succeeded"
	ChargeStatusFailed    = "failed"
	ChargeStatusReturned  = "returned"
)

// Settlement outcomes carried by webhook events.
const (
	OutcomeSucceeded = "succeeded"
	OutcomeReturned  = "returned"
)

type CreateCustomerRequest struct {
	ExternalIdentity string            `json:"external_identity"`
	DisplayName      string            `json:"display_name"`
	Metadata         map[string]string `json:"metadata,omitempty"`
}

type Customer struct {
	CustomerRef string `json:"customer_ref"`
}

type CreateVerificationIntentRequest struct {
	CustomerRef string            `json:"customer_ref"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

type VerificationIntent struct {
	ClientSecret  string `json:"client_secret"`
	InstrumentRef string `json:"instrument_ref"`
}

type Instrument struct {
	InstrumentRef string `json:"instrument_ref"`
	Type          string `json:"type"`
	BankName      string `json:"bank_name"`
	LastFour      string `json:"last_four"`
}

type ChargeRequest struct {
	CustomerRef   string            `json:"customer_ref"`
	InstrumentRef string            `json:"instrument_ref"`
	AmountMinor   int64             `json:"amount"`
	Currency      string            `json:"currency"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

func (r *ChargeRequest) Validate() error {
	if r.CustomerRef == "" {
		return errors.New("customer_ref is required")
	}
	if r.InstrumentRef == "" {
		return errors.New("instrument_ref is required")
	}
	if r.AmountMinor <= 0 {
		return errors.New("amount must be greater than 0")
	}
	return nil
}

type Charge struct {
	OperationRef  string `json:"operation_ref"`
	Status        string `json:"status"`
	FailureReason string `json:"failure_reason,omitempty"`
}

// SettlementEvent is one entry of the processor's at-least-once event
// stream. Events are unordered across operations but ordered per operation.
type SettlementEvent struct {
	EventID      string `json:"event_id"`
	OperationRef string `json:"operation_ref"`
	Outcome      string `json:"outcome"`
	Reason       string `json:"reason,omitempty"`
}
