package fees

import (
	errors "github.com/rentably/rent-collection/internal"
	"github.com/rentably/rent-collection/internal/core/datamodel/rentpayment"
)

// Charge is the authoritative amount breakdown for one collection attempt.
// ChargedMinor - NetMinor == FeeMinor holds in every fee-payer mode;
// settlement reconciliation depends on that identity.
type Charge struct {
	ChargedMinor int64 `json:"charged_minor"`
	FeeMinor     int64 `json:"fee_minor"`
	NetMinor     int64 `json:"net_minor"`
}

// ComputeCharge splits a requested rent amount and fee according to the
// fee-payer mode:
//
//	landlord: the tenant pays the rent, the fee comes out of the payout.
//	tenant:   the fee is added on top of the tenant's debit.
//	split:    the tenant side gets half the fee rounded half up, the
//	          landlord side absorbs the remainder.
//
// An unknown mode, and an amount too small to cover the landlord's share
// of the fee, are rejected before any durable state is created: amount,
// fee and net must all be non-negative on every recorded row.
func ComputeCharge(amountMinor, feeMinor int64, feePayer string) (Charge, error) {
	if amountMinor < 0 || feeMinor < 0 {
		return Charge{}, errors.NewValidationError("amount and fee cannot be negative", errors.ErrCodeInvalidAmount)
	}

	var charge Charge
	switch feePayer {
	case rentpayment.FeePayerLandlord:
		charge = Charge{
			ChargedMinor: amountMinor,
			FeeMinor:     feeMinor,
			NetMinor:     amountMinor - feeMinor,
		}
	case rentpayment.FeePayerTenant:
		charge = Charge{
			ChargedMinor: amountMinor + feeMinor,
			FeeMinor:     feeMinor,
			NetMinor:     amountMinor,
		}
	case rentpayment.FeePayerSplit:
		half := (feeMinor + 1) / 2 // round half up
		charge = Charge{
			ChargedMinor: amountMinor + half,
			FeeMinor:     feeMinor,
			NetMinor:     amountMinor - (feeMinor - half),
		}
	default:
		return Charge{}, errors.NewValidationError("unknown fee payer mode: "+feePayer, errors.ErrCodeInvalidFeePayer)
	}

	// The fee floor can exceed a very small rent; recording a negative
	// payout would pass the charged-net-fee identity while still being
	// nonsense, so refuse the origination instead.
	if charge.NetMinor < 0 {
		return Charge{}, errors.NewValidationError("amount is too small to cover the processor fee", errors.ErrCodeInvalidAmount)
	}

	return charge, nil
}
