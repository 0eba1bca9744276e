// Package fees holds the processor fee schedule and the charge calculator.
// Everything here is pure integer arithmetic on minor currency units; the
// resolved numbers are persisted on each rent payment so a later schedule
// change never alters historical rows.
package fees

import (
	"fmt"
	"math"

	"github.com/rentably/rent-collection/internal"
)

// Schedule is one version of the fee schedule: a percentage in basis
// points, clamped to a floor and ceiling.
type Schedule struct {
	Version    int
	PercentBps int64
	FloorMinor int64
	CeilMinor  int64
}

// NewSchedule builds a Schedule from configuration.
func NewSchedule(cfg internal.FeeScheduleConfig) Schedule {
	return Schedule{
		Version:    cfg.Version,
		PercentBps: cfg.PercentBps,
		FloorMinor: cfg.FloorMinor,
		CeilMinor:  cfg.CeilMinor,
	}
}

// ComputeFee returns the processor fee for a charge of amountMinor.
// Deterministic, monotonic non-decreasing, bounded by floor and ceiling.
// A negative amount is a precondition violation by the caller, not a
// runtime condition, so it panics.
func (s Schedule) ComputeFee(amountMinor int64) int64 {
	if amountMinor < 0 {
		panic(fmt.Sprintf("fees: negative amount %d", amountMinor))
	}

	var fee int64
	if s.PercentBps > 0 && amountMinor > math.MaxInt64/s.PercentBps {
		// The product would overflow and flip negative; any amount this
		// large is past the ceiling anyway.
		fee = s.CeilMinor
	} else {
		fee = amountMinor * s.PercentBps / 10000
	}
	if fee < s.FloorMinor {
		fee = s.FloorMinor
	}
	if fee > s.CeilMinor {
		fee = s.CeilMinor
	}
	return fee
}
