package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeRentPaymentSettled  = "rent_payment.settled"
	EventTypeRentPaymentReturned = "rent_payment.returned"
	EventTypeRentPaymentFailed   = "rent_payment.failed"
)

// RentPaymentSettledEvent fires when a processing payment clears.
type RentPaymentSettledEvent struct {
	BaseEvent
	RentPaymentID int64  `json:"rent_payment_id"`
	LandlordID    int64  `json:"landlord_id"`
	TenantID      int64  `json:"tenant_id"`
	NetMinor      int64  `json:"net_minor"`
	ProcessorRef  string `json:"processor_ref"`
}

func NewRentPaymentSettledEvent(rentPaymentID, landlordID, tenantID, netMinor int64, processorRef string) *RentPaymentSettledEvent {
	return &RentPaymentSettledEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeRentPaymentSettled,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"rent_payment_id": rentPaymentID,
				"landlord_id":     landlordID,
				"tenant_id":       tenantID,
				"net_minor":       netMinor,
				"processor_ref":   processorRef,
			},
		},
		RentPaymentID: rentPaymentID,
		LandlordID:    landlordID,
		TenantID:      tenantID,
		NetMinor:      netMinor,
		ProcessorRef:  processorRef,
	}
}

// RentPaymentReturnedEvent fires on a post-settlement reversal. Consumers
// must treat the net amount as income being clawed back, not as a payment
// that never happened.
type RentPaymentReturnedEvent struct {
	BaseEvent
	RentPaymentID int64  `json:"rent_payment_id"`
	LandlordID    int64  `json:"landlord_id"`
	TenantID      int64  `json:"tenant_id"`
	NetMinor      int64  `json:"net_minor"`
	ProcessorRef  string `json:"processor_ref"`
	Reason        string `json:"reason"`
}

func NewRentPaymentReturnedEvent(rentPaymentID, landlordID, tenantID, netMinor int64, processorRef, reason string) *RentPaymentReturnedEvent {
	return &RentPaymentReturnedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeRentPaymentReturned,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"rent_payment_id": rentPaymentID,
				"landlord_id":     landlordID,
				"tenant_id":       tenantID,
				"net_minor":       netMinor,
				"processor_ref":   processorRef,
				"reason":          reason,
			},
		},
		RentPaymentID: rentPaymentID,
		LandlordID:    landlordID,
		TenantID:      tenantID,
		NetMinor:      netMinor,
		ProcessorRef:  processorRef,
		Reason:        reason,
	}
}

// RentPaymentFailedEvent fires when a submission is rejected before
// acceptance; the landlord's expected income was never affected.
type RentPaymentFailedEvent struct {
	BaseEvent
	RentPaymentID int64  `json:"rent_payment_id"`
	LandlordID    int64  `json:"landlord_id"`
	TenantID      int64  `json:"tenant_id"`
	Reason        string `json:"reason"`
}

func NewRentPaymentFailedEvent(rentPaymentID, landlordID, tenantID int64, reason string) *RentPaymentFailedEvent {
	return &RentPaymentFailedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeRentPaymentFailed,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"rent_payment_id": rentPaymentID,
				"landlord_id":     landlordID,
				"tenant_id":       tenantID,
				"reason":          reason,
			},
		},
		RentPaymentID: rentPaymentID,
		LandlordID:    landlordID,
		TenantID:      tenantID,
		Reason:        reason,
	}
}
