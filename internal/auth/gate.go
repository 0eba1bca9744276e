package auth

import (
	"context"
	"log/slog"

	errors "github.com/rentably/rent-collection/internal"
	"github.com/rentably/rent-collection/internal/core/datamodel/tenant"
)

// TenantDirectory is the read-only slice of the surrounding CRUD app the
// gate needs for ownership checks.
type TenantDirectory interface {
	GetTenant(ctx context.Context, tenantID int64) (*tenant.Tenant, error)
	GetProperty(ctx context.Context, propertyID int64) (*tenant.Property, error)
}

type LandlordSource interface {
	GetLandlord(landlordID int64) (*Landlord, error)
}

// Gate performs every authorization check rent collection requires:
// subscription tier, payout-account setup, and row ownership. Ownership
// failures deliberately read as not-found so the API never confirms that
// an id exists under another landlord's account; entitlement failures on
// the caller's own account say exactly why access was denied.
type Gate struct {
	landlords LandlordSource
	directory TenantDirectory
	logger    *slog.Logger
}

func NewGate(landlords LandlordSource, directory TenantDirectory, logger *slog.Logger) *Gate {
	return &Gate{
		landlords: landlords,
		directory: directory,
		logger:    logger,
	}
}

// AuthorizeCollection verifies the landlord may originate charges or link
// instruments: Pro tier plus completed processor payout onboarding.
func (g *Gate) AuthorizeCollection(ctx context.Context, landlordID int64) error {
	landlord, err := g.landlords.GetLandlord(landlordID)
	if err != nil {
		g.logger.Error("gate: failed to load landlord", "error", err, "landlord_id", landlordID)
		return errors.NewUnauthorizedError("authentication required", errors.ErrCodeInvalidToken)
	}

	if !landlord.HasProTier() {
		g.logger.Warn("gate: collection denied, tier too low",
			"landlord_id", landlordID,
			"tier", landlord.SubscriptionTier)
		return errors.ErrSubscriptionRequired
	}

	if !landlord.PayoutReady {
		g.logger.Warn("gate: collection denied, payout account not ready", "landlord_id", landlordID)
		return errors.ErrPayoutNotConfigured
	}

	return nil
}

// AuthorizeLinking gates instrument onboarding: Pro tier is enough, the
// payout account only matters once money moves.
func (g *Gate) AuthorizeLinking(ctx context.Context, landlordID int64) error {
	landlord, err := g.landlords.GetLandlord(landlordID)
	if err != nil {
		g.logger.Error("gate: failed to load landlord", "error", err, "landlord_id", landlordID)
		return errors.NewUnauthorizedError("authentication required", errors.ErrCodeInvalidToken)
	}

	if !landlord.HasProTier() {
		g.logger.Warn("gate: linking denied, tier too low",
			"landlord_id", landlordID,
			"tier", landlord.SubscriptionTier)
		return errors.ErrSubscriptionRequired
	}

	return nil
}

func (g *Gate) OwnsTenant(ctx context.Context, landlordID, tenantID int64) error {
	t, err := g.directory.GetTenant(ctx, tenantID)
	if err != nil {
		return errors.ErrTenantNotFound
	}
	if t.LandlordID != landlordID {
		g.logger.Warn("gate: tenant owned by another landlord",
			"landlord_id", landlordID,
			"tenant_id", tenantID)
		return errors.ErrTenantNotFound
	}
	return nil
}

func (g *Gate) OwnsProperty(ctx context.Context, landlordID, propertyID int64) error {
	p, err := g.directory.GetProperty(ctx, propertyID)
	if err != nil {
		return errors.ErrPropertyNotFound
	}
	if p.LandlordID != landlordID {
		g.logger.Warn("gate: property owned by another landlord",
			"landlord_id", landlordID,
			"property_id", propertyID)
		return errors.ErrPropertyNotFound
	}
	return nil
}
