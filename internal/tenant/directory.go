// Package tenant exposes the read side of the tenant/property CRUD the
// surrounding application owns. Rent collection only needs lookups for
// ownership checks and customer-reference bookkeeping.
package tenant

import (
	"context"

	"github.com/rentably/rent-collection/internal/core/datamodel/tenant"
)

type RepositoryAPI interface {
	GetTenant(ctx context.Context, tenantID int64) (*tenant.Tenant, error)
	GetProperty(ctx context.Context, propertyID int64) (*tenant.Property, error)
	SetCustomerRef(ctx context.Context, tenantID int64, customerRef string) error
}
