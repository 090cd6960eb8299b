package store

import (
	"context"
	"time"

	"vantage/internal/tenant/models"
	tenantstore "vantage/internal/tenant/store/tenant"
	"vantage/pkg/domain"
)

// SeedDemoTenants creates a standard tenant plus a holding group with one
// linked sub-tenant so a dev server has something to approve against.
// Returns the tenants and the group link (holding id -> sub-tenant ids).
func SeedDemoTenants(ts *tenantstore.InMemory) (standard, holding, member *models.Tenant, group map[domain.TenantID][]domain.TenantID) {
	ctx := context.Background()
	now := time.Now()

	standard, _ = models.NewTenant(domain.NewTenantID(), "Aurora Events", models.TenantTypeStandard, now)
	standard.Settings.Compliance = models.Compliance{KYCVerified: true}
	_ = ts.CreateIfNameAvailable(ctx, standard)

	holding, _ = models.NewTenant(domain.NewTenantID(), "Meridian Holdings", models.TenantTypeHolding, now)
	pack := models.PolicyPack{
		PayoutCapMinor:                1_000_000,
		RequireDualApprovalForPayouts: true,
		RestrictedBlueprints:          []domain.BlueprintID{"payout-express"},
		ChildTenantKYCRequired:        true,
	}
	holding.Settings.PolicyPack = &pack
	_ = ts.CreateIfNameAvailable(ctx, holding)

	member, _ = models.NewTenant(domain.NewTenantID(), "Meridian Talent East", models.TenantTypeAgency, now)
	member.AgencySubtype = "talent"
	_ = ts.CreateIfNameAvailable(ctx, member)

	group = map[domain.TenantID][]domain.TenantID{
		holding.ID: {member.ID},
	}
	return standard, holding, member, group
}
