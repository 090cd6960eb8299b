package report

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vantage/internal/audit"
	"vantage/internal/tenant/models"
	tenantStore "vantage/internal/tenant/store/tenant"
	"vantage/pkg/domain"
	dErrors "vantage/pkg/domain-errors"
	"vantage/pkg/requestcontext"
	"vantage/pkg/testutil"
)

func seedTenant(t *testing.T, store *tenantStore.InMemory) *models.Tenant {
	t.Helper()
	now := time.Now().Truncate(time.Second).UTC()
	tenant, err := models.NewTenant(domain.NewTenantID(), "Aurora Events", models.TenantTypeStandard, now)
	require.NoError(t, err)
	tenant.Settings.Compliance = models.Compliance{KYCVerified: true, PayoutsEnabled: true}
	require.NoError(t, store.CreateIfNameAvailable(context.Background(), tenant))

	reviewer := domain.Actor{ID: "rev-1", Role: domain.RoleComplianceReviewer}
	approver := domain.Actor{ID: "app-1", Role: domain.RolePlatformApprover}
	_, err = store.Execute(context.Background(), tenant.ID,
		func(tn *models.Tenant) error { return nil },
		func(tn *models.Tenant) {
			tn.ApplyBlueprintRequest("payout-express", now)
			tn.ApplyReview(models.NewApprovalLogEntry("payout-express", models.ApprovalActionReviewed, reviewer, "docs checked in full", now), now)
			tn.ApplyApproval(models.NewApprovalLogEntry("payout-express", models.ApprovalActionApproved, approver, "confirmed compliant", now), now)
			tn.ApplyBlueprintRequest("agency-suite", now)
		},
	)
	require.NoError(t, err)
	return tenant
}

func TestExportRoundTrip(t *testing.T) {
	store := tenantStore.NewInMemory()
	tenant := seedTenant(t, store)
	service := New(store)

	rep, err := service.Export(context.Background(), tenant.ID)
	require.NoError(t, err)

	// Round-trip through JSON: the decoded document must re-derive the same
	// state the aggregate holds.
	raw, err := json.Marshal(rep)
	require.NoError(t, err)
	var decoded AuditReport
	require.NoError(t, json.Unmarshal(raw, &decoded))

	current, err := store.FindByID(context.Background(), tenant.ID)
	require.NoError(t, err)

	assert.Equal(t, current.ID, decoded.Tenant.ID)
	assert.Equal(t, current.Name, decoded.Tenant.Name)
	assert.Equal(t, current.Settings.Compliance, decoded.Compliance)
	assert.Equal(t, current.Settings.Blueprints, decoded.Active)
	assert.Equal(t, current.Settings.RequestedBlueprints, decoded.Pending)
	require.Len(t, decoded.Log, len(current.Settings.ApprovalLog))
	for i, entry := range current.Settings.ApprovalLog {
		assert.Equal(t, entry.ID, decoded.Log[i].ID)
		assert.Equal(t, entry.Action, decoded.Log[i].Action)
		assert.Equal(t, entry.ActorID, decoded.Log[i].ActorID)
		assert.True(t, entry.At.Equal(decoded.Log[i].At))
	}
}

func TestExportIsAudited(t *testing.T) {
	store := tenantStore.NewInMemory()
	tenant := seedTenant(t, store)
	auditStore := audit.NewInMemoryStore()
	service := New(store, WithAuditPublisher(audit.NewPublisher(auditStore)))

	ctx := testutil.ActorContext("adm-1", domain.RolePlatformAdmin)
	_, err := service.Export(ctx, tenant.ID)
	require.NoError(t, err)

	events, err := auditStore.ListByTenant(context.Background(), tenant.ID.String())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, string(audit.EventAuditReportExported), events[0].Action)
	assert.Equal(t, "adm-1", events[0].ActorID)
}

func TestExportUnknownTenant(t *testing.T) {
	service := New(tenantStore.NewInMemory())
	_, err := service.Export(context.Background(), domain.NewTenantID())
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestExportGeneratedAtFromContext(t *testing.T) {
	store := tenantStore.NewInMemory()
	tenant := seedTenant(t, store)
	service := New(store)

	at := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), at)
	rep, err := service.Export(ctx, tenant.ID)
	require.NoError(t, err)
	assert.True(t, rep.GeneratedAt.Equal(at))
}
