package grouppolicy

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"vantage/internal/audit"
	"vantage/internal/tenant/models"
	tenantStore "vantage/internal/tenant/store/tenant"
	"vantage/pkg/domain"
	dErrors "vantage/pkg/domain-errors"
	"vantage/pkg/testutil"
)

type GroupPolicySuite struct {
	suite.Suite
	store      *tenantStore.InMemory
	auditStore *audit.InMemoryStore
	directory  *InMemoryDirectory
	service    *Service
	holdingID  domain.TenantID
	memberID   domain.TenantID
}

func TestGroupPolicySuite(t *testing.T) {
	suite.Run(t, new(GroupPolicySuite))
}

func (s *GroupPolicySuite) SetupTest() {
	s.store = tenantStore.NewInMemory()
	s.auditStore = audit.NewInMemoryStore()
	s.directory = NewInMemoryDirectory()
	s.service = New(s.store, s.directory,
		WithAuditPublisher(audit.NewPublisher(s.auditStore)))

	ctx := context.Background()
	now := time.Now()

	holding, err := models.NewTenant(domain.NewTenantID(), "Meridian Holdings", models.TenantTypeHolding, now)
	s.Require().NoError(err)
	s.Require().NoError(s.store.CreateIfNameAvailable(ctx, holding))
	s.holdingID = holding.ID

	member, err := models.NewTenant(domain.NewTenantID(), "Meridian Talent East", models.TenantTypeAgency, now)
	s.Require().NoError(err)
	s.Require().NoError(s.store.CreateIfNameAvailable(ctx, member))
	s.memberID = member.ID

	s.directory.Link(s.holdingID, s.memberID)
}

func adminCtx() context.Context {
	return testutil.ActorContext("adm-1", domain.RolePlatformAdmin)
}

func (s *GroupPolicySuite) pack(capMinor int64, restricted ...domain.BlueprintID) models.PolicyPack {
	return models.PolicyPack{
		PayoutCapMinor:       capMinor,
		RestrictedBlueprints: restricted,
	}
}

// =============================================================================
// Get / Set Tests
// =============================================================================

func (s *GroupPolicySuite) TestGet() {
	s.Run("unset pack falls back to the documented default", func() {
		pack, custom, err := s.service.Get(context.Background(), s.holdingID)
		s.Require().NoError(err)
		s.False(custom)
		s.Equal(models.DefaultPolicyPack(), pack)
	})

	s.Run("stored pack is returned as-is", func() {
		_, err := s.service.Set(adminCtx(), s.holdingID, s.pack(500_000, "payout-express"))
		s.Require().NoError(err)

		pack, custom, err := s.service.Get(context.Background(), s.holdingID)
		s.Require().NoError(err)
		s.True(custom)
		s.Equal(int64(500_000), pack.PayoutCapMinor)
		s.True(pack.Restricts("payout-express"))
	})

	s.Run("unknown tenant is not found", func() {
		_, _, err := s.service.Get(context.Background(), domain.NewTenantID())
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *GroupPolicySuite) TestSet() {
	s.Run("anonymous caller is unauthorized", func() {
		_, err := s.service.Set(context.Background(), s.holdingID, s.pack(500_000))
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("negative payout cap is rejected naming the field", func() {
		_, err := s.service.Set(adminCtx(), s.holdingID, s.pack(-1))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		s.Contains(err.Error(), "payout_cap_minor")
	})

	s.Run("non-holding tenant without group policy cannot carry a pack", func() {
		_, err := s.service.Set(adminCtx(), s.memberID, s.pack(500_000))
		s.True(dErrors.HasCode(err, dErrors.CodePreconditionFailed))
	})

	s.Run("rejected pack leaves the stored pack unchanged", func() {
		_, err := s.service.Set(adminCtx(), s.holdingID, s.pack(750_000))
		s.Require().NoError(err)

		_, err = s.service.Set(adminCtx(), s.holdingID,
			s.pack(100, "payout-express", "payout-express"))
		s.Require().Error(err)
		s.Contains(err.Error(), "restricted_blueprints")

		pack, _, err := s.service.Get(context.Background(), s.holdingID)
		s.Require().NoError(err)
		s.Equal(int64(750_000), pack.PayoutCapMinor)
	})

	s.Run("pack update is audited", func() {
		_, err := s.service.Set(adminCtx(), s.holdingID, s.pack(500_000))
		s.Require().NoError(err)

		events, err := s.auditStore.ListByTenant(context.Background(), s.holdingID.String())
		s.Require().NoError(err)
		s.Require().NotEmpty(events)
		s.Equal(string(audit.EventPolicyPackUpdated), events[len(events)-1].Action)
		s.Equal("adm-1", events[len(events)-1].ActorID)
	})
}

// =============================================================================
// Import Tests
// =============================================================================

func (s *GroupPolicySuite) TestImportFromDocument() {
	valid := []byte(`{
		"payout_cap_minor": 900000,
		"require_dual_approval_for_payouts": true,
		"restricted_blueprints": ["payout-express"],
		"child_tenant_kyc_required": false
	}`)

	s.Run("valid document is persisted", func() {
		tenant, err := s.service.ImportFromDocument(adminCtx(), s.holdingID, valid)
		s.Require().NoError(err)
		s.Require().NotNil(tenant.Settings.PolicyPack)
		s.Equal(int64(900_000), tenant.Settings.PolicyPack.PayoutCapMinor)
	})

	s.Run("import is audited as a single import event", func() {
		before := s.auditStore.Len()
		_, err := s.service.ImportFromDocument(adminCtx(), s.holdingID, valid)
		s.Require().NoError(err)
		s.Equal(before+1, s.auditStore.Len())

		events, err := s.auditStore.ListByTenant(context.Background(), s.holdingID.String())
		s.Require().NoError(err)
		s.Equal(string(audit.EventPolicyPackImported), events[len(events)-1].Action)
	})

	s.Run("missing required field is rejected naming the field", func() {
		raw := []byte(`{"payout_cap_minor": 900000}`)
		_, err := s.service.ImportFromDocument(adminCtx(), s.holdingID, raw)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		s.Contains(err.Error(), "require_dual_approval_for_payouts")

		pack, _, getErr := s.service.Get(context.Background(), s.holdingID)
		s.Require().NoError(getErr)
		s.Equal(int64(900_000), pack.PayoutCapMinor, "stored pack must be unchanged")
	})

	s.Run("wrong field type is rejected", func() {
		raw := []byte(`{
			"payout_cap_minor": "lots",
			"require_dual_approval_for_payouts": true,
			"restricted_blueprints": [],
			"child_tenant_kyc_required": true
		}`)
		_, err := s.service.ImportFromDocument(adminCtx(), s.holdingID, raw)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("malformed JSON is rejected", func() {
		_, err := s.service.ImportFromDocument(adminCtx(), s.holdingID, []byte("{not json"))
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

// =============================================================================
// Effective Policy Tests
// =============================================================================

func (s *GroupPolicySuite) TestResolveEffectivePolicy() {
	s.Run("tenant outside any group resolves to its own pack", func() {
		eff, err := s.service.ResolveEffectivePolicy(context.Background(), s.holdingID)
		s.Require().NoError(err)
		s.False(eff.Inherited)
		s.Equal(models.DefaultPolicyPack(), eff.Pack)
	})

	s.Run("parent restrictions always win in the merge", func() {
		parentPack := s.pack(1_000_000, "payout-express")
		parentPack.RequireDualApprovalForPayouts = true
		_, err := s.service.Set(adminCtx(), s.holdingID, parentPack)
		s.Require().NoError(err)

		// Give the member its own, more permissive pack.
		_, err = s.store.Execute(context.Background(), s.memberID,
			func(t *models.Tenant) error { return nil },
			func(t *models.Tenant) {
				t.Settings.GroupPolicyEnabled = true
			},
		)
		s.Require().NoError(err)
		memberPack := s.pack(5_000_000, "agency-suite")
		_, err = s.service.Set(adminCtx(), s.memberID, memberPack)
		s.Require().NoError(err)

		eff, err := s.service.ResolveEffectivePolicy(context.Background(), s.memberID)
		s.Require().NoError(err)
		s.True(eff.Inherited)
		s.Equal(s.holdingID, eff.ParentID)
		s.Equal(int64(1_000_000), eff.Pack.PayoutCapMinor, "cap is the minimum of the two")
		s.True(eff.Pack.RequireDualApprovalForPayouts)
		s.True(eff.Pack.Restricts("payout-express"), "parent restriction carried")
		s.True(eff.Pack.Restricts("agency-suite"), "child restriction kept")
	})

	s.Run("member without its own pack inherits via the default merge", func() {
		member2, err := models.NewTenant(domain.NewTenantID(), "Meridian Talent West", models.TenantTypeAgency, time.Now())
		s.Require().NoError(err)
		s.Require().NoError(s.store.CreateIfNameAvailable(context.Background(), member2))
		s.directory.Link(s.holdingID, member2.ID)

		parentPack := s.pack(1_000_000, "payout-express")
		_, err = s.service.Set(adminCtx(), s.holdingID, parentPack)
		s.Require().NoError(err)

		eff, err := s.service.ResolveEffectivePolicy(context.Background(), member2.ID)
		s.Require().NoError(err)
		s.True(eff.Inherited)
		s.Equal(int64(1_000_000), eff.Pack.PayoutCapMinor)
		s.True(eff.Pack.Restricts("payout-express"))
	})
}
