package handler

import (
	"context"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vantage/internal/grouppolicy"
	"vantage/internal/tenant/models"
	tenantStore "vantage/internal/tenant/store/tenant"
	"vantage/pkg/domain"
	"vantage/pkg/testutil"
)

type fixture struct {
	router    chi.Router
	holdingID domain.TenantID
	memberID  domain.TenantID
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	store := tenantStore.NewInMemory()
	directory := grouppolicy.NewInMemoryDirectory()

	holding, err := models.NewTenant(domain.NewTenantID(), "Meridian Holdings", models.TenantTypeHolding, time.Now())
	require.NoError(t, err)
	require.NoError(t, store.CreateIfNameAvailable(context.Background(), holding))

	member, err := models.NewTenant(domain.NewTenantID(), "Meridian Talent East", models.TenantTypeAgency, time.Now())
	require.NoError(t, err)
	require.NoError(t, store.CreateIfNameAvailable(context.Background(), member))
	directory.Link(holding.ID, member.ID)

	handler := New(grouppolicy.New(store, directory), slog.New(slog.DiscardHandler))
	r := chi.NewRouter()
	handler.Register(r)
	return fixture{router: r, holdingID: holding.ID, memberID: member.ID}
}

func TestGetPolicyPack(t *testing.T) {
	f := newFixture(t)

	req := testutil.NewRequest(t, http.MethodGet, "/tenants/"+f.holdingID.String()+"/policy-pack")
	rr := testutil.DoRequest(f.router, req)

	require.Equal(t, http.StatusOK, rr.Code)
	resp := testutil.UnmarshalResponse[PackResponse](t, rr)
	assert.False(t, resp.Custom)
	assert.Equal(t, models.DefaultPolicyPack(), resp.Pack)
}

func TestSetPolicyPack(t *testing.T) {
	f := newFixture(t)

	t.Run("stores a valid pack", func(t *testing.T) {
		body := `{"payout_cap_minor": 500000, "require_dual_approval_for_payouts": true,
			"restricted_blueprints": ["payout-express"], "child_tenant_kyc_required": true}`
		req := testutil.NewRequestWithBody(t, http.MethodPut,
			"/tenants/"+f.holdingID.String()+"/policy-pack", body)
		req = testutil.WithActor(req, "adm-1", domain.RolePlatformAdmin)
		rr := testutil.DoRequest(f.router, req)

		require.Equal(t, http.StatusOK, rr.Code)
		resp := testutil.UnmarshalResponse[PackResponse](t, rr)
		assert.True(t, resp.Custom)
		assert.Equal(t, int64(500_000), resp.Pack.PayoutCapMinor)
	})

	t.Run("negative cap is rejected", func(t *testing.T) {
		body := `{"payout_cap_minor": -5}`
		req := testutil.NewRequestWithBody(t, http.MethodPut,
			"/tenants/"+f.holdingID.String()+"/policy-pack", body)
		req = testutil.WithActor(req, "adm-1", domain.RolePlatformAdmin)
		rr := testutil.DoRequest(f.router, req)

		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
		errBody := testutil.UnmarshalErrorResponse(t, rr)
		assert.Contains(t, errBody["error_description"], "payout_cap_minor")
	})

	t.Run("non-holding member is rejected", func(t *testing.T) {
		body := `{"payout_cap_minor": 1000, "require_dual_approval_for_payouts": false,
			"restricted_blueprints": [], "child_tenant_kyc_required": false}`
		req := testutil.NewRequestWithBody(t, http.MethodPut,
			"/tenants/"+f.memberID.String()+"/policy-pack", body)
		req = testutil.WithActor(req, "adm-1", domain.RolePlatformAdmin)
		rr := testutil.DoRequest(f.router, req)
		assert.Equal(t, http.StatusPreconditionFailed, rr.Code)
	})
}

func TestImportPolicyPack(t *testing.T) {
	f := newFixture(t)

	t.Run("missing field is rejected naming the field", func(t *testing.T) {
		req := testutil.NewRequestWithBody(t, http.MethodPost,
			"/tenants/"+f.holdingID.String()+"/policy-pack/import", `{"payout_cap_minor": 1}`)
		req = testutil.WithActor(req, "adm-1", domain.RolePlatformAdmin)
		rr := testutil.DoRequest(f.router, req)

		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
		errBody := testutil.UnmarshalErrorResponse(t, rr)
		assert.Contains(t, errBody["error_description"], "missing properties")
	})

	t.Run("valid document imports", func(t *testing.T) {
		body := `{"payout_cap_minor": 900000, "require_dual_approval_for_payouts": true,
			"restricted_blueprints": [], "child_tenant_kyc_required": true}`
		req := testutil.NewRequestWithBody(t, http.MethodPost,
			"/tenants/"+f.holdingID.String()+"/policy-pack/import", body)
		req = testutil.WithActor(req, "adm-1", domain.RolePlatformAdmin)
		rr := testutil.DoRequest(f.router, req)
		assert.Equal(t, http.StatusOK, rr.Code)
	})
}

func TestEffectivePolicy(t *testing.T) {
	f := newFixture(t)

	body := `{"payout_cap_minor": 1000000, "require_dual_approval_for_payouts": true,
		"restricted_blueprints": ["payout-express"], "child_tenant_kyc_required": true}`
	req := testutil.NewRequestWithBody(t, http.MethodPut,
		"/tenants/"+f.holdingID.String()+"/policy-pack", body)
	req = testutil.WithActor(req, "adm-1", domain.RolePlatformAdmin)
	require.Equal(t, http.StatusOK, testutil.DoRequest(f.router, req).Code)

	getReq := testutil.NewRequest(t, http.MethodGet,
		"/tenants/"+f.memberID.String()+"/policy-pack/effective")
	rr := testutil.DoRequest(f.router, getReq)

	require.Equal(t, http.StatusOK, rr.Code)
	resp := testutil.UnmarshalResponse[EffectiveResponse](t, rr)
	assert.True(t, resp.Inherited)
	assert.Equal(t, f.holdingID.String(), resp.ParentID)
	assert.True(t, resp.Pack.Restricts("payout-express"))
}
