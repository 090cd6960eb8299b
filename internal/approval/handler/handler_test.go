package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"vantage/internal/approval"
	"vantage/internal/blueprint"
	"vantage/internal/tenant/models"
	tenantStore "vantage/internal/tenant/store/tenant"
	"vantage/pkg/domain"
	"vantage/pkg/testutil"
)

type ApprovalHandlerSuite struct {
	suite.Suite
	store    *tenantStore.InMemory
	router   chi.Router
	tenantID domain.TenantID
}

func TestApprovalHandlerSuite(t *testing.T) {
	suite.Run(t, new(ApprovalHandlerSuite))
}

func (s *ApprovalHandlerSuite) SetupTest() {
	s.store = tenantStore.NewInMemory()

	tenant, err := models.NewTenant(domain.NewTenantID(), "Aurora Events", models.TenantTypeStandard, time.Now())
	s.Require().NoError(err)
	tenant.Settings.Compliance = models.Compliance{KYCVerified: true, PayoutsEnabled: true}
	s.Require().NoError(s.store.CreateIfNameAvailable(context.Background(), tenant))
	s.tenantID = tenant.ID

	service := approval.New(s.store, blueprint.DefaultTable())
	handler := New(service, slog.New(slog.DiscardHandler))

	s.router = chi.NewRouter()
	handler.Register(s.router)
}

func (s *ApprovalHandlerSuite) blueprintPath(blueprintID, action string) string {
	return fmt.Sprintf("/tenants/%s/blueprints/%s/%s", s.tenantID, blueprintID, action)
}

func (s *ApprovalHandlerSuite) TestGetTenant() {
	s.Run("returns the tenant view", func() {
		req := testutil.NewRequest(s.T(), http.MethodGet, "/tenants/"+s.tenantID.String())
		rr := testutil.DoRequest(s.router, req)

		s.Equal(http.StatusOK, rr.Code)
		resp := testutil.UnmarshalResponse[TenantResponse](s.T(), rr)
		s.Equal("Aurora Events", resp.Name)
		s.NotNil(resp.Blueprints)
		s.NotNil(resp.RequestedBlueprints)
	})

	s.Run("malformed tenant ID is invalid input", func() {
		req := testutil.NewRequest(s.T(), http.MethodGet, "/tenants/not-a-uuid")
		rr := testutil.DoRequest(s.router, req)

		s.Equal(http.StatusUnprocessableEntity, rr.Code)
		body := testutil.UnmarshalErrorResponse(s.T(), rr)
		s.Equal("invalid_input", body["error"])
	})

	s.Run("unknown tenant is 404", func() {
		req := testutil.NewRequest(s.T(), http.MethodGet, "/tenants/"+domain.NewTenantID().String())
		rr := testutil.DoRequest(s.router, req)
		s.Equal(http.StatusNotFound, rr.Code)
	})
}

func (s *ApprovalHandlerSuite) TestRequestBlueprint() {
	s.Run("request is accepted", func() {
		req := testutil.NewRequest(s.T(), http.MethodPost, s.blueprintPath("payout-express", "request"))
		rr := testutil.DoRequest(s.router, req)

		s.Equal(http.StatusAccepted, rr.Code)
		resp := testutil.UnmarshalResponse[TenantResponse](s.T(), rr)
		s.Contains(resp.RequestedBlueprints, domain.BlueprintID("payout-express"))
	})

	s.Run("duplicate request conflicts", func() {
		req := testutil.NewRequest(s.T(), http.MethodPost, s.blueprintPath("payout-express", "request"))
		rr := testutil.DoRequest(s.router, req)
		s.Equal(http.StatusConflict, rr.Code)
	})

	s.Run("malformed blueprint ID is invalid input", func() {
		req := testutil.NewRequest(s.T(), http.MethodPost, s.blueprintPath("Not_A_Slug", "request"))
		rr := testutil.DoRequest(s.router, req)
		s.Equal(http.StatusUnprocessableEntity, rr.Code)
	})
}

func (s *ApprovalHandlerSuite) TestReviewAndApprove() {
	req := testutil.NewRequest(s.T(), http.MethodPost, s.blueprintPath("payout-express", "request"))
	s.Require().Equal(http.StatusAccepted, testutil.DoRequest(s.router, req).Code)

	s.Run("review without an actor is unauthorized", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, s.blueprintPath("payout-express", "review"),
			ReasonRequest{Reason: "docs checked in full"})
		rr := testutil.DoRequest(s.router, req)
		s.Equal(http.StatusUnauthorized, rr.Code)
	})

	s.Run("review with the wrong role is forbidden", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, s.blueprintPath("payout-express", "review"),
			ReasonRequest{Reason: "docs checked in full"})
		req = testutil.WithActor(req, "app-1", domain.RolePlatformApprover)
		rr := testutil.DoRequest(s.router, req)
		s.Equal(http.StatusForbidden, rr.Code)
	})

	s.Run("review with a short reason is rejected", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, s.blueprintPath("payout-express", "review"),
			ReasonRequest{Reason: "ok"})
		req = testutil.WithActor(req, "rev-1", domain.RoleComplianceReviewer)
		rr := testutil.DoRequest(s.router, req)

		s.Equal(http.StatusUnprocessableEntity, rr.Code)
		body := testutil.UnmarshalErrorResponse(s.T(), rr)
		s.Contains(body["error_description"], "at least 8 characters")
	})

	s.Run("approve before review fails the precondition", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, s.blueprintPath("payout-express", "approve"),
			ReasonRequest{Reason: "workflow complete, sign-off"})
		req = testutil.WithActor(req, "app-1", domain.RolePlatformApprover)
		rr := testutil.DoRequest(s.router, req)
		s.Equal(http.StatusPreconditionFailed, rr.Code)
	})

	s.Run("review then approve activates the blueprint", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, s.blueprintPath("payout-express", "review"),
			ReasonRequest{Reason: "docs checked in full"})
		req = testutil.WithActor(req, "rev-1", domain.RoleComplianceReviewer)
		s.Require().Equal(http.StatusOK, testutil.DoRequest(s.router, req).Code)

		req = testutil.NewJSONRequest(s.T(), http.MethodPost, s.blueprintPath("payout-express", "approve"),
			ReasonRequest{Reason: "workflow complete, sign-off"})
		req = testutil.WithActor(req, "app-1", domain.RolePlatformApprover)
		rr := testutil.DoRequest(s.router, req)

		s.Equal(http.StatusOK, rr.Code)
		resp := testutil.UnmarshalResponse[TenantResponse](s.T(), rr)
		s.Contains(resp.Blueprints, domain.BlueprintID("payout-express"))
		s.Empty(resp.RequestedBlueprints)
		s.Len(resp.ApprovalLog, 2)
	})
}

func (s *ApprovalHandlerSuite) TestEvaluation() {
	s.Run("returns the policy preview", func() {
		req := testutil.NewRequest(s.T(), http.MethodGet, s.blueprintPath("agency-suite", "evaluation"))
		rr := testutil.DoRequest(s.router, req)

		s.Equal(http.StatusOK, rr.Code)
		resp := testutil.UnmarshalResponse[EvaluationResponse](s.T(), rr)
		s.False(resp.Allowed)
		s.True(resp.Known)
		s.Len(resp.Checks, 2)
	})
}
