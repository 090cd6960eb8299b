// Package handler exposes the approval workflow over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"vantage/internal/blueprint"
	"vantage/internal/tenant/models"
	"vantage/pkg/domain"
	dErrors "vantage/pkg/domain-errors"
	"vantage/pkg/platform/httputil"
	"vantage/pkg/requestcontext"
)

// Service defines the approval operations the handler needs.
type Service interface {
	RequestBlueprint(ctx context.Context, tenantID domain.TenantID, blueprintID domain.BlueprintID) (*models.Tenant, error)
	MarkReviewed(ctx context.Context, tenantID domain.TenantID, blueprintID domain.BlueprintID, reason string) (*models.Tenant, error)
	Approve(ctx context.Context, tenantID domain.TenantID, blueprintID domain.BlueprintID, reason string) (*models.Tenant, error)
	Evaluate(ctx context.Context, tenantID domain.TenantID, blueprintID domain.BlueprintID) (blueprint.Evaluation, error)
	GetTenant(ctx context.Context, tenantID domain.TenantID) (*models.Tenant, error)
}

// Handler handles approval workflow endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New creates a new approval Handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register registers the approval routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/tenants/{tenantID}", h.handleGetTenant)
	r.Post("/tenants/{tenantID}/blueprints/{blueprintID}/request", h.handleRequest)
	r.Post("/tenants/{tenantID}/blueprints/{blueprintID}/review", h.handleReview)
	r.Post("/tenants/{tenantID}/blueprints/{blueprintID}/approve", h.handleApprove)
	r.Get("/tenants/{tenantID}/blueprints/{blueprintID}/evaluation", h.handleEvaluation)
}

func (h *Handler) handleGetTenant(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID, ok := h.pathTenantID(w, r)
	if !ok {
		return
	}

	tenant, err := h.service.GetTenant(ctx, tenantID)
	if err != nil {
		h.writeServiceError(w, r, "failed to load tenant", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromTenant(tenant))
}

func (h *Handler) handleRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID, blueprintID, ok := h.pathIDs(w, r)
	if !ok {
		return
	}

	tenant, err := h.service.RequestBlueprint(ctx, tenantID, blueprintID)
	if err != nil {
		h.writeServiceError(w, r, "failed to request blueprint", err)
		return
	}
	httputil.WriteJSON(w, http.StatusAccepted, FromTenant(tenant))
}

func (h *Handler) handleReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID, blueprintID, ok := h.pathIDs(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[ReasonRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	tenant, err := h.service.MarkReviewed(ctx, tenantID, blueprintID, req.Reason)
	if err != nil {
		h.writeServiceError(w, r, "failed to mark blueprint reviewed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromTenant(tenant))
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID, blueprintID, ok := h.pathIDs(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[ReasonRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	tenant, err := h.service.Approve(ctx, tenantID, blueprintID, req.Reason)
	if err != nil {
		h.writeServiceError(w, r, "failed to approve blueprint", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromTenant(tenant))
}

func (h *Handler) handleEvaluation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID, blueprintID, ok := h.pathIDs(w, r)
	if !ok {
		return
	}

	eval, err := h.service.Evaluate(ctx, tenantID, blueprintID)
	if err != nil {
		h.writeServiceError(w, r, "failed to evaluate blueprint policy", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromEvaluation(eval))
}

func (h *Handler) pathTenantID(w http.ResponseWriter, r *http.Request) (domain.TenantID, bool) {
	tenantID, err := domain.ParseTenantID(chi.URLParam(r, "tenantID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid tenant ID"))
		return domain.TenantID{}, false
	}
	return tenantID, true
}

func (h *Handler) pathIDs(w http.ResponseWriter, r *http.Request) (domain.TenantID, domain.BlueprintID, bool) {
	tenantID, ok := h.pathTenantID(w, r)
	if !ok {
		return domain.TenantID{}, "", false
	}
	blueprintID, err := domain.ParseBlueprintID(chi.URLParam(r, "blueprintID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid blueprint ID"))
		return domain.TenantID{}, "", false
	}
	return tenantID, blueprintID, true
}

func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	ctx := r.Context()
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, msg,
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
	} else {
		h.logger.WarnContext(ctx, msg,
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
	}
	httputil.WriteError(w, err)
}
