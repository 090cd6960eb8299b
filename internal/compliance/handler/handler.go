// Package handler exposes compliance control updates over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	approvalhandler "vantage/internal/approval/handler"
	"vantage/internal/tenant/models"
	"vantage/pkg/domain"
	dErrors "vantage/pkg/domain-errors"
	"vantage/pkg/platform/httputil"
	"vantage/pkg/requestcontext"
)

// Service defines the compliance operations the handler needs.
type Service interface {
	Update(ctx context.Context, tenantID domain.TenantID, patch models.CompliancePatch) (*models.Tenant, error)
	Toggle(ctx context.Context, tenantID domain.TenantID, field models.ComplianceField) (*models.Tenant, error)
}

// Handler handles compliance endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New creates a new compliance Handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register registers the compliance routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Patch("/tenants/{tenantID}/compliance", h.handleUpdate)
	r.Post("/tenants/{tenantID}/compliance/{field}/toggle", h.handleToggle)
}

// PatchRequest is the body of PATCH /tenants/{tenantID}/compliance.
type PatchRequest struct {
	models.CompliancePatch
}

func (r *PatchRequest) Validate() error {
	if r.IsEmpty() {
		return dErrors.New(dErrors.CodeValidation, "compliance patch must set at least one field")
	}
	return nil
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID, err := domain.ParseTenantID(chi.URLParam(r, "tenantID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid tenant ID"))
		return
	}
	req, ok := httputil.DecodeAndPrepare[PatchRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	tenant, err := h.service.Update(ctx, tenantID, req.CompliancePatch)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to update compliance",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, approvalhandler.FromTenant(tenant))
}

func (h *Handler) handleToggle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID, err := domain.ParseTenantID(chi.URLParam(r, "tenantID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid tenant ID"))
		return
	}
	field, err := models.ParseComplianceField(chi.URLParam(r, "field"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	tenant, err := h.service.Toggle(ctx, tenantID, field)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to toggle compliance field",
			"request_id", requestcontext.RequestID(ctx),
			"field", field,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, approvalhandler.FromTenant(tenant))
}
