// Package handler exposes the audit report export over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"vantage/internal/report"
	"vantage/pkg/domain"
	dErrors "vantage/pkg/domain-errors"
	"vantage/pkg/platform/httputil"
	"vantage/pkg/requestcontext"
)

// Service defines the export operation the handler needs.
type Service interface {
	Export(ctx context.Context, tenantID domain.TenantID) (*report.AuditReport, error)
}

// Handler handles the audit report endpoint.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New creates a new report Handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register registers the report route with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/tenants/{tenantID}/audit-report", h.handleExport)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID, err := domain.ParseTenantID(chi.URLParam(r, "tenantID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid tenant ID"))
		return
	}

	rep, err := h.service.Export(ctx, tenantID)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to export audit report",
			"request_id", requestcontext.RequestID(ctx),
			"tenant_id", tenantID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rep)
}
