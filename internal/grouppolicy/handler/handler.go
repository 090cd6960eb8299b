// Package handler exposes group policy pack management over HTTP.
package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"vantage/internal/grouppolicy"
	"vantage/internal/tenant/models"
	"vantage/pkg/domain"
	dErrors "vantage/pkg/domain-errors"
	"vantage/pkg/platform/httputil"
	"vantage/pkg/requestcontext"
)

// maxImportBytes bounds imported pack documents.
const maxImportBytes = 64 << 10

// Service defines the group policy operations the handler needs.
type Service interface {
	Get(ctx context.Context, tenantID domain.TenantID) (models.PolicyPack, bool, error)
	Set(ctx context.Context, tenantID domain.TenantID, pack models.PolicyPack) (*models.Tenant, error)
	ImportFromDocument(ctx context.Context, tenantID domain.TenantID, raw []byte) (*models.Tenant, error)
	ResolveEffectivePolicy(ctx context.Context, tenantID domain.TenantID) (grouppolicy.EffectivePolicy, error)
}

// Handler handles group policy endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New creates a new group policy Handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register registers the group policy routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/tenants/{tenantID}/policy-pack", h.handleGet)
	r.Put("/tenants/{tenantID}/policy-pack", h.handleSet)
	r.Post("/tenants/{tenantID}/policy-pack/import", h.handleImport)
	r.Get("/tenants/{tenantID}/policy-pack/effective", h.handleEffective)
}

// PackResponse is a pack plus its provenance.
type PackResponse struct {
	Pack   models.PolicyPack `json:"pack"`
	Custom bool              `json:"custom"`
}

// EffectiveResponse is the resolved policy for a tenant.
type EffectiveResponse struct {
	Pack      models.PolicyPack `json:"pack"`
	Inherited bool              `json:"inherited"`
	ParentID  string            `json:"parent_id,omitempty"`
}

// SetPackRequest is the body of PUT /tenants/{tenantID}/policy-pack.
type SetPackRequest struct {
	models.PolicyPack
}

func (r *SetPackRequest) Validate() error {
	return r.PolicyPack.Validate()
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := h.pathTenantID(w, r)
	if !ok {
		return
	}

	pack, custom, err := h.service.Get(r.Context(), tenantID)
	if err != nil {
		h.writeServiceError(w, r, "failed to load policy pack", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, PackResponse{Pack: pack, Custom: custom})
}

func (h *Handler) handleSet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID, ok := h.pathTenantID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[SetPackRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	tenant, err := h.service.Set(ctx, tenantID, req.PolicyPack)
	if err != nil {
		h.writeServiceError(w, r, "failed to store policy pack", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, PackResponse{Pack: *tenant.Settings.PolicyPack, Custom: true})
}

func (h *Handler) handleImport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID, ok := h.pathTenantID(w, r)
	if !ok {
		return
	}

	raw, err := io.ReadAll(io.LimitReader(r.Body, maxImportBytes))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "failed to read request body"))
		return
	}

	tenant, err := h.service.ImportFromDocument(ctx, tenantID, raw)
	if err != nil {
		h.writeServiceError(w, r, "failed to import policy pack", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, PackResponse{Pack: *tenant.Settings.PolicyPack, Custom: true})
}

func (h *Handler) handleEffective(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := h.pathTenantID(w, r)
	if !ok {
		return
	}

	eff, err := h.service.ResolveEffectivePolicy(r.Context(), tenantID)
	if err != nil {
		h.writeServiceError(w, r, "failed to resolve effective policy", err)
		return
	}
	resp := EffectiveResponse{Pack: eff.Pack, Inherited: eff.Inherited}
	if eff.Inherited {
		resp.ParentID = eff.ParentID.String()
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) pathTenantID(w http.ResponseWriter, r *http.Request) (domain.TenantID, bool) {
	tenantID, err := domain.ParseTenantID(chi.URLParam(r, "tenantID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid tenant ID"))
		return domain.TenantID{}, false
	}
	return tenantID, true
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
