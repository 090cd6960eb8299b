// Package report builds the exportable audit report: a read-only,
// round-trippable projection of a tenant's approval state.
package report

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"vantage/internal/audit"
	"vantage/internal/tenant/models"
	"vantage/pkg/domain"
	dErrors "vantage/pkg/domain-errors"
	"vantage/pkg/platform/sentinel"
	"vantage/pkg/requestcontext"
)

// TenantStore is the read slice of the tenant store the exporter needs.
type TenantStore interface {
	FindByID(ctx context.Context, tenantID domain.TenantID) (*models.Tenant, error)
}

// AuditPublisher records report exports in the platform audit trail.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// AuditReport is the exported document. It carries everything needed to
// reconstruct the tenant's approval state at generation time.
type AuditReport struct {
	GeneratedAt time.Time                 `json:"generated_at"`
	Tenant      TenantSummary             `json:"tenant"`
	Compliance  models.Compliance         `json:"compliance"`
	Active      []domain.BlueprintID      `json:"active_blueprints"`
	Pending     []domain.BlueprintID      `json:"pending_blueprints"`
	Log         []models.ApprovalLogEntry `json:"approval_log"`
}

// TenantSummary identifies the tenant the report covers.
type TenantSummary struct {
	ID     domain.TenantID   `json:"id"`
	Name   string            `json:"name"`
	Type   models.TenantType `json:"type"`
	Status string            `json:"status"`
}

// Service exports audit reports.
type Service struct {
	tenants        TenantStore
	logger         *slog.Logger
	auditPublisher AuditPublisher
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.auditPublisher = publisher }
}

func New(tenants TenantStore, opts ...Option) *Service {
	s := &Service{tenants: tenants}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Export builds the report. The export itself is audited: pulling a
// tenant's full approval history is a recordable action.
func (s *Service) Export(ctx context.Context, tenantID domain.TenantID) (*AuditReport, error) {
	tenant, err := s.tenants.FindByID(ctx, tenantID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "tenant not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "tenant store failure")
	}

	report := &AuditReport{
		GeneratedAt: requestcontext.Now(ctx),
		Tenant: TenantSummary{
			ID:     tenant.ID,
			Name:   tenant.Name,
			Type:   tenant.Type,
			Status: string(tenant.Status),
		},
		Compliance: tenant.Settings.Compliance,
		Active:     append([]domain.BlueprintID{}, tenant.Settings.Blueprints...),
		Pending:    append([]domain.BlueprintID{}, tenant.Settings.RequestedBlueprints...),
		Log:        append([]models.ApprovalLogEntry{}, tenant.Settings.ApprovalLog...),
	}

	if s.auditPublisher != nil {
		actor := requestcontext.Actor(ctx)
		err := s.auditPublisher.Emit(ctx, audit.Event{
			TenantID:  tenantID,
			Action:    string(audit.EventAuditReportExported),
			ActorID:   actor.ID,
			ActorRole: actor.Role.String(),
			RequestID: requestcontext.RequestID(ctx),
		})
		if err != nil && s.logger != nil {
			s.logger.ErrorContext(ctx, "failed to emit audit event",
				"action", audit.EventAuditReportExported,
				"tenant_id", tenantID,
				"error", err,
			)
		}
	}
	return report, nil
}
