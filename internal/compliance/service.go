// Package compliance manages the per-tenant compliance control set. Updates
// feed the policy evaluator; they never revoke blueprints approved earlier.
package compliance

import (
	"context"
	"errors"
	"log/slog"

	"vantage/internal/audit"
	"vantage/internal/tenant/models"
	"vantage/pkg/domain"
	dErrors "vantage/pkg/domain-errors"
	"vantage/pkg/platform/sentinel"
	"vantage/pkg/requestcontext"
)

// TenantStore is the slice of the tenant store compliance updates need.
type TenantStore interface {
	Execute(ctx context.Context, tenantID domain.TenantID,
		validate func(t *models.Tenant) error,
		mutate func(t *models.Tenant)) (*models.Tenant, error)
}

// AuditPublisher records compliance changes in the platform audit trail.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service applies compliance patches and toggles.
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

// Update applies a partial patch of the compliance flags. The patch must
// carry at least one field. Authenticated actors of any role may update
// compliance; the workflow role gates bind only the approval transitions.
func (s *Service) Update(ctx context.Context, tenantID domain.TenantID, patch models.CompliancePatch) (*models.Tenant, error) {
	actor := requestcontext.Actor(ctx)
	if actor.IsZero() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	if patch.IsEmpty() {
		return nil, dErrors.New(dErrors.CodeValidation, "compliance patch must set at least one field")
	}

	now := requestcontext.Now(ctx)
	tenant, err := s.tenants.Execute(ctx, tenantID,
		func(t *models.Tenant) error { return nil },
		func(t *models.Tenant) {
			patch.ApplyTo(&t.Settings.Compliance)
			t.UpdatedAt = now
		},
	)
	if err != nil {
		return nil, translateStoreErr(err)
	}

	s.audit(ctx, tenant, actor, describePatch(patch))
	return tenant, nil
}

// Toggle flips a single compliance field.
func (s *Service) Toggle(ctx context.Context, tenantID domain.TenantID, field models.ComplianceField) (*models.Tenant, error) {
	actor := requestcontext.Actor(ctx)
	if actor.IsZero() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}

	now := requestcontext.Now(ctx)
	tenant, err := s.tenants.Execute(ctx, tenantID,
		func(t *models.Tenant) error { return nil },
		func(t *models.Tenant) {
			t.Settings.Compliance.Toggle(field)
			t.UpdatedAt = now
		},
	)
	if err != nil {
		return nil, translateStoreErr(err)
	}

	s.audit(ctx, tenant, actor, "toggled "+string(field))
	return tenant, nil
}

func (s *Service) audit(ctx context.Context, tenant *models.Tenant, actor domain.Actor, detail string) {
	if s.logger != nil {
		s.logger.InfoContext(ctx, "compliance updated",
			"request_id", requestcontext.RequestID(ctx),
			"tenant_id", tenant.ID,
			"actor_id", actor.ID,
			"detail", detail,
		)
	}
	if s.auditPublisher == nil {
		return
	}
	err := s.auditPublisher.Emit(ctx, audit.Event{
		TenantID:  tenant.ID,
		Action:    string(audit.EventComplianceUpdated),
		ActorID:   actor.ID,
		ActorRole: actor.Role.String(),
		Reason:    detail,
		RequestID: requestcontext.RequestID(ctx),
	})
	if err != nil && s.logger != nil {
		s.logger.ErrorContext(ctx, "failed to emit audit event",
			"action", audit.EventComplianceUpdated,
			"tenant_id", tenant.ID,
			"error", err,
		)
	}
}

// describePatch summarizes the fields a patch sets, for the audit trail.
func describePatch(patch models.CompliancePatch) string {
	describe := func(name string, v *bool) string {
		if v == nil {
			return ""
		}
		if *v {
			return name + "=true"
		}
		return name + "=false"
	}
	var parts []string
	for _, part := range []string{
		describe(string(models.FieldKYCVerified), patch.KYCVerified),
		describe(string(models.FieldAgencyVerified), patch.AgencyVerified),
		describe(string(models.FieldPayoutsEnabled), patch.PayoutsEnabled),
	} {
		if part != "" {
			parts = append(parts, part)
		}
	}
	out := "set "
	for i, part := range parts {
		if i > 0 {
			out += " "
		}
		out += part
	}
	return out
}

func translateStoreErr(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "tenant not found")
	}
	if errors.Is(err, sentinel.ErrConflict) {
		return dErrors.New(dErrors.CodeConflict, "tenant was modified concurrently")
	}
	var coded *dErrors.Error
	if errors.As(err, &coded) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "tenant store failure")
}
