// Package approval implements the blueprint approval state machine:
// REQUESTED -> REVIEWED -> APPROVED per (tenant, blueprint) pair, with role
// gating, reason validation, and a live policy evaluation inside the same
// transaction scope that performs the write.
package approval

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"vantage/internal/approval/lock"
	approvalmetrics "vantage/internal/approval/metrics"
	"vantage/internal/audit"
	"vantage/internal/blueprint"
	"vantage/internal/tenant/models"
	"vantage/pkg/domain"
	dErrors "vantage/pkg/domain-errors"
	"vantage/pkg/platform/sentinel"
	"vantage/pkg/requestcontext"
)

// TenantStore is the slice of the tenant store the workflow needs. Execute
// must hold the aggregate lock across validation and mutation.
type TenantStore interface {
	FindByID(ctx context.Context, tenantID domain.TenantID) (*models.Tenant, error)
	Execute(ctx context.Context, tenantID domain.TenantID,
		validate func(t *models.Tenant) error,
		mutate func(t *models.Tenant)) (*models.Tenant, error)
}

// AuditPublisher records workflow transitions in the platform audit trail.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service orchestrates the approval workflow.
type Service struct {
	tenants        TenantStore
	table          *blueprint.Table
	locker         lock.Locker
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *approvalmetrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.auditPublisher = publisher }
}

func WithMetrics(m *approvalmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithLocker(locker lock.Locker) Option {
	return func(s *Service) { s.locker = locker }
}

// New constructs the approval service. The default locker is in-process;
// pass a Redis locker when running more than one replica.
func New(tenants TenantStore, table *blueprint.Table, opts ...Option) *Service {
	s := &Service{
		tenants: tenants,
		table:   table,
		locker:  lock.NewMemory(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RequestBlueprint adds a blueprint to the tenant's requested set.
// Rejects duplicates and blueprints that are already active.
func (s *Service) RequestBlueprint(ctx context.Context, tenantID domain.TenantID, blueprintID domain.BlueprintID) (*models.Tenant, error) {
	release, err := s.locker.Acquire(ctx, tenantKey(tenantID))
	if err != nil {
		return nil, err
	}
	defer release()

	now := requestcontext.Now(ctx)
	tenant, err := s.tenants.Execute(ctx, tenantID,
		func(t *models.Tenant) error {
			if err := t.CanRequestBlueprint(blueprintID); err != nil {
				return dErrors.New(dErrors.CodeConflict, dErrors.MessageOf(err))
			}
			return nil
		},
		func(t *models.Tenant) {
			t.ApplyBlueprintRequest(blueprintID, now)
		},
	)
	if err != nil {
		return nil, wrapTenantErr(err)
	}

	s.emit(ctx, audit.Event{
		TenantID:    tenantID,
		BlueprintID: blueprintID,
		Action:      string(audit.EventBlueprintRequested),
	})
	if s.metrics != nil {
		s.metrics.BlueprintsRequested.Inc()
	}
	return tenant, nil
}

// MarkReviewed records the REQUESTED -> REVIEWED transition. Only a
// compliance reviewer may review, and the reason must be substantive.
func (s *Service) MarkReviewed(ctx context.Context, tenantID domain.TenantID, blueprintID domain.BlueprintID, reason string) (*models.Tenant, error) {
	actor, err := requireRole(ctx, domain.RoleComplianceReviewer)
	if err != nil {
		return nil, err
	}
	reason, err = validateReason(reason)
	if err != nil {
		return nil, err
	}

	release, err := s.locker.Acquire(ctx, tenantKey(tenantID))
	if err != nil {
		return nil, err
	}
	defer release()

	now := requestcontext.Now(ctx)
	entry := models.NewApprovalLogEntry(blueprintID, models.ApprovalActionReviewed, actor, reason, now)

	tenant, err := s.tenants.Execute(ctx, tenantID,
		func(t *models.Tenant) error {
			if err := t.CanMarkReviewed(blueprintID); err != nil {
				return dErrors.New(dErrors.CodePreconditionFailed, dErrors.MessageOf(err))
			}
			return nil
		},
		func(t *models.Tenant) {
			t.ApplyReview(entry, now)
		},
	)
	if err != nil {
		return nil, wrapTenantErr(err)
	}

	s.logTransition(ctx, "blueprint marked reviewed", tenantID, blueprintID, actor)
	s.emit(ctx, audit.Event{
		TenantID:    tenantID,
		BlueprintID: blueprintID,
		Action:      string(audit.EventBlueprintReviewed),
		ActorID:     actor.ID,
		ActorRole:   actor.Role.String(),
		Reason:      reason,
	})
	if s.metrics != nil {
		s.metrics.BlueprintsReviewed.Inc()
	}
	return tenant, nil
}

// Approve records the REVIEWED -> APPROVED transition and moves the
// blueprint from the requested set to the active set. Requires a platform
// approver, an unconsumed review, and a fresh policy evaluation of allowed.
// The evaluation reads the compliance state inside the Execute callback -
// never from a snapshot taken before the lock was held - so a compliance
// toggle racing this approval cannot be missed.
func (s *Service) Approve(ctx context.Context, tenantID domain.TenantID, blueprintID domain.BlueprintID, reason string) (*models.Tenant, error) {
	start := time.Now()
	actor, err := requireRole(ctx, domain.RolePlatformApprover)
	if err != nil {
		return nil, err
	}
	reason, err = validateReason(reason)
	if err != nil {
		return nil, err
	}

	release, err := s.locker.Acquire(ctx, tenantKey(tenantID))
	if err != nil {
		return nil, err
	}
	defer release()

	now := requestcontext.Now(ctx)
	entry := models.NewApprovalLogEntry(blueprintID, models.ApprovalActionApproved, actor, reason, now)

	var blocked blueprint.Evaluation
	tenant, err := s.tenants.Execute(ctx, tenantID,
		func(t *models.Tenant) error {
			if err := t.CanApprove(blueprintID); err != nil {
				return dErrors.New(dErrors.CodePreconditionFailed, dErrors.MessageOf(err))
			}
			eval := s.table.Evaluate(blueprintID, t.Settings.Compliance)
			if !eval.Allowed {
				blocked = eval
				return dErrors.Newf(dErrors.CodePolicyBlocked,
					"policy disallows approval: %s", strings.Join(eval.FailingChecks(), ", "))
			}
			return nil
		},
		func(t *models.Tenant) {
			t.ApplyApproval(entry, now)
		},
	)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodePolicyBlocked) {
			s.emit(ctx, audit.Event{
				TenantID:    tenantID,
				BlueprintID: blueprintID,
				Action:      string(audit.EventBlueprintApprovalBlocked),
				ActorID:     actor.ID,
				ActorRole:   actor.Role.String(),
				Decision:    "blocked",
				Reason:      strings.Join(blocked.FailingChecks(), ", "),
			})
			if s.metrics != nil {
				s.metrics.ApprovalsBlocked.Inc()
			}
		}
		return nil, wrapTenantErr(err)
	}

	s.logTransition(ctx, "blueprint approved", tenantID, blueprintID, actor)
	s.emit(ctx, audit.Event{
		TenantID:    tenantID,
		BlueprintID: blueprintID,
		Action:      string(audit.EventBlueprintApproved),
		ActorID:     actor.ID,
		ActorRole:   actor.Role.String(),
		Decision:    "approved",
		Reason:      reason,
	})
	if s.metrics != nil {
		s.metrics.BlueprintsApproved.Inc()
		s.metrics.ObserveApprove(start)
	}
	return tenant, nil
}

// Evaluate is the read-only policy preview: it never mutates tenant state.
func (s *Service) Evaluate(ctx context.Context, tenantID domain.TenantID, blueprintID domain.BlueprintID) (blueprint.Evaluation, error) {
	tenant, err := s.tenants.FindByID(ctx, tenantID)
	if err != nil {
		return blueprint.Evaluation{}, wrapTenantErr(err)
	}
	return s.table.Evaluate(blueprintID, tenant.Settings.Compliance), nil
}

// GetTenant returns the aggregate for console display.
func (s *Service) GetTenant(ctx context.Context, tenantID domain.TenantID) (*models.Tenant, error) {
	tenant, err := s.tenants.FindByID(ctx, tenantID)
	if err != nil {
		return nil, wrapTenantErr(err)
	}
	return tenant, nil
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.auditPublisher == nil {
		return
	}
	event.RequestID = requestcontext.RequestID(ctx)
	if err := s.auditPublisher.Emit(ctx, event); err != nil && s.logger != nil {
		s.logger.ErrorContext(ctx, "failed to emit audit event",
			"action", event.Action,
			"tenant_id", event.TenantID,
			"error", err,
		)
	}
}

func (s *Service) logTransition(ctx context.Context, msg string, tenantID domain.TenantID, blueprintID domain.BlueprintID, actor domain.Actor) {
	if s.logger == nil {
		return
	}
	s.logger.InfoContext(ctx, msg,
		"request_id", requestcontext.RequestID(ctx),
		"tenant_id", tenantID,
		"blueprint_id", blueprintID,
		"actor_id", actor.ID,
		"actor_role", actor.Role,
	)
}

// requireRole resolves the actor from context and enforces the role gate,
// naming the required role so rejections stay auditable.
func requireRole(ctx context.Context, required domain.Role) (domain.Actor, error) {
	actor := requestcontext.Actor(ctx)
	if actor.IsZero() {
		return domain.Actor{}, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	if actor.Role != required {
		return domain.Actor{}, dErrors.Newf(dErrors.CodeForbidden, "%s role required", required)
	}
	return actor, nil
}

// validateReason trims and enforces the minimum reason length, regardless
// of role or policy state.
func validateReason(reason string) (string, error) {
	reason = strings.TrimSpace(reason)
	if len(reason) < models.MinReasonLength {
		return "", dErrors.Newf(dErrors.CodeValidation,
			"reason must be at least %d characters", models.MinReasonLength)
	}
	return reason, nil
}

func wrapTenantErr(err error) error {
	if dErrors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "tenant not found")
	}
	if dErrors.Is(err, sentinel.ErrConflict) {
		return dErrors.New(dErrors.CodeConflict, "tenant was modified concurrently")
	}
	var coded *dErrors.Error
	if errors.As(err, &coded) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "tenant store failure")
}

func tenantKey(tenantID domain.TenantID) string {
	return "tenant:" + tenantID.String()
}
