// Package grouppolicy manages the hierarchical policy pack attached to
// holding tenants and resolves the effective policy for group members.
// The manager stores and retrieves packs; it does not enforce their
// constraints.
package grouppolicy

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"vantage/internal/audit"
	"vantage/internal/tenant/models"
	"vantage/pkg/domain"
	dErrors "vantage/pkg/domain-errors"
	"vantage/pkg/platform/sentinel"
	"vantage/pkg/requestcontext"
)

// TenantStore is the slice of the tenant store the pack manager needs.
type TenantStore interface {
	FindByID(ctx context.Context, tenantID domain.TenantID) (*models.Tenant, error)
	Execute(ctx context.Context, tenantID domain.TenantID,
		validate func(t *models.Tenant) error,
		mutate func(t *models.Tenant)) (*models.Tenant, error)
}

// AuditPublisher records pack changes in the platform audit trail.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// EffectivePolicy is the resolved pack for a tenant, with its provenance.
type EffectivePolicy struct {
	Pack models.PolicyPack

	// ParentID is set when a parent holding pack participated in the merge.
	ParentID  domain.TenantID
	Inherited bool
}

// Service stores, imports, and resolves group policy packs.
type Service struct {
	tenants        TenantStore
	directory      GroupDirectory
	schema         *jsonschema.Schema
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

func New(tenants TenantStore, directory GroupDirectory, opts ...Option) *Service {
	s := &Service{
		tenants:   tenants,
		directory: directory,
		schema:    compilePackSchema(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the tenant's own pack, or the documented default when unset.
// custom reports whether the tenant carries a pack of its own.
func (s *Service) Get(ctx context.Context, tenantID domain.TenantID) (pack models.PolicyPack, custom bool, err error) {
	tenant, err := s.tenants.FindByID(ctx, tenantID)
	if err != nil {
		return models.PolicyPack{}, false, translateStoreErr(err)
	}
	if tenant.Settings.PolicyPack == nil {
		return models.DefaultPolicyPack(), false, nil
	}
	return tenant.Settings.PolicyPack.Clone(), true, nil
}

// Set validates and persists a pack. Only holding tenants (or tenants with
// group policy explicitly enabled) may carry one. A rejected pack leaves the
// stored pack unchanged.
func (s *Service) Set(ctx context.Context, tenantID domain.TenantID, pack models.PolicyPack) (*models.Tenant, error) {
	return s.set(ctx, tenantID, pack, audit.EventPolicyPackUpdated)
}

func (s *Service) set(ctx context.Context, tenantID domain.TenantID, pack models.PolicyPack, action audit.AuditEvent) (*models.Tenant, error) {
	actor := requestcontext.Actor(ctx)
	if actor.IsZero() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	if err := pack.Validate(); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	tenant, err := s.tenants.Execute(ctx, tenantID,
		func(t *models.Tenant) error {
			if !t.CanCarryPolicyPack() {
				return dErrors.New(dErrors.CodePreconditionFailed,
					"tenant is not a holding tenant and has group policy disabled")
			}
			return nil
		},
		func(t *models.Tenant) {
			cp := pack.Clone()
			t.Settings.PolicyPack = &cp
			t.UpdatedAt = now
		},
	)
	if err != nil {
		return nil, translateStoreErr(err)
	}

	s.audit(ctx, tenantID, actor, action)
	return tenant, nil
}

// ImportFromDocument validates a raw pack document against the JSON schema
// before persisting it, so a malformed export is rejected naming the
// offending field instead of half-applying.
func (s *Service) ImportFromDocument(ctx context.Context, tenantID domain.TenantID, raw []byte) (*models.Tenant, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, dErrors.New(dErrors.CodeValidation, "policy pack document is not valid JSON")
	}
	if err := s.schema.Validate(doc); err != nil {
		return nil, dErrors.Newf(dErrors.CodeValidation, "policy pack document is invalid: %s", schemaErrorDetail(err))
	}

	var pack models.PolicyPack
	if err := json.Unmarshal(raw, &pack); err != nil {
		return nil, dErrors.New(dErrors.CodeValidation, "policy pack document is not valid JSON")
	}

	return s.set(ctx, tenantID, pack, audit.EventPolicyPackImported)
}

// ResolveEffectivePolicy merges a sub-tenant's pack with its parent holding
// pack, computed on demand. Parent restrictions always win: the restricted
// set is the union, the payout cap is the minimum, and boolean requirements
// OR together.
func (s *Service) ResolveEffectivePolicy(ctx context.Context, tenantID domain.TenantID) (EffectivePolicy, error) {
	own, _, err := s.Get(ctx, tenantID)
	if err != nil {
		return EffectivePolicy{}, err
	}

	parentID, ok, err := s.directory.ParentOf(ctx, tenantID)
	if err != nil {
		return EffectivePolicy{}, dErrors.Wrap(err, dErrors.CodeInternal, "group directory lookup failed")
	}
	if !ok {
		return EffectivePolicy{Pack: own}, nil
	}

	parent, _, err := s.Get(ctx, parentID)
	if err != nil {
		return EffectivePolicy{}, err
	}
	return EffectivePolicy{
		Pack:      mergePacks(own, parent),
		ParentID:  parentID,
		Inherited: true,
	}, nil
}

func mergePacks(child, parent models.PolicyPack) models.PolicyPack {
	merged := child.Clone()
	if parent.PayoutCapMinor < merged.PayoutCapMinor {
		merged.PayoutCapMinor = parent.PayoutCapMinor
	}
	merged.RequireDualApprovalForPayouts = merged.RequireDualApprovalForPayouts || parent.RequireDualApprovalForPayouts
	merged.ChildTenantKYCRequired = merged.ChildTenantKYCRequired || parent.ChildTenantKYCRequired
	for _, restricted := range parent.RestrictedBlueprints {
		if !merged.Restricts(restricted) {
			merged.RestrictedBlueprints = append(merged.RestrictedBlueprints, restricted)
		}
	}
	return merged
}

func (s *Service) audit(ctx context.Context, tenantID domain.TenantID, actor domain.Actor, action audit.AuditEvent) {
	if s.auditPublisher == nil {
		return
	}
	err := s.auditPublisher.Emit(ctx, audit.Event{
		TenantID:  tenantID,
		Action:    string(action),
		ActorID:   actor.ID,
		ActorRole: actor.Role.String(),
		RequestID: requestcontext.RequestID(ctx),
	})
	if err != nil && s.logger != nil {
		s.logger.ErrorContext(ctx, "failed to emit audit event",
			"action", action,
			"tenant_id", tenantID,
			"error", err,
		)
	}
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
