package models

import (
	"strings"
	"time"

	"vantage/pkg/domain"
	dErrors "vantage/pkg/domain-errors"
)

// TenantType classifies a tenant organization.
type TenantType string

const (
	// TenantTypeStandard is a single self-contained organization.
	TenantTypeStandard TenantType = "standard"
	// TenantTypeAgency is an agency organization; AgencySubtype refines it.
	TenantTypeAgency TenantType = "agency"
	// TenantTypeHolding is a holding company that owns sub-tenants and may
	// carry a group policy pack inherited by its group members.
	TenantTypeHolding TenantType = "holding"
)

// ParseTenantType validates a tenant type string.
func ParseTenantType(s string) (TenantType, error) {
	switch t := TenantType(strings.TrimSpace(s)); t {
	case TenantTypeStandard, TenantTypeAgency, TenantTypeHolding:
		return t, nil
	default:
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown tenant type: %s", s)
	}
}

// TenantStatus is the tenant lifecycle status. Lifecycle management is
// external; the approval workflow only reads it.
type TenantStatus string

const (
	TenantStatusActive    TenantStatus = "active"
	TenantStatusSuspended TenantStatus = "suspended"
)

// Settings is the tenant's embedded settings document. It is the only
// mutable shared state in the approval subsystem and must only be modified
// through the store's Execute callback so conflicting writers cannot
// interleave.
type Settings struct {
	Compliance Compliance `json:"compliance"`

	// ApprovalLog is append-only. Entries are never edited or deleted;
	// corrections are made by appending new entries.
	ApprovalLog []ApprovalLogEntry `json:"blueprint_approval_log"`

	// PolicyPack is set only on holding tenants (or tenants with the
	// GroupPolicyEnabled capability). Nil means the documented default
	// pack applies.
	PolicyPack *PolicyPack `json:"group_policy_pack,omitempty"`

	// GroupPolicyEnabled lets a non-holding tenant carry its own pack.
	GroupPolicyEnabled bool `json:"group_policy_enabled,omitempty"`

	// RequestedBlueprints and Blueprints are disjoint at all times. A
	// blueprint moves between them only through the approval state
	// machine, never by direct mutation.
	RequestedBlueprints []domain.BlueprintID `json:"requested_blueprints"`
	Blueprints          []domain.BlueprintID `json:"blueprints"`
}

// Tenant is the aggregate root for the approval workflow.
//
// Invariants:
//   - Name is non-empty and at most 128 characters
//   - Settings.RequestedBlueprints and Settings.Blueprints are disjoint
//   - Settings.ApprovalLog is monotonically growing
//   - An APPROVED entry for a blueprint is always preceded by a REVIEWED
//     entry for the same blueprint with no intervening approval
//   - Version increases on every persisted mutation (optimistic concurrency)
type Tenant struct {
	ID            domain.TenantID `json:"id"`
	Name          string          `json:"name"`
	Type          TenantType      `json:"type"`
	AgencySubtype string          `json:"agency_subtype,omitempty"`
	Status        TenantStatus    `json:"status"`
	Settings      Settings        `json:"settings"`
	Version       int64           `json:"version"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// NewTenant constructs a tenant with validated invariants.
func NewTenant(tenantID domain.TenantID, name string, typ TenantType, now time.Time) (*Tenant, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "tenant name cannot be empty")
	}
	if len(name) > 128 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "tenant name must be 128 characters or less")
	}
	if typ == "" {
		typ = TenantTypeStandard
	}
	return &Tenant{
		ID:        tenantID,
		Name:      name,
		Type:      typ,
		Status:    TenantStatusActive,
		Settings:  Settings{},
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (t *Tenant) IsActive() bool {
	return t.Status == TenantStatusActive
}

// CanCarryPolicyPack reports whether a group policy pack may be attached.
func (t *Tenant) CanCarryPolicyPack() bool {
	return t.Type == TenantTypeHolding || t.Settings.GroupPolicyEnabled
}

// HasRequested reports whether the blueprint is pending approval.
func (t *Tenant) HasRequested(blueprintID domain.BlueprintID) bool {
	return containsBlueprint(t.Settings.RequestedBlueprints, blueprintID)
}

// HasBlueprint reports whether the blueprint is currently active.
func (t *Tenant) HasBlueprint(blueprintID domain.BlueprintID) bool {
	return containsBlueprint(t.Settings.Blueprints, blueprintID)
}

// CanRequestBlueprint checks whether the blueprint may enter the requested
// set. Use with ApplyBlueprintRequest in Execute callbacks.
func (t *Tenant) CanRequestBlueprint(blueprintID domain.BlueprintID) error {
	if t.HasBlueprint(blueprintID) {
		return dErrors.New(dErrors.CodeInvariantViolation, "blueprint is already active")
	}
	if t.HasRequested(blueprintID) {
		return dErrors.New(dErrors.CodeInvariantViolation, "blueprint is already requested")
	}
	return nil
}

// ApplyBlueprintRequest adds the blueprint to the requested set.
// Call CanRequestBlueprint first to validate the transition.
func (t *Tenant) ApplyBlueprintRequest(blueprintID domain.BlueprintID, now time.Time) {
	t.Settings.RequestedBlueprints = append(t.Settings.RequestedBlueprints, blueprintID)
	t.UpdatedAt = now
}

// CanMarkReviewed checks the REQUESTED -> REVIEWED transition: the blueprint
// must be pending.
func (t *Tenant) CanMarkReviewed(blueprintID domain.BlueprintID) error {
	if !t.HasRequested(blueprintID) {
		return dErrors.New(dErrors.CodeInvariantViolation, "blueprint has not been requested")
	}
	return nil
}

// ApplyReview appends a REVIEWED entry. The blueprint stays in the requested
// set; review alone never moves it.
func (t *Tenant) ApplyReview(entry ApprovalLogEntry, now time.Time) {
	t.Settings.ApprovalLog = append(t.Settings.ApprovalLog, entry)
	t.UpdatedAt = now
}

// HasUnconsumedReview reports whether a REVIEWED entry for the blueprint
// exists after its most recent APPROVED entry. This is the maker-checker
// precondition for approval.
func (t *Tenant) HasUnconsumedReview(blueprintID domain.BlueprintID) bool {
	for i := len(t.Settings.ApprovalLog) - 1; i >= 0; i-- {
		entry := t.Settings.ApprovalLog[i]
		if entry.BlueprintID != blueprintID {
			continue
		}
		switch entry.Action {
		case ApprovalActionReviewed:
			return true
		case ApprovalActionApproved:
			return false
		}
	}
	return false
}

// CanApprove checks the REVIEWED -> APPROVED transition: the blueprint must
// be pending and carry an unconsumed review.
func (t *Tenant) CanApprove(blueprintID domain.BlueprintID) error {
	if !t.HasRequested(blueprintID) {
		return dErrors.New(dErrors.CodeInvariantViolation, "blueprint has not been requested")
	}
	if !t.HasUnconsumedReview(blueprintID) {
		return dErrors.New(dErrors.CodeInvariantViolation, "blueprint has not been reviewed")
	}
	return nil
}

// ApplyApproval appends an APPROVED entry and moves the blueprint from the
// requested set to the active set in the same mutation, keeping the sets
// disjoint. Call CanApprove first to validate the transition.
func (t *Tenant) ApplyApproval(entry ApprovalLogEntry, now time.Time) {
	t.Settings.ApprovalLog = append(t.Settings.ApprovalLog, entry)
	t.Settings.RequestedBlueprints = removeBlueprint(t.Settings.RequestedBlueprints, entry.BlueprintID)
	if !t.HasBlueprint(entry.BlueprintID) {
		t.Settings.Blueprints = append(t.Settings.Blueprints, entry.BlueprintID)
	}
	t.UpdatedAt = now
}

// LogEntriesFor returns the approval log entries for one blueprint in
// insertion order.
func (t *Tenant) LogEntriesFor(blueprintID domain.BlueprintID) []ApprovalLogEntry {
	var entries []ApprovalLogEntry
	for _, entry := range t.Settings.ApprovalLog {
		if entry.BlueprintID == blueprintID {
			entries = append(entries, entry)
		}
	}
	return entries
}

// Clone returns a deep copy so callers outside Execute callbacks can never
// alias the stored aggregate.
func (t *Tenant) Clone() *Tenant {
	if t == nil {
		return nil
	}
	cp := *t
	cp.Settings.ApprovalLog = append([]ApprovalLogEntry(nil), t.Settings.ApprovalLog...)
	cp.Settings.RequestedBlueprints = append([]domain.BlueprintID(nil), t.Settings.RequestedBlueprints...)
	cp.Settings.Blueprints = append([]domain.BlueprintID(nil), t.Settings.Blueprints...)
	if t.Settings.PolicyPack != nil {
		pack := t.Settings.PolicyPack.Clone()
		cp.Settings.PolicyPack = &pack
	}
	return &cp
}

func containsBlueprint(ids []domain.BlueprintID, id domain.BlueprintID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

func removeBlueprint(ids []domain.BlueprintID, id domain.BlueprintID) []domain.BlueprintID {
	out := ids[:0]
	for _, candidate := range ids {
		if candidate != id {
			out = append(out, candidate)
		}
	}
	return out
}
