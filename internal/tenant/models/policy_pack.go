package models

import (
	"vantage/pkg/domain"
	dErrors "vantage/pkg/domain-errors"
)

// PolicyPack is the hierarchical configuration document attached to holding
// tenants and inherited by their group members. The manager stores and
// retrieves packs; enforcement of the constraints (payout caps etc.) belongs
// to the finance collaborators that consume them.
type PolicyPack struct {
	// PayoutCapMinor caps a single payout in minor currency units.
	PayoutCapMinor int64 `json:"payout_cap_minor"`

	// RequireDualApprovalForPayouts requires two approvers on payouts.
	RequireDualApprovalForPayouts bool `json:"require_dual_approval_for_payouts"`

	// RestrictedBlueprints may never be activated by group members.
	RestrictedBlueprints []domain.BlueprintID `json:"restricted_blueprints"`

	// ChildTenantKYCRequired requires KYC on every sub-tenant.
	ChildTenantKYCRequired bool `json:"child_tenant_kyc_required"`
}

// DefaultPolicyPack is the documented fallback returned when a tenant has no
// pack of its own: a conservative cap, dual approval on, child KYC required,
// and no blueprint restrictions.
func DefaultPolicyPack() PolicyPack {
	return PolicyPack{
		PayoutCapMinor:                2_500_000,
		RequireDualApprovalForPayouts: true,
		RestrictedBlueprints:          []domain.BlueprintID{},
		ChildTenantKYCRequired:        true,
	}
}

// Validate checks structural invariants, naming the offending field.
func (p PolicyPack) Validate() error {
	if p.PayoutCapMinor < 0 {
		return dErrors.New(dErrors.CodeValidation, "payout_cap_minor must not be negative")
	}
	seen := make(map[domain.BlueprintID]struct{}, len(p.RestrictedBlueprints))
	for _, raw := range p.RestrictedBlueprints {
		blueprintID, err := domain.ParseBlueprintID(string(raw))
		if err != nil {
			return dErrors.Newf(dErrors.CodeValidation, "restricted_blueprints contains an invalid id: %q", string(raw))
		}
		if _, dup := seen[blueprintID]; dup {
			return dErrors.Newf(dErrors.CodeValidation, "restricted_blueprints contains a duplicate id: %q", string(raw))
		}
		seen[blueprintID] = struct{}{}
	}
	return nil
}

// Restricts reports whether the pack forbids a blueprint.
func (p PolicyPack) Restricts(blueprintID domain.BlueprintID) bool {
	for _, restricted := range p.RestrictedBlueprints {
		if restricted == blueprintID {
			return true
		}
	}
	return false
}

// Clone returns a deep copy.
func (p PolicyPack) Clone() PolicyPack {
	cp := p
	cp.RestrictedBlueprints = append([]domain.BlueprintID(nil), p.RestrictedBlueprints...)
	return cp
}
