package models

import (
	"strings"

	dErrors "vantage/pkg/domain-errors"
)

// Compliance holds the per-tenant boolean attestations that feed policy
// decisions. It is owned by the tenant and mutated only through the
// compliance control manager; it has no independent lifecycle.
type Compliance struct {
	KYCVerified    bool `json:"kyc_verified"`
	AgencyVerified bool `json:"agency_verified"`
	PayoutsEnabled bool `json:"payouts_enabled"`
}

// ComplianceField names a single compliance attestation.
type ComplianceField string

const (
	FieldKYCVerified    ComplianceField = "kyc_verified"
	FieldAgencyVerified ComplianceField = "agency_verified"
	FieldPayoutsEnabled ComplianceField = "payouts_enabled"
)

// ComplianceFields lists all attestations in display order.
var ComplianceFields = []ComplianceField{
	FieldKYCVerified,
	FieldAgencyVerified,
	FieldPayoutsEnabled,
}

// ParseComplianceField validates a field name.
func ParseComplianceField(s string) (ComplianceField, error) {
	switch f := ComplianceField(strings.TrimSpace(s)); f {
	case FieldKYCVerified, FieldAgencyVerified, FieldPayoutsEnabled:
		return f, nil
	default:
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown compliance field: %s", s)
	}
}

// Value returns the current state of one attestation.
func (c Compliance) Value(field ComplianceField) bool {
	switch field {
	case FieldKYCVerified:
		return c.KYCVerified
	case FieldAgencyVerified:
		return c.AgencyVerified
	case FieldPayoutsEnabled:
		return c.PayoutsEnabled
	}
	return false
}

// Toggle flips one attestation in place.
func (c *Compliance) Toggle(field ComplianceField) {
	switch field {
	case FieldKYCVerified:
		c.KYCVerified = !c.KYCVerified
	case FieldAgencyVerified:
		c.AgencyVerified = !c.AgencyVerified
	case FieldPayoutsEnabled:
		c.PayoutsEnabled = !c.PayoutsEnabled
	}
}

// CompliancePatch is a partial update; nil fields are left unchanged.
type CompliancePatch struct {
	KYCVerified    *bool `json:"kyc_verified,omitempty"`
	AgencyVerified *bool `json:"agency_verified,omitempty"`
	PayoutsEnabled *bool `json:"payouts_enabled,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p CompliancePatch) IsEmpty() bool {
	return p.KYCVerified == nil && p.AgencyVerified == nil && p.PayoutsEnabled == nil
}

// ApplyTo merges the patch into a compliance state.
func (p CompliancePatch) ApplyTo(c *Compliance) {
	if p.KYCVerified != nil {
		c.KYCVerified = *p.KYCVerified
	}
	if p.AgencyVerified != nil {
		c.AgencyVerified = *p.AgencyVerified
	}
	if p.PayoutsEnabled != nil {
		c.PayoutsEnabled = *p.PayoutsEnabled
	}
}
