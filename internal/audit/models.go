package audit

import (
	"time"

	"vantage/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose. This
// enables different retention policies, storage backends, and routing.
type EventCategory string

const (
	// CategoryCompliance covers events with legal/regulatory significance.
	// These require tamper-proof storage and long retention.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers events relevant to security monitoring.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers events useful for debugging and
	// operational visibility; these can be sampled.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID          string             `json:"id,omitempty"`
	Category    EventCategory      `json:"category"`
	Timestamp   time.Time          `json:"timestamp"`
	TenantID    domain.TenantID    `json:"tenant_id"`
	BlueprintID domain.BlueprintID `json:"blueprint_id,omitempty"`
	Action      string             `json:"action"`
	ActorID     string             `json:"actor_id,omitempty"`
	ActorRole   string             `json:"actor_role,omitempty"`
	Decision    string             `json:"decision,omitempty"`
	Reason      string             `json:"reason,omitempty"`
	RequestID   string             `json:"request_id,omitempty"`
}

// AuditEvent names a recordable action.
type AuditEvent string

const (
	// Approval workflow events
	EventBlueprintRequested       AuditEvent = "blueprint_requested"
	EventBlueprintReviewed        AuditEvent = "blueprint_reviewed"
	EventBlueprintApproved        AuditEvent = "blueprint_approved"
	EventBlueprintApprovalBlocked AuditEvent = "blueprint_approval_blocked"

	// Compliance events
	EventComplianceUpdated AuditEvent = "compliance_updated"

	// Group policy events
	EventPolicyPackUpdated  AuditEvent = "policy_pack_updated"
	EventPolicyPackImported AuditEvent = "policy_pack_imported"

	// Reporting events
	EventAuditReportExported AuditEvent = "audit_report_exported"
)

// eventCategories maps each audit event to its category. Compliance events
// require tamper-proof storage; security events feed monitoring; operations
// events are routine activity.
var eventCategories = map[AuditEvent]EventCategory{
	EventBlueprintRequested:       CategoryOperations,
	EventBlueprintReviewed:        CategoryCompliance,
	EventBlueprintApproved:        CategoryCompliance,
	EventBlueprintApprovalBlocked: CategorySecurity,
	EventComplianceUpdated:        CategoryCompliance,
	EventPolicyPackUpdated:        CategoryCompliance,
	EventPolicyPackImported:       CategoryCompliance,
	EventAuditReportExported:      CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}
