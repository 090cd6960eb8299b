package handler

import (
	"time"

	"vantage/internal/blueprint"
	"vantage/internal/tenant/models"
	"vantage/pkg/domain"
)

// TenantResponse is the console view of a tenant aggregate.
type TenantResponse struct {
	ID                  string               `json:"id"`
	Name                string               `json:"name"`
	Type                string               `json:"type"`
	AgencySubtype       string               `json:"agency_subtype,omitempty"`
	Status              string               `json:"status"`
	Compliance          models.Compliance    `json:"compliance"`
	RequestedBlueprints []domain.BlueprintID `json:"requested_blueprints"`
	Blueprints          []domain.BlueprintID `json:"blueprints"`
	ApprovalLog         []LogEntryResponse   `json:"approval_log"`
	UpdatedAt           time.Time            `json:"updated_at"`
}

// LogEntryResponse is one approval log entry in wire form.
type LogEntryResponse struct {
	ID          string    `json:"id"`
	BlueprintID string    `json:"blueprint_id"`
	Action      string    `json:"action"`
	Actor       string    `json:"actor"`
	ActorRole   string    `json:"actor_role"`
	Reason      string    `json:"reason"`
	At          time.Time `json:"at"`
}

// FromTenant converts a domain tenant to an HTTP response.
func FromTenant(t *models.Tenant) *TenantResponse {
	resp := &TenantResponse{
		ID:                  t.ID.String(),
		Name:                t.Name,
		Type:                string(t.Type),
		AgencySubtype:       t.AgencySubtype,
		Status:              string(t.Status),
		Compliance:          t.Settings.Compliance,
		RequestedBlueprints: t.Settings.RequestedBlueprints,
		Blueprints:          t.Settings.Blueprints,
		ApprovalLog:         make([]LogEntryResponse, 0, len(t.Settings.ApprovalLog)),
		UpdatedAt:           t.UpdatedAt,
	}
	if resp.RequestedBlueprints == nil {
		resp.RequestedBlueprints = []domain.BlueprintID{}
	}
	if resp.Blueprints == nil {
		resp.Blueprints = []domain.BlueprintID{}
	}
	for _, entry := range t.Settings.ApprovalLog {
		resp.ApprovalLog = append(resp.ApprovalLog, LogEntryResponse{
			ID:          entry.ID.String(),
			BlueprintID: entry.BlueprintID.String(),
			Action:      string(entry.Action),
			Actor:       entry.ActorID,
			ActorRole:   entry.ActorRole.String(),
			Reason:      entry.Reason,
			At:          entry.At,
		})
	}
	return resp
}

// EvaluationResponse is the HTTP response for the read-only policy preview.
type EvaluationResponse struct {
	BlueprintID string          `json:"blueprint_id"`
	Allowed     bool            `json:"allowed"`
	Known       bool            `json:"known"`
	Label       string          `json:"label,omitempty"`
	Checks      []CheckResponse `json:"checks"`
	Note        string          `json:"note,omitempty"`
}

// CheckResponse is one compliance check in the evaluation.
type CheckResponse struct {
	Label string `json:"label"`
	Pass  bool   `json:"pass"`
}

// FromEvaluation converts a policy evaluation to an HTTP response.
func FromEvaluation(eval blueprint.Evaluation) *EvaluationResponse {
	resp := &EvaluationResponse{
		BlueprintID: eval.BlueprintID.String(),
		Allowed:     eval.Allowed,
		Known:       eval.Known,
		Label:       eval.Label,
		Checks:      make([]CheckResponse, 0, len(eval.Checks)),
		Note:        eval.Note,
	}
	for _, check := range eval.Checks {
		resp.Checks = append(resp.Checks, CheckResponse{Label: check.Label, Pass: check.Pass})
	}
	return resp
}
