package handler

import (
	"strings"

	"vantage/internal/tenant/models"
	dErrors "vantage/pkg/domain-errors"
)

// ReasonRequest carries the free-text justification for a review or an
// approval. Both transitions require one.
type ReasonRequest struct {
	Reason string `json:"reason"`
}

// Validate normalizes the reason. Length enforcement stays in the service so
// the rule holds for every caller, but an empty body is rejected here.
func (r *ReasonRequest) Validate() error {
	r.Reason = strings.TrimSpace(r.Reason)
	if r.Reason == "" {
		return dErrors.New(dErrors.CodeValidation, "reason is required")
	}
	if len(r.Reason) < models.MinReasonLength {
		return dErrors.Newf(dErrors.CodeValidation,
			"reason must be at least %d characters", models.MinReasonLength)
	}
	return nil
}
