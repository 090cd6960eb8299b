// Package blueprint holds the static blueprint policy table and the pure
// evaluator that decides whether a tenant's compliance state satisfies a
// blueprint's requirements. This is pure domain logic - no I/O, no side
// effects - so it is safe to call repeatedly and concurrently.
package blueprint

import (
	"vantage/internal/tenant/models"
	"vantage/pkg/domain"
)

// Requirement ties one compliance attestation to its display label.
type Requirement struct {
	Field models.ComplianceField `json:"field" yaml:"field"`
	Label string                 `json:"label" yaml:"label"`
}

// Rule maps a blueprint to the compliance checks its activation requires.
// Rules are static: loaded at process start and never mutated.
type Rule struct {
	BlueprintID  domain.BlueprintID `json:"blueprint_id" yaml:"blueprint_id"`
	Label        string             `json:"label" yaml:"label"`
	Requirements []Requirement      `json:"requirements" yaml:"requirements"`
	Note         string             `json:"note,omitempty" yaml:"note,omitempty"`
}

// Check is one requirement with its pass/fail state for a given compliance
// snapshot.
type Check struct {
	Label string `json:"label"`
	Pass  bool   `json:"pass"`
}

// Evaluation is the outcome of evaluating one blueprint against one
// compliance state.
type Evaluation struct {
	BlueprintID domain.BlueprintID `json:"blueprint_id"`
	Allowed     bool               `json:"allowed"`
	Label       string             `json:"label"`
	Checks      []Check            `json:"checks"`
	Note        string             `json:"note,omitempty"`

	// Known is false when no rule is defined for the blueprint. Unknown
	// blueprints evaluate as allowed with no checks; Known lets callers
	// and the audit trail see that the rule was missing rather than
	// satisfied.
	Known bool `json:"known"`
}

// FailingChecks returns the labels of requirements the compliance state does
// not satisfy, for rejection messages that name the specific failure.
func (e Evaluation) FailingChecks() []string {
	var failing []string
	for _, check := range e.Checks {
		if !check.Pass {
			failing = append(failing, check.Label)
		}
	}
	return failing
}

// Evaluate applies a rule to a compliance snapshot. Allowed is true iff
// every required field is true; partial satisfaction always fails.
func (r Rule) Evaluate(compliance models.Compliance) Evaluation {
	eval := Evaluation{
		BlueprintID: r.BlueprintID,
		Allowed:     true,
		Label:       r.Label,
		Checks:      make([]Check, 0, len(r.Requirements)),
		Note:        r.Note,
		Known:       true,
	}
	for _, req := range r.Requirements {
		pass := compliance.Value(req.Field)
		eval.Checks = append(eval.Checks, Check{Label: req.Label, Pass: pass})
		if !pass {
			eval.Allowed = false
		}
	}
	return eval
}
