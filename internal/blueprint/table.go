package blueprint

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"vantage/internal/tenant/models"
	"vantage/pkg/domain"
)

// Table is the blueprint policy table. It is immutable after construction,
// so lookups need no locking.
type Table struct {
	rules map[domain.BlueprintID]Rule
	order []domain.BlueprintID
}

// NewTable builds a table from rules. Later duplicates override earlier
// ones, which lets a YAML file override individual built-in rules.
func NewTable(rules []Rule) *Table {
	t := &Table{rules: make(map[domain.BlueprintID]Rule, len(rules))}
	for _, rule := range rules {
		if _, seen := t.rules[rule.BlueprintID]; !seen {
			t.order = append(t.order, rule.BlueprintID)
		}
		t.rules[rule.BlueprintID] = rule
	}
	return t
}

// DefaultTable returns the built-in policy table.
func DefaultTable() *Table {
	return NewTable([]Rule{
		{
			BlueprintID:  "insights-basic",
			Label:        "Basic Insights",
			Requirements: []Requirement{},
		},
		{
			BlueprintID: "payout-express",
			Label:       "Express Payouts",
			Requirements: []Requirement{
				{Field: models.FieldKYCVerified, Label: "KYC verified"},
				{Field: models.FieldPayoutsEnabled, Label: "Payouts enabled"},
			},
		},
		{
			BlueprintID: "agency-suite",
			Label:       "Agency Suite",
			Requirements: []Requirement{
				{Field: models.FieldKYCVerified, Label: "KYC verified"},
				{Field: models.FieldAgencyVerified, Label: "Agency verified"},
			},
		},
		{
			BlueprintID: "enterprise-governance",
			Label:       "Enterprise Governance",
			Requirements: []Requirement{
				{Field: models.FieldKYCVerified, Label: "KYC verified"},
				{Field: models.FieldAgencyVerified, Label: "Agency verified"},
				{Field: models.FieldPayoutsEnabled, Label: "Payouts enabled"},
			},
			Note: "requires enterprise governance review",
		},
	})
}

// LoadFile reads additional rules from a YAML file and layers them over the
// defaults. The file holds a list of rules:
//
//	- blueprint_id: payout-express
//	  label: Express Payouts
//	  requirements:
//	    - field: kyc_verified
//	      label: KYC verified
func LoadFile(path string) (*Table, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy file: %w", err)
	}
	var fileRules []Rule
	if err := yaml.Unmarshal(raw, &fileRules); err != nil {
		return nil, fmt.Errorf("parse policy file: %w", err)
	}
	for i, rule := range fileRules {
		if _, err := domain.ParseBlueprintID(string(rule.BlueprintID)); err != nil {
			return nil, fmt.Errorf("policy file rule %d: %w", i, err)
		}
		for _, req := range rule.Requirements {
			if _, err := models.ParseComplianceField(string(req.Field)); err != nil {
				return nil, fmt.Errorf("policy file rule %q: %w", rule.BlueprintID, err)
			}
		}
	}

	defaults := DefaultTable()
	merged := make([]Rule, 0, len(defaults.order)+len(fileRules))
	for _, id := range defaults.order {
		merged = append(merged, defaults.rules[id])
	}
	merged = append(merged, fileRules...)
	return NewTable(merged), nil
}

// Rule returns the rule for a blueprint, if one is defined.
func (t *Table) Rule(blueprintID domain.BlueprintID) (Rule, bool) {
	rule, ok := t.rules[blueprintID]
	return rule, ok
}

// Rules returns all rules in definition order.
func (t *Table) Rules() []Rule {
	out := make([]Rule, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.rules[id])
	}
	return out
}

// Evaluate decides whether the compliance state satisfies the blueprint's
// requirements. Blueprints without a defined rule evaluate as allowed with
// an empty check list and Known=false; callers that want deny-on-unknown
// must check Known themselves.
func (t *Table) Evaluate(blueprintID domain.BlueprintID, compliance models.Compliance) Evaluation {
	rule, ok := t.rules[blueprintID]
	if !ok {
		return Evaluation{
			BlueprintID: blueprintID,
			Allowed:     true,
			Checks:      []Check{},
			Known:       false,
		}
	}
	return rule.Evaluate(compliance)
}
