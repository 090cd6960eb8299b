package grouppolicy

import (
	"errors"
	"fmt"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

// packSchema is the structural contract for imported policy pack documents.
// All four fields are required so a truncated export cannot silently fall
// back to zero values.
const packSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": [
    "payout_cap_minor",
    "require_dual_approval_for_payouts",
    "restricted_blueprints",
    "child_tenant_kyc_required"
  ],
  "additionalProperties": false,
  "properties": {
    "payout_cap_minor": {"type": "integer", "minimum": 0},
    "require_dual_approval_for_payouts": {"type": "boolean"},
    "restricted_blueprints": {
      "type": "array",
      "items": {"type": "string", "pattern": "^[a-z0-9-]{1,64}$"}
    },
    "child_tenant_kyc_required": {"type": "boolean"}
  }
}`

func compilePackSchema() *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("inmemory://policy-pack", strings.NewReader(packSchema)); err != nil {
		panic(fmt.Sprintf("grouppolicy: add pack schema resource: %v", err))
	}
	return compiler.MustCompile("inmemory://policy-pack")
}

// schemaErrorDetail flattens a jsonschema validation error to a single line
// naming the offending field.
func schemaErrorDetail(err error) string {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return err.Error()
	}
	leaf := ve
	for len(leaf.Causes) > 0 {
		leaf = leaf.Causes[0]
	}
	location := leaf.InstanceLocation
	if location == "" {
		location = "document"
	}
	return fmt.Sprintf("%s: %s", location, leaf.Message)
}
