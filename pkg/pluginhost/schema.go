package pluginhost

import (
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/yaklabco/nllint/pkg/diag"
)

// validateConfig checks configValue against a rule's self-declared JSON
// Schema, returning a diag.RuleError{Kind: RuleConfigRejected} describing
// the first violation. A rule with no schema accepts any config
// unvalidated.
func validateConfig(ruleID string, manifest Manifest, configValue map[string]any) error {
	if len(manifest.Schema) == 0 {
		return nil
	}

	schema := new(jsonschema.Schema)
	if err := json.Unmarshal(manifest.Schema, schema); err != nil {
		return &diag.RuleError{
			RuleID: ruleID,
			Kind:   diag.RuleManifestInvalid,
			Reason: "manifest schema is not valid JSON Schema",
			Err:    err,
		}
	}

	resolved, err := schema.Resolve(nil)
	if err != nil {
		return &diag.RuleError{
			RuleID: ruleID,
			Kind:   diag.RuleManifestInvalid,
			Reason: "manifest schema failed to resolve",
			Err:    err,
		}
	}

	if err := resolved.Validate(configValue); err != nil {
		return &diag.RuleError{
			RuleID: ruleID,
			Kind:   diag.RuleConfigRejected,
			Reason: fmt.Sprintf("config rejected by %s's declared schema", ruleID),
			Err:    err,
		}
	}

	return nil
}
