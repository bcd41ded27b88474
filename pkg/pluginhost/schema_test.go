package pluginhost

import (
	"errors"
	"testing"

	"github.com/yaklabco/nllint/pkg/diag"
)

func TestValidateConfigNoSchemaAcceptsAnything(t *testing.T) {
	if err := validateConfig("r", Manifest{}, map[string]any{"anything": true}); err != nil {
		t.Fatalf("expected no error for a rule without a declared schema, got %v", err)
	}
}

func TestValidateConfigRejectsMismatchedType(t *testing.T) {
	manifest := Manifest{
		Schema: []byte(`{"type":"object","properties":{"max":{"type":"integer"}},"required":["max"]}`),
	}
	err := validateConfig("max-sentence-length", manifest, map[string]any{"max": "not a number"})
	if err == nil {
		t.Fatal("expected config rejection for wrong type")
	}
	var ruleErr *diag.RuleError
	if !errors.As(err, &ruleErr) || ruleErr.Kind != diag.RuleConfigRejected {
		t.Fatalf("expected RuleConfigRejected, got %+v", err)
	}
}

func TestValidateConfigAcceptsMatchingSchema(t *testing.T) {
	manifest := Manifest{
		Schema: []byte(`{"type":"object","properties":{"max":{"type":"integer"}},"required":["max"]}`),
	}
	if err := validateConfig("max-sentence-length", manifest, map[string]any{"max": 25}); err != nil {
		t.Fatalf("expected matching config to validate, got %v", err)
	}
}

func TestValidateConfigMalformedSchemaIsManifestInvalid(t *testing.T) {
	manifest := Manifest{Schema: []byte(`not json`)}
	err := validateConfig("r", manifest, map[string]any{})
	var ruleErr *diag.RuleError
	if !errors.As(err, &ruleErr) || ruleErr.Kind != diag.RuleManifestInvalid {
		t.Fatalf("expected RuleManifestInvalid, got %+v", err)
	}
}
