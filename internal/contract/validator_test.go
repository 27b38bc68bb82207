package contract

// file: internal/contract/validator_test.go

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildValidator(t *testing.T) *Validator {
	t.Helper()
	v := NewValidator(Config{}, nil)
	require.NoError(t, v.Initialize(context.Background(), Config{}))
	return v
}

func TestValidator_Initialize_UsesEmbeddedBundleByDefault(t *testing.T) {
	v := buildValidator(t)
	assert.True(t, v.IsInitialized())
}

func TestValidator_ValidateParams_RejectsMissingRequiredField(t *testing.T) {
	v := buildValidator(t)
	err := v.ValidateParams(MethodThreadStart, json.RawMessage(`{}`))
	require.Error(t, err)
}

func TestValidator_ValidateParams_AcceptsWellFormedParams(t *testing.T) {
	v := buildValidator(t)
	err := v.ValidateParams(MethodThreadStart, json.RawMessage(`{"prompt":"hi"}`))
	assert.NoError(t, err)
}

func TestValidator_ValidateParams_UnknownMethodIsNoOp(t *testing.T) {
	v := buildValidator(t)
	err := v.ValidateParams("thread/doesNotExist", json.RawMessage(`{"whatever":1}`))
	assert.NoError(t, err)
}

func TestValidator_ValidateResult_RejectsMalformedResult(t *testing.T) {
	v := buildValidator(t)
	err := v.ValidateResult(MethodThreadStart, json.RawMessage(`{}`))
	require.Error(t, err)
}

func TestKnownMethods_MatchesCatalogSize(t *testing.T) {
	methods := KnownMethods()
	assert.Len(t, methods, len(catalog))
	for _, m := range methods {
		assert.True(t, IsKnownMethod(m))
	}
}

