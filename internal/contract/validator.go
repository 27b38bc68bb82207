package contract

// file: internal/contract/validator.go

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/dkoosis/appserversdk/internal/apperrors"
	"github.com/dkoosis/appserversdk/internal/logging"
)

func bytesReader(b []byte) io.Reader { return bytes.NewReader(b) }

// ValidationMode governs how the dispatcher uses the validator (§4.2).
type ValidationMode int

const (
	// KnownMethods validates when the method is in the catalog and passes
	// unknown methods through without error. Default.
	KnownMethods ValidationMode = iota
	// Strict treats an unknown method as RpcError::UnknownMethod.
	Strict
	// Unchecked skips validation entirely.
	Unchecked
)

// Validator is the contract/schema gate: it loads and verifies the schema
// bundle at startup and validates params/results per call thereafter.
type Validator struct {
	mu          sync.RWMutex
	compiled    map[string]*jsonschema.Schema
	initialized bool
	origin      string
	logger      logging.Logger
}

// Config selects the schema directory override (step 1 of resolution).
type Config struct {
	SchemaDirOverride string
}

// NewValidator constructs an uninitialized Validator; call Initialize before use.
func NewValidator(cfg Config, logger logging.Logger) *Validator {
	if logger == nil {
		logger = logging.GetNoopLogger()
	}
	return &Validator{
		compiled: make(map[string]*jsonschema.Schema),
		logger:   logger.WithField("component", "contract.validator"),
	}
}

// Initialize resolves the schema bundle directory, verifies it against its
// manifest, and compiles every schema referenced by the known-method
// catalog. This is the fail-fast startup gate: any error here means the
// runtime must not reach Ready.
func (v *Validator) Initialize(ctx context.Context, cfg Config) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	src, err := resolveBundle(cfg.SchemaDirOverride)
	if err != nil {
		return err
	}
	v.logger.Info("resolved schema bundle", "origin", src.origin)

	manifestFile, err := src.fsys.Open("manifest.sha256")
	if err != nil {
		return apperrors.NewSchemaManifestMismatch("manifest.sha256 not found", map[string]interface{}{"origin": src.origin})
	}
	defer manifestFile.Close()

	entries, err := parseManifest(manifestFile)
	if err != nil {
		return err
	}
	if err := verifyManifest(src.fsys, entries); err != nil {
		return err
	}

	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	compiler.AssertFormat = true

	needed := make(map[string]bool)
	for _, spec := range catalog {
		needed[spec.ParamsSchemaID] = true
		needed[spec.ResultSchemaID] = true
	}
	for _, id := range notificationSchemaIDs {
		needed[id] = true
	}

	for id := range needed {
		rel := schemaFilePath(id)
		data, err := fs.ReadFile(src.fsys, rel)
		if err != nil {
			return apperrors.NewSchemaManifestMismatch("schema file referenced by catalog is missing",
				map[string]interface{}{"id": id, "path": rel})
		}
		if err := compiler.AddResource(id, bytesReader(data)); err != nil {
			return apperrors.NewInvalidConfig(fmt.Sprintf("failed to add schema resource %s", id),
				map[string]interface{}{"id": id, "error": err.Error()})
		}
	}

	compiledSchemas := make(map[string]*jsonschema.Schema, len(needed))
	for id := range needed {
		schema, err := compiler.Compile(id)
		if err != nil {
			return apperrors.NewInvalidConfig(fmt.Sprintf("failed to compile schema %s", id),
				map[string]interface{}{"id": id, "error": err.Error()})
		}
		compiledSchemas[id] = schema
	}

	v.compiled = compiledSchemas
	v.origin = src.origin
	v.initialized = true
	return nil
}

// IsInitialized reports whether Initialize has completed successfully.
func (v *Validator) IsInitialized() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.initialized
}

// ValidateParams validates value against method's params schema. Unknown
// methods are a no-op for KnownMethods mode; callers in Strict mode must
// check IsKnownMethod themselves before calling.
func (v *Validator) ValidateParams(method string, value json.RawMessage) error {
	spec, ok := catalog[method]
	if !ok {
		return nil
	}
	return v.validateAgainst(spec.ParamsSchemaID, value)
}

// ValidateResult validates value against method's result schema.
func (v *Validator) ValidateResult(method string, value json.RawMessage) error {
	spec, ok := catalog[method]
	if !ok {
		return nil
	}
	return v.validateAgainst(spec.ResultSchemaID, value, true)
}

func (v *Validator) validateAgainst(schemaID string, value json.RawMessage, isResult ...bool) error {
	v.mu.RLock()
	schema, ok := v.compiled[schemaID]
	v.mu.RUnlock()
	if !ok {
		return apperrors.NewInternal("schema not compiled", nil, map[string]interface{}{"schemaId": schemaID})
	}

	var instance interface{}
	if err := json.Unmarshal(value, &instance); err != nil {
		return apperrors.NewInvalidRequest("params/result is not valid JSON",
			map[string]interface{}{"schemaId": schemaID})
	}

	if err := schema.Validate(instance); err != nil {
		if len(isResult) > 0 && isResult[0] {
			return apperrors.NewInvalidResponse(err.Error(), map[string]interface{}{"schemaId": schemaID})
		}
		return apperrors.NewInvalidRequest(err.Error(), map[string]interface{}{"schemaId": schemaID})
	}
	return nil
}

// Shutdown releases compiled schemas, allowing re-initialization.
func (v *Validator) Shutdown() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.compiled = make(map[string]*jsonschema.Schema)
	v.initialized = false
}
