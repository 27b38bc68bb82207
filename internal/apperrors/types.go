package apperrors

// file: internal/apperrors/types.go

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Sentinel errors, one per taxonomy entry in the error handling design.
// Callers match on these with errors.Is; construction always goes through
// the New* helpers below so category/code/context stay attached.
var (
	ErrSchemaDirNotFound      = errors.New("schema directory not found")
	ErrSchemaDirNotDirectory  = errors.New("schema path exists but is not a directory")
	ErrSchemaManifestMismatch = errors.New("schema bundle does not match manifest")
	ErrInvalidConfig          = errors.New("invalid configuration")

	ErrClosed                     = errors.New("closed")
	ErrAlreadyBound               = errors.New("already bound")
	ErrAlreadyTaken                = errors.New("already taken")
	ErrSessionClosed              = errors.New("session closed")
	ErrMissingInitializeUserAgent = errors.New("missing initialize userAgent")
	ErrIncompatibleVersion        = errors.New("incompatible version")

	ErrInvalidRequest  = errors.New("invalid request")
	ErrInvalidResponse = errors.New("invalid response")
	ErrUnknownMethod   = errors.New("unknown method")
	ErrUnknownApproval = errors.New("unknown approval")
	ErrCancelled       = errors.New("cancelled")
	ErrTimeout         = errors.New("timed out")

	ErrTransportSpawnFailed  = errors.New("transport spawn failed")
	ErrTransportBroken       = errors.New("transport broken")
	ErrTransportFrameInvalid = errors.New("invalid frame")

	ErrInternal = errors.New("internal error")
)

// WithDetails marks err with the given sentinel and attaches category, code
// and an arbitrary detail map, following the detail-string convention
// (category:VALUE, code:VALUE, key:value) consumed by Category/Code/Properties.
func WithDetails(err error, sentinel error, category string, code int, details map[string]interface{}) error {
	err = errors.Mark(err, sentinel)
	err = errors.WithDetail(err, fmt.Sprintf("category:%s", category))
	err = errors.WithDetail(err, fmt.Sprintf("code:%d", code))
	for k, v := range details {
		err = errors.WithDetail(err, fmt.Sprintf("%s:%v", k, v))
	}
	return err
}

// New constructs a detailed error from a sentinel/category/code directly,
// without an underlying cause.
func New(message string, sentinel error, category string, code int, details map[string]interface{}) error {
	return WithDetails(errors.Newf("%s", message), sentinel, category, code, details)
}

// Wrap constructs a detailed error from a sentinel/category/code, preserving
// cause as the wrapped error.
func Wrap(cause error, message string, sentinel error, category string, code int, details map[string]interface{}) error {
	return WithDetails(errors.Wrapf(cause, "%s", message), sentinel, category, code, details)
}

// --- Configuration ---

func NewSchemaDirNotFound(path string) error {
	return New(fmt.Sprintf("schema directory not found: %s", path), ErrSchemaDirNotFound,
		CategoryConfiguration, CodeSchemaDirNotFound, map[string]interface{}{"path": path})
}

func NewSchemaDirNotDirectory(path string) error {
	return New(fmt.Sprintf("schema path is not a directory: %s", path), ErrSchemaDirNotDirectory,
		CategoryConfiguration, CodeSchemaDirNotDirectory, map[string]interface{}{"path": path})
}

func NewSchemaManifestMismatch(reason string, details map[string]interface{}) error {
	return New(fmt.Sprintf("schema manifest mismatch: %s", reason), ErrSchemaManifestMismatch,
		CategoryConfiguration, CodeSchemaManifestMismatch, details)
}

func NewInvalidConfig(message string, details map[string]interface{}) error {
	return New(message, ErrInvalidConfig, CategoryConfiguration, CodeInvalidConfig, details)
}

// --- Lifecycle ---

func NewClosed(what string) error {
	return New(fmt.Sprintf("%s is closed", what), ErrClosed, CategoryLifecycle, CodeClosed,
		map[string]interface{}{"what": what})
}

func NewAlreadyBound() error {
	return New("runtime already bound", ErrAlreadyBound, CategoryLifecycle, CodeAlreadyBound, nil)
}

func NewAlreadyTaken() error {
	return New("server-request queue already taken", ErrAlreadyTaken, CategoryLifecycle, CodeAlreadyTaken, nil)
}

func NewSessionClosed() error {
	return New("session closed", ErrSessionClosed, CategoryLifecycle, CodeSessionClosed, nil)
}

func NewMissingInitializeUserAgent() error {
	return New("initialize request missing userAgent", ErrMissingInitializeUserAgent,
		CategoryLifecycle, CodeMissingInitializeUserAgt, nil)
}

func NewIncompatibleVersion(got, minimum string) error {
	return New(fmt.Sprintf("app-server version %s is incompatible with minimum %s", got, minimum),
		ErrIncompatibleVersion, CategoryLifecycle, CodeIncompatibleVersion,
		map[string]interface{}{"got": got, "minimum": minimum})
}

// --- Protocol ---

func NewInvalidRequest(message string, details map[string]interface{}) error {
	return New(message, ErrInvalidRequest, CategoryProtocol, CodeInvalidRequest, details)
}

func NewInvalidResponse(message string, details map[string]interface{}) error {
	return New(message, ErrInvalidResponse, CategoryProtocol, CodeInvalidResponse, details)
}

func NewUnknownMethod(method string) error {
	return New(fmt.Sprintf("unknown method: %s", method), ErrUnknownMethod, CategoryProtocol,
		CodeUnknownMethod, map[string]interface{}{"method": method})
}

func NewUnknownApproval(approvalID string) error {
	return New(fmt.Sprintf("unknown approval id: %s", approvalID), ErrUnknownApproval, CategoryProtocol,
		CodeUnknownApproval, map[string]interface{}{"approvalId": approvalID})
}

func NewCancelled(method string) error {
	return New("request cancelled", ErrCancelled, CategoryProtocol, CodeCancelled,
		map[string]interface{}{"method": method})
}

func NewTimeout(method string) error {
	return New("request timed out", ErrTimeout, CategoryProtocol, CodeTimeout,
		map[string]interface{}{"method": method})
}

// --- Transport ---

func NewTransportSpawnFailed(cause error, command string) error {
	return Wrap(cause, fmt.Sprintf("failed to spawn app-server: %s", command), ErrTransportSpawnFailed,
		CategoryTransport, CodeTransportSpawnFailed, map[string]interface{}{"command": command})
}

func NewTransportBroken(cause error) error {
	return Wrap(cause, "transport broken", ErrTransportBroken, CategoryTransport, CodeTransportBroken, nil)
}

func NewTransportFrameInvalid(reason string, preview string) error {
	return New(fmt.Sprintf("invalid frame: %s", reason), ErrTransportFrameInvalid, CategoryTransport,
		CodeTransportFrameInvalid, map[string]interface{}{"preview": preview})
}

// Combine merges two errors without dropping either, for propagation sites
// where neither is permitted to be swallowed (e.g. a handshake failure
// composed with its forced-shutdown error, per the shutdown-errors-are-
// NOT-swallowed propagation policy). A nil first or second argument
// returns the other unchanged.
func Combine(primary, secondary error) error {
	return errors.CombineErrors(primary, secondary)
}

// --- Internal ---

func NewInternal(message string, cause error, details map[string]interface{}) error {
	if cause == nil {
		return New(message, ErrInternal, CategoryInternal, CodeInternalError, details)
	}
	return Wrap(cause, message, ErrInternal, CategoryInternal, CodeInternalError, details)
}
