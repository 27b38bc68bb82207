// Package apperrors defines the error taxonomy for the app-server client
// core: categories, numeric codes, and sentinel errors for every variant
// named in the error handling design.
package apperrors

// file: internal/apperrors/codes.go

// Category groups sentinel errors by the area of the system that raises them.
const (
	CategoryConfiguration = "configuration"
	CategoryLifecycle     = "lifecycle"
	CategoryProtocol      = "protocol"
	CategoryTransport     = "transport"
	CategoryInternal      = "internal"
)

// Codes follow the JSON-RPC reserved range for protocol errors and a private
// range above it for everything else, mirroring how the teacher lineage
// reserves -32000..-32099 for application errors on top of the JSON-RPC
// standard codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603

	CodeSchemaDirNotFound         = -32000
	CodeSchemaDirNotDirectory     = -32001
	CodeSchemaManifestMismatch    = -32002
	CodeInvalidConfig             = -32003
	CodeClosed                    = -32010
	CodeAlreadyBound              = -32011
	CodeAlreadyTaken              = -32012
	CodeSessionClosed             = -32013
	CodeMissingInitializeUserAgt  = -32014
	CodeIncompatibleVersion       = -32015
	CodeInvalidResponse           = -32020
	CodeUnknownMethod             = -32021
	CodeUnknownApproval           = -32022
	CodeCancelled                 = -32023
	CodeTimeout                   = -32024
	CodeTransportSpawnFailed      = -32030
	CodeTransportBroken           = -32031
	CodeTransportFrameInvalid     = -32032
)

// UserFacingMessage maps a code to a stable, non-sensitive message suitable
// for a JSON-RPC error response's "message" field.
func UserFacingMessage(code int) string {
	switch code {
	case CodeParseError:
		return "failed to parse JSON message"
	case CodeInvalidRequest:
		return "invalid request"
	case CodeMethodNotFound:
		return "method not found"
	case CodeInvalidParams:
		return "invalid parameters"
	case CodeSchemaDirNotFound:
		return "schema directory not found"
	case CodeSchemaDirNotDirectory:
		return "schema path is not a directory"
	case CodeSchemaManifestMismatch:
		return "schema bundle does not match its manifest"
	case CodeInvalidConfig:
		return "invalid configuration"
	case CodeClosed:
		return "runtime is closed"
	case CodeAlreadyBound:
		return "runtime already bound to a collaborator"
	case CodeAlreadyTaken:
		return "server-request queue already taken"
	case CodeSessionClosed:
		return "session is closed"
	case CodeMissingInitializeUserAgt:
		return "initialize request is missing userAgent"
	case CodeIncompatibleVersion:
		return "app-server version is incompatible"
	case CodeInvalidResponse:
		return "response failed contract validation"
	case CodeUnknownMethod:
		return "method is not in the known-method catalog"
	case CodeUnknownApproval:
		return "approval id is not pending"
	case CodeCancelled:
		return "request cancelled"
	case CodeTimeout:
		return "request timed out"
	case CodeTransportSpawnFailed:
		return "failed to spawn app-server process"
	case CodeTransportBroken:
		return "transport connection broken"
	case CodeTransportFrameInvalid:
		return "invalid frame on the wire"
	default:
		return "internal error"
	}
}
