package rpc

// file: internal/rpc/wire.go

import (
	"encoding/json"

	"github.com/dkoosis/appserversdk/internal/apperrors"
	"github.com/dkoosis/appserversdk/internal/jsonrpc"
)

func encodeRequest(id int64, method string, params json.RawMessage) ([]byte, error) {
	req, err := jsonrpc.NewRequest(id, method, rawOrNil(params))
	if err != nil {
		return nil, err
	}
	return json.Marshal(req)
}

func encodeNotification(method string, params json.RawMessage) ([]byte, error) {
	note, err := jsonrpc.NewNotification(method, rawOrNil(params))
	if err != nil {
		return nil, err
	}
	return json.Marshal(note)
}

func encodeResultResponse(id json.RawMessage, result json.RawMessage) ([]byte, error) {
	resp, err := jsonrpc.NewResponse(id, rawOrNil(result), nil)
	if err != nil {
		return nil, err
	}
	return json.Marshal(resp)
}

func encodeErrorResponse(id json.RawMessage, code int, message string) ([]byte, error) {
	resp, err := jsonrpc.NewResponse(id, nil, &jsonrpc.Error{Code: code, Message: message})
	if err != nil {
		return nil, err
	}
	return json.Marshal(resp)
}

// encodeErrorResponseFromErr builds the wire error response by first
// shaping err through apperrors.ToJSONRPCError, which strips sensitive
// detail keys before they ever reach the host: the jsonrpc2.Error it
// returns is the one wire error shape this marshals out.
func encodeErrorResponseFromErr(id json.RawMessage, err error) ([]byte, error) {
	rpcErr := apperrors.ToJSONRPCError(err)
	wireErr := &jsonrpc.Error{Code: int(rpcErr.Code), Message: rpcErr.Message}
	if rpcErr.Data != nil {
		wireErr.Data = json.RawMessage(*rpcErr.Data)
	}
	resp, respErr := jsonrpc.NewResponse(id, nil, wireErr)
	if respErr != nil {
		return nil, respErr
	}
	return json.Marshal(resp)
}

// rawOrNil avoids double-marshaling an already-encoded json.RawMessage: the
// jsonrpc constructors json.Marshal whatever interface{} they receive, and
// json.RawMessage marshals itself back out verbatim, so passing the raw
// bytes through is safe either way but this keeps intent explicit.
func rawOrNil(raw json.RawMessage) interface{} {
	if raw == nil {
		return nil
	}
	return raw
}
