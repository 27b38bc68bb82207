// Package jsonrpc implements the JSON-RPC 2.0 wire types exchanged with the
// spawned app-server child process.
package jsonrpc

// file: internal/jsonrpc/types.go

import (
	"encoding/json"
	"fmt"

	"github.com/dkoosis/appserversdk/internal/apperrors"
)

// Version is the JSON-RPC version string carried on every message.
const Version = "2.0"

// Error represents a JSON-RPC 2.0 error object.
type Error struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("jsonrpc error %d: %s", e.Code, e.Message)
}

// Message is the union shape read off the wire before classification into
// Request, Response, or Notification.
type Message struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// Request is an outbound or inbound JSON-RPC request.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response is a reply correlated to a prior Request by ID.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// Notification carries no ID and expects no response.
type Notification struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// IsRequest reports whether m has the shape of a request.
func (m *Message) IsRequest() bool {
	return m.Method != "" && m.ID != nil && m.Result == nil && m.Error == nil
}

// IsResponse reports whether m has the shape of a response.
func (m *Message) IsResponse() bool {
	return m.Method == "" && m.ID != nil && (m.Result != nil || m.Error != nil)
}

// IsNotification reports whether m has the shape of a notification.
func (m *Message) IsNotification() bool {
	return m.Method != "" && m.ID == nil && m.Result == nil && m.Error == nil
}

// ToRequest converts m to a Request, or fails if m is not request-shaped.
func (m *Message) ToRequest() (*Request, error) {
	if !m.IsRequest() {
		return nil, apperrors.NewInvalidRequest("message is not a request", messageShape(m))
	}
	return &Request{JSONRPC: m.JSONRPC, ID: m.ID, Method: m.Method, Params: m.Params}, nil
}

// ToResponse converts m to a Response, or fails if m is not response-shaped.
func (m *Message) ToResponse() (*Response, error) {
	if !m.IsResponse() {
		return nil, apperrors.NewInvalidRequest("message is not a response", messageShape(m))
	}
	return &Response{JSONRPC: m.JSONRPC, ID: m.ID, Result: m.Result, Error: m.Error}, nil
}

// ToNotification converts m to a Notification, or fails if m is not
// notification-shaped.
func (m *Message) ToNotification() (*Notification, error) {
	if !m.IsNotification() {
		return nil, apperrors.NewInvalidRequest("message is not a notification", messageShape(m))
	}
	return &Notification{JSONRPC: m.JSONRPC, Method: m.Method, Params: m.Params}, nil
}

func messageShape(m *Message) map[string]interface{} {
	return map[string]interface{}{
		"hasMethod": m.Method != "",
		"hasID":     m.ID != nil,
		"hasResult": m.Result != nil,
		"hasError":  m.Error != nil,
	}
}

// NewRequest builds a Request, marshaling id and params.
func NewRequest(id interface{}, method string, params interface{}) (*Request, error) {
	idJSON, err := marshalOrNil(id, "id")
	if err != nil {
		return nil, err
	}
	paramsJSON, err := marshalOrNil(params, "params")
	if err != nil {
		return nil, err
	}
	return &Request{JSONRPC: Version, ID: idJSON, Method: method, Params: paramsJSON}, nil
}

// NewResponse builds a Response from a successful result or an error, never both.
func NewResponse(id json.RawMessage, result interface{}, rpcErr *Error) (*Response, error) {
	var resultJSON json.RawMessage
	if result != nil && rpcErr == nil {
		data, err := json.Marshal(result)
		if err != nil {
			return nil, apperrors.NewInternal("failed to marshal result", err, nil)
		}
		resultJSON = data
	}
	return &Response{JSONRPC: Version, ID: id, Result: resultJSON, Error: rpcErr}, nil
}

// NewNotification builds a Notification, marshaling params.
func NewNotification(method string, params interface{}) (*Notification, error) {
	paramsJSON, err := marshalOrNil(params, "params")
	if err != nil {
		return nil, err
	}
	return &Notification{JSONRPC: Version, Method: method, Params: paramsJSON}, nil
}

func marshalOrNil(v interface{}, field string) (json.RawMessage, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, apperrors.NewInternal(fmt.Sprintf("failed to marshal %s", field), err,
			map[string]interface{}{"goType": fmt.Sprintf("%T", v)})
	}
	return data, nil
}

// ParseParams unmarshals a request's params into dst.
func (r *Request) ParseParams(dst interface{}) error {
	if r.Params == nil {
		return nil
	}
	if err := json.Unmarshal(r.Params, dst); err != nil {
		return apperrors.NewInvalidRequest("failed to unmarshal params",
			map[string]interface{}{"method": r.Method, "targetType": fmt.Sprintf("%T", dst)})
	}
	return nil
}

// ParseParams unmarshals a notification's params into dst.
func (n *Notification) ParseParams(dst interface{}) error {
	if n.Params == nil {
		return nil
	}
	if err := json.Unmarshal(n.Params, dst); err != nil {
		return apperrors.NewInvalidRequest("failed to unmarshal params",
			map[string]interface{}{"method": n.Method, "targetType": fmt.Sprintf("%T", dst)})
	}
	return nil
}

// GetID unmarshals the request ID into a Go interface{} (string or number).
func (r *Request) GetID() (interface{}, error) {
	var id interface{}
	if err := json.Unmarshal(r.ID, &id); err != nil {
		return nil, apperrors.NewInvalidRequest("failed to unmarshal id",
			map[string]interface{}{"method": r.Method})
	}
	return id, nil
}
