package state

// file: internal/state/classify.go

import (
	"encoding/json"

	"github.com/dkoosis/appserversdk/internal/jsonrpc"
)

// Classify turns a raw wire frame into an Envelope. Any frame that cannot be
// parsed as a JSON-RPC message yields an invalid-marker Envelope rather than
// an error — classification is total and never drops a frame silently.
func Classify(frame []byte) Envelope {
	var msg jsonrpc.Message
	if err := json.Unmarshal(frame, &msg); err != nil {
		return Envelope{Kind: KindNotification, Method: InvalidMethod, Payload: frame}
	}

	switch {
	case msg.IsResponse():
		return Envelope{
			Kind:    KindResponse,
			Method:  msg.Method,
			Payload: rawOrEmpty(msg.Result),
			IDs:     IDSet{RPCID: string(msg.ID)},
		}
	case msg.IsRequest():
		env := Envelope{
			Kind:    KindServerRequest,
			Method:  msg.Method,
			Payload: rawOrEmpty(msg.Params),
		}
		env.IDs = ExtractIDs(env)
		env.IDs.RPCID = string(msg.ID)
		return env
	case msg.IsNotification():
		env := Envelope{
			Kind:    KindNotification,
			Method:  msg.Method,
			Payload: rawOrEmpty(msg.Params),
		}
		env.IDs = ExtractIDs(env)
		return env
	default:
		return Envelope{Kind: KindNotification, Method: InvalidMethod, Payload: frame}
	}
}

func rawOrEmpty(raw json.RawMessage) json.RawMessage {
	if raw == nil {
		return json.RawMessage("null")
	}
	return raw
}
