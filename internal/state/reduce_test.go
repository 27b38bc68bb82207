package state

// file: internal/state/reduce_test.go

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func notify(method string, payload map[string]interface{}) Envelope {
	data, _ := json.Marshal(payload)
	env := Envelope{Kind: KindNotification, Method: method, Payload: data}
	env.IDs = ExtractIDs(env)
	return env
}

func TestReduce_ThreadAndTurnLifecycle(t *testing.T) {
	s := NewRuntimeState(0)

	Reduce(s, notify("thread/started", map[string]interface{}{"threadId": "t1"}))
	thread, ok := s.Thread("t1")
	require.True(t, ok)
	assert.Empty(t, thread.Turns)

	Reduce(s, notify("turn/started", map[string]interface{}{"threadId": "t1", "turnId": "r1"}))
	turn, ok := s.Turn("t1", "r1")
	require.True(t, ok)
	assert.Equal(t, TurnRunning, turn.Status)

	Reduce(s, notify("turn/itemAdded", map[string]interface{}{"threadId": "t1", "turnId": "r1", "itemId": "i1"}))
	Reduce(s, notify("turn/itemAdded", map[string]interface{}{"threadId": "t1", "turnId": "r1", "itemId": "i1"}))
	turn, _ = s.Turn("t1", "r1")
	assert.Len(t, turn.Items, 1, "duplicate itemId must be ignored")

	Reduce(s, notify("turn/completed", map[string]interface{}{"threadId": "t1", "turnId": "r1"}))
	turn, _ = s.Turn("t1", "r1")
	assert.Equal(t, TurnCompleted, turn.Status)

	Reduce(s, notify("turn/itemAdded", map[string]interface{}{"threadId": "t1", "turnId": "r1", "itemId": "i2"}))
	turn, _ = s.Turn("t1", "r1")
	assert.Len(t, turn.Items, 1, "terminal turn must ignore subsequent item events")
}

func TestReduce_TurnStartedImplicitlyCreatesThread(t *testing.T) {
	s := NewRuntimeState(0)
	Reduce(s, notify("turn/started", map[string]interface{}{"threadId": "t1", "turnId": "r1"}))
	_, ok := s.Thread("t1")
	assert.True(t, ok)
}

func TestReduce_InvalidEnvelopeIsCountedNotDropped(t *testing.T) {
	s := NewRuntimeState(0)
	Reduce(s, Envelope{Kind: KindNotification, Method: InvalidMethod, Payload: []byte("not json")})
	assert.EqualValues(t, 1, s.InvalidEnvelopes)
}

func TestReduce_PruningDropsOldestCompletedTurnFirst(t *testing.T) {
	s := NewRuntimeState(1) // tiny budget forces pruning after any item

	Reduce(s, notify("turn/started", map[string]interface{}{"threadId": "t1", "turnId": "r1"}))
	Reduce(s, notify("turn/itemAdded", map[string]interface{}{"threadId": "t1", "turnId": "r1", "itemId": "i1"}))
	Reduce(s, notify("turn/completed", map[string]interface{}{"threadId": "t1", "turnId": "r1"}))

	Reduce(s, notify("turn/started", map[string]interface{}{"threadId": "t1", "turnId": "r2"}))
	Reduce(s, notify("turn/itemAdded", map[string]interface{}{"threadId": "t1", "turnId": "r2", "itemId": "i2"}))

	_, stillRunning := s.Turn("t1", "r2")
	assert.True(t, stillRunning, "running turn must never be pruned")

	_, firstStillPresent := s.Turn("t1", "r1")
	assert.False(t, firstStillPresent, "oldest completed turn must be pruned once budget is exceeded")
}

func TestClassify_UnparseableFrameYieldsInvalidMarker(t *testing.T) {
	env := Classify([]byte("not json at all"))
	assert.Equal(t, InvalidMethod, env.Method)
	assert.Equal(t, KindNotification, env.Kind)
}

func TestClassify_ResponseFrame(t *testing.T) {
	env := Classify([]byte(`{"jsonrpc":"2.0","id":5,"result":{"threadId":"t1"}}`))
	assert.Equal(t, KindResponse, env.Kind)
	assert.Equal(t, "5", env.IDs.RPCID)
}

func TestClassify_ServerRequestFrame(t *testing.T) {
	env := Classify([]byte(`{"jsonrpc":"2.0","id":9,"method":"approval/exec","params":{"approvalId":"a1"}}`))
	assert.Equal(t, KindServerRequest, env.Kind)
	assert.Equal(t, "a1", env.IDs.ApprovalID)
}
