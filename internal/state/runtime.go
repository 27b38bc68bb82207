package state

// file: internal/state/runtime.go

import "time"

// ItemState keeps an item's raw payload for callers that need to render
// item content (e.g. concatenating AgentMessage texts). Items carry no
// status of their own, per §3.
type ItemState struct {
	ItemID  string
	Payload []byte
}

// TurnStatus is the terminal status a TurnState settles into.
type TurnStatus int

const (
	TurnRunning TurnStatus = iota
	TurnCompleted
	TurnFailed
	TurnInterrupted
)

func (s TurnStatus) Terminal() bool { return s != TurnRunning }

// TurnState is one turn within a thread: an ordered item sequence and a
// terminal status. Once terminal, Reduce ignores further events for this turn.
type TurnState struct {
	TurnID      string
	Status      TurnStatus
	Items       []ItemState
	itemIndex   map[string]int
	CompletedAt time.Time
}

func newTurnState(turnID string) *TurnState {
	return &TurnState{TurnID: turnID, Status: TurnRunning, itemIndex: make(map[string]int)}
}

// sizeEstimate sums the retained payload bytes for this turn, used by the
// pruning budget comparison.
func (t *TurnState) sizeEstimate() int {
	n := 0
	for _, it := range t.Items {
		n += len(it.Payload)
	}
	return n
}

// ThreadState is one thread: an ordered-by-insertion map of turns.
type ThreadState struct {
	ThreadID string
	Turns    map[string]*TurnState
	order    []string // insertion order of turn ids; prune removes entries in step with Turns
}

func newThreadState(threadID string) *ThreadState {
	return &ThreadState{ThreadID: threadID, Turns: make(map[string]*TurnState)}
}

// RuntimeState is the hierarchical projection: threadId -> ThreadState,
// each holding turnId -> TurnState, each holding an ordered item sequence.
type RuntimeState struct {
	Threads map[string]*ThreadState
	// BudgetBytes bounds total retained item payload size; 0 means unbounded.
	BudgetBytes int

	InvalidEnvelopes int64
}

// NewRuntimeState builds an empty projection with the given retention budget.
func NewRuntimeState(budgetBytes int) *RuntimeState {
	return &RuntimeState{Threads: make(map[string]*ThreadState), BudgetBytes: budgetBytes}
}

// Thread looks up a thread in O(1); ok is false if absent.
func (s *RuntimeState) Thread(threadID string) (*ThreadState, bool) {
	t, ok := s.Threads[threadID]
	return t, ok
}

// Turn looks up a turn within a thread in O(1).
func (s *RuntimeState) Turn(threadID, turnID string) (*TurnState, bool) {
	th, ok := s.Threads[threadID]
	if !ok {
		return nil, false
	}
	t, ok := th.Turns[turnID]
	return t, ok
}
