package state

// file: internal/state/reduce.go

import "time"

// Reduce applies one Envelope to state, mutating it in place. It takes no
// lock: the dispatcher's dispatch loop is the only caller that mutates
// RuntimeState, and readers of the dispatcher's live state pointer must
// treat it as read-only.
//
// Rules (§4.4):
//   - thread/started inserts a thread with empty turns.
//   - turn/started inserts a running turn, implicitly creating the thread
//     if absent.
//   - turn/itemAdded appends an item by itemId; duplicates are ignored.
//   - turn/completed, turn/failed, turn/interrupted set a terminal status;
//     further item events on that turn are ignored.
//   - Pruning drops the oldest completed turn (by completion time) until
//     total retained size is back within budget; running turns are never
//     pruned.
func Reduce(s *RuntimeState, env Envelope) {
	if env.Method == InvalidMethod {
		s.InvalidEnvelopes++
		return
	}
	if env.Kind != KindNotification {
		return
	}

	switch env.Method {
	case "thread/started":
		if env.IDs.ThreadID == "" {
			return
		}
		if _, ok := s.Threads[env.IDs.ThreadID]; !ok {
			s.Threads[env.IDs.ThreadID] = newThreadState(env.IDs.ThreadID)
		}

	case "turn/started":
		if env.IDs.ThreadID == "" || env.IDs.TurnID == "" {
			return
		}
		thread := s.ensureThread(env.IDs.ThreadID)
		if _, exists := thread.Turns[env.IDs.TurnID]; exists {
			return
		}
		turn := newTurnState(env.IDs.TurnID)
		thread.Turns[env.IDs.TurnID] = turn
		thread.order = append(thread.order, env.IDs.TurnID)

	case "turn/itemAdded":
		turn := s.lookupNonTerminalTurn(env.IDs.ThreadID, env.IDs.TurnID)
		if turn == nil || env.IDs.ItemID == "" {
			return
		}
		if _, dup := turn.itemIndex[env.IDs.ItemID]; dup {
			return
		}
		turn.itemIndex[env.IDs.ItemID] = len(turn.Items)
		turn.Items = append(turn.Items, ItemState{ItemID: env.IDs.ItemID, Payload: env.Payload})

	case "turn/completed":
		s.setTerminal(env.IDs.ThreadID, env.IDs.TurnID, TurnCompleted)
	case "turn/failed":
		s.setTerminal(env.IDs.ThreadID, env.IDs.TurnID, TurnFailed)
	case "turn/interrupted":
		s.setTerminal(env.IDs.ThreadID, env.IDs.TurnID, TurnInterrupted)
	}

	s.prune()
}

func (s *RuntimeState) ensureThread(threadID string) *ThreadState {
	thread, ok := s.Threads[threadID]
	if !ok {
		thread = newThreadState(threadID)
		s.Threads[threadID] = thread
	}
	return thread
}

func (s *RuntimeState) lookupNonTerminalTurn(threadID, turnID string) *TurnState {
	turn, ok := s.Turn(threadID, turnID)
	if !ok || turn.Status.Terminal() {
		return nil
	}
	return turn
}

func (s *RuntimeState) setTerminal(threadID, turnID string, status TurnStatus) {
	turn, ok := s.Turn(threadID, turnID)
	if !ok || turn.Status.Terminal() {
		return
	}
	turn.Status = status
	turn.CompletedAt = time.Now()
}

// prune drops the oldest completed turn, by completion time, until total
// retained bytes are within BudgetBytes. A budget of 0 disables pruning.
func (s *RuntimeState) prune() {
	if s.BudgetBytes <= 0 {
		return
	}
	for s.totalBytes() > s.BudgetBytes {
		threadID, turnID, found := s.oldestCompletedTurn()
		if !found {
			return // nothing prunable; running turns are never dropped
		}
		thread := s.Threads[threadID]
		delete(thread.Turns, turnID)
		for i, id := range thread.order {
			if id == turnID {
				thread.order = append(thread.order[:i], thread.order[i+1:]...)
				break
			}
		}
	}
}

func (s *RuntimeState) totalBytes() int {
	total := 0
	for _, thread := range s.Threads {
		for _, turn := range thread.Turns {
			total += turn.sizeEstimate()
		}
	}
	return total
}

func (s *RuntimeState) oldestCompletedTurn() (threadID, turnID string, found bool) {
	var oldest time.Time
	for tid, thread := range s.Threads {
		for _, turn := range thread.Turns {
			if !turn.Status.Terminal() {
				continue
			}
			if !found || turn.CompletedAt.Before(oldest) {
				found = true
				oldest = turn.CompletedAt
				threadID = tid
				turnID = turn.TurnID
			}
		}
	}
	return threadID, turnID, found
}
