package workflow

import "strings"

// EscalationSentinel is the exact phrase suffix the L1 model contract uses to
// signal escalation. It is part of the documented reasoning-step boundary:
// the L1 prompt instructs the model to end an escalating answer with it.
const EscalationSentinel = "L2...."

// Entry nodes the dispatcher can route a turn to.
const (
	EntryL1 = "l1"
	EntryL2 = "l2"
)

// IsEscalationSignal reports whether an L1 answer carries the escalation
// sentinel. Detection lives here and nowhere else.
func IsEscalationSignal(answer string) bool {
	return strings.Contains(answer, EscalationSentinel)
}

// Dispatch chooses the entry node for a turn. It is a pure function of the
// history: an empty history or a last turn handled by L1 routes to L1; once
// the last turn was handled by L2 the session is sticky and every subsequent
// turn bypasses L1 until the thread is reset.
func Dispatch(history []TurnRecord) string {
	if len(history) == 0 || !history[len(history)-1].IsLevel2Session {
		return EntryL1
	}
	return EntryL2
}

// ChatWindow returns the most recent turns for prompt context.
func ChatWindow(history []TurnRecord, maxTurns int) []TurnRecord {
	if maxTurns <= 0 || len(history) <= maxTurns {
		return history
	}
	return history[len(history)-maxTurns:]
}
