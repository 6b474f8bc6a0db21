// Package think detects the thinking segment of a streamed completion.
//
// Reasoning models emit their trace between an opening and a closing marker
// (<think> and </think> by default) before the user-facing answer. A Scanner
// consumes fragments in arrival order and advances a monotonic State machine:
//
//	Pre --open marker--> Thinking --close marker--> EndThinking --next fragment--> Done
//
// The last transition lags by one fragment: the fragment holding the closing
// marker is still part of the thinking segment, and answer text starts with
// the fragment after it.
package think

// State is the position of a stream relative to its thinking segment.
type State int

const (
	// Pre means no opening marker has been seen.
	Pre State = iota
	// Thinking means the opening marker has been seen but not the closing one.
	Thinking
	// EndThinking means the closing marker was seen in the latest fragment.
	EndThinking
	// Done means at least one fragment followed the closing marker.
	Done
)

func (s State) String() string {
	switch s {
	case Pre:
		return "pre"
	case Thinking:
		return "thinking"
	case EndThinking:
		return "end-thinking"
	case Done:
		return "done"
	default:
		return "unknown"
	}
}

// Visible reports whether fragments observed in this state belong to the answer.
func (s State) Visible() bool {
	return s == Pre || s == Done
}

// event is an input of the state machine.
type event int

const (
	eventOpen event = iota
	eventClose
	eventFragment
)

// transitions is the complete transition table. Pairs that are not listed keep the current state.
var transitions = map[State]map[event]State{
	Pre:         {eventOpen: Thinking},
	Thinking:    {eventClose: EndThinking},
	EndThinking: {eventFragment: Done},
}

// advance returns the state that follows s when ev occurs.
func advance(s State, ev event) State {
	if next, ok := transitions[s][ev]; ok {
		return next
	}
	return s
}
