package think

import (
	"strings"
)

// Default markers used by reasoning models served through OpenAI-compatible APIs.
const (
	DefaultOpenMarker  = "<think>"
	DefaultCloseMarker = "</think>"
)

// Observation is what the Scanner learned from a single fragment.
type Observation struct {
	// State is the state after the fragment was scanned.
	State State
	// Opened is true only for the fragment in which the opening marker was first seen.
	Opened bool
	// Closed is true only for the fragment in which the closing marker was first seen.
	Closed bool
}

// Scanner tracks marker sightings across fragments. It is not safe for concurrent use.
type Scanner struct {
	openMarker, closeMarker string
	state                   State

	// splitDetection enables matching markers that straddle fragment boundaries.
	splitDetection bool
	// tail holds the trailing bytes of the text seen so far when splitDetection is on.
	tail string
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithMarkers overrides the opening and closing markers. Empty values keep the defaults.
func WithMarkers(open, close string) Option {
	return func(s *Scanner) {
		if open != "" {
			s.openMarker = open
		}
		if close != "" {
			s.closeMarker = close
		}
	}
}

// WithSplitDetection makes the Scanner find markers split across two or more fragments,
// e.g. "<thi" followed by "nk>". Without it, each fragment is inspected in isolation.
func WithSplitDetection() Option {
	return func(s *Scanner) { s.splitDetection = true }
}

// NewScanner returns a Scanner in the Pre state.
func NewScanner(opts ...Option) *Scanner {
	s := &Scanner{openMarker: DefaultOpenMarker, closeMarker: DefaultCloseMarker, state: Pre}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current state.
func (s *Scanner) State() State {
	return s.state
}

// Scan advances the state machine with the text of the next fragment.
//
// Only the first sighting of each marker is significant. A closing marker counts
// only if it follows the opening marker, in the same fragment or a later one.
func (s *Scanner) Scan(text string) Observation {
	window := text
	if s.splitDetection {
		window = s.tail + text
		s.remember(window)
	}

	var obs Observation

	// The fragment after the closing marker is the first answer fragment.
	if s.state == EndThinking {
		s.state = advance(s.state, eventFragment)
		obs.State = s.state
		return obs
	}

	if s.state == Pre {
		if idx := strings.Index(window, s.openMarker); idx >= 0 {
			s.state = advance(s.state, eventOpen)
			obs.Opened = true
			window = window[idx+len(s.openMarker):]
		}
	}

	if s.state == Thinking && strings.Contains(window, s.closeMarker) {
		s.state = advance(s.state, eventClose)
		obs.Closed = true
	}

	obs.State = s.state
	return obs
}

// Pending returns the length of the longest suffix of text that may be the beginning of
// an opening marker completed by a later fragment. It is zero unless split detection is
// on and the opening marker has not been seen.
func (s *Scanner) Pending(text string) int {
	if !s.splitDetection || s.state != Pre {
		return 0
	}
	for n := min(len(text), len(s.openMarker)-1); n > 0; n-- {
		if strings.HasPrefix(s.openMarker, text[len(text)-n:]) {
			return n
		}
	}
	return 0
}

// remember keeps just enough trailing bytes to complete any marker with the next fragment.
func (s *Scanner) remember(window string) {
	keep := max(len(s.openMarker), len(s.closeMarker)) - 1
	if len(window) > keep {
		window = window[len(window)-keep:]
	}
	s.tail = window
}
