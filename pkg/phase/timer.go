// Package phase measures the phases of a streamed completion: prompt processing,
// thinking and generation, and derives throughput from the reported token usage.
package phase

import (
	"time"

	"github.com/shivanshkc/koda/pkg/think"
)

// Timestamps holds the instants of the phase transitions of one request.
// A zero value means the transition was not observed.
type Timestamps struct {
	RequestStart time.Time
	FirstContent time.Time
	ThinkOpen    time.Time
	ThinkClose   time.Time
	StreamEnd    time.Time
}

// Timer stamps phase transitions as a stream is consumed. Every timestamp is
// written at most once; later observations of the same transition are ignored.
//
// Timer is not safe for concurrent use.
type Timer struct {
	now        func() time.Time
	timestamps Timestamps
	// arrivals holds the arrival time of every content fragment, for gap statistics.
	arrivals []time.Time
}

// NewTimer returns a Timer reading the given clock. A nil clock means time.Now.
func NewTimer(now func() time.Time) *Timer {
	if now == nil {
		now = time.Now
	}
	return &Timer{now: now}
}

// MarkRequestStart must be called immediately before the request is issued.
func (t *Timer) MarkRequestStart() {
	stamp(&t.timestamps.RequestStart, t.now())
}

// Observe records a fragment with the given text and the scanner's observation of it,
// stamped with the current time.
func (t *Timer) Observe(text string, obs think.Observation) {
	t.ObserveAt(time.Time{}, text, obs)
}

// ObserveAt is Observe for a fragment that arrived at the given instant.
// A zero instant means the current time.
func (t *Timer) ObserveAt(arrived time.Time, text string, obs think.Observation) {
	if text == "" && !obs.Opened && !obs.Closed {
		return
	}

	at := arrived
	if at.IsZero() {
		at = t.now()
	}
	t.arrivals = append(t.arrivals, at)

	if text != "" {
		stamp(&t.timestamps.FirstContent, at)
	}
	if obs.Opened {
		stamp(&t.timestamps.ThinkOpen, at)
	}
	if obs.Closed {
		stamp(&t.timestamps.ThinkClose, at)
	}
}

// MarkStreamEnd must be called once the stream is exhausted.
// If no content was ever observed, the first-content instant defaults to the end of the stream.
func (t *Timer) MarkStreamEnd() {
	at := t.now()
	stamp(&t.timestamps.StreamEnd, at)
	stamp(&t.timestamps.FirstContent, at)
}

// Timestamps returns a copy of the recorded timestamps.
func (t *Timer) Timestamps() Timestamps {
	return t.timestamps
}

// Gaps returns the durations between consecutive content fragments.
func (t *Timer) Gaps() Durations {
	return gaps(t.arrivals)
}

// stamp writes at into field unless it is already set.
func stamp(field *time.Time, at time.Time) {
	if field.IsZero() {
		*field = at
	}
}

// gaps returns the differences between consecutive instants.
func gaps(instants []time.Time) Durations {
	if len(instants) < 2 {
		return nil
	}

	out := make(Durations, 0, len(instants)-1)
	for i := 1; i < len(instants); i++ {
		out = append(out, instants[i].Sub(instants[i-1]))
	}
	return out
}

// TotalTime is the time from issuing the request to the end of the stream.
func (ts Timestamps) TotalTime() time.Duration {
	return between(ts.RequestStart, ts.StreamEnd)
}

// PromptProcessingTime is the time from issuing the request to the first content.
func (ts Timestamps) PromptProcessingTime() time.Duration {
	return between(ts.RequestStart, ts.FirstContent)
}

// GenerationTime is the time from the first content to the end of the stream.
func (ts Timestamps) GenerationTime() time.Duration {
	return between(ts.FirstContent, ts.StreamEnd)
}

// ThinkingTime is the time between the fragments carrying the opening and closing markers.
//
// ok is false when either marker was not observed, or when the stamps violate
// FirstContent <= ThinkOpen <= ThinkClose <= StreamEnd, which only a malformed or
// reordered stream can produce.
func (ts Timestamps) ThinkingTime() (d time.Duration, ok bool) {
	if ts.ThinkOpen.IsZero() || ts.ThinkClose.IsZero() {
		return 0, false
	}
	if ts.ThinkOpen.Before(ts.FirstContent) || ts.ThinkClose.Before(ts.ThinkOpen) {
		return 0, false
	}
	if !ts.StreamEnd.IsZero() && ts.StreamEnd.Before(ts.ThinkClose) {
		return 0, false
	}
	return ts.ThinkClose.Sub(ts.ThinkOpen), true
}

// between returns end - start, or zero if either instant is unset.
func between(start, end time.Time) time.Duration {
	if start.IsZero() || end.IsZero() {
		return 0
	}
	return end.Sub(start)
}

// Rate returns tokens per second over d. ok is false when d is not positive.
func Rate(tokens int64, d time.Duration) (rate float64, ok bool) {
	if d <= 0 {
		return 0, false
	}
	return float64(tokens) / d.Seconds(), true
}
