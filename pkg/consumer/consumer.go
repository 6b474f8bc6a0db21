// Package consumer drives a fragment stream through the marker scanner and the
// phase timer, and routes every fragment either to the live output or into the
// withheld thinking segment. Every fragment is captured in the transcript.
package consumer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shivanshkc/koda/internal/logger"
	"github.com/shivanshkc/koda/pkg/api"
	"github.com/shivanshkc/koda/pkg/phase"
	"github.com/shivanshkc/koda/pkg/streams"
	"github.com/shivanshkc/koda/pkg/think"
)

// Mode decides which fragments reach the live output.
type Mode int

const (
	// PassThrough writes every fragment live, verbatim.
	PassThrough Mode = iota
	// Suppress writes fragments live only while the thinking state is Pre or Done.
	Suppress
)

func (m Mode) String() string {
	switch m {
	case PassThrough:
		return "pass-through"
	case Suppress:
		return "suppress"
	default:
		return "unknown"
	}
}

// Flusher is implemented by live writers that buffer output.
type Flusher interface {
	Flush() error
}

// Result is everything learned from one consumed stream.
type Result struct {
	// Transcript is the text of every fragment in arrival order.
	Transcript string
	// Thinking is the text of the fragments observed in the Thinking and EndThinking states.
	// In Suppress mode this is what was withheld from the live output, apart from the
	// beginning of an opening marker split across fragments.
	Thinking string
	// Usage is the token usage of the stream, nil if the server did not report it.
	Usage *api.Usage
	// State is the thinking state after the last fragment.
	State think.State
	// Skipped counts fragments dropped because they could not be decoded.
	Skipped int

	Timestamps phase.Timestamps
	Gaps       phase.Durations
}

// Consumer consumes a single stream. It is not reusable and not safe for concurrent use.
type Consumer struct {
	mode    Mode
	scanner *think.Scanner
	timer   *phase.Timer
	live    io.Writer
}

// Option configures a Consumer.
type Option func(*Consumer)

// WithMode sets the routing mode. The default is PassThrough.
func WithMode(mode Mode) Option {
	return func(c *Consumer) { c.mode = mode }
}

// WithScanner replaces the default marker scanner.
func WithScanner(scanner *think.Scanner) Option {
	return func(c *Consumer) { c.scanner = scanner }
}

// WithLive sets the writer for live output. The default discards live output.
func WithLive(w io.Writer) Option {
	return func(c *Consumer) { c.live = w }
}

// New returns a Consumer that stamps phase transitions on timer.
// The caller is expected to have called timer.MarkRequestStart before issuing the request.
func New(timer *phase.Timer, opts ...Option) *Consumer {
	c := &Consumer{mode: PassThrough, timer: timer, live: io.Discard}
	for _, opt := range opts {
		opt(c)
	}
	if c.scanner == nil {
		c.scanner = think.NewScanner()
	}
	return c
}

// Consume pulls the stream until it is exhausted, the context is canceled or a
// fatal fragment arrives. Live output ends with a newline once the stream is exhausted.
//
// On error, the returned Result holds whatever was consumed before the failure.
func (c *Consumer) Consume(ctx context.Context, stream *streams.Stream[api.Fragment]) (Result, error) {
	var transcript, thinking strings.Builder
	var result Result
	// held is live text that may begin an opening marker split across fragments.
	var held string

	// finish fills the result from the accumulated state.
	finish := func() Result {
		result.Transcript = transcript.String()
		result.Thinking = thinking.String()
		result.State = c.scanner.State()
		result.Timestamps = c.timer.Timestamps()
		result.Gaps = c.timer.Gaps()
		return result
	}

	for {
		fragment, ok, err := stream.NextContext(ctx)
		if err != nil {
			return finish(), fmt.Errorf("stream interrupted: %w", err)
		}
		if !ok {
			break
		}

		if fragment.Err != nil {
			// A single undecodable event does not invalidate the rest of the stream.
			if errors.Is(fragment.Err, api.ErrMalformedFragment) {
				result.Skipped++
				logger.Debug("skipping fragment", "err", fragment.Err)
				continue
			}
			return finish(), fragment.Err
		}

		if fragment.IsHeartbeat() {
			continue
		}
		if fragment.Usage != nil {
			result.Usage = fragment.Usage
		}

		// Usage-only fragments neither advance the state nor get written.
		if fragment.Text == "" {
			continue
		}

		previous := c.scanner.State()
		obs := c.scanner.Scan(fragment.Text)
		// Phases are stamped with the arrival time, not the time the fragment is pulled.
		c.timer.ObserveAt(fragment.Received, fragment.Text, obs)
		if obs.State != previous {
			logger.Debug("thinking state changed", "from", previous, "state", obs.State)
		}

		transcript.WriteString(fragment.Text)
		if !obs.State.Visible() {
			thinking.WriteString(fragment.Text)
		}

		live := fragment.Text
		if c.mode == Suppress {
			switch {
			case obs.State == think.Pre:
				live = held + live
				n := c.scanner.Pending(live)
				live, held = live[:len(live)-n], live[len(live)-n:]
			case !obs.State.Visible():
				// The held text was the beginning of the opening marker.
				held = ""
			}
		}

		if (c.mode == PassThrough || obs.State.Visible()) && live != "" {
			if err := c.write(live); err != nil {
				return finish(), err
			}
		}
	}

	c.timer.MarkStreamEnd()
	if err := c.write(held + "\n"); err != nil {
		return finish(), err
	}

	return finish(), nil
}

// write sends text to the live output and flushes it.
func (c *Consumer) write(text string) error {
	if _, err := io.WriteString(c.live, text); err != nil {
		return fmt.Errorf("failed to write live output: %w", err)
	}
	if f, ok := c.live.(Flusher); ok {
		if err := f.Flush(); err != nil {
			return fmt.Errorf("failed to flush live output: %w", err)
		}
	}
	return nil
}
